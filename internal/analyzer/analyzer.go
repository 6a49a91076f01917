// Package analyzer infers conversation threads from a flat comment list.
//
// The pipeline has three stages: DetectLinks collects reply, mention and
// quote evidence, BuildClusters merges comments with a union-find forest
// applying the strongest evidence first, and RefineThreads orders the
// resulting groups into threads. Every stage is synchronous and total.
package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// Result holds the output of every pipeline stage for one analysis.
type Result struct {
	Comments []types.Comment `json:"comments"`
	Links    []types.Link    `json:"links"`
	Clusters []types.Cluster `json:"clusters"`
	Threads  []types.Thread  `json:"threads"`
}

// Analyzer runs the thread inference pipeline
type Analyzer struct{}

// New creates a new analyzer
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze runs link detection, clustering and refinement over comments.
// The input slice is not modified.
func (a *Analyzer) Analyze(comments []types.Comment) *Result {
	indexed := AssignIndexes(comments)

	links := DetectLinks(indexed)
	clusters := BuildClusters(indexed, links)
	threads := RefineThreads(clusters)

	log.Debug().
		Str("component", "analyzer").
		Int("comments", len(indexed)).
		Int("links", len(links)).
		Int("threads", len(threads)).
		Msg("Analysis complete")

	return &Result{
		Comments: indexed,
		Links:    links,
		Clusters: clusters,
		Threads:  threads,
	}
}

// Threads is a shorthand for Analyze(comments).Threads.
func (a *Analyzer) Threads(comments []types.Comment) []types.Thread {
	return a.Analyze(comments).Threads
}

// AssignIndexes returns a copy of comments with Index set to the collection
// position when the caller left every index at zero. Collections that already
// carry indexes are copied unchanged.
func AssignIndexes(comments []types.Comment) []types.Comment {
	out := make([]types.Comment, len(comments))
	copy(out, comments)

	for _, c := range out {
		if c.Index != 0 {
			return out
		}
	}
	for i := range out {
		out[i].Index = i
	}
	return out
}
