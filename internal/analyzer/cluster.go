package analyzer

import (
	"sort"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// forest is a disjoint-set forest over comment ids.
type forest struct {
	parent map[string]string
	rank   map[string]int
}

func newForest(comments []types.Comment) *forest {
	f := &forest{
		parent: make(map[string]string, len(comments)),
		rank:   make(map[string]int, len(comments)),
	}
	for _, c := range comments {
		f.parent[c.ID] = c.ID
		f.rank[c.ID] = 0
	}
	return f
}

// find returns the root of x, compressing the path it walked.
func (f *forest) find(x string) string {
	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for x != root {
		next := f.parent[x]
		f.parent[x] = root
		x = next
	}
	return root
}

func (f *forest) has(x string) bool {
	_, ok := f.parent[x]
	return ok
}

// union merges the sets of x and y by rank. On equal rank x's root wins.
func (f *forest) union(x, y string) {
	px, py := f.find(x), f.find(y)
	if px == py {
		return
	}

	switch {
	case f.rank[px] < f.rank[py]:
		f.parent[px] = py
	case f.rank[px] > f.rank[py]:
		f.parent[py] = px
	default:
		f.parent[py] = px
		f.rank[px]++
	}
}

// BuildClusters partitions comments using the links, strongest first.
// Clusters are returned in the order their first member appears in comments,
// and members keep collection order.
func BuildClusters(comments []types.Comment, links []types.Link) []types.Cluster {
	if len(comments) == 0 {
		return nil
	}

	f := newForest(comments)

	ordered := make([]types.Link, len(links))
	copy(ordered, links)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	for _, l := range ordered {
		if l.From == l.To || !f.has(l.From) || !f.has(l.To) {
			continue
		}
		f.union(l.From, l.To)
	}

	var clusters []types.Cluster
	positions := make(map[string]int)
	for _, c := range comments {
		root := f.find(c.ID)
		pos, ok := positions[root]
		if !ok {
			pos = len(clusters)
			positions[root] = pos
			clusters = append(clusters, types.Cluster{Root: root})
		}
		clusters[pos].Comments = append(clusters[pos].Comments, c)
	}

	return clusters
}
