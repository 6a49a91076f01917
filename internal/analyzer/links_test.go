package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/threadreader/internal/types"
)

func TestFindMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single", "@alice thanks", []string{"alice"}},
		{"multiple", "@bob and @carol.k agree", []string{"bob", "carol.k"}},
		{"diacritics", "@zośka_ż nie", []string{"zośka_ż"}},
		{"hyphen", "cc @jan-maria", []string{"jan-maria"}},
		{"none", "no mentions here", []string{}},
		{"bare at", "@ nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMentions(tt.text))
		})
	}
}

func TestHasQuote(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"angle bracket", "> you wrote this", true},
		{"angle bracket on later line", "hmm\n> you wrote this", true},
		{"leading double quote", `"exactly" my thoughts`, true},
		{"attribution", `  "to be or not" - hamlet`, true},
		{"trailing colon", "here is what i think:", true},
		{"colon then blank", "in reply:  \nsecond line", true},
		{"colon mid line", "ratio 3:1 is fine", false},
		{"plain", "just a comment", false},
		{"indented angle bracket", "  > not at line start", false},
		{"colon then nbsp", "ala napisała:\u00a0\nzgadzam się", true},
		{"colon then nbsp at end", "cytuję:\u00a0\u00a0", true},
		{"colon then bom", "zobacz:\ufeff", true},
		{"colon before line separator", "uwaga:\u2028dalej", true},
		{"angle bracket after paragraph separator", "ok\u2029> cytat", true},
		{"angle bracket after carriage return", "ok\r> cytat", true},
		{"attribution with nbsp", "\u00a0\"cytat\"\u00a0- autor", true},
		{"colon then next line", "uwaga:\u00a0dalej", false},
		{"next line is not whitespace", "koniec:\u0085", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasQuote(tt.text))
		})
	}
}

func TestDetectLinks_MentionUsesFirstAuthorMatch(t *testing.T) {
	comments := []types.Comment{
		{ID: "1", Index: 0, Author: "Ann", Content: "hello"},
		{ID: "2", Index: 1, Author: "Anna", Content: "hi"},
		{ID: "3", Index: 2, Author: "Piotr", Content: "@anna welcome"},
	}

	links := DetectLinks(comments)

	require.Len(t, links, 1)
	assert.Equal(t, "3", links[0].From)
	assert.Equal(t, "1", links[0].To, "partial-name match on the earlier author wins")
	assert.Equal(t, "anna", links[0].Author)
}

func TestDetectLinks_MentionMatchesPartialNames(t *testing.T) {
	comments := []types.Comment{
		{ID: "1", Index: 0, Author: "Jan Kowalski", Content: "hello"},
		{ID: "2", Index: 1, Author: "Ola", Content: "@kowalski right"},
	}

	links := DetectLinks(comments)

	require.Len(t, links, 1)
	assert.Equal(t, types.Link{From: "2", To: "1", Type: types.LinkMention, Confidence: 0.7, Author: "kowalski"}, links[0])
}

func TestDetectLinks_SkipsSelfAndUnknownMentions(t *testing.T) {
	comments := []types.Comment{
		{ID: "1", Index: 0, Author: "Bob", Content: "@bob talking to myself"},
		{ID: "2", Index: 1, Author: "Eve", Content: "@nobody there?"},
	}

	assert.Empty(t, DetectLinks(comments))
}

func TestDetectLinks_QuoteLinksMostRecentPreceding(t *testing.T) {
	comments := []types.Comment{
		{ID: "q", Index: 0, Author: "First", Content: "> nothing before me"},
		{ID: "a", Index: 1, Author: "Ala", Content: "one"},
		{ID: "b", Index: 2, Author: "Basia", Content: "two"},
		{ID: "c", Index: 3, Author: "Cezary", Content: "My answer:"},
	}

	links := DetectLinks(comments)

	require.Len(t, links, 1)
	assert.Equal(t, types.Link{From: "c", To: "b", Type: types.LinkQuote, Confidence: 0.6}, links[0])
}

func TestDetectLinks_QuoteUsesIndexNotPosition(t *testing.T) {
	comments := []types.Comment{
		{ID: "late", Index: 5, Author: "Late", Content: "later"},
		{ID: "quoting", Index: 3, Author: "Quoter", Content: "> earlier"},
		{ID: "early", Index: 1, Author: "Early", Content: "first"},
	}

	links := DetectLinks(comments)

	require.Len(t, links, 1)
	assert.Equal(t, "early", links[0].To)
}

func TestDetectLinks_ReplyRequiresKnownParent(t *testing.T) {
	comments := []types.Comment{
		{ID: "a", Index: 0, Author: "Ala", Content: "root"},
		{ID: "b", Index: 1, Author: "Bela", Content: "child", ReplyToID: "a"},
		{ID: "c", Index: 2, Author: "Celka", Content: "orphan", ReplyToID: "gone"},
		{ID: "d", Index: 3, Author: "Dora", Content: "self", ReplyToID: "d"},
	}

	links := DetectLinks(comments)

	require.Len(t, links, 1)
	assert.Equal(t, types.Link{From: "b", To: "a", Type: types.LinkReply, Confidence: 1.0}, links[0])
}

func TestBuildClusters_StrongestEvidenceAppliedFirst(t *testing.T) {
	comments := mixedEvidence()

	clusters := BuildClusters(comments, DetectLinks(comments))

	require.Len(t, clusters, 1)
	// The reply D->A is applied before the mention and quote, so D's root
	// absorbs the rest.
	assert.Equal(t, "D", clusters[0].Root)
	assert.Len(t, clusters[0].Comments, 4)
}

func TestBuildClusters_IgnoresDanglingLinks(t *testing.T) {
	comments := []types.Comment{
		{ID: "a", Index: 0, Author: "Ala", Content: "x"},
		{ID: "b", Index: 1, Author: "Bela", Content: "y"},
	}
	links := []types.Link{
		{From: "a", To: "zzz", Type: types.LinkReply, Confidence: 1},
		{From: "b", To: "b", Type: types.LinkQuote, Confidence: 0.6},
	}

	clusters := BuildClusters(comments, links)

	require.Len(t, clusters, 2)
	assert.Equal(t, "a", clusters[0].Root)
	assert.Equal(t, "b", clusters[1].Root)
}

func TestRefineThreads_SkipsEmptyClusters(t *testing.T) {
	threads := RefineThreads([]types.Cluster{
		{Root: "empty"},
		{Root: "x", Comments: []types.Comment{{ID: "x", Author: "Xena"}}},
	})

	require.Len(t, threads, 1)
	assert.Equal(t, "thread_1", threads[0].ID)
}

func TestDetectLinks_FailingCommentDoesNotAffectOthers(t *testing.T) {
	orig := matchMentions
	matchMentions = func(text string) []string {
		if strings.Contains(text, "boom") {
			panic("unmatchable content")
		}
		return orig(text)
	}
	t.Cleanup(func() { matchMentions = orig })

	comments := []types.Comment{
		{ID: "A", Index: 0, Author: "Alice", Content: "first"},
		{ID: "B", Index: 1, Author: "Bob", Content: "@alice hi"},
		{ID: "C", Index: 2, Author: "Carol", Content: "boom @alice", ReplyToID: "B"},
		{ID: "D", Index: 3, Author: "Dave", Content: "> quoted", ReplyToID: "A"},
	}

	var links []types.Link
	require.NotPanics(t, func() { links = DetectLinks(comments) })

	assert.Equal(t, []types.Link{
		{From: "C", To: "B", Type: types.LinkReply, Confidence: 1.0},
		{From: "D", To: "A", Type: types.LinkReply, Confidence: 1.0},
		{From: "B", To: "A", Type: types.LinkMention, Confidence: 0.7, Author: "alice"},
		{From: "D", To: "C", Type: types.LinkQuote, Confidence: 0.6},
	}, links)
}
