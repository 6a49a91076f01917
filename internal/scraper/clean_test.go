package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ibeckermayer/threadreader/internal/types"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"collapses whitespace", "  hello \n\n  world\t! ", 500, "hello world !"},
		{"strips first edit marker", "text [ Edit 5 min ] more [edit]", 500, "text more [edit]"},
		{"edit marker case insensitive", "[EDIT: typo]fixed", 500, "fixed"},
		{"truncates by characters", "zażółć gęślą", 6, "zażółć"},
		{"no limit", strings.Repeat("a", 600), 0, strings.Repeat("a", 600)},
		{"empty", "   ", 500, ""},
		{"collapses nbsp runs", "w\u00a0\u00a0domu", 500, "w domu"},
		{"collapses line separator", "a\u2028b", 500, "a b"},
		{"trims bom and nbsp", "\ufeff\u00a0hello\u3000", 500, "hello"},
		{"keeps next line", "a\u0085b", 500, "a\u0085b"},
		{"edit marker after nbsp", "x [\u00a0Edit] y", 500, "x y"},
		{"edit marker stops at line end", "[edit\nfoo] bar", 500, "[edit foo] bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanContent(tt.in, tt.maxLen))
		})
	}
}

func TestToComments(t *testing.T) {
	raw := []rawComment{
		{Position: 0, ID: "comment-1", Author: " Alice ", Content: "First  post", Date: " 1 May "},
		{Position: 1, ID: "", Author: "", Content: "anonymous is dropped"},
		{Position: 2, ID: "", Author: "Bob", Content: "nested reply", HasParent: true, ParentID: "comment-1"},
		{Position: 3, ID: "", Author: "Carol", Content: "reply to unnamed", HasParent: true, ParentPosition: 2},
		{Position: 4, ID: "comment-5", Author: "Dave", Content: "   "},
		{Position: 5, ID: "comment-6", Author: "Eve", Content: "top level", ParentPosition: -1},
	}

	got := toComments(raw, 500)

	assert.Equal(t, []types.Comment{
		{ID: "comment-1", Index: 0, Author: "Alice", Content: "First post", Date: "1 May"},
		{ID: "comment_2", Index: 1, Author: "Bob", Content: "nested reply", ReplyToID: "comment-1"},
		{ID: "comment_3", Index: 2, Author: "Carol", Content: "reply to unnamed", ReplyToID: "comment_2"},
		{ID: "comment-6", Index: 3, Author: "Eve", Content: "top level"},
	}, got)
}

func TestExtractScriptEmbedsSelectors(t *testing.T) {
	js := extractScript()

	for _, sel := range [][]string{CommentSelectors, AuthorSelectors, ContentSelectors, DateSelectors} {
		assert.Contains(t, js, mustJSON(sel))
	}
	assert.NotContains(t, js, "%!")
}
