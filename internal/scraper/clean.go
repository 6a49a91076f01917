package scraper

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// space is the ECMAScript whitespace class. Text extracted from the DOM
// routinely carries non-breaking spaces, which RE2's \s does not match.
const space = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var (
	editMarker = regexp.MustCompile(`(?i)\[[` + space + `]*Edit[^\n\r\x{2028}\x{2029}]*?\]`)
	whitespace = regexp.MustCompile(`[` + space + `]+`)
)

// isSpace reports whether r belongs to the whitespace class above.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// CleanContent strips the first "[Edit ...]" marker left by comment plugins,
// collapses whitespace runs and truncates to maxLen characters.
func CleanContent(s string, maxLen int) string {
	s = trim(s)

	if loc := editMarker.FindStringIndex(s); loc != nil {
		s = s[:loc[0]] + s[loc[1]:]
	}
	s = whitespace.ReplaceAllString(s, " ")

	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
	}
	return s
}

// toComments converts raw DOM records into comments. Records without an
// author or content are dropped and indexes are assigned in kept order.
func toComments(raw []rawComment, maxLen int) []types.Comment {
	comments := make([]types.Comment, 0, len(raw))

	for _, rc := range raw {
		id := trim(rc.ID)
		if id == "" {
			id = fmt.Sprintf("comment_%d", rc.Position)
		}

		author := trim(rc.Author)
		content := CleanContent(rc.Content, maxLen)
		if author == "" || content == "" {
			continue
		}

		var replyTo string
		if rc.HasParent {
			replyTo = trim(rc.ParentID)
			if replyTo == "" {
				replyTo = fmt.Sprintf("comment_%d", rc.ParentPosition)
			}
		}
		if replyTo == id {
			replyTo = ""
		}

		comments = append(comments, types.Comment{
			ID:        id,
			Index:     len(comments),
			Author:    author,
			Content:   content,
			Date:      trim(rc.Date),
			ReplyToID: replyTo,
		})
	}

	return comments
}
