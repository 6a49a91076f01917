package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// quoteLookback bounds how far back a quoting comment may point.
const quoteLookback = 5

const (
	// space is the ECMAScript \s class. RE2's \s is ASCII only, and
	// non-breaking spaces are common in the pages we read.
	space = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

	// lineEnd holds the ECMAScript line terminators. RE2's (?m) only knows \n.
	lineEnd = `\n\r\x{2028}\x{2029}`
)

var (
	// mentionPattern matches @tokens. Applied to lowercased content.
	mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_\-\.ąęśćźżó]+)`)

	// quotePattern recognizes quoted or attributed text: a line starting with
	// ">" or a double quote, `"..." -` attribution, or any line ending in a
	// colon. Line boundaries are matched by consuming the terminator, which is
	// equivalent for a yes/no match.
	quotePattern = regexp.MustCompile(
		`(?:\A|[` + lineEnd + `])` +
			`(?:>|"|[` + space + `]*"[^"]*"[` + space + `]*-|[^\n]*:[` + space + `]*(?:\z|[` + lineEnd + `]))`)

	// matchMentions is swapped in tests to exercise failure isolation.
	matchMentions = FindMentions
)

// DetectLinks derives reply, mention and quote links from the comments.
// Reply links for the whole collection come first, followed by the mention
// and quote links of each comment in collection order.
func DetectLinks(comments []types.Comment) []types.Link {
	if len(comments) == 0 {
		return nil
	}

	byID := make(map[string]types.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	links := detectReplies(comments, byID)

	for _, c := range comments {
		found, err := detectCommentLinks(c, comments)
		if err != nil {
			log.Warn().
				Str("component", "analyzer").
				Str("comment_id", c.ID).
				Err(err).
				Msg("Skipping comment during link detection")
			continue
		}
		links = append(links, found...)
	}

	return links
}

func detectReplies(comments []types.Comment, byID map[string]types.Comment) []types.Link {
	var links []types.Link
	for _, c := range comments {
		if c.ReplyToID == "" || c.ReplyToID == c.ID {
			continue
		}
		if _, ok := byID[c.ReplyToID]; !ok {
			continue
		}
		links = append(links, newLink(c.ID, c.ReplyToID, types.LinkReply, ""))
	}
	return links
}

// detectCommentLinks returns the mention and quote links of a single comment.
// A panic while matching is converted into an error so one bad comment cannot
// abort the whole pass.
func detectCommentLinks(c types.Comment, comments []types.Comment) (links []types.Link, err error) {
	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = fmt.Errorf("detect links for comment %q: %v", c.ID, r)
		}
	}()

	content := strings.ToLower(c.Content)

	for _, token := range matchMentions(content) {
		target, ok := findCommentByAuthor(comments, token)
		if !ok || target.ID == c.ID {
			continue
		}
		links = append(links, newLink(c.ID, target.ID, types.LinkMention, token))
	}

	if HasQuote(content) {
		if prev, ok := nearestPreceding(comments, c); ok {
			links = append(links, newLink(c.ID, prev.ID, types.LinkQuote, ""))
		}
	}

	return links, nil
}

// FindMentions returns the @tokens in text, in order of appearance.
func FindMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, m[1])
	}
	return mentions
}

// HasQuote reports whether text looks like it quotes another comment.
func HasQuote(text string) bool {
	return quotePattern.MatchString(text)
}

// findCommentByAuthor returns the first comment whose author contains name,
// or whose name contains the author, ignoring case.
func findCommentByAuthor(comments []types.Comment, name string) (types.Comment, bool) {
	lowerName := strings.ToLower(name)
	for _, c := range comments {
		author := strings.ToLower(c.Author)
		if author == "" {
			continue
		}
		if strings.Contains(author, lowerName) || strings.Contains(lowerName, author) {
			return c, true
		}
	}
	return types.Comment{}, false
}

// nearestPreceding returns the comment with the greatest index below c's,
// considering only the quoteLookback most recent ones.
func nearestPreceding(comments []types.Comment, c types.Comment) (types.Comment, bool) {
	var window []types.Comment
	for _, other := range comments {
		if other.Index >= c.Index {
			continue
		}
		window = insertByIndexDesc(window, other)
		if len(window) > quoteLookback {
			window = window[:quoteLookback]
		}
	}
	if len(window) == 0 {
		return types.Comment{}, false
	}
	return window[0], true
}

func insertByIndexDesc(window []types.Comment, c types.Comment) []types.Comment {
	pos := len(window)
	for i, w := range window {
		if c.Index > w.Index {
			pos = i
			break
		}
	}
	window = append(window, types.Comment{})
	copy(window[pos+1:], window[pos:])
	window[pos] = c
	return window
}

func newLink(from, to string, linkType types.LinkType, author string) types.Link {
	return types.Link{
		From:       from,
		To:         to,
		Type:       linkType,
		Confidence: linkType.Confidence(),
		Author:     author,
	}
}
