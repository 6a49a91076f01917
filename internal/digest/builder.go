// Package digest renders analyzed threads into a readable report.
package digest

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// ErrNoThreads is returned when there is nothing to report
var ErrNoThreads = errors.New("no threads to include in report")

// ReadChecker reports whether a comment has been read
type ReadChecker interface {
	IsRead(id string) bool
}

// Builder creates thread reports
type Builder struct {
	maxThreads      int
	includeComments bool
	template        *template.Template
	now             func() time.Time
}

// New creates a new report builder. maxThreads <= 0 means no limit.
func New(maxThreads int, includeComments bool) (*Builder, error) {
	tmpl, err := template.New("report").Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{
		maxThreads:      maxThreads,
		includeComments: includeComments,
		template:        tmpl,
		now:             time.Now,
	}, nil
}

// Report is a rendered thread report
type Report struct {
	Subject      string
	HTMLBody     string
	PlainBody    string
	PageURL      string
	ThreadCount  int
	CommentCount int
	UnreadCount  int
	CreatedAt    time.Time
}

// ReportData is the template data structure
type ReportData struct {
	Title        string
	PageURL      string
	Date         string
	ThreadCount  int
	CommentCount int
	UnreadCount  int
	Threads      []ThreadData
	Omitted      int
}

// ThreadData represents a thread in the report template
type ThreadData struct {
	ID          string
	MainAuthor  string
	Size        int
	UnreadCount int
	Comments    []CommentData
}

// CommentData represents a comment in the report template
type CommentData struct {
	ID      string
	Author  string
	Date    string
	Content string
	Unread  bool
	IsReply bool
}

// ApplyUnread sets UnreadCount on every thread from the read checker
func ApplyUnread(threads []types.Thread, rc ReadChecker) {
	for i := range threads {
		n := 0
		for _, c := range threads[i].Comments {
			if !rc.IsRead(c.ID) {
				n++
			}
		}
		threads[i].UnreadCount = n
	}
}

// Build renders a report for the threads of one page. Threads keep the order
// they are given in; rc may be nil, in which case nothing is flagged unread.
func (b *Builder) Build(pageURL string, threads []types.Thread, rc ReadChecker) (*Report, error) {
	if len(threads) == 0 {
		return nil, ErrNoThreads
	}

	now := b.now()
	data := ReportData{
		Title:       "Threads",
		PageURL:     pageURL,
		Date:        now.Format("Monday, January 2 15:04"),
		ThreadCount: len(threads),
	}

	for _, th := range threads {
		data.CommentCount += th.Size
		data.UnreadCount += th.UnreadCount
	}

	shown := threads
	if b.maxThreads > 0 && len(shown) > b.maxThreads {
		shown = shown[:b.maxThreads]
		data.Omitted = len(threads) - b.maxThreads
	}

	data.Threads = make([]ThreadData, len(shown))
	for i, th := range shown {
		td := ThreadData{
			ID:          th.ID,
			MainAuthor:  th.MainAuthor,
			Size:        th.Size,
			UnreadCount: th.UnreadCount,
		}
		if b.includeComments {
			td.Comments = make([]CommentData, len(th.Comments))
			for j, c := range th.Comments {
				td.Comments[j] = CommentData{
					ID:      c.ID,
					Author:  c.Author,
					Date:    c.Date,
					Content: c.Content,
					Unread:  rc != nil && !rc.IsRead(c.ID),
					IsReply: j > 0,
				}
			}
		}
		data.Threads[i] = td
	}

	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:      fmt.Sprintf("%d threads, %d unread comments - %s", data.ThreadCount, data.UnreadCount, pageURL),
		HTMLBody:     htmlBuf.String(),
		PlainBody:    buildPlainText(data),
		PageURL:      pageURL,
		ThreadCount:  data.ThreadCount,
		CommentCount: data.CommentCount,
		UnreadCount:  data.UnreadCount,
		CreatedAt:    now,
	}, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func buildPlainText(data ReportData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s\n%d threads • %d comments\n\n", data.PageURL, data.Date, data.ThreadCount, data.CommentCount)

	for i, th := range data.Threads {
		fmt.Fprintf(&buf, "%d. %s (%d comments", i+1, th.MainAuthor, th.Size)
		if th.UnreadCount > 0 {
			fmt.Fprintf(&buf, ", %d unread", th.UnreadCount)
		}
		buf.WriteString(")\n")
		for _, c := range th.Comments {
			marker := " "
			if c.Unread {
				marker = "*"
			}
			fmt.Fprintf(&buf, "   %s %s: %s\n", marker, c.Author, truncate(strings.TrimSpace(c.Content), 120))
		}
	}
	if data.Omitted > 0 {
		fmt.Fprintf(&buf, "\n(+%d smaller threads)\n", data.Omitted)
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 720px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #667eea; margin-bottom: 5px; font-size: 20px; }
        .meta { color: #666; font-size: 12px; margin-bottom: 20px; }
        .thread { margin-bottom: 12px; padding: 10px; background: #f5f7ff; border-left: 4px solid #667eea; border-radius: 4px; }
        .thread.unread { border-left-color: #e8590c; }
        .author { font-weight: bold; }
        .count { font-size: 11px; color: #666; margin-top: 4px; }
        .comment { margin: 8px 0 0; padding: 6px 8px; background: white; border-radius: 4px; font-size: 14px; line-height: 1.4; }
        .comment.reply { margin-left: 16px; }
        .comment.unread { box-shadow: 0 0 6px rgba(102, 126, 234, 0.4); }
        .date { color: #999; font-size: 11px; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>🧵 {{.Title}}</h1>
        <div class="meta"><a href="{{.PageURL}}">{{.PageURL}}</a><br>{{.ThreadCount}} threads • {{.CommentCount}} comments • {{.UnreadCount}} unread • {{.Date}}</div>

        {{range .Threads}}
        <div class="thread{{if .UnreadCount}} unread{{end}}" id="{{.ID}}">
            <span class="author">{{.MainAuthor}}</span>
            <div class="count">{{.Size}} comments{{if .UnreadCount}} · {{.UnreadCount}} unread{{end}}</div>
            {{range .Comments}}
            <div class="comment{{if .IsReply}} reply{{end}}{{if .Unread}} unread{{end}}" data-comment-id="{{.ID}}">
                <span class="author">{{.Author}}</span> <span class="date">{{.Date}}</span>
                <div>{{.Content}}</div>
            </div>
            {{end}}
        </div>
        {{end}}

        <div class="footer">
            {{if .Omitted}}{{.Omitted}} smaller threads not shown · {{end}}Generated by threadreader
        </div>
    </div>
</body>
</html>`
