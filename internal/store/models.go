package store

import "time"

// AnalysisRun summarizes one analysis of a page
type AnalysisRun struct {
	ID           string    `json:"id"`
	PageURL      string    `json:"page_url"`
	CommentCount int       `json:"comment_count"`
	LinkCount    int       `json:"link_count"`
	ThreadCount  int       `json:"thread_count"`
	UnreadCount  int       `json:"unread_count"` // unread before the run marked comments read
	AnalyzedAt   time.Time `json:"analyzed_at"`
}
