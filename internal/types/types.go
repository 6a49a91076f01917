package types

// Comment is a single extracted discussion comment.
type Comment struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Date      string `json:"date,omitempty"`
	ReplyToID string `json:"replyToId,omitempty"` // empty when the comment has no explicit parent
}

// LinkType names the kind of evidence a Link was derived from
type LinkType string

const (
	LinkReply   LinkType = "reply"
	LinkMention LinkType = "mention"
	LinkQuote   LinkType = "quote"
)

// Confidence returns the fixed merge strength for the link type.
func (t LinkType) Confidence() float64 {
	switch t {
	case LinkReply:
		return 1.0
	case LinkMention:
		return 0.7
	case LinkQuote:
		return 0.6
	default:
		return 0
	}
}

// Link is a directed hypothesis that two comments belong to one conversation.
type Link struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Type       LinkType `json:"type"`
	Confidence float64  `json:"confidence"`
	Author     string   `json:"author,omitempty"` // matched mention token
}

// Cluster is a raw group of comments sharing a union-find root
type Cluster struct {
	Root     string    `json:"root"`
	Comments []Comment `json:"comments"`
}

// Thread is a refined, ordered conversation
type Thread struct {
	ID          string    `json:"id"`
	Comments    []Comment `json:"comments"`
	Size        int       `json:"size"`
	MainAuthor  string    `json:"mainAuthor"`
	UnreadCount int       `json:"unreadCount"`
}

// CommentIDs returns the member ids in thread order.
func (t Thread) CommentIDs() []string {
	ids := make([]string, len(t.Comments))
	for i, c := range t.Comments {
		ids[i] = c.ID
	}
	return ids
}
