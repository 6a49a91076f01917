package scraper

// Comment DOM selectors.
// Each list is a cascade: the first selector that matches wins. They cover
// the common WordPress comment markups; extend them when a theme breaks.

var (
	// CommentSelectors locate comment containers on the page
	CommentSelectors = []string{
		`.comment`,
		`.wp-comment-wrapper`,
		`li.comment`,
		`article.comment`,
		`[id^="comment"]`,
	}

	AuthorSelectors = []string{
		`.comment-author > a`,
		`.comment-author-name`,
		`.fn`,
		`.comment-author`,
		`strong.fn`,
	}

	ContentSelectors = []string{
		`.comment-content`,
		`.comment-body`,
		`.comment-text`,
		`.entry-content`,
	}

	DateSelectors = []string{
		`.comment-date`,
		`.comment-meta`,
		`time`,
		`.published`,
	}
)

// WaitForPage is the element to wait for before extracting
const WaitForPage = `body`
