package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/browser"
	"github.com/ibeckermayer/threadreader/internal/types"
)

// ErrNoComments is returned when a page has no recognizable comments.
var ErrNoComments = errors.New("no comments found on page")

// Options configures a Scraper
type Options struct {
	Headless         bool
	Timeout          time.Duration
	AcceptLanguage   string
	MaxContentLength int
}

// Scraper extracts comments from discussion pages
type Scraper struct {
	opts Options
}

// New creates a new scraper
func New(opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = 500
	}
	return &Scraper{opts: opts}
}

// rawComment is the record extracted from the DOM via JavaScript
type rawComment struct {
	Position       int    `json:"position"`
	ID             string `json:"id"`
	Author         string `json:"author"`
	Content        string `json:"content"`
	Date           string `json:"date"`
	HasParent      bool   `json:"hasParent"`
	ParentID       string `json:"parentId"`
	ParentPosition int    `json:"parentPosition"`
}

// ScrapeComments loads pageURL and returns its comments in page order
func (s *Scraper) ScrapeComments(ctx context.Context, pageURL string) ([]types.Comment, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(s.opts.Headless)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// Set timeout for the entire scrape operation
	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, s.opts.Timeout)
	defer timeoutCancel()

	var raw []rawComment
	err := chromedp.Run(browserCtx,
		s.setHeaders(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady(WaitForPage, chromedp.ByQuery),
		chromedp.Evaluate(extractScript(), &raw),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract comments from %s: %w", pageURL, err)
	}

	comments := toComments(raw, s.opts.MaxContentLength)

	log.Info().
		Str("component", "scraper").
		Str("url", pageURL).
		Int("raw", len(raw)).
		Int("comments", len(comments)).
		Msg("Extracted comments")

	if len(comments) == 0 {
		return nil, ErrNoComments
	}
	return comments, nil
}

// setHeaders sends the configured Accept-Language with every request
func (s *Scraper) setHeaders() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if s.opts.AcceptLanguage == "" {
			return nil
		}
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}
		return network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": s.opts.AcceptLanguage,
		}).Do(ctx)
	})
}

// extractScript builds the DOM extraction JavaScript from the selector cascades
func extractScript() string {
	return fmt.Sprintf(extractJSTemplate,
		mustJSON(CommentSelectors),
		mustJSON(AuthorSelectors),
		mustJSON(ContentSelectors),
		mustJSON(DateSelectors),
	)
}

func mustJSON(v []string) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// extractJSTemplate returns one rawComment per comment element. Text cleanup
// happens in Go.
const extractJSTemplate = `
(function() {
	const commentSelectors = %s;
	const authorSelectors = %s;
	const contentSelectors = %s;
	const dateSelectors = %s;

	let selector = null;
	let elements = [];
	for (const sel of commentSelectors) {
		elements = Array.from(document.querySelectorAll(sel));
		if (elements.length > 0) { selector = sel; break; }
	}

	const first = (el, sels) => {
		for (const sel of sels) {
			const found = el.querySelector(sel);
			if (found) return found;
		}
		return null;
	};

	const results = [];
	elements.forEach((el, position) => {
		try {
			const authorEl = first(el, authorSelectors);
			const contentEl = first(el, contentSelectors);
			const dateEl = first(el, dateSelectors);

			const parentEl = el.parentElement ? el.parentElement.closest(selector) : null;
			const parentPosition = parentEl ? elements.indexOf(parentEl) : -1;

			results.push({
				position: position,
				id: el.id || '',
				author: authorEl ? authorEl.textContent.trim() : '',
				content: contentEl ? contentEl.textContent.trim() : '',
				date: dateEl ? (dateEl.textContent.trim() || dateEl.getAttribute('datetime') || '') : '',
				hasParent: parentPosition >= 0,
				parentId: parentEl ? (parentEl.id || '') : '',
				parentPosition: parentPosition
			});
		} catch (e) {
			console.debug('Error parsing comment:', e);
		}
	});

	return results;
})()
`
