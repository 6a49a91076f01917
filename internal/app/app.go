package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/threadreader/internal/analyzer"
	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/digest"
	"github.com/ibeckermayer/threadreader/internal/notifier"
	"github.com/ibeckermayer/threadreader/internal/readstate"
	"github.com/ibeckermayer/threadreader/internal/store"
	"github.com/ibeckermayer/threadreader/internal/types"
)

// CommentSource extracts the comments of a page
type CommentSource interface {
	ScrapeComments(ctx context.Context, pageURL string) ([]types.Comment, error)
}

// SourceFactory builds a CommentSource from scraping configuration
type SourceFactory func(cfg config.ScrapingConfig) CommentSource

// History records what was analyzed
type History interface {
	SaveComments(pageURL string, comments []types.Comment) error
	RecordRun(run *store.AnalysisRun) error
}

// App holds the application state.
type App struct {
	mu sync.RWMutex

	// Immutable after creation.
	analyzer   *analyzer.Analyzer
	tracker    *readstate.Tracker
	history    History // may be nil
	cache      *store.StepCache
	newSource  SourceFactory
	openReport func(path string) error

	// Mutable fields - use getSnapshot() for concurrent access.
	config   *config.Config
	source   CommentSource
	builder  *digest.Builder
	notifier *notifier.Notifier
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config   *config.Config
	source   CommentSource
	builder  *digest.Builder
	notifier *notifier.Notifier
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:   a.config,
		source:   a.source,
		builder:  a.builder,
		notifier: a.notifier,
	}
}

// New creates a new App instance.
func New(cfg *config.Config, newSource SourceFactory, tracker *readstate.Tracker, history History, cache *store.StepCache) (*App, error) {
	a := &App{
		analyzer:   analyzer.New(),
		tracker:    tracker,
		history:    history,
		cache:      cache,
		newSource:  newSource,
		openReport: browser.OpenFile,
	}
	if err := a.apply(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// apply swaps in everything derived from cfg.
func (a *App) apply(cfg *config.Config) error {
	builder, err := digest.New(cfg.Report.MaxThreads, cfg.Report.IncludeComments)
	if err != nil {
		return err
	}
	n, err := notifier.NewFromConfig(cfg.Email)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.config = cfg
	a.source = a.newSource(cfg.Scraping)
	a.builder = builder
	a.notifier = n
	a.mu.Unlock()
	return nil
}

// Tracker returns the read-state tracker.
func (a *App) Tracker() *readstate.Tracker {
	return a.tracker
}

// PageResult is the outcome of analyzing one page.
type PageResult struct {
	PageURL      string
	Analysis     *analyzer.Result
	Report       *digest.Report
	ReportPath   string
	UnreadBefore int
	Notified     bool
}

// AnalyzePage performs the full scrape -> analyze -> report -> mark read flow.
func (a *App) AnalyzePage(ctx context.Context, pageURL string) (*PageResult, error) {
	s := a.getSnapshot()

	log.Info().Str("component", "app").Str("url", pageURL).Msg("Extracting comments")
	comments, err := s.source.ScrapeComments(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return a.AnalyzeComments(ctx, pageURL, comments)
}

// AnalyzeComments analyzes comments that were already extracted from pageURL.
func (a *App) AnalyzeComments(ctx context.Context, pageURL string, comments []types.Comment) (*PageResult, error) {
	s := a.getSnapshot()
	logger := log.With().Str("component", "app").Str("url", pageURL).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := a.analyzer.Analyze(comments)
	digest.ApplyUnread(res.Threads, a.tracker)
	unread := a.tracker.UnreadCount(res.Comments)

	logger.Info().
		Int("comments", len(res.Comments)).
		Int("links", len(res.Links)).
		Int("threads", len(res.Threads)).
		Int("unread", unread).
		Msg("Analyzed comments")

	a.cacheSteps(res)

	result := &PageResult{
		PageURL:      pageURL,
		Analysis:     res,
		UnreadBefore: unread,
	}

	if len(res.Threads) > 0 {
		report, err := s.builder.Build(pageURL, res.Threads, a.tracker)
		if err != nil {
			return nil, fmt.Errorf("failed to build report: %w", err)
		}
		result.Report = report

		if a.cache != nil {
			path, err := a.cache.SaveTextOutput(store.StepReports, report.HTMLBody, ".html")
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to save report")
			} else {
				result.ReportPath = path
				logger.Info().Str("path", path).Msg("Report saved")
			}
		}

		if s.notifier != nil {
			sent, err := s.notifier.SendReport(report)
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to email report")
			}
			result.Notified = sent
		}
	}

	a.recordHistory(pageURL, res, unread)

	if s.config.ReadState.MarkReadOnAnalyze && len(res.Comments) > 0 {
		ids := make([]string, len(res.Comments))
		for i, c := range res.Comments {
			ids[i] = c.ID
		}
		if err := a.tracker.MarkMultipleAsRead(ids); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist read state")
		}
	}

	if result.ReportPath != "" && s.config.Report.OpenAfterBuild {
		if err := a.openReport(result.ReportPath); err != nil {
			logger.Warn().Err(err).Msg("Failed to open report")
		}
	}

	return result, nil
}

// cacheSteps writes intermediate outputs for later inspection. Failures are
// logged and otherwise ignored.
func (a *App) cacheSteps(res *analyzer.Result) {
	if a.cache == nil {
		return
	}
	steps := []struct {
		name store.StepName
		save func() (string, error)
	}{
		{store.StepComments, func() (string, error) { return store.SaveStepOutput(a.cache, store.StepComments, res.Comments) }},
		{store.StepLinks, func() (string, error) { return store.SaveStepOutput(a.cache, store.StepLinks, res.Links) }},
		{store.StepThreads, func() (string, error) { return store.SaveStepOutput(a.cache, store.StepThreads, res.Threads) }},
	}
	for _, st := range steps {
		if _, err := st.save(); err != nil {
			log.Warn().Str("component", "app").Str("step", string(st.name)).Err(err).Msg("Failed to cache step output")
		}
	}
}

func (a *App) recordHistory(pageURL string, res *analyzer.Result, unread int) {
	if a.history == nil {
		return
	}
	if err := a.history.SaveComments(pageURL, res.Comments); err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("Failed to store comments")
	}
	run := &store.AnalysisRun{
		PageURL:      pageURL,
		CommentCount: len(res.Comments),
		LinkCount:    len(res.Links),
		ThreadCount:  len(res.Threads),
		UnreadCount:  unread,
	}
	if err := a.history.RecordRun(run); err != nil {
		log.Warn().Str("component", "app").Err(err).Msg("Failed to record run")
	}
}

// AnalyzeAll analyzes every configured page. Pages are extracted
// concurrently and analyzed one at a time in configuration order. A failing
// page does not stop the others; all failures are returned joined.
func (a *App) AnalyzeAll(ctx context.Context) ([]*PageResult, error) {
	s := a.getSnapshot()
	pages := s.config.Pages
	if len(pages) == 0 {
		log.Info().Str("component", "app").Msg("No pages configured")
		return nil, nil
	}

	type scraped struct {
		comments []types.Comment
		err      error
	}
	extracted := make([]scraped, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	if limit := s.config.Scraping.MaxConcurrentPages; limit > 0 {
		g.SetLimit(limit)
	}
	for i, page := range pages {
		g.Go(func() error {
			comments, err := s.source.ScrapeComments(gctx, page)
			extracted[i] = scraped{comments: comments, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []*PageResult
	var errs []error
	for i, page := range pages {
		if err := extracted[i].err; err != nil {
			log.Warn().Str("component", "app").Str("url", page).Err(err).Msg("Extraction failed")
			errs = append(errs, fmt.Errorf("%s: %w", page, err))
			continue
		}
		r, err := a.AnalyzeComments(ctx, page, extracted[i].comments)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", page, err))
			continue
		}
		results = append(results, r)
	}

	return results, errors.Join(errs...)
}

// ViewLastReport opens the most recent report.
func (a *App) ViewLastReport() error {
	if a.cache == nil {
		return fmt.Errorf("no report cache configured")
	}
	path, err := a.cache.LatestStepFile(store.StepReports)
	if err != nil {
		return err
	}

	log.Info().Str("component", "app").Str("path", path).Msg("Opening report")
	return a.openReport(path)
}

// ReloadConfig replaces the configuration.
func (a *App) ReloadConfig(cfg *config.Config) error {
	if err := a.apply(cfg); err != nil {
		return err
	}
	log.Info().Str("component", "app").Msg("Configuration reloaded")
	return nil
}

// Config returns the current configuration.
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}
