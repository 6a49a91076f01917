package app

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/readstate"
	"github.com/ibeckermayer/threadreader/internal/scraper"
	"github.com/ibeckermayer/threadreader/internal/store"
)

// ScraperSource is the SourceFactory backed by headless Chrome.
func ScraperSource(cfg config.ScrapingConfig) CommentSource {
	return scraper.New(scraper.Options{
		Headless:         cfg.Headless,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		AcceptLanguage:   cfg.AcceptLanguage,
		MaxContentLength: cfg.MaxContentLength,
	})
}

// OpenReadStore returns the key-value store backing the read-state tracker.
// An unreachable Redis falls back to db so the tracker keeps working
// locally; a malformed URL is a configuration error.
func OpenReadStore(cfg config.ReadStateConfig, db *store.Store) (readstate.Store, io.Closer, error) {
	switch cfg.Backend {
	case "", config.BackendSQLite:
		return db, nil, nil
	case config.BackendMemory:
		return readstate.NewMemoryStore(), nil, nil
	case config.BackendRedis:
		rs, err := readstate.NewRedisStore(cfg.RedisURL)
		if err == nil {
			return rs, rs, nil
		}
		if errors.Is(err, readstate.ErrStoreUnavailable) && db != nil {
			log.Warn().Str("component", "app").Err(err).Msg("Redis unavailable, using local read state")
			return db, nil, nil
		}
		return nil, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown read state backend: %s", cfg.Backend)
	}
}

// Runtime bundles an App with the resources it owns.
type Runtime struct {
	App   *App
	Store *store.Store
	Cache *store.StepCache

	closers []io.Closer
}

// Open wires the database, read-state backend, step cache and scraper
// described by cfg into a ready App.
func Open(cfg *config.Config, newSource SourceFactory) (*Runtime, error) {
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	rt := &Runtime{Store: db, closers: []io.Closer{db}}

	kv, closer, err := OpenReadStore(cfg.ReadState, db)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Cache = store.NewStepCache(filepath.Join(cacheDir, "steps"))

	tracker := readstate.NewTracker(kv, cfg.ReadState.StorageKey)
	log.Debug().
		Str("component", "app").
		Str("backend", cfg.ReadState.Backend).
		Int("read", tracker.Len()).
		Msg("Read state loaded")

	if newSource == nil {
		newSource = ScraperSource
	}
	rt.App, err = New(cfg, newSource, tracker, db, rt.Cache)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases everything Open acquired, most recent first.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
