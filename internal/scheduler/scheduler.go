package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 30 * time.Minute

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler runs periodic re-analysis of watched pages
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	timezone *time.Location
}

// New creates a new scheduler with the given timezone
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}

	// SkipIfStillRunning keeps a slow analysis from overlapping the next tick.
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:     c,
		jobs:     make(map[string]cron.EntryID),
		timezone: loc,
	}, nil
}

// AddJob adds a job with a cron schedule, e.g. "0 */2 * * *".
// Adding a job under an existing name replaces it.
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	logger := log.With().Str("component", "scheduler").Str("job", name).Logger()

	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		logger.Info().Msg("Starting job")
		start := time.Now()

		if err := job(ctx); err != nil {
			logger.Error().Err(err).Msg("Job failed")
		} else {
			logger.Info().Dur("took", time.Since(start)).Msg("Job completed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.RemoveJob(name)
	s.jobs[name] = entryID
	logger.Info().Str("schedule", schedule).Msg("Added job")

	return nil
}

// AddAnalyzeJob schedules page analysis every intervalHours hours
func (s *Scheduler) AddAnalyzeJob(intervalHours int, job Job) error {
	if intervalHours <= 0 || intervalHours > 23 {
		return fmt.Errorf("interval must be between 1 and 23 hours, got %d", intervalHours)
	}
	return s.AddJob("analyze", fmt.Sprintf("0 */%d * * *", intervalHours), job)
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		log.Info().Str("component", "scheduler").Str("job", name).Msg("Removed job")
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	log.Info().Str("component", "scheduler").Msg("Starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	log.Info().Str("component", "scheduler").Msg("Stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job outside the schedule
func (s *Scheduler) RunNow(ctx context.Context, name string, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	log.Info().Str("component", "scheduler").Str("job", name).Msg("Running job now")
	return job(ctx)
}

// ListJobs returns info about scheduled jobs
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()
	infos := make([]JobInfo, 0, len(entries))

	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}

	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
