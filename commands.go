package main

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/ibeckermayer/threadreader/internal/app"
	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/scheduler"
	"github.com/ibeckermayer/threadreader/internal/types"
)

// withRuntime loads config, opens the runtime and closes it after fn.
func withRuntime(c *cli.Context, fn func(cfg *config.Config, rt *app.Runtime) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rt, err := app.Open(cfg, app.ScraperSource)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close resources")
		}
	}()
	return fn(cfg, rt)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Group the comments of a page into threads",
		ArgsUsage: "[URL...]",
		Description: "Analyzes the given pages, or every configured page when none are given.\n" +
			"With --file, comments are read from a JSON file instead of a browser.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read comments from JSON `FILE`",
			},
			&cli.BoolFlag{
				Name:  "no-mark",
				Usage: "Do not mark analyzed comments as read",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	return withRuntime(c, func(cfg *config.Config, rt *app.Runtime) error {
		if c.Bool("no-mark") {
			cfg.ReadState.MarkReadOnAnalyze = false
		}
		ctx := c.Context

		if file := c.String("file"); file != "" {
			comments, err := loadCommentsFile(file)
			if err != nil {
				return err
			}
			pageURL := c.Args().First()
			if pageURL == "" {
				pageURL = "file://" + file
			}
			res, err := rt.App.AnalyzeComments(ctx, pageURL, comments)
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		}

		if c.Args().Len() == 0 {
			results, err := rt.App.AnalyzeAll(ctx)
			for _, res := range results {
				printResult(res)
			}
			return err
		}

		for _, pageURL := range c.Args().Slice() {
			res, err := rt.App.AnalyzePage(ctx, pageURL)
			if err != nil {
				return fmt.Errorf("%s: %w", pageURL, err)
			}
			printResult(res)
		}
		return nil
	})
}

// loadCommentsFile reads a JSON array of comments.
func loadCommentsFile(path string) ([]types.Comment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var comments []types.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return comments, nil
}

func printResult(res *app.PageResult) {
	fmt.Printf("%s\n", res.PageURL)
	fmt.Printf("  %d comments, %d links, %d threads, %d unread\n",
		len(res.Analysis.Comments), len(res.Analysis.Links), len(res.Analysis.Threads), res.UnreadBefore)
	for i, th := range res.Analysis.Threads {
		if i == 5 {
			fmt.Printf("  ... %d more\n", len(res.Analysis.Threads)-i)
			break
		}
		fmt.Printf("  %s  %-20s %3d comments  %3d unread\n", th.ID, th.MainAuthor, th.Size, th.UnreadCount)
	}
	if res.ReportPath != "" {
		fmt.Printf("  report: %s\n", res.ReportPath)
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Re-analyze configured pages on a schedule",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "interval",
				Usage: "Override the interval in `HOURS` (1-23)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	return withRuntime(c, func(cfg *config.Config, rt *app.Runtime) error {
		interval, err := watchInterval(cfg.Schedule, c.Int("interval"), c.IsSet("interval"))
		if err != nil {
			return err
		}

		sched, err := scheduler.New(cfg.Schedule.Timezone)
		if err != nil {
			return err
		}

		job := func(ctx context.Context) error {
			_, err := rt.App.AnalyzeAll(ctx)
			return err
		}
		if err := sched.AddAnalyzeJob(interval, job); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Run once up front so the first report doesn't wait a full interval.
		if err := sched.RunNow(ctx, "analyze", job); err != nil {
			log.Warn().Err(err).Msg("Initial analysis failed")
		}

		sched.Start()
		for _, j := range sched.ListJobs() {
			log.Info().Str("job", j.Name).Time("next", j.NextRun).Msg("Watching")
		}

		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)
		defer signal.Stop(reload)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Shutting down")
				<-sched.Stop().Done()
				return nil
			case <-reload:
				next, err := loadConfig(c)
				if err != nil {
					log.Error().Err(err).Msg("Failed to reload config")
					continue
				}
				if err := rt.App.ReloadConfig(next); err != nil {
					log.Error().Err(err).Msg("Failed to apply config")
				}
			}
		}
	})
}

// watchInterval picks the analysis interval. An explicit --interval enables
// watching even when the config leaves scheduling off.
func watchInterval(cfg config.ScheduleConfig, override int, overridden bool) (int, error) {
	if overridden {
		return override, nil
	}
	if !cfg.Enabled {
		return 0, errors.New("scheduling is disabled: set schedule.enabled = true or pass --interval")
	}
	return cfg.IntervalHours, nil
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:  "read",
		Usage: "Inspect or change the read state",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show how many comments are marked read",
				Action: runReadStatus,
			},
			{
				Name:      "mark",
				Usage:     "Mark comments as read",
				ArgsUsage: "ID...",
				Action:    runReadMark,
			},
		},
	}
}

func runReadStatus(c *cli.Context) error {
	return withRuntime(c, func(cfg *config.Config, rt *app.Runtime) error {
		tracker := rt.App.Tracker()
		fmt.Printf("backend: %s\n", cfg.ReadState.Backend)
		fmt.Printf("key:     %s\n", tracker.Key())
		fmt.Printf("read:    %d comments\n", tracker.Len())
		return nil
	})
}

func runReadMark(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("no comment ids given")
	}
	return withRuntime(c, func(_ *config.Config, rt *app.Runtime) error {
		if err := rt.App.Tracker().MarkMultipleAsRead(c.Args().Slice()); err != nil {
			return err
		}
		fmt.Printf("Marked %d comments as read\n", c.Args().Len())
		return nil
	})
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent analysis runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   20,
			},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(_ *config.Config, rt *app.Runtime) error {
				runs, err := rt.Store.ListRuns(c.Int("limit"))
				if err != nil {
					return err
				}
				for _, r := range runs {
					fmt.Printf("%s  %-40s %4d comments %3d threads %4d unread\n",
						r.AnalyzedAt.Local().Format("2006-01-02 15:04"), r.PageURL, r.CommentCount, r.ThreadCount, r.UnreadCount)
				}
				return nil
			})
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Open the most recent report in the browser",
		Action: func(c *cli.Context) error {
			return withRuntime(c, func(_ *config.Config, rt *app.Runtime) error {
				return rt.App.ViewLastReport()
			})
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open the config file or cache directory",
		ArgsUsage: "<config|cache>",
		Action: func(c *cli.Context) error {
			return runOpen(c.Args().First())
		},
	}
}

func runOpen(target string) error {
	path, err := config.OpenTarget(target)
	if err != nil {
		return err
	}
	return browser.OpenFile(path)
}
