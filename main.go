package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/logging"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "threadreader",
		Usage:   "Reconstruct conversation threads from flat comment sections",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"THREADREADER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			watchCommand(),
			readCommand(),
			historyCommand(),
			reportCommand(),
			openCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected by the global flags and
// installs the logger it describes. On first run a default config is written.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		// First run - create default config
		cfg = config.Default()
		cfg.ApplyEnv()
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save default config: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Created default config at: %s\n", path)
		}
	}

	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	log.Debug().Str("path", path).Msg("Configuration loaded")

	return cfg, nil
}
