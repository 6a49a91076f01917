// Command trdev is a dev CLI for threadreader debugging tasks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/analyzer"
	browseropts "github.com/ibeckermayer/threadreader/internal/browser"
	"github.com/ibeckermayer/threadreader/internal/config"
	"github.com/ibeckermayer/threadreader/internal/logging"
	"github.com/ibeckermayer/threadreader/internal/scraper"
	"github.com/ibeckermayer/threadreader/internal/types"
)

func main() {
	logging.Setup(os.Getenv("THREADREADER_LOG_LEVEL"), true)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "extract":
		if len(os.Args) < 3 {
			fmt.Println("Usage: trdev extract <url> [--show]")
			os.Exit(1)
		}
		err = runExtract(os.Args[2], len(os.Args) > 3 && os.Args[3] == "--show")
	case "links":
		if len(os.Args) < 3 {
			fmt.Println("Usage: trdev links <comments.json>")
			os.Exit(1)
		}
		err = runLinks(os.Args[2])
	case "bot-test":
		runBotTest()
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: trdev open <config|cache>")
			os.Exit(1)
		}
		err = runOpen(os.Args[2])
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}

func printUsage() {
	fmt.Println("Usage: trdev <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  extract <url>   Extract comments from a page and print them as JSON")
	fmt.Println("  links <file>    Print links and threads for a JSON comments file")
	fmt.Println("  bot-test        Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config     Open config file in default editor")
	fmt.Println("  open cache      Open cache directory in file explorer")
}

func runExtract(pageURL string, show bool) error {
	cfg := config.Default().Scraping
	s := scraper.New(scraper.Options{
		Headless:         !show,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		AcceptLanguage:   cfg.AcceptLanguage,
		MaxContentLength: cfg.MaxContentLength,
	})

	comments, err := s.ScrapeComments(context.Background(), pageURL)
	if err != nil {
		return err
	}
	return printJSON(comments)
}

func runLinks(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var comments []types.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return err
	}

	res := analyzer.New().Analyze(comments)
	return printJSON(struct {
		Links   []types.Link   `json:"links"`
		Threads []types.Thread `json:"threads"`
	}{res.Links, res.Threads})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runBotTest() {
	log.Info().Msg("Opening bot.sannysoft.com with scraper browser options...")

	opts := browseropts.Options(false) // non-headless so you can see it

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	go func() {
		err := chromedp.Run(ctx,
			chromedp.Navigate("https://bot.sannysoft.com"),
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to navigate")
		}
	}()

	fmt.Println("Press Enter to end program...")
	fmt.Scanln()

	log.Info().Msg("Done.")
}

func runOpen(target string) error {
	path, err := config.OpenTarget(target)
	if err != nil {
		return err
	}
	return browser.OpenFile(path)
}
