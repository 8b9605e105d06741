package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/product-page-scraper/internal/browser"
	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/logger"
	"github.com/maltedev/product-page-scraper/internal/parser"
	"github.com/maltedev/product-page-scraper/internal/ratelimit"
	"github.com/maltedev/product-page-scraper/internal/scraper"
	"github.com/maltedev/product-page-scraper/internal/storage"
)

func main() {
	var (
		pageURL = flag.String("url", "", "Product page URL (default SCRAPER_URL)")
		input   = flag.String("input", "", "Extract from a saved HTML file instead of fetching; - reads stdin")
		output  = flag.String("output", "", "Output file for the file target (default OUTPUT_FILE)")
		mode    = flag.String("mode", "", "Fetch mode: http or browser (default SCRAPER_FETCH_MODE)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *pageURL != "" {
		cfg.Scraper.URL = *pageURL
	}
	if *output != "" {
		cfg.Output.File = *output
	}
	if *mode != "" {
		cfg.Scraper.FetchMode = *mode
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	selectors := config.DefaultSelectors()
	if cfg.SelectorsFile != "" {
		if selectors, err = config.LoadSelectors(cfg.SelectorsFile); err != nil {
			logger.Error("Failed to load selectors", "error", err, "file", cfg.SelectorsFile)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	var f scraper.Fetcher
	if *input != "" {
		f = &fileFetcher{path: *input}
	} else if f, err = newFetcher(cfg, logger); err != nil {
		logger.Error("Failed to initialize fetcher", "error", err, "mode", cfg.Scraper.FetchMode)
		os.Exit(1)
	}

	// Storing is best effort, so an unreachable backend does not stop the run.
	sink, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Output sink unavailable, product will only be printed", "error", err, "target", cfg.Output.Target)
	} else {
		defer sink.Close()
	}

	limiter := ratelimit.NewHostRateLimiter(cfg.Scraper.RateInterval, cfg.Scraper.RateBurst)
	s := scraper.NewService(f, parser.NewProductParser(selectors), limiter, logger)

	err = run(ctx, s, cfg.Scraper.URL, sink, os.Stdout, logger)
	s.Close()
	if err != nil {
		logger.Error("Scrape failed", "error", err, "url", cfg.Scraper.URL)
		os.Exit(1)
	}
}

// run scrapes url, prints the record to out and stores it through sink.
// Nothing is printed or stored when the scrape fails. A failed store is
// logged and does not fail the run. sink may be nil.
func run(ctx context.Context, s *scraper.Service, url string, sink storage.Sink, out io.Writer, logger *slog.Logger) error {
	product, err := s.Scrape(ctx, url)
	if err != nil {
		return err
	}

	data, err := product.Serialize()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if sink == nil {
		return nil
	}
	if err := storage.Persist(ctx, sink, product.URL(), data); err != nil {
		logger.Error("Failed to persist product", "error", err, "sink", sink.Name())
		return nil
	}

	logger.Info("Product stored", "sink", sink.Name(), "url", product.URL())
	return nil
}

func newFetcher(cfg *config.Config, logger *slog.Logger) (scraper.Fetcher, error) {
	if cfg.Scraper.FetchMode != config.FetchModeBrowser {
		return scraper.NewHTTPFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent), nil
	}

	return browser.New(browser.OptionsFromConfig(cfg), logger)
}

// fileFetcher serves a saved page from disk, or stdin for "-", so a page can
// be extracted offline.
type fileFetcher struct {
	path  string
	stdin io.Reader
}

func (f *fileFetcher) Name() string {
	return "file"
}

func (f *fileFetcher) Fetch(_ context.Context, _ string) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.path == "-" {
		in := f.stdin
		if in == nil {
			in = os.Stdin
		}
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(f.path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return string(data), nil
}
