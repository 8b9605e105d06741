package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/product-page-scraper/internal/api"
	"github.com/maltedev/product-page-scraper/internal/browser"
	"github.com/maltedev/product-page-scraper/internal/config"
	"github.com/maltedev/product-page-scraper/internal/logger"
	"github.com/maltedev/product-page-scraper/internal/observability"
	"github.com/maltedev/product-page-scraper/internal/parser"
	"github.com/maltedev/product-page-scraper/internal/ratelimit"
	"github.com/maltedev/product-page-scraper/internal/scraper"
	"github.com/maltedev/product-page-scraper/internal/storage"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selectors := config.DefaultSelectors()
	if cfg.SelectorsFile != "" {
		if selectors, err = config.LoadSelectors(cfg.SelectorsFile); err != nil {
			logger.Error("failed to load selectors", "error", err, "file", cfg.SelectorsFile)
			os.Exit(1)
		}
	}

	var fetcher scraper.Fetcher = scraper.NewHTTPFetcher(cfg.Scraper.Timeout, cfg.Scraper.UserAgent)
	if cfg.Scraper.FetchMode == config.FetchModeBrowser {
		b, err := browser.New(browser.OptionsFromConfig(cfg), logger)
		if err != nil {
			logger.Error("failed to initialize browser", "error", err)
			os.Exit(1)
		}
		fetcher = b
	}

	limiter := ratelimit.NewHostRateLimiter(cfg.Scraper.RateInterval, cfg.Scraper.RateBurst)
	scraperService := scraper.NewService(fetcher, parser.NewProductParser(selectors), limiter, logger)
	defer scraperService.Close()

	// The service still answers when the sink is down; records just are not stored.
	sink, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("output sink unavailable, records will not be stored", "error", err, "target", cfg.Output.Target)
	} else {
		defer sink.Close()
	}

	reg := observability.InitRegistry()
	handlers := api.NewHandlers(scraperService, sink, logger)
	router := api.NewRouter(handlers, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Timeout:        cfg.Server.WriteTimeout,
		Metrics:        observability.MetricsHandler(reg),
	})

	servers := []*http.Server{{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}}
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler(reg))
		servers = append(servers, &http.Server{Addr: cfg.Metrics.Addr, Handler: mux})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
