package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/use-agent/shopcrawl/api"
	"github.com/use-agent/shopcrawl/browser"
	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/config"
	"github.com/use-agent/shopcrawl/metrics"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "replay" {
		if err := replay(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "replay: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	logger := initLogger(cfg.Log, os.Stdout)
	slog.Info("catalogd starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"categories", cfg.Crawl.Categories,
		"parallelism", cfg.Crawl.Parallelism,
		"maxSessions", cfg.Crawl.MaxSessions,
	)

	// ── 3. Metrics registry ─────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		slog.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	// ── 4. Launch browser ───────────────────────────────────────────
	br, err := browser.Launch(cfg.Browser)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer br.Close()

	if err := metrics.RegisterBrowserStats(reg, br.Stats); err != nil {
		slog.Error("failed to register browser metrics", "error", err)
		os.Exit(1)
	}

	// ── 5. Catalog service ──────────────────────────────────────────
	paginator, err := catalog.NewPaginator(paginatorConfig(cfg.Crawl), recorder)
	if err != nil {
		slog.Error("invalid catalog configuration", "error", err)
		os.Exit(1)
	}
	svc := catalog.NewService(
		br.NewSession,
		catalog.NewAggregator(paginator, cfg.Crawl.Parallelism),
		catalog.ServiceOptions{
			RequestTimeout: cfg.Crawl.RequestTimeout,
			MaxSessions:    cfg.Crawl.MaxSessions,
			Observer:       recorder,
		},
	)

	// ── 6. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(api.Deps{
		Runner:   svc,
		Gatherer: reg,
		HTTP:     recorder,
		Logger:   logger,
	}, cfg)

	// ── 7. Start HTTP server ────────────────────────────────────────
	// No write timeout: a full crawl answers only once every page is read,
	// and RequestTimeout already bounds it.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// br.Close() runs via defer and kills Chrome.
	slog.Info("catalogd stopped")
}

// paginatorConfig maps the crawl settings onto the traversal engine.
func paginatorConfig(c config.CrawlConfig) catalog.PaginatorConfig {
	return catalog.PaginatorConfig{
		Listing: catalog.Listing{
			BaseURL:      c.BaseURL,
			PathTemplate: c.PathTemplate,
			ViewSize:     c.ViewSize,
			Sort:         c.Sort,
			Scale:        c.Scale,
		},
		Selectors: catalog.DefaultSelectors(),
		Scroll: catalog.ScrollOptions{
			Step:    c.ScrollStep,
			Delay:   c.ScrollDelay,
			Timeout: c.ScrollTimeout,
		},
		NavigationTimeout: c.NavigationTimeout,
		MaxPages:          c.MaxPages,
	}
}

// initLogger configures slog based on the LogConfig, installs it as the
// default logger and returns it.
func initLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
