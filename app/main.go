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
	"time"

	"github.com/lysyi3m/rss-lens/app/analysis"
	"github.com/lysyi3m/rss-lens/app/api"
	"github.com/lysyi3m/rss-lens/app/cfg"
	"github.com/lysyi3m/rss-lens/app/classifier"
	"github.com/lysyi3m/rss-lens/app/database"
	"github.com/lysyi3m/rss-lens/app/feed"
	"github.com/lysyi3m/rss-lens/app/outlet"
	"github.com/lysyi3m/rss-lens/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	initLogger(config.Debug)

	if err := run(config); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func run(config *cfg.Cfg) error {
	slog.Info("Starting RSS Lens", "version", config.Version)

	db, err := database.Open(config.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", config.DBPath, "schema_version", version, "dirty", dirty)

	registry, err := outlet.LoadDir(config.OutletsDir)
	if err != nil {
		return fmt.Errorf("failed to load outlets: %w", err)
	}
	slog.Info("Outlets loaded", "count", registry.Count(), "dir", config.OutletsDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records := database.NewRecordStore(db)
	classifications := database.NewClassificationStore(db)

	httpClient := &http.Client{Timeout: config.RequestTimeout}
	fetcher := feed.NewHTTPFetcher(httpClient, config.UserAgent)
	normalizer := feed.NewNormalizer(registry, fetcher, config.FetchConcurrency, config.RequestTimeout)
	collector := feed.NewCollector(registry, normalizer, records)

	llm, err := classifier.New(ctx, classifier.Config{
		Provider:      config.Classifier,
		GeminiAPIKey:  config.GeminiAPIKey,
		GeminiModel:   config.GeminiModel,
		OpenAIAPIKey:  config.OpenAIAPIKey,
		OpenAIModel:   config.OpenAIModel,
		OpenAIBaseURL: config.OpenAIBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}
	if closer, ok := llm.(io.Closer); ok {
		defer closer.Close()
	}
	slog.Info("Classifier ready", "classifier", llm.Name())

	analyzer := analysis.NewAnalyzer(records, classifications, llm, config.ClassifyConcurrency, config.RequestTimeout)
	guard := analysis.NewRunGuard(analyzer, config.MinRunInterval)

	if config.Once {
		return runOnce(ctx, collector, guard, config.AnalysisLimit)
	}

	scheduler := tasks.NewScheduler(registry, collector, guard,
		config.SchedulerInterval, config.WorkerCount, config.AnalysisLimit)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(db, records, classifications, registry, collector, guard,
		api.NewGenerator(config.BaseUrl, config.Version), config.AnalysisLimit, config.Version)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      api.NewServer(handler, config.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port, "base_url", config.BaseUrl)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("RSS Lens shutdown complete")
	return nil
}

// runOnce collects every outlet, then classifies whatever is new.
func runOnce(ctx context.Context, collector *feed.Collector, guard *analysis.RunGuard, limit int) error {
	reports, err := collector.CollectAll(ctx)
	stored := 0
	for _, report := range reports {
		stored += report.Stored
	}
	slog.Info("Collection completed", "outlets", len(reports), "stored", stored)
	if err != nil {
		slog.Error("Collection finished with errors", "error", err)
	}

	report, err := guard.Run(ctx, limit)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	slog.Info("Single run completed",
		"run_id", report.RunID,
		"classified", report.Stored,
		"failures", len(report.Failures))
	return nil
}
