package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"citynews/internal/app"
	"citynews/internal/config"
	"citynews/internal/gemini"
	"citynews/internal/logger"
	"citynews/internal/metrics"
	"citynews/internal/news"
	"citynews/internal/notify"
	"citynews/internal/scraper"
	"citynews/internal/storage"
	"citynews/internal/summary"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Init(cfg.Debug)

	keywords, err := news.LoadKeywords(cfg.KeywordsPath)
	if err != nil {
		slog.Warn("keyword config not loaded, using defaults", "path", cfg.KeywordsPath, "err", err)
		keywords = news.DefaultKeywords()
	}

	store, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.InitSchema(ctx); err != nil {
		log.Fatalf("storage schema: %v", err)
	}

	var geminiClient *gemini.Client
	if cfg.SummarizerURL == "" && cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			slog.Warn("gemini unavailable, truncation fallback only", "err", err)
		} else {
			defer geminiClient.Close()
		}
	}

	m := metrics.New()
	orch := app.NewOrchestrator(
		cfg,
		keywords,
		store,
		scraper.NewFetcher(cfg.RequestTimeout, cfg.DedupeLines),
		summary.NewService(cfg.SummarizerURL, geminiClient, cfg.MaxContentLength, cfg.RequestTimeout),
		notify.New(cfg.NotifyBaseURL, cfg.RequestTimeout),
		m,
	)

	if cfg.EnableMonitoring {
		go startMonitoringServer(cfg.MonitoringPort, m, store)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() {
		// A failed tick is logged and the next scheduled tick proceeds
		// independently.
		if err := orch.RunTick(context.Background()); err != nil {
			slog.Error("tick failed", "err", err)
		}
	}); err != nil {
		log.Fatalf("invalid schedule %q: %v", cfg.Schedule, err)
	}

	slog.Info("citynews started", "listing_url", cfg.ListingURL, "schedule", cfg.Schedule)

	// First run right away, then on schedule.
	if err := orch.RunTick(ctx); err != nil {
		slog.Error("tick failed", "err", err)
	}
	c.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	slog.Info("shutting down")
	<-c.Stop().Done()
}

func startMonitoringServer(port string, m *metrics.Metrics, store *storage.Store) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		w.Header().Set("Content-Type", "application/json")
		status := "ok"
		if !stats["is_healthy"].(bool) {
			status = "error"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.GetStats())
	})
	mux.HandleFunc("/recent", func(w http.ResponseWriter, r *http.Request) {
		articles, err := store.Recent(r.Context(), 10)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(articles)
	})

	slog.Info("monitoring server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("monitoring server stopped", "err", err)
	}
}
