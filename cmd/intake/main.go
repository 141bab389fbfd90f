package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uprotect/intake/internal/api"
	"github.com/uprotect/intake/internal/config"
	"github.com/uprotect/intake/internal/events"
	"github.com/uprotect/intake/internal/extractor"
	"github.com/uprotect/intake/internal/gemini"
	"github.com/uprotect/intake/internal/interview"
	"github.com/uprotect/intake/internal/interviewer"
	"github.com/uprotect/intake/internal/keypool"
	"github.com/uprotect/intake/internal/store"
	"github.com/uprotect/intake/internal/submission"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("intake starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Provider credentials
	if len(cfg.GeminiAPIKeys) == 0 {
		slog.Error("GEMINI_API_KEYS is required")
		os.Exit(1)
	}
	pool := keypool.New(cfg.GeminiAPIKeys, slog.Default())
	llm := gemini.NewClient(pool, cfg.GeminiModel, slog.Default())
	slog.Info("gemini client ready", "model", cfg.GeminiModel, "keys", pool.Size())

	// Interview pipeline
	gen := interviewer.New(llm, slog.Default())
	machine := interview.NewMachine(gen, slog.Default())
	ext := extractor.New(llm, slog.Default())

	// Submission
	if cfg.JotformAPIKey == "" || cfg.JotformFormID == "" {
		slog.Error("JOTFORM_API_KEY and JOTFORM_FORM_ID are required")
		os.Exit(1)
	}
	mapping, err := submission.LoadMapping(cfg.FieldMappingPath)
	if err != nil {
		slog.Error("failed to load field mapping", "path", cfg.FieldMappingPath, "error", err)
		os.Exit(1)
	}
	submitter := submission.NewClient(cfg.JotformAPIKey, cfg.JotformFormID, slog.Default())
	slog.Info("submission client ready", "form_id", cfg.JotformFormID, "mapped_fields", len(mapping))

	// Database (optional — interviews run without an audit trail if absent)
	var db *store.Store
	if cfg.DatabaseURL != "" {
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without persistence")
	}

	// NATS (optional)
	var bus *events.Client
	if cfg.NatsURL != "" {
		bus, err = events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set — running without lifecycle events")
	}

	srv := api.NewServer(cfg.Port, api.Deps{
		Machine:          machine,
		Extractor:        ext,
		Submitter:        submitter,
		Mapping:          mapping,
		CaseOwner:        cfg.CaseOwner,
		EvidenceEmail:    cfg.EvidenceEmail,
		EvidenceWhatsApp: cfg.EvidenceWhatsApp,
		Store:            db,
		Events:           bus,
		Logger:           slog.Default(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("intake ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("intake stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
