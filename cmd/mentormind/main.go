package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mentormind/mentormind/internal/chatsession"
	"github.com/mentormind/mentormind/internal/config"
	"github.com/mentormind/mentormind/internal/conversation"
	"github.com/mentormind/mentormind/internal/enrich"
	"github.com/mentormind/mentormind/internal/figures"
	"github.com/mentormind/mentormind/internal/httpapi"
	"github.com/mentormind/mentormind/internal/identity"
	"github.com/mentormind/mentormind/internal/observability"
	"github.com/mentormind/mentormind/internal/registry"
	"github.com/mentormind/mentormind/internal/sensay"
	"github.com/mentormind/mentormind/internal/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.SensayOrgSecret == "" {
		log.Println("warning: SENSAY_ORG_SECRET is empty; persona platform calls will be rejected upstream")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	platform := sensay.NewClient(sensay.Config{
		BaseURL:   cfg.SensayBaseURL,
		OrgSecret: cfg.SensayOrgSecret,
		Timeout:   cfg.SensayTimeout,
	})

	turns, err := transcript.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize transcript store: %v", err)
	}
	defer turns.Close()
	if cfg.DatabaseURL != "" {
		log.Println("transcript persistence enabled (postgres)")
	}

	var enricher *enrich.Enricher
	if cfg.EnrichmentEnabled {
		enricher = enrich.NewEnricher(enrich.NewGemini(enrich.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
		}))
		log.Println("response enrichment enabled")
	} else {
		log.Println("response enrichment disabled; replies pass through unmodified")
	}

	deps := chatsession.Deps{
		Identity: identity.NewResolver(platform),
		Personas: registry.New(platform, sensay.LLMSpec{Provider: cfg.ReplicaLLMProvider, Model: cfg.ReplicaLLMModel}),
		Sender:   conversation.NewClient(platform),
		Turns:    turns,
		Metrics:  metrics,
	}
	if enricher != nil {
		deps.Enhancer = enricher
	}

	sessions := chatsession.NewManager(deps, cfg.SessionInactivityTimeout)
	sessions.StartJanitor(ctx, 30*time.Second)

	catalog := figures.NewMemoryStore(figures.Seed())

	srv := httpapi.New(cfg, sessions, catalog, metrics)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MentorMind backend listening on %s", cfg.BindAddr)
	if err := runServer(ctx, httpServer, cfg.ShutdownTimeout); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
