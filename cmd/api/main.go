package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/eduai/tutor/backend/internal/analysis/links"
	"github.com/eduai/tutor/backend/internal/config"
	"github.com/eduai/tutor/backend/internal/handler"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/observability"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/service/ai"
	"github.com/eduai/tutor/backend/internal/service/chat"
	tutorService "github.com/eduai/tutor/backend/internal/service/tutor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log.Zap())

	if envErr != nil {
		log.Debug("no .env file loaded, using system environment variables only", "error", envErr)
	}

	shutdownTracing := observability.InitOTel(ctx, log, cfg.Observability)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	// Missing credentials are fatal: the tutor cannot answer without a model.
	gateway, err := ai.NewGateway(ctx, cfg.AI, log)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Fatal("invalid model configuration", "key", cfgErr.Key, "reason", cfgErr.Reason)
		}
		log.Fatal("failed to initialize model gateway", "error", err)
	}
	log.Info("model gateway initialized", "provider", cfg.AI.Provider, "model", cfg.AI.ModelName(), "grounding", cfg.Tutor.SearchGrounding)

	tutorStore := tutor.NewMemoryStore(tutor.Seed())
	chatService := chat.NewService(tutorStore)
	controller := tutorService.NewController(gateway, tutorStore, links.DefaultTable(), tutorService.Config{
		Temperature:     cfg.Tutor.Temperature,
		SearchGrounding: cfg.Tutor.SearchGrounding,
		Linkify:         cfg.Tutor.Linkify,
	}, log)

	go chatService.RunJanitor(ctx, cfg.Tutor.SessionIdleTTL, func(removed int) {
		log.Info("reaped idle sessions", "removed", removed, "live", chatService.Count())
	})

	router := handler.NewRouter(handler.Dependencies{
		Tutors:     tutorStore,
		Chat:       chatService,
		Controller: controller,
		Logger:     log,
		Tracer:     otel.Tracer(observability.TracerName),
	})

	startServer(ctx, log, cfg.Server, router)
}

func startServer(ctx context.Context, log *logger.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("EduAI tutor listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatal("server error", "error", err)
	}
	log.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
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
