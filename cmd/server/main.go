package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/lifequest/lifequest-services/internal/character"
	"github.com/lifequest/lifequest-services/internal/config"
	"github.com/lifequest/lifequest-services/internal/httpapi"
	"github.com/lifequest/lifequest-services/internal/progression"
	"github.com/lifequest/lifequest-services/internal/session"
	sharedauth "github.com/lifequest/lifequest-services/shared-libs/auth"
	"github.com/lifequest/lifequest-services/shared-libs/logging"
	sharedserver "github.com/lifequest/lifequest-services/shared-libs/server"
)

const serviceName = "lifequest-service"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLoggerWithLevel(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}
	rules, err := progression.DefaultRules(loc)
	if err != nil {
		panic(fmt.Errorf("rules: %w", err))
	}

	var repo character.Repository
	switch cfg.DataStore {
	case config.DataStoreMemory:
		logger.Warn("using in-memory character store; data is lost on restart")
		repo = character.NewMemoryRepository()
	default:
		if cfg.Firestore.EmulatorHost != "" {
			logger.Info("using firestore emulator", "host", cfg.Firestore.EmulatorHost)
		}
		client, err := firestore.NewClientWithDatabase(ctx, cfg.GCPProjectID, cfg.Firestore.Database)
		if err != nil {
			panic(fmt.Errorf("firestore client: %w", err))
		}
		defer client.Close()
		repo = character.NewFirestoreRepository(client, logger)
	}

	manager := session.NewManager(session.Options{
		Rules:        rules,
		Repository:   repo,
		SaveDebounce: cfg.Session.SaveDebounce,
		Logger:       logger,
	})
	go manager.Run(ctx, time.Minute, cfg.Session.IdleTTL)

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     sharedauth.Mode(cfg.Auth.Mode),
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	router := sharedserver.NewRouter(serviceName, manager.Len, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sharedauth.Middleware(verifier))
			httpapi.RegisterRoutes(r, manager, logger)
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	runErr := sharedserver.Run(ctx, srv, logger)
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer closeCancel()
	if err := manager.CloseAll(closeCtx); err != nil {
		logger.Error("failed to flush sessions on shutdown", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		panic(runErr)
	}
}
