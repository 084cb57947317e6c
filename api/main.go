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

	"go.uber.org/zap"

	"gameops/api/auth"
	"gameops/api/config"
	"gameops/api/handler"
	"gameops/api/health"
	"gameops/api/hub"
	"gameops/api/logging"
	"gameops/api/model"
	"gameops/api/pipeline"
	"gameops/api/store"
)

var Version = "dev"

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	seed := model.DefaultSeed()
	if cfg.SeedFile != "" {
		if seed, err = model.LoadSeed(cfg.SeedFile); err != nil {
			log.Fatal("seed", zap.Error(err))
		}
		log.Info("seed loaded", zap.String("file", cfg.SeedFile))
	}

	db, err := store.New(seed)
	if err != nil {
		log.Fatal("store", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := hub.New(cfg.AllowedOrigins, log.Named("hub"))
	go ws.Run(ctx)

	p := &pipeline.Pipeline{
		Store:     db,
		WS:        ws,
		StepDelay: cfg.StepDelay,
		Logs:      seed.Logs,
		FailStep:  seed.FailStep,
		Log:       log.Named("pipeline"),
	}

	poller := &health.Poller{
		Store:    db,
		Pipeline: p,
		WS:       ws,
		Interval: cfg.StatusInterval,
		Log:      log.Named("health"),
	}
	go poller.Run(ctx)

	if cfg.JWTSecret == "gameops-dev-secret" {
		log.Warn("GAMEOPS_JWT_SECRET not set, using the development secret")
	}
	h := handler.New(db, p, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), ws, log)

	srv := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: h.Router(cfg.AllowedOrigins),
	}

	go func() {
		log.Info("gameops-api listening", zap.String("version", Version), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	if err := p.Shutdown(shutdownCtx); err != nil {
		log.Warn("pipeline shutdown", zap.Error(err))
	}
}
