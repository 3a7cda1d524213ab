package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"aisurvey/internal/app"
	"aisurvey/internal/config"
	"aisurvey/internal/logger"
	"aisurvey/internal/metrics"
)

// @title AI Influence Survey API
// @version 1.0
// @description Between-subjects travel decision survey with researcher export
// @host localhost:8080
// @BasePath /v1
func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger.InitLogger(cfg)
	defer logger.Sync()
	metrics.Init()

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("failed to start", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router(),
	}

	go func() {
		logger.Log.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("mode", cfg.Server.Mode),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("researcher", cfg.Auth.ResearcherUsername))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server forced to shutdown", zap.Error(err))
	}
	a.Close(shutdownCtx)

	logger.Log.Info("server exited")
}
