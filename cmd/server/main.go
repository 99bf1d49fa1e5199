package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharma-backend/internal/app"
	"pharma-backend/internal/config"
	"pharma-backend/internal/router"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		logger.WithError(err).Fatal("❌ configuration load failed")
	}

	setupLogger(logger)

	container, err := app.InitializeContainer(logger)
	if err != nil {
		logger.WithError(err).Fatal("❌ service container initialization failed")
	}
	defer container.Close()

	r := router.SetupRouter(container)

	addr := fmt.Sprintf("%s:%d", config.AppConfig.Server.Host, config.AppConfig.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.WithField("addr", addr).Info("🚀 pharma-backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("❌ server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
	logger.Info("server stopped")
}

// setupLogger applies the configured level and format.
func setupLogger(logger *logrus.Logger) {
	if level, err := logrus.ParseLevel(config.AppConfig.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if config.AppConfig.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
