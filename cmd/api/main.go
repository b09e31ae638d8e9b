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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"martisim/adapters/api"
	"martisim/internal/config"
	"martisim/internal/container"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig.Log.Level != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	logger := appContainer.Logger

	server := api.NewServer(api.Dependencies{
		Simulation: appContainer.Simulation,
		Runs:       appContainer.Runs,
		Hub:        appContainer.Events,
		Modes:      appContainer.Modes,
		Markdown:   appContainer.Markdown,
		Excel:      appContainer.Excel,
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting martisim API on port %s with %d modes", appConfig.Server.Port, len(appContainer.Modes))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed: %v", err)
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Stopping runs first ends their event streams
	if err := appContainer.Shutdown(ctx); err != nil {
		logger.Warn("container shutdown: %v", err)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown: %v", err)
	}
}
