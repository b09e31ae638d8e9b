package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"martisim/internal/config"
	"martisim/internal/container"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout)
	stop()
	os.Exit(code)
}

// run simulates the configured modes and returns the process exit code.
// The container is shut down on every path, so the logger is always synced.
func run(ctx context.Context, out io.Writer) int {
	appConfig, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Printf("Failed to create application container: %v", err)
		return 1
	}
	defer appContainer.Shutdown(context.Background())

	report, err := appContainer.Simulation.RunModes(ctx, appContainer.Modes)
	if err != nil {
		appContainer.Logger.Error("simulation failed: %v", err)
		return 1
	}

	if err := appContainer.Console.Write(out, report.Results); err != nil {
		appContainer.Logger.Error("failed to print report: %v", err)
		return 1
	}

	if err := appContainer.Export(report); err != nil {
		appContainer.Logger.Error("%v", err)
		return 1
	}
	return 0
}
