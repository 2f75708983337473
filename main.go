package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trialstat/app"
	"trialstat/internal"
	"trialstat/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if level, ok := internal.ParseLogLevel(cfg.LogLevel); ok {
		internal.DefaultLogger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := app.NewAnalysisService().Run(ctx, cfg)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	if err := report.Print(os.Stdout); err != nil {
		log.Fatalf("Failed to print report: %v", err)
	}
	if err := report.Save(cfg.Output); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}
}
