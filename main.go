package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/klokku/revenue/internal/app"
	"github.com/klokku/revenue/internal/config"
	log "github.com/sirupsen/logrus"
)

func init() {
	// .env is optional; variables already set take precedence
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level != "" {
		logrusLevel, err := log.ParseLevel(level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(logrusLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func main() {
	fs := flag.NewFlagSet("revenue", flag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "path to the YAML configuration")
	month := fs.String("month", "", "report month as YYYY-MM (defaults to the configured or current month)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [run|serve]\n", os.Args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}

	command := "run"
	if fs.NArg() > 0 {
		command = fs.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *month != "" {
		cfg.Month = *month
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		summary, err := application.RunReport(ctx, cfg.Month)
		if err != nil {
			log.Fatalf("report run failed: %v", err)
		}
		log.WithField("run", summary.RunID).Infof("Report for %s: %d rows from %d processes, %d skipped, %d quarantined",
			summary.Month, summary.Rows, len(summary.Processes), len(summary.Skipped), summary.Quarantined)
	case "serve":
		if err := application.Serve(ctx); err != nil {
			log.Fatal(err)
		}
	default:
		fs.Usage()
		os.Exit(2)
	}
}
