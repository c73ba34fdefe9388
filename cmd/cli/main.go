package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authflow/internal/buildinfo"
	"github.com/dmitrijs2005/authflow/internal/client/cli"
	"github.com/dmitrijs2005/authflow/internal/client/config"
	"github.com/dmitrijs2005/authflow/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("%v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
		os.Exit(1)
	}
}
