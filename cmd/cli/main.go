package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sitepins/internal/buildinfo"
	"github.com/dmitrijs2005/sitepins/internal/cli"
	"github.com/dmitrijs2005/sitepins/internal/config"
	"github.com/dmitrijs2005/sitepins/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
