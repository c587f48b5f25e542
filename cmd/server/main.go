package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sitepins/internal/buildinfo"
	"github.com/dmitrijs2005/sitepins/internal/config"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/server"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.NewProductionZap(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, err.Error())
		return
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, err.Error())
	}
}
