package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/studyshelf/internal/logging"
	"github.com/dmitrijs2005/studyshelf/internal/server"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped with error", "error", err)
		app.Close()
		os.Exit(1)
	}
}
