package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/ledgerkeep/ledgerkeep/internal/buildinfo"
	"github.com/ledgerkeep/ledgerkeep/internal/cli"
	"github.com/ledgerkeep/ledgerkeep/internal/config"
	"github.com/ledgerkeep/ledgerkeep/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
