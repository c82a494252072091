package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/cloudkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/cli"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/config"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.Build(ctx, cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Serve(ctx)

}
