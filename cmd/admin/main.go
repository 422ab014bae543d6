package main

import (
	"context"
	"errors"
	"log"
	"os"

	"college/internal/app"
	"college/internal/config"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("backend init failed: %v", err)
	}
	defer backends.Close()

	cli := newCommandLine(backends.TxManager, backends.DB)
	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
