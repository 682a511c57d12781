package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"signalist/internal/infrastructure/config"
	"signalist/internal/infrastructure/logger"
	"signalist/internal/interface/cli"
)

func main() {
	path := os.Getenv("SIGNALIST_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	root := cli.NewRootCmd(cfg, log)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
