package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"timeTracker/internal/app"
	"timeTracker/internal/config"
)

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yml"
	}
	configPath := flag.String("config", defaultPath, "путь к config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, *configPath).Init(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ошибка запуска: %v\n", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ошибка работы: %v\n", err)
		os.Exit(1)
	}
}
