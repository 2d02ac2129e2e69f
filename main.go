package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"event-wallboard/config"
	"event-wallboard/services"
	"event-wallboard/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, envConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration load failed: %v", err)
	}

	container := services.NewServiceFactory(cfg, os.Stdout).CreateServices()
	logger := container.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, container)

	if cfg.File != "" {
		go func() {
			logger.Info("Watching config file", services.String("path", cfg.File))
			err := config.Watch(ctx, cfg.File, envConfig, srv.ApplyConfig, func(err error) {
				logger.Error("Config reload failed, keeping previous config", err)
			})
			if err != nil {
				logger.Error("Config watcher stopped", err, services.String("path", cfg.File))
			}
		}()
	}

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server failed", err)
		stop()
		os.Exit(1)
	}
}
