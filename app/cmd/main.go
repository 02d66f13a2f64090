package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"openjuris/app/server"
	"openjuris/types"
)

func main() {
	// Missing .env is fine; the environment itself may carry the config.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using environment as-is")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := types.ConfigFromEnv()
	s := server.NewServer(cfg, logger)

	go func() {
		if err := s.Run(); err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	logger.Info("received shutdown signal, shutting down")
	s.Stop()
}
