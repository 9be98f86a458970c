package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"notes-sync/internal/config"
	"notes-sync/internal/logger"
	"notes-sync/internal/server"
)

func main() {
	configFile := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		slog.Error("notes server failed", "error", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	// Загружаем конфигурацию; без файла работаем на значениях по умолчанию
	appConfig, err := config.LoadOrDefault(configFile)
	if err != nil {
		return fmt.Errorf("error initializing config: %w", err)
	}

	log, logOut := logger.New(appConfig.Logger)
	defer logOut.Close()
	slog.SetDefault(log)

	srv, err := server.NewServer(appConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	srv.Initialize()

	// Канал для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := srv.Start()

	// Ожидание сигнала или ошибки
	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
	}

	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("notes server stopped")
	return nil
}
