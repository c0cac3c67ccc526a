package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andy6609/lan-relay/internal/audit"
	"github.com/andy6609/lan-relay/internal/chat"
	"github.com/andy6609/lan-relay/internal/config"
	"github.com/andy6609/lan-relay/internal/filestore"
	"github.com/andy6609/lan-relay/internal/moderation"
	"github.com/andy6609/lan-relay/internal/stats"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	code, err := run(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run(envFile string) (int, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return exitConfig, err
	}
	logger := newLogger(cfg, os.Stdout)

	filter, err := moderation.NewFilter(cfg.Words(), cfg.ModerationMask)
	if err != nil {
		return exitConfig, err
	}

	files, err := openFileStore(cfg, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		if err := files.Close(); err != nil {
			logger.Error("close file store", "error", err)
		}
	}()

	auditLog := audit.New(cfg.AuditLogPath, logger)
	registry := chat.NewRegistry(logger)
	router := chat.NewRouter(registry, files, filter, auditLog, logger)
	srv := chat.NewServer(cfg.ChatAddr, router, logger, chat.WithMaxLineBytes(cfg.MaxLineBytes))

	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		return exitRuntime, err
	}

	var reporter *stats.Reporter
	if cfg.HTTPAddr != "" {
		reporter = stats.NewReporter(cfg.HTTPAddr, stats.NewHandler(srv, srv, logger), logger)
		if err := reporter.Start(); err != nil {
			// reporting is optional; keep relaying
			logger.Error("stats server unavailable", "error", err)
			reporter = nil
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	if reporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := reporter.Shutdown(ctx); err != nil {
			logger.Error("stats server shutdown", "error", err)
		}
		cancel()
	}
	srv.Stop()
	return exitOK, nil
}

func openFileStore(cfg config.Config, logger *slog.Logger) (filestore.Store, error) {
	if cfg.FileStore == "badger" {
		return filestore.OpenBadger(cfg.BadgerPath, logger)
	}
	return filestore.NewMemory(), nil
}
