package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"github.com/andy6609/lan-relay/internal/config"
)

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch cfg.LogFormat {
	case "text":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      cfg.Level(),
			TimeFormat: time.DateTime,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.Level(),
		})
	}
	return slog.New(handler).With("app", "lan-relay")
}
