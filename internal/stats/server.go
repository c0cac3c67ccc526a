package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Reporter runs the HTTP surface. Its failures never affect chat relay.
type Reporter struct {
	addr   string
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

func NewReporter(addr string, h http.Handler, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds and serves in the background.
func (r *Reporter) Start() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("stats listen %s: %w", r.addr, err)
	}
	r.ln = ln
	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("stats server stopped", "error", err)
		}
	}()
	r.logger.Info("stats server started", "url", "http://"+ln.Addr().String()+"/stats")
	return nil
}

func (r *Reporter) Addr() string {
	if r.ln != nil {
		return r.ln.Addr().String()
	}
	return r.addr
}

func (r *Reporter) Shutdown(ctx context.Context) error {
	if r.ln == nil {
		return nil
	}
	return r.srv.Shutdown(ctx)
}
