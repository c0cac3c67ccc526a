// Package stats serves the read-only status report, the banned-word
// management API and Prometheus metrics over HTTP.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
)

// Source is the relay state the report is derived from.
type Source interface {
	Running() bool
	Addr() string
	StartedAt() time.Time
	OnlineCount() int
	DisplayNames() []string
	MessageCount() int64
	BannedWords() []string
}

// Moderator mutates the banned-word set.
type Moderator interface {
	AddBannedWord(word string) error
	RemoveBannedWord(word string) error
}

type Report struct {
	Running     bool      `json:"running"`
	Address     string    `json:"address"`
	Now         time.Time `json:"now"`
	StartedAt   time.Time `json:"started_at"`
	Uptime      string    `json:"uptime"`
	UsersOnline int       `json:"users_online"`
	Messages    int64     `json:"messages"`
	Users       []string  `json:"users"`
	BannedWords []string  `json:"banned_words"`
	MemoryRSS   uint64    `json:"memory_rss_bytes,omitempty"`
	Threads     int32     `json:"threads,omitempty"`
	Goroutines  int       `json:"goroutines"`
}

// maxWordBody bounds a banned-word request body.
const maxWordBody = 1 << 10

type wordRequest struct {
	Word string `json:"word"`
}

type Handler struct {
	src    Source
	mod    Moderator
	logger *slog.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

func NewHandler(src Source, mod Moderator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{src: src, mod: mod, logger: logger, now: time.Now, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /stats", h.handleStats)
	h.mux.HandleFunc("GET /banned-words", h.handleListWords)
	h.mux.HandleFunc("POST /banned-words", h.handleAddWord)
	h.mux.HandleFunc("DELETE /banned-words/{word}", h.handleRemoveWord)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) report() Report {
	now := h.now()
	rep := Report{
		Running:     h.src.Running(),
		Address:     h.src.Addr(),
		Now:         now,
		StartedAt:   h.src.StartedAt(),
		UsersOnline: h.src.OnlineCount(),
		Messages:    h.src.MessageCount(),
		Users:       h.src.DisplayNames(),
		BannedWords: h.src.BannedWords(),
		Goroutines:  runtime.NumGoroutine(),
	}
	if !rep.StartedAt.IsZero() {
		rep.Uptime = formatUptime(now.Sub(rep.StartedAt))
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			rep.MemoryRSS = mem.RSS
		}
		if n, err := p.NumThreads(); err == nil {
			rep.Threads = n
		}
	}
	return rep
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	rep := h.report()
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := statsPage.Execute(w, rep); err != nil {
			h.logger.Error("render stats page", "error", err)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) handleListWords(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.src.BannedWords())
}

func (h *Handler) handleAddWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	body := http.MaxBytesReader(w, r.Body, maxWordBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.mod.AddBannedWord(req.Word); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.src.BannedWords())
}

func (h *Handler) handleRemoveWord(w http.ResponseWriter, r *http.Request) {
	if err := h.mod.RemoveBannedWord(r.PathValue("word")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.src.BannedWords())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	clock := fmt.Sprintf("%02d:%02d:%02d", int(d.Hours())%24, int(d.Minutes())%60, int(d.Seconds())%60)
	if days > 0 {
		return fmt.Sprintf("%d days, %s", days, clock)
	}
	return clock
}
