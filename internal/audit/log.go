// Package audit appends timestamped relay events to a file.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andy6609/lan-relay/internal/protocol"
)

const TimeLayout = "2006-01-02 15:04:05"

type Kind int

const (
	KindServer Kind = iota
	KindConnect
	KindDisconnect
	KindMessage
	KindUpload
	KindDownload
	KindModeration
)

// Event is one audit record.
type Event struct {
	Kind Kind
	Text string
}

func Connected(name string) Event {
	return Event{Kind: KindConnect, Text: "User connected: " + name}
}

func Disconnected(name string) Event {
	return Event{Kind: KindDisconnect, Text: "User disconnected: " + name}
}

func Message(line string) Event {
	return Event{Kind: KindMessage, Text: line}
}

func Shared(name, file string) Event {
	return Event{Kind: KindUpload, Text: fmt.Sprintf("%s shared file: %s", name, file)}
}

func Downloaded(name, file string) Event {
	return Event{Kind: KindDownload, Text: fmt.Sprintf("%s downloaded file: %s", name, file)}
}

func DownloadMissed(name, file string) Event {
	return Event{Kind: KindDownload, Text: fmt.Sprintf("File not found for download request from %s: %s", name, file)}
}

func BannedWordAdded(word string) Event {
	return Event{Kind: KindModeration, Text: "Added banned word: " + word}
}

func BannedWordRemoved(word string) Event {
	return Event{Kind: KindModeration, Text: "Removed banned word: " + word}
}

func Server(text string) Event {
	return Event{Kind: KindServer, Text: text}
}

// Log opens, appends one line and closes the file on every call. Writers are
// serialised by a mutex. Write failures go to the logger and are otherwise
// swallowed so chat delivery never depends on the disk.
type Log struct {
	path     string
	logger   *slog.Logger
	now      func() time.Time
	mu       sync.Mutex
	messages atomic.Int64
}

func New(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{path: path, logger: logger, now: time.Now}
}

func (l *Log) Path() string { return l.path }

// Append writes e as "<timestamp> - <text>". Line breaks in the text are
// escaped so every event stays on exactly one line.
func (l *Log) Append(e Event) {
	if e.Kind == KindMessage || e.Kind == KindUpload {
		l.messages.Add(1)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.now().Format(TimeLayout) + " - " + protocol.Escape(e.Text) + "\n"
	if err := appendLine(l.path, line); err != nil {
		l.logger.Error("audit log write failed", "path", l.path, "error", err)
	}
}

// MessageCount is the number of broadcast and shared-file events appended
// since start.
func (l *Log) MessageCount() int64 {
	return l.messages.Load()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	return f.Close()
}
