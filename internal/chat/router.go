package chat

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/andy6609/lan-relay/internal/audit"
	"github.com/andy6609/lan-relay/internal/filestore"
	"github.com/andy6609/lan-relay/internal/moderation"
	"github.com/andy6609/lan-relay/internal/protocol"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Router dispatches each inbound line of a session.
type Router struct {
	registry *Registry
	files    filestore.Store
	filter   *moderation.Filter
	audit    *audit.Log
	logger   *slog.Logger
}

func NewRouter(registry *Registry, files filestore.Store, filter *moderation.Filter, log *audit.Log, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		files:    files,
		filter:   filter,
		audit:    log,
		logger:   logger,
	}
}

func (r *Router) Registry() *Registry { return r.registry }

// Route handles one line from s and reports whether the client asked to quit.
func (r *Router) Route(s *Session, line string) (quit bool) {
	start := time.Now()
	cmd := protocol.Parse(line)
	defer func() {
		MessagesTotal.WithLabelValues(cmd.Kind.String()).Inc()
		EventProcessingDuration.WithLabelValues(cmd.Kind.String()).Observe(time.Since(start).Seconds())
	}()

	switch cmd.Kind {
	case protocol.KindEmpty:
	case protocol.KindQuit:
		return true
	case protocol.KindMalformed:
		r.logger.Warn("malformed command ignored", "session", s.id, "name", s.Name(), "command", cmd.Text)
	case protocol.KindFile:
		r.handleUpload(s, cmd.Name, cmd.Payload)
	case protocol.KindDownload:
		r.handleDownload(s, cmd.Name)
	case protocol.KindText:
		r.handleText(s, cmd.Text)
	}
	return false
}

func (r *Router) handleText(s *Session, text string) {
	line := chatLine(s.Name(), r.filter.Filter(text))
	r.audit.Append(audit.Message(line))
	r.registry.Broadcast(line, s)
}

func (r *Router) handleUpload(s *Session, file, payload string) {
	data, err := decodePayload(payload)
	if err != nil {
		r.logger.Warn("undecodable file payload", "session", s.id, "name", s.Name(), "file", file, "error", err)
		s.Send(noticeCorrupted(file))
		return
	}

	if err := r.files.Put(file, []byte(payload)); err != nil {
		r.logger.Error("file store put failed", "file", file, "error", err)
		s.Send(noticeStoreFailed(file))
		return
	}

	mime := mimetype.Detect(data).String()
	SharedBytesTotal.WithLabelValues(mime).Add(float64(len(data)))
	r.logger.Info("file shared", "session", s.id, "name", s.Name(), "file", file, "mime", mime, "bytes", len(data))
	r.audit.Append(audit.Shared(s.Name(), file))

	if isImage(file) {
		r.registry.Broadcast(imageDataLine(s.Name(), file, payload), s)
		return
	}
	r.registry.Broadcast(fileSharedLine(s.Name(), file), s)
}

func (r *Router) handleDownload(s *Session, file string) {
	payload, err := r.files.Get(file)
	if err != nil {
		if !errors.Is(err, filestore.ErrNotFound) {
			r.logger.Error("file store get failed", "file", file, "error", err)
		}
		r.audit.Append(audit.DownloadMissed(s.Name(), file))
		s.Send(noticeFileNotFound(file))
		return
	}
	r.audit.Append(audit.Downloaded(s.Name(), file))
	s.Send(fileDataLine(file, string(payload)))
}

func isImage(file string) bool {
	return imageExtensions[strings.ToLower(path.Ext(file))]
}

// decodePayload accepts padded and unpadded standard base64.
func decodePayload(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
