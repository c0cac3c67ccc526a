package chat

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andy6609/lan-relay/internal/audit"
	"github.com/andy6609/lan-relay/internal/filestore"
	"github.com/andy6609/lan-relay/internal/moderation"
	"github.com/andy6609/lan-relay/internal/protocol"
)

// peer is an active session wired to an in-memory pipe, with the client end
// drained into lines.
type peer struct {
	sess  *Session
	lines chan string
}

func newPeer(t *testing.T, name string) *peer {
	t.Helper()
	server, client := net.Pipe()
	s := NewSession(server, 0)
	s.name = name
	s.state.Store(int32(StateActive))

	p := &peer{sess: s, lines: make(chan string, 1024)}
	go func() {
		defer close(p.lines)
		r := protocol.NewReader(client, 0)
		for {
			line, err := r.ReadLine()
			if err != nil {
				return
			}
			p.lines <- line
		}
	}()
	t.Cleanup(func() {
		s.Close()
		_ = client.Close()
	})
	return p
}

type fixture struct {
	registry *Registry
	files    *filestore.Memory
	filter   *moderation.Filter
	audit    *audit.Log
	router   *Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	filter, err := moderation.NewFilter([]string{"badword1", "badword2"}, "")
	require.NoError(t, err)
	reg := NewRegistry(nil)
	files := filestore.NewMemory()
	log := audit.New(filepath.Join(t.TempDir(), "server_log.txt"), nil)
	return &fixture{
		registry: reg,
		files:    files,
		filter:   filter,
		audit:    log,
		router:   NewRouter(reg, files, filter, log, nil),
	}
}

func (f *fixture) join(t *testing.T, name string) *peer {
	t.Helper()
	p := newPeer(t, name)
	require.True(t, f.registry.Add(p.sess))
	return p
}

func expectLine(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got, ok := <-ch:
		if !ok {
			t.Fatalf("connection closed while waiting for %q", want)
		}
		if got != want {
			t.Fatalf("unexpected line: got %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectSilence(t *testing.T, ch <-chan string) {
	t.Helper()
	select {
	case got, ok := <-ch:
		if ok {
			t.Fatalf("unexpected line %q", got)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func auditLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func countSuffix(lines []string, suffix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasSuffix(l, suffix) {
			n++
		}
	}
	return n
}
