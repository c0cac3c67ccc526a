package chat

import (
	"io"
	"sync"

	"github.com/andy6609/lan-relay/internal/protocol"
)

// lineSink serialises writes from the read loop and from broadcasts running
// on other sessions' goroutines. A write blocks until the peer accepts it.
type lineSink struct {
	mu sync.Mutex
	w  *protocol.Writer
}

func newLineSink(w io.Writer) *lineSink {
	return &lineSink{w: protocol.NewWriter(w)}
}

func (s *lineSink) writeLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.WriteLine(line)
}
