package chat

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andy6609/lan-relay/internal/protocol"
)

type tcpClient struct {
	conn  net.Conn
	w     *protocol.Writer
	lines chan string
}

func startServer(t *testing.T) (*Server, *fixture) {
	t.Helper()
	f := newFixture(t)
	srv := NewServer("127.0.0.1:0", f.router, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, f
}

func dial(t *testing.T, srv *Server, name string) *tcpClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	c := &tcpClient{conn: conn, w: protocol.NewWriter(conn), lines: make(chan string, 1024)}
	go func() {
		defer close(c.lines)
		r := protocol.NewReader(conn, 0)
		for {
			line, err := r.ReadLine()
			if err != nil {
				return
			}
			c.lines <- line
		}
	}()
	t.Cleanup(func() { _ = conn.Close() })

	c.send(t, name)
	want := name
	if want == "" {
		want = DefaultName
	}
	expectLine(t, c.lines, "Welcome, "+want+"!")
	return c
}

func (c *tcpClient) send(t *testing.T, line string) {
	t.Helper()
	require.NoError(t, c.w.WriteLine(line))
}

func TestServer_HandshakeAndBroadcast(t *testing.T) {
	srv, _ := startServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	anon := dial(t, srv, "")

	require.Equal(t, []string{DefaultName, "alice", "bob"}, srv.DisplayNames())

	alice.send(t, "hello all")
	expectLine(t, bob.lines, "alice: hello all")
	expectLine(t, anon.lines, "alice: hello all")
	expectSilence(t, alice.lines)
}

func TestServer_MultilineTextSurvivesFraming(t *testing.T) {
	srv, f := startServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	alice.send(t, "line one\nline two")
	expectLine(t, bob.lines, "alice: line one\nline two")

	lines := auditLines(t, f.audit.Path())
	require.Equal(t, 1, countSuffix(lines, ` - alice: line one\nline two`))
	for _, l := range lines {
		require.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - `, l)
	}
}

func TestServer_MultilineNameCannotForgeAuditEntries(t *testing.T) {
	srv, f := startServer(t)
	dial(t, srv, "alice")
	eve := dial(t, srv, "eve\nUser disconnected: alice")

	eve.send(t, "/quit")
	require.Eventually(t, func() bool { return srv.OnlineCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return countSuffix(auditLines(t, f.audit.Path()), ` - User disconnected: eve\nUser disconnected: alice`) == 1
	}, 2*time.Second, 10*time.Millisecond)

	lines := auditLines(t, f.audit.Path())
	require.Zero(t, countSuffix(lines, " - User disconnected: alice"))
}

func TestServer_LongNameIsTruncated(t *testing.T) {
	srv, _ := startServer(t)
	long := strings.Repeat("é", MaxNameRunes+10)
	want := strings.Repeat("é", MaxNameRunes)

	conn, err := net.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, protocol.NewWriter(conn).WriteLine(long))

	line, err := protocol.NewReader(conn, 0).ReadLine()
	require.NoError(t, err)
	require.Equal(t, "Welcome, "+want+"!", line)
	require.Equal(t, []string{want}, srv.DisplayNames())
}

func TestServer_QuitDisconnectsOnceAndAudits(t *testing.T) {
	srv, f := startServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	bob.send(t, "/quit")
	require.Eventually(t, func() bool { return srv.OnlineCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []string{"alice"}, srv.DisplayNames())

	alice.send(t, "still here?")
	expectSilence(t, bob.lines)

	_, ok := <-bob.lines
	require.False(t, ok, "server should close the quitting connection")
	require.Eventually(t, func() bool {
		return countSuffix(auditLines(t, f.audit.Path()), " - User disconnected: bob") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_AbruptCloseCleansUp(t *testing.T) {
	srv, f := startServer(t)
	dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	require.NoError(t, bob.conn.Close())
	require.Eventually(t, func() bool { return srv.OnlineCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return countSuffix(auditLines(t, f.audit.Path()), " - User disconnected: bob") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_FileRoundTrip(t *testing.T) {
	srv, _ := startServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	alice.send(t, "/file doc.txt djE=")
	expectLine(t, bob.lines, "alice [FILE_SHARED:doc.txt]")
	alice.send(t, "/file doc.txt djI=")
	expectLine(t, bob.lines, "alice [FILE_SHARED:doc.txt]")

	bob.send(t, "/download doc.txt")
	expectLine(t, bob.lines, "[FILEDATA:doc.txt:djI=]")

	bob.send(t, "/download nope.txt")
	expectLine(t, bob.lines, "[System] File not found or no longer available: nope.txt")
	expectSilence(t, alice.lines)
}

func TestServer_FiftyConcurrentSessions(t *testing.T) {
	const n = 50
	srv, _ := startServer(t)

	clients := make([]*tcpClient, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i] = dial(t, srv, fmt.Sprintf("user%02d", i))
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, srv.OnlineCount())

	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *tcpClient) {
			defer wg.Done()
			c.send(t, fmt.Sprintf("hi from %02d", i))
		}(i, c)
	}
	wg.Wait()

	for i, c := range clients {
		seen := make(map[string]int)
		for len(seen) < n-1 {
			select {
			case line := <-c.lines:
				seen[line]++
			case <-time.After(5 * time.Second):
				t.Fatalf("client %d received %d of %d messages", i, len(seen), n-1)
			}
		}
		own := fmt.Sprintf("user%02d: hi from %02d", i, i)
		require.Zero(t, seen[own])
		for line, count := range seen {
			require.Equal(t, 1, count, line)
		}
	}
	expectSilence(t, clients[0].lines)

	for i := 0; i < 10; i++ {
		clients[i].send(t, "/quit")
	}
	require.Eventually(t, func() bool { return srv.OnlineCount() == n-10 }, 3*time.Second, 10*time.Millisecond)
}

func TestServer_StopDisconnectsEveryone(t *testing.T) {
	f := newFixture(t)
	srv := NewServer("127.0.0.1:0", f.router, nil)
	require.NoError(t, srv.Start())
	require.True(t, srv.Running())

	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	srv.Stop()
	require.False(t, srv.Running())
	require.Zero(t, srv.OnlineCount())

	for _, c := range []*tcpClient{alice, bob} {
		select {
		case _, ok := <-c.lines:
			require.False(t, ok)
		case <-time.After(2 * time.Second):
			t.Fatal("client was not disconnected")
		}
	}

	lines := auditLines(t, f.audit.Path())
	require.Equal(t, 1, countSuffix(lines, " - User disconnected: alice"))
	require.Equal(t, 1, countSuffix(lines, " - User disconnected: bob"))
	require.True(t, countSuffix(lines, " - Server stopped") == 1)

	_, err := net.DialTimeout("tcp", srv.Addr(), 200*time.Millisecond)
	require.Error(t, err)
	srv.Stop()
}

func TestServer_StartFailsOnBoundPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	f := newFixture(t)
	srv := NewServer(ln.Addr().String(), f.router, nil)
	require.Error(t, srv.Start())
	srv.Stop()
}

func TestServer_BannedWordManagement(t *testing.T) {
	srv, f := startServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	require.NoError(t, srv.AddBannedWord("  Heck "))
	require.Contains(t, srv.BannedWords(), "heck")

	alice.send(t, "what the HECK")
	expectLine(t, bob.lines, "alice: what the ****")

	require.NoError(t, srv.RemoveBannedWord("heck"))
	alice.send(t, "what the HECK")
	expectLine(t, bob.lines, "alice: what the HECK")

	lines := auditLines(t, f.audit.Path())
	require.Equal(t, 1, countSuffix(lines, " - Added banned word: heck"))
	require.Equal(t, 1, countSuffix(lines, " - Removed banned word: heck"))
	require.Error(t, srv.AddBannedWord(" "))
}
