package cli

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const twoCueTimeline = `{
  "source": "clip.mp4",
  "sample_rate": 44100,
  "chunk_ms": 50,
  "entries": [
    {"time": 0, "duty": 0},
    {"time": 0.05, "duty": 255}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// receiver collects datagrams sent to a local UDP port.
type receiver struct {
	conn *net.UDPConn

	mu   sync.Mutex
	msgs []string
	done chan struct{}
}

func newReceiver(t *testing.T) *receiver {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	r := &receiver{conn: conn, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		buf := make([]byte, 512)
		for {
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			r.mu.Lock()
			r.msgs = append(r.msgs, string(buf[:n]))
			r.mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		conn.Close()
		<-r.done
	})
	return r
}

func (r *receiver) port() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

// waitFor blocks until msg has arrived or the timeout passes.
func (r *receiver) waitFor(msg string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		for _, m := range r.msgs {
			if m == msg {
				r.mu.Unlock()
				return true
			}
		}
		r.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func (r *receiver) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// networkConfig writes a config that sends to port on localhost.
func networkConfig(t *testing.T, dir string, port int, extra ...string) string {
	t.Helper()
	content := fmt.Sprintf(`tick_rate: 200
pre_send_offset: 30ms
network:
  enabled: true
  address: 127.0.0.1
  port: %d
  redundancy: 1
  ping_count: 1
  ping_interval: 1ms
`, port)
	return writeFile(t, dir, "hapsync.yaml", content+strings.Join(extra, "\n"))
}
