// internal/sink/tcp.go
package sink

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TCPConfig is the stream endpoint.
type TCPConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// TCP streams frames over one connection. On write failure the connection
// is dropped and redialed on the next message; the failed message is lost.
type TCP struct {
	mu     sync.Mutex
	cfg    TCPConfig
	conn   net.Conn
	closed bool
	log    zerolog.Logger
}

// NewTCP does not dial; the first Write does.
func NewTCP(c TCPConfig, log zerolog.Logger) (*TCP, error) {
	if c.Endpoint == "" {
		return nil, errors.New("sink tcp: endpoint required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Second
	}
	return &TCP{cfg: c, log: log.With().Str("sink", "tcp").Str("endpoint", c.Endpoint).Logger()}, nil
}

func (t *TCP) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	if t.conn == nil {
		conn, err := net.DialTimeout("tcp", t.cfg.Endpoint, t.cfg.Timeout)
		if err != nil {
			return 0, fmt.Errorf("sink tcp: dial: %w", err)
		}
		t.log.Info().Msg("connected")
		t.conn = conn
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.Timeout))
	n, err := writeAll(t.conn, p)
	if err != nil {
		t.log.Warn().Err(err).Msg("write failed, dropping connection")
		_ = t.conn.Close()
		t.conn = nil
		return n, fmt.Errorf("sink tcp: write: %w", err)
	}
	return n, nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
