package sink

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-insight/internal/config"
)

func TestFileSink_AppendsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")

	s, err := Build(cfg.SinkConfig{Kind: "file", Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := s.Write([]byte{0x02, 0x2C, 0x01, 0x03}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Write([]byte{0x04}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{0x02, 0x2C, 0x01, 0x03, 0x04}) {
		t.Fatalf("file content: % x", got)
	}
}

func TestTCPSink_DeliversAndRedials(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listen unavailable: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 16)
				n, _ := io.ReadAtLeast(c, buf, 3)
				received <- buf[:n]
			}(conn)
		}
	}()

	s, err := NewTCP(TCPConfig{Endpoint: ln.Addr().String(), Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer s.Close()

	if _, err := s.Write([]byte{0x02, 0x07, 0x03}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, []byte{0x02, 0x07, 0x03}) {
			t.Fatalf("received % x", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("nothing received")
	}
}

func TestTCPSink_DialFailureAndClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback listen unavailable: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listens there now

	s, err := NewTCP(TCPConfig{Endpoint: addr, Timeout: 200 * time.Millisecond}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	if _, err := s.Write([]byte{0x04}); err == nil {
		t.Fatalf("expected dial error")
	}

	_ = s.Close()
	if _, err := s.Write([]byte{0x04}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(cfg.SinkConfig{Kind: "pigeon"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := Build(cfg.SinkConfig{Kind: "file"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected missing path error")
	}
	if _, err := Build(cfg.SinkConfig{Kind: "tcp"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected missing endpoint error")
	}
	if _, err := Build(cfg.SinkConfig{Kind: "serial", Device: filepath.Join(t.TempDir(), "no-such-tty")}, zerolog.Nop()); err == nil {
		t.Fatalf("expected serial open error")
	}
	if _, err := NewMQTT(MQTTConfig{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected missing broker error")
	}
}

func TestStdout_CloseIsNoop(t *testing.T) {
	s, err := Build(cfg.SinkConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

type shortWriter struct{ buf bytes.Buffer }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 2 {
		p = p[:2]
	}
	return w.buf.Write(p)
}

func TestWriteAll_LoopsOnShortWrites(t *testing.T) {
	w := &shortWriter{}
	n, err := writeAll(w, []byte{1, 2, 3, 4, 5})
	if err != nil || n != 5 {
		t.Fatalf("writeAll: n=%d err=%v", n, err)
	}
	if !bytes.Equal(w.buf.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("content: % x", w.buf.Bytes())
	}
}
