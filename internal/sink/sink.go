// internal/sink/sink.go
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-insight/internal/config"
)

// Sink receives complete insight messages: one Write per header, frame or
// end marker. Implementations must not retain p.
type Sink interface {
	io.Writer
	io.Closer
}

var ErrClosed = errors.New("sink: closed")

// Build opens the configured sink.
func Build(c cfg.SinkConfig, log zerolog.Logger) (Sink, error) {
	timeout := time.Duration(c.TimeoutMs) * time.Millisecond

	switch c.Kind {
	case "", "stdout":
		return Stdout(), nil
	case "file":
		return OpenFile(c.Path)
	case "serial":
		s, err := OpenSerial(SerialConfig{
			Device:   c.Device,
			BaudRate: c.BaudRate,
			DataBits: c.DataBits,
			StopBits: c.StopBits,
			Parity:   c.Parity,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "tcp":
		t, err := NewTCP(TCPConfig{
			Endpoint: c.Endpoint,
			Timeout:  timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	case "mqtt":
		m, err := NewMQTT(MQTTConfig{
			Broker:   c.Broker,
			Topic:    c.Topic,
			ClientID: c.ClientID,
			QoS:      c.QoS,
			Timeout:  timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("sink: unknown kind %q", c.Kind)
	}
}

// ---- file / stdout ----

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Stdout writes raw frames to standard output.
func Stdout() Sink { return nopCloser{os.Stdout} }

// OpenFile appends raw frames to path, creating it if needed.
func OpenFile(path string) (Sink, error) {
	if path == "" {
		return nil, errors.New("sink file: path required")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink file: %w", err)
	}
	return f, nil
}

// writeAll loops until b is fully written or w fails.
func writeAll(w io.Writer, b []byte) (int, error) {
	total := 0
	for len(b) > 0 {
		n, err := w.Write(b)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
		b = b[n:]
	}
	return total, nil
}
