// internal/sink/serial.go
package sink

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig is the UART setup. Zero values fall back to 8N1.
type SerialConfig struct {
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string // N, E, O
	Timeout  time.Duration
}

// Serial writes frames to a serial port, the classic insight transport.
type Serial struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

// OpenSerial opens the port immediately; a missing device is a startup error.
func OpenSerial(c SerialConfig) (*Serial, error) {
	if c.Device == "" {
		return nil, errors.New("sink serial: device required")
	}
	sc := &serial.Config{
		Address:  c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  c.Timeout,
	}
	if sc.BaudRate == 0 {
		sc.BaudRate = 115200
	}
	if sc.DataBits == 0 {
		sc.DataBits = 8
	}
	if sc.StopBits == 0 {
		sc.StopBits = 1
	}
	if sc.Parity == "" {
		sc.Parity = "N"
	}

	port, err := serial.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("sink serial: open %s: %w", c.Device, err)
	}
	return &Serial{port: port}, nil
}

func (s *Serial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return 0, ErrClosed
	}
	return writeAll(s.port, p)
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
