// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cfg "github.com/tamzrod/modbus-insight/internal/config"
	"github.com/tamzrod/modbus-insight/internal/status"
	wmodbus "github.com/tamzrod/modbus-insight/internal/writer/modbus"
)

// registerClient is the write side of a status memory endpoint.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
	Close() error
}

// StatusWriter mirrors streamer snapshots into a holding register block.
// Delivery only: the snapshot is encoded and written verbatim.
type StatusWriter struct {
	cli    registerClient
	unitID uint8
	base   uint16

	needFull bool
	last     []uint16
}

// NewStatusWriter writes the block at base on unitID through cli.
func NewStatusWriter(cli registerClient, unitID uint8, base uint16) *StatusWriter {
	return &StatusWriter{
		cli:      cli,
		unitID:   unitID,
		base:     base,
		needFull: true, // full re-assert on first successful write
	}
}

// Build creates a status writer from config. The endpoint connection is
// opened on the first write.
func Build(c *cfg.StatusMemoryConfig) (*StatusWriter, error) {
	if c == nil {
		return nil, errors.New("status writer: no status_memory config")
	}
	cli, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: c.Endpoint,
		Timeout:  time.Duration(c.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}
	return NewStatusWriter(cli, c.UnitID, c.Address), nil
}

// WriteStatus delivers a snapshot into status memory.
// After a full write only the changed slot runs are written. On any write
// failure the next successful call re-asserts the full block.
func (sw *StatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.cli == nil {
		return errors.New("status writer: disabled")
	}

	regs := status.Encode(s)

	// ------------------------------------------------------------
	// Full block write
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.unitID, sw.base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: contiguous runs of changed slots
	// ------------------------------------------------------------
	var errs []string
	for start := 0; start < len(regs); {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start + 1
		for end < len(regs) && regs[end] != sw.last[end] {
			end++
		}

		if err := sw.cli.WriteRegisters(sw.unitID, sw.base+uint16(start), regs[start:end]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end-1, err))
		} else {
			copy(sw.last[start:end], regs[start:end])
		}
		start = end
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

// Close releases the endpoint connection.
func (sw *StatusWriter) Close() error {
	if sw == nil || sw.cli == nil {
		return nil
	}
	return sw.cli.Close()
}
