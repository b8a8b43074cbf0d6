// internal/insight/insight.go
package insight

import (
	"errors"
	"fmt"
	"io"

	"github.com/tamzrod/modbus-insight/internal/registry"
	"github.com/tamzrod/modbus-insight/internal/status"
	"github.com/tamzrod/modbus-insight/internal/wire"
)

// DefaultPeriodMs is the frame period used until SetPeriod is called.
const DefaultPeriodMs uint32 = 100

// DefaultPreamble identifies protocol and version at the start of every header.
const DefaultPreamble = "insight:1;"

var (
	// ErrNoVariables means enable was requested with an empty registry.
	ErrNoVariables = errors.New("insight: no variables registered")
	// ErrActive means reset was requested while transmission is enabled.
	ErrActive = errors.New("insight: transmission active")
	// ErrNotEnabled means a frame was requested while disabled.
	ErrNotEnabled = errors.New("insight: not enabled")
	// ErrNoSink means there is nowhere to write.
	ErrNoSink = errors.New("insight: no sink")
	// ErrInvalidPreamble means the preamble contains a reserved byte.
	ErrInvalidPreamble = errors.New("insight: invalid preamble")
)

// Option configures a Streamer.
type Option func(*Streamer)

// WithPeriod sets the initial frame period in milliseconds.
func WithPeriod(ms uint32) Option { return func(s *Streamer) { s.period = ms } }

// WithPreamble overrides DefaultPreamble. Checked by New.
func WithPreamble(p string) Option { return func(s *Streamer) { s.preamble = p } }

// Streamer is the frame encoder. It owns the enable/pause lifecycle,
// writes the schema header once per enable and one data frame per due tick.
//
// A Streamer is single-threaded: Task, Register-side calls on the registry,
// Enable, Pause and Reset must all come from one goroutine.
type Streamer struct {
	reg  *registry.Registry
	sink io.Writer

	enabled  bool
	paused   bool
	lastTick uint32
	period   uint32
	preamble string

	stats status.Stats
	buf   []byte
}

// New creates a disabled, unpaused streamer over reg writing to sink.
// sink may be nil and set later with SetSink.
func New(reg *registry.Registry, sink io.Writer, opts ...Option) (*Streamer, error) {
	if reg == nil {
		return nil, errors.New("insight: registry required")
	}
	s := &Streamer{
		reg:      reg,
		sink:     sink,
		period:   DefaultPeriodMs,
		preamble: DefaultPreamble,
	}
	for _, fn := range opts {
		fn(s)
	}
	if err := ValidatePreamble(s.preamble); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry exposes the registry fed to this streamer.
func (s *Streamer) Registry() *registry.Registry { return s.reg }

// SetSink replaces the byte sink.
func (s *Streamer) SetSink(w io.Writer) { s.sink = w }

// SetPeriod sets the frame period in milliseconds.
func (s *Streamer) SetPeriod(ms uint32) { s.period = ms }

// Period returns the frame period in milliseconds.
func (s *Streamer) Period() uint32 { return s.period }

// Enabled reports whether a schema is live.
func (s *Streamer) Enabled() bool { return s.enabled }

// Paused reports the pause flag. It is independent of Enabled.
func (s *Streamer) Paused() bool { return s.paused }

// State folds enabled and paused into the observable state.
func (s *Streamer) State() status.State {
	switch {
	case !s.enabled:
		return status.StateDisabled
	case s.paused:
		return status.StatePaused
	default:
		return status.StateActive
	}
}

// Stats returns the byte accounting since the last Reset.
func (s *Streamer) Stats() status.Stats { return s.stats }

// Snapshot returns state, accounting and registry size in one value.
func (s *Streamer) Snapshot() status.Snapshot {
	return status.Snapshot{
		State:       s.State(),
		Paused:      s.paused,
		PeriodMs:    s.period,
		Variables:   s.reg.Len(),
		PayloadSize: s.reg.PayloadSize(),
		Catalog:     s.reg.Catalog(),
		Stats:       s.stats,
	}
}

// Enable starts or stops transmission.
//
// Enabling locks the registry and writes the schema header. With sync the
// next Task call transmits regardless of the elapsed period. Disabling
// writes EOT and unlocks the registry. Requesting the current state is a
// no-op success. A failed header write leaves the streamer disabled and
// unlocked, so a retry sends the header again.
func (s *Streamer) Enable(state, sync bool) error {
	if s.enabled == state {
		return nil
	}

	if state {
		if s.reg.Len() == 0 {
			return ErrNoVariables
		}
		if s.sink == nil {
			return ErrNoSink
		}

		lastTick := s.lastTick
		s.reg.Lock()
		s.enabled = true
		if sync {
			s.syncNextTick()
		}
		if err := s.write(s.appendHeader(s.buf[:0])); err != nil {
			s.enabled = false
			s.reg.Unlock()
			s.lastTick = lastTick
			return err
		}
		s.stats.Headers++
		return nil
	}

	s.enabled = false
	s.reg.Unlock()
	if s.sink == nil {
		return nil
	}
	return s.write(append(s.buf[:0], wire.EOT))
}

// Pause gates Task. It never touches the registry lock or the header.
// With sync the next Task call after unpausing transmits immediately.
func (s *Streamer) Pause(state, sync bool) {
	s.paused = state
	if sync {
		s.syncNextTick()
	}
}

// Reset clears the registry and the byte accounting.
// Only legal while disabled.
func (s *Streamer) Reset() error {
	if s.enabled {
		return ErrActive
	}
	s.reg.Reset()
	s.stats = status.Stats{}
	return nil
}

// Task is the periodic entry point. now is a monotonically increasing
// millisecond counter; wraparound is handled by unsigned arithmetic.
// It reports whether a frame was written.
func (s *Streamer) Task(now uint32) (bool, error) {
	if !s.enabled || s.paused {
		return false, nil
	}
	if now-s.lastTick <= s.period {
		return false, nil
	}
	s.lastTick = now
	if err := s.Transmit(); err != nil {
		return false, err
	}
	return true, nil
}

// Transmit writes one data frame with the current values of every entry.
// It ignores the pause flag. Nothing is written when disabled. Frame and
// payload counters move only when the sink accepts the frame.
func (s *Streamer) Transmit() error {
	if !s.enabled {
		return ErrNotEnabled
	}

	frame := append(s.buf[:0], wire.STX)
	var raw [wire.MaxWidth]byte
	var payload, escapes uint64
	for _, e := range s.reg.Snapshot() {
		val := wire.AppendRaw(raw[:0], e.Ref)
		var esc int
		frame, esc = wire.AppendEscaped(frame, val)
		payload += uint64(len(val))
		escapes += uint64(esc)
	}
	frame = append(frame, wire.ETX)

	if err := s.write(frame); err != nil {
		return err
	}
	s.stats.Frames++
	s.stats.PayloadBytes += payload
	s.stats.EscapeBytes += escapes
	return nil
}

// syncNextTick moves lastTick two periods back so the next Task fires.
func (s *Streamer) syncNextTick() {
	s.lastTick -= 2 * s.period
}

// appendHeader builds SOH preamble catalog type-ids ETX.
func (s *Streamer) appendHeader(dst []byte) []byte {
	dst = append(dst, wire.SOH)
	dst = append(dst, s.preamble...)
	dst = append(dst, s.reg.Catalog()...)
	for _, e := range s.reg.Snapshot() {
		dst = append(dst, e.Type.ID()...)
		dst = append(dst, wire.Separator)
	}
	return append(dst, wire.ETX)
}

// write hands one complete message to the sink in a single call.
func (s *Streamer) write(msg []byte) error {
	s.buf = msg
	if s.sink == nil {
		return ErrNoSink
	}
	n, err := s.sink.Write(msg)
	s.stats.TxBytes += uint64(n)
	if err != nil {
		return fmt.Errorf("insight: sink write: %w", err)
	}
	return nil
}

// ValidatePreamble rejects preambles that would break header framing.
func ValidatePreamble(p string) error {
	for i := 0; i < len(p); i++ {
		if p[i] == 0 || wire.IsControl(p[i]) {
			return fmt.Errorf("%w: reserved byte 0x%02x at %d", ErrInvalidPreamble, p[i], i)
		}
	}
	return nil
}
