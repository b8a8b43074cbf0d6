// internal/driver/driver.go
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-insight/internal/bank"
	"github.com/tamzrod/modbus-insight/internal/insight"
	"github.com/tamzrod/modbus-insight/internal/observability"
	"github.com/tamzrod/modbus-insight/internal/poller"
	"github.com/tamzrod/modbus-insight/internal/status"
)

// ErrStopped means Run is not (or no longer) serving commands.
var ErrStopped = errors.New("driver: stopped")

// StatusWriter mirrors streamer state somewhere else (e.g. Modbus registers).
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// Config is the minimal runtime config the driver needs.
type Config struct {
	Tick         time.Duration // how often Task is called
	StatusPeriod time.Duration // status mirror refresh, 0 means 1s
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the monotonic millisecond clock.
func WithClock(now func() uint32) Option { return func(d *Driver) { d.now = now } }

// WithBank lets the driver apply poll results and re-register after Reset.
func WithBank(b *bank.Bank) Option { return func(d *Driver) { d.bank = b } }

// WithPolls feeds poll results into the loop. Requires WithBank.
func WithPolls(ch <-chan poller.PollResult) Option { return func(d *Driver) { d.polls = ch } }

// WithStatusWriter enables the status mirror.
func WithStatusWriter(w StatusWriter) Option { return func(d *Driver) { d.status = w } }

// WithLogger sets the logger; default is a no-op logger.
func WithLogger(l zerolog.Logger) Option { return func(d *Driver) { d.log = l } }

type command struct {
	fn    func(s *insight.Streamer) error
	reply chan error
}

// Driver owns one Streamer and is the only goroutine that touches it, the
// registry behind it and the bank storage. Every public method is executed
// on the Run loop and waits for its result.
type Driver struct {
	cfg    Config
	s      *insight.Streamer
	bank   *bank.Bank
	polls  <-chan poller.PollResult
	status StatusWriter
	now    func() uint32
	log    zerolog.Logger

	cmds chan command
	done chan struct{}
	rec  observability.StatsRecorder
}

// New creates a driver. Call Run to start it.
func New(cfg Config, s *insight.Streamer, opts ...Option) (*Driver, error) {
	if s == nil {
		return nil, errors.New("driver: streamer required")
	}
	if cfg.Tick <= 0 {
		return nil, errors.New("driver: tick must be > 0")
	}
	if cfg.StatusPeriod <= 0 {
		cfg.StatusPeriod = time.Second
	}
	d := &Driver{
		cfg:  cfg,
		s:    s,
		log:  zerolog.Nop(),
		cmds: make(chan command),
		done: make(chan struct{}),
	}
	for _, fn := range opts {
		fn(d)
	}
	if d.polls != nil && d.bank == nil {
		return nil, errors.New("driver: polls require a bank")
	}
	if d.now == nil {
		d.now = monotonicMs(time.Now())
	}
	return d, nil
}

// monotonicMs counts milliseconds since start. It wraps after ~49 days,
// which Task handles.
func monotonicMs(start time.Time) func() uint32 {
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// Run is the tick loop. It returns when ctx is done, after ending an
// active transmission with EOT.
func (d *Driver) Run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()

	var statusC <-chan time.Time
	if d.status != nil {
		st := time.NewTicker(d.cfg.StatusPeriod)
		defer st.Stop()
		statusC = st.C
		d.writeStatus()
	}

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return

		case cmd := <-d.cmds:
			before := d.s.State()
			cmd.reply <- cmd.fn(d.s)
			d.publish()
			if d.status != nil && d.s.State() != before {
				d.writeStatus()
			}

		case res := <-d.polls:
			observability.RecordPoll(res.Err == nil)
			if err := d.bank.Apply(res); err != nil {
				d.log.Warn().Err(err).Msg("poll result not applied")
			}

		case <-ticker.C:
			sent, err := d.s.Task(d.now())
			if err != nil {
				observability.RecordSinkError()
				d.log.Error().Err(err).Msg("frame write failed")
			}
			if sent {
				d.publish()
			}

		case <-statusC:
			d.writeStatus()
		}
	}
}

func (d *Driver) shutdown() {
	if !d.s.Enabled() {
		return
	}
	if err := d.s.Enable(false, false); err != nil {
		d.log.Error().Err(err).Msg("end of transmission write failed")
	}
	d.publish()
	if d.status != nil {
		d.writeStatus()
	}
	d.log.Info().Msg("transmission ended")
}

func (d *Driver) publish() {
	d.rec.Record(d.s.Snapshot())
}

func (d *Driver) writeStatus() {
	if err := d.status.WriteStatus(d.s.Snapshot()); err != nil {
		d.log.Warn().Err(err).Msg("status write failed")
	}
}

// do runs fn on the loop goroutine.
func (d *Driver) do(ctx context.Context, fn func(s *insight.Streamer) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case d.cmds <- cmd:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ---- commands ----

// Enable starts transmission (header now, frames from the next due tick).
func (d *Driver) Enable(ctx context.Context, sync bool) error {
	return d.do(ctx, func(s *insight.Streamer) error {
		if err := s.Enable(true, sync); err != nil {
			return err
		}
		d.log.Info().Int("variables", s.Registry().Len()).Bool("sync", sync).Msg("transmission enabled")
		return nil
	})
}

// Disable ends transmission with EOT.
func (d *Driver) Disable(ctx context.Context) error {
	return d.do(ctx, func(s *insight.Streamer) error {
		if err := s.Enable(false, false); err != nil {
			return err
		}
		d.log.Info().Msg("transmission disabled")
		return nil
	})
}

// Pause sets the pause flag; with sync the next tick transmits.
func (d *Driver) Pause(ctx context.Context, state, sync bool) error {
	return d.do(ctx, func(s *insight.Streamer) error {
		s.Pause(state, sync)
		d.log.Info().Bool("paused", state).Bool("sync", sync).Msg("pause changed")
		return nil
	})
}

// Reset clears registry and accounting, then registers the bank again
// when one is attached. Fails while enabled.
func (d *Driver) Reset(ctx context.Context) error {
	return d.do(ctx, func(s *insight.Streamer) error {
		if err := s.Reset(); err != nil {
			return err
		}
		if d.bank != nil {
			if err := d.bank.RegisterAll(s.Registry()); err != nil {
				return err
			}
		}
		d.log.Info().Int("variables", s.Registry().Len()).Msg("streamer reset")
		return nil
	})
}

// SetPeriod changes the frame period.
func (d *Driver) SetPeriod(ctx context.Context, ms uint32) error {
	return d.do(ctx, func(s *insight.Streamer) error {
		s.SetPeriod(ms)
		return nil
	})
}

// Status returns a snapshot taken on the loop goroutine.
func (d *Driver) Status(ctx context.Context) (status.Snapshot, error) {
	return query(ctx, d, func(s *insight.Streamer) status.Snapshot { return s.Snapshot() })
}

// query runs fn on the loop goroutine and hands its result back over a
// buffered channel. If ctx ends first, the zero value is returned and the
// late result is dropped.
func query[T any](ctx context.Context, d *Driver, fn func(s *insight.Streamer) T) (T, error) {
	out := make(chan T, 1)
	err := d.do(ctx, func(s *insight.Streamer) error {
		out <- fn(s)
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return <-out, nil
}
