// cmd/insightd/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-insight/internal/bank"
	"github.com/tamzrod/modbus-insight/internal/config"
	"github.com/tamzrod/modbus-insight/internal/control"
	"github.com/tamzrod/modbus-insight/internal/driver"
	"github.com/tamzrod/modbus-insight/internal/insight"
	"github.com/tamzrod/modbus-insight/internal/observability"
	"github.com/tamzrod/modbus-insight/internal/poller"
	"github.com/tamzrod/modbus-insight/internal/registry"
	"github.com/tamzrod/modbus-insight/internal/sink"
	"github.com/tamzrod/modbus-insight/internal/writer"
)

func main() {
	boot := observability.InitLogger("insightd", config.DefaultLogLevel)
	if len(os.Args) < 2 {
		boot.Fatal().Msg("usage: insightd <config.yaml|config.toml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		boot.Fatal().Err(err).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		boot.Fatal().Err(err).Msg("config validation failed")
	}
	config.Normalize(cfg)
	in := cfg.Insight

	logger := observability.InitLogger("insightd", in.Log.Level)
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, in, logger); err != nil {
		logger.Fatal().Err(err).Msg("insightd failed")
	}
	logger.Info().Msg("insightd stopped")
}

func run(parent context.Context, in config.InsightConfig, logger zerolog.Logger) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// --------------------
	// Variables: bank storage registered in declaration order
	// --------------------

	b, err := bank.New(in.Variables)
	if err != nil {
		return err
	}
	reg := registry.New(registry.Limits{
		MaxEntries:   in.Limits.MaxVariables,
		NameBuffer:   in.Limits.NameBuffer,
		PayloadBytes: in.Limits.PayloadBytes,
	})
	if err := b.RegisterAll(reg); err != nil {
		return err
	}

	// --------------------
	// Sink + streamer
	// --------------------

	out, err := sink.Build(in.Sink, logger)
	if err != nil {
		return err
	}
	defer out.Close()

	s, err := insight.New(reg, out,
		insight.WithPeriod(in.PeriodMs),
		insight.WithPreamble(in.Preamble),
	)
	if err != nil {
		return err
	}

	// --------------------
	// Source poller
	// --------------------

	p, err := poller.Build(in.Source, b.ReadBlocks())
	if err != nil {
		return err
	}
	polls := make(chan poller.PollResult)

	// --------------------
	// Driver
	// --------------------

	opts := []driver.Option{
		driver.WithBank(b),
		driver.WithPolls(polls),
		driver.WithLogger(logger.With().Str("component", "driver").Logger()),
	}
	if in.StatusMemory != nil {
		sw, err := writer.Build(in.StatusMemory)
		if err != nil {
			return err
		}
		defer sw.Close()
		opts = append(opts, driver.WithStatusWriter(sw))
	}

	d, err := driver.New(driver.Config{Tick: time.Duration(in.TickMs) * time.Millisecond}, s, opts...)
	if err != nil {
		return err
	}

	logger.Info().
		Int("variables", reg.Len()).
		Int("payload_bytes", reg.PayloadSize()).
		Uint32("period_ms", in.PeriodMs).
		Str("sink", in.Sink.Kind).
		Str("source", in.Source.Endpoint).
		Msg("insightd starting")

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Run(ctx, polls)
	}()
	go func() {
		defer wg.Done()
		d.Run(ctx)
	}()

	if in.Control.Addr != "" {
		router := control.NewRouter(d, logger.With().Str("component", "control").Logger())
		srv := control.NewServer(in.Control.Addr, router, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	if in.Autostart {
		if err := d.Enable(ctx, in.Sync); err != nil {
			logger.Error().Err(err).Msg("autostart failed")
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		// Control server failure ends the process; stop the rest too.
		cancel()
	}

	// Driver emits EOT on the way out.
	wg.Wait()
	return runErr
}
