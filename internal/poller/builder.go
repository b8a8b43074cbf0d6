// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/modbus-insight/internal/config"
	pmodbus "github.com/tamzrod/modbus-insight/internal/poller/modbus"
)

// Build constructs a Poller for the configured source and wires the Modbus
// client lifecycle. Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// A failed first dial is not fatal:
// the stream can start and carry zeros until the device answers.
func Build(src cfg.SourceConfig, reads []ReadBlock) (*Poller, error) {
	factory := func() (Client, error) {
		c, err := pmodbus.New(pmodbus.Config{
			Mode:     src.Mode,
			Endpoint: src.Endpoint,
			UnitID:   src.UnitID,
			Timeout:  time.Duration(src.TimeoutMs) * time.Millisecond,
			BaudRate: src.BaudRate,
			DataBits: src.DataBits,
			StopBits: src.StopBits,
			Parity:   src.Parity,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	return New(
		Config{
			Interval: time.Duration(src.IntervalMs) * time.Millisecond,
			Reads:    reads,
		},
		nil,
		factory,
	)
}
