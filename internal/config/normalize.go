// internal/config/normalize.go
package config

import "github.com/tamzrod/modbus-insight/internal/insight"

// Defaults applied by Normalize.
const (
	DefaultTickMs        = 5
	DefaultTimeoutMs     = 1000
	DefaultBaudRate      = 115200
	DefaultMQTTTopic     = "insight/stream"
	DefaultLogLevel      = "info"
	DefaultSourceMode    = "tcp"
	DefaultSinkKind      = "stdout"
	DefaultStatusTimeout = 1000
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	in := &cfg.Insight

	if in.PeriodMs == 0 {
		in.PeriodMs = insight.DefaultPeriodMs
	}
	if in.TickMs == 0 {
		in.TickMs = DefaultTickMs
	}
	if in.Preamble == "" {
		in.Preamble = insight.DefaultPreamble
	}
	if in.Log.Level == "" {
		in.Log.Level = DefaultLogLevel
	}

	// ---- source ----
	if in.Source.Mode == "" {
		in.Source.Mode = DefaultSourceMode
	}
	if in.Source.TimeoutMs == 0 {
		in.Source.TimeoutMs = DefaultTimeoutMs
	}
	if in.Source.IntervalMs == 0 {
		// poll as often as frames go out
		in.Source.IntervalMs = int(in.PeriodMs)
	}
	if in.Source.Mode == "rtu" && in.Source.BaudRate == 0 {
		in.Source.BaudRate = DefaultBaudRate
	}

	// ---- sink ----
	if in.Sink.Kind == "" {
		in.Sink.Kind = DefaultSinkKind
	}
	if in.Sink.TimeoutMs == 0 {
		in.Sink.TimeoutMs = DefaultTimeoutMs
	}
	if in.Sink.Kind == "serial" && in.Sink.BaudRate == 0 {
		in.Sink.BaudRate = DefaultBaudRate
	}
	if in.Sink.Kind == "mqtt" && in.Sink.Topic == "" {
		in.Sink.Topic = DefaultMQTTTopic
	}

	// ---- status memory ----
	if sm := in.StatusMemory; sm != nil && sm.TimeoutMs == 0 {
		sm.TimeoutMs = DefaultStatusTimeout
	}
}
