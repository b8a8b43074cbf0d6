// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-insight/internal/insight"
	"github.com/tamzrod/modbus-insight/internal/registry"
	"github.com/tamzrod/modbus-insight/internal/wire"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	in := cfg.Insight

	if in.TickMs < 0 {
		return fmt.Errorf("tick_ms must be >= 0")
	}
	if err := insight.ValidatePreamble(in.Preamble); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// LIMITS
	// ------------------------------------------------------------

	if in.Limits.MaxVariables < 0 || in.Limits.NameBuffer < 0 || in.Limits.PayloadBytes < 0 {
		return fmt.Errorf("limits must be >= 0")
	}

	// ------------------------------------------------------------
	// VARIABLES
	// ------------------------------------------------------------

	if len(in.Variables) == 0 {
		return fmt.Errorf("at least one variable is required")
	}

	seen := make(map[string]int, len(in.Variables))
	for i, v := range in.Variables {
		if err := validateVariable(v); err != nil {
			return fmt.Errorf("variable[%d] %q: %w", i, v.Name, err)
		}
		if prev, dup := seen[v.Name]; dup {
			return fmt.Errorf("variable[%d] %q: duplicate name (first at variable[%d])", i, v.Name, prev)
		}
		seen[v.Name] = i
	}

	// ------------------------------------------------------------
	// SOURCE / SINK / STATUS
	// ------------------------------------------------------------

	if err := validateSource(in.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validateSink(in.Sink); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if sm := in.StatusMemory; sm != nil && strings.TrimSpace(sm.Endpoint) == "" {
		return fmt.Errorf("status_memory: endpoint is required")
	}

	return nil
}

func validateVariable(v VariableConfig) error {
	if err := registry.ValidateName(v.Name); err != nil {
		return err
	}
	typ, err := wire.ParseType(v.Type)
	if err != nil {
		return err
	}

	switch v.FC {
	case 1, 2:
		if typ != wire.Bool {
			return fmt.Errorf("fc %d carries bits; type must be bool, got %s", v.FC, typ)
		}
		if v.Bit != nil {
			return fmt.Errorf("bit is only valid for fc 3/4")
		}
	case 3, 4:
		if v.Bit != nil {
			if typ != wire.Bool {
				return fmt.Errorf("bit requires type bool, got %s", typ)
			}
			if *v.Bit > 15 {
				return fmt.Errorf("bit %d out of range 0-15", *v.Bit)
			}
		}
		words := uint32(RegisterWords(typ))
		if uint32(v.Address)+words > 0x10000 {
			return fmt.Errorf("address %d + %d registers exceeds register space", v.Address, words)
		}
	default:
		return fmt.Errorf("unsupported fc %d", v.FC)
	}
	return nil
}

func validateSource(s SourceConfig) error {
	switch s.Mode {
	case "", "tcp", "rtu":
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	if strings.TrimSpace(s.Endpoint) == "" {
		return fmt.Errorf("endpoint is required")
	}
	if s.TimeoutMs < 0 || s.IntervalMs < 0 {
		return fmt.Errorf("timeout_ms and interval_ms must be >= 0")
	}
	return nil
}

func validateSink(s SinkConfig) error {
	switch s.Kind {
	case "", "stdout":
	case "serial":
		if strings.TrimSpace(s.Device) == "" {
			return fmt.Errorf("serial requires device")
		}
	case "tcp":
		if strings.TrimSpace(s.Endpoint) == "" {
			return fmt.Errorf("tcp requires endpoint")
		}
	case "mqtt":
		if strings.TrimSpace(s.Broker) == "" {
			return fmt.Errorf("mqtt requires broker")
		}
		if s.QoS > 2 {
			return fmt.Errorf("mqtt qos %d out of range 0-2", s.QoS)
		}
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("file requires path")
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

// RegisterWords is the number of 16-bit registers one value of typ spans.
// Bytes narrower than a register still occupy a whole one.
func RegisterWords(typ wire.Type) int {
	w := typ.Width()
	if w < 2 {
		return 1
	}
	return w / 2
}
