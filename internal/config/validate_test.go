// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// helper to build a valid config quickly
func base(vars ...VariableConfig) *Config {
	if len(vars) == 0 {
		vars = []VariableConfig{{Name: "temp", Type: "u16", FC: 3, Address: 0}}
	}
	return &Config{
		Insight: InsightConfig{
			Source:    SourceConfig{Endpoint: "127.0.0.1:502"},
			Variables: vars,
		},
	}
}

func bit(b uint8) *uint8 { return &b }

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(base()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
		want string
	}{
		{"no variables", &Config{Insight: InsightConfig{Source: SourceConfig{Endpoint: "x"}}}, "at least one variable"},
		{"bad name", base(VariableConfig{Name: "a;b", Type: "u16", FC: 3}), "invalid name"},
		{"bad type", base(VariableConfig{Name: "a", Type: "u128", FC: 3}), "unknown type"},
		{"bad fc", base(VariableConfig{Name: "a", Type: "u16", FC: 5}), "unsupported fc"},
		{"coil not bool", base(VariableConfig{Name: "a", Type: "u16", FC: 1}), "type must be bool"},
		{"bit on coil", base(VariableConfig{Name: "a", Type: "b", FC: 1, Bit: bit(0)}), "only valid for fc 3/4"},
		{"bit not bool", base(VariableConfig{Name: "a", Type: "u16", FC: 3, Bit: bit(0)}), "requires type bool"},
		{"bit range", base(VariableConfig{Name: "a", Type: "b", FC: 3, Bit: bit(16)}), "out of range"},
		{"register overflow", base(VariableConfig{Name: "a", Type: "d", FC: 3, Address: 65533}), "exceeds register space"},
		{"duplicate", base(
			VariableConfig{Name: "a", Type: "u16", FC: 3},
			VariableConfig{Name: "a", Type: "u16", FC: 4},
		), "duplicate name"},
	}

	for _, c := range cases {
		err := Validate(c.cfg)
		if err == nil {
			t.Fatalf("%s: expected error, got nil", c.name)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q does not mention %q", c.name, err, c.want)
		}
	}
}

func TestValidate_SourceAndSink(t *testing.T) {
	cfg := base()
	cfg.Insight.Source.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected missing source endpoint error")
	}

	cfg = base()
	cfg.Insight.Source.Mode = "udp"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected bad mode error")
	}

	for _, sink := range []SinkConfig{
		{Kind: "serial"},
		{Kind: "tcp"},
		{Kind: "mqtt"},
		{Kind: "mqtt", Broker: "b:1883", QoS: 3},
		{Kind: "file"},
		{Kind: "carrier-pigeon"},
	} {
		cfg := base()
		cfg.Insight.Sink = sink
		if err := Validate(cfg); err == nil {
			t.Fatalf("sink %+v: expected error", sink)
		}
	}

	cfg = base()
	cfg.Insight.Preamble = "v\x01"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected preamble error")
	}

	cfg = base()
	cfg.Insight.StatusMemory = &StatusMemoryConfig{}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected status_memory endpoint error")
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := base()
	before := *cfg
	_ = Validate(cfg)
	if cfg.Insight.PeriodMs != before.Insight.PeriodMs || cfg.Insight.Sink.Kind != before.Insight.Sink.Kind {
		t.Fatalf("Validate mutated config")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := base()
	cfg.Insight.PeriodMs = 250
	cfg.Insight.Sink.Kind = "mqtt"
	cfg.Insight.Sink.Broker = "localhost:1883"
	Normalize(cfg)

	in := cfg.Insight
	if in.TickMs != DefaultTickMs {
		t.Fatalf("tick_ms: %d", in.TickMs)
	}
	if in.Source.IntervalMs != 250 {
		t.Fatalf("source interval should follow period, got %d", in.Source.IntervalMs)
	}
	if in.Source.Mode != "tcp" || in.Source.TimeoutMs != DefaultTimeoutMs {
		t.Fatalf("source defaults: %+v", in.Source)
	}
	if in.Sink.Topic != DefaultMQTTTopic {
		t.Fatalf("mqtt topic: %q", in.Sink.Topic)
	}
	if in.Preamble == "" || in.Log.Level != "info" {
		t.Fatalf("preamble/log defaults missing")
	}

	cfg = base()
	Normalize(cfg)
	if cfg.Insight.PeriodMs == 0 || cfg.Insight.Sink.Kind != "stdout" {
		t.Fatalf("period/sink defaults missing: %+v", cfg.Insight)
	}
}

func TestLoad_YAMLAndTOML(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "insight.yaml")
	if err := os.WriteFile(yml, []byte(`
insight:
  period_ms: 50
  sync: true
  source:
    endpoint: 10.0.0.5:502
    unit_id: 7
  sink:
    kind: tcp
    endpoint: 127.0.0.1:9000
  variables:
    - { name: temp, type: u16, fc: 3, address: 100 }
    - { name: alarm, type: b, fc: 3, address: 101, bit: 4 }
`), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := Load(yml)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate yaml: %v", err)
	}
	in := cfg.Insight
	if in.PeriodMs != 50 || !in.Sync || in.Source.UnitID != 7 || len(in.Variables) != 2 {
		t.Fatalf("yaml decoded wrong: %+v", in)
	}
	if in.Variables[1].Bit == nil || *in.Variables[1].Bit != 4 {
		t.Fatalf("bit not decoded")
	}

	tml := filepath.Join(dir, "insight.toml")
	if err := os.WriteFile(tml, []byte(`
[insight]
period_ms = 20

[insight.source]
endpoint = "/dev/ttyUSB0"
mode = "rtu"

[[insight.variables]]
name = "speed"
type = "f"
fc = 4
address = 2
`), 0o600); err != nil {
		t.Fatalf("write toml: %v", err)
	}

	cfg, err = Load(tml)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate toml: %v", err)
	}
	if cfg.Insight.PeriodMs != 20 || cfg.Insight.Source.Mode != "rtu" || cfg.Insight.Variables[0].Type != "f" {
		t.Fatalf("toml decoded wrong: %+v", cfg.Insight)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("insight:\n  perod_ms: 5\n"), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
