// internal/config/config.go
package config

type Config struct {
	Insight InsightConfig `yaml:"insight" toml:"insight"`
}

type InsightConfig struct {
	PeriodMs  uint32 `yaml:"period_ms" toml:"period_ms"`
	TickMs    int    `yaml:"tick_ms" toml:"tick_ms"`
	Sync      bool   `yaml:"sync" toml:"sync"`
	Autostart bool   `yaml:"autostart" toml:"autostart"`
	Preamble  string `yaml:"preamble" toml:"preamble"`

	Limits       LimitsConfig       `yaml:"limits" toml:"limits"`
	Sink         SinkConfig         `yaml:"sink" toml:"sink"`
	Source       SourceConfig       `yaml:"source" toml:"source"`
	Variables    []VariableConfig   `yaml:"variables" toml:"variables"`
	StatusMemory *StatusMemoryConfig `yaml:"status_memory" toml:"status_memory"`
	Control      ControlConfig      `yaml:"control" toml:"control"`
	Log          LogConfig          `yaml:"log" toml:"log"`
}

// ---- LIMITS ----

type LimitsConfig struct {
	MaxVariables int `yaml:"max_variables" toml:"max_variables"`
	NameBuffer   int `yaml:"name_buffer" toml:"name_buffer"`
	PayloadBytes int `yaml:"payload_bytes" toml:"payload_bytes"`
}

// ---- SINK ----

type SinkConfig struct {
	Kind string `yaml:"kind" toml:"kind"` // serial | tcp | mqtt | file | stdout

	// serial
	Device   string `yaml:"device" toml:"device"`
	BaudRate int    `yaml:"baud_rate" toml:"baud_rate"`
	DataBits int    `yaml:"data_bits" toml:"data_bits"`
	StopBits int    `yaml:"stop_bits" toml:"stop_bits"`
	Parity   string `yaml:"parity" toml:"parity"`

	// tcp
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`

	// mqtt
	Broker   string `yaml:"broker" toml:"broker"`
	Topic    string `yaml:"topic" toml:"topic"`
	ClientID string `yaml:"client_id" toml:"client_id"`
	QoS      byte   `yaml:"qos" toml:"qos"`

	// file
	Path string `yaml:"path" toml:"path"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Mode       string `yaml:"mode" toml:"mode"`         // tcp | rtu
	Endpoint   string `yaml:"endpoint" toml:"endpoint"` // host:port or serial device
	UnitID     uint8  `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms" toml:"timeout_ms"`
	IntervalMs int    `yaml:"interval_ms" toml:"interval_ms"`

	// rtu only
	BaudRate int    `yaml:"baud_rate" toml:"baud_rate"`
	DataBits int    `yaml:"data_bits" toml:"data_bits"`
	StopBits int    `yaml:"stop_bits" toml:"stop_bits"`
	Parity   string `yaml:"parity" toml:"parity"`
}

// ---- VARIABLES ----

type VariableConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Type    string `yaml:"type" toml:"type"` // header id (u16, f, ...) or Go name (uint16, float32, ...)
	FC      uint8  `yaml:"fc" toml:"fc"`
	Address uint16 `yaml:"address" toml:"address"`
	Bit     *uint8 `yaml:"bit" toml:"bit"` // bool from a register bit (fc 3/4)
}

// ---- STATUS MEMORY ----

type StatusMemoryConfig struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id" toml:"unit_id"`
	Address   uint16 `yaml:"address" toml:"address"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// ---- CONTROL / LOG ----

type ControlConfig struct {
	Addr string `yaml:"addr" toml:"addr"` // empty disables the HTTP API
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}
