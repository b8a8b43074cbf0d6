// internal/status/snapshot.go
package status

// Stats is the byte accounting of one streamer since its last reset.
// Headers, frames and payload counters count messages the sink accepted.
type Stats struct {
	Headers      uint64 `json:"headers"`
	Frames       uint64 `json:"frames"`
	PayloadBytes uint64 `json:"payload_bytes"` // raw value bytes, before escaping
	EscapeBytes  uint64 `json:"escape_bytes"`  // ESC prefixes inserted
	TxBytes      uint64 `json:"tx_bytes"`      // everything accepted by the sink
}

// Snapshot is a point-in-time view of a streamer.
// It contains no logic and is safe to hand to other goroutines.
type Snapshot struct {
	State       State  `json:"-"`
	Paused      bool   `json:"paused"`
	PeriodMs    uint32 `json:"period_ms"`
	Variables   int    `json:"variables"`
	PayloadSize int    `json:"payload_size"`
	Catalog     string `json:"catalog"`
	Stats       Stats  `json:"stats"`
}
