// internal/wire/constants.go
package wire

// Control bytes of the insight stream.
// These values define the protocol and MUST NOT be configurable.

// SOH starts a schema header.
const SOH byte = 0x01

// STX starts a data frame.
const STX byte = 0x02

// ETX ends a data frame or a schema header.
const ETX byte = 0x03

// EOT ends a transmission.
const EOT byte = 0x04

// ESC precedes any payload byte that collides with a control byte.
const ESC byte = 0x1B

// Separator terminates every name and type id in the schema header.
const Separator byte = ';'

// ---- LIMITS ----

// MaxWidth is the widest primitive on the wire (int64, uint64, float64).
const MaxWidth = 8

// IsControl reports whether b is reserved and must be escaped in a payload.
func IsControl(b byte) bool {
	switch b {
	case SOH, STX, ETX, EOT, ESC:
		return true
	}
	return false
}
