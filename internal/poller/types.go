// internal/poller/types.go
package poller

import "time"

// ReadBlock describes one Modbus read geometry.
// Geometry only: no semantics.
type ReadBlock struct {
	FC       uint8
	Address  uint16
	Quantity uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	FC       uint8
	Address  uint16
	Quantity uint16

	// Exactly one of these is used depending on FC.
	Bits      []bool   // FC 1,2
	Registers []uint16 // FC 3,4
}

// Contains reports whether [addr, addr+qty) lies inside the block.
func (b BlockResult) Contains(addr, qty uint16) bool {
	start := uint32(b.Address)
	end := start + uint32(b.Quantity)
	return uint32(addr) >= start && uint32(addr)+uint32(qty) <= end
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	At     time.Time
	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}
