// internal/status/constants.go
package status

// Status block layout constants.
// These values define the register mirror and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of holding registers in a status block.
const SlotsPerBlock = 10

// ---- SLOT INDICES ----

// SlotState holds the streamer state code.
const SlotState = 0

// SlotVariables holds the registered variable count.
const SlotVariables = 1

// SlotPayloadSize holds the unescaped payload bytes per frame.
const SlotPayloadSize = 2

// SlotPeriodMs holds the frame period, clamped to 65535.
const SlotPeriodMs = 3

// SlotFramesHi and SlotFramesLo hold the low 32 bits of the frame counter.
const SlotFramesHi = 4
const SlotFramesLo = 5

// SlotEscapesHi and SlotEscapesLo hold the low 32 bits of the escape counter.
const SlotEscapesHi = 6
const SlotEscapesLo = 7

// Slots 8–9 are reserved.
const SlotReservedStart = 8
const SlotReservedEnd = 9

// ---- STATE CODES ----

// State is the externally observable streamer state.
type State uint16

// StateDisabled: no schema live, registry unlocked.
const StateDisabled State = 0

// StateActive: schema live, frames emitted every period.
const StateActive State = 1

// StatePaused: schema live, frames suppressed.
const StatePaused State = 2

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
