// internal/status/encode.go
package status

// Encode converts a Snapshot into a full status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotState] = uint16(s.State)
	regs[SlotVariables] = clamp16(uint64(s.Variables))
	regs[SlotPayloadSize] = clamp16(uint64(s.PayloadSize))
	regs[SlotPeriodMs] = clamp16(uint64(s.PeriodMs))

	// Counters wrap at 32 bits; readers diff consecutive samples.
	regs[SlotFramesHi] = uint16(s.Stats.Frames >> 16)
	regs[SlotFramesLo] = uint16(s.Stats.Frames)
	regs[SlotEscapesHi] = uint16(s.Stats.EscapeBytes >> 16)
	regs[SlotEscapesLo] = uint16(s.Stats.EscapeBytes)

	return regs
}

func clamp16(v uint64) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
