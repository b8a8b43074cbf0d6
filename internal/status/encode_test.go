package status

import "testing"

func TestEncode_Layout(t *testing.T) {
	s := Snapshot{
		State:       StatePaused,
		PeriodMs:    100000,
		Variables:   3,
		PayloadSize: 7,
		Stats: Stats{
			Frames:      0x1_0002_0003,
			EscapeBytes: 0x0004_0005,
		},
	}

	regs := Encode(s)
	if len(regs) != SlotsPerBlock {
		t.Fatalf("expected %d regs, got %d", SlotsPerBlock, len(regs))
	}

	want := map[int]uint16{
		SlotState:       uint16(StatePaused),
		SlotVariables:   3,
		SlotPayloadSize: 7,
		SlotPeriodMs:    0xFFFF, // clamped
		SlotFramesHi:    0x0002,
		SlotFramesLo:    0x0003,
		SlotEscapesHi:   0x0004,
		SlotEscapesLo:   0x0005,
	}
	for slot, v := range want {
		if regs[slot] != v {
			t.Fatalf("slot %d: got=%#x want=%#x", slot, regs[slot], v)
		}
	}
	for slot := SlotReservedStart; slot <= SlotReservedEnd; slot++ {
		if regs[slot] != 0 {
			t.Fatalf("reserved slot %d must be zero, got %d", slot, regs[slot])
		}
	}
}

func TestStateString(t *testing.T) {
	if StateDisabled.String() != "disabled" || StateActive.String() != "active" || StatePaused.String() != "paused" {
		t.Fatalf("unexpected state names")
	}
	if State(9).String() != "unknown" {
		t.Fatalf("unexpected name for unknown state")
	}
}
