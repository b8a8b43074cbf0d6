package wire

import (
	"bytes"
	"math"
	"testing"
)

func TestTypeTable(t *testing.T) {
	cases := []struct {
		typ   Type
		width int
		id    string
	}{
		{Bool, 1, "b"},
		{Uint8, 1, "u8"},
		{Uint16, 2, "u16"},
		{Uint32, 4, "u32"},
		{Uint64, 8, "u64"},
		{Int8, 1, "i8"},
		{Int16, 2, "i16"},
		{Int32, 4, "i32"},
		{Int64, 8, "i64"},
		{Float32, 4, "f"},
		{Float64, 8, "d"},
	}
	for _, c := range cases {
		if c.typ.Width() != c.width {
			t.Fatalf("%v width: got=%d want=%d", c.typ, c.typ.Width(), c.width)
		}
		if c.typ.ID() != c.id {
			t.Fatalf("%v id: got=%q want=%q", c.typ, c.typ.ID(), c.id)
		}
		back, err := ParseType(c.id)
		if err != nil || back != c.typ {
			t.Fatalf("ParseType(%q) = %v, %v", c.id, back, err)
		}
	}

	if Type(200).Valid() || Type(200).Width() != 0 || Type(200).ID() != "" {
		t.Fatalf("out of range tag must be invalid")
	}
	if _, err := ParseType("u128"); err == nil {
		t.Fatalf("expected error for unknown type id")
	}
}

func TestTypeOf(t *testing.T) {
	var (
		b   bool
		u16 uint16
		f64 float64
		np  *int32
	)
	if typ, ok := TypeOf(&b); !ok || typ != Bool {
		t.Fatalf("*bool: got=%v ok=%v", typ, ok)
	}
	if typ, ok := TypeOf(&u16); !ok || typ != Uint16 {
		t.Fatalf("*uint16: got=%v ok=%v", typ, ok)
	}
	if typ, ok := TypeOf(&f64); !ok || typ != Float64 {
		t.Fatalf("*float64: got=%v ok=%v", typ, ok)
	}
	if _, ok := TypeOf(np); ok {
		t.Fatalf("nil pointer must be rejected")
	}
	if _, ok := TypeOf(u16); ok {
		t.Fatalf("non-pointer must be rejected")
	}
	if _, ok := TypeOf(new(string)); ok {
		t.Fatalf("*string must be rejected")
	}
}

func TestAppendRawLittleEndian(t *testing.T) {
	u16 := uint16(300)
	i32 := int32(-2)
	f32 := float32(1.5)
	on := true

	var got []byte
	got = AppendRaw(got, &u16)
	got = AppendRaw(got, &i32)
	got = AppendRaw(got, &f32)
	got = AppendRaw(got, &on)

	want := []byte{0x2C, 0x01, 0xFE, 0xFF, 0xFF, 0xFF}
	bits := math.Float32bits(f32)
	want = append(want, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24), 0x01)

	if !bytes.Equal(got, want) {
		t.Fatalf("raw mismatch: got=% x want=% x", got, want)
	}
}

func TestAppendEscaped(t *testing.T) {
	raw := []byte{0x00, SOH, 0x05, ESC, ETX, 0x1C}
	got, n := AppendEscaped(nil, raw)

	want := []byte{0x00, ESC, SOH, 0x05, ESC, ESC, ESC, ETX, 0x1C}
	if !bytes.Equal(got, want) {
		t.Fatalf("escaped mismatch: got=% x want=% x", got, want)
	}
	if n != 3 {
		t.Fatalf("escape count: got=%d want=3", n)
	}
	if back := unescape(got); !bytes.Equal(back, raw) {
		t.Fatalf("unescape mismatch: got=% x want=% x", back, raw)
	}
}

func TestIsControl(t *testing.T) {
	for b := 0; b < 256; b++ {
		want := b == 0x01 || b == 0x02 || b == 0x03 || b == 0x04 || b == 0x1B
		if IsControl(byte(b)) != want {
			t.Fatalf("IsControl(0x%02x) = %v", b, !want)
		}
	}
}

// unescape reverses AppendEscaped. A trailing lone ESC is dropped.
func unescape(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		if src[i] == ESC {
			i++
			if i >= len(src) {
				break
			}
		}
		out = append(out, src[i])
	}
	return out
}
