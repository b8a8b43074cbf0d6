// internal/wire/encode.go
package wire

import (
	"encoding/binary"
	"math"
)

// Scalar is the set of Go types a registry entry may point to.
type Scalar interface {
	bool | uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

// TypeOf reports the tag matching a pointer to a Scalar.
// Nil pointers and any other value report ok=false.
func TypeOf(ref any) (Type, bool) {
	switch p := ref.(type) {
	case *bool:
		return Bool, p != nil
	case *uint8:
		return Uint8, p != nil
	case *uint16:
		return Uint16, p != nil
	case *uint32:
		return Uint32, p != nil
	case *uint64:
		return Uint64, p != nil
	case *int8:
		return Int8, p != nil
	case *int16:
		return Int16, p != nil
	case *int32:
		return Int32, p != nil
	case *int64:
		return Int64, p != nil
	case *float32:
		return Float32, p != nil
	case *float64:
		return Float64, p != nil
	}
	return 0, false
}

// AppendRaw appends the current value behind ref, little-endian, unescaped.
// ref must have passed TypeOf; anything else appends nothing.
func AppendRaw(dst []byte, ref any) []byte {
	switch p := ref.(type) {
	case *bool:
		if *p {
			return append(dst, 1)
		}
		return append(dst, 0)
	case *uint8:
		return append(dst, *p)
	case *uint16:
		return binary.LittleEndian.AppendUint16(dst, *p)
	case *uint32:
		return binary.LittleEndian.AppendUint32(dst, *p)
	case *uint64:
		return binary.LittleEndian.AppendUint64(dst, *p)
	case *int8:
		return append(dst, byte(*p))
	case *int16:
		return binary.LittleEndian.AppendUint16(dst, uint16(*p))
	case *int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(*p))
	case *int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(*p))
	case *float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(*p))
	case *float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(*p))
	}
	return dst
}

// AppendEscaped appends raw to dst, prefixing every control byte with ESC.
// It returns the extended slice and the number of escape bytes inserted.
func AppendEscaped(dst, raw []byte) ([]byte, int) {
	escapes := 0
	for _, b := range raw {
		if IsControl(b) {
			dst = append(dst, ESC)
			escapes++
		}
		dst = append(dst, b)
	}
	return dst, escapes
}
