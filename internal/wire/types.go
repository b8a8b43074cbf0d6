// internal/wire/types.go
package wire

import "fmt"

// Type tags one primitive the stream can carry.
// The numeric values index the type table and are part of the protocol.
type Type uint8

const (
	Bool Type = iota
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64

	numTypes
)

type typeInfo struct {
	width int
	id    string
}

// typeTable is indexed by Type. Immutable.
var typeTable = [numTypes]typeInfo{
	Bool:    {1, "b"},
	Uint8:   {1, "u8"},
	Uint16:  {2, "u16"},
	Uint32:  {4, "u32"},
	Uint64:  {8, "u64"},
	Int8:    {1, "i8"},
	Int16:   {2, "i16"},
	Int32:   {4, "i32"},
	Int64:   {8, "i64"},
	Float32: {4, "f"},
	Float64: {8, "d"},
}

// Valid reports whether t is a known tag.
func (t Type) Valid() bool { return t < numTypes }

// Width is the number of payload bytes one value of t occupies (before escaping).
func (t Type) Width() int {
	if !t.Valid() {
		return 0
	}
	return typeTable[t].width
}

// ID is the short identifier written into the schema header.
func (t Type) ID() string {
	if !t.Valid() {
		return ""
	}
	return typeTable[t].id
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeTable[t].id
}

// ParseType maps a header id (as used in config files) back to its tag.
func ParseType(id string) (Type, error) {
	for i, s := range typeTable {
		if s.id == id {
			return Type(i), nil
		}
	}
	switch id {
	case "bool":
		return Bool, nil
	case "uint8":
		return Uint8, nil
	case "uint16":
		return Uint16, nil
	case "uint32":
		return Uint32, nil
	case "uint64":
		return Uint64, nil
	case "int8":
		return Int8, nil
	case "int16":
		return Int16, nil
	case "int32":
		return Int32, nil
	case "int64":
		return Int64, nil
	case "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	}
	return 0, fmt.Errorf("wire: unknown type %q", id)
}
