// internal/bank/bank.go
package bank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	cfg "github.com/tamzrod/modbus-insight/internal/config"
	"github.com/tamzrod/modbus-insight/internal/poller"
	"github.com/tamzrod/modbus-insight/internal/registry"
	"github.com/tamzrod/modbus-insight/internal/wire"
)

// Modbus per-request quantity limits.
const (
	maxReadBits      = 2000
	maxReadRegisters = 125
)

// Binding is where one variable lives on the device.
type Binding struct {
	FC      uint8
	Address uint16
	Bit     int // register bit for bool on fc 3/4, -1 otherwise
}

// Var is one host-owned variable. The registry holds Ref; the bank writes
// through it when a poll result arrives.
type Var struct {
	Name    string
	Type    wire.Type
	Binding Binding
	Ref     any // *bool, *uint16, ... allocated by the bank
}

// quantity is the number of bits (fc 1/2) or registers (fc 3/4) the var spans.
func (v Var) quantity() uint16 {
	if v.Binding.FC == 1 || v.Binding.FC == 2 {
		return 1
	}
	return uint16(cfg.RegisterWords(v.Type))
}

// Bank owns the storage behind every registered reference.
// It is not safe for concurrent use; the driver goroutine owns it.
type Bank struct {
	vars []Var
}

// New allocates storage for every configured variable, in config order.
func New(vars []cfg.VariableConfig) (*Bank, error) {
	b := &Bank{vars: make([]Var, 0, len(vars))}
	for _, vc := range vars {
		typ, err := wire.ParseType(vc.Type)
		if err != nil {
			return nil, fmt.Errorf("bank: variable %q: %w", vc.Name, err)
		}
		bit := -1
		if vc.Bit != nil {
			bit = int(*vc.Bit)
		}
		b.vars = append(b.vars, Var{
			Name:    vc.Name,
			Type:    typ,
			Binding: Binding{FC: vc.FC, Address: vc.Address, Bit: bit},
			Ref:     alloc(typ),
		})
	}
	return b, nil
}

// Vars returns the variables in registration order.
func (b *Bank) Vars() []Var { return b.vars }

// RegisterAll registers every variable, in order. It stops at the first
// failure; entries registered before it stay in the registry.
func (b *Bank) RegisterAll(reg *registry.Registry) error {
	for _, v := range b.vars {
		if err := reg.Register(v.Ref, v.Type, v.Name); err != nil {
			return fmt.Errorf("bank: register %q: %w", v.Name, err)
		}
	}
	return nil
}

// ReadBlocks derives the read geometry covering every variable: one block
// per contiguous span per function code, split before the Modbus request
// limit is exceeded.
func (b *Bank) ReadBlocks() []poller.ReadBlock {
	type span struct{ start, end uint32 } // end exclusive
	byFC := map[uint8][]span{}
	for _, v := range b.vars {
		start := uint32(v.Binding.Address)
		byFC[v.Binding.FC] = append(byFC[v.Binding.FC], span{start, start + uint32(v.quantity())})
	}

	fcs := make([]int, 0, len(byFC))
	for fc := range byFC {
		fcs = append(fcs, int(fc))
	}
	sort.Ints(fcs)

	var out []poller.ReadBlock
	for _, fc := range fcs {
		spans := byFC[uint8(fc)]
		sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

		limit := uint32(maxReadRegisters)
		if fc == 1 || fc == 2 {
			limit = maxReadBits
		}

		// Blocks are cut only at a variable's start, so every variable
		// lies whole inside one block.
		cur := spans[0]
		for _, s := range spans[1:] {
			end := cur.end
			if s.end > end {
				end = s.end
			}
			if s.start <= cur.end && end-cur.start <= limit {
				cur.end = end
				continue
			}
			out = append(out, poller.ReadBlock{FC: uint8(fc), Address: uint16(cur.start), Quantity: uint16(cur.end - cur.start)})
			cur = s
		}
		out = append(out, poller.ReadBlock{FC: uint8(fc), Address: uint16(cur.start), Quantity: uint16(cur.end - cur.start)})
	}
	return out
}

// ErrNotCovered means a poll result has no block for a variable.
var ErrNotCovered = errors.New("bank: variable not covered by poll result")

// Apply decodes a successful poll result into the variables.
// Variables not covered by any block keep their value and are reported.
func (b *Bank) Apply(res poller.PollResult) error {
	if res.Err != nil {
		return res.Err
	}

	var missing []string
	for _, v := range b.vars {
		blk, ok := find(res.Blocks, v)
		if !ok {
			missing = append(missing, v.Name)
			continue
		}
		off := int(v.Binding.Address - blk.Address)
		if v.Binding.FC == 1 || v.Binding.FC == 2 {
			if off < len(blk.Bits) {
				*(v.Ref.(*bool)) = blk.Bits[off]
			}
			continue
		}
		n := cfg.RegisterWords(v.Type)
		if off+n > len(blk.Registers) {
			missing = append(missing, v.Name)
			continue
		}
		store(v, blk.Registers[off:off+n])
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrNotCovered, missing)
	}
	return nil
}

func find(blocks []poller.BlockResult, v Var) (poller.BlockResult, bool) {
	for _, blk := range blocks {
		if blk.FC == v.Binding.FC && blk.Contains(v.Binding.Address, v.quantity()) {
			return blk, true
		}
	}
	return poller.BlockResult{}, false
}

func alloc(typ wire.Type) any {
	switch typ {
	case wire.Bool:
		return new(bool)
	case wire.Uint8:
		return new(uint8)
	case wire.Uint16:
		return new(uint16)
	case wire.Uint32:
		return new(uint32)
	case wire.Uint64:
		return new(uint64)
	case wire.Int8:
		return new(int8)
	case wire.Int16:
		return new(int16)
	case wire.Int32:
		return new(int32)
	case wire.Int64:
		return new(int64)
	case wire.Float32:
		return new(float32)
	case wire.Float64:
		return new(float64)
	}
	return nil
}

// store writes registers into v. Multi-register values are big-endian word
// order (first register is most significant), the Modbus convention.
func store(v Var, regs []uint16) {
	var u uint64
	for _, r := range regs {
		u = u<<16 | uint64(r)
	}

	switch p := v.Ref.(type) {
	case *bool:
		if v.Binding.Bit >= 0 {
			*p = regs[0]&(1<<uint(v.Binding.Bit)) != 0
		} else {
			*p = regs[0] != 0
		}
	case *uint8:
		*p = uint8(u)
	case *int8:
		*p = int8(uint8(u))
	case *uint16:
		*p = uint16(u)
	case *int16:
		*p = int16(uint16(u))
	case *uint32:
		*p = uint32(u)
	case *int32:
		*p = int32(uint32(u))
	case *float32:
		*p = math.Float32frombits(uint32(u))
	case *uint64:
		*p = u
	case *int64:
		*p = int64(u)
	case *float64:
		*p = math.Float64frombits(u)
	}
}
