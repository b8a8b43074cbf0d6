// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-insight/internal/wire"
)

var (
	// ErrLocked means a schema is live downstream; the registry is immutable.
	ErrLocked = errors.New("registry: locked")
	// ErrCapacityExceeded covers entry table, name catalog and payload budget.
	ErrCapacityExceeded = errors.New("registry: capacity exceeded")
	// ErrInvalidName means the name is empty or contains a reserved byte.
	ErrInvalidName = errors.New("registry: invalid name")
	// ErrTypeMismatch means the reference does not point to a value of the declared type.
	ErrTypeMismatch = errors.New("registry: reference does not match type")
)

// Limits bounds the registry. All three are fixed for the registry lifetime.
type Limits struct {
	MaxEntries   int // entry table size
	NameBuffer   int // name catalog size in bytes, terminator included
	PayloadBytes int // sum of entry widths per frame, before escaping
}

// DefaultLimits mirrors the sizes the stream was designed around.
func DefaultLimits() Limits {
	return Limits{
		MaxEntries:   32,
		NameBuffer:   256,
		PayloadBytes: 255,
	}
}

// Entry is one registered variable.
//
// Ref is a non-owning pointer to caller storage. It stays valid for the
// lifetime of the entry; keeping it alive is the caller's responsibility.
type Entry struct {
	Ref  any
	Type wire.Type
	Name string
}

// Registry holds the ordered variable list and the name catalog.
// It is not safe for concurrent use; callers serialize access.
type Registry struct {
	limits  Limits
	entries []Entry
	catalog []byte
	payload int
	locked  bool
}

// New creates an empty registry. Non-positive limits fall back to defaults.
func New(limits Limits) *Registry {
	def := DefaultLimits()
	if limits.MaxEntries <= 0 {
		limits.MaxEntries = def.MaxEntries
	}
	if limits.NameBuffer <= 0 {
		limits.NameBuffer = def.NameBuffer
	}
	if limits.PayloadBytes <= 0 {
		limits.PayloadBytes = def.PayloadBytes
	}
	return &Registry{
		limits:  limits,
		entries: make([]Entry, 0, limits.MaxEntries),
		catalog: make([]byte, 0, limits.NameBuffer),
	}
}

// Register appends one variable. It fails without side effects when the
// registry is locked, a limit would be exceeded, the name is unusable, or
// ref does not point to a value of typ.
func (r *Registry) Register(ref any, typ wire.Type, name string) error {
	if r.locked {
		return ErrLocked
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: unknown type %d", ErrTypeMismatch, uint8(typ))
	}
	if got, ok := wire.TypeOf(ref); !ok || got != typ {
		return fmt.Errorf("%w: %s %q", ErrTypeMismatch, typ, name)
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if len(r.entries) >= r.limits.MaxEntries {
		return fmt.Errorf("%w: %d entries", ErrCapacityExceeded, r.limits.MaxEntries)
	}

	// One byte of the catalog stays reserved for the terminator.
	if len(r.catalog)+len(name)+1 >= r.limits.NameBuffer {
		return fmt.Errorf("%w: name catalog full (%d bytes)", ErrCapacityExceeded, r.limits.NameBuffer)
	}
	if r.payload+typ.Width() > r.limits.PayloadBytes {
		return fmt.Errorf("%w: payload %d+%d > %d bytes", ErrCapacityExceeded, r.payload, typ.Width(), r.limits.PayloadBytes)
	}

	// Commit only after every check passed.
	r.catalog = append(r.catalog, name...)
	r.catalog = append(r.catalog, wire.Separator)
	r.entries = append(r.entries, Entry{Ref: ref, Type: typ, Name: name})
	r.payload += typ.Width()
	return nil
}

// Add registers p under name, deriving the type tag from T.
func Add[T wire.Scalar](r *Registry, p *T, name string) error {
	typ, ok := wire.TypeOf(p)
	if !ok {
		return fmt.Errorf("%w: nil reference %q", ErrTypeMismatch, name)
	}
	return r.Register(p, typ, name)
}

// Reset clears entries, catalog and payload size unconditionally.
// The lock flag is left alone; the encoder guards reset while active.
func (r *Registry) Reset() {
	clear(r.entries)
	r.entries = r.entries[:0]
	r.catalog = r.catalog[:0]
	r.payload = 0
}

// Lock freezes the registry. Called by the encoder on enable.
func (r *Registry) Lock() { r.locked = true }

// Unlock releases the registry. Called by the encoder on disable.
func (r *Registry) Unlock() { r.locked = false }

// Locked reports whether registration is currently rejected.
func (r *Registry) Locked() bool { return r.locked }

// Len is the number of registered entries.
func (r *Registry) Len() int { return len(r.entries) }

// PayloadSize is the unescaped byte count of one frame payload.
func (r *Registry) PayloadSize() int { return r.payload }

// Limits returns the configured bounds.
func (r *Registry) Limits() Limits { return r.limits }

// Catalog returns "name1;name2;...;nameN;".
func (r *Registry) Catalog() string { return string(r.catalog) }

// Snapshot returns the entries in wire order.
// The slice is shared with the registry; callers must not modify it.
func (r *Registry) Snapshot() []Entry { return r.entries }

// ValidateName rejects names a receiver could not split back out of the
// catalog: empty, or containing the separator, NUL or a control byte.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if i := strings.IndexFunc(name, func(c rune) bool {
		return c == rune(wire.Separator) || c == 0 || (c < 0x80 && wire.IsControl(byte(c)))
	}); i >= 0 {
		return fmt.Errorf("%w: %q has reserved byte at %d", ErrInvalidName, name, i)
	}
	return nil
}
