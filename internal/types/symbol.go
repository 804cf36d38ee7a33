package types

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// SymbolGenerator supplies globally unique names for fresh type variables.
// The only required property is that two calls within one process never
// return equal names (spec.md §4.1); ordering between calls is
// irrelevant.
type SymbolGenerator interface {
	Next() string
}

// CounterGenerator is a monotonic-counter-backed SymbolGenerator. It is the
// REPL's default because it keeps printed type variables short (t1, t2, ...).
type CounterGenerator struct {
	n int64
}

// NewCounterGenerator creates a CounterGenerator starting at t1.
func NewCounterGenerator() *CounterGenerator {
	return &CounterGenerator{}
}

func (g *CounterGenerator) Next() string {
	n := atomic.AddInt64(&g.n, 1)
	return fmt.Sprintf("t%d", n)
}

// UUIDGenerator is a SymbolGenerator backed by random (version 4) UUIDs,
// an alternative to a monotonic counter. Useful when diagnosing a counter
// that has been reset or duplicated across REPL sub-processes, since UUIDs
// stay unique without any shared state. Each name carries the full UUID.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Next() string {
	id := uuid.New().String()
	return "t_" + strings.ReplaceAll(id, "-", "")
}
