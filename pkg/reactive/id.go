package reactive

import "sync/atomic"

// SignalID identifies a signal node within a Store.
type SignalID uint64

// DerivedID identifies a derived node within a Store.
type DerivedID uint64

// EffectID identifies an effect node within a Store.
type EffectID uint64

// idCounter is the source of unique ids for all reactive nodes.
// Ids are monotonically increasing and never reused, even across stores.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
