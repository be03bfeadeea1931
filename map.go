// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// package slotmap is a Go implementation of a generational slot map, also
// known as a stable index vector or sparse set. See also:
// https://github.com/johnBuffer/StableIndexVector.
//
// # Slot Maps
//
// A slot map issues a stable id for every inserted value. Ids stay valid
// until the value is erased, while the values themselves are stored packed
// in a contiguous slice so that iterating over them is as cheap as iterating
// over a slice. Insert, Erase, and lookup by id are all O(1).
//
// Three index spaces are kept consistent with each other:
//
//	values  [a c d]          live values, dense, order-unstable
//	owners  [0 2 3 1]        id owning each position; tail = free ids
//	slots   [{g0 0} {g1 3} {g2 1} {g3 2}]  per id: generation, position
//
// Erase performs a swap-and-pop: the erased value is overwritten by the last
// value, the store shrinks by one and the slot of the moved value is patched
// to point at its new position. The erased id is swapped into the position
// just past the live values, so owners[len(values)] is always the next id to
// be reissued. There is no separate free list: an id is free iff its
// recorded position is >= len(values). A consequence is that erased ids are
// reused most recently erased first, while the ids invalidated by Clear are
// reused in the order in which swap-removal last left them in storage.
//
// # Generations
//
// Every slot carries a generation counter which is bumped whenever the id is
// erased, cleared, or reissued. A Handle captures the generation at the time
// it was created and is valid only while the generations match, allowing
// stale references to be detected without scanning. Generations are 32-bit
// and wrap; a handle that is held across 2^32 invalidations of the same slot
// will be considered valid again.
//
// # Ids
//
// Ids are unsigned integers of a caller chosen width. The maximum value of
// the id type is reserved and never issued, so a Map[uint8, V] can hold at
// most 255 values. Inserting beyond that fails with ErrIDSpaceExhausted.
package slotmap

import (
	"fmt"
	"strings"
)

const debug = false

// Map is a container that stores values of type V and addresses them by
// stable ids of type I. It supports Insert, Erase, Get, Retain, Clear and All
// operations, plus generation checked Handles.
//
// A Map is NOT goroutine-safe.
type Map[I ID, V any] struct {
	dense denseStore[I, V]
	slots slotTable[I]
}

// New constructs a new Map with the specified initial capacity. If
// initialCapacity is 0 the map will start out with zero capacity and will
// grow on the first insert. The zero value for a Map is not usable.
func New[I ID, V any](initialCapacity int, options ...option[V]) *Map[I, V] {
	cfg := config[V]{
		allocator: defaultAllocator[V]{},
	}
	for _, op := range options {
		op.apply(&cfg)
	}

	m := &Map[I, V]{
		dense: denseStore[I, V]{
			allocator: cfg.allocator,
		},
	}
	if initialCapacity > 0 {
		m.Reserve(initialCapacity)
	}
	m.checkInvariants()
	return m
}

// Close closes the map, releasing the value storage back to its configured
// allocator and invalidating every handle. It is unnecessary to close a map
// using the default allocator. It is invalid to use a Map after it has been
// closed, though Close itself is idempotent.
func (m *Map[I, V]) Close() {
	if m.dense.allocator == nil {
		return
	}
	m.Clear()
	m.dense.release()
	m.dense.allocator = nil
}

// Insert adds value to the map and returns its id. The returned id is
// recycled from a previously erased value if one is available. Insert fails
// with ErrIDSpaceExhausted if every representable id is live.
func (m *Map[I, V]) Insert(value V) (I, error) {
	id, err := m.allocID()
	if err != nil {
		return id, err
	}
	pos := m.dense.push(value, id)
	m.slots.setPosition(id, I(pos))
	if debug {
		gen, _ := m.slots.get(id)
		fmt.Printf("insert(%v): id=%d pos=%d gen=%d\n", value, id, pos, gen)
	}
	m.checkInvariants()
	return id, nil
}

// InsertHandle is Insert followed by Handle on the new id.
func (m *Map[I, V]) InsertHandle(value V) (Handle[I, V], error) {
	id, err := m.Insert(value)
	if err != nil {
		return Handle[I, V]{}, err
	}
	gen, _ := m.slots.get(id)
	return Handle[I, V]{id: id, gen: gen, m: m}, nil
}

// Erase removes the value with the specified id. It returns ErrOutOfRange if
// id was never issued by this map and ErrStaleID if the value has already
// been erased.
//
// Erase does not check generations: if id has been erased and then
// reissued, Erase removes the new value. Use EraseHandle to guard against
// that.
func (m *Map[I, V]) Erase(id I) error {
	if err := m.check(id); err != nil {
		return err
	}
	m.erase(id)
	return nil
}

// EraseHandle removes the value referenced by h. It returns ErrStaleHandle
// if h is no longer valid or was created by a different map.
func (m *Map[I, V]) EraseHandle(h Handle[I, V]) error {
	if h.m != m {
		return fmt.Errorf("%w: handle for id %d belongs to a different map", ErrStaleHandle, h.id)
	}
	if !m.valid(h.id, h.gen) {
		return fmt.Errorf("%w: id %d generation %d", ErrStaleHandle, h.id, h.gen)
	}
	m.erase(h.id)
	return nil
}

// Get retrieves the value with the specified id, returning ok=false if the
// id is not live.
func (m *Map[I, V]) Get(id I) (value V, ok bool) {
	if m.isSlotFree(id) {
		return value, false
	}
	_, pos := m.slots.get(id)
	return *m.dense.at(pos), true
}

// Ptr returns a pointer to the value with the specified id, returning
// ok=false if the id is not live. The pointer may be used to modify the
// value in place, and is only valid until the next Insert, Erase, Retain,
// Clear, or Reserve.
func (m *Map[I, V]) Ptr(id I) (value *V, ok bool) {
	if m.isSlotFree(id) {
		return nil, false
	}
	_, pos := m.slots.get(id)
	return m.dense.at(pos), true
}

// Handle returns a generation checked handle to the value with the
// specified id. It fails with ErrOutOfRange or ErrStaleID like Erase.
func (m *Map[I, V]) Handle(id I) (Handle[I, V], error) {
	if err := m.check(id); err != nil {
		return Handle[I, V]{}, err
	}
	gen, _ := m.slots.get(id)
	return Handle[I, V]{id: id, gen: gen, m: m}, nil
}

// Contains returns true if id refers to a live value.
func (m *Map[I, V]) Contains(id I) bool {
	return !m.isSlotFree(id)
}

// Tracked returns true if id has ever been issued by this map, regardless of
// whether it is currently live.
func (m *Map[I, V]) Tracked(id I) bool {
	return m.slots.isTracked(id)
}

// NextID returns the id that the next call to Insert will return, assuming
// the id space is not exhausted.
func (m *Map[I, V]) NextID() I {
	n := m.dense.len()
	if m.slots.len() > n {
		return m.dense.owners[n]
	}
	return I(n)
}

// Retain removes every value for which keep returns false. The remaining
// values may be reordered.
func (m *Map[I, V]) Retain(keep func(value V) bool) {
	for i := 0; i < m.dense.len(); {
		if keep(m.dense.values[i]) {
			i++
			continue
		}
		// The swap-remove moves an unvisited value into position i, so i is
		// tested again rather than advanced.
		m.erase(m.dense.owners[i])
	}
}

// Clear removes all values from the map and invalidates every outstanding id
// and handle. The capacity of the map and the set of tracked ids are
// retained.
func (m *Map[I, V]) Clear() {
	if debug {
		fmt.Printf("clear: len=%d tracked=%d\n", m.dense.len(), m.slots.len())
	}
	m.dense.truncate()
	m.slots.bumpAll()
	m.checkInvariants()
}

// Reserve pre-sizes the map so that it can hold n values without
// reallocating.
func (m *Map[I, V]) Reserve(n int) {
	m.dense.reserve(n)
	m.slots.reserve(n)
}

// All calls yield sequentially for each id and value present in the map. If
// yield returns false, iteration stops. Values are visited in storage order,
// which is stable until the next mutation. The map can be mutated during
// iteration, though there is no guarantee that the mutations will be visible
// to the iteration.
func (m *Map[I, V]) All(yield func(id I, value V) bool) {
	// Snapshot the values and owners so that iteration remains memory safe
	// if the map is mutated during iteration.
	values := m.dense.values
	owners := m.dense.owners[:len(values)]
	for i := range values {
		if !yield(owners[i], values[i]) {
			return
		}
	}
}

// Values returns the live values as a slice in storage order. The slice
// aliases the map's storage: elements may be modified in place, but the
// slice must not be retained across a mutation of the map.
func (m *Map[I, V]) Values() []V {
	return m.dense.values
}

// Len returns the number of values in the map.
func (m *Map[I, V]) Len() int {
	return m.dense.len()
}

// Cap returns the number of values the map can hold before its value
// storage must grow.
func (m *Map[I, V]) Cap() int {
	return cap(m.dense.values)
}

// allocID returns the id for a new insertion. A free id is reused if one
// exists, otherwise a fresh id equal to the current length is minted.
func (m *Map[I, V]) allocID() (I, error) {
	n := m.dense.len()
	if m.slots.len() > n {
		id := m.dense.owners[n]
		m.slots.bumpGeneration(id)
		return id, nil
	}
	if uint64(n) >= uint64(maxID[I]()) {
		return 0, fmt.Errorf("%w: %d ids in use", ErrIDSpaceExhausted, n)
	}
	return m.slots.grow(), nil
}

// isSlotFree returns true if id does not refer to a live value: either it was
// never issued, or its recorded position lies past the live values.
func (m *Map[I, V]) isSlotFree(id I) bool {
	if !m.slots.isTracked(id) {
		return true
	}
	_, pos := m.slots.get(id)
	return uint64(pos) >= uint64(m.dense.len())
}

// check returns nil if id is live and the appropriate error otherwise.
func (m *Map[I, V]) check(id I) error {
	if !m.slots.isTracked(id) {
		return fmt.Errorf("%w: id %d, %d ids issued", ErrOutOfRange, id, m.slots.len())
	}
	if m.isSlotFree(id) {
		return fmt.Errorf("%w: id %d", ErrStaleID, id)
	}
	return nil
}

// valid returns true if id is live and its generation is gen.
func (m *Map[I, V]) valid(id I, gen uint32) bool {
	if m.isSlotFree(id) {
		return false
	}
	cur, _ := m.slots.get(id)
	return cur == gen
}

// erase removes the live value with the specified id.
func (m *Map[I, V]) erase(id I) {
	_, pos := m.slots.get(id)
	last := I(m.dense.len() - 1)
	moved, ok := m.dense.swapRemove(pos)
	if ok {
		m.slots.setPosition(moved, pos)
	}
	m.slots.setPosition(id, last)
	m.slots.bumpGeneration(id)
	if debug {
		fmt.Printf("erase(%d): pos=%d moved=%d/%t len=%d\n", id, pos, moved, ok, m.dense.len())
	}
	m.checkInvariants()
}

// checkInvariants verifies the consistency of the dense store, the owner
// list, and the slot table. It is a noop unless built with the invariants
// build tag.
func (m *Map[I, V]) checkInvariants() {
	if invariants {
		d := &m.dense
		if len(d.owners) != m.slots.len() {
			panic(fmt.Sprintf("invariant failed: owners=%d != slots=%d\n%s",
				len(d.owners), m.slots.len(), m.debugString()))
		}
		if d.len() > len(d.owners) {
			panic(fmt.Sprintf("invariant failed: len=%d > owners=%d\n%s",
				d.len(), len(d.owners), m.debugString()))
		}
		if uint64(m.slots.len()) > uint64(maxID[I]()) {
			panic(fmt.Sprintf("invariant failed: reserved id %d issued", maxID[I]()))
		}
		seen := make([]bool, m.slots.len())
		for p, id := range d.owners {
			if !m.slots.isTracked(id) {
				panic(fmt.Sprintf("invariant failed: owners[%d]=%d is untracked\n%s",
					p, id, m.debugString()))
			}
			if seen[id] {
				panic(fmt.Sprintf("invariant failed: id %d owns more than one position\n%s",
					id, m.debugString()))
			}
			seen[id] = true
			if _, pos := m.slots.get(id); int(pos) != p {
				panic(fmt.Sprintf("invariant failed: slots[%d].pos=%d, expected %d\n%s",
					id, pos, p, m.debugString()))
			}
		}
	}
}

// debugString returns a dump of the map's internal state.
func (m *Map[I, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "len=%d tracked=%d cap=%d\n", m.dense.len(), m.slots.len(), m.Cap())
	for p, id := range m.dense.owners {
		if !m.slots.isTracked(id) {
			fmt.Fprintf(&buf, "  %4d: id=%d untracked\n", p, id)
			continue
		}
		gen, pos := m.slots.get(id)
		if p < m.dense.len() {
			fmt.Fprintf(&buf, "  %4d: id=%d gen=%d pos=%d value=%v\n", p, id, gen, pos, m.dense.values[p])
		} else {
			fmt.Fprintf(&buf, "  %4d: id=%d gen=%d pos=%d free\n", p, id, gen, pos)
		}
	}
	return buf.String()
}
