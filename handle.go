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

package slotmap

import "fmt"

// Handle is a generation checked reference to a value stored in a Map. It
// bundles the id, the generation of the id's slot at the time the handle was
// created, and the owning map.
//
// A Handle never owns the value. Handles are small, comparable, and may be
// copied freely; all copies become invalid together when the value is
// erased, when the map is cleared, or when the map is closed. The zero Handle
// is never valid.
type Handle[I ID, V any] struct {
	id  I
	gen uint32
	m   *Map[I, V]
}

// Ref is the type-erased form of a Handle. Every Handle[I, V] implements
// Ref[V], which allows handles into maps with different id types to be
// stored in a single collection at the cost of an interface call per access.
type Ref[V any] interface {
	// Valid returns true if the referenced value is still live.
	Valid() bool
	// Get returns a copy of the referenced value.
	Get() (V, error)
	// Ptr returns a pointer to the referenced value.
	Ptr() (*V, error)
}

var _ Ref[int] = Handle[uint32, int]{}

// ID returns the id the handle refers to.
func (h Handle[I, V]) ID() I {
	return h.id
}

// Generation returns the generation captured when the handle was created.
func (h Handle[I, V]) Generation() uint32 {
	return h.gen
}

// Valid returns true if the handle's generation matches the current
// generation of its slot.
func (h Handle[I, V]) Valid() bool {
	return h.m != nil && h.m.valid(h.id, h.gen)
}

// Get returns the referenced value, or ErrStaleHandle if the handle is no
// longer valid.
func (h Handle[I, V]) Get() (V, error) {
	p, err := h.Ptr()
	if err != nil {
		var zero V
		return zero, err
	}
	return *p, nil
}

// Ptr returns a pointer to the referenced value, or ErrStaleHandle if the
// handle is no longer valid. The pointer is subject to the same lifetime
// restrictions as Map.Ptr.
func (h Handle[I, V]) Ptr() (*V, error) {
	if !h.Valid() {
		return nil, h.staleError()
	}
	_, pos := h.m.slots.get(h.id)
	return h.m.dense.at(pos), nil
}

// Erase removes the referenced value from its map. It is equivalent to
// calling EraseHandle on the owning map.
func (h Handle[I, V]) Erase() error {
	if h.m == nil {
		return h.staleError()
	}
	return h.m.EraseHandle(h)
}

// String implements fmt.Stringer.
func (h Handle[I, V]) String() string {
	return fmt.Sprintf("%d@%d", h.id, h.gen)
}

func (h Handle[I, V]) staleError() error {
	return fmt.Errorf("%w: id %d generation %d", ErrStaleHandle, h.id, h.gen)
}
