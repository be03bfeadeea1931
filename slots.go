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

import "slices"

// ID is the set of types usable as slot map ids. Ids are dense, non-negative
// integers. The maximum value of an ID type is never issued.
type ID interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// maxID returns the largest value representable by I. It is reserved and
// never handed out.
func maxID[I ID]() I {
	return ^I(0)
}

// slot is the per-id bookkeeping. pos is only meaningful while the id is
// live, i.e. while pos < len(denseStore.values).
type slot[I ID] struct {
	gen uint32
	pos I
}

// slotTable is indexed by id. It only ever grows: entries are recycled,
// never removed.
type slotTable[I ID] struct {
	slots []slot[I]
}

func (t *slotTable[I]) len() int {
	return len(t.slots)
}

// isTracked returns true if id has been issued at some point.
func (t *slotTable[I]) isTracked(id I) bool {
	return uint64(id) < uint64(len(t.slots))
}

// grow appends a fresh slot and returns its id. The new slot's position is
// the id itself, which is where the dense store will place its value.
func (t *slotTable[I]) grow() I {
	id := I(len(t.slots))
	t.slots = append(t.slots, slot[I]{pos: id})
	return id
}

func (t *slotTable[I]) get(id I) (gen uint32, pos I) {
	s := &t.slots[id]
	return s.gen, s.pos
}

func (t *slotTable[I]) setPosition(id I, pos I) {
	t.slots[id].pos = pos
}

// bumpGeneration invalidates every handle currently referring to id. The
// counter wraps.
func (t *slotTable[I]) bumpGeneration(id I) {
	t.slots[id].gen++
}

// bumpAll bumps the generation of every tracked slot.
func (t *slotTable[I]) bumpAll() {
	for i := range t.slots {
		t.slots[i].gen++
	}
}

func (t *slotTable[I]) reserve(n int) {
	if n > len(t.slots) {
		t.slots = slices.Grow(t.slots, n-len(t.slots))
	}
}
