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

// minCapacity is the smallest value capacity allocated when the dense store
// first grows.
const minCapacity = 8

// denseStore holds the live values packed contiguously together with the id
// owning each position.
//
// owners is longer than values whenever ids have been freed. The tail
// owners[len(values):] holds every free id, in the order in which the ids
// will be handed out again. Every tracked id appears in owners exactly once.
type denseStore[I ID, V any] struct {
	allocator Allocator[V]
	values    []V
	owners    []I
}

func (d *denseStore[I, V]) len() int {
	return len(d.values)
}

// at returns a pointer to the value at position pos.
func (d *denseStore[I, V]) at(pos I) *V {
	return &d.values[pos]
}

// push appends value owned by id and returns its position. If id was
// recycled it must already occupy owners[len(values)].
func (d *denseStore[I, V]) push(value V, id I) int {
	pos := len(d.values)
	if pos == len(d.owners) {
		d.owners = append(d.owners, id)
	}
	d.grow(pos + 1)
	d.values = append(d.values, value)
	return pos
}

// swapRemove removes the value at pos by overwriting it with the last value
// and shrinking the store by one. If a value was moved into pos, the id
// owning it is returned with ok=true so the caller can fix up its slot. The
// removed id ends up at owners[len(values)], making it the next id reissued.
func (d *denseStore[I, V]) swapRemove(pos I) (moved I, ok bool) {
	last := len(d.values) - 1
	if int(pos) != last {
		d.values[pos] = d.values[last]
		d.owners[pos], d.owners[last] = d.owners[last], d.owners[pos]
		moved, ok = d.owners[pos], true
	}
	var zero V
	d.values[last] = zero
	d.values = d.values[:last]
	return moved, ok
}

// truncate removes every value. The owner order is retained so that ids are
// reissued in the order they were last laid out.
func (d *denseStore[I, V]) truncate() {
	clear(d.values)
	d.values = d.values[:0]
}

// grow ensures the values slice has capacity for at least n elements,
// reallocating through the allocator if necessary.
func (d *denseStore[I, V]) grow(n int) {
	if n <= cap(d.values) {
		return
	}
	newCap := max(n, 2*cap(d.values), minCapacity)
	values := d.allocator.Alloc(newCap)[:len(d.values)]
	copy(values, d.values)
	d.release()
	d.values = values
}

// reserve pre-sizes the value and owner storage for n elements.
func (d *denseStore[I, V]) reserve(n int) {
	d.grow(n)
	if n > len(d.owners) {
		d.owners = slices.Grow(d.owners, n-len(d.owners))
	}
}

// release hands the value storage back to the allocator.
func (d *denseStore[I, V]) release() {
	if cap(d.values) > 0 {
		d.allocator.Free(d.values[:cap(d.values)])
	}
	d.values = nil
}
