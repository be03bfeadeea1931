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

// option provide an interface to do work on a Map while it is being created.
type option[V any] interface {
	apply(c *config[V])
}

// config collects the options applied by New.
type config[V any] struct {
	allocator Allocator[V]
}

// Allocator specifies an interface for allocating and releasing the memory
// backing the values of a Map. The default allocator utilizes Go's builtin
// make() and allows the GC to reclaim memory.
//
// Only the value storage is routed through the Allocator. The id bookkeeping
// is small and always lives on the Go heap.
//
// If the allocator is manually managing memory and requires that values be
// freed then Map.Close must be called in order to ensure Free is called.
type Allocator[V any] interface {
	// Alloc should return a slice equivalent to make([]V, n).
	Alloc(n int) []V

	// Free can optionally release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by Alloc.
	Free(v []V)
}

type defaultAllocator[V any] struct{}

func (defaultAllocator[V]) Alloc(n int) []V {
	return make([]V, n)
}

func (defaultAllocator[V]) Free(v []V) {
}

type allocatorOption[V any] struct {
	allocator Allocator[V]
}

func (op allocatorOption[V]) apply(c *config[V]) {
	c.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for the values
// of a Map[I,V].
func WithAllocator[V any](allocator Allocator[V]) option[V] {
	return allocatorOption[V]{allocator}
}
