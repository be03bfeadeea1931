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

import "errors"

var (
	// ErrStaleID is returned when an id was issued by the map but its value
	// has since been erased or cleared.
	ErrStaleID = errors.New("slotmap: stale id")

	// ErrStaleHandle is returned when a handle's generation no longer
	// matches the generation of its slot, or when the handle was created by
	// a different map.
	ErrStaleHandle = errors.New("slotmap: stale handle")

	// ErrOutOfRange is returned for an id that was never issued by the map.
	ErrOutOfRange = errors.New("slotmap: id out of range")

	// ErrIDSpaceExhausted is returned by Insert when every representable id
	// is live.
	ErrIDSpaceExhausted = errors.New("slotmap: id space exhausted")
)
