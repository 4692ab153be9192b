// seehuhn.de/go/sfntsubset - an OpenType font subsetter and serializer
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package intset implements a small growable set of integers.
//
// The subsetter needs exactly this shape in three places: the plan's
// retained glyph-id set, the variation-index collector's retained
// (outer<<16|inner) set, and the plan's retained name-id set.  Rather than
// writing the same map[T]struct{} wrapper three times, this package
// provides one generic implementation.
package intset

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set is a growable, unordered set of integers.
type Set[T constraints.Integer] map[T]struct{}

// New returns an empty set, optionally pre-populated with the given values.
func New[T constraints.Integer](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Insert adds v to the set.
func (s Set[T]) Insert(v T) {
	s[v] = struct{}{}
}

// InsertRange adds every value in [lo, hi] (inclusive) to the set.
func (s Set[T]) InsertRange(lo, hi T) {
	for v := lo; v <= hi; v++ {
		s[v] = struct{}{}
		if v == hi {
			break // avoid wrapping past the integer's max value
		}
	}
}

// Contains reports whether v is a member of the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// Sorted returns the set's elements in increasing order.
func (s Set[T]) Sorted() []T {
	vals := maps.Keys(s)
	slices.Sort(vals)
	return vals
}
