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

package varstore

import "seehuhn.de/go/sfntsubset/intset"

// Collector accumulates the set of (outer<<16 | inner) variation indices
// still referenced by retained tables, before the store is rebuilt (§4.4).
// Tables not carrying variation data simply never call Add.
type Collector struct {
	seen intset.Set[uint32]
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: intset.New[uint32]()}
}

// Add records one referenced variation index, packed as outer<<16|inner.
func (c *Collector) Add(outer, inner uint16) {
	c.seen.Insert(uint32(outer)<<16 | uint32(inner))
}

// Contains reports whether the given packed index was ever added.
func (c *Collector) Contains(outer, inner uint16) bool {
	return c.seen.Contains(uint32(outer)<<16 | uint32(inner))
}

// Len returns the number of distinct variation indices collected.
func (c *Collector) Len() int {
	return c.seen.Len()
}
