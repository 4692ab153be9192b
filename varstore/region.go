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

// Package varstore builds and optimizes an OpenType ItemVariationStore: it
// ingests (region, delta) tuples from many table drivers, groups them by
// row shape, greedily merges encodings to minimize encoded size, and emits
// final ItemVariationData subtables plus a temp-id to (outer, inner)
// variation-index remap.
package varstore

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// AxisCoord is one axis's (start, peak, end) contribution to a region, in
// F2Dot14 units exactly as the OpenType VariationRegion record stores them.
type AxisCoord struct {
	Start, Peak, End int16
}

// Region is a font-wide variation region: one AxisCoord per design axis, in
// axis order. Two regions with the same coordinates in the same axis order
// are the same region (§4.5 "Region indices are dense and stable").
type Region []AxisCoord

func (r Region) key() string {
	var b strings.Builder
	for _, c := range r {
		fmt.Fprintf(&b, "%d,%d,%d;", c.Start, c.Peak, c.End)
	}
	return b.String()
}

// RegionSet canonicalizes Regions to dense, stable, zero-based permanent
// indices, in first-seen order (§4.5).
type RegionSet struct {
	regions []Region
	index   map[string]int
}

// NewRegionSet returns an empty region set.
func NewRegionSet() *RegionSet {
	return &RegionSet{index: make(map[string]int)}
}

// Canonicalize returns r's permanent region index, assigning a new one the
// first time a given region is seen.
func (rs *RegionSet) Canonicalize(r Region) int {
	k := r.key()
	if idx, ok := rs.index[k]; ok {
		return idx
	}
	idx := len(rs.regions)
	rs.regions = append(rs.regions, r)
	rs.index[k] = idx
	return idx
}

// Regions returns the permanent region list in index order.
func (rs *RegionSet) Regions() []Region {
	return rs.regions
}

// Len returns the number of distinct regions seen so far.
func (rs *RegionSet) Len() int {
	return len(rs.regions)
}

// RegionDelta is one sparse (region, delta) contribution to a delta set, as
// supplied by a table driver before canonicalization.
type RegionDelta struct {
	Region Region
	Delta  int32
}

// regionDeltaIdx is a canonicalized, dense-region-index contribution.
type regionDeltaIdx struct {
	region int
	delta  int32
}

func sortAndDedupeZero(in []regionDeltaIdx) []regionDeltaIdx {
	out := make([]regionDeltaIdx, 0, len(in))
	for _, rd := range in {
		if rd.delta != 0 {
			out = append(out, rd)
		}
	}
	slices.SortFunc(out, func(a, b regionDeltaIdx) int { return a.region - b.region })
	return out
}

// rowKey is the canonical dedup key for a delta set: its sorted,
// zero-stripped (region, delta) list. Two delta sets with the same non-zero
// contributions, regardless of original insertion order, collapse to the
// same temp id (§4.5 "Identical delta sets always return the same id").
func rowKey(row []regionDeltaIdx) string {
	var b strings.Builder
	for _, rd := range row {
		fmt.Fprintf(&b, "%d:%d;", rd.region, rd.delta)
	}
	return b.String()
}
