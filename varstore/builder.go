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

import "seehuhn.de/go/sfntsubset/serialize"

// VariationIndex is the final (outer, inner) pair a temp id resolves to,
// packed exactly as the OpenType DeltaSetIndexMap / variation-index field
// does: outer in the high 16 bits, inner in the low 16 bits.
type VariationIndex struct {
	Outer, Inner uint16
}

// Packed returns the 32-bit on-the-wire encoding of v.
func (v VariationIndex) Packed() uint32 {
	return uint32(v.Outer)<<16 | uint32(v.Inner)
}

// TempToFinalMap resolves a Builder's temp ids to their final variation
// index after Build.
type TempToFinalMap map[uint32]VariationIndex

// Builder accumulates (region, delta) tuples from many table drivers,
// assigning each distinct delta set a stable temporary id, per §4.5.
//
// IVS-builder errors are impossible by construction (§4.7): every input is
// accepted, so AddDeltas has no error return; Build returns only the
// serializer's errors.
type Builder struct {
	regions *RegionSet
	rows    [][]regionDeltaIdx
	dedup   map[string]uint32
}

// NewBuilder returns an empty IVS builder.
func NewBuilder() *Builder {
	return &Builder{
		regions: NewRegionSet(),
		dedup:   make(map[string]uint32),
	}
}

// AddDeltas canonicalizes pairs' regions, sorts by region index, drops
// explicit zero deltas, deduplicates against every delta set seen so far,
// and returns a temp id stable for the life of the Builder.
//
// An all-zero delta set collapses to the empty list and deduplicates with
// every other all-zero set (§4.5).
func (b *Builder) AddDeltas(pairs []RegionDelta) uint32 {
	row := make([]regionDeltaIdx, len(pairs))
	for i, p := range pairs {
		row[i] = regionDeltaIdx{region: b.regions.Canonicalize(p.Region), delta: p.Delta}
	}
	row = sortAndDedupeZero(row)

	key := rowKey(row)
	if id, ok := b.dedup[key]; ok {
		return id
	}
	id := uint32(len(b.rows))
	b.rows = append(b.rows, row)
	b.dedup[key] = id
	return id
}

// NumRegions returns the number of distinct regions canonicalized so far.
func (b *Builder) NumRegions() int {
	return b.regions.Len()
}

// NumDeltaSets returns the number of distinct delta sets accepted so far.
func (b *Builder) NumDeltaSets() int {
	return len(b.rows)
}

// Build consumes the builder: it runs the shape grouping and greedy
// optimizer (§4.6), emits the region list and one ItemVariationData
// subtable per surviving encoding into s, and returns the packed object
// index of the finished ItemVariationStore along with the temp-id to
// (outer, inner) remap.
func (b *Builder) Build(s *serialize.Serializer) (serialize.ObjIdx, TempToFinalMap, error) {
	numRegions := b.regions.Len()
	encodings := groupByShape(b.rows, numRegions)
	final := optimize(encodings)
	chunks := chunkEncodings(final)

	remap := make(TempToFinalMap)
	subtables := make([]serialize.ObjIdx, len(chunks))
	for outer, enc := range chunks {
		idx, err := emitItemVariationData(s, enc, numRegions)
		if err != nil {
			return 0, nil, err
		}
		subtables[outer] = idx
		for inner, row := range enc.rows {
			remap[row.tempID] = VariationIndex{Outer: uint16(outer), Inner: uint16(inner)}
		}
	}

	storeIdx, err := emitItemVariationStore(s, b.regions, subtables)
	if err != nil {
		return 0, nil, err
	}
	return storeIdx, remap, nil
}
