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

// Package coverage implements the subset-table protocol for OpenType
// "Coverage Tables".
package coverage

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

var errMalformed = fmt.Errorf("sfntsubset/coverage: malformed coverage table")

// Decode parses a source font's raw Coverage Table bytes (format 1 or 2)
// into a Table. Corrupt or truncated input returns errMalformed rather than
// panicking. Neither this package's Subset nor the top-level Subset calls
// it: both build from a caller's already-resolved glyph list.
func Decode(data []byte) (Table, error) {
	if len(data) < 4 {
		return nil, errMalformed
	}
	format := int(data[0])<<8 | int(data[1])
	table := make(Table)
	switch format {
	case 1:
		count := int(data[2])<<8 | int(data[3])
		if 4+2*count > len(data) {
			return nil, errMalformed
		}
		for i := 0; i < count; i++ {
			pos := 4 + 2*i
			gid := glyph.ID(uint16(data[pos])<<8 | uint16(data[pos+1]))
			table[gid] = i
		}
	case 2:
		rangeCount := int(data[2])<<8 | int(data[3])
		if 4+6*rangeCount > len(data) {
			return nil, errMalformed
		}
		for i := 0; i < rangeCount; i++ {
			pos := 4 + 6*i
			start := int(uint16(data[pos])<<8 | uint16(data[pos+1]))
			end := int(uint16(data[pos+2])<<8 | uint16(data[pos+3]))
			startIdx := int(uint16(data[pos+4])<<8 | uint16(data[pos+5]))
			if end < start {
				return nil, errMalformed
			}
			for gid := start; gid <= end; gid++ {
				table[glyph.ID(gid)] = startIdx + gid - start
			}
		}
	default:
		return nil, errMalformed
	}
	return table, nil
}

// Table maps each covered glyph ID to its Coverage Index. The map from
// glyph ID to Coverage Index is strictly monotonic: index 0 goes to the
// smallest glyph ID, and so on.
type Table map[glyph.ID]int

// FromGlyphs builds a Table assigning sequential coverage indices to gids
// in ascending glyph-ID order. Duplicate ids are collapsed.
func FromGlyphs(gids []glyph.ID) Table {
	uniq := maps.Keys(toSet(gids))
	slices.Sort(uniq)
	table := make(Table, len(uniq))
	for i, gid := range uniq {
		table[gid] = i
	}
	return table
}

func toSet(gids []glyph.ID) map[glyph.ID]struct{} {
	set := make(map[glyph.ID]struct{}, len(gids))
	for _, gid := range gids {
		set[gid] = struct{}{}
	}
	return set
}

// Contains reports whether gid is covered.
func (table Table) Contains(gid glyph.ID) bool {
	_, ok := table[gid]
	return ok
}

// Glyphs returns the covered glyphs in increasing order.
func (table Table) Glyphs() []glyph.ID {
	keys := maps.Keys(table)
	slices.Sort(keys)
	return keys
}

// sizes returns the sorted glyph list and the byte lengths format 1 and
// format 2 would need.
func (table Table) sizes() ([]glyph.ID, int, int) {
	rev := table.Glyphs()

	format1Length := 4 + 2*len(rev)

	rangeCount := 0
	prev := -2
	for _, gid := range rev {
		if int(gid) != prev+1 {
			rangeCount++
		}
		prev = int(gid)
	}
	format2Length := 4 + 6*rangeCount

	return rev, format1Length, format2Length
}

// Subset maps each of the source glyph ids in gids through plan's glyph
// map, builds the coverage table over the new ids, and emits it into s
// using whichever of format 1 or format 2 is smaller (§4.3 "CoverageTable":
// format 1 is chosen when num_glyphs <= 3*num_ranges, which is exactly the
// condition under which format 1's byte length does not exceed format 2's).
//
// If no input glyph survives subsetting, Subset returns serialize.ErrEmpty
// and the caller must drop the surrounding offset.
func Subset(p *plan.Plan, s *serialize.Serializer, gids []glyph.ID, share bool) (serialize.ObjIdx, error) {
	var newGIDs []glyph.ID
	for _, gid := range gids {
		if ng, ok := p.NewGID(gid); ok {
			newGIDs = append(newGIDs, ng)
		}
	}
	table := FromGlyphs(newGIDs)
	if len(table) == 0 {
		return 0, serialize.ErrEmpty
	}

	rev, format1Length, format2Length := table.sizes()

	if err := s.Push(); err != nil {
		return 0, err
	}

	if format1Length <= format2Length {
		if err := embedFormat1(s, rev); err != nil {
			return 0, err
		}
	} else {
		if err := embedFormat2(s, rev); err != nil {
			return 0, err
		}
	}

	idx, ok := s.PopPack(share)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

func embedFormat1(s *serialize.Serializer, rev []glyph.ID) error {
	if _, err := s.Embed(serialize.Uint16(1)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint16(len(rev))); err != nil {
		return err
	}
	for _, gid := range rev {
		if _, err := s.Embed(serialize.Uint16(gid)); err != nil {
			return err
		}
	}
	return nil
}

func embedFormat2(s *serialize.Serializer, rev []glyph.ID) error {
	type rangeRec struct{ start, end, startIdx int }
	var ranges []rangeRec
	prev := -2
	for i, gid := range rev {
		if int(gid) != prev+1 {
			ranges = append(ranges, rangeRec{start: int(gid), end: int(gid), startIdx: i})
		} else {
			ranges[len(ranges)-1].end = int(gid)
		}
		prev = int(gid)
	}

	if _, err := s.Embed(serialize.Uint16(2)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint16(len(ranges))); err != nil {
		return err
	}
	for _, r := range ranges {
		if _, err := s.Embed(serialize.Uint16(r.start)); err != nil {
			return err
		}
		if _, err := s.Embed(serialize.Uint16(r.end)); err != nil {
			return err
		}
		if _, err := s.Embed(serialize.Uint16(r.startIdx)); err != nil {
			return err
		}
	}
	return nil
}
