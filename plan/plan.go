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

// Package plan describes the read-only input the orchestrator hands to
// every table driver (§6.1): what to keep, how glyph ids are renumbered,
// and which flags alter emission.
package plan

import (
	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/intset"
)

// Flags is the subset-flags bitset (§6.1 "subset_flags").
type Flags uint32

const (
	// NoHinting strips hinting-only data (instructions, device/variation
	// adjustments that only matter for un-instanced bytecode execution).
	NoHinting Flags = 1 << iota
	// RetainGIDs keeps the original glyph numbering instead of packing a
	// dense 0-based range; not exercised by the representative table
	// drivers in this package, but plumbed through so a real orchestrator
	// can set it without widening Plan's shape later.
	RetainGIDs
)

// Has reports whether all bits of want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Plan is the read-only value supplied by the top-level orchestrator to
// every table driver (§6.1). It is never mutated by a driver except for
// NameIDs, which drivers append to as they discover retained references.
type Plan struct {
	// Glyphset is the set of retained source glyph ids.
	Glyphset intset.Set[glyph.ID]

	// GlyphMap maps a retained source glyph id to its new, dense id.
	// Glyph 0 (.notdef) always maps to 0.
	GlyphMap map[glyph.ID]glyph.ID

	// NewToOldGIDList is the inverse of GlyphMap, indexed by new glyph id;
	// needed for bitmap and other tables that rewrite data in new-gid
	// order but must look up the original glyph's bytes.
	NewToOldGIDList []glyph.ID

	// FontNumGlyphs is the original font's glyph count, used for bounds
	// clamping glyph ranges read from the source tables.
	FontNumGlyphs int

	// SubsetFlags carries NO_HINTING and friends.
	SubsetFlags Flags

	// NormalizedCoords is the instancing location, one F2Dot14-scaled
	// coordinate per axis. Non-empty means the subsetter is collapsing
	// variation data to this specific point, and variation-index fields
	// that would resolve to "no variation" become candidates for
	// collapse (§9 "Instancing mode").
	NormalizedCoords []int16

	// NameIDs is appended to by drivers as they discover retained name
	// table references (e.g. a feature's UI name, a bitmap strike's
	// name). The orchestrator reads it back after every driver has run.
	NameIDs intset.Set[uint16]
}

// New returns an empty Plan with its maps initialized, ready for an
// orchestrator to populate.
func New(fontNumGlyphs int) *Plan {
	return &Plan{
		Glyphset:        intset.New[glyph.ID](),
		GlyphMap:        make(map[glyph.ID]glyph.ID),
		FontNumGlyphs:   fontNumGlyphs,
		NewToOldGIDList: nil,
		NameIDs:         intset.New[uint16](),
	}
}

// Retains reports whether gid is in the retained glyph set.
func (p *Plan) Retains(gid glyph.ID) bool {
	_, ok := p.Glyphset[gid]
	return ok
}

// NewGID looks up gid's renumbered id.
func (p *Plan) NewGID(gid glyph.ID) (glyph.ID, bool) {
	ng, ok := p.GlyphMap[gid]
	return ng, ok
}

// Instancing reports whether the plan collapses variation data to a fixed
// axis location.
func (p *Plan) Instancing() bool {
	return len(p.NormalizedCoords) > 0
}

// AddNameID records that nameID is still referenced by a retained table.
func (p *Plan) AddNameID(nameID uint16) {
	p.NameIDs[nameID] = struct{}{}
}
