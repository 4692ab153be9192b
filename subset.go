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

package sfntsubset

import (
	"fmt"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/opentype/cblc"
	"seehuhn.de/go/sfntsubset/opentype/classdef"
	"seehuhn.de/go/sfntsubset/opentype/coverage"
	"seehuhn.de/go/sfntsubset/opentype/layout"
	"seehuhn.de/go/sfntsubset/opentype/name"
	"seehuhn.de/go/sfntsubset/opentype/pairpos"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
	"seehuhn.de/go/sfntsubset/varstore"
)

// variationIndexDeltaFormat is the VariationIndex table's fixed deltaFormat
// field: the sentinel that tells a layout engine a Device/VariationIndex
// union offset points at a VariationIndex table rather than a Device table.
const variationIndexDeltaFormat = 0x8000

var errUncollectedPlaceholder = fmt.Errorf("sfntsubset: variation-index placeholder not recorded by collector before rewrite")

// emitVariationIndexTable builds a standalone VariationIndex table (§4.6):
// a NO_VARIATION_INDEX placeholder for the (outer, inner) pair, followed by
// the fixed deltaFormat sentinel. The placeholder is overwritten once the
// variation store's temp-id remap is known.
func emitVariationIndexTable(s *serialize.Serializer, tempID uint32) (serialize.ObjIdx, layout.PendingVariationIndex, error) {
	if err := s.Push(); err != nil {
		return 0, layout.PendingVariationIndex{}, err
	}
	pending, err := layout.EmbedVariationIndexPlaceholder(s, tempID)
	if err != nil {
		return 0, layout.PendingVariationIndex{}, err
	}
	if _, err := s.Embed(serialize.Uint16(variationIndexDeltaFormat)); err != nil {
		return 0, layout.PendingVariationIndex{}, err
	}
	idx, ok := s.PopPack(false)
	if !ok {
		return 0, layout.PendingVariationIndex{}, serialize.ErrEmpty
	}
	return idx, pending, nil
}

// defaultCapacity is used when Request.Capacity is zero. It is generous
// for the handful of tables Subset drives; a caller subsetting a large
// font directly should set Request.Capacity explicitly.
const defaultCapacity = 1 << 20

// Request is the input to Subset. It is intentionally data-only: Subset
// does not compute feature/script/lookup closure or glyph-set expansion,
// it just renumbers and re-emits exactly the glyphs, pairs, classes, and
// name records it is given.
type Request struct {
	// Font supplies the source font's raw name-table bytes. It may be
	// nil if NameRecords is set directly instead.
	Font SourceFont

	// FontNumGlyphs is the source font's total glyph count.
	FontNumGlyphs int

	// Glyphs is the set of retained source glyph ids. Glyph 0 (.notdef)
	// is always retained even if not listed here.
	Glyphs []glyph.ID

	// Flags carries NO_HINTING and friends through to every driver.
	Flags plan.Flags

	// NameIDs is the set of name ids an orchestrator-level caller wants
	// kept regardless of what table drivers discover on their own (e.g.
	// the family/subfamily/full names every font needs).
	NameIDs []uint16

	// NameRecords is the source font's already-decoded name table. If
	// nil and Font is non-nil, Subset decodes Font's "name" table itself.
	NameRecords []name.Record

	// PairPosFirstGlyphs/PairSets describe one format-1 PairPos lookup:
	// the source glyph covered as the first glyph of a pair, and, in the
	// same order, the retained second-glyph pairings for that glyph.
	// Both nil skips PairPos subsetting.
	PairPosFirstGlyphs []glyph.ID
	PairSets           [][]pairpos.PairValue
	NoHintingPairPos   bool

	// PairPosXAdvanceVariation, when non-nil, is parallel to PairSets: each
	// entry is either -1 (no variation adjustment) or an index into
	// VariationDeltas, requesting a VariationIndex table on that pair's
	// first value record XAdvDevice field. The referenced delta set's final
	// (outer, inner) pair is not known until the variation store has been
	// built, so Subset wires it through the §4.4/§4.6 collect-placeholder,
	// build, rewrite pipeline instead of resolving it up front.
	PairPosXAdvanceVariation [][]int

	// ClassDef, if non-nil, is subset into a standalone ClassDef table.
	ClassDef *classdef.Args

	// Bitmaps, if non-empty, is subset into CBLC/CBDT.
	Bitmaps cblc.Args

	// VariationDeltas, if non-empty, is built into a standalone
	// ItemVariationStore: one entry per temp delta-set id the caller
	// wants allocated, in order.
	VariationDeltas [][]varstore.RegionDelta

	// Capacity overrides the serializer's fixed byte-buffer capacity.
	Capacity int
}

// Result collects everything Subset emitted. Every ObjIdx field is 0 (the
// serializer's sentinel) when the corresponding Request field was unset or
// subsetting dropped the table entirely (serialize.ErrEmpty).
type Result struct {
	Coverage serialize.ObjIdx
	PairPos  serialize.ObjIdx

	ClassDef   serialize.ObjIdx
	ClassRemap map[uint16]uint16

	CBLC serialize.ObjIdx
	CBDT []byte

	Name serialize.ObjIdx

	VariationStore serialize.ObjIdx
	VariationRemap varstore.TempToFinalMap

	// Bytes is the fully packed, offset-resolved byte stream containing
	// every table above. Individual table offsets within it are not
	// reported separately: a real font writer would place each table at
	// its own table-directory entry instead of sharing one buffer, which
	// is exactly the font-I/O responsibility this package leaves to its
	// caller.
	Bytes []byte
}

// Subset renumbers Request.Glyphs to a dense range, then drives whichever
// of coverage, classdef, pairpos, cblc, name, and the variation store the
// request populates, sharing one serializer so cross-table links would
// resolve correctly if a fuller orchestrator wired them together. It does
// not perform feature/script/lookup closure, variation-space instancing,
// or font I/O; see the package doc comment.
func Subset(req Request) (*Result, error) {
	p := buildPlan(req)

	capacity := req.Capacity
	if capacity == 0 {
		capacity = defaultCapacity
	}
	s := serialize.New(capacity)

	res := &Result{}

	// A variation-delta-set's final (outer, inner) pair is not known until
	// the store has been built below, so any table that wants one gets a
	// placeholder object now and is patched in place once the build
	// finishes (§4.4 "Collector" / §4.6 "Second pass over drivers").
	var varBuilder *varstore.Builder
	var varTempIDs []uint32
	var varCollector *varstore.Collector
	var varPlaceholders []varstore.Placeholder
	if len(req.VariationDeltas) > 0 {
		varBuilder = varstore.NewBuilder()
		varTempIDs = make([]uint32, len(req.VariationDeltas))
		for i, deltas := range req.VariationDeltas {
			varTempIDs[i] = varBuilder.AddDeltas(deltas)
		}
		varCollector = varstore.NewCollector()
		for i, refs := range req.PairPosXAdvanceVariation {
			for j, ref := range refs {
				if ref < 0 {
					continue
				}
				tempID := varTempIDs[ref]
				idx, pending, err := emitVariationIndexTable(s, tempID)
				if err != nil {
					return nil, &SubsetError{Tag: Tag{'G', 'P', 'O', 'S'}, Err: err}
				}
				req.PairSets[i][j].Value1.XAdvDevice = &idx
				varPlaceholders = append(varPlaceholders, layout.Attach(idx, []layout.PendingVariationIndex{pending})...)
				varCollector.Add(uint16(tempID>>16), uint16(tempID))
			}
		}
	}

	if len(req.PairPosFirstGlyphs) > 0 {
		covIdx, err := coverage.Subset(p, s, req.PairPosFirstGlyphs, false)
		if err != nil && err != serialize.ErrEmpty {
			return nil, &SubsetError{Tag: Tag{'G', 'P', 'O', 'S'}, Err: err}
		}
		if err == nil {
			res.Coverage = covIdx
			ppIdx, err := pairpos.SubsetFormat1(s, pairpos.Format1Args{
				Coverage:  covIdx,
				PairSets:  req.PairSets,
				NoHinting: req.NoHintingPairPos || p.SubsetFlags.Has(plan.NoHinting),
			})
			if err != nil && err != serialize.ErrEmpty {
				return nil, &SubsetError{Tag: Tag{'G', 'P', 'O', 'S'}, Err: err}
			}
			if err == nil {
				res.PairPos = ppIdx
			}
		}
	}

	if req.ClassDef != nil {
		remap, idx, err := classdef.Subset(p, s, *req.ClassDef)
		if err != nil && err != serialize.ErrEmpty {
			return nil, &SubsetError{Tag: Tag{'G', 'D', 'E', 'F'}, Err: err}
		}
		if err == nil {
			res.ClassDef = idx
			res.ClassRemap = remap
		}
	}

	if len(req.Bitmaps.Sizes) > 0 {
		cres, err := cblc.Subset(p, s, req.Bitmaps)
		if err != nil && err != serialize.ErrEmpty {
			return nil, &SubsetError{Tag: Tag{'C', 'B', 'L', 'C'}, Err: err}
		}
		if err == nil {
			res.CBLC = cres.CBLC
			res.CBDT = cres.CBDT
		}
	}

	if len(req.VariationDeltas) > 0 {
		idx, remap, err := varBuilder.Build(s)
		if err != nil && err != serialize.ErrEmpty {
			return nil, &SubsetError{Tag: Tag{'i', 'v', 's', ' '}, Err: err}
		}
		if err == nil {
			res.VariationStore = idx
			res.VariationRemap = remap

			for _, ph := range varPlaceholders {
				if !varCollector.Contains(uint16(ph.TempID>>16), uint16(ph.TempID)) {
					return nil, &SubsetError{Tag: Tag{'i', 'v', 's', ' '}, Err: errUncollectedPlaceholder}
				}
			}
			if err := varstore.RewritePlaceholders(s, varPlaceholders, remap); err != nil {
				return nil, &SubsetError{Tag: Tag{'i', 'v', 's', ' '}, Err: err}
			}
		}
	}

	records := req.NameRecords
	if records == nil && req.Font != nil {
		if data, ok := req.Font.TableData(NameTag); ok {
			decoded, err := name.Decode(data)
			if err != nil {
				return nil, &SubsetError{Tag: NameTag, Err: err}
			}
			records = decoded
		}
	}
	for _, id := range req.NameIDs {
		p.NameIDs[id] = struct{}{}
	}
	if len(records) > 0 {
		idx, err := name.Subset(p, s, records)
		if err != nil && err != serialize.ErrEmpty {
			return nil, &SubsetError{Tag: NameTag, Err: err}
		}
		if err == nil {
			res.Name = idx
		}
	}

	out, err := s.CopyBytes()
	if err != nil {
		return nil, err
	}
	res.Bytes = out
	return res, nil
}

// buildPlan renumbers req.Glyphs to a dense, ascending 0-based range with
// .notdef (glyph 0) pinned to id 0, the renumbering every table driver in
// this module expects (§6.1 "GlyphMap").
func buildPlan(req Request) *plan.Plan {
	p := plan.New(req.FontNumGlyphs)
	p.SubsetFlags = req.Flags

	seen := map[glyph.ID]struct{}{0: {}}
	kept := []glyph.ID{0}
	for _, g := range req.Glyphs {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		kept = append(kept, g)
	}
	slices.Sort(kept)

	p.NewToOldGIDList = make([]glyph.ID, len(kept))
	for newID, oldID := range kept {
		p.Glyphset[oldID] = struct{}{}
		p.GlyphMap[oldID] = glyph.ID(newID)
		p.NewToOldGIDList[newID] = oldID
	}
	return p
}
