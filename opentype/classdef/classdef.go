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

// Package classdef implements the subset-table protocol for OpenType
// "Class Definition Tables".
package classdef

import (
	"fmt"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

var errMalformed = fmt.Errorf("sfntsubset/classdef: malformed class definition table")

// Decode parses a source font's raw Class Definition Table bytes (format 1
// or 2) into an Info. Class 0 is never stored explicitly, matching the
// convention Info documents. Corrupt or truncated input returns
// errMalformed rather than panicking.
func Decode(data []byte) (Info, error) {
	if len(data) < 4 {
		return nil, errMalformed
	}
	format := int(data[0])<<8 | int(data[1])
	info := make(Info)
	switch format {
	case 1:
		startGID := glyph.ID(uint16(data[2])<<8 | uint16(data[3]))
		if len(data) < 6 {
			return nil, errMalformed
		}
		count := int(data[4])<<8 | int(data[5])
		if 6+2*count > len(data) {
			return nil, errMalformed
		}
		for i := 0; i < count; i++ {
			pos := 6 + 2*i
			class := uint16(data[pos])<<8 | uint16(data[pos+1])
			if class != 0 {
				info[startGID+glyph.ID(i)] = class
			}
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
			class := uint16(data[pos+4])<<8 | uint16(data[pos+5])
			if end < start {
				return nil, errMalformed
			}
			if class != 0 {
				for gid := start; gid <= end; gid++ {
					info[glyph.ID(gid)] = class
				}
			}
		}
	default:
		return nil, errMalformed
	}
	return info, nil
}

// Info maps a (new) glyph ID to its (new) class. Glyphs with class 0 are
// never stored explicitly: absence from the map means class 0, exactly as
// the OpenType ClassDef formats treat any glyph outside their covered
// range.
type Info map[glyph.ID]uint16

// Args is the per-call input to Subset.
type Args struct {
	// SourceClasses maps a source glyph ID with nonzero class to that
	// class. Source glyphs not present here are class 0.
	SourceClasses map[glyph.ID]uint16
	// GlyphFilter restricts subsetting to these source glyph ids (the
	// coverage the enclosing lookup already retained).
	GlyphFilter map[glyph.ID]struct{}
	// RemapClass requests that class ids be compacted to a dense,
	// 0-based range (§4.3 "ClassDef").
	RemapClass bool
	// UseClassZero, when true and the retained glyphs cover the full new
	// glyph set, keeps the implicit class-0 meaning; otherwise class 0 is
	// remapped explicitly like any other class.
	UseClassZero bool
}

// Subset builds the post-subset class-definition Info, remaps class ids if
// requested, and emits the table into s. It returns the old-class to
// new-class remap (Output, per §4.3) together with the packed index.
func Subset(p *plan.Plan, s *serialize.Serializer, args Args) (map[uint16]uint16, serialize.ObjIdx, error) {
	info := make(Info)
	for gid, class := range args.SourceClasses {
		if class == 0 {
			continue
		}
		if _, ok := args.GlyphFilter[gid]; !ok {
			continue
		}
		newGID, ok := p.NewGID(gid)
		if !ok {
			continue
		}
		info[newGID] = class
	}

	remap := map[uint16]uint16{}
	if args.RemapClass {
		useImplicitZero := args.UseClassZero && coversFullGlyphSet(p, args.GlyphFilter)

		distinct := uniqueValues(info)
		slices.Sort(distinct)
		for i, class := range distinct {
			remap[class] = uint16(i)
		}
		for gid, class := range info {
			newClass := remap[class]
			if newClass == 0 && useImplicitZero {
				delete(info, gid)
			} else {
				info[gid] = newClass
			}
		}
	}

	if len(info) == 0 {
		return remap, 0, serialize.ErrEmpty
	}

	minGID, maxGID := boundsOf(info)
	format1Size := 6 + 2*(int(maxGID)-int(minGID)+1)
	format2Size, segments := format2Layout(info, minGID, maxGID)

	if err := s.Push(); err != nil {
		return remap, 0, err
	}

	var embedErr error
	if format1Size <= format2Size {
		embedErr = embedFormat1(s, info, minGID, maxGID)
	} else {
		embedErr = embedFormat2(s, segments)
	}
	if embedErr != nil {
		return remap, 0, embedErr
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return remap, 0, serialize.ErrEmpty
	}
	return remap, idx, nil
}

// coversFullGlyphSet reports whether filter, mapped through p's glyph
// renumbering, reaches every glyph the plan has assigned a new id to. This
// is the "retained glyphs cover the full new glyph set" condition Args
// documents for UseClassZero.
func coversFullGlyphSet(p *plan.Plan, filter map[glyph.ID]struct{}) bool {
	count := 0
	for gid := range filter {
		if _, ok := p.GlyphMap[gid]; ok {
			count++
		}
	}
	return count == len(p.GlyphMap)
}

func uniqueValues(info Info) []uint16 {
	seen := make(map[uint16]struct{})
	var out []uint16
	for _, v := range info {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func boundsOf(info Info) (min, max glyph.ID) {
	min = glyph.ID(0xFFFF)
	for gid := range info {
		if gid < min {
			min = gid
		}
		if gid > max {
			max = gid
		}
	}
	return min, max
}

type segment struct {
	start, end glyph.ID
	class      uint16
}

func format2Layout(info Info, minGID, maxGID glyph.ID) (int, []segment) {
	var segments []segment
	segStart := glyph.ID(0)
	haveSeg := false
	var segClass uint16
	for gid := minGID; ; gid++ {
		class := info[gid]
		if haveSeg && (class != segClass || gid > maxGID) {
			segments = append(segments, segment{start: segStart, end: gid - 1, class: segClass})
			haveSeg = false
		}
		if gid > maxGID {
			break
		}
		if !haveSeg && class != 0 {
			segStart = gid
			segClass = class
			haveSeg = true
		}
	}
	return 4 + 6*len(segments), segments
}

func embedFormat1(s *serialize.Serializer, info Info, minGID, maxGID glyph.ID) error {
	if _, err := s.Embed(serialize.Uint16(1)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint16(minGID)); err != nil {
		return err
	}
	count := int(maxGID) - int(minGID) + 1
	if _, err := s.Embed(serialize.Uint16(count)); err != nil {
		return err
	}
	for gid := minGID; gid <= maxGID; gid++ {
		if _, err := s.Embed(serialize.Uint16(info[gid])); err != nil {
			return err
		}
	}
	return nil
}

func embedFormat2(s *serialize.Serializer, segments []segment) error {
	if _, err := s.Embed(serialize.Uint16(2)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint16(len(segments))); err != nil {
		return err
	}
	for _, seg := range segments {
		if _, err := s.Embed(serialize.Uint16(seg.start)); err != nil {
			return err
		}
		if _, err := s.Embed(serialize.Uint16(seg.end)); err != nil {
			return err
		}
		if _, err := s.Embed(serialize.Uint16(seg.class)); err != nil {
			return err
		}
	}
	return nil
}
