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

package pairpos

import "seehuhn.de/go/sfntsubset/serialize"

// PairValue is one retained second-glyph pairing inside a format 1
// PairSet, keyed externally by its second glyph id.
type PairValue struct {
	SecondGlyph    uint16
	Value1, Value2 ValueRecord
}

// Format1Args is the per-call input for a format 1 PairPos subtable. The
// driver has already subset the first-glyph coverage and, for each
// retained first glyph, the list of retained pairs (in ascending second-
// glyph order).
type Format1Args struct {
	Coverage  serialize.ObjIdx
	PairSets  [][]PairValue // one slice per covered first glyph, same order as Coverage
	NoHinting bool
}

// SubsetFormat1 emits a PairPos format 1 subtable. Pairs whose value
// records both collapse to the empty effective format are dropped from
// their PairSet (§4.3 "any pair whose effective value record is empty is
// dropped"); a PairSet left with zero pairs still emits an (empty) PairSet
// subtable, since format 1's coverage and pair-set list lengths must stay
// in lockstep.
func SubsetFormat1(s *serialize.Serializer, args Format1Args) (serialize.ObjIdx, error) {
	var all1, all2 []ValueRecord
	for _, pairs := range args.PairSets {
		for _, pv := range pairs {
			all1 = append(all1, pv.Value1)
			all2 = append(all2, pv.Value2)
		}
	}
	format1 := effectiveFormat(all1, args.NoHinting)
	format2 := effectiveFormat(all2, args.NoHinting)

	pairSetIdx := make([]serialize.ObjIdx, len(args.PairSets))
	for i, pairs := range args.PairSets {
		idx, err := emitPairSet(s, pairs, format1, format2)
		if err != nil {
			return 0, err
		}
		pairSetIdx[i] = idx
	}

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(1)); err != nil {
		return 0, err
	}
	covPos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return 0, err
	}
	s.AddLink(covPos, 2, args.Coverage, serialize.Head, 0, false)
	if _, err := s.Embed(serialize.Uint16(format1)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(format2)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(len(pairSetIdx))); err != nil {
		return 0, err
	}
	for _, idx := range pairSetIdx {
		pos, err := s.Embed(serialize.Uint16(0))
		if err != nil {
			return 0, err
		}
		s.AddLink(pos, 2, idx, serialize.Head, 0, false)
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

func emitPairSet(s *serialize.Serializer, pairs []PairValue, format1, format2 ValueFormat) (serialize.ObjIdx, error) {
	var retained []PairValue
	for _, pv := range pairs {
		r1 := maskRecord(pv.Value1, format1)
		r2 := maskRecord(pv.Value2, format2)
		if r1.format()&format1 == 0 && r2.format()&format2 == 0 {
			continue
		}
		retained = append(retained, PairValue{SecondGlyph: pv.SecondGlyph, Value1: r1, Value2: r2})
	}

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(len(retained))); err != nil {
		return 0, err
	}
	for _, pv := range retained {
		if _, err := s.Embed(serialize.Uint16(pv.SecondGlyph)); err != nil {
			return 0, err
		}
		if err := embedValueRecord(s, pv.Value1, format1); err != nil {
			return 0, err
		}
		if err := embedValueRecord(s, pv.Value2, format2); err != nil {
			return 0, err
		}
	}
	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

// maskRecord clears every field of v whose bit is not in format, so a
// stripped device/variation field never leaks bytes into a record whose
// shared ValueFormat no longer claims it.
func maskRecord(v ValueRecord, format ValueFormat) ValueRecord {
	if format&XPlacement == 0 {
		v.XPlacement = 0
	}
	if format&YPlacement == 0 {
		v.YPlacement = 0
	}
	if format&XAdvance == 0 {
		v.XAdvance = 0
	}
	if format&YAdvance == 0 {
		v.YAdvance = 0
	}
	if format&XPlaDevice == 0 {
		v.XPlaDevice = nil
	}
	if format&YPlaDevice == 0 {
		v.YPlaDevice = nil
	}
	if format&XAdvDevice == 0 {
		v.XAdvDevice = nil
	}
	if format&YAdvDevice == 0 {
		v.YAdvDevice = nil
	}
	return v
}

// Format2Args is the per-call input for a format 2 PairPos subtable: a
// dense class1 x class2 grid of value-record pairs, already filtered to
// the retained classes by the classdef subset step.
type Format2Args struct {
	Coverage  serialize.ObjIdx
	ClassDef1 serialize.ObjIdx
	ClassDef2 serialize.ObjIdx
	Matrix    [][]PairValue // Matrix[class1][class2]
	NoHinting bool
}

// SubsetFormat2 emits a PairPos format 2 subtable (§4.3 "PairPos format 1
// / 2" / concrete scenario 3): the two ValueFormat masks are recomputed
// from what the retained grid actually uses, with NO_HINTING stripping
// device/variation bits regardless of whether any cell still references
// one.
func SubsetFormat2(s *serialize.Serializer, args Format2Args) (serialize.ObjIdx, error) {
	var all1, all2 []ValueRecord
	for _, row := range args.Matrix {
		for _, cell := range row {
			all1 = append(all1, cell.Value1)
			all2 = append(all2, cell.Value2)
		}
	}
	format1 := effectiveFormat(all1, args.NoHinting)
	format2 := effectiveFormat(all2, args.NoHinting)

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(2)); err != nil {
		return 0, err
	}
	covPos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return 0, err
	}
	s.AddLink(covPos, 2, args.Coverage, serialize.Head, 0, false)
	if _, err := s.Embed(serialize.Uint16(format1)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(format2)); err != nil {
		return 0, err
	}
	cd1Pos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return 0, err
	}
	s.AddLink(cd1Pos, 2, args.ClassDef1, serialize.Head, 0, false)
	cd2Pos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return 0, err
	}
	s.AddLink(cd2Pos, 2, args.ClassDef2, serialize.Head, 0, false)

	class1Count := len(args.Matrix)
	class2Count := 0
	if class1Count > 0 {
		class2Count = len(args.Matrix[0])
	}
	if _, err := s.Embed(serialize.Uint16(class1Count)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(class2Count)); err != nil {
		return 0, err
	}

	for _, row := range args.Matrix {
		for _, cell := range row {
			if err := embedValueRecord(s, maskRecord(cell.Value1, format1), format1); err != nil {
				return 0, err
			}
			if err := embedValueRecord(s, maskRecord(cell.Value2, format2), format2); err != nil {
				return 0, err
			}
		}
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}
