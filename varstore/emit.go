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

// emitItemVariationData writes one ItemVariationData subtable for enc,
// following §4.6 "Layout of one ItemVariationData" bit for bit: long
// columns (4 or 2 bytes depending on mode) precede short columns (2 or 1
// bytes), and the wordDeltaCount field packs the long-words flag with the
// long-column count.
func emitItemVariationData(s *serialize.Serializer, enc *encoding, numRegions int) (serialize.ObjIdx, error) {
	if err := s.Push(); err != nil {
		return 0, err
	}

	long, short := enc.shape.columnGroups()
	longMode := enc.shape.longMode()
	order := make([]int, 0, len(long)+len(short))
	order = append(order, long...)
	order = append(order, short...)

	if _, err := s.Embed(serialize.Uint16(len(enc.rows))); err != nil {
		return 0, err
	}
	wordDeltaCount := uint16(len(long))
	if longMode {
		wordDeltaCount |= 0x8000
	}
	if _, err := s.Embed(serialize.Uint16(wordDeltaCount)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(len(order))); err != nil {
		return 0, err
	}
	for _, region := range order {
		if _, err := s.Embed(serialize.Uint16(region)); err != nil {
			return 0, err
		}
	}

	for _, row := range enc.rows {
		for _, region := range long {
			v := row.valueAt(region)
			if longMode {
				if _, err := s.Embed(serialize.Int32(v)); err != nil {
					return 0, err
				}
			} else {
				if _, err := s.Embed(serialize.Int16(v)); err != nil {
					return 0, err
				}
			}
		}
		for _, region := range short {
			v := row.valueAt(region)
			if longMode {
				if _, err := s.Embed(serialize.Int16(v)); err != nil {
					return 0, err
				}
			} else {
				if _, err := s.Embed(serialize.Int8(v)); err != nil {
					return 0, err
				}
			}
		}
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

// emitVariationRegionList writes the shared VariationRegionList table.
func emitVariationRegionList(s *serialize.Serializer, regions *RegionSet) (serialize.ObjIdx, error) {
	if err := s.Push(); err != nil {
		return 0, err
	}
	all := regions.Regions()
	axisCount := 0
	if len(all) > 0 {
		axisCount = len(all[0])
	}
	if _, err := s.Embed(serialize.Uint16(axisCount)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(len(all))); err != nil {
		return 0, err
	}
	for _, region := range all {
		for _, axis := range region {
			if _, err := s.Embed(serialize.Int16(axis.Start)); err != nil {
				return 0, err
			}
			if _, err := s.Embed(serialize.Int16(axis.Peak)); err != nil {
				return 0, err
			}
			if _, err := s.Embed(serialize.Int16(axis.End)); err != nil {
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

// emitItemVariationStore writes the top-level ItemVariationStore header,
// linking to the region list and every subtable.
func emitItemVariationStore(s *serialize.Serializer, regions *RegionSet, subtables []serialize.ObjIdx) (serialize.ObjIdx, error) {
	regionListIdx, err := emitVariationRegionList(s, regions)
	if err != nil {
		return 0, err
	}

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(1)); err != nil { // format
		return 0, err
	}
	pos, err := s.Embed(serialize.Uint32(0))
	if err != nil {
		return 0, err
	}
	s.AddLink(pos, 4, regionListIdx, serialize.Head, 0, false)

	if _, err := s.Embed(serialize.Uint16(len(subtables))); err != nil {
		return 0, err
	}
	for _, sub := range subtables {
		pos, err := s.Embed(serialize.Uint32(0))
		if err != nil {
			return 0, err
		}
		s.AddLink(pos, 4, sub, serialize.Head, 0, false)
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}
