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

// Package pairpos implements the subset-table protocol for OpenType
// PairPos (GPOS lookup type 2) subtables, formats 1 and 2.
package pairpos

import "seehuhn.de/go/sfntsubset/serialize"

// ValueFormat is the OpenType GPOS ValueFormat bitset.
type ValueFormat uint16

const (
	XPlacement ValueFormat = 1 << iota
	YPlacement
	XAdvance
	YAdvance
	XPlaDevice
	YPlaDevice
	XAdvDevice
	YAdvDevice
)

// deviceBits is every bit whose field is an offset to a Device table (plain
// hinting) or, in a variable font, a VariationIndex table.
const deviceBits = XPlaDevice | YPlaDevice | XAdvDevice | YAdvDevice

// ValueRecord is one GPOS value record. Device/variation-index fields are
// represented as an already-serialized sub-object (nil means absent); a
// table driver is responsible for building the Device or VariationIndex
// table first and recording its packed index here.
type ValueRecord struct {
	XPlacement, YPlacement, XAdvance, YAdvance int16
	XPlaDevice, YPlaDevice, XAdvDevice, YAdvDevice *serialize.ObjIdx
}

// format returns the bits this record would need if every present field
// were kept (device/variation fields included), i.e. before NO_HINTING or
// instancing collapse are applied.
func (v ValueRecord) format() ValueFormat {
	var f ValueFormat
	if v.XPlacement != 0 {
		f |= XPlacement
	}
	if v.YPlacement != 0 {
		f |= YPlacement
	}
	if v.XAdvance != 0 {
		f |= XAdvance
	}
	if v.YAdvance != 0 {
		f |= YAdvance
	}
	if v.XPlaDevice != nil {
		f |= XPlaDevice
	}
	if v.YPlaDevice != nil {
		f |= YPlaDevice
	}
	if v.XAdvDevice != nil {
		f |= XAdvDevice
	}
	if v.YAdvDevice != nil {
		f |= YAdvDevice
	}
	return f
}

// effectiveFormat computes the §4.3 "effective format": the OR of every
// retained record's nonzero fields, with device/variation bits stripped
// under NO_HINTING (instancing collapse is applied earlier, by the caller
// clearing device pointers that resolved to NO_VARIATION_INDEX, so by the
// time effectiveFormat runs a collapsed field is already nil and simply
// does not contribute a bit).
func effectiveFormat(records []ValueRecord, noHinting bool) ValueFormat {
	var f ValueFormat
	for _, r := range records {
		f |= r.format()
	}
	if noHinting {
		f &^= deviceBits
	}
	return f
}

// isEmpty reports whether format has no bits set: every field of the
// record was dropped.
func (f ValueFormat) isEmpty() bool { return f == 0 }

// size returns the byte length of one value record under format.
func (f ValueFormat) size() int {
	n := 0
	for b := ValueFormat(1); b != 0 && b <= YAdvDevice; b <<= 1 {
		if f&b != 0 {
			n += 2
		}
	}
	return n
}

// embedValueRecord writes v's fields present in format, in OpenType's fixed
// bit order. It writes only the fields whose bits are set in format; under
// NoHinting the caller's effectiveFormat already excludes the device bits,
// so no device field is written.
func embedValueRecord(s *serialize.Serializer, v ValueRecord, format ValueFormat) error {
	if format&XPlacement != 0 {
		if _, err := s.Embed(serialize.Int16(v.XPlacement)); err != nil {
			return err
		}
	}
	if format&YPlacement != 0 {
		if _, err := s.Embed(serialize.Int16(v.YPlacement)); err != nil {
			return err
		}
	}
	if format&XAdvance != 0 {
		if _, err := s.Embed(serialize.Int16(v.XAdvance)); err != nil {
			return err
		}
	}
	if format&YAdvance != 0 {
		if _, err := s.Embed(serialize.Int16(v.YAdvance)); err != nil {
			return err
		}
	}
	if format&XPlaDevice != 0 {
		if err := embedDeviceOffset(s, v.XPlaDevice); err != nil {
			return err
		}
	}
	if format&YPlaDevice != 0 {
		if err := embedDeviceOffset(s, v.YPlaDevice); err != nil {
			return err
		}
	}
	if format&XAdvDevice != 0 {
		if err := embedDeviceOffset(s, v.XAdvDevice); err != nil {
			return err
		}
	}
	if format&YAdvDevice != 0 {
		if err := embedDeviceOffset(s, v.YAdvDevice); err != nil {
			return err
		}
	}
	return nil
}

func embedDeviceOffset(s *serialize.Serializer, target *serialize.ObjIdx) error {
	pos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return err
	}
	if target != nil {
		s.AddLink(pos, 2, *target, serialize.Head, 0, false)
	}
	return nil
}
