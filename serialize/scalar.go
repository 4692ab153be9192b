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

package serialize

// Scalar is any fixed-width big-endian OpenType field type that can be
// written with Embed. §6.4 requires all scalars to be big-endian; the
// concrete types below are the field widths OpenType tables actually use.
type Scalar interface {
	appendBE(buf []byte) []byte
}

// Uint8 is an 8-bit unsigned field.
type Uint8 uint8

func (v Uint8) appendBE(buf []byte) []byte { return append(buf, byte(v)) }

// Int8 is an 8-bit signed field (the "short" delta width of a non-long
// ItemVariationData row).
type Int8 int8

func (v Int8) appendBE(buf []byte) []byte { return append(buf, byte(v)) }

// Uint16 is a 16-bit unsigned field (OpenType uint16/Offset16).
type Uint16 uint16

func (v Uint16) appendBE(buf []byte) []byte {
	return append(buf, byte(v>>8), byte(v))
}

// Int16 is a 16-bit signed field (OpenType int16/FWORD).
type Int16 int16

func (v Int16) appendBE(buf []byte) []byte {
	return Uint16(v).appendBE(buf)
}

// Uint24 is a 24-bit unsigned field (OpenType Offset24); only the low 24
// bits are significant.
type Uint24 uint32

func (v Uint24) appendBE(buf []byte) []byte {
	return append(buf, byte(v>>16), byte(v>>8), byte(v))
}

// Uint32 is a 32-bit unsigned field (OpenType uint32/Offset32).
type Uint32 uint32

func (v Uint32) appendBE(buf []byte) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Int32 is a 32-bit signed field.
type Int32 int32

func (v Int32) appendBE(buf []byte) []byte {
	return Uint32(v).appendBE(buf)
}

func scalarBytes(v Scalar) []byte {
	return v.appendBE(nil)
}
