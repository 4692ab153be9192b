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

package layout

import "seehuhn.de/go/sfntsubset/serialize"

// EmbedOffset16 reserves a 16-bit offset field in the currently open
// object, invokes build to push/recurse/pop_pack the sub-object, and adds a
// Head-relative link from the placeholder to it. build may legitimately
// return ok == false (serialize.ErrEmpty-equivalent): the placeholder is
// then left pointing at zero, the OpenType idiom for "no sub-table
// present", and no link is added.
//
// This is the one recurring shape every table driver in this package
// otherwise repeats by hand (coverage offsets, pair-set offsets, index
// subtable offsets): embed zero, push, recurse, pop_pack, add_link (§4.3).
func EmbedOffset16(s *serialize.Serializer, build func() (serialize.ObjIdx, bool, error)) error {
	pos, err := s.Embed(serialize.Uint16(0))
	if err != nil {
		return err
	}
	target, ok, err := build()
	if err != nil {
		return err
	}
	if ok {
		s.AddLink(pos, 2, target, serialize.Head, 0, false)
	}
	return nil
}

// EmbedOffset32 is EmbedOffset16's 32-bit counterpart, used for tables
// whose offset fields are Offset32 (CBLC's indexSubTableArrayOffset).
// The varstore package writes its own Offset32 fields without it.
func EmbedOffset32(s *serialize.Serializer, build func() (serialize.ObjIdx, bool, error)) error {
	pos, err := s.Embed(serialize.Uint32(0))
	if err != nil {
		return err
	}
	target, ok, err := build()
	if err != nil {
		return err
	}
	if ok {
		s.AddLink(pos, 4, target, serialize.Head, 0, false)
	}
	return nil
}
