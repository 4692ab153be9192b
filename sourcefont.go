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

// SourceFont is the read-only boundary between this module and font I/O.
// A caller implements it over whatever OpenType parser it already has
// (this module never parses a font file itself); Subset only ever asks
// for a named table's raw bytes.
type SourceFont interface {
	// TableData returns the raw bytes of the table named by tag, and
	// whether the table is present at all.
	TableData(tag Tag) ([]byte, bool)
}

// NameTag, the OpenType "name" table.
var NameTag = Tag{'n', 'a', 'm', 'e'}
