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

// Package sfntsubset implements the core machinery of an OpenType font
// subsetter: an object-graph serializer for emitting tables with
// cross-references resolved after the fact, an ItemVariationStore
// builder/optimizer, and a handful of subset-table drivers built on top of
// both.
//
// This package does not parse font files. A caller supplies the source
// font's table bytes through the Request.Font field (a SourceFont
// implementation); Subset wires the table drivers together for one font
// but does not perform feature, script, or lookup closure, variation-space
// instancing, or outline rasterization/hinting — those remain the
// caller's responsibility.
//
// The table-specific logic lives in the opentype subpackages
// (seehuhn.de/go/sfntsubset/opentype/coverage,
// seehuhn.de/go/sfntsubset/opentype/classdef,
// seehuhn.de/go/sfntsubset/opentype/pairpos,
// seehuhn.de/go/sfntsubset/opentype/cblc,
// seehuhn.de/go/sfntsubset/opentype/name); the serializer lives in
// seehuhn.de/go/sfntsubset/serialize; the variation store lives in
// seehuhn.de/go/sfntsubset/varstore.
package sfntsubset
