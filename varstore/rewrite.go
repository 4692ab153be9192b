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

import (
	"fmt"

	"seehuhn.de/go/sfntsubset/serialize"
)

// Placeholder is one variation-index field a table driver reserved before
// the store's final layout was known. Pos is relative to Owner's start
// (serialize.Serializer.RelativePos, taken while Owner was still open) so
// it survives Owner's PopPack relocating its bytes; Owner is the packed
// index of the object the field lives in, filled in by the driver once
// that object itself has been popped.
type Placeholder struct {
	Owner  serialize.ObjIdx
	Pos    int
	TempID uint32
}

// RewritePlaceholders performs the second pass of §4.6: every placeholder
// position is overwritten with its temp id's final (outer, inner) pair,
// packed as a 32-bit value. It is an error for a placeholder to reference a
// temp id the map has no entry for — that would mean the collector (§4.4)
// missed a still-referenced index.
func RewritePlaceholders(s *serialize.Serializer, placeholders []Placeholder, remap TempToFinalMap) error {
	for _, p := range placeholders {
		final, ok := remap[p.TempID]
		if !ok {
			return fmt.Errorf("varstore: temp id %d has no entry in the final map", p.TempID)
		}
		abs := s.ResolvedPos(p.Owner, p.Pos)
		s.CopyAssign(abs, serialize.Uint32(final.Packed()))
	}
	return nil
}
