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

import (
	"seehuhn.de/go/sfntsubset/serialize"
	"seehuhn.de/go/sfntsubset/varstore"
)

// NoVariationIndex is the OpenType sentinel pair meaning "this field has no
// variation adjustment": DeltaSetOuterIndex == DeltaSetInnerIndex == 0xFFFF.
const NoVariationIndex uint32 = 0xFFFF<<16 | 0xFFFF

// PendingVariationIndex is a variation-index field reserved inside an
// object that has not yet been popped, so its final owner ObjIdx is not
// known yet. Attach records it against the real owner once PopPack
// succeeds; see EmbedVariationIndexPlaceholder.
type PendingVariationIndex struct {
	pos    int
	tempID uint32
}

// Attach turns a batch of pending placeholders, recorded while their
// shared owner object was still open, into varstore.Placeholder values
// once that object's packed index is known.
func Attach(owner serialize.ObjIdx, pending []PendingVariationIndex) []varstore.Placeholder {
	out := make([]varstore.Placeholder, len(pending))
	for i, p := range pending {
		out[i] = varstore.Placeholder{Owner: owner, Pos: p.pos, TempID: p.tempID}
	}
	return out
}

// EmbedVariationIndexPlaceholder writes the NO_VARIATION_INDEX sentinel at
// the current head — the field's real value is not known until the IVS
// builder/optimizer has finished — and returns a PendingVariationIndex
// recording its position relative to the still-open current object (§4.6
// "Second pass over drivers": read the old pair, look up the temp id,
// re-embed the final packed value). The caller attaches the returned value
// to its owner's ObjIdx (via Attach) once that object has been popped.
func EmbedVariationIndexPlaceholder(s *serialize.Serializer, tempID uint32) (PendingVariationIndex, error) {
	pos, err := s.Embed(serialize.Uint32(NoVariationIndex))
	if err != nil {
		return PendingVariationIndex{}, err
	}
	return PendingVariationIndex{pos: s.RelativePos(pos), tempID: tempID}, nil
}
