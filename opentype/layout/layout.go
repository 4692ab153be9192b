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

// Package layout holds the small pieces of GSUB/GPOS support shared by more
// than one table driver: the embed-placeholder/push/recurse/pop_pack/
// add_link pattern for offset fields, the name-id closure interface feature
// parameter tables implement, and the second-pass rewrite of
// VariationIndex fields once the item variation store's final layout is
// known.
package layout

import "seehuhn.de/go/sfntsubset/plan"

// NameIDCollector is implemented by layout tables that embed a reference to
// the font's name table — feature parameters such as StylisticSetParams,
// SizeParams and CharacterVariantParams, per the klippa NameIdClosure
// pattern. An implementation adds the name ids its table references to
// plan.NameIDs. The top-level Subset does not call CollectNameIDs; the name
// ids it keeps come from Request.NameIDs.
type NameIDCollector interface {
	CollectNameIDs(p *plan.Plan)
}
