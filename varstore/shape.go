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

// ColumnBits classifies one region column's minimal storage width within a
// row shape. The four classes are the ones the ItemVariationData wire
// format actually supports (§4.6 "Layout of one ItemVariationData").
type ColumnBits uint8

const (
	ColNone ColumnBits = 0
	ColOne  ColumnBits = 1
	ColTwo  ColumnBits = 2
	ColFour ColumnBits = 4
)

// RowShape is one column-width class per region, in region-index order.
type RowShape []ColumnBits

func classify(delta int32) ColumnBits {
	switch {
	case delta == 0:
		return ColNone
	case delta >= -128 && delta <= 127:
		return ColOne
	case delta >= -32768 && delta <= 32767:
		return ColTwo
	default:
		return ColFour
	}
}

// shapeOf computes row's shape over the full region count: every region
// this row does not mention is class ColNone.
func shapeOf(row []regionDeltaIdx, numRegions int) RowShape {
	shape := make(RowShape, numRegions)
	for _, rd := range row {
		shape[rd.region] = classify(rd.delta)
	}
	return shape
}

func (s RowShape) key() string {
	b := make([]byte, len(s))
	for i, c := range s {
		b[i] = byte(c)
	}
	return string(b)
}

// nonzeroColumns counts the active (non-ColNone) columns in s.
func (s RowShape) nonzeroColumns() int {
	n := 0
	for _, c := range s {
		if c != ColNone {
			n++
		}
	}
	return n
}

// rowCost sums the per-column width classes, per §4.6 "Per-row cost".
func (s RowShape) rowCost() int {
	total := 0
	for _, c := range s {
		total += int(c)
	}
	return total
}

// overhead is the fixed per-encoding byte cost: 10 (the 6-byte
// ItemVariationData header of itemCount, wordDeltaCount and
// regionIndexCount, plus its 4-byte Offset32 in the store header) plus 2
// bytes per active region index entry.
func (s RowShape) overhead() int {
	return 10 + 2*s.nonzeroColumns()
}

// cost is the total encoded size for rowCount rows sharing shape s.
func (s RowShape) cost(rowCount int) int {
	return s.overhead() + s.rowCost()*rowCount
}

// mergeShape computes the column-wise max of a and b: the shape needed to
// hold either row's values (§4.6 "Merging two encodings").
func mergeShape(a, b RowShape) RowShape {
	out := make(RowShape, len(a))
	for i := range a {
		if a[i] > b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// longMode reports whether shape uses 4-byte "long" columns (true) or
// 2-byte "long" columns (false), per §4.6's two-branch layout rule.
func (s RowShape) longMode() bool {
	for _, c := range s {
		if c == ColFour {
			return true
		}
	}
	return false
}

// columnGroups splits the active region indices of s into the long group
// (emitted first) and the short group (emitted after), per §4.6 "Permute
// columns so long columns precede short columns".
func (s RowShape) columnGroups() (long, short []int) {
	mode := s.longMode()
	longClass := ColTwo
	if mode {
		longClass = ColFour
	}
	for i, c := range s {
		if c == ColNone {
			continue
		}
		if c == longClass {
			long = append(long, i)
		} else {
			short = append(short, i)
		}
	}
	return long, short
}
