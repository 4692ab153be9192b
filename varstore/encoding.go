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

import "container/heap"

// encRow is one delta set living inside an encoding, carrying the temp id
// it was assigned by the builder so the final remap can be produced.
type encRow struct {
	tempID uint32
	deltas []regionDeltaIdx
}

// valueAt returns the delta this row has for region, or 0 if it doesn't
// mention that region.
func (r encRow) valueAt(region int) int32 {
	for _, rd := range r.deltas {
		if rd.region == region {
			return rd.delta
		}
	}
	return 0
}

// encoding is a group of delta sets sharing one row shape, destined to
// become one ItemVariationData subtable (§4.6 "Initial grouping").
// An encoding with live == false is a consumed heap entry: §4.6 step 2's
// "sentinel in the encoding slot".
type encoding struct {
	shape RowShape
	rows  []encRow
	live  bool
}

// groupByShape performs the initial shape→encoding grouping, in first-seen
// shape order, which the optimizer's determinism (§4.6, §9) depends on.
func groupByShape(rawRows [][]regionDeltaIdx, numRegions int) []*encoding {
	var encodings []*encoding
	index := make(map[string]int)
	for tempID, row := range rawRows {
		shape := shapeOf(row, numRegions)
		k := shape.key()
		i, ok := index[k]
		if !ok {
			i = len(encodings)
			index[k] = i
			encodings = append(encodings, &encoding{shape: shape, live: true})
		}
		encodings[i].rows = append(encodings[i].rows, encRow{tempID: uint32(tempID), deltas: row})
	}
	return encodings
}

func (e *encoding) cost() int {
	return e.shape.cost(len(e.rows))
}

// mergeGain returns the byte savings from merging a and b, and the merged
// shape, per §4.6 "Merge gain".
func mergeGain(a, b *encoding) (gain int, merged RowShape) {
	merged = mergeShape(a.shape, b.shape)
	mergedCost := merged.cost(len(a.rows) + len(b.rows))
	return a.cost() + b.cost() - mergedCost, merged
}

// pqItem is one candidate merge on the optimizer's max-heap.
type pqItem struct {
	gain int
	i, j int // indices into the encodings slice
	seq  int // insertion order, for deterministic tie-breaking
}

type pqHeap []pqItem

func (h pqHeap) Len() int { return len(h) }
func (h pqHeap) Less(a, b int) bool {
	if h[a].gain != h[b].gain {
		return h[a].gain > h[b].gain // max-heap
	}
	return h[a].seq < h[b].seq // insertion order breaks ties (§4.6 "Determinism")
}
func (h pqHeap) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *pqHeap) Push(x any)        { *h = append(*h, x.(pqItem)) }
func (h *pqHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// optimize runs the greedy priority-queue merge of §4.6 "Optimizer" to
// completion and returns the final, non-nil live encodings in ascending
// original-or-creation index order.
func optimize(encodings []*encoding) []*encoding {
	var pq pqHeap
	seq := 0
	pushPair := func(i, j int) {
		gain, _ := mergeGain(encodings[i], encodings[j])
		if gain > 0 {
			heap.Push(&pq, pqItem{gain: gain, i: i, j: j, seq: seq})
			seq++
		}
	}

	for i := 0; i < len(encodings); i++ {
		for j := i + 1; j < len(encodings); j++ {
			pushPair(i, j)
		}
	}

	for pq.Len() > 0 {
		top := heap.Pop(&pq).(pqItem)
		a, b := encodings[top.i], encodings[top.j]
		if !a.live || !b.live {
			continue
		}

		_, mergedShape := mergeGain(a, b)
		merged := &encoding{shape: mergedShape, live: true}
		merged.rows = append(merged.rows, a.rows...)
		merged.rows = append(merged.rows, b.rows...)
		a.live = false
		b.live = false
		newIdx := len(encodings)
		encodings = append(encodings, merged)

		// Step 3: push merge gains for the combined encoding against every
		// other live encoding first, exactly as for any other newly created
		// encoding, then fold any byte-identical live encoding's rows into
		// it (ivs_builder.rs:205-263 pushes gains for the combined encoding
		// before folding the identical one in, not after).
		for k := 0; k < newIdx; k++ {
			if encodings[k].live {
				pushPair(k, newIdx)
			}
		}
		for k := 0; k < newIdx; k++ {
			other := encodings[k]
			if !other.live {
				continue
			}
			if other.shape.key() == merged.shape.key() {
				merged.rows = append(merged.rows, other.rows...)
				other.live = false
			}
		}
	}

	var final []*encoding
	for _, e := range encodings {
		if e.live {
			final = append(final, e)
		}
	}
	return final
}

// maxRowsPerSubtable is the hard OpenType limit on one ItemVariationData's
// row count (§4.6 "Chunking").
const maxRowsPerSubtable = 65535

// chunkEncodings splits any encoding whose row count exceeds
// maxRowsPerSubtable into consecutive chunks, preserving order.
func chunkEncodings(encodings []*encoding) []*encoding {
	var out []*encoding
	for _, e := range encodings {
		if len(e.rows) <= maxRowsPerSubtable {
			out = append(out, e)
			continue
		}
		for start := 0; start < len(e.rows); start += maxRowsPerSubtable {
			end := start + maxRowsPerSubtable
			if end > len(e.rows) {
				end = len(e.rows)
			}
			out = append(out, &encoding{shape: e.shape, rows: e.rows[start:end], live: true})
		}
	}
	return out
}
