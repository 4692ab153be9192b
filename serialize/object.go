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

import "seehuhn.de/go/sfntsubset/pool"

// Whence selects what a real link's resolved offset is relative to.
type Whence uint8

const (
	// Head is relative to the start of the object the link belongs to
	// (the default OpenType offset semantics: "from the start of this
	// table").
	Head Whence = iota
	// Tail is relative to the end of the object the link belongs to.
	Tail
	// Absolute is relative to the start of the whole serialized buffer.
	Absolute
)

// ObjIdx is the stable, zero-based index of a finalized (packed) object.
// Index 0 is reserved for a sentinel and never contributes bytes.
type ObjIdx int

// Link is a deferred numeric offset field: (position, width, sign,
// relative-to, bias, target) as described in §3.1.
type Link struct {
	Pos    int    // byte offset within the owning object where the field starts
	Width  int    // field width in bytes: 2, 3, or 4
	Signed bool   // true for the rare signed-offset fields
	Whence Whence // what the resolved value is relative to
	Bias   int32  // additive bias applied after the base subtraction
	Target ObjIdx // packed index of the object being pointed to
}

// object is a finalized (or in-progress) serializer object: a contiguous
// byte region plus its real and virtual links (§3.1).
type object struct {
	head, tail int // while open: saved serializer cursors; once packed: the object's own byte extent
	realLinks  []Link
	// virtualLinks record ordering/dedup constraints only; they never
	// contribute bytes, so only the target needs to be kept (§3.1, §9
	// "Deduplication identity").
	virtualLinks []ObjIdx
	nextObj      pool.Index // chain to the object that was current before this one was pushed
}

func (o *object) Reset() {
	o.head = 0
	o.tail = 0
	o.realLinks = nil
	o.virtualLinks = nil
	o.nextObj = -1
}
