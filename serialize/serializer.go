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

// Package serialize implements the object-graph serializer: a two-phase
// writer that accumulates variable-size objects with symbolic cross-object
// links, deduplicates identical objects, then emits a packed byte stream
// with resolved numeric offsets.
//
// The design mirrors HarfBuzz's hb-serialize.hh (by way of the fontations
// "klippa" subsetter's Rust port): a single byte buffer grown from both
// ends, an arena of in-flight "objects" addressed by pool index, and a
// sticky error-flag bitset rather than a per-call Result, because a table
// driver issues far more writes than it can afford to individually check.
package serialize

import (
	"seehuhn.de/go/sfntsubset/pool"
)

const noCurrent pool.Index = -1

// Serializer is a head/tail cursor over a single byte buffer, with nested
// push/pop_pack scopes for building OpenType subtables bottom-up.
type Serializer struct {
	data                   []byte
	start, end, head, tail int
	errs                   Flags

	objects *pool.Pool[object]
	current pool.Index

	packed   []pool.Index // packed[0] is the reserved sentinel (never valid)
	identity *identityTable
}

// New allocates a serializer with the given byte capacity. The capacity is
// fixed for the life of the serializer (§5): exceeding it yields
// FlagOutOfRoom rather than growing the buffer.
func New(capacity int) *Serializer {
	s := &Serializer{
		data:     make([]byte, capacity),
		end:      capacity,
		tail:     capacity,
		objects:  pool.New[object](),
		current:  noCurrent,
		identity: newIdentityTable(),
	}
	s.packed = append(s.packed, noCurrent) // index 0: sentinel
	return s
}

// InError reports whether any error flag is set.
func (s *Serializer) InError() bool { return s.errs != FlagNone }

// OnlyOverflow reports whether the accumulated errors are purely of the
// recoverable overflow class (§3.1), permitting snapshot/revert.
func (s *Serializer) OnlyOverflow() bool {
	return s.errs != FlagNone && s.errs&^overflowBits == FlagNone
}

// Errors returns the exact accumulated error-flag bitset (§6.3).
func (s *Serializer) Errors() Flags { return s.errs }

// SetErr ORs flag into the error state and returns the new state.
func (s *Serializer) SetErr(flag Flags) Flags {
	s.errs |= flag
	return s.errs
}

func (s *Serializer) errNow() error {
	if s.errs == FlagNone {
		return nil
	}
	return &Error{Flags: s.errs}
}

// Embed writes a scalar at the current head and advances it, returning the
// byte offset (relative to the buffer start) the scalar was written at.
func (s *Serializer) Embed(v Scalar) (int, error) {
	return s.EmbedBytes(scalarBytes(v))
}

// EmbedBytes writes raw bytes at the current head.
func (s *Serializer) EmbedBytes(b []byte) (int, error) {
	pos, err := s.AllocateSize(len(b))
	if err != nil {
		return 0, err
	}
	copy(s.data[pos:], b)
	return pos, nil
}

// AllocateSize reserves n bytes at the current head without writing to
// them, returning the starting offset (for a later CopyAssign).
func (s *Serializer) AllocateSize(n int) (int, error) {
	if s.InError() {
		return 0, s.errNow()
	}
	if n < 0 || s.tail-s.head < n {
		s.SetErr(FlagOutOfRoom)
		return 0, s.errNow()
	}
	pos := s.head
	s.head += n
	return pos, nil
}

// CopyAssign overwrites the bytes at pos with v. It performs no bounds
// check against the current object: the caller is responsible, exactly as
// specified in §4.2 (this is how a placeholder reserved by AllocateSize is
// later filled in once its value is known, e.g. a table's item count). pos
// must be a live absolute position: either one returned by Embed/
// AllocateSize within the object still currently open, or the result of
// ResolvedPos for an object that has already been packed. A raw
// Embed-time position used after that object's PopPack is stale, since
// PopPack moves the object's bytes to a new location (see RelativePos /
// ResolvedPos).
func (s *Serializer) CopyAssign(pos int, v Scalar) {
	if s.InError() {
		return
	}
	b := scalarBytes(v)
	copy(s.data[pos:pos+len(b)], b)
}

// RelativePos converts an absolute position returned by Embed/
// AllocateSize — taken while its object is still the currently open
// object — into an offset relative to that object's start. The relative
// offset survives PopPack moving the object's bytes, so it is safe to keep
// across a pop_pack boundary; recover the absolute position later with
// ResolvedPos once the object's final ObjIdx is known.
func (s *Serializer) RelativePos(pos int) int {
	if s.current == noCurrent {
		return pos
	}
	o := s.objects.Get(s.current)
	return pos - o.head
}

// ResolvedPos recovers a live absolute buffer position for a relative
// offset recorded (via RelativePos) against an object that has since been
// popped. Used by deferred second-pass rewrites such as
// varstore.RewritePlaceholders, which fill in a placeholder field only
// after every table driver — and the item variation store built from
// their output — has finished running.
func (s *Serializer) ResolvedPos(owner ObjIdx, relPos int) int {
	poolIdx := s.packed[owner]
	o := s.objects.Get(poolIdx)
	return o.head + relPos
}

// Push begins a nested object. Writes after Push belong to the new object
// until the matching PopPack or PopDiscard.
func (s *Serializer) Push() error {
	if s.InError() {
		return s.errNow()
	}
	idx := s.objects.Alloc()
	o := s.objects.Get(idx)
	o.head = s.head
	o.tail = s.tail
	o.nextObj = s.current
	s.current = idx
	return nil
}

// PopPack finalizes the current object: its bytes are moved from the head
// region to the tail region and it is assigned a packed index. If share is
// true and an identity-equal object already exists, the new object is
// discarded and its virtual links are merged into the surviving one. If
// the object turned out to be empty (no bytes, no links), the slot is
// released and ok is false.
func (s *Serializer) PopPack(share bool) (idx ObjIdx, ok bool) {
	if s.current == noCurrent {
		return 0, false
	}
	if s.InError() && !s.OnlyOverflow() {
		return 0, false
	}

	poolIdx := s.current
	o := s.objects.Get(poolIdx)
	s.current = o.nextObj
	o.tail = s.head
	o.nextObj = -1

	if o.tail < o.head {
		s.SetErr(FlagOther)
		return 0, false
	}

	length := o.tail - o.head
	s.head = o.head // rewind head

	if length == 0 {
		if len(o.realLinks) != 0 || len(o.virtualLinks) != 0 {
			s.SetErr(FlagOther)
		}
		s.objects.Release(poolIdx)
		return 0, false
	}

	s.tail -= length
	origHead := o.head
	o.head = s.tail
	o.tail = s.tail + length
	copy(s.data[o.head:o.tail], s.data[origHead:origHead+length])

	if share {
		if dupIdx, found := s.identity.lookup(s.data, s.objects, poolIdx); found {
			s.mergeVirtualLinks(poolIdx, dupIdx)
			s.objects.Release(poolIdx)
			s.tail += length // the duplicate's bytes are discarded
			return dupIdx, true
		}
	}

	s.packed = append(s.packed, poolIdx)
	objIdx := ObjIdx(len(s.packed) - 1)
	if share {
		s.identity.insert(s.data, s.objects, poolIdx, objIdx)
	}
	return objIdx, true
}

// mergeVirtualLinks appends the virtual links of the object at "from" onto
// the surviving packed object "to", re-hashing the identity-map entry for
// "to" afterwards (§4.2 "Identity & hashing").
func (s *Serializer) mergeVirtualLinks(from pool.Index, to ObjIdx) {
	fromObj := s.objects.Get(from)
	if len(fromObj.virtualLinks) == 0 {
		return
	}
	toPoolIdx := s.packed[to]
	oldHash := hashObject(s.data, s.objects.Get(toPoolIdx))

	toObj := s.objects.Get(toPoolIdx)
	toObj.virtualLinks = append(toObj.virtualLinks, fromObj.virtualLinks...)

	s.identity.rehash(s.data, s.objects, toPoolIdx, to, oldHash)
}

// PopDiscard finalizes the current object and throws its bytes away,
// rewinding the head and releasing the pool slot. Used when a table driver
// speculatively started a sub-object and decided not to keep it.
func (s *Serializer) PopDiscard() {
	if s.current == noCurrent {
		return
	}
	poolIdx := s.current
	o := s.objects.Get(poolIdx)
	s.current = o.nextObj
	s.head = o.head
	s.objects.Release(poolIdx)
}

// AddLink records a deferred offset-resolution for the current object: the
// caller must already have embedded a placeholder of the declared width at
// the given position (the standard pattern is embed-zero, push, recurse,
// pop_pack, add_link; see §4.3). pos is the absolute buffer position
// Embed/EmbedBytes/AllocateSize returned; it is normalized to an
// object-relative offset here, while o.head still holds the object's
// pre-pack position, since PopPack later moves the object's bytes to a new
// location and only an object-relative offset survives that move.
func (s *Serializer) AddLink(pos, width int, target ObjIdx, whence Whence, bias int32, signed bool) {
	if s.InError() || s.current == noCurrent {
		return
	}
	o := s.objects.Get(s.current)
	o.realLinks = append(o.realLinks, Link{
		Pos: pos - o.head, Width: width, Signed: signed, Whence: whence, Bias: bias, Target: target,
	})
}

// AddVirtualLink records an ordering/dedup constraint against target
// without contributing any bytes (§3.1).
func (s *Serializer) AddVirtualLink(target ObjIdx) {
	if s.InError() || s.current == noCurrent {
		return
	}
	o := s.objects.Get(s.current)
	o.virtualLinks = append(o.virtualLinks, target)
}

// Snapshot captures enough state to undo everything back to this point,
// provided the errors accumulated in between are purely overflow-class
// (§4.2).
type Snapshot struct {
	head, tail int
	errs       Flags
	current    pool.Index
}

// TakeSnapshot captures the serializer's recoverable state.
func (s *Serializer) TakeSnapshot() Snapshot {
	return Snapshot{head: s.head, tail: s.tail, errs: s.errs, current: s.current}
}

// Revert restores a snapshot. It is only safe when everything accumulated
// since the snapshot was purely an overflow-class error; anything else
// (e.g. FlagOutOfRoom or FlagOther) means state elsewhere may already be
// inconsistent, so Revert refuses and returns an error instead of silently
// producing a corrupt serialization.
func (s *Serializer) Revert(snap Snapshot) error {
	newBits := s.errs &^ snap.errs
	if newBits != FlagNone && newBits&^overflowBits != FlagNone {
		return &Error{Flags: s.errs}
	}
	s.head = snap.head
	s.tail = snap.tail
	s.errs = snap.errs
	s.current = snap.current
	return nil
}

// CopyBytes consumes the serializer and returns the final, fully-resolved
// byte stream. Index 0 (the sentinel) never contributes bytes.
func (s *Serializer) CopyBytes() ([]byte, error) {
	if s.InError() {
		return nil, s.errNow()
	}

	if err := s.resolveLinks(); err != nil {
		return nil, err
	}

	length := (s.head - s.start) + (s.end - s.tail)
	if length == 0 {
		return []byte{}, nil
	}

	out := make([]byte, length)
	copy(out, s.data[s.start:s.head])
	copy(out[s.head-s.start:], s.data[s.tail:s.end])
	return out, nil
}

// resolveLinks computes and writes every packed object's real links.
//
// Every packed object's head/tail are positions inside the still-split
// internal buffer. Because the final compaction in CopyBytes shifts the
// whole tail region by one constant delta, a Head- or Tail-relative link
// between two tail-region objects can be resolved directly from internal
// positions (the delta cancels out); only Absolute-relative links need the
// delta applied explicitly.
func (s *Serializer) resolveLinks() error {
	delta := s.head - s.tail
	for objIdx := 1; objIdx < len(s.packed); objIdx++ {
		poolIdx := s.packed[objIdx]
		o := s.objects.Get(poolIdx)
		for _, link := range o.realLinks {
			targetPoolIdx := s.packed[link.Target]
			target := s.objects.Get(targetPoolIdx)

			var base int
			switch link.Whence {
			case Head:
				base = o.head
			case Tail:
				base = o.tail
			case Absolute:
				base = -delta // final_pos(target) = target.head + delta; value = final_pos(target) + bias
			}
			value := int64(target.head-base) + int64(link.Bias)
			if link.Whence == Absolute {
				value = int64(target.head+delta) + int64(link.Bias)
			}

			if !fitsWidth(value, link.Width, link.Signed) {
				s.SetErr(FlagOffsetOverflow)
				return s.errNow()
			}
			writeBE(s.data[o.head+link.Pos:], link.Width, value)
		}
	}
	return nil
}

func fitsWidth(value int64, width int, signed bool) bool {
	if signed {
		lo := -(int64(1) << (8*width - 1))
		hi := (int64(1) << (8*width - 1)) - 1
		return value >= lo && value <= hi
	}
	return value >= 0 && value < (int64(1)<<(8*width))
}

func writeBE(buf []byte, width int, value int64) {
	u := uint32(value)
	switch width {
	case 2:
		buf[0] = byte(u >> 8)
		buf[1] = byte(u)
	case 3:
		buf[0] = byte(u >> 16)
		buf[1] = byte(u >> 8)
		buf[2] = byte(u)
	case 4:
		buf[0] = byte(u >> 24)
		buf[1] = byte(u >> 16)
		buf[2] = byte(u >> 8)
		buf[3] = byte(u)
	}
}
