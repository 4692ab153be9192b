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

import (
	"hash/fnv"

	"seehuhn.de/go/sfntsubset/pool"
)

// maxHashBytes caps how many leading bytes of an object's packed content
// contribute to its identity hash (§4.2 "Identity & hashing"): objects
// differ in their early bytes anyway, so hashing more than this is wasted
// work.
const maxHashBytes = 128

// identityEntry is one bucket member: the pool slot that was live when the
// entry was inserted (used to re-derive the byte content and real-link
// list for an exact-equality check) and the packed index it resolved to.
type identityEntry struct {
	pool pool.Index
	obj  ObjIdx
}

// identityTable maps content-hash(data, real links) to an existing packed
// object, to support pop_pack(share=true) deduplication. Virtual links are
// excluded from both the hash and the equality check (§3.1, §9).
type identityTable struct {
	buckets map[uint64][]identityEntry
}

func newIdentityTable() *identityTable {
	return &identityTable{buckets: make(map[uint64][]identityEntry)}
}

// hashObject computes the FNV hash seed over up to the first 128 bytes of
// the object's packed content plus its real-link list.
func hashObject(data []byte, o *object) uint64 {
	h := fnv.New64a()
	n := o.tail - o.head
	if n > maxHashBytes {
		n = maxHashBytes
	}
	if n > 0 {
		h.Write(data[o.head : o.head+n])
	}
	for _, l := range o.realLinks {
		var buf [17]byte
		buf[0] = byte(l.Width)
		if l.Signed {
			buf[0] |= 0x80
		}
		putU32(buf[1:5], uint32(l.Pos))
		buf[5] = byte(l.Whence)
		putU32(buf[6:10], uint32(l.Bias))
		putU32(buf[10:14], uint32(l.Target))
		h.Write(buf[:14])
	}
	return h.Sum64()
}

func putU32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

// equalObjects reports whether a and b have byte-identical packed content
// and identical real-link lists. Virtual links never participate.
func equalObjects(data []byte, a, b *object) bool {
	if a.tail-a.head != b.tail-b.head {
		return false
	}
	if !bytesEqual(data[a.head:a.tail], data[b.head:b.tail]) {
		return false
	}
	if len(a.realLinks) != len(b.realLinks) {
		return false
	}
	for i := range a.realLinks {
		if a.realLinks[i] != b.realLinks[i] {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lookup returns the packed index of an existing object identical to the
// one at poolIdx, if any.
func (t *identityTable) lookup(data []byte, objects *pool.Pool[object], poolIdx pool.Index) (ObjIdx, bool) {
	o := objects.Get(poolIdx)
	hash := hashObject(data, o)
	for _, e := range t.buckets[hash] {
		other := objects.Get(e.pool)
		if other != nil && equalObjects(data, o, other) {
			return e.obj, true
		}
	}
	return 0, false
}

// insert records that the object at poolIdx was packed as objIdx.
func (t *identityTable) insert(data []byte, objects *pool.Pool[object], poolIdx pool.Index, objIdx ObjIdx) {
	o := objects.Get(poolIdx)
	hash := hashObject(data, o)
	t.buckets[hash] = append(t.buckets[hash], identityEntry{pool: poolIdx, obj: objIdx})
}

// rehash removes and reinserts the entry for poolIdx, using its content as
// it stood before and after a mutation (its virtual-link list, which does
// not affect the hash but is tracked here for symmetry with the reference
// implementation, which re-hashes unconditionally after a merge).
func (t *identityTable) rehash(data []byte, objects *pool.Pool[object], poolIdx pool.Index, objIdx ObjIdx, oldHash uint64) {
	bucket := t.buckets[oldHash]
	for i, e := range bucket {
		if e.pool == poolIdx {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(t.buckets, oldHash)
	} else {
		t.buckets[oldHash] = bucket
	}
	t.insert(data, objects, poolIdx, objIdx)
}
