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

// Package name implements subsetting of the OpenType "name" table: the
// record list is pruned down to plan.NameIDs, the set every retained
// layout-feature-parameter table and the orchestrator itself still
// references (SPEC_FULL.md supplemented feature 1).
package name

import (
	"fmt"
	"unicode/utf16"

	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding/charmap"

	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

// Record is one decoded name-table entry.
type Record struct {
	PlatformID, EncodingID, LanguageID, NameID uint16
	Value                                      string
}

var errMalformed = fmt.Errorf("sfntsubset/name: malformed name table")

// Decode parses a source font's raw "name" table bytes into its records,
// recognizing the Windows/Unicode (platform 0 and 3, UTF-16BE) and
// Macintosh Roman (platform 1, encoding 0) string forms; other Macintosh
// encodings are skipped, matching the scope of what this module re-encodes
// on the way back out.
func Decode(data []byte) ([]Record, error) {
	if len(data) < 6 {
		return nil, errMalformed
	}
	numRec := int(data[2])<<8 | int(data[3])
	storageOffset := int(data[4])<<8 | int(data[5])

	recBase := 6
	endOfHeader := recBase + 12*numRec
	if endOfHeader > len(data) || storageOffset < endOfHeader || storageOffset > len(data) {
		return nil, errMalformed
	}

	var records []Record
	for i := 0; i < numRec; i++ {
		pos := recBase + i*12
		platformID := uint16(data[pos])<<8 | uint16(data[pos+1])
		encodingID := uint16(data[pos+2])<<8 | uint16(data[pos+3])
		languageID := uint16(data[pos+4])<<8 | uint16(data[pos+5])
		nameID := uint16(data[pos+6])<<8 | uint16(data[pos+7])
		length := int(data[pos+8])<<8 | int(data[pos+9])
		offset := int(data[pos+10])<<8 | int(data[pos+11])

		if storageOffset+offset+length > len(data) {
			return nil, errMalformed
		}
		raw := data[storageOffset+offset : storageOffset+offset+length]

		var val string
		switch platformID {
		case 0, 3: // Unicode, Windows
			val = utf16Decode(raw)
		case 1: // Macintosh
			if encodingID != 0 {
				continue // unimplemented Mac encoding, as the teacher's Decode also skips
			}
			val = decodeMacRoman(raw)
		default:
			continue
		}
		if val == "" {
			continue
		}

		records = append(records, Record{
			PlatformID: platformID, EncodingID: encodingID,
			LanguageID: languageID, NameID: nameID, Value: val,
		})
	}
	return records, nil
}

// Subset rewrites the name table, keeping only records whose NameID is in
// p.NameIDs. If that leaves no records, Subset returns serialize.ErrEmpty.
func Subset(p *plan.Plan, s *serialize.Serializer, records []Record) (serialize.ObjIdx, error) {
	var kept []Record
	for _, r := range records {
		if _, ok := p.NameIDs[r.NameID]; ok {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return 0, serialize.ErrEmpty
	}

	slices.SortFunc(kept, func(a, b Record) int {
		if a.PlatformID != b.PlatformID {
			return int(a.PlatformID) - int(b.PlatformID)
		}
		if a.EncodingID != b.EncodingID {
			return int(a.EncodingID) - int(b.EncodingID)
		}
		if a.LanguageID != b.LanguageID {
			return int(a.LanguageID) - int(b.LanguageID)
		}
		return int(a.NameID) - int(b.NameID)
	})

	type blob struct {
		offset, length int
	}
	storage := newStringStore()
	blobs := make([]blob, len(kept))
	for i, r := range kept {
		var encoded []byte
		if r.PlatformID == 1 {
			encoded = encodeMacRoman(r.Value)
		} else {
			encoded = utf16Encode(r.Value)
		}
		off, length := storage.add(encoded)
		blobs[i] = blob{offset: off, length: length}
	}

	storageOffset := 6 + 12*len(kept)

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(0)); err != nil { // version
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(len(kept))); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(storageOffset)); err != nil {
		return 0, err
	}
	for i, r := range kept {
		if _, err := s.Embed(serialize.Uint16(r.PlatformID)); err != nil {
			return 0, err
		}
		if _, err := s.Embed(serialize.Uint16(r.EncodingID)); err != nil {
			return 0, err
		}
		if _, err := s.Embed(serialize.Uint16(r.LanguageID)); err != nil {
			return 0, err
		}
		if _, err := s.Embed(serialize.Uint16(r.NameID)); err != nil {
			return 0, err
		}
		if _, err := s.Embed(serialize.Uint16(blobs[i].length)); err != nil {
			return 0, err
		}
		if _, err := s.Embed(serialize.Uint16(blobs[i].offset)); err != nil {
			return 0, err
		}
	}
	if _, err := s.EmbedBytes(storage.data); err != nil {
		return 0, err
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

// stringStore deduplicates identical encoded string blobs, the same
// space-saving trick the teacher's nameBuilder uses.
type stringStore struct {
	data []byte
	seen map[string]int
}

func newStringStore() *stringStore {
	return &stringStore{seen: make(map[string]int)}
}

func (b *stringStore) add(encoded []byte) (offset, length int) {
	key := string(encoded)
	if off, ok := b.seen[key]; ok {
		return off, len(encoded)
	}
	off := len(b.data)
	b.seen[key] = off
	b.data = append(b.data, encoded...)
	return off, len(encoded)
}

func utf16Encode(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		out[2*i] = byte(u >> 8)
		out[2*i+1] = byte(u)
	}
	return out
}

func utf16Decode(buf []byte) string {
	var units []uint16
	for i := 0; i+1 < len(buf); i += 2 {
		units = append(units, uint16(buf[i])<<8|uint16(buf[i+1]))
	}
	return string(utf16.Decode(units))
}

func decodeMacRoman(raw []byte) string {
	out, err := charmap.Macintosh.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

func encodeMacRoman(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		// Characters outside Mac Roman fall back to '?', one per rune.
		b, ok := charmap.Macintosh.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}
