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

package coverage

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

// TestCoverageFormatFlip is the spec's concrete scenario 1: a source
// coverage format 2 table covering just glyph 68, remapped to new glyph 3,
// must be re-emitted as the smaller format 1.
func TestCoverageFormatFlip(t *testing.T) {
	p := plan.New(611)
	p.GlyphMap[68] = 3

	s := serialize.New(256)
	idx, err := Subset(p, s, []glyph.ID{68}, false)
	if err != nil {
		t.Fatal(err)
	}
	if idx == 0 {
		t.Fatal("unexpected sentinel index")
	}

	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x03}
	if !bytes.Equal(out, want) {
		t.Fatalf("got % x, want % x", out, want)
	}
}

func TestSubsetDropsUnmappedGlyphs(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[5] = 0

	s := serialize.New(256)
	_, err := Subset(p, s, []glyph.ID{7, 9}, false)
	if err != serialize.ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestFormat2ChosenForContiguousRun(t *testing.T) {
	p := plan.New(100)
	// One contiguous run of ten glyphs: format1=4+2*10=24,
	// format2=4+6*1=10, so format 2 is the smaller encoding.
	gids := []glyph.ID{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	for i, gid := range gids {
		p.GlyphMap[gid] = glyph.ID(i)
	}

	s := serialize.New(256)
	if _, err := Subset(p, s, gids, false); err != nil {
		t.Fatal(err)
	}
	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	format := int(out[0])<<8 | int(out[1])
	if format != 2 {
		t.Fatalf("expected format 2 for one contiguous run of 10 glyphs, got format %d", format)
	}
}

func TestGlyphsReturnsSortedCoveredSet(t *testing.T) {
	table := FromGlyphs([]glyph.ID{9, 3, 3, 7})
	got := table.Glyphs()
	want := []glyph.ID{3, 7, 9}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("covered glyph set mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFormat2ExpandsRanges(t *testing.T) {
	data := []byte{0x00, 0x02, 0x00, 0x01, 0x00, 0x03, 0x00, 0x03, 0x00, 0x00}
	table, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	want := Table{3: 0}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTruncatedFormat1(t *testing.T) {
	data := []byte{0x00, 0x01, 0x00, 0x05} // claims 5 glyphs, supplies none
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for truncated format 1 table")
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x03})
	f.Add([]byte{0x00, 0x02, 0x00, 0x01, 0x00, 0x03, 0x00, 0x03, 0x00, 0x00})
	f.Fuzz(func(t *testing.T, data []byte) {
		table, err := Decode(data)
		if err != nil {
			return
		}
		for _, idx := range table {
			if idx < 0 {
				t.Fatalf("Decode produced a negative coverage index: %d", idx)
			}
		}
	})
}
