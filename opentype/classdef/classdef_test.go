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

package classdef

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

// TestClassDefFormat1WithRemap is the spec's concrete scenario 2.
func TestClassDefFormat1WithRemap(t *testing.T) {
	p := plan.New(100)
	p.GlyphMap[34] = 1
	p.GlyphMap[35] = 2

	args := Args{
		SourceClasses: map[glyph.ID]uint16{34: 2, 35: 44},
		GlyphFilter:   map[glyph.ID]struct{}{34: {}, 35: {}},
		RemapClass:    true,
		UseClassZero:  true,
	}

	s := serialize.New(256)
	remap, idx, err := Subset(p, s, args)
	if err != nil {
		t.Fatal(err)
	}
	if idx == 0 {
		t.Fatal("unexpected sentinel index")
	}
	wantRemap := map[uint16]uint16{2: 0, 44: 1}
	if diff := cmp.Diff(wantRemap, remap); diff != "" {
		t.Fatalf("remap mismatch (-want +got):\n%s", diff)
	}

	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x01, 0x00, 0x01}
	if !bytes.Equal(out, want) {
		t.Fatalf("got % x, want % x", out, want)
	}
}

// TestClassDefExplicitZeroWhenCoverageIncomplete exercises §4.3's "otherwise
// class 0 is remapped to 0 explicitly" branch: the plan knows about a glyph
// (99) outside this call's GlyphFilter, so the retained glyphs here do not
// cover the full new glyph set and the class that compacts down to 0 (34,
// originally class 2) must stay an explicit entry in the output instead of
// being dropped as implicit class 0.
func TestClassDefExplicitZeroWhenCoverageIncomplete(t *testing.T) {
	p := plan.New(100)
	p.GlyphMap[34] = 1
	p.GlyphMap[35] = 2
	p.GlyphMap[99] = 5

	args := Args{
		SourceClasses: map[glyph.ID]uint16{34: 2, 35: 44},
		GlyphFilter:   map[glyph.ID]struct{}{34: {}, 35: {}},
		RemapClass:    true,
		UseClassZero:  true,
	}

	s := serialize.New(256)
	remap, idx, err := Subset(p, s, args)
	if err != nil {
		t.Fatal(err)
	}
	if idx == 0 {
		t.Fatal("unexpected sentinel index")
	}
	wantRemap := map[uint16]uint16{2: 0, 44: 1}
	if diff := cmp.Diff(wantRemap, remap); diff != "" {
		t.Fatalf("remap mismatch (-want +got):\n%s", diff)
	}

	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	// format 1, minGID=1 (glyph 34's new id, kept explicit), count=2, classes [0, 1].
	want := []byte{0x00, 0x01, 0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	if !bytes.Equal(out, want) {
		t.Fatalf("got % x, want % x", out, want)
	}
}

func TestClassDefAllZeroIsEmpty(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[1] = 1

	args := Args{
		SourceClasses: map[glyph.ID]uint16{1: 0},
		GlyphFilter:   map[glyph.ID]struct{}{1: {}},
	}
	s := serialize.New(64)
	_, _, err := Subset(p, s, args)
	if err != serialize.ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestClassDefFormat2ChosenForSparseClasses(t *testing.T) {
	p := plan.New(100)
	src := make(map[glyph.ID]uint16)
	filter := make(map[glyph.ID]struct{})
	for i := glyph.ID(0); i < 20; i++ {
		p.GlyphMap[glyph.ID(100+i)] = i
		filter[glyph.ID(100+i)] = struct{}{}
	}
	// One isolated nonzero class near the start, one near the end: a huge
	// format-1 span versus two short format-2 ranges.
	src[100] = 1
	src[119] = 2

	args := Args{SourceClasses: src, GlyphFilter: filter, RemapClass: false}
	s := serialize.New(256)
	_, idx, err := Subset(p, s, args)
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
	format := int(out[0])<<8 | int(out[1])
	if format != 2 {
		t.Fatalf("expected format 2 for two widely separated singleton classes, got format %d", format)
	}
}

func TestDecodeFormat1RoundTripsEmbeddedClasses(t *testing.T) {
	data := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x01, 0x00, 0x01}
	info, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	want := Info{2: 1}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsTruncatedFormat2(t *testing.T) {
	data := []byte{0x00, 0x02, 0x00, 0x01} // claims one range, supplies none
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for truncated format 2 table")
	}
}

func FuzzDecode(f *testing.F) {
	f.Add([]byte{0, 1, 0, 1, 0, 3, 0, 1, 0, 2, 0, 1})
	f.Add([]byte{0, 1, 0, 0, 0, 0})
	f.Add([]byte{0, 2, 0, 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		info, err := Decode(data)
		if err != nil {
			return
		}
		for gid, class := range info {
			if class == 0 {
				t.Fatalf("Decode returned explicit class 0 for glyph %d", gid)
			}
		}
	})
}
