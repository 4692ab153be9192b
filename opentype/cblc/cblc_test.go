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

package cblc

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

func u16(b []byte, pos int) int { return int(b[pos])<<8 | int(b[pos+1]) }
func u32(b []byte, pos int) int {
	return int(b[pos])<<24 | int(b[pos+1])<<16 | int(b[pos+2])<<8 | int(b[pos+3])
}

// decodedSubtable is the format-3 IndexSubTable plus the IndexSubTableArray
// entry that pointed at it, read back out of a CBLC byte stream the way a
// real font reader would.
type decodedSubtable struct {
	firstGID, lastGID int
	indexFormat       int
	imageFormat       int
	imageDataOffset   int
	offsets           []int
}

// decodeBitmapSize reads the index-th BitmapSize record's IndexSubTableArray
// entry and the format-3 subtable it points to. The CBLC table this module
// emits always starts at byte 0 of CopyBytes' output (it is the last object
// popped, and the last-popped object always ends up at the lowest address
// in the packed tail region).
func decodeBitmapSize(t *testing.T, out []byte, index, numGlyphs int) decodedSubtable {
	t.Helper()
	headerPos := 8 + 8*index
	arrayOffset := u32(out, headerPos)

	firstGID := u16(out, arrayOffset)
	lastGID := u16(out, arrayOffset+2)
	subtableRel := u32(out, arrayOffset+4)
	subtablePos := arrayOffset + subtableRel

	got := decodedSubtable{
		firstGID:        firstGID,
		lastGID:         lastGID,
		indexFormat:     u16(out, subtablePos),
		imageFormat:     u16(out, subtablePos+2),
		imageDataOffset: u32(out, subtablePos+4),
	}
	for i := 0; i <= numGlyphs; i++ {
		got.offsets = append(got.offsets, u16(out, subtablePos+8+2*i))
	}
	return got
}

func TestSubsetCopiesImagesAndDropsUnmapped(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[3] = 1
	p.GlyphMap[5] = 2

	args := Args{
		Sizes: []BitmapSize{
			{
				PPemX: 12, PPemY: 12, BitDepth: 1,
				Images: []GlyphImage{
					{Glyph: 3, Data: []byte{1, 2, 3}},
					{Glyph: 4, Data: []byte{9, 9}}, // not retained by the plan
					{Glyph: 5, Data: []byte{4, 5}},
				},
			},
		},
	}

	s := serialize.New(1024)
	res, err := Subset(p, s, args)
	if err != nil {
		t.Fatal(err)
	}
	if res.CBLC == 0 {
		t.Fatal("unexpected sentinel index")
	}
	wantCBDT := []byte{0, 3, 0, 0, 1, 2, 3, 4, 5}
	if !bytes.Equal(res.CBDT, wantCBDT) {
		t.Fatalf("CBDT: got % x, want % x", res.CBDT, wantCBDT)
	}

	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	if got := u16(out, 0); got != 2 {
		t.Fatalf("majorVersion = %d, want 2", got)
	}
	if got := u32(out, 4); got != 1 {
		t.Fatalf("numSizes = %d, want 1", got)
	}

	got := decodeBitmapSize(t, out, 0, 2)
	want := decodedSubtable{
		firstGID: 1, lastGID: 2,
		indexFormat: 3, imageFormat: 0, imageDataOffset: 4,
		offsets: []int{0, 3, 5},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(decodedSubtable{})); diff != "" {
		t.Fatalf("decoded subtable mismatch (-want +got):\n%s", diff)
	}
}

func TestSubsetDropsSizeWithNoSurvivingGlyphs(t *testing.T) {
	p := plan.New(10)
	// plan retains nothing from this size's images
	args := Args{
		Sizes: []BitmapSize{
			{PPemX: 9, PPemY: 9, Images: []GlyphImage{{Glyph: 1, Data: []byte{1}}}},
		},
	}
	s := serialize.New(256)
	_, err := Subset(p, s, args)
	if err != serialize.ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

// TestSubsetPadsWhenOffsetCountIsOdd covers the format-3 padding rule:
// the offsetArray has numGlyphs+1 entries, so a 2-glyph range (3 offsets)
// needs a padding uint16 to stay 32-bit aligned, while a 1-glyph range (2
// offsets) does not.
func TestSubsetPadsWhenOffsetCountIsOdd(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[1] = 1
	p.GlyphMap[2] = 2

	args := Args{
		Sizes: []BitmapSize{
			{PPemX: 8, PPemY: 8, Images: []GlyphImage{
				{Glyph: 1, Data: []byte{7, 7}},
				{Glyph: 2, Data: []byte{8}},
			}},
		},
	}
	s := serialize.New(512)
	res, err := Subset(p, s, args)
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	_ = res

	subtablePos := func() int {
		arrayOffset := u32(out, 8)
		rel := u32(out, arrayOffset+4)
		return arrayOffset + rel
	}()
	// header(8) + offsetArray(3*2=6) + padding(2) = 16 bytes.
	wantLen := 16
	nextObjectDistance := len(out) - subtablePos
	if nextObjectDistance < wantLen {
		t.Fatalf("subtable region too short for header+offsets+padding: got %d bytes available, want at least %d", nextObjectDistance, wantLen)
	}
	padding := u16(out, subtablePos+8+2*3)
	if padding != 0 {
		t.Fatalf("expected zero padding uint16, got %d", padding)
	}
}

func TestSubsetNoPaddingWhenOffsetCountIsEven(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[1] = 1

	args := Args{
		Sizes: []BitmapSize{
			{PPemX: 8, PPemY: 8, Images: []GlyphImage{{Glyph: 1, Data: []byte{7, 7}}}},
		},
	}
	s := serialize.New(512)
	if _, err := Subset(p, s, args); err != nil {
		t.Fatal(err)
	}
	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	got := decodeBitmapSize(t, out, 0, 1)
	want := decodedSubtable{
		firstGID: 1, lastGID: 1,
		indexFormat: 3, imageFormat: 0, imageDataOffset: 4,
		offsets: []int{0, 2},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(decodedSubtable{})); diff != "" {
		t.Fatalf("decoded subtable mismatch (-want +got):\n%s", diff)
	}
}

// TestSubsetGapInGlyphRangeIsZeroLength covers a non-image glyph inside the
// retained range: its offset must equal the following glyph's offset,
// encoding a zero-length run rather than being omitted from the array.
func TestSubsetGapInGlyphRangeIsZeroLength(t *testing.T) {
	p := plan.New(10)
	p.GlyphMap[1] = 1
	p.GlyphMap[2] = 2 // no image at this size
	p.GlyphMap[3] = 3

	args := Args{
		Sizes: []BitmapSize{
			{PPemX: 8, PPemY: 8, Images: []GlyphImage{
				{Glyph: 1, Data: []byte{1, 1}},
				{Glyph: 3, Data: []byte{3, 3, 3}},
			}},
		},
	}
	s := serialize.New(512)
	if _, err := Subset(p, s, args); err != nil {
		t.Fatal(err)
	}
	out, err := s.CopyBytes()
	if err != nil {
		t.Fatal(err)
	}
	got := decodeBitmapSize(t, out, 0, 3)
	want := decodedSubtable{
		firstGID: 1, lastGID: 3,
		indexFormat: 3, imageFormat: 0, imageDataOffset: 4,
		offsets: []int{0, 2, 2, 5},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(decodedSubtable{})); diff != "" {
		t.Fatalf("decoded subtable mismatch (-want +got):\n%s", diff)
	}
}
