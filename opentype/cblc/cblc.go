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

// Package cblc implements the subset-table protocol for the embedded
// bitmap location/data table pair CBLC/CBDT (§4.3 "CBLC / CBDT").
package cblc

import (
	"fmt"

	"golang.org/x/exp/slices"

	"seehuhn.de/go/sfntsubset/glyph"
	"seehuhn.de/go/sfntsubset/opentype/layout"
	"seehuhn.de/go/sfntsubset/plan"
	"seehuhn.de/go/sfntsubset/serialize"
)

var errOffsetOverflow = fmt.Errorf("sfntsubset/cblc: format 3 image data offset exceeds 16 bits")

// GlyphImage is one source glyph's raw CBDT image record, exactly as
// copied from the source font (the byte content — small metrics, big
// metrics, or nothing, depending on the index subtable's image format — is
// opaque to this package; it is copied verbatim).
type GlyphImage struct {
	Glyph glyph.ID
	Data  []byte
}

// BitmapSize is one CBLC BitmapSize record's input: a pixel size plus the
// set of glyph images at that size, in ascending source-glyph order.
type BitmapSize struct {
	PPemX, PPemY           uint8
	BitDepth               uint8
	Flags                  uint8
	Images                 []GlyphImage
}

// Args is the per-call input to Subset.
type Args struct {
	Sizes []BitmapSize
}

// Result is returned by Subset: the CBLC table's packed index plus the
// finished CBDT byte buffer (CBDT has no internal offsets of its own: its
// "EBDT table version" header is the only structured part, with every
// image appended verbatim after it, so it is built directly rather than
// through the serializer).
type Result struct {
	CBLC serialize.ObjIdx
	CBDT []byte
}

// Subset rewrites CBLC/CBDT together: for each retained bitmap size, the
// IndexSubTableArray is rebuilt around one format-3 index subtable (a
// uint16 offset array spanning [firstGlyphIndex, lastGlyphIndex], padded to
// 32-bit alignment when the offset count is odd), images are copied into a
// freshly built CBDT buffer, and sizes that lose every image-bearing glyph
// are dropped.
func Subset(p *plan.Plan, s *serialize.Serializer, args Args) (Result, error) {
	cbdt := []byte{0, 3, 0, 0} // CBDT table version 3.0 (uint16 major, uint16 minor)

	var sizeIdx []serialize.ObjIdx
	var kept []BitmapSize
	for _, size := range args.Sizes {
		idx, err := emitBitmapSize(p, s, &cbdt, size)
		if err == serialize.ErrEmpty {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		sizeIdx = append(sizeIdx, idx)
		kept = append(kept, size)
	}

	if len(sizeIdx) == 0 {
		return Result{}, serialize.ErrEmpty
	}

	if err := s.Push(); err != nil {
		return Result{}, err
	}
	if _, err := s.Embed(serialize.Uint16(2)); err != nil { // majorVersion
		return Result{}, err
	}
	if _, err := s.Embed(serialize.Uint16(0)); err != nil { // minorVersion
		return Result{}, err
	}
	if _, err := s.Embed(serialize.Uint32(len(sizeIdx))); err != nil {
		return Result{}, err
	}
	for i, idx := range sizeIdx {
		if err := embedBitmapSizeHeader(s, idx, kept[i]); err != nil {
			return Result{}, err
		}
	}
	cblcIdx, ok := s.PopPack(false)
	if !ok {
		return Result{}, serialize.ErrEmpty
	}

	return Result{CBLC: cblcIdx, CBDT: cbdt}, nil
}

// emitBitmapSize rebuilds one size's IndexSubTableArray (one format-3
// subtable covering every retained glyph at this size) and appends the
// surviving images to cbdt. It returns the packed IndexSubTableArray
// object, ready to be linked from the BitmapSize record's
// indexSubTableArrayOffset.
func emitBitmapSize(p *plan.Plan, s *serialize.Serializer, cbdt *[]byte, size BitmapSize) (serialize.ObjIdx, error) {
	type retainedImage struct {
		newGID glyph.ID
		data   []byte
	}
	var retained []retainedImage
	for _, img := range size.Images {
		newGID, ok := p.NewGID(img.Glyph)
		if !ok || len(img.Data) == 0 {
			continue
		}
		retained = append(retained, retainedImage{newGID: newGID, data: img.Data})
	}
	if len(retained) == 0 {
		return 0, serialize.ErrEmpty
	}
	slices.SortFunc(retained, func(a, b retainedImage) int { return int(a.newGID) - int(b.newGID) })

	byGID := make(map[glyph.ID][]byte, len(retained))
	for _, img := range retained {
		byGID[img.newGID] = img.data
	}
	firstGID := retained[0].newGID
	lastGID := retained[len(retained)-1].newGID
	numGlyphs := int(lastGID-firstGID) + 1

	// Format 3's offsetArray has one entry per glyph in [firstGID, lastGID]
	// plus a trailing sentinel, each an offset (relative to imageDataOffset)
	// into cbdt; a glyph with no image gets the same offset as the next
	// entry, encoding a zero-length run.
	imageDataOffset := len(*cbdt)
	offsets := make([]uint32, numGlyphs+1)
	var running uint32
	for i := 0; i < numGlyphs; i++ {
		offsets[i] = running
		if data, ok := byGID[firstGID+glyph.ID(i)]; ok {
			*cbdt = append(*cbdt, data...)
			running += uint32(len(data))
		}
	}
	offsets[numGlyphs] = running
	if running > 0xFFFF {
		return 0, errOffsetOverflow
	}

	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(3)); err != nil { // indexFormat
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(0)); err != nil { // imageFormat: copied verbatim
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint32(imageDataOffset)); err != nil {
		return 0, err
	}
	for _, off := range offsets {
		if _, err := s.Embed(serialize.Uint16(off)); err != nil {
			return 0, err
		}
	}
	// The offsetArray has numGlyphs+1 entries; pad with a zero uint16 to
	// keep the subtable 32-bit aligned when that count is odd.
	if (numGlyphs+1)%2 == 1 {
		if _, err := s.Embed(serialize.Uint16(0)); err != nil {
			return 0, err
		}
	}

	subtable, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}

	return emitIndexSubTableArray(s, subtable, firstGID, lastGID)
}

// emitIndexSubTableArray builds the single-entry IndexSubTableArray that
// precedes a BitmapSize's index subtable: firstGlyphIndex, lastGlyphIndex,
// and an offset to the subtable itself, relative to this array's own start
// (§4.3 "the first and last glyph IDs of each index subtable are
// recomputed from the post-remap set").
func emitIndexSubTableArray(s *serialize.Serializer, subtable serialize.ObjIdx, firstGID, lastGID glyph.ID) (serialize.ObjIdx, error) {
	if err := s.Push(); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(firstGID)); err != nil {
		return 0, err
	}
	if _, err := s.Embed(serialize.Uint16(lastGID)); err != nil {
		return 0, err
	}
	if err := layout.EmbedOffset32(s, func() (serialize.ObjIdx, bool, error) {
		return subtable, true, nil
	}); err != nil {
		return 0, err
	}

	idx, ok := s.PopPack(false)
	if !ok {
		return 0, serialize.ErrEmpty
	}
	return idx, nil
}

func embedBitmapSizeHeader(s *serialize.Serializer, indexSubTableArray serialize.ObjIdx, size BitmapSize) error {
	// indexSubTableArrayOffset is relative to the start of the CBLC table,
	// which is the object currently open while this header is written.
	if err := layout.EmbedOffset32(s, func() (serialize.ObjIdx, bool, error) {
		return indexSubTableArray, true, nil
	}); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint8(size.BitDepth)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint8(size.Flags)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint8(size.PPemX)); err != nil {
		return err
	}
	if _, err := s.Embed(serialize.Uint8(size.PPemY)); err != nil {
		return err
	}
	return nil
}
