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

package sfntsubset

import "fmt"

// Tag is a 4-byte OpenType table tag, e.g. "cmap" or "CBLC".
type Tag [4]byte

func (t Tag) String() string { return string(t[:]) }

// InvalidTableError indicates that a source table's bytes could not be
// parsed: malformed lengths, an offset pointing outside the table, or a
// count that doesn't fit the remaining bytes.
type InvalidTableError struct {
	Tag       Tag
	SubSystem string
	Reason    string
}

func (err *InvalidTableError) Error() string {
	return fmt.Sprintf("%s (%s): %s", err.Tag, err.SubSystem, err.Reason)
}

// UnsupportedError indicates that a table uses a recognized but
// unimplemented wire variant, such as an unexpected subtable format
// number.
type UnsupportedError struct {
	SubSystem string
	Feature   string
}

func (err *UnsupportedError) Error() string {
	return err.SubSystem + ": " + err.Feature + " not supported"
}

// SubsetError wraps a per-table failure for the caller driving Subset,
// recording which table tag the underlying error came from.
type SubsetError struct {
	Tag Tag
	Err error
}

func (err *SubsetError) Error() string {
	return fmt.Sprintf("subsetting %s: %s", err.Tag, err.Err)
}

func (err *SubsetError) Unwrap() error { return err.Err }
