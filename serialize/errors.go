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
	"errors"
	"strings"
)

// Flags is the serializer's sticky error-flag bitset (§3.1, §7 of the
// design).  Operations OR bits into this set instead of returning a
// per-call error; a typical table driver performs dozens of writes between
// observable boundaries, and checking each one individually would bloat
// every call site without adding safety (see the design note on sticky
// error state vs. result types).
type Flags uint16

const (
	// FlagNone means no error has occurred.
	FlagNone Flags = 0
	// FlagOther is a catch-all for internal invariant violations.
	FlagOther Flags = 1 << (iota - 1)
	// FlagOffsetOverflow means a link's resolved value did not fit in its
	// declared width/sign. Recoverable via snapshot/revert.
	FlagOffsetOverflow
	// FlagOutOfRoom means the serializer buffer was exhausted. Fatal.
	FlagOutOfRoom
	// FlagIntOverflow means an arithmetic quantity exceeded a 16-bit
	// field. Recoverable via snapshot/revert.
	FlagIntOverflow
	// FlagArrayOverflow means an array count exceeded a 16-bit field.
	// Recoverable via snapshot/revert.
	FlagArrayOverflow
	// FlagReadError means the source table being subset was malformed.
	// Fatal for the affected table; not part of spec.md's minimal
	// §3.1 bitset, but used the same way by the reference
	// implementation's table drivers (e.g. pair_pos.rs sets this when a
	// PairValueRecord fails to parse) and by §7's enumeration of error
	// kinds ("Read error").
	FlagReadError
)

var flagNames = map[Flags]string{
	FlagOther:          "other",
	FlagOffsetOverflow: "offset overflow",
	FlagOutOfRoom:      "out of room",
	FlagIntOverflow:    "int overflow",
	FlagArrayOverflow:  "array overflow",
	FlagReadError:      "read error",
}

// overflowBits is the subset of flags that §3.1 calls "only overflow":
// accumulating only these bits still permits snapshot/revert recovery.
const overflowBits = FlagOffsetOverflow | FlagIntOverflow | FlagArrayOverflow

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var names []string
	for bit, name := range flagNames {
		if f&bit != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// Error wraps a non-zero Flags value so it can be returned as a Go error.
type Error struct {
	Flags Flags
}

func (e *Error) Error() string {
	return "serialize: " + e.Flags.String()
}

// AsFlags extracts the Flags from err, if err is (or wraps) a *Error.
func AsFlags(err error) (Flags, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Flags, true
	}
	return FlagNone, false
}

// ErrEmpty is the sentinel a table driver's Subset method returns when the
// table collapsed to nothing after subsetting: the caller must drop the
// surrounding offset rather than emit a table with no content (§4.3, §7
// "Empty result"). It deliberately is not a Flags bit: it is never
// surfaced as a fatal condition.
var ErrEmpty = errors.New("serialize: empty table, drop offset")
