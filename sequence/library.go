// elAssemble: a high-performance de novo assembler for short reads.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elassemble/blob/master/LICENSE.txt>.

package sequence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exascience/elassemble/utils"
)

// Orientation is the relative strand convention of the two mates of
// a library.
type Orientation int

const (
	// FR pairs face each other: mate 1 forward, mate 2 reverse.
	FR Orientation = iota
	// RF pairs face away from each other (mate pair libraries).
	RF
	// FF pairs are on the same strand.
	FF
)

func (o Orientation) String() string {
	switch o {
	case FR:
		return "FR"
	case RF:
		return "RF"
	case FF:
		return "FF"
	default:
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
}

// ParseOrientation parses FR, RF, or FF, ignoring case.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(s) {
	case "FR", "":
		return FR, nil
	case "RF":
		return RF, nil
	case "FF":
		return FF, nil
	}
	return FR, fmt.Errorf("unknown library orientation %v", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Orientation) UnmarshalText(text []byte) (err error) {
	*o, err = ParseOrientation(string(text))
	return
}

// A Library describes the insert size distribution of a paired read
// library. A MeanInsert of 0 requests estimation from the data.
type Library struct {
	Name        utils.Symbol
	MeanInsert  float64
	StdDev      float64
	Orientation Orientation
}

// NewLibrary creates a library with an interned name.
func NewLibrary(name string, mean, stdDev float64, orientation Orientation) *Library {
	return &Library{
		Name:        utils.Intern(name),
		MeanInsert:  mean,
		StdDev:      stdDev,
		Orientation: orientation,
	}
}

// NeedsEstimate reports whether the insert size still needs to be
// estimated.
func (lib *Library) NeedsEstimate() bool {
	return lib.MeanInsert == 0
}

func (lib *Library) String() string {
	return fmt.Sprintf("%v:%v:%v:%v", *lib.Name, lib.MeanInsert, lib.StdDev, lib.Orientation)
}

// Libraries indexes libraries by name.
type Libraries map[utils.Symbol]*Library

// NewLibraries indexes the given libraries. Later entries with the
// same name replace earlier ones.
func NewLibraries(libs []*Library) Libraries {
	result := make(Libraries, len(libs))
	for _, lib := range libs {
		result[lib.Name] = lib
	}
	return result
}

// Sorted returns the libraries ordered by name.
func (libs Libraries) Sorted() []*Library {
	result := make([]*Library, 0, len(libs))
	for _, lib := range libs {
		result = append(result, lib)
	}
	sort.Slice(result, func(i, j int) bool {
		return utils.SymbolLess(result[i].Name, result[j].Name)
	})
	return result
}
