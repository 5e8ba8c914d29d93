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

// Package sequence contains the immutable inputs of an assembly: reads,
// their pairing, and the sequencing libraries the pairs come from.
package sequence

import (
	"fmt"

	"github.com/exascience/elassemble/utils"
)

// PairedReadInfo links a read to its mate.
type PairedReadInfo struct {
	// Mate is the index of the mate in the read slice.
	Mate int

	// Library is the name of the library the pair belongs to.
	Library utils.Symbol

	// First is true for mate 1 of the pair.
	First bool
}

// A Read is a sequence over {A,C,G,T,N} with an optional identifier
// and optional pairing information. Reads are never modified once an
// assembly starts.
type Read struct {
	ID   string
	Seq  []byte
	Pair *PairedReadInfo
}

// NewRead creates a read, normalizing all bases of seq in place.
func NewRead(id string, seq []byte) *Read {
	Normalize(seq)
	return &Read{ID: id, Seq: seq}
}

// Len returns the number of bases in the read.
func (read *Read) Len() int {
	return len(read.Seq)
}

// IsPaired returns true if the read has a mate.
func (read *Read) IsPaired() bool {
	return read.Pair != nil
}

// SetPair marks reads[i] and reads[j] as mates of the given library,
// with reads[i] as mate 1.
func SetPair(reads []*Read, i, j int, library utils.Symbol) error {
	if i == j || i < 0 || j < 0 || i >= len(reads) || j >= len(reads) {
		return fmt.Errorf("invalid mate indices %v and %v for %v reads", i, j, len(reads))
	}
	reads[i].Pair = &PairedReadInfo{Mate: j, Library: library, First: true}
	reads[j].Pair = &PairedReadInfo{Mate: i, Library: library}
	return nil
}

// ShortestLength returns the length of the shortest read, or 0 if
// there are no reads.
func ShortestLength(reads []*Read) int {
	if len(reads) == 0 {
		return 0
	}
	shortest := reads[0].Len()
	for _, read := range reads[1:] {
		if l := read.Len(); l < shortest {
			shortest = l
		}
	}
	return shortest
}

// TotalLength returns the number of bases of all reads.
func TotalLength(reads []*Read) (total int64) {
	for _, read := range reads {
		total += int64(read.Len())
	}
	return
}

// PairFiles appends the reads of a second file to those of the first,
// and pairs read i of the first with read i of the second.
func PairFiles(first, second []*Read, library utils.Symbol) ([]*Read, error) {
	if len(first) != len(second) {
		return nil, fmt.Errorf("%v reads cannot be paired with %v mates", len(first), len(second))
	}
	reads := make([]*Read, 0, len(first)+len(second))
	reads = append(append(reads, first...), second...)
	for i := range first {
		if err := SetPair(reads, i, len(first)+i, library); err != nil {
			return nil, err
		}
	}
	return reads, nil
}

// PairInterleaved pairs every read at an even index with the read
// that follows it.
func PairInterleaved(reads []*Read, library utils.Symbol) error {
	if len(reads)%2 != 0 {
		return fmt.Errorf("odd number of interleaved reads %v", len(reads))
	}
	for i := 0; i < len(reads); i += 2 {
		if err := SetPair(reads, i, i+1, library); err != nil {
			return err
		}
	}
	return nil
}
