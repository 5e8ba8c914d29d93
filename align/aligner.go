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

// Package align provides the pairwise overlap aligners used to join
// adjacent contigs.
package align

import "fmt"

// An Overlap describes how the end of a left sequence overlaps the
// start of a right sequence.
type Overlap struct {
	// LeftLength is the number of bases of the left sequence in the
	// overlap, counted from its end.
	LeftLength int

	// RightLength is the number of bases of the right sequence in the
	// overlap, counted from its start.
	RightLength int

	// Cigar is the edit script of the right prefix against the left
	// suffix.
	Cigar []CigarOperation

	// Identity is the fraction of alignment columns that are matches.
	Identity float64
}

// An Aligner finds the best overlap of at least minOverlap and at most
// maxOverlap bases between the end of left and the start of right.
type Aligner interface {
	Overlap(left, right []byte, minOverlap, maxOverlap int) (Overlap, bool)
}

// Names of the available aligners.
const (
	SimpleAligner        = "simple"
	SmithWatermanAligner = "smith-waterman"
)

// New returns the aligner with the given name.
func New(name string) (Aligner, error) {
	switch name {
	case SimpleAligner, "":
		return Simple{}, nil
	case SmithWatermanAligner, "sw":
		return SmithWatermanOverlap{Scoring: DefaultScoring}, nil
	}
	return nil, fmt.Errorf("unknown aligner %v", name)
}

// Simple finds the longest exact suffix-prefix match.
type Simple struct{}

// Overlap implements Aligner.
func (Simple) Overlap(left, right []byte, minOverlap, maxOverlap int) (Overlap, bool) {
	l := maxOverlap
	if l > len(left) {
		l = len(left)
	}
	if l > len(right) {
		l = len(right)
	}
	for ; l >= minOverlap && l > 0; l-- {
		if string(left[len(left)-l:]) == string(right[:l]) {
			return Overlap{
				LeftLength:  l,
				RightLength: l,
				Cigar:       []CigarOperation{{int32(l), 'M'}},
				Identity:    1,
			}, true
		}
	}
	return Overlap{}, false
}

// SmithWatermanOverlap aligns the end of the left sequence with the
// start of the right one, allowing mismatches and indels.
type SmithWatermanOverlap struct {
	Scoring Scoring
}

// Overlap implements Aligner.
func (a SmithWatermanOverlap) Overlap(left, right []byte, minOverlap, maxOverlap int) (Overlap, bool) {
	if minOverlap < 1 {
		minOverlap = 1
	}
	window := maxOverlap
	if window > len(left) {
		window = len(left)
	}
	reference := left[len(left)-window:]
	queryLength := maxOverlap + maxOverlap/10 + 1
	if queryLength > len(right) {
		queryLength = len(right)
	}
	query := right[:queryLength]
	if len(reference) < minOverlap || len(query) < minOverlap {
		return Overlap{}, false
	}
	cigar, offset := SmithWaterman(reference, query, a.Scoring)
	if len(cigar) == 0 || cigar[0].Operation == 'S' {
		return Overlap{}, false
	}
	aligned := cigar
	if last := cigar[len(cigar)-1]; last.Operation == 'S' {
		aligned = cigar[:len(cigar)-1]
	}
	if int(offset)+int(ReferenceLength(aligned)) != len(reference) {
		return Overlap{}, false
	}
	overlap := Overlap{
		LeftLength:  len(reference) - int(offset),
		RightLength: int(ReadLength(aligned)),
		Cigar:       aligned,
		Identity:    identity(reference[offset:], query, aligned),
	}
	if overlap.LeftLength < minOverlap || overlap.RightLength < minOverlap {
		return Overlap{}, false
	}
	return overlap, true
}

func identity(reference, query []byte, cigar []CigarOperation) float64 {
	var r, q, matches, columns int
	for _, op := range cigar {
		n := int(op.Length)
		switch op.Operation {
		case 'M':
			for i := 0; i < n; i++ {
				if reference[r+i] == query[q+i] {
					matches++
				}
			}
			r += n
			q += n
		case 'I':
			q += n
		case 'D':
			r += n
		}
		columns += n
	}
	if columns == 0 {
		return 0
	}
	return float64(matches) / float64(columns)
}
