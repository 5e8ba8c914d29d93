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

package align

import (
	"math"
	"sync"

	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/sequence"
)

// Scoring holds the scores of the Smith-Waterman recurrence. Penalties
// are negative.
type Scoring struct {
	Match, Mismatch, GapOpen, GapExtend int32
}

// DefaultScoring favours long matches and penalizes gaps heavily.
var DefaultScoring = Scoring{Match: 200, Mismatch: -150, GapOpen: -260, GapExtend: -11}

const (
	matrixMinCutoff = -100000000
	lowInitValue    = math.MinInt32 / 2
)

type int32Matrix struct {
	cols  int32
	array []int32
}

func (m *int32Matrix) ensureSize(rows, cols int32) {
	m.cols = cols
	totalSize := rows * cols
	if totalSize <= int32(cap(m.array)) {
		m.array = m.array[:totalSize]
		for i := range m.array {
			m.array[i] = 0
		}
	} else {
		m.array = make([]int32, totalSize)
	}
}

func (m *int32Matrix) at(row, col int32) int32 {
	return m.array[row*m.cols+col]
}

func (m *int32Matrix) rowView(row int32) []int32 {
	offset := row * m.cols
	return m.array[offset : offset+m.cols]
}

// The score matrix has a row per reference base and a column per query
// base. A backtrack entry is 0 for a diagonal step, the length of a
// deletion when positive, and minus the length of an insertion when
// negative.
type swMatrices struct {
	score, backtrack   int32Matrix
	gapV, gapH         []int32
	gapSizeV, gapSizeH []int32
}

var swMatricesPool = sync.Pool{New: func() interface{} { return &swMatrices{} }}

func ensureVector(v []int32, size, initValue int32) []int32 {
	if size <= int32(cap(v)) {
		v = v[:size]
	} else {
		v = make([]int32, size)
	}
	for i := range v {
		v[i] = initValue
	}
	return v
}

// lastIndex returns the last exact occurrence of query in reference.
func lastIndex(reference, query []byte) int32 {
	queryLength := int32(len(query))
	for r := int32(len(reference)) - queryLength; r >= 0; r-- {
		q := int32(0)
		for q < queryLength && sequence.ToUpperAndN(reference[r+q]) == query[q] {
			q++
		}
		if q == queryLength {
			return r
		}
	}
	return -1
}

func (m *swMatrices) fill(reference, query []byte, scoring Scoring) {
	nrow, ncol := int32(len(reference))+1, int32(len(query))+1
	m.score.ensureSize(nrow, ncol)
	m.backtrack.ensureSize(nrow, ncol)
	m.gapV = ensureVector(m.gapV, ncol+1, lowInitValue)
	m.gapSizeV = ensureVector(m.gapSizeV, ncol+1, 0)
	m.gapH = ensureVector(m.gapH, nrow+1, lowInitValue)
	m.gapSizeH = ensureVector(m.gapSizeH, nrow+1, 0)

	cur := m.score.rowView(0)
	for i := int32(1); i < nrow; i++ {
		last := cur
		cur = m.score.rowView(i)
		backtrack := m.backtrack.rowView(i)
		for j := int32(1); j < ncol; j++ {
			diag := last[j-1] + scoring.Mismatch
			if reference[i-1] == query[j-1] {
				diag = last[j-1] + scoring.Match
			}

			m.gapV[j] += scoring.GapExtend
			if open := last[j] + scoring.GapOpen; open > m.gapV[j] {
				m.gapV[j], m.gapSizeV[j] = open, 1
			} else {
				m.gapSizeV[j]++
			}

			m.gapH[i] += scoring.GapExtend
			if open := cur[j-1] + scoring.GapOpen; open > m.gapH[i] {
				m.gapH[i], m.gapSizeH[i] = open, 1
			} else {
				m.gapSizeH[i]++
			}

			down, right := m.gapV[j], m.gapH[i]
			switch {
			case diag >= down && diag >= right:
				cur[j], backtrack[j] = internal.MaxInt32(matrixMinCutoff, diag), 0
			case right >= down:
				cur[j], backtrack[j] = internal.MaxInt32(matrixMinCutoff, right), -m.gapSizeH[i]
			default:
				cur[j], backtrack[j] = internal.MaxInt32(matrixMinCutoff, down), m.gapSizeV[j]
			}
		}
	}
}

// end picks the cell the traceback starts from: the best score in the
// last query column, or in the last reference row when that is better,
// preferring the cell closest to the diagonal end on ties. It returns
// the number of query bases left unaligned at the end.
func (m *swMatrices) end(refLength, queryLength int32) (p1, p2, clipped int32) {
	best := int32(math.MinInt32)
	p2 = queryLength
	for i := int32(1); i <= refLength; i++ {
		if score := m.score.at(i, queryLength); score >= best {
			p1, best = i, score
		}
	}
	bottom := m.score.rowView(refLength)
	for j := int32(1); j <= queryLength; j++ {
		if score := bottom[j]; score > best || score == best && internal.AbsInt32(refLength-j) < internal.AbsInt32(p1-p2) {
			p1, p2, best = refLength, j, score
			clipped = queryLength - j
		}
	}
	return
}

func appendOperation(cigar []CigarOperation, length int32, operation byte) []CigarOperation {
	switch {
	case length == 0:
		return cigar
	case len(cigar) > 0 && cigar[len(cigar)-1].Operation == operation:
		cigar[len(cigar)-1].Length += length
		return cigar
	default:
		return append(cigar, CigarOperation{length, operation})
	}
}

/*
SmithWaterman aligns query against reference with affine gap
penalties. It returns the edit script of the query, and the offset in
the reference where the alignment starts.

Leading gaps are free in both sequences, and query bases that do not
take part in the alignment are soft clipped. The alignment ends either
where the query is used up, or where the reference is used up.
*/
func SmithWaterman(reference, query []byte, scoring Scoring) ([]CigarOperation, int32) {
	if offset := lastIndex(reference, query); offset >= 0 {
		return []CigarOperation{{int32(len(query)), 'M'}}, offset
	}

	m := swMatricesPool.Get().(*swMatrices)
	defer swMatricesPool.Put(m)
	m.fill(reference, query, scoring)
	p1, p2, clipped := m.end(int32(len(reference)), int32(len(query)))

	// The traceback collects the operations from the end backwards.
	reversed := appendOperation(make([]CigarOperation, 0, 5), clipped, 'S')
	for p1 > 0 && p2 > 0 {
		switch btr := m.backtrack.at(p1, p2); {
		case btr > 0:
			reversed = appendOperation(reversed, btr, 'D')
			p1 -= btr
		case btr < 0:
			reversed = appendOperation(reversed, -btr, 'I')
			p2 += btr
		default:
			reversed = appendOperation(reversed, 1, 'M')
			p1--
			p2--
		}
	}
	reversed = appendOperation(reversed, p2, 'S')

	cigar := make([]CigarOperation, len(reversed))
	for i, op := range reversed {
		cigar[len(reversed)-1-i] = op
	}
	return cigar, p1
}
