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

package scaffold

import (
	"math"

	"github.com/exascience/elassemble/align"
	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/sequence"
)

// A Delta describes the junction between two adjacent contigs of a
// scaffold: either an overlap found by the aligner, or a run of Ns.
type Delta struct {
	Overlap align.Overlap
	Gap     int
}

// Overlaps reports whether the junction is an overlap.
func (d Delta) Overlaps() bool {
	return d.Overlap.LeftLength > 0
}

// oriented returns the sequence of the contig on the strand of e.
func oriented(contigs []*contig.Contig, e End) []byte {
	seq := contigs[e.Contig].Seq
	if e.Fwd {
		return seq
	}
	return sequence.ReverseComplement(seq)
}

// refine computes the junction for an edge. The aligner is only
// consulted when the estimated gap is within three standard
// deviations of an overlap. The deviation is that of the observed
// gaps, but never less than that of the libraries, so that edges
// supported by a single pair are still checked for an overlap.
func refine(left, right []byte, edge Edge, params Params) Delta {
	sd := math.Max(math.Sqrt(edge.Variance), edge.StdDev)
	if edge.Gap-3*sd <= 0 {
		maxOverlap := int(math.Ceil(-edge.Gap+3*sd)) + params.MinOverlap
		if overlap, ok := params.Aligner.Overlap(left, right, params.MinOverlap, maxOverlap); ok && overlap.Identity >= params.MinIdentity {
			return Delta{Overlap: overlap}
		}
	}
	gap := int(math.Round(edge.Gap))
	if gap < 1 {
		gap = 1
	}
	return Delta{Gap: gap}
}

// A Step is one oriented contig of a scaffold.
type Step struct {
	End    End
	Contig *contig.Contig

	// Offset is the scaffold position of the first base of the
	// oriented contig. Bases the contig shares with its left
	// neighbour may have been taken from that neighbour.
	Offset int

	// The consensus contains Length bases of the oriented contig,
	// starting at Trim.
	Trim, Length int

	// Delta is the junction with the previous step.
	Delta Delta
}

// A Scaffold is an ordered, oriented chain of contigs with its
// consensus sequence.
type Scaffold struct {
	ID    int
	Steps []Step
	Seq   []byte

	// Pairs is the number of read pairs supporting the chain.
	Pairs int

	Sequences []contig.AssembledSequence
}

// Len returns the length of the consensus sequence.
func (s *Scaffold) Len() int {
	return len(s.Seq)
}

/*
consensus concatenates the oriented contigs of a path. Overlapping
bases are taken from the contig with the higher coverage, and gaps are
filled with Ns. The read placements of the contigs are carried over
in scaffold coordinates.
*/
func consensus(contigs []*contig.Contig, path Path, deltas []Delta) *Scaffold {
	capacity := 0
	for i, e := range path.Ends {
		capacity += contigs[e.Contig].Len()
		if i > 0 && !deltas[i-1].Overlaps() {
			capacity += deltas[i-1].Gap
		}
	}
	buf := internal.ReserveSequenceBuffer(capacity)
	defer func() { internal.ReleaseSequenceBuffer(buf) }()
	s := &Scaffold{Steps: make([]Step, len(path.Ends)), Pairs: path.Pairs}
	for i, e := range path.Ends {
		seq := oriented(contigs, e)
		step := Step{End: e, Contig: contigs[e.Contig], Length: len(seq)}
		switch {
		case i == 0:
			buf = append(buf, seq...)
		case deltas[i-1].Overlaps():
			delta := deltas[i-1]
			step.Delta = delta
			left := contigs[path.Ends[i-1].Contig]
			leftLength := internal.MinInt(delta.Overlap.LeftLength, s.Steps[i-1].Length)
			if left.Coverage >= contigs[e.Contig].Coverage {
				step.Offset = len(buf) - leftLength
				step.Trim = delta.Overlap.RightLength
				step.Length -= step.Trim
				buf = append(buf, seq[step.Trim:]...)
			} else {
				buf = buf[:len(buf)-leftLength]
				s.Steps[i-1].Length -= leftLength
				step.Offset = len(buf)
				buf = append(buf, seq...)
			}
		default:
			step.Delta = deltas[i-1]
			for j := 0; j < step.Delta.Gap; j++ {
				buf = append(buf, 'N')
			}
			step.Offset = len(buf)
			buf = append(buf, seq...)
		}
		s.Steps[i] = step
	}
	s.Seq = append([]byte(nil), buf...)
	for _, step := range s.Steps {
		c := contigs[step.End.Contig]
		for _, placed := range c.Sequences {
			if !step.End.Fwd {
				placed.Position = c.Len() - placed.End()
				placed.IsComplemented = !placed.IsComplemented
				placed.IsReversed = !placed.IsReversed
			}
			placed.Position += step.Offset
			s.Sequences = append(s.Sequences, placed)
		}
	}
	contig.SortSequences(s.Sequences)
	return s
}
