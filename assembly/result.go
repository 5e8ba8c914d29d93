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

package assembly

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/graph"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/scaffold"
	"github.com/exascience/elassemble/sequence"
)

// Statistics summarize the phases of an assembly.
type Statistics struct {
	Reads int
	Bases int64

	Kmers     int
	KmerDepth uint64
	Histogram []kmer.DepthCount

	Simplification graph.SimplifyReport

	Contigs   contig.Statistics
	Scaffolds contig.Statistics
}

// A Result is everything an assembly produced. It is owned by the
// caller.
type Result struct {
	RunID  uuid.UUID
	Params Params

	Contigs []*contig.Contig

	// Breadth is the fraction of the bases of each contig covered by
	// placed reads.
	Breadth []float64

	// Unplaced are the indices of the reads that were not placed on
	// any contig.
	Unplaced []int

	// Scaffolds and Unscaffolded are only set when scaffolds were
	// generated. Libraries then include estimated insert sizes.
	Scaffolds       []*scaffold.Scaffold
	Unscaffolded    []*contig.Contig
	ConstraintGraph *scaffold.ConstraintGraph
	Libraries       sequence.Libraries

	Warnings []Warning
	Stats    Statistics
}

// A Sequence is one named output sequence.
type Sequence struct {
	Name string
	Seq  []byte
}

// Sequences returns the final sequences: the scaffolds followed by the
// contigs that are in no scaffold, or all contigs when no scaffolds
// were generated.
func (result *Result) Sequences() []Sequence {
	var sequences []Sequence
	contigs := result.Contigs
	if result.Params.GenerateScaffolds {
		for _, s := range result.Scaffolds {
			sequences = append(sequences, Sequence{Name: fmt.Sprintf("scaffold%d", s.ID), Seq: s.Seq})
		}
		contigs = result.Unscaffolded
	}
	for _, c := range contigs {
		sequences = append(sequences, Sequence{Name: c.String(), Seq: c.Seq})
	}
	return sequences
}

func scaffoldLengths(scaffolds []*scaffold.Scaffold) []int {
	lengths := make([]int, len(scaffolds))
	for i, s := range scaffolds {
		lengths[i] = s.Len()
	}
	return lengths
}
