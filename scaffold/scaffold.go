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

/*
Package scaffold orders and orients contigs into scaffolds using the
distances and orientations implied by read pairs whose mates were
placed on different contigs.

Scaffolding runs in stages: the constraint graph is built from the
pairs, candidate paths are enumerated and selected while resolving
repeat junctions, the junctions of every selected path are refined
with an aligner, and finally the consensus sequence is generated.
*/
package scaffold

import (
	"context"
	"fmt"

	"github.com/exascience/elassemble/align"
	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/sequence"
)

// Defaults for Params fields that are not set.
const (
	DefaultDepth             = 10
	DefaultRedundancy        = 2
	DefaultMinOverlap        = 10
	DefaultMinIdentity       = 0.9
	DefaultMaxCandidatePaths = 10000
)

// checkInterval is the number of search steps between checks for
// cancellation.
const checkInterval = 1024

// Params control scaffolding.
type Params struct {
	// Depth bounds the number of edges of a scaffold path.
	Depth int

	// Redundancy is the number of supporting read pairs an edge needs
	// to be trusted.
	Redundancy int

	// DuplicateRepeats allows contigs at repeat junctions to be placed
	// in more than one scaffold.
	DuplicateRepeats bool

	Aligner     align.Aligner
	MinOverlap  int
	MinIdentity float64

	MaxCandidatePaths int
}

func (params Params) withDefaults() Params {
	if params.Depth <= 0 {
		params.Depth = DefaultDepth
	}
	if params.Redundancy <= 0 {
		params.Redundancy = DefaultRedundancy
	}
	if params.Aligner == nil {
		params.Aligner = align.Simple{}
	}
	if params.MinOverlap <= 0 {
		params.MinOverlap = DefaultMinOverlap
	}
	if params.MinIdentity <= 0 {
		params.MinIdentity = DefaultMinIdentity
	}
	if params.MaxCandidatePaths <= 0 {
		params.MaxCandidatePaths = DefaultMaxCandidatePaths
	}
	return params
}

// A Report collects what happened during scaffolding that the caller
// may want to warn about.
type Report struct {
	Pairs        int
	Edges        int
	TrustedEdges int

	// RepeatContigs are the contigs at repeat junctions, ascending.
	RepeatContigs []int

	DepthTruncated      bool
	CandidatesTruncated bool

	// UnestimatedLibraries are the libraries without a given insert
	// size for which too few pairs were available to estimate one.
	UnestimatedLibraries []string
	UnknownLibraryPairs  int

	Overlaps int
	Gaps     int
}

// A Result holds the scaffolds, and the contigs that ended up in none.
type Result struct {
	Scaffolds    []*Scaffold
	Unscaffolded []*contig.Contig
	Graph        *ConstraintGraph
	Libraries    sequence.Libraries
	Report       Report
}

/*
Build scaffolds the contigs. The contigs must carry the placements of
the reads, and their IDs must be their indices.

Libraries without an insert size get one estimated from pairs that
fall on a single contig. Read pairs of libraries that are neither
given nor estimated are ignored.
*/
func Build(ctx context.Context, contigs []*contig.Contig, reads []*sequence.Read, libs sequence.Libraries, params Params) (*Result, error) {
	params = params.withDefaults()
	for i, c := range contigs {
		if c.ID != i {
			return nil, fmt.Errorf("contig %v at index %v, while scaffolding", c.ID, i)
		}
	}
	result := &Result{}
	report := &result.Report

	placed := placements(contigs, len(reads))
	pairs, unknown := collectPairs(reads, placed, libs)
	report.Pairs, report.UnknownLibraryPairs = len(pairs), unknown
	result.Libraries, report.UnestimatedLibraries = estimateLibraries(libs, pairs)
	for i := range pairs {
		if lib := result.Libraries[pairs[i].library.Name]; lib != nil {
			pairs[i].library = lib
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := buildConstraintGraph(contigs, pairs)
	result.Graph = g
	report.Edges = len(g.Edges)
	report.TrustedEdges = trusted(g.Edges, params.Redundancy)
	report.RepeatContigs = g.Repeats(params.Redundancy)

	paths, err := resolvePaths(ctx, g, params, report)
	if err != nil {
		return nil, err
	}

	inScaffold := make([]bool, len(contigs))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deltas := make([]Delta, len(path.Edges))
		for i, edge := range path.Edges {
			deltas[i] = refine(oriented(contigs, edge.From), oriented(contigs, edge.To), edge, params)
			if deltas[i].Overlaps() {
				report.Overlaps++
			} else {
				report.Gaps++
			}
		}
		s := consensus(contigs, path, deltas)
		s.ID = len(result.Scaffolds)
		result.Scaffolds = append(result.Scaffolds, s)
		for _, e := range path.Ends {
			inScaffold[e.Contig] = true
		}
	}
	for i, c := range contigs {
		if !inScaffold[i] {
			result.Unscaffolded = append(result.Unscaffolded, c)
		}
	}
	return result, nil
}
