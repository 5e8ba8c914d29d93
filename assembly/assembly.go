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
Package assembly runs the complete assembly pipeline: k-mer indexing,
de Bruijn graph construction and simplification, contig extraction,
read mapping, and optionally scaffolding.
*/
package assembly

import (
	"context"
	"fmt"
	"log"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/exascience/elassemble/align"
	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/graph"
	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/scaffold"
	"github.com/exascience/elassemble/sequence"
)

type assembler struct {
	ctx    context.Context
	params Params
	result *Result
}

func (a *assembler) warn(phase Phase, kind WarningKind, format string, args ...interface{}) {
	w := Warning{Phase: phase, Kind: kind, Message: fmt.Sprintf(format, args...)}
	log.Println("Warning:", w)
	a.result.Warnings = append(a.result.Warnings, w)
}

// run executes one phase. Errors caused by cancellation are wrapped
// in a *CancelledError for the phase.
func (a *assembler) run(phase Phase, msg string, f func() error) (err error) {
	if err := a.ctx.Err(); err != nil {
		return &CancelledError{Phase: phase, Err: err}
	}
	if a.params.Profile != "" {
		file := internal.FileCreate(a.params.Profile + strconv.Itoa(int(phase)) + ".prof")
		defer internal.Close(file)
		if err := pprof.StartCPUProfile(file); err != nil {
			log.Panic(err)
		}
		defer pprof.StopCPUProfile()
	}
	if a.params.Timed {
		log.Println(msg)
		start := time.Now()
		defer func() {
			end := time.Now()
			log.Println("Elapsed time: ", end.Sub(start))
		}()
	}
	err = f()
	if ctxErr := a.ctx.Err(); ctxErr != nil {
		return &CancelledError{Phase: phase, Err: ctxErr}
	}
	if err != nil {
		return fmt.Errorf("%v, during %v", err, phase)
	}
	return nil
}

func logStats(what string, lengths []int) contig.Statistics {
	stats := contig.Stats(lengths)
	log.Printf("%v %v, total length %v, longest %v, N50 %v.", humanize.Comma(int64(stats.Count)), what,
		humanize.Comma(int64(stats.Total)), humanize.Comma(int64(stats.Longest)), humanize.Comma(int64(stats.N50)))
	return stats
}

/*
Assemble assembles the reads. Read pairs refer to the given libraries
by name.

The parameters are completed with defaults and validated first; an
invalid parameter results in a *ParameterError. When ctx is cancelled,
Assemble returns a nil result and a *CancelledError, which matches
ErrCancelled as well as the context's error.

The result does not depend on params.Workers.
*/
func Assemble(ctx context.Context, reads []*sequence.Read, libs sequence.Libraries, params Params) (*Result, error) {
	params.complete()
	if err := params.Validate(sequence.ShortestLength(reads)); err != nil {
		return nil, err
	}
	aligner, _ := align.New(params.Aligner)
	result := &Result{RunID: uuid.New(), Params: params, Libraries: libs}
	a := &assembler{ctx: ctx, params: params, result: result}
	workers := internal.Workers(params.Workers)
	k := params.KmerLength

	log.Printf("Assembly %v of %v reads with %v bases, k = %v.", result.RunID,
		humanize.Comma(int64(len(reads))), humanize.Comma(sequence.TotalLength(reads)), k)
	result.Stats.Reads = len(reads)
	result.Stats.Bases = sequence.TotalLength(reads)

	var index *kmer.Index
	if err := a.run(Indexing, "Indexing k-mers.", func() (err error) {
		if index, err = kmer.Build(ctx, reads, k, workers); err != nil {
			return err
		}
		result.Stats.Kmers = index.Len()
		result.Stats.KmerDepth = index.TotalDepth()
		result.Stats.Histogram = index.Histogram()
		log.Printf("%v distinct k-mers, %v in total.", humanize.Comma(int64(index.Len())), humanize.Comma(int64(index.TotalDepth())))
		return nil
	}); err != nil {
		return nil, err
	}

	var g *graph.Graph
	if err := a.run(GraphConstruction, "Building de Bruijn graph.", func() (err error) {
		if g, err = graph.Build(ctx, index, workers); err != nil {
			return err
		}
		log.Printf("%v graph nodes.", humanize.Comma(int64(g.Len())))
		return nil
	}); err != nil {
		return nil, err
	}
	index = nil

	if err := a.run(Simplification, "Simplifying graph.", func() (err error) {
		s := &graph.Simplifier{
			DanglingLinksThreshold:       params.DanglingLinksThreshold,
			RedundantPathLengthThreshold: params.RedundantPathLengthThreshold,
			MaxIterations:                params.MaxSimplifyIterations,
			Workers:                      workers,
		}
		if params.AllowErosion {
			s.ErosionThreshold = uint32(params.ErosionThreshold)
		}
		report, err := s.Simplify(ctx, g)
		if err != nil {
			return err
		}
		result.Stats.Simplification = report
		if report.ErodedNodes > 0 {
			log.Printf("Erosion removed %v nodes.", humanize.Comma(int64(report.ErodedNodes)))
		}
		if !report.Converged {
			a.warn(Simplification, Truncated, "simplification did not converge after %v rounds", len(report.Passes))
		}
		if params.GraphDot != nil {
			if n := g.Len(); n > params.GraphDotMaxNodes {
				a.warn(Simplification, Truncated, "graph of %v nodes not written in dot format, the maximum is %v",
					humanize.Comma(int64(n)), humanize.Comma(int64(params.GraphDotMaxNodes)))
			} else if err := g.WriteDot(params.GraphDot, params.GraphDotMaxNodes); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := a.run(ContigExtraction, "Extracting contigs.", func() (err error) {
		contigs, loops, err := contig.Build(ctx, g)
		if err != nil {
			return err
		}
		for _, loop := range loops {
			a.warn(ContigExtraction, Informational, "unresolved loop of %v nodes cut after node %v", loop.Nodes, loop.CutAfter)
		}
		if params.AllowLowCoverageContigRemoval {
			var removed int
			contigs, removed = contig.RemoveLowCoverage(contigs, params.ContigCoverageThreshold)
			log.Printf("Removed %v contigs with coverage below %v.", removed, params.ContigCoverageThreshold)
		}
		result.Contigs = contigs
		result.Stats.Contigs = logStats("contigs", contig.Lengths(contigs))
		return nil
	}); err != nil {
		return nil, err
	}
	g = nil

	if err := a.run(Mapping, "Mapping reads to contigs.", func() (err error) {
		placements := contig.NewIndex(result.Contigs, k)
		if result.Unplaced, err = contig.Map(ctx, placements, reads, workers); err != nil {
			return err
		}
		if n := len(result.Unplaced); n > 0 {
			a.warn(Mapping, Informational, "%v reads could not be placed on a contig", humanize.Comma(int64(n)))
		}
		result.Breadth = contig.Breadth(result.Contigs, workers)
		return nil
	}); err != nil {
		return nil, err
	}

	if params.GenerateScaffolds {
		if err := a.run(Scaffolding, "Scaffolding contigs.", func() error {
			return a.scaffold(reads, libs, aligner)
		}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (a *assembler) scaffold(reads []*sequence.Read, libs sequence.Libraries, aligner align.Aligner) error {
	scaffolds, err := scaffold.Build(a.ctx, a.result.Contigs, reads, libs, scaffold.Params{
		Depth:            a.params.Depth,
		Redundancy:       a.params.ScaffoldRedundancy,
		DuplicateRepeats: a.params.DuplicateRepeats,
		Aligner:          aligner,
		MinOverlap:       internal.MinInt(scaffold.DefaultMinOverlap, a.params.KmerLength-1),
	})
	if err != nil {
		return err
	}
	result, report := a.result, scaffolds.Report
	result.Scaffolds = scaffolds.Scaffolds
	result.Unscaffolded = scaffolds.Unscaffolded
	result.Libraries = scaffolds.Libraries
	result.ConstraintGraph = scaffolds.Graph
	for _, lib := range scaffolds.Libraries.Sorted() {
		log.Println("Library", lib)
	}
	log.Printf("%v read pairs placed, %v contig links, %v trusted.", humanize.Comma(int64(report.Pairs)),
		humanize.Comma(int64(report.Edges)), humanize.Comma(int64(report.TrustedEdges)))
	for _, name := range report.UnestimatedLibraries {
		a.warn(Scaffolding, Informational, "too few pairs to estimate the insert size of library %v", name)
	}
	if report.UnknownLibraryPairs > 0 {
		a.warn(Scaffolding, Informational, "%v read pairs refer to an unknown library", report.UnknownLibraryPairs)
	}
	for _, c := range report.RepeatContigs {
		a.warn(Scaffolding, Informational, "%v is a repeat junction", result.Contigs[c])
	}
	if report.DepthTruncated {
		a.warn(Scaffolding, Truncated, "scaffold paths were cut at depth %v", a.params.Depth)
	}
	if report.CandidatesTruncated {
		a.warn(Scaffolding, Truncated, "the number of candidate scaffold paths reached %v", scaffold.DefaultMaxCandidatePaths)
	}
	log.Printf("%v junctions joined by overlaps, %v by gaps.", report.Overlaps, report.Gaps)
	result.Stats.Scaffolds = logStats("scaffolds", scaffoldLengths(result.Scaffolds))
	return nil
}
