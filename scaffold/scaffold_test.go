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
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/internal/simulate"
	"github.com/exascience/elassemble/sequence"
)

func mapReads(t *testing.T, contigs []*contig.Contig, reads []*sequence.Read) {
	index := contig.NewIndex(contigs, 21)
	if _, err := contig.Map(context.Background(), index, reads, 2); err != nil {
		t.Fatal(err)
	}
}

func starts(from, to, step int) (result []int) {
	for s := from; s <= to; s += step {
		result = append(result, s)
	}
	return
}

func TestScaffoldOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(2000))
	genome := simulate.Genome(rng, 1300)
	lib := sequence.NewLibrary("ordering", 500, 20, sequence.FR)
	reads := simulate.Pairs(genome, 100, 500, starts(300, 500, 10), lib)
	contigs := []*contig.Contig{
		{ID: 0, Seq: append([]byte(nil), genome[:600]...), Coverage: 10},
		{ID: 1, Seq: sequence.ReverseComplement(genome[700:]), Coverage: 10},
	}
	mapReads(t, contigs, reads)
	result, err := Build(context.Background(), contigs, reads, sequence.NewLibraries([]*sequence.Library{lib}), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Scaffolds) != 1 || len(result.Unscaffolded) != 0 {
		t.Fatal("expected one scaffold, got", len(result.Scaffolds))
	}
	s := result.Scaffolds[0]
	if len(s.Steps) != 2 || s.Steps[0].End != (End{0, true}) || s.Steps[1].End != (End{1, false}) {
		t.Fatal("unexpected scaffold layout", s.Steps)
	}
	if gap := s.Steps[1].Delta.Gap; gap < 80 || gap > 120 || s.Steps[1].Delta.Overlaps() {
		t.Error("unexpected gap", s.Steps[1].Delta)
	}
	expected := append(append([]byte(nil), genome[:600]...), bytes.Repeat([]byte("N"), s.Steps[1].Delta.Gap)...)
	expected = append(expected, genome[700:]...)
	if !bytes.Equal(s.Seq, expected) {
		t.Error("unexpected scaffold sequence")
	}
	if s.Pairs != 21 || len(s.Sequences) != 42 {
		t.Error("unexpected support", s.Pairs, len(s.Sequences))
	}
	for _, placed := range s.Sequences {
		seq := placed.Read.Seq
		if placed.IsComplemented {
			seq = sequence.ReverseComplement(seq)
		}
		if !bytes.Equal(s.Seq[placed.Position:placed.End()], seq) {
			t.Error("read", placed.Read.ID, "misplaced at", placed.Position)
		}
	}

	var agp bytes.Buffer
	if err := WriteAGP(&agp, result.Scaffolds, result.Unscaffolded); err != nil {
		t.Fatal(err)
	}
	expectedAGP := "scaffold0\t1\t600\t1\tW\tcontig0\t1\t600\t+\n" +
		"scaffold0\t601\t700\t2\tN\t100\tscaffold\tyes\tpaired-ends\n" +
		"scaffold0\t701\t1300\t3\tW\tcontig1\t1\t600\t-\n"
	if agp.String() != expectedAGP {
		t.Error("unexpected AGP output", agp.String())
	}
}

func TestScaffoldOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(2001))
	genome := simulate.Genome(rng, 1200)
	lib := sequence.NewLibrary("overlap", 500, 20, sequence.FR)
	reads := simulate.Pairs(genome, 100, 500, starts(200, 520, 20), lib)
	contigs := []*contig.Contig{
		{ID: 0, Seq: append([]byte(nil), genome[:620]...), Coverage: 10},
		{ID: 1, Seq: append([]byte(nil), genome[600:]...), Coverage: 12},
	}
	mapReads(t, contigs, reads)
	result, err := Build(context.Background(), contigs, reads, sequence.NewLibraries([]*sequence.Library{lib}), Params{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Scaffolds) != 1 {
		t.Fatal("expected one scaffold, got", len(result.Scaffolds))
	}
	s := result.Scaffolds[0]
	delta := s.Steps[1].Delta
	if !delta.Overlaps() || delta.Overlap.LeftLength != 20 || delta.Overlap.RightLength != 20 {
		t.Error("unexpected junction", delta)
	}
	if s.Steps[1].Offset != 600 || !bytes.Equal(s.Seq, genome) {
		t.Error("scaffold does not spell the genome")
	}
	if result.Report.Overlaps != 1 || result.Report.Gaps != 0 {
		t.Error("unexpected report", result.Report)
	}
}

func TestRefineWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(2007))
	genome := simulate.Genome(rng, 100)
	left, right := genome[:60], genome[40:]
	params := Params{}.withDefaults()
	edge := Edge{From: End{0, true}, To: End{1, true}, Gap: 5, Pairs: 1}
	if delta := refine(left, right, edge, params); delta.Overlaps() || delta.Gap != 5 {
		t.Error("unexpected junction without deviation", delta)
	}
	// a single pair shows no variance of its own
	edge.StdDev = 10
	delta := refine(left, right, edge, params)
	if !delta.Overlaps() || delta.Overlap.LeftLength != 20 || delta.Overlap.RightLength != 20 {
		t.Error("overlap within three library deviations not found", delta)
	}
}

func TestLibraryEstimation(t *testing.T) {
	rng := rand.New(rand.NewSource(2002))
	genome := simulate.Genome(rng, 1500)
	lib := sequence.NewLibrary("estimated", 0, 0, sequence.FR)
	unused := sequence.NewLibrary("unused", 0, 0, sequence.FR)
	reads := simulate.Pairs(genome, 100, 400, starts(0, 900, 100), lib)
	more := simulate.Pairs(genome, 100, 500, starts(0, 900, 100), lib)
	for _, read := range more {
		read.Pair.Mate += len(reads)
	}
	reads = append(reads, more...)
	contigs := []*contig.Contig{{ID: 0, Seq: append([]byte(nil), genome...), Coverage: 10}}
	mapReads(t, contigs, reads)
	libs := sequence.NewLibraries([]*sequence.Library{lib, unused})
	result, err := Build(context.Background(), contigs, reads, libs, Params{})
	if err != nil {
		t.Fatal(err)
	}
	estimated := result.Libraries[lib.Name]
	if estimated == nil || estimated.MeanInsert != 450 || estimated.StdDev <= 0 {
		t.Fatal("unexpected estimate", estimated)
	}
	if !lib.NeedsEstimate() {
		t.Error("the given library was modified")
	}
	if len(result.Report.UnestimatedLibraries) != 1 || result.Report.UnestimatedLibraries[0] != "unused" {
		t.Error("unexpected unestimated libraries", result.Report.UnestimatedLibraries)
	}
	if len(result.Scaffolds) != 0 || len(result.Unscaffolded) != 1 {
		t.Error("a single contig was scaffolded")
	}
}

func placeholderContigs(n int) []*contig.Contig {
	contigs := make([]*contig.Contig, n)
	for i := range contigs {
		contigs[i] = &contig.Contig{ID: i, Seq: []byte("ACGTACGTAC"), Coverage: 1}
	}
	return contigs
}

func endsOf(paths []Path) [][]End {
	var result [][]End
	for _, p := range paths {
		result = append(result, p.Ends)
	}
	return result
}

func sameEnds(x, y [][]End) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if len(x[i]) != len(y[i]) {
			return false
		}
		for j := range x[i] {
			if x[i][j] != y[i][j] {
				return false
			}
		}
	}
	return true
}

func TestRepeatResolution(t *testing.T) {
	// Contig 1 is a repeat between 0 and 2 and between 3 and 4.
	g := NewConstraintGraph(placeholderContigs(5), []Edge{
		{From: End{0, true}, To: End{1, true}, Gap: 10, Pairs: 10},
		{From: End{1, true}, To: End{2, true}, Gap: 10, Pairs: 10},
		{From: End{3, true}, To: End{1, true}, Gap: 10, Pairs: 5},
		{From: End{1, true}, To: End{4, true}, Gap: 10, Pairs: 5},
	})
	repeats := g.Repeats(DefaultRedundancy)
	if len(repeats) != 1 || repeats[0] != 1 {
		t.Fatal("unexpected repeats", repeats)
	}
	for _, test := range []struct {
		duplicate bool
		expected  [][]End
	}{
		{false, [][]End{{{0, true}, {1, true}, {2, true}}}},
		{true, [][]End{{{0, true}, {1, true}, {2, true}}, {{3, true}, {1, true}, {4, true}}}},
	} {
		report := &Report{RepeatContigs: repeats}
		params := Params{DuplicateRepeats: test.duplicate}.withDefaults()
		paths, err := resolvePaths(context.Background(), g, params, report)
		if err != nil {
			t.Fatal(err)
		}
		if got := endsOf(paths); !sameEnds(got, test.expected) {
			t.Error("duplicate repeats", test.duplicate, "expected", test.expected, "got", got)
		}
	}
}

func TestUntrustedEdges(t *testing.T) {
	g := NewConstraintGraph(placeholderContigs(2), []Edge{
		{From: End{1, false}, To: End{0, true}, Gap: 10, Pairs: 1},
	})
	if g.Edges[0].From != (End{0, false}) || g.Edges[0].To != (End{1, true}) {
		t.Error("edge was not canonicalized", g.Edges[0])
	}
	paths, err := resolvePaths(context.Background(), g, Params{}.withDefaults(), &Report{})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Error("an untrusted edge was used")
	}
}

func TestDepthTruncation(t *testing.T) {
	var edges []Edge
	for i := 0; i < 4; i++ {
		edges = append(edges, Edge{From: End{i, true}, To: End{i + 1, true}, Gap: 5, Pairs: 3})
	}
	g := NewConstraintGraph(placeholderContigs(5), edges)
	report := &Report{}
	paths, err := resolvePaths(context.Background(), g, Params{Depth: 2}.withDefaults(), report)
	if err != nil {
		t.Fatal(err)
	}
	expected := [][]End{{{0, true}, {1, true}, {2, true}}, {{3, true}, {4, true}}}
	if got := endsOf(paths); !sameEnds(got, expected) {
		t.Error("expected", expected, "got", got)
	}
	if !report.DepthTruncated || report.CandidatesTruncated {
		t.Error("unexpected truncation report", report)
	}
}

func TestCycle(t *testing.T) {
	g := NewConstraintGraph(placeholderContigs(3), []Edge{
		{From: End{0, true}, To: End{1, true}, Gap: 5, Pairs: 4},
		{From: End{1, true}, To: End{2, true}, Gap: 5, Pairs: 4},
		{From: End{2, true}, To: End{0, true}, Gap: 5, Pairs: 4},
	})
	paths, err := resolvePaths(context.Background(), g, Params{}.withDefaults(), &Report{})
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || len(paths[0].Ends) != 3 {
		t.Error("cycle was not scaffolded", endsOf(paths))
	}
}

func TestCancellation(t *testing.T) {
	rng := rand.New(rand.NewSource(2003))
	genome := simulate.Genome(rng, 1300)
	lib := sequence.NewLibrary("cancel", 500, 20, sequence.FR)
	reads := simulate.Pairs(genome, 100, 500, starts(300, 500, 10), lib)
	contigs := []*contig.Contig{
		{ID: 0, Seq: append([]byte(nil), genome[:600]...)},
		{ID: 1, Seq: append([]byte(nil), genome[700:]...)},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result, err := Build(ctx, contigs, reads, sequence.NewLibraries([]*sequence.Library{lib}), Params{}); err == nil || result != nil {
		t.Error("scaffolding was not cancelled")
	}
}

func TestWriteDot(t *testing.T) {
	g := NewConstraintGraph(placeholderContigs(2), []Edge{
		{From: End{0, true}, To: End{1, false}, Gap: 12, Pairs: 3},
	})
	var buf bytes.Buffer
	if err := g.WriteDot(&buf); err != nil {
		t.Fatal(err)
	}
	dot := buf.String()
	if !strings.Contains(dot, "digraph") || strings.Count(dot, "->") != 2 {
		t.Error("unexpected DOT output", dot)
	}
}
