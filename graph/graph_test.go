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

package graph

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/exascience/elassemble/internal/simulate"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/sequence"
)

func buildGraph(t *testing.T, reads []*sequence.Read, k, workers int) *Graph {
	index, err := kmer.Build(context.Background(), reads, k, workers)
	if err != nil {
		t.Fatal(err)
	}
	g, err := Build(context.Background(), index, workers)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func defaultSimplifier(k, workers int) *Simplifier {
	return &Simplifier{
		DanglingLinksThreshold:       2 * k,
		RedundantPathLengthThreshold: 3 * k,
		MaxIterations:                10,
		Workers:                      workers,
	}
}

// errorRead returns a copy of genome[start:start+length] with a base
// error at offset pos.
func errorRead(genome []byte, start, length, pos int) *sequence.Read {
	return sequence.NewRead("error", simulate.Mutate(genome[start:start+length], pos))
}

// isChain checks that the live graph is a single path spelling genome.
func isChain(g *Graph, genome []byte) bool {
	k := g.Coder.K
	if g.Len() != len(genome)-k+1 {
		return false
	}
	first, _ := g.Coder.Encode(genome)
	cur, ok := g.Lookup(first)
	if !ok || g.InDegree(cur) != 0 {
		return false
	}
	for i := 1; i <= len(genome)-k; i++ {
		next, ok := g.Successor(cur)
		if !ok {
			return false
		}
		expected, _ := g.Coder.Encode(genome[i:])
		if g.Kmer(next) != expected {
			return false
		}
		cur = next
	}
	return g.OutDegree(cur) == 0
}

func TestBuildChain(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genome := simulate.Genome(rng, 200)
	g := buildGraph(t, []*sequence.Read{sequence.NewRead("g", append([]byte(nil), genome...))}, 21, 2)
	if !isChain(g, genome) {
		t.Error("single read does not build a chain")
	}
	for i := 1; i < len(g.Nodes); i++ {
		if g.Nodes[i-1].Kmer >= g.Nodes[i].Kmer {
			t.Fatal("nodes are not sorted by k-mer")
		}
	}
}

func TestPredecessors(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	genome := simulate.Genome(rng, 100)
	g := buildGraph(t, []*sequence.Read{sequence.NewRead("g", append([]byte(nil), genome...))}, 21, 1)
	second, _ := g.Coder.Encode(genome[1:])
	r, _ := g.Lookup(second)
	var buf [4]Ref
	preds := g.Predecessors(r, buf[:0])
	first, _ := g.Coder.Encode(genome)
	if len(preds) != 1 || g.Kmer(preds[0]) != first {
		t.Error("Predecessors failed")
	}
	if !g.HasEdge(preds[0], r) || g.HasEdge(r, preds[0]) {
		t.Error("HasEdge failed")
	}
}

func TestHairpin(t *testing.T) {
	// ACG is followed by T, which makes CGT, its own reverse complement
	g := buildGraph(t, []*sequence.Read{sequence.NewRead("h", []byte("ACGT"))}, 3, 1)
	if len(g.Nodes) != 1 || !g.IsHairpin(0) {
		t.Error("hairpin not detected")
	}
	g = buildGraph(t, []*sequence.Read{sequence.NewRead("h", []byte("ACGA"))}, 3, 1)
	for h := range g.Nodes {
		if g.IsHairpin(int32(h)) {
			t.Error("false hairpin")
		}
	}
}

func TestDanglingLinkRemoval(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	genome := simulate.Genome(rng, 300)
	reads := simulate.Tile(genome, 100, 30)
	reads = append(reads, errorRead(genome, 120, 100, 95))
	g := buildGraph(t, reads, 21, 4)
	if isChain(g, genome) {
		t.Fatal("error did not create a tip")
	}
	report, err := defaultSimplifier(21, 4).Simplify(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Converged || report.Passes[0].DanglingNodes != 5 {
		t.Error("unexpected simplification", report)
	}
	if !isChain(g, genome) {
		t.Error("tip not removed")
	}
}

func TestBubbleRemoval(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	genome := simulate.Genome(rng, 300)
	reads := simulate.Tile(genome, 100, 30)
	for i := 0; i < 3; i++ {
		reads = append(reads, errorRead(genome, 100, 100, 50))
	}
	g := buildGraph(t, reads, 21, 4)
	bubbles, err := g.FindBubbles(context.Background(), 63, 4)
	if err != nil {
		t.Fatal(err)
	}
	// the same bubble, seen from both strands
	if len(bubbles) != 2 {
		t.Fatal("expected one bubble, got", len(bubbles))
	}
	truth, _ := g.Coder.Encode(genome[140:])
	ref, _ := g.Lookup(truth)
	for _, bubble := range bubbles {
		if len(bubble.Branches) != 2 || len(bubble.Branches[0].Nodes) != 21 || len(bubble.Branches[1].Nodes) != 21 {
			t.Fatal("unexpected bubble shape")
		}
		found := false
		for _, h := range bubble.Branches[0].Nodes {
			if h == ref.Node {
				found = true
			}
		}
		if !found {
			t.Error("bubble keeps the low depth branch")
		}
	}
	nodes, edges := g.RemoveBubbles(bubbles)
	if nodes != 21 || edges != 0 {
		t.Error("RemoveBubbles removed", nodes, edges)
	}
	if !isChain(g, genome) {
		t.Error("bubble not removed")
	}
}

func TestBubbleTieBreak(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	genome := simulate.Genome(rng, 200)
	alternative := simulate.Mutate(genome, 100)
	reads := []*sequence.Read{
		sequence.NewRead("a", append([]byte(nil), genome...)),
		sequence.NewRead("b", alternative),
	}
	g := buildGraph(t, reads, 21, 1)
	bubbles, err := g.FindBubbles(context.Background(), 63, 1)
	if err != nil || len(bubbles) != 2 {
		t.Fatal("expected one bubble", err)
	}
	for _, bubble := range bubbles {
		b0, b1 := bubble.Branches[0], bubble.Branches[1]
		if b0.Depth != b1.Depth || b0.minKmer >= b1.minKmer {
			t.Error("equal depth branches not ordered by smallest k-mer")
		}
	}
	if bubbles[0].Branches[0].minKmer != bubbles[1].Branches[0].minKmer {
		t.Error("strands disagree on the kept branch")
	}
}

func TestStandaloneComponentKept(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	genome := simulate.Genome(rng, 300)
	short := simulate.Genome(rng, 60)
	reads := simulate.Tile(genome, 100, 30)
	for i := 0; i < 10; i++ {
		reads = append(reads, sequence.NewRead("short", append([]byte(nil), short...)))
	}
	g := buildGraph(t, reads, 21, 2)
	nodes, err := g.FindDanglingLinks(context.Background(), 1000, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Error("chains without a junction reported as dangling links", len(nodes))
	}
	report, err := defaultSimplifier(21, 2).Simplify(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if report.Removed() != 0 || g.Len() != 280+40 {
		t.Error("simplification removed a standalone component", report.Removed(), g.Len())
	}
}

func TestDanglingThresholdMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	genome := simulate.Genome(rng, 600)
	reads := simulate.Tile(genome, 100, 50)
	for i, pos := range []int{97, 92, 85, 80} {
		reads = append(reads, errorRead(genome, 100+100*i, 100, pos))
	}
	g := buildGraph(t, reads, 21, 2)
	previous := 0
	for threshold := 0; threshold <= 60; threshold++ {
		nodes, err := g.FindDanglingLinks(context.Background(), threshold, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(nodes) < previous {
			t.Fatal("raising the threshold to", threshold, "removes fewer nodes")
		}
		previous = len(nodes)
	}
	if previous != 3+8+15+20 {
		t.Error("unexpected number of tip nodes", previous)
	}
}

func liveState(g *Graph) (nodes []Node) {
	g.Live(func(h int32) {
		nodes = append(nodes, g.Nodes[h])
	})
	return nodes
}

func TestSimplifyIdempotentAndWorkerInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	genome := simulate.Genome(rng, 1000)
	reads := simulate.Tile(genome, 100, 100)
	for i := 0; i < 8; i++ {
		reads = append(reads, errorRead(genome, 50+100*i, 100, rng.Intn(100)))
	}
	var states [][]Node
	for _, workers := range []int{1, 3, 8} {
		g := buildGraph(t, reads, 21, workers)
		s := defaultSimplifier(21, workers)
		if _, err := s.Simplify(context.Background(), g); err != nil {
			t.Fatal(err)
		}
		again, err := s.Simplify(context.Background(), g)
		if err != nil {
			t.Fatal(err)
		}
		if again.Removed() != 0 || !again.Converged {
			t.Error("second simplification removed", again.Removed())
		}
		if !isChain(g, genome) {
			t.Error("simplification did not recover the genome with", workers, "workers")
		}
		states = append(states, liveState(g))
	}
	for _, state := range states[1:] {
		if len(state) != len(states[0]) {
			t.Fatal("worker count changes the graph")
		}
		for i := range state {
			if state[i] != states[0][i] {
				t.Fatal("worker count changes the graph")
			}
		}
	}
}

func TestErosion(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	genome := simulate.Genome(rng, 300)
	reads := append(simulate.Tile(genome, 100, 30), simulate.Tile(genome, 100, 30)...)
	reads = append(reads, errorRead(genome, 100, 100, 50))
	g := buildGraph(t, reads, 21, 2)
	s := &Simplifier{ErosionThreshold: 2, MaxIterations: 1, Workers: 2}
	report, err := s.Simplify(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	if report.ErodedNodes != 21 || !isChain(g, genome) {
		t.Error("erosion failed", report.ErodedNodes)
	}
}

func TestSimplifyCancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	genome := simulate.Genome(rng, 300)
	g := buildGraph(t, simulate.Tile(genome, 100, 30), 21, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := defaultSimplifier(21, 2).Simplify(ctx, g); err != context.Canceled {
		t.Error("Simplify ignored cancellation", err)
	}
	index, _ := kmer.Build(context.Background(), simulate.Tile(genome, 100, 30), 21, 2)
	if _, err := Build(ctx, index, 2); err != context.Canceled {
		t.Error("Build ignored cancellation", err)
	}
}

func TestBuildCancelledWhileFilling(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	genome := simulate.Genome(rng, 20000)
	index, err := kmer.Build(context.Background(), simulate.Tile(genome, 100, 2000), 21, 4)
	if err != nil {
		t.Fatal(err)
	}
	// the first check follows sorting, the next ones are made while
	// the nodes are filled in
	g, err := Build(simulate.CancelAfter(1), index, 4)
	if g != nil || err != context.Canceled {
		t.Error("Build ignored cancellation while running", err)
	}
}

func TestWriteDot(t *testing.T) {
	g := buildGraph(t, []*sequence.Read{sequence.NewRead("r", []byte("ACGTTGCAAT"))}, 5, 1)
	var buf bytes.Buffer
	if err := g.WriteDot(&buf, 100); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "digraph") {
		t.Error("WriteDot output is not a digraph")
	}
	if g.WriteDot(&buf, 1) == nil {
		t.Error("WriteDot accepted a graph that is too large")
	}
}
