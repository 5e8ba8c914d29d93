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

// Package contig extracts contigs from a simplified de Bruijn graph
// and places the reads on them.
package contig

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/willf/bitset"

	"github.com/exascience/elassemble/graph"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/sequence"
)

// An AssembledSequence is the placement of a read on a contig (or,
// after scaffolding, on a scaffold).
type AssembledSequence struct {
	Read      *sequence.Read
	ReadIndex int

	// Position is the offset of the first base of the placed read.
	// It is negative when the read hangs over the start.
	Position int
	Length   int

	// A read placed on the reverse strand is both complemented and
	// reversed.
	IsComplemented bool
	IsReversed     bool

	Votes int
}

// End returns the offset after the last base of the placed read.
func (s AssembledSequence) End() int {
	return s.Position + s.Length
}

// A Contig is the sequence of an unambiguous path in the graph.
type Contig struct {
	ID  int
	Seq []byte

	// Nodes is the number of k-mers on the path.
	Nodes int

	// Coverage is the mean depth of the k-mers on the path.
	Coverage float64

	// Loop is set when the contig was cut out of a cycle.
	Loop bool

	Sequences []AssembledSequence
}

func (c *Contig) String() string {
	return fmt.Sprintf("contig%d", c.ID)
}

// Len returns the length of the contig sequence.
func (c *Contig) Len() int {
	return len(c.Seq)
}

// A Loop records a cycle without entry or exit that was cut open.
type Loop struct {
	Nodes    int
	CutAfter int32
}

// checkInterval is the number of start nodes visited between checks
// for cancellation.
const checkInterval = 1024

type builder struct {
	g       *graph.Graph
	visited *bitset.BitSet
	buf     []graph.Ref
}

// next returns the successor of cur if the path can continue there.
func (b *builder) next(cur graph.Ref) (graph.Ref, bool) {
	next, ok := b.g.Successor(cur)
	if !ok || next.Node == cur.Node || b.g.InDegree(next) != 1 {
		return graph.Ref{}, false
	}
	return next, true
}

// extend follows unambiguous successors from start, and appends them
// to path. It reports true if it came back to start.
func (b *builder) extend(start graph.Ref, path []graph.Ref) ([]graph.Ref, bool) {
	for cur := start; !b.g.IsHairpin(cur.Node) || cur == start; {
		next, ok := b.next(cur)
		if !ok {
			break
		}
		if next == start {
			return path, true
		}
		if b.visited.Test(uint(next.Node)) {
			break
		}
		b.visited.Set(uint(next.Node))
		path = append(path, next)
		cur = next
	}
	return path, false
}

func reverse(path []graph.Ref) {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j].Flip(), path[i].Flip()
	}
	if len(path)%2 == 1 {
		mid := len(path) / 2
		path[mid] = path[mid].Flip()
	}
}

// cutLoop rotates a cyclic path so that it starts after its weakest
// edge: the edge whose lower endpoint depth is smallest, with the
// lowest source handle on ties.
func (b *builder) cutLoop(path []graph.Ref) ([]graph.Ref, int32) {
	cut := -1
	var cutDepth uint32
	for i, r := range path {
		next := path[(i+1)%len(path)]
		depth := b.g.Depth(r)
		if d := b.g.Depth(next); d < depth {
			depth = d
		}
		if cut < 0 || depth < cutDepth || depth == cutDepth && r.Node < path[cut].Node {
			cut, cutDepth = i, depth
		}
	}
	rotated := make([]graph.Ref, 0, len(path))
	rotated = append(rotated, path[cut+1:]...)
	rotated = append(rotated, path[:cut+1]...)
	return rotated, path[cut].Node
}

func (b *builder) spell(path []graph.Ref) (seq []byte, coverage float64) {
	coder := b.g.Coder
	seq = coder.Decode(make([]byte, 0, len(path)+coder.K-1), b.g.Kmer(path[0]))
	var depth uint64
	for i, r := range path {
		if i > 0 {
			seq = append(seq, kmer.Base(coder.Last(b.g.Kmer(r))))
		}
		depth += uint64(b.g.Depth(r))
	}
	return seq, float64(depth) / float64(len(path))
}

/*
Build extracts one contig per maximal unambiguous path of the graph.

Start nodes are taken in handle order, and every path is extended in
both directions for as long as the current node has one successor
and that successor has one predecessor. A node that links to its own
reverse complement ends the path it is on. Every node ends up in
exactly one contig.

A cycle without entries or exits cannot be extended to an end: it is
cut at its weakest edge and reported as a Loop.

Each contig is stored on the strand that spells the lexicographically
smaller sequence, and contigs are numbered in sequence order.
*/
func Build(ctx context.Context, g *graph.Graph) (contigs []*Contig, loops []Loop, err error) {
	b := &builder{g: g, visited: bitset.New(uint(len(g.Nodes)))}
	for h := range g.Nodes {
		if h%checkInterval == 0 {
			if err = ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		if g.Deleted(int32(h)) || b.visited.Test(uint(h)) {
			continue
		}
		start := graph.Ref{Node: int32(h)}
		b.visited.Set(uint(h))
		path, cyclic := b.extend(start, []graph.Ref{start})
		if cyclic {
			var cutAfter int32
			path, cutAfter = b.cutLoop(path)
			loops = append(loops, Loop{Nodes: len(path), CutAfter: cutAfter})
		} else {
			backward, _ := b.extend(start.Flip(), nil)
			reverse(backward)
			path = append(backward, path...)
		}
		seq, coverage := b.spell(path)
		if rc := sequence.ReverseComplement(seq); bytes.Compare(rc, seq) < 0 {
			seq = rc
		}
		contigs = append(contigs, &Contig{Seq: seq, Nodes: len(path), Coverage: coverage, Loop: cyclic})
	}
	sort.SliceStable(contigs, func(i, j int) bool {
		return bytes.Compare(contigs[i].Seq, contigs[j].Seq) < 0
	})
	Renumber(contigs)
	return contigs, loops, nil
}

// Renumber assigns IDs in slice order.
func Renumber(contigs []*Contig) {
	for i, c := range contigs {
		c.ID = i
	}
}

// RemoveLowCoverage drops contigs whose mean k-mer coverage is below
// threshold, and renumbers the rest. The contigs slice itself is left
// as it is.
func RemoveLowCoverage(contigs []*Contig, threshold float64) (kept []*Contig, removed int) {
	kept = make([]*Contig, 0, len(contigs))
	for _, c := range contigs {
		if c.Coverage < threshold {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	Renumber(kept)
	return kept, removed
}
