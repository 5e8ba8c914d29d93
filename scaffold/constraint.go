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
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/awalterschulze/gographviz"
	"gonum.org/v1/gonum/stat"

	"github.com/exascience/elassemble/contig"
)

// An End is a contig in a given orientation.
type End struct {
	Contig int
	Fwd    bool
}

// Flip returns the same contig in the opposite orientation.
func (e End) Flip() End {
	return End{Contig: e.Contig, Fwd: !e.Fwd}
}

func (e End) String() string {
	if e.Fwd {
		return fmt.Sprintf("%d+", e.Contig)
	}
	return fmt.Sprintf("%d-", e.Contig)
}

func (e End) less(other End) bool {
	if e.Contig != other.Contig {
		return e.Contig < other.Contig
	}
	return e.Fwd && !other.Fwd
}

// An Edge states that From is followed by To at the given distance.
// The same statement holds for To.Flip() followed by From.Flip().
type Edge struct {
	From, To End

	// Gap is the mean estimated number of bases between the two
	// contigs. It is negative when they overlap.
	Gap      float64
	Variance float64

	// StdDev is the largest insert size standard deviation of the
	// libraries supporting the edge.
	StdDev float64

	// Pairs is the number of read pairs supporting the edge.
	Pairs int
}

// Reverse returns the same edge read from the other strand.
func (e Edge) Reverse() Edge {
	e.From, e.To = e.To.Flip(), e.From.Flip()
	return e
}

func (e Edge) canonical() Edge {
	if e.To.Contig < e.From.Contig {
		return e.Reverse()
	}
	return e
}

type edgeKey struct {
	from, to End
}

// A ConstraintGraph has the contigs as nodes, and the edges inferred
// from read pairs that span two contigs.
type ConstraintGraph struct {
	Contigs []*contig.Contig

	// Edges are canonical (From.Contig < To.Contig) and sorted.
	Edges []Edge

	out map[End][]Edge
}

// NewConstraintGraph indexes the given edges for traversal.
func NewConstraintGraph(contigs []*contig.Contig, edges []Edge) *ConstraintGraph {
	g := &ConstraintGraph{
		Contigs: contigs,
		Edges:   make([]Edge, 0, len(edges)),
		out:     make(map[End][]Edge),
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, e.canonical())
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		ei, ej := g.Edges[i], g.Edges[j]
		if ei.From != ej.From {
			return ei.From.less(ej.From)
		}
		return ei.To.less(ej.To)
	})
	for _, e := range g.Edges {
		g.out[e.From] = append(g.out[e.From], e)
		r := e.Reverse()
		g.out[r.From] = append(g.out[r.From], r)
	}
	for _, edges := range g.out {
		sort.Slice(edges, func(i, j int) bool {
			return edges[i].To.less(edges[j].To)
		})
	}
	return g
}

// Out returns the edges leaving e, sorted by target.
func (g *ConstraintGraph) Out(e End) []Edge {
	return g.out[e]
}

// In returns the edges entering e, written from e's point of view as
// edges leaving e.Flip().
func (g *ConstraintGraph) In(e End) []Edge {
	return g.out[e.Flip()]
}

func trusted(edges []Edge, redundancy int) (n int) {
	for _, e := range edges {
		if e.Pairs >= redundancy {
			n++
		}
	}
	return
}

// Repeats returns the contigs with at least two trusted edges leaving
// one of their orientations.
func (g *ConstraintGraph) Repeats(redundancy int) []int {
	var repeats []int
	for c := range g.Contigs {
		if trusted(g.Out(End{c, true}), redundancy) >= 2 || trusted(g.Out(End{c, false}), redundancy) >= 2 {
			repeats = append(repeats, c)
		}
	}
	return repeats
}

func buildConstraintGraph(contigs []*contig.Contig, pairs []pair) *ConstraintGraph {
	gaps := make(map[edgeKey][]float64)
	stdDevs := make(map[edgeKey]float64)
	for _, p := range pairs {
		if p.library.NeedsEstimate() {
			continue
		}
		from, to, gap, ok := p.link(contigs)
		if !ok {
			continue
		}
		e := Edge{From: from, To: to}.canonical()
		key := edgeKey{e.From, e.To}
		gaps[key] = append(gaps[key], gap)
		stdDevs[key] = math.Max(stdDevs[key], p.library.StdDev)
	}
	edges := make([]Edge, 0, len(gaps))
	for key, x := range gaps {
		e := Edge{From: key.from, To: key.to, StdDev: stdDevs[key], Pairs: len(x)}
		if len(x) == 1 {
			e.Gap = x[0]
		} else {
			e.Gap, e.Variance = stat.MeanVariance(x, nil)
		}
		edges = append(edges, e)
	}
	return NewConstraintGraph(contigs, edges)
}

// WriteDot writes the constraint graph in Graphviz format. Each
// oriented contig is a node. Edges are labelled with the gap and the
// number of supporting pairs.
func (g *ConstraintGraph) WriteDot(w io.Writer) error {
	dot := gographviz.NewGraph()
	if err := dot.SetName("scaffolds"); err != nil {
		return err
	}
	if err := dot.SetDir(true); err != nil {
		return err
	}
	nodes := make(map[End]bool)
	addNode := func(e End) error {
		if nodes[e] {
			return nil
		}
		nodes[e] = true
		label := fmt.Sprintf("\"%v%v\\n%dbp\"", g.Contigs[e.Contig], orientationSign(e.Fwd), g.Contigs[e.Contig].Len())
		return dot.AddNode("scaffolds", dotName(e), map[string]string{"label": label})
	}
	for _, e := range g.Edges {
		for _, view := range [2]Edge{e, e.Reverse()} {
			if err := addNode(view.From); err != nil {
				return err
			}
			if err := addNode(view.To); err != nil {
				return err
			}
			label := fmt.Sprintf("\"%.0f (%d)\"", view.Gap, view.Pairs)
			if err := dot.AddEdge(dotName(view.From), dotName(view.To), true, map[string]string{"label": label}); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, dot.String())
	return err
}

func orientationSign(fwd bool) string {
	if fwd {
		return "+"
	}
	return "-"
}

func dotName(e End) string {
	return fmt.Sprintf("\"%v\"", e)
}
