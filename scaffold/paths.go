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
	"context"
	"sort"
)

// A Path is a chain of oriented contigs linked by trusted edges.
// Edges[i] links Ends[i] to Ends[i+1].
type Path struct {
	Ends  []End
	Edges []Edge

	// Pairs is the total number of read pairs supporting the edges.
	Pairs int
}

// Reverse returns the same path read from the other strand.
func (p Path) Reverse() Path {
	n := len(p.Ends)
	r := Path{Ends: make([]End, n), Edges: make([]Edge, len(p.Edges)), Pairs: p.Pairs}
	for i, e := range p.Ends {
		r.Ends[n-1-i] = e.Flip()
	}
	for i, e := range p.Edges {
		r.Edges[len(p.Edges)-1-i] = e.Reverse()
	}
	return r
}

func lexicalLess(x, y []End) bool {
	for i := 0; i < len(x) && i < len(y); i++ {
		if x[i] != y[i] {
			return x[i].less(y[i])
		}
	}
	return len(x) < len(y)
}

// better ranks paths by support, then by number of contigs, then
// lexically.
func (p Path) better(q Path) bool {
	if p.Pairs != q.Pairs {
		return p.Pairs > q.Pairs
	}
	if len(p.Ends) != len(q.Ends) {
		return len(p.Ends) > len(q.Ends)
	}
	return lexicalLess(p.Ends, q.Ends)
}

type search struct {
	ctx           context.Context
	g             *ConstraintGraph
	redundancy    int
	depth         int
	maxCandidates int
	blocked       func(contig int) bool

	onPath []bool
	ends   []End
	edges  []Edge
	steps  int

	candidates          []Path
	depthTruncated      bool
	candidatesTruncated bool
	err                 error
}

func (s *search) emit() {
	if len(s.candidates) == s.maxCandidates {
		s.candidatesTruncated = true
		return
	}
	p := Path{
		Ends:  append([]End(nil), s.ends...),
		Edges: append([]Edge(nil), s.edges...),
	}
	for _, e := range p.Edges {
		p.Pairs += e.Pairs
	}
	s.candidates = append(s.candidates, p)
}

func (s *search) visit(from End) {
	if s.err != nil || s.candidatesTruncated {
		return
	}
	if s.steps++; s.steps%checkInterval == 0 {
		if s.err = s.ctx.Err(); s.err != nil {
			return
		}
	}
	extended := false
	for _, edge := range s.g.Out(from) {
		if edge.Pairs < s.redundancy || s.onPath[edge.To.Contig] || s.blocked(edge.To.Contig) {
			continue
		}
		if len(s.edges) == s.depth {
			s.depthTruncated = true
			break
		}
		extended = true
		s.onPath[edge.To.Contig] = true
		s.ends = append(s.ends, edge.To)
		s.edges = append(s.edges, edge)
		s.visit(edge.To)
		s.ends = s.ends[:len(s.ends)-1]
		s.edges = s.edges[:len(s.edges)-1]
		s.onPath[edge.To.Contig] = false
	}
	if !extended && len(s.edges) > 0 {
		s.emit()
	}
}

// run enumerates the maximal trusted paths starting at each root.
func (s *search) run(roots []End) ([]Path, error) {
	s.onPath = make([]bool, len(s.g.Contigs))
	s.candidates = nil
	s.candidatesTruncated = false
	for _, root := range roots {
		s.onPath[root.Contig] = true
		s.ends = append(s.ends[:0], root)
		s.edges = s.edges[:0]
		s.visit(root)
		s.onPath[root.Contig] = false
		if s.err != nil {
			return nil, s.err
		}
	}
	return s.candidates, nil
}

type resolver struct {
	g          *ConstraintGraph
	redundancy int
	duplicate  bool
	repeat     []bool
	used       []bool
}

func (r *resolver) blocked(c int) bool {
	return r.used[c] && !(r.duplicate && r.repeat[c])
}

func (r *resolver) accepts(p Path) bool {
	fresh := false
	for _, e := range p.Ends {
		if r.blocked(e.Contig) {
			return false
		}
		if !r.used[e.Contig] {
			fresh = true
		}
	}
	return fresh
}

// roots returns the oriented contigs to start a search from. In the
// first round these are the ends without trusted incoming edges, later
// any unused contig with a trusted outgoing edge.
func (r *resolver) roots(first bool) []End {
	var roots []End
	for c := range r.g.Contigs {
		if r.used[c] {
			continue
		}
		for _, e := range [2]End{{c, true}, {c, false}} {
			if trusted(r.g.Out(e), r.redundancy) == 0 {
				continue
			}
			if first && trusted(r.g.In(e), r.redundancy) > 0 {
				continue
			}
			roots = append(roots, e)
		}
	}
	return roots
}

/*
resolvePaths selects the scaffold paths through the constraint graph.

Candidate paths are enumerated from the roots with a depth-first
search bounded by params.Depth edges and params.MaxCandidatePaths
candidates, and then selected greedily from best to worst. A selected
path claims its contigs. Contigs at repeat junctions can be claimed
more than once when params.DuplicateRepeats is set. Rounds continue
from the unclaimed contigs, which picks up cycles, until a round
selects nothing.
*/
func resolvePaths(ctx context.Context, g *ConstraintGraph, params Params, report *Report) ([]Path, error) {
	r := &resolver{
		g:          g,
		redundancy: params.Redundancy,
		duplicate:  params.DuplicateRepeats,
		repeat:     make([]bool, len(g.Contigs)),
		used:       make([]bool, len(g.Contigs)),
	}
	for _, c := range report.RepeatContigs {
		r.repeat[c] = true
	}
	s := &search{
		ctx:           ctx,
		g:             g,
		redundancy:    params.Redundancy,
		depth:         params.Depth,
		maxCandidates: params.MaxCandidatePaths,
		blocked:       r.blocked,
	}
	var selected []Path
	for round := 0; ; round++ {
		roots := r.roots(round == 0)
		if len(roots) == 0 {
			if round == 0 {
				continue
			}
			break
		}
		candidates, err := s.run(roots)
		if err != nil {
			return nil, err
		}
		report.CandidatesTruncated = report.CandidatesTruncated || s.candidatesTruncated
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].better(candidates[j])
		})
		n := len(selected)
		for _, p := range candidates {
			if r.accepts(p) {
				for _, e := range p.Ends {
					r.used[e.Contig] = true
				}
				selected = append(selected, p)
			}
		}
		if len(selected) == n && round > 0 {
			break
		}
	}
	report.DepthTruncated = s.depthTruncated
	return selected, nil
}
