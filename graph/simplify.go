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
	"context"
	"log"
	"sort"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/kmer"
)

// A tip is a dead-end path that starts at a leaf and ends next to a
// junction.
type tip struct {
	nodes    []int32
	depth    uint64
	junction Ref
}

// better reports whether t should survive rather than other when all
// arms of a junction are tips.
func (t tip) better(other tip) bool {
	if len(t.nodes) != len(other.nodes) {
		return len(t.nodes) > len(other.nodes)
	}
	if t.depth != other.depth {
		return t.depth > other.depth
	}
	return t.nodes[0] < other.nodes[0]
}

func (g *Graph) walkTip(leaf Ref, threshold int) (t tip, ok bool) {
	t.nodes = []int32{leaf.Node}
	t.depth = uint64(g.Depth(leaf))
	for cur := leaf; ; {
		// a chain with two dead ends is a component of its own
		if g.OutDegree(cur) == 0 {
			return t, false
		}
		next, ok := g.Successor(cur)
		if !ok || next.Node == cur.Node {
			return t, false
		}
		if g.InDegree(next) > 1 {
			t.junction = next
			return t, len(t.nodes) <= threshold
		}
		if len(t.nodes) >= threshold {
			return t, false
		}
		t.nodes = append(t.nodes, next.Node)
		t.depth += uint64(g.Depth(next))
		cur = next
	}
}

func (g *Graph) findTips(ctx context.Context, threshold, workers int) ([]tip, error) {
	result := parallel.RangeReduce(0, len(g.Nodes), internal.Workers(workers), func(low, high int) interface{} {
		var tips []tip
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return tips
			}
			if g.Deleted(int32(i)) {
				continue
			}
			for _, leaf := range [2]Ref{{Node: int32(i)}, {Node: int32(i), RC: true}} {
				if g.InDegree(leaf) != 0 || g.OutDegree(leaf) > 1 {
					continue
				}
				if t, ok := g.walkTip(leaf, threshold); ok {
					tips = append(tips, t)
				}
			}
		}
		return tips
	}, func(x, y interface{}) interface{} {
		return append(x.([]tip), y.([]tip)...)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result.([]tip), nil
}

/*
FindDanglingLinks returns the sorted handles of all nodes on dead-end
paths of at most threshold nodes.

A dead-end path starts at a node without predecessors and follows
single successors until it reaches a node with more than one
predecessor (the junction). Paths that run into a second dead end
form a component of their own and are left alone, however short:
only coverage decides about those. When every predecessor
of a junction is such a path, the longest one is kept, so that the
junction does not lose all of its support. Raising the threshold
never shrinks the result.
*/
func (g *Graph) FindDanglingLinks(ctx context.Context, threshold, workers int) ([]int32, error) {
	if threshold <= 0 {
		return nil, nil
	}
	tips, err := g.findTips(ctx, threshold, workers)
	if err != nil {
		return nil, err
	}
	var nodes []int32
	arms := make(map[Ref][]tip)
	for _, t := range tips {
		arms[t.junction] = append(arms[t.junction], t)
	}
	for junction, group := range arms {
		keep := -1
		if len(group) >= g.InDegree(junction) {
			keep = 0
			for i := 1; i < len(group); i++ {
				if group[i].better(group[keep]) {
					keep = i
				}
			}
		}
		for i, t := range group {
			if i != keep {
				nodes = append(nodes, t.nodes...)
			}
		}
	}
	return uniqueHandles(nodes), nil
}

func uniqueHandles(nodes []int32) []int32 {
	if len(nodes) == 0 {
		return nil
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i] < nodes[j]
	})
	result := nodes[:1]
	for _, h := range nodes[1:] {
		if h != result[len(result)-1] {
			result = append(result, h)
		}
	}
	return result
}

// A Branch is one side of a bubble: the interior nodes between the
// divergence and the convergence node. A branch without interior
// nodes is a direct edge.
type Branch struct {
	Nodes   []int32
	Depth   uint64
	minKmer kmer.Kmer
}

// A Bubble is two or more branches from Start that meet again at End.
// Branches[0] is the branch that is kept.
type Bubble struct {
	Start, End Ref
	Branches   []Branch
}

// betterBranch compares branches by total depth. Equal depths are
// decided by the smallest canonical k-mer among interior nodes, which
// is the same whichever strand the bubble was found on.
func betterBranch(b1, b2 Branch) bool {
	if b1.Depth != b2.Depth {
		return b1.Depth > b2.Depth
	}
	return b1.minKmer < b2.minKmer
}

func (g *Graph) walkBranch(start, first Ref, threshold int) (branch Branch, end Ref, ok bool) {
	branch.minKmer = ^kmer.Kmer(0)
	for cur := first; ; {
		if cur.Node == start.Node {
			return branch, end, false
		}
		if g.InDegree(cur) >= 2 {
			if len(branch.Nodes) == 0 {
				d1, d2 := g.Depth(start), g.Depth(cur)
				if d2 < d1 {
					d1 = d2
				}
				branch.Depth = uint64(d1)
			}
			return branch, cur, true
		}
		if len(branch.Nodes) >= threshold {
			return branch, end, false
		}
		for _, h := range branch.Nodes {
			if h == cur.Node {
				return branch, end, false
			}
		}
		branch.Nodes = append(branch.Nodes, cur.Node)
		node := g.Nodes[cur.Node]
		branch.Depth += uint64(node.Depth)
		if node.Kmer < branch.minKmer {
			branch.minKmer = node.Kmer
		}
		next, ok := g.Successor(cur)
		if !ok {
			return branch, end, false
		}
		cur = next
	}
}

func (g *Graph) bubblesFrom(start Ref, threshold int) (bubbles []Bubble) {
	var buf [4]Ref
	type arm struct {
		end    Ref
		branch Branch
	}
	var arms []arm
	for _, s := range g.Successors(start, buf[:0]) {
		if branch, end, ok := g.walkBranch(start, s, threshold); ok {
			arms = append(arms, arm{end, branch})
		}
	}
	for i := range arms {
		if arms[i].end.Node < 0 {
			continue
		}
		bubble := Bubble{Start: start, End: arms[i].end, Branches: []Branch{arms[i].branch}}
		for j := i + 1; j < len(arms); j++ {
			if arms[j].end == bubble.End {
				bubble.Branches = append(bubble.Branches, arms[j].branch)
				arms[j].end.Node = -1
			}
		}
		if len(bubble.Branches) > 1 {
			sort.Slice(bubble.Branches, func(i, j int) bool {
				return betterBranch(bubble.Branches[i], bubble.Branches[j])
			})
			bubbles = append(bubbles, bubble)
		}
	}
	return bubbles
}

/*
FindBubbles returns all bubbles whose branches have at most threshold
interior nodes, sorted by start and end.

Every bubble is found twice, once from each strand. Both copies
choose the same branch to keep.
*/
func (g *Graph) FindBubbles(ctx context.Context, threshold, workers int) ([]Bubble, error) {
	if threshold < 0 {
		return nil, nil
	}
	result := parallel.RangeReduce(0, len(g.Nodes), internal.Workers(workers), func(low, high int) interface{} {
		var bubbles []Bubble
		for i := low; i < high; i++ {
			if (i-low)%checkInterval == 0 && ctx.Err() != nil {
				return bubbles
			}
			if g.Deleted(int32(i)) {
				continue
			}
			for _, start := range [2]Ref{{Node: int32(i)}, {Node: int32(i), RC: true}} {
				if g.OutDegree(start) >= 2 {
					bubbles = append(bubbles, g.bubblesFrom(start, threshold)...)
				}
			}
		}
		return bubbles
	}, func(x, y interface{}) interface{} {
		return append(x.([]Bubble), y.([]Bubble)...)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bubbles := result.([]Bubble)
	sort.Slice(bubbles, func(i, j int) bool {
		if bubbles[i].Start != bubbles[j].Start {
			return bubbles[i].Start.Less(bubbles[j].Start)
		}
		return bubbles[i].End.Less(bubbles[j].End)
	})
	return bubbles, nil
}

// intact reports whether none of the nodes and direct edges of a
// bubble were touched by an earlier removal.
func (g *Graph) intact(bubble Bubble) bool {
	if g.Deleted(bubble.Start.Node) || g.Deleted(bubble.End.Node) {
		return false
	}
	for _, branch := range bubble.Branches {
		if len(branch.Nodes) == 0 {
			if !g.HasEdge(bubble.Start, bubble.End) {
				return false
			}
			continue
		}
		for _, h := range branch.Nodes {
			if g.Deleted(h) {
				return false
			}
		}
	}
	return true
}

// RemoveBubbles deletes the losing branches of the bubbles in order,
// skipping bubbles that an earlier one in the list already changed.
// It returns the number of nodes and edges removed.
func (g *Graph) RemoveBubbles(bubbles []Bubble) (nodes, edges int) {
	for _, bubble := range bubbles {
		if !g.intact(bubble) {
			continue
		}
		for _, branch := range bubble.Branches[1:] {
			if len(branch.Nodes) == 0 {
				g.removeEdge(bubble.Start, bubble.End)
				edges++
				continue
			}
			for _, h := range branch.Nodes {
				g.removeNode(h)
			}
			nodes += len(branch.Nodes)
		}
	}
	return
}

// RemoveNodes deletes the given distinct live nodes in parallel.
func (g *Graph) RemoveNodes(nodes []int32, workers int) {
	parallel.Range(0, len(nodes), internal.Workers(workers), func(low, high int) {
		for _, h := range nodes[low:high] {
			g.removeNode(h)
		}
	})
}

// FindLowDepth returns the live nodes whose depth is below threshold.
func (g *Graph) FindLowDepth(threshold uint32) (nodes []int32) {
	g.Live(func(h int32) {
		if g.Nodes[h].Depth < threshold {
			nodes = append(nodes, h)
		}
	})
	return nodes
}

// A Simplifier removes sequencing errors from a graph.
type Simplifier struct {
	// DanglingLinksThreshold is the longest dead-end path, in nodes,
	// that is removed.
	DanglingLinksThreshold int

	// RedundantPathLengthThreshold is the longest bubble branch, in
	// interior nodes, that is removed.
	RedundantPathLengthThreshold int

	// ErosionThreshold is the depth below which nodes are removed
	// before the topological passes. Zero disables erosion.
	ErosionThreshold uint32

	// MaxIterations bounds the number of rounds of both passes.
	MaxIterations int

	Workers int
}

// A PassReport counts the removals of one round.
type PassReport struct {
	DanglingNodes int
	BubbleNodes   int
	BubbleEdges   int
}

func (r PassReport) removed() int {
	return r.DanglingNodes + r.BubbleNodes + r.BubbleEdges
}

// A SimplifyReport summarizes a call to Simplify.
type SimplifyReport struct {
	ErodedNodes int
	Passes      []PassReport
	Converged   bool
}

// Removed returns the total number of nodes and edges removed.
func (r SimplifyReport) Removed() int {
	total := r.ErodedNodes
	for _, pass := range r.Passes {
		total += pass.removed()
	}
	return total
}

/*
Simplify applies erosion once, and then alternates dangling-link and
bubble removal until a round removes nothing or MaxIterations rounds
have run. Running out of rounds is not an error: the report then has
Converged set to false, and the graph is still usable.
*/
func (s *Simplifier) Simplify(ctx context.Context, g *Graph) (report SimplifyReport, err error) {
	if s.ErosionThreshold > 0 {
		eroded := g.FindLowDepth(s.ErosionThreshold)
		g.RemoveNodes(eroded, s.Workers)
		report.ErodedNodes = len(eroded)
	}
	for iteration := 0; iteration < s.MaxIterations; iteration++ {
		var (
			pass     PassReport
			dangling []int32
			bubbles  []Bubble
		)
		if dangling, err = g.FindDanglingLinks(ctx, s.DanglingLinksThreshold, s.Workers); err != nil {
			return
		}
		g.RemoveNodes(dangling, s.Workers)
		pass.DanglingNodes = len(dangling)
		if bubbles, err = g.FindBubbles(ctx, s.RedundantPathLengthThreshold, s.Workers); err != nil {
			return
		}
		pass.BubbleNodes, pass.BubbleEdges = g.RemoveBubbles(bubbles)
		report.Passes = append(report.Passes, pass)
		log.Printf("Simplification round %v removed %v dangling nodes, %v bubble nodes, and %v bubble edges.",
			iteration+1, pass.DanglingNodes, pass.BubbleNodes, pass.BubbleEdges)
		if pass.removed() == 0 {
			report.Converged = true
			return
		}
	}
	return
}
