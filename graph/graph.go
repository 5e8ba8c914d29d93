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

// Package graph implements the de Bruijn graph of an assembly run.
//
// Nodes live in a contiguous arena and are addressed by int32 handles.
// Edges are never stored: they are derived from the extension masks of
// the nodes. Traversal uses oriented references, so a node can be
// entered on either strand.
package graph

import (
	"sync"

	"github.com/willf/bitset"

	"github.com/exascience/elassemble/kmer"
)

// A Node is a canonical k-mer with its depth and extension mask.
type Node struct {
	Kmer  kmer.Kmer
	Depth uint32
	Ext   kmer.Extension
}

// A Ref is a node read on the forward (canonical) or reverse strand.
type Ref struct {
	Node int32
	RC   bool
}

// Flip returns the same node on the other strand.
func (r Ref) Flip() Ref {
	return Ref{Node: r.Node, RC: !r.RC}
}

// Less orders refs by handle, forward strand first.
func (r Ref) Less(other Ref) bool {
	if r.Node != other.Node {
		return r.Node < other.Node
	}
	return !r.RC && other.RC
}

// nStripes is the number of region locks. A region is a run of 64
// consecutive handles, so each region owns whole words of the deleted
// bit set.
const nStripes = 256

func region(handle int32) int {
	return int(handle>>6) % nStripes
}

// A Graph is a de Bruijn graph over canonical k-mers. Handles are
// assigned in k-mer order, so they do not depend on how the graph was
// built.
type Graph struct {
	Coder   kmer.Coder
	Nodes   []Node
	index   map[kmer.Kmer]int32
	deleted *bitset.BitSet
	locks   [nStripes]sync.Mutex
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.Nodes) - int(g.deleted.Count())
}

// Deleted reports whether a node was removed.
func (g *Graph) Deleted(handle int32) bool {
	return g.deleted.Test(uint(handle))
}

// Lookup finds the node of any k-mer, and the strand it is on.
func (g *Graph) Lookup(km kmer.Kmer) (Ref, bool) {
	canonical, rc := g.Coder.Canonical(km)
	handle, ok := g.index[canonical]
	if !ok || g.Deleted(handle) {
		return Ref{}, false
	}
	return Ref{Node: handle, RC: rc}, true
}

// Kmer returns the k-mer of r as read on its strand.
func (g *Graph) Kmer(r Ref) kmer.Kmer {
	km := g.Nodes[r.Node].Kmer
	if r.RC {
		return g.Coder.ReverseComplement(km)
	}
	return km
}

// Ext returns the extension mask of r as seen on its strand.
func (g *Graph) Ext(r Ref) kmer.Extension {
	ext := g.Nodes[r.Node].Ext
	if r.RC {
		return ext.Complement()
	}
	return ext
}

// Depth returns the depth of the node of r.
func (g *Graph) Depth(r Ref) uint32 {
	return g.Nodes[r.Node].Depth
}

// OutDegree returns the number of successors of r.
func (g *Graph) OutDegree(r Ref) int {
	return g.Ext(r).OutDegree()
}

// InDegree returns the number of predecessors of r.
func (g *Graph) InDegree(r Ref) int {
	return g.Ext(r).InDegree()
}

// Successors appends the successors of r to buf, in base order.
func (g *Graph) Successors(r Ref, buf []Ref) []Ref {
	return g.successors(r, g.Ext(r), buf)
}

func (g *Graph) successors(r Ref, ext kmer.Extension, buf []Ref) []Ref {
	if ext.Right() == 0 {
		return buf
	}
	km := g.Kmer(r)
	for code := uint8(0); code < 4; code++ {
		if ext.HasRight(code) {
			canonical, rc := g.Coder.Canonical(g.Coder.Append(km, code))
			if handle, ok := g.index[canonical]; ok {
				buf = append(buf, Ref{Node: handle, RC: rc})
			}
		}
	}
	return buf
}

// Predecessors appends the predecessors of r to buf, in base order of
// the reverse strand.
func (g *Graph) Predecessors(r Ref, buf []Ref) []Ref {
	start := len(buf)
	buf = g.Successors(r.Flip(), buf)
	for i := start; i < len(buf); i++ {
		buf[i] = buf[i].Flip()
	}
	return buf
}

// Successor returns the only successor of r, if it has exactly one.
func (g *Graph) Successor(r Ref) (Ref, bool) {
	if g.OutDegree(r) != 1 {
		return Ref{}, false
	}
	var buf [4]Ref
	succ := g.Successors(r, buf[:0])
	if len(succ) != 1 {
		return Ref{}, false
	}
	return succ[0], true
}

// HasEdge reports whether to is a successor of from.
func (g *Graph) HasEdge(from, to Ref) bool {
	if g.Deleted(from.Node) || g.Deleted(to.Node) {
		return false
	}
	code := g.Coder.Last(g.Kmer(to))
	return g.Ext(from).HasRight(code) && g.Coder.Append(g.Kmer(from), code) == g.Kmer(to)
}

// IsHairpin reports whether the node is linked to its own reverse
// complement. Such a node is the palindromic case for odd k: walking
// through it turns the path back onto the opposite strand.
func (g *Graph) IsHairpin(handle int32) bool {
	var buf [8]Ref
	fwd := Ref{Node: handle}
	for _, r := range g.Predecessors(fwd, g.Successors(fwd, buf[:0])) {
		if r.Node == handle && r.RC {
			return true
		}
	}
	return false
}

// Live calls f for every live handle in ascending order.
func (g *Graph) Live(f func(handle int32)) {
	for i := range g.Nodes {
		if !g.deleted.Test(uint(i)) {
			f(int32(i))
		}
	}
}

// clearRight removes the following base code from r, as seen on r's
// strand. The caller holds the region lock of r.
func (g *Graph) clearRight(r Ref, code uint8) {
	node := &g.Nodes[r.Node]
	if r.RC {
		node.Ext &^= kmer.LeftExtension(3 - code)
	} else {
		node.Ext &^= kmer.RightExtension(code)
	}
}

func (g *Graph) clearLeft(r Ref, code uint8) {
	node := &g.Nodes[r.Node]
	if r.RC {
		node.Ext &^= kmer.RightExtension(3 - code)
	} else {
		node.Ext &^= kmer.LeftExtension(code)
	}
}

func (g *Graph) lockedExt(handle int32) kmer.Extension {
	lock := &g.locks[region(handle)]
	lock.Lock()
	defer lock.Unlock()
	return g.Nodes[handle].Ext
}

/*
removeNode deletes a node and clears the extension bits of its
neighbours that point to it.

Each node is updated under the lock of its own region, and no two
locks are ever held at the same time. Clearing bits commutes, so
concurrent removals of neighbouring nodes give the same graph in any
order.
*/
func (g *Graph) removeNode(handle int32) {
	fwd := Ref{Node: handle}
	ext := g.lockedExt(handle)
	km := g.Nodes[handle].Kmer
	var buf [4]Ref
	for _, s := range g.successors(fwd, ext, buf[:0]) {
		lock := &g.locks[region(s.Node)]
		lock.Lock()
		g.clearLeft(s, g.Coder.First(km))
		lock.Unlock()
	}
	for _, p := range g.successors(fwd.Flip(), ext.Complement(), buf[:0]) {
		p = p.Flip()
		lock := &g.locks[region(p.Node)]
		lock.Lock()
		g.clearRight(p, g.Coder.Last(km))
		lock.Unlock()
	}
	lock := &g.locks[region(handle)]
	lock.Lock()
	g.Nodes[handle].Ext = 0
	g.deleted.Set(uint(handle))
	lock.Unlock()
}

// removeEdge deletes the edge from -> to.
func (g *Graph) removeEdge(from, to Ref) {
	lock := &g.locks[region(from.Node)]
	lock.Lock()
	g.clearRight(from, g.Coder.Last(g.Kmer(to)))
	lock.Unlock()
	lock = &g.locks[region(to.Node)]
	lock.Lock()
	g.clearLeft(to, g.Coder.First(g.Kmer(from)))
	lock.Unlock()
}
