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
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// DefaultDotMaxNodes is the default size limit for WriteDot.
const DefaultDotMaxNodes = 10000

// WriteDot writes the live part of the graph in Graphviz format, for
// debugging small assemblies. Graphs with more than maxNodes live
// nodes are refused.
func (g *Graph) WriteDot(w io.Writer, maxNodes int) error {
	if n := g.Len(); n > maxNodes {
		return fmt.Errorf("graph has %v nodes, more than the maximum of %v for dot output", n, maxNodes)
	}
	dot := gographviz.NewGraph()
	if err := dot.SetName("G"); err != nil {
		return err
	}
	if err := dot.SetDir(true); err != nil {
		return err
	}
	var err error
	g.Live(func(h int32) {
		if err != nil {
			return
		}
		attrs := map[string]string{
			"label": fmt.Sprintf(`"%v\n%v"`, g.Coder.String(g.Nodes[h].Kmer), g.Nodes[h].Depth),
		}
		err = dot.AddNode("G", strconv.Itoa(int(h)), attrs)
	})
	if err != nil {
		return err
	}
	var buf [4]Ref
	g.Live(func(h int32) {
		for _, from := range [2]Ref{{Node: h}, {Node: h, RC: true}} {
			for _, to := range g.Successors(from, buf[:0]) {
				if err != nil {
					return
				}
				// each edge is also seen from the other strand
				if edgeLess(to.Flip(), from.Flip(), from, to) {
					continue
				}
				attrs := map[string]string{
					"label": `"` + strand(from) + strand(to) + `"`,
				}
				err = dot.AddEdge(strconv.Itoa(int(from.Node)), strconv.Itoa(int(to.Node)), true, attrs)
			}
		}
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, dot.String())
	return err
}

func strand(r Ref) string {
	if r.RC {
		return "-"
	}
	return "+"
}

func edgeLess(from1, to1, from2, to2 Ref) bool {
	if from1 != from2 {
		return from1.Less(from2)
	}
	return to1.Less(to2)
}
