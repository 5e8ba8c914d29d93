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

package assembly

import (
	"io"
	"math"

	"github.com/exascience/elassemble/align"
	"github.com/exascience/elassemble/graph"
	"github.com/exascience/elassemble/kmer"
	"github.com/exascience/elassemble/scaffold"
)

// Defaults for parameters that do not depend on the k-mer length.
const (
	DefaultMaxSimplifyIterations   = 10
	DefaultErosionThreshold        = 2
	DefaultContigCoverageThreshold = 2.0
)

// Params control an assembly. Zero values are replaced by defaults,
// some of which depend on KmerLength.
type Params struct {
	KmerLength int `toml:"kmer-length"`

	// Simplification.
	DanglingLinksThreshold       int  `toml:"dangling-links-threshold"`
	RedundantPathLengthThreshold int  `toml:"redundant-path-length-threshold"`
	AllowErosion                 bool `toml:"allow-erosion"`
	ErosionThreshold             int  `toml:"erosion-threshold"`
	MaxSimplifyIterations        int  `toml:"max-simplify-iterations"`

	AllowLowCoverageContigRemoval bool    `toml:"allow-low-coverage-contig-removal"`
	ContigCoverageThreshold       float64 `toml:"contig-coverage-threshold"`

	// Scaffolding.
	GenerateScaffolds  bool   `toml:"generate-scaffolds"`
	Depth              int    `toml:"depth"`
	ScaffoldRedundancy int    `toml:"scaffold-redundancy"`
	DuplicateRepeats   bool   `toml:"duplicate-repeats"`
	Aligner            string `toml:"aligner"`

	Workers int  `toml:"workers"`
	Timed   bool `toml:"timed"`

	// Profile, when set, is the prefix of per-phase CPU profile files.
	Profile string `toml:"profile"`

	// GraphDot, when set, receives the simplified de Bruijn graph in
	// Graphviz format. Larger graphs than GraphDotMaxNodes are not
	// written.
	GraphDot         io.Writer `toml:"-"`
	GraphDotMaxNodes int       `toml:"graph-dot-max-nodes"`
}

// DefaultParams returns the default parameters for the given k-mer
// length.
func DefaultParams(k int) Params {
	params := Params{KmerLength: k}
	params.complete()
	return params
}

func (params *Params) complete() {
	if params.DanglingLinksThreshold == 0 {
		params.DanglingLinksThreshold = 2 * params.KmerLength
	}
	if params.RedundantPathLengthThreshold == 0 {
		params.RedundantPathLengthThreshold = 3 * params.KmerLength
	}
	if params.ErosionThreshold == 0 {
		params.ErosionThreshold = DefaultErosionThreshold
	}
	if params.MaxSimplifyIterations == 0 {
		params.MaxSimplifyIterations = DefaultMaxSimplifyIterations
	}
	if params.ContigCoverageThreshold == 0 {
		params.ContigCoverageThreshold = DefaultContigCoverageThreshold
	}
	if params.Depth == 0 {
		params.Depth = scaffold.DefaultDepth
	}
	if params.ScaffoldRedundancy == 0 {
		params.ScaffoldRedundancy = scaffold.DefaultRedundancy
	}
	if params.Aligner == "" {
		params.Aligner = align.SimpleAligner
	}
	if params.GraphDotMaxNodes == 0 {
		params.GraphDotMaxNodes = graph.DefaultDotMaxNodes
	}
}

func positive(name string, value int) error {
	if value < 1 {
		return &ParameterError{Name: name, Value: value, Reason: "must be positive"}
	}
	return nil
}

// Validate checks the parameters against the length of the shortest
// read, and returns a *ParameterError for the first invalid one.
func (params *Params) Validate(shortest int) error {
	if err := kmer.CheckK(params.KmerLength, shortest); err != nil {
		return &ParameterError{Name: "KmerLength", Value: params.KmerLength, Reason: err.Error()}
	}
	for _, p := range []struct {
		name  string
		value int
	}{
		{"DanglingLinksThreshold", params.DanglingLinksThreshold},
		{"RedundantPathLengthThreshold", params.RedundantPathLengthThreshold},
		{"ErosionThreshold", params.ErosionThreshold},
		{"MaxSimplifyIterations", params.MaxSimplifyIterations},
		{"Depth", params.Depth},
		{"ScaffoldRedundancy", params.ScaffoldRedundancy},
		{"GraphDotMaxNodes", params.GraphDotMaxNodes},
	} {
		if err := positive(p.name, p.value); err != nil {
			return err
		}
	}
	if c := params.ContigCoverageThreshold; c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
		return &ParameterError{Name: "ContigCoverageThreshold", Value: c, Reason: "must be a non-negative number"}
	}
	if _, err := align.New(params.Aligner); err != nil {
		return &ParameterError{Name: "Aligner", Value: params.Aligner, Reason: err.Error()}
	}
	if params.Workers < 0 {
		return &ParameterError{Name: "Workers", Value: params.Workers, Reason: "must not be negative"}
	}
	return nil
}
