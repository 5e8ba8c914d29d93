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

package cmd

import (
	"flag"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/exascience/elassemble/assembly"
	"github.com/exascience/elassemble/internal"
	"github.com/exascience/elassemble/sequence"
)

type libraryConfig struct {
	Name        string               `toml:"name"`
	Mean        float64              `toml:"mean"`
	StdDev      float64              `toml:"stddev"`
	Orientation sequence.Orientation `toml:"orientation"`
}

/*
A config is the contents of a parameter file, for example:

	[assembly]
	kmer-length = 31
	generate-scaffolds = true

	[[libraries]]
	name = "pe500"
	mean = 500
	stddev = 50
	orientation = "FR"
*/
type config struct {
	Assembly  assembly.Params `toml:"assembly"`
	Libraries []libraryConfig `toml:"libraries"`
}

func loadConfig(filename string) (cfg config, err error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return cfg, err
	}
	if err = toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%v, while parsing parameter file %v", err, filename)
	}
	return cfg, nil
}

func (cfg config) libraries() []*sequence.Library {
	libs := make([]*sequence.Library, 0, len(cfg.Libraries))
	for _, lib := range cfg.Libraries {
		libs = append(libs, sequence.NewLibrary(lib.Name, lib.Mean, lib.StdDev, lib.Orientation))
	}
	return libs
}

// parseLibrary parses name:mean:stddev[:orientation]. A mean of 0
// requests estimation.
func parseLibrary(spec string) (*sequence.Library, error) {
	fields := strings.Split(spec, ":")
	if len(fields) < 3 || len(fields) > 4 || fields[0] == "" {
		return nil, fmt.Errorf("invalid library %v, expected name:mean:stddev[:FR|RF|FF]", spec)
	}
	orientation := sequence.FR
	if len(fields) == 4 {
		var err error
		if orientation, err = sequence.ParseOrientation(fields[3]); err != nil {
			return nil, err
		}
	}
	mean := internal.ParseFloat(fields[1], 64)
	stdDev := internal.ParseFloat(fields[2], 64)
	return sequence.NewLibrary(fields[0], mean, stdDev, orientation), nil
}

// overrideParams copies the parameters that were set on the command
// line from flagParams to params.
func overrideParams(flags *flag.FlagSet, params, flagParams *assembly.Params) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "kmer-length":
			params.KmerLength = flagParams.KmerLength
		case "dangling-links-threshold":
			params.DanglingLinksThreshold = flagParams.DanglingLinksThreshold
		case "redundant-path-length-threshold":
			params.RedundantPathLengthThreshold = flagParams.RedundantPathLengthThreshold
		case "allow-erosion":
			params.AllowErosion = flagParams.AllowErosion
		case "erosion-threshold":
			params.ErosionThreshold = flagParams.ErosionThreshold
		case "max-simplify-iterations":
			params.MaxSimplifyIterations = flagParams.MaxSimplifyIterations
		case "allow-low-coverage-contig-removal":
			params.AllowLowCoverageContigRemoval = flagParams.AllowLowCoverageContigRemoval
		case "contig-coverage-threshold":
			params.ContigCoverageThreshold = flagParams.ContigCoverageThreshold
		case "generate-scaffolds":
			params.GenerateScaffolds = flagParams.GenerateScaffolds
		case "depth":
			params.Depth = flagParams.Depth
		case "scaffold-redundancy":
			params.ScaffoldRedundancy = flagParams.ScaffoldRedundancy
		case "duplicate-repeats":
			params.DuplicateRepeats = flagParams.DuplicateRepeats
		case "aligner":
			params.Aligner = flagParams.Aligner
		case "nr-of-threads":
			params.Workers = flagParams.Workers
		case "timed":
			params.Timed = flagParams.Timed
		case "profile":
			params.Profile = flagParams.Profile
		case "graph-dot-max-nodes":
			params.GraphDotMaxNodes = flagParams.GraphDotMaxNodes
		}
	})
}
