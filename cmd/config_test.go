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
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/exascience/elassemble/assembly"
	"github.com/exascience/elassemble/sequence"
)

func TestParseLibrary(t *testing.T) {
	lib, err := parseLibrary("pe:500:50:RF")
	if err != nil {
		t.Fatal(err)
	}
	if *lib.Name != "pe" || lib.MeanInsert != 500 || lib.StdDev != 50 || lib.Orientation != sequence.RF {
		t.Error("unexpected library", lib)
	}
	if lib, err = parseLibrary("mp:0:0"); err != nil || !lib.NeedsEstimate() || lib.Orientation != sequence.FR {
		t.Error("unexpected library", lib, err)
	}
	for _, spec := range []string{"pe", "pe:500", ":500:50", "pe:500:50:XY", "pe:1:2:FR:x"} {
		if _, err := parseLibrary(spec); err == nil {
			t.Error("accepted library", spec)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "params.toml")
	contents := `
[assembly]
kmer-length = 25
generate-scaffolds = true
aligner = "smith-waterman"
depth = 5

[[libraries]]
name = "pe500"
mean = 500
stddev = 50
orientation = "FR"

[[libraries]]
name = "mp3000"
mean = 3000
stddev = 300
orientation = "RF"
`
	if err := ioutil.WriteFile(filename, []byte(contents), 0666); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	params := cfg.Assembly
	if params.KmerLength != 25 || !params.GenerateScaffolds || params.Aligner != "smith-waterman" || params.Depth != 5 {
		t.Error("unexpected parameters", params)
	}
	libs := cfg.libraries()
	if len(libs) != 2 || *libs[1].Name != "mp3000" || libs[1].Orientation != sequence.RF || libs[0].MeanInsert != 500 {
		t.Error("unexpected libraries", libs)
	}
}

func TestOverrideParams(t *testing.T) {
	var flags flag.FlagSet
	var flagParams assembly.Params
	flags.IntVar(&flagParams.KmerLength, "kmer-length", 31, "")
	flags.IntVar(&flagParams.Depth, "depth", 0, "")
	flags.IntVar(&flagParams.GraphDotMaxNodes, "graph-dot-max-nodes", 0, "")
	if err := flags.Parse([]string{"--depth", "3", "--graph-dot-max-nodes", "500"}); err != nil {
		t.Fatal(err)
	}
	params := assembly.Params{KmerLength: 25, Depth: 10}
	overrideParams(&flags, &params, &flagParams)
	if params.KmerLength != 25 || params.Depth != 3 || params.GraphDotMaxNodes != 500 {
		t.Error("unexpected parameters", params)
	}
}
