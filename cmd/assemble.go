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
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/exascience/elassemble/assembly"
	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/fasta"
	"github.com/exascience/elassemble/scaffold"
	"github.com/exascience/elassemble/sequence"
)

// AssembleHelp is the help string for this command.
const AssembleHelp = "assemble parameters:\n" +
	"elassemble assemble reads-file fasta-output-file\n" +
	"[--mates reads-file]\n" +
	"[--interleaved]\n" +
	"[--library name:mean:stddev[:FR|RF|FF]]\n" +
	"[--config toml-file]\n" +
	"[--kmer-length k]\n" +
	"[--dangling-links-threshold nr]\n" +
	"[--redundant-path-length-threshold nr]\n" +
	"[--allow-erosion]\n" +
	"[--erosion-threshold depth]\n" +
	"[--max-simplify-iterations nr]\n" +
	"[--allow-low-coverage-contig-removal]\n" +
	"[--contig-coverage-threshold coverage]\n" +
	"[--generate-scaffolds]\n" +
	"[--depth nr]\n" +
	"[--scaffold-redundancy nr]\n" +
	"[--duplicate-repeats]\n" +
	"[--aligner [simple | smith-waterman]]\n" +
	"[--agp agp-file]\n" +
	"[--dot dot-file]\n" +
	"[--graph-dot dot-file]\n" +
	"[--graph-dot-max-nodes nr]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

const defaultKmerLength = 31

func loadReads(input, mates string, interleaved bool, library *sequence.Library) ([]*sequence.Read, error) {
	reads, err := fasta.LoadReads(input)
	if err != nil {
		return nil, fmt.Errorf("%v, while loading reads from %v", err, input)
	}
	switch {
	case mates != "":
		second, err := fasta.LoadReads(mates)
		if err != nil {
			return nil, fmt.Errorf("%v, while loading mates from %v", err, mates)
		}
		return sequence.PairFiles(reads, second, library.Name)
	case interleaved:
		if err := sequence.PairInterleaved(reads, library.Name); err != nil {
			return nil, err
		}
	}
	return reads, nil
}

func writeSequences(output string, result *assembly.Result) error {
	sequences := result.Sequences()
	records := make([]fasta.Record, len(sequences))
	for i, s := range sequences {
		records[i] = fasta.Record{Name: s.Name, Seq: s.Seq}
	}
	return create(output, func(w io.Writer) error {
		return fasta.Write(w, records, fasta.DefaultLineWidth)
	})
}

// Assemble implements the elassemble assemble command.
func Assemble() error {
	var (
		params, flagParams assembly.Params
		mates              string
		interleaved        bool
		librarySpec        string
		configFile         string
		agp, dot, graphDot string
		logPath            string
	)

	var flags flag.FlagSet

	flags.StringVar(&mates, "mates", "", "pair the reads with the reads of this file")
	flags.BoolVar(&interleaved, "interleaved", false, "pair every read with the read that follows it")
	flags.StringVar(&librarySpec, "library", "", "insert size and orientation of the read pairs")
	flags.StringVar(&configFile, "config", "", "read parameters and libraries from a TOML file")
	flags.IntVar(&flagParams.KmerLength, "kmer-length", defaultKmerLength, "k-mer length (odd, at most 31)")
	flags.IntVar(&flagParams.DanglingLinksThreshold, "dangling-links-threshold", 0, "longest dead end to remove, in k-mers")
	flags.IntVar(&flagParams.RedundantPathLengthThreshold, "redundant-path-length-threshold", 0, "longest bubble branch to remove, in k-mers")
	flags.BoolVar(&flagParams.AllowErosion, "allow-erosion", false, "remove low-depth k-mers before simplification")
	flags.IntVar(&flagParams.ErosionThreshold, "erosion-threshold", 0, "depth below which k-mers are eroded")
	flags.IntVar(&flagParams.MaxSimplifyIterations, "max-simplify-iterations", 0, "maximum number of simplification rounds")
	flags.BoolVar(&flagParams.AllowLowCoverageContigRemoval, "allow-low-coverage-contig-removal", false, "remove contigs with low coverage")
	flags.Float64Var(&flagParams.ContigCoverageThreshold, "contig-coverage-threshold", 0, "coverage below which contigs are removed")
	flags.BoolVar(&flagParams.GenerateScaffolds, "generate-scaffolds", false, "scaffold the contigs using read pairs")
	flags.IntVar(&flagParams.Depth, "depth", 0, "maximum number of links in a scaffold path")
	flags.IntVar(&flagParams.ScaffoldRedundancy, "scaffold-redundancy", 0, "read pairs needed to trust a contig link")
	flags.BoolVar(&flagParams.DuplicateRepeats, "duplicate-repeats", false, "allow repeat contigs in more than one scaffold")
	flags.StringVar(&flagParams.Aligner, "aligner", "", "aligner for contig junctions, simple or smith-waterman")
	flags.StringVar(&agp, "agp", "", "write the scaffold layout in AGP format")
	flags.StringVar(&dot, "dot", "", "write the scaffold graph in DOT format")
	flags.StringVar(&graphDot, "graph-dot", "", "write the simplified de Bruijn graph in DOT format")
	flags.IntVar(&flagParams.GraphDotMaxNodes, "graph-dot-max-nodes", 0, "largest de Bruijn graph written by --graph-dot")
	flags.IntVar(&flagParams.Workers, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&flagParams.Timed, "timed", false, "measure the runtime")
	flags.StringVar(&flagParams.Profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 4, AssembleHelp)

	input := getFilename(os.Args[2], AssembleHelp)
	output := getFilename(os.Args[3], AssembleHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if mates != "" && !checkExist("--mates", mates) {
		sanityChecksFailed = true
	}
	if mates != "" && interleaved {
		log.Println("Error: --mates and --interleaved cannot be combined.")
		sanityChecksFailed = true
	}
	if configFile != "" && !checkExist("--config", configFile) {
		sanityChecksFailed = true
	}
	if agp != "" && !checkCreate("--agp", agp) {
		sanityChecksFailed = true
	}
	if dot != "" && !checkCreate("--dot", dot) {
		sanityChecksFailed = true
	}
	if graphDot != "" && !checkCreate("--graph-dot", graphDot) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, AssembleHelp)
		os.Exit(1)
	}

	// parameters: defaults, then the parameter file, then the command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " assemble ", input, " ", output)

	params.KmerLength = defaultKmerLength
	var libs []*sequence.Library
	if configFile != "" {
		cfg, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		params = cfg.Assembly
		if params.KmerLength == 0 {
			params.KmerLength = defaultKmerLength
		}
		libs = cfg.libraries()
		fmt.Fprint(&command, " --config ", configFile)
	}
	overrideParams(&flags, &params, &flagParams)
	flags.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			fmt.Fprint(&command, " --", f.Name, " ", f.Value)
		}
	})

	var library *sequence.Library
	if librarySpec != "" {
		var err error
		if library, err = parseLibrary(librarySpec); err != nil {
			return err
		}
		libs = append(libs, library)
	} else if len(libs) > 0 {
		library = libs[0]
	} else {
		library = sequence.NewLibrary("default", 0, 0, sequence.FR)
		libs = append(libs, library)
	}

	log.Println("Executing command:\n", command.String())

	reads, err := loadReads(input, mates, interleaved, library)
	if err != nil {
		return err
	}
	log.Printf("Loaded %v reads.", humanize.Comma(int64(len(reads))))
	go runtime.GC()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var result *assembly.Result
	assemble := func() (err error) {
		result, err = assembly.Assemble(ctx, reads, sequence.NewLibraries(libs), params)
		return err
	}
	if graphDot != "" {
		err = create(graphDot, func(w io.Writer) error {
			params.GraphDot = w
			return assemble()
		})
	} else {
		err = assemble()
	}
	if err != nil {
		return err
	}
	reads = nil
	go runtime.GC()

	if err := writeSequences(output, result); err != nil {
		return err
	}
	if agp != "" {
		if err := create(agp, func(w io.Writer) error {
			return scaffold.WriteAGP(w, result.Scaffolds, agpContigs(result))
		}); err != nil {
			return err
		}
	}
	if dot != "" && result.ConstraintGraph != nil {
		if err := create(dot, result.ConstraintGraph.WriteDot); err != nil {
			return err
		}
	}
	log.Printf("Assembly %v finished with %v warnings.", result.RunID, len(result.Warnings))
	return nil
}

// agpContigs returns the contigs that are written as objects of their
// own.
func agpContigs(result *assembly.Result) []*contig.Contig {
	if result.Params.GenerateScaffolds {
		return result.Unscaffolded
	}
	return result.Contigs
}
