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
	"os"

	"github.com/dustin/go-humanize"

	"github.com/exascience/elassemble/contig"
	"github.com/exascience/elassemble/fasta"
)

// StatsHelp is the help string for this command.
const StatsHelp = "\nstats parameters:\n" +
	"elassemble stats fasta-file\n" +
	"[--log-path path]\n"

// Stats implements the elassemble stats command. It prints the length
// statistics of the sequences of a FASTA file, such as an assembly
// output.
func Stats() (err error) {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(&flags, 3, StatsHelp)

	input := getFilename(os.Args[2], StatsHelp)

	setLogOutput(logPath)

	if !checkExist("", input) {
		fmt.Fprint(os.Stderr, StatsHelp)
		os.Exit(1)
	}

	r, err := fasta.Open(input)
	if err != nil {
		return err
	}
	defer func() {
		nerr := r.Close()
		if err == nil {
			err = nerr
		}
	}()
	records, err := fasta.Parse(r)
	if err != nil {
		return fmt.Errorf("%v, while parsing %v", err, input)
	}
	lengths := make([]int, len(records))
	var gaps int
	for i, record := range records {
		lengths[i] = len(record.Seq)
		for _, b := range record.Seq {
			if b == 'N' {
				gaps++
			}
		}
	}
	stats := contig.Stats(lengths)
	fmt.Printf("sequences\t%v\n", humanize.Comma(int64(stats.Count)))
	fmt.Printf("total length\t%v\n", humanize.Comma(int64(stats.Total)))
	fmt.Printf("longest\t%v\n", humanize.Comma(int64(stats.Longest)))
	fmt.Printf("N50\t%v\n", humanize.Comma(int64(stats.N50)))
	fmt.Printf("N bases\t%v\n", humanize.Comma(int64(gaps)))
	return nil
}
