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

// elAssemble is a high-performance de novo assembler for short
// sequencing reads. It builds a de Bruijn graph of the k-mers of the
// reads, removes the structure caused by sequencing errors, extracts
// contigs, and orders and orients them into scaffolds using read
// pairs.
//
// Please see https://github.com/exascience/elassemble for a
// documentation of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/elassemble/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: assemble, stats")
	fmt.Fprint(os.Stderr, "\n", cmd.AssembleHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.StatsHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "assemble":
		err = cmd.Assemble()
	case "stats":
		err = cmd.Stats()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
