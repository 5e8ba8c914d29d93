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
	"errors"
	"fmt"
)

// A ParameterError reports an invalid parameter. It is returned before
// any processing starts.
type ParameterError struct {
	Name   string
	Value  interface{}
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid %v %v: %v", e.Name, e.Value, e.Reason)
}

// ErrCancelled is matched by every error returned from a cancelled
// assembly.
var ErrCancelled = errors.New("assembly cancelled")

// A CancelledError reports the phase during which an assembly was
// cancelled. It wraps the error of the context.
type CancelledError struct {
	Phase Phase
	Err   error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%v, during %v", ErrCancelled, e.Phase)
}

func (e *CancelledError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCancelled) hold.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

// A Phase is a stage of the assembly pipeline.
type Phase int

// The phases, in order.
const (
	Indexing Phase = iota
	GraphConstruction
	Simplification
	ContigExtraction
	Mapping
	Scaffolding
)

var phaseNames = [...]string{
	Indexing:          "k-mer indexing",
	GraphConstruction: "graph construction",
	Simplification:    "graph simplification",
	ContigExtraction:  "contig extraction",
	Mapping:           "read mapping",
	Scaffolding:       "scaffolding",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase %d", int(p))
	}
	return phaseNames[p]
}

// A WarningKind tells whether a warning is about the data or about a
// bound that was hit.
type WarningKind int

const (
	// Informational warnings report structure the assembler could
	// not resolve, such as loops, repeats, or unplaced reads.
	Informational WarningKind = iota

	// Truncated warnings report that an iteration or search bound was
	// reached, and that the result may be less complete.
	Truncated
)

func (k WarningKind) String() string {
	if k == Truncated {
		return "truncated"
	}
	return "informational"
}

// A Warning is a non-fatal condition encountered during assembly.
type Warning struct {
	Phase   Phase
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%v (%v): %v", w.Phase, w.Kind, w.Message)
}
