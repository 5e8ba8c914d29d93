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

package utils

import (
	"github.com/exascience/pargo/sync"
	"github.com/spaolacci/murmur3"
)

type symbolName string

// Symbol is an interned string. Library names are symbols, so that
// every read of a library refers to the same name.
type Symbol *string

func (s symbolName) Hash() uint64 {
	return murmur3.Sum64([]byte(s))
}

var symbolTable = sync.NewMap(0)

/*
Intern returns a Symbol for the given string.

It always returns the same pointer for strings that are equal, and
different pointers for strings that are not equal. So for two strings
s1 and s2, if s1 == s2, then Intern(s1) == Intern(s2), and if s1 !=
s2, then Intern(s1) != Intern(s2).

Dereferencing the pointer always yields a string that is equal to the
original string: *Intern(s) == s always holds.

It is safe for multiple goroutines to call Intern concurrently.
*/
func Intern(s string) Symbol {
	entry, _ := symbolTable.LoadOrStore(symbolName(s), Symbol(&s))
	return entry.(Symbol)
}

// SymbolLess orders symbols by name, with nil first. Pointer order
// depends on allocation, so anything that must be reproducible sorts
// with SymbolLess.
func SymbolLess(s1, s2 Symbol) bool {
	if s1 == nil {
		return s2 != nil
	}
	if s2 == nil {
		return false
	}
	return *s1 < *s2
}
