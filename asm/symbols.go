// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "sort"

// Names starting with the scope separator are local to the most recently
// defined global symbol.
const scopeSeparator = '.'

// IsLocal returns true if the symbol name is local to a global scope.
func IsLocal(name string) bool {
	return len(name) > 0 && name[0] == scopeSeparator
}

// A Symbol is a named value recorded by the assembler.
type Symbol struct {
	Name  string // fully qualified name (scope + local name for locals)
	Value int
}

type symbol struct {
	value int
	pass  int // the pass in which the symbol was last defined
}

// A SymbolTable maps symbol names to values. Local symbols are stored under
// a key qualified by their global scope. The table remembers the pass in
// which each symbol was defined, so that a definition made again on a later
// pass can be checked against the earlier value.
type SymbolTable struct {
	symbols map[string]*symbol
	pass    int
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*symbol)}
}

// Clear removes all symbols and resets the pass to 0.
func (t *SymbolTable) Clear() {
	t.symbols = make(map[string]*symbol)
	t.pass = 0
}

// BeginPass starts a new assembler pass.
func (t *SymbolTable) BeginPass(pass int) {
	t.pass = pass
}

// Return the storage key of a symbol referenced within 'scope'.
func qualify(scope, name string) (string, error) {
	if !IsLocal(name) {
		return name, nil
	}
	if scope == "" {
		return "", newError(ErrSymbol, "local symbol '%s' has no enclosing global label", name)
	}
	return scope + name, nil
}

// Define assigns a value to a symbol. Defining a symbol twice in the same
// pass is an error, as is defining it with a value different from the one
// it received on an earlier pass.
func (t *SymbolTable) Define(scope, name string, value int) error {
	key, err := qualify(scope, name)
	if err != nil {
		return err
	}

	if s, ok := t.symbols[key]; ok {
		switch {
		case s.pass == t.pass:
			return newError(ErrSymbol, "symbol '%s' defined more than once", key)
		case s.value != value:
			return newError(ErrPhase,
				"symbol '%s' changed value between passes ($%04X then $%04X); "+
					"an instruction's size likely changed after zero-page folding",
				key, s.value, value)
		}
		s.pass = t.pass
		return nil
	}

	t.symbols[key] = &symbol{value: value, pass: t.pass}
	return nil
}

// Lookup returns the value of a symbol referenced within 'scope'. The
// boolean result is false if the symbol has no value yet.
func (t *SymbolTable) Lookup(scope, name string) (int, bool, error) {
	key, err := qualify(scope, name)
	if err != nil {
		return 0, false, err
	}
	if s, ok := t.symbols[key]; ok {
		return s.value, true, nil
	}
	return 0, false, nil
}

// IsDefined returns true if the symbol referenced within 'scope' has a
// value.
func (t *SymbolTable) IsDefined(scope, name string) bool {
	_, ok, err := t.Lookup(scope, name)
	return ok && err == nil
}

// Len returns the number of symbols in the table.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// Symbols returns all defined symbols sorted by name.
func (t *SymbolTable) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(t.symbols))
	for k, s := range t.symbols {
		syms = append(syms, Symbol{Name: k, Value: s.value})
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].Name < syms[j].Name
	})
	return syms
}
