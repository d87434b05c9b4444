// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestSymbolScopes(t *testing.T) {
	syms := NewSymbolTable()

	assert.NoError(t, syms.Define("", "main", 0x1000))
	assert.NoError(t, syms.Define("main", ".loop", 0x1002))
	assert.NoError(t, syms.Define("", "other", 0x2000))
	assert.NoError(t, syms.Define("other", ".loop", 0x2004))

	v, ok, err := syms.Lookup("main", ".loop")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0x1002, v)

	v, ok, err = syms.Lookup("other", ".loop")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0x2004, v)

	// Global names ignore the scope.
	v, ok, err = syms.Lookup("other", "main")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0x1000, v)

	assert.True(t, syms.IsDefined("main", ".loop"))
	assert.False(t, syms.IsDefined("main", ".missing"))
	assert.False(t, syms.IsDefined("", ".loop"))
	assert.False(t, syms.IsDefined("", "Main"))
	assert.Equal(t, 4, syms.Len())
}

func TestSymbolLocalWithoutScope(t *testing.T) {
	syms := NewSymbolTable()

	err := syms.Define("", ".early", 1)
	assert.True(t, errors.Is(err, ErrSymbol))

	_, _, err = syms.Lookup("", ".early")
	assert.True(t, errors.Is(err, ErrSymbol))
}

func TestSymbolPasses(t *testing.T) {
	syms := NewSymbolTable()

	assert.NoError(t, syms.Define("", "label", 0x1000))
	err := syms.Define("", "label", 0x1000)
	assert.True(t, errors.Is(err, ErrSymbol))

	syms.BeginPass(1)
	assert.NoError(t, syms.Define("", "label", 0x1000))
	err = syms.Define("", "label", 0x1000)
	assert.True(t, errors.Is(err, ErrSymbol))

	assert.NoError(t, syms.Define("", "new", 5))

	syms.Clear()
	assert.Equal(t, 0, syms.Len())
}

func TestSymbolPhaseError(t *testing.T) {
	syms := NewSymbolTable()
	assert.NoError(t, syms.Define("", "label", 0x1003))

	syms.BeginPass(1)
	err := syms.Define("", "label", 0x1002)
	assert.True(t, errors.Is(err, ErrPhase))
	assert.Contains(t, err.Error(), "symbol 'label' changed value between passes ($1003 then $1002)")
}

func TestSymbolsSorted(t *testing.T) {
	syms := NewSymbolTable()
	for i, name := range []string{"zeta", "alpha", "Beta", "mid"} {
		assert.NoError(t, syms.Define("", name, i))
	}
	assert.NoError(t, syms.Define("alpha", ".x", 9))

	assert.Equal(t, "Beta=$0002 alpha=$0001 alpha.x=$0009 mid=$0003 zeta=$0000",
		symbolString(syms.Symbols()))
}
