// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"testing"

	"github.com/beevik/kimasm/cpu"
	"github.com/retroenv/retrogolib/assert"
)

func parseOperandString(t *testing.T, s string) (operand, error) {
	t.Helper()
	_, tokens, err := Tokenize(s)
	assert.NoError(t, err)
	return parseOperand(newExprParser(tokens))
}

func TestParseOperand(t *testing.T) {
	tests := []struct {
		operand string
		mode    cpu.Mode
		expr    string
	}{
		{"", cpu.IMP, ""},
		{"A", cpu.IMP, ""},
		{"a", cpu.IMP, ""},
		{"#1", cpu.IMM, "1"},
		{"#<label", cpu.IMM, "label [<]"},
		{"label", cpu.PND, "label"},
		{"a+1", cpu.PND, "a 1 +"},
		{"label,x", cpu.PNX, "label"},
		{"label,Y", cpu.PNY, "label"},
		{"(ptr)", cpu.IND, "ptr"},
		{"(ptr,x)", cpu.IDX, "ptr"},
		{"(ptr),y", cpu.IDY, "ptr"},
		{"(ptr+1),Y", cpu.IDY, "ptr 1 +"},
		{"(1+2)*3", cpu.PND, "1 2 + 3 *"},
		{"(1+2)*3,x", cpu.PNX, "1 2 + 3 *"},
		{"(label+1),x", cpu.PNX, "label 1 +"},
		{"*+2", cpu.PND, "* 2 +"},
	}

	for _, test := range tests {
		o, err := parseOperandString(t, test.operand)
		assert.NoError(t, err)
		assert.Equal(t, test.mode, o.mode)
		if test.expr == "" {
			assert.True(t, o.expr == nil)
		} else if o.expr != nil {
			assert.Equal(t, test.expr, o.expr.String())
		}
	}
}

func TestParseOperandErrors(t *testing.T) {
	tests := []struct {
		operand string
		kind    error
	}{
		{"label,z", ErrAddressingMode},
		{"(ptr,y)", ErrAddressingMode},
		{"(ptr,x", ErrAddressingMode},
		{"(ptr", ErrExpression},
		{"ptr)", ErrExpression},
		{"(ptr),y extra", ErrAddressingMode},
		{"label extra", ErrAddressingMode},
		{"#", ErrExpression},
	}

	for _, test := range tests {
		_, err := parseOperandString(t, test.operand)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, test.kind))
	}
}

func TestResolveMode(t *testing.T) {
	set := cpu.GetInstructionSet()
	defined := func(n int) Value { return Value{N: n, Defined: true} }
	undefined := Value{N: 1, Missing: "later"}

	tests := []struct {
		mnemonic string
		mode     cpu.Mode
		v        Value
		want     cpu.Mode
	}{
		{"LDA", cpu.PND, defined(0x20), cpu.ZPG},
		{"LDA", cpu.PND, defined(0xff), cpu.ZPG},
		{"LDA", cpu.PND, defined(0x100), cpu.ABS},
		{"LDA", cpu.PND, defined(-1), cpu.ABS},
		{"LDA", cpu.PND, undefined, cpu.ABS},
		{"LDA", cpu.PNX, defined(0x20), cpu.ZPX},
		{"LDA", cpu.PNY, defined(0x20), cpu.ABY},
		{"LDX", cpu.PNY, defined(0x20), cpu.ZPY},
		{"JMP", cpu.PND, defined(0x20), cpu.ABS},
		{"JSR", cpu.PND, defined(0x20), cpu.ABS},
		{"BNE", cpu.PND, defined(0x20), cpu.REL},
		{"bcc", cpu.PND, undefined, cpu.REL},
		{"LDA", cpu.IMM, defined(1), cpu.IMM},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, resolveMode(set, test.mnemonic, test.mode, test.v))
	}
}

func TestEncode(t *testing.T) {
	set := cpu.GetInstructionSet()

	b, err := encode(set, "lda", cpu.IMM, Value{N: 5, Defined: true}, 0x1000)
	assert.NoError(t, err)
	assert.Equal(t, "A9 05", byteString(b))

	b, err = encode(set, "STA", cpu.PND, Value{N: 0x1234, Defined: true}, 0x1000)
	assert.NoError(t, err)
	assert.Equal(t, "8D 34 12", byteString(b))

	// Undefined operands use the absolute form with the placeholder value.
	b, err = encode(set, "STA", cpu.PND, Value{N: 1}, 0x1000)
	assert.NoError(t, err)
	assert.Equal(t, "8D 01 00", byteString(b))

	b, err = encode(set, "BEQ", cpu.PND, Value{N: 0x1000, Defined: true}, 0x1000)
	assert.NoError(t, err)
	assert.Equal(t, "F0 FE", byteString(b))

	b, err = encode(set, "BEQ", cpu.PND, Value{N: 1}, 0x1000)
	assert.NoError(t, err)
	assert.Equal(t, "F0 00", byteString(b))

	_, err = encode(set, "BEQ", cpu.PND, Value{N: 0x1082, Defined: true}, 0x1000)
	assert.True(t, errors.Is(err, ErrBranchRange))

	_, err = encode(set, "STA", cpu.IMM, Value{N: 1, Defined: true}, 0x1000)
	assert.True(t, errors.Is(err, ErrAddressingMode))
}

func TestEncodeBranchWrap(t *testing.T) {
	set := cpu.GetInstructionSet()

	// Forward across $FFFF: $FFF2 -> $0010 is +30.
	b, err := encode(set, "BNE", cpu.PND, Value{N: 0x0010, Defined: true}, 0xfff0)
	assert.NoError(t, err)
	assert.Equal(t, "D0 1E", byteString(b))

	// Backward across $0000: $0002 -> $FFF0 is -18.
	b, err = encode(set, "BNE", cpu.PND, Value{N: 0xfff0, Defined: true}, 0x0000)
	assert.NoError(t, err)
	assert.Equal(t, "D0 EE", byteString(b))

	_, err = encode(set, "BNE", cpu.PND, Value{N: 0x0080, Defined: true}, 0xfff0)
	assert.ErrorIs(t, err, ErrBranchRange)
}
