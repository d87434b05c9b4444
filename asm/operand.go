// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"

	"github.com/beevik/kimasm/cpu"
)

// An operand represents the parameter of an assembly instruction, as
// parsed from the source line.
type operand struct {
	mode cpu.Mode // concrete or pending addressing mode
	expr *Expr    // operand expression, nil for implied mode
}

// Parse the operand following a mnemonic. The returned mode is concrete
// when the syntax alone decides it (implied, immediate, indirect forms),
// and pending when the operand's value is needed to choose between
// absolute and zero-page addressing.
func parseOperand(p *exprParser) (o operand, err error) {
	t := p.peek()
	switch {
	case t.Type == TokenEnd:
		o.mode = cpu.IMP
		return o, nil

	case t.isSymbol("A") && p.tokens[p.pos+1].Type == TokenEnd:
		// Accumulator addressing is encoded as implied.
		p.next()
		o.mode = cpu.IMP
		return o, nil

	case t.is("#"):
		p.next()
		o.mode = cpu.IMM
		o.expr, err = p.parseAll()
		return o, err

	case t.is("("):
		start := p.pos
		ind, ok, ierr := parseIndirect(p)
		if ierr != nil || ok {
			return ind, ierr
		}
		// Not an indirect form, so the parentheses belong to an ordinary
		// expression such as "(1+2)*3".
		p.rewind(start)
	}

	o.mode = cpu.PND
	if o.expr, err = p.parse(); err != nil {
		return o, err
	}

	if p.peek().is(",") {
		p.next()
		switch r := p.next(); {
		case r.isSymbol("x"):
			o.mode = cpu.PNX
		case r.isSymbol("y"):
			o.mode = cpu.PNY
		default:
			return o, newError(ErrAddressingMode, "invalid index register %s", r)
		}
	}

	return o, expectOperandEnd(p)
}

// Attempt to parse one of the indirect forms "(expr)", "(expr,x)" and
// "(expr),y". The boolean result is false if the operand turns out to be a
// parenthesized expression instead.
func parseIndirect(p *exprParser) (o operand, ok bool, err error) {
	p.next() // '('
	if o.expr, err = p.parse(); err != nil {
		return o, false, err
	}

	switch t := p.next(); {
	case t.is(","):
		if r := p.next(); !r.isSymbol("x") {
			return o, false, newError(ErrAddressingMode, "invalid indexed indirect operand; expected (expr,x)")
		}
		if !p.next().is(")") {
			return o, false, newError(ErrAddressingMode, "invalid indexed indirect operand; expected (expr,x)")
		}
		o.mode = cpu.IDX

	case t.is(")"):
		switch {
		case p.atEnd():
			o.mode = cpu.IND
		case p.peek().is(",") && p.tokens[p.pos+1].isSymbol("y"):
			p.next()
			p.next()
			o.mode = cpu.IDY
		default:
			return o, false, nil
		}

	default:
		return o, false, newError(ErrExpression, "unbalanced parentheses")
	}

	return o, true, expectOperandEnd(p)
}

func expectOperandEnd(p *exprParser) error {
	if t := p.peek(); t.Type != TokenEnd {
		if t.is(")") {
			return newError(ErrExpression, "unbalanced parentheses")
		}
		return newError(ErrAddressingMode, "unexpected %s in operand", t)
	}
	return nil
}

// Choose the concrete addressing mode for an instruction. Branch
// instructions always use relative addressing. Otherwise a pending mode
// folds to its zero-page form when the operand value is known, fits in one
// unsigned byte, and the instruction has a zero-page encoding.
func resolveMode(set *cpu.InstructionSet, mnemonic string, mode cpu.Mode, v Value) cpu.Mode {
	if mode == cpu.PND && set.IsBranch(mnemonic) {
		return cpu.REL
	}

	var zp, abs cpu.Mode
	switch mode {
	case cpu.PND:
		zp, abs = cpu.ZPG, cpu.ABS
	case cpu.PNX:
		zp, abs = cpu.ZPX, cpu.ABX
	case cpu.PNY:
		zp, abs = cpu.ZPY, cpu.ABY
	default:
		return mode
	}

	if v.Defined && v.N >= 0 && v.N < 0x100 {
		if _, ok := set.Find(mnemonic, zp); ok {
			return zp
		}
	}
	return abs
}

// Encode an instruction into machine code. The 'pc' is the address of the
// opcode byte. The value is the evaluated operand, ignored for implied
// addressing.
func encode(set *cpu.InstructionSet, mnemonic string, mode cpu.Mode, v Value, pc int) ([]byte, error) {
	mode = resolveMode(set, mnemonic, mode, v)

	inst, ok := set.Find(mnemonic, mode)
	if !ok {
		return nil, newError(ErrAddressingMode, "addressing mode %s not supported by %s",
			modeDescription[mode], strings.ToUpper(mnemonic))
	}

	switch mode.OperandSize() {
	case 0:
		return []byte{inst.Opcode}, nil

	case 1:
		if mode == cpu.REL {
			offset, err := relOffset(v, pc)
			if err != nil {
				return nil, err
			}
			return []byte{inst.Opcode, offset}, nil
		}
		return []byte{inst.Opcode, byte(v.N)}, nil

	default:
		return []byte{inst.Opcode, byte(v.N), byte(v.N >> 8)}, nil
	}
}

// Compute the relative offset from the location counter following a
// branch instruction (its opcode address plus 2) to the target as a two's
// complement byte. An undefined target is not range-checked.
func relOffset(target Value, pc int) (byte, error) {
	if !target.Defined {
		return 0, nil
	}
	// Addresses wrap at $FFFF, so the distance is taken modulo 64K.
	diff := (target.N - (pc + 2)) & 0xffff
	if diff >= 0x8000 {
		diff -= 0x10000
	}
	if diff < -128 || diff > 127 {
		return 0, newError(ErrBranchRange, "branch target $%04X out of range (offset %d)", target.N&0xffff, diff)
	}
	return byte(diff), nil
}

var modeDescription = map[cpu.Mode]string{
	cpu.IMP: "implied",
	cpu.IMM: "immediate",
	cpu.ABS: "absolute",
	cpu.ZPG: "zero page",
	cpu.ABX: "absolute,x",
	cpu.ABY: "absolute,y",
	cpu.IND: "indirect",
	cpu.REL: "relative",
	cpu.ZPX: "zero page,x",
	cpu.ZPY: "zero page,y",
	cpu.IDX: "(indirect,x)",
	cpu.IDY: "(indirect),y",
}
