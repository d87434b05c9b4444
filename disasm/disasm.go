// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/kimasm/cpu"
)

// Memory is the memory image being disassembled. The boolean result of
// LoadByte is false for addresses that hold no assembled byte.
type Memory interface {
	LoadByte(addr uint16) (byte, bool)
}

// Disassembler formatting for addressing modes
var modeFormat = map[cpu.Mode]string{
	cpu.IMM: "#$%s",
	cpu.IMP: "%s",
	cpu.REL: "$%s",
	cpu.ZPG: "$%s",
	cpu.ZPX: "$%s,X",
	cpu.ZPY: "$%s,Y",
	cpu.ABS: "$%s",
	cpu.ABX: "$%s,X",
	cpu.ABY: "$%s,Y",
	cpu.IND: "($%s)",
	cpu.IDX: "($%s,X)",
	cpu.IDY: "($%s),Y",
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Bytes that are
// not documented NMOS opcodes disassemble as data.
func Disassemble(m Memory, addr uint16) (line string, next uint16) {
	opcode, ok := m.LoadByte(addr)
	if !ok {
		return "???", addr + 1
	}

	inst := cpu.GetInstructionSet().Lookup(opcode)
	if inst == nil {
		return fmt.Sprintf(".db $%02X", opcode), addr + 1
	}

	operand := make([]byte, inst.Length-1)
	for i := range operand {
		operand[i], _ = m.LoadByte(addr + 1 + uint16(i))
	}

	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := int(addr) + int(inst.Length) + int(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}

	line = fmt.Sprintf("%s "+modeFormat[inst.Mode], inst.Name, hexString(operand))
	if inst.Mode == cpu.IMP {
		line = inst.Name
	}
	next = addr + uint16(inst.Length)
	return
}
