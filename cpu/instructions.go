// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu describes the NMOS 6502 instruction set: its addressing modes,
// the opcode assigned to every (mnemonic, mode) pair, and the relative
// branch instructions.
package cpu

import "strings"

// Mode describes a memory addressing mode.
type Mode byte

// All possible memory addressing modes
const (
	IMP Mode = iota // Implied (no operand, includes accumulator)
	IMM             // Immediate
	ABS             // Absolute
	ZPG             // Zero Page
	ABX             // Absolute,X
	ABY             // Absolute,Y
	IND             // (Indirect)
	REL             // Relative
	ZPX             // Zero Page,X
	ZPY             // Zero Page,Y
	IDX             // (Indirect,X)
	IDY             // (Indirect),Y

	// Pending modes. The operand syntax has been parsed, but the final
	// mode depends on the operand's value.
	PND // Absolute or Zero Page
	PNX // Absolute,X or Zero Page,X
	PNY // Absolute,Y or Zero Page,Y
)

var modeName = []string{
	"IMP", "IMM", "ABS", "ZPG", "ABX", "ABY", "IND",
	"REL", "ZPX", "ZPY", "IDX", "IDY", "PND", "PNX", "PNY",
}

func (m Mode) String() string {
	if int(m) < len(modeName) {
		return modeName[m]
	}
	return "???"
}

// IsPending returns true if the mode has not yet been resolved to a
// concrete addressing mode.
func (m Mode) IsPending() bool {
	return m >= PND
}

// OperandSize returns the number of operand bytes following the opcode
// for a concrete addressing mode.
func (m Mode) OperandSize() int {
	switch m {
	case IMP:
		return 0
	case ABS, ABX, ABY, IND:
		return 2
	default:
		return 1
	}
}

// Opcode data for a (mnemonic, mode) pair
type opcodeData struct {
	name   string
	mode   Mode
	opcode byte
}

// All valid NMOS (mnemonic, mode) pairs
var data = []opcodeData{
	{"LDA", IMM, 0xa9},
	{"LDA", ZPG, 0xa5},
	{"LDA", ZPX, 0xb5},
	{"LDA", ABS, 0xad},
	{"LDA", ABX, 0xbd},
	{"LDA", ABY, 0xb9},
	{"LDA", IDX, 0xa1},
	{"LDA", IDY, 0xb1},

	{"LDX", IMM, 0xa2},
	{"LDX", ZPG, 0xa6},
	{"LDX", ZPY, 0xb6},
	{"LDX", ABS, 0xae},
	{"LDX", ABY, 0xbe},

	{"LDY", IMM, 0xa0},
	{"LDY", ZPG, 0xa4},
	{"LDY", ZPX, 0xb4},
	{"LDY", ABS, 0xac},
	{"LDY", ABX, 0xbc},

	{"STA", ZPG, 0x85},
	{"STA", ZPX, 0x95},
	{"STA", ABS, 0x8d},
	{"STA", ABX, 0x9d},
	{"STA", ABY, 0x99},
	{"STA", IDX, 0x81},
	{"STA", IDY, 0x91},

	{"STX", ZPG, 0x86},
	{"STX", ZPY, 0x96},
	{"STX", ABS, 0x8e},

	{"STY", ZPG, 0x84},
	{"STY", ZPX, 0x94},
	{"STY", ABS, 0x8c},

	{"ADC", IMM, 0x69},
	{"ADC", ZPG, 0x65},
	{"ADC", ZPX, 0x75},
	{"ADC", ABS, 0x6d},
	{"ADC", ABX, 0x7d},
	{"ADC", ABY, 0x79},
	{"ADC", IDX, 0x61},
	{"ADC", IDY, 0x71},

	{"SBC", IMM, 0xe9},
	{"SBC", ZPG, 0xe5},
	{"SBC", ZPX, 0xf5},
	{"SBC", ABS, 0xed},
	{"SBC", ABX, 0xfd},
	{"SBC", ABY, 0xf9},
	{"SBC", IDX, 0xe1},
	{"SBC", IDY, 0xf1},

	{"CMP", IMM, 0xc9},
	{"CMP", ZPG, 0xc5},
	{"CMP", ZPX, 0xd5},
	{"CMP", ABS, 0xcd},
	{"CMP", ABX, 0xdd},
	{"CMP", ABY, 0xd9},
	{"CMP", IDX, 0xc1},
	{"CMP", IDY, 0xd1},

	{"CPX", IMM, 0xe0},
	{"CPX", ZPG, 0xe4},
	{"CPX", ABS, 0xec},

	{"CPY", IMM, 0xc0},
	{"CPY", ZPG, 0xc4},
	{"CPY", ABS, 0xcc},

	{"BIT", ZPG, 0x24},
	{"BIT", ABS, 0x2c},

	{"CLC", IMP, 0x18},
	{"SEC", IMP, 0x38},
	{"CLI", IMP, 0x58},
	{"SEI", IMP, 0x78},
	{"CLD", IMP, 0xd8},
	{"SED", IMP, 0xf8},
	{"CLV", IMP, 0xb8},

	{"BCC", REL, 0x90},
	{"BCS", REL, 0xb0},
	{"BEQ", REL, 0xf0},
	{"BNE", REL, 0xd0},
	{"BMI", REL, 0x30},
	{"BPL", REL, 0x10},
	{"BVC", REL, 0x50},
	{"BVS", REL, 0x70},

	{"BRK", IMP, 0x00},

	{"AND", IMM, 0x29},
	{"AND", ZPG, 0x25},
	{"AND", ZPX, 0x35},
	{"AND", ABS, 0x2d},
	{"AND", ABX, 0x3d},
	{"AND", ABY, 0x39},
	{"AND", IDX, 0x21},
	{"AND", IDY, 0x31},

	{"ORA", IMM, 0x09},
	{"ORA", ZPG, 0x05},
	{"ORA", ZPX, 0x15},
	{"ORA", ABS, 0x0d},
	{"ORA", ABX, 0x1d},
	{"ORA", ABY, 0x19},
	{"ORA", IDX, 0x01},
	{"ORA", IDY, 0x11},

	{"EOR", IMM, 0x49},
	{"EOR", ZPG, 0x45},
	{"EOR", ZPX, 0x55},
	{"EOR", ABS, 0x4d},
	{"EOR", ABX, 0x5d},
	{"EOR", ABY, 0x59},
	{"EOR", IDX, 0x41},
	{"EOR", IDY, 0x51},

	{"INC", ZPG, 0xe6},
	{"INC", ZPX, 0xf6},
	{"INC", ABS, 0xee},
	{"INC", ABX, 0xfe},

	{"DEC", ZPG, 0xc6},
	{"DEC", ZPX, 0xd6},
	{"DEC", ABS, 0xce},
	{"DEC", ABX, 0xde},

	{"INX", IMP, 0xe8},
	{"INY", IMP, 0xc8},
	{"DEX", IMP, 0xca},
	{"DEY", IMP, 0x88},

	{"JMP", ABS, 0x4c},
	{"JMP", IND, 0x6c},
	{"JSR", ABS, 0x20},
	{"RTS", IMP, 0x60},
	{"RTI", IMP, 0x40},

	{"NOP", IMP, 0xea},

	{"TAX", IMP, 0xaa},
	{"TXA", IMP, 0x8a},
	{"TAY", IMP, 0xa8},
	{"TYA", IMP, 0x98},
	{"TXS", IMP, 0x9a},
	{"TSX", IMP, 0xba},

	{"PHA", IMP, 0x48},
	{"PLA", IMP, 0x68},
	{"PHP", IMP, 0x08},
	{"PLP", IMP, 0x28},

	{"ASL", IMP, 0x0a},
	{"ASL", ZPG, 0x06},
	{"ASL", ZPX, 0x16},
	{"ASL", ABS, 0x0e},
	{"ASL", ABX, 0x1e},

	{"LSR", IMP, 0x4a},
	{"LSR", ZPG, 0x46},
	{"LSR", ZPX, 0x56},
	{"LSR", ABS, 0x4e},
	{"LSR", ABX, 0x5e},

	{"ROL", IMP, 0x2a},
	{"ROL", ZPG, 0x26},
	{"ROL", ZPX, 0x36},
	{"ROL", ABS, 0x2e},
	{"ROL", ABX, 0x3e},

	{"ROR", IMP, 0x6a},
	{"ROR", ZPG, 0x66},
	{"ROR", ZPX, 0x76},
	{"ROR", ABS, 0x6e},
	{"ROR", ABX, 0x7e},
}

// An Instruction describes a CPU instruction, including its name, its
// addressing mode, its opcode value and its length.
type Instruction struct {
	Name   string // all-caps name of the instruction
	Mode   Mode   // addressing mode
	Opcode byte   // hexadecimal opcode value
	Length byte   // combined size of opcode and operand, in bytes
}

// An InstructionSet defines the set of all instructions the assembler can
// encode.
type InstructionSet struct {
	instructions [256]*Instruction                // all instructions by opcode
	modes        map[string]map[Mode]*Instruction // mnemonic -> mode -> instruction
	branches     map[string]bool                  // relative branch mnemonics
}

// Lookup retrieves the instruction corresponding to the requested opcode.
// It returns nil if the opcode is not a documented NMOS opcode.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return s.instructions[opcode]
}

// Find returns the instruction encoding the mnemonic with the requested
// addressing mode.
func (s *InstructionSet) Find(name string, mode Mode) (*Instruction, bool) {
	inst, ok := s.modes[strings.ToUpper(name)][mode]
	return inst, ok
}

// IsMnemonic returns true if the name is a known instruction mnemonic.
func (s *InstructionSet) IsMnemonic(name string) bool {
	_, ok := s.modes[strings.ToUpper(name)]
	return ok
}

// IsBranch returns true if the mnemonic is a relative branch instruction.
func (s *InstructionSet) IsBranch(name string) bool {
	return s.branches[strings.ToUpper(name)]
}

func newInstructionSet() *InstructionSet {
	set := &InstructionSet{
		modes:    make(map[string]map[Mode]*Instruction),
		branches: make(map[string]bool),
	}

	for _, d := range data {
		inst := &Instruction{
			Name:   d.name,
			Mode:   d.mode,
			Opcode: d.opcode,
			Length: byte(1 + d.mode.OperandSize()),
		}
		if set.instructions[d.opcode] != nil {
			panic("duplicate opcode")
		}
		set.instructions[d.opcode] = inst

		m, ok := set.modes[d.name]
		if !ok {
			m = make(map[Mode]*Instruction)
			set.modes[d.name] = m
		}
		m[d.mode] = inst

		if d.mode == REL {
			set.branches[d.name] = true
		}
	}
	return set
}

var nmos = newInstructionSet()

// GetInstructionSet returns the NMOS 6502 instruction set.
func GetInstructionSet() *InstructionSet {
	return nmos
}
