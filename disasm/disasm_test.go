// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"strings"
	"testing"

	"github.com/beevik/kimasm/asm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestDisassembleRoundTrip(t *testing.T) {
	lines := []string{
		"LDA #$05",
		"STA $20",
		"STA $1234",
		"LDA $20,X",
		"LDX $20,Y",
		"LDA $1234,X",
		"LDA $1234,Y",
		"JMP ($1234)",
		"LDA ($20,X)",
		"LDA ($20),Y",
		"ASL",
		"BNE $0200",
		"BEQ $0220",
		"RTS",
	}

	src := "\torg $0200\n\t" + strings.Join(lines, "\n\t")
	a, err := asm.Assemble(strings.NewReader(src), "test", asm.Options{Logger: log.NewTestLogger(t)})
	assert.NoError(t, err)

	addr := uint16(0x0200)
	for _, want := range lines {
		line, next := Disassemble(a.Memory, addr)
		assert.Equal(t, want, line)
		addr = next
	}
	assert.Equal(t, uint16(0x0200+a.Memory.Len()), addr)
}

func TestDisassembleData(t *testing.T) {
	m := asm.NewMemory()
	m.StoreBytes(0x1000, []byte{0x02, 0xea})

	line, next := Disassemble(m, 0x1000)
	assert.Equal(t, ".db $02", line)
	assert.Equal(t, uint16(0x1001), next)

	line, next = Disassemble(m, next)
	assert.Equal(t, "NOP", line)
	assert.Equal(t, uint16(0x1002), next)

	line, next = Disassemble(m, next)
	assert.Equal(t, "???", line)
	assert.Equal(t, uint16(0x1003), next)
}
