// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

const testProgram = `
; test program
	org $0200
start:	lda #$05
.loop	sta $20
	dex
	bne .loop
	rts
table	db "AB", 0
`

func writeSource(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func runScript(t *testing.T, h *Host, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, false)
	return out.String()
}

func newTestHost(t *testing.T) (*Host, string) {
	t.Helper()
	h := New(log.NewTestLogger(t))
	path := writeSource(t, "test.asm", testProgram)
	assert.NoError(t, h.AssembleFile(path))
	return h, path
}

func TestAssembleCommand(t *testing.T) {
	h := New(log.NewTestLogger(t))
	path := writeSource(t, "test.asm", testProgram)

	out := runScript(t, h, "assemble "+path)
	assert.Contains(t, out, "11 bytes, 3 symbols")
	assert.NotNil(t, h.Assembly())
}

func TestAssembleCommandError(t *testing.T) {
	h := New(log.NewTestLogger(t))
	path := writeSource(t, "bad.asm", "\tlda (1,y)\n")

	out := runScript(t, h, "assemble "+path)
	assert.Contains(t, out, "bad.asm:1:")
	assert.Contains(t, out, "Failed to assemble")
	assert.Nil(t, h.Assembly())
}

func TestNothingAssembled(t *testing.T) {
	h := New(log.NewTestLogger(t))
	out := runScript(t, h, "disassemble", "memory dump 0", "symbols")
	assert.Equal(t, 3, strings.Count(out, "Nothing has been assembled."))
}

func TestDisassembleCommand(t *testing.T) {
	h, _ := newTestHost(t)

	out := runScript(t, h, "disassemble $0200 3")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, 3, len(lines))
	assert.Contains(t, lines[0], "0200-   A9 05")
	assert.Contains(t, lines[0], "LDA #$05")
	assert.Contains(t, lines[1], "STA $20")
	assert.Contains(t, lines[2], "DEX")

	// An empty line repeats the command, continuing where it left off.
	out = runScript(t, h, "d $0200 3", "")
	assert.Contains(t, out, "BNE $0202")
	assert.Contains(t, out, "RTS")
}

func TestMemoryDumpCommand(t *testing.T) {
	h, _ := newTestHost(t)

	out := runScript(t, h, "memory dump $0200 4")
	assert.Equal(t, "0200- A9 05 85 20", strings.TrimRight(strings.SplitN(out, "  ", 2)[0], " "))

	out = runScript(t, h, "m $01fe 4")
	assert.Contains(t, out, "01FE- -- -- A9 05")
}

func TestEvaluateCommand(t *testing.T) {
	h, _ := newTestHost(t)

	out := runScript(t, h,
		"evaluate start+1",
		"e >table",
		"e nowhere",
		"e 1 +",
	)
	assert.Contains(t, out, "$0201 (513)")
	assert.Contains(t, out, "$0002 (2)")
	assert.Contains(t, out, "undefined symbol 'nowhere'")
	assert.Contains(t, out, "expression")
}

func TestSymbolsCommand(t *testing.T) {
	h, _ := newTestHost(t)

	out := runScript(t, h, "symbols")
	assert.Contains(t, out, "start.loop")
	assert.Contains(t, out, "$0202")
	assert.Contains(t, out, "table")

	out = runScript(t, h, "symbols tab")
	assert.Contains(t, out, "table")
	assert.False(t, strings.Contains(out, "start"))

	out = runScript(t, h, "symbols start")
	assert.Contains(t, out, "start")
	assert.False(t, strings.Contains(out, "table"))

	out = runScript(t, h, "symbols zzz")
	assert.Contains(t, out, "No symbols match 'zzz'.")
}

func TestListCommand(t *testing.T) {
	h, _ := newTestHost(t)

	out := runScript(t, h, "list $0202 2")
	assert.Contains(t, out, "0202  85 20")
	assert.Contains(t, out, "dex")
	assert.False(t, strings.Contains(out, "bne"))

	out = runScript(t, h, "list $0202 1", "")
	assert.Contains(t, out, "dex")
}

func TestSaveCommand(t *testing.T) {
	h, path := newTestHost(t)

	out := runScript(t, h, "save")
	assert.Contains(t, out, "Saved")

	base := strings.TrimSuffix(path, filepath.Ext(path))
	kim, err := os.ReadFile(base + ".kim")
	assert.NoError(t, err)
	assert.Contains(t, string(kim), ";0B0200A905")

	lst, err := os.ReadFile(base + ".lst")
	assert.NoError(t, err)
	assert.Contains(t, string(lst), "Symbols:")

	_, err = os.Stat(base + ".map")
	assert.NoError(t, err)
}

func TestSetCommand(t *testing.T) {
	h := New(log.NewTestLogger(t))

	out := runScript(t, h, "set")
	assert.Contains(t, out, "MemDumpBytes")

	out = runScript(t, h, "set origin $1000", "set strict on", "set disasm 4", "set bogus 1")
	assert.Equal(t, 3, strings.Count(out, "Setting updated."))
	assert.Contains(t, out, "Setting 'bogus' not found.")
	assert.Equal(t, uint16(0x1000), h.settings.Origin)
	assert.True(t, h.settings.StrictMultiply)
	assert.Equal(t, 4, h.settings.DisasmLines)

	path := writeSource(t, "org.asm", "\tnop\n")
	assert.NoError(t, h.AssembleFile(path))
	v, ok := h.Assembly().Memory.LoadByte(0x1000)
	assert.True(t, ok)
	assert.Equal(t, byte(0xea), v)
}

func TestSymbolsNegativeValue(t *testing.T) {
	h := New(log.NewTestLogger(t))
	path := writeSource(t, "neg.asm", "minus = -1\n\tnop\n")
	assert.NoError(t, h.AssembleFile(path))

	out := runScript(t, h, "symbols", "symbols min")
	assert.Equal(t, 2, strings.Count(out, "$FFFF"))
	assert.False(t, strings.Contains(out, "$-"))
}

func TestHelpCommand(t *testing.T) {
	h := New(log.NewTestLogger(t))

	out := runScript(t, h, "help")
	assert.Contains(t, out, "kimasm commands:")
	assert.Contains(t, out, "Assemble a file")

	out = runScript(t, h, "help memory dump")
	assert.Contains(t, out, "Usage: memory dump [<address>] [<bytes>]")
	assert.Contains(t, out, "Description:")

	out = runScript(t, h, "help memory")
	assert.Contains(t, out, "memory commands:")
	assert.Contains(t, out, "dump")

	out = runScript(t, h, "? e")
	assert.Contains(t, out, "Usage: evaluate <expression>")
	assert.Contains(t, out, "Shortcut: e")

	out = runScript(t, h, "help nothing")
	assert.Contains(t, out, "Unknown command 'nothing'.")
}

func TestSubtreeListsCommands(t *testing.T) {
	h := New(log.NewTestLogger(t))
	out := runScript(t, h, "memory")
	assert.Contains(t, out, "memory commands:")
	assert.Contains(t, out, "Dump memory at address")
	assert.False(t, strings.Contains(out, "Command not found."))
}

func TestMissingArguments(t *testing.T) {
	h := New(log.NewTestLogger(t))
	out := runScript(t, h, "evaluate", "assemble", "set origin")
	assert.Contains(t, out, "Usage: evaluate <expression>")
	assert.Contains(t, out, "Usage: assemble <filename>")
	assert.Contains(t, out, "Usage: set [<var> <value>]")
}

func TestQuitStopsProcessing(t *testing.T) {
	h := New(log.NewTestLogger(t))
	out := runScript(t, h, "quit", "set")
	assert.False(t, strings.Contains(out, "Variables:"))
}

func TestUnknownCommand(t *testing.T) {
	h := New(log.NewTestLogger(t))
	out := runScript(t, h, "frobnicate")
	assert.Contains(t, out, "Command not found.")
}
