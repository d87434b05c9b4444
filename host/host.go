// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides an interactive shell around the assembler. Within
// the host it is possible to assemble a source file, inspect the resulting
// memory image, listing and symbol table, disassemble the generated code,
// evaluate expressions and save the KIM-1 hex output.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/kimasm/asm"
	"github.com/beevik/kimasm/disasm"
	"github.com/beevik/prefixtree/v2"
	"github.com/retroenv/retrogolib/log"
)

// A Host holds the results of the most recent assembly and processes
// commands that operate on them.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *selection
	settings    *settings
	logger      *log.Logger
	path        string
	assembly    *asm.Assembly
	symbols     *prefixtree.Tree[asm.Symbol]
	nextListing int
}

// A command chosen from the command tree, along with its arguments.
type selection struct {
	command *cmd.Command
	args    []string
}

// New creates a new host. Assembly diagnostics are written to the logger.
func New(logger *log.Logger) *Host {
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Level = log.ErrorLevel
		logger = log.NewWithConfig(cfg)
	}
	return &Host{
		settings: newSettings(),
		logger:   logger,
	}
}

// Set assigns a value to the configuration variable identified by key.
func (h *Host) Set(key string, value any) error {
	return h.settings.Set(key, value)
}

// Assembly returns the result of the most recent successful assembly, or
// nil if nothing has been assembled.
func (h *Host) Assembly() *asm.Assembly {
	return h.assembly
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c selection
		if line != "" {
			n, args, err := cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}

			switch n := n.(type) {
			case *cmd.Tree:
				// A bare subtree name lists its commands.
				n.DisplayHelp(h.output)
				h.flush()
				continue
			case *cmd.Command:
				c = selection{command: n, args: args}
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.command.Data.(func(*Host, selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}
	h.flush()
}

// AssembleFile assembles the file at path using the host's current origin
// and multiply settings. On success the result replaces the previous
// assembly.
func (h *Host) AssembleFile(path string) error {
	a, err := asm.AssembleFile(path, asm.Options{
		Origin:         h.settings.Origin,
		StrictMultiply: h.settings.StrictMultiply,
		Logger:         h.logger,
	})
	if err != nil {
		return err
	}

	h.path = path
	h.assembly = a
	h.symbols = prefixtree.New[asm.Symbol]()
	for _, s := range a.Symbols {
		h.symbols.Add(strings.ToLower(s.Name), s)
	}

	origin := h.settings.Origin
	if runs := a.Memory.Runs(0x10000); len(runs) > 0 {
		origin = runs[0].Addr
	}
	h.settings.NextDisasmAddr = origin
	h.settings.NextMemDumpAddr = origin
	h.settings.NextSourceAddr = origin
	h.nextListing = 0
	return nil
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) requireAssembly() bool {
	if h.assembly == nil {
		h.println("Nothing has been assembled.")
		return false
	}
	return true
}

func (h *Host) cmdAssemble(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.args[0]
	if err := h.AssembleFile(filename); err != nil {
		h.printf("%v\n", err)
		h.printf("Failed to assemble '%s'.\n", filename)
		return nil
	}

	a := h.assembly
	h.printf("Assembled '%s': %d bytes, %d symbols.\n",
		filename, a.Memory.Len(), len(a.Symbols))
	return nil
}

// Parse an address argument. '$' continues from 'next'.
func (h *Host) parseAddr(arg string, next uint16) (uint16, error) {
	if arg == "$" {
		return next, nil
	}
	return h.parseExpr(arg)
}

func (h *Host) parseCount(args []string, i, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := h.parseExpr(args[i])
	return int(n), err
}

func (h *Host) cmdDisassemble(c selection) error {
	if !h.requireAssembly() {
		return nil
	}
	if len(c.args) == 0 {
		c.args = []string{"$"}
	}

	addr, err := h.parseAddr(c.args[0], h.settings.NextDisasmAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	lines, err := h.parseCount(c.args, 1, h.settings.DisasmLines)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c selection) error {
	if len(c.args) < 1 {
		h.displayUsage(c)
		return nil
	}

	v, err := h.evaluate(strings.Join(c.args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if v.Defined {
		h.printf("$%04X (%d)\n", uint16(v.N), v.N)
	} else {
		h.printf("undefined symbol '%s'\n", v.Missing)
	}
	return nil
}

func (h *Host) cmdHelp(c selection) error {
	if err := cmds.GetHelp(h.output, c.args); err != nil {
		h.printf("Unknown command '%s'.\n", strings.Join(c.args, " "))
		return nil
	}
	h.flush()
	return nil
}

func (h *Host) cmdList(c selection) error {
	if !h.requireAssembly() {
		return nil
	}
	if len(c.args) == 0 {
		c.args = []string{"$"}
	}

	count, err := h.parseCount(c.args, 1, h.settings.SourceLines)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	listing := h.assembly.Listing
	i := h.nextListing
	if c.args[0] != "$" || i >= len(listing) {
		addr, err := h.parseAddr(c.args[0], h.settings.NextSourceAddr)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if i = h.listingIndex(addr); i < 0 {
			h.printf("No source line produced code at $%04X.\n", addr)
			return nil
		}
	}

	for n := 0; n < count && i < len(listing); n, i = n+1, i+1 {
		for _, row := range listing[i].Rows() {
			h.println(strings.TrimRight(row, " "))
		}
	}

	h.nextListing = i
	if i < len(listing) {
		h.settings.NextSourceAddr = listing[i].Addr
	}
	h.lastCmd.args = []string{"$", fmt.Sprintf("%d", count)}
	return nil
}

// Return the index of the first listing line that produced code at or after
// addr, or -1 if there is none.
func (h *Host) listingIndex(addr uint16) int {
	filename, line := h.assembly.SourceMap.Search(int(addr))
	for i, l := range h.assembly.Listing {
		if l.File == filename && l.Line == line {
			return i
		}
	}
	for i, l := range h.assembly.Listing {
		if len(l.Code) > 0 && l.Addr >= addr {
			return i
		}
	}
	return -1
}

func (h *Host) cmdMemoryDump(c selection) error {
	if !h.requireAssembly() {
		return nil
	}
	if len(c.args) == 0 {
		c.args = []string{"$"}
	}

	addr, err := h.parseAddr(c.args[0], h.settings.NextMemDumpAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	bytes, err := h.parseCount(c.args, 1, h.settings.MemDumpBytes)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	h.dumpMemory(addr, uint16(bytes-1))

	h.settings.NextMemDumpAddr = addr + uint16(bytes)
	h.lastCmd.args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return errors.New("Exiting program")
}

func (h *Host) cmdSave(c selection) error {
	if !h.requireAssembly() {
		return nil
	}

	path := h.path
	if len(c.args) > 0 {
		path = c.args[0]
	}

	p := asm.DefaultOutputPaths(path)
	if err := h.assembly.WriteFiles(p); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Saved '%s', '%s' and '%s'.\n", p.KIM, p.Listing, p.SourceMap)
	return nil
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := c.args[0], strings.Join(c.args[1:], " ")

		name, kind, err := h.settings.Field(key)
		if err != nil {
			h.printf("Setting '%s' not found.\n", key)
			return nil
		}

		var v any
		switch kind {
		case reflect.Bool:
			v, err = stringToBool(value)
		case reflect.Uint16:
			v, err = h.parseExpr(value)
		default:
			var n uint16
			n, err = h.parseExpr(value)
			v = int(n)
		}
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}

		if err = h.settings.Set(name, v); err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.println("Setting updated.")
	}
	return nil
}

func (h *Host) cmdSymbols(c selection) error {
	if !h.requireAssembly() {
		return nil
	}

	if len(c.args) == 0 {
		for _, s := range h.assembly.Symbols {
			h.printf("    %-24s $%04X\n", s.Name, s.Value&0xffff)
		}
		return nil
	}

	matches := h.symbols.FindKeyValues(strings.ToLower(c.args[0]))
	if len(matches) == 0 {
		h.printf("No symbols match '%s'.\n", c.args[0])
		return nil
	}
	for _, kv := range matches {
		h.printf("    %-24s $%04X\n", kv.Value.Name, kv.Value.Value&0xffff)
	}
	return nil
}

// Evaluate an expression against the global symbols of the most recent
// assembly.
func (h *Host) evaluate(s string) (asm.Value, error) {
	e, err := asm.ParseExpr(s)
	if err != nil {
		return asm.Value{}, err
	}

	symbols := asm.NewSymbolTable()
	symbols.BeginPass(1)
	if h.assembly != nil {
		for _, sym := range h.assembly.Symbols {
			scope, name := "", sym.Name
			if i := strings.LastIndexByte(sym.Name, '.'); i > 0 {
				scope, name = sym.Name[:i], sym.Name[i:]
			}
			if err := symbols.Define(scope, name, sym.Value); err != nil {
				return asm.Value{}, err
			}
		}
	}

	return e.Eval(&asm.Env{
		Symbols:        symbols,
		Here:           int(h.settings.NextDisasmAddr),
		StrictMultiply: h.settings.StrictMultiply,
	})
}

func (h *Host) parseExpr(s string) (uint16, error) {
	v, err := h.evaluate(s)
	if err != nil {
		return 0, err
	}
	if !v.Defined {
		return 0, fmt.Errorf("undefined symbol '%s'", v.Missing)
	}
	return uint16(v.N), nil
}

func (h *Host) disassemble(addr uint16) (str string, next uint16) {
	m := h.assembly.Memory

	var line string
	line, next = disasm.Disassemble(m, addr)

	var b []byte
	for a := addr; a != next; a++ {
		v, _ := m.LoadByte(a)
		b = append(b, v)
	}

	return fmt.Sprintf("%04X-   %-8s    %s", addr, codeString(b), line), next
}

// Dump memory from addr0 through addr0+count. Bytes the assembler did not
// produce are shown as "--".
func (h *Host) dumpMemory(addr0, count uint16) {
	m := h.assembly.Memory

	addr1 := addr0 + count
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	store := func(a uint16, c1, c2 int) {
		if v, ok := m.LoadByte(a); ok {
			byteToBuf(v, buf[c1:c1+2])
			buf[c2] = toPrintableChar(v)
		} else {
			buf[c1], buf[c1+1], buf[c2] = '-', '-', ' '
		}
	}

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			store(uint16(a), c1, c2)
		}
		h.println(strings.TrimRight(string(buf), " "))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				store(a, c1, c2)
			} else {
				buf[c1], buf[c1+1], buf[c2] = ' ', ' ', ' '
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayUsage(c selection) {
	c.command.DisplayUsage(h.output)
	h.flush()
}
