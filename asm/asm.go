// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass 6502 assembler producing KIM-1 hex
// records and a source listing.
package asm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/kimasm/cpu"
	"github.com/retroenv/retrogolib/log"
)

// Options control the behavior of the assembler.
type Options struct {
	Origin         uint16      // initial location counter
	StrictMultiply bool        // disable the zero-left-operand multiply rule
	Logger         *log.Logger // nil logs errors only
	FS             fs.FS       // file system for includes when assembling a reader
}

// Assembly contains the machine code and other data produced by a
// successful assembly.
type Assembly struct {
	Memory    *Memory       // assembled bytes
	Listing   []ListingLine // one entry per source line
	Symbols   []Symbol      // all symbols, sorted by name
	SourceMap *SourceMap    // address -> source line mapping
}

// WriteKIM writes the assembled code as KIM-1 hex records.
func (a *Assembly) WriteKIM(w io.Writer) error {
	return WriteKIM(w, a.Memory)
}

// WriteListing writes the source listing and symbol table.
func (a *Assembly) WriteListing(w io.Writer) error {
	return WriteListing(w, a.Listing, a.Symbols)
}

// OutputPaths holds the names of the files written by WriteFiles. Empty
// paths are skipped.
type OutputPaths struct {
	KIM       string
	Listing   string
	SourceMap string
}

// DefaultOutputPaths derives output file names from the source file name
// by replacing its extension.
func DefaultOutputPaths(path string) OutputPaths {
	prefix := strings.TrimSuffix(path, filepath.Ext(path))
	return OutputPaths{
		KIM:       prefix + ".kim",
		Listing:   prefix + ".lst",
		SourceMap: prefix + ".map",
	}
}

// WriteFiles writes the KIM-1 records, the listing and the source map to
// the requested files.
func (a *Assembly) WriteFiles(p OutputPaths) error {
	outputs := []struct {
		path  string
		write func(w io.Writer) error
	}{
		{p.KIM, a.WriteKIM},
		{p.Listing, a.WriteListing},
		{p.SourceMap, func(w io.Writer) error {
			_, err := a.SourceMap.WriteTo(w)
			return err
		}},
	}

	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, o.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("writing '%s': %w", path, err)
	}
	return file.Close()
}

// AssembleFile reads a file containing 6502 assembly code and assembles
// it. Included files are resolved relative to the directory of the file.
func AssembleFile(path string, opts Options) (*Assembly, error) {
	fsys := os.DirFS(filepath.Dir(path))
	return AssembleFS(fsys, filepath.Base(path), opts)
}

// AssembleFS assembles the named file within a file system.
func AssembleFS(fsys fs.FS, name string, opts Options) (*Assembly, error) {
	return assemble(func() (LineSource, error) {
		return NewFileStack(fsys, name)
	}, opts)
}

// Assemble reads data from the provided stream and assembles it into 6502
// machine code. The filename is used in error messages. Include pseudo-ops
// open files from opts.FS.
func Assemble(r io.Reader, filename string, opts Options) (*Assembly, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return assemble(func() (LineSource, error) {
		return newReaderStack(opts.FS, bytes.NewReader(src), filename), nil
	}, opts)
}

// Assemble the source returned by 'open', which is called once per pass.
func assemble(open func() (LineSource, error), opts Options) (*Assembly, error) {
	a := newAssembler(opts)
	for pass := 0; pass < 2; pass++ {
		src, err := open()
		if err != nil {
			return nil, err
		}
		err = a.runPass(pass, src)
		if c, ok := src.(io.Closer); ok {
			c.Close()
		}
		if err != nil {
			return nil, err
		}
	}

	a.sourceMap.sort()
	return &Assembly{
		Memory:    a.memory,
		Listing:   a.listing,
		Symbols:   a.symbols.Symbols(),
		SourceMap: a.sourceMap,
	}, nil
}

// The assembler is a state object used during the assembly of machine
// code from assembly code.
type assembler struct {
	instSet   *cpu.InstructionSet // instructions on the NMOS 6502
	origin    int                 // location counter at the start of each pass
	pass      int                 // 0 collects symbols, 1 emits code
	pc        int                 // location counter
	here      int                 // location counter at the start of the line
	scope     string              // most recently defined global symbol
	code      []byte              // bytes produced by the current line
	src       LineSource          // lines of the current pass
	symbols   *SymbolTable        // symbols shared by both passes
	memory    *Memory             // written only in pass 1
	listing   []ListingLine       // listing rows built in pass 1
	sourceMap *SourceMap          // source map built in pass 1
	strictMul bool                // see Options.StrictMultiply
	logger    *log.Logger
}

func newAssembler(opts Options) *assembler {
	logger := opts.Logger
	if logger == nil {
		cfg := log.DefaultConfig()
		cfg.Level = log.ErrorLevel
		logger = log.NewWithConfig(cfg)
	}

	return &assembler{
		instSet:   cpu.GetInstructionSet(),
		origin:    int(opts.Origin),
		symbols:   NewSymbolTable(),
		memory:    NewMemory(),
		sourceMap: &SourceMap{Origin: opts.Origin},
		strictMul: opts.StrictMultiply,
		logger:    logger,
	}
}

// Run a single pass over the source. The first error aborts the pass.
func (a *assembler) runPass(pass int, src LineSource) error {
	a.pass, a.pc, a.scope, a.src = pass, a.origin, "", src
	a.symbols.BeginPass(pass)

	a.logger.Debug("Starting pass", log.Int("pass", pass), log.Hex("origin", a.origin))

	lines := 0
	for {
		text, err := src.NextLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return locate(err, src.FileName(), src.LineNumber())
		}

		lines++
		if err := a.assembleLine(text); err != nil {
			return locate(err, src.FileName(), src.LineNumber())
		}
	}

	a.logger.Info("Pass complete",
		log.Int("pass", pass),
		log.Int("lines", lines),
		log.Int("symbols", a.symbols.Len()),
		log.Int("bytes", a.memory.Len()))
	return nil
}

// Assemble a single line of source code.
func (a *assembler) assembleLine(text string) error {
	a.here = a.pc
	a.code = a.code[:0]

	leadingSpace, tokens, err := Tokenize(text)
	if err != nil {
		return err
	}

	p := newExprParser(tokens)
	done, err := a.parseLabel(p, leadingSpace)
	if err != nil {
		return err
	}
	if !done && !p.atEnd() {
		if err := a.parseStatement(p); err != nil {
			return err
		}
	}

	if a.pass == 1 {
		a.record(text)
	}
	return nil
}

// Record the listing row and source map entry of the current line.
func (a *assembler) record(text string) {
	file, line := a.src.FileName(), a.src.LineNumber()

	l := ListingLine{
		File: file,
		Line: line,
		Addr: uint16(a.here),
		Code: append([]byte(nil), a.code...),
		Text: text,
	}
	a.listing = append(a.listing, l)

	if len(a.code) > 0 {
		a.sourceMap.add(a.here, file, line)
		a.logger.Debug("Assembled",
			log.String("file", file),
			log.Int("line", line),
			log.Hex("address", uint16(a.here)),
			log.String("code", byteString(a.code)))
	}
}

// Handle a label definition ("name:", or a name in column 0) or an
// assignment ("name = expr") at the start of the line. It returns true if
// the whole line was consumed.
func (a *assembler) parseLabel(p *exprParser, leadingSpace bool) (done bool, err error) {
	t := p.peek()
	if t.Type != TokenSymbol {
		return false, nil
	}

	switch next := p.tokens[p.pos+1]; {
	case next.is("="):
		p.next()
		p.next()
		return true, a.parseAssignment(t.Text, p)

	case next.is(":"):
		p.next()
		p.next()

	case !leadingSpace && !a.isKeyword(t.Text):
		p.next()

	default:
		return false, nil
	}

	return false, a.define(t.Text, a.pc)
}

// Return true if the name is a mnemonic or pseudo-op.
func (a *assembler) isKeyword(name string) bool {
	if a.instSet.IsMnemonic(name) {
		return true
	}
	_, ok := pseudoOps[pseudoOpName(name)]
	return ok
}

// Define a symbol in the current scope. Global symbols open a new scope
// for the local symbols that follow.
func (a *assembler) define(name string, value int) error {
	if err := a.symbols.Define(a.scope, name, value); err != nil {
		return err
	}
	if !IsLocal(name) {
		a.scope = name
	}
	return nil
}

// Handle "name = expr". An assignment whose value is still undefined in
// pass 0 leaves the symbol undefined until pass 1.
func (a *assembler) parseAssignment(name string, p *exprParser) error {
	e, err := p.parseAll()
	if err != nil {
		return err
	}
	v, err := a.eval(e)
	if err != nil {
		return err
	}
	if !v.Defined {
		if err := a.requireDefined(v); err != nil {
			return err
		}
		if !IsLocal(name) {
			a.scope = name
		}
		return nil
	}
	return a.define(name, v.N)
}

// Dispatch the statement following any label: a pseudo-op or an
// instruction.
func (a *assembler) parseStatement(p *exprParser) error {
	t := p.next()
	if t.Type != TokenSymbol {
		return newError(ErrSyntax, "unexpected %s at start of statement", t)
	}

	if fn, ok := pseudoOps[pseudoOpName(t.Text)]; ok {
		return fn(a, p)
	}
	if a.instSet.IsMnemonic(t.Text) {
		return a.parseInstruction(t.Text, p)
	}
	if IsLocal(t.Text) {
		return newError(ErrUnknownPseudoOp, "unknown pseudo-op '%s'", t.Text)
	}
	return newError(ErrUnknownMnemonic, "unknown mnemonic '%s'", t.Text)
}

// Assemble an instruction and its operand.
func (a *assembler) parseInstruction(mnemonic string, p *exprParser) error {
	o, err := parseOperand(p)
	if err != nil {
		return err
	}

	var v Value
	if o.expr != nil {
		if v, err = a.eval(o.expr); err != nil {
			return err
		}
		if err := a.requireDefined(v); err != nil {
			return err
		}
	}

	b, err := encode(a.instSet, mnemonic, o.mode, v, a.here)
	if err != nil {
		return err
	}
	a.emit(b)
	return nil
}

// Evaluate an expression in the context of the current line.
func (a *assembler) eval(e *Expr) (Value, error) {
	env := Env{
		Symbols:        a.symbols,
		Scope:          a.scope,
		Here:           a.here,
		StrictMultiply: a.strictMul,
	}
	return e.Eval(&env)
}

// In pass 1 every value must be defined.
func (a *assembler) requireDefined(v Value) error {
	if a.pass == 1 && !v.Defined {
		return newError(ErrSymbol, "undefined symbol '%s'", v.Missing)
	}
	return nil
}

// Append bytes to the current line and advance the location counter. The
// bytes are stored in memory only in pass 1; pass 0 only counts them.
func (a *assembler) emit(b []byte) {
	if a.pass == 1 {
		addr := uint16(a.pc)
		if n := a.memory.StoreBytes(addr, b); n > 0 {
			a.logger.Warn("Overwriting assembled memory",
				log.String("file", a.src.FileName()),
				log.Int("line", a.src.LineNumber()),
				log.Hex("address", addr),
				log.Int("bytes", n))
		}
		a.code = append(a.code, b...)
	}
	a.advance(len(b))
}

func (a *assembler) advance(n int) {
	a.pc = (a.pc + n) & 0xffff
}

//
// pseudo-ops
//

type pseudoOpFunc func(a *assembler, p *exprParser) error

var pseudoOps = map[string]pseudoOpFunc{
	"org":     (*assembler).parseOrigin,
	"db":      func(a *assembler, p *exprParser) error { return a.parseData(p, 1) },
	"dw":      func(a *assembler, p *exprParser) error { return a.parseData(p, 2) },
	"ds":      (*assembler).parseStorage,
	"include": (*assembler).parseInclude,
}

// Pseudo-ops may be written with or without a leading '.', in any case.
func pseudoOpName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "."))
}

// Evaluate an expression whose value must be known in the current pass.
func (a *assembler) parseDefined(p *exprParser, what string) (int, error) {
	if p.atEnd() {
		return 0, newError(ErrSyntax, "%s requires an expression", what)
	}
	e, err := p.parseAll()
	if err != nil {
		return 0, err
	}
	v, err := a.eval(e)
	if err != nil {
		return 0, err
	}
	if !v.Defined {
		return 0, newError(ErrSymbol, "%s value uses undefined symbol '%s'", what, v.Missing)
	}
	return v.N, nil
}

// Handle "org expr".
func (a *assembler) parseOrigin(p *exprParser) error {
	n, err := a.parseDefined(p, "org")
	if err != nil {
		return err
	}
	a.pc = n & 0xffff
	return nil
}

// Handle "ds expr".
func (a *assembler) parseStorage(p *exprParser) error {
	n, err := a.parseDefined(p, "ds")
	if err != nil {
		return err
	}
	if n < 0 {
		return newError(ErrSyntax, "ds size %d is negative", n)
	}
	a.advance(n)
	return nil
}

// Handle "db" and "dw" with a comma-separated list of expressions and
// strings. Each string character produces one item.
func (a *assembler) parseData(p *exprParser, size int) error {
	if p.atEnd() {
		return newError(ErrSyntax, "data pseudo-op requires at least one value")
	}

	for {
		t := p.peek()
		if t.Type == TokenString && p.stringItem() {
			p.next()
			for i := 0; i < len(t.Text); i++ {
				a.emit(toBytes(size, int(t.Text[i])))
			}
		} else {
			e, err := p.parse()
			if err != nil {
				return err
			}
			v, err := a.eval(e)
			if err != nil {
				return err
			}
			if err := a.requireDefined(v); err != nil {
				return err
			}
			a.emit(toBytes(size, v.N))
		}

		if p.atEnd() {
			return nil
		}
		if !p.peek().is(",") {
			return p.expectEnd()
		}
		p.next()
		if p.atEnd() {
			return newError(ErrSyntax, "missing value after ','")
		}
	}
}

// Handle include "file".
func (a *assembler) parseInclude(p *exprParser) error {
	t := p.next()
	if t.Type != TokenString || t.Text == "" {
		return newError(ErrSyntax, "include requires a quoted file name")
	}
	if err := p.expectEnd(); err != nil {
		return err
	}

	a.logger.Debug("Including file", log.String("file", t.Text), log.Int("pass", a.pass))
	return a.src.PushFile(t.Text)
}
