// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the assembler wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	ErrTokenize        = errors.New("tokenize error")
	ErrExpression      = errors.New("expression error")
	ErrAddressingMode  = errors.New("addressing mode error")
	ErrBranchRange     = errors.New("branch out of range")
	ErrPhase           = errors.New("phase error")
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrUnknownPseudoOp = errors.New("unknown pseudo-op")
	ErrSymbol          = errors.New("symbol error")
	ErrSyntax          = errors.New("syntax error")
	ErrInclude         = errors.New("include error")
)

// An Error describes a failure while assembling a single line of source
// code.
type Error struct {
	Kind error  // one of the Err* kinds
	File string // source file name
	Line int    // 1-based line number, 0 if unknown
	Msg  string // human-readable description
}

func (e *Error) Error() string {
	if e.File == "" && e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Attach a source location to an error, unless it already has one.
func locate(err error, file string, line int) error {
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Kind: ErrInclude, File: file, Line: line, Msg: err.Error()}
	}
	if e.File == "" && e.Line == 0 {
		e.File, e.Line = file, line
	}
	return e
}
