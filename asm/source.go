// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"io"
	"io/fs"
	"path"
	"strings"
)

// A LineSource supplies lines of assembly code to the assembler, along with
// the name of the file and the line number each line came from. Included
// files are pushed onto the source and popped implicitly when exhausted.
type LineSource interface {
	NextLine() (string, error) // io.EOF after the last line of all files
	FileName() string
	LineNumber() int
	PushFile(name string) error
}

// Maximum nesting of included files.
const maxIncludeDepth = 16

type sourceFile struct {
	name    string
	line    int
	scanner *bufio.Scanner
	closer  io.Closer
}

// A FileStack is a LineSource reading from a stack of files in a file
// system. Include names are resolved relative to the directory of the file
// that includes them.
type FileStack struct {
	fsys  fs.FS
	stack []*sourceFile
	name  string // file of the most recently returned line
	line  int    // line number of the most recently returned line
}

// NewFileStack creates a line source that starts reading the named file
// within the file system.
func NewFileStack(fsys fs.FS, name string) (*FileStack, error) {
	s := &FileStack{fsys: fsys}
	if err := s.open(path.Clean(name)); err != nil {
		return nil, err
	}
	return s, nil
}

// newReaderStack creates a line source whose bottom file is read from r.
// Included files are opened from fsys, which may be nil to disallow
// includes.
func newReaderStack(fsys fs.FS, r io.Reader, name string) *FileStack {
	s := &FileStack{fsys: fsys}
	s.push(name, r, nil)
	return s
}

func (s *FileStack) push(name string, r io.Reader, c io.Closer) {
	s.stack = append(s.stack, &sourceFile{
		name:    name,
		scanner: bufio.NewScanner(r),
		closer:  c,
	})
}

func (s *FileStack) open(name string) error {
	if s.fsys == nil {
		return newError(ErrInclude, "unable to open '%s': no file system", name)
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		return newError(ErrInclude, "unable to open '%s': %v", name, err)
	}
	s.push(name, f, f)
	return nil
}

// PushFile opens an included file. Its lines are returned before the
// remaining lines of the including file.
func (s *FileStack) PushFile(name string) error {
	if len(s.stack) >= maxIncludeDepth {
		return newError(ErrInclude, "include of '%s' exceeds maximum depth %d", name, maxIncludeDepth)
	}

	if len(s.stack) > 0 && !path.IsAbs(name) {
		name = path.Join(path.Dir(s.stack[len(s.stack)-1].name), name)
	}
	name = strings.TrimPrefix(path.Clean(name), "/")

	for _, f := range s.stack {
		if f.name == name {
			return newError(ErrInclude, "circular include of '%s'", name)
		}
	}
	return s.open(name)
}

// NextLine returns the next line of source code, reading from the most
// recently pushed file.
func (s *FileStack) NextLine() (string, error) {
	for len(s.stack) > 0 {
		f := s.stack[len(s.stack)-1]
		if f.scanner.Scan() {
			f.line++
			s.name, s.line = f.name, f.line
			return f.scanner.Text(), nil
		}

		err := f.scanner.Err()
		s.pop()
		if err != nil {
			return "", newError(ErrInclude, "error reading '%s': %v", f.name, err)
		}
	}
	return "", io.EOF
}

func (s *FileStack) pop() {
	f := s.stack[len(s.stack)-1]
	if f.closer != nil {
		f.closer.Close()
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Close releases all files still open on the stack.
func (s *FileStack) Close() error {
	for len(s.stack) > 0 {
		s.pop()
	}
	return nil
}

// FileName returns the name of the file containing the most recently
// returned line.
func (s *FileStack) FileName() string {
	return s.name
}

// LineNumber returns the 1-based line number of the most recently returned
// line.
func (s *FileStack) LineNumber() int {
	return s.line
}
