// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"
	"strings"
)

// TokenType identifies the kind of a token.
type TokenType byte

// Token types
const (
	TokenEnd    TokenType = iota // end of line
	TokenString                  // quoted string literal
	TokenSymbol                  // identifier
	TokenNumber                  // numeric literal
	TokenOp                      // operator or punctuation
)

var tokenTypeName = []string{"end of line", "string", "symbol", "number", "operator"}

func (tt TokenType) String() string {
	return tokenTypeName[tt]
}

// A Token is a single lexical element of a line of assembly code.
type Token struct {
	Type   TokenType
	Text   string // symbol name, operator, or decoded string contents
	Value  int    // value of a number token
	Column int    // 0-based column where the token starts
}

func (t Token) String() string {
	switch t.Type {
	case TokenEnd:
		return "end of line"
	case TokenString:
		return strconv.Quote(t.Text)
	case TokenNumber:
		return strconv.Itoa(t.Value)
	default:
		return t.Text
	}
}

// is returns true if the token is the operator or punctuation 'op'.
func (t Token) is(op string) bool {
	return t.Type == TokenOp && t.Text == op
}

// isSymbol returns true if the token is a symbol matching 'name' without
// regard to case.
func (t Token) isSymbol(name string) bool {
	return t.Type == TokenSymbol && strings.EqualFold(t.Text, name)
}

// Operators that span two characters. These are matched before any single
// character operator.
var longOps = []string{"<<", ">>", "==", "!=", "<=", ">="}

const shortOps = "+-*/%&|^!<>(),#=:"

// Tokenize strips the comment from a line of assembly code and splits the
// remainder into tokens. It reports whether the line starts with whitespace.
// The returned token slice always ends with a TokenEnd token.
func Tokenize(line string) (leadingSpace bool, tokens []Token, err error) {
	line = stripComment(line)
	leadingSpace = len(line) > 0 && whitespace(line[0])

	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case whitespace(c):
			i++

		case decimal(c) || c == '$':
			var t Token
			t, i, err = scanNumber(line, i)
			if err != nil {
				return leadingSpace, nil, err
			}
			tokens = append(tokens, t)

		case identifierStartChar(c):
			j := i + 1
			for j < len(line) && identifierChar(line[j]) {
				j++
			}
			tokens = append(tokens, Token{Type: TokenSymbol, Text: line[i:j], Column: i})
			i = j

		case stringQuote(c):
			var t Token
			t, i, err = scanString(line, i)
			if err != nil {
				return leadingSpace, nil, err
			}
			tokens = append(tokens, t)

		default:
			op := ""
			for _, o := range longOps {
				if strings.HasPrefix(line[i:], o) {
					op = o
					break
				}
			}
			if op == "" && strings.IndexByte(shortOps, c) >= 0 {
				op = line[i : i+1]
			}
			if op == "" {
				return leadingSpace, nil, newError(ErrTokenize, "unexpected character %q at column %d", c, i+1)
			}
			tokens = append(tokens, Token{Type: TokenOp, Text: op, Column: i})
			i += len(op)
		}
	}

	tokens = append(tokens, Token{Type: TokenEnd, Column: len(line)})
	return leadingSpace, tokens, nil
}

// Scan a number starting at line[i]. The following numeric formats are
// allowed:
//
//	[0-9]+             Decimal number
//	$[0-9a-fA-F]+      Hexadecimal number
//	0x[0-9a-fA-F]+     Hexadecimal number
//	0b[01]+            Binary number
func scanNumber(line string, i int) (t Token, next int, err error) {
	start := i
	base, digit := 10, decimal
	switch {
	case line[i] == '$':
		base, digit = 16, hexadecimal
		i++
	case line[i] == '0' && i+1 < len(line) && (line[i+1] == 'x' || line[i+1] == 'X'):
		base, digit = 16, hexadecimal
		i += 2
	case line[i] == '0' && i+1 < len(line) && (line[i+1] == 'b' || line[i+1] == 'B'):
		base, digit = 2, binarynum
		i += 2
	}

	j := i
	for j < len(line) && digit(line[j]) {
		j++
	}
	end := j
	for end < len(line) && identifierChar(line[end]) {
		end++
	}
	if j == i || end != j {
		return t, end, newError(ErrTokenize, "malformed number '%s'", line[start:end])
	}

	v, converr := strconv.ParseUint(line[i:j], base, 32)
	if converr != nil {
		return t, j, newError(ErrTokenize, "malformed number '%s'", line[start:j])
	}

	return Token{Type: TokenNumber, Text: line[start:j], Value: int(v), Column: start}, j, nil
}

// Scan a quoted string starting at line[i], decoding escape sequences.
func scanString(line string, i int) (t Token, next int, err error) {
	start, quote := i, line[i]
	var b strings.Builder
	for i++; i < len(line); i++ {
		c := line[i]
		switch {
		case c == quote:
			return Token{Type: TokenString, Text: b.String(), Column: start}, i + 1, nil
		case c == '\\':
			i++
			if i == len(line) {
				break
			}
			e, ok := unescape(line[i])
			if !ok {
				return t, i, newError(ErrTokenize, "invalid escape sequence '\\%c' at column %d", line[i], i)
			}
			b.WriteByte(e)
		default:
			b.WriteByte(c)
		}
	}
	return t, i, newError(ErrTokenize, "unterminated string starting at column %d", start+1)
}

func unescape(c byte) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return c, true
	default:
		return 0, false
	}
}

// Remove a trailing comment from the line. Semicolons inside string
// literals do not start a comment.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case stringQuote(c):
			quote = c
		case comment(c):
			return line[:i]
		}
	}
	return line
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return (c >= '0' && c <= '9')
}

func comment(c byte) bool {
	return c == ';'
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binarynum(c byte) bool {
	return c == '0' || c == '1'
}

func identifierStartChar(c byte) bool {
	return alpha(c) || c == '_' || c == scopeSeparator
}

func identifierChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_'
}

func stringQuote(c byte) bool {
	return c == '"' || c == '\''
}
