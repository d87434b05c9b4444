// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// Return a compact description of a token slice for comparison.
func tokenString(tokens []Token) string {
	var s []string
	for _, t := range tokens {
		switch t.Type {
		case TokenEnd:
			s = append(s, "END")
		case TokenNumber:
			s = append(s, "N:"+t.String())
		case TokenString:
			s = append(s, "S:"+t.Text)
		case TokenSymbol:
			s = append(s, "Y:"+t.Text)
		case TokenOp:
			s = append(s, "O:"+t.Text)
		}
	}
	return strings.Join(s, " ")
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line    string
		leading bool
		tokens  string
	}{
		{"", false, "END"},
		{"   ", true, "END"},
		{"; just a comment", false, "END"},
		{"start: LDA #$1F ; comment", false, "Y:start O:: Y:LDA O:# N:31 END"},
		{"\tlda 0x10,x", true, "Y:lda N:16 O:, Y:x END"},
		{"\tdb 0b1010, 255", true, "Y:db N:10 O:, N:255 END"},
		{".loop bne .loop", false, "Y:.loop Y:bne Y:.loop END"},
		{"x = a<<2 >= b>>1", false, "Y:x O:= Y:a O:<< N:2 O:>= Y:b O:>> N:1 END"},
		{"a==b!=c<=d", false, "Y:a O:== Y:b O:!= Y:c O:<= Y:d END"},
		{"!-<>", false, "O:! O:- O:< O:> END"},
		{`db "a;b", 'c'`, false, "Y:db S:a;b O:, S:c END"},
		{`db "\n\t\r\\\"\'\0"`, false, "Y:db S:\n\t\r\\\"'\x00 END"},
		{"_under_score1", false, "Y:_under_score1 END"},
		{"*+2", false, "O:* O:+ N:2 END"},
		{"$ffffffff", false, "N:4294967295 END"},
	}

	for _, test := range tests {
		leading, tokens, err := Tokenize(test.line)
		assert.NoError(t, err)
		assert.Equal(t, test.leading, leading)
		assert.Equal(t, test.tokens, tokenString(tokens))
	}
}

func TestTokenColumns(t *testing.T) {
	_, tokens, err := Tokenize("  lda ($10),y")
	assert.NoError(t, err)

	cols := []int{2, 6, 7, 10, 11, 12, 13}
	assert.Equal(t, len(cols), len(tokens))
	for i, c := range cols {
		assert.Equal(t, c, tokens[i].Column)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		line string
		msg  string
	}{
		{"lda @", "unexpected character '@' at column 5"},
		{"lda {", "unexpected character '{'"},
		{"db 'abc", "unterminated string"},
		{"db 'abc\\", "unterminated string"},
		{`db "\x"`, "invalid escape sequence"},
		{"0x", "malformed number '0x'"},
		{"$", "malformed number '$'"},
		{"0b102", "malformed number '0b102'"},
		{"$12G4", "malformed number '$12G4'"},
		{"123abc", "malformed number '123abc'"},
		{"$100000000", "malformed number '$100000000'"},
		{"4294967296", "malformed number"},
	}

	for _, test := range tests {
		_, _, err := Tokenize(test.line)
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrTokenize))
		if err != nil {
			assert.Contains(t, err.Error(), test.msg)
		}
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		line, want string
	}{
		{"lda #1 ; load", "lda #1 "},
		{`db ";"`, `db ";"`},
		{`db '\'' ; quote`, `db '\'' `},
		{";", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, stripComment(test.line))
	}
}
