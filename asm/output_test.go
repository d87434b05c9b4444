// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestMemoryRuns(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, 0, len(m.Runs(16)))

	m.StoreBytes(0x0200, []byte{1, 2, 3})
	m.StoreBytes(0x0300, make([]byte, 20))
	m.StoreByte(0xffff, 0xee)

	runs := m.Runs(16)
	assert.Equal(t, 4, len(runs))
	assert.Equal(t, uint16(0x0200), runs[0].Addr)
	assert.Equal(t, 3, len(runs[0].Data))
	assert.Equal(t, uint16(0x0300), runs[1].Addr)
	assert.Equal(t, 16, len(runs[1].Data))
	assert.Equal(t, uint16(0x0310), runs[2].Addr)
	assert.Equal(t, 4, len(runs[2].Data))
	assert.Equal(t, uint16(0xffff), runs[3].Addr)
	assert.Equal(t, 24, m.Len())
}

func TestMemoryOverwriteCount(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, 0, m.StoreBytes(0xfffe, []byte{1, 2, 3}))
	assert.True(t, m.IsSet(0x0000))

	assert.Equal(t, 2, m.StoreBytes(0xffff, []byte{4, 5, 6}))
	assert.Equal(t, 4, m.Len())

	b, ok := m.LoadByte(0x0000)
	assert.True(t, ok)
	assert.Equal(t, byte(5), b)

	_, ok = m.LoadByte(0x1234)
	assert.False(t, ok)
}

func TestWriteKIM(t *testing.T) {
	m := NewMemory()
	m.StoreBytes(0x0200, []byte{0xa9, 0x05, 0x00})

	var buf bytes.Buffer
	assert.NoError(t, WriteKIM(&buf, m))
	assert.Equal(t, ";030200A9050000B3\r\n;0000010001\r\n", buf.String())
}

func TestWriteKIMSplitsRecords(t *testing.T) {
	m := NewMemory()
	data := make([]byte, 17)
	for i := range data {
		data[i] = byte(i)
	}
	m.StoreBytes(0x1000, data)

	var buf bytes.Buffer
	assert.NoError(t, WriteKIM(&buf, m))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	assert.Equal(t, 3, len(lines))
	// 0x10 + 0x10 + 0x00 + (0+1+...+15)
	assert.Equal(t, ";101000000102030405060708090A0B0C0D0E0F0098", lines[0])
	// 0x01 + 0x10 + 0x10 + 0x10
	assert.Equal(t, ";011010100031", lines[1])
	assert.Equal(t, ";0000020002", lines[2])
}

func TestWriteKIMEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteKIM(&buf, NewMemory()))
	assert.Equal(t, ";0000000000\r\n", buf.String())
}

func TestListingRows(t *testing.T) {
	l := ListingLine{
		Line: 12,
		Addr: 0x1000,
		Code: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Text: "\tdb 1",
	}
	rows := l.Rows()
	assert.Equal(t, 2, len(rows))
	assert.Equal(t, "   12  1000  01 02 03 04  05 06 07 08  \tdb 1", rows[0])
	assert.Equal(t, "       1008  09 0A", rows[1])

	empty := ListingLine{Line: 3, Text: "; comment"}
	rows = empty.Rows()
	assert.Equal(t, 1, len(rows))
	assert.Equal(t, "    3"+strings.Repeat(" ", 34)+"; comment", rows[0])
}

func TestWriteListing(t *testing.T) {
	lines := []ListingLine{
		{Line: 1, Addr: 0x0200, Code: []byte{0xa9, 0x05}, Text: "start:\tLDA #$05"},
		{Line: 2, Addr: 0x0202, Text: ""},
	}
	syms := []Symbol{{Name: "start", Value: 0x0200}}

	var buf bytes.Buffer
	assert.NoError(t, WriteListing(&buf, lines, syms))

	want := "    1  0200  A9 05                     start:\tLDA #$05\n" +
		"    2\n" +
		"\n" +
		"Symbols:\n" +
		"    start                    $0200\n"
	assert.Equal(t, want, buf.String())
}
