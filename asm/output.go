// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Maximum number of data bytes in a single KIM-1 record.
const kimRecordBytes = 16

// Maximum number of code bytes shown on a single listing row.
const listingRowBytes = 8

// WriteKIM writes the set bytes of the memory image as KIM-1 punch-tape
// hex records, followed by a trailer record holding the record count.
//
// Each record has the form ";LLAAAADD...DDCCCC" where LL is the byte count,
// AAAA the starting address, DD the data and CCCC the 16-bit sum of the
// count, both address bytes and all data bytes.
func WriteKIM(w io.Writer, m *Memory) error {
	bw := bufio.NewWriter(w)

	runs := m.Runs(kimRecordBytes)
	for _, r := range runs {
		bw.WriteString(kimRecord(r))
	}

	count := len(runs) & 0xffff
	fmt.Fprintf(bw, ";00%04X%04X\r\n", count, count)
	return bw.Flush()
}

// Format a single KIM-1 data record.
func kimRecord(r Run) string {
	var b strings.Builder
	sum := len(r.Data) + int(r.Addr>>8) + int(r.Addr&0xff)
	fmt.Fprintf(&b, ";%02X%04X", len(r.Data), r.Addr)
	for _, v := range r.Data {
		fmt.Fprintf(&b, "%02X", v)
		sum += int(v)
	}
	fmt.Fprintf(&b, "%04X\r\n", sum&0xffff)
	return b.String()
}

// A ListingLine records the machine code produced by one line of source.
type ListingLine struct {
	File string // source file name
	Line int    // 1-based line number within the file
	Addr uint16 // address of the first byte produced
	Code []byte // bytes produced by the line
	Text string // original source text
}

// Rows formats the listing rows for a single source line. Lines producing more
// than listingRowBytes bytes continue on additional rows without the line
// number and source text.
func (l *ListingLine) Rows() []string {
	if len(l.Code) == 0 {
		return []string{fmt.Sprintf("%5d  %4s  %-24s  %s", l.Line, "", "", l.Text)}
	}

	var rows []string
	for i := 0; i < len(l.Code); i += listingRowBytes {
		j := min(i+listingRowBytes, len(l.Code))
		addr := l.Addr + uint16(i)
		code := listingBytes(l.Code[i:j])
		if i == 0 {
			rows = append(rows, fmt.Sprintf("%5d  %04X  %-24s  %s", l.Line, addr, code, l.Text))
		} else {
			rows = append(rows, strings.TrimRight(fmt.Sprintf("%5s  %04X  %-24s", "", addr, code), " "))
		}
	}
	return rows
}

// Return the hexadecimal representation of up to listingRowBytes bytes,
// with an extra space separating the two groups of four.
func listingBytes(b []byte) string {
	s := make([]byte, 0, 3*listingRowBytes)
	for i, v := range b {
		switch {
		case i == 4:
			s = append(s, ' ', ' ')
		case i > 0:
			s = append(s, ' ')
		}
		s = append(s, hex[v>>4], hex[v&0x0f])
	}
	return string(s)
}

// WriteListing writes the source listing followed by the symbol table.
func WriteListing(w io.Writer, lines []ListingLine, symbols []Symbol) error {
	bw := bufio.NewWriter(w)

	for i := range lines {
		for _, r := range lines[i].Rows() {
			bw.WriteString(strings.TrimRight(r, " "))
			bw.WriteByte('\n')
		}
	}

	if len(symbols) > 0 {
		bw.WriteString("\nSymbols:\n")
		for _, s := range symbols {
			fmt.Fprintf(bw, "    %-24s $%04X\n", s.Name, s.Value&0xffff)
		}
	}
	return bw.Flush()
}
