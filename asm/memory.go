// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// Memory represents an entire 16-bit address space in which each byte is
// either set by the assembler or left unset. Addresses wrap at 64K.
type Memory struct {
	b   [64 * 1024]byte
	set [64 * 1024 / 64]uint64 // one bit per address
	n   int                    // number of set bytes
}

// NewMemory creates an empty 16-bit memory image.
func NewMemory() *Memory {
	return &Memory{}
}

// StoreByte stores a byte at the requested address. It returns true if the
// address already held a value.
func (m *Memory) StoreByte(addr uint16, v byte) (overwrite bool) {
	w, bit := addr>>6, uint64(1)<<(addr&63)
	overwrite = m.set[w]&bit != 0
	if !overwrite {
		m.set[w] |= bit
		m.n++
	}
	m.b[addr] = v
	return overwrite
}

// StoreBytes stores multiple bytes starting at the requested address,
// wrapping at the end of the address space. It returns the number of
// bytes that replaced previously set values.
func (m *Memory) StoreBytes(addr uint16, b []byte) (overwrites int) {
	for i, v := range b {
		if m.StoreByte(addr+uint16(i), v) {
			overwrites++
		}
	}
	return overwrites
}

// LoadByte loads a single byte from the address. The boolean result is
// false if the address has never been set.
func (m *Memory) LoadByte(addr uint16) (byte, bool) {
	return m.b[addr], m.IsSet(addr)
}

// IsSet returns true if the address holds an assembled byte.
func (m *Memory) IsSet(addr uint16) bool {
	return m.set[addr>>6]&(uint64(1)<<(addr&63)) != 0
}

// Len returns the number of set bytes.
func (m *Memory) Len() int {
	return m.n
}

// A Run is a contiguous block of set bytes.
type Run struct {
	Addr uint16
	Data []byte
}

// Runs returns the set bytes as contiguous runs in ascending address order.
// No run holds more than 'max' bytes; longer blocks are split.
func (m *Memory) Runs(max int) []Run {
	var runs []Run
	cur := -1
	for a := 0; a < len(m.b); a++ {
		if !m.IsSet(uint16(a)) {
			cur = -1
			continue
		}
		if cur < 0 || len(runs[cur].Data) == max {
			runs = append(runs, Run{Addr: uint16(a)})
			cur = len(runs) - 1
		}
		runs[cur].Data = append(runs[cur].Data, m.b[a])
	}
	return runs
}
