// Package ioregs implements the packed memory-mapped I/O register file
// (0xFF00-0xFF7F) as a single 128-byte array with offset-exact named
// accessors, plus the separate interrupt-enable byte at 0xFFFF.
//
// Every named accessor reads and writes the byte at its register's
// documented offset, so the offset mapping can be tested directly. Not
// every register's live state is kept here: the timer (DIV/TIMA/TMA/TAC),
// the serial port (SB/SC) and the joypad (P1) keep their own state, and
// the bus routes those addresses to them, so the bytes at those offsets in
// this file are not updated by guest reads and writes.
package ioregs

import "github.com/oakfield-labs/gbcore/addr"

const Size = 128

// File is the raw byte-addressable I/O register block. Index 0 corresponds
// to address 0xFF00; index 127 corresponds to 0xFF7F.
type File struct {
	raw [Size]byte
	IE  byte
}

func offset(address uint16) int {
	return int(address - addr.IOStart)
}

// Get reads the raw byte at the given I/O address (0xFF00-0xFF7F) or IE
// (0xFFFF). Panics if address is out of the register file's range.
func (f *File) Get(address uint16) byte {
	if address == addr.IEAddr {
		return f.IE
	}
	if address < addr.IOStart || address > addr.IOEnd {
		panic("ioregs: address out of range")
	}
	return f.raw[offset(address)]
}

// Set writes the raw byte at the given I/O address (0xFF00-0xFF7F) or IE
// (0xFFFF). Panics if address is out of the register file's range.
func (f *File) Set(address uint16, value byte) {
	if address == addr.IEAddr {
		f.IE = value
		return
	}
	if address < addr.IOStart || address > addr.IOEnd {
		panic("ioregs: address out of range")
	}
	f.raw[offset(address)] = value
}

// Named accessors. Each one maps directly onto the struct-overlay fields of
// the packed C register block this file replaces: a plain getter/setter
// pair per register, all addressed through the same backing array so that
// the byte offsets stay exact and testable.

func (f *File) P1() byte       { return f.Get(addr.P1) }
func (f *File) SetP1(v byte)   { f.Set(addr.P1, v) }

func (f *File) SB() byte     { return f.Get(addr.SB) }
func (f *File) SetSB(v byte) { f.Set(addr.SB, v) }
func (f *File) SC() byte     { return f.Get(addr.SC) }
func (f *File) SetSC(v byte) { f.Set(addr.SC, v) }

func (f *File) DIV() byte     { return f.Get(addr.DIV) }
func (f *File) SetDIV(v byte) { f.Set(addr.DIV, v) }
func (f *File) TIMA() byte    { return f.Get(addr.TIMA) }
func (f *File) SetTIMA(v byte) { f.Set(addr.TIMA, v) }
func (f *File) TMA() byte     { return f.Get(addr.TMA) }
func (f *File) SetTMA(v byte) { f.Set(addr.TMA, v) }
func (f *File) TAC() byte     { return f.Get(addr.TAC) }
func (f *File) SetTAC(v byte) { f.Set(addr.TAC, v) }

func (f *File) IF() byte     { return f.Get(addr.IF) }
func (f *File) SetIF(v byte) { f.Set(addr.IF, v) }

func (f *File) LCDC() byte     { return f.Get(addr.LCDC) }
func (f *File) SetLCDC(v byte) { f.Set(addr.LCDC, v) }
func (f *File) STAT() byte     { return f.Get(addr.STAT) }
func (f *File) SetSTAT(v byte) { f.Set(addr.STAT, v) }
func (f *File) SCY() byte      { return f.Get(addr.SCY) }
func (f *File) SetSCY(v byte)  { f.Set(addr.SCY, v) }
func (f *File) SCX() byte      { return f.Get(addr.SCX) }
func (f *File) SetSCX(v byte)  { f.Set(addr.SCX, v) }
func (f *File) LY() byte       { return f.Get(addr.LY) }
func (f *File) SetLY(v byte)   { f.Set(addr.LY, v) }
func (f *File) LYC() byte      { return f.Get(addr.LYC) }
func (f *File) SetLYC(v byte)  { f.Set(addr.LYC, v) }
func (f *File) DMA() byte      { return f.Get(addr.DMA) }
func (f *File) SetDMA(v byte)  { f.Set(addr.DMA, v) }
func (f *File) BGP() byte      { return f.Get(addr.BGP) }
func (f *File) SetBGP(v byte)  { f.Set(addr.BGP, v) }
func (f *File) OBP0() byte     { return f.Get(addr.OBP0) }
func (f *File) SetOBP0(v byte) { f.Set(addr.OBP0, v) }
func (f *File) OBP1() byte     { return f.Get(addr.OBP1) }
func (f *File) SetOBP1(v byte) { f.Set(addr.OBP1, v) }
func (f *File) WY() byte       { return f.Get(addr.WY) }
func (f *File) SetWY(v byte)   { f.Set(addr.WY, v) }
func (f *File) WX() byte       { return f.Get(addr.WX) }
func (f *File) SetWX(v byte)   { f.Set(addr.WX, v) }

// WavePattern returns the 16-byte wave RAM window (0xFF30-0xFF3F) backing
// the wave channel's playback buffer.
func (f *File) WavePattern() []byte {
	lo := offset(addr.WavePatternStart)
	hi := offset(addr.WavePatternEnd) + 1
	return f.raw[lo:hi]
}

// AudioRegisters returns the raw NR10-NR52 block (0xFF10-0xFF26) as a slice
// for bulk register dumps; individual registers are still addressed with
// Get/Set by the apu package.
func (f *File) AudioRegisters() []byte {
	lo := offset(addr.NR10)
	hi := offset(addr.NR52) + 1
	return f.raw[lo:hi]
}

// SetInterruptFlag ORs bit into IF, matching the request-interrupt call the
// timer, PPU, serial and joypad peripherals make on the bus.
func (f *File) SetInterruptFlag(bit addr.Interrupt) {
	f.raw[offset(addr.IF)] |= byte(bit)
}

// ClearInterruptFlag clears bit in IF, called by the CPU once an interrupt
// has been serviced.
func (f *File) ClearInterruptFlag(bit addr.Interrupt) {
	f.raw[offset(addr.IF)] &^= byte(bit)
}

// PendingInterrupts returns the bits set in IF & IE, i.e. interrupts that are
// both requested and enabled.
func (f *File) PendingInterrupts() byte {
	return f.raw[offset(addr.IF)] & f.IE
}
