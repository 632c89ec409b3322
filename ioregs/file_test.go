package ioregs

import (
	"testing"

	"github.com/oakfield-labs/gbcore/addr"
	"github.com/stretchr/testify/assert"
)

// TestOffsetMapping checks that every named accessor round-trips through
// the exact byte offset its hardware address implies, which is the whole
// point of modelling the register block as a single packed array.
func TestOffsetMapping(t *testing.T) {
	cases := []struct {
		name    string
		address uint16
		get     func(*File) byte
		set     func(*File, byte)
	}{
		{"P1", addr.P1, (*File).P1, (*File).SetP1},
		{"SB", addr.SB, (*File).SB, (*File).SetSB},
		{"SC", addr.SC, (*File).SC, (*File).SetSC},
		{"DIV", addr.DIV, (*File).DIV, (*File).SetDIV},
		{"TIMA", addr.TIMA, (*File).TIMA, (*File).SetTIMA},
		{"TMA", addr.TMA, (*File).TMA, (*File).SetTMA},
		{"TAC", addr.TAC, (*File).TAC, (*File).SetTAC},
		{"IF", addr.IF, (*File).IF, (*File).SetIF},
		{"LCDC", addr.LCDC, (*File).LCDC, (*File).SetLCDC},
		{"STAT", addr.STAT, (*File).STAT, (*File).SetSTAT},
		{"LY", addr.LY, (*File).LY, (*File).SetLY},
		{"BGP", addr.BGP, (*File).BGP, (*File).SetBGP},
		{"WX", addr.WX, (*File).WX, (*File).SetWX},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &File{}
			tc.set(f, 0x5A)
			assert.Equal(t, byte(0x5A), f.Get(tc.address), "accessor should read back through Get")
			assert.Equal(t, byte(0x5A), tc.get(f), "Get through raw address should match named accessor")
		})
	}
}

func TestIEIsSeparateFromIOBlock(t *testing.T) {
	f := &File{}
	f.Set(addr.IEAddr, 0x1F)
	assert.Equal(t, byte(0x1F), f.IE)
	assert.Equal(t, byte(0), f.IF(), "writing IE must not alias into the IF register")
}

func TestInterruptFlagHelpers(t *testing.T) {
	f := &File{}
	f.SetInterruptFlag(addr.Timer)
	f.SetInterruptFlag(addr.VBlank)
	assert.Equal(t, byte(addr.Timer|addr.VBlank), f.IF())

	f.IE = byte(addr.Timer)
	assert.Equal(t, byte(addr.Timer), f.PendingInterrupts())

	f.ClearInterruptFlag(addr.Timer)
	assert.Equal(t, byte(addr.VBlank), f.IF())
}

func TestWavePatternWindow(t *testing.T) {
	f := &File{}
	wp := f.WavePattern()
	assert.Len(t, wp, 16)
	wp[0] = 0xAB
	assert.Equal(t, byte(0xAB), f.Get(addr.WavePatternStart))
}
