package video

import (
	"testing"

	"github.com/oakfield-labs/gbcore/addr"
	"github.com/oakfield-labs/gbcore/ioregs"
)

type fakeIRQ struct {
	requested []addr.Interrupt
}

func (f *fakeIRQ) RequestInterrupt(i addr.Interrupt) { f.requested = append(f.requested, i) }

func newTestPPU() (*PPU, *ioregs.File, *fakeIRQ) {
	regs := &ioregs.File{}
	regs.SetLCDC(0x80) // LCD on, everything else off
	irq := &fakeIRQ{}
	return New(regs, irq, Config{}), regs, irq
}

func TestDotCountsMatchLineTotal(t *testing.T) {
	ppu, regs, _ := newTestPPU()

	ppu.Tick(oamScanDots)
	if ppu.mode != Drawing {
		t.Fatalf("mode after %d dots = %v, want Drawing", oamScanDots, ppu.mode)
	}

	ppu.Tick(drawingDots)
	if ppu.mode != HBlank {
		t.Fatalf("mode after OAM+Drawing = %v, want HBlank", ppu.mode)
	}

	remaining := lineDots - oamScanDots - drawingDots
	ppu.Tick(remaining)
	if ppu.mode != OAMScan {
		t.Fatalf("mode after full line = %v, want OAMScan", ppu.mode)
	}
	if regs.LY() != 1 {
		t.Fatalf("LY = %d, want 1 after one full line", regs.LY())
	}
}

func TestVBlankInterruptFiresAtLine144(t *testing.T) {
	ppu, regs, irq := newTestPPU()

	for line := 0; line < visibleLines; line++ {
		ppu.Tick(lineDots)
		_ = regs.LY()
	}

	found := false
	for _, i := range irq.requested {
		if i == addr.VBlank {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a VBlank interrupt request after 144 scanlines")
	}
	if ppu.mode != VBlank {
		t.Fatalf("mode = %v, want VBlank", ppu.mode)
	}
}

func TestFullFrameReturnsToLineZero(t *testing.T) {
	ppu, regs, _ := newTestPPU()

	for line := 0; line < totalLines; line++ {
		ppu.Tick(lineDots)
	}

	if regs.LY() != 0 {
		t.Fatalf("LY = %d, want 0 after a full frame", regs.LY())
	}
	if ppu.mode != OAMScan {
		t.Fatalf("mode = %v, want OAMScan at the start of a new frame", ppu.mode)
	}
}

func TestVRAMLockedDuringDrawing(t *testing.T) {
	ppu, _, _ := newTestPPU()
	ppu.Tick(oamScanDots) // now in Drawing

	ppu.WriteVRAM(addr.VRAMStart, 0x42)
	if got := ppu.ReadVRAM(addr.VRAMStart); got != 0xFF {
		t.Fatalf("ReadVRAM during Drawing = %#x, want 0xFF (locked)", got)
	}
}

func TestTileDecodeReferencePattern(t *testing.T) {
	ppu, regs, _ := newTestPPU()
	regs.SetBGP(0xE4) // 11 10 01 00: standard identity palette

	// tile 0 at TileData0, row 0: low=0b10101010, high=0b01010101
	// expected pixel values (MSB first, low byte = bit 0): 1,2,1,2,1,2,1,2
	ppu.WriteVRAM(TileData0, 0)
	ppu.vramLocked = false
	ppu.vram[0] = 0b10101010
	ppu.vram[1] = 0b01010101

	want := []byte{1, 2, 1, 2, 1, 2, 1, 2}
	for i, w := range want {
		got := pixelFromRow(ppu.vram[0], ppu.vram[1], uint8(7-i))
		if got != w {
			t.Errorf("pixel %d = %d, want %d", i, got, w)
		}
	}
}

func TestSpritePriorityLowerXWins(t *testing.T) {
	var sp spritePriority
	sp.Clear()

	sp.TryClaimPixel(10, 0, 10)
	claimed := sp.TryClaimPixel(10, 1, 5)
	if !claimed || sp.GetOwner(10) != 1 {
		t.Fatal("expected lower-X sprite to win pixel 10")
	}
}

func TestSpritePriorityTieBrokenByOAMIndex(t *testing.T) {
	var sp spritePriority
	sp.Clear()

	sp.TryClaimPixel(10, 3, 10)
	claimed := sp.TryClaimPixel(10, 1, 10)
	if !claimed || sp.GetOwner(10) != 1 {
		t.Fatal("expected lower OAM index to win a same-X tie")
	}
}
