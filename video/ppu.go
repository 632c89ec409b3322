// Package video implements the picture processing unit: a 4-mode dot-timed
// state machine that composites background, window and sprite layers into
// a 160x144 framebuffer once per scanline and raises the VBlank and
// STAT (LCD) interrupts.
package video

import (
	"log/slog"

	"github.com/oakfield-labs/gbcore/addr"
	"github.com/oakfield-labs/gbcore/bit"
	"github.com/oakfield-labs/gbcore/ioregs"
)

// Mode is the PPU's current rendering stage, matching STAT bits 1:0.
type Mode uint8

const (
	HBlank  Mode = 0
	VBlank  Mode = 1
	OAMScan Mode = 2
	Drawing Mode = 3
)

// Dot counts per spec: an OAM scan of 80 dots, a fixed-length drawing phase
// of 200 dots, and a full scanline of 456 dots (the remainder, 176 dots,
// is HBlank). VBlank spans 10 scanlines, each also 456 dots long.
const (
	oamScanDots = 80
	drawingDots = 200
	lineDots    = 456
	vblankLines = 10
	visibleLines = 144
	totalLines   = visibleLines + vblankLines
)

const (
	lcdcEnable       = 7
	lcdcWindowMap    = 6
	lcdcWindowEnable = 5
	lcdcTileData     = 4
	lcdcBGMap        = 3
	lcdcSpriteSize   = 2
	lcdcSpriteEnable = 1
	lcdcBGEnable     = 0

	statLYCEnable    = 6
	statOAMEnable    = 5
	statVBlankEnable = 4
	statHBlankEnable = 3
	statLYCFlag      = 2
)

const (
	TileMap0  uint16 = 0x9800
	TileMap1  uint16 = 0x9C00
	TileData0 uint16 = 0x8000 // unsigned addressing base
	TileData1 uint16 = 0x9000 // signed addressing base
)

// InterruptRequester is satisfied by the bus.
type InterruptRequester interface {
	RequestInterrupt(addr.Interrupt)
}

// Config carries the PPU's documented open-question behaviours.
type Config struct {
	// WindowUsesBGZeroWhenBGOff reproduces a quirk some third-party cores
	// implement where, with BG rendering disabled, the window still paints
	// using BG palette color 0 instead of being skipped outright. Default
	// false: the window is simply not drawn while BG is disabled.
	WindowUsesBGZeroWhenBGOff bool
}

// PPU is the picture processing unit.
type PPU struct {
	regs *ioregs.File
	irq  InterruptRequester
	cfg  Config

	vram [0x2000]byte
	oam  [0xA0]byte

	fb *FrameBuffer

	mode       Mode
	dot        int
	windowLine int
	statLine   bool

	bgPriority  [Size]byte
	priority    spritePriority
	vramLocked  bool
	oamLocked   bool
}

func New(regs *ioregs.File, irq InterruptRequester, cfg Config) *PPU {
	return &PPU{
		regs: regs,
		irq:  irq,
		cfg:  cfg,
		fb:   NewFrameBuffer(),
		mode: OAMScan,
	}
}

func (p *PPU) FrameBuffer() *FrameBuffer { return p.fb }

// ReadVRAM / WriteVRAM are called by the bus; they return 0xFF / drop the
// write while the PPU holds the region locked against CPU access, exactly
// as the bus's region dispatch requires. Both regions are always available
// while the LCD is off, regardless of whatever mode was last latched.
func (p *PPU) ReadVRAM(address uint16) byte {
	if p.vramLocked && p.enabled() {
		return 0xFF
	}
	return p.vram[address-addr.VRAMStart]
}

func (p *PPU) WriteVRAM(address uint16, value byte) {
	if p.vramLocked && p.enabled() {
		return
	}
	p.vram[address-addr.VRAMStart] = value
}

func (p *PPU) ReadOAM(address uint16) byte {
	if p.oamLocked && p.enabled() {
		return 0xFF
	}
	return p.oam[address-addr.OAMStart]
}

func (p *PPU) WriteOAM(address uint16, value byte) {
	if p.oamLocked && p.enabled() {
		return
	}
	p.oam[address-addr.OAMStart] = value
}

// WriteLCDC stores a write to the LCDC register and, on a bit-7 1->0
// transition, resets the PPU to the documented power-off state: LY=0,
// mode=OAMScan, dot counter=0. VRAM/OAM stay unlocked the whole time the
// LCD is off regardless of this latched mode, per ReadVRAM/WriteVRAM/
// ReadOAM/WriteOAM above.
func (p *PPU) WriteLCDC(value byte) {
	wasEnabled := bit.IsSet(lcdcEnable, p.regs.LCDC())
	p.regs.SetLCDC(value)
	nowEnabled := bit.IsSet(lcdcEnable, value)

	if wasEnabled && !nowEnabled {
		p.dot = 0
		p.windowLine = 0
		p.regs.SetLY(0)
		p.updateCoincidence()
		p.setMode(OAMScan)
	}
}

// DMAWriteOAM bypasses the lock check: the DMA engine is allowed to fill
// OAM even while the CPU itself is locked out.
func (p *PPU) DMAWriteOAM(index int, value byte) {
	p.oam[index] = value
}

func (p *PPU) enabled() bool {
	return bit.IsSet(lcdcEnable, p.regs.LCDC())
}

// Tick advances the PPU by tCycles T-cycles (four per M-cycle).
func (p *PPU) Tick(tCycles int) {
	if !p.enabled() {
		return
	}
	for i := 0; i < tCycles; i++ {
		p.tickOne()
	}
}

func (p *PPU) tickOne() {
	p.dot++

	switch p.mode {
	case OAMScan:
		p.vramLocked, p.oamLocked = false, true
		if p.dot >= oamScanDots {
			p.dot = 0
			p.setMode(Drawing)
		}
	case Drawing:
		p.vramLocked, p.oamLocked = true, true
		if p.dot >= drawingDots {
			p.dot = 0
			p.renderScanline()
			p.setMode(HBlank)
		}
	case HBlank:
		p.vramLocked, p.oamLocked = false, false
		if p.dot >= lineDots-oamScanDots-drawingDots {
			p.dot = 0
			p.advanceLine()
		}
	case VBlank:
		p.vramLocked, p.oamLocked = false, false
		if p.dot >= lineDots {
			p.dot = 0
			p.advanceLine()
		}
	}

	p.updateSTATIRQ()
}

func (p *PPU) advanceLine() {
	line := int(p.regs.LY()) + 1
	if line >= totalLines {
		line = 0
		p.windowLine = 0
	}
	p.regs.SetLY(byte(line))
	p.updateCoincidence()

	switch {
	case line == visibleLines:
		p.setMode(VBlank)
		p.irq.RequestInterrupt(addr.VBlank)
	case line < visibleLines:
		p.setMode(OAMScan)
	default:
		p.setMode(VBlank)
	}
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.vramLocked = m == Drawing
	p.oamLocked = m == Drawing || m == OAMScan
	stat := p.regs.STAT()
	stat = (stat &^ 0x03) | byte(m)
	p.regs.SetSTAT(stat)
}

func (p *PPU) updateCoincidence() {
	stat := p.regs.STAT()
	if p.regs.LY() == p.regs.LYC() {
		stat = bit.Set(statLYCFlag, stat)
	} else {
		stat = bit.Clear(statLYCFlag, stat)
	}
	p.regs.SetSTAT(stat)
}

// updateSTATIRQ recomputes the OR of the four STAT interrupt sources every
// tick and fires on a rising edge only, matching the reference PPU's
// m_statIRQSources reset-then-OR-then-edge-detect pattern.
func (p *PPU) updateSTATIRQ() {
	stat := p.regs.STAT()
	line := false
	line = line || (p.mode == HBlank && bit.IsSet(statHBlankEnable, stat))
	line = line || (p.mode == VBlank && bit.IsSet(statVBlankEnable, stat))
	line = line || (p.mode == OAMScan && bit.IsSet(statOAMEnable, stat))
	line = line || (bit.IsSet(statLYCFlag, stat) && bit.IsSet(statLYCEnable, stat))

	if line && !p.statLine {
		p.irq.RequestInterrupt(addr.LCDSTAT)
	}
	p.statLine = line
}

func (p *PPU) renderScanline() {
	line := int(p.regs.LY())
	if line >= visibleLines {
		return
	}

	if !p.enabled() {
		return
	}

	// The Drawing-mode VRAM lock applies to CPU access only; the renderer
	// itself must see the real tile data.
	locked := p.vramLocked
	p.vramLocked = false
	defer func() { p.vramLocked = locked }()

	bgEnabled := bit.IsSet(lcdcBGEnable, p.regs.LCDC())
	if bgEnabled {
		p.drawBackground(line)
	} else {
		p.clearBackground(line)
	}
	p.drawWindow(line, bgEnabled)
	p.drawSprites(line)
}

func (p *PPU) clearBackground(line int) {
	rowStart := line * Width
	color0 := p.regs.BGP() & 0x03
	shade := Shade(color0)
	for x := 0; x < Width; x++ {
		p.fb.Set(x, line, shade)
		p.bgPriority[rowStart+x] = 0
	}
}

func (p *PPU) tileAddress(tileIndex byte, signedAddressing bool, rowOffset int) uint16 {
	if signedAddressing {
		return uint16(int(TileData1) + int(int8(tileIndex))*16 + rowOffset)
	}
	return TileData0 + uint16(tileIndex)*16 + uint16(rowOffset)
}

func (p *PPU) readTileRow(base uint16) (low, high byte) {
	return p.ReadVRAM(base), p.ReadVRAM(base + 1)
}

func pixelFromRow(low, high byte, bitIndex uint8) byte {
	var px byte
	if bit.IsSet(bitIndex, low) {
		px |= 1
	}
	if bit.IsSet(bitIndex, high) {
		px |= 2
	}
	return px
}

func (p *PPU) drawBackground(line int) {
	signed := !bit.IsSet(lcdcTileData, p.regs.LCDC())
	tileMap := TileMap0
	if bit.IsSet(lcdcBGMap, p.regs.LCDC()) {
		tileMap = TileMap1
	}

	scx, scy := p.regs.SCX(), p.regs.SCY()
	mapY := (line + int(scy)) & 0xFF
	tileRow := (mapY / 8) * 32
	rowOffset := (mapY % 8) * 2
	rowStart := line * Width

	for x := 0; x < Width; x++ {
		mapX := (x + int(scx)) & 0xFF
		tileCol := mapX / 8
		tileIndex := p.ReadVRAM(tileMap + uint16(tileRow+tileCol))
		base := p.tileAddress(tileIndex, signed, rowOffset)
		low, high := p.readTileRow(base)

		bitIdx := uint8(7 - mapX%8)
		px := pixelFromRow(low, high, bitIdx)
		color := (p.regs.BGP() >> (px * 2)) & 0x03

		p.fb.Set(x, line, Shade(color))
		p.bgPriority[rowStart+x] = px
	}
}

func (p *PPU) drawWindow(line int, bgEnabled bool) {
	if !bit.IsSet(lcdcWindowEnable, p.regs.LCDC()) {
		return
	}
	if !bgEnabled && !p.cfg.WindowUsesBGZeroWhenBGOff {
		return
	}

	wx := int(p.regs.WX()) - 7
	wy := int(p.regs.WY())
	if wy > line || wx >= Width {
		return
	}

	signed := !bit.IsSet(lcdcTileData, p.regs.LCDC())
	tileMap := TileMap0
	if bit.IsSet(lcdcWindowMap, p.regs.LCDC()) {
		tileMap = TileMap1
	}

	tileRow := (p.windowLine / 8) * 32
	rowOffset := (p.windowLine % 8) * 2
	rowStart := line * Width

	for x := 0; x < Width; x++ {
		screenX := wx + x
		if screenX < 0 || screenX >= Width {
			continue
		}
		tileCol := x / 8
		tileIndex := p.ReadVRAM(tileMap + uint16(tileRow+tileCol))
		base := p.tileAddress(tileIndex, signed, rowOffset)
		low, high := p.readTileRow(base)

		bitIdx := uint8(7 - x%8)
		px := pixelFromRow(low, high, bitIdx)
		if !bgEnabled {
			px = 0 // WindowUsesBGZeroWhenBGOff: paint BG palette color 0
		}
		color := (p.regs.BGP() >> (px * 2)) & 0x03

		p.fb.Set(screenX, line, Shade(color))
		p.bgPriority[rowStart+screenX] = px
	}
	p.windowLine++
}

// spriteEntry mirrors one 4-byte OAM record.
type spriteEntry struct {
	index int
	y, x  int
	tile  byte
	flags byte
}

func (p *PPU) drawSprites(line int) {
	if !bit.IsSet(lcdcSpriteEnable, p.regs.LCDC()) {
		return
	}

	height := 8
	if bit.IsSet(lcdcSpriteSize, p.regs.LCDC()) {
		height = 16
	}

	var candidates []spriteEntry
	for i := 0; i < 40; i++ {
		base := i * 4
		y := int(p.oam[base]) - 16
		if y > line || y+height <= line {
			continue
		}
		candidates = append(candidates, spriteEntry{
			index: i,
			y:     y,
			x:     int(p.oam[base+1]) - 8,
			tile:  p.oam[base+2],
			flags: p.oam[base+3],
		})
		if len(candidates) == 10 {
			break
		}
	}

	p.priority.Clear()
	for _, s := range candidates {
		for px := 0; px < 8; px++ {
			p.priority.TryClaimPixel(s.x+px, s.index, s.x)
		}
	}

	rowStart := line * Width
	for _, s := range candidates {
		owns := false
		for px := 0; px < 8; px++ {
			if p.priority.GetOwner(s.x+px) == s.index {
				owns = true
				break
			}
		}
		if !owns {
			continue
		}

		mask := byte(0xFF)
		if height == 16 {
			mask = 0xFE
		}
		tile := int(s.tile&mask) * 16

		flipX := bit.IsSet(5, s.flags)
		flipY := bit.IsSet(6, s.flags)
		aboveBG := !bit.IsSet(7, s.flags)
		paletteAddr := p.regs.OBP0
		if bit.IsSet(4, s.flags) {
			paletteAddr = p.regs.OBP1
		}

		rowInSprite := line - s.y
		if flipY {
			rowInSprite = height - 1 - rowInSprite
		}

		base := TileData0 + uint16(tile+rowInSprite*2)
		low, high := p.readTileRow(base)

		for px := 0; px < 8; px++ {
			x := s.x + px
			if x < 0 || x >= Width || p.priority.GetOwner(x) != s.index {
				continue
			}
			bitIdx := uint8(px)
			if !flipX {
				bitIdx = uint8(7 - px)
			}
			colorIdx := pixelFromRow(low, high, bitIdx)
			if colorIdx == 0 {
				continue // transparent
			}
			if !aboveBG && p.bgPriority[rowStart+x] != 0 {
				continue
			}
			shade := (paletteAddr() >> (colorIdx * 2)) & 0x03
			p.fb.Set(x, line, Shade(shade))
		}
	}
}

// LogDisabledAccess logs a read or write of a locked region at warn level.
// Nothing in this module calls it: ReadVRAM/WriteVRAM/ReadOAM/WriteOAM
// return 0xFF or drop the write without logging.
func LogDisabledAccess(kind string, address uint16) {
	slog.Warn("video: access to locked region", "kind", kind, "address", address)
}
