// Package bus implements memory-mapped address decoding: it routes every
// CPU read/write to the cartridge, WRAM, VRAM/OAM (through the PPU's
// locking), the packed I/O register file, HRAM or IE, and drives the OAM
// DMA transfer and per-peripheral register side effects.
package bus

import (
	"log/slog"

	"github.com/oakfield-labs/gbcore/addr"
	"github.com/oakfield-labs/gbcore/apu"
	"github.com/oakfield-labs/gbcore/cart"
	"github.com/oakfield-labs/gbcore/ioregs"
	"github.com/oakfield-labs/gbcore/serial"
	"github.com/oakfield-labs/gbcore/timer"
	"github.com/oakfield-labs/gbcore/video"
)

// InterruptRequester is the shared narrow interface every peripheral uses
// to raise its interrupt bit; the Bus itself is the only implementation.
type InterruptRequester interface {
	RequestInterrupt(addr.Interrupt)
}

const dmaLengthCycles = 160 * 4 // 160 M-cycles, expressed in T-cycles

// Bus wires every peripheral to the CPU's 16-bit address space.
type Bus struct {
	cart *cart.Cartridge

	wram [0x2000]byte
	hram [0x7F]byte

	regs   *ioregs.File
	timer  *timer.Timer
	serial *serial.Port
	apu    *apu.APU
	ppu    *video.PPU
	joy    *Joypad

	dmaActive    bool
	dmaSource    uint16
	dmaRemaining int
}

func New(c *cart.Cartridge, cfg video.Config) *Bus {
	regs := &ioregs.File{}
	b := &Bus{cart: c, regs: regs}
	b.timer = timer.New(b)
	b.serial = serial.New(b)
	b.apu = apu.New(regs)
	b.ppu = video.New(regs, b, cfg)
	b.joy = newJoypad(b)
	return b
}

func (b *Bus) RequestInterrupt(i addr.Interrupt) { b.regs.SetInterruptFlag(i) }
func (b *Bus) PendingInterrupts() byte            { return b.regs.PendingInterrupts() }
func (b *Bus) ClearInterruptFlag(i addr.Interrupt) { b.regs.ClearInterruptFlag(i) }

func (b *Bus) PPU() *video.PPU   { return b.ppu }
func (b *Bus) APU() *apu.APU     { return b.apu }
func (b *Bus) Serial() *serial.Port { return b.serial }
func (b *Bus) Joypad() *Joypad   { return b.joy }
func (b *Bus) Regs() *ioregs.File { return b.regs }

// Tick advances every peripheral that runs off the master clock (timer,
// serial fixed-timing transfers, APU, PPU) and services any in-flight OAM
// DMA transfer.
func (b *Bus) Tick(tCycles int) {
	b.timer.Tick(tCycles)
	b.serial.Tick(tCycles)
	b.apu.Tick(tCycles)
	b.ppu.Tick(tCycles)

	if b.dmaActive {
		b.stepDMA(tCycles)
	}
}

func (b *Bus) stepDMA(tCycles int) {
	b.dmaRemaining -= tCycles
	copied := (dmaLengthCycles - b.dmaRemaining) / 4
	if copied > 160 {
		copied = 160
	}
	for i := 0; i < copied; i++ {
		b.ppu.DMAWriteOAM(i, b.Read(b.dmaSource+uint16(i)))
	}
	if b.dmaRemaining <= 0 {
		b.dmaActive = false
	}
}

func (b *Bus) Read(address uint16) byte {
	switch {
	case address <= addr.ROMBankNEnd:
		return b.cart.Read(address)
	case address <= addr.VRAMEnd:
		return b.ppu.ReadVRAM(address)
	case address <= addr.ExtRAMEnd:
		return b.cart.Read(address)
	case address <= addr.WRAMEnd:
		return b.wram[address-addr.WRAMStart]
	case address <= addr.EchoEnd:
		return b.wram[address-addr.EchoStart]
	case address <= addr.OAMEnd:
		return b.ppu.ReadOAM(address)
	case address <= addr.UnusedEnd:
		return 0xFF
	case address <= addr.IOEnd:
		return b.readIO(address)
	case address <= addr.HRAMEnd:
		return b.hram[address-addr.HRAMStart]
	case address == addr.IEAddr:
		return b.regs.IE
	default:
		panic("bus: address decode miss on read")
	}
}

func (b *Bus) Write(address uint16, value byte) {
	switch {
	case address <= addr.ROMBankNEnd:
		b.cart.Write(address, value)
	case address <= addr.VRAMEnd:
		b.ppu.WriteVRAM(address, value)
	case address <= addr.ExtRAMEnd:
		b.cart.Write(address, value)
	case address <= addr.WRAMEnd:
		b.wram[address-addr.WRAMStart] = value
	case address <= addr.EchoEnd:
		b.wram[address-addr.EchoStart] = value
	case address <= addr.OAMEnd:
		b.ppu.WriteOAM(address, value)
	case address <= addr.UnusedEnd:
		// writes to the unused region are dropped
	case address <= addr.IOEnd:
		b.writeIO(address, value)
	case address <= addr.HRAMEnd:
		b.hram[address-addr.HRAMStart] = value
	case address == addr.IEAddr:
		b.regs.IE = value
	default:
		panic("bus: address decode miss on write")
	}
}

func (b *Bus) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return b.joy.ReadP1()
	case address == addr.SB:
		return b.serial.SB()
	case address == addr.SC:
		return b.serial.SC()
	case address == addr.DIV:
		return b.timer.DIV()
	case address == addr.TIMA:
		return b.timer.TIMA()
	case address == addr.TMA:
		return b.timer.TMA()
	case address == addr.TAC:
		return b.timer.TAC()
	case address >= addr.NR10 && address <= addr.NR52:
		return b.apu.ReadRegister(address)
	case address >= addr.WavePatternStart && address <= addr.WavePatternEnd:
		return b.regs.Get(address)
	default:
		return b.regs.Get(address)
	}
}

func (b *Bus) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		b.joy.WriteP1(value)
	case address == addr.SB:
		b.serial.WriteSB(value)
	case address == addr.SC:
		b.serial.WriteSC(value)
	case address == addr.DIV:
		b.timer.WriteDIV()
	case address == addr.TIMA:
		b.timer.WriteTIMA(value)
	case address == addr.TMA:
		b.timer.WriteTMA(value)
	case address == addr.TAC:
		b.timer.WriteTAC(value)
	case address == addr.DMA:
		b.startDMA(value)
	case address == addr.LCDC:
		b.ppu.WriteLCDC(value)
	case address >= addr.NR10 && address <= addr.NR52:
		b.apu.WriteRegister(address, value)
	case address >= addr.WavePatternStart && address <= addr.WavePatternEnd:
		b.regs.Set(address, value)
	case address == addr.IF:
		b.regs.SetIF(value)
	default:
		b.regs.Set(address, value)
	}
}

func (b *Bus) startDMA(highByte byte) {
	b.dmaActive = true
	b.dmaSource = uint16(highByte) << 8
	b.dmaRemaining = dmaLengthCycles
	slog.Debug("bus: OAM DMA started", "source", b.dmaSource)
}
