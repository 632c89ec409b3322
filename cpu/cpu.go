// Package cpu implements the Sharp LR35902 instruction set: an 8080-derived
// 8-bit core with a Z80-style flag register, unprefixed and CB-prefixed
// opcode tables, HALT/STOP, and an interrupt service routine with a
// one-instruction EI delay.
package cpu

import (
	"github.com/oakfield-labs/gbcore/addr"
)

// Bus is the memory-mapped interface the CPU reads instructions and
// operands through, and through which it reaches the IF/IE registers for
// interrupt servicing.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(addr.Interrupt)
	PendingInterrupts() byte
	ClearInterruptFlag(addr.Interrupt)
}

// BreakConfig is the breakpoint surface external debug tooling can set
// before calling Step: the CPU checks it once per instruction boundary and
// reports a hit through WantsBreak instead of halting execution itself.
type BreakConfig struct {
	OnPC           map[uint16]bool
	OnOpcode       map[byte]bool
	OnWriteAddress map[uint16]bool
}

func (b *BreakConfig) matchesPC(pc uint16) bool {
	return b != nil && b.OnPC != nil && b.OnPC[pc]
}

func (b *BreakConfig) matchesOpcode(op byte) bool {
	return b != nil && b.OnOpcode != nil && b.OnOpcode[op]
}

// MatchesWrite reports whether address is a configured break-on-write
// address; the bus can consult this from its Write path if it wants to
// surface mid-instruction breaks, though the default Step loop only checks
// PC/opcode breaks at instruction boundaries.
func (b *BreakConfig) MatchesWrite(address uint16) bool {
	return b != nil && b.OnWriteAddress != nil && b.OnWriteAddress[address]
}

// CPU holds the full register set and execution state of the core.
type CPU struct {
	a, f, b, c, d, e, h, l byte
	sp, pc                 uint16

	bus Bus

	ime        bool
	imePending bool
	halted     bool
	stopped    bool

	brk       BreakConfig
	lastBreak bool
}

func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset puts the CPU in the documented post-bootrom register state.
func (c *CPU) Reset() {
	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
	c.ime = false
	c.halted = false
	c.stopped = false
}

func (c *CPU) PC() uint16 { return c.pc }
func (c *CPU) SP() uint16 { return c.sp }
func (c *CPU) A() byte    { return c.a }
func (c *CPU) F() byte    { return c.f }
func (c *CPU) IME() bool  { return c.ime }
func (c *CPU) Halted() bool { return c.halted }

// SetBreakConfig installs (or clears, with a zero value) the breakpoint
// surface external debug hooks query via WantsBreak.
func (c *CPU) SetBreakConfig(cfg BreakConfig) { c.brk = cfg }

// WantsBreak reports whether the most recently completed Step matched a
// configured PC or opcode breakpoint.
func (c *CPU) WantsBreak() bool { return c.lastBreak }

func (c *CPU) fetch8() byte {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push16(v uint16) {
	c.sp--
	c.bus.Write(c.sp, byte(v>>8))
	c.sp--
	c.bus.Write(c.sp, byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.sp)
	c.sp++
	hi := c.bus.Read(c.sp)
	c.sp++
	return uint16(hi)<<8 | uint16(lo)
}

// Step executes exactly one instruction (or, while halted/stopped with no
// pending interrupt, advances by a single idle M-cycle) and returns the
// number of T-cycles it took, including any interrupt dispatch.
func (c *CPU) Step() int {
	serviced := c.serviceInterrupt()
	if serviced > 0 {
		return serviced
	}

	if c.halted || c.stopped {
		return 4
	}

	applyEI := c.imePending
	c.imePending = false

	pcBefore := c.pc
	opcode := c.fetch8()

	var cycles int
	if opcode == 0xCB {
		cbOp := c.fetch8()
		cycles = c.execCB(cbOp)
	} else {
		cycles = c.exec(opcode)
	}

	if applyEI {
		c.ime = true
	}

	c.lastBreak = c.brk.matchesPC(pcBefore) || c.brk.matchesOpcode(opcode)

	return cycles
}

// serviceInterrupt checks IF&IE and, if IME is set and a bit is pending,
// pushes PC, jumps to the fixed vector and clears IME. Priority is checked
// in the fixed VBlank < LCDSTAT < Timer < Serial < Joypad order. Returns
// the number of T-cycles consumed (0 if nothing was serviced).
func (c *CPU) serviceInterrupt() int {
	pending := c.bus.PendingInterrupts()
	if pending != 0 {
		c.halted = false
		c.stopped = false
	}
	if !c.ime || pending == 0 {
		return 0
	}

	for _, i := range addr.Priority {
		if pending&byte(i) == 0 {
			continue
		}
		c.ime = false
		c.bus.ClearInterruptFlag(i)
		c.push16(c.pc)
		c.pc = addr.InterruptVector(i)
		return 20
	}
	return 0
}
