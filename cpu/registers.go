package cpu

import "github.com/oakfield-labs/gbcore/bit"

// Register indices for the 3-bit r8 operand field used throughout the
// unprefixed and CB-prefixed opcode tables. Index 6 is not a real register;
// it means "the byte at address HL" and is special-cased by getR8/setR8.
const (
	regB = iota
	regC
	regD
	regE
	regH
	regL
	regHLMem
	regA
)

// Flag bit positions within F.
const (
	flagZ byte = 0x80
	flagN byte = 0x40
	flagH byte = 0x20
	flagC byte = 0x10
)

func (c *CPU) getR8(index int) byte {
	switch index {
	case regB:
		return c.b
	case regC:
		return c.c
	case regD:
		return c.d
	case regE:
		return c.e
	case regH:
		return c.h
	case regL:
		return c.l
	case regHLMem:
		return c.bus.Read(c.hl())
	case regA:
		return c.a
	default:
		panic("cpu: invalid register index")
	}
}

func (c *CPU) setR8(index int, v byte) {
	switch index {
	case regB:
		c.b = v
	case regC:
		c.c = v
	case regD:
		c.d = v
	case regE:
		c.e = v
	case regH:
		c.h = v
	case regL:
		c.l = v
	case regHLMem:
		c.bus.Write(c.hl(), v)
	case regA:
		c.a = v
	default:
		panic("cpu: invalid register index")
	}
}

func (c *CPU) af() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) bc() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) de() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) hl() uint16 { return bit.Combine(c.h, c.l) }

func (c *CPU) setAF(v uint16) { c.a = bit.High(v); c.f = bit.Low(v) & 0xF0 }
func (c *CPU) setBC(v uint16) { c.b = bit.High(v); c.c = bit.Low(v) }
func (c *CPU) setDE(v uint16) { c.d = bit.High(v); c.e = bit.Low(v) }
func (c *CPU) setHL(v uint16) { c.h = bit.High(v); c.l = bit.Low(v) }

func (c *CPU) setFlag(mask byte, set bool) {
	if set {
		c.f |= mask
	} else {
		c.f &^= mask
	}
}

func (c *CPU) flag(mask byte) bool {
	return c.f&mask != 0
}
