package serial

import (
	"testing"

	"github.com/oakfield-labs/gbcore/addr"
)

type fakeIRQ struct{ count int }

func (f *fakeIRQ) RequestInterrupt(addr.Interrupt) { f.count++ }

func TestImmediateRoundTrip(t *testing.T) {
	irq := &fakeIRQ{}
	p := New(irq)

	p.WriteSB('H')
	p.WriteSC(0x81) // start + internal clock

	if p.SB() != 0xFF {
		t.Errorf("SB() = %#x, want 0xFF (default RX) after immediate completion", p.SB())
	}
	if p.SC()&0x80 != 0 {
		t.Error("expected start bit cleared after completion")
	}
	if irq.count != 1 {
		t.Errorf("irq.count = %d, want 1", irq.count)
	}
	if len(p.Bytes) != 1 || p.Bytes[0] != 'H' {
		t.Errorf("Bytes = %v, want ['H']", p.Bytes)
	}
}

func TestFixedTimingDefersCompletion(t *testing.T) {
	irq := &fakeIRQ{}
	p := New(irq, WithFixedTiming())

	p.WriteSB('X')
	p.WriteSC(0x81)

	if irq.count != 0 {
		t.Fatal("fixed-timing transfer must not complete immediately")
	}

	p.Tick(4095)
	if irq.count != 0 {
		t.Fatal("transfer completed before countdown elapsed")
	}

	p.Tick(1)
	if irq.count != 1 {
		t.Errorf("irq.count = %d, want 1 after countdown elapses", irq.count)
	}
}

func TestLineBuffering(t *testing.T) {
	p := New(nil)
	for _, b := range []byte("hi\n") {
		p.WriteSB(b)
		p.WriteSC(0x81)
	}
	if len(p.Lines) != 1 || p.Lines[0] != "hi" {
		t.Errorf("Lines = %v, want [\"hi\"]", p.Lines)
	}
}
