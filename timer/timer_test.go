package timer

import (
	"testing"

	"github.com/oakfield-labs/gbcore/addr"
)

type fakeIRQ struct {
	requested []addr.Interrupt
}

func (f *fakeIRQ) RequestInterrupt(i addr.Interrupt) {
	f.requested = append(f.requested, i)
}

func TestDIVIsHighByteOfSystemClock(t *testing.T) {
	tm := New(nil)
	tm.Tick(256 * 3)
	if tm.DIV() != 3 {
		t.Errorf("DIV() = %d, want 3", tm.DIV())
	}
}

func TestWriteDIVResetsSystemClock(t *testing.T) {
	tm := New(nil)
	tm.Tick(1000)
	tm.WriteDIV()
	if tm.DIV() != 0 {
		t.Errorf("DIV() after write = %d, want 0", tm.DIV())
	}
}

func TestTIMAIncrementsOnFallingEdge(t *testing.T) {
	irq := &fakeIRQ{}
	tm := New(irq)
	tm.WriteTAC(0x05) // enabled, select bit 3 -> period 16

	for i := 0; i < 16; i++ {
		tm.Tick(1)
	}
	if tm.TIMA() != 1 {
		t.Errorf("TIMA() = %d, want 1 after one full period", tm.TIMA())
	}
}

func TestTIMAOverflowReloadsAfterOneCycleDelay(t *testing.T) {
	irq := &fakeIRQ{}
	tm := New(irq)
	tm.WriteTAC(0x05)
	tm.WriteTMA(0x42)

	// drive TIMA to 0xFF
	tm.tima = 0xFF

	for i := 0; i < 16; i++ {
		tm.Tick(1)
	}
	// overflow detected this tick, TIMA momentarily 0 and reload pending
	if tm.TIMA() != 0 {
		t.Fatalf("TIMA() = %d, want 0 immediately after overflow", tm.TIMA())
	}
	if len(irq.requested) != 0 {
		t.Fatalf("interrupt requested too early")
	}

	tm.Tick(1)
	if tm.TIMA() != 0x42 {
		t.Errorf("TIMA() = %#x, want 0x42 after the one-cycle reload delay", tm.TIMA())
	}
	if len(irq.requested) != 1 || irq.requested[0] != addr.Timer {
		t.Errorf("expected exactly one Timer interrupt request, got %v", irq.requested)
	}
}

func TestWriteTIMACancelsOverflow(t *testing.T) {
	tm := New(&fakeIRQ{})
	tm.overflowPending = true
	tm.overflowDelay = 1

	tm.WriteTIMA(0x10)

	if tm.overflowPending {
		t.Fatal("expected overflow to be cancelled by direct TIMA write")
	}
	if tm.TIMA() != 0x10 {
		t.Errorf("TIMA() = %#x, want 0x10", tm.TIMA())
	}
}

func TestTimerDisabledNeverTicksTIMA(t *testing.T) {
	tm := New(&fakeIRQ{})
	tm.WriteTAC(0x01) // disabled (bit 2 clear), select bit 3
	tm.Tick(1000)
	if tm.TIMA() != 0 {
		t.Errorf("TIMA() = %d, want 0 while timer disabled", tm.TIMA())
	}
}
