// Package serial implements the SB/SC serial link port. There is no link
// partner to exchange bytes with, so the port behaves as a sink: every byte
// written while a transfer is started is appended to a log and, once the
// transfer completes, the Serial interrupt fires and SB reads back the
// configured default receive value.
package serial

import (
	"log/slog"

	"github.com/oakfield-labs/gbcore/addr"
	"github.com/oakfield-labs/gbcore/bit"
)

// InterruptRequester is satisfied by the bus.
type InterruptRequester interface {
	RequestInterrupt(addr.Interrupt)
}

// Port is the serial transfer device.
type Port struct {
	irq InterruptRequester

	sb, sc         byte
	transferActive bool
	countdown      int

	immediate bool
	defaultRX byte

	// Bytes holds every byte ever transmitted, in order; Lines holds them
	// grouped by '\n'/'\r'-delimited runs for readable test-ROM output.
	Bytes []byte
	Lines []string

	line []byte
}

type Option func(*Port)

// WithFixedTiming makes transfers complete after ~4096 T-cycles (one byte
// at the DMG's internal clock rate) instead of on the same tick they start.
func WithFixedTiming() Option { return func(p *Port) { p.immediate = false } }

func New(irq InterruptRequester, opts ...Option) *Port {
	p := &Port{
		irq:       irq,
		immediate: true,
		defaultRX: 0xFF,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Port) SB() byte { return p.sb }
func (p *Port) SC() byte { return p.sc }

func (p *Port) WriteSB(v byte) { p.sb = v }

func (p *Port) WriteSC(v byte) {
	p.sc = v
	p.maybeStartTransfer()
}

// Tick advances fixed-timing transfers by the given number of T-cycles.
// No-op when running in immediate mode.
func (p *Port) Tick(tCycles int) {
	if p.immediate || !p.transferActive {
		return
	}
	p.countdown -= tCycles
	if p.countdown <= 0 {
		p.completeTransfer()
	}
}

func (p *Port) maybeStartTransfer() {
	if p.transferActive {
		return
	}
	if !bit.IsSet(7, p.sc) || !bit.IsSet(0, p.sc) {
		return
	}

	b := p.sb
	p.Bytes = append(p.Bytes, b)
	if b == 0 || b == '\n' || b == '\r' {
		if len(p.line) > 0 {
			p.Lines = append(p.Lines, string(p.line))
			slog.Debug("serial: line", "text", string(p.line))
			p.line = p.line[:0]
		}
	} else {
		p.line = append(p.line, b)
	}

	if p.immediate {
		p.completeTransfer()
		return
	}

	p.transferActive = true
	p.countdown = 4096
}

func (p *Port) completeTransfer() {
	p.sb = p.defaultRX
	p.sc = bit.Clear(7, p.sc)
	p.transferActive = false
	if p.irq != nil {
		p.irq.RequestInterrupt(addr.Serial)
	}
}
