// Package apu implements the four-channel audio processing unit: two pulse
// oscillators (the first with frequency sweep), a wave channel and a noise
// channel, mixed through the NR50/NR51 volume and panning registers and
// resampled to a fixed host output rate.
package apu

import (
	"sync"

	"github.com/oakfield-labs/gbcore/bit"
	"github.com/oakfield-labs/gbcore/ioregs"
)

const (
	masterClockHz = 4194304
	sampleRateHz  = 44100
	// backlog beyond which pushSample starts dropping the oldest queued
	// samples, matching the bounded-queue concurrency model: half a
	// second of audio at the host sample rate.
	maxQueuedSamples = sampleRateHz / 2
)

// Provider is the read-only surface a frontend polls for rendered audio and
// debug channel state.
type Provider interface {
	GetSamples(count int) []int16
	ToggleChannel(ch int)
	SoloChannel(ch int)
	ChannelEnabled(ch int) bool
}

var _ Provider = (*APU)(nil)

// onePoleHighPass is the DC-blocking filter the reference mixer applies to
// each output ear.
type onePoleHighPass struct {
	capacitor float64
	charge    float64
}

func (f *onePoleHighPass) process(in float64) float64 {
	out := in - f.capacitor
	f.capacitor = in - out*f.charge
	return out
}

// APU is the audio processing unit.
type APU struct {
	regs *ioregs.File

	ch1 pulseOsc
	ch2 pulseOsc
	ch3 waveOsc
	ch4 noiseOsc

	powered bool

	filterL, filterR onePoleHighPass

	cyclesSinceSample float64

	mu      sync.Mutex
	queue   []int16
	muted   [4]bool
	soloing int // -1 = no solo, else channel index 0-3
}

func New(regs *ioregs.File) *APU {
	a := &APU{regs: regs, soloing: -1}
	a.ch1.hasSweep = true
	a.ch3.wavePattern = regs.WavePattern()
	a.filterL.charge = 0.999958
	a.filterR.charge = 0.999958
	return a
}

// WriteRegister dispatches a CPU write to an APU register address. While
// the APU is powered off only NR52 itself is accepted; writes to every
// other APU register, length-counter loads included, are ignored.
func (a *APU) WriteRegister(address uint16, value byte) {
	if address == 0xFF26 { // NR52
		wasPowered := a.powered
		a.powered = bit.IsSet(7, value)
		if wasPowered && !a.powered {
			a.reset()
		}
		return
	}

	if !a.powered {
		return
	}

	switch address {
	case 0xFF10:
		a.ch1.swp.period = bit.ExtractBits(value, 4, 6)
		a.ch1.swp.decreasing = bit.IsSet(3, value)
		a.ch1.swp.shift = bit.ExtractBits(value, 0, 2)
	case 0xFF11:
		a.ch1.duty = bit.ExtractBits(value, 6, 7)
		a.ch1.len.counter = int(bit.ExtractBits(value, 0, 5))
		a.ch1.len.max = 64
	case 0xFF12:
		a.ch1.env.initialVolume = bit.ExtractBits(value, 4, 7)
		a.ch1.env.increasing = bit.IsSet(3, value)
		a.ch1.env.period = bit.ExtractBits(value, 0, 2)
		a.ch1.dacEnabled = value&0xF8 != 0
	case 0xFF13:
		a.ch1.freq = (a.ch1.freq &^ 0xFF) | int(value)
	case 0xFF14:
		a.ch1.freq = (a.ch1.freq & 0xFF) | (int(value&0x07) << 8)
		a.ch1.len.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch1.trigger(a.ch1.len.counter)
		}

	case 0xFF16:
		a.ch2.duty = bit.ExtractBits(value, 6, 7)
		a.ch2.len.counter = int(bit.ExtractBits(value, 0, 5))
		a.ch2.len.max = 64
	case 0xFF17:
		a.ch2.env.initialVolume = bit.ExtractBits(value, 4, 7)
		a.ch2.env.increasing = bit.IsSet(3, value)
		a.ch2.env.period = bit.ExtractBits(value, 0, 2)
		a.ch2.dacEnabled = value&0xF8 != 0
	case 0xFF18:
		a.ch2.freq = (a.ch2.freq &^ 0xFF) | int(value)
	case 0xFF19:
		a.ch2.freq = (a.ch2.freq & 0xFF) | (int(value&0x07) << 8)
		a.ch2.len.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch2.trigger(a.ch2.len.counter)
		}

	case 0xFF1A:
		a.ch3.dacEnabled = bit.IsSet(7, value)
	case 0xFF1B:
		a.ch3.len.counter = int(value)
		a.ch3.len.max = 256
	case 0xFF1C:
		a.ch3.volumeShift = bit.ExtractBits(value, 5, 6)
	case 0xFF1D:
		a.ch3.freq = (a.ch3.freq &^ 0xFF) | int(value)
	case 0xFF1E:
		a.ch3.freq = (a.ch3.freq & 0xFF) | (int(value&0x07) << 8)
		a.ch3.len.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch3.trigger(a.ch3.len.counter)
		}

	case 0xFF20:
		a.ch4.len.counter = int(bit.ExtractBits(value, 0, 5))
		a.ch4.len.max = 64
	case 0xFF21:
		a.ch4.env.initialVolume = bit.ExtractBits(value, 4, 7)
		a.ch4.env.increasing = bit.IsSet(3, value)
		a.ch4.env.period = bit.ExtractBits(value, 0, 2)
		a.ch4.dacEnabled = value&0xF8 != 0
	case 0xFF22:
		a.ch4.shiftClock = bit.ExtractBits(value, 4, 7)
		a.ch4.use7Bit = bit.IsSet(3, value)
		a.ch4.divisorCode = bit.ExtractBits(value, 0, 2)
	case 0xFF23:
		a.ch4.len.enabled = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.ch4.trigger(a.ch4.len.counter)
		}
	}

	a.regs.Set(address, value)
}

// ReadRegister returns the value read back from an APU register. NR52 is
// computed live from oscillator enabled state; unused bits read as 1.
func (a *APU) ReadRegister(address uint16) byte {
	if address == 0xFF26 {
		var status byte
		if a.powered {
			status |= 0x80
		}
		if a.ch1.enabled {
			status |= 0x01
		}
		if a.ch2.enabled {
			status |= 0x02
		}
		if a.ch3.enabled {
			status |= 0x04
		}
		if a.ch4.enabled {
			status |= 0x08
		}
		return status | 0x70
	}
	return a.regs.Get(address) | unusedMask(address)
}

func unusedMask(address uint16) byte {
	switch address {
	case 0xFF11, 0xFF16:
		return 0x3F
	case 0xFF13, 0xFF18, 0xFF1B, 0xFF1D, 0xFF20:
		return 0xFF
	case 0xFF14, 0xFF19, 0xFF1E, 0xFF23:
		return 0xBF
	default:
		return 0x00
	}
}

func (a *APU) reset() {
	a.ch1 = pulseOsc{hasSweep: true}
	a.ch2 = pulseOsc{}
	a.ch3 = waveOsc{wavePattern: a.ch3.wavePattern}
	a.ch4 = noiseOsc{}
}

// Tick advances all four oscillators and the output resampler by tCycles
// T-cycles.
func (a *APU) Tick(tCycles int) {
	if !a.powered {
		return
	}

	a.ch1.tick(tCycles)
	a.ch2.tick(tCycles)
	a.ch3.tick(tCycles)
	a.ch4.tick(tCycles)

	a.cyclesSinceSample += float64(tCycles)
	period := float64(masterClockHz) / float64(sampleRateHz)
	for a.cyclesSinceSample >= period {
		a.cyclesSinceSample -= period
		a.emitSample()
	}
}

func (a *APU) channelSamples() [4]float64 {
	var s [4]float64
	s[0] = float64(a.ch1.sample()) / 15.0
	s[1] = float64(a.ch2.sample()) / 15.0
	s[2] = float64(a.ch3.sample()) / 15.0
	s[3] = float64(a.ch4.sample()) / 15.0

	for i := range s {
		if a.soloing >= 0 && a.soloing != i {
			s[i] = 0
		} else if a.muted[i] {
			s[i] = 0
		}
	}
	return s
}

func (a *APU) emitSample() {
	samples := a.channelSamples()
	nr51 := a.regs.Get(0xFF25)
	nr50 := a.regs.Get(0xFF24)

	var left, right float64
	for i := 0; i < 4; i++ {
		if bit.IsSet(uint8(4+i), nr51) {
			left += samples[i]
		}
		if bit.IsSet(uint8(i), nr51) {
			right += samples[i]
		}
	}
	left /= 4
	right /= 4

	leftVol := bit.Clamp(int(bit.ExtractBits(nr50, 4, 6)), 0, 7)
	rightVol := bit.Clamp(int(bit.ExtractBits(nr50, 0, 2)), 0, 7)
	left *= bit.LerpInverse(float64(leftVol)+1, 1, 8)
	right *= bit.LerpInverse(float64(rightVol)+1, 1, 8)

	left = a.filterL.process(left)
	right = a.filterR.process(right)

	a.pushSample(clampSample(left))
	a.pushSample(clampSample(right))
}

func clampSample(v float64) int16 {
	v = v * 32767
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func (a *APU) pushSample(v int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, v)
	if excess := len(a.queue) - maxQueuedSamples*2; excess > 0 {
		a.queue = a.queue[excess:]
	}
}

// GetSamples drains up to count interleaved stereo samples from the output
// queue. This is the emulator's one external concurrency boundary: callers
// typically run on an audio-device goroutine distinct from the tick loop.
func (a *APU) GetSamples(count int) []int16 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if count > len(a.queue) {
		count = len(a.queue)
	}
	out := make([]int16, count)
	copy(out, a.queue[:count])
	a.queue = a.queue[count:]
	return out
}

func (a *APU) ToggleChannel(ch int) {
	if ch < 0 || ch > 3 {
		return
	}
	a.muted[ch] = !a.muted[ch]
}

func (a *APU) SoloChannel(ch int) {
	if a.soloing == ch {
		a.soloing = -1
		return
	}
	a.soloing = ch
}

func (a *APU) ChannelEnabled(ch int) bool {
	switch ch {
	case 0:
		return a.ch1.enabled
	case 1:
		return a.ch2.enabled
	case 2:
		return a.ch3.enabled
	case 3:
		return a.ch4.enabled
	default:
		return false
	}
}
