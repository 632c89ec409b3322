package bus

import "github.com/oakfield-labs/gbcore/addr"

// Button enumerates the eight physical inputs, split by P1's two selectable
// nibbles (direction pad vs action buttons).
type Button int

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// Joypad tracks pressed-button state and renders it through the P1
// register's active-low, select-gated bit layout.
type Joypad struct {
	pressed      [8]bool
	selectDirs   bool
	selectAction bool
	irq          InterruptRequester
}

func newJoypad(irq InterruptRequester) *Joypad {
	return &Joypad{irq: irq}
}

// WriteP1 stores the select bits (bits 5,4) a game writes to choose which
// nibble of button state P1's low nibble reflects.
func (j *Joypad) WriteP1(v byte) {
	j.selectAction = v&0x20 == 0
	j.selectDirs = v&0x10 == 0
}

// ReadP1 renders the currently selected nibble, active-low (0 = pressed).
func (j *Joypad) ReadP1() byte {
	result := byte(0xC0) // bits 6-7 fixed high; the low nibble is filled in below
	if !j.selectAction {
		result |= 0x20
	}
	if !j.selectDirs {
		result |= 0x10
	}

	var nibble byte
	if j.selectDirs {
		nibble |= j.bit(ButtonRight, 0) | j.bit(ButtonLeft, 1) | j.bit(ButtonUp, 2) | j.bit(ButtonDown, 3)
	}
	if j.selectAction {
		nibble |= j.bit(ButtonA, 0) | j.bit(ButtonB, 1) | j.bit(ButtonSelect, 2) | j.bit(ButtonStart, 3)
	}
	return result | (^nibble & 0x0F)
}

func (j *Joypad) bit(b Button, pos uint) byte {
	if j.pressed[b] {
		return 1 << pos
	}
	return 0
}

// Press marks a button down and requests the Joypad interrupt, matching the
// hardware's edge-triggered behaviour on a high-to-low P1 transition.
func (j *Joypad) Press(b Button) {
	if !j.pressed[b] {
		j.pressed[b] = true
		if j.irq != nil {
			j.irq.RequestInterrupt(addr.Joypad)
		}
	}
}

func (j *Joypad) Release(b Button) {
	j.pressed[b] = false
}
