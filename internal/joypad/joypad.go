// Package joypad models the JOYP register (0xFF00) and the host button
// latch it reads from. The host input thread writes Buttons; the emulation
// thread reads it — individual bool writes are atomic and the emulated
// program tolerates single-cycle transient states (spec §5).
package joypad

import "github.com/dmgcore/gbemu/internal/interrupt"

// Buttons holds the eight host-reported button states.
type Buttons struct {
	A, B, Select, Start   bool
	Up, Down, Left, Right bool
}

type Joypad struct {
	selectBits byte // bits 5..4 as last written (0 = group selected)
	buttons    Buttons
	prevLower4 byte // previous active-low lower nibble, for edge detection

	irq *interrupt.Controller
}

func New(irq *interrupt.Controller) *Joypad {
	return &Joypad{selectBits: 0x30, prevLower4: 0x0F, irq: irq}
}

// SetButtons replaces the host button latch and re-evaluates the joypad
// interrupt edge.
func (j *Joypad) SetButtons(b Buttons) {
	j.buttons = b
	j.refreshEdge()
}

func (j *Joypad) lowerNibble() byte {
	lower := byte(0x0F)
	if j.selectBits&0x10 == 0 { // P14 low selects D-pad
		if j.buttons.Right {
			lower &^= 0x01
		}
		if j.buttons.Left {
			lower &^= 0x02
		}
		if j.buttons.Up {
			lower &^= 0x04
		}
		if j.buttons.Down {
			lower &^= 0x08
		}
	}
	if j.selectBits&0x20 == 0 { // P15 low selects buttons
		if j.buttons.A {
			lower &^= 0x01
		}
		if j.buttons.B {
			lower &^= 0x02
		}
		if j.buttons.Select {
			lower &^= 0x04
		}
		if j.buttons.Start {
			lower &^= 0x08
		}
	}
	return lower
}

func (j *Joypad) refreshEdge() {
	lower := j.lowerNibble()
	falling := j.prevLower4 &^ lower // bits that were 1 and are now 0
	if falling != 0 {
		j.irq.Request(interrupt.Joypad)
	}
	j.prevLower4 = lower
}

// Read returns the JOYP byte: bits 7..6 read as 1, 5..4 reflect selection.
func (j *Joypad) Read() byte {
	return 0xC0 | j.selectBits | j.lowerNibble()
}

// Write stores the selection bits and re-checks for a selection-change edge.
func (j *Joypad) Write(v byte) {
	j.selectBits = v & 0x30
	j.refreshEdge()
}
