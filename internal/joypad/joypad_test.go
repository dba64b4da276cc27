package joypad

import (
	"testing"

	"github.com/dmgcore/gbemu/internal/interrupt"
)

func TestReadDefaultsToAllReleased(t *testing.T) {
	j := New(interrupt.New())
	if got := j.Read(); got != 0xFF {
		t.Fatalf("Read() = %#02x, want 0xFF with nothing selected", got)
	}
}

func TestReadReflectsDPadWhenSelected(t *testing.T) {
	j := New(interrupt.New())
	j.SetButtons(Buttons{Right: true, Up: true})
	j.Write(0x20) // select D-pad (P14 low)
	got := j.Read()
	if got&0x01 != 0 {
		t.Fatalf("Right bit not clear: %#02x", got)
	}
	if got&0x04 != 0 {
		t.Fatalf("Up bit not clear: %#02x", got)
	}
	if got&0x02 == 0 || got&0x08 == 0 {
		t.Fatalf("Left/Down should read released: %#02x", got)
	}
}

func TestButtonPressRequestsJoypadInterrupt(t *testing.T) {
	irq := interrupt.New()
	j := New(irq)
	j.Write(0x20) // select D-pad
	j.SetButtons(Buttons{Down: true})
	irq.WriteIE(1 << interrupt.Joypad)
	if !irq.Pending() {
		t.Fatalf("expected joypad interrupt pending after a button transitions pressed")
	}
}

func TestUnselectedGroupReadsReleased(t *testing.T) {
	j := New(interrupt.New())
	j.SetButtons(Buttons{A: true})
	j.Write(0x20) // select D-pad only (P14 low); buttons group not selected
	if got := j.Read(); got&0x0F != 0x0F {
		t.Fatalf("Read() = %#02x, want lower nibble all released since buttons unselected", got)
	}
}
