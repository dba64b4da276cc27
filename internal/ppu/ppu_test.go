package ppu

import (
	"testing"

	"github.com/dmgcore/gbemu/internal/interrupt"
)

func tickN(p *PPU, n int) {
	for i := 0; i < n; i++ {
		p.Tick()
	}
}

func statMode(p *PPU) byte { return p.CPURead(0xFF41, false) & 0x03 }

func TestModeSequenceOneLine(t *testing.T) {
	irq := interrupt.New()
	p := New(irq)
	p.CPUWrite(0xFF40, 0x80, false) // LCD on
	if m := statMode(p); m != byte(ModeOAM) {
		t.Fatalf("mode after LCD on = %d, want OAM(2)", m)
	}
	tickN(p, 80)
	if m := statMode(p); m != byte(ModeDraw) {
		t.Fatalf("mode at dot 80 = %d, want Draw(3)", m)
	}
	// Draw mode lasts at least 172 dots; push enough to guarantee HBlank.
	tickN(p, 200)
	if m := statMode(p); m != byte(ModeHBlank) {
		t.Fatalf("mode after draw = %d, want HBlank(0)", m)
	}
}

func TestVBlankEntryAtLine144RaisesInterruptAndCountsFrame(t *testing.T) {
	irq := interrupt.New()
	p := New(irq)
	p.CPUWrite(0xFF40, 0x80, false)
	tickN(p, 144*456)
	if p.CPURead(0xFF44, false) != 144 {
		t.Fatalf("LY = %d, want 144", p.CPURead(0xFF44, false))
	}
	irq.WriteIE(1 << interrupt.VBlank)
	if !irq.Pending() {
		t.Fatalf("expected VBlank interrupt pending at LY=144")
	}
	if p.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", p.Frames())
	}
}

func TestLYCCoincidenceSetsSTATBit(t *testing.T) {
	irq := interrupt.New()
	p := New(irq)
	p.CPUWrite(0xFF45, 5, false) // LYC=5
	p.CPUWrite(0xFF40, 0x80, false)
	tickN(p, 5*456)
	if p.CPURead(0xFF41, false)&(1<<2) == 0 {
		t.Fatalf("STAT coincidence bit not set at LY==LYC")
	}
}

func TestSTATInterruptFiresOnRisingEdgeOnly(t *testing.T) {
	irq := interrupt.New()
	p := New(irq)
	p.CPUWrite(0xFF41, 1<<3, false) // enable HBlank STAT source
	p.CPUWrite(0xFF40, 0x80, false)
	irq.WriteIE(1 << interrupt.LCDStat)

	tickN(p, 80+200) // enter HBlank once
	if !irq.Pending() {
		t.Fatalf("expected STAT interrupt on entering HBlank")
	}
	irq.Acknowledge(interrupt.LCDStat)
	tickN(p, 10) // still in HBlank; line shouldn't re-fire
	if irq.Pending() {
		t.Fatalf("STAT interrupt re-fired without a falling+rising edge")
	}
}

func TestLCDPowerOffResetsLYAndMode(t *testing.T) {
	p := New(interrupt.New())
	p.CPUWrite(0xFF40, 0x80, false)
	tickN(p, 300)
	p.CPUWrite(0xFF40, 0x00, false) // power off
	if p.CPURead(0xFF44, false) != 0 {
		t.Fatalf("LY after power-off = %d, want 0", p.CPURead(0xFF44, false))
	}
	if statMode(p) != 0 {
		t.Fatalf("mode after power-off = %d, want 0", statMode(p))
	}
}

func TestVRAMBlockedDuringDrawMode(t *testing.T) {
	p := New(interrupt.New())
	p.CPUWrite(0xFF40, 0x80, false)
	tickN(p, 80) // now in Draw mode
	p.CPUWrite(0x8000, 0x42, false)
	if got := p.CPURead(0x8000, false); got != 0xFF {
		t.Fatalf("VRAM read during Draw = %#02x, want 0xFF (blocked)", got)
	}
}
