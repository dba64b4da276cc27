package bus

import (
	"encoding/binary"
	"testing"

	"github.com/dmgcore/gbemu/internal/cart"
)

func romOnlyROM(size int) []byte {
	rom := make([]byte, size)
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x00 // 32 KiB
	rom[0x0149] = 0x00 // no RAM
	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - rom[addr] - 1
	}
	rom[0x014D] = hsum
	var gsum uint16
	for i := range rom {
		if i == 0x014E || i == 0x014F {
			continue
		}
		gsum += uint16(rom[i])
	}
	binary.BigEndian.PutUint16(rom[0x014E:0x0150], gsum)
	return rom
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	c, err := cart.Load(romOnlyROM(32 * 1024))
	if err != nil {
		t.Fatalf("cart.Load: %v", err)
	}
	return New(c, 44100)
}

func TestWRAMReadWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC012, 0x34)
	if got := b.Read(0xC012); got != 0x34 {
		t.Fatalf("WRAM readback = %#02x, want 0x34", got)
	}
}

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC010, 0x77)
	if got := b.Read(0xE010); got != 0x77 {
		t.Fatalf("echo RAM read = %#02x, want 0x77 (mirrors WRAM)", got)
	}
	b.Write(0xE020, 0x55)
	if got := b.Read(0xC020); got != 0x55 {
		t.Fatalf("WRAM read after echo write = %#02x, want 0x55", got)
	}
}

func TestUnusableRegionReadsFF(t *testing.T) {
	b := newTestBus(t)
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("unusable region read = %#02x, want 0xFF", got)
	}
}

func TestHRAMReadWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFF90, 0x99)
	if got := b.Read(0xFF90); got != 0x99 {
		t.Fatalf("HRAM readback = %#02x, want 0x99", got)
	}
}

func TestDIVWriteResetsCounter(t *testing.T) {
	b := newTestBus(t)
	for i := 0; i < 10; i++ {
		b.TickMachineCycle()
	}
	b.Write(0xFF04, 0x00) // any value resets DIV
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV after write = %#02x, want 0x00", got)
	}
}

func TestOAMDMACopiesFromSourcePage(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xC000, 0x11)
	b.Write(0xC001, 0x22)
	b.Write(0xFF46, 0xC0) // start DMA from 0xC000
	for i := 0; i < 160; i++ {
		b.TickMachineCycle()
	}
	if got := b.ppu.CPURead(0xFE00, false); got != 0x11 {
		t.Fatalf("OAM[0] after DMA = %#02x, want 0x11", got)
	}
	if got := b.ppu.CPURead(0xFE01, false); got != 0x22 {
		t.Fatalf("OAM[1] after DMA = %#02x, want 0x22", got)
	}
}

func TestIEReadWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write(0xFFFF, 0x1F)
	if got := b.Read(0xFFFF); got != 0x1F {
		t.Fatalf("IE readback = %#02x, want 0x1F", got)
	}
}
