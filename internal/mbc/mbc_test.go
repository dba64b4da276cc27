package mbc

import "testing"

func makeROM(banks int, fill func(bank int, off int) byte) []byte {
	rom := make([]byte, banks*0x4000)
	for b := 0; b < banks; b++ {
		for off := 0; off < 0x4000; off++ {
			rom[b*0x4000+off] = fill(b, off)
		}
	}
	return rom
}

func tagByte(bank, off int) byte { return byte(bank) }

func TestNoneBankIsFixed(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(None, rom, 0)
	if m.Read(0x0000) != 0 {
		t.Fatalf("bank 0 byte = %d, want 0", m.Read(0x0000))
	}
}

func TestMBC1BankZeroPromotedToOne(t *testing.T) {
	rom := makeROM(4, tagByte)
	m := New(MBC1, rom, 0)
	m.Write(0x2000, 0x00) // select bank 0 -> hardware promotes to 1
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("switchable-bank byte = %d, want 1 (bank 0 promoted)", got)
	}
}

func TestMBC1SwitchesROMBank(t *testing.T) {
	rom := makeROM(4, tagByte)
	m := New(MBC1, rom, 0)
	m.Write(0x2000, 0x03)
	if got := m.Read(0x4000); got != 3 {
		t.Fatalf("switchable-bank byte = %d, want 3", got)
	}
}

func TestMBC1RAMDisabledByDefault(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC1, rom, 0x2000)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM read with RAM disabled = %#02x, want 0xFF", got)
	}
}

func TestMBC1RAMReadWriteAfterEnable(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC1, rom, 0x2000)
	m.Write(0x0000, 0x0A) // enable RAM
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("RAM read = %#02x, want 0x42", got)
	}
	if !m.Dirty() {
		t.Fatalf("Dirty() = false after a RAM write")
	}
}

func TestMBC2InternalRAMMasksUpperNibble(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC2, rom, 0)
	m.Write(0x0000, 0x0A) // enable RAM (addr bit 8 clear)
	m.Write(0xA000, 0xF7)
	if got := m.Read(0xA000); got != 0xF7 {
		t.Fatalf("MBC2 RAM readback = %#02x, want 0xF7 (low nibble 0x7 | 0xF0)", got)
	}
}

func TestMBC2ROMBankSelectWithAddrBit8Set(t *testing.T) {
	rom := makeROM(4, tagByte)
	m := New(MBC2, rom, 0)
	m.Write(0x2100, 0x02) // bit 8 set selects ROM bank register
	if got := m.Read(0x4000); got != 2 {
		t.Fatalf("switchable-bank byte = %d, want 2", got)
	}
}

func TestMBC3BankZeroPromotedToOne(t *testing.T) {
	rom := makeROM(4, tagByte)
	m := New(MBC3, rom, 0)
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 1 {
		t.Fatalf("switchable-bank byte = %d, want 1", got)
	}
}

func TestMBC3RTCLatchWriteIsAcknowledgedNotApplied(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC3, rom, 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x11)
	m.Write(0x6000, 0x01) // latch clock data - should not disturb RAM
	if got := m.Read(0xA000); got != 0x11 {
		t.Fatalf("RAM corrupted by RTC latch write: got %#02x", got)
	}
}

func TestMBC5BankZeroIsNotPromoted(t *testing.T) {
	// MBC5, unlike MBC1/2/3, allows bank 0 to be selected in the switchable
	// window without promotion to bank 1.
	rom := makeROM(4, tagByte)
	m := New(MBC5, rom, 0)
	m.Write(0x2000, 0x02)
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("switchable-bank byte = %d, want 0 (MBC5 must not promote bank 0)", got)
	}
}

func TestMBC5NineBitBankSelect(t *testing.T) {
	rom := makeROM(300, tagByte) // needs bit 8 to reach bank 256+
	m := New(MBC5, rom, 0)
	m.Write(0x2000, 0x00) // low 8 bits
	m.Write(0x3000, 0x01) // bit 8
	if got := m.Read(0x4000); got != 0 {
		t.Fatalf("switchable-bank byte = %d, want bank 256's tag byte (0, since tagByte mods 256)", got)
	}
	// Bank 256's tag, via tagByte, truncates to byte(256) == 0; use a distinct
	// bank to confirm the high bit actually took effect.
	m2 := New(MBC5, rom, 0)
	m2.Write(0x2000, 0x05)
	m2.Write(0x3000, 0x01)
	want := makeROM(300, tagByte)[261*0x4000]
	if got := m2.Read(0x4000); got != want {
		t.Fatalf("bank 261 byte = %d, want %d", got, want)
	}
}

func TestSaveRAMRoundTrip(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC1, rom, 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x99)
	saved := m.SaveRAM()

	m2 := New(MBC1, rom, 0x2000)
	m2.LoadRAM(saved)
	m2.Write(0x0000, 0x0A)
	if got := m2.Read(0xA000); got != 0x99 {
		t.Fatalf("restored RAM byte = %#02x, want 0x99", got)
	}
}

func TestFlushCallbackFiresOnDirtyBankSwitch(t *testing.T) {
	rom := makeROM(2, tagByte)
	m := New(MBC3, rom, 0x8000)
	calls := 0
	m.SetFlushCallback(func() { calls++ })
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x01) // dirties bank 0
	m.Write(0x4000, 0x01) // switch RAM bank while dirty
	if calls != 1 {
		t.Fatalf("flush callback fired %d times, want 1", calls)
	}
}
