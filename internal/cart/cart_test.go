package cart

import "testing"

func TestLoadRejectsUnsupportedCartType(t *testing.T) {
	rom := buildROM("BAD", 0xFF, 0x00, 0x00, 32*1024)
	if _, err := Load(rom); err == nil {
		t.Fatalf("expected error for unsupported cart type 0xFF")
	}
}

func TestLoadBuildsMatchingMBCAndBatteryFlag(t *testing.T) {
	rom := buildROM("GAME", 0x03, 0x00, 0x02, 32*1024) // MBC1+RAM+BATTERY
	c, err := Load(rom)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !c.HasBattery() {
		t.Fatalf("HasBattery() = false, want true for cart type 0x03")
	}
	if c.Dirty() {
		t.Fatalf("Dirty() = true before any RAM write")
	}
}

func TestCartridgeRoutesReadsAndWritesToMBC(t *testing.T) {
	rom := buildROM("GAME", 0x03, 0x00, 0x02, 32*1024)
	c, _ := Load(rom)
	c.Write(0x0000, 0x0A) // enable RAM
	c.Write(0xA000, 0x55)
	if got := c.Read(0xA000); got != 0x55 {
		t.Fatalf("Read(0xA000) = %#02x, want 0x55", got)
	}
	if !c.Dirty() {
		t.Fatalf("Dirty() = false after a RAM write on a battery cart")
	}
	c.MarkClean()
	if c.Dirty() {
		t.Fatalf("Dirty() = true after MarkClean")
	}
}

func TestCartridgeWithoutBatteryNeverReportsDirty(t *testing.T) {
	rom := buildROM("GAME", 0x01, 0x00, 0x02, 32*1024) // MBC1, no battery
	c, _ := Load(rom)
	c.Write(0x0000, 0x0A)
	c.Write(0xA000, 0x01)
	if c.Dirty() {
		t.Fatalf("Dirty() = true for a non-battery cartridge")
	}
}
