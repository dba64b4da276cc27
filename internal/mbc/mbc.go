// Package mbc implements the cartridge memory bank controllers as a single
// tagged variant (sum type) rather than the polymorphic class hierarchy the
// original C++ source uses — per spec §9's REDESIGN FLAG, the behavior set
// is small and closed, so a Kind tag with read/write dispatch is simpler
// than per-variant types and back-pointers.
package mbc

// Kind identifies which banking scheme a cartridge uses.
type Kind int

const (
	None Kind = iota
	MBC1
	MBC2
	MBC3
	MBC5
)

// KindFromCartType maps the header's cartridge-type byte to a Kind, or
// reports ok=false for an unsupported type (spec §7 configuration error).
func KindFromCartType(cartType byte) (Kind, bool) {
	switch cartType {
	case 0x00:
		return None, true
	case 0x01, 0x02, 0x03:
		return MBC1, true
	case 0x05, 0x06:
		return MBC2, true
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return MBC3, true
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return MBC5, true
	default:
		return None, false
	}
}

// MBC holds ROM, RAM banks, and the banking registers for every supported
// variant. Only the fields relevant to Kind are meaningful at any time.
type MBC struct {
	kind Kind
	rom  []byte

	// General RAM banking (MBC1/3/5): up to 16 banks of 8 KiB.
	ram        []byte
	ramBanks   int
	ramEnabled bool

	// MBC2's internal RAM is 512 4-bit nibbles, stored one per byte,
	// readable as value|0xF0.
	mbc2RAM [512]byte

	romBankLow5   byte // MBC1: 5-bit low ROM bank (0 promoted to 1)
	bankHigh2     byte // MBC1: ROM bank bits 5-6; in mode 1 also the RAM bank and the 0x0000-0x3FFF bank
	mode1         byte // MBC1: 0 = ROM banking mode, 1 = RAM banking mode
	romBank7      byte // MBC3: 7-bit ROM bank (0 promoted to 1)
	ramBank       byte // MBC3: 0..3 RAM bank (RTC select 0x08-0x0C acknowledged, not modeled)
	romBank9      uint16
	mbc5RAMBank   byte
	mbc2ROMBank4  byte
	dirty         bool
	flushCallback func()
}

// New constructs an MBC for the given kind, ROM image, and external RAM
// size in bytes (0 for none; MBC2's internal RAM is implicit and ignores
// ramSizeBytes).
func New(kind Kind, rom []byte, ramSizeBytes int) *MBC {
	m := &MBC{kind: kind, rom: rom}
	switch kind {
	case MBC1:
		m.romBankLow5 = 1
	case MBC3:
		m.romBank7 = 1
	case MBC5:
		m.romBank9 = 1
	}
	if ramSizeBytes > 0 && kind != MBC2 {
		m.ram = make([]byte, ramSizeBytes)
		m.ramBanks = ramSizeBytes / 0x2000
		if m.ramBanks == 0 {
			m.ramBanks = 1
		}
	}
	return m
}

// SetFlushCallback installs a hook called immediately before a RAM-bank
// switch that would change which bank is mapped, when the currently
// mapped bank is dirty — grounded on original_source/src/Battery.cpp's
// flush-before-switch behavior (spec §12).
func (m *MBC) SetFlushCallback(f func()) { m.flushCallback = f }

// Dirty reports whether RAM has been written since the last Clean call.
func (m *MBC) Dirty() bool { return m.dirty }
func (m *MBC) Clean()      { m.dirty = false }

func (m *MBC) romBankCount() int {
	if len(m.rom) == 0 {
		return 1
	}
	return len(m.rom) / 0x4000
}

func romOffset(bank, addr int, romLen int) (int, bool) {
	off := bank*0x4000 + addr
	if off < 0 || off >= romLen {
		return 0, false
	}
	return off, true
}

// Read implements the Cartridge ROM/external-RAM read path (0x0000–0x7FFF,
// 0xA000–0xBFFF).
func (m *MBC) Read(addr uint16) byte {
	switch m.kind {
	case None:
		switch {
		case addr < 0x8000:
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
		}
		return 0xFF

	case MBC1:
		switch {
		case addr < 0x4000:
			bank := 0
			if m.mode1 == 1 {
				bank = int(m.bankHigh2&0x03) << 5
			}
			if off, ok := romOffset(bank, int(addr), len(m.rom)); ok {
				return m.rom[off]
			}
			return 0xFF
		case addr < 0x8000:
			bank := int(m.romBankLow5) | int(m.bankHigh2&0x03)<<5
			if off, ok := romOffset(bank, int(addr-0x4000), len(m.rom)); ok {
				return m.rom[off]
			}
			return 0xFF
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 {
				return 0xFF
			}
			bank := 0
			if m.mode1 == 1 {
				bank = int(m.bankHigh2 & 0x03)
			}
			off := bank*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				return m.ram[off]
			}
			return 0xFF
		}
		return 0xFF

	case MBC2:
		switch {
		case addr < 0x4000:
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		case addr < 0x8000:
			bank := int(m.mbc2ROMBank4 & 0x0F)
			if bank == 0 {
				bank = 1
			}
			if off, ok := romOffset(bank, int(addr-0x4000), len(m.rom)); ok {
				return m.rom[off]
			}
			return 0xFF
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled {
				return 0xFF
			}
			return m.mbc2RAM[addr&0x1FF] | 0xF0
		}
		return 0xFF

	case MBC3:
		switch {
		case addr < 0x4000:
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		case addr < 0x8000:
			bank := int(m.romBank7)
			if off, ok := romOffset(bank, int(addr-0x4000), len(m.rom)); ok {
				return m.rom[off]
			}
			return 0xFF
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 || m.ramBank > 0x03 {
				return 0xFF // RTC register select (0x08-0x0C) acknowledged but not modeled
			}
			off := int(m.ramBank)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				return m.ram[off]
			}
			return 0xFF
		}
		return 0xFF

	case MBC5:
		switch {
		case addr < 0x4000:
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		case addr < 0x8000:
			bank := int(m.romBank9)
			if off, ok := romOffset(bank, int(addr-0x4000), len(m.rom)); ok {
				return m.rom[off]
			}
			return 0xFF
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 {
				return 0xFF
			}
			off := int(m.mbc5RAMBank&0x0F)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				return m.ram[off]
			}
			return 0xFF
		}
		return 0xFF
	}
	return 0xFF
}

// Write implements the Cartridge MBC-register/external-RAM write path.
func (m *MBC) Write(addr uint16, v byte) {
	switch m.kind {
	case None:
		// ROM-only: writes to ROM and (RAM-less) external RAM are dropped.

	case MBC1:
		switch {
		case addr < 0x2000:
			m.ramEnabled = v&0x0F == 0x0A
		case addr < 0x4000:
			v &= 0x1F
			if v == 0 {
				v = 1
			}
			m.romBankLow5 = v
		case addr < 0x6000:
			m.maybeFlushRAMBankChange(v & 0x03)
			m.bankHigh2 = v & 0x03
		case addr < 0x8000:
			m.mode1 = v & 0x01
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 {
				return
			}
			bank := 0
			if m.mode1 == 1 {
				bank = int(m.bankHigh2 & 0x03)
			}
			off := bank*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				m.ram[off] = v
				m.dirty = true
			}
		}

	case MBC2:
		switch {
		case addr < 0x4000:
			if addr&0x0100 == 0 {
				m.ramEnabled = v&0x0F == 0x0A
			} else {
				v &= 0x0F
				if v == 0 {
					v = 1
				}
				m.mbc2ROMBank4 = v
			}
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled {
				return
			}
			m.mbc2RAM[addr&0x1FF] = v & 0x0F
			m.dirty = true
		}

	case MBC3:
		switch {
		case addr < 0x2000:
			m.ramEnabled = v&0x0F == 0x0A
		case addr < 0x4000:
			v &= 0x7F
			if v == 0 {
				v = 1
			}
			m.romBank7 = v
		case addr < 0x6000:
			m.maybeFlushRAMBankChange(v)
			m.ramBank = v
		case addr < 0x8000:
			// RTC latch: acknowledged, not modeled (Non-goal).
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 || m.ramBank > 0x03 {
				return
			}
			off := int(m.ramBank)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				m.ram[off] = v
				m.dirty = true
			}
		}

	case MBC5:
		switch {
		case addr < 0x2000:
			m.ramEnabled = v&0x0F == 0x0A
		case addr < 0x3000:
			m.romBank9 = (m.romBank9 & 0x100) | uint16(v)
		case addr < 0x4000:
			if v&0x01 != 0 {
				m.romBank9 |= 0x100
			} else {
				m.romBank9 &^= 0x100
			}
		case addr < 0x6000:
			m.maybeFlushRAMBankChange(v & 0x0F)
			m.mbc5RAMBank = v & 0x0F
		case addr >= 0xA000 && addr <= 0xBFFF:
			if !m.ramEnabled || len(m.ram) == 0 {
				return
			}
			off := int(m.mbc5RAMBank&0x0F)*0x2000 + int(addr-0xA000)
			if off >= 0 && off < len(m.ram) {
				m.ram[off] = v
				m.dirty = true
			}
		}
	}
}

func (m *MBC) currentRAMBank() byte {
	switch m.kind {
	case MBC1:
		if m.mode1 == 1 {
			return m.bankHigh2 & 0x03
		}
		return 0
	case MBC3:
		return m.ramBank
	case MBC5:
		return m.mbc5RAMBank
	}
	return 0
}

func (m *MBC) maybeFlushRAMBankChange(newBank byte) {
	if m.dirty && m.flushCallback != nil && newBank != m.currentRAMBank() {
		m.flushCallback()
	}
}

// SaveRAM returns a snapshot of persistable RAM for the save file: MBC2's
// 512-nibble internal RAM as a raw dump, or the concatenation of all
// external RAM banks for everyone else.
func (m *MBC) SaveRAM() []byte {
	if m.kind == MBC2 {
		out := make([]byte, 512)
		copy(out, m.mbc2RAM[:])
		return out
	}
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC) LoadRAM(data []byte) {
	if m.kind == MBC2 {
		n := copy(m.mbc2RAM[:], data)
		_ = n
		return
	}
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}
