// Package cart ties header parsing to the tagged-variant MBC and exposes
// the Cartridge surface the Bus talks to.
package cart

import (
	"fmt"

	"github.com/dmgcore/gbemu/internal/mbc"
)

// Cartridge wraps a parsed header and its banking controller.
type Cartridge struct {
	Header  *Header
	mbc     *mbc.MBC
	battery bool
}

// Load parses the header and constructs the matching MBC, returning a
// configuration error (spec §7) for an unsupported cartridge type.
func Load(rom []byte) (*Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	kind, ok := mbc.KindFromCartType(h.CartType)
	if !ok {
		return nil, fmt.Errorf("unsupported cartridge type 0x%02X", h.CartType)
	}
	c := &Cartridge{
		Header:  h,
		mbc:     mbc.New(kind, rom, h.RAMSizeBytes),
		battery: HasBattery(h.CartType),
	}
	return c, nil
}

func (c *Cartridge) Read(addr uint16) byte      { return c.mbc.Read(addr) }
func (c *Cartridge) Write(addr uint16, v byte)   { c.mbc.Write(addr, v) }
func (c *Cartridge) HasBattery() bool            { return c.battery }
func (c *Cartridge) Dirty() bool                 { return c.battery && c.mbc.Dirty() }
func (c *Cartridge) MarkClean()                  { c.mbc.Clean() }
func (c *Cartridge) SaveRAM() []byte             { return c.mbc.SaveRAM() }
func (c *Cartridge) LoadRAM(data []byte)         { c.mbc.LoadRAM(data) }
func (c *Cartridge) SetFlushCallback(f func())   { c.mbc.SetFlushCallback(f) }
