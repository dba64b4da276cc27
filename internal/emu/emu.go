// Package emu wires the CPU and Bus into a runnable Machine: cartridge
// loading, the per-frame run loop, battery persistence, and the host-facing
// framebuffer/audio/input surface described in spec §5 and §6.
//
// Grounded on the teacher's internal/emu/emu.go (the Machine/Config/Buttons
// shape cmd/gbemu/main.go already expects) but built out from the
// "Milestone 0" test-pattern stub into an actual emulator driving cpu.CPU
// over bus.Bus one frame at a time.
package emu

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmgcore/gbemu/internal/bus"
	"github.com/dmgcore/gbemu/internal/cart"
	"github.com/dmgcore/gbemu/internal/cpu"
	"github.com/dmgcore/gbemu/internal/joypad"
)

// Buttons mirrors joypad.Buttons at the package boundary the UI talks to,
// matching the teacher's emu.Buttons shape.
type Buttons = joypad.Buttons

// Config holds settings that affect emulation behavior but not correctness.
type Config struct {
	Trace      bool // log CPU instructions (handled by an external trace writer, not built in)
	SampleRate int  // host audio sample rate the APU downsamples to; 0 defaults to 44100
}

// Machine owns one running Game Boy: its CPU, Bus, and the loaded
// cartridge. A Machine is driven by a single emulation goroutine; the host
// only reads Framebuffer/PullAudio and writes SetButtons concurrently (spec
// §5), so frameCount is the only field touched from both sides without a
// lock, via atomic.
type Machine struct {
	cfg     Config
	bus     *bus.Bus
	cpu     *cpu.CPU
	romPath string

	frameCount atomic.Uint64

	batteryFlush func([]byte)
}

// New constructs a Machine with no cartridge loaded; call LoadCartridge or
// LoadROMFromFile before StepFrame.
func New(cfg Config) *Machine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	return &Machine{cfg: cfg}
}

// LoadCartridge parses rom, constructs the matching MBC, and resets the CPU
// (and, without a boot ROM, sets LCDC to its post-boot value 0x91).
// An optional boot ROM overlays 0x0000-0x00FF until the game disables it.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	c, err := cart.Load(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	m.bus = bus.New(c, m.cfg.SampleRate)
	m.cpu = cpu.New(m.bus)
	if len(boot) >= 0x100 {
		m.bus.SetBootROM(boot)
		m.cpu.SetPC(0x0000)
	} else {
		m.cpu.ResetNoBoot()
		// Without a boot ROM, turn the LCD on with the LCDC value the boot
		// ROM leaves behind so the PPU runs and StepFrame completes frames.
		m.bus.Write(0xFF40, 0x91)
	}
	return nil
}

// LoadROMFromFile loads rom from disk and records the path for deriving a
// battery save file location.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data, nil); err != nil {
		return err
	}
	m.romPath = path
	return nil
}

func (m *Machine) ROMPath() string { return m.romPath }

func (m *Machine) SetBootROM(data []byte) {
	if m.bus != nil {
		m.bus.SetBootROM(data)
	}
}

// SetButtons replaces the host's button latch for the next joypad read.
func (m *Machine) SetButtons(b Buttons) {
	if m.bus != nil {
		m.bus.SetButtons(b)
	}
}

// SetBatteryFlushHook installs a callback StepFrame invokes with the
// cartridge's current battery RAM whenever a frame boundary finds it dirty,
// so a host can persist it without polling DirtyBattery itself. Passing nil
// disables the automatic flush.
func (m *Machine) SetBatteryFlushHook(flush func(data []byte)) {
	m.batteryFlush = flush
}

// StepFrame runs the CPU until the PPU has completed exactly one more
// frame (one VBlank entry), then returns; while the LCD is off it returns
// after 17556 M-cycles, one frame's worth, instead. Battery RAM marked dirty since the
// last frame is flushed through the installed flush hook at the frame
// boundary, so a crash or power loss between frames never loses more than
// one frame's worth of writes.
func (m *Machine) StepFrame() {
	if m.cpu == nil {
		return
	}
	target := m.bus.PPU().Frames() + 1
	start := m.bus.MCycles()
	for m.bus.PPU().Frames() < target {
		m.cpu.Step()
		// With the LCD off the PPU counts no frames; one frame's worth of
		// machine cycles (154 lines x 114) then ends the step instead.
		if m.bus.PPU().LCDC()&0x80 == 0 && m.bus.MCycles()-start >= 17556 {
			break
		}
	}
	m.frameCount.Add(1)

	if m.batteryFlush != nil && m.DirtyBattery() {
		if data, ok := m.SaveBattery(); ok {
			m.batteryFlush(data)
		}
	}
}

// FrameCount returns the number of frames rendered so far; safe to call
// from the host goroutine while StepFrame runs concurrently.
func (m *Machine) FrameCount() uint64 { return m.frameCount.Load() }

// Framebuffer returns the current 160x144 RGBA8888 pixel buffer. The host
// should treat it as read-only and copy it before the next StepFrame call.
func (m *Machine) Framebuffer() []byte {
	if m.bus == nil {
		return nil
	}
	return m.bus.PPU().Framebuffer()
}

// PullAudio drains up to max buffered stereo frames as interleaved int16
// samples [L0,R0,L1,R1,...].
func (m *Machine) PullAudio(max int) []int16 {
	if m.bus == nil {
		return nil
	}
	return m.bus.APU().PullStereo(max)
}

// AudioAvailable reports how many stereo frames are currently buffered.
func (m *Machine) AudioAvailable() int {
	if m.bus == nil {
		return 0
	}
	return m.bus.APU().StereoAvailable()
}

// SaveBattery returns the cartridge's persistable RAM, or ok=false if the
// cartridge has no battery.
func (m *Machine) SaveBattery() (data []byte, ok bool) {
	if m.bus == nil || !m.bus.Cart().HasBattery() {
		return nil, false
	}
	data = m.bus.Cart().SaveRAM()
	m.bus.Cart().MarkClean()
	return data, true
}

// LoadBattery restores previously saved RAM into the loaded cartridge,
// reporting ok=false if there is no battery-backed cartridge loaded.
func (m *Machine) LoadBattery(data []byte) bool {
	if m.bus == nil || !m.bus.Cart().HasBattery() {
		return false
	}
	m.bus.Cart().LoadRAM(data)
	return true
}

// DirtyBattery reports whether battery RAM has unsaved writes, for a
// frame-boundary flush policy (spec §12, grounded on
// original_source/src/Battery.cpp).
func (m *Machine) DirtyBattery() bool {
	return m.bus != nil && m.bus.Cart().Dirty()
}

// SetSerialSink installs a callback that receives every byte shifted out of
// the serial port, used by the headless runner to capture link-cable test
// output (e.g. blargg's test ROM harness).
func (m *Machine) SetSerialSink(sink func(byte)) {
	if m.bus != nil {
		m.bus.SetSerialSink(sink)
	}
}

// SetSerialWriter adapts an io.Writer to SetSerialSink, for capturing a test
// ROM's serial "Passed"/"Failed" output into a buffer.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// TileData returns the raw tile pattern table for a debug tile viewer, or
// nil if no cartridge is loaded.
func (m *Machine) TileData() []byte {
	if m.bus == nil {
		return nil
	}
	return m.bus.PPU().TileData()
}
