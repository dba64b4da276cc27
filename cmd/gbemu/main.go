// Command gbemu runs a DMG ROM in a window, or headless for automated
// framebuffer/CRC checks. Grounded on the teacher's cmd/gbemu/main.go flag
// set and headless PNG/CRC harness.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dmgcore/gbemu/internal/cart"
	"github.com/dmgcore/gbemu/internal/emu"
	"github.com/dmgcore/gbemu/internal/ui"
)

type cliFlags struct {
	romPath string
	bootROM string
	scale   int
	title   string
	saveRAM bool

	headless bool
	frames   int
	pngOut   string
	expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.romPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.bootROM, "bootrom", "", "optional DMG boot ROM")
	flag.IntVar(&f.scale, "scale", 3, "window scale")
	flag.StringVar(&f.title, "title", "gbemu", "window title")
	flag.BoolVar(&f.saveRAM, "save", true, "persist battery RAM to ROM.sav on exit and load on start")

	flag.BoolVar(&f.headless, "headless", false, "run without a window")
	flag.IntVar(&f.frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.pngOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func runHeadless(m *emu.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		m.StepFrame()
	}
	dur := time.Since(start)

	fb := m.Framebuffer()
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, 160, 144, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}
	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{
		Pix:    append([]byte(nil), pix...),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	rom := mustRead(f.romPath)
	boot := mustRead(f.bootROM)

	if len(rom) >= 0x150 {
		if h, err := cart.ParseHeader(rom); err == nil {
			log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
		}
	}

	m := emu.New(emu.Config{})
	if len(rom) == 0 {
		log.Fatal("no ROM specified (-rom)")
	}
	if err := m.LoadCartridge(rom, boot); err != nil {
		log.Fatalf("load cart: %v", err)
	}

	var savPath string
	if f.saveRAM && f.romPath != "" {
		savPath = strings.TrimSuffix(f.romPath, ".gb") + ".sav"
		if data, err := os.ReadFile(savPath); err == nil {
			if m.LoadBattery(data) {
				log.Printf("loaded save RAM: %s (%d bytes)", savPath, len(data))
			}
		}
	}

	writeBattery := func() {
		if !f.saveRAM || savPath == "" {
			return
		}
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(savPath, data, 0644); err == nil {
				log.Printf("wrote %s", savPath)
			}
		}
	}

	if f.saveRAM && savPath != "" {
		m.SetBatteryFlushHook(func(data []byte) {
			if err := os.WriteFile(savPath, data, 0644); err != nil {
				log.Printf("battery flush to %s failed: %v", savPath, err)
			}
		})
	}

	if f.headless {
		if err := runHeadless(m, f.frames, f.pngOut, f.expect); err != nil {
			log.Fatal(err)
		}
		writeBattery()
		return
	}

	app := ui.NewApp(ui.Config{Title: f.title, Scale: f.scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	writeBattery()
}
