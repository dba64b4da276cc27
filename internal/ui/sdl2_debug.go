//go:build sdl2debug

// Package ui (this file) provides an alternate debug window built on SDL2
// instead of ebiten, for running alongside a headless session to eyeball a
// ROM without pulling in ebiten's own windowing. Grounded on
// valerio-go-jeebie's jeebie/backend/sdl2/sdl2.go texture-streaming
// approach: one streaming RGBA texture sized to the native framebuffer,
// scaled up by the renderer's destination rect rather than by touching
// pixels.
//
// Build with -tags sdl2debug; requires SDL2 development libraries. Not
// wired into cmd/gbemu by default, matching the teacher's own sdl2/stub.go
// split between a real backend and a no-op stand-in.
package ui

import (
	"fmt"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/dmgcore/gbemu/internal/emu"
)

const (
	debugFBWidth  = 160
	debugFBHeight = 144
)

// SDL2Debug is a minimal debug window that blits a Machine's framebuffer via
// an SDL2 streaming texture, scaled by the renderer to the window size.
type SDL2Debug struct {
	m *emu.Machine

	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	running bool
}

// NewSDL2Debug opens an SDL2 window titled title at the given integer scale
// and returns a debug window driving m.
func NewSDL2Debug(m *emu.Machine, title string, scale int) (*SDL2Debug, error) {
	if scale <= 0 {
		scale = 3
	}
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl2 debug: init: %w", err)
	}

	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(debugFBWidth*scale),
		int32(debugFBHeight*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2 debug: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2 debug: create renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(debugFBWidth),
		int32(debugFBHeight),
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2 debug: create texture: %w", err)
	}

	return &SDL2Debug{m: m, window: window, renderer: renderer, texture: texture, running: true}, nil
}

// Run drives the emulation and the SDL2 event/render loop until the window
// is closed or Escape is pressed.
func (d *SDL2Debug) Run() error {
	defer d.Cleanup()
	for d.running {
		for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
			switch ev := e.(type) {
			case *sdl.QuitEvent:
				d.running = false
			case *sdl.KeyboardEvent:
				if ev.Type == sdl.KEYDOWN && ev.Keysym.Sym == sdl.K_ESCAPE {
					d.running = false
				}
			}
		}
		if !d.running {
			break
		}
		d.m.StepFrame()
		if err := d.renderFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (d *SDL2Debug) renderFrame() error {
	fb := d.m.Framebuffer()
	if len(fb) != debugFBWidth*debugFBHeight*4 {
		return nil
	}
	if err := d.texture.Update(nil, unsafe.Pointer(&fb[0]), debugFBWidth*4); err != nil {
		return fmt.Errorf("sdl2 debug: update texture: %w", err)
	}
	d.renderer.Clear()
	d.renderer.Copy(d.texture, nil, nil)
	d.renderer.Present()
	return nil
}

// Cleanup releases SDL2 resources. Safe to call more than once.
func (d *SDL2Debug) Cleanup() {
	if d.texture != nil {
		d.texture.Destroy()
		d.texture = nil
	}
	if d.renderer != nil {
		d.renderer.Destroy()
		d.renderer = nil
	}
	if d.window != nil {
		d.window.Destroy()
		d.window = nil
	}
	sdl.Quit()
}
