// Package ui hosts the ebiten-based front end: a video blit of the
// Machine's framebuffer, a pulled-audio player, and keyboard-to-joypad
// mapping.
//
// Grounded on the teacher's internal/ui/ebitenapp.go for the App/Config
// shape, the ebiten.Game lifecycle, and the Z/X/Enter/Shift+arrow key
// bindings, but with the save-state slots, ROM picker, and settings menu
// dropped (save-states beyond battery RAM are a Non-goal) in favor of a
// single always-running game view.
package ui

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/dmgcore/gbemu/internal/emu"
)

// Config holds window presentation settings.
type Config struct {
	Title string
	Scale int
}

// App adapts a Machine to the ebiten.Game interface.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image

	audioCtx    *audio.Context
	audioPlayer *audio.Player
}

func NewApp(cfg Config, m *emu.Machine) *App {
	if cfg.Scale <= 0 {
		cfg.Scale = 3
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	a := &App{cfg: cfg, m: m}
	a.audioCtx = audio.NewContext(44100)
	if p, err := a.audioCtx.NewPlayer(&apuStream{m: m}); err == nil {
		a.audioPlayer = p
		a.audioPlayer.SetBufferSize(40 * time.Millisecond)
		a.audioPlayer.Play()
	}
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	a.m.SetButtons(emu.Buttons{
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		B:      ebiten.IsKeyPressed(ebiten.KeyZ),
		A:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	})
	a.m.StepFrame()
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }
