//go:build !headless

// video_backend_ebiten.go - Ebiten video backend for Intuition Engine

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// dmgShadeRGBA is the classic four-shade DMG green palette, index 0 the
// lightest (off) shade through 3 the darkest.
var dmgShadeRGBA = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// joypadKey maps an ebiten key to the (field, button) pair hw_input.go
// expects, the same table shape video_backend_ebiten.go's prior terminal
// byte-emission table used, just redirected at the joypad instead of a
// serial stream.
type joypadKey struct {
	key    ebiten.Key
	field  int
	button int
}

var joypadKeys = [8]joypadKey{
	{ebiten.KeyArrowRight, fieldJoy, buttonRight},
	{ebiten.KeyArrowLeft, fieldJoy, buttonLeft},
	{ebiten.KeyArrowUp, fieldJoy, buttonUp},
	{ebiten.KeyArrowDown, fieldJoy, buttonDown},
	{ebiten.KeyZ, fieldAction, buttonA},
	{ebiten.KeyX, fieldAction, buttonB},
	{ebiten.KeyBackspace, fieldAction, buttonSelect},
	{ebiten.KeyEnter, fieldAction, buttonStart},
}

// EbitenOutput presents a DMG's 160x144 2-bit-shade framebuffer in a
// scaled window and polls the eight joypad keys each tick, carrying over
// the teacher's own Start/Draw/Layout wiring almost unchanged — only the
// pixel source and input sink are different.
type EbitenOutput struct {
	running     bool
	window      *ebiten.Image
	width       int
	height      int
	format      PixelFormat
	fullscreen  bool
	scale       int
	windowedW   int
	windowedH   int
	frameBuffer []byte // RGBA, converted from the DMG's shade indices each UpdateFrame
	bufferMutex sync.RWMutex
	frameCount  uint64
	refreshRate int
	vsyncChan   chan struct{}

	joypadHandler func(field, button int, pressed bool)

	overlay     string
	overlayFace font.Face
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		width:       dmgWidth,
		height:      dmgHeight,
		format:      PixelFormatRGBA,
		scale:       2,
		windowedW:   dmgWidth * 2,
		windowedH:   dmgHeight * 2,
		frameBuffer: make([]byte, dmgWidth*dmgHeight*4),
		refreshRate: 60,
		vsyncChan:   make(chan struct{}, 1),
		overlayFace: basicfont.Face7x13,
	}, nil
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.running = true
	ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	ebiten.SetWindowTitle("Intuition Engine (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

// UpdateFrame accepts a DMG's raw 160x144 2-bit shade buffer (one byte per
// pixel, values 0-3) and expands it to RGBA for the backing ebiten.Image.
// Any other length is treated as already-RGBA, so SetDisplayConfig-driven
// resizes that change the pixel format keep working.
func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	if len(data) == eo.width*eo.height {
		for i, shade := range data {
			c := dmgShadeRGBA[shade&3]
			o := i * 4
			eo.frameBuffer[o] = c.R
			eo.frameBuffer[o+1] = c.G
			eo.frameBuffer[o+2] = c.B
			eo.frameBuffer[o+3] = c.A
		}
		return nil
	}
	copy(eo.frameBuffer, data)
	return nil
}

// SetOverlayText sets the debug line drawn in the top-left corner each
// frame (PC/cycle/bank status), or clears it when text is empty.
func (eo *EbitenOutput) SetOverlayText(text string) {
	eo.bufferMutex.Lock()
	eo.overlay = text
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	width := config.Width
	height := config.Height
	if width <= 0 {
		width = dmgWidth
	}
	if height <= 0 {
		height = dmgHeight
	}
	eo.width = width
	eo.height = height
	eo.format = config.PixelFormat
	eo.scale = ClampScale(config.Scale)
	if eo.scale < 1 {
		eo.scale = 2
	}
	newSize := eo.width * eo.height * 4

	if len(eo.frameBuffer) != newSize {
		eo.frameBuffer = make([]byte, newSize)
	}

	eo.windowedW = eo.width * eo.scale
	eo.windowedH = eo.height * eo.scale
	eo.fullscreen = config.Fullscreen
	ebiten.SetFullscreen(eo.fullscreen)
	if !eo.fullscreen {
		ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	}
	if eo.window != nil {
		eo.window.Dispose()
		eo.window = nil
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		PixelFormat: eo.format,
		RefreshRate: eo.refreshRate,
		VSync:       true,
		Fullscreen:  eo.fullscreen,
	}
}

func (eo *EbitenOutput) WaitForVSync() error {
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frameCount
}

func (eo *EbitenOutput) GetRefreshRate() int {
	return eo.refreshRate
}

func (eo *EbitenOutput) GetSnapshot() (FrameSnapshot, error) {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()

	snapshot := FrameSnapshot{
		Buffer: make([]byte, len(eo.frameBuffer)),
		Width:  eo.width,
		Height: eo.height,
		Format: eo.format,
	}
	copy(snapshot.Buffer, eo.frameBuffer)
	return snapshot, nil
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	if !eo.running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
		}
		eo.bufferMutex.Unlock()
	}
	eo.pollJoypad()
	return nil
}

// SetJoypadHandler registers the callback driven each tick by pollJoypad,
// normally hw_dmg.go's SetButton bound through main.go.
func (eo *EbitenOutput) SetJoypadHandler(fn func(field, button int, pressed bool)) {
	eo.bufferMutex.Lock()
	eo.joypadHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) pollJoypad() {
	eo.bufferMutex.RLock()
	handler := eo.joypadHandler
	eo.bufferMutex.RUnlock()
	if handler == nil {
		return
	}
	for _, jk := range joypadKeys {
		if inpututil.IsKeyJustPressed(jk.key) {
			handler(jk.field, jk.button, true)
		}
		if inpututil.IsKeyJustReleased(jk.key) {
			handler(jk.field, jk.button, false)
		}
	}
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	overlay := eo.overlay
	eo.bufferMutex.RUnlock()

	op := &ebiten.DrawImageOptions{}
	sx := float64(screen.Bounds().Dx()) / float64(eo.width)
	sy := float64(screen.Bounds().Dy()) / float64(eo.height)
	op.GeoM.Scale(sx, sy)
	screen.DrawImage(eo.window, op)

	if overlay != "" {
		eo.drawOverlay(screen, overlay)
	}

	eo.frameCount++
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

// drawOverlay renders the PC/cycle/bank status line with basicfont — the
// teacher's go.mod carries golang.org/x/image but never imports it; this
// is its first real use.
func (eo *EbitenOutput) drawOverlay(screen *ebiten.Image, text string) {
	img := image.NewRGBA(image.Rect(0, 0, len(text)*7+8, 16))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0x00, 0xFF, 0x00, 0xFF}),
		Face: eo.overlayFace,
		Dot:  fixed.P(4, 12),
	}
	d.DrawString(text)
	overlayImg := ebiten.NewImageFromImage(img)
	op := &ebiten.DrawImageOptions{}
	screen.DrawImage(overlayImg, op)
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return eo.width, eo.height
}
