//go:build !headless

package main

import "testing"

func TestEbitenOutput_UpdateFrameExpandsShades(t *testing.T) {
	eo, err := NewEbitenOutput()
	if err != nil {
		t.Fatalf("NewEbitenOutput: %v", err)
	}
	out := eo.(*EbitenOutput)

	shades := make([]byte, dmgWidth*dmgHeight)
	shades[0] = 3
	shades[1] = 0

	if err := out.UpdateFrame(shades); err != nil {
		t.Fatalf("UpdateFrame: %v", err)
	}

	want0 := dmgShadeRGBA[3]
	if out.frameBuffer[0] != want0.R || out.frameBuffer[1] != want0.G || out.frameBuffer[2] != want0.B {
		t.Fatalf("pixel 0 = %v, want shade 3 RGB (%d,%d,%d)", out.frameBuffer[0:3], want0.R, want0.G, want0.B)
	}
	want1 := dmgShadeRGBA[0]
	if out.frameBuffer[4] != want1.R || out.frameBuffer[5] != want1.G || out.frameBuffer[6] != want1.B {
		t.Fatalf("pixel 1 = %v, want shade 0 RGB (%d,%d,%d)", out.frameBuffer[4:7], want1.R, want1.G, want1.B)
	}
}

func TestEbitenOutput_JoypadHandler(t *testing.T) {
	eo, _ := NewEbitenOutput()
	out := eo.(*EbitenOutput)

	var gotField, gotButton int
	var gotPressed bool
	out.SetJoypadHandler(func(field, button int, pressed bool) {
		gotField, gotButton, gotPressed = field, button, pressed
	})
	out.joypadHandler(fieldAction, buttonA, true)

	if gotField != fieldAction || gotButton != buttonA || !gotPressed {
		t.Fatalf("handler got (%d, %d, %v), want (%d, %d, true)", gotField, gotButton, gotPressed, fieldAction, buttonA)
	}
}

func TestEbitenOutput_DisplayConfigScale(t *testing.T) {
	eo, _ := NewEbitenOutput()
	out := eo.(*EbitenOutput)

	if err := out.SetDisplayConfig(DisplayConfig{Width: dmgWidth, Height: dmgHeight, Scale: 3}); err != nil {
		t.Fatalf("SetDisplayConfig: %v", err)
	}
	if out.windowedW != dmgWidth*3 || out.windowedH != dmgHeight*3 {
		t.Fatalf("windowed size = %dx%d, want %dx%d", out.windowedW, out.windowedH, dmgWidth*3, dmgHeight*3)
	}
}
