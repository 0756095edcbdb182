package main

// Input models the $FF00 joypad register, grounded on
// original_source/src/dmg.h's FIELD_JOY/FIELD_ACTION and BUTTON_* bit
// layout and system6/input.c's HandleKeyEvent → dmg_set_button flow. Real
// hardware multiplexes two 4-bit button groups (d-pad and face buttons)
// onto the same nibble, selected by which of bits 4/5 the game clears; both
// groups are kept as separate pressed-bit masks here and merged on Read
// exactly like dmg_set_button's two fields.
type Input struct {
	selectJoy    bool // bit 4 low: direction buttons selected
	selectAction bool // bit 5 low: face buttons selected

	joypad byte // direction buttons, 1=released (active low, as on hardware)
	action byte // face buttons, 1=released

	request func(bit uint8)
}

const (
	fieldJoy    = 1
	fieldAction = 2

	buttonRight  = 1 << 0
	buttonLeft   = 1 << 1
	buttonUp     = 1 << 2
	buttonDown   = 1 << 3
	buttonA      = 1 << 0
	buttonB      = 1 << 1
	buttonSelect = 1 << 2
	buttonStart  = 1 << 3
)

func newInput(request func(bit uint8)) *Input {
	return &Input{joypad: 0x0F, action: 0x0F, request: request}
}

// Select handles a write to $FF00: bits 4-5 choose which button group's
// state bits 0-3 will report on the next Read.
func (in *Input) Select(val byte) {
	in.selectJoy = val&0x10 == 0
	in.selectAction = val&0x20 == 0
}

func (in *Input) Read() byte {
	nibble := byte(0x0F)
	if in.selectJoy {
		nibble &= in.joypad
	}
	if in.selectAction {
		nibble &= in.action
	}
	top := byte(0xC0)
	if !in.selectJoy {
		top |= 0x10
	}
	if !in.selectAction {
		top |= 0x20
	}
	return top | nibble
}

// SetButton records a button edge from the host input backend
// (video_backend_ebiten.go's key polling). pressed clears the bit (active
// low); a press while that group is selected raises the joypad interrupt,
// matching real hardware's "any selected line going low" trigger.
func (in *Input) SetButton(field, button int, pressed bool) {
	var reg *byte
	var selected bool
	switch field {
	case fieldJoy:
		reg, selected = &in.joypad, in.selectJoy
	case fieldAction:
		reg, selected = &in.action, in.selectAction
	default:
		return
	}
	before := *reg
	if pressed {
		*reg &^= byte(button)
	} else {
		*reg |= byte(button)
	}
	if selected && pressed && before != *reg {
		in.request(intJoypad)
	}
}
