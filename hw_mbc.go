package main

// MBC abstracts cartridge bank switching (C7, grounded on
// original_source/src/mbc.c/mbc.h). Real hardware wires the ROM's upper
// 16KB window and the external RAM window through whatever mapper chip is
// glued into that specific cartridge; this port models the two mappers
// original_source actually implements (MBC1, MBC3) plus a fixed no-mapper
// case, selected once at load time by newMBC and never again.
type MBC interface {
	// ROMBank returns the bank currently mapped at $4000-$7FFF.
	ROMBank() uint8
	// Write handles a CPU write anywhere in $0000-$7FFF (ROM region): every
	// mapper uses this address range purely for bank-select/RAM-enable
	// writes, never as genuine ROM storage.
	Write(addr uint16, data byte)
	ReadRAM(off uint16) byte
	WriteRAM(off uint16, data byte)
}

func newMBC(cartType byte, romSize int) MBC {
	switch {
	case cartType == 0x00:
		return &noMBC{}
	case cartType >= 0x01 && cartType <= 0x03:
		return &mbc1{romBank: 1}
	case cartType >= 0x0F && cartType <= 0x13:
		return &mbc3{romBank: 1, hasRTC: cartType == 0x0F || cartType == 0x10}
	default:
		return &noMBC{}
	}
}

// noMBC is cartridge type $00: 32KB ROM, no bank switching, optionally a
// fixed 8KB of cart RAM (not separately gated by type here since nothing
// reads the exact sub-type byte once it's known to need no mapper logic).
type noMBC struct {
	ram [0x2000]byte
}

func (m *noMBC) ROMBank() uint8              { return 1 }
func (m *noMBC) Write(addr uint16, data byte) {}
func (m *noMBC) ReadRAM(off uint16) byte {
	if int(off) < len(m.ram) {
		return m.ram[off]
	}
	return 0xFF
}
func (m *noMBC) WriteRAM(off uint16, data byte) {
	if int(off) < len(m.ram) {
		m.ram[off] = data
	}
}

// mbc1 follows mbc.c's mbc1_write exactly: a 5-bit ROM bank register (0
// reads back as bank 1), a 2-bit RAM bank register, and a RAM-enable latch
// gated on the low nibble of any $0000-$1FFF write equalling $A.
type mbc1 struct {
	romBank    uint8
	ramBank    uint8
	ramEnabled bool
	ram        [4][0x2000]byte
}

func (m *mbc1) ROMBank() uint8 {
	if m.romBank == 0 {
		return 1
	}
	return m.romBank
}

func (m *mbc1) Write(addr uint16, data byte) {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = data&0x0F == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		m.romBank = data & 0x1F
	case addr >= 0x4000 && addr <= 0x5FFF:
		m.ramBank = data & 0x03
	case addr >= 0x6000 && addr <= 0x7FFF:
		// banking mode select (ROM/RAM). Large-ROM titles that need mode 1
		// aren't a documented requirement here; mode is accepted and ignored,
		// same as original_source's commented-out handler for this range.
	}
}

func (m *mbc1) ReadRAM(off uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.ram[m.ramBank][off]
}

func (m *mbc1) WriteRAM(off uint16, data byte) {
	if !m.ramEnabled {
		return
	}
	m.ram[m.ramBank][off] = data
}

// mbc3 follows mbc.c's mbc3_write: a 7-bit ROM bank register, a RAM bank
// register that doubles as an RTC register selector once loaded with
// $08-$0C, and a latch-on-01-after-00 sequence for snapshotting the RTC into
// the latched registers mbc_ram_read serves.
type mbc3 struct {
	romBank    uint8
	ramBank    uint8
	ramEnabled bool
	ram        [4][0x2000]byte

	hasRTC     bool
	rtcSelect  int8 // -1 means "RAM bank", 0x08-0x0C means "RTC register"
	rtc        [5]byte
	rtcLatched [5]byte
	latchState byte
}

func (m *mbc3) ROMBank() uint8 {
	if m.romBank == 0 {
		return 1
	}
	return m.romBank
}

func (m *mbc3) Write(addr uint16, data byte) {
	switch {
	case addr <= 0x1FFF:
		m.ramEnabled = data&0x0F == 0x0A
	case addr >= 0x2000 && addr <= 0x3FFF:
		m.romBank = data & 0x7F
	case addr >= 0x4000 && addr <= 0x5FFF:
		if data <= 0x03 {
			m.ramBank = data
			m.rtcSelect = -1
		} else if m.hasRTC && data >= 0x08 && data <= 0x0C {
			m.rtcSelect = int8(data)
		}
	case addr >= 0x6000 && addr <= 0x7FFF:
		if m.hasRTC && m.latchState == 0x00 && data == 0x01 {
			m.rtcLatched = m.rtc
		}
		m.latchState = data
	}
}

func (m *mbc3) ReadRAM(off uint16) byte {
	if !m.ramEnabled {
		return 0xFF
	}
	if m.rtcSelect >= 0x08 {
		return m.rtcLatched[m.rtcSelect-0x08]
	}
	return m.ram[m.ramBank][off]
}

func (m *mbc3) WriteRAM(off uint16, data byte) {
	if !m.ramEnabled {
		return
	}
	if m.rtcSelect >= 0x08 {
		m.rtc[m.rtcSelect-0x08] = data
		return
	}
	m.ram[m.ramBank][off] = data
}
