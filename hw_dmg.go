package main

// DMG is the concrete HardwareSync collaborator (C7, §4.7): a Game Boy
// memory map, interrupt controller, and the four peripherals (hw_ppu.go,
// hw_timer.go, hw_apu.go, hw_input.go) wired to it. Grounded on
// original_source/src/dmg.c/dmg.h's address dispatch and interrupt fields
// (interrupt_enable/interrupt_request_mask), generalized from that file's
// single flat switch into one struct per peripheral the way memory_bus.go
// separates SystemBus's own state from the IORegion callbacks it dispatches
// into.
//
// WRAM and HRAM are the one region DMG does not own storage for. The JIT's
// stack-pointer fast path (jit_translate_stack.go) writes those bytes
// directly into the arena whenever SP resolves into them, bypassing
// Read/Write entirely; if DMG kept its own separate copy the two would
// silently diverge the first time a game pushed a return address and then
// read it back with a plain LD A,(nn). BindMemory gives DMG the same
// backing the fast path uses instead.
type DMG struct {
	rom []byte
	mbc MBC

	vram [0x2000]byte
	oam  [0xA0]byte

	mem      MemoryWindow
	wramBase uint32
	hramBase uint32

	ppu   *PPU
	timer *Timer
	apu   *APU
	input *Input

	ie  uint8
	ifr uint8
	ime bool
}


const (
	addrVRAMStart  = 0x8000
	addrVRAMEnd    = 0xA000
	addrERAMStart  = 0xA000
	addrERAMEnd    = 0xC000
	addrWRAMStart  = 0xC000
	addrWRAMEnd    = 0xE000
	addrEchoStart  = 0xE000
	addrEchoEnd    = 0xFE00
	addrOAMStart  = 0xFE00
	addrOAMEnd    = 0xFEA0
	addrHRAMStart = 0xFF80
	addrHRAMEnd   = 0xFFFF
	addrIE        = 0xFFFF
	regJoypad     = 0xFF00
	regSerialData  = 0xFF01
	regSerialCtrl  = 0xFF02
	regIF          = 0xFF0F
)

// interrupt bits, in priority order (lowest bit serviced first)
const (
	intVBlank = 0
	intSTAT   = 1
	intTimer  = 2
	intSerial = 3
	intJoypad = 4
)

var interruptVectors = [5]uint16{0x40, 0x48, 0x50, 0x58, 0x60}

// NewDMG builds a hardware model for rom, selecting the MBC implementation
// from the cartridge header byte at 0x147 the same way mbc_new switches on
// cartridge type.
func NewDMG(rom []byte) *DMG {
	d := &DMG{rom: rom}
	d.mbc = newMBC(cartridgeType(rom), len(rom))
	requestIRQ := func(bit uint8) { d.ifr |= 1 << bit }
	d.ppu = newPPU(requestIRQ)
	d.ppu.bindVRAM(&d.vram, &d.oam)
	d.timer = newTimer(requestIRQ)
	d.apu = newAPU()
	d.input = newInput(requestIRQ)
	return d
}

func cartridgeType(rom []byte) byte {
	if len(rom) <= 0x147 {
		return 0
	}
	return rom[0x147]
}

func (d *DMG) BindMemory(mem MemoryWindow, wramBase, hramBase uint32) {
	d.mem = mem
	d.wramBase = wramBase
	d.hramBase = hramBase
}

func (d *DMG) readWRAM(off uint16) byte  { return d.mem.ReadByte(d.wramBase + uint32(off)) }
func (d *DMG) writeWRAM(off uint16, v byte) { d.mem.WriteByte(d.wramBase+uint32(off), v) }
func (d *DMG) readHRAM(off uint16) byte  { return d.mem.ReadByte(d.hramBase + uint32(off)) }
func (d *DMG) writeHRAM(off uint16, v byte) { d.mem.WriteByte(d.hramBase+uint32(off), v) }

// Read implements HardwareSync.Read, the slow-path memory callout every
// ordinary LD r,(nn)/r,(HL)/... translation routes through (jit_stubs.go,
// jit_translate_loads.go).
func (d *DMG) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return romByte(d.rom, uint32(addr))
	case addr < addrVRAMStart:
		return romByte(d.rom, uint32(d.mbc.ROMBank())*0x4000+uint32(addr-0x4000))
	case addr < addrVRAMEnd:
		return d.vram[addr-addrVRAMStart]
	case addr < addrERAMEnd:
		return d.mbc.ReadRAM(addr - addrERAMStart)
	case addr < addrWRAMEnd:
		return d.readWRAM(addr - addrWRAMStart)
	case addr < addrEchoEnd:
		return d.readWRAM(addr - addrEchoStart)
	case addr < addrOAMEnd:
		return d.oam[addr-addrOAMStart]
	case addr < addrHRAMStart:
		return d.readIO(addr)
	case addr < addrHRAMEnd:
		return d.readHRAM(addr - addrHRAMStart)
	case addr == addrIE:
		return d.ie
	default:
		return 0xFF
	}
}

func romByte(rom []byte, off uint32) byte {
	if int(off) >= len(rom) {
		return 0xFF
	}
	return rom[off]
}

func (d *DMG) readIO(addr uint16) byte {
	switch {
	case addr == regJoypad:
		return d.input.Read()
	case addr == regSerialData || addr == regSerialCtrl:
		return 0xFF
	case addr >= 0xFF04 && addr <= 0xFF07:
		return d.timer.Read(addr)
	case addr == regIF:
		return d.ifr | 0xE0
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return d.apu.Read(addr)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return d.ppu.Read(addr)
	default:
		return 0xFF
	}
}

// Write implements HardwareSync.Write.
func (d *DMG) Write(addr uint16, val byte) {
	switch {
	case addr < addrVRAMStart:
		d.mbc.Write(addr, val)
	case addr < addrVRAMEnd:
		d.vram[addr-addrVRAMStart] = val
	case addr < addrERAMEnd:
		d.mbc.WriteRAM(addr-addrERAMStart, val)
	case addr < addrWRAMEnd:
		d.writeWRAM(addr-addrWRAMStart, val)
	case addr < addrEchoEnd:
		d.writeWRAM(addr-addrEchoStart, val)
	case addr < addrOAMEnd:
		d.oam[addr-addrOAMStart] = val
	case addr < addrHRAMStart:
		d.writeIO(addr, val)
	case addr < addrHRAMEnd:
		d.writeHRAM(addr-addrHRAMStart, val)
	case addr == addrIE:
		d.ie = val
	}
}

func (d *DMG) writeIO(addr uint16, val byte) {
	switch {
	case addr == regJoypad:
		d.input.Select(val)
	case addr == regSerialData || addr == regSerialCtrl:
		// serial link cable: no peer to talk to, writes are simply dropped
	case addr >= 0xFF04 && addr <= 0xFF07:
		d.timer.Write(addr, val)
	case addr == regIF:
		d.ifr = val & 0x1F
	case addr >= 0xFF10 && addr <= 0xFF3F:
		d.apu.Write(addr, val)
	case addr == 0xFF46:
		d.doDMA(val)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		d.ppu.Write(addr, val)
	}
}

// doDMA implements the OAM DMA transfer triggered by writing to $FF46: 160
// bytes are copied from val*0x100 into OAM. Real hardware takes 160 cycles
// and locks out most other bus access for the duration; this port copies
// synchronously and does not model the lockout, matching spec.md's scope
// (timing-accurate CPU/JIT semantics, not cycle-accurate bus contention).
func (d *DMG) doDMA(val byte) {
	src := uint16(val) << 8
	for i := 0; i < len(d.oam); i++ {
		d.oam[i] = d.Read(src + uint16(i))
	}
}

// Read16/Write16 serve the one genuine 16-bit memory op the translator
// needs (LD (nn),SP, jit_translate_loads.go's compileLdAbsSP) plus the
// Read16Fn/Write16Fn slots jit_stubs.go wires unconditionally. Game Boy
// memory is little-endian, matching the CPU's own register pair layout.
func (d *DMG) Read16(addr uint16) uint16 {
	return uint16(d.Read(addr)) | uint16(d.Read(addr+1))<<8
}

func (d *DMG) Write16(addr uint16, val uint16) {
	d.Write(addr, byte(val))
	d.Write(addr+1, byte(val>>8))
}

// Sync implements HardwareSync.Sync (§4.6 step 5): advance every peripheral
// by the cycles the JIT accumulated since the last call, exactly the role
// dmg_sync_hw plays in jit_step.
func (d *DMG) Sync(cycles uint32) {
	d.timer.Step(cycles)
	d.ppu.Step(cycles)
	d.apu.Step(cycles)
}

// SetIME implements HardwareSync.SetIME, reached through the EI/DI callout
// (jit_stubs.go's EIDIFn).
func (d *DMG) SetIME(enabled bool) { d.ime = enabled }

// PendingInterrupt implements HardwareSync.PendingInterrupt (§4.6 step 7).
// IME gating happens here, not in the driver: jit_driver.go's deliverInterrupt
// trusts that ok=false whenever IME is clear even if IE&IF is nonzero.
func (d *DMG) PendingInterrupt() (vector uint16, ifBit uint8, ok bool) {
	if !d.ime {
		return 0, 0, false
	}
	pending := d.ie & d.ifr & 0x1F
	if pending == 0 {
		return 0, 0, false
	}
	for bit := uint8(0); bit < 5; bit++ {
		if pending&(1<<bit) != 0 {
			return interruptVectors[bit], bit, true
		}
	}
	return 0, 0, false
}

func (d *DMG) ClearIF(bit uint8) { d.ifr &^= 1 << bit }

func (d *DMG) CurrentROMBank() uint8 { return d.mbc.ROMBank() }

// SetButton forwards a button edge from the host input backend (hw_input.go).
func (d *DMG) SetButton(field, button int, pressed bool) { d.input.SetButton(field, button, pressed) }

// Framebuffer exposes the PPU's rendered 160x144 buffer for video_backend_*.go.
func (d *DMG) Framebuffer() []byte { return d.ppu.Framebuffer() }

// Samples drains the APU's pending sample buffer for audio_backend_*.go.
func (d *DMG) Samples() []int16 { return d.apu.DrainSamples() }
