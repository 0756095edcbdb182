// debug_cpu_sm83.go - SM83 debug adapter for the monitor console (adapted
// from debug_cpu_z80.go's DebuggableCPU wrapper shape, trimmed to the one
// guest CPU this repo ever runs: no shadow register set, no IX/IY, no R/I/IM
// — SM83 has none of those).
package main

import "strings"

// DebugSM83 wraps a Driver so debug_monitor.go/debug_commands.go can inspect
// and control it the same way they would any other DebuggableCPU. Unlike
// cpu_z80.go's own goroutine-driven CPU, Driver.Step runs synchronously from
// whatever calls it (main.go's frame loop or the monitor's own step/continue
// commands) — there is no background trapLoop to freeze, so IsRunning/Freeze/
// Resume just gate whether the frame loop is allowed to call Step.
type DebugSM83 struct {
	driver *Driver
	hw     *DMG

	running bool

	breakpoints map[uint64]bool
	bpChan      chan<- BreakpointEvent
	cpuID       int
}

func NewDebugSM83(driver *Driver, hw *DMG) *DebugSM83 {
	return &DebugSM83{
		driver:      driver,
		hw:          hw,
		running:     true,
		breakpoints: make(map[uint64]bool),
	}
}

func (d *DebugSM83) CPUName() string   { return "SM83" }
func (d *DebugSM83) AddressWidth() int { return 16 }

func (d *DebugSM83) GetRegisters() []RegisterInfo {
	r := d.driver.GuestRegs()
	return []RegisterInfo{
		{Name: "A", BitWidth: 8, Value: uint64(r.A), Group: "general"},
		{Name: "F", BitWidth: 8, Value: uint64(r.F), Group: "flags"},
		{Name: "B", BitWidth: 8, Value: uint64(r.B), Group: "general"},
		{Name: "C", BitWidth: 8, Value: uint64(r.C), Group: "general"},
		{Name: "D", BitWidth: 8, Value: uint64(r.D), Group: "general"},
		{Name: "E", BitWidth: 8, Value: uint64(r.E), Group: "general"},
		{Name: "H", BitWidth: 8, Value: uint64(r.H), Group: "general"},
		{Name: "L", BitWidth: 8, Value: uint64(r.L), Group: "general"},
		{Name: "SP", BitWidth: 16, Value: uint64(r.SP), Group: "general"},
		{Name: "PC", BitWidth: 16, Value: uint64(r.PC), Group: "general"},
		{Name: "BC", BitWidth: 16, Value: uint64(r.B)<<8 | uint64(r.C), Group: "pair"},
		{Name: "DE", BitWidth: 16, Value: uint64(r.D)<<8 | uint64(r.E), Group: "pair"},
		{Name: "HL", BitWidth: 16, Value: uint64(r.H)<<8 | uint64(r.L), Group: "pair"},
		{Name: "BANK", BitWidth: 8, Value: uint64(d.hw.CurrentROMBank()), Group: "status"},
	}
}

func (d *DebugSM83) GetRegister(name string) (uint64, bool) {
	for _, ri := range d.GetRegisters() {
		if strings.EqualFold(ri.Name, name) {
			return ri.Value, true
		}
	}
	return 0, false
}

// SetRegister only accepts the registers that have a real host location to
// write back into; BANK is read-only here since it is the MBC's own state,
// not the CPU's.
func (d *DebugSM83) SetRegister(name string, value64 uint64) bool {
	c := d.driver.core
	value := uint32(value64)
	switch strings.ToUpper(name) {
	case "A":
		c.D[RegA] = (c.D[RegA] &^ 0xFF) | (value & 0xFF)
	case "F":
		c.D[RegFlags] = (c.D[RegFlags] &^ 0xFF) | (value & 0xFF)
	case "B":
		c.D[RegBC] = (c.D[RegBC] & 0x0000FFFF) | (value&0xFF)<<16
	case "C":
		c.D[RegBC] = (c.D[RegBC] &^ 0xFF) | (value & 0xFF)
	case "D":
		c.D[RegDE] = (c.D[RegDE] & 0x0000FFFF) | (value&0xFF)<<16
	case "E":
		c.D[RegDE] = (c.D[RegDE] &^ 0xFF) | (value & 0xFF)
	case "H":
		c.A[RegHL] = (c.A[RegHL] &^ 0xFF00) | (value&0xFF)<<8
	case "L":
		c.A[RegHL] = (c.A[RegHL] &^ 0xFF) | (value & 0xFF)
	case "BC":
		c.D[RegBC] = uint32(byte(value>>8))<<16 | uint32(byte(value))
	case "DE":
		c.D[RegDE] = uint32(byte(value>>8))<<16 | uint32(byte(value))
	case "HL":
		c.A[RegHL] = value & 0xFFFF
	case "PC":
		c.D[RegNextPC] = uint32(value)
	case "SP":
		d.driver.ctx.SetGBSP(uint16(value))
		c.A[RegSP] = uint32(int32(value) - d.driver.ctx.SPAdjust())
	default:
		return false
	}
	return true
}

func (d *DebugSM83) GetPC() uint64     { return uint64(d.driver.core.D[RegNextPC]) }
func (d *DebugSM83) SetPC(addr uint64) { d.driver.core.D[RegNextPC] = uint32(addr) }

func (d *DebugSM83) IsRunning() bool { return d.running }
func (d *DebugSM83) Freeze()         { d.running = false }
func (d *DebugSM83) Resume()         { d.running = true }

// Step runs exactly one compiled block — not one guest instruction, since
// the JIT compiles in basic-block granularity and there is no cheaper unit
// to single-step once a block is cached. Driver's -single-instruction mode
// forces one-instruction blocks for exactly this use, so the monitor's
// "step" command is most useful paired with that flag.
func (d *DebugSM83) Step() int {
	_ = d.driver.Step()
	return int(d.driver.LastCycles())
}

func (d *DebugSM83) Disassemble(addr uint64, count int) []DisassembledLine {
	return disassembleSM83(d.readMemRange, addr, count)
}

func (d *DebugSM83) readMemRange(addr uint64, size int) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = d.hw.Read(uint16(addr) + uint16(i))
	}
	return out
}

func (d *DebugSM83) SetBreakpoint(addr uint64) bool {
	d.breakpoints[addr] = true
	return true
}
func (d *DebugSM83) SetConditionalBreakpoint(addr uint64, cond *BreakpointCondition) bool {
	return d.SetBreakpoint(addr) // the condition is ignored: the built-in table only holds unconditional breakpoints
}
func (d *DebugSM83) ClearBreakpoint(addr uint64) bool {
	had := d.breakpoints[addr]
	delete(d.breakpoints, addr)
	return had
}
func (d *DebugSM83) ClearAllBreakpoints() { d.breakpoints = make(map[uint64]bool) }
func (d *DebugSM83) ListBreakpoints() []uint64 {
	out := make([]uint64, 0, len(d.breakpoints))
	for a := range d.breakpoints {
		out = append(out, a)
	}
	return out
}
func (d *DebugSM83) ListConditionalBreakpoints() []*ConditionalBreakpoint { return nil }
func (d *DebugSM83) HasBreakpoint(addr uint64) bool                      { return d.breakpoints[addr] }
func (d *DebugSM83) GetConditionalBreakpoint(addr uint64) *ConditionalBreakpoint {
	return nil
}

// Watchpoints have no cheap host hook: there is no single memory array to
// trap on since DMG.Read/Write dispatch across ROM/VRAM/WRAM/MBC-RAM/I/O/HRAM.
// Left unimplemented rather than faked: SetWatchpoint always reports
// failure, and no other path in this port watches memory accesses.
func (d *DebugSM83) SetWatchpoint(addr uint64) bool    { return false }
func (d *DebugSM83) ClearWatchpoint(addr uint64) bool  { return false }
func (d *DebugSM83) ClearAllWatchpoints()              {}
func (d *DebugSM83) ListWatchpoints() []uint64         { return nil }

func (d *DebugSM83) ReadMemory(addr uint64, size int) []byte { return d.readMemRange(addr, size) }

func (d *DebugSM83) WriteMemory(addr uint64, data []byte) {
	for i, b := range data {
		d.hw.Write(uint16(addr)+uint16(i), b)
	}
}

func (d *DebugSM83) SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int) {
	d.bpChan = ch
	d.cpuID = cpuID
}

// checkBreakpoint is polled by main.go's frame loop after each Step (no trap
// goroutine exists to push BreakpointEvent asynchronously); it reports and
// publishes a hit on every call made while PC sits on an armed address.
func (d *DebugSM83) checkBreakpoint() bool {
	pc := d.GetPC()
	if !d.breakpoints[pc] {
		return false
	}
	if d.bpChan != nil {
		select {
		case d.bpChan <- BreakpointEvent{CPUID: d.cpuID, Address: pc}:
		default:
		}
	}
	return true
}
