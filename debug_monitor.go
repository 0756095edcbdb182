// debug_monitor.go - Machine Monitor console, carried over in shape from the
// teacher's own MachineMonitor (state machine, scrollback lines, input-line/
// history/cursor fields, appendOutput) but scoped to the one CPU this repo
// ever debugs. The teacher's hex editor, trace-to-file, backstep history and
// macro scripting are deliberately not ported — see DESIGN.md.
package main

import (
	"fmt"
	"strings"
	"sync"

	"golang.design/x/clipboard"
)

// OutputLine is one line of monitor scrollback, styled the way the teacher's
// own console renders theirs.
type OutputLine struct {
	Text  string
	Color uint32
}

const (
	colorWhite  = 0xFFFFFFFF
	colorCyan   = 0x64C8FFFF
	colorYellow = 0xFFFF55FF
	colorRed    = 0xFF5555FF
	colorGreen  = 0x55FF55FF
)

// MachineMonitor is the single-CPU debug console: register/memory/
// disassembly inspection, breakpoints, step/continue, and a handful of
// host-sink commands (copy, script) that give the latent clipboard and Lua
// dependencies a home.
type MachineMonitor struct {
	cpu    *DebugSM83
	driver *Driver

	outputLines []OutputLine
	maxOutput   int

	history    []string
	historyIdx int

	prevRegs map[string]uint64
	lastCopy string // most recent disassembly/hex dump text, for the copy command

	quit bool
}

func NewMachineMonitor(driver *Driver, hw *DMG) *MachineMonitor {
	cpu := NewDebugSM83(driver, hw)
	cpu.Freeze() // the monitor starts paused; "g" hands control back to the frame loop
	return &MachineMonitor{
		cpu:       cpu,
		driver:    driver,
		maxOutput: 500,
		prevRegs:  make(map[string]uint64),
	}
}

func (m *MachineMonitor) CPU() *DebugSM83 { return m.cpu }
func (m *MachineMonitor) Quit() bool      { return m.quit }

func (m *MachineMonitor) appendOutput(text string, color uint32) {
	m.outputLines = append(m.outputLines, OutputLine{Text: text, Color: color})
	if len(m.outputLines) > m.maxOutput {
		m.outputLines = m.outputLines[len(m.outputLines)-m.maxOutput:]
	}
}

// OutputLines returns the current scrollback, for whatever prints it (the
// console host's stdout writer).
func (m *MachineMonitor) OutputLines() []OutputLine { return m.outputLines }

// ExecuteCommand parses and runs one line of monitor input. Returns true
// when the session should stop accepting further input ("x"/"quit").
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}
	m.historyIdx = len(m.history)

	switch cmd.Name {
	case "r", "reg":
		return m.cmdRegisters(cmd)
	case "d", "dis":
		return m.cmdDisassemble(cmd)
	case "m", "mem":
		return m.cmdMemoryDump(cmd)
	case "w":
		return m.cmdWrite(cmd)
	case "s", "step":
		return m.cmdStep(cmd)
	case "g", "go", "c", "continue":
		return m.cmdGo(cmd)
	case "halt", "break":
		return m.cmdHalt(cmd)
	case "b":
		return m.cmdBreakpointSet(cmd)
	case "bc":
		return m.cmdBreakpointClear(cmd)
	case "bl":
		return m.cmdBreakpointList(cmd)
	case "stats":
		return m.cmdStats(cmd)
	case "copy":
		return m.cmdCopy(cmd)
	case "script":
		return m.cmdScript(cmd)
	case "?", "help":
		return m.cmdHelp(cmd)
	case "x", "quit", "exit":
		m.quit = true
		return true
	default:
		m.appendOutput(fmt.Sprintf("Unknown command: %s", cmd.Name), colorRed)
		return false
	}
}

func (m *MachineMonitor) cmdRegisters(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 2 {
		name, val := cmd.Args[0], cmd.Args[1]
		v, ok := ParseAddress(val)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid value: %s", val), colorRed)
			return false
		}
		if m.cpu.SetRegister(name, v) {
			m.appendOutput(fmt.Sprintf("%s = $%X", strings.ToUpper(name), v), colorGreen)
		} else {
			m.appendOutput(fmt.Sprintf("Unknown register: %s", name), colorRed)
		}
		return false
	}
	m.showRegisters()
	return false
}

func (m *MachineMonitor) showRegisters() {
	for _, r := range m.cpu.GetRegisters() {
		color := uint32(colorWhite)
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			color = colorGreen
		}
		m.prevRegs[r.Name] = r.Value
		width := 4
		if r.BitWidth == 8 {
			width = 2
		}
		m.appendOutput(fmt.Sprintf("%-4s $%0*X", r.Name, width, r.Value), color)
	}
	r := m.driver.GuestRegs()
	m.appendOutput(fmt.Sprintf("flags %s", r.FlagString()), colorWhite)
}

func (m *MachineMonitor) cmdDisassemble(cmd MonitorCommand) bool {
	addr := m.cpu.GetPC()
	count := 16
	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m.cpu); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}

	var b strings.Builder
	for _, line := range m.cpu.Disassemble(addr, count) {
		marker := "  "
		if line.Address == m.cpu.GetPC() {
			marker = "> "
		}
		text := fmt.Sprintf("%s$%04X  %-11s %s", marker, line.Address, line.HexBytes, line.Mnemonic)
		color := uint32(colorWhite)
		if line.IsBranch {
			color = colorCyan
		}
		m.appendOutput(text, color)
		fmt.Fprintln(&b, text)
	}
	m.lastCopy = b.String()
	return false
}

func (m *MachineMonitor) cmdMemoryDump(cmd MonitorCommand) bool {
	addr := uint64(0)
	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], m.cpu); ok {
			addr = v
		}
	}
	rows := 8
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			rows = int(v)
		}
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		rowAddr := addr + uint64(row*16)
		data := m.cpu.ReadMemory(rowAddr, 16)
		var hexParts, ascii strings.Builder
		for _, v := range data {
			fmt.Fprintf(&hexParts, "%02X ", v)
			if v >= 0x20 && v < 0x7F {
				ascii.WriteByte(v)
			} else {
				ascii.WriteByte('.')
			}
		}
		text := fmt.Sprintf("$%04X  %s %s", rowAddr, hexParts.String(), ascii.String())
		m.appendOutput(text, colorWhite)
		fmt.Fprintln(&b, text)
	}
	m.lastCopy = b.String()
	return false
}

func (m *MachineMonitor) cmdWrite(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("usage: w <addr> <byte> [byte...]", colorRed)
		return false
	}
	addr, ok := EvalAddress(cmd.Args[0], m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	data := make([]byte, 0, len(cmd.Args)-1)
	for _, arg := range cmd.Args[1:] {
		v, ok := ParseAddress(arg)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		data = append(data, byte(v))
	}
	m.cpu.WriteMemory(addr, data)
	m.appendOutput(fmt.Sprintf("Wrote %d byte(s) at $%04X", len(data), addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdStep(cmd MonitorCommand) bool {
	cycles := m.cpu.Step()
	m.appendOutput(fmt.Sprintf("stepped %d cycle(s)", cycles), colorWhite)
	m.showRegisters()
	return false
}

func (m *MachineMonitor) cmdGo(cmd MonitorCommand) bool {
	m.cpu.Resume()
	m.appendOutput("running", colorGreen)
	return false
}

func (m *MachineMonitor) cmdHalt(cmd MonitorCommand) bool {
	m.cpu.Freeze()
	m.appendOutput(fmt.Sprintf("halted at $%04X", m.cpu.GetPC()), colorYellow)
	m.showRegisters()
	return false
}

func (m *MachineMonitor) cmdBreakpointSet(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("usage: b <addr>", colorRed)
		return false
	}
	addr, ok := EvalAddress(cmd.Args[0], m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	m.cpu.SetBreakpoint(addr)
	m.appendOutput(fmt.Sprintf("breakpoint set at $%04X", addr), colorGreen)
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 && cmd.Args[0] == "*" {
		m.cpu.ClearAllBreakpoints()
		m.appendOutput("all breakpoints cleared", colorGreen)
		return false
	}
	if len(cmd.Args) < 1 {
		m.appendOutput("usage: bc <addr>|*", colorRed)
		return false
	}
	addr, ok := EvalAddress(cmd.Args[0], m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	if m.cpu.ClearBreakpoint(addr) {
		m.appendOutput(fmt.Sprintf("breakpoint cleared at $%04X", addr), colorGreen)
	} else {
		m.appendOutput(fmt.Sprintf("no breakpoint at $%04X", addr), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(cmd MonitorCommand) bool {
	bps := m.cpu.ListBreakpoints()
	if len(bps) == 0 {
		m.appendOutput("no breakpoints", colorWhite)
		return false
	}
	for _, addr := range bps {
		m.appendOutput(fmt.Sprintf("$%04X", addr), colorWhite)
	}
	return false
}

// cmdStats surfaces jit_driver.go's BlocksCompiled/BlocksExecuted counters,
// the performance-counter pairing the host status line is meant to show.
func (m *MachineMonitor) cmdStats(cmd MonitorCommand) bool {
	m.appendOutput(fmt.Sprintf("blocks compiled: %d", m.driver.BlocksCompiled()), colorWhite)
	m.appendOutput(fmt.Sprintf("blocks executed: %d", m.driver.BlocksExecuted()), colorWhite)
	return false
}

var clipboardInit = sync.OnceValue(func() bool { return clipboard.Init() == nil })

// cmdCopy writes the most recent disassembly or memory-dump text to the
// system clipboard.
func (m *MachineMonitor) cmdCopy(cmd MonitorCommand) bool {
	if m.lastCopy == "" {
		m.appendOutput("nothing to copy yet", colorRed)
		return false
	}
	if !clipboardInit() {
		m.appendOutput("clipboard unavailable on this system", colorRed)
		return false
	}
	clipboard.Write(clipboard.FmtText, []byte(m.lastCopy))
	m.appendOutput("copied to clipboard", colorGreen)
	return false
}

func (m *MachineMonitor) cmdScript(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("usage: script <path>", colorRed)
		return false
	}
	if err := RunScript(cmd.Args[0], m); err != nil {
		m.appendOutput(fmt.Sprintf("script error: %v", err), colorRed)
	} else {
		m.appendOutput("script finished", colorGreen)
	}
	return false
}

func (m *MachineMonitor) cmdHelp(cmd MonitorCommand) bool {
	for _, line := range []string{
		"r [reg val]        show/set registers",
		"d [addr] [count]   disassemble",
		"m [addr] [rows]    memory dump",
		"w addr b [b...]    write bytes",
		"s                  step one block",
		"g                  continue",
		"halt               pause",
		"b addr             set breakpoint",
		"bc addr|*          clear breakpoint(s)",
		"bl                 list breakpoints",
		"stats              JIT block counters",
		"copy               copy last output to clipboard",
		"script path        run a Lua script",
		"x                  quit",
	} {
		m.appendOutput(line, colorCyan)
	}
	return false
}
