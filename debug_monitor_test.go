package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Address parsing (unchanged from the teacher's own test — ParseAddress
// itself is untouched)
// ---------------------------------------------------------------------------

func TestAddressParsing(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
		ok    bool
	}{
		{"$1000", 0x1000, true},
		{"0x1000", 0x1000, true},
		{"1000", 0x1000, true},
		{"#4096", 4096, true},
		{"$DEAD", 0xDEAD, true},
		{"0XBEEF", 0xBEEF, true},
		{"FF", 0xFF, true},
		{"#0", 0, true},
		{"$0", 0, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAddress(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseAddress(%q) = (%X, %v), want (%X, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("  D $100 16  ")
	if cmd.Name != "d" || len(cmd.Args) != 2 || cmd.Args[0] != "$100" || cmd.Args[1] != "16" {
		t.Fatalf("unexpected parse: %+v", cmd)
	}
	if ParseCommand("   ").Name != "" {
		t.Fatal("blank input should parse to an empty command")
	}
}

func TestEvalAddressArithmetic(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x147] = 0x00
	mon := newTestMonitor(rom)
	mon.cpu.SetRegister("HL", 0x1000)

	got, ok := EvalAddress("HL+10", mon.cpu)
	if !ok || got != 0x1010 {
		t.Fatalf("EvalAddress(HL+10) = (%X, %v), want (1010, true)", got, ok)
	}
	got, ok = EvalAddress("$2000-$100", mon.cpu)
	if !ok || got != 0x1F00 {
		t.Fatalf("EvalAddress($2000-$100) = (%X, %v), want (1F00, true)", got, ok)
	}
}

// ---------------------------------------------------------------------------
// Monitor command dispatch against a real Driver/DMG pair
// ---------------------------------------------------------------------------

func newTestMonitor(rom []byte) *MachineMonitor {
	hw := NewDMG(rom)
	driver := NewDriver(hw, DriverConfig{SingleInstruction: true})
	return NewMachineMonitor(driver, hw)
}

func minimalROM() []byte {
	rom := make([]byte, 0x8000)
	rom[0x147] = 0x00 // ROM only, no MBC
	rom[0x148] = 0x00
	rom[0x149] = 0x00
	return rom
}

func TestMonitorRegistersShowAndSet(t *testing.T) {
	mon := newTestMonitor(minimalROM())

	if exit := mon.ExecuteCommand("r a $42"); exit {
		t.Fatal("r should not request exit")
	}
	v, ok := mon.cpu.GetRegister("A")
	if !ok || v != 0x42 {
		t.Fatalf("GetRegister(A) = (%X, %v), want (42, true)", v, ok)
	}

	mon.ExecuteCommand("r")
	found := false
	for _, line := range mon.OutputLines() {
		if strings.Contains(line.Text, "$42") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected register dump to mention the new A value")
	}
}

func TestMonitorDisassemble(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x00 // NOP
	rom[0x101] = 0xC3 // JP $0150
	rom[0x102] = 0x50
	rom[0x103] = 0x01
	mon := newTestMonitor(rom)

	mon.ExecuteCommand("d $100 2")
	lines := mon.OutputLines()
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 disassembly lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0].Text, "NOP") {
		t.Errorf("expected first line to be NOP, got %q", lines[0].Text)
	}
	if !strings.Contains(lines[1].Text, "JP") || !strings.Contains(lines[1].Text, "$0150") {
		t.Errorf("expected second line to be JP $0150, got %q", lines[1].Text)
	}
}

func TestMonitorMemoryWriteAndDump(t *testing.T) {
	mon := newTestMonitor(minimalROM())

	mon.ExecuteCommand("w C000 DE AD BE EF")
	mon.ExecuteCommand("m C000 1")

	found := false
	for _, line := range mon.OutputLines() {
		if strings.Contains(line.Text, "DE AD BE EF") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected memory dump to show the written bytes")
	}
}

func TestMonitorBreakpoints(t *testing.T) {
	mon := newTestMonitor(minimalROM())

	mon.ExecuteCommand("b $0150")
	if !mon.cpu.HasBreakpoint(0x0150) {
		t.Fatal("breakpoint should be armed")
	}
	mon.ExecuteCommand("bc $0150")
	if mon.cpu.HasBreakpoint(0x0150) {
		t.Fatal("breakpoint should be cleared")
	}
	mon.ExecuteCommand("b $0150")
	mon.ExecuteCommand("b $0160")
	mon.ExecuteCommand("bc *")
	if len(mon.cpu.ListBreakpoints()) != 0 {
		t.Fatal("bc * should clear every breakpoint")
	}
}

func TestMonitorStepAndGo(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x00 // NOP
	mon := newTestMonitor(rom)

	if mon.cpu.IsRunning() {
		t.Fatal("monitor should start paused")
	}
	mon.ExecuteCommand("s")
	if mon.cpu.GetPC() != 0x101 {
		t.Fatalf("PC after stepping one NOP = $%04X, want $0101", mon.cpu.GetPC())
	}
	mon.ExecuteCommand("g")
	if !mon.cpu.IsRunning() {
		t.Fatal("g should resume the CPU")
	}
}

func TestMonitorStats(t *testing.T) {
	mon := newTestMonitor(minimalROM())
	mon.ExecuteCommand("s")
	mon.ExecuteCommand("stats")

	found := false
	for _, line := range mon.OutputLines() {
		if strings.Contains(line.Text, "blocks compiled: 1") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected stats to report one compiled block after a single step")
	}
}

func TestMonitorQuit(t *testing.T) {
	mon := newTestMonitor(minimalROM())
	if exit := mon.ExecuteCommand("r"); exit {
		t.Fatal("r should not exit")
	}
	if exit := mon.ExecuteCommand("x"); !exit {
		t.Fatal("x should request exit")
	}
	if !mon.Quit() {
		t.Fatal("Quit() should report true after x")
	}
}

func TestMonitorUnknownCommand(t *testing.T) {
	mon := newTestMonitor(minimalROM())
	mon.ExecuteCommand("bogus")
	lines := mon.OutputLines()
	if len(lines) == 0 || !strings.Contains(lines[len(lines)-1].Text, "Unknown command") {
		t.Fatal("expected an unknown-command message")
	}
}
