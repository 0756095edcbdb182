package main

import "testing"

// End-to-end block-compiler scenarios. Unlike debug_monitor_test.go's rig,
// these run with SingleInstruction off so a Step can compile and chain
// through a real multi-instruction block exactly the way the normal frame
// loop does.

func newScenarioDriver(rom []byte) (*Driver, *DMG) {
	hw := NewDMG(rom)
	driver := NewDriver(hw, DriverConfig{})
	return driver, hw
}

// scenario 1: LD A,n then STOP.
func TestScenarioLdAThenStop(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x3E // LD A,n
	rom[0x101] = 0x55
	rom[0x102] = 0x10 // STOP
	rom[0x103] = 0x00

	driver, _ := newScenarioDriver(rom)
	if err := driver.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !driver.Halted {
		t.Fatal("expected driver to halt on STOP")
	}
	regs := driver.GuestRegs()
	if regs.A != 0x55 {
		t.Fatalf("A = $%02X, want $55", regs.A)
	}
	if regs.Cycles != 12 {
		t.Fatalf("Cycles = %d, want 12", regs.Cycles)
	}
	if driver.BlocksCompiled() != 1 {
		t.Fatalf("BlocksCompiled = %d, want 1", driver.BlocksCompiled())
	}
}

// scenario 2: countdown loop (LD A,5 / DEC A / JR NZ,-3 / STOP) — the
// backward branch must fuse into one native block with no re-entry into the
// dispatcher per iteration.
func TestScenarioCountdownLoopFusion(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x3E // LD A,5
	rom[0x101] = 0x05
	rom[0x102] = 0x3D // DEC A
	rom[0x103] = 0x20 // JR NZ,-3
	rom[0x104] = 0xFD
	rom[0x105] = 0x10 // STOP
	rom[0x106] = 0x00

	driver, _ := newScenarioDriver(rom)
	if err := driver.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !driver.Halted {
		t.Fatal("expected driver to halt on STOP")
	}
	regs := driver.GuestRegs()
	if regs.A != 0 {
		t.Fatalf("A = $%02X, want $00", regs.A)
	}
	if regs.Cycles != 88 {
		t.Fatalf("Cycles = %d, want 88", regs.Cycles)
	}
	if driver.BlocksCompiled() != 1 {
		t.Fatalf("BlocksCompiled = %d, want 1 (loop must fuse into its own block)", driver.BlocksCompiled())
	}

	blk := driver.cache.Lookup(0x100, driver.ctx.CurrentROMBank())
	if blk == nil {
		t.Fatal("expected the compiled loop block to still be cached")
	}
	if blk.patchSite != -1 {
		t.Fatalf("patchSite = %d, want -1 (block ends in STOP, not a patchable exit)", blk.patchSite)
	}
}

// scenario 3: CALL/RET round trip across three compiled blocks.
func TestScenarioCallRetRoundTrip(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x3E // LD A,$11
	rom[0x101] = 0x11
	rom[0x102] = 0xCD // CALL $0008
	rom[0x103] = 0x08
	rom[0x104] = 0x00
	rom[0x105] = 0x3E // LD A,$33
	rom[0x106] = 0x33
	rom[0x107] = 0x10 // STOP
	rom[0x108] = 0x00

	rom[0x0008] = 0x06 // LD B,$22
	rom[0x0009] = 0x22
	rom[0x000A] = 0xC9 // RET

	driver, _ := newScenarioDriver(rom)

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if driver.Halted {
		t.Fatal("should not halt after the CALL")
	}
	if got := driver.GuestRegs().PC; got != 0x0008 {
		t.Fatalf("PC after Step 1 = $%04X, want $0008", got)
	}

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	if driver.Halted {
		t.Fatal("should not halt after the RET")
	}
	regs := driver.GuestRegs()
	if regs.B != 0x22 {
		t.Fatalf("B = $%02X, want $22", regs.B)
	}
	if regs.PC != 0x0105 {
		t.Fatalf("PC after Step 2 = $%04X, want $0105", regs.PC)
	}

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 3: %v", err)
	}
	if !driver.Halted {
		t.Fatal("expected driver to halt on the final STOP")
	}
	regs = driver.GuestRegs()
	if regs.A != 0x33 {
		t.Fatalf("A = $%02X, want $33", regs.A)
	}
	if regs.B != 0x22 {
		t.Fatalf("B = $%02X, want $22 (must survive the call)", regs.B)
	}
	if driver.BlocksCompiled() != 3 {
		t.Fatalf("BlocksCompiled = %d, want 3", driver.BlocksCompiled())
	}
}

// scenario 4: a forward conditional branch must skip the bytes it jumps over
// — they are never compiled into the taken block at all.
func TestScenarioFusedConditionalBranch(t *testing.T) {
	rom := minimalROM()
	rom[0x100] = 0x3E // LD A,$42
	rom[0x101] = 0x42
	rom[0x102] = 0xFE // CP $42
	rom[0x103] = 0x42
	rom[0x104] = 0x28 // JR Z,+2
	rom[0x105] = 0x02
	rom[0x106] = 0x3E // LD A,$00 (must be skipped)
	rom[0x107] = 0x00
	rom[0x108] = 0x10 // STOP
	rom[0x109] = 0x00

	driver, _ := newScenarioDriver(rom)

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if driver.Halted {
		t.Fatal("should not halt before reaching STOP")
	}
	if got := driver.GuestRegs().PC; got != 0x0108 {
		t.Fatalf("PC after the taken branch = $%04X, want $0108 (LD A,$00 must be skipped)", got)
	}

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	if !driver.Halted {
		t.Fatal("expected driver to halt on STOP")
	}
	if got := driver.GuestRegs().A; got != 0x42 {
		t.Fatalf("A = $%02X, want $42 (the skipped LD A,$00 must never have run)", got)
	}
}

// scenario 5: a chained JP patches in place once its target is cached, and
// eviction of the target correctly invalidates (and later re-forms) that
// chain. Driven white-box through Driver/Block/LRU internals rather than
// Step, since a patched JP jumps straight into its target with no cycle
// check on the way — chaining two blocks that point back at each other
// would hang the interpreter rather than return to the host.
func TestScenarioCacheEvictionPatchInvalidation(t *testing.T) {
	rom := minimalROM()
	const srcA, srcB = 0x0150, 0x0200

	rom[srcA] = 0x3E // LD A,$11
	rom[srcA+1] = 0x11
	rom[srcA+2] = 0xC3 // JP srcB
	rom[srcA+3] = byte(srcB & 0xFF)
	rom[srcA+4] = byte(srcB >> 8)

	rom[srcB] = 0x06 // LD B,$22
	rom[srcB+1] = 0x22
	rom[srcB+2] = 0x10 // STOP
	rom[srcB+3] = 0x00

	driver, _ := newScenarioDriver(rom)
	bank := driver.ctx.CurrentROMBank()

	blkA, err := driver.compile(srcA, bank)
	if err != nil {
		t.Fatalf("compile A: %v", err)
	}
	if blkA.patchSite < 0 {
		t.Fatal("JP nn must leave a patchable exit site")
	}
	if isPatched(blkA) {
		t.Fatal("patch site must start unpatched")
	}

	blkB, err := driver.compile(srcB, bank)
	if err != nil {
		t.Fatalf("compile B: %v", err)
	}

	// Run A now that B is cached: its patch site traps into the patch
	// helper, which finds B and patches A's exit into a direct JMP.L,
	// continuing straight into B's code in the same native run.
	driver.core.D[RegNextPC] = srcA
	driver.core.RunFrom(blkA.arenaBase)

	if driver.core.D[RegNextPC] != SentinelPC {
		t.Fatal("expected B's STOP to leave the sentinel PC")
	}
	if got := byte(driver.core.D[RegA]); got != 0x11 {
		t.Fatalf("A = $%02X, want $11 (A's own LD)", got)
	}
	if got := byte(driver.core.D[RegBC] >> 16); got != 0x22 {
		t.Fatalf("B = $%02X, want $22 (B must have run in the same pass)", got)
	}
	if !isPatched(blkA) {
		t.Fatal("expected A's patch site to be rewritten to a JMP.L after the chain formed")
	}

	// Make B the LRU tail and evict it; A's stale chain must be torn out.
	driver.lru.Promote(blkA)
	driver.evictOne()

	if driver.cache.Lookup(srcB, bank) != nil {
		t.Fatal("B should no longer be cached after eviction")
	}
	if isPatched(blkA) {
		t.Fatal("evicting B must restore A's patch site to the unpatched template")
	}

	// Recompile B and confirm the chain re-forms.
	blkB2, err := driver.compile(srcB, bank)
	if err != nil {
		t.Fatalf("recompile B: %v", err)
	}
	if blkB2 == blkB {
		t.Fatal("expected a fresh Block after eviction")
	}

	driver.core.D[RegNextPC] = srcA
	driver.core.D[RegA] = 0
	driver.core.D[RegBC] = 0
	driver.core.RunFrom(blkA.arenaBase)

	if driver.core.D[RegNextPC] != SentinelPC {
		t.Fatal("expected the re-chained run to still reach B's STOP")
	}
	if got := byte(driver.core.D[RegBC] >> 16); got != 0x22 {
		t.Fatalf("B = $%02X after re-chaining, want $22", got)
	}
}

func isPatched(blk *Block) bool {
	word := uint16(blk.Code[blk.patchSite])<<8 | uint16(blk.Code[blk.patchSite+1])
	return word == JMPPatchOpcode
}

// scenario 6: the ldh a,[$44]/cp/jr idiom synthesizes a direct skip to the
// waited-for LY instead of interpreting the spin.
func TestScenarioLyWaitSynthesis(t *testing.T) {
	rom := minimalROM()
	const src = 0x4000
	rom[src] = 0xF0 // LDH A,($FF44)
	rom[src+1] = 0x44
	rom[src+2] = 0xFE // CP $90
	rom[src+3] = 0x90
	rom[src+4] = 0x20 // JR NZ,-6
	rom[src+5] = 0xFA

	driver, _ := newScenarioDriver(rom)
	driver.core.D[RegNextPC] = src

	if err := driver.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if driver.Halted {
		t.Fatal("the LY-wait idiom should not halt the driver")
	}
	regs := driver.GuestRegs()
	if regs.A != 0x90 {
		t.Fatalf("A = $%02X, want $90 (the waited-for LY)", regs.A)
	}
	if regs.PC != src+6 {
		t.Fatalf("PC = $%04X, want $%04X", regs.PC, src+6)
	}
	if driver.LastCycles() != 65676 {
		t.Fatalf("LastCycles = %d, want 65676 (12 LDH + 65664 synthesized wait)", driver.LastCycles())
	}
	if driver.BlocksCompiled() != 1 {
		t.Fatalf("BlocksCompiled = %d, want 1", driver.BlocksCompiled())
	}
}
