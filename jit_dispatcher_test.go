package main

import "testing"

// TestUpperTierDispatchPastSixteenBits exercises the dispatcher stub's
// upper-tier indexing (jit_dispatcher.go's indexAndJump) with a guest PC far
// enough past $8000 that (PC-$8000)*4 overflows 16 bits — the case
// emit_movea_l_idx_an_an's long-index form exists to handle. JP (HL) is used
// rather than JP nn so the chain goes through the ordinary dispatcher stub
// (emit_dispatch_jump) instead of the separate self-patching exit.
func TestUpperTierDispatchPastSixteenBits(t *testing.T) {
	rom := minimalROM()
	const target = 0xD000 // (target-0x8000)*4 = 0x14000, past a 16-bit index

	rom[0x100] = 0x21 // LD HL,$D000
	rom[0x101] = byte(target & 0xFF)
	rom[0x102] = byte(target >> 8)
	rom[0x103] = 0xE9 // JP (HL)

	driver, hw := newScenarioDriver(rom)
	// WRAM isn't rom-backed; write the target block's bytes straight through
	// the bus, exactly as a game relocating code into WRAM would.
	hw.Write(target, 0x3E) // LD A,$77
	hw.Write(target+1, 0x77)
	hw.Write(target+2, 0x10) // STOP
	hw.Write(target+3, 0x00)

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if driver.Halted {
		t.Fatal("should not halt before the WRAM block runs")
	}
	if got := driver.GuestRegs().PC; got != target {
		t.Fatalf("PC after JP (HL) = $%04X, want $%04X", got, target)
	}

	if err := driver.Step(); err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	if !driver.Halted {
		t.Fatal("expected the WRAM block's STOP to halt the driver")
	}
	if got := driver.GuestRegs().A; got != 0x77 {
		t.Fatalf("A = $%02X, want $77", got)
	}

	// Re-enter block A now that the WRAM block is cached, forcing the
	// dispatcher stub's upper-tier index to resolve a hit rather than a
	// miss. A wrapped 16-bit index would land on the wrong (empty) slot and
	// rts back to the host instead of continuing straight into the cached
	// block — the run below would then return with Halted still false and
	// PC sitting at target, having never executed the WRAM code again.
	driver.Halted = false
	driver.core.D[RegNextPC] = 0x100
	driver.core.D[RegA] = 0
	blk := driver.cache.Lookup(0x100, driver.ctx.CurrentROMBank())
	if blk == nil {
		t.Fatal("block A should still be cached")
	}
	if err := driver.Step(); err != nil {
		t.Fatalf("Step 3: %v", err)
	}
	if !driver.Halted {
		t.Fatal("expected the re-chained run to reach the WRAM block's STOP again")
	}
	if got := driver.GuestRegs().A; got != 0x77 {
		t.Fatalf("A = $%02X after re-chaining through the upper-tier index, want $77", got)
	}
}
