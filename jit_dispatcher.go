package main

import "encoding/binary"

// The dispatcher is, in the original, a small hand-written 68000 stub
// embedded as a byte array (system6/dispatcher_asm.c: dispatcher_code[]).
// This file builds the byte-identical stub using the same emitter every
// translated block uses, rather than copying a literal array, so it shares
// one code path with ordinary blocks and can be unit-tested against the
// interpreter exactly like any other block.
//
// The patch helper (dispatcher_asm.c's patch_helper_code[]) is NOT built
// this way. On real hardware it is asm that inline-overwrites the six bytes
// at the call site and then issues a cache-flush trap — a self-modifying
// write to code the CPU is mid-executing, something only the host platform
// itself can do safely (the original's own TrapAvailable/_CacheFlush dance
// makes that explicit). This port keeps the same shape — a stub invoked by
// jsr from a patchable exit site that looks up the successor and either
// patches-and-jumps or falls through to rts — but implements the lookup,
// the byte overwrite, and the "flush" as a native Go callout
// (jit_lru.go's applyPatch), registered at ctx.patch_helper the same way
// the memory-access slow path (§4.3) is a callout rather than inline code.

type stubFixup struct {
	pos   int    // offset of the branch opcode word
	label string // label this branch resolves against
}

type stubBuilder struct {
	blk    Block
	fixups []stubFixup
	labels map[string]int
}

func newStubBuilder() *stubBuilder {
	return &stubBuilder{labels: make(map[string]int)}
}

func (s *stubBuilder) mark(label string) { s.labels[label] = s.blk.Length }

func (s *stubBuilder) branch(cond uint8, label string) {
	pos := s.blk.Length
	emit_bcc_opcode_w(&s.blk, cond, 0) // displacement patched by resolve()
	s.fixups = append(s.fixups, stubFixup{pos: pos, label: label})
}

func (s *stubBuilder) resolve() []byte {
	for _, f := range s.fixups {
		target, ok := s.labels[f.label]
		if !ok {
			panic("unresolved stub label " + f.label)
		}
		disp := int16(target - (f.pos + 2))
		binary.BigEndian.PutUint16(s.blk.Code[f.pos+2:], uint16(disp))
	}
	return s.blk.Code[:s.blk.Length]
}

// BuildDispatcherStub assembles the chain-exit dispatcher described in §4.4:
// check the cycle budget, pick a cache tier by D3's address range, index
// it, and either jmp into the next block or rts to the host driver.
//
//	D3 = target guest PC (set by the caller before jumping here)
//	D2 = accumulated cycles, checked against cyclesPerExit
func BuildDispatcherStub(cyclesPerExit uint32) []byte {
	s := newStubBuilder()

	emit_cmpi_l_imm_dn(&s.blk, cyclesPerExit, RegCycles)
	s.branch(CondCC, "exit") // D2 >= budget: carry clear on cmpi -> exhausted

	emit_cmpi_w_imm_dn(&s.blk, 0x4000, RegNextPC)
	s.branch(CondCS, "bank0") // D3 < 0x4000

	emit_cmpi_w_imm_dn(&s.blk, 0x8000, RegNextPC)
	s.branch(CondCS, "banked") // D3 < 0x8000

	// upper region: index = D3 - 0x8000
	s.mark("upper")
	emit_movea_l_disp_an_an(&s.blk, CtxUpperCache, RegCtx, RegAScratch1)
	emit_move_w_dn_dn(&s.blk, RegNextPC, RegScratch1)
	emit_subi_w_dn(&s.blk, RegScratch1, 0x8000)
	s.indexAndJump()

	s.mark("bank0")
	emit_movea_l_disp_an_an(&s.blk, CtxBank0Cache, RegCtx, RegAScratch1)
	emit_move_w_dn_dn(&s.blk, RegNextPC, RegScratch1)
	s.indexAndJump()

	s.mark("banked")
	// banked tier is an array of per-bank arrays; load the row for
	// current_rom_bank, then index within it by (D3 - 0x4000).
	emit_movea_l_disp_an_an(&s.blk, CtxBankedCache, RegCtx, RegAScratch1)
	emit_move_b_disp_an_dn(&s.blk, CtxCurrentROMBank, RegCtx, RegScratch2)
	emit_andi_l_dn(&s.blk, RegScratch2, 0xFF)
	emit_lsl_l_imm_dn(&s.blk, 2, RegScratch2)
	emit_movea_l_idx_an_an(&s.blk, 0, RegAScratch1, RegScratch2, RegAScratch1)
	emit_move_w_dn_dn(&s.blk, RegNextPC, RegScratch1)
	emit_subi_w_dn(&s.blk, RegScratch1, 0x4000)
	s.indexAndJump()

	s.mark("exit")
	emit_rts(&s.blk)

	return s.resolve()
}

// indexAndJump assumes A0 holds the base of a guest-PC-indexed pointer
// array and D0 holds the index within that tier; it loads the pointer,
// rts-to-host if null, otherwise jumps straight into the next block.
func (s *stubBuilder) indexAndJump() {
	emit_lsl_l_imm_dn(&s.blk, 2, RegScratch1)
	emit_movea_l_idx_an_an(&s.blk, 0, RegAScratch1, RegScratch1, RegAScratch1)
	emit_cmpa_w_imm_an(&s.blk, 0, RegAScratch1)
	s.branch(CondEQ, "exit")
	emit_jmp_ind_an(&s.blk, RegAScratch1)
}
