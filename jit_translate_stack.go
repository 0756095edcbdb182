package main

import "encoding/binary"

// Stack-pointer and PUSH/POP translation (grounded on
// original_source/compiler/stack.c). The one non-obvious piece of this file
// is why A3 (the host register holding SP) sometimes holds a real host
// pointer and sometimes doesn't.
//
// LD SP,nn always carries a compile-time-known immediate, so whenever nn
// falls inside WRAM (0xC000-0xDFFF) or HRAM (0xFF80-0xFFFE) stack.c bakes a
// genuine host pointer into A3 up front (wramBase+(nn-0xC000), or the HRAM
// equivalent) and records the constant needed to convert that host pointer
// back to a guest address (ctx.SPAdjust) alongside the literal guest value
// (ctx.GBSP). PUSH always trusts A3 as a valid pointer — SM83 programs only
// ever point SP at RAM, so this holds in practice. POP still checks
// ctx.SPAdjust==0 at runtime (sentinel for "this block's SP target wasn't
// RAM, A3 is not a pointer") and falls back to reading through ctx.GBSP via
// the ordinary memory callout when it's set.
//
// LD SP,HL and ADD SP,e can't resolve WRAM/HRAM membership at compile time
// since HL/SP are runtime values, so they repeat the same decision as a
// runtime branch instead, and must use ADDA.L rather than ADDA.W to avoid
// sign-extending a guest address with bit 15 set.

const (
	wramStart = 0xC000
	wramEnd   = 0xE000 // exclusive
	hramStart = 0xFF80
	hramEnd   = 0xFFFF // exclusive; 0xFFFF is IE, not HRAM
)

const condAlways = 0xFF // sentinel: emit a plain BRA, not a Bcc

// emitBranchPlaceholder emits a forward branch with a zero displacement and
// returns its position so patchBranch can fix it up once the target address
// is known.
func emitBranchPlaceholder(b *Block, cond uint8) int {
	site := b.Length
	if cond == condAlways {
		emit_bra_w(b, 0)
	} else {
		emit_bcc_opcode_w(b, cond, 0)
	}
	return site
}

func patchBranch(b *Block, site int) {
	disp := int16(b.Length - (site + 2))
	binary.BigEndian.PutUint16(b.Code[site+2:], uint16(disp))
}

// emitResolveSPFromDn takes a runtime 16-bit guest SP value (already
// zero-extended in valReg) and does what stack.c's LD SP,HL case does at
// runtime: stash it as the canonical guest value, then decide WRAM/HRAM/slow
// and set A3 and ctx.SPAdjust accordingly.
func emitResolveSPFromDn(b *Block, wramBase, hramBase uint32, valReg uint8) {
	tmp := otherScratch(valReg)
	emit_move_l_dn_disp_an(b, valReg, CtxGBSP, RegCtx)

	emit_cmpi_l_imm_dn(b, wramStart, valReg)
	skip1 := emitBranchPlaceholder(b, CondCS)
	emit_cmpi_l_imm_dn(b, wramEnd, valReg)
	skip2 := emitBranchPlaceholder(b, CondCC)

	emit_addi_l_dn(b, valReg, ^uint32(wramStart)+1)
	emit_movea_l_imm32(b, RegSP, wramBase)
	emit_adda_l_dn_an(b, valReg, RegSP) // ADDA.L: ADDA.W would sign-extend a >=0x8000 guest address
	emit_move_l_dn(b, tmp, int32(int64(wramStart)-int64(wramBase)))
	emit_move_l_dn_disp_an(b, tmp, CtxSPAdjust, RegCtx)
	doneWram := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, skip1)
	patchBranch(b, skip2)

	emit_cmpi_l_imm_dn(b, hramStart, valReg)
	skip3 := emitBranchPlaceholder(b, CondCS)
	emit_cmpi_l_imm_dn(b, hramEnd, valReg)
	skip4 := emitBranchPlaceholder(b, CondCC)

	emit_addi_l_dn(b, valReg, ^uint32(hramStart)+1)
	emit_movea_l_imm32(b, RegSP, hramBase)
	emit_adda_l_dn_an(b, valReg, RegSP)
	emit_move_l_dn(b, tmp, int32(int64(hramStart)-int64(hramBase)))
	emit_move_l_dn_disp_an(b, tmp, CtxSPAdjust, RegCtx)
	doneHram := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, skip3)
	patchBranch(b, skip4)

	// neither region: A3 is not a valid pointer; sp_adjust=0 flags POP to
	// use the slow ctx.GBSP + memory-callout path instead.
	emit_movea_l_dn_an(b, valReg, RegSP)
	emit_move_l_dn(b, tmp, 0)
	emit_move_l_dn_disp_an(b, tmp, CtxSPAdjust, RegCtx)

	patchBranch(b, doneWram)
	patchBranch(b, doneHram)
}

// compileLdSPnn handles LD SP,nn (0x31). nn is a ROM immediate fixed at
// compile time, so the WRAM/HRAM decision happens in the Go compiler itself
// rather than as emitted branches.
func compileLdSPnn(b *Block, wramBase, hramBase uint32, nn uint16) {
	switch {
	case nn >= wramStart && nn < wramEnd:
		emit_movea_l_imm32(b, RegSP, wramBase+uint32(nn-wramStart))
		emit_move_l_dn(b, RegScratch1, int32(int64(wramStart)-int64(wramBase)))
		emit_move_l_dn_disp_an(b, RegScratch1, CtxSPAdjust, RegCtx)
	case nn >= hramStart && nn < hramEnd:
		emit_movea_l_imm32(b, RegSP, hramBase+uint32(nn-hramStart))
		emit_move_l_dn(b, RegScratch1, int32(int64(hramStart)-int64(hramBase)))
		emit_move_l_dn_disp_an(b, RegScratch1, CtxSPAdjust, RegCtx)
	default:
		emit_movea_l_imm32(b, RegSP, uint32(nn))
		emit_move_l_dn(b, RegScratch1, 0)
		emit_move_l_dn_disp_an(b, RegScratch1, CtxSPAdjust, RegCtx)
	}
	emit_move_l_dn(b, RegScratch1, int32(nn))
	emit_move_l_dn_disp_an(b, RegScratch1, CtxGBSP, RegCtx)
}

// compileLdSPHL handles LD SP,HL (0xF9): HL is a runtime value, so the
// WRAM/HRAM decision is a runtime branch instead of a compile-time one.
func compileLdSPHL(b *Block, wramBase, hramBase uint32) {
	emit_move_l_an_dn(b, RegHL, RegScratch1)
	emit_andi_l_dn(b, RegScratch1, 0xFFFF)
	emitResolveSPFromDn(b, wramBase, hramBase, RegScratch1)
}

// compileAddSPOffset handles ADD SP,e (0xE8). Flags always clear Z and N;
// H/C come from the unsigned byte-level add of SP's low byte and e, the
// same rule SM83 uses for LD HL,SP+e.
func compileAddSPOffset(b *Block, wramBase, hramBase uint32, e int8) {
	emit_move_l_disp_an_dn(b, CtxGBSP, RegCtx, RegScratch1)
	emit_move_w_dn(b, RegScratch2, int16(e))
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp1, RegCtx)
	emit_move_b_dn_disp_an(b, RegScratch2, CtxTemp2, RegCtx)

	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch1)
	emit_move_b_disp_an_dn(b, CtxTemp2, RegCtx, RegScratch2)
	emit_add_b_dn_dn(b, RegScratch2, RegScratch1)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch2)

	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch1)
	emit_move_b_disp_an_dn(b, CtxTemp2, RegCtx, RegScratch2)
	emit_andi_b_dn(b, RegScratch1, 0x0F)
	emit_andi_b_dn(b, RegScratch2, 0x0F)
	emit_add_b_dn_dn(b, RegScratch2, RegScratch1)
	emit_cmp_b_imm_dn(b, RegScratch1, 0x10)
	emitMergeCondBit(b, CondCC, FlagHBit, RegScratch2)

	emit_move_l_disp_an_dn(b, CtxGBSP, RegCtx, RegScratch1)
	emit_move_w_dn(b, RegScratch2, int16(e))
	emit_add_w_dn_dn(b, RegScratch2, RegScratch1)

	emitResolveSPFromDn(b, wramBase, hramBase, RegScratch1)
}

// compileLdHLSPOffset handles LD HL,SP+e (0xF8). The original leaves this
// opcode's flag computation commented out ("nothing depends on this"); real
// SM83 hardware does set Z=0,N=0,H/C from the add, so this keeps the actual
// semantics rather than carrying the omission forward. Reads ctx.GBSP
// directly rather than dereferencing A3, since GBSP stays accurate in both
// fast and slow stack modes.
func compileLdHLSPOffset(b *Block, e int8) {
	emit_move_l_disp_an_dn(b, CtxGBSP, RegCtx, RegScratch1)
	emit_move_w_dn(b, RegScratch2, int16(e))
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp1, RegCtx)
	emit_move_b_dn_disp_an(b, RegScratch2, CtxTemp2, RegCtx)

	emit_add_w_dn_dn(b, RegScratch2, RegScratch1)
	emit_movea_w_dn_an(b, RegScratch1, RegHL)

	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch1)
	emit_move_b_disp_an_dn(b, CtxTemp2, RegCtx, RegScratch2)
	emit_add_b_dn_dn(b, RegScratch2, RegScratch1)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch2)

	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch1)
	emit_move_b_disp_an_dn(b, CtxTemp2, RegCtx, RegScratch2)
	emit_andi_b_dn(b, RegScratch1, 0x0F)
	emit_andi_b_dn(b, RegScratch2, 0x0F)
	emit_add_b_dn_dn(b, RegScratch2, RegScratch1)
	emit_cmp_b_imm_dn(b, RegScratch1, 0x10)
	emitMergeCondBit(b, CondCC, FlagHBit, RegScratch2)
}

// compilePushBC/DE/HL/AF always trust A3 as a valid pointer, matching
// stack.c's PUSH path: SM83 code never points SP outside RAM while pushing.
// High byte is written first at SP-1, low byte second at SP-2, leaving the
// low byte at the lower (and final SP) address, matching guest memory order.
func compilePushBC(b *Block) {
	emit_swap(b, RegBC)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegBC, RegSP)
	emit_swap(b, RegBC)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegBC, RegSP)
}

func compilePushDE(b *Block) {
	emit_swap(b, RegDE)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegDE, RegSP)
	emit_swap(b, RegDE)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegDE, RegSP)
}

func compilePushHL(b *Block) {
	emit_move_w_an_dn(b, RegHL, RegScratch1)
	emit_rol_w_8(b, RegScratch1) // low byte = H
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegScratch1, RegSP)
	emit_ror_w_8(b, RegScratch1) // low byte = L
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegScratch1, RegSP)
}

func compilePushAF(b *Block) {
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegA, RegSP)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn_ind_an(b, RegFlags, RegSP)
}

// emitSlowPopByte pops one byte through ctx.GBSP + the memory-read callout
// instead of through A3, for when ctx.SPAdjust==0 says A3 isn't trustworthy.
// Leaves the popped byte in dest; if dest isn't RegScratch1, the internal
// address/read traffic happens in RegScratch1 and gets copied out, mirroring
// emitLoadReg8's (HL) convention.
func emitSlowPopByte(b *Block, dest uint8) {
	emit_move_l_disp_an_dn(b, CtxGBSP, RegCtx, RegScratch1)
	emitSlowRead(b, RegScratch1)
	if dest != RegScratch1 {
		emit_move_b_dn_dn(b, RegScratch1, dest)
	}
	tmp := otherScratch(dest)
	emit_move_l_disp_an_dn(b, CtxGBSP, RegCtx, tmp)
	emit_addq_l_dn(b, tmp, 1)
	emit_move_l_dn_disp_an(b, tmp, CtxGBSP, RegCtx)
}

// compilePopToScratch pops the guest pair into ctx.Temp1 (low byte) / ctx.Temp2
// (high byte), trying A3 first and falling back to the slow path at runtime
// per ctx.SPAdjust, then loads them into RegScratch1 (hi) / RegScratch2 (lo)
// for the caller to repack. Routing both paths' results through ctx.Temp
// slots (rather than trying to keep both bytes alive across the slow path's
// own D0/D1 traffic) avoids the two pops clobbering each other.
func compilePopToScratch(b *Block) {
	emit_tst_l_disp_an(b, CtxSPAdjust, RegCtx)
	slowSite := emitBranchPlaceholder(b, CondEQ)

	emit_move_b_ind_an_dn(b, RegSP, RegScratch1)
	emit_addq_w_an(b, RegSP, 1)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp1, RegCtx) // lo
	emit_move_b_ind_an_dn(b, RegSP, RegScratch1)
	emit_addq_w_an(b, RegSP, 1)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp2, RegCtx) // hi
	doneSite := emitBranchPlaceholder(b, condAlways)

	patchBranch(b, slowSite)
	emitSlowPopByte(b, RegScratch1)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp1, RegCtx) // lo
	emitSlowPopByte(b, RegScratch1)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxTemp2, RegCtx) // hi

	patchBranch(b, doneSite)
	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch2) // lo
	emit_move_b_disp_an_dn(b, CtxTemp2, RegCtx, RegScratch1) // hi
}

func compilePopBC(b *Block) {
	compilePopToScratch(b)
	emit_swap(b, RegBC)
	emit_move_b_dn_dn(b, RegScratch1, RegBC) // B
	emit_swap(b, RegBC)
	emit_move_b_dn_dn(b, RegScratch2, RegBC) // C
}

func compilePopDE(b *Block) {
	compilePopToScratch(b)
	emit_swap(b, RegDE)
	emit_move_b_dn_dn(b, RegScratch1, RegDE) // D
	emit_swap(b, RegDE)
	emit_move_b_dn_dn(b, RegScratch2, RegDE) // E
}

func compilePopHL(b *Block) {
	compilePopToScratch(b)
	emit_lsl_w_imm_dn(b, 8, RegScratch1)   // H into bits 8-15
	emit_andi_w_dn(b, RegScratch2, 0x00FF) // clean L
	emit_or_l_dn_dn(b, RegScratch2, RegScratch1)
	emit_movea_w_dn_an(b, RegScratch1, RegHL)
}

func compilePopAF(b *Block) {
	compilePopToScratch(b)
	emit_move_b_dn_dn(b, RegScratch1, RegA)
	emit_andi_b_dn(b, RegScratch2, 0xF0) // F's low nibble always reads as 0
	emit_move_b_dn_dn(b, RegScratch2, RegFlags)
}
