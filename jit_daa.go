package main

// DAA (0x27) and its tracking hooks (grounded on
// original_source/compiler/alu.c's compile_daa_track_add/compile_daa_track_sub
// and the 0x27 case of compile_alu_op).
//
// DAA has no CCR of its own to inspect after the fact, so the preceding
// 8-bit add/sub/adc/sbc stashes the accumulator's pre-op value and its N
// direction into ctx.DAAState; DAA reads both back to decide which BCD
// correction to apply and to derive H (H has no separate storage — it's
// re-derived here from how much the low nibble moved, same trick the
// original uses: for an add, H is true iff the post-op nibble is smaller
// than the pre-op one; for a sub, iff it's larger).

// DAAResult is the expected post-DAA accumulator and flags for one
// (a, n, h, c) input, per the textbook SM83 BCD-correction algorithm (the
// same one pandocs documents): independent of compileDaa's emitted
// nibble-comparison trick, so a test can confirm the two agree.
type DAAResult struct {
	A    byte
	Z, C bool
}

// DAATable returns, for every one of the 2048 (a, n, h, c) combinations, the
// DAAResult a real SM83 DAA instruction produces. H is always cleared by
// DAA itself, so it isn't part of DAAResult.
func DAATable() map[[4]uint8]DAAResult {
	table := make(map[[4]uint8]DAAResult, 2048)
	for a := 0; a < 256; a++ {
		for n := 0; n < 2; n++ {
			for h := 0; h < 2; h++ {
				for c := 0; c < 2; c++ {
					adj := 0
					carryOut := c != 0
					if h != 0 || (n == 0 && a&0x0F > 9) {
						adj |= 0x06
					}
					if c != 0 || (n == 0 && a > 0x99) {
						adj |= 0x60
						carryOut = true
					}
					result := a
					if n != 0 {
						result -= adj
					} else {
						result += adj
					}
					result &= 0xFF
					table[[4]uint8{uint8(a), uint8(n), uint8(h), uint8(c)}] = DAAResult{
						A: byte(result),
						Z: result == 0,
						C: carryOut,
					}
				}
			}
		}
	}
	return table
}

func compileDaaTrackAdd(b *Block) {
	emit_move_b_dn_disp_an(b, RegA, CtxDAAState, RegCtx)
	emit_moveq_dn(b, RegScratch1, 0)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxDAAState+1, RegCtx)
}

func compileDaaTrackSub(b *Block) {
	emit_move_b_dn_disp_an(b, RegA, CtxDAAState, RegCtx)
	emit_moveq_dn(b, RegScratch1, 1)
	emit_move_b_dn_disp_an(b, RegScratch1, CtxDAAState+1, RegCtx)
}

// compileDaa handles 0x27. Unlike the original, which finishes by masking
// the flags register down to "keep only C" (wiping N along with Z/H), this
// preserves N as SM83 DAA actually requires — DAA never changes whether the
// preceding op was an add or a subtract, it only corrects A for BCD and
// reports Z/H/C. See DESIGN.md.
func compileDaa(b *Block) {
	emit_move_b_disp_an_dn(b, CtxDAAState, RegCtx, RegScratch1) // D0 = old_A (pre-op)
	emit_move_b_dn_dn(b, RegA, RegScratch2)
	emit_andi_b_dn(b, RegScratch2, 0x0F) // D1 = current A & 0xF (post-op)

	emit_move_b_dn_disp_an(b, RegScratch2, CtxTemp1, RegCtx) // stash D1 across the N load
	emit_move_b_disp_an_dn(b, CtxDAAState+1, RegCtx, RegScratch2)
	emit_tst_b_dn(b, RegScratch2)
	subSite := emitBranchPlaceholder(b, CondNE)
	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch2)

	// === addition path (N=0) ===
	emit_btst_imm_dn(b, FlagCBit, RegFlags)
	skip99 := emitBranchPlaceholder(b, CondNE)
	emit_cmp_b_imm_dn(b, RegA, 0x99)
	skipAdd60 := emitBranchPlaceholder(b, CondLS)
	emit_addi_b_dn(b, RegA, 0x60)
	emitSetFlagBitConst(b, FlagCBit, true)
	patchBranch(b, skip99)
	patchBranch(b, skipAdd60)

	emit_andi_b_dn(b, RegScratch1, 0x0F)          // D0 = old_A & 0xF
	emit_cmp_b_dn_dn(b, RegScratch1, RegScratch2) // D1 - D0
	hClearAdd := emitBranchPlaceholder(b, CondCC) // D1>=D0: no wrap, check plain nibble value
	emit_addi_b_dn(b, RegA, 0x06)
	addDone := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, hClearAdd)
	emit_cmp_b_imm_dn(b, RegScratch2, 0x09)
	skipAdd06 := emitBranchPlaceholder(b, CondLS)
	emit_addi_b_dn(b, RegA, 0x06)
	patchBranch(b, skipAdd06)
	finishFromAdd := emitBranchPlaceholder(b, condAlways)

	// === subtraction path (N=1) ===
	patchBranch(b, subSite)
	emit_move_b_disp_an_dn(b, CtxTemp1, RegCtx, RegScratch2) // D1 = current A & 0xF
	emit_btst_imm_dn(b, FlagCBit, RegFlags)
	skipSub60 := emitBranchPlaceholder(b, CondEQ)
	emit_subi_b_dn(b, RegA, 0x60)
	patchBranch(b, skipSub60)

	emit_move_b_disp_an_dn(b, CtxDAAState, RegCtx, RegScratch1)
	emit_andi_b_dn(b, RegScratch1, 0x0F)
	emit_cmp_b_dn_dn(b, RegScratch1, RegScratch2) // D1 - D0
	skipSub06 := emitBranchPlaceholder(b, CondLS)  // D1<=D0: no wrap, no correction
	emit_subi_b_dn(b, RegA, 0x06)
	patchBranch(b, skipSub06)

	patchBranch(b, addDone)
	patchBranch(b, finishFromAdd)

	// === finish: Z from the corrected A, H always cleared, C/N untouched ===
	emitClearFlagBits(b, FlagHBit)
	emit_bclr_imm_dn(b, FlagZBit, RegFlags)
	emit_tst_b_dn(b, RegA)
	emitMergeCondBit(b, CondEQ, FlagZBit, RegScratch1)
}
