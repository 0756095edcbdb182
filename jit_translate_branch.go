package main

// Control-transfer translation (grounded on
// original_source/compiler/branches.c). SM83 condition tests read flag bits
// out of D7 at fixed SM83 positions, not host CCR bits, so every conditional
// branch here starts with a btst on D7 and only then reads the host
// condition btst just set â€” the same flag-layout mismatch jit_flags.go's
// header explains for arithmetic ops applies here too.
//
// Per branches.c/compiler.c, only unconditional JP nn (0xC3) uses the
// self-patching exit (emit_patchable_exit); every other control transfer â€”
// JR, conditional JP, CALL (conditional or not), RET/RETI, RST â€” resolves
// its target into D3 and falls through to the plain dynamic dispatch jump
// (emit_dispatch_jump). This file preserves that split exactly.

type sm83Cond struct {
	bit     uint8
	whenSet bool
}

var (
	condNZ = sm83Cond{FlagZBit, false}
	condZ  = sm83Cond{FlagZBit, true}
	condNC = sm83Cond{FlagCBit, false}
	condC  = sm83Cond{FlagCBit, true}
)

// emitTestCond does the guest-flag btst and returns the host condition
// ("did the branch-taken case just happen") to branch on.
func emitTestCond(b *Block, c sm83Cond) uint8 {
	emit_btst_imm_dn(b, c.bit, RegFlags)
	if c.whenSet {
		return CondNE // btst: host Z=0 iff the tested bit was 1
	}
	return CondEQ
}

func invertCond(c uint8) uint8 {
	switch c {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	}
	return c
}

// compileJr handles unconditional JR e (0x18).
func compileJr(b *Block, targetPC uint16) {
	emit_move_w_dn(b, RegNextPC, int16(targetPC))
	emit_dispatch_jump(b)
}

// compileJrCond handles JR NZ/Z/NC/C,e. op is the JR opcode byte, used only
// to look up the branch-taken cycle surcharge. Reports whether it fused the
// branch into a native host Bcc directly to an in-block target (§8 scenario
// 2); when it does, the block is still open and translation must continue
// past this instruction instead of ending the block.
func compileJrCond(b *Block, op uint8, c sm83Cond, takenPC, fallPC uint16) bool {
	hostCond := emitTestCond(b, c)
	if target, ok := b.nativeBackwardTarget(takenPC, fallPC); ok {
		compileFusedBackwardBranch(b, op, hostCond, target)
		return true
	}
	takeSite := emitBranchPlaceholder(b, hostCond)
	emit_move_w_dn(b, RegNextPC, int16(fallPC))
	done := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, takeSite)
	emitBranchExtraCycles(b, op)
	emit_move_w_dn(b, RegNextPC, int16(takenPC))
	patchBranch(b, done)
	emit_dispatch_jump(b)
	return false
}

// compileFusedBackwardBranch emits a real host branch straight to an
// already-compiled earlier offset in this same block instead of resolving
// the target through D3/the dispatcher: skip forward over the taken-cycle
// surcharge and the backward jump when the condition doesn't hold, otherwise
// charge the surcharge and jump. No patch site is created and no chain exit
// is taken â€” the loop body never leaves native code while it keeps iterating.
func compileFusedBackwardBranch(b *Block, op uint8, hostCond uint8, targetOffset uint16) {
	notTaken := emitBranchPlaceholder(b, invertCond(hostCond))
	emitBranchExtraCycles(b, op)
	site := b.Length
	emit_bra_w(b, int16(int(targetOffset)-(site+2)))
	patchBranch(b, notTaken)
}

// compileJpImm handles unconditional JP nn (0xC3) â€” the one control transfer
// that gets the self-patching exit, so a hot loop's backward jump becomes a
// direct JMP.L into its own cached block after the first pass through it.
func compileJpImm(b *Block, targetPC uint16) {
	emit_move_w_dn(b, RegNextPC, int16(targetPC))
	b.patchSite = emit_patchable_exit(b)
}

// compileJpCond handles JP NZ/Z/NC/C,nn.
func compileJpCond(b *Block, op uint8, c sm83Cond, takenPC, fallPC uint16) {
	hostCond := emitTestCond(b, c)
	takeSite := emitBranchPlaceholder(b, hostCond)
	emit_move_w_dn(b, RegNextPC, int16(fallPC))
	done := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, takeSite)
	emitBranchExtraCycles(b, op)
	emit_move_w_dn(b, RegNextPC, int16(takenPC))
	patchBranch(b, done)
	emit_dispatch_jump(b)
}

// compileJpHL handles JP (HL) (0xE9): target is a runtime value, so it can
// never be the self-patching exit â€” there is nothing compile-time-constant
// to bake into a JMP.L.
func compileJpHL(b *Block) {
	emit_move_l_an_dn(b, RegHL, RegScratch1)
	emit_andi_l_dn(b, RegScratch1, 0xFFFF)
	emit_move_l_dn_dn(b, RegScratch1, RegNextPC)
	emit_dispatch_jump(b)
}

// emitPushReturnAddr pushes a 16-bit return address the same way PUSH rr
// does: high byte at the higher address, low byte at the lower (and final
// SP) address.
func emitPushReturnAddr(b *Block, retPC uint16) {
	hi, lo := byte(retPC>>8), byte(retPC)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn(b, RegScratch1, int8(hi))
	emit_move_b_dn_ind_an(b, RegScratch1, RegSP)
	emit_subq_w_an(b, RegSP, 1)
	emit_move_b_dn(b, RegScratch1, int8(lo))
	emit_move_b_dn_ind_an(b, RegScratch1, RegSP)
}

// compileCall handles unconditional CALL nn (0xCD).
func compileCall(b *Block, targetPC, retPC uint16) {
	emitPushReturnAddr(b, retPC)
	emit_move_w_dn(b, RegNextPC, int16(targetPC))
	emit_dispatch_jump(b)
}

// compileCallCond handles CALL NZ/Z/NC/C,nn.
func compileCallCond(b *Block, op uint8, c sm83Cond, targetPC, retPC uint16) {
	hostCond := emitTestCond(b, c)
	notTaken := emitBranchPlaceholder(b, invertCond(hostCond))
	emitBranchExtraCycles(b, op)
	emitPushReturnAddr(b, retPC)
	emit_move_w_dn(b, RegNextPC, int16(targetPC))
	done := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, notTaken)
	emit_move_w_dn(b, RegNextPC, int16(retPC))
	patchBranch(b, done)
	emit_dispatch_jump(b)
}

// emitPopPCToD3 pops a 16-bit address the same way POP rr does â€” through
// compilePopToScratch's fast-A3/slow-ctx.GBSP dual path â€” and lands it in
// D3 for the dispatcher. Shared by RET, RETI and RET cc.
func emitPopPCToD3(b *Block) {
	compilePopToScratch(b) // RegScratch1=hi, RegScratch2=lo
	emit_lsl_w_imm_dn(b, 8, RegScratch1)
	emit_andi_w_dn(b, RegScratch2, 0x00FF)
	emit_or_l_dn_dn(b, RegScratch2, RegScratch1)
	emit_move_l_dn_dn(b, RegScratch1, RegNextPC)
}

// compileRet handles unconditional RET (0xC9).
func compileRet(b *Block) {
	emitPopPCToD3(b)
	emit_dispatch_jump(b)
}

// compileReti handles RETI (0xD9): RET plus an unconditional interrupt
// enable, with no one-instruction EI delay to model (IME takes effect
// immediately on RETI per SM83 semantics, unlike plain EI).
func compileReti(b *Block) {
	emitPopPCToD3(b)
	emitEIDI(b, true)
	emit_dispatch_jump(b)
}

// compileRetCond handles RET NZ/Z/NC/C. op is the RET cc opcode byte, used
// only for the branch-taken cycle surcharge.
func compileRetCond(b *Block, op uint8, c sm83Cond, fallPC uint16) {
	hostCond := emitTestCond(b, c)
	notTaken := emitBranchPlaceholder(b, invertCond(hostCond))
	emitBranchExtraCycles(b, op)
	emitPopPCToD3(b)
	done := emitBranchPlaceholder(b, condAlways)
	patchBranch(b, notTaken)
	emit_move_w_dn(b, RegNextPC, int16(fallPC))
	patchBranch(b, done)
	emit_dispatch_jump(b)
}

// compileRst handles RST n (0xC7/CF/D7/DF/E7/EF/F7/FF): a CALL to one of the
// eight fixed page-zero vectors.
func compileRst(b *Block, vector uint8, retPC uint16) {
	emitPushReturnAddr(b, retPC)
	emit_move_w_dn(b, RegNextPC, int16(uint16(vector)))
	emit_dispatch_jump(b)
}

// compileEI/compileDI handle 0xFB/0xF3. Neither ends the block â€” the
// dispatcher keeps translating straight into the next guest opcode, exactly
// like any other non-branching instruction.
func compileEI(b *Block) { emitEIDI(b, true) }
func compileDI(b *Block) { emitEIDI(b, false) }
