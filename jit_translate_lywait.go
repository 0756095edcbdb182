package main

// LY-poll and HALT-vblank-wait synthesis (grounded on
// original_source/compiler/compiler.c's compile_ly_wait/compile_halt). Both
// recognize a guest polling loop that can never do anything but burn cycles
// until the PPU's scanline counter crosses a fixed point, and replace it
// with a direct jump to the moment it would have exited — the interpreter
// never actually executes the spin. compile_ly_wait is invoked by the main
// dispatcher when it recognizes the `ldh a,[$44]; cp N; jr cc,back` idiom
// ahead of the current instruction; compile_halt fires on every HALT and
// treats the next VBlank as its only wake event.
//
// A frame is 70224 cycles long, VBlank begins at cycle 65664, and each
// scanline is 456 cycles — the same constants the original hardcodes.

const (
	cyclesPerFrame  = 70224
	cyclesPerLine   = 456
	vblankStartLine = 144
	totalLines      = 154
	vblankCycle     = vblankStartLine * cyclesPerLine // 65664
)

// compileLyWait synthesizes the cycle-skip for `ldh a,[$44]; cp n; jr cc,back`.
// jrOpcode selects which exit condition the loop was spinning on:
//
//	0x20 (jr nz): loop while LY != n, exits at LY == n       -> wait for n
//	0x28 (jr z):  loop while LY == n, exits at LY != n       -> wait for n+1
//	0x38 (jr c):  loop while LY < n,  exits at LY >= n       -> wait for n
func compileLyWait(b *Block, targetLY uint8, jrOpcode uint8, nextPC uint16) {
	waitLY := targetLY
	if jrOpcode == 0x28 {
		waitLY = uint8((uint16(targetLY) + 1) % totalLines)
	}
	targetCycles := uint32(waitLY) * cyclesPerLine

	emit_movea_l_disp_an_an(b, CtxFrameCyclesPtr, RegCtx, RegAScratch1)
	emit_move_l_disp_an_dn(b, 0, RegAScratch1, RegScratch1) // D0 = frame_cycles_so_far

	emit_cmpi_l_imm_dn(b, targetCycles, RegScratch1)
	nextFrame := emitBranchPlaceholder(b, CondCC) // frame_cycles >= target: wait until next frame

	emit_move_l_dn(b, RegScratch2, int32(targetCycles))
	emit_sub_l_dn_dn(b, RegScratch1, RegScratch2) // D1 = target - frame_cycles_so_far
	done := emitBranchPlaceholder(b, condAlways)

	patchBranch(b, nextFrame)
	emit_move_l_dn(b, RegScratch2, int32(cyclesPerFrame+targetCycles))
	emit_sub_l_dn_dn(b, RegScratch1, RegScratch2)

	patchBranch(b, done)
	// Add the computed wait onto whatever the block has already charged (the
	// LDH's own cycles; the CP and JR of the idiom are not charged separately),
	// rather than overwriting it — cycles_accumulated is monotonic within a block.
	emit_add_l_dn_dn(b, RegScratch2, RegCycles)
	emit_moveq_dn(b, RegA, int8(waitLY)) // raw byte pattern; A is only ever read back via .b moves
	emit_move_w_dn(b, RegNextPC, int16(nextPC))
	emit_dispatch_jump(b)
}

// compileHalt synthesizes every HALT (0x76) as a wait for VBlank: skip
// straight to the next VBlank boundary instead of interpreting the spin
// cycle by cycle. Other interrupt sources are not considered; a HALT
// waiting on timer, serial or joypad still sleeps until the next VBlank.
func compileHalt(b *Block, nextPC uint16) {
	emit_movea_l_disp_an_an(b, CtxFrameCyclesPtr, RegCtx, RegAScratch1)
	emit_move_l_disp_an_dn(b, 0, RegAScratch1, RegScratch1)

	emit_cmpi_l_imm_dn(b, vblankCycle, RegScratch1)
	inVblank := emitBranchPlaceholder(b, CondCC)

	emit_move_l_dn(b, RegScratch2, vblankCycle)
	emit_sub_l_dn_dn(b, RegScratch1, RegScratch2)
	done := emitBranchPlaceholder(b, condAlways)

	patchBranch(b, inVblank)
	emit_move_l_dn(b, RegScratch2, int32(cyclesPerFrame+vblankCycle))
	emit_sub_l_dn_dn(b, RegScratch1, RegScratch2)

	patchBranch(b, done)
	emit_add_l_dn_dn(b, RegScratch2, RegCycles)
	emit_move_w_dn(b, RegNextPC, int16(nextPC))
	emit_dispatch_jump(b)
}
