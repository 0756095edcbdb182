package main

// Single-byte rotate-A opcodes RLCA/RRCA/RLA/RRA (0x07/0x0F/0x17/0x1F).
// compiler.c compiles these with the same raw `move sr,D_FLAGS` CCR-copy
// shortcut flags.c uses for the 8-bit ALU block — wrong here for the same
// reason noted in jit_flags.go's header: SM83 and 68000 flag bit positions
// don't line up. These reuse the Scc-based synthesis instead. Unlike their
// CB-prefixed cousins (RLC/RL r), these always clear Z regardless of the
// result, which is the one place SM83 ops in this family diverge from the
// CB block.

func compileRlca(b *Block) {
	emit_rol_b_imm(b, 1, RegA)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch1)
}

func compileRrca(b *Block) {
	emit_ror_b_imm(b, 1, RegA)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch1)
}

func compileRla(b *Block) {
	emitCarryIn(b, RegScratch2)
	emit_lsl_b_imm_dn(b, 1, RegA)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch1)
	emit_or_b_dn_dn(b, RegScratch2, RegA) // old carry -> bit 0
}

func compileRra(b *Block) {
	emitCarryIn(b, RegScratch2)
	emit_lsr_b_imm_dn(b, 1, RegA)
	emitClearFlagBits(b, FlagZBit, FlagNBit, FlagHBit, FlagCBit)
	emitMergeCondBit(b, CondCS, FlagCBit, RegScratch1)
	emit_lsl_b_imm_dn(b, 7, RegScratch2) // old carry -> bit 7
	emit_or_b_dn_dn(b, RegScratch2, RegA)
}
