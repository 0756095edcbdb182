package main

// Per-opcode guest cycle costs, in 4 MHz t-cycles. original_source's
// instructions.h only declares the table (`extern const struct instruction
// instructions[]`) — the .c file defining its contents wasn't part of the
// retrieved sources — so this is the standard, widely published SM83 timing
// table rather than a port of a specific .c initializer. opcodeCyclesBranch
// holds the cost when a conditional JR/JP/CALL/RET actually branches;
// opcodeCycles holds the not-taken (or unconditional) cost. CB-prefixed
// opcodes are charged separately: 4 cycles for the 0xCB prefix byte itself,
// then cbOpcodeCycles[op] for the sub-opcode.
//
// A slot of 0 marks an opcode this translator never falls through to compile
// directly (CB prefix and the small family of undefined/illegal
// opcodes) — dispatch always special-cases those before consulting the table.
var opcodeCycles = [256]uint8{
	// 0x00-0x0F
	4, 12, 8, 8, 4, 4, 8, 4, 20, 8, 8, 8, 4, 4, 8, 4,
	// 0x10-0x1F
	4, 12, 8, 8, 4, 4, 8, 4, 12, 8, 8, 8, 4, 4, 8, 4,
	// 0x20-0x2F
	8, 12, 8, 8, 4, 4, 8, 4, 8, 8, 8, 8, 4, 4, 8, 4,
	// 0x30-0x3F
	8, 12, 8, 8, 12, 12, 12, 4, 8, 8, 8, 8, 4, 4, 8, 4,
	// 0x40-0x4F
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0x50-0x5F
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0x60-0x6F
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0x70-0x7F (0x76 is HALT, synthesized separately, slot kept for completeness)
	8, 8, 8, 8, 8, 8, 4, 8, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0x80-0x8F
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0x90-0x9F
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0xA0-0xAF
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0xB0-0xBF
	4, 4, 4, 4, 4, 4, 8, 4, 4, 4, 4, 4, 4, 4, 8, 4,
	// 0xC0-0xCF (0xC0/C8/D0/D8 RET cc, 0xC2/CA JP cc, 0xC4/CC CALL cc: not-taken cost)
	8, 12, 12, 16, 12, 16, 8, 16, 8, 16, 12, 0, 12, 24, 8, 16,
	// 0xD0-0xDF
	8, 12, 12, 0, 12, 16, 8, 16, 8, 16, 12, 0, 12, 0, 8, 16,
	// 0xE0-0xEF
	12, 12, 8, 0, 0, 16, 8, 16, 16, 4, 16, 0, 0, 0, 8, 16,
	// 0xF0-0xFF
	12, 12, 8, 4, 0, 16, 8, 16, 12, 8, 16, 4, 0, 0, 8, 16,
}

// opcodeCyclesBranch gives the branch-taken cost for the subset of opcodes
// where it differs from opcodeCycles: JR cc (0x20/0x28/0x30/0x38), JP cc
// (0xC2/0xCA/0xD2/0xDA), CALL cc (0xC4/0xCC/0xD4/0xDC), RET cc
// (0xC0/0xC8/0xD0/0xD8). Every opcode not listed here has a single fixed
// cost regardless of whether a branch was taken.
var opcodeCyclesBranch = map[uint8]uint8{
	0x20: 12, 0x28: 12, 0x30: 12, 0x38: 12,
	0xC0: 20, 0xC8: 20, 0xD0: 20, 0xD8: 20,
	0xC2: 16, 0xCA: 16, 0xD2: 16, 0xDA: 16,
	0xC4: 24, 0xCC: 24, 0xD4: 24, 0xDC: 24,
}

// cbOpcodeCycles is the CB-prefixed sub-opcode table; it does not include
// the 4-cycle cost of the 0xCB prefix byte itself. The (HL)-operand rows
// (register index 6 within each 8-wide group) cost more than register-direct
// rows since they carry a memory access; BIT b,(HL) costs 12 rather than the
// 16 that RES/SET/rotate (HL) forms cost, since BIT never writes back.
var cbOpcodeCycles = [256]uint8{
	// 0x00-0x3F: RLC, RRC, RL, RR, SLA, SRA, SWAP, SRL — 8 groups of 8 regs
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	// 0x40-0x7F: BIT 0-7, reg/-- (HL) rows cost 12, not 16
	8, 8, 8, 8, 8, 8, 12, 8, 8, 8, 8, 8, 8, 8, 12, 8,
	8, 8, 8, 8, 8, 8, 12, 8, 8, 8, 8, 8, 8, 8, 12, 8,
	8, 8, 8, 8, 8, 8, 12, 8, 8, 8, 8, 8, 8, 8, 12, 8,
	8, 8, 8, 8, 8, 8, 12, 8, 8, 8, 8, 8, 8, 8, 12, 8,
	// 0x80-0xBF: RES 0-7
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	// 0xC0-0xFF: SET 0-7
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
	8, 8, 8, 8, 8, 8, 16, 8, 8, 8, 8, 8, 8, 8, 16, 8,
}

// emitBaseOpcodeCycles charges the base (not-taken/unconditional) cost of
// opcode op. Callers that later discover a branch was actually taken call
// emitBranchExtraCycles to charge the difference.
func emitBaseOpcodeCycles(b *Block, op uint8) {
	emit_add_cycles(b, int(opcodeCycles[op]))
}

// emitBranchExtraCycles charges the extra cycles for a taken conditional
// branch, on top of the base cost already charged by emitBaseOpcodeCycles.
func emitBranchExtraCycles(b *Block, op uint8) {
	if taken, ok := opcodeCyclesBranch[op]; ok {
		if extra := int(taken) - int(opcodeCycles[op]); extra > 0 {
			emit_add_cycles(b, extra)
		}
	}
}

func emitCBOpcodeCycles(b *Block, cbOp uint8) {
	emit_add_cycles(b, 4+int(cbOpcodeCycles[cbOp]))
}
