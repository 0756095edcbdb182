package main

// Register-load translation (grounded on
// original_source/compiler/reg_loads.c's compile_reg_load). The original
// hand-writes all 64 LD r,r' cases as one giant switch because C has no
// convenient way to parameterize over "which register" at this level
// without a jump table of its own. Go does: this file generalizes the
// register-access idiom reg_loads.c repeats case-by-case into one pair of
// helpers keyed by the standard SM83 register-field encoding, the same
// generalization cpu_z80.go already applies to its own opcode tables.
//
// SM83 8-bit register field encoding, shared by LD r,r', the 0x80-0xBF ALU
// block, and the CB-prefixed block: 0=B 1=C 2=D 3=E 4=H 5=L 6=(HL) 7=A.
const (
	regB     = 0
	regC     = 1
	regD     = 2
	regE     = 3
	regH     = 4
	regL     = 5
	regHLMem = 6
	regA     = 7
)

// SM83 16-bit register-pair field encoding used by LD rr,nn / INC rr /
// DEC rr / ADD HL,rr: 0=BC 1=DE 2=HL 3=SP.
const (
	pairBC = 0
	pairDE = 1
	pairHL = 2
	pairSP = 3
)

func otherScratch(used uint8) uint8 {
	if used == RegScratch1 {
		return RegScratch2
	}
	return RegScratch1
}

// emitLoadReg8 loads SM83 register code into dest (a Dn). code 6 ((HL))
// goes through the slow-path memory callout and always leaves its result in
// RegScratch1 regardless of dest — callers passing dest==RegScratch1 avoid
// the extra copy reg_loads.c's own (HL) cases don't need either.
func emitLoadReg8(b *Block, code uint8, dest uint8) {
	switch code {
	case regB:
		emit_swap(b, RegBC)
		emit_move_b_dn_dn(b, RegBC, dest)
		emit_swap(b, RegBC)
	case regC:
		emit_move_b_dn_dn(b, RegBC, dest)
	case regD:
		emit_swap(b, RegDE)
		emit_move_b_dn_dn(b, RegDE, dest)
		emit_swap(b, RegDE)
	case regE:
		emit_move_b_dn_dn(b, RegDE, dest)
	case regH:
		emit_move_w_an_dn(b, RegHL, dest)
		emit_rol_w_8(b, dest)
	case regL:
		emit_move_w_an_dn(b, RegHL, dest)
	case regHLMem:
		emit_move_w_an_dn(b, RegHL, dest)
		emitSlowRead(b, dest)
	case regA:
		emit_move_b_dn_dn(b, RegA, dest)
	}
}

// emitStoreReg8 stores src's low byte into SM83 register code. H/L and
// (HL) need a second scratch register to preserve the other half of the
// HL word (or the address) across the store; otherScratch picks whichever
// of D0/D1 src isn't, exactly as reg_loads.c's swap-then-restore bracket
// for B/D/H needs a temp that isn't the value being moved.
func emitStoreReg8(b *Block, code uint8, src uint8) {
	switch code {
	case regB:
		emit_swap(b, RegBC)
		emit_move_b_dn_dn(b, src, RegBC)
		emit_swap(b, RegBC)
	case regC:
		emit_move_b_dn_dn(b, src, RegBC)
	case regD:
		emit_swap(b, RegDE)
		emit_move_b_dn_dn(b, src, RegDE)
		emit_swap(b, RegDE)
	case regE:
		emit_move_b_dn_dn(b, src, RegDE)
	case regH:
		tmp := otherScratch(src)
		emit_move_w_an_dn(b, RegHL, tmp)
		emit_rol_w_8(b, tmp)
		emit_move_b_dn_dn(b, src, tmp)
		emit_ror_w_8(b, tmp)
		emit_movea_w_dn_an(b, tmp, RegHL)
	case regL:
		tmp := otherScratch(src)
		emit_move_w_an_dn(b, RegHL, tmp)
		emit_move_b_dn_dn(b, src, tmp)
		emit_movea_w_dn_an(b, tmp, RegHL)
	case regHLMem:
		tmp := otherScratch(src)
		emit_move_w_an_dn(b, RegHL, tmp)
		emitSlowWrite(b, tmp, src)
	case regA:
		emit_move_b_dn_dn(b, src, RegA)
	}
}

// compileLdRR handles the 0x40-0x7F block (minus 0x76, HALT, which the
// branch/control category owns). Same-register forms (including the
// degenerate (HL),(HL) — never reached, since that encoding is HALT) are
// skipped as pure no-ops; the guest-cycle cost is still charged by the
// caller's per-opcode timing table regardless.
func compileLdRR(b *Block, op byte) {
	dest := (op >> 3) & 7
	src := op & 7
	if dest == src {
		return
	}
	emitLoadReg8(b, src, RegScratch1)
	emitStoreReg8(b, dest, RegScratch1)
}

// compileLdRImm8 handles LD r,n / LD (HL),n. n is a ROM byte fixed at
// compile time, so it is baked in as a 68000 immediate rather than fetched
// at run time.
func compileLdRImm8(b *Block, dest uint8, n byte) {
	if dest == regHLMem {
		emit_move_w_an_dn(b, RegHL, RegScratch1)
		emit_move_b_dn(b, RegScratch2, int8(n))
		emitSlowWrite(b, RegScratch1, RegScratch2)
		return
	}
	emit_move_b_dn(b, RegScratch1, int8(n))
	emitStoreReg8(b, dest, RegScratch1)
}

// emitPairToAddr reconstructs a genuine 16-bit address from BC/DE's split
// 0x00BB00CC host encoding: B (bits 16-23) and C (bits 0-7) don't sit where
// a 68000 address register needs them, so they're extracted byte-by-byte
// and recombined. HL needs none of this — it already lives in A2 as a
// contiguous word (§6) — which is why only LD (BC)/(DE),A and their reverse
// forms pay this cost.
func emitPairToAddr(b *Block, pairReg uint8, dest uint8) {
	tmp := otherScratch(dest)
	emit_moveq_dn(b, dest, 0)
	emit_move_b_dn_dn(b, pairReg, dest) // dest low byte = low half of the pair (C or E)
	emit_moveq_dn(b, tmp, 0)
	emit_swap(b, pairReg)
	emit_move_b_dn_dn(b, pairReg, tmp) // tmp low byte = high half of the pair (B or D)
	emit_swap(b, pairReg)
	emit_lsl_w_imm_dn(b, 8, tmp)
	emit_or_l_dn_dn(b, tmp, dest)
}

// compileLdIndirectPairA handles LD (BC),A / LD (DE),A / LD A,(BC) / LD A,(DE).
func compileLdIndirectPairA(b *Block, pairReg uint8, store bool) {
	emitPairToAddr(b, pairReg, RegScratch1)
	if store {
		emit_move_b_dn_dn(b, RegA, RegScratch2)
		emitSlowWrite(b, RegScratch1, RegScratch2)
	} else {
		emitSlowRead(b, RegScratch1)
		emit_move_b_dn_dn(b, RegScratch1, RegA)
	}
}

// compileLdHLIndirectA handles LD (HL+/-),A and LD A,(HL+/-); inc is +1, -1
// or 0 (plain (HL),A / A,(HL) reuse this with inc==0, though those also
// exist as ordinary regHLMem cases above — kept separate since the postfix
// adjust is cheap to share here).
func compileLdHLIndirectA(b *Block, store bool, inc int) {
	emit_move_w_an_dn(b, RegHL, RegScratch1)
	if store {
		emitSlowWrite(b, RegScratch1, RegA)
	} else {
		emitSlowRead(b, RegScratch1)
		emit_move_b_dn_dn(b, RegScratch1, RegA)
	}
	switch {
	case inc > 0:
		emit_addq_w_an(b, RegHL, 1)
	case inc < 0:
		emit_subq_w_an(b, RegHL, 1)
	}
}

// compileLdhImm handles LDH (n),A / LDH A,(n): n is a compile-time byte,
// so the 0xFF00|n address is a baked-in constant.
func compileLdhImm(b *Block, store bool, n byte) {
	addr := int16(uint16(0xFF00) | uint16(n))
	emit_move_w_dn(b, RegScratch1, addr)
	if store {
		emit_move_b_dn_dn(b, RegA, RegScratch2)
		emitSlowWrite(b, RegScratch1, RegScratch2)
	} else {
		emitSlowRead(b, RegScratch1)
		emit_move_b_dn_dn(b, RegScratch1, RegA)
	}
}

// compileLdCIndirect handles LD (C),A / LD A,(C): address is 0xFF00 + the
// runtime value of C.
func compileLdCIndirect(b *Block, store bool) {
	emit_moveq_dn(b, RegScratch1, 0)
	emit_move_b_dn_dn(b, RegBC, RegScratch1) // C is already the pair's low byte
	emit_addi_l_dn(b, RegScratch1, 0xFF00)
	if store {
		emit_move_b_dn_dn(b, RegA, RegScratch2)
		emitSlowWrite(b, RegScratch1, RegScratch2)
	} else {
		emitSlowRead(b, RegScratch1)
		emit_move_b_dn_dn(b, RegScratch1, RegA)
	}
}

// compileLdAbsA handles LD (nn),A / LD A,(nn): nn is a compile-time
// 16-bit address.
func compileLdAbsA(b *Block, store bool, nn uint16) {
	emit_move_w_dn(b, RegScratch1, int16(nn))
	if store {
		emit_move_b_dn_dn(b, RegA, RegScratch2)
		emitSlowWrite(b, RegScratch1, RegScratch2)
	} else {
		emitSlowRead(b, RegScratch1)
		emit_move_b_dn_dn(b, RegScratch1, RegA)
	}
}

// compileLd16Imm handles LD BC/DE/HL,nn. BC/DE are rebuilt directly in their
// split host encoding; HL is zero-extended into its address register
// (movea.l, not movea.w, to avoid sign-extending a high-bit-set word into
// the register's upper 16 bits). LD SP,nn is NOT handled here — it needs
// the compile-time WRAM/HRAM base addresses to decide the fast/slow stack
// pointer encoding, so it lives as compileLdSPnn in jit_translate_stack.go.
func compileLd16Imm(b *Block, pair uint8, nn uint16) {
	hi, lo := byte(nn>>8), byte(nn)
	switch pair {
	case pairBC:
		emit_move_l_dn(b, RegBC, int32(splitPair(hi, lo)))
	case pairDE:
		emit_move_l_dn(b, RegDE, int32(splitPair(hi, lo)))
	case pairHL:
		emit_movea_l_imm32(b, RegHL, uint32(nn))
	}
}

// compileLdAbsSP handles LD (nn),SP (0x08): a genuine 16-bit store, the one
// place this port needs the Write16 callout for an ordinary load/store
// rather than the cycle-timing MMIO path.
func compileLdAbsSP(b *Block, nn uint16) {
	emit_move_l_disp_an_dn(b, CtxSPAdjust, RegCtx, RegScratch1)
	emit_move_l_an_dn(b, RegSP, RegScratch2)
	emit_add_l_dn_dn(b, RegScratch1, RegScratch2) // guest SP = A3 + SPAdjust
	emit_move_w_dn(b, RegScratch1, int16(nn))
	emitSlowWrite16(b, RegScratch1, RegScratch2)
}
