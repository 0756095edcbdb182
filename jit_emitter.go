package main

// Emitters append real 68000 instruction encodings to a block's code buffer.
// They are dumb: they know nothing about SM83 flags or control flow, only
// bit layouts. Correctness of the encoding is this file's entire job; the
// translator (jit_translate*.go) decides which sequence of emits a given
// guest opcode needs.
//
// 68000 addressing-mode encoding used throughout (standard M68000 PRM):
// mode/reg fields: Dn direct=000, An direct=001, (An)=010, (An)+=011,
// -(An)=100, d16(An)=101, immediate=111/100, absolute long=111/001.
const (
	eaModeDn     = 0b000
	eaModeAn     = 0b001
	eaModeAnInd  = 0b010
	eaModeAnPost = 0b011
	eaModeAnPre  = 0b100
	eaModeAnDisp = 0b101
	eaModeAnIdx  = 0b110
	eaModeExt    = 0b111
	eaRegAbsL    = 0b001
	eaRegImm     = 0b100
)

// MOVE size codes (note: these differ from the size codes used by
// ADD/SUB/CMP/shift instructions, which is a genuine 68000 wart).
const (
	moveSizeByte = 0b01
	moveSizeWord = 0b11
	moveSizeLong = 0b10
)

const (
	opSizeByte = 0b00
	opSizeWord = 0b01
	opSizeLong = 0b10
)

func eaBits(mode, reg uint8) uint8 { return (mode << 3) | (reg & 7) }

func (b *Block) emitByte(v byte) {
	b.Code[b.Length] = v
	b.Length++
}

func (b *Block) emitWord(v uint16) {
	b.emitByte(byte(v >> 8))
	b.emitByte(byte(v))
}

func (b *Block) emitLong(v uint32) {
	b.emitWord(uint16(v >> 16))
	b.emitWord(uint16(v))
}

func encodeMove(size uint8, dMode, dReg, sMode, sReg uint8) uint16 {
	return uint16(size)<<12 | uint16(dReg&7)<<9 | uint16(dMode&7)<<6 | uint16(sMode&7)<<3 | uint16(sReg&7)
}

// --- moves, loads of immediates ---

func emit_moveq_dn(b *Block, reg uint8, imm int8) {
	b.emitWord(0x7000 | uint16(reg&7)<<9 | uint16(uint8(imm)))
}

func emit_move_b_dn(b *Block, reg uint8, imm int8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeDn, reg, eaModeExt, eaRegImm))
	b.emitWord(uint16(uint8(imm)))
}

func emit_move_w_dn(b *Block, reg uint8, imm int16) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, reg, eaModeExt, eaRegImm))
	b.emitWord(uint16(imm))
}

func emit_move_l_dn(b *Block, reg uint8, imm int32) {
	b.emitWord(encodeMove(moveSizeLong, eaModeDn, reg, eaModeExt, eaRegImm))
	b.emitLong(uint32(imm))
}

func emit_move_l_dn_dn(b *Block, src, dest uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeDn, dest, eaModeDn, src))
}

func emit_move_w_dn_dn(b *Block, src, dest uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, dest, eaModeDn, src))
}

func emit_move_b_dn_dn(b *Block, src, dest uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeDn, dest, eaModeDn, src))
}

func emit_move_w_an_dn(b *Block, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, dreg, eaModeAn, areg))
}

func emit_movea_w_dn_an(b *Block, dreg, areg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAn, areg, eaModeDn, dreg))
}

func emit_movea_w_imm16(b *Block, areg uint8, val uint16) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAn, areg, eaModeExt, eaRegImm))
	b.emitWord(val)
}

func emit_movea_l_imm32(b *Block, areg uint8, val uint32) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAn, areg, eaModeExt, eaRegImm))
	b.emitLong(val)
}

func emit_movea_l_disp_an_an(b *Block, disp int16, srcAreg, destAreg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAn, destAreg, eaModeAnDisp, srcAreg))
	b.emitWord(uint16(disp))
}

func emit_movea_l_dn_an(b *Block, dreg, areg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAn, areg, eaModeDn, dreg))
}

func emit_movea_l_idx_an_an(b *Block, disp int8, baseAreg, idxDreg, destAreg uint8) {
	// brief extension word form: d8(An,Dn.l). The W/L bit (bit 11) is always
	// set to select the full 32-bit index rather than the sign-extended
	// word form, since every caller (jit_dispatcher.go) pre-scales a tier
	// index by the pointer size and that product can exceed 0xFFFF once the
	// guest PC a tier indexes by is large enough (see jit_m68k_exec.go's
	// idxExtValue).
	b.emitWord(encodeMove(moveSizeLong, eaModeAn, destAreg, eaModeAnIdx, baseAreg))
	b.emitWord(uint16(idxDreg&7)<<12 | 0x0800 | uint16(uint8(disp)))
}

// --- memory access, byte/word, displacement and indirect ---

func emit_move_w_dn_ind_an(b *Block, dreg, areg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAnInd, areg, eaModeDn, dreg))
}

func emit_move_w_ind_an_dn(b *Block, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, dreg, eaModeAnInd, areg))
}

func emit_move_b_dn_ind_an(b *Block, dreg, areg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeAnInd, areg, eaModeDn, dreg))
}

func emit_move_b_dn_disp_an(b *Block, dreg uint8, disp int16, areg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeAnDisp, areg, eaModeDn, dreg))
	b.emitWord(uint16(disp))
}

func emit_move_b_ind_an_dn(b *Block, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeDn, dreg, eaModeAnInd, areg))
}

func emit_move_b_disp_an_dn(b *Block, disp int16, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeDn, dreg, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
}

func emit_move_w_dn_disp_an(b *Block, dreg uint8, disp int16, areg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAnDisp, areg, eaModeDn, dreg))
	b.emitWord(uint16(disp))
}

func emit_move_w_disp_an_dn(b *Block, disp int16, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, dreg, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
}

func emit_move_l_dn_disp_an(b *Block, dreg uint8, disp int16, areg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAnDisp, areg, eaModeDn, dreg))
	b.emitWord(uint16(disp))
}

func emit_move_l_an_dn(b *Block, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeDn, dreg, eaModeAn, areg))
}

func emit_move_l_disp_an_dn(b *Block, disp int16, areg, dreg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeDn, dreg, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
}

func emit_move_b_idx_an_dn(b *Block, baseAreg, idxDreg, destDreg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeDn, destDreg, eaModeAnIdx, baseAreg))
	b.emitWord(uint16(idxDreg&7)<<12)
}

func emit_move_b_dn_idx_an(b *Block, srcDreg, baseAreg, idxDreg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeAnIdx, baseAreg, eaModeDn, srcDreg))
	b.emitWord(uint16(idxDreg&7) << 12)
}

func emit_lea_disp_an_an(b *Block, disp int16, srcAreg, destAreg uint8) {
	b.emitWord(0x41C0 | uint16(destAreg&7)<<9 | uint16(eaBits(eaModeAnDisp, srcAreg)))
	b.emitWord(uint16(disp))
}

// --- rotates / swap / ext / not / tst ---

func shiftWord(count, dr, size, typ, reg uint8) uint16 {
	c := count & 7 // 0 encodes 8
	return 0xE000 | uint16(c)<<9 | uint16(dr&1)<<8 | uint16(size&3)<<6 | uint16(typ&3)<<3 | uint16(reg&7)
}

func emit_rol_w_8(b *Block, reg uint8)  { b.emitWord(shiftWord(0, 1, opSizeWord, 0b11, reg)) }
func emit_ror_w_8(b *Block, reg uint8)  { b.emitWord(shiftWord(0, 0, opSizeWord, 0b11, reg)) }
func emit_rol_b_imm(b *Block, count, reg uint8) {
	b.emitWord(shiftWord(count, 1, opSizeByte, 0b11, reg))
}
func emit_ror_b_imm(b *Block, count, reg uint8) {
	b.emitWord(shiftWord(count, 0, opSizeByte, 0b11, reg))
}
func emit_lsl_b_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 1, opSizeByte, 0b01, reg)) }
func emit_lsr_b_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 0, opSizeByte, 0b01, reg)) }
func emit_asr_b_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 0, opSizeByte, 0b00, reg)) }
func emit_lsl_w_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 1, opSizeWord, 0b01, reg)) }
func emit_lsr_w_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 0, opSizeWord, 0b01, reg)) }
func emit_lsl_l_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 1, opSizeLong, 0b01, reg)) }
func emit_lsr_l_imm_dn(b *Block, count, reg uint8) { b.emitWord(shiftWord(count, 0, opSizeLong, 0b01, reg)) }

func emit_swap(b *Block, reg uint8) { b.emitWord(0x4840 | uint16(reg&7)) }

func emit_ext_w_dn(b *Block, reg uint8) { b.emitWord(0x4880 | uint16(reg&7)) }

func emit_not_b_dn(b *Block, reg uint8) { b.emitWord(0x4600 | uint16(opSizeByte)<<6 | uint16(reg&7)) }

func emit_tst_b_dn(b *Block, reg uint8) { b.emitWord(0x4A00 | uint16(opSizeByte)<<6 | uint16(eaBits(eaModeDn, reg))) }

func emit_tst_b_disp_an(b *Block, disp int16, areg uint8) {
	b.emitWord(0x4A00 | uint16(opSizeByte)<<6 | uint16(eaBits(eaModeAnDisp, areg)))
	b.emitWord(uint16(disp))
}

func emit_tst_l_disp_an(b *Block, disp int16, areg uint8) {
	b.emitWord(0x4A00 | uint16(opSizeLong)<<6 | uint16(eaBits(eaModeAnDisp, areg)))
	b.emitWord(uint16(disp))
}

// --- addq / subq ---

func quickWord(sub bool, data, size, mode, reg uint8) uint16 {
	d := data & 7 // 0 encodes 8
	bit8 := uint16(0)
	if sub {
		bit8 = 1
	}
	return 0x5000 | uint16(d)<<9 | bit8<<8 | uint16(size&3)<<6 | uint16(eaBits(mode, reg))
}

func emit_addq_b_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(false, val, opSizeByte, eaModeDn, reg)) }
func emit_addq_w_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(false, val, opSizeWord, eaModeDn, reg)) }
func emit_addq_l_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(false, val, opSizeLong, eaModeDn, reg)) }
func emit_subq_b_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(true, val, opSizeByte, eaModeDn, reg)) }
func emit_subq_w_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(true, val, opSizeWord, eaModeDn, reg)) }
func emit_subq_l_dn(b *Block, reg, val uint8) { b.emitWord(quickWord(true, val, opSizeLong, eaModeDn, reg)) }
func emit_addq_w_an(b *Block, areg, val uint8) { b.emitWord(quickWord(false, val, opSizeWord, eaModeAn, areg)) }
func emit_subq_w_an(b *Block, areg, val uint8) { b.emitWord(quickWord(true, val, opSizeWord, eaModeAn, areg)) }
func emit_addq_l_an(b *Block, areg, val uint8) { b.emitWord(quickWord(false, val, opSizeLong, eaModeAn, areg)) }

func emit_addq_l_disp_an(b *Block, data uint8, disp int16, areg uint8) {
	b.emitWord(quickWord(false, data, opSizeLong, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
}

// --- immediate-to-ea group: andi/ori/subi/addi/eori/cmpi ---

func immWord(base uint16, size, mode, reg uint8) uint16 {
	return base | uint16(size&3)<<6 | uint16(eaBits(mode, reg))
}

func emit_andi_b_dn(b *Block, reg, imm uint8) {
	b.emitWord(immWord(0x0200, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_andi_w_dn(b *Block, reg uint8, imm uint16) {
	b.emitWord(immWord(0x0200, opSizeWord, eaModeDn, reg))
	b.emitWord(imm)
}
func emit_andi_l_dn(b *Block, reg uint8, imm uint32) {
	b.emitWord(immWord(0x0200, opSizeLong, eaModeDn, reg))
	b.emitLong(imm)
}
func emit_ori_b_dn(b *Block, reg, imm uint8) {
	b.emitWord(immWord(0x0000, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_subi_b_dn(b *Block, reg, imm uint8) {
	b.emitWord(immWord(0x0400, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_subi_w_dn(b *Block, reg uint8, imm uint16) {
	b.emitWord(immWord(0x0400, opSizeWord, eaModeDn, reg))
	b.emitWord(imm)
}
func emit_addi_b_dn(b *Block, reg, imm uint8) {
	b.emitWord(immWord(0x0600, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_addi_l_dn(b *Block, reg uint8, imm uint32) {
	b.emitWord(immWord(0x0600, opSizeLong, eaModeDn, reg))
	b.emitLong(imm)
}
func emit_eor_b_imm_dn(b *Block, imm, reg uint8) {
	b.emitWord(immWord(0x0A00, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_cmp_b_imm_dn(b *Block, reg, imm uint8) {
	b.emitWord(immWord(0x0C00, opSizeByte, eaModeDn, reg))
	b.emitWord(uint16(imm))
}
func emit_cmpi_l_imm_dn(b *Block, imm uint32, reg uint8) {
	b.emitWord(immWord(0x0C00, opSizeLong, eaModeDn, reg))
	b.emitLong(imm)
}
func emit_cmpi_w_imm_dn(b *Block, imm uint16, reg uint8) {
	b.emitWord(immWord(0x0C00, opSizeWord, eaModeDn, reg))
	b.emitWord(imm)
}
func emit_cmpi_l_imm32_disp_an(b *Block, imm uint32, disp int16, areg uint8) {
	b.emitWord(immWord(0x0C00, opSizeLong, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
	b.emitLong(imm)
}
func emit_addi_w_disp_an(b *Block, imm, disp int16, areg uint8) {
	b.emitWord(immWord(0x0600, opSizeWord, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
	b.emitWord(uint16(imm))
}
func emit_subi_w_disp_an(b *Block, imm, disp int16, areg uint8) {
	b.emitWord(immWord(0x0400, opSizeWord, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
	b.emitWord(uint16(imm))
}
func emit_addi_l_disp_an(b *Block, imm uint32, disp int16, areg uint8) {
	b.emitWord(immWord(0x0600, opSizeLong, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
	b.emitLong(imm)
}
func emit_sub_l_disp_an_dn(b *Block, disp int16, areg, dreg uint8) {
	b.emitWord(0x9000 | uint16(dreg&7)<<9 | uint16(opSizeLong)<<6 | uint16(eaBits(eaModeAnDisp, areg)))
	b.emitWord(uint16(disp))
}
func emit_add_l_disp_an_dn(b *Block, disp int16, areg, dreg uint8) {
	b.emitWord(0xD000 | uint16(dreg&7)<<9 | uint16(opSizeLong)<<6 | uint16(eaBits(eaModeAnDisp, areg)))
	b.emitWord(uint16(disp))
}

// --- register-to-register ALU: add/sub/and/or/eor/cmp ---

func regOpWord(base uint16, dreg, opmode, srcMode, srcReg uint8) uint16 {
	return base | uint16(dreg&7)<<9 | uint16(opmode&7)<<6 | uint16(eaBits(srcMode, srcReg))
}

func emit_add_b_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0xD000, dest, opSizeByte, eaModeDn, src)) }
func emit_add_w_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0xD000, dest, opSizeWord, eaModeDn, src)) }
func emit_sub_b_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0x9000, dest, opSizeByte, eaModeDn, src)) }
func emit_sub_w_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0x9000, dest, opSizeWord, eaModeDn, src)) }
func emit_sub_l_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0x9000, dest, opSizeLong, eaModeDn, src)) }
func emit_add_l_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0xD000, dest, opSizeLong, eaModeDn, src)) }
func emit_and_b_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0xC000, dest, opSizeByte, eaModeDn, src)) }
func emit_or_b_dn_dn(b *Block, src, dest uint8)  { b.emitWord(regOpWord(0x8000, dest, opSizeByte, eaModeDn, src)) }
func emit_or_l_dn_dn(b *Block, src, dest uint8)  { b.emitWord(regOpWord(0x8000, dest, opSizeLong, eaModeDn, src)) }
func emit_move_l_dn_dn_impl(b *Block, src, dest uint8) { emit_move_l_dn_dn(b, src, dest) }
func emit_eor_b_dn_dn(b *Block, src, dest uint8) {
	// EOR Dn,<ea> is the reverse-direction form (src is always a Dn, dest is the ea, opmode+4)
	b.emitWord(regOpWord(0xB000, src, opSizeByte+4, eaModeDn, dest))
}
func emit_cmp_b_dn_dn(b *Block, src, dest uint8) { b.emitWord(regOpWord(0xB000, dest, opSizeByte, eaModeDn, src)) }

func emit_adda_w_dn_an(b *Block, dreg, areg uint8) { b.emitWord(0xD0C0 | uint16(areg&7)<<9 | uint16(dreg&7)) }
func emit_adda_l_dn_an(b *Block, dreg, areg uint8) { b.emitWord(0xD1C0 | uint16(areg&7)<<9 | uint16(dreg&7)) }

func emit_cmpa_w_imm_an(b *Block, imm uint16, areg uint8) {
	b.emitWord(0xB0C0 | uint16(areg&7)<<9 | uint16(eaBits(eaModeExt, eaRegImm)))
	b.emitWord(imm)
}

// --- bit ops ---

func emit_btst_imm_dn(b *Block, bit, reg uint8) {
	b.emitWord(0x0800 | uint16(eaBits(eaModeDn, reg)))
	b.emitWord(uint16(bit))
}
func emit_bclr_imm_dn(b *Block, bit, reg uint8) {
	b.emitWord(0x0880 | uint16(eaBits(eaModeDn, reg)))
	b.emitWord(uint16(bit))
}
func emit_bset_imm_dn(b *Block, bit, reg uint8) {
	b.emitWord(0x08C0 | uint16(eaBits(eaModeDn, reg)))
	b.emitWord(uint16(bit))
}

// Scc condition codes (68000 standard encoding).
const (
	CondT  = 0x0
	CondF  = 0x1
	CondHI = 0x2
	CondLS = 0x3
	CondCC = 0x4
	CondCS = 0x5
	CondNE = 0x6
	CondEQ = 0x7
	CondVC = 0x8
	CondVS = 0x9
	CondPL = 0xA
	CondMI = 0xB
	CondGE = 0xC
	CondLT = 0xD
	CondGT = 0xE
	CondLE = 0xF
)

func emit_scc(b *Block, cond, reg uint8) {
	b.emitWord(0x50C0 | uint16(cond&0xF)<<8 | uint16(reg&7))
}

// --- control flow ---

func emit_rts(b *Block) { b.emitWord(0x4E75) }

func emit_jsr_ind_an(b *Block, areg uint8) { b.emitWord(0x4E80 | uint16(eaBits(eaModeAnInd, areg))) }

func emit_jmp_ind_an(b *Block, areg uint8) { b.emitWord(0x4EC0 | uint16(eaBits(eaModeAnInd, areg))) }

// JMPPatchOpcode is the 0x4EF9 "JMP $xxxxxxxx.L" opcode — a JMP whose EA is
// absolute-long addressing. This is the exact byte pair the patcher writes
// over a site and the evictor scans for (§4.4, §8 invariants).
const JMPPatchOpcode = 0x4EF9

func emit_bra_b(b *Block, disp int8) { b.emitWord(0x6000 | uint16(uint8(disp))) }

func emit_bra_w(b *Block, disp int16) {
	b.emitWord(0x6000)
	b.emitWord(uint16(disp))
}

func emit_bcc_opcode_w(b *Block, cond uint8, disp int16) {
	b.emitWord(0x6000 | uint16(cond&0xF)<<8)
	b.emitWord(uint16(disp))
}

func emit_beq_b(b *Block, disp int8) { b.emitWord(0x6000 | uint16(CondEQ)<<8 | uint16(uint8(disp))) }
func emit_beq_w(b *Block, disp int16) { emit_bcc_opcode_w(b, CondEQ, disp) }
func emit_bne_b(b *Block, disp int8) { b.emitWord(0x6000 | uint16(CondNE)<<8 | uint16(uint8(disp))) }
func emit_bne_w(b *Block, disp int16) { emit_bcc_opcode_w(b, CondNE, disp) }
func emit_bcs_b(b *Block, disp int8) { b.emitWord(0x6000 | uint16(CondCS)<<8 | uint16(uint8(disp))) }
func emit_bcs_w(b *Block, disp int16) { emit_bcc_opcode_w(b, CondCS, disp) }
func emit_bcc_w(b *Block, disp int16) { emit_bcc_opcode_w(b, CondCC, disp) }
func emit_bcc_s(b *Block, disp int8) { b.emitWord(0x6000 | uint16(CondCC)<<8 | uint16(uint8(disp))) }

// --- push / pop via -(A7)/(A7)+ ---

func emit_push_b_imm(b *Block, val uint16) {
	b.emitWord(encodeMove(moveSizeByte, eaModeAnPre, 7, eaModeExt, eaRegImm))
	b.emitWord(val)
}
func emit_push_w_imm(b *Block, val uint16) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAnPre, 7, eaModeExt, eaRegImm))
	b.emitWord(val)
}
func emit_push_b_dn(b *Block, reg uint8) {
	b.emitWord(encodeMove(moveSizeByte, eaModeAnPre, 7, eaModeDn, reg))
}
func emit_push_w_dn(b *Block, reg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeAnPre, 7, eaModeDn, reg))
}
func emit_push_l_dn(b *Block, reg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAnPre, 7, eaModeDn, reg))
}
func emit_pop_w_dn(b *Block, reg uint8) {
	b.emitWord(encodeMove(moveSizeWord, eaModeDn, reg, eaModeAnPost, 7))
}
func emit_pop_l_dn(b *Block, reg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeDn, reg, eaModeAnPost, 7))
}
func emit_push_l_disp_an(b *Block, disp int16, areg uint8) {
	b.emitWord(encodeMove(moveSizeLong, eaModeAnPre, 7, eaModeAnDisp, areg))
	b.emitWord(uint16(disp))
}

func emit_movem_l_to_predec(b *Block, mask uint16) {
	b.emitWord(0x48E0 | 7) // -(A7)
	b.emitWord(mask)
}

func emit_movem_l_from_postinc(b *Block, mask uint16) {
	b.emitWord(0x4CD8 | 7) // (A7)+
	b.emitWord(mask)
}

// emit_add_cycles adds an immediate guest-cycle count into D2, the running
// accumulator, matching the original's per-instruction cycle bookkeeping.
func emit_add_cycles(b *Block, cycles int) {
	if cycles <= 8 {
		emit_addq_l_dn(b, RegCycles, uint8(cycles))
	} else {
		emit_addi_l_dn(b, RegCycles, uint32(cycles))
	}
}

// --- patchable / dispatcher exits (§4.2 terminators, §4.4) ---

// emitDispatchTemplateSize is the fixed size of both the patch template and
// the JMP.L it gets overwritten with — the self-patching invariant depends
// on these being exactly the same length.
const emitDispatchTemplateSize = 6

// emit_dispatch_jump transfers control to the dispatcher stub, whose arena
// address is known only at link time (after the context is placed); D3 must
// already hold the target guest PC. This is the non-patchable "dynamic
// target" exit used for RET/RETI, JP (HL), and sentinel halts.
func emit_dispatch_jump(b *Block) {
	// movea.l ctx.dispatcher_return(a4),a0 ; jmp (a0)
	emit_movea_l_disp_an_an(b, CtxDispatcherStub, RegCtx, RegAScratch1)
	emit_jmp_ind_an(b, RegAScratch1)
}

// emit_patchable_exit writes the six-byte template the patch helper looks
// for and later overwrites in place: movea.l ctx.patch_helper,a0 ; jsr (a0)
// — exactly emitDispatchTemplateSize bytes, the same size as the JMP.L it
// may become. A trailing rts follows as a fallback for when the helper
// declines to patch (successor not cached yet); that rts is never part of
// the patch site and is never rewritten. D3 must hold the target guest PC
// before this sequence runs. Returns the byte offset of the template's
// start so the block can record it as its one patch site.
func emit_patchable_exit(b *Block) int {
	site := b.Length
	emit_movea_l_disp_an_an(b, CtxPatchHelper, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
	if b.Length-site != emitDispatchTemplateSize {
		panic("patch template size drifted from emitDispatchTemplateSize")
	}
	emit_rts(b)
	return site
}
