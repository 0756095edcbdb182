package main

// Main per-block translation dispatch (grounded on
// original_source/compiler/compiler.c's compile_block). One guest
// instruction at a time: fetch the opcode byte through read (the same
// callback the rest of the system uses for every other memory access — §4.1
// folds ROM reads at compile time through it exactly like any other operand
// fetch), charge its base guest-cycle cost, translate it, and keep going
// until a control-transfer instruction ends the block or the code-buffer /
// instruction-count budget forces an early patchable exit into the middle of
// a straight-line run.
//
// instructionBudget mirrors compiler.c's block->count > 254 check; the
// 256-byte code buffer's own headroom check is Block.needsSplit().
const instructionBudget = 254

// CompileBlock fills b with native code translating guest instructions
// starting at b.SrcAddress, stopping at a control-transfer opcode, an
// unrecognized opcode, or a capacity limit. read fetches one guest byte —
// ROM in the common case, but never assumed to be ROM specifically, since
// the translator also peeks ahead through it to recognize the LY-poll idiom
// before consuming those bytes. wramBase/hramBase are the host arena base
// addresses compileLdSPnn/compileLdSPHL/compileAddSPOffset need to decide
// the fast in-register stack-pointer encoding. singleInstruction forces an
// exit after exactly one instruction regardless of remaining capacity, for
// single-step driver use.
func CompileBlock(b *Block, read func(uint16) byte, wramBase, hramBase uint32, singleInstruction bool) {
	pc := b.SrcAddress
	count := 0

	fetch := func() byte {
		v := read(pc)
		pc++
		return v
	}
	fetch16 := func() uint16 {
		lo := fetch()
		hi := fetch()
		return uint16(hi)<<8 | uint16(lo)
	}

	exitTo := func(target uint16) {
		emit_move_w_dn(b, RegNextPC, int16(target))
		b.patchSite = emit_patchable_exit(b)
	}

	for {
		if b.needsSplit() || count > instructionBudget {
			b.EndAddress = pc
			exitTo(pc)
			return
		}

		b.markOffset(pc - b.SrcAddress)
		op := fetch()
		done := false
		estimatedCycles := uint16(opcodeCycles[op]) // overridden below for 0xCB

		switch {
		case op == 0xCB:
			cbOp := fetch()
			emitCBOpcodeCycles(b, cbOp)
			compileCBOp(b, cbOp)
			estimatedCycles = 4 + uint16(cbOpcodeCycles[cbOp])

		case op == 0x00: // NOP
			emitBaseOpcodeCycles(b, op)

		case op == 0x10: // STOP; second byte is a fixed 0x00 padding byte
			fetch()
			emitBaseOpcodeCycles(b, op)
			emit_move_l_dn(b, RegNextPC, -1) // SentinelPC
			emit_dispatch_jump(b)
			done = true

		case op == 0x76: // HALT
			emitBaseOpcodeCycles(b, op)
			compileHalt(b, pc)
			done = true

		case op == 0xF3:
			emitBaseOpcodeCycles(b, op)
			compileDI(b)
		case op == 0xFB:
			emitBaseOpcodeCycles(b, op)
			compileEI(b)

		case op == 0x27:
			emitBaseOpcodeCycles(b, op)
			compileDaa(b)
		case op == 0x2F:
			emitBaseOpcodeCycles(b, op)
			compileCpl(b)
		case op == 0x37:
			emitBaseOpcodeCycles(b, op)
			compileScf(b)
		case op == 0x3F:
			emitBaseOpcodeCycles(b, op)
			compileCcf(b)

		case op == 0x07:
			emitBaseOpcodeCycles(b, op)
			compileRlca(b)
		case op == 0x0F:
			emitBaseOpcodeCycles(b, op)
			compileRrca(b)
		case op == 0x17:
			emitBaseOpcodeCycles(b, op)
			compileRla(b)
		case op == 0x1F:
			emitBaseOpcodeCycles(b, op)
			compileRra(b)

		// --- 16-bit immediate loads / pair INC/DEC/ADD HL ---
		case op == 0x01 || op == 0x11 || op == 0x21:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileLd16Imm(b, (op>>4)&3, nn)
		case op == 0x31:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileLdSPnn(b, wramBase, hramBase, nn)
		case op == 0x08:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileLdAbsSP(b, nn)

		case op == 0x03 || op == 0x13 || op == 0x23:
			emitBaseOpcodeCycles(b, op)
			compileIncDecPair(b, (op>>4)&3, false)
		case op == 0x33:
			emitBaseOpcodeCycles(b, op)
			compileIncDecPair(b, pairSP, false)
		case op == 0x0B || op == 0x1B || op == 0x2B:
			emitBaseOpcodeCycles(b, op)
			compileIncDecPair(b, (op>>4)&3, true)
		case op == 0x3B:
			emitBaseOpcodeCycles(b, op)
			compileIncDecPair(b, pairSP, true)

		case op == 0x09 || op == 0x19 || op == 0x29:
			emitBaseOpcodeCycles(b, op)
			compileAddHLPair(b, (op>>4)&3)
		case op == 0x39:
			emitBaseOpcodeCycles(b, op)
			compileAddHLPair(b, pairSP)

		// --- indirect-pair / HL+- loads ---
		case op == 0x02:
			emitBaseOpcodeCycles(b, op)
			compileLdIndirectPairA(b, RegBC, true)
		case op == 0x12:
			emitBaseOpcodeCycles(b, op)
			compileLdIndirectPairA(b, RegDE, true)
		case op == 0x0A:
			emitBaseOpcodeCycles(b, op)
			compileLdIndirectPairA(b, RegBC, false)
		case op == 0x1A:
			emitBaseOpcodeCycles(b, op)
			compileLdIndirectPairA(b, RegDE, false)
		case op == 0x22:
			emitBaseOpcodeCycles(b, op)
			compileLdHLIndirectA(b, true, 1)
		case op == 0x32:
			emitBaseOpcodeCycles(b, op)
			compileLdHLIndirectA(b, true, -1)
		case op == 0x2A:
			emitBaseOpcodeCycles(b, op)
			compileLdHLIndirectA(b, false, 1)
		case op == 0x3A:
			emitBaseOpcodeCycles(b, op)
			compileLdHLIndirectA(b, false, -1)

		// --- 8-bit INC r / DEC r / LD r,n : 00rrr1xx ---
		case op&0xC7 == 0x04:
			emitBaseOpcodeCycles(b, op)
			compileIncDec8(b, (op>>3)&7, false)
		case op&0xC7 == 0x05:
			emitBaseOpcodeCycles(b, op)
			compileIncDec8(b, (op>>3)&7, true)
		case op&0xC7 == 0x06:
			n := fetch()
			emitBaseOpcodeCycles(b, op)
			compileLdRImm8(b, (op>>3)&7, n)

		// --- LDH / LD (C),A / LD A,(C) / LD (nn),A / LD A,(nn) ---
		case op == 0xE0:
			n := fetch()
			emitBaseOpcodeCycles(b, op)
			compileLdhImm(b, true, n)
		case op == 0xF0:
			n := fetch()
			emitBaseOpcodeCycles(b, op)
			if n == 0x44 && isLyWaitPattern(read, pc) {
				targetLY := read(pc + 1)
				jrOp := read(pc + 2)
				pc += 4
				compileLyWait(b, targetLY, jrOp, pc)
				done = true
			} else {
				compileLdhImm(b, false, n)
			}
		case op == 0xE2:
			emitBaseOpcodeCycles(b, op)
			compileLdCIndirect(b, true)
		case op == 0xF2:
			emitBaseOpcodeCycles(b, op)
			compileLdCIndirect(b, false)
		case op == 0xEA:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileLdAbsA(b, true, nn)
		case op == 0xFA:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileLdAbsA(b, false, nn)

		// --- stack: PUSH/POP, SP arithmetic ---
		case op == 0xC5:
			emitBaseOpcodeCycles(b, op)
			compilePushBC(b)
		case op == 0xD5:
			emitBaseOpcodeCycles(b, op)
			compilePushDE(b)
		case op == 0xE5:
			emitBaseOpcodeCycles(b, op)
			compilePushHL(b)
		case op == 0xF5:
			emitBaseOpcodeCycles(b, op)
			compilePushAF(b)
		case op == 0xC1:
			emitBaseOpcodeCycles(b, op)
			compilePopBC(b)
		case op == 0xD1:
			emitBaseOpcodeCycles(b, op)
			compilePopDE(b)
		case op == 0xE1:
			emitBaseOpcodeCycles(b, op)
			compilePopHL(b)
		case op == 0xF1:
			emitBaseOpcodeCycles(b, op)
			compilePopAF(b)
		case op == 0xE8:
			e := int8(fetch())
			emitBaseOpcodeCycles(b, op)
			compileAddSPOffset(b, wramBase, hramBase, e)
		case op == 0xF8:
			e := int8(fetch())
			emitBaseOpcodeCycles(b, op)
			compileLdHLSPOffset(b, e)
		case op == 0xF9:
			emitBaseOpcodeCycles(b, op)
			compileLdSPHL(b, wramBase, hramBase)

		// --- control transfer: all of these end the block ---
		case op == 0x18:
			e := int8(fetch())
			emitBaseOpcodeCycles(b, op)
			compileJr(b, uint16(int32(pc)+int32(e)))
			done = true
		case op == 0x20 || op == 0x28 || op == 0x30 || op == 0x38:
			e := int8(fetch())
			emitBaseOpcodeCycles(b, op)
			fused := compileJrCond(b, op, jrCondFor(op), uint16(int32(pc)+int32(e)), pc)
			done = !fused
		case op == 0xC3:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileJpImm(b, nn)
			done = true
		case op == 0xC2 || op == 0xCA || op == 0xD2 || op == 0xDA:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileJpCond(b, op, jpCallRetCondFor(op), nn, pc)
			done = true
		case op == 0xE9:
			emitBaseOpcodeCycles(b, op)
			compileJpHL(b)
			done = true
		case op == 0xCD:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileCall(b, nn, pc)
			done = true
		case op == 0xC4 || op == 0xCC || op == 0xD4 || op == 0xDC:
			nn := fetch16()
			emitBaseOpcodeCycles(b, op)
			compileCallCond(b, op, jpCallRetCondFor(op), nn, pc)
			done = true
		case op == 0xC9:
			emitBaseOpcodeCycles(b, op)
			compileRet(b)
			done = true
		case op == 0xD9:
			emitBaseOpcodeCycles(b, op)
			compileReti(b)
			done = true
		case op == 0xC0 || op == 0xC8 || op == 0xD0 || op == 0xD8:
			emitBaseOpcodeCycles(b, op)
			compileRetCond(b, op, jpCallRetCondFor(op), pc)
			done = true
		case op&0xC7 == 0xC7: // 11nnn111: RST n
			emitBaseOpcodeCycles(b, op)
			compileRst(b, op&0x38, pc)
			done = true

		// --- LD r,r' (0x40-0x7F, minus 0x76 already handled above) ---
		case op >= 0x40 && op <= 0x7F:
			emitBaseOpcodeCycles(b, op)
			compileLdRR(b, op)

		// --- 8-bit ALU, register/(HL) form: 10ooorrr ---
		case op >= 0x80 && op <= 0xBF:
			aluOperandReg(b, op&7)
			emitBaseOpcodeCycles(b, op)
			compileAluOp(b, aluOp((op>>3)&7))

		// --- 8-bit ALU, immediate form: 11ooo110 ---
		case op == 0xC6 || op == 0xCE || op == 0xD6 || op == 0xDE ||
			op == 0xE6 || op == 0xEE || op == 0xF6 || op == 0xFE:
			n := fetch()
			aluOperandImm(b, n)
			emitBaseOpcodeCycles(b, op)
			compileAluOp(b, aluOp((op>>3)&7))

		default:
			b.Error = true
			b.FailedOp = op
			b.FailedAddr = pc - 1
			emit_move_l_dn(b, RegNextPC, -1) // SentinelPC
			emit_dispatch_jump(b)
			done = true
		}

		count++
		b.GBCycles += estimatedCycles

		if done {
			b.EndAddress = pc
			return
		}
		if singleInstruction {
			b.EndAddress = pc
			exitTo(pc)
			return
		}
	}
}

// jrCondFor/jpCallRetCondFor map an opcode's condition-select bits to the
// sm83Cond it tests. JR cc uses bits 4-3 of the opcode (0x20/0x28/0x30/0x38);
// JP/CALL/RET cc use bits 4-3 of a different field width but the same four
// codes in the same order, so one table serves both groups.
func condCodeBits(op uint8) uint8 { return (op >> 3) & 3 }

var condTable = [4]sm83Cond{condNZ, condZ, condNC, condC}

func jrCondFor(op uint8) sm83Cond         { return condTable[condCodeBits(op)] }
func jpCallRetCondFor(op uint8) sm83Cond  { return condTable[condCodeBits(op)] }

// isLyWaitPattern matches compiler.c's exact idiom recognition for
// `ldh a,($ff00+n)` with n==0x44 already consumed: the next four bytes must
// be CP n (0xFE), then a backward-offset JR NZ/Z/C. pc points at the first
// of those four unconsumed bytes.
func isLyWaitPattern(read func(uint16) byte, pc uint16) bool {
	if read(pc) != 0xFE {
		return false
	}
	jrOp := read(pc + 2)
	if jrOp != 0x20 && jrOp != 0x28 && jrOp != 0x38 {
		return false
	}
	offset := int8(read(pc + 3))
	return offset < 0
}
