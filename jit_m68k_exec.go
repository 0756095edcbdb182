package main

import "fmt"

// M68KCore is a from-scratch interpreter over the arena, grounded on
// cpu_m68k.go's own from-scratch 68EC020 interpreter. It only needs to
// understand the instruction forms jit_emitter.go actually produces — the
// dispatcher stub, the patch helper stub, and every translated block — the
// same scoping principle the translator itself applies to SM83 opcodes.
type M68KCore struct {
	D [8]uint32
	A [8]uint32
	PC uint32

	Z, N, C, V bool

	arena *Arena

	// haltReturn is set by a sentinel address placed on the host call
	// stack; reaching it from an rts means "return to the Go driver" the
	// way a real trampoline's final rts would return to host C.
	haltReturn bool

	// callouts maps reserved arena addresses (never real code) to native Go
	// functions. A jsr targeting one of these runs the function directly
	// instead of decoding bytes there and returns to the caller exactly as
	// if the callee had executed an immediate rts — see jit_stubs.go.
	callouts map[uint32]CalloutFunc
}

const hostReturnSentinel = 0xFFFFFFFF

func NewM68KCore(a *Arena) *M68KCore {
	return &M68KCore{arena: a}
}

func (c *M68KCore) fetchWord() uint16 {
	w := uint16(c.arena.bytes[c.PC])<<8 | uint16(c.arena.bytes[c.PC+1])
	c.PC += 2
	return w
}

func (c *M68KCore) fetchLong() uint32 {
	hi := uint32(c.fetchWord())
	lo := uint32(c.fetchWord())
	return hi<<16 | lo
}

// idxExtValue decodes the register-indexed addressing mode's brief extension
// word: bits 14-12 select D0-D7, bit 11 is the 68020 W/L bit (0 = index is
// the register's low word, sign-extended; 1 = the full 32-bit register is
// used verbatim). emit_movea_l_idx_an_an always sets the W/L bit, since the
// dispatcher's upper-tier index ((PC-0x8000)*4) can reach 0x10000 and a
// sign-extended 16-bit index would silently wrap and dispatch into the
// wrong cache slot once guest PC reaches WRAM/HRAM.
func (c *M68KCore) idxExtValue(ext uint16) int32 {
	idxReg := (ext >> 12) & 7
	if ext&0x0800 != 0 {
		return int32(c.D[idxReg])
	}
	return int32(int16(c.D[idxReg]))
}

func sizeMask(size uint8) uint32 {
	switch size {
	case opSizeByte:
		return 0xFF
	case opSizeWord:
		return 0xFFFF
	default:
		return 0xFFFFFFFF
	}
}

func signExtend(v uint32, size uint8) int32 {
	switch size {
	case opSizeByte:
		return int32(int8(v))
	case opSizeWord:
		return int32(int16(v))
	default:
		return int32(v)
	}
}

// readEA evaluates an effective address for reading, consuming any
// extension words it needs, per the mode/reg encoding shared by emitter
// encodeMove-family opcodes.
func (c *M68KCore) readEA(mode, reg uint8, size uint8) uint32 {
	switch mode {
	case eaModeDn:
		return c.D[reg] & sizeMask(size)
	case eaModeAn:
		return c.A[reg] & sizeMask(size)
	case eaModeAnInd:
		return c.readMem(c.A[reg], size)
	case eaModeAnPost:
		v := c.readMem(c.A[reg], size)
		c.A[reg] += sizeBytes(size)
		return v
	case eaModeAnPre:
		c.A[reg] -= sizeBytes(size)
		return c.readMem(c.A[reg], size)
	case eaModeAnDisp:
		disp := int16(c.fetchWord())
		return c.readMem(uint32(int32(c.A[reg])+int32(disp)), size)
	case eaModeAnIdx:
		ext := c.fetchWord()
		addr := uint32(int32(c.A[reg]) + c.idxExtValue(ext) + int32(int8(ext)))
		return c.readMem(addr, size)
	case eaModeExt:
		switch reg {
		case eaRegImm:
			if size == opSizeLong {
				return c.fetchLong()
			}
			return uint32(c.fetchWord()) & sizeMask(size)
		case eaRegAbsL:
			addr := c.fetchLong()
			return c.readMem(addr, size)
		}
	}
	panic(fmt.Sprintf("readEA: unhandled mode=%d reg=%d", mode, reg))
}

func (c *M68KCore) writeEA(mode, reg uint8, size uint8, val uint32) {
	val &= sizeMask(size)
	switch mode {
	case eaModeDn:
		c.D[reg] = (c.D[reg] &^ sizeMask(size)) | val
	case eaModeAn:
		c.A[reg] = val
	case eaModeAnInd:
		c.writeMem(c.A[reg], size, val)
	case eaModeAnPost:
		c.writeMem(c.A[reg], size, val)
		c.A[reg] += sizeBytes(size)
	case eaModeAnPre:
		c.A[reg] -= sizeBytes(size)
		c.writeMem(c.A[reg], size, val)
	case eaModeAnDisp:
		disp := int16(c.fetchWord())
		c.writeMem(uint32(int32(c.A[reg])+int32(disp)), size, val)
	case eaModeAnIdx:
		ext := c.fetchWord()
		addr := uint32(int32(c.A[reg]) + c.idxExtValue(ext) + int32(int8(ext)))
		c.writeMem(addr, size, val)
	default:
		panic(fmt.Sprintf("writeEA: unhandled mode=%d reg=%d", mode, reg))
	}
}

func sizeBytes(size uint8) uint32 {
	switch size {
	case opSizeByte:
		return 1
	case opSizeWord:
		return 2
	default:
		return 4
	}
}

func (c *M68KCore) readMem(addr uint32, size uint8) uint32 {
	switch size {
	case opSizeByte:
		return uint32(c.arena.bytes[addr])
	case opSizeWord:
		return uint32(c.arena.bytes[addr])<<8 | uint32(c.arena.bytes[addr+1])
	default:
		return uint32(c.arena.bytes[addr])<<24 | uint32(c.arena.bytes[addr+1])<<16 |
			uint32(c.arena.bytes[addr+2])<<8 | uint32(c.arena.bytes[addr+3])
	}
}

func (c *M68KCore) writeMem(addr uint32, size uint8, val uint32) {
	switch size {
	case opSizeByte:
		c.arena.bytes[addr] = byte(val)
	case opSizeWord:
		c.arena.bytes[addr] = byte(val >> 8)
		c.arena.bytes[addr+1] = byte(val)
	default:
		c.arena.bytes[addr] = byte(val >> 24)
		c.arena.bytes[addr+1] = byte(val >> 16)
		c.arena.bytes[addr+2] = byte(val >> 8)
		c.arena.bytes[addr+3] = byte(val)
	}
}

func (c *M68KCore) setNZ(v uint32, size uint8) {
	m := sizeMask(size)
	c.Z = v&m == 0
	switch size {
	case opSizeByte:
		c.N = v&0x80 != 0
	case opSizeWord:
		c.N = v&0x8000 != 0
	default:
		c.N = v&0x80000000 != 0
	}
}

func (c *M68KCore) checkCond(cond uint8) bool {
	switch cond {
	case CondT:
		return true
	case CondF:
		return false
	case CondEQ:
		return c.Z
	case CondNE:
		return !c.Z
	case CondCS:
		return c.C
	case CondCC:
		return !c.C
	case CondMI:
		return c.N
	case CondPL:
		return !c.N
	case CondVS:
		return c.V
	case CondVC:
		return !c.V
	case CondHI:
		return !c.C && !c.Z
	case CondLS:
		return c.C || c.Z
	case CondGE:
		return c.N == c.V
	case CondLT:
		return c.N != c.V
	case CondGT:
		return !c.Z && c.N == c.V
	case CondLE:
		return c.Z || c.N != c.V
	}
	return false
}

// RunFrom executes starting at arena address entry until the host-return
// sentinel rts is reached (a call-stack slot holding hostReturnSentinel),
// mirroring the trampoline's "jsr into block, rts returns to host" contract
// from jit.c's execute_block.
func (c *M68KCore) RunFrom(entry uint32) {
	// push a host-return sentinel as a fake caller address so the
	// outermost rts exits the loop instead of underflowing.
	c.A[7] -= 4
	c.writeMem(c.A[7], opSizeLong, hostReturnSentinel)
	c.PC = entry
	for {
		if c.step() {
			return
		}
	}
}

// step executes one instruction, returning true if it was the terminal rts
// (popped address equals hostReturnSentinel).
func (c *M68KCore) step() bool {
	w := c.fetchWord()

	switch {
	case w == 0x4E75: // rts
		ret := c.readMem(c.A[7], opSizeLong)
		c.A[7] += 4
		if ret == hostReturnSentinel {
			return true
		}
		c.PC = ret
		return false
	case w&0xFFF8 == 0x4E90: // jsr (An)
		areg := w & 7
		target := c.A[areg]
		if fn, ok := c.callouts[target]; ok {
			fn(c)
			return false
		}
		c.A[7] -= 4
		c.writeMem(c.A[7], opSizeLong, c.PC)
		c.PC = target
		return false
	case w&0xFFF8 == 0x4ED0: // jmp (An)
		areg := w & 7
		c.PC = c.A[areg]
		return false
	case w == JMPPatchOpcode: // jmp $xxxxxxxx.L
		c.PC = c.fetchLong()
		return false
	case w&0xF000 == 0x7000: // moveq
		reg := (w >> 9) & 7
		imm := int32(int8(w))
		c.D[reg] = uint32(imm)
		c.setNZ(uint32(imm), opSizeLong)
		return false
	case w&0xF1C0 == 0x41C0: // lea
		areg := (w >> 9) & 7
		mode := uint8((w >> 3) & 7)
		reg := uint8(w & 7)
		c.A[areg] = c.effectiveAddress(mode, reg)
		return false
	case w&0xFF00 == 0x0800: // btst/bclr/bset #imm,Dn
		reg := uint8(w & 7)
		bit := c.fetchWord() & 31
		val := c.D[reg]
		c.Z = val&(1<<bit) == 0
		switch (w >> 6) & 3 {
		case 0b10: // bclr
			c.D[reg] &^= 1 << bit
		case 0b11: // bset
			c.D[reg] |= 1 << bit
		}
		return false
	case w&0xFF00 == 0x0200, w&0xFF00 == 0x0000, w&0xFF00 == 0x0400, w&0xFF00 == 0x0600, w&0xFF00 == 0x0A00, w&0xFF00 == 0x0C00:
		c.execImmediateGroup(w)
		return false
	case w&0xF000 == 0x5000 && w&0x00C0 != 0x00C0: // addq/subq
		c.execQuick(w)
		return false
	case w&0xF0C0 == 0x50C0: // Scc
		cond := uint8((w >> 8) & 0xF)
		reg := uint8(w & 7)
		if c.checkCond(cond) {
			c.D[reg] = (c.D[reg] &^ 0xFF) | 0xFF
		} else {
			c.D[reg] = c.D[reg] &^ 0xFF
		}
		return false
	case w&0xF000 == 0x6000: // bra/bcc short/word
		cond := uint8((w >> 8) & 0xF)
		opcodePC := c.PC - 2
		disp8 := int8(w)
		var disp int32
		if disp8 == 0 {
			disp = int32(int16(c.fetchWord()))
		} else {
			disp = int32(disp8)
		}
		// displacement is relative to the address just past the opcode
		// word, before any extension word — matches the original
		// compiler's own bra.w convention (branches.c).
		if c.checkCond(cond) {
			c.PC = uint32(int32(opcodePC) + 2 + disp)
		}
		return false
	case w&0x00C0 != 0x00C0 && (w&0xF000 == 0xD000 || w&0xF000 == 0x9000 || w&0xF000 == 0xC000 || w&0xF000 == 0x8000 || w&0xF000 == 0xB000):
		c.execRegOp(w)
		return false
	case w&0xF1C0 == 0xD0C0, w&0xF1C0 == 0xD1C0: // adda.w/l
		areg := (w >> 9) & 7
		dreg := w & 7
		if w&0xF1C0 == 0xD1C0 {
			c.A[areg] += c.D[dreg]
		} else {
			c.A[areg] += uint32(int32(int16(c.D[dreg])))
		}
		return false
	case w&0xF1C0 == 0xB0C0: // cmpa.w
		areg := (w >> 9) & 7
		imm := c.fetchWord()
		res := int32(c.A[areg]) - int32(int16(imm))
		c.setNZ(uint32(res), opSizeWord)
		c.C = uint32(c.A[areg]) < uint32(int32(int16(imm)))
		return false
	case w&0xF000 == 0xE000: // shifts/rotates immediate
		c.execShift(w)
		return false
	case w&0xFF00 == 0x4800 && w&0x00C0 == 0x0040: // swap
		reg := w & 7
		c.D[reg] = c.D[reg]<<16 | c.D[reg]>>16
		c.setNZ(c.D[reg], opSizeLong)
		return false
	case w&0xFFF8 == 0x4880: // ext.w
		reg := w & 7
		c.D[reg] = (c.D[reg] &^ 0xFFFF) | uint32(uint16(int16(int8(c.D[reg]))))
		c.setNZ(c.D[reg], opSizeWord)
		return false
	case w&0xFFC0 == 0x4600: // not.b
		reg := w & 7
		c.D[reg] = (c.D[reg] &^ 0xFF) | uint32(^byte(c.D[reg]))
		c.setNZ(c.D[reg], opSizeByte)
		return false
	case w&0xFF00 == 0x4A00 && w&0x00C0 != 0x00C0: // tst.b/tst.l Dn or disp(An)
		c.execTst(w)
		return false
	case w&0xFFF8 == 0x48E0: // movem.l regs,-(An)
		c.execMovemToPredec(w)
		return false
	case w&0xFFF8 == 0x4CD8: // movem.l (An)+,regs
		c.execMovemFromPostinc(w)
		return false
	case w&0xC000 == 0x0000: // general MOVE
		c.execMove(w)
		return false
	}
	panic(fmt.Sprintf("m68k interpreter: unhandled opcode %04x at %08x", w, c.PC-2))
}

func (c *M68KCore) effectiveAddress(mode, reg uint8) uint32 {
	switch mode {
	case eaModeAnInd:
		return c.A[reg]
	case eaModeAnDisp:
		disp := int16(c.fetchWord())
		return uint32(int32(c.A[reg]) + int32(disp))
	case eaModeAnIdx:
		ext := c.fetchWord()
		return uint32(int32(c.A[reg]) + c.idxExtValue(ext) + int32(int8(ext)))
	case eaModeExt:
		if reg == eaRegAbsL {
			return c.fetchLong()
		}
	}
	panic("effectiveAddress: unhandled lea mode")
}

func decodeSizeMove(bits uint8) uint8 {
	switch bits {
	case moveSizeByte:
		return opSizeByte
	case moveSizeWord:
		return opSizeWord
	default:
		return opSizeLong
	}
}

func (c *M68KCore) execMove(w uint16) {
	sizeBits := uint8((w >> 12) & 3)
	size := decodeSizeMove(sizeBits)
	destReg := uint8((w >> 9) & 7)
	destMode := uint8((w >> 6) & 7)
	srcMode := uint8((w >> 3) & 7)
	srcReg := uint8(w & 7)

	v := c.readEA(srcMode, srcReg, size)
	c.writeEA(destMode, destReg, size, v)
	if destMode != eaModeAn {
		c.setNZ(v, size)
		c.V = false
		c.C = false
	}
}

func (c *M68KCore) execImmediateGroup(w uint16) {
	size := uint8((w >> 6) & 3)
	mode := uint8((w >> 3) & 7)
	reg := uint8(w & 7)
	var imm uint32
	if size == opSizeLong {
		imm = c.fetchLong()
	} else {
		imm = uint32(c.fetchWord())
	}
	op := w & 0xFF00
	v := c.readEA(mode, reg, size)
	var res uint32
	switch op {
	case 0x0200: // andi
		res = v & imm
	case 0x0000: // ori
		res = v | imm
	case 0x0A00: // eori
		res = v ^ imm
	case 0x0400: // subi
		res = v - imm
		c.C = v < imm
	case 0x0600: // addi
		res = v + imm
		c.C = res < v
	case 0x0C00: // cmpi
		res = v - imm
		c.setNZ(res, size)
		c.C = v < imm
		return
	}
	c.writeEA(mode, reg, size, res)
	c.setNZ(res, size)
}

func (c *M68KCore) execQuick(w uint16) {
	data := uint8((w >> 9) & 7)
	if data == 0 {
		data = 8
	}
	sub := w&0x0100 != 0
	size := uint8((w >> 6) & 3)
	mode := uint8((w >> 3) & 7)
	reg := uint8(w & 7)
	v := c.readEA(mode, reg, size)
	var res uint32
	if sub {
		res = v - uint32(data)
		c.C = v < uint32(data)
	} else {
		res = v + uint32(data)
		c.C = res < v
	}
	c.writeEA(mode, reg, size, res)
	if mode != eaModeAn {
		c.setNZ(res, size)
	}
}

func (c *M68KCore) execRegOp(w uint16) {
	reg := uint8((w >> 9) & 7)
	opmode := uint8((w >> 6) & 7)
	srcMode := uint8((w >> 3) & 7)
	srcReg := uint8(w & 7)
	base := w & 0xF000
	size := opmode & 3
	reverse := opmode&4 != 0

	ea := c.readEA(srcMode, srcReg, size)
	dn := c.D[reg] & sizeMask(size)

	var res uint32
	dest := dn
	switch base {
	case 0xD000: // add
		if reverse {
			res = ea + dn
			c.C = res < ea
			c.writeEA(srcMode, srcReg, size, res)
		} else {
			res = dn + ea
			c.C = res < dn
			c.D[reg] = (c.D[reg] &^ sizeMask(size)) | (res & sizeMask(size))
		}
	case 0x9000: // sub
		if reverse {
			res = ea - dn
			c.C = ea < dn
			c.writeEA(srcMode, srcReg, size, res)
		} else {
			res = dn - ea
			c.C = dn < ea
			c.D[reg] = (c.D[reg] &^ sizeMask(size)) | (res & sizeMask(size))
		}
	case 0xC000: // and
		res = dn & ea
		c.D[reg] = (c.D[reg] &^ sizeMask(size)) | (res & sizeMask(size))
	case 0x8000: // or
		res = dn | ea
		c.D[reg] = (c.D[reg] &^ sizeMask(size)) | (res & sizeMask(size))
	case 0xB000:
		if reverse { // eor
			res = ea ^ dn
			c.writeEA(srcMode, srcReg, size, res)
		} else { // cmp
			res = dn - ea
			c.C = dn < ea
			c.setNZ(res, size)
			return
		}
	}
	_ = dest
	c.setNZ(res, size)
}

func (c *M68KCore) execShift(w uint16) {
	count := uint8((w >> 9) & 7)
	if count == 0 {
		count = 8
	}
	left := w&0x0100 != 0
	size := uint8((w >> 6) & 3)
	typ := uint8((w >> 3) & 3)
	reg := uint8(w & 7)

	v := c.D[reg] & sizeMask(size)
	bits := uint8(sizeBits(size))
	var res uint32
	switch typ {
	case 0b01: // LSx
		if left {
			res = (v << count) & sizeMask(size)
			if count <= bits {
				c.C = v&(1<<(bits-count)) != 0
			}
		} else {
			res = v >> count
			if count <= bits && count > 0 {
				c.C = v&(1<<(count-1)) != 0
			}
		}
	case 0b00: // ASx
		se := signExtend(v, size)
		if left {
			res = uint32(se<<count) & sizeMask(size)
		} else {
			res = uint32(se>>count) & sizeMask(size)
		}
	case 0b11: // ROx
		if left {
			res = ((v << count) | (v >> (bits - count))) & sizeMask(size)
		} else {
			res = ((v >> count) | (v << (bits - count))) & sizeMask(size)
		}
		if count > 0 {
			if left {
				c.C = res&1 != 0
			} else {
				c.C = res&(1<<(bits-1)) != 0
			}
		}
	}
	c.D[reg] = (c.D[reg] &^ sizeMask(size)) | res
	c.setNZ(res, size)
}

func sizeBits(size uint8) uint32 {
	switch size {
	case opSizeByte:
		return 8
	case opSizeWord:
		return 16
	default:
		return 32
	}
}

func (c *M68KCore) execTst(w uint16) {
	size := uint8((w >> 6) & 3)
	mode := uint8((w >> 3) & 7)
	reg := uint8(w & 7)
	v := c.readEA(mode, reg, size)
	c.setNZ(v, size)
	c.C = false
	c.V = false
}

// For predecrement targets the register list is encoded in reverse order:
// bit0=A7 ... bit7=A0, bit8=D7 ... bit15=D0.
func (c *M68KCore) execMovemToPredec(w uint16) {
	mask := c.fetchWord()
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			c.A[7] -= 4
			c.writeMem(c.A[7], opSizeLong, c.A[7-i])
		}
	}
	for i := 8; i < 16; i++ {
		if mask&(1<<uint(i)) != 0 {
			c.A[7] -= 4
			c.writeMem(c.A[7], opSizeLong, c.D[15-i])
		}
	}
}

// For postincrement targets the register list is in natural order:
// bit0=D0 ... bit7=D7, bit8=A0 ... bit15=A7.
func (c *M68KCore) execMovemFromPostinc(w uint16) {
	mask := c.fetchWord()
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			c.D[i] = c.readMem(c.A[7], opSizeLong)
			c.A[7] += 4
		}
	}
	for i := 8; i < 16; i++ {
		if mask&(1<<uint(i)) != 0 {
			c.A[i-8] = c.readMem(c.A[7], opSizeLong)
			c.A[7] += 4
		}
	}
}
