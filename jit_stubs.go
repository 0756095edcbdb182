package main

// Runtime stubs / memory access (C3). Translated code reaches these only
// through a jsr to a function-pointer slot in the JIT context, exactly as
// §4.3 describes; what differs from the original is what lives at the far
// end of that jsr. On real hardware it's host C. Here it's a Go callout
// registered against a reserved arena address and intercepted by
// M68KCore.step() before it ever tries to decode bytes there — see
// Arena.Slice / M68KCore.callouts. Calling convention: arguments are passed
// in D0 (address) and D1 (value, for writes) exactly as the fast-path
// preamble below loads them, mirroring the original's "push args, jsr,
// pop" convention collapsed into direct register passing since Go calls
// don't need a real stack-based ABI here.

// CalloutFunc matches one slot: invoked as if a jsr + matching rts had
// occurred, with D0/D1 as the arguments and D0 receiving the byte result
// for reads.
type CalloutFunc func(core *M68KCore)

// HardwareSync is the host collaborator contract (C7, §4.7): the JIT does
// not model hardware itself, it calls through this narrow interface both at
// compile time (ROM reads) and at run time (every memory op, EI/DI, bank
// switches, interrupt polling).
type HardwareSync interface {
	Sync(cycles uint32)
	Read(addr uint16) byte
	Write(addr uint16, val byte)
	Read16(addr uint16) uint16
	Write16(addr uint16, val uint16)
	SetIME(enabled bool)
	PendingInterrupt() (vector uint16, ifBit uint8, ok bool)
	ClearIF(bit uint8)
	CurrentROMBank() uint8
}

// publishPartialCycles forwards the cycles an emitted fast path staged into
// CtxReadCycles just before this callout's jsr to the hardware model, then
// clears both the context field and the live D2 accumulator so Driver.Step's
// own end-of-block Sync only credits whatever ran after the last callout,
// never the same cycles twice.
func publishPartialCycles(c *M68KCore, ctx *JITContext, hw HardwareSync) {
	delta := ctx.ReadCycles()
	if delta == 0 {
		return
	}
	hw.Sync(delta)
	ctx.SetReadCycles(0)
	ctx.SetCyclesAccumulated(0)
	c.D[RegCycles] = 0
}

// registerCallout claims the next free callout address in the reserved
// callout region and binds fn to it, returning the address to store into
// the JIT context's function-pointer field.
func (a *Arena) registerCallout(core *M68KCore, fn CalloutFunc) uint32 {
	addr := a.Alloc(2) // two bytes reserved, never executed as real code
	if core.callouts == nil {
		core.callouts = make(map[uint32]CalloutFunc)
	}
	core.callouts[addr] = fn
	return addr
}

// installStubs wires the read/write/read16/write16/ei_di callouts described
// in §4.3/§6 into the context, backed by hw.
func installStubs(a *Arena, core *M68KCore, ctx *JITContext, hw HardwareSync) {
	ctx.ReadFn = a.registerCallout(core, func(c *M68KCore) {
		publishPartialCycles(c, ctx, hw)
		addr := uint16(c.D[RegScratch1])
		c.D[RegScratch1] = (c.D[RegScratch1] &^ 0xFF) | uint32(hw.Read(addr))
	})
	ctx.WriteFn = a.registerCallout(core, func(c *M68KCore) {
		publishPartialCycles(c, ctx, hw)
		addr := uint16(c.D[RegScratch1])
		val := byte(c.D[RegScratch2])
		hw.Write(addr, val)
	})
	ctx.Read16Fn = a.registerCallout(core, func(c *M68KCore) {
		publishPartialCycles(c, ctx, hw)
		addr := uint16(c.D[RegScratch1])
		c.D[RegScratch1] = (c.D[RegScratch1] &^ 0xFFFF) | uint32(hw.Read16(addr))
	})
	ctx.Write16Fn = a.registerCallout(core, func(c *M68KCore) {
		publishPartialCycles(c, ctx, hw)
		addr := uint16(c.D[RegScratch1])
		val := uint16(c.D[RegScratch2])
		hw.Write16(addr, val)
	})
	ctx.EIDIFn = a.registerCallout(core, func(c *M68KCore) {
		// D0 low byte: 1 = EI, 0 = DI. The 1-instruction EI delay is the
		// host model's business (§9 open question); this call just
		// forwards the request.
		hw.SetIME(c.D[RegScratch1]&1 != 0)
	})
}

// emitPublishCycles stores D2 into CtxCyclesAccum (the running total, for
// debug/monitor visibility) and CtxReadCycles (the snapshot a callout
// consumes) before a slow callout runs — the "publish the cycle accumulator"
// step of §4.3's fast-path-to-callout sequence. installStubs' callouts
// forward CtxReadCycles to hw.Sync and zero both it and D2 so a DIV/LY read
// observes the instant of the access itself rather than the instant the
// block last returned to the driver, and so the driver's own end-of-block
// Sync doesn't recredit the same cycles twice.
func emitPublishCycles(b *Block) {
	emit_move_l_dn_disp_an(b, RegCycles, CtxCyclesAccum, RegCtx)
	emit_move_l_dn_disp_an(b, RegCycles, CtxReadCycles, RegCtx)
}

// emitSlowRead emits the slow-path callout sequence for a byte read: publish
// the cycle accumulator (so MMIO reads of DIV/LY observe the right instant),
// load the address into D0, jsr the read callout, and the result comes back
// in D0's low byte — matching §4.3's "publish accumulator; push args; jsr;
// restore" shape, minus an actual host stack since the callout takes
// arguments by register instead.
func emitSlowRead(b *Block, addrReg uint8) {
	emitPublishCycles(b)
	if addrReg != RegScratch1 {
		emit_move_w_dn_dn(b, addrReg, RegScratch1)
	}
	emit_movea_l_disp_an_an(b, CtxRead, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
}

func emitSlowWrite(b *Block, addrReg, valReg uint8) {
	emitPublishCycles(b)
	if addrReg != RegScratch1 {
		emit_move_w_dn_dn(b, addrReg, RegScratch1)
	}
	if valReg != RegScratch2 {
		emit_move_b_dn_dn(b, valReg, RegScratch2)
	}
	emit_movea_l_disp_an_an(b, CtxWrite, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
}

// emitSlowRead16/emitSlowWrite16 are the word-sized counterparts, used for
// the handful of opcodes that genuinely move 16 bits in one step (LD
// (nn),SP). Most 16-bit guest state is otherwise handled as two byte
// accesses because the DMG bus itself is byte-wide; these exist only where
// the host-side HardwareSync contract models a natural 16-bit unit.
func emitSlowRead16(b *Block, addrReg uint8) {
	emitPublishCycles(b)
	if addrReg != RegScratch1 {
		emit_move_w_dn_dn(b, addrReg, RegScratch1)
	}
	emit_movea_l_disp_an_an(b, CtxRead16, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
}

func emitSlowWrite16(b *Block, addrReg, valReg uint8) {
	emitPublishCycles(b)
	if addrReg != RegScratch1 {
		emit_move_w_dn_dn(b, addrReg, RegScratch1)
	}
	if valReg != RegScratch2 {
		emit_move_w_dn_dn(b, valReg, RegScratch2)
	}
	emit_movea_l_disp_an_an(b, CtxWrite16, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
}

func emitEIDI(b *Block, enable bool) {
	if enable {
		emit_moveq_dn(b, RegScratch1, 1)
	} else {
		emit_moveq_dn(b, RegScratch1, 0)
	}
	emit_movea_l_disp_an_an(b, CtxEIDI, RegCtx, RegAScratch1)
	emit_jsr_ind_an(b, RegAScratch1)
}
