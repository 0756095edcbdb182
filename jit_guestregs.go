package main

// GuestRegs is a snapshot of the SM83 register file as the host registers
// hold it between blocks (jit_regs.go's D4=A/D5=BC/D6=DE/D7=flags/A2=HL/A3=SP
// layout), unpacked into the shape debug_monitor.go and debug_disasm_sm83.go
// want to print. Used only by the debug/monitor stack — the translator and
// driver never need the individual 8-bit halves materialized like this.
type GuestRegs struct {
	A, F       byte
	B, C       byte
	D, E       byte
	H, L       byte
	SP, PC     uint16
	Cycles     uint32
}

// GuestRegs reads the live register file out of the embedded interpreter.
// SP is reported as the guest stack pointer value, not the host arena
// pointer RegSP may currently hold — the same GBSP()/SPAdjust() translation
// jit_driver.go's pushGuestWord uses to go the other direction.
func (d *Driver) GuestRegs() GuestRegs {
	c := d.core
	bc := c.D[RegBC]
	de := c.D[RegDE]
	adjust := d.ctx.SPAdjust()
	sp := uint16(int32(c.A[RegSP]) + adjust)
	return GuestRegs{
		A:      byte(c.D[RegA]),
		F:      byte(c.D[RegFlags]),
		B:      byte(bc >> 16),
		C:      byte(bc),
		D:      byte(de >> 16),
		E:      byte(de),
		H:      byte(c.A[RegHL] >> 8),
		L:      byte(c.A[RegHL]),
		SP:     sp,
		PC:     uint16(c.D[RegNextPC]),
		Cycles: c.D[RegCycles],
	}
}

// FlagBits decodes F into the four SM83 condition flags.
func (r GuestRegs) FlagBits() (z, n, h, cy bool) {
	return r.F&(1<<FlagZBit) != 0, r.F&(1<<FlagNBit) != 0, r.F&(1<<FlagHBit) != 0, r.F&(1<<FlagCBit) != 0
}

// FlagString renders the four flags the way Game Boy disassemblers
// conventionally do: uppercase set, lowercase clear, in Z N H C order.
func (r GuestRegs) FlagString() string {
	z, n, h, cy := r.FlagBits()
	bit := func(set bool, ch byte) byte {
		if set {
			return ch - ('a' - 'A')
		}
		return ch
	}
	return string([]byte{bit(z, 'z'), bit(n, 'n'), bit(h, 'h'), bit(cy, 'c')})
}
