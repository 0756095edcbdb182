package main

// hw_interface.go is the seam between the JIT (jit_stubs.go's HardwareSync
// contract) and the concrete Game Boy model (hw_dmg.go and its peripherals).
// HardwareSync itself stays declared in jit_stubs.go, next to the callouts
// that invoke it — this file holds the one additive piece of plumbing the
// JIT side doesn't need to know about: how the hardware model gets at the
// same WRAM/HRAM bytes the JIT's stack-pointer fast path writes into
// directly.

// MemoryWindow is the byte-addressable view into the JIT arena's WRAM/HRAM
// region. *Arena already satisfies this structurally (jit_arena.go's
// ReadByte/WriteByte); it is named separately here so the hardware model
// depends on a two-method contract instead of the whole Arena type.
type MemoryWindow interface {
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, v byte)
}

// MemoryBacked is implemented by any HardwareSync whose WRAM/HRAM must be
// the exact bytes the JIT's stack-pointer fast path (jit_translate_stack.go)
// writes into. NewDriver type-asserts for it once the arena has reserved
// that region, before the first Step — without this, a guest program could
// push to the stack through the fast path and read stale bytes back through
// an ordinary LD A,(nn) load, since the two would otherwise keep separate
// copies of the same guest memory.
type MemoryBacked interface {
	BindMemory(mem MemoryWindow, wramBase, hramBase uint32)
}
