package main

// Host register roles at block entry, per the JIT context memory layout
// table: D4=A, D5=BC (split), D6=DE (split), D7=flags, A2=HL, A3=SP, A4=ctx,
// D2=cycles, D3=next PC. Earlier drafts in the source (compiler.h's own
// header comment) used D0/D1/D2/A0/A7 instead; this is the layout jit.c and
// dispatcher_asm.c actually use, so it is the one honored here.
const (
	RegA     = 4 // D4, byte
	RegBC    = 5 // D5, split 0x00BB00CC
	RegDE    = 6 // D6, split 0x00DD00EE
	RegFlags = 7 // D7, byte ZNHC0000

	RegCycles = 2 // D2, accumulated cycles
	RegNextPC = 3 // D3, entering/next guest PC

	RegHL  = 2 // A2, contiguous word
	RegSP  = 3 // A3, host pointer or guest value
	RegCtx = 4 // A4, JIT context base

	// scratch registers free for translator use within a block
	RegScratch1 = 0 // D0
	RegScratch2 = 1 // D1

	RegAScratch1 = 0 // A0
)

// SM83 flag bit positions within D7.
const (
	FlagZBit = 7
	FlagNBit = 6
	FlagHBit = 5
	FlagCBit = 4
)

// Guest register layout (split long in D5/D6): 0x00HH00LL.
func splitPair(hi, lo byte) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}
