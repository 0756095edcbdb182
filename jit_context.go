package main

import "encoding/binary"

// JIT context field offsets. Emitted 68000 code references these as constant
// displacements off A4, so they must never move without also rewriting every
// emitter that bakes one in.
const (
	CtxDMG             = 0x00
	CtxRead            = 0x04
	CtxWrite           = 0x08
	CtxEIDI            = 0x0C
	CtxInterruptCheck  = 0x10
	CtxCurrentROMBank  = 0x11
	CtxBank0Cache      = 0x14
	CtxBankedCache     = 0x18
	CtxUpperCache      = 0x1C
	CtxDispatcherStub  = 0x20
	CtxRead16          = 0x24
	CtxWrite16         = 0x28
	CtxCyclesAccum     = 0x2C
	CtxPatchHelper     = 0x30
	CtxReadCycles      = 0x34
	CtxWRAMBase        = 0x38
	CtxFrameCyclesPtr  = 0x3C
	CtxTemp1           = 0x40
	CtxTemp2           = 0x44
	CtxGBSP            = 0x48
	CtxSPAdjust        = 0x4C
	// CtxHRAMBase is not in spec.md's offset table, only its prose (§3, §6).
	// Extending the struct one slot past sp_adjust is the only place this
	// needs deciding; everything else in the table is untouched.
	CtxHRAMBase = 0x50

	// CtxDAAState: byte 0 is the accumulator value going into the last
	// 8-bit add/sub, byte 1 is that op's N direction (0=add, 1=sub). DAA
	// reads both back out to derive H, since it has no CCR of its own to
	// inspect after the fact.
	CtxDAAState = 0x54

	CtxSize = 0x58
)

// SentinelPC is the guest PC value that means "halt the session" when
// returned from a block in D3.
const SentinelPC = 0xFFFFFFFF

// JITContext is the shared struct the dispatcher, patch helper, and every
// emitted memory access reference by fixed displacement. It lives inside the
// arena so emitted 68000 code can address it the same way the original
// asm addressed a real C struct: as a flat region at a known base.
type JITContext struct {
	arena *Arena
	base  uint32

	cache *BlockCache
	lru   *LRU

	DMG          HardwareSync
	ReadFn       uint32
	WriteFn      uint32
	Read16Fn     uint32
	Write16Fn    uint32
	EIDIFn       uint32

	Bank0Cache  uint32
	BankedCache uint32
	UpperCache  uint32

	DispatcherStub uint32
	PatchHelper    uint32

	WRAMBase uint32
	HRAMBase uint32

	FrameCyclesPtr uint32

	// driver-side bookkeeping, not read back by emitted code
	patchCount uint64
}

// NewJITContext allocates the context struct inside the arena at a fixed
// base and returns a handle that keeps both the arena view (for emitted code)
// and the Go-side struct (for the driver) in sync.
func NewJITContext(a *Arena, base uint32) *JITContext {
	a.reserve(base, CtxSize)
	return &JITContext{arena: a, base: base}
}

func (c *JITContext) Base() uint32 { return c.base }

// BindCache attaches the block cache and LRU pool this context's patch
// helper and dispatcher cache-array fields route through. Done once during
// session setup, after both are constructed.
func (c *JITContext) BindCache(cache *BlockCache, lru *LRU) {
	c.cache = cache
	c.lru = lru
	c.Bank0Cache = cache.bank0Base
	c.BankedCache = cache.bankedBase
	c.UpperCache = cache.upperBase
}

func (c *JITContext) putU32(off uint32, v uint32) {
	binary.BigEndian.PutUint32(c.arena.bytes[c.base+off:], v)
}

func (c *JITContext) getU32(off uint32) uint32 {
	return binary.BigEndian.Uint32(c.arena.bytes[c.base+off:])
}

func (c *JITContext) putU8(off uint32, v uint8) {
	c.arena.bytes[c.base+off] = v
}

func (c *JITContext) getU8(off uint32) uint8 {
	return c.arena.bytes[c.base+off]
}

// Flush writes every Go-side field into its arena offset. Called once after
// the fields above are populated at session setup — the pointer-ish fields
// never change again during a session (see spec.md §5, "fields read by
// emitted code ... are set at session start and not changed").
func (c *JITContext) Flush() {
	c.putU32(CtxDMG, 0) // opaque handle; hardware calls route through Go, not emitted code
	c.putU32(CtxRead, c.ReadFn)
	c.putU32(CtxWrite, c.WriteFn)
	c.putU32(CtxEIDI, c.EIDIFn)
	c.putU32(CtxBank0Cache, c.Bank0Cache)
	c.putU32(CtxBankedCache, c.BankedCache)
	c.putU32(CtxUpperCache, c.UpperCache)
	c.putU32(CtxDispatcherStub, c.DispatcherStub)
	c.putU32(CtxRead16, c.Read16Fn)
	c.putU32(CtxWrite16, c.Write16Fn)
	c.putU32(CtxPatchHelper, c.PatchHelper)
	c.putU32(CtxWRAMBase, c.WRAMBase)
	c.putU32(CtxHRAMBase, c.HRAMBase)
	c.putU32(CtxFrameCyclesPtr, c.FrameCyclesPtr)
}

func (c *JITContext) SetCurrentROMBank(b uint8)  { c.putU8(CtxCurrentROMBank, b) }
func (c *JITContext) CurrentROMBank() uint8      { return c.getU8(CtxCurrentROMBank) }
func (c *JITContext) SetInterruptCheck(v bool) {
	if v {
		c.putU8(CtxInterruptCheck, 1)
	} else {
		c.putU8(CtxInterruptCheck, 0)
	}
}
func (c *JITContext) CyclesAccumulated() uint32     { return c.getU32(CtxCyclesAccum) }
func (c *JITContext) SetCyclesAccumulated(v uint32) { c.putU32(CtxCyclesAccum, v) }
func (c *JITContext) ReadCycles() uint32            { return c.getU32(CtxReadCycles) }
func (c *JITContext) SetReadCycles(v uint32)        { c.putU32(CtxReadCycles, v) }
func (c *JITContext) GBSP() uint16                  { return uint16(c.getU32(CtxGBSP)) }
func (c *JITContext) SetGBSP(v uint16)              { c.putU32(CtxGBSP, uint32(v)) }
func (c *JITContext) SPAdjust() int32               { return int32(c.getU32(CtxSPAdjust)) }
func (c *JITContext) SetSPAdjust(v int32)           { c.putU32(CtxSPAdjust, uint32(v)) }
