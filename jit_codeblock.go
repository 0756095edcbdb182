package main

// blockCodeCapacity is the reference buffer size: 256 bytes, enough for up
// to 254 guest instructions worth of native code before capacity forces a
// split (§3, §4.1).
const blockCodeCapacity = 256

// capacityReserve is the worst-case next-instruction cost the translator
// keeps in reserve; dropping below it forces an early patchable exit.
const capacityReserve = 200

// Block is a compiled, single-entry native code sequence for a contiguous
// run of guest instructions. Once published to the cache, only Code may be
// mutated, and only by the patcher rewriting a single six-byte site.
type Block struct {
	Code   [blockCodeCapacity]byte
	Length int

	// m68kOffset[i] is the native offset the guest instruction starting at
	// source offset i begins at, used to resolve backward intra-block
	// branches. instrStart[i] disambiguates a genuine offset-0 entry from an
	// index that was never marked.
	m68kOffset [blockCodeCapacity]uint16
	instrStart [blockCodeCapacity]bool

	SrcAddress uint16 // guest PC this block starts at
	EndAddress uint16 // guest PC just past the last compiled instruction
	ROMBank    uint8  // bank snapshot at compile time

	GBCycles uint16 // cumulative guest cycle cost, for timing estimation

	// patchSite is the byte offset of this block's one patchable exit site,
	// or -1 if the block has none (it ended with a dispatcher/sentinel exit
	// instead). Only one patchable exit may exist per block (§4.2 terminators).
	patchSite int

	// Error is set when the translator could not handle an opcode; the block
	// still ends (with a HALT-sentinel exit) so the cache can hold it and the
	// driver can report precisely what failed.
	Error      bool
	FailedOp   byte
	FailedAddr uint16

	// arenaBase is where this block's Code was copied into the arena once
	// published; it is the address a patched JMP.L or the dispatcher indexes.
	arenaBase uint32

	// lruIndex is the back-pointer into the LRU pool, set once the block is
	// inserted (§3 "back-pointer to its LRU node").
	lruIndex int
}

func newBlock(srcAddr uint16, bank uint8) *Block {
	return &Block{SrcAddress: srcAddr, ROMBank: bank, patchSite: -1}
}

func (b *Block) remainingCapacity() int {
	return blockCodeCapacity - b.Length
}

func (b *Block) needsSplit() bool {
	return b.remainingCapacity() < capacityReserve
}

func (b *Block) markOffset(srcOffset uint16) {
	b.m68kOffset[srcOffset] = uint16(b.Length)
	b.instrStart[srcOffset] = true
}

// nativeBackwardTarget reports the native offset a conditional branch from
// this block can jump to directly, without going through the dispatcher,
// when its guest target is an already-compiled instruction earlier in the
// same block (the loop-fusion case, §8 scenario 2). takenPC must fall
// strictly before the branch's own position for this to be a backward
// target at all; forward intra-block targets still fall through to the
// dispatcher path since nothing has been compiled there yet to jump to.
func (b *Block) nativeBackwardTarget(takenPC, branchPC uint16) (uint16, bool) {
	if takenPC >= branchPC || takenPC < b.SrcAddress {
		return 0, false
	}
	srcOffset := takenPC - b.SrcAddress
	if int(srcOffset) >= len(b.instrStart) || !b.instrStart[srcOffset] {
		return 0, false
	}
	return b.m68kOffset[srcOffset], true
}
