package main

// Block cache (C5, §3/§4.5): three region-keyed lookup tables mirroring the
// dispatcher stub's own region test so a cache miss found by Go code and a
// cache hit found by emitted code agree on where to look.
//
//	bank0:  guest PC <  0x4000           — one fixed-size array
//	banked: 0x4000 <= guest PC < 0x8000  — one array per ROM bank, keyed by
//	        current_rom_bank, allocated lazily on first use of a bank
//	upper:  guest PC >= 0x8000           — one fixed-size array (WRAM/HRAM
//	        execution is unusual but not forbidden, per §3's framing of the
//	        upper region as "everything else")
//
// Each slot holds an arena address (0 meaning empty) rather than a Go
// pointer, since that is what the emitted dispatcher stub indexes into.
const (
	bank0Size  = 0x4000
	bankedSize = 0x4000
	upperSize  = 0x10000 - 0x8000
)

// BlockCache owns the three tiers plus the Go-side reverse index (arena
// address -> *Block) the LRU and patch invalidation need; the emitted
// dispatcher only ever sees the raw address arrays below.
type BlockCache struct {
	arena *Arena

	bank0Base  uint32 // arena address of the bank0 pointer array
	upperBase  uint32 // arena address of the upper pointer array
	bankedBase uint32 // arena address of the array-of-bank-array-pointers

	bankedRows map[uint8]uint32 // rom bank -> arena address of that bank's array

	byAddr map[uint32]*Block // arena code address -> owning block, for LRU/invalidation
}

func NewBlockCache(a *Arena) *BlockCache {
	bc := &BlockCache{
		arena:      a,
		bankedRows: make(map[uint8]uint32),
		byAddr:     make(map[uint32]*Block),
	}
	bc.bank0Base = a.Alloc(bank0Size * 4)
	bc.upperBase = a.Alloc(upperSize * 4)
	bc.bankedBase = a.Alloc(256 * 4) // one slot per possible ROM bank (0-255)
	return bc
}

func (bc *BlockCache) slotAddr(pc uint16, bank uint8) uint32 {
	switch {
	case pc < 0x4000:
		return bc.bank0Base + uint32(pc)*4
	case pc < 0x8000:
		row, ok := bc.bankedRows[bank]
		if !ok {
			row = bc.arena.Alloc(bankedSize * 4)
			bc.bankedRows[bank] = row
			bc.arena.putU32At(bc.bankedBase+uint32(bank)*4, row)
		}
		return row + uint32(pc-0x4000)*4
	default:
		return bc.upperBase + uint32(pc-0x8000)*4
	}
}

// Lookup returns the cached block for (pc, bank), or nil on a miss.
func (bc *BlockCache) Lookup(pc uint16, bank uint8) *Block {
	slot := bc.slotAddr(pc, bank)
	addr := bc.arena.getU32At(slot)
	if addr == 0 {
		return nil
	}
	return bc.byAddr[addr]
}

// Store publishes blk into its tier slot and the reverse index, so both the
// emitted dispatcher and Go-side LRU/invalidation logic can find it.
func (bc *BlockCache) Store(blk *Block) {
	slot := bc.slotAddr(blk.SrcAddress, blk.ROMBank)
	bc.arena.putU32At(slot, blk.arenaBase)
	bc.byAddr[blk.arenaBase] = blk
}

// Evict clears blk's slot and reverse-index entry; it does not touch any
// other block's code — patch invalidation is jit_lru.go's job.
func (bc *BlockCache) Evict(blk *Block) {
	slot := bc.slotAddr(blk.SrcAddress, blk.ROMBank)
	if bc.arena.getU32At(slot) == blk.arenaBase {
		bc.arena.putU32At(slot, 0)
	}
	delete(bc.byAddr, blk.arenaBase)
}

// BlockContaining finds the live block whose published code region spans
// addr, used by the patch helper callout to recover which block's site it
// was jsr'd from. A linear scan over live blocks is adequate here: this
// runs once per first-ever traversal of a given patchable exit, not per
// instruction.
func (bc *BlockCache) BlockContaining(addr uint32) *Block {
	for base, blk := range bc.byAddr {
		if addr >= base && addr < base+uint32(blk.Length) {
			return blk
		}
	}
	return nil
}
