package main

import "encoding/binary"

// lruCapacity is the fixed pool size §3 describes: a static array of nodes
// with an intrusive free list rather than a Go map, so eviction is O(1) and
// never triggers a GC-visible allocation during translation.
const lruCapacity = 4096

// lruNode is one slot in the static pool; prev/next link it into either the
// live list (ordered most-recently-used to least) or the free list (next
// only). A node's own slot number is mirrored into the owning Block as
// Block.lruIndex, its back-pointer.
type lruNode struct {
	blk        *Block
	prev, next int
}

const lruNil = -1

// LRU owns the fixed pool and the patch-invalidation bookkeeping that keeps
// chained jumps from pointing at evicted code. It does not itself decide
// *when* to evict — PushFront reports capacity pressure and the caller
// (BlockCache's owner) decides whether to call EvictTail.
type LRU struct {
	cache *BlockCache
	arena *Arena
	nodes [lruCapacity]lruNode

	head, tail int // live list, most-recently-used at head
	freeHead   int

	count int
}

func NewLRU(cache *BlockCache, arena *Arena) *LRU {
	l := &LRU{cache: cache, arena: arena, head: lruNil, tail: lruNil}
	for i := range l.nodes {
		l.nodes[i].next = i + 1
	}
	l.nodes[lruCapacity-1].next = lruNil
	l.freeHead = 0
	return l
}

func (l *LRU) Full() bool { return l.count == lruCapacity }

// unlink removes node i from whichever live-list position it's in.
func (l *LRU) unlink(i int) {
	n := &l.nodes[i]
	if n.prev != lruNil {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != lruNil {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
}

func (l *LRU) pushFrontNode(i int) {
	n := &l.nodes[i]
	n.prev = lruNil
	n.next = l.head
	if l.head != lruNil {
		l.nodes[l.head].prev = i
	}
	l.head = i
	if l.tail == lruNil {
		l.tail = i
	}
}

// PushFront inserts a freshly compiled block at the most-recently-used end,
// allocating a node from the free list. Callers must have already checked
// Full() and evicted if necessary.
func (l *LRU) PushFront(blk *Block) {
	i := l.freeHead
	l.freeHead = l.nodes[i].next
	l.nodes[i].blk = blk
	blk.lruIndex = i
	l.pushFrontNode(i)
	l.count++
}

// Promote moves an already-cached block to the most-recently-used end.
func (l *LRU) Promote(blk *Block) {
	i := blk.lruIndex
	if l.head == i {
		return
	}
	l.unlink(i)
	l.pushFrontNode(i)
}

// EvictTail drops the least-recently-used block: removes it from both cache
// tiers and the live list, invalidates every chained jump pointing at its
// code, and returns the node to the free list.
func (l *LRU) EvictTail() *Block {
	if l.tail == lruNil {
		return nil
	}
	i := l.tail
	blk := l.nodes[i].blk

	l.unlink(i)
	l.nodes[i].blk = nil
	l.nodes[i].next = l.freeHead
	l.freeHead = i
	l.count--

	l.cache.Evict(blk)
	l.invalidatePatchesTo(blk)
	return blk
}

// invalidatePatchesTo scans every still-live block's code for a patched
// JMP.L targeting the evicted block's arena address and restores the
// six-byte movea/jsr template at that site, exactly as the original's
// lru.c invalidate_patches_to() walks the cache tearing out stale chains
// before the slot is reused.
func (l *LRU) invalidatePatchesTo(evicted *Block) {
	target := evicted.arenaBase
	for i := l.head; i != lruNil; i = l.nodes[i].next {
		live := l.nodes[i].blk
		if live.patchSite < 0 {
			continue
		}
		site := live.patchSite
		code := live.Code[:live.Length]
		if binary.BigEndian.Uint16(code[site:]) != JMPPatchOpcode {
			continue // site was never patched, or already restored
		}
		if binary.BigEndian.Uint32(code[site+2:]) != target {
			continue
		}
		l.restorePatchTemplate(live, site)
	}
}

// restorePatchTemplate rewrites a patch site back to the unpatched
// movea.l ctx.patch_helper,a0 ; jsr (a0) form, byte-identical to what
// emit_patchable_exit originally produced there.
func (l *LRU) restorePatchTemplate(blk *Block, site int) {
	tmp := &Block{}
	emit_movea_l_disp_an_an(tmp, CtxPatchHelper, RegCtx, RegAScratch1)
	emit_jsr_ind_an(tmp, RegAScratch1)
	copy(blk.Code[site:site+emitDispatchTemplateSize], tmp.Code[:tmp.Length])
	if blk.arenaBase != 0 {
		copy(l.arena.Slice(blk.arenaBase, uint32(blk.Length)), blk.Code[:blk.Length])
	}
}

// PatchApplier is the native Go callout installed at ctx.patch_helper
// (jit_dispatcher.go's header comment). It stands in for the original's
// inline self-modifying asm plus cache-flush trap: on real hardware only the
// host CPU can safely overwrite code it might be mid-fetching, so here the
// Go side does the overwrite and the "flush" is simply that the interpreter
// always reads bytes fresh out of the arena slice, never caching a decode.
type PatchApplier struct {
	arena *Arena
	cache *BlockCache
	lru   *LRU
}

func NewPatchApplier(a *Arena, cache *BlockCache, lru *LRU) *PatchApplier {
	return &PatchApplier{arena: a, cache: cache, lru: lru}
}

// Apply is called from M68KCore's jsr interception (installed at
// ctx.PatchHelper by the driver). It is handed the calling block and the
// guest PC the block left in D3; if that PC is cached, it rewrites the
// calling block's patch site in place and redirects the interpreter there
// directly instead of falling through to the trailing rts.
func (p *PatchApplier) Apply(caller *Block, targetPC uint16, bank uint8, core *M68KCore, ctx *JITContext) bool {
	target := p.cache.Lookup(targetPC, bank)
	if target == nil {
		return false // successor not compiled yet; caller's trailing rts handles the return
	}
	p.lru.Promote(target)

	if caller.patchSite >= 0 {
		site := caller.patchSite
		binary.BigEndian.PutUint16(caller.Code[site:], JMPPatchOpcode)
		binary.BigEndian.PutUint32(caller.Code[site+2:], target.arenaBase)
		copy(p.arena.Slice(caller.arenaBase, uint32(caller.Length)), caller.Code[:caller.Length])
		ctx.patchCount++
	}

	core.PC = target.arenaBase
	return true
}

// InstallPatchHelper registers the callout at ctx.PatchHelper. The
// interception in M68KCore.step() runs this before pushing a return
// address, so on a miss we do nothing: core.PC is already sitting at the
// trailing rts emit_patchable_exit left right after the six-byte site,
// and that rts is what sends control back to the host driver exactly as
// it would have if no patch helper existed at all.
func InstallPatchHelper(a *Arena, core *M68KCore, ctx *JITContext) *PatchApplier {
	cache := ctx.cache
	lru := ctx.lru
	applier := NewPatchApplier(a, cache, lru)
	ctx.PatchHelper = a.registerCallout(core, func(c *M68KCore) {
		siteAddr := c.PC - emitDispatchTemplateSize
		caller := cache.BlockContaining(siteAddr)
		if caller == nil {
			return
		}
		targetPC := uint16(c.D[RegNextPC])
		bank := ctx.CurrentROMBank()
		applier.Apply(caller, targetPC, bank, c, ctx)
	})
	return applier
}
