package main

// Host execution loop (C6, §4.6), grounded on original_source/system6/jit.c's
// jit_step. The original's biggest simplification opportunity carries over
// cleanly to Go: jit_step copies guest register state into six fixed host
// registers before a trampoline jsr and copies them back out afterward,
// because C has no way to keep register state alive in actual CPU registers
// across calls. M68KCore.D/A already *are* those registers (RegA, RegBC, ...
// RegCtx index straight into c.D/c.A), so Driver.Step needs no save/restore
// step at all — the interpreter's register file persists between calls the
// same way real silicon's would.
//
// What the original calls returning to C to check interrupts, this port
// reaches through M68KCore.RunFrom/step: the dispatcher stub (jit_dispatcher.go)
// chains cached blocks with a plain jmp and only ever falls through to rts
// when the cycle budget is exhausted or the next block isn't compiled yet,
// so RunFrom may silently execute several guest blocks before Step regains
// control — exactly the "does not return to C when jumping to another
// compiled block" comment in jit.c's execute_block.

// fixedPool hands out blockCodeCapacity-sized arena slots and recycles ones
// freed by LRU eviction, the Go-side analogue of the original's heap
// alloc/free cycle for compiled code (system6's block_free). Grounded on
// jit_lru.go's own intrusive free list for LRU nodes — the same pattern,
// applied to arena storage instead of a fixed node array.
type fixedPool struct {
	size uint32
	free []uint32
}

func (p *fixedPool) alloc(a *Arena) (uint32, bool) {
	if n := len(p.free); n > 0 {
		addr := p.free[n-1]
		p.free = p.free[:n-1]
		return addr, true
	}
	return a.TryAlloc(p.size)
}

func (p *fixedPool) release(addr uint32) {
	p.free = append(p.free, addr)
}

// Driver owns every long-lived JIT object for one emulation session: the
// arena, the block cache and LRU, the embedded interpreter, and the
// compile-time/run-time callback wiring. One Driver per session; Step is
// called once per outer tick of whatever pumps the host loop (a frame timer
// in the normal run mode, a monitor "step" command in single-instruction
// mode).
type Driver struct {
	arena *Arena
	ctx   *JITContext
	cache *BlockCache
	lru   *LRU
	core  *M68KCore

	hw HardwareSync

	wramBase, hramBase uint32
	blockPool          fixedPool

	cyclesPerExit     uint32
	singleInstruction bool

	Halted    bool
	LastError error

	blocksCompiled uint64
	blocksExecuted uint64
	lastCycles     uint32
}

// DriverConfig mirrors the CLI flags SPEC_FULL.md's ambient-stack section
// calls for (-cycles-per-exit, -single-instruction) plus the memory ceiling
// that gives eviction something real to reclaim against.
type DriverConfig struct {
	CyclesPerExit     uint32
	MemoryBudget      uint32 // 0 = unbounded
	SingleInstruction bool
}

// NewDriver builds and wires a fresh session: allocates the fixed-layout
// region of the arena (context, WRAM, HRAM, cache tiers, dispatcher stub),
// installs the runtime callouts, and sets the guest machine's post-boot
// register state exactly as jit_init does (entry at $0100, SP at $FFFE,
// ROM bank 1 selected).
func NewDriver(hw HardwareSync, cfg DriverConfig) *Driver {
	arena := NewArena()
	if cfg.MemoryBudget != 0 {
		arena.SetMaxSize(cfg.MemoryBudget)
	}

	ctx := NewJITContext(arena, 0)
	wramBase := arena.Alloc(0x2000)
	hramBase := arena.Alloc(0x80)

	if mb, ok := hw.(MemoryBacked); ok {
		mb.BindMemory(arena, wramBase, hramBase)
	}

	core := NewM68KCore(arena)
	const hostStackSize = 0x1000
	core.A[7] = arena.Alloc(hostStackSize) + hostStackSize

	cache := NewBlockCache(arena)
	lru := NewLRU(cache, arena)
	ctx.BindCache(cache, lru)

	installStubs(arena, core, ctx, hw)
	InstallPatchHelper(arena, core, ctx)

	cyclesPerExit := cfg.CyclesPerExit
	if cyclesPerExit == 0 {
		cyclesPerExit = cyclesPerLine // a scanline's worth is a reasonable default granularity
	}
	stub := BuildDispatcherStub(cyclesPerExit)
	stubAddr := arena.Alloc(uint32(len(stub)))
	copy(arena.Slice(stubAddr, uint32(len(stub))), stub)

	ctx.WRAMBase = wramBase
	ctx.HRAMBase = hramBase
	ctx.DispatcherStub = stubAddr
	ctx.Flush()
	ctx.SetCurrentROMBank(1) // bank 1 is default after boot

	d := &Driver{
		arena:             arena,
		ctx:               ctx,
		cache:             cache,
		lru:               lru,
		core:              core,
		hw:                hw,
		wramBase:          wramBase,
		hramBase:          hramBase,
		blockPool:         fixedPool{size: blockCodeCapacity},
		cyclesPerExit:     cyclesPerExit,
		singleInstruction: cfg.SingleInstruction,
	}

	d.core.D[RegNextPC] = 0x100
	const initialSP = 0xFFFE
	core.A[RegSP] = hramBase + uint32(initialSP-hramStart)
	ctx.SetGBSP(initialSP)
	ctx.SetSPAdjust(int32(hramStart) - int32(hramBase))

	return d
}

// Step runs one outer iteration of §4.6: look up or compile the block at the
// current guest PC, run it (and everything it chains into) until control
// returns to the host, sync accumulated cycles to hardware, and inject a
// pending interrupt if one is waiting. Returns the error that halted the
// session, or nil if the step completed normally (including the step that
// itself set Halted via a sentinel PC or unrecoverable compile failure).
func (d *Driver) Step() error {
	if d.Halted {
		return nil
	}

	d.ctx.SetCurrentROMBank(d.hw.CurrentROMBank())
	bank := d.ctx.CurrentROMBank()
	pc := uint16(d.core.D[RegNextPC])

	blk := d.cache.Lookup(pc, bank)
	if blk == nil {
		var err error
		blk, err = d.compile(pc, bank)
		if err != nil {
			d.Halted = true
			d.LastError = err
			return err
		}
	} else {
		d.lru.Promote(blk)
	}

	d.blocksExecuted++
	d.core.RunFrom(blk.arenaBase)

	if d.core.D[RegNextPC] == SentinelPC {
		d.Halted = true
		return nil
	}

	d.lastCycles = d.core.D[RegCycles]
	d.hw.Sync(d.core.D[RegCycles])
	d.core.D[RegCycles] = 0

	d.deliverInterrupt()
	return nil
}

// compile translates and publishes the block at (pc, bank), retrying once
// after a full cache flush on allocation failure per §4.6 step 2.
func (d *Driver) compile(pc uint16, bank uint8) (*Block, error) {
	d.ensureCapacity()
	blk, err := d.tryCompile(pc, bank)
	if err == nil {
		return blk, nil
	}
	jerr, ok := err.(*JITError)
	if !ok || jerr.Kind != ErrAllocationFailure {
		return nil, err // unknown opcode etc.: flushing the cache can't fix this
	}

	d.flushAll()
	blk, err = d.tryCompile(pc, bank)
	if err != nil {
		return nil, err
	}
	return blk, nil
}

func (d *Driver) tryCompile(pc uint16, bank uint8) (*Block, error) {
	blk := newBlock(pc, bank)
	CompileBlock(blk, d.hw.Read, d.wramBase, d.hramBase, d.singleInstruction)

	if blk.Error {
		return nil, &JITError{Kind: ErrUnknownOpcode, Opcode: blk.FailedOp, Address: blk.FailedAddr}
	}

	addr, ok := d.blockPool.alloc(d.arena)
	if !ok {
		return nil, &JITError{Kind: ErrAllocationFailure, Address: pc}
	}
	blk.arenaBase = addr
	copy(d.arena.Slice(addr, blockCodeCapacity), blk.Code[:blk.Length])

	if d.lru.Full() {
		d.evictOne()
	}
	d.lru.PushFront(blk)
	d.cache.Store(blk)
	d.blocksCompiled++
	return blk, nil
}

// ensureCapacity evicts until the LRU has room for one more block, the Go
// equivalent of jit.c's cache_ensure_memory() check before every compile.
func (d *Driver) ensureCapacity() {
	for d.lru.Full() {
		d.evictOne()
	}
}

func (d *Driver) evictOne() {
	blk := d.lru.EvictTail()
	if blk != nil && blk.arenaBase != 0 {
		d.blockPool.release(blk.arenaBase)
	}
}

// flushAll drops every cached block, the recovery step §4.6's allocation
// failure path takes before its single retry.
func (d *Driver) flushAll() {
	for {
		blk := d.lru.EvictTail()
		if blk == nil {
			return
		}
		if blk.arenaBase != 0 {
			d.blockPool.release(blk.arenaBase)
		}
	}
}

// deliverInterrupt implements §4.6 step 7. PendingInterrupt is the one place
// IME gating happens — the hardware model tracks it (via SetIME) and is
// expected to report ok=false whenever IME is clear, even if IE&IF is
// nonzero, so this function only has to act on whatever it's handed: push
// the next PC onto the guest stack, clear the IF bit, clear IME, and
// redirect to the vector.
func (d *Driver) deliverInterrupt() {
	vector, bit, ok := d.hw.PendingInterrupt()
	if !ok {
		return
	}

	d.pushGuestWord(uint16(d.core.D[RegNextPC]))
	d.hw.ClearIF(bit)
	d.hw.SetIME(false)
	d.core.D[RegNextPC] = uint32(vector)
}

// pushGuestWord pushes v the same way compiled PUSH rr does: high byte at
// the higher address, low byte at the lower (and final SP) address. Per
// §4.6 step 7 this goes straight through the WRAM/HRAM arena mapping
// (jit.c's sp_ptr[] store) rather than through the hardware bus — the guest
// stack is always genuine RAM when SPAdjust is non-zero, which is the
// common case; the sentinel-zero case falls back to the ordinary write
// interface since there is no host pointer to trust in that mode.
func (d *Driver) pushGuestWord(v uint16) {
	gbsp := d.ctx.GBSP() - 2
	adjust := d.ctx.SPAdjust()
	hi, lo := byte(v>>8), byte(v)

	if adjust != 0 {
		host := uint32(int32(gbsp) - adjust)
		d.arena.WriteByte(host+1, hi)
		d.arena.WriteByte(host, lo)
		d.core.A[RegSP] = host
	} else {
		d.hw.Write(gbsp+1, hi)
		d.hw.Write(gbsp, lo)
	}
	d.ctx.SetGBSP(gbsp)
}

// BlocksCompiled reports the number of blocks compiled so far this session,
// reported by the monitor's "stats" command (the stand-in for jit.c's
// set_status_bar reporting).
func (d *Driver) BlocksCompiled() uint64 { return d.blocksCompiled }

// BlocksExecuted counts Step's own dispatch entries, i.e. how many times the
// host regained control from RunFrom — not how many individual guest basic
// blocks ran, since the dispatcher stub chains cached blocks with a plain
// jmp and may fall through several of them before returning here. Paired
// with BlocksCompiled for the same status-line reporting.
func (d *Driver) BlocksExecuted() uint64 { return d.blocksExecuted }

// LastCycles reports how many guest cycles the most recently completed Step
// consumed, for the monitor's "step" command (RegCycles itself is reset to
// zero inside Step before control returns, so nothing outside this package
// can read it directly after the fact).
func (d *Driver) LastCycles() uint32 { return d.lastCycles }
