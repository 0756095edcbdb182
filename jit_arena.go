package main

import (
	"encoding/binary"
	"fmt"
)

// Arena is the flat address space the emitted 68000 bytes and the JIT
// context, WRAM, HRAM and cache tiers all live inside, addressed by uint32
// offset rather than a real pointer. Go gives us no way to execute foreign
// machine code or to mmap PROT_EXEC, so every "pointer" the original asm
// carried becomes a 4-byte big-endian offset into this slice instead — the
// same flattening memory_bus.go already does for a 16MB address space, just
// reused here to also host code. Offsets are stable under append-driven
// growth because nothing outside the arena aliases real Go pointers into it.
type Arena struct {
	bytes   []byte
	next    uint32
	maxSize uint32 // 0 means unbounded; see SetMaxSize
}

const arenaInitialSize = 4 * 1024 * 1024

func NewArena() *Arena {
	return &Arena{bytes: make([]byte, arenaInitialSize)}
}

// reserve claims [base, base+size) for a fixed-location region (context
// struct, WRAM, HRAM, cache tier arrays), growing the backing slice when
// the region runs past its end. Overlap with a prior reservation is not
// detected.
func (a *Arena) reserve(base, size uint32) {
	end := base + size
	if end > uint32(len(a.bytes)) {
		grown := make([]byte, end+arenaInitialSize)
		copy(grown, a.bytes)
		a.bytes = grown
	}
	if end > a.next {
		a.next = end
	}
}

// Alloc bump-allocates size bytes and returns their base offset. Used for
// compiled code blocks and other dynamically sized regions that come after
// the fixed layout.
func (a *Arena) Alloc(size uint32) uint32 {
	base := a.next
	a.reserve(base, size)
	return base
}

// SetMaxSize gives the arena a real ceiling instead of growing forever.
// Nothing on real Mac hardware had unbounded heap either; this is what
// lets the driver's flush-cache-and-retry path (§4.6 step 2) have a
// genuine allocation failure to recover from instead of an Arena that
// always succeeds.
func (a *Arena) SetMaxSize(max uint32) { a.maxSize = max }

// TryAlloc is Alloc's capacity-checked counterpart, used only for the
// dynamically-sized pools (compiled code blocks) that should fail rather
// than silently grow once maxSize is set.
func (a *Arena) TryAlloc(size uint32) (uint32, bool) {
	if a.maxSize != 0 && a.next+size > a.maxSize {
		return 0, false
	}
	return a.Alloc(size), true
}

func (a *Arena) Len() uint32 { return uint32(len(a.bytes)) }

func (a *Arena) Slice(base, size uint32) []byte {
	return a.bytes[base : base+size]
}

func (a *Arena) ReadByte(addr uint32) byte { return a.bytes[addr] }

func (a *Arena) WriteByte(addr uint32, v byte) { a.bytes[addr] = v }

// putU32At/getU32At store the cache tiers' and context's pointer-ish fields
// big-endian, matching the byte order emitted MOVE.L instructions expect
// when they read the same slot via an (An) or d16(An) addressing mode.
func (a *Arena) putU32At(addr uint32, v uint32) { binary.BigEndian.PutUint32(a.bytes[addr:], v) }

func (a *Arena) getU32At(addr uint32) uint32 { return binary.BigEndian.Uint32(a.bytes[addr:]) }

func (a *Arena) String() string {
	return fmt.Sprintf("arena(%d bytes used of %d)", a.next, len(a.bytes))
}
