// Package heap implements the implicit-free-list block allocator: the
// boundary-tag header/footer format, first-fit placement with splitting,
// eager coalescing, and sentinel-preserving heap extension described in
// Computer Systems: A Programmer's Perspective. It sits on top of the
// mem package's fixed-capacity substrate.
package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/phuslu/log"

	"github.com/kraytos17/implicitalloc/mem"
)

// Allocator is an implicit-free-list allocator over one mem.Substrate. It
// is not safe for concurrent use.
type Allocator struct {
	sub *mem.Substrate

	heapListP   int // payload offset of the prologue block; walk anchor
	initialized bool
	lastErr     error

	log *log.Logger
}

// New returns an allocator with its own private substrate. Init must be
// called (or will be invoked lazily by the first Alloc/Free/Realloc) before
// any block can be placed.
func New() *Allocator {
	return &Allocator{
		sub: mem.NewSubstrate(),
		log: &log.Logger{
			Level:  log.InfoLevel,
			Writer: &log.ConsoleWriter{ColorOutput: false},
		},
	}
}

// LastError returns the most recently recorded out-of-memory condition, or
// nil. It mirrors the process-wide errno surfacing of the original design
// without resurrecting global mutable state.
func (a *Allocator) LastError() error {
	return a.lastErr
}

// Init acquires the substrate and lays down the prologue/epilogue skeleton,
// then extends the heap once by ChunkSize so the first real allocation
// does not pay the extension cost.
func (a *Allocator) Init() error {
	if err := a.sub.Init(); err != nil {
		return errors.Wrap(err, "heap: substrate init failed")
	}

	base, err := a.sub.Sbrk(4 * WordSize)
	if err != nil {
		a.lastErr = err
		return errors.Wrap(err, "heap: failed to lay down prologue/epilogue")
	}

	a.sub.WriteU32(base, 0) // alignment padding
	a.sub.WriteU32(base+WordSize, pack(prologueSize, true))
	a.sub.WriteU32(base+2*WordSize, pack(prologueSize, true))
	a.sub.WriteU32(base+3*WordSize, pack(epilogueSize, true))

	a.heapListP = base + 2*WordSize
	a.initialized = true

	if a.extendHeap(ChunkSize) == nullPtr {
		a.initialized = false
		return errors.Wrap(a.lastErr, "heap: failed to extend heap during init")
	}
	return nil
}

// Teardown releases the substrate. Any further operation on a without a
// fresh Init is undefined.
func (a *Allocator) Teardown() {
	a.sub.Teardown()
	a.heapListP = nullPtr
	a.initialized = false
	a.lastErr = nil
}

func (a *Allocator) ensureInit() {
	if !a.initialized {
		if err := a.Init(); err != nil {
			a.log.Error().Err(err).Msg("heap: lazy init failed")
		}
	}
}

// extendHeap grows the heap by bytes (rounded up to a multiple of 8),
// overwriting the previous epilogue with a new free block and writing a
// fresh epilogue past it, then coalesces with a free tail if one exists.
// Returns the resulting block's payload offset, or nullPtr on failure.
func (a *Allocator) extendHeap(bytes int) int {
	size := roundUp(bytes, DoubleSize)

	rawOffset, err := a.sub.Sbrk(size)
	if err != nil {
		a.lastErr = err
		a.log.Warn().Err(err).Int("requested", size).Msg("heap: extend_heap failed")
		return nullPtr
	}

	// The substrate hands back the pre-extension break as a raw offset.
	// Treated as a payload offset, its header (payload-WordSize) lands
	// exactly on the word that used to hold the epilogue header, which is
	// what overwrites it with the new free block's boundary tag.
	payload := rawOffset

	a.writeHeaderFooter(payload, size, false)
	a.sub.WriteU32(headerOffset(a.nextBlockOffset(payload)), pack(epilogueSize, true))

	return a.coalesce(payload)
}

// findFit walks the implicit free list from heapListP looking for the
// first free block whose size is at least asize. First-fit, deterministic.
func (a *Allocator) findFit(asize int) int {
	for p := a.heapListP; a.blockSizeAt(headerOffset(p)) > 0; p = a.nextBlockOffset(p) {
		if !a.isAllocatedAt(headerOffset(p)) && asize <= a.blockSizeAt(headerOffset(p)) {
			return p
		}
	}
	return nullPtr
}

// place installs an allocated block of asize bytes at payload, splitting
// off a free remainder when at least minBlockSize bytes would be left over.
func (a *Allocator) place(payload, asize int) {
	currSize := a.blockSizeAt(headerOffset(payload))

	if currSize-asize >= minBlockSize {
		a.writeHeaderFooter(payload, asize, true)
		remainder := a.nextBlockOffset(payload)
		a.writeHeaderFooter(remainder, currSize-asize, false)
	} else {
		a.writeHeaderFooter(payload, currSize, true)
	}
}

// coalesce merges payload with an immediately free previous and/or next
// block and returns the payload offset of the (possibly merged) block.
func (a *Allocator) coalesce(payload int) int {
	prevAllocated := a.isAllocatedAt(a.footerOffset(a.prevBlockOffset(payload)))
	nextAllocated := a.isAllocatedAt(headerOffset(a.nextBlockOffset(payload)))
	size := a.blockSizeAt(headerOffset(payload))

	switch {
	case prevAllocated && nextAllocated:
		return payload

	case prevAllocated && !nextAllocated:
		next := a.nextBlockOffset(payload)
		size += a.blockSizeAt(headerOffset(next))
		a.writeHeaderFooter(payload, size, false)
		return payload

	case !prevAllocated && nextAllocated:
		prev := a.prevBlockOffset(payload)
		size += a.blockSizeAt(headerOffset(prev))
		a.writeHeaderFooter(prev, size, false)
		return prev

	default: // !prevAllocated && !nextAllocated
		prev := a.prevBlockOffset(payload)
		next := a.nextBlockOffset(payload)
		size += a.blockSizeAt(headerOffset(prev)) + a.blockSizeAt(headerOffset(next))
		a.writeHeaderFooter(prev, size, false)
		return prev
	}
}

// roundUp rounds n up to the next multiple of mult.
func roundUp(n, mult int) int {
	if n%mult == 0 {
		return n
	}
	return n + (mult - n%mult)
}

// adjustedSize computes the total block size (header + payload + footer,
// rounded up to a multiple of 8) needed to satisfy a user request of size
// bytes of payload. Returns 0 for a zero-byte request, which callers must
// treat as "do nothing".
func adjustedSize(size int) int {
	if size == 0 {
		return 0
	}
	if size <= DoubleSize {
		return minBlockSize
	}
	return roundUp(size+DoubleSize, DoubleSize)
}
