package heap

// Block layout constants, bit-exact with the original boundary-tag format.
const (
	WordSize   = 4
	DoubleSize = 8
	ChunkSize  = 4096

	minBlockSize  = 2 * DoubleSize // 16: header + 8-byte payload + footer
	prologueSize  = DoubleSize     // 8
	epilogueSize  = 0
	nullPtr       = 0 // sentinel: no valid payload offset is ever 0
	sizeMask      = ^uint32(0x7)
	allocatedMask = uint32(0x1)
)

// pack encodes a (size, allocated) pair into a single boundary-tag word.
// size must already be a multiple of 8; its low three bits are reserved.
func pack(size uint32, allocated bool) uint32 {
	word := size & sizeMask
	if allocated {
		word |= allocatedMask
	}
	return word
}

func unpackSize(word uint32) uint32 {
	return word & sizeMask
}

func unpackAllocated(word uint32) bool {
	return word&allocatedMask != 0
}

// headerOffset returns the offset of a block's header given its payload
// offset.
func headerOffset(payload int) int {
	return payload - WordSize
}

// blockSizeAt returns the size encoded at the word starting at offset.
func (a *Allocator) blockSizeAt(offset int) int {
	return int(unpackSize(a.sub.ReadU32(offset)))
}

// isAllocatedAt reports the allocated bit of the word starting at offset.
func (a *Allocator) isAllocatedAt(offset int) bool {
	return unpackAllocated(a.sub.ReadU32(offset))
}

// footerOffset returns the offset of a block's footer given its payload
// offset.
func (a *Allocator) footerOffset(payload int) int {
	size := a.blockSizeAt(headerOffset(payload))
	return payload + size - DoubleSize
}

// nextBlockOffset returns the payload offset of the block immediately
// after the one starting at payload.
//
// This is next = payload + size_read_from_header(payload), reading the
// size from the header word at payload-WordSize. An earlier draft of this
// formula read the size from the word at payload itself (the caller's own
// data, not the header) and is not used here: that variant silently walks
// off into payload bytes whenever they happen to look like a plausible
// size, corrupting every subsequent step of the walk.
func (a *Allocator) nextBlockOffset(payload int) int {
	size := a.blockSizeAt(headerOffset(payload))
	return payload + size
}

// prevBlockOffset returns the payload offset of the block immediately
// before the one starting at payload, read via that block's footer.
func (a *Allocator) prevBlockOffset(payload int) int {
	prevFooter := payload - DoubleSize
	size := a.blockSizeAt(prevFooter)
	return payload - size
}

// writeHeaderFooter writes identical boundary tags at a block's header and
// footer, preserving invariant 1 (header == footer) by construction.
func (a *Allocator) writeHeaderFooter(payload, size int, allocated bool) {
	word := pack(uint32(size), allocated)
	a.sub.WriteU32(headerOffset(payload), word)
	a.sub.WriteU32(payload+size-DoubleSize, word)
}
