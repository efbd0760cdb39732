package heap

// Alloc services a user request for size bytes of payload, returning the
// payload offset of a fresh block, or nullPtr if the request cannot be
// satisfied (either size is 0, or the heap is exhausted and cannot be
// extended further).
func (a *Allocator) Alloc(size int) int {
	a.ensureInit()

	asize := adjustedSize(size)
	if asize == 0 {
		return nullPtr
	}

	if fit := a.findFit(asize); fit != nullPtr {
		a.place(fit, asize)
		return fit
	}

	extendSize := asize
	if extendSize < ChunkSize {
		extendSize = ChunkSize
	}

	block := a.extendHeap(extendSize)
	if block == nullPtr {
		return nullPtr
	}
	a.place(block, asize)
	return block
}

// Free releases the block at ptr back to the implicit free list and
// coalesces it with any free neighbors. Freeing nullPtr is a no-op.
// Double-free and freeing a pointer this allocator did not hand out are
// undefined, per the design's Non-goals.
func (a *Allocator) Free(ptr int) {
	if ptr == nullPtr {
		return
	}
	a.ensureInit()

	size := a.blockSizeAt(headerOffset(ptr))
	a.writeHeaderFooter(ptr, size, false)
	a.coalesce(ptr)
}

// Realloc resizes the block at ptr to hold size bytes, using the naive
// always-reallocate strategy: a fresh block is allocated, the overlapping
// prefix of the old payload is copied over, and the old block is freed.
// Realloc(nullPtr, n) behaves as Alloc(n); Realloc(ptr, 0) behaves as
// Free(ptr) and returns nullPtr. On allocation failure the original block
// is left untouched and nullPtr is returned.
func (a *Allocator) Realloc(ptr int, size int) int {
	if size == 0 {
		a.Free(ptr)
		return nullPtr
	}
	if ptr == nullPtr {
		return a.Alloc(size)
	}

	newPtr := a.Alloc(size)
	if newPtr == nullPtr {
		return nullPtr
	}

	oldSize := a.blockSizeAt(headerOffset(ptr)) - DoubleSize // payload capacity
	n := oldSize
	if size < n {
		n = size
	}
	a.sub.CopyWithin(newPtr, ptr, n)
	a.Free(ptr)

	return newPtr
}
