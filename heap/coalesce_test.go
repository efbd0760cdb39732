package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countFreeBlocks walks the heap and counts free blocks, for assertions
// about coalescing that don't depend on internal layout details.
func (a *Allocator) countFreeBlocks() int {
	count := 0
	for p := a.heapListP; a.blockSizeAt(headerOffset(p)) > 0; p = a.nextBlockOffset(p) {
		if !a.isAllocatedAt(headerOffset(p)) {
			count++
		}
	}
	return count
}

func TestCoalesceMergesFreedNeighbors(t *testing.T) {
	a := newTestAllocator(t)

	x := a.Alloc(16)
	y := a.Alloc(16)
	z := a.Alloc(16)
	require.NotEqual(t, nullPtr, x)
	require.NotEqual(t, nullPtr, y)
	require.NotEqual(t, nullPtr, z)

	a.Free(x)
	a.Free(z)
	require.NoError(t, a.CheckHeap(false))
	assert.Equal(t, 2, a.countFreeBlocks(), "x and z should remain two separate free blocks")

	a.Free(y)
	require.NoError(t, a.CheckHeap(false))
	assert.Equal(t, 1, a.countFreeBlocks(), "freeing y should coalesce all three into one free block")
}

// noAdjacentFreeBlocks reports whether any two consecutive blocks in the
// walk are both free, which invariant 3 forbids.
func (a *Allocator) noAdjacentFreeBlocks() bool {
	prevFree := false
	for p := a.heapListP; a.blockSizeAt(headerOffset(p)) > 0; p = a.nextBlockOffset(p) {
		free := !a.isAllocatedAt(headerOffset(p))
		if free && prevFree {
			return false
		}
		prevFree = free
	}
	return true
}

func TestExtendHeapCoalescesWithFreeTail(t *testing.T) {
	a := newTestAllocator(t)

	// A request much larger than the remaining free tail from Init forces
	// extend_heap; the new block must merge with that free tail instead
	// of leaving two adjacent free blocks behind.
	p := a.Alloc(ChunkSize * 4)
	require.NotEqual(t, nullPtr, p)

	require.NoError(t, a.CheckHeap(false))
	assert.True(t, a.noAdjacentFreeBlocks())
}
