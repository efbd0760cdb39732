package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraytos17/implicitalloc/mem"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	a := New()
	require.NoError(t, a.Init())
	t.Cleanup(a.Teardown)
	return a
}

func TestAllocReturnsAlignedPointer(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Alloc(8)
	require.NotEqual(t, nullPtr, p)
	assert.Equal(t, 0, p%DoubleSize)

	a.Free(p)
	assert.NoError(t, a.CheckHeap(false))
}

func TestAllocWriteReadRoundTrip(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Alloc(12)
	require.NotEqual(t, nullPtr, p)

	a.sub.WriteU32(p, 20)
	assert.Equal(t, uint32(20), a.sub.ReadU32(p))

	a.Free(p)
}

func TestReallocPreservesContent(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Alloc(20)
	require.NotEqual(t, nullPtr, p)
	a.sub.WriteU32(p, 20)

	q := a.Realloc(p, 30)
	require.NotEqual(t, nullPtr, q)
	assert.Equal(t, uint32(20), a.sub.ReadU32(q))
}

func TestAllocZeroReturnsNullAndIsNoop(t *testing.T) {
	a := newTestAllocator(t)

	brkBefore := a.sub.Brk()
	p := a.Alloc(0)
	assert.Equal(t, nullPtr, p)
	assert.Equal(t, brkBefore, a.sub.Brk())

	// A second zero-byte request is equally inert.
	p = a.Alloc(0)
	assert.Equal(t, nullPtr, p)
	assert.Equal(t, brkBefore, a.sub.Brk())
}

func TestFreeNullIsNoop(t *testing.T) {
	a := newTestAllocator(t)
	a.Free(nullPtr) // must not panic
	assert.NoError(t, a.CheckHeap(false))
}

func TestReallocNullBehavesAsAlloc(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Realloc(nullPtr, 16)
	assert.NotEqual(t, nullPtr, p)
	assert.Equal(t, 0, p%DoubleSize)
}

func TestReallocZeroBehavesAsFree(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Alloc(16)
	require.NotEqual(t, nullPtr, p)

	q := a.Realloc(p, 0)
	assert.Equal(t, nullPtr, q)
	assert.NoError(t, a.CheckHeap(false))
}

func TestFirstFitReusesEarliestFreedSlot(t *testing.T) {
	a := newTestAllocator(t)

	p := a.Alloc(8)
	q := a.Alloc(8)
	a.Free(p)

	r := a.Alloc(8)
	assert.Equal(t, p, r)
	_ = q
}

func TestLastErrorSetAfterExhaustion(t *testing.T) {
	t.Cleanup(Teardown)

	require.NoError(t, Init())
	assert.Nil(t, LastError())

	for Alloc(ChunkSize) != nullPtr {
	}

	assert.Error(t, LastError())
	assert.ErrorIs(t, LastError(), mem.ErrOutOfMemory)
}

func TestAllocationCountIsBoundedByHeapCapacity(t *testing.T) {
	a := newTestAllocator(t)

	count := 0
	for {
		p := a.Alloc(4096)
		if p == nullPtr {
			break
		}
		count++
	}

	// Each successful 4096-byte request consumes at least 4096+8 bytes of
	// the 20 MiB substrate.
	const maxHeapSize = 20 * (1 << 20)
	assert.LessOrEqual(t, count, maxHeapSize/(4096+8))
	assert.Greater(t, count, 0)
}
