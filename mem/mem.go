// Package mem models the fixed-capacity memory substrate that the block
// allocator builds on top of. It plays the role of memlib.c in the classic
// malloc-lab exercise: a single contiguous region acquired once up front,
// grown only by a monotonic break pointer, and never returned to the OS
// until teardown.
package mem

import (
	"encoding/binary"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/cockroachdb/errors"
)

// MaxHeapSize is the total capacity of the substrate region: 20 MiB.
const MaxHeapSize = 20 * (1 << 20)

// ErrOutOfMemory is returned by Sbrk when growing the break would exceed
// MaxHeapSize.
var ErrOutOfMemory = errors.New("mem: out of memory")

// ErrNotInitialized is returned when an operation is attempted before Init.
var ErrNotInitialized = errors.New("mem: substrate not initialized")

// Substrate is a single private heap region addressed by byte offset. It
// never shrinks and is not safe for concurrent use.
type Substrate struct {
	buf []byte
	brk int
}

// NewSubstrate returns an uninitialized substrate. Init must be called
// before any other method.
func NewSubstrate() *Substrate {
	return &Substrate{}
}

// Init acquires the backing region. The region is deliberately left
// uninitialized (dirtmake.Bytes does not zero it), matching the semantics
// of the C malloc call the original substrate is built on: reads of
// never-written bytes are undefined, not zero.
func (s *Substrate) Init() error {
	s.buf = dirtmake.Bytes(MaxHeapSize, MaxHeapSize)
	s.brk = 0
	return nil
}

// Teardown releases the region. Any further operation is undefined.
func (s *Substrate) Teardown() {
	s.buf = nil
	s.brk = 0
}

// Sbrk grows the break by n bytes and returns the offset of the break
// before growth. It fails with ErrOutOfMemory if the region would be
// exceeded or if n is negative. n is expected to be a multiple of 8; the
// substrate does not itself enforce that, callers do.
func (s *Substrate) Sbrk(n int) (int, error) {
	if s.buf == nil {
		return 0, ErrNotInitialized
	}
	if n < 0 || s.brk+n > len(s.buf) {
		return 0, ErrOutOfMemory
	}
	old := s.brk
	s.brk += n
	return old, nil
}

// Brk returns the current break offset, one past the last byte in use.
func (s *Substrate) Brk() int {
	return s.brk
}

// ReadU32 reads a little-endian 32-bit word at the given byte offset.
func (s *Substrate) ReadU32(offset int) uint32 {
	return binary.LittleEndian.Uint32(s.buf[offset : offset+4])
}

// WriteU32 writes a little-endian 32-bit word at the given byte offset.
func (s *Substrate) WriteU32(offset int, v uint32) {
	binary.LittleEndian.PutUint32(s.buf[offset:offset+4], v)
}

// CopyWithin copies n bytes from src to dst within the region, byte-wise.
// Used by realloc to migrate a payload into its new block.
func (s *Substrate) CopyWithin(dst, src, n int) {
	copy(s.buf[dst:dst+n], s.buf[src:src+n])
}
