package heap

import "github.com/cockroachdb/errors"

// ErrHeapNotInitialized is returned by operations that require Init to
// have run first and find it has not (outside the lazy-init path used by
// the public entry points).
var ErrHeapNotInitialized = errors.New("heap: not initialized")

// ErrHeapCorrupt is the sentinel wrapped into CheckHeap's combined error
// when any block-level invariant is violated.
var ErrHeapCorrupt = errors.New("heap: corrupt")
