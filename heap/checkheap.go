package heap

import "github.com/cockroachdb/errors"

// CheckHeap walks the heap from heapListP to the epilogue and verifies the
// prologue and epilogue sentinels and, for every block, doubleword
// alignment of the payload and header/footer agreement. It never mutates
// heap state and never panics; every violation found is logged and folded
// into the returned error (nil if the heap is consistent). When verbose is
// true, every block's (offset, size, allocated) is also logged.
func (a *Allocator) CheckHeap(verbose bool) error {
	if !a.initialized {
		return ErrHeapNotInitialized
	}

	var violations error

	p := a.heapListP
	if hdr := headerOffset(p); a.blockSizeAt(hdr) != prologueSize || !a.isAllocatedAt(hdr) {
		violations = errors.CombineErrors(violations, errors.Wrap(ErrHeapCorrupt, "bad prologue header"))
		a.log.Error().Int("offset", p).Msg("heap: bad prologue header")
	}

	for a.blockSizeAt(headerOffset(p)) > 0 {
		if verbose {
			a.logBlock(p)
		}
		next := a.nextBlockOffset(p)
		if next > a.sub.Brk() {
			violations = errors.CombineErrors(violations, errors.Wrapf(ErrHeapCorrupt, "block at %d extends past the break", p))
			a.log.Error().Int("offset", p).Msg("heap: block extends past the break")
			return violations
		}
		violations = errors.CombineErrors(violations, a.checkBlock(p))
		p = next
	}

	if verbose {
		a.logBlock(p)
	}
	if hdr := headerOffset(p); a.blockSizeAt(hdr) != epilogueSize || !a.isAllocatedAt(hdr) {
		violations = errors.CombineErrors(violations, errors.Wrap(ErrHeapCorrupt, "bad epilogue header"))
		a.log.Error().Int("offset", p).Msg("heap: bad epilogue header")
	}

	return violations
}

// checkBlock verifies the two per-block invariants: doubleword alignment
// of the payload, and header/footer agreement.
func (a *Allocator) checkBlock(payload int) error {
	var err error

	if payload%DoubleSize != 0 {
		err = errors.CombineErrors(err, errors.Wrapf(ErrHeapCorrupt, "block at %d is not doubleword aligned", payload))
		a.log.Error().Int("offset", payload).Msg("heap: block not doubleword aligned")
	}

	header := a.sub.ReadU32(headerOffset(payload))
	footer := a.sub.ReadU32(a.footerOffset(payload))
	if header != footer {
		err = errors.CombineErrors(err, errors.Wrapf(ErrHeapCorrupt, "header/footer mismatch at %d", payload))
		a.log.Error().Int("offset", payload).Uint32("header", header).Uint32("footer", footer).Msg("heap: header does not match footer")
	}

	return err
}

// logBlock emits a single diagnostic line describing the block at payload.
func (a *Allocator) logBlock(payload int) {
	size := a.blockSizeAt(headerOffset(payload))
	if size == 0 {
		a.log.Info().Int("offset", payload).Msg("heap: EOL")
		return
	}
	a.log.Info().
		Int("offset", payload).
		Int("size", size).
		Bool("allocated", a.isAllocatedAt(headerOffset(payload))).
		Msg("heap: block")
}
