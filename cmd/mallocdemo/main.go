// Command mallocdemo drives the implicit free-list allocator end to end
// for manual inspection, in the spirit of the teacher's original smoke
// test: allocate, inspect, free, inspect again.
package main

import (
	"github.com/kraytos17/implicitalloc/heap"
)

func main() {
	if err := heap.Init(); err != nil {
		panic(err)
	}
	defer heap.Teardown()

	ptr := heap.Alloc(123)
	_ = heap.CheckHeap(true)

	heap.Free(ptr)
	_ = heap.CheckHeap(true)
}
