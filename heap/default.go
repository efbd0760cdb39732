package heap

// Default is the package-level allocator instance used by the
// convenience wrappers below, for hosts that want a single ambient heap
// rather than managing an *Allocator themselves.
var Default = New()

func Init() error                  { return Default.Init() }
func Alloc(size int) int           { return Default.Alloc(size) }
func Free(ptr int)                 { Default.Free(ptr) }
func Realloc(ptr, size int) int    { return Default.Realloc(ptr, size) }
func CheckHeap(verbose bool) error { return Default.CheckHeap(verbose) }
func Teardown()                    { Default.Teardown() }
func LastError() error             { return Default.LastError() }
