package ingest

import "fmt"

// NumberAllocator issues run-wide-unique invoice numbers. It is scoped to
// a single ingestion run and is not safe for concurrent use; the run is
// strictly sequential by design.
type NumberAllocator struct {
	issued map[string]bool
}

// NewNumberAllocator creates an allocator with an empty issued set.
func NewNumberAllocator() *NumberAllocator {
	return &NumberAllocator{issued: make(map[string]bool)}
}

// Allocate returns candidate unchanged if it has not been issued in this
// run, otherwise the first unused "<candidate>-N" with N counting up from
// 1. The first occurrence of any candidate always keeps its literal form,
// and the outcome depends only on arrival order.
func (a *NumberAllocator) Allocate(candidate string) string {
	number := candidate
	for counter := 1; a.issued[number]; counter++ {
		number = fmt.Sprintf("%s-%d", candidate, counter)
	}
	a.issued[number] = true
	return number
}
