package util

import (
	"runtime"
)

// GetHeapAllocMB returns the current heap allocation in MB.
func GetHeapAllocMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}

// HeapAbove reports whether the heap exceeds limitMB. A zero limit is
// never exceeded.
func HeapAbove(limitMB int) bool {
	if limitMB <= 0 {
		return false
	}
	return GetHeapAllocMB() > uint64(limitMB)
}
