package session

import "runtime"

// processMemoryUsageMB reports the process's live heap in megabytes. Used
// for the per-chunk memory guard and for memory usage queries.
func processMemoryUsageMB() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapAlloc) / (1024 * 1024)
}
