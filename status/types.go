package status

import (
	"runtime"
	"time"

	"github.com/eventatlas/eventatlas/config"
	"github.com/eventatlas/eventatlas/status/health"
)

type HealthResponse struct {
	Status     health.Status            `json:"status"`
	Components map[string]health.Result `json:"components,omitempty"`
}

type StatusResponse struct {
	Version string  `json:"version"`
	Commit  string  `json:"commit"`
	Uptime  int64   `json:"uptime_seconds"`
	Runtime Runtime `json:"runtime"`
	*Report
}

type Runtime struct {
	Go          string  `json:"go"`
	Goroutines  int     `json:"goroutines"`
	AllocMiB    float64 `json:"alloc_mib"`
	SysMiB      float64 `json:"sys_mib"`
	HeapObjects uint64  `json:"heap_objects"`
	NumGC       uint32  `json:"num_gc"`
}

func mib(b uint64) float64 {
	return float64(b) / (1 << 20)
}

func readRuntime() Runtime {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return Runtime{
		Go:          runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		AllocMiB:    mib(stats.Alloc),
		SysMiB:      mib(stats.Sys),
		HeapObjects: stats.HeapObjects,
		NumGC:       stats.NumGC,
	}
}

func newStatusResponse(startedAt time.Time, report *Report) StatusResponse {
	return StatusResponse{
		Version: config.VERSION,
		Commit:  config.COMMIT,
		Uptime:  int64(time.Since(startedAt).Seconds()),
		Runtime: readRuntime(),
		Report:  report,
	}
}
