// Package system reports host resource usage for the dashboard's status
// panel.
package system

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is a snapshot of host resources relevant to rendering and
// recording.
type Stats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedBytes  uint64  `json:"mem_used_bytes"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
	DiskFreeBytes uint64  `json:"disk_free_bytes"`
}

// Collector samples host stats. The disk figure is for the volume holding
// the data directory, since that is where exports land.
type Collector struct {
	dataDir string
}

func NewCollector(dataDir string) *Collector {
	return &Collector{dataDir: dataDir}
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if percents, err := cpu.PercentWithContext(ctx, 100*time.Millisecond, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemUsedBytes = vm.Used
		stats.MemTotalBytes = vm.Total
	}

	if du, err := disk.UsageWithContext(ctx, c.dataDir); err == nil {
		stats.DiskFreeBytes = du.Free
	}

	return stats, nil
}
