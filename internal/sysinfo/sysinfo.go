// Package sysinfo reports host CPU, memory and disk capacity.
package sysinfo

import (
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Report summarizes host resources relevant to encoding.
type Report struct {
	LogicalCores    int    `json:"logical_cores"`
	PhysicalCores   int    `json:"physical_cores"`
	TotalMemory     uint64 `json:"total_memory"`
	AvailableMemory uint64 `json:"available_memory"`
}

// Collect gathers the host resource report.
func Collect() (Report, error) {
	logical, err := cpu.Counts(true)
	if err != nil {
		return Report{}, fmt.Errorf("failed to count logical cores: %w", err)
	}

	physical, err := cpu.Counts(false)
	if err != nil {
		// Some platforms cannot report physical cores; logical is close enough.
		physical = logical
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Report{}, fmt.Errorf("failed to read memory info: %w", err)
	}

	return Report{
		LogicalCores:    logical,
		PhysicalCores:   physical,
		TotalMemory:     vm.Total,
		AvailableMemory: vm.Available,
	}, nil
}

// FreeDiskSpace returns the free bytes on the volume holding path. The
// path itself does not need to exist; its directory does.
func FreeDiskSpace(path string) (uint64, error) {
	usage, err := disk.Usage(filepath.Dir(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read disk usage: %w", err)
	}
	return usage.Free, nil
}
