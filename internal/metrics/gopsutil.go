package metrics

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// GopsutilCPU implements CPUProvider using gopsutil.
type GopsutilCPU struct{}

// NewGopsutilCPU creates a new gopsutil-based CPU provider.
func NewGopsutilCPU() *GopsutilCPU {
	return &GopsutilCPU{}
}

// Counts returns the number of CPU cores.
func (g *GopsutilCPU) Counts(logical bool) (int, error) {
	return cpu.Counts(logical)
}

// Percent returns CPU usage percentages.
func (g *GopsutilCPU) Percent(interval time.Duration, perCore bool) ([]float64, error) {
	return cpu.Percent(interval, perCore)
}

// GopsutilMemory implements MemoryProvider using gopsutil.
type GopsutilMemory struct{}

// NewGopsutilMemory creates a new gopsutil-based memory provider.
func NewGopsutilMemory() *GopsutilMemory {
	return &GopsutilMemory{}
}

// UsedPercent returns the percentage of memory in use.
func (g *GopsutilMemory) UsedPercent() (float64, error) {
	vmem, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vmem.UsedPercent, nil
}

// Default provider instances for convenience.
var (
	DefaultCPU    CPUProvider    = NewGopsutilCPU()
	DefaultMemory MemoryProvider = NewGopsutilMemory()
)
