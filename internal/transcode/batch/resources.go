package batch

import (
	"context"
	"math"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// perProcessMemory is the working set budgeted for one engine process
const perProcessMemory = 1 << 30

// DefaultConcurrency sizes a concurrent batch from the host: one engine per
// idle physical core, but never more than available memory allows.
func DefaultConcurrency(ctx context.Context) int {
	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}

	n := cores
	if avg, err := load.AvgWithContext(ctx); err == nil {
		n = cores - int(math.Floor(avg.Load1))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Available > 0 {
		if byMemory := int(vm.Available / perProcessMemory); byMemory < n {
			n = byMemory
		}
	}

	if n < 1 {
		n = 1
	}
	return n
}
