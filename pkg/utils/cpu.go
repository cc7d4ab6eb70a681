package utils

import "github.com/shirou/gopsutil/cpu"

// CheckCPUUsage is the worker admission gate: it reports whether current CPU
// usage is at or below maxCPUUsage, plus the sampled percentage. A sampling
// error counts as over-limit so a blind worker never picks up work.
func CheckCPUUsage(maxCPUUsage float64) (bool, float64) {
	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		return false, 0
	}
	return usage[0] <= maxCPUUsage, usage[0]
}
