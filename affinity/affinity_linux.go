//go:build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation on sched_setaffinity(2); pid 0 targets the calling thread.

package affinity

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-calc/api"
)

func pinPlatform(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, c := range cpus {
		set.Set(c)
	}
	if set.Count() != len(uniq(cpus)) {
		return api.NewError(api.ErrCodeUsage, "cpu index out of range").WithContext("cpus", cpus)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return api.NewError(api.ErrCodeSetup, "sched_setaffinity").WithCause(err).WithContext("cpus", cpus)
	}
	return nil
}

// Current reports the CPUs the calling thread may run on.
func Current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	var out []int
	for c := 0; len(out) < set.Count(); c++ {
		if set.IsSet(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func uniq(cpus []int) map[int]struct{} {
	m := make(map[int]struct{}, len(cpus))
	for _, c := range cpus {
		m[c] = struct{}{}
	}
	return m
}
