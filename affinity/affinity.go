// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files guarded by build tags.

package affinity

import "github.com/momentics/hioload-calc/api"

// Pin restricts the calling OS thread to the given logical CPUs. The caller
// must hold runtime.LockOSThread, otherwise the mask lands on whichever
// thread happens to run the goroutine.
func Pin(cpus []int) error {
	if len(cpus) == 0 {
		return nil
	}
	for _, c := range cpus {
		if c < 0 {
			return api.NewError(api.ErrCodeUsage, "cpu index must not be negative").WithContext("cpu", c)
		}
	}
	return pinPlatform(cpus)
}
