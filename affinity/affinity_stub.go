//go:build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-calc/api"
)

func pinPlatform([]int) error {
	return fmt.Errorf("affinity: %w", api.ErrNotSupported)
}

// Current is unavailable off Linux.
func Current() ([]int, error) {
	return nil, fmt.Errorf("affinity: %w", api.ErrNotSupported)
}
