//go:build linux

package affinity_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-calc/affinity"
	"github.com/momentics/hioload-calc/api"
)

func TestPinRestrictsCallingThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := affinity.Current()
	require.NoError(t, err)
	require.NotEmpty(t, orig)
	defer func() { require.NoError(t, affinity.Pin(orig)) }()

	require.NoError(t, affinity.Pin(orig[:1]))
	now, err := affinity.Current()
	require.NoError(t, err)
	assert.Equal(t, orig[:1], now)
}

func TestPinRejectsBadIndexes(t *testing.T) {
	assert.Equal(t, api.ErrCodeUsage, api.CodeOf(affinity.Pin([]int{-1})))
	assert.Equal(t, api.ErrCodeUsage, api.CodeOf(affinity.Pin([]int{1 << 20})))
	assert.NoError(t, affinity.Pin(nil), "empty set is a no-op")
}
