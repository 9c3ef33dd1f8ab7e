//go:build linux

package transport_test

import (
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/transport"
)

func TestListenLocalReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.sock")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	l, err := transport.ListenLocal(path, 8)
	require.NoError(t, err)
	assert.Equal(t, api.TransportLocal, l.Kind())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, fi.Mode().Type())

	require.NoError(t, l.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket path must be unlinked on close")
	assert.NoError(t, l.Close(), "close is idempotent")
}

func TestListenLocalFailsOnUnremovablePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "busy")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), nil, 0o600))

	_, err := transport.ListenLocal(dir, 8)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeSetup, api.CodeOf(err))
}

func TestListenLocalRefusesEmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "calc.sock")
	require.NoError(t, os.Mkdir(dir, 0o700))

	_, err := transport.ListenLocal(dir, 8)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeSetup, api.CodeOf(err))
	assert.ErrorIs(t, err, syscall.EISDIR)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir(), "directory must be left in place")
}

func TestListenTCPAcceptIsNonBlocking(t *testing.T) {
	l, err := transport.ListenTCP(0, 8)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Accept()
	assert.ErrorIs(t, err, api.ErrWouldBlock)

	_, port, err := net.SplitHostPort(l.Addr())
	require.NoError(t, err)
	c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", port))
	require.NoError(t, err)
	defer c.Close()

	var conn api.Conn
	require.Eventually(t, func() bool {
		conn, err = l.Accept()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	defer conn.Close()

	_, err = c.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	n, err := transport.BulkRead(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	n, err = transport.BulkWrite(conn, []byte("pong"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err = transport.BulkRead(c, buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf[:n]))
}

func TestListenTCPAddressInUse(t *testing.T) {
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer probe.Close()
	port := probe.Addr().(*net.TCPAddr).Port

	_, err = transport.ListenTCP(port, 8)
	require.Error(t, err)
	assert.Equal(t, api.ErrCodeSetup, api.CodeOf(err))
}

func TestConnReadDeadline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.sock")
	l, err := transport.ListenLocal(path, 8)
	require.NoError(t, err)
	defer l.Close()

	c, err := net.Dial("unix", path)
	require.NoError(t, err)
	defer c.Close()

	var conn api.Conn
	require.Eventually(t, func() bool {
		conn, err = l.Accept()
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(50*time.Millisecond, 50*time.Millisecond))
	start := time.Now()
	_, err = transport.BulkRead(conn, make([]byte, 20))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
