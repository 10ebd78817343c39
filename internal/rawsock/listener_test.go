package rawsock

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenAcceptTCPRoundTrip(t *testing.T) {
	ln, err := Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)

	dialed := make(chan error, 1)
	go func() {
		c, err := net.Dial("tcp", addr.String())
		if err == nil {
			c.Write([]byte("hi"))
			c.Close()
		}
		dialed <- err
	}()

	var conn *Conn
	require.Eventually(t, func() bool {
		c, wouldBlock, err := ln.Accept()
		require.NoError(t, err)
		if wouldBlock {
			return false
		}
		conn = c
		return true
	}, time.Second, time.Millisecond)
	require.NoError(t, <-dialed)

	buf := make([]byte, 16)
	require.Eventually(t, func() bool {
		n, wouldBlock, err := conn.TryRead(buf)
		require.NoError(t, err)
		return !wouldBlock && n == 2
	}, time.Second, time.Millisecond)
	conn.Close()
}

func TestListenUnixCreatesAndUnlinksSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wrustlr-test.sock")

	ln, err := Listen("unix", path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	require.NoError(t, ln.Close())

	_, statErr = os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
