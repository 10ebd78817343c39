package dispatcher

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/workanator/wrustlr/internal/config"
	"github.com/workanator/wrustlr/internal/netproto"
	"github.com/workanator/wrustlr/internal/stream"
)

// echoBehavior is a minimal stream.Behavior used to exercise the full
// accept -> read -> write -> close path without depending on
// modules/echo, keeping this test focused on the Dispatcher/poller/worker
// wiring.
type echoBehavior struct{}

func (echoBehavior) Open(stream.Descriptor) stream.Intention { return stream.Intent(stream.Read) }
func (echoBehavior) Read(_ stream.Descriptor, data []byte) stream.Intention {
	if len(data) > 0 && data[0] == 'Q' {
		return stream.Intent(stream.Close)
	}
	return stream.Intent(stream.Write)
}
func (e echoBehavior) Write(_ stream.Descriptor, out *bytes.Buffer) (stream.Intention, stream.Flush) {
	out.WriteString("pong")
	return stream.Intent(stream.Read), stream.FlushAuto
}
func (echoBehavior) Close(stream.Descriptor) {}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func newTestFactory() *stream.Factory {
	f := stream.NewFactory(nil, nil)
	f.Register(stream.StreamCategory, "echo-test", "0.0.0", func(*config.Document, string) (stream.Behavior, error) {
		return echoBehavior{}, nil
	})
	return f
}

func TestDispatcherAcceptReadWriteRoundTrip(t *testing.T) {
	port := freePort(t)
	servers := []config.ServerSpec{{
		Listen:  config.SocketSpec{Protocol: netproto.TCP, Address: "127.0.0.1", Port: port},
		Forward: config.ModuleSpec{Name: "echo-test"},
	}}

	d, err := New(servers, newTestFactory(), 2, nil)
	require.NoError(t, err)

	control := make(chan string)
	reply := make(chan string)
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(control, reply) }()

	var conn net.Conn
	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "pong", string(buf[:n]))

	_, err = conn.Write([]byte("Quit"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err = conn.Read(buf)
	require.True(t, err != nil || n == 0, "expected the server to close the connection")

	control <- "shutdown"
	require.Equal(t, "ok", <-reply)
	require.NoError(t, <-runErr)
}

func TestDispatcherUnixSocketLifecycle(t *testing.T) {
	path := t.TempDir() + "/wrustlr-dispatcher-test.sock"
	servers := []config.ServerSpec{{
		Listen:  config.SocketSpec{Protocol: netproto.Unix, Path: path},
		Forward: config.ModuleSpec{Name: "echo-test"},
	}}

	d, err := New(servers, newTestFactory(), 2, nil)
	require.NoError(t, err)

	control := make(chan string)
	reply := make(chan string)
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(control, reply) }()

	require.Eventually(t, func() bool {
		_, err := net.Dial("unix", path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	control <- "shutdown"
	require.Equal(t, "ok", <-reply)
	require.NoError(t, <-runErr)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "expected the socket file to be removed on shutdown")
}
