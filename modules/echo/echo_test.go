package echo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workanator/wrustlr/internal/config"
	"github.com/workanator/wrustlr/internal/stream"
)

func writeConf(t *testing.T, body string) *config.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	doc, err := config.Load(path)
	require.NoError(t, err)
	return doc
}

func TestBasicEchoRoundTrip(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: false\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(1, nil)
	require.Equal(t, stream.Intent(stream.Read), behavior.Open(desc))

	intent := behavior.Read(desc, []byte("hello\n"))
	require.Equal(t, stream.Write, intent.Kind)

	var out bytes.Buffer
	writeIntent, flush := behavior.Write(desc, &out)
	require.Equal(t, stream.Read, writeIntent.Kind)
	require.Equal(t, stream.FlushForce, flush)
	require.Equal(t, "hello\n", out.String())
}

func TestEchoWriteForcesFlushOnNonCloseWrite(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: false\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(6, nil)
	behavior.Read(desc, []byte("ping\n"))

	var out bytes.Buffer
	_, flush := behavior.Write(desc, &out)
	require.Equal(t, stream.FlushForce, flush)
}

func TestQuitPrefixEchoesThenCloses(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: false\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(2, nil)
	intent := behavior.Read(desc, []byte("Quit\n"))
	require.Equal(t, stream.Write, intent.Kind)

	var out bytes.Buffer
	writeIntent, _ := behavior.Write(desc, &out)
	require.Equal(t, stream.Close, writeIntent.Kind)
	require.Equal(t, "Quit\n", out.String())
}

func TestReversePreservesTrailingNewline(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: true\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(3, nil)
	behavior.Read(desc, []byte("abc\n"))

	var out bytes.Buffer
	behavior.Write(desc, &out)
	require.Equal(t, "cba\n", out.String())
}

func TestReverseWithoutTrailingNewline(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: true\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(4, nil)
	behavior.Read(desc, []byte("abcd"))

	var out bytes.Buffer
	behavior.Write(desc, &out)
	require.Equal(t, "dcba", out.String())
}

func TestPerConnectionStateIsIsolatedByDescriptor(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: false\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	a := stream.NewDescriptor(10, nil)
	b := stream.NewDescriptor(20, nil)
	behavior.Read(a, []byte("from-a\n"))
	behavior.Read(b, []byte("from-b\n"))

	var outA, outB bytes.Buffer
	behavior.Write(a, &outA)
	behavior.Write(b, &outB)
	require.Equal(t, "from-a\n", outA.String())
	require.Equal(t, "from-b\n", outB.String())
}

func TestCloseClearsPendingState(t *testing.T) {
	doc := writeConf(t, "echo:\n  reverse: false\n")
	behavior, err := New(doc, "echo")
	require.NoError(t, err)

	desc := stream.NewDescriptor(5, nil)
	behavior.Read(desc, []byte("leftover"))
	behavior.Close(desc)

	var out bytes.Buffer
	behavior.Write(desc, &out)
	require.Empty(t, out.String())
}
