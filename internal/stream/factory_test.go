package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workanator/wrustlr/internal/config"
)

type nopModule struct{}

func (nopModule) Open(Descriptor) Intention                         { return Intent(Read) }
func (nopModule) Read(Descriptor, []byte) Intention                 { return Intent(Read) }
func (nopModule) Write(Descriptor, *bytes.Buffer) (Intention, Flush) { return Intent(Read), FlushAuto }
func (nopModule) Close(Descriptor)                                  {}

func TestFactoryProduceRoundTrip(t *testing.T) {
	f := NewFactory(nil, nil)

	var gotBase string
	f.Register(StreamCategory, "nop", "0.1.0", func(doc *config.Document, basePath string) (Behavior, error) {
		gotBase = basePath
		return nopModule{}, nil
	})

	behavior, err := f.Produce(StreamCategory, "nop", "servers.[0].forward")
	require.NoError(t, err)
	require.NotNil(t, behavior)
	require.Equal(t, "servers.[0].forward", gotBase)
}

func TestFactoryProduceUnknownModule(t *testing.T) {
	f := NewFactory(nil, nil)
	_, err := f.Produce(StreamCategory, "missing", "x")
	require.Error(t, err)
}
