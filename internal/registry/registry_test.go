package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workanator/wrustlr/internal/token"
)

func TestListenerRegistryTokensAreDenseFromZero(t *testing.T) {
	r := NewListenerRegistry[string]()
	a := r.Add("tcp:7000")
	b := r.Add("unix:/tmp/s.sock")

	require.Equal(t, token.Token(0), a)
	require.Equal(t, token.Token(1), b)
	require.Equal(t, 2, r.Len())

	v, ok := r.Get(a)
	require.True(t, ok)
	require.Equal(t, "tcp:7000", v)

	_, ok = r.Get(token.Token(2))
	require.False(t, ok)
}

func TestConnectionRegistryTokensStartAtFloor(t *testing.T) {
	r := NewConnectionRegistry[int](token.Token(2), 4)

	t1, err := r.Insert(100)
	require.NoError(t, err)
	require.Equal(t, token.Token(2), t1)

	t2, err := r.Insert(200)
	require.NoError(t, err)
	require.Equal(t, token.Token(3), t2)
	require.Equal(t, 2, r.Len())
}

func TestConnectionRegistryFreeListReuse(t *testing.T) {
	r := NewConnectionRegistry[int](token.Token(0), 2)

	t1, err := r.Insert(1)
	require.NoError(t, err)
	_, err = r.Insert(2)
	require.NoError(t, err)

	r.Remove(t1)
	require.Equal(t, 1, r.Len())

	t3, err := r.Insert(3)
	require.NoError(t, err)
	require.Equal(t, t1, t3, "freed slot should be reused")

	v, ok := r.Get(t3)
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestConnectionRegistryFullSlabFailsInsert(t *testing.T) {
	r := NewConnectionRegistry[int](token.Token(0), 1)
	_, err := r.Insert(1)
	require.NoError(t, err)

	_, err = r.Insert(2)
	require.Error(t, err)
}

func TestConnectionRegistryRemoveUnknownTokenIsNoop(t *testing.T) {
	r := NewConnectionRegistry[int](token.Token(0), 2)
	require.NotPanics(t, func() { r.Remove(token.Token(99)) })
}
