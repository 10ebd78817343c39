package queue

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDequePushTryPopLIFO(t *testing.T) {
	d := NewDeque[int]()
	d.Push(1)
	d.Push(2)
	d.Push(3)

	v, ok := d.TryPop()
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = d.TryPop()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = d.TryPop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = d.TryPop()
	require.False(t, ok)
}

func TestDequeStealFIFOFromTop(t *testing.T) {
	d := NewDeque[int]()
	d.Push(1)
	d.Push(2)
	d.Push(3)

	v, status := d.Steal()
	require.Equal(t, StealOK, status)
	require.Equal(t, 1, v)

	v, status = d.Steal()
	require.Equal(t, StealOK, status)
	require.Equal(t, 2, v)
}

func TestDequeStealEmpty(t *testing.T) {
	d := NewDeque[int]()
	_, status := d.Steal()
	require.Equal(t, StealEmpty, status)
}

func TestDequeGrowsBeyondInitialCapacity(t *testing.T) {
	d := NewDeque[int]()
	const n = initialDequeCapacity * 4
	for i := 0; i < n; i++ {
		d.Push(i)
	}

	seen := make([]int, 0, n)
	for {
		v, status := d.Steal()
		if status == StealEmpty {
			break
		}
		if status == StealAbort {
			continue
		}
		seen = append(seen, v)
	}

	require.Len(t, seen, n)
	for i, v := range seen {
		require.Equal(t, i, v)
	}
}

func TestDequeConcurrentStealersSeeEachItemOnce(t *testing.T) {
	d := NewDeque[int]()
	const n = 2000
	for i := 0; i < n; i++ {
		d.Push(i)
	}

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, status := d.Steal()
				switch status {
				case StealEmpty:
					return
				case StealAbort:
					continue
				default:
					mu.Lock()
					got = append(got, v)
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, got, n)
	sort.Ints(got)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}
