package queue

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolProcessesPushedParcels(t *testing.T) {
	var processed atomic.Int64
	p := NewPool(2, func(parcel Parcel) {
		processed.Add(1)
	}, nil)

	p.Awake()
	for i := 0; i < 10; i++ {
		p.Push(Parcel{Kind: ParcelReady})
	}

	require.Eventually(t, func() bool {
		return processed.Load() == 10
	}, time.Second, time.Millisecond)

	p.Shutdown(false)
	require.Equal(t, 0, p.RunningCount())
}

func TestPoolNeverExceedsWorkerCountMax(t *testing.T) {
	const max = 3
	var peak atomic.Int64
	p := NewPool(max, func(parcel Parcel) {
		time.Sleep(time.Millisecond)
	}, nil)

	for i := 0; i < 50; i++ {
		p.Push(Parcel{Kind: ParcelReady})
		p.Awake()
		if n := int64(p.RunningCount()); n > peak.Load() {
			peak.Store(n)
		}
	}

	require.LessOrEqual(t, peak.Load(), int64(max))
	p.Shutdown(true)
}

func TestPoolFastShutdownDiscardsQueuedWork(t *testing.T) {
	var processed atomic.Int64
	p := NewPool(1, func(parcel Parcel) {
		processed.Add(1)
		time.Sleep(10 * time.Millisecond)
	}, nil)

	p.Awake()
	require.Eventually(t, func() bool { return p.RunningCount() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 100; i++ {
		p.Push(Parcel{Kind: ParcelReady})
	}
	p.Shutdown(true)

	require.Equal(t, 0, p.RunningCount())
	require.Less(t, processed.Load(), int64(100))
}
