package queue

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler processes one stolen Parcel. Implementations live in
// internal/worker; the queue package stays agnostic of connection and
// module types so it can be imported by both the dispatcher and the
// worker package without a cycle.
type Handler func(Parcel)

// Pool is the work-stealing worker pool, grounded on Queue/Worker in
// original_source/.../net/work/{queue,worker}.rs. Workers are plain
// goroutines spawned on demand up to workerCountMax; Push and Awake are
// called from the Dispatcher goroutine only.
type Pool struct {
	deque   *Deque[Parcel]
	ready   ReadyFlag
	handler Handler
	log     *logrus.Logger

	workerCountMax int
	running        atomic.Int64
	nextWorkerID   atomic.Int64
}

// NewPool builds a Pool bounded at workerCountMax concurrently running
// workers, dispatching stolen parcels to handler.
func NewPool(workerCountMax int, handler Handler, log *logrus.Logger) *Pool {
	return &Pool{
		deque:          NewDeque[Parcel](),
		ready:          NewReadyFlag(),
		handler:        handler,
		log:            log,
		workerCountMax: workerCountMax,
	}
}

// Push enqueues parcel and wakes every sleeping worker, mirroring
// Queue::push.
func (p *Pool) Push(parcel Parcel) {
	p.deque.Push(parcel)
	p.ready.Raise(NotifyAll)
}

// Awake wakes one sleeping worker and tops the pool up to
// workerCountMax, mirroring Queue::awake.
func (p *Pool) Awake() {
	p.ready.Raise(NotifyOne)

	diff := p.workerCountMax - int(p.running.Load())
	for i := 0; i < diff; i++ {
		p.spawn()
	}
}

// RunningCount reports how many worker goroutines are currently alive.
func (p *Pool) RunningCount() int {
	return int(p.running.Load())
}

func (p *Pool) spawn() {
	id := p.nextWorkerID.Add(1) - 1
	p.running.Add(1)
	go p.run(id)
}

func (p *Pool) run(id int64) {
	defer p.running.Add(-1)

	if p.log != nil {
		p.log.WithField("worker", id).Debug("worker started")
	}

	for {
		parcel, status := p.deque.Steal()
		switch status {
		case StealEmpty:
			p.ready.Wait()
		case StealAbort:
			// Lost a race with another stealer; retry immediately.
		case StealOK:
			if parcel.Kind == ParcelShutdown {
				if p.log != nil {
					p.log.WithField("worker", id).Debug("worker finished")
				}
				return
			}
			p.handler(parcel)
		}
	}
}

// Shutdown runs the fast-drain protocol: optionally discard every queued
// parcel, push one ParcelShutdown per currently running worker, then
// raise-and-wait until they have all exited. Grounded on Queue::shutdown.
func (p *Pool) Shutdown(fast bool) {
	if fast {
		for {
			if _, ok := p.deque.TryPop(); !ok {
				break
			}
		}
	}

	running := p.running.Load()
	for i := int64(0); i < running; i++ {
		p.deque.Push(Parcel{Kind: ParcelShutdown})
	}

	for p.running.Load() > 0 {
		p.ready.Raise(NotifyAll)
		time.Sleep(100 * time.Millisecond)
	}
}
