//go:build darwin

package dispatcher

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/token"
)

// kqueuePoller is the Darwin poller backend, adapted from the FastPoller in
// eventloop/poller_darwin.go: same Kqueue/Kevent calls, but every
// registration carries EV_ONESHOT for one-shot delivery (kqueue has no
// separate edge-triggered flag — EV_CLEAR gives the edge-triggered
// behavior that EPOLLET provides on Linux) and events resolve to a
// token.Token instead of invoking a stored callback.
type kqueuePoller struct {
	kq       int
	eventBuf [256]unix.Kevent_t

	mu     sync.RWMutex
	tokens map[int]token.Token
}

func newPoller() (*kqueuePoller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{kq: kq, tokens: make(map[int]token.Token)}, nil
}

func (p *kqueuePoller) Register(fd int, tok token.Token, interest ioevent.Interest) error {
	p.mu.Lock()
	p.tokens[fd] = tok
	p.mu.Unlock()

	changes := interestToKevents(fd, interest, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT|unix.EV_CLEAR)
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		p.mu.Lock()
		delete(p.tokens, fd)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *kqueuePoller) Reregister(fd int, tok token.Token, interest ioevent.Interest) error {
	p.mu.Lock()
	p.tokens[fd] = tok
	p.mu.Unlock()

	changes := interestToKevents(fd, interest, unix.EV_ADD|unix.EV_ENABLE|unix.EV_ONESHOT|unix.EV_CLEAR)
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Unregister(fd int) error {
	p.mu.Lock()
	delete(p.tokens, fd)
	p.mu.Unlock()

	changes := interestToKevents(fd, ioevent.Readable|ioevent.Writable, unix.EV_DELETE)
	// One-shot events already consumed themselves; ignore delete errors
	// for filters that are no longer armed.
	unix.Kevent(p.kq, changes, nil, nil)
	return nil
}

func (p *kqueuePoller) Wait(timeoutMs int) ([]event, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	events := make([]event, 0, n)
	p.mu.RLock()
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		tok, ok := p.tokens[fd]
		if !ok {
			continue
		}
		events = append(events, event{Token: tok, Interest: fromKevent(&p.eventBuf[i])})
	}
	p.mu.RUnlock()
	return events, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}

func interestToKevents(fd int, interest ioevent.Interest, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if interest.Has(ioevent.Readable) {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if interest.Has(ioevent.Writable) {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevents
}

func fromKevent(kev *unix.Kevent_t) ioevent.Interest {
	var interest ioevent.Interest
	switch kev.Filter {
	case unix.EVFILT_READ:
		interest |= ioevent.Readable
	case unix.EVFILT_WRITE:
		interest |= ioevent.Writable
	}
	if kev.Flags&unix.EV_EOF != 0 || kev.Flags&unix.EV_ERROR != 0 {
		interest |= ioevent.Readable | ioevent.Writable
	}
	return interest
}
