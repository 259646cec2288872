package session

import (
	"sync"
	"time"
)

// DefaultPollInterval is how often a mounted guard re-checks the token.
const DefaultPollInterval = 30 * time.Second

// Clock supplies time to the guard and its poller.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the poller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Poller re-checks a guard on a fixed interval while its view is mounted.
type Poller struct {
	guard    *Guard
	onChange func(State)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartPoller checks the guard once immediately and then every interval
// until Stop is called or the guard becomes Unauthenticated. onChange, if
// non-nil, is called on every state transition, from the polling goroutine
// after the first check. onChange must not block.
func StartPoller(g *Guard, interval time.Duration, onChange func(State)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		guard:    g,
		onChange: onChange,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	prev := g.State()
	state := g.Check()
	p.notify(prev, state)
	if state == Unauthenticated {
		close(p.done)
		return p
	}

	ticker := g.clock.NewTicker(interval)
	go p.run(ticker, state)
	return p
}

func (p *Poller) run(ticker Ticker, state State) {
	defer close(p.done)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C():
			next := p.guard.Check()
			p.notify(state, next)
			state = next
			if state == Unauthenticated {
				return
			}
		}
	}
}

func (p *Poller) notify(prev, next State) {
	if prev != next && p.onChange != nil {
		p.onChange(next)
	}
}

// Stop ends polling. It is idempotent and returns once the polling
// goroutine has exited, so no check runs after Stop returns.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// Done is closed when polling has ended for any reason.
func (p *Poller) Done() <-chan struct{} { return p.done }
