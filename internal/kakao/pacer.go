package kakao

import (
	"sync"
	"time"
)

// Pacer spaces outgoing chat messages so the relay is never hit
// faster than its rate allows.
type Pacer struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
	sleep         func(time.Duration)
}

func NewPacer(requestsPerSecond int) *Pacer {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Pacer{
		interval: time.Second / time.Duration(requestsPerSecond),
		sleep:    time.Sleep,
	}
}

func (p *Pacer) WaitTurn() {
	p.mu.Lock()
	now := time.Now()
	scheduled := now
	if p.nextAllowedAt.After(now) {
		scheduled = p.nextAllowedAt
	}
	p.nextAllowedAt = scheduled.Add(p.interval)
	p.mu.Unlock()

	if wait := time.Until(scheduled); wait > 0 {
		p.sleep(wait)
	}
}
