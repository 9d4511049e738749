package cooldown

import "time"

// Clock is the ticking countdown. It is driven by its owner's event loop:
// the owner selects on C and calls Tick.
type Clock struct {
	interval  time.Duration
	now       func() time.Time
	ticker    *time.Ticker
	last      *uint64
	remaining uint64
}

// NewClock builds a stopped clock. now defaults to time.Now.
func NewClock(interval time.Duration, now func() time.Time) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{interval: interval, now: now}
}

// Reset keys the clock to a last timestamp. The period restarts only when
// the value differs from the current key or the clock is stopped.
func (c *Clock) Reset(last *uint64) bool {
	if c.ticker != nil && sameTimestamp(c.last, last) {
		return false
	}

	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.last = copyTimestamp(last)
	c.ticker = time.NewTicker(c.interval)
	c.Tick()
	return true
}

// C returns the tick channel, nil while stopped.
func (c *Clock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C
}

// Tick recomputes the remaining seconds from the wall clock.
func (c *Clock) Tick() uint64 {
	c.remaining = Remaining(c.last, c.now())
	return c.remaining
}

// Remaining returns the value computed by the last tick.
func (c *Clock) Remaining() uint64 {
	return c.remaining
}

// Stop cancels the ticker.
func (c *Clock) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func sameTimestamp(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyTimestamp(ts *uint64) *uint64 {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}
