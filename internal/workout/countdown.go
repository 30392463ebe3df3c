package workout

import (
	"sync"
	"time"
)

// Countdown is a restartable 1 Hz countdown. The zero value is idle and ready to use.
//
// The callbacks run with the countdown locked and must not call back into it.
type Countdown struct {
	mu        sync.Mutex
	stop      chan struct{}
	remaining int
}

// Start cancels any running countdown and counts down from seconds. onTick receives seconds immediately and then
// every remaining value down to 0, after which onComplete fires once. Either callback may be nil.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onComplete func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()

	seconds = max(seconds, 0)
	stop := make(chan struct{})
	c.stop = stop
	c.remaining = seconds
	if onTick != nil {
		onTick(seconds)
	}
	if seconds == 0 {
		c.stop = nil
		if onComplete != nil {
			onComplete()
		}
		return
	}
	go c.run(stop, onTick, onComplete)
}

func (c *Countdown) run(stop chan struct{}, onTick func(int), onComplete func()) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.stop != stop {
			// Cancelled or restarted while the tick was pending.
			c.mu.Unlock()
			return
		}
		c.remaining--
		if onTick != nil {
			onTick(c.remaining)
		}
		if c.remaining > 0 {
			c.mu.Unlock()
			continue
		}
		c.stop = nil
		if onComplete != nil {
			onComplete()
		}
		c.mu.Unlock()
		return
	}
}

// Cancel stops a running countdown without firing its completion callback.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

func (c *Countdown) cancelLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.remaining = 0
}

// Remaining returns the seconds left, or 0 when idle.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is counting.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}
