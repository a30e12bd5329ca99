package querycache

import (
	"fmt"
	"time"
)

// janitorStopTimeout bounds how long Close and Configure wait for the sweep
// goroutine to exit.
const janitorStopTimeout = 5 * time.Second

// startJanitor launches the background sweep goroutine. The janitor exists
// because lazy expiry alone is insufficient: an expired entry nobody re-reads
// would otherwise linger indefinitely.
func (c *QueryCache[V]) startJanitor(interval time.Duration) {
	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()
	c.startJanitorLocked(interval)
}

func (c *QueryCache[V]) startJanitorLocked(interval time.Duration) {
	stop := make(chan struct{})
	done := make(chan struct{})
	c.janitorStop = stop
	c.janitorDone = done

	go c.janitorLoop(interval, stop, done)
}

// restartJanitor replaces the sweep timer with one on the new interval.
// Entries are untouched; only the timer is torn down and recreated.
func (c *QueryCache[V]) restartJanitor(interval time.Duration) {
	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()

	if err := c.stopJanitorLocked(); err != nil {
		c.logger.Warn("janitor did not stop cleanly on restart", "error", err)
	}

	// Close may have raced ahead of us; a destroyed cache stays stopped
	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		return
	}

	c.startJanitorLocked(interval)
}

// stopJanitor signals the sweep goroutine and waits for it, bounded by
// janitorStopTimeout. Safe to call more than once.
func (c *QueryCache[V]) stopJanitor() error {
	c.janitorMu.Lock()
	defer c.janitorMu.Unlock()
	return c.stopJanitorLocked()
}

func (c *QueryCache[V]) stopJanitorLocked() error {
	if c.janitorStop == nil {
		return nil
	}

	select {
	case <-c.janitorStop:
		// Already signalled
	default:
		close(c.janitorStop)
	}

	select {
	case <-c.janitorDone:
		c.janitorStop = nil
		c.janitorDone = nil
		return nil
	case <-time.After(janitorStopTimeout):
		return fmt.Errorf("timeout waiting for janitor to finish")
	}
}

// janitorLoop runs the periodic expiry sweep until stopped.
func (c *QueryCache[V]) janitorLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes every expired entry, independent of any Get/Set call.
func (c *QueryCache[V]) sweep() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	removed := c.removeExpiredLocked(time.Now())
	c.mu.Unlock()

	c.invokeEvictions(removed)
}
