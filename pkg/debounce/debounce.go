// Package debounce coalesces bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once, delay after the last Trigger.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
	running sync.WaitGroup
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)arms the timer. A zero delay runs fn synchronously.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.delay <= 0 {
		d.mu.Unlock()
		d.fn()
		return
	}

	if d.timer != nil && d.timer.Stop() {
		d.running.Done()
	}
	d.pending = true
	d.running.Add(1)
	d.timer = time.AfterFunc(d.delay, d.fire)
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	defer d.running.Done()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}

// Flush runs a pending call now instead of waiting for the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer.Stop() {
		d.running.Done()
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}

// Stop flushes any pending call and disables further triggers. It waits for
// an in-progress timer callback to finish.
func (d *Debouncer) Stop() {
	d.Flush()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.running.Wait()
}
