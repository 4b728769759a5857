// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"sync"
	"time"
)

// debouncer coalesces filesystem events into a single callback. Every Note
// resets the quiet-period timer; when the timer finally fires, the callback
// receives the deduplicated set of noted paths.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending map[string]struct{}
	fire    func()
}

func newDebouncer(delay time.Duration, fire func()) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]struct{}),
		fire:    fire,
	}
}

// Note records a changed path and (re)starts the quiet-period timer.
func (d *debouncer) Note(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
	} else {
		d.timer.Reset(d.delay)
	}
}

// Drain takes ownership of the pending set, leaving it empty.
func (d *debouncer) Drain() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return nil
	}
	changed := make([]string, 0, len(d.pending))
	for path := range d.pending {
		changed = append(changed, path)
	}
	clear(d.pending)
	return changed
}

// Retry re-arms the timer without noting a new path, so a deferred firing
// (e.g. while a previous callback is still running) is not lost when no
// further events arrive.
func (d *debouncer) Retry() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Reset(d.delay)
	}
}

// Stop halts the timer and drains its channel.
func (d *debouncer) Stop() {
	d.mu.Lock()
	timer := d.timer
	d.mu.Unlock()

	if timer != nil && !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
