package syncx

import (
	"sync"
	"time"
)

// Debouncer collapses rapid successive inputs into a single callback.
// Trigger arms (or re-arms) a timer with the latest value; when the quiet
// period elapses without a newer input, the callback fires once with that
// value and the debouncer returns to idle.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	fn    func(string)
	timer *time.Timer
}

// NewDebouncer creates a debouncer that invokes fn with the most recent
// value once no new value has arrived for the quiet period.
func NewDebouncer(quiet time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		fn:    fn,
	}
}

// Trigger records a new input value. Any previously armed timer is replaced
// so at most one callback fires per quiet interval.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		d.timer = nil
		d.mu.Unlock()
		d.fn(value)
	})
}

// Stop cancels any armed timer without firing.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
