// Package countdown implements the resend-code timer shared by the
// registration and password-reset dialogs.
package countdown

import (
	"context"
	"sync"
	"time"
)

const DefaultSeconds = 60

// Countdown counts whole seconds down to zero. When it reaches zero it stops
// and fires the ready callback exactly once per run; Restart begins a new run.
type Countdown struct {
	start    int
	interval time.Duration

	mu        sync.Mutex
	remaining int
	ready     bool
	sending   bool
	run       uint64

	onTick  func(remaining int)
	onReady func()
}

type Option func(*Countdown)

// WithInterval sets the tick period used by Run. Default one second.
func WithInterval(d time.Duration) Option {
	return func(c *Countdown) { c.interval = d }
}

func OnTick(fn func(remaining int)) Option {
	return func(c *Countdown) { c.onTick = fn }
}

func OnReady(fn func()) Option {
	return func(c *Countdown) { c.onReady = fn }
}

func New(seconds int, opts ...Option) *Countdown {
	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	c := &Countdown{start: seconds, interval: time.Second, remaining: seconds}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Ready reports whether resend is enabled: the count is at zero and no
// resend is in flight.
func (c *Countdown) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready && !c.sending
}

// Tick decrements by one second. It is a no-op once the count is at zero.
func (c *Countdown) Tick() {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	c.tickRun(run)
}

// tickRun decrements only while run is still current. The run check and the
// decrement share one critical section so a superseded Run cannot take a
// second off its successor. It reports the remaining count and whether a
// decrement happened.
func (c *Countdown) tickRun(run uint64) (int, bool) {
	c.mu.Lock()
	if run != c.run || c.remaining == 0 {
		rem := c.remaining
		c.mu.Unlock()
		return rem, false
	}
	c.remaining--
	rem := c.remaining
	fire := rem == 0 && !c.ready
	if fire {
		c.ready = true
	}
	onTick, onReady := c.onTick, c.onReady
	c.mu.Unlock()

	if onTick != nil {
		onTick(rem)
	}
	if fire && onReady != nil {
		onReady()
	}
	return rem, true
}

// Restart resets to the full count and disables resend. Any Run started for
// an earlier run returns at its next tick.
func (c *Countdown) Restart() {
	c.mu.Lock()
	c.remaining = c.start
	c.ready = false
	c.sending = false
	c.run++
	rem := c.remaining
	onTick := c.onTick
	c.mu.Unlock()

	if onTick != nil {
		onTick(rem)
	}
}

// Stop ends the current run without enabling resend.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.run++
	c.mu.Unlock()
}

// BeginSend marks a resend as in flight. It reports false, changing nothing,
// when resend is not enabled.
func (c *Countdown) BeginSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready || c.sending {
		return false
	}
	c.sending = true
	return true
}

// EndSend clears the in-flight mark after a failed resend; resend stays
// enabled.
func (c *Countdown) EndSend() {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
}

// Run ticks every interval until the count reaches zero, ctx is done, or the
// run is superseded by Restart or Stop.
func (c *Countdown) Run(ctx context.Context) {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	t := time.NewTicker(c.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rem, ok := c.tickRun(run)
			if !ok || rem == 0 {
				return
			}
		}
	}
}
