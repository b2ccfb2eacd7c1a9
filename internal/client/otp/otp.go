// Package otp implements the six-cell verification-code input. One Input is
// created per Scope; instances share nothing.
package otp

import (
	"strings"
	"sync"
	"time"
)

const Length = 6

// DefaultErrorClearDelay is how long cells stay marked after ShowError.
const DefaultErrorClearDelay = time.Second

type Scope string

const (
	ScopeRegistration Scope = "registration"
	ScopeReset        Scope = "reset"
)

// Input holds the cell values, per-cell error flags and the focused cell.
// It is safe for concurrent use; the error-clear timer runs on its own
// goroutine.
type Input struct {
	scope Scope
	delay time.Duration

	mu      sync.Mutex
	cells   [Length]string
	errored [Length]bool
	focus   int
	clear   *time.Timer
	gen     uint64

	onChange func(Snapshot)
}

// Snapshot is a copy of the input state handed to OnChange.
type Snapshot struct {
	Scope    Scope
	Cells    [Length]string
	Errored  bool
	Focus    int
	Complete bool
}

type Option func(*Input)

// WithErrorClearDelay overrides DefaultErrorClearDelay.
func WithErrorClearDelay(d time.Duration) Option {
	return func(in *Input) { in.delay = d }
}

// OnChange registers fn to run after every mutation, outside the lock.
func OnChange(fn func(Snapshot)) Option {
	return func(in *Input) { in.onChange = fn }
}

func New(scope Scope, opts ...Option) *Input {
	in := &Input{scope: scope, delay: DefaultErrorClearDelay}
	for _, o := range opts {
		o(in)
	}
	return in
}

func (in *Input) Scope() Scope { return in.scope }

// Enter applies a keystroke s to cell i. The cell's error flag is cleared
// first. Anything other than a single ASCII digit empties the cell and
// leaves focus where it is; an empty s is a plain clear. A digit fills the
// cell and advances focus unless i is the last cell. Entry cancels a pending
// error clear.
func (in *Input) Enter(i int, s string) bool {
	if i < 0 || i >= Length {
		return false
	}
	in.mu.Lock()
	in.cancelClearLocked()
	in.errored[i] = false
	accepted := len(s) == 1 && s[0] >= '0' && s[0] <= '9'
	if accepted {
		in.cells[i] = s
		if i < Length-1 {
			in.focus = i + 1
		}
	} else {
		in.cells[i] = ""
	}
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
	return accepted
}

// Backspace on an empty cell moves focus back without touching the previous
// value; on a filled cell it clears that cell and keeps focus.
func (in *Input) Backspace(i int) {
	if i < 0 || i >= Length {
		return
	}
	in.mu.Lock()
	if in.cells[i] == "" {
		if i > 0 {
			in.focus = i - 1
		}
	} else {
		in.cells[i] = ""
		in.focus = i
	}
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
}

// Paste keeps the digits of text, fills up to six cells from the first and
// focuses the cell after the last one filled (or the last cell). It returns
// the number of digits placed. Placing any digit cancels a pending error
// clear.
func (in *Input) Paste(text string) int {
	var digits []byte
	for i := 0; i < len(text) && len(digits) < Length; i++ {
		if c := text[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	in.mu.Lock()
	if len(digits) > 0 {
		in.cancelClearLocked()
	}
	for i, d := range digits {
		in.cells[i] = string(d)
		in.errored[i] = false
	}
	if len(digits) > 0 {
		in.focus = min(len(digits), Length-1)
	}
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
	return len(digits)
}

func (in *Input) IsComplete() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.completeLocked()
}

// Value concatenates the cells in order.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return strings.Join(in.cells[:], "")
}

func (in *Input) Focus() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.focus
}

func (in *Input) Cells() [Length]string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cells
}

// Errored reports whether any cell carries the error flag.
func (in *Input) Errored() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, e := range in.errored {
		if e {
			return true
		}
	}
	return false
}

// ShowError flags every cell and schedules a full clear with focus on cell
// 0. A second call restarts the delay. Reset cancels the pending clear.
func (in *Input) ShowError() {
	in.mu.Lock()
	for i := range in.errored {
		in.errored[i] = true
	}
	in.stopTimerLocked()
	in.gen++
	gen := in.gen
	in.clear = time.AfterFunc(in.delay, func() { in.clearAfterError(gen) })
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
}

func (in *Input) clearAfterError(gen uint64) {
	in.mu.Lock()
	if gen != in.gen {
		in.mu.Unlock()
		return
	}
	in.clear = nil
	in.resetLocked()
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
}

// Reset empties every cell, drops error flags, focuses cell 0 and cancels a
// pending error clear.
func (in *Input) Reset() {
	in.mu.Lock()
	in.stopTimerLocked()
	in.gen++
	in.resetLocked()
	snap := in.snapshotLocked()
	in.mu.Unlock()

	in.notify(snap)
}

// ClearPending reports whether an error clear is scheduled.
func (in *Input) ClearPending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.clear != nil
}

func (in *Input) stopTimerLocked() {
	if in.clear != nil {
		in.clear.Stop()
		in.clear = nil
	}
}

// cancelClearLocked drops a pending error clear so it cannot wipe input typed
// after the error was shown.
func (in *Input) cancelClearLocked() {
	if in.clear != nil {
		in.stopTimerLocked()
		in.gen++
	}
}

func (in *Input) resetLocked() {
	in.cells = [Length]string{}
	in.errored = [Length]bool{}
	in.focus = 0
}

func (in *Input) completeLocked() bool {
	for _, c := range in.cells {
		if c == "" {
			return false
		}
	}
	return true
}

func (in *Input) snapshotLocked() Snapshot {
	s := Snapshot{Scope: in.scope, Cells: in.cells, Focus: in.focus, Complete: in.completeLocked()}
	for _, e := range in.errored {
		s.Errored = s.Errored || e
	}
	return s
}

func (in *Input) notify(s Snapshot) {
	if in.onChange != nil {
		in.onChange(s)
	}
}
