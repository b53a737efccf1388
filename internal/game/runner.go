package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// command lifecycle: a queued command is either claimed by the runner or
// dropped by its caller, never both.
const (
	cmdQueued int32 = iota
	cmdRunning
	cmdDropped
)

type command struct {
	fn    func(*Session) error
	reply chan error
	state atomic.Int32
}

// drop withdraws a command that has not started and returns cause. A command
// already claimed by the runner is waited for instead.
func (c *command) drop(cause error) error {
	if c.state.CompareAndSwap(cmdQueued, cmdDropped) {
		return cause
	}
	return <-c.reply
}

// Runner confines a Session to one goroutine. Calls and delayed spin
// resolutions are queued on the inbox and run in order.
type Runner struct {
	session *Session
	inbox   chan *command
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
}

// NewRunner builds a session scheduled by the runner itself. Call Run to
// start processing.
func NewRunner(d Deps) *Runner {
	r := &Runner{
		inbox: make(chan *command, 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	d.Scheduler = r
	r.session = NewSession(d)
	return r
}

// Run processes the inbox until Stop is called. It returns at once if the
// runner was already run or stopped.
func (r *Runner) Run() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case c := <-r.inbox:
			if !c.state.CompareAndSwap(cmdQueued, cmdRunning) {
				continue
			}
			err := c.fn(r.session)
			if c.reply != nil {
				c.reply <- err
			}
		}
	}
}

// Stop ends Run and waits for it to return. Pending spin resolutions are
// dropped. A runner stopped before Run began never processes anything.
func (r *Runner) Stop() {
	r.once.Do(func() { close(r.quit) })
	if r.started.CompareAndSwap(false, true) {
		close(r.done)
		return
	}
	<-r.done
}

// Do runs fn on the session goroutine and returns its error. If ctx ends
// before fn starts, fn is never run and ctx's error is returned; once fn has
// started, Do waits for it.
func (r *Runner) Do(ctx context.Context, fn func(*Session) error) error {
	c := &command{fn: fn, reply: make(chan error, 1)}
	select {
	case r.inbox <- c:
	case <-r.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-r.done:
		return c.drop(ErrStopped)
	case <-ctx.Done():
		return c.drop(ctx.Err())
	}
}

// View is a convenience wrapper returning the session snapshot.
func (r *Runner) View(ctx context.Context) (View, error) {
	var v View
	err := r.Do(ctx, func(s *Session) error {
		v = s.Snapshot()
		return nil
	})
	return v, err
}

// AfterFunc queues f on the inbox once d has elapsed.
func (r *Runner) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		select {
		case r.inbox <- &command{fn: func(*Session) error { f(); return nil }}:
		case <-r.quit:
		}
	})
}
