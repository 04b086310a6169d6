// Package eventloop runs event handlers one at a time on a single goroutine.
// Timers are just another event source: their ticks are queued like pointer
// or key events, so no handler ever runs concurrently with another.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("event loop stopped")

// Loop is a serial event queue.
type Loop struct {
	queue    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	log      *logrus.Entry
}

// New creates a loop whose queue holds up to size pending events.
func New(size int) *Loop {
	if size < 1 {
		size = 1
	}
	return &Loop{
		queue: make(chan func(), size),
		stop:  make(chan struct{}),
		log:   logrus.WithField("component", "eventloop"),
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// returns false if the loop has been stopped.
func (l *Loop) Post(fn func()) bool {
	return l.post(fn, nil)
}

// post is Post that also gives up when cancel is closed.
func (l *Loop) post(fn func(), cancel <-chan struct{}) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.stop:
		return false
	case <-cancel:
		return false
	}
}

// Run executes queued events until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return ErrStopped
		case fn := <-l.queue:
			fn()
		}
	}
}

// Drain runs every event already queued and returns how many ran. It is
// meant for callers that drive the loop manually, such as tests and
// scripted replays.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Stop ends Run and rejects further events. It is safe to call twice.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

// Task is a recurring event source created by Every.
type Task struct {
	cancelled atomic.Bool
	done      chan struct{}
	once      sync.Once
}

// Cancel stops the task. Ticks already queued on the loop are dropped.
func (t *Task) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Every queues fn on the loop once per period until the task is cancelled
// or the loop stops. A tick is skipped rather than queued twice when the
// loop falls behind.
func (l *Loop) Every(period time.Duration, fn func()) *Task {
	t := &Task{done: make(chan struct{})}
	var pending atomic.Bool

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-l.stop:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				if !l.post(func() {
					pending.Store(false)
					if t.Cancelled() {
						return
					}
					fn()
				}, t.done) {
					return
				}
			}
		}
	}()

	l.log.WithField("period", period).Debug("Scheduled recurring task")
	return t
}

// Canceler stops a scheduled task.
type Canceler interface {
	Cancel()
}

// Schedule is Every behind the Canceler interface, for consumers that only
// need to stop what they scheduled.
func (l *Loop) Schedule(period time.Duration, fn func()) Canceler {
	return l.Every(period, fn)
}
