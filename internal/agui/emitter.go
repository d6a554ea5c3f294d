package agui

import (
	"sync"
	"time"
)

// Emitter is the ordered channel between the single pipeline producer
// and the single transport consumer. Emit never blocks and never drops:
// the queue grows without bound, which is acceptable because event
// volume is bounded by the pipeline's stage count.
type Emitter struct {
	mu     sync.Mutex
	queue  []Event
	notify chan struct{}
}

func NewEmitter() *Emitter {
	return &Emitter{notify: make(chan struct{}, 1)}
}

// Emit appends an event in FIFO order and wakes a waiting consumer.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	e.queue = append(e.queue, ev)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Next returns the oldest pending event, waiting at most timeout for
// one to arrive. The second return is false on timeout, letting the
// consumer check the producer's done flag between waits.
func (e *Emitter) Next(timeout time.Duration) (Event, bool) {
	if ev, ok := e.pop(); ok {
		return ev, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-e.notify:
			if ev, ok := e.pop(); ok {
				return ev, true
			}
			// Notification raced with an earlier pop; keep waiting.
		case <-timer.C:
			return nil, false
		}
	}
}

// Empty reports whether all emitted events have been consumed.
func (e *Emitter) Empty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue) == 0
}

func (e *Emitter) pop() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	ev := e.queue[0]
	e.queue = e.queue[1:]
	return ev, true
}
