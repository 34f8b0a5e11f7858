package arena

import "sync"

// eventQueue is the Arena's unbounded inbound queue. Producers never block
// and inbound events are never dropped; a single consumer drains it in FIFO
// order.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []RoomEvent
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues an event. It reports false after close.
func (q *eventQueue) push(ev RoomEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, ev)
	q.cond.Signal()
	return true
}

// pop blocks until an event is available or the queue is closed and drained.
func (q *eventQueue) pop() (RoomEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	ev := q.items[0]
	q.items = q.items[1:]
	return ev, true
}

// close stops accepting events. Already-queued events are still delivered.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
