package arena

import (
	"fmt"
	"sync"
)

// recordingBehavior is the shared test double: it records every callback in
// order, serves a mutable state map and lets tests plug in validation and
// personalization.
type recordingBehavior struct {
	BaseBehavior

	maxConns    int
	validateErr error
	syncFn      func(connID string) any

	mu    sync.Mutex
	state map[string]any
	calls []string
}

func newRecordingBehavior() *recordingBehavior {
	return &recordingBehavior{state: map[string]any{"tick": 0}}
}

func (b *recordingBehavior) ToJSON() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]any, len(b.state))
	for k, v := range b.state {
		out[k] = v
	}
	return out
}

func (b *recordingBehavior) ToSync(connID string) any {
	if b.syncFn != nil {
		return b.syncFn(connID)
	}
	return nil
}

func (b *recordingBehavior) OnInit(room *Room, _ *Handle) {
	b.record("init")
	if b.maxConns > 0 {
		room.SetMaxConnections(b.maxConns)
	}
}

func (b *recordingBehavior) OnDestroy(*Room, *Handle) {
	b.record("destroy")
}

func (b *recordingBehavior) OnConnect(connID string, _ *Room, _ *Handle) {
	b.record("connect:" + connID)
}

func (b *recordingBehavior) OnDisconnect(connID string, _ *Room, _ *Handle) {
	b.record("disconnect:" + connID)
}

func (b *recordingBehavior) OnMessage(connID string, msg Message, _ *Room, _ *Handle) {
	b.record("message:" + msg.Event)
	b.bump()
}

func (b *recordingBehavior) OnBroadcast(msg Message, _ *Room, _ *Handle) {
	b.record("broadcast:" + msg.Event)
	b.bump()
}

func (b *recordingBehavior) OnUpdate(*Room, *Handle) {
	b.record("update")
	b.bump()
}

func (b *recordingBehavior) ValidateConnection(*Connection) error {
	return b.validateErr
}

func (b *recordingBehavior) setState(k string, v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state[k] = v
}

// bump changes the state so the room-level diff is non-empty.
func (b *recordingBehavior) bump() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state["tick"] = fmt.Sprint(b.state["tick"]) + "+"
}

func (b *recordingBehavior) record(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, name)
}

func (b *recordingBehavior) callNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	copy(out, b.calls)
	return out
}

func (b *recordingBehavior) callCount(name string) int {
	n := 0
	for _, c := range b.callNames() {
		if c == name {
			n++
		}
	}
	return n
}

// drainEvents empties a mailbox without blocking.
func drainEvents(c *Connection) []ClientEvent {
	var out []ClientEvent
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventsOf[T ClientEvent](events []ClientEvent) []T {
	var out []T
	for _, ev := range events {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}
