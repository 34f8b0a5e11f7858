package arena

import "sync"

// mailboxSize bounds the outbound queue per connection. A client that cannot
// keep up loses events rather than stalling room callbacks.
const mailboxSize = 256

// Connection is one client's identity plus its outbound mailbox. The Arena
// owns its existence; rooms hold non-owning references by id. A connection
// may be a member of any number of rooms at once.
//
// The transport owns the receiving end: a single relay task drains Events()
// and forwards each ClientEvent onto the wire. The channel closing is the
// relay's end-of-stream signal.
type Connection struct {
	id string

	mu      sync.RWMutex
	closed  bool
	mailbox chan ClientEvent
}

func newConnection(id string) *Connection {
	return &Connection{
		id:      id,
		mailbox: make(chan ClientEvent, mailboxSize),
	}
}

// ID returns the connection's identifier, unique within its Arena.
func (c *Connection) ID() string {
	return c.id
}

// Events returns the receiving end of the mailbox. Intended for a single
// consumer.
func (c *Connection) Events() <-chan ClientEvent {
	return c.mailbox
}

// IsAlive reports whether the mailbox is still open.
func (c *Connection) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// deliver enqueues an event without blocking. It reports false when the
// mailbox is closed or full; delivery to a live consumer preserves enqueue
// order. The read lock is held across the send so close cannot race it.
func (c *Connection) deliver(ev ClientEvent) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.mailbox <- ev:
		return true
	default:
		return false
	}
}

// close shuts the mailbox. Safe to call once; callers deliver the final
// ConnectionClosed event first.
func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.mailbox)
}
