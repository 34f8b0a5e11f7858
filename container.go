package arena

import (
	"sync"

	"github.com/rs/zerolog"
)

// LifecycleState is a RoomContainer's position in its state machine.
type LifecycleState uint8

const (
	// Initiating: constructed, OnInit not yet complete.
	Initiating LifecycleState = iota
	// Idle: initialized and accepting callbacks.
	Idle
	// Destroyed: terminal; no callback reaches the behavior again.
	Destroyed
)

func (s LifecycleState) String() string {
	switch s {
	case Initiating:
		return "initiating"
	case Idle:
		return "idle"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// RoomContainer binds one Behavior instance to one Room and is the unit of
// mutual exclusion: every behavior callback for the room runs under the
// container's lock, so two callbacks on the same room never run
// concurrently, while callbacks on different rooms do.
type RoomContainer struct {
	mu       sync.Mutex
	state    LifecycleState
	room     *Room
	behavior Behavior
	handle   *Handle
	log      zerolog.Logger
}

func newContainer(room *Room, b Behavior, h *Handle, log zerolog.Logger) *RoomContainer {
	return &RoomContainer{
		state:    Initiating,
		room:     room,
		behavior: b,
		handle:   h,
		log:      log,
	}
}

// ID returns the bound room's id.
func (c *RoomContainer) ID() string { return c.room.id }

// Kind returns the bound room's kind.
func (c *RoomContainer) Kind() string { return c.room.kind }

// State returns the current lifecycle state.
func (c *RoomContainer) State() LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsFull reports whether the room is at its connection cap.
func (c *RoomContainer) IsFull() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room.IsFull()
}

// Behavior returns the bound behavior instance. Applications that need the
// concrete type recover it with an ordinary type assertion:
//
//	if g, ok := container.Behavior().(*GameRoom); ok { ... }
func (c *RoomContainer) Behavior() Behavior { return c.behavior }

// Update drives the behavior's OnUpdate hook and syncs the result. The core
// never calls it; external tickers may.
func (c *RoomContainer) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return
	}
	c.behavior.OnUpdate(c.room, c.handle)
	c.syncLocked()
}

// initLocked completes Initiating → Idle. The caller holds the lock across
// registration and init so no external call observes the room before OnInit
// finishes.
func (c *RoomContainer) initLocked() {
	c.behavior.OnInit(c.room, c.handle)
	c.state = Idle
	// Seed the timeline so members joining later diff against real state.
	c.syncLocked()
}

// destroy runs OnDestroy exactly once, notifies every member the room is
// gone and empties the membership. Terminal.
func (c *RoomContainer) destroy(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Destroyed {
		return
	}
	if c.state == Idle {
		c.behavior.OnDestroy(c.room, c.handle)
	}
	c.state = Destroyed
	for connID, m := range c.room.members {
		if !m.conn.deliver(RoomClosed{RoomID: c.room.id, Reason: reason}) {
			c.log.Warn().Str("conn", connID).Msg("mailbox unavailable, close_room lost")
		}
	}
	c.room.members = make(map[string]*member)
	c.log.Info().Str("reason", reason).Msg("room destroyed")
}

// addConnection admits a connection: capacity check, validation hook,
// insert, OnConnect, sync. The join acknowledgement is delivered before the
// initial sync patch so clients can open their room slot first.
func (c *RoomContainer) addConnection(conn *Connection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return ErrRoomNotFound
	}
	if c.room.IsFull() {
		return ErrRoomFull
	}
	if err := c.behavior.ValidateConnection(conn); err != nil {
		return &ConnectionRejectedError{Reason: err.Error()}
	}
	c.room.addMember(conn)
	conn.deliver(RoomJoined{RoomID: c.room.id})
	c.behavior.OnConnect(conn.ID(), c.room, c.handle)
	c.syncLocked()
	return nil
}

// removeConnection drops a member if present and reports whether it was one.
func (c *RoomContainer) removeConnection(connID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		return false
	}
	if !c.room.removeMember(connID) {
		return false
	}
	c.behavior.OnDisconnect(connID, c.room, c.handle)
	c.syncLocked()
	return true
}

// handleMessage dispatches OnMessage. Rejected (logged) outside Idle.
func (c *RoomContainer) handleMessage(connID string, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		c.log.Warn().Stringer("state", c.state).Str("event", msg.Event).Msg("message rejected outside idle")
		return
	}
	c.behavior.OnMessage(connID, msg, c.room, c.handle)
	c.syncLocked()
}

// handleBroadcast dispatches OnBroadcast. Rejected (logged) outside Idle.
func (c *RoomContainer) handleBroadcast(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Idle {
		c.log.Warn().Stringer("state", c.state).Str("event", msg.Event).Msg("broadcast rejected outside idle")
		return
	}
	c.behavior.OnBroadcast(msg, c.room, c.handle)
	c.syncLocked()
}

func (c *RoomContainer) syncLocked() {
	if err := c.room.Sync(c.behavior); err != nil {
		c.log.Error().Err(err).Msg("room sync failed")
	}
}
