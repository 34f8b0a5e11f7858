package arena

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arena-go/arena/internal/metrics"
)

// Config configures an Arena.
type Config struct {
	// Logger receives lifecycle and dispatch logging. The zero value
	// discards everything.
	Logger zerolog.Logger

	// HistoryLimit caps each snapshot timeline. Defaults to
	// DefaultHistoryLimit.
	HistoryLimit int
}

// Arena is the top-level orchestrator: it owns the room registry, the global
// connection table, the main-room pointer and the inbound event queue.
//
// Construct one Arena at process start and pass it explicitly; there is no
// ambient instance. Registry-level operations (NewRoom, AddConnectionTo,
// broadcast and message dispatch) run on the caller's goroutine; cross-room
// multi-step operations are serialized by the event loop in Run.
type Arena struct {
	log          zerolog.Logger
	historyLimit int

	registry *containerRegistry
	queue    *eventQueue
	handle   *Handle

	mu       sync.RWMutex
	conns    map[string]*Connection
	mainRoom string
}

// New constructs an Arena. Call Run on a dedicated goroutine to start the
// event loop and Close to stop it.
func New(cfg Config) *Arena {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	a := &Arena{
		log:          cfg.Logger,
		historyLimit: limit,
		registry:     newContainerRegistry(),
		queue:        newEventQueue(),
		conns:        make(map[string]*Connection),
	}
	a.handle = &Handle{arena: a}
	return a
}

// NewWithMainRoom constructs an Arena, creates one room of the given kind
// and sets it as the main room.
func NewWithMainRoom(cfg Config, kind string, b Behavior) (*Arena, error) {
	a := New(cfg)
	id, err := a.NewRoom(kind, b)
	if err != nil {
		return nil, err
	}
	if err := a.SetMainRoom(id); err != nil {
		return nil, err
	}
	return a, nil
}

// NewRoom creates a room of the given kind driven by b and returns its
// generated id. OnInit runs exactly once, synchronously, before NewRoom
// returns; the container's lock is held from registration through init, so
// no external call observes the room earlier.
func (a *Arena) NewRoom(kind string, b Behavior) (string, error) {
	for {
		id := uuid.NewString()
		room := newRoom(id, kind, a.historyLimit, a.roomLogger(id, kind))
		c := newContainer(room, b, a.handle, a.roomLogger(id, kind))

		c.mu.Lock()
		if err := a.registry.add(c); err != nil {
			// Id collision: regenerate, never surfaced.
			c.mu.Unlock()
			continue
		}
		c.initLocked()
		c.mu.Unlock()

		metrics.RoomsActive.Inc()
		a.log.Info().Str("room", id).Str("kind", kind).Msg("room created")
		return id, nil
	}
}

// RemoveRoom destroys a room: OnDestroy runs once, every member receives a
// RoomClosed event and the room leaves the registry.
func (a *Arena) RemoveRoom(roomID string) error {
	c, ok := a.registry.remove(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	c.destroy("room removed")
	metrics.RoomsActive.Dec()
	return nil
}

// SetMainRoom designates the room new connections are routed into. The room
// must exist now; it is not re-validated later, so removing it afterwards
// makes auto-join fail with ErrRoomNotFound instead of panicking.
func (a *Arena) SetMainRoom(roomID string) error {
	if _, ok := a.registry.get(roomID); !ok {
		return ErrRoomNotFound
	}
	a.mu.Lock()
	a.mainRoom = roomID
	a.mu.Unlock()
	return nil
}

// MainRoom returns the current main room id, empty when unset.
func (a *Arena) MainRoom() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mainRoom
}

// NewConnection allocates a connection, registers it and joins it to the
// main room. When the join fails (room full, rejected, or main room gone)
// the connection still exists and is returned alongside the error; it is
// just not a member of any room.
func (a *Arena) NewConnection() (*Connection, error) {
	main := a.MainRoom()
	if main == "" {
		return nil, ErrNoMainRoom
	}

	a.mu.Lock()
	var conn *Connection
	for {
		id := uuid.NewString()
		if _, ok := a.conns[id]; ok {
			continue
		}
		conn = newConnection(id)
		a.conns[id] = conn
		break
	}
	a.mu.Unlock()

	metrics.ConnectionsActive.Inc()
	a.log.Debug().Str("conn", conn.ID()).Msg("connection created")

	if err := a.AddConnectionTo(main, conn); err != nil {
		return conn, err
	}
	return conn, nil
}

// Connection looks up a registered connection by id.
func (a *Arena) Connection(connID string) (*Connection, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.conns[connID]
	return c, ok
}

// ConnectionCount returns the size of the connection table.
func (a *Arena) ConnectionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.conns)
}

// AddConnectionTo joins a connection to a room: capacity check, the
// behavior's validation hook, insert, OnConnect, sync.
func (a *Arena) AddConnectionTo(roomID string, conn *Connection) error {
	c, ok := a.registry.get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return c.addConnection(conn)
}

// JoinConnection is AddConnectionTo with a connection-table lookup: it joins
// a registered connection to a room by id, returning ErrConnectionNotFound
// when the id is unknown.
func (a *Arena) JoinConnection(roomID, connID string) error {
	conn, ok := a.Connection(connID)
	if !ok {
		return ErrConnectionNotFound
	}
	return a.AddConnectionTo(roomID, conn)
}

// GetRoomsByKind returns the containers of every room of the given kind, in
// creation order.
func (a *Arena) GetRoomsByKind(kind string) []*RoomContainer {
	return a.registry.getByKind(kind)
}

// RoomCount returns the number of registered rooms.
func (a *Arena) RoomCount() int {
	return a.registry.len()
}

// Send enqueues an inbound event without blocking. Events sent after Close
// are logged and discarded.
func (a *Arena) Send(ev RoomEvent) {
	if !a.queue.push(ev) {
		a.log.Warn().Type("event", ev).Msg("event after close, discarded")
	}
}

// Run drains the inbound queue sequentially, one event at a time, until
// Close. No event is fatal: a failed event is surfaced to the affected
// connection or logged, and the loop keeps going.
func (a *Arena) Run() {
	for {
		ev, ok := a.queue.pop()
		if !ok {
			return
		}
		a.dispatch(ev)
		metrics.EventsProcessed.Inc()
	}
}

// Close stops the event loop. Already-queued events are still processed.
func (a *Arena) Close() {
	a.queue.close()
}

func (a *Arena) dispatch(ev RoomEvent) {
	switch e := ev.(type) {
	case CloseConnection:
		a.closeConnection(e.ConnID)

	case JoinRoom:
		conn, ok := a.Connection(e.ConnID)
		if !ok {
			// No connection to notify.
			a.log.Debug().Str("conn", e.ConnID).Str("room", e.RoomID).Msg("join for unknown connection")
			return
		}
		if err := a.AddConnectionTo(e.RoomID, conn); err != nil {
			conn.deliver(RoomJoined{RoomID: e.RoomID, Err: err.Error()})
		}

	case Broadcast:
		c, ok := a.registry.get(e.RoomID)
		if !ok {
			a.log.Debug().Str("room", e.RoomID).Msg("broadcast to unknown room")
			return
		}
		c.handleBroadcast(e.Msg)

	case RoomMsg:
		c, ok := a.registry.get(e.RoomID)
		if !ok {
			a.log.Debug().Str("room", e.RoomID).Msg("message to unknown room")
			return
		}
		c.handleMessage(e.ConnID, e.Msg)

	case OpenConnection:
		// Reserved: connections are created via NewConnection.
		a.log.Debug().Msg("ignoring reserved open_connection event")

	default:
		a.log.Warn().Type("event", ev).Msg("unknown room event")
	}
}

// closeConnection removes the connection from every room it belongs to,
// drops it from the table, then delivers the final ConnectionClosed event
// and closes the mailbox.
func (a *Arena) closeConnection(connID string) {
	conn, ok := a.Connection(connID)
	if !ok {
		a.log.Debug().Str("conn", connID).Msg("close for unknown connection")
		return
	}

	for _, c := range a.registry.all() {
		c.removeConnection(connID)
	}

	a.mu.Lock()
	delete(a.conns, connID)
	a.mu.Unlock()

	conn.deliver(ConnectionClosed{})
	conn.close()
	metrics.ConnectionsActive.Dec()
	a.log.Debug().Str("conn", connID).Msg("connection closed")
}

func (a *Arena) roomLogger(id, kind string) zerolog.Logger {
	return a.log.With().Str("room", id).Str("kind", kind).Logger()
}
