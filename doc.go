// Package arena provides an authoritative, room-based realtime core for
// multiplayer games and collaborative sessions.
//
// An Arena manages a dynamic set of logical rooms, routes client connections
// into them, and pushes only the changed portion of each room's state to each
// connected client as a JSON merge patch.
//
// # Architecture
//
// Application logic plugs in through the Behavior interface. Each room is
// bound to exactly one Behavior instance by a RoomContainer, which is also
// the unit of mutual exclusion: all callbacks for one room run under that
// room's exclusive lock, while callbacks on different rooms run in parallel.
//
// The Arena owns the room registry, the global connection table and an
// unbounded inbound event queue. Run drains that queue sequentially; it is
// the single serialization point for cross-room operations such as closing a
// connection that belongs to several rooms.
//
// # Quick Start
//
//	a := arena.New(arena.Config{Logger: logger})
//	roomID, err := a.NewRoom("main_room", &Lobby{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := a.SetMainRoom(roomID); err != nil {
//		log.Fatal(err)
//	}
//	go a.Run()
//
//	// On transport accept:
//	conn, err := a.NewConnection()
//
//	// On inbound wire traffic:
//	a.Send(arena.RoomMsg{RoomID: roomID, ConnID: conn.ID(), Msg: msg})
//
// New connections are routed into the main room immediately. A transport
// task drains conn.Events() and relays each ClientEvent onto the wire; the
// mailbox closing is the relay's end-of-stream signal.
//
// # State Synchronization
//
// After every behavior callback the room recomputes its state via
// Behavior.ToJSON and diffs it against the last snapshot. An empty diff is
// the cheap path and produces no traffic. Otherwise the snapshot is appended
// to a bounded history (100 entries by default) and every member receives a
// personalized patch: Behavior.ToSync may return a per-connection projection
// (hidden cards, fog of war), which is diffed against that connection's last
// synced view and delivered as a "sync" message.
//
// Behavior states must marshal to JSON objects; diffing is defined on
// objects, not on bare arrays or scalars.
//
// # Concurrency
//
//   - Registry lookups take a read lock; room add/remove takes a write lock.
//   - Each container has its own mutex, independent of the registry lock.
//   - Callbacks are never time-bounded. A blocked callback blocks its own
//     room indefinitely and nothing else; keep callbacks non-blocking.
//   - A callback must not call back into its own room through the Handle;
//     routing to other rooms is safe and is how lobbies express matchmaking.
//
// # Limits
//
//   - In-memory only. Snapshot histories support diffing, not replay or
//     durability.
//   - No cross-process sharding; one Arena is one process.
//   - Authentication is delegated to Behavior.ValidateConnection.
package arena
