package arena

// Behavior is the application extension point: one instance drives one
// room's reactions to lifecycle and connection events.
//
// Every callback runs under its room's exclusive lock, so callbacks for one
// room never interleave. Callbacks receive the Room and a restricted Arena
// Handle so they can look up, create and route connections to other rooms;
// calling back into the room whose callback is currently executing
// deadlocks.
//
// Callbacks are not time-bounded. A callback that blocks forever blocks its
// room forever; keep them non-blocking or self-limiting.
//
// Embed BaseBehavior to get no-op defaults for everything except ToJSON.
type Behavior interface {
	// ToJSON returns the room's full state. The value must marshal to a JSON
	// object; it is diffed after every callback to produce sync patches.
	ToJSON() any

	// ToSync returns the state as seen by one connection, letting behaviors
	// hide per-player state. Returning nil means no personalization: the
	// room-level snapshot is used as-is.
	ToSync(connID string) any

	// OnInit runs exactly once, before the room accepts any other callback.
	OnInit(room *Room, h *Handle)

	// OnDestroy runs exactly once, when the room is removed. No OnMessage or
	// OnBroadcast reaches the behavior afterward.
	OnDestroy(room *Room, h *Handle)

	// OnConnect runs after a validated connection joined the room.
	OnConnect(connID string, room *Room, h *Handle)

	// OnDisconnect runs after a connection left the room.
	OnDisconnect(connID string, room *Room, h *Handle)

	// OnMessage handles a message addressed to this room by one connection.
	OnMessage(connID string, msg Message, room *Room, h *Handle)

	// OnBroadcast handles a message addressed to the room as a whole.
	OnBroadcast(msg Message, room *Room, h *Handle)

	// OnUpdate is reserved for periodic ticking. The core never calls it;
	// drive it externally through RoomContainer.Update.
	OnUpdate(room *Room, h *Handle)

	// ValidateConnection runs before a connection is admitted. Returning an
	// error rejects the join; the reason reaches the client.
	ValidateConnection(conn *Connection) error
}

// BaseBehavior provides safe no-op defaults for every Behavior method except
// ToJSON. Application behaviors embed it and override what they need:
//
//	type Lobby struct {
//		arena.BaseBehavior
//	}
//
//	func (l *Lobby) ToJSON() any { return struct{}{} }
type BaseBehavior struct{}

// ToSync returns nil: clients receive the unpersonalized room snapshot.
func (BaseBehavior) ToSync(string) any { return nil }

func (BaseBehavior) OnInit(*Room, *Handle)                    {}
func (BaseBehavior) OnDestroy(*Room, *Handle)                 {}
func (BaseBehavior) OnConnect(string, *Room, *Handle)         {}
func (BaseBehavior) OnDisconnect(string, *Room, *Handle)      {}
func (BaseBehavior) OnMessage(string, Message, *Room, *Handle) {}
func (BaseBehavior) OnBroadcast(Message, *Room, *Handle)      {}
func (BaseBehavior) OnUpdate(*Room, *Handle)                  {}

// ValidateConnection admits every connection.
func (BaseBehavior) ValidateConnection(*Connection) error { return nil }
