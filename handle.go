package arena

// Handle is the restricted back-reference behaviors receive in their
// callbacks. It exposes just enough of the Arena for cross-room
// orchestration — a lobby finding or creating a non-full game room and
// routing a member there — without handing behaviors the full surface.
//
// Handle methods lock target containers. Calling them against the room whose
// callback is currently executing deadlocks; only touch other rooms.
type Handle struct {
	arena *Arena
}

// NewRoom creates a sibling room. See Arena.NewRoom.
func (h *Handle) NewRoom(kind string, b Behavior) (string, error) {
	return h.arena.NewRoom(kind, b)
}

// AddConnectionTo routes a connection into another room. See
// Arena.AddConnectionTo.
func (h *Handle) AddConnectionTo(roomID string, conn *Connection) error {
	return h.arena.AddConnectionTo(roomID, conn)
}

// JoinConnection routes a registered connection into another room by id. See
// Arena.JoinConnection.
func (h *Handle) JoinConnection(roomID, connID string) error {
	return h.arena.JoinConnection(roomID, connID)
}

// GetRoomsByKind lists sibling rooms of a kind in creation order. See
// Arena.GetRoomsByKind.
func (h *Handle) GetRoomsByKind(kind string) []*RoomContainer {
	return h.arena.GetRoomsByKind(kind)
}
