package arena

// Message is the application-level payload exchanged with clients. The
// reserved "sync" event carries a JSON merge patch in Data.
type Message struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// RoomEvent is an inbound event consumed by the Arena's event loop. The
// transport translates wire traffic into RoomEvents and enqueues them via
// Arena.Send.
type RoomEvent interface {
	isRoomEvent()
}

// OpenConnection is retained for wire compatibility. Connections are created
// synchronously via Arena.NewConnection; the event loop ignores this event.
type OpenConnection struct{}

// CloseConnection removes the connection from every room it belongs to,
// drops it from the connection table and closes its mailbox.
type CloseConnection struct {
	ConnID string
}

// JoinRoom asks the event loop to route an existing connection into a room.
// A failure is delivered back to that connection as a RoomJoined event
// carrying the reason.
type JoinRoom struct {
	RoomID string
	ConnID string
}

// Broadcast dispatches a message to a room's OnBroadcast callback.
type Broadcast struct {
	RoomID string
	Msg    Message
}

// RoomMsg dispatches a message from one connection to a room's OnMessage
// callback.
type RoomMsg struct {
	RoomID string
	ConnID string
	Msg    Message
}

func (OpenConnection) isRoomEvent()  {}
func (CloseConnection) isRoomEvent() {}
func (JoinRoom) isRoomEvent()        {}
func (Broadcast) isRoomEvent()       {}
func (RoomMsg) isRoomEvent()         {}

// ClientEvent is an outbound event delivered to a connection's mailbox. The
// transport relays each one onto the wire.
type ClientEvent interface {
	isClientEvent()
}

// ConnectionOpened acknowledges connection creation. NewConnection returns
// synchronously, so the core never emits it; transports may.
type ConnectionOpened struct {
	ConnID string
}

// ConnectionClosed is the final event a mailbox receives before it closes.
type ConnectionClosed struct {
	Reason string
}

// RoomJoined reports the outcome of a join. Err is empty on success.
type RoomJoined struct {
	RoomID string
	Err    string
}

// RoomClosed notifies a member that its room was destroyed.
type RoomClosed struct {
	RoomID string
	Reason string
}

// RoomMessage carries an application message from a room to a client.
type RoomMessage struct {
	RoomID string
	Msg    Message
}

func (ConnectionOpened) isClientEvent() {}
func (ConnectionClosed) isClientEvent() {}
func (RoomJoined) isClientEvent()       {}
func (RoomClosed) isClientEvent()       {}
func (RoomMessage) isClientEvent()      {}
