package arena

import "errors"

// Sentinel errors returned by registry and connection operations.
var (
	// ErrRoomNotFound is returned when a room id does not resolve to a live
	// container.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when a room's connection cap would be exceeded.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomAlreadyExists signals a registry id collision. Room ids are
	// generated, so NewRoom retries internally and never surfaces it.
	ErrRoomAlreadyExists = errors.New("room already exists")

	// ErrConnectionNotFound is returned when a connection id is not present
	// in the Arena's connection table.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrNoMainRoom is returned by NewConnection before SetMainRoom has been
	// called.
	ErrNoMainRoom = errors.New("no main room set")
)

// ConnectionRejectedError is returned when a behavior's ValidateConnection
// hook refuses a connection. Reason is application-defined and is forwarded
// to the rejected client.
type ConnectionRejectedError struct {
	Reason string
}

func (e *ConnectionRejectedError) Error() string {
	return "connection rejected: " + e.Reason
}
