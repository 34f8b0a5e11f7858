// Package protocol implements the JSON wire frames the websocket transport
// exchanges with clients.
//
// Every frame is one JSON object:
//
//	{"room": "<room id>", "event": "<event name>", "data": <any>}
//
// Outbound frames carry client events: "init" (connection id), "join_room"
// (error field, empty on success), "close_room" (reason) and application
// messages, including "sync" patches. Inbound frames are routed by event
// name: "join_room" and "broadcast" are structural, everything else is a
// room message.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arena-go/arena"
)

// MaxFrameSize caps inbound frames at 1MB to keep a single client from
// forcing large allocations.
const MaxFrameSize = 1 * 1024 * 1024

// Reserved event names.
const (
	EventInit      = "init"
	EventSync      = "sync"
	EventJoinRoom  = "join_room"
	EventCloseRoom = "close_room"
	EventBroadcast = "broadcast"
)

// Frame is the wire representation of one event.
type Frame struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a frame. data may be any JSON-marshalable value.
func Encode(room, event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode frame data: %w", err)
	}
	return json.Marshal(Frame{Room: room, Event: event, Data: raw})
}

// EncodeInit builds the first frame a client receives, announcing its
// connection id.
func EncodeInit(connID string) ([]byte, error) {
	return Encode("", EventInit, map[string]string{"id": connID})
}

// EncodeClientEvent maps a mailbox event onto a wire frame. ok is false for
// events that produce no data frame: ConnectionClosed terminates the socket
// instead, and the core never emits ConnectionOpened.
func EncodeClientEvent(ev arena.ClientEvent) (frame []byte, ok bool, err error) {
	switch e := ev.(type) {
	case arena.RoomMessage:
		frame, err = Encode(e.RoomID, e.Msg.Event, e.Msg.Data)
	case arena.RoomJoined:
		frame, err = Encode(e.RoomID, EventJoinRoom, map[string]string{"error": e.Err})
	case arena.RoomClosed:
		frame, err = Encode(e.RoomID, EventCloseRoom, map[string]string{"reason": e.Reason})
	case arena.ConnectionOpened:
		frame, err = EncodeInit(e.ConnID)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}

// DecodeRoomEvent translates an inbound frame from connID into the room
// event the arena should process.
func DecodeRoomEvent(connID string, data []byte) (arena.RoomEvent, error) {
	if len(data) > MaxFrameSize {
		return nil, fmt.Errorf("frame size %d exceeds maximum %d bytes", len(data), MaxFrameSize)
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return nil, errors.New("frame has no event")
	}

	switch f.Event {
	case EventJoinRoom:
		if f.Room == "" {
			return nil, errors.New("join_room frame has no room")
		}
		return arena.JoinRoom{RoomID: f.Room, ConnID: connID}, nil

	case EventBroadcast:
		var msg arena.Message
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				return nil, fmt.Errorf("decode broadcast payload: %w", err)
			}
		}
		return arena.Broadcast{RoomID: f.Room, Msg: msg}, nil

	default:
		return arena.RoomMsg{
			RoomID: f.Room,
			ConnID: connID,
			Msg:    arena.Message{Event: f.Event, Data: dataString(f.Data)},
		}, nil
	}
}

// dataString renders the data field for Message.Data: JSON strings are
// unquoted, anything else keeps its JSON text.
func dataString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
