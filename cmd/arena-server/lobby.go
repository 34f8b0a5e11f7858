package main

import (
	"github.com/rs/zerolog"

	"github.com/arena-go/arena"
)

const gameRoomKind = "game_room"

// Lobby is the main room every connection lands in. On connect it finds a
// game room with a free seat, creating one when all are full, and routes the
// connection there. The connection stays a lobby member too, so it keeps
// receiving lobby state.
type Lobby struct {
	arena.BaseBehavior
	log       zerolog.Logger
	openRooms int
}

type lobbyState struct {
	OpenRooms int `json:"openRooms"`
}

func (l *Lobby) ToJSON() any {
	return lobbyState{OpenRooms: l.openRooms}
}

func (l *Lobby) OnConnect(connID string, room *arena.Room, h *arena.Handle) {
	l.log.Info().Str("conn", connID).Str("room", room.ID()).Msg("lobby connect")

	var gameID string
	for _, c := range h.GetRoomsByKind(gameRoomKind) {
		if !c.IsFull() {
			gameID = c.ID()
			break
		}
	}
	if gameID == "" {
		id, err := h.NewRoom(gameRoomKind, NewGameRoom(l.log))
		if err != nil {
			l.log.Error().Err(err).Msg("create game room")
			return
		}
		gameID = id
		l.openRooms++
	}

	if err := h.JoinConnection(gameID, connID); err != nil {
		l.log.Error().Err(err).Str("game", gameID).Msg("route connection to game room")
	}
}
