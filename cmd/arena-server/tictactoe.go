package main

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/arena-go/arena"
)

// Game phases.
const (
	phaseWaiting = "waiting"
	phasePlaying = "playing"
	phaseEnd     = "end"
)

// GameRoom is a two-player tic-tac-toe match. Player one is "x", player two
// is "o". A disconnect mid-game forfeits to the remaining player.
type GameRoom struct {
	arena.BaseBehavior
	log zerolog.Logger

	Board   [3][3]string `json:"board"`
	Phase   string       `json:"phase"`
	Players []string     `json:"players"`
	Turn    string       `json:"turn"`
	Winner  string       `json:"winner"`
}

func NewGameRoom(log zerolog.Logger) *GameRoom {
	return &GameRoom{log: log, Phase: phaseWaiting}
}

func (g *GameRoom) ToJSON() any { return g }

// gameView is the per-player projection: the shared board plus which token
// the receiving player holds.
type gameView struct {
	*GameRoom
	You string `json:"you"`
}

func (g *GameRoom) ToSync(connID string) any {
	return gameView{GameRoom: g, You: g.token(connID)}
}

func (g *GameRoom) OnInit(room *arena.Room, _ *arena.Handle) {
	room.SetMaxConnections(2)
}

func (g *GameRoom) OnConnect(connID string, room *arena.Room, _ *arena.Handle) {
	g.Players = append(g.Players, connID)
	if len(g.Players) == 2 {
		g.Phase = phasePlaying
		g.Turn = g.Players[0]
		g.log.Info().Str("room", room.ID()).Strs("players", g.Players).Msg("game started")
	}
}

func (g *GameRoom) OnDisconnect(connID string, room *arena.Room, _ *arena.Handle) {
	if g.Phase != phasePlaying {
		return
	}
	// Forfeit: the remaining player wins.
	g.Phase = phaseEnd
	for _, p := range g.Players {
		if p != connID {
			g.Winner = p
			break
		}
	}
	g.log.Info().Str("room", room.ID()).Str("left", connID).Msg("game forfeited")
}

type movePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (g *GameRoom) OnMessage(connID string, msg arena.Message, room *arena.Room, _ *arena.Handle) {
	if msg.Event != "move" {
		return
	}
	if g.Phase != phasePlaying || connID != g.Turn {
		return
	}

	var mv movePayload
	if err := json.Unmarshal([]byte(msg.Data), &mv); err != nil {
		g.log.Debug().Err(err).Str("conn", connID).Msg("bad move payload")
		return
	}
	if mv.Row < 0 || mv.Row > 2 || mv.Col < 0 || mv.Col > 2 || g.Board[mv.Row][mv.Col] != "" {
		return
	}

	g.Board[mv.Row][mv.Col] = g.token(connID)

	switch {
	case g.won(g.token(connID)):
		g.Phase = phaseEnd
		g.Winner = connID
	case g.boardFull():
		g.Phase = phaseEnd
	default:
		g.Turn = g.opponent(connID)
	}
}

func (g *GameRoom) token(connID string) string {
	if len(g.Players) > 0 && g.Players[0] == connID {
		return "x"
	}
	return "o"
}

func (g *GameRoom) opponent(connID string) string {
	for _, p := range g.Players {
		if p != connID {
			return p
		}
	}
	return connID
}

func (g *GameRoom) won(tok string) bool {
	b := &g.Board
	for i := 0; i < 3; i++ {
		if b[i][0] == tok && b[i][1] == tok && b[i][2] == tok {
			return true
		}
		if b[0][i] == tok && b[1][i] == tok && b[2][i] == tok {
			return true
		}
	}
	if b[0][0] == tok && b[1][1] == tok && b[2][2] == tok {
		return true
	}
	return b[0][2] == tok && b[1][1] == tok && b[2][0] == tok
}

func (g *GameRoom) boardFull() bool {
	for _, row := range g.Board {
		for _, cell := range row {
			if cell == "" {
				return false
			}
		}
	}
	return true
}
