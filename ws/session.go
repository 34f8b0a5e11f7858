package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/arena-go/arena"
	"github.com/arena-go/arena/internal/metrics"
	"github.com/arena-go/arena/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// session owns one socket: a relay goroutine drains the arena connection's
// mailbox onto the wire, while the read loop feeds inbound frames into the
// arena's event queue.
type session struct {
	sock    *websocket.Conn
	conn    *arena.Connection
	arena   *arena.Arena
	limiter *rate.Limiter
	log     zerolog.Logger
}

// sendInit announces the connection id to the client. When the main-room
// auto-join failed, the failure follows immediately as a join_room frame so
// the client is never left guessing its membership.
func (s *session) sendInit(joinErr error) {
	frame, err := protocol.EncodeInit(s.conn.ID())
	if err != nil {
		s.log.Error().Err(err).Msg("encode init frame")
		return
	}
	s.write(frame)

	if joinErr != nil {
		frame, err := protocol.Encode(s.arena.MainRoom(), protocol.EventJoinRoom,
			map[string]string{"error": joinErr.Error()})
		if err != nil {
			s.log.Error().Err(err).Msg("encode join error frame")
			return
		}
		s.write(frame)
	}
}

// writeLoop relays mailbox events onto the socket and keeps the connection
// alive with pings. The mailbox closing is end-of-stream; a ConnectionClosed
// event terminates the socket with a normal close.
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.sock.Close()
	}()

	for {
		select {
		case ev, ok := <-s.conn.Events():
			if !ok {
				_ = s.sock.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			if closed, isClose := ev.(arena.ConnectionClosed); isClose {
				_ = s.sock.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, closed.Reason),
					time.Now().Add(time.Second))
				return
			}
			frame, ok, err := protocol.EncodeClientEvent(ev)
			if err != nil {
				s.log.Error().Err(err).Msg("encode client event")
				continue
			}
			if !ok {
				continue
			}
			if !s.write(frame) {
				return
			}

		case <-ticker.C:
			_ = s.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) write(frame []byte) bool {
	_ = s.sock.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
		return false
	}
	metrics.WSMessagesOut.Inc()
	return true
}

// readLoop pumps inbound frames into the arena until the socket dies, then
// reports the disconnect.
func (s *session) readLoop() {
	defer func() {
		s.arena.Send(arena.CloseConnection{ConnID: s.conn.ID()})
		_ = s.sock.Close()
	}()

	_ = s.sock.SetReadDeadline(time.Now().Add(pongWait))
	s.sock.SetPongHandler(func(string) error {
		return s.sock.SetReadDeadline(time.Now().Add(pongWait))
	})
	s.sock.SetReadLimit(protocol.MaxFrameSize)

	for {
		_, data, err := s.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		_ = s.sock.SetReadDeadline(time.Now().Add(pongWait))

		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn().Msg("rate limit exceeded")
			_ = s.sock.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(time.Second))
			return
		}

		ev, err := protocol.DecodeRoomEvent(s.conn.ID(), data)
		if err != nil {
			s.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		metrics.WSMessagesIn.Inc()
		s.arena.Send(ev)
	}
}
