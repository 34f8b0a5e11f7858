package arena

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewConnectionRequiresMainRoom(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	if _, err := a.NewConnection(); !errors.Is(err, ErrNoMainRoom) {
		t.Fatalf("NewConnection() error = %v, want ErrNoMainRoom", err)
	}
}

func TestSetMainRoomUnknown(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	if err := a.SetMainRoom("nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("SetMainRoom() error = %v, want ErrRoomNotFound", err)
	}
}

func TestMainRoomAutoJoin(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	b := newRecordingBehavior()
	b.maxConns = 2
	id, err := a.NewRoom("main_room", b)
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}
	if err := a.SetMainRoom(id); err != nil {
		t.Fatalf("SetMainRoom() error = %v", err)
	}

	c1, err := a.NewConnection()
	if err != nil {
		t.Fatalf("NewConnection() #1 error = %v", err)
	}
	if _, err := a.NewConnection(); err != nil {
		t.Fatalf("NewConnection() #2 error = %v", err)
	}

	c, _ := a.registry.get(id)
	if got := c.room.ConnectionCount(); got != 2 {
		t.Fatalf("room membership = %d, want 2", got)
	}

	// The room is at capacity: the third connection exists but joins nothing.
	c3, err := a.NewConnection()
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("NewConnection() #3 error = %v, want ErrRoomFull", err)
	}
	if c3 == nil {
		t.Fatal("third connection not returned alongside the error")
	}
	if got := c.room.ConnectionCount(); got != 2 {
		t.Fatalf("room membership = %d after rejected join, want 2", got)
	}
	if _, member := c.room.GetConn(c3.ID()); member {
		t.Error("rejected connection is a room member")
	}
	if a.ConnectionCount() != 3 {
		t.Errorf("connection table = %d, want 3", a.ConnectionCount())
	}

	// Successful joins were acknowledged.
	joined := eventsOf[RoomJoined](drainEvents(c1))
	if len(joined) != 1 || joined[0].RoomID != id || joined[0].Err != "" {
		t.Fatalf("join events for c1 = %v, want one success for %s", joined, id)
	}
}

func TestNewWithMainRoom(t *testing.T) {
	t.Parallel()

	a, err := NewWithMainRoom(Config{}, "main_room", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewWithMainRoom() error = %v", err)
	}
	if a.MainRoom() == "" {
		t.Fatal("main room not set")
	}
	if _, err := a.NewConnection(); err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
}

func TestJoinRoomEventFailureNotifiesConnection(t *testing.T) {
	t.Parallel()

	a, err := NewWithMainRoom(Config{}, "main_room", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewWithMainRoom() error = %v", err)
	}
	conn, err := a.NewConnection()
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	drainEvents(conn)

	a.Send(JoinRoom{RoomID: "missing", ConnID: conn.ID()})
	a.Close()
	a.Run() // drains queued events, then returns

	joined := eventsOf[RoomJoined](drainEvents(conn))
	if len(joined) != 1 {
		t.Fatalf("join events = %d, want 1", len(joined))
	}
	if joined[0].RoomID != "missing" || !strings.Contains(joined[0].Err, "room not found") {
		t.Errorf("join event = %#v, want room-not-found error", joined[0])
	}
}

func TestCloseConnectionCleansEveryRoom(t *testing.T) {
	t.Parallel()

	a, err := NewWithMainRoom(Config{}, "main_room", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewWithMainRoom() error = %v", err)
	}
	gameID, err := a.NewRoom("game", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}

	conn, err := a.NewConnection()
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	if err := a.AddConnectionTo(gameID, conn); err != nil {
		t.Fatalf("AddConnectionTo() error = %v", err)
	}

	a.Send(CloseConnection{ConnID: conn.ID()})
	a.Close()
	a.Run()

	for _, c := range a.registry.all() {
		if _, member := c.room.GetConn(conn.ID()); member {
			t.Errorf("connection still member of room %s", c.ID())
		}
	}
	if a.ConnectionCount() != 0 {
		t.Errorf("connection table = %d, want 0", a.ConnectionCount())
	}

	// Exactly one final ConnectionClosed, then the mailbox closes.
	closed := eventsOf[ConnectionClosed](drainEvents(conn))
	if len(closed) != 1 {
		t.Fatalf("ConnectionClosed events = %d, want 1", len(closed))
	}
	if _, open := <-conn.Events(); open {
		t.Error("mailbox still open after close")
	}
	if conn.IsAlive() {
		t.Error("connection reports alive after close")
	}
}

func TestBroadcastAndMessageDispatch(t *testing.T) {
	t.Parallel()

	a, err := NewWithMainRoom(Config{}, "main_room", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewWithMainRoom() error = %v", err)
	}
	b := newRecordingBehavior()
	id, err := a.NewRoom("game", b)
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}
	conn, err := a.NewConnection()
	if err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}
	if err := a.AddConnectionTo(id, conn); err != nil {
		t.Fatalf("AddConnectionTo() error = %v", err)
	}
	drainEvents(conn)

	a.Send(RoomMsg{RoomID: id, ConnID: conn.ID(), Msg: Message{Event: "move"}})
	a.Send(Broadcast{RoomID: id, Msg: Message{Event: "tick"}})
	// Unknown rooms are logged no-ops, not failures.
	a.Send(Broadcast{RoomID: "missing", Msg: Message{Event: "tick"}})
	a.Send(RoomMsg{RoomID: "missing", ConnID: conn.ID(), Msg: Message{Event: "move"}})
	a.Close()
	a.Run()

	if got := b.callCount("message:move"); got != 1 {
		t.Errorf("message dispatched %d times, want 1", got)
	}
	if got := b.callCount("broadcast:tick"); got != 1 {
		t.Errorf("broadcast dispatched %d times, want 1", got)
	}

	// Each dispatch changed state, so each produced a sync.
	syncs := eventsOf[RoomMessage](drainEvents(conn))
	if len(syncs) != 2 {
		t.Errorf("sync events = %d, want 2", len(syncs))
	}
}

// blockingBehavior parks OnMessage until released, to prove one room's slow
// callback stalls nothing else.
type blockingBehavior struct {
	BaseBehavior
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBehavior) ToJSON() any { return struct{}{} }

func (b *blockingBehavior) OnMessage(string, Message, *Room, *Handle) {
	close(b.entered)
	<-b.release
}

func TestCrossRoomIsolation(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	blocker := &blockingBehavior{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	slowID, err := a.NewRoom("slow", blocker)
	if err != nil {
		t.Fatalf("NewRoom(slow) error = %v", err)
	}
	fastID, err := a.NewRoom("fast", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewRoom(fast) error = %v", err)
	}

	slow, _ := a.registry.get(slowID)
	go slow.handleMessage("c1", Message{Event: "stall"})
	<-blocker.entered
	defer close(blocker.release)

	done := make(chan error, 1)
	go func() {
		done <- a.AddConnectionTo(fastID, newConnection("c2"))
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("AddConnectionTo() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("unrelated room blocked by a slow callback")
	}
}

func TestGetRoomsByKind(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	var want []string
	for i := 0; i < 3; i++ {
		id, err := a.NewRoom("game", newRecordingBehavior())
		if err != nil {
			t.Fatalf("NewRoom() error = %v", err)
		}
		want = append(want, id)
	}
	if _, err := a.NewRoom("lobby", newRecordingBehavior()); err != nil {
		t.Fatalf("NewRoom(lobby) error = %v", err)
	}

	rooms := a.GetRoomsByKind("game")
	if len(rooms) != 3 {
		t.Fatalf("GetRoomsByKind = %d rooms, want 3", len(rooms))
	}
	for i, c := range rooms {
		if c.ID() != want[i] {
			t.Errorf("rooms[%d] = %s, want %s (creation order)", i, c.ID(), want[i])
		}
		if c.Kind() != "game" {
			t.Errorf("rooms[%d].Kind() = %s, want game", i, c.Kind())
		}
	}
	if a.RoomCount() != 4 {
		t.Errorf("RoomCount = %d, want 4", a.RoomCount())
	}
}

func TestHandleCrossRoomOrchestration(t *testing.T) {
	t.Parallel()

	// A lobby that routes every connection into a game room, creating one on
	// demand, exactly like a matchmaking main room would.
	router := &routingBehavior{}
	a, err := NewWithMainRoom(Config{}, "main_room", router)
	if err != nil {
		t.Fatalf("NewWithMainRoom() error = %v", err)
	}

	if _, err := a.NewConnection(); err != nil {
		t.Fatalf("NewConnection() error = %v", err)
	}

	games := a.GetRoomsByKind("game")
	if len(games) != 1 {
		t.Fatalf("game rooms = %d, want 1", len(games))
	}
	if got := games[0].room.ConnectionCount(); got != 1 {
		t.Errorf("game room membership = %d, want 1", got)
	}
}

type routingBehavior struct {
	BaseBehavior
}

func (r *routingBehavior) ToJSON() any { return struct{}{} }

func (r *routingBehavior) OnConnect(connID string, _ *Room, h *Handle) {
	var gameID string
	for _, c := range h.GetRoomsByKind("game") {
		if !c.IsFull() {
			gameID = c.ID()
			break
		}
	}
	if gameID == "" {
		id, err := h.NewRoom("game", newRecordingBehavior())
		if err != nil {
			return
		}
		gameID = id
	}
	_ = h.JoinConnection(gameID, connID)
}

func TestJoinConnectionUnknownID(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	id, err := a.NewRoom("game", newRecordingBehavior())
	if err != nil {
		t.Fatalf("NewRoom() error = %v", err)
	}
	if err := a.JoinConnection(id, "ghost"); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("JoinConnection error = %v, want ErrConnectionNotFound", err)
	}
	if err := a.JoinConnection("missing", "ghost"); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("JoinConnection error = %v, want ErrConnectionNotFound", err)
	}
}

func TestSendAfterCloseIsDiscarded(t *testing.T) {
	t.Parallel()

	a := New(Config{})
	a.Close()
	a.Send(Broadcast{RoomID: "r", Msg: Message{Event: "x"}}) // must not panic
	a.Run()                                                  // returns immediately
}
