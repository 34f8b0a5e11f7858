package arena

import (
	"github.com/rs/zerolog"

	"github.com/arena-go/arena/internal/diff"
	"github.com/arena-go/arena/internal/metrics"
)

// DefaultHistoryLimit is the number of snapshots a room (and each member)
// retains for diffing.
const DefaultHistoryLimit = 100

// timeline is a capped FIFO of snapshots. It exists to support diffing, not
// replay: only the newest entry is ever read.
type timeline struct {
	limit  int
	states []diff.Snapshot
}

func newTimeline(limit int) *timeline {
	if limit <= 0 {
		limit = 1
	}
	return &timeline{limit: limit}
}

func (t *timeline) push(s diff.Snapshot) {
	if len(t.states) >= t.limit {
		t.states = t.states[1:]
	}
	t.states = append(t.states, s)
}

// last returns the newest snapshot, or nil when none has been applied.
func (t *timeline) last() diff.Snapshot {
	if len(t.states) == 0 {
		return nil
	}
	return t.states[len(t.states)-1]
}

func (t *timeline) len() int { return len(t.states) }

// member pairs a room's reference to a connection with that connection's
// personalized snapshot history.
type member struct {
	conn     *Connection
	timeline *timeline
}

// Room is the set of connections inside one room instance plus its snapshot
// history. Rooms are created and destroyed with their container, and every
// method must be called under the container's lock — in practice, from
// within behavior callbacks or the core itself.
type Room struct {
	id           string
	kind         string
	historyLimit int

	// maxConns < 0 means uncapped.
	maxConns int

	members  map[string]*member
	timeline *timeline
	log      zerolog.Logger
}

func newRoom(id, kind string, historyLimit int, log zerolog.Logger) *Room {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Room{
		id:           id,
		kind:         kind,
		historyLimit: historyLimit,
		maxConns:     -1,
		members:      make(map[string]*member),
		timeline:     newTimeline(historyLimit),
		log:          log,
	}
}

// ID returns the room's generated identifier.
func (r *Room) ID() string { return r.id }

// Kind returns the category the room was created under.
func (r *Room) Kind() string { return r.kind }

// ConnectionCount returns the current number of members.
func (r *Room) ConnectionCount() int { return len(r.members) }

// ConnectionIDs returns the ids of all current members.
func (r *Room) ConnectionIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

// GetConn returns a member connection by id. Lobby behaviors use this to
// re-route a member into another room.
func (r *Room) GetConn(connID string) (*Connection, bool) {
	m, ok := r.members[connID]
	if !ok {
		return nil, false
	}
	return m.conn, true
}

// IsFull reports whether the connection cap is set and reached.
func (r *Room) IsFull() bool {
	return r.maxConns >= 0 && len(r.members) >= r.maxConns
}

// SetMaxConnections caps membership. Shrinking below the current count does
// not evict anyone; it only blocks new joins.
func (r *Room) SetMaxConnections(n int) {
	if n < 0 {
		n = 0
	}
	r.maxConns = n
}

// DisableMaxConnections removes the membership cap.
func (r *Room) DisableMaxConnections() {
	r.maxConns = -1
}

func (r *Room) addMember(conn *Connection) {
	r.members[conn.ID()] = &member{
		conn:     conn,
		timeline: newTimeline(r.historyLimit),
	}
}

func (r *Room) removeMember(connID string) bool {
	if _, ok := r.members[connID]; !ok {
		return false
	}
	delete(r.members, connID)
	return true
}

// Sync recomputes the room state and pushes a patch to every member whose
// view changed. The room-level diff short-circuits first: when the full
// state is unchanged no per-connection work happens at all, which is the
// path taken after most no-effect callbacks.
//
// Per-member fan-out has no ordering guarantee between members, but each
// mailbox receives its patches in the order Sync produced them.
func (r *Room) Sync(b Behavior) error {
	cur, err := diff.Marshal(b.ToJSON())
	if err != nil {
		return err
	}
	patch, err := diff.Between(r.timeline.last(), cur)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	r.timeline.push(cur)

	for connID, m := range r.members {
		view := cur
		if v := b.ToSync(connID); v != nil {
			view, err = diff.Marshal(v)
			if err != nil {
				r.log.Error().Err(err).Str("conn", connID).Msg("marshal personalized state")
				continue
			}
		}
		p, err := diff.Between(m.timeline.last(), view)
		if err != nil {
			r.log.Error().Err(err).Str("conn", connID).Msg("diff personalized state")
			continue
		}
		if p.IsEmpty() {
			continue
		}
		m.timeline.push(view)
		delivered := m.conn.deliver(RoomMessage{
			RoomID: r.id,
			Msg:    Message{Event: "sync", Data: string(p)},
		})
		if !delivered {
			r.log.Warn().Str("conn", connID).Msg("mailbox unavailable, sync patch lost")
			continue
		}
		metrics.SyncPatches.Inc()
	}
	return nil
}
