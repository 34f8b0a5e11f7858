package arena

import "sync"

// containerRegistry is the authoritative room directory: kind → ordered room
// ids, room id → container. Lookups are reads and run concurrently; add and
// remove are writes and update both maps atomically with respect to
// registry-level access.
type containerRegistry struct {
	mu     sync.RWMutex
	byKind map[string][]string
	byID   map[string]*RoomContainer
}

func newContainerRegistry() *containerRegistry {
	return &containerRegistry{
		byKind: make(map[string][]string),
		byID:   make(map[string]*RoomContainer),
	}
}

func (r *containerRegistry) add(c *RoomContainer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID()]; ok {
		return ErrRoomAlreadyExists
	}
	r.byID[c.ID()] = c
	r.byKind[c.Kind()] = append(r.byKind[c.Kind()], c.ID())
	return nil
}

func (r *containerRegistry) remove(id string) (*RoomContainer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	ids := r.byKind[c.Kind()]
	for i, v := range ids {
		if v == id {
			r.byKind[c.Kind()] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(r.byKind[c.Kind()]) == 0 {
		delete(r.byKind, c.Kind())
	}
	return c, true
}

func (r *containerRegistry) get(id string) (*RoomContainer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// getByKind collects container handles in creation order. The read lock is
// released before callers touch any container lock, so a slow room callback
// never stalls registry traversal.
func (r *containerRegistry) getByKind(kind string) []*RoomContainer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byKind[kind]
	out := make([]*RoomContainer, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	return out
}

// all snapshots every container handle.
func (r *containerRegistry) all() []*RoomContainer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*RoomContainer, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

func (r *containerRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
