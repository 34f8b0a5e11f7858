// Package diff defines the structured-value contract the room core relies
// on: snapshots are JSON documents, patches are RFC 7386 JSON merge patches.
package diff

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Snapshot is one marshaled state of a room behavior. Snapshots must be JSON
// objects; merge-patch diffing is not defined for bare arrays or scalars.
type Snapshot []byte

// Patch is a JSON merge patch between two snapshots. A nil Patch means the
// snapshots were structurally equal.
type Patch []byte

// Marshal encodes a behavior state into a Snapshot.
func Marshal(v any) (Snapshot, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return Snapshot(b), nil
}

// Between computes the patch that transforms old into cur. A nil old is
// treated as the empty document, so the first patch a client sees is the
// full state. Structurally equal documents yield a nil patch regardless of
// key order.
func Between(old, cur Snapshot) (Patch, error) {
	if cur == nil {
		return nil, fmt.Errorf("diff: current snapshot is nil")
	}
	if old == nil {
		return Patch(cur), nil
	}
	if jsonpatch.Equal(old, cur) {
		return nil, nil
	}
	p, err := jsonpatch.CreateMergePatch(old, cur)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return Patch(p), nil
}

// IsEmpty reports whether the patch carries no change.
func (p Patch) IsEmpty() bool {
	return len(p) == 0 || string(p) == "{}"
}
