// Package readstate tracks which comments a reader has already seen.
//
// The read set lives under a single key of a string key-value Store as a
// JSON array of comment ids. It is loaded once when the Tracker is created
// and written back in full after every mutation.
//
// A Tracker does no cross-process locking. Two trackers sharing a storage key
// each hold their own copy of the set, so concurrent writers can overwrite
// each other's additions. Callers that need stronger guarantees must
// serialize access themselves, for example with an external lock around the
// whole load-modify-save cycle.
package readstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ibeckermayer/threadreader/internal/types"
)

// DefaultStorageKey is the key used when none is configured.
const DefaultStorageKey = "ekskursje_read_comments"

// ErrStoreUnavailable is returned by stores that cannot be reached.
var ErrStoreUnavailable = errors.New("read-state store unavailable")

// Store is a persistent string key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Tracker is a persisted set of read comment ids.
type Tracker struct {
	mu    sync.Mutex
	store Store
	key   string
	ids   map[string]struct{}
	order []string // insertion order, used for serialization
}

// NewTracker loads the read set stored under key. An absent key, an
// unparseable value, or a failing store all yield an empty set.
func NewTracker(store Store, key string) *Tracker {
	if key == "" {
		key = DefaultStorageKey
	}

	t := &Tracker{
		store: store,
		key:   key,
		ids:   make(map[string]struct{}),
	}

	for _, id := range t.load() {
		t.add(id)
	}

	return t
}

func (t *Tracker) load() []string {
	if t.store == nil {
		return nil
	}

	raw, ok, err := t.store.Get(t.key)
	if err != nil {
		log.Warn().Str("component", "readstate").Str("key", t.key).Err(err).
			Msg("Could not load read state, starting empty")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warn().Str("component", "readstate").Str("key", t.key).Err(err).
			Msg("Stored read state is malformed, starting empty")
		return nil
	}
	return ids
}

// add inserts id and reports whether it was new. Caller holds mu or owns t.
func (t *Tracker) add(id string) bool {
	if _, ok := t.ids[id]; ok {
		return false
	}
	t.ids[id] = struct{}{}
	t.order = append(t.order, id)
	return true
}

// save writes the whole set. Caller holds mu.
func (t *Tracker) save() error {
	if t.store == nil {
		return ErrStoreUnavailable
	}

	data, err := json.Marshal(t.order)
	if err != nil {
		return fmt.Errorf("failed to encode read state: %w", err)
	}

	if err := t.store.Set(t.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist read state: %w", err)
	}
	return nil
}

// Key returns the storage key backing the tracker.
func (t *Tracker) Key() string {
	return t.key
}

// IsRead reports whether id has been marked read.
func (t *Tracker) IsRead(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// MarkAsRead adds id to the set and persists it immediately. Marking an id
// that is already read leaves the set unchanged. On a persistence error the
// in-memory set still contains id.
func (t *Tracker) MarkAsRead(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.add(id)
	return t.save()
}

// MarkMultipleAsRead adds every id and then persists the set with a single
// write.
func (t *Tracker) MarkMultipleAsRead(ids []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range ids {
		t.add(id)
	}
	return t.save()
}

// Len returns the number of read ids.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// ReadIDs returns the read ids in the order they were first marked.
func (t *Tracker) ReadIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// UnreadCount returns how many of comments have not been marked read.
func (t *Tracker) UnreadCount(comments []types.Comment) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, c := range comments {
		if _, ok := t.ids[c.ID]; !ok {
			n++
		}
	}
	return n
}
