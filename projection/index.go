// Package projection builds local read models from repository writes.
// Handles ordering and reconciliation with the store listing.
// Does not touch the store or interact with UI directly.
package projection

import (
	"sort"
	"sync"

	"chat-ai/domain"

	"github.com/google/uuid"
)

// Index holds the in-memory conversation listing, most recent first.
// Newly created conversations are prepended; appending to an existing
// conversation replaces its entry content without moving it.
type Index struct {
	mu      sync.Mutex
	entries []domain.Summary
}

func NewIndex() *Index {
	return &Index{}
}

// Prepend puts a freshly created conversation at the head of the listing.
func (i *Index) Prepend(s domain.Summary) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = append([]domain.Summary{s}, i.entries...)
}

// Apply replaces the message content of an existing entry in place.
// The entry keeps its listing position. Unknown ids are ignored: the entry
// will appear on the next Merge from the store.
func (i *Index) Apply(id uuid.UUID, messages []domain.Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n := range i.entries {
		if i.entries[n].ID == id {
			i.entries[n].Messages = messages
			return
		}
	}
}

// Merge reconciles the listing with a full store scan. Entries already
// present keep their position and content (a concurrent write is newer than
// the scan); unseen entries are added and the result is re-sorted by
// creation time, most recent first.
func (i *Index) Merge(scanned []domain.Summary) {
	i.mu.Lock()
	defer i.mu.Unlock()

	known := make(map[uuid.UUID]struct{}, len(i.entries))
	for _, e := range i.entries {
		known[e.ID] = struct{}{}
	}
	for _, s := range scanned {
		if _, ok := known[s.ID]; !ok {
			i.entries = append(i.entries, s)
		}
	}
	sort.SliceStable(i.entries, func(a, b int) bool {
		return i.entries[a].CreatedAt.After(i.entries[b].CreatedAt)
	})
}

// Entries returns a copy of the current listing.
func (i *Index) Entries() []domain.Summary {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]domain.Summary, len(i.entries))
	copy(out, i.entries)
	return out
}
