package handles

import (
	"github.com/zjrosen/assetq/internal/domain/assets"
)

// Tracker remembers the handle issued for each (namespace, kind, file) and
// the source URL last handed to the host under it.
type Tracker struct {
	issued map[assets.AssetKey]entry
}

type entry struct {
	handle string
	src    string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{issued: make(map[assets.AssetKey]entry)}
}

// Get returns the handle issued for key.
func (t *Tracker) Get(key assets.AssetKey) (string, bool) {
	e, ok := t.issued[key]
	return e.handle, ok
}

// Src returns the source URL recorded for key.
func (t *Tracker) Src(key assets.AssetKey) (string, bool) {
	e, ok := t.issued[key]
	return e.src, ok
}

// Put records handle for key. An existing entry is kept, so a key maps to
// one handle until Record reassigns it.
func (t *Tracker) Put(key assets.AssetKey, handle string) string {
	if existing, ok := t.issued[key]; ok {
		return existing.handle
	}
	t.issued[key] = entry{handle: handle}
	return handle
}

// Record sets the handle and source URL for key, replacing any earlier entry.
func (t *Tracker) Record(key assets.AssetKey, handle, src string) {
	t.issued[key] = entry{handle: handle, src: src}
}

// Issued reports whether handle was issued for any asset of kind.
func (t *Tracker) Issued(kind assets.Kind, handle string) bool {
	for key, e := range t.issued {
		if key.Kind == kind && e.handle == handle {
			return true
		}
	}
	return false
}

// ClearNamespace forgets every handle issued for namespace.
func (t *Tracker) ClearNamespace(namespace string) int {
	n := 0
	for key := range t.issued {
		if key.Namespace == namespace {
			delete(t.issued, key)
			n++
		}
	}
	return n
}

// Clear forgets every handle.
func (t *Tracker) Clear() {
	t.issued = make(map[assets.AssetKey]entry)
}

// Len returns the number of tracked assets.
func (t *Tracker) Len() int {
	return len(t.issued)
}
