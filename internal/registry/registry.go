// Package registry maintains the in-process mapping from content hash to
// the currently resident decoded texture.
//
// Entries are weak: the registry never keeps a texture alive by itself. A
// lookup succeeds only while some owner still holds a strong reference;
// once the last owner drops it, the entry goes stale and is pruned lazily.
// InsertOrAdopt is the single race-resolution point for concurrent decodes
// of identical content.
package registry

import (
	"sync"
	"weak"

	"github.com/hupe1980/texgo/model"
	"github.com/hupe1980/texgo/texture"
)

// Registry is safe for concurrent use. The zero value is not usable; call
// New.
type Registry struct {
	mu      sync.Mutex
	entries map[model.ContentHash]weak.Pointer[texture.Texture]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[model.ContentHash]weak.Pointer[texture.Texture]),
	}
}

// Lookup returns the live texture registered under hash, or nil if there is
// none or the previous holder is no longer reachable from any owner. Dead
// entries are removed on the way.
func (r *Registry) Lookup(hash model.ContentHash) *texture.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()

	wp, ok := r.entries[hash]
	if !ok {
		return nil
	}
	tex := wp.Value()
	if tex == nil {
		delete(r.entries, hash)
	}
	return tex
}

// InsertOrAdopt installs candidate under hash if no live entry exists and
// returns it; otherwise the existing live texture is returned and candidate
// is discarded by the caller. Whichever decode reaches this first wins; all
// later callers for the same hash converge on the winner. A stale entry
// whose holder became unreachable is replaced by candidate.
//
// The lock is held only for the map check-and-set, never across I/O or
// decode work.
func (r *Registry) InsertOrAdopt(hash model.ContentHash, candidate *texture.Texture) *texture.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wp, ok := r.entries[hash]; ok {
		if tex := wp.Value(); tex != nil {
			return tex
		}
	}
	r.entries[hash] = weak.Make(candidate)
	return candidate
}

// Len returns the number of live entries, pruning dead ones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for hash, wp := range r.entries {
		if wp.Value() == nil {
			delete(r.entries, hash)
		}
	}
	return len(r.entries)
}
