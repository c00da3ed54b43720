package entity

import (
	"sync"

	"github.com/five82/zowiebox/internal/state"
	"github.com/five82/zowiebox/internal/zowie"
)

// Registry tracks the entities of one device entry. Entities are added as
// streams and devices appear and are never removed; a vanished record makes
// its entities unavailable instead.
type Registry struct {
	deps *Deps

	mu    sync.RWMutex
	byID  map[string]Entity
	order []string
}

// NewRegistry returns an empty registry. deps is shared by every entity.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: &deps, byID: make(map[string]Entity)}
}

// Sync builds the entities implied by v and returns the ones that are new.
// The static entities are registered on the first call.
func (r *Registry) Sync(v state.View) []Entity {
	candidates := r.build(v.Data)

	r.mu.Lock()
	defer r.mu.Unlock()
	var added []Entity
	for _, e := range candidates {
		id := e.Info().ObjectID
		if _, ok := r.byID[id]; ok {
			continue
		}
		r.byID[id] = e
		r.order = append(r.order, id)
		added = append(added, e)
	}
	return added
}

func (r *Registry) build(snap *state.Snapshot) []Entity {
	out := []Entity{newActiveStreamSelect(r.deps), newModeSensor(r.deps)}
	out = append(out, modeAwareEntities(r.deps)...)
	for _, st := range snap.StreamList() {
		out = append(out, streamEntities(r.deps, st)...)
	}
	if snap == nil {
		return out
	}
	for _, dev := range snap.Devices {
		out = append(out, controlEntities(r.deps, dev)...)
		if dev.Type == zowie.DeviceTypeLight {
			out = append(out, newLight(r.deps, dev))
		}
	}
	return out
}

// All returns every registered entity in registration order.
func (r *Registry) All() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Lookup finds an entity by object id.
func (r *Registry) Lookup(objectID string) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[objectID]
	return e, ok
}

// Len reports the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
