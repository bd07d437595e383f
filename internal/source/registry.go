package source

import "sort"

// Registry owns the live handles, keyed by item or track id. It is the
// arena the engine looks sources up in; handles never live inside the
// timeline model. Not safe for concurrent use.
type Registry struct {
	handles map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Bind installs a handle under its own id, closing any previous binding.
func (r *Registry) Bind(h Handle) {
	if h == nil {
		return
	}
	if old, ok := r.handles[h.ID()]; ok && old != h {
		old.Close()
	}
	r.handles[h.ID()] = h
}

func (r *Registry) Get(id string) (Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

// Release closes and forgets one handle.
func (r *Registry) Release(id string) {
	if h, ok := r.handles[id]; ok {
		h.Close()
		delete(r.handles, id)
	}
}

// Sync releases every handle whose id is not in keep. Used when the item
// list changes so removed items drop their sources promptly.
func (r *Registry) Sync(keep []string) {
	want := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		want[id] = struct{}{}
	}
	for id := range r.handles {
		if _, ok := want[id]; !ok {
			r.Release(id)
		}
	}
}

// ReleaseAll closes everything, leaving an empty registry.
func (r *Registry) ReleaseAll() {
	for id := range r.handles {
		r.Release(id)
	}
}

func (r *Registry) Len() int { return len(r.handles) }

// IDs returns the bound ids in stable order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.handles))
	for id := range r.handles {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
