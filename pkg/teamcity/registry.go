package teamcity

import "sync"

// Registry maps currently-open suite/test ids to their parent ids. An entry
// exists exactly while the matching start event has been seen and its finish
// event has not, so the map never grows past the current nesting depth.
//
// Writers take the exclusive lock; chain walks take the shared lock for
// their whole traversal, so a walk never interleaves with a write.
type Registry struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[string]string)}
}

// Set records id's parent, overwriting any existing entry.
func (r *Registry) Set(id, parentID string) {
	r.mu.Lock()
	r.refs[id] = parentID
	r.mu.Unlock()
}

// Clear removes id's entry, if any.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	delete(r.refs, id)
	r.mu.Unlock()
}

// ClearAll drops every entry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	r.refs = make(map[string]string)
	r.mu.Unlock()
}

// Parent returns id's recorded parent. A missing entry and a stored empty
// string both report false: either way the id is a root.
func (r *Registry) Parent(id string) (string, bool) {
	r.mu.RLock()
	p, ok := r.refs[id]
	r.mu.RUnlock()
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// FindRoot walks the parent chain from id to its root ancestor and reports
// whether a usable root was found (an empty starting id never is). A
// self-referential entry terminates the walk at that id rather than looping.
func (r *Registry) FindRoot(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for {
		p, ok := r.refs[id]
		if !ok || p == "" || p == id {
			return id, id != ""
		}
		id = p
	}
}
