package room

import (
	"sort"

	"parley/internal/domain"
)

// Registry maps room names to rooms. Names are case-sensitive. Rooms are
// never removed: an empty room stays listed until the process exits.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Get returns the room named name, if present.
func (g *Registry) Get(name string) (*Room, bool) {
	r, ok := g.rooms[name]
	return r, ok
}

// Create makes a new room, protected when key is non-empty. The key can only
// be set here, by the creator.
func (g *Registry) Create(name, key string) (*Room, error) {
	r := New(name)
	if key != "" {
		if err := r.SetSecret(key); err != nil {
			return nil, err
		}
	}
	g.rooms[name] = r
	return r, nil
}

// FindContaining returns the unique room holding the session identified by
// h. Linear scan; a session is a member of at most one room.
func (g *Registry) FindContaining(h domain.Handle) (*Room, bool) {
	for _, r := range g.rooms {
		if r.Contains(h) {
			return r, true
		}
	}
	return nil, false
}

// Info is one row of a room listing.
type Info struct {
	Name      string
	Protected bool
	Members   int
}

// List enumerates all rooms in name-sorted order.
func (g *Registry) List() []Info {
	names := make([]string, 0, len(g.rooms))
	for name := range g.rooms {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Info, 0, len(names))
	for _, name := range names {
		r := g.rooms[name]
		out = append(out, Info{Name: name, Protected: r.Protected(), Members: r.Len()})
	}
	return out
}

// Len returns the number of rooms ever created.
func (g *Registry) Len() int { return len(g.rooms) }
