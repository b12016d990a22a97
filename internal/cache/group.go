package cache

// Group invalidates a set of caches together.
type Group struct {
	members []Invalidator
}

// NewGroup returns a group over the given caches.
func NewGroup(members ...Invalidator) *Group { return &Group{members: members} }

// Add registers more caches.
func (g *Group) Add(members ...Invalidator) { g.members = append(g.members, members...) }

// InvalidateUnder drops every entry keyed below p (keys starting with p+".").
// The entry for p itself survives. An empty p drops everything.
func (g *Group) InvalidateUnder(p string) int {
	if p == "" {
		g.Clear()
		return 0
	}
	n := 0
	for _, m := range g.members {
		n += m.DropPrefix(p + ".")
	}
	return n
}

// Clear empties every member.
func (g *Group) Clear() {
	for _, m := range g.members {
		m.Clear()
	}
}
