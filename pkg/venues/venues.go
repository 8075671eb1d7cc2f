package venues

import (
	"sort"
)

// Map is the fixed venue enumeration: remote venue id to display name, plus
// the grouping used when listing orders.
type Map struct {
	names  map[int]string
	ids    map[string]int
	groups map[string][]string
	// canonical listing order, derived from ascending venue id
	ordered []string
}

// New builds a venue map from configuration.
func New(names map[int]string, groups map[string][]string) *Map {
	m := &Map{
		names:  make(map[int]string, len(names)),
		ids:    make(map[string]int, len(names)),
		groups: groups,
	}

	ids := make([]int, 0, len(names))
	for id, name := range names {
		m.names[id] = name
		m.ids[name] = id
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m.ordered = append(m.ordered, names[id])
	}

	return m
}

// Name returns the venue name for a remote venue id.
func (m *Map) Name(id int) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// ID returns the remote venue id for a venue name.
func (m *Map) ID(name string) (int, bool) {
	id, ok := m.ids[name]
	return id, ok
}

// Valid reports whether name is a known venue.
func (m *Map) Valid(name string) bool {
	_, ok := m.ids[name]
	return ok
}

// GroupOf returns the display group a venue belongs to, or the venue name
// itself for ungrouped venues.
func (m *Map) GroupOf(name string) string {
	for group, members := range m.groups {
		for _, v := range members {
			if v == name {
				return group
			}
		}
	}
	return name
}

// Groups returns the display group names in a stable order.
func (m *Map) Groups() []string {
	out := make([]string, 0, len(m.groups))
	for g := range m.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Members returns the venues in a display group.
func (m *Map) Members(group string) []string {
	return m.groups[group]
}

// OrderIndex returns the canonical position of a venue for display sorting.
// Unknown venues sort last.
func (m *Map) OrderIndex(name string) int {
	for i, v := range m.ordered {
		if v == name {
			return i
		}
	}
	return len(m.ordered)
}
