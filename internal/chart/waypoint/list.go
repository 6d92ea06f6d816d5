package waypoint

// List is the in-memory list of managed waypoints, in insertion order.
// List is not safe for concurrent use.
type List struct {
	items []*Waypoint
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Append adds a waypoint to the end of the list.
// Appending a waypoint that is already present is a no-op.
func (l *List) Append(w *Waypoint) {
	if w == nil || l.Contains(w) {
		return
	}
	l.items = append(l.items, w)
}

// Detach removes a waypoint from the list without releasing it.
// Returns false if the waypoint was not present.
func (l *List) Detach(w *Waypoint) bool {
	for i, item := range l.items {
		if item == w {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the exact waypoint is in the list.
func (l *List) Contains(w *Waypoint) bool {
	for _, item := range l.items {
		if item == w {
			return true
		}
	}
	return false
}

// Find returns the waypoint with the given GUID.
func (l *List) Find(guid string) (*Waypoint, bool) {
	for _, item := range l.items {
		if item.GUID == guid {
			return item, true
		}
	}
	return nil, false
}

// FindByName returns the first waypoint with the given name.
func (l *List) FindByName(name string) (*Waypoint, bool) {
	for _, item := range l.items {
		if item.Name == name {
			return item, true
		}
	}
	return nil, false
}

// All returns a copy of the list contents.
func (l *List) All() []*Waypoint {
	result := make([]*Waypoint, len(l.items))
	copy(result, l.items)
	return result
}

// Len returns the number of waypoints in the list.
func (l *List) Len() int {
	return len(l.items)
}
