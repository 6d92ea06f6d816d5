package route

import "github.com/dshills/waymark/internal/chart/waypoint"

// Manager holds the routes of a chart.
// Manager is not safe for concurrent use.
type Manager struct {
	routes []*Route
}

// NewManager creates an empty route manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers a route. Adding the same route twice is a no-op.
func (m *Manager) Add(r *Route) {
	for _, existing := range m.routes {
		if existing == r {
			return
		}
	}
	m.routes = append(m.routes, r)
}

// Remove unregisters a route. Returns false if it was not registered.
func (m *Manager) Remove(r *Route) bool {
	for i, existing := range m.routes {
		if existing == r {
			m.routes = append(m.routes[:i], m.routes[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the route with the given GUID.
func (m *Manager) Find(guid string) (*Route, bool) {
	for _, r := range m.routes {
		if r.GUID == guid {
			return r, true
		}
	}
	return nil, false
}

// RoutesContaining returns every route that references the waypoint.
func (m *Manager) RoutesContaining(w *waypoint.Waypoint) []*Route {
	var result []*Route
	for _, r := range m.routes {
		if r.Contains(w) {
			result = append(result, r)
		}
	}
	return result
}

// All returns a copy of the registered routes.
func (m *Manager) All() []*Route {
	result := make([]*Route, len(m.routes))
	copy(result, m.routes)
	return result
}

// Len returns the number of routes.
func (m *Manager) Len() int {
	return len(m.routes)
}
