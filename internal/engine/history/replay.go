package history

import (
	"errors"
	"fmt"

	"github.com/dshills/waymark/internal/chart/spatial"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// SpatialIndex finds waypoints near a position.
type SpatialIndex interface {
	Insert(pos waypoint.Position, w *waypoint.Waypoint) *spatial.Entry
	Remove(w *waypoint.Waypoint) bool
	Update(e *spatial.Entry, pos waypoint.Position)
}

// Persister is the persisted waypoint store.
type Persister interface {
	AddWaypoint(w *waypoint.Waypoint) error
	UpdateWaypoint(w *waypoint.Waypoint) error
	DeleteWaypoint(w *waypoint.Waypoint) error
}

// ManagedList is the in-memory list of live waypoints.
type ManagedList interface {
	Append(w *waypoint.Waypoint)
	Detach(w *waypoint.Waypoint) bool
}

// Container is an object whose geometry depends on waypoints, such as a route.
type Container interface {
	RecomputeGeometry()
	Persist() error
}

// ContainerLookup finds the containers referencing a waypoint.
type ContainerLookup interface {
	ContainersReferencing(w *waypoint.Waypoint) []Container
}

// Collaborators are the domain services a replay keeps in sync.
// Nil members are skipped.
type Collaborators struct {
	Index      SpatialIndex
	Store      Persister
	List       ManagedList
	Containers ContainerLookup

	// Refresh is called after every replay. Best effort.
	Refresh func()
}

// effect applies one direction of an action to the domain.
type effect func(r *Record, c *Collaborators) error

// replayer holds the two directions of a kind. The detach flags mark the
// directions that orphan the subject.
type replayer struct {
	undo effect
	redo effect

	undoDetaches bool
	redoDetaches bool
}

// Create and Delete share attach/detach with roles swapped; Move is a
// symmetric swap used in both directions.
var replayers = map[Kind]replayer{
	CreateWaypoint: {undo: detachSubject, redo: attachSubject, undoDetaches: true},
	DeleteWaypoint: {undo: attachSubject, redo: detachSubject, redoDetaches: true},
	MoveWaypoint:   {undo: swapPosition, redo: swapPosition},
}

// checkDetach refuses a replay that would orphan a subject some container
// still references. It runs before the cursor moves.
func checkDetach(r *Record, c *Collaborators, redo bool) error {
	rp := replayers[r.kind]
	detaches := rp.undoDetaches
	if redo {
		detaches = rp.redoDetaches
	}
	if !detaches || c.Containers == nil {
		return nil
	}
	w := mustSubject(r)
	if len(c.Containers.ContainersReferencing(w)) > 0 {
		return fmt.Errorf("%w: %s", ErrSubjectReferenced, w.GUID)
	}
	return nil
}

func replay(r *Record, c *Collaborators, redo bool) error {
	rp, ok := replayers[r.kind]
	if !ok {
		panic(fmt.Sprintf("history: no replayer for %s", r.kind))
	}
	fn := rp.undo
	if redo {
		fn = rp.redo
	}
	if err := fn(r, c); err != nil {
		return &ReplayError{Kind: r.kind, Redo: redo, Err: err}
	}
	return nil
}

func mustSubject(r *Record) *waypoint.Waypoint {
	w := r.subject()
	if w == nil {
		panic(fmt.Sprintf("history: %s record has no subject", r.kind))
	}
	return w
}

// attachSubject puts the subject back into the index, store and list. The
// domain owns it again.
func attachSubject(r *Record, c *Collaborators) error {
	w := mustSubject(r)
	var errs []error

	if c.Index != nil {
		c.Index.Insert(w.Position, w)
	}
	if c.Store != nil {
		if err := c.Store.AddWaypoint(w); err != nil {
			errs = append(errs, fmt.Errorf("add waypoint %s: %w", w.GUID, err))
		}
	}
	if c.List != nil {
		c.List.Append(w)
	}
	r.detached = false

	errs = append(errs, recompute(w, c)...)
	refresh(c)
	return errors.Join(errs...)
}

// detachSubject removes the subject from the index, store and list. The
// record holds it as an orphan; it is not discarded.
func detachSubject(r *Record, c *Collaborators) error {
	w := mustSubject(r)
	var errs []error

	if c.Store != nil {
		if err := c.Store.DeleteWaypoint(w); err != nil {
			errs = append(errs, fmt.Errorf("delete waypoint %s: %w", w.GUID, err))
		}
	}
	if c.Index != nil {
		c.Index.Remove(w)
	}
	if c.List != nil {
		c.List.Detach(w)
	}
	r.detached = true

	errs = append(errs, recompute(w, c)...)
	refresh(c)
	return errors.Join(errs...)
}

// swapPosition exchanges the live position with the snapshot. Applying it
// twice restores the original state.
func swapPosition(r *Record, c *Collaborators) error {
	s := r.snapshot()
	w := mustSubject(r)
	var errs []error

	w.Position, *s.pos = *s.pos, w.Position

	if c.Index != nil {
		for _, e := range r.aux {
			c.Index.Update(e, w.Position)
		}
	}
	if c.Store != nil {
		if err := c.Store.UpdateWaypoint(w); err != nil {
			errs = append(errs, fmt.Errorf("update waypoint %s: %w", w.GUID, err))
		}
	}

	errs = append(errs, recompute(w, c)...)
	refresh(c)
	return errors.Join(errs...)
}

// recompute refreshes and persists every container referencing w.
func recompute(w *waypoint.Waypoint, c *Collaborators) []error {
	if c.Containers == nil {
		return nil
	}
	var errs []error
	for _, ct := range c.Containers.ContainersReferencing(w) {
		ct.RecomputeGeometry()
		if err := ct.Persist(); err != nil {
			errs = append(errs, fmt.Errorf("persist container: %w", err))
		}
	}
	return errs
}

func refresh(c *Collaborators) {
	if c.Refresh != nil {
		c.Refresh()
	}
}
