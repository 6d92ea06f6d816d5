package history

import (
	"fmt"

	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Captured is a value remembered by a record. The concrete type is the
// ownership tag: *Snapshot is CopyOwned, *Orphan is Orphaned and *Borrowed
// is Unmanaged.
type Captured interface {
	// Ownership returns the ownership tag of the value.
	Ownership() Ownership

	// Waypoint returns the waypoint the value was captured from.
	Waypoint() *waypoint.Waypoint

	captured()
}

// Snapshot is a copy of a waypoint's position taken before a move.
type Snapshot struct {
	subject *waypoint.Waypoint
	pos     *waypoint.Position // nil once released
}

func newSnapshot(w *waypoint.Waypoint) *Snapshot {
	pos := w.Position
	return &Snapshot{subject: w, pos: &pos}
}

// Ownership returns CopyOwned.
func (s *Snapshot) Ownership() Ownership { return CopyOwned }

// Waypoint returns the moved waypoint.
func (s *Snapshot) Waypoint() *waypoint.Waypoint { return s.subject }

// Position returns the stored position. ok is false after release.
func (s *Snapshot) Position() (pos waypoint.Position, ok bool) {
	if s.pos == nil {
		return waypoint.Position{}, false
	}
	return *s.pos, true
}

// Released reports whether the snapshot has been released.
func (s *Snapshot) Released() bool { return s.pos == nil }

func (s *Snapshot) captured() {}

// Orphan is a waypoint that was detached from every collaborator.
type Orphan struct {
	subject *waypoint.Waypoint
}

// Ownership returns Orphaned.
func (o *Orphan) Ownership() Ownership { return Orphaned }

// Waypoint returns the orphaned waypoint.
func (o *Orphan) Waypoint() *waypoint.Waypoint { return o.subject }

func (o *Orphan) captured() {}

// Borrowed is a reference to a waypoint owned by the domain.
type Borrowed struct {
	subject *waypoint.Waypoint
}

// Ownership returns Unmanaged.
func (b *Borrowed) Ownership() Ownership { return Unmanaged }

// Waypoint returns the referenced waypoint.
func (b *Borrowed) Waypoint() *waypoint.Waypoint { return b.subject }

func (b *Borrowed) captured() {}

// capture applies the capture rule for kind and mode.
//
//	MoveWaypoint   + CopyOwned -> *Snapshot (deep copy of the position)
//	DeleteWaypoint + Orphaned  -> *Orphan
//	CreateWaypoint + Unmanaged -> *Borrowed, or no entry when before is nil
func capture(kind Kind, before *waypoint.Waypoint, mode Ownership) (Captured, error) {
	switch kind {
	case MoveWaypoint:
		if mode == CopyOwned && before != nil {
			return newSnapshot(before), nil
		}
	case DeleteWaypoint:
		if mode == Orphaned && before != nil {
			return &Orphan{subject: before}, nil
		}
	case CreateWaypoint:
		if before == nil {
			return nil, nil
		}
		if mode == Unmanaged {
			return &Borrowed{subject: before}, nil
		}
	}
	return nil, captureError(kind, mode, before)
}

func captureError(kind Kind, mode Ownership, before *waypoint.Waypoint) error {
	if before == nil {
		return fmt.Errorf("%w: %s/%s: missing before reference", ErrUnsupportedCapture, kind, mode)
	}
	return fmt.Errorf("%w: %s/%s", ErrUnsupportedCapture, kind, mode)
}
