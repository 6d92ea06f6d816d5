package history

import (
	"fmt"
	"time"

	"github.com/dshills/waymark/internal/chart/spatial"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// Record is one undoable action.
//
// before and its ownership tags are one slice of Captured values, so the two
// can never diverge in length.
type Record struct {
	kind   Kind
	before []Captured
	after  []*waypoint.Waypoint
	aux    []*spatial.Entry

	// detached is true while the subject waypoint is detached from every
	// collaborator and held by this record: an active Delete, or an undone
	// Create.
	detached bool

	released  bool
	timestamp time.Time
}

func newRecord(kind Kind, before Captured, aux *spatial.Entry, now time.Time) *Record {
	r := &Record{kind: kind, timestamp: now}
	if before != nil {
		r.before = append(r.before, before)
		if before.Ownership() == Orphaned {
			r.detached = true
		}
	}
	if aux != nil {
		r.aux = append(r.aux, aux)
	}
	return r
}

// Kind returns the action kind.
func (r *Record) Kind() Kind { return r.kind }

// subject returns the waypoint the action applies to.
func (r *Record) subject() *waypoint.Waypoint {
	if len(r.before) > 0 {
		if w := r.before[0].Waypoint(); w != nil {
			return w
		}
	}
	if len(r.after) > 0 {
		return r.after[0]
	}
	return nil
}

// snapshot returns the Move record's position snapshot.
func (r *Record) snapshot() *Snapshot {
	if len(r.before) == 0 {
		panic(fmt.Sprintf("history: %s record has no before entry", r.kind))
	}
	s, ok := r.before[0].(*Snapshot)
	if !ok {
		panic(fmt.Sprintf("history: %s record holds %T, want *Snapshot", r.kind, r.before[0]))
	}
	if s.Released() {
		panic(fmt.Sprintf("history: replaying released %s record", r.kind))
	}
	return s
}

// Release describes one value freed by the history.
type Release struct {
	Kind      Kind
	Ownership Ownership
	Waypoint  *waypoint.Waypoint
	Position  waypoint.Position // snapshot position, for CopyOwned
}

// release frees every value the record still owns. A record is released at
// most once; releasing it again is a programming error.
func (r *Record) release(notify func(Release)) {
	if r.released {
		panic(fmt.Sprintf("history: %s record released twice", r.kind))
	}
	r.released = true

	discarded := false
	for _, c := range r.before {
		switch v := c.(type) {
		case *Snapshot:
			if v.pos == nil {
				continue
			}
			pos := *v.pos
			v.pos = nil
			notify(Release{Kind: r.kind, Ownership: CopyOwned, Waypoint: v.subject, Position: pos})
		case *Orphan:
			if !r.detached {
				// Restored to the domain, which owns it again.
				continue
			}
			discard(r.kind, v.subject, notify)
			discarded = true
		case *Borrowed:
		default:
			panic(fmt.Sprintf("history: unknown captured value %T", c))
		}
	}

	// An undone Create holds its subject without a before entry.
	if r.kind == CreateWaypoint && r.detached && !discarded {
		if w := r.subject(); w != nil {
			discard(r.kind, w, notify)
		}
	}

	r.before = nil
	r.after = nil
	r.aux = nil
}

func discard(kind Kind, w *waypoint.Waypoint, notify func(Release)) {
	w.Discard()
	notify(Release{Kind: kind, Ownership: Orphaned, Waypoint: w, Position: w.Position})
}
