package history

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/chart/spatial"
	"github.com/dshills/waymark/internal/chart/waypoint"
)

// History manages the undo/redo stack of waypoint actions.
//
// stack holds records newest first. Indices [0, cursor) are undone and
// available for redo; [cursor, len) are active and available for undo.
// Invariant: 0 <= cursor <= len(stack) <= maxDepth.
type History struct {
	stack     []*Record
	cursor    int
	maxDepth  int
	candidate *Record

	onRelease func(Release)
	lang      language.Tag
	now       func() time.Time
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		maxDepth:  DefaultMaxDepth,
		onRelease: func(Release) {},
		lang:      language.English,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Begin opens a transaction for an action about to be performed.
//
// before is the waypoint as it is before the action; mode tells how it is
// captured (see capture). aux is the spatial entry to keep in sync with the
// waypoint's position, or nil.
//
// Calling Begin while a transaction is open releases the open candidate and
// returns ErrTransactionAborted; no transaction is open afterwards.
func (h *History) Begin(kind Kind, before *waypoint.Waypoint, mode Ownership, aux *spatial.Entry) error {
	if h.candidate != nil {
		h.discardCandidate()
		return ErrTransactionAborted
	}

	captured, err := capture(kind, before, mode)
	if err != nil {
		return err
	}

	h.InvalidateRedo()
	h.candidate = newRecord(kind, captured, aux, h.now())
	return nil
}

// Commit closes the open transaction and pushes its record.
// after is the waypoint as it is after the action, or nil.
func (h *History) Commit(after *waypoint.Waypoint) error {
	if h.candidate == nil {
		return ErrNoActiveTransaction
	}

	r := h.candidate
	h.candidate = nil
	if after != nil {
		r.after = append(r.after, after)
	}
	if r.subject() == nil {
		r.release(h.onRelease)
		return fmt.Errorf("%w: %s record has no subject", ErrUnsupportedCapture, r.kind)
	}

	// Undo during an open transaction leaves undone records behind; they
	// are unreachable once r is on top.
	h.InvalidateRedo()

	h.stack = append(h.stack, nil)
	copy(h.stack[1:], h.stack)
	h.stack[0] = r
	h.evict()
	return nil
}

// Cancel releases the open transaction's candidate without committing it.
// Returns false if no transaction was open.
func (h *History) Cancel() bool {
	if h.candidate == nil {
		return false
	}
	h.discardCandidate()
	return true
}

func (h *History) discardCandidate() {
	r := h.candidate
	h.candidate = nil
	r.release(h.onRelease)
}

// Undo reverses the most recent active record.
//
// A *ReplayError reports collaborator failures; the undo itself still
// happened and the cursor moved. ErrSubjectReferenced means nothing
// happened.
func (h *History) Undo(c Collaborators) error {
	if !h.AnythingToUndo() {
		return ErrNothingToUndo
	}
	r := h.stack[h.cursor]
	if err := checkDetach(r, &c, false); err != nil {
		return err
	}
	h.cursor++
	return replay(r, &c, false)
}

// Redo reapplies the most recently undone record.
//
// A *ReplayError reports collaborator failures; the redo itself still
// happened and the cursor moved. ErrSubjectReferenced means nothing
// happened.
func (h *History) Redo(c Collaborators) error {
	if !h.AnythingToRedo() {
		return ErrNothingToRedo
	}
	r := h.stack[h.cursor-1]
	if err := checkDetach(r, &c, true); err != nil {
		return err
	}
	h.cursor--
	return replay(r, &c, true)
}

// AnythingToUndo reports whether Undo would do something.
func (h *History) AnythingToUndo() bool {
	return len(h.stack) > h.cursor
}

// AnythingToRedo reports whether Redo would do something.
func (h *History) AnythingToRedo() bool {
	return h.cursor > 0
}

// InvalidateRedo releases every undone record.
func (h *History) InvalidateRedo() {
	if h.cursor == 0 {
		return
	}
	for _, r := range h.stack[:h.cursor] {
		r.release(h.onRelease)
	}
	n := copy(h.stack, h.stack[h.cursor:])
	clear(h.stack[n:])
	h.stack = h.stack[:n]
	h.cursor = 0
}

// Clear releases every record and any open candidate.
func (h *History) Clear() {
	if h.candidate != nil {
		h.discardCandidate()
	}
	for _, r := range h.stack {
		r.release(h.onRelease)
	}
	h.stack = nil
	h.cursor = 0
}

// SetMaxDepth changes the maximum number of records kept, evicting the
// oldest records if needed. Values below 1 select DefaultMaxDepth.
func (h *History) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	h.maxDepth = n
	h.evict()
}

// evict releases records beyond maxDepth, oldest first. Evicting an undone
// record makes every newer undone record unreachable too, so the whole redo
// zone goes first in that case.
func (h *History) evict() {
	for len(h.stack) > h.maxDepth {
		last := len(h.stack) - 1
		if last < h.cursor {
			h.InvalidateRedo()
			continue
		}
		h.stack[last].release(h.onRelease)
		h.stack[last] = nil
		h.stack = h.stack[:last]
	}
}

// MaxDepth returns the maximum number of records kept.
func (h *History) MaxDepth() int {
	return h.maxDepth
}

// Len returns the number of records, undone ones included.
func (h *History) Len() int {
	return len(h.stack)
}

// Cursor returns the number of undone records.
func (h *History) Cursor() int {
	return h.cursor
}

// InTransaction reports whether a transaction is open.
func (h *History) InTransaction() bool {
	return h.candidate != nil
}

// ActionInfo provides read-only info about a record.
// Used for displaying undo/redo history to users.
type ActionInfo struct {
	Kind        Kind
	Description string
	Timestamp   time.Time
}

func (h *History) info(r *Record) ActionInfo {
	return ActionInfo{
		Kind:        r.kind,
		Description: r.kind.Description(h.lang),
		Timestamp:   r.timestamp,
	}
}

// PeekUndo returns info about the next undo without performing it.
func (h *History) PeekUndo() (ActionInfo, bool) {
	if !h.AnythingToUndo() {
		return ActionInfo{}, false
	}
	return h.info(h.stack[h.cursor]), true
}

// PeekRedo returns info about the next redo without performing it.
func (h *History) PeekRedo() (ActionInfo, bool) {
	if !h.AnythingToRedo() {
		return ActionInfo{}, false
	}
	return h.info(h.stack[h.cursor-1]), true
}

// UndoInfo returns info about the active records, next undo first.
func (h *History) UndoInfo() []ActionInfo {
	result := make([]ActionInfo, 0, len(h.stack)-h.cursor)
	for _, r := range h.stack[h.cursor:] {
		result = append(result, h.info(r))
	}
	return result
}

// RedoInfo returns info about the undone records, next redo first.
func (h *History) RedoInfo() []ActionInfo {
	result := make([]ActionInfo, 0, h.cursor)
	for i := h.cursor - 1; i >= 0; i-- {
		result = append(result, h.info(h.stack[i]))
	}
	return result
}
