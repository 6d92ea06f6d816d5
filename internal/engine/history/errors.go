package history

import (
	"errors"
	"fmt"
)

// Errors returned by history operations.
var (
	// ErrNoActiveTransaction indicates Commit was called with no open transaction.
	ErrNoActiveTransaction = errors.New("no active transaction")

	// ErrTransactionAborted indicates Begin was called while a transaction was
	// open. The previous candidate was released and no transaction is open.
	ErrTransactionAborted = errors.New("transaction aborted by nested begin")

	// ErrNothingToUndo indicates there is no active record to undo.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates there is no undone record to redo.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrSubjectReferenced indicates an undo or redo would detach a
	// waypoint that a container still references. Nothing was replayed and
	// the cursor did not move.
	ErrSubjectReferenced = errors.New("waypoint is referenced by a container")

	// ErrUnsupportedCapture indicates a kind and ownership combination that
	// has no capture rule.
	ErrUnsupportedCapture = errors.New("unsupported capture")
)

// ReplayError reports collaborator failures during an undo or redo.
// The in-memory effect was fully applied and the cursor moved.
type ReplayError struct {
	Kind Kind
	Redo bool
	Err  error
}

// Error implements error.
func (e *ReplayError) Error() string {
	dir := "undo"
	if e.Redo {
		dir = "redo"
	}
	return fmt.Sprintf("%s %s: %v", dir, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReplayError) Unwrap() error {
	return e.Err
}
