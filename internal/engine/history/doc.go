// Package history provides undo/redo for waypoint edits on a chart.
//
// The history records one Record per undoable action. A caller that is about
// to mutate a waypoint opens a transaction, performs the mutation, then
// commits:
//
//	h := history.New(history.WithMaxDepth(10))
//
//	if err := h.Begin(history.MoveWaypoint, wp, history.CopyOwned, entry); err != nil {
//		return err
//	}
//	wp.Position = newPos
//	if err := h.Commit(wp); err != nil {
//		return err
//	}
//
//	h.Undo(collab) // wp back at its old position
//	h.Redo(collab) // and forward again
//
// # Ownership
//
// Every captured value is tagged with who owns it:
//   - CopyOwned: a position snapshot the history allocated itself
//   - Orphaned: a waypoint detached from every collaborator, held only by
//     the history until it is restored or discarded
//   - Unmanaged: a reference whose lifecycle belongs to the domain
//
// Records are released when they are evicted by the depth limit, when they
// become unreachable redo history, on Clear, or when an open transaction is
// aborted. Release frees each value the record still owns exactly once.
//
// # Cursor
//
// Records are stored newest first. The cursor splits the stack into undone
// records [0, cursor) available for redo and active records [cursor, len)
// available for undo.
//
// # Concurrency
//
// History is not safe for concurrent use. Callers serialize access.
package history
