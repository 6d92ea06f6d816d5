package history

import (
	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/i18n"
)

// Kind identifies the type of an undoable action.
type Kind int

const (
	// CreateWaypoint is the creation of a new waypoint.
	CreateWaypoint Kind = iota
	// DeleteWaypoint is the removal of a waypoint.
	DeleteWaypoint
	// MoveWaypoint is a change of a waypoint's position.
	MoveWaypoint
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case CreateWaypoint:
		return "CreateWaypoint"
	case DeleteWaypoint:
		return "DeleteWaypoint"
	case MoveWaypoint:
		return "MoveWaypoint"
	default:
		return "Unknown"
	}
}

func (k Kind) messageKey() string {
	switch k {
	case CreateWaypoint:
		return "action.create_waypoint"
	case DeleteWaypoint:
		return "action.delete_waypoint"
	case MoveWaypoint:
		return "action.move_waypoint"
	default:
		return "action.unknown"
	}
}

// Description returns the localized, human-readable label of the kind.
func (k Kind) Description(tag language.Tag) string {
	return i18n.T(tag, k.messageKey())
}

// Ownership tags a captured value with who is responsible for releasing it.
type Ownership int

const (
	// CopyOwned values were allocated by the history and are released with
	// their record.
	CopyOwned Ownership = iota
	// Orphaned values are live waypoints detached from every collaborator.
	// The record holds them until they are restored or discarded.
	Orphaned
	// Unmanaged values are references into the domain and are never released.
	Unmanaged
)

// String returns the ownership name.
func (o Ownership) String() string {
	switch o {
	case CopyOwned:
		return "CopyOwned"
	case Orphaned:
		return "Orphaned"
	case Unmanaged:
		return "Unmanaged"
	default:
		return "Unknown"
	}
}
