package chart

import "errors"

// Errors returned by Session operations.
var (
	// ErrWaypointNotFound indicates no managed waypoint has the given GUID.
	ErrWaypointNotFound = errors.New("waypoint not found")

	// ErrInvalidPosition indicates a latitude or longitude out of range.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrWaypointInRoute indicates a waypoint cannot be deleted because a
	// route references it.
	ErrWaypointInRoute = errors.New("waypoint is used by a route")
)
