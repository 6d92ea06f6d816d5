package chart

import (
	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/event"
	"github.com/dshills/waymark/internal/logging"
)

// Option configures a Session.
type Option func(*Session)

// WithStore sets the persisted store. The session does not close it.
func WithStore(st store.Store) Option {
	return func(s *Session) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDepth sets the number of undoable actions kept.
func WithMaxDepth(n int) Option {
	return func(s *Session) {
		s.maxDepth = n
	}
}

// WithLanguage sets the language of action descriptions.
func WithLanguage(tag language.Tag) Option {
	return func(s *Session) {
		s.lang = tag
	}
}

// WithRefresh sets a function called after every change to the chart,
// such as redrawing a waypoint list. It runs with the session locked and
// must not call back into the session.
func WithRefresh(fn func()) Option {
	return func(s *Session) {
		s.refresh = fn
	}
}

// WithCellSize sets the spatial index grid cell in degrees.
func WithCellSize(deg float64) Option {
	return func(s *Session) {
		s.cellSize = deg
	}
}

// WithEvents publishes chart changes on bus. Events are delivered after
// the session lock is released, so handlers may call back into the session.
func WithEvents(bus *event.Bus) Option {
	return func(s *Session) {
		s.events = bus
	}
}
