package chart

import (
	"github.com/dshills/waymark/internal/chart/waypoint"
	"github.com/dshills/waymark/internal/engine/history"
	"github.com/dshills/waymark/internal/event"
	"github.com/dshills/waymark/internal/event/topic"
)

// Topics published by a Session.
const (
	TopicLoaded          topic.Topic = "chart.loaded"
	TopicWaypointCreated topic.Topic = "chart.waypoint.created"
	TopicWaypointMoved   topic.Topic = "chart.waypoint.moved"
	TopicWaypointDeleted topic.Topic = "chart.waypoint.deleted"
	TopicRouteAdded      topic.Topic = "chart.route.added"
	TopicUndone          topic.Topic = "chart.history.undone"
	TopicRedone          topic.Topic = "chart.history.redone"
	TopicHistoryCleared  topic.Topic = "chart.history.cleared"
)

// eventSource is the Source of every event a Session publishes.
const eventSource = "chart"

// LoadedEvent is the payload of TopicLoaded.
type LoadedEvent struct {
	Waypoints int
	Routes    int
}

// WaypointEvent is the payload of the waypoint topics. From is the
// previous position of a moved waypoint.
type WaypointEvent struct {
	Waypoint waypoint.Waypoint
	From     waypoint.Position
}

// HistoryEvent is the payload of TopicUndone and TopicRedone. Err holds a
// *history.ReplayError when some store writes failed.
type HistoryEvent struct {
	Action history.ActionInfo
	Err    error
}

// emit queues an event for delivery once the session lock is released.
// Callers hold s.mu.
func (s *Session) emit(t topic.Topic, payload any) {
	if s.events == nil {
		return
	}
	s.pending = append(s.pending, event.New(t, payload, eventSource))
}

// flush publishes queued events. It must run without s.mu held so that
// handlers may call back into the session.
func (s *Session) flush() {
	if s.events == nil {
		return
	}
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range pending {
		if err := s.events.Publish(ev); err != nil {
			s.logger.Warn("publish %s: %v", ev.Type, err)
		}
	}
}
