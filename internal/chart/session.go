// Package chart ties the waypoint list, spatial index, routes, persisted
// store and undo history into one editable chart.
//
// A Session is safe for concurrent use. Every operation takes the session
// lock, so the history beneath it only ever sees one caller at a time.
package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/text/language"

	"github.com/dshills/waymark/internal/chart/route"
	"github.com/dshills/waymark/internal/chart/spatial"
	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/store/memstore"
	"github.com/dshills/waymark/internal/chart/waypoint"
	"github.com/dshills/waymark/internal/engine/history"
	"github.com/dshills/waymark/internal/event"
	"github.com/dshills/waymark/internal/event/topic"
	"github.com/dshills/waymark/internal/i18n"
	"github.com/dshills/waymark/internal/logging"
)

// Session is an editable chart with undo and redo.
type Session struct {
	mu sync.Mutex

	list    *waypoint.List
	index   *spatial.Index
	routes  *route.Manager
	store   store.Store
	history *history.History

	logger   *logging.Logger
	lang     language.Tag
	refresh  func()
	events   *event.Bus
	pending  []event.Event
	maxDepth int
	cellSize float64

	released int
}

// New creates an empty session. Without WithStore, waypoints are kept in an
// in-memory store.
func New(opts ...Option) *Session {
	s := &Session{
		list:     waypoint.NewList(),
		routes:   route.NewManager(),
		logger:   logging.Default().WithComponent("chart"),
		lang:     language.MustParse(i18n.BaseLocale),
		maxDepth: history.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memstore.New()
	}
	if s.cellSize > 0 {
		s.index = spatial.New(spatial.WithCellSize(s.cellSize))
	} else {
		s.index = spatial.New()
	}
	s.history = history.New(
		history.WithMaxDepth(s.maxDepth),
		history.WithLanguage(s.lang),
		history.WithReleaseHook(s.onRelease),
	)
	return s
}

// onRelease runs under s.mu, from inside the history.
func (s *Session) onRelease(r history.Release) {
	s.released++
	if r.Ownership == history.Orphaned {
		s.logger.Debug("discarded %s waypoint %s", r.Kind, r.Waypoint.GUID)
		return
	}
	s.logger.Debug("released %s snapshot of %s", r.Kind, r.Waypoint.GUID)
}

func (s *Session) collaborators(ctx context.Context) history.Collaborators {
	return history.Collaborators{
		Index:      s.index,
		Store:      storeBinding{ctx: ctx, store: s.store},
		List:       s.list,
		Containers: routeLookup{ctx: ctx, routes: s.routes, store: s.store},
		Refresh:    s.refresh,
	}
}

func (s *Session) notify() {
	if s.refresh != nil {
		s.refresh()
	}
}

// Load replaces the chart contents with the store's waypoints and routes.
// The undo history is cleared.
func (s *Session) Load(ctx context.Context) error {
	defer s.flush()
	points, err := s.store.Waypoints(ctx)
	if err != nil {
		return fmt.Errorf("load waypoints: %w", err)
	}
	records, err := s.store.Routes(ctx)
	if err != nil {
		return fmt.Errorf("load routes: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Clear()
	s.list = waypoint.NewList()
	s.index.Clear()
	s.routes = route.NewManager()

	for _, w := range points {
		s.list.Append(w)
		s.index.Insert(w.Position, w)
	}
	for _, r := range store.Resolve(records, points) {
		s.routes.Add(r)
	}

	s.logger.Info("loaded %d waypoints and %d routes", len(points), s.routes.Len())
	s.notify()
	s.emit(TopicLoaded, LoadedEvent{Waypoints: len(points), Routes: s.routes.Len()})
	return nil
}

// CreateWaypoint adds a waypoint at pos and records the action.
func (s *Session) CreateWaypoint(ctx context.Context, name string, pos waypoint.Position) (waypoint.Waypoint, error) {
	defer s.flush()
	if !pos.IsValid() {
		return waypoint.Waypoint{}, fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
	}
	pos = waypoint.NewPosition(pos.Lat, pos.Lon)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.history.Begin(history.CreateWaypoint, nil, history.Unmanaged, nil); err != nil {
		return waypoint.Waypoint{}, err
	}

	w := waypoint.New(name, pos)
	if err := s.store.AddWaypoint(ctx, w); err != nil {
		s.history.Cancel()
		return waypoint.Waypoint{}, fmt.Errorf("add waypoint: %w", err)
	}
	s.index.Insert(w.Position, w)
	s.list.Append(w)

	if err := s.history.Commit(w); err != nil {
		return waypoint.Waypoint{}, err
	}
	s.logger.Debug("created waypoint %s", w)
	s.notify()
	s.emit(TopicWaypointCreated, WaypointEvent{Waypoint: *w})
	return *w, nil
}

// DeleteWaypoint removes a waypoint and records the action.
// Waypoints referenced by a route cannot be deleted.
func (s *Session) DeleteWaypoint(ctx context.Context, guid string) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.list.Find(guid)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWaypointNotFound, guid)
	}
	if len(s.routes.RoutesContaining(w)) > 0 {
		return fmt.Errorf("%w: %s", ErrWaypointInRoute, guid)
	}

	if err := s.store.DeleteWaypoint(ctx, w.GUID); err != nil {
		return fmt.Errorf("delete waypoint: %w", err)
	}
	s.index.Remove(w)
	s.list.Detach(w)

	// The waypoint is detached before capture, so the record takes it
	// as an orphan.
	if err := s.history.Begin(history.DeleteWaypoint, w, history.Orphaned, nil); err != nil {
		return err
	}
	if err := s.history.Commit(nil); err != nil {
		return err
	}
	s.logger.Debug("deleted waypoint %s", w)
	s.notify()
	s.emit(TopicWaypointDeleted, WaypointEvent{Waypoint: *w})
	return nil
}

// MoveWaypoint moves a waypoint to pos and records the action. Routes
// through the waypoint are recomputed and persisted.
func (s *Session) MoveWaypoint(ctx context.Context, guid string, pos waypoint.Position) (waypoint.Waypoint, error) {
	defer s.flush()
	if !pos.IsValid() {
		return waypoint.Waypoint{}, fmt.Errorf("%w: %s", ErrInvalidPosition, pos)
	}
	pos = waypoint.NewPosition(pos.Lat, pos.Lon)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.list.Find(guid)
	if !ok {
		return waypoint.Waypoint{}, fmt.Errorf("%w: %s", ErrWaypointNotFound, guid)
	}
	entry, _ := s.index.Lookup(w)

	if err := s.history.Begin(history.MoveWaypoint, w, history.CopyOwned, entry); err != nil {
		return waypoint.Waypoint{}, err
	}

	prev := w.Position
	w.Position = pos
	if err := s.store.UpdateWaypoint(ctx, w); err != nil {
		w.Position = prev
		s.history.Cancel()
		return waypoint.Waypoint{}, fmt.Errorf("update waypoint: %w", err)
	}
	if entry != nil {
		s.index.Update(entry, pos)
	}

	var errs []error
	for _, ct := range (routeLookup{ctx: ctx, routes: s.routes, store: s.store}).ContainersReferencing(w) {
		ct.RecomputeGeometry()
		if err := ct.Persist(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.history.Commit(w); err != nil {
		return waypoint.Waypoint{}, err
	}
	s.logger.Debug("moved waypoint %s from %s", w, prev)
	s.notify()
	s.emit(TopicWaypointMoved, WaypointEvent{Waypoint: *w, From: prev})

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("persist routes after move: %v", err)
		return *w, fmt.Errorf("persist routes: %w", err)
	}
	return *w, nil
}

// Undo reverses the most recent action.
//
// A *history.ReplayError means the chart was updated but some store
// writes failed. ErrWaypointInRoute means the action would remove a
// waypoint a route still uses; nothing changed.
func (s *Session) Undo(ctx context.Context) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	info, _ := s.history.PeekUndo()
	err := s.history.Undo(s.collaborators(ctx))
	s.logReplay("undo", info, err)
	s.emitReplay(TopicUndone, info, err)
	return routeRefusal(err)
}

// Redo reapplies the most recently undone action.
func (s *Session) Redo(ctx context.Context) error {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	info, _ := s.history.PeekRedo()
	err := s.history.Redo(s.collaborators(ctx))
	s.logReplay("redo", info, err)
	s.emitReplay(TopicRedone, info, err)
	return routeRefusal(err)
}

// routeRefusal reports a replay refused because a route still uses the
// waypoint as ErrWaypointInRoute.
func routeRefusal(err error) error {
	if errors.Is(err, history.ErrSubjectReferenced) {
		return fmt.Errorf("%w: %w", ErrWaypointInRoute, err)
	}
	return err
}

func (s *Session) emitReplay(t topic.Topic, info history.ActionInfo, err error) {
	var rerr *history.ReplayError
	if err == nil || errors.As(err, &rerr) {
		s.emit(t, HistoryEvent{Action: info, Err: err})
	}
}

func (s *Session) logReplay(op string, info history.ActionInfo, err error) {
	var rerr *history.ReplayError
	switch {
	case err == nil:
		s.logger.Debug("%s %s", op, info.Kind)
	case errors.As(err, &rerr):
		s.logger.Warn("%s %s: %v", op, info.Kind, rerr.Err)
	}
}

// CanUndo reports whether Undo would do something.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.AnythingToUndo()
}

// CanRedo reports whether Redo would do something.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.AnythingToRedo()
}

// PeekUndo describes the action Undo would reverse.
func (s *Session) PeekUndo() (history.ActionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.PeekUndo()
}

// PeekRedo describes the action Redo would reapply.
func (s *Session) PeekRedo() (history.ActionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.PeekRedo()
}

// UndoInfo describes every undoable action, most recent first.
func (s *Session) UndoInfo() []history.ActionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.UndoInfo()
}

// RedoInfo describes every redoable action, next redo first.
func (s *Session) RedoInfo() []history.ActionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.RedoInfo()
}

// ClearHistory drops every recorded action. The chart is unchanged.
func (s *Session) ClearHistory() {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Clear()
	s.notify()
	s.emit(TopicHistoryCleared, nil)
}

// SetMaxDepth changes how many actions are kept. Values below 1 select
// the default. Excess actions are dropped oldest first.
func (s *Session) SetMaxDepth(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.SetMaxDepth(n)
	s.logger.Info("history depth set to %d", s.history.MaxDepth())
}

// MaxDepth returns how many actions are kept.
func (s *Session) MaxDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.MaxDepth()
}

// Released returns how many captured values the history has freed.
func (s *Session) Released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// AddRoute creates a route through the given waypoints and persists it.
// Routes are not part of the undo history.
func (s *Session) AddRoute(ctx context.Context, name string, guids ...string) (RouteInfo, error) {
	defer s.flush()
	s.mu.Lock()
	defer s.mu.Unlock()

	points := make([]*waypoint.Waypoint, 0, len(guids))
	for _, guid := range guids {
		w, ok := s.list.Find(guid)
		if !ok {
			return RouteInfo{}, fmt.Errorf("%w: %s", ErrWaypointNotFound, guid)
		}
		points = append(points, w)
	}

	r := route.New(name, points...)
	if err := s.store.UpdateRoute(ctx, store.NewRouteRecord(r)); err != nil {
		return RouteInfo{}, fmt.Errorf("add route: %w", err)
	}
	s.routes.Add(r)
	s.logger.Debug("added route %s with %d points", r.GUID, len(points))
	s.notify()
	info := newRouteInfo(r)
	s.emit(TopicRouteAdded, info)
	return info, nil
}

// Waypoint returns a copy of the waypoint with the given GUID.
func (s *Session) Waypoint(guid string) (waypoint.Waypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.list.Find(guid)
	if !ok {
		return waypoint.Waypoint{}, false
	}
	return *w, true
}

// Waypoints returns copies of every managed waypoint in list order.
func (s *Session) Waypoints() []waypoint.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.list.All()
	result := make([]waypoint.Waypoint, len(all))
	for i, w := range all {
		result[i] = *w
	}
	return result
}

// Near returns copies of the waypoints within radiusNM nautical miles of
// pos, nearest first.
func (s *Session) Near(pos waypoint.Position, radiusNM float64) []waypoint.Waypoint {
	if radiusNM < 0 {
		return nil
	}
	// One degree of latitude is 60nm; widen the longitude search toward
	// the poles and filter by great-circle distance.
	deg := radiusNM / 60
	if c := math.Cos(pos.Lat * math.Pi / 180); c > 0.01 {
		deg /= c
	} else {
		deg = 180
	}
	deg = math.Min(deg, 180)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []waypoint.Waypoint
	for _, e := range s.index.Near(pos, deg) {
		if route.Distance(pos, e.Position()) <= radiusNM {
			result = append(result, *e.Waypoint)
		}
	}
	return result
}

// RouteInfo describes a route.
type RouteInfo struct {
	GUID   string
	Name   string
	Points []string
	BBox   route.BBox
	Legs   []float64
	Length float64
}

func newRouteInfo(r *route.Route) RouteInfo {
	info := RouteInfo{
		GUID:   r.GUID,
		Name:   r.Name,
		BBox:   r.BBox,
		Legs:   append([]float64(nil), r.Legs...),
		Length: r.Length,
	}
	for _, p := range r.Points {
		info.Points = append(info.Points, p.GUID)
	}
	return info
}

// Routes describes every route.
func (s *Session) Routes() []RouteInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.routes.All()
	result := make([]RouteInfo, len(all))
	for i, r := range all {
		result[i] = newRouteInfo(r)
	}
	return result
}
