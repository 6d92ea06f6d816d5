package chart

import (
	"context"

	"github.com/dshills/waymark/internal/chart/route"
	"github.com/dshills/waymark/internal/chart/store"
	"github.com/dshills/waymark/internal/chart/waypoint"
	"github.com/dshills/waymark/internal/engine/history"
)

// storeBinding adapts a Store to history.Persister for one call.
type storeBinding struct {
	ctx   context.Context
	store store.Store
}

func (b storeBinding) AddWaypoint(w *waypoint.Waypoint) error {
	return b.store.AddWaypoint(b.ctx, w)
}

func (b storeBinding) UpdateWaypoint(w *waypoint.Waypoint) error {
	return b.store.UpdateWaypoint(b.ctx, w)
}

func (b storeBinding) DeleteWaypoint(w *waypoint.Waypoint) error {
	return b.store.DeleteWaypoint(b.ctx, w.GUID)
}

// routeLookup exposes the session routes as history containers.
type routeLookup struct {
	ctx    context.Context
	routes *route.Manager
	store  store.Store
}

func (l routeLookup) ContainersReferencing(w *waypoint.Waypoint) []history.Container {
	var result []history.Container
	for _, r := range l.routes.RoutesContaining(w) {
		result = append(result, routeContainer{ctx: l.ctx, route: r, store: l.store})
	}
	return result
}

type routeContainer struct {
	ctx   context.Context
	route *route.Route
	store store.Store
}

func (c routeContainer) RecomputeGeometry() {
	c.route.Recompute()
}

func (c routeContainer) Persist() error {
	return c.store.UpdateRoute(c.ctx, store.NewRouteRecord(c.route))
}
