package script

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/waymark/internal/chart"
	"github.com/dshills/waymark/internal/chart/waypoint"
	"github.com/dshills/waymark/internal/engine/history"
)

// Chart is the chart surface exposed to scripts.
type Chart interface {
	CreateWaypoint(ctx context.Context, name string, pos waypoint.Position) (waypoint.Waypoint, error)
	MoveWaypoint(ctx context.Context, guid string, pos waypoint.Position) (waypoint.Waypoint, error)
	DeleteWaypoint(ctx context.Context, guid string) error
	AddRoute(ctx context.Context, name string, guids ...string) (chart.RouteInfo, error)
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	CanUndo() bool
	CanRedo() bool
	PeekUndo() (history.ActionInfo, bool)
	PeekRedo() (history.ActionInfo, bool)
	ClearHistory()
	SetMaxDepth(n int)
	Waypoint(guid string) (waypoint.Waypoint, bool)
	Waypoints() []waypoint.Waypoint
	Near(pos waypoint.Position, radiusNM float64) []waypoint.Waypoint
	Routes() []chart.RouteInfo
}

var _ Chart = (*chart.Session)(nil)

// ChartModule implements the Lua chart module.
type ChartModule struct {
	chart Chart
}

// NewChartModule creates a chart module bound to c.
func NewChartModule(c Chart) *ChartModule {
	return &ChartModule{chart: c}
}

// Name returns the module name.
func (m *ChartModule) Name() string {
	return ModuleName
}

// Register makes the module available to scripts run by s.
func (m *ChartModule) Register(s *State) error {
	return s.Preload(ModuleName, m.loader)
}

func (m *ChartModule) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"create":        m.create,
		"move":          m.move,
		"delete":        m.delete,
		"route":         m.route,
		"undo":          m.undo,
		"redo":          m.redo,
		"can_undo":      m.canUndo,
		"can_redo":      m.canRedo,
		"peek_undo":     m.peekUndo,
		"peek_redo":     m.peekRedo,
		"clear_history": m.clearHistory,
		"set_max_depth": m.setMaxDepth,
		"get":           m.get,
		"list":          m.list,
		"near":          m.near,
		"routes":        m.routes,
	})
	L.Push(mod)
	return 1
}

func contextOf(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func checkPosition(L *lua.LState, latArg int) waypoint.Position {
	return waypoint.Position{
		Lat: float64(L.CheckNumber(latArg)),
		Lon: float64(L.CheckNumber(latArg + 1)),
	}
}

func waypointTable(L *lua.LState, w waypoint.Waypoint) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("guid", lua.LString(w.GUID))
	t.RawSetString("name", lua.LString(w.Name))
	t.RawSetString("icon", lua.LString(w.Icon))
	t.RawSetString("lat", lua.LNumber(w.Position.Lat))
	t.RawSetString("lon", lua.LNumber(w.Position.Lon))
	return t
}

func waypointList(L *lua.LState, ws []waypoint.Waypoint) *lua.LTable {
	t := L.CreateTable(len(ws), 0)
	for _, w := range ws {
		t.Append(waypointTable(L, w))
	}
	return t
}

// create(name, lat, lon) -> guid
func (m *ChartModule) create(L *lua.LState) int {
	name := L.CheckString(1)
	pos := checkPosition(L, 2)

	w, err := m.chart.CreateWaypoint(contextOf(L), name, pos)
	if err != nil {
		L.RaiseError("create: %v", err)
		return 0
	}
	L.Push(lua.LString(w.GUID))
	return 1
}

// move(guid, lat, lon)
func (m *ChartModule) move(L *lua.LState) int {
	guid := L.CheckString(1)
	pos := checkPosition(L, 2)

	if _, err := m.chart.MoveWaypoint(contextOf(L), guid, pos); err != nil {
		L.RaiseError("move: %v", err)
	}
	return 0
}

// delete(guid)
func (m *ChartModule) delete(L *lua.LState) int {
	guid := L.CheckString(1)

	if err := m.chart.DeleteWaypoint(contextOf(L), guid); err != nil {
		L.RaiseError("delete: %v", err)
	}
	return 0
}

// route(name, guid...) -> guid
func (m *ChartModule) route(L *lua.LState) int {
	name := L.CheckString(1)
	var guids []string
	for i := 2; i <= L.GetTop(); i++ {
		guids = append(guids, L.CheckString(i))
	}

	r, err := m.chart.AddRoute(contextOf(L), name, guids...)
	if err != nil {
		L.RaiseError("route: %v", err)
		return 0
	}
	L.Push(lua.LString(r.GUID))
	return 1
}

// undo() -> ok, warning
// ok is false when there is nothing to undo. warning is set when the chart
// changed but saving it failed.
func (m *ChartModule) undo(L *lua.LState) int {
	return m.replay(L, "undo", m.chart.Undo, history.ErrNothingToUndo)
}

// redo() -> ok, warning
func (m *ChartModule) redo(L *lua.LState) int {
	return m.replay(L, "redo", m.chart.Redo, history.ErrNothingToRedo)
}

func (m *ChartModule) replay(L *lua.LState, op string, fn func(context.Context) error, empty error) int {
	err := fn(contextOf(L))
	var rerr *history.ReplayError
	switch {
	case err == nil:
		L.Push(lua.LTrue)
		return 1
	case errors.Is(err, empty):
		L.Push(lua.LFalse)
		return 1
	case errors.As(err, &rerr):
		L.Push(lua.LTrue)
		L.Push(lua.LString(rerr.Error()))
		return 2
	default:
		L.RaiseError("%s: %v", op, err)
		return 0
	}
}

// can_undo() -> bool
func (m *ChartModule) canUndo(L *lua.LState) int {
	L.Push(lua.LBool(m.chart.CanUndo()))
	return 1
}

// can_redo() -> bool
func (m *ChartModule) canRedo(L *lua.LState) int {
	L.Push(lua.LBool(m.chart.CanRedo()))
	return 1
}

// peek_undo() -> description | nil
func (m *ChartModule) peekUndo(L *lua.LState) int {
	info, ok := m.chart.PeekUndo()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(info.Description))
	return 1
}

// peek_redo() -> description | nil
func (m *ChartModule) peekRedo(L *lua.LState) int {
	info, ok := m.chart.PeekRedo()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(info.Description))
	return 1
}

// clear_history()
func (m *ChartModule) clearHistory(L *lua.LState) int {
	m.chart.ClearHistory()
	return 0
}

// set_max_depth(n)
func (m *ChartModule) setMaxDepth(L *lua.LState) int {
	m.chart.SetMaxDepth(L.CheckInt(1))
	return 0
}

// get(guid) -> table | nil
func (m *ChartModule) get(L *lua.LState) int {
	w, ok := m.chart.Waypoint(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(waypointTable(L, w))
	return 1
}

// list() -> {table...}
func (m *ChartModule) list(L *lua.LState) int {
	L.Push(waypointList(L, m.chart.Waypoints()))
	return 1
}

// near(lat, lon, radius_nm) -> {table...}, nearest first
func (m *ChartModule) near(L *lua.LState) int {
	pos := checkPosition(L, 1)
	radius := float64(L.CheckNumber(3))
	L.Push(waypointList(L, m.chart.Near(pos, radius)))
	return 1
}

// routes() -> {table...}
func (m *ChartModule) routes(L *lua.LState) int {
	all := m.chart.Routes()
	t := L.CreateTable(len(all), 0)
	for _, r := range all {
		rt := L.NewTable()
		rt.RawSetString("guid", lua.LString(r.GUID))
		rt.RawSetString("name", lua.LString(r.Name))
		rt.RawSetString("length", lua.LNumber(r.Length))
		points := L.CreateTable(len(r.Points), 0)
		for _, p := range r.Points {
			points.Append(lua.LString(p))
		}
		rt.RawSetString("points", points)
		t.Append(rt)
	}
	L.Push(t)
	return 1
}
