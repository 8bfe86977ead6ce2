package usecases

import (
	"context"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
)

type RoutingEngine interface {
	ShortestPath(s, t datastructure.Index, opts routing.SearchOptions) (float64, float64,
		[]datastructure.Coordinate, []datastructure.OutEdge, bool)
	AlternativeRoutes(s, t datastructure.Index, params datastructure.AlternativeRouteParams,
		opts routing.SearchOptions) []*routing.AlternativeRoute
	GetGraph() *datastructure.Graph
}

type SpatialIndex interface {
	SnapToNearestVertices(qLat, qLon float64, k int) []datastructure.Index
}

// RequestBinder resolves request hints against the live overlay state.
type RequestBinder interface {
	Bind(request overlay.RouteRequest) overlay.BoundRequest
}

type OverlayContainer interface {
	Stats() overlay.Stats
	FeedRunning() bool
	HasRecentData() bool
	Index() *overlay.Index
	Refresh(ctx context.Context, f feed.Feed) error
}
