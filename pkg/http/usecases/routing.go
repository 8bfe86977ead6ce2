package usecases

import (
	"errors"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"go.uber.org/zap"
)

var ErrPathNotFound = errors.New("no path between origin and destination")

type RoutingService struct {
	log          *zap.Logger
	engine       RoutingEngine
	spatialIndex SpatialIndex
	binder       RequestBinder
	snapK        int
}

func NewRoutingService(log *zap.Logger, engine RoutingEngine, spatialIndex SpatialIndex,
	binder RequestBinder, snapK int) *RoutingService {
	return &RoutingService{
		log:          log,
		engine:       engine,
		spatialIndex: spatialIndex,
		binder:       binder,
		snapK:        snapK,
	}
}

// Route snaps both endpoints to the road network, binds the request hints
// against the live overlay state and runs the query on the bound metric.
// routes come back shortest first, each with its polyline already encoded.
func (rs *RoutingService) Route(origLat, origLon, dstLat, dstLon float64,
	request overlay.RouteRequest) ([]*routing.AlternativeRoute, overlay.Flags, bool, error) {
	s, t, err := rs.snapOrigDestToVertices(origLat, origLon, dstLat, dstLon)
	if err != nil {
		return nil, overlay.Flags{}, false, err
	}

	bound := rs.binder.Bind(request)
	opts := routing.NewSearchOptions(bound.CostFunction(), bound.EdgeFilter(),
		bound.SpeedupDisabled())

	var routes []*routing.AlternativeRoute
	if bound.UseAlternatives() {
		routes = rs.engine.AlternativeRoutes(s, t, bound.AlternativeParams(), opts)
	} else {
		travelTime, dist, coords, edges, found := rs.engine.ShortestPath(s, t, opts)
		if found {
			routes = []*routing.AlternativeRoute{
				routing.NewAlternativeRoute(travelTime, dist, travelTime,
					datastructure.INVALID_VERTEX_ID, coords, edges),
			}
		}
	}

	if len(routes) == 0 {
		return nil, bound.GetFlags(), bound.Degraded(), util.WrapErrorf(ErrPathNotFound,
			util.ErrNotFound, "no path found from %f,%f to %f,%f", origLat, origLon, dstLat, dstLon)
	}

	for _, route := range routes {
		route.SetPolylinePath(geo.PolylineFromCoords(datastructure.NewGeoCoordinates(route.GetCoords())))
	}

	return routes, bound.GetFlags(), bound.Degraded(), nil
}
