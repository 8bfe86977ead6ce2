package routing

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/landmark"
	"go.uber.org/zap"
)

// RoutingEngine answers point-to-point queries on the road graph. queries run
// on the engine's base cost function unless the caller binds its own, which is
// how traffic-adjusted requests reroute without touching the graph.
type RoutingEngine struct {
	graph        *da.Graph
	costFunction costfunction.CostFunction
	landmarks    *landmark.Landmark
	logger       *zap.Logger

	pathCache *lru.Cache[PathCacheKey, *RouteResult]
}

func NewRoutingEngine(graph *da.Graph, costFunction costfunction.CostFunction,
	landmarks *landmark.Landmark, logger *zap.Logger) *RoutingEngine {
	pathCache, _ := lru.New[PathCacheKey, *RouteResult](PATH_CACHE_SIZE)

	return &RoutingEngine{
		graph:        graph,
		costFunction: costFunction,
		landmarks:    landmarks,
		logger:       logger,
		pathCache:    pathCache,
	}
}

func (re *RoutingEngine) GetGraph() *da.Graph {
	return re.graph
}

func (re *RoutingEngine) GetCostFunction() costfunction.CostFunction {
	return re.costFunction
}

func (re *RoutingEngine) GetLandmarks() *landmark.Landmark {
	return re.landmarks
}

type PathCacheKey struct {
	source da.Index
	target da.Index
}

func newPathCacheKey(source, target da.Index) PathCacheKey {
	return PathCacheKey{
		source: source,
		target: target,
	}
}

// RouteResult is an immutable shortest path answer. cached results are shared
// between requests, callers must not mutate the slices.
type RouteResult struct {
	travelTime float64
	dist       float64
	coords     []da.Coordinate
	edges      []da.OutEdge
}

func newRouteResult(travelTime, dist float64, coords []da.Coordinate, edges []da.OutEdge) *RouteResult {
	return &RouteResult{
		travelTime: travelTime,
		dist:       dist,
		coords:     coords,
		edges:      edges,
	}
}

func (rr *RouteResult) GetTravelTime() float64 {
	return rr.travelTime
}

func (rr *RouteResult) GetDist() float64 {
	return rr.dist
}

func (rr *RouteResult) GetCoords() []da.Coordinate {
	return rr.coords
}

func (rr *RouteResult) GetEdges() []da.OutEdge {
	return rr.edges
}

// SearchOptions select the metric and the algorithm of one query. a nil cost
// function means the engine's base cost function. disableLandmark forces the
// plain haversine heuristic, required whenever the bound cost function no
// longer matches the precomputed landmark distances.
type SearchOptions struct {
	costFunction    costfunction.CostFunction
	edgeFilter      func(da.Index) bool
	disableLandmark bool
}

func NewSearchOptions(costFunction costfunction.CostFunction, edgeFilter func(da.Index) bool,
	disableLandmark bool) SearchOptions {
	return SearchOptions{
		costFunction:    costFunction,
		edgeFilter:      edgeFilter,
		disableLandmark: disableLandmark,
	}
}

func (so SearchOptions) GetCostFunction() costfunction.CostFunction {
	return so.costFunction
}

func (so SearchOptions) GetEdgeFilter() func(da.Index) bool {
	return so.edgeFilter
}

func (so SearchOptions) LandmarkDisabled() bool {
	return so.disableLandmark
}

func (re *RoutingEngine) resolveCostFunction(opts SearchOptions) costfunction.CostFunction {
	if opts.costFunction != nil {
		return opts.costFunction
	}
	return re.costFunction
}

// ShortestPath runs one point-to-point query. results computed on the base
// cost function without an edge filter are served from the shared cache.
func (re *RoutingEngine) ShortestPath(s, t da.Index, opts SearchOptions) (float64, float64,
	[]da.Coordinate, []da.OutEdge, bool) {
	costFunction := re.resolveCostFunction(opts)

	cacheable := costFunction == re.costFunction && opts.edgeFilter == nil
	if cacheable {
		if res, ok := re.pathCache.Get(newPathCacheKey(s, t)); ok {
			return res.GetTravelTime(), res.GetDist(), res.GetCoords(), res.GetEdges(), true
		}
	}

	// landmark lower bounds are precomputed on the base cost function, any
	// other metric falls back to the haversine heuristic.
	var router Router
	if re.landmarks != nil && !opts.disableLandmark && costFunction == re.costFunction {
		router = NewAstarLandmark(re, costFunction, opts.edgeFilter, re.landmarks)
	} else {
		router = NewAstar(re, costFunction, opts.edgeFilter)
	}

	travelTime, dist, coords, edges, found := router.ShortestPathSearch(s, t)
	if cacheable && found {
		re.pathCache.Add(newPathCacheKey(s, t), newRouteResult(travelTime, dist, coords, edges))
	}

	return travelTime, dist, coords, edges, found
}

// AlternativeRoutes computes up to params.GetMaxPaths() admissible routes from
// s to t, the shortest path first. alternative results are never cached, the
// bound cost function changes with every traffic refresh.
func (re *RoutingEngine) AlternativeRoutes(s, t da.Index, params da.AlternativeRouteParams,
	opts SearchOptions) []*AlternativeRoute {
	costFunction := re.resolveCostFunction(opts)

	ars := NewAlternativeRouteSearch(re, costFunction, opts.edgeFilter, params)
	return ars.FindAlternativeRoutes(s, t)
}
