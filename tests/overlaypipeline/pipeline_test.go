package overlaypipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"github.com/lintang-b-s/trafficx/pkg/http/usecases"
	"github.com/lintang-b-s/trafficx/pkg/matcher"
	"github.com/lintang-b-s/trafficx/pkg/osmparser"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/lintang-b-s/trafficx/pkg/spatialindex"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// the fixture network is a 15x7 street grid south of Konya covering the
// query endpoints used by the scenario tests. row and column spacings are
// deliberately irregular so that no two consecutive blocks have the same
// length, which keeps corridor matches unambiguous: a feed corridor laid
// exactly on one block scores 1.0 there and stays clearly below the
// acceptance threshold on the collinear neighbor blocks.
var (
	gridRowLats = []float64{
		37.8520, 37.8610, 37.8722, 37.8818, 37.8927,
		37.9021, 37.9129, 37.9221, 37.9332, 37.9430,
		37.9502, 37.9601, 37.9687, 37.9782, 37.9891,
	}
	gridColLons = []float64{
		32.5000, 32.5105, 32.5193, 32.5293, 32.5405, 32.5498, 32.5604,
	}
)

const (
	gridColumns = 7

	// column 3 is a 60 km/h trunk avenue, everything else is a 50 km/h
	// residential street, so the shortest A->B path rides the trunk
	residentialSpeed = 50000.0 / 60.0 // meter/minute
	trunkSpeed       = 60000.0 / 60.0
	trunkColumn      = 3

	originLat = 37.989355
	originLon = 32.523069
	destLat   = 37.860192
	destLon   = 32.547872

	areaCenterLat     = 37.95
	areaCenterLon     = 32.53
	areaRadiusMeters  = 500.0
	fedSpeedLimitKmh  = 70.0
	bonusWeightFactor = 0.92
)

// one block of the grid, named by the (row, col) cells of its endpoints.
type gridRoad struct {
	fromRow, fromCol, toRow, toCol int
}

// the trunk blocks closed by the eds feed. they sit on the unique shortest
// A->B path, so an avoidance request has to leave the trunk.
var edsRoads = []gridRoad{
	{8, 3, 9, 3},
	{9, 3, 10, 3},
	{10, 3, 11, 3},
	{11, 3, 12, 3},
}

// the blocks intersecting the 500 m circle around (37.95, 32.53): the four
// roads incident to the grid vertex nearest the center.
var areaRoads = []gridRoad{
	{9, 3, 10, 3},
	{10, 2, 10, 3},
	{10, 3, 10, 4},
	{10, 3, 11, 3},
}

// the residential blocks carrying a 70 km/h limit for cars. they form the
// south-then-east leg of a block pair whose two legs are equal to within
// centimeters, so the speed bonus decides which leg the route takes.
var speedLimitRoads = []gridRoad{
	{10, 4, 11, 4},
	{10, 4, 10, 5},
}

func gridVertex(row, col int) datastructure.Index {
	return datastructure.Index(row*gridColumns + col)
}

func gridCoordinate(row, col int) (float64, float64) {
	return gridRowLats[row], gridColLons[col]
}

func buildRoadNetwork() *datastructure.Graph {
	coords := make([]osmparser.NodeCoord, 0, len(gridRowLats)*gridColumns)
	for _, lat := range gridRowLats {
		for _, lon := range gridColLons {
			coords = append(coords, osmparser.NewNodeCoord(lat, lon))
		}
	}

	noInfo := datastructure.NewEdgeExtraInfo(0, uint8(pkg.RESIDENTIAL), 2, 0, 0, 0, 0, -1)
	edges := make([]osmparser.Edge, 0, 4*len(coords))
	addRoad := func(from, to datastructure.Index, speed float64) {
		fromLat, fromLon := coords[from].GetLat(), coords[from].GetLon()
		toLat, toLon := coords[to].GetLat(), coords[to].GetLon()
		dist := 1000.0 * geo.CalculateHaversineDistance(fromLat, fromLon, toLat, toLon)
		weight := dist / speed
		edges = append(edges,
			osmparser.NewEdge(uint32(from), uint32(to), weight, dist, pkg.RESIDENTIAL, false, noInfo),
			osmparser.NewEdge(uint32(to), uint32(from), weight, dist, pkg.RESIDENTIAL, false, noInfo))
	}

	for row := range gridRowLats {
		for col := range gridColLons {
			if col+1 < gridColumns {
				addRoad(gridVertex(row, col), gridVertex(row, col+1), residentialSpeed)
			}
			if row+1 < len(gridRowLats) {
				speed := residentialSpeed
				if col == trunkColumn {
					speed = trunkSpeed
				}
				addRoad(gridVertex(row, col), gridVertex(row+1, col), speed)
			}
		}
	}

	graph := osmparser.BuildGraph(coords, edges, datastructure.NewGraphStorage())
	graph.RunKosaraju()
	return graph
}

// feedBackend serves the three overlay feeds over a local http server, with
// per-feed bodies that tests can swap out and a failure switch for the
// snapshot-retention checks.
type feedBackend struct {
	mu     sync.Mutex
	bodies map[string][]byte
	broken map[string]bool

	server *httptest.Server
}

func newFeedBackend(t *testing.T) *feedBackend {
	t.Helper()
	b := &feedBackend{
		bodies: map[string][]byte{
			"/eds":    defaultEdsBody(t),
			"/areas":  defaultAreasBody(t),
			"/limits": defaultSpeedLimitsBody(t),
		},
		broken: map[string]bool{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *feedBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	body, ok := b.bodies[r.URL.Path]
	broken := b.broken[r.URL.Path]
	b.mu.Unlock()

	if broken {
		http.Error(w, "upstream down", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}

func (b *feedBackend) setBody(path string, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[path] = body
}

func (b *feedBackend) setBroken(path string, broken bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broken[path] = broken
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// roadLineString encodes a block as geojson-order [lon, lat] pairs, exactly
// on the grid vertex coordinates.
func roadLineString(road gridRoad) [][]float64 {
	fromLat, fromLon := gridCoordinate(road.fromRow, road.fromCol)
	toLat, toLon := gridCoordinate(road.toRow, road.toCol)
	return [][]float64{{fromLon, fromLat}, {toLon, toLat}}
}

func defaultEdsBody(t *testing.T) []byte {
	features := make([]interface{}, 0, len(edsRoads))
	for n, road := range edsRoads {
		features = append(features, map[string]interface{}{
			"geometry": map[string]interface{}{
				"type":        "LineString",
				"coordinates": roadLineString(road),
			},
			"properties": map[string]interface{}{
				"Name": fmt.Sprintf("trunk-avenue-section-%d", n+1),
			},
		})
	}
	return mustJSON(t, []interface{}{
		map[string]interface{}{"features": features},
	})
}

func defaultAreasBody(t *testing.T) []byte {
	return mustJSON(t, []interface{}{
		map[string]interface{}{
			"id":            1,
			"location":      fmt.Sprintf("%v, %v", areaCenterLat, areaCenterLon),
			"half_diameter": areaRadiusMeters,
		},
	})
}

func defaultSpeedLimitsBody(t *testing.T) []byte {
	items := make([]interface{}, 0, len(speedLimitRoads))
	for n, road := range speedLimitRoads {
		items = append(items, map[string]interface{}{
			"id":    100 + n,
			"title": fmt.Sprintf("ring-road-segment-%d", n+1),
			"linestring": map[string]interface{}{
				"coordinates": roadLineString(road),
			},
			"cars": []interface{}{
				map[string]interface{}{"car_id": 1, "car_name": "auto", "speed": fedSpeedLimitKmh},
			},
		})
	}
	return mustJSON(t, map[string]interface{}{
		"data": map[string]interface{}{"items": items},
	})
}

// pipeline wires the whole stack the way cmd/server does: graph, spatial
// index, matchers, overlay index, feed service against the local backend,
// container, binder, routing engine and the routing service on top.
type pipeline struct {
	graph     *datastructure.Graph
	baseCost  costfunction.CostFunction
	engine    *routing.RoutingEngine
	index     *overlay.Index
	container *overlay.Container
	binder    *overlay.Binder
	routing   *usecases.RoutingService
	backend   *feedBackend
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	log := zap.NewNop()

	graph := buildRoadNetwork()
	rtree := spatialindex.NewRtree(graph)
	rtree.Build(0.05, log)

	geometries, err := matcher.NewGeometryCache(graph)
	require.NoError(t, err)
	lineMatcher := matcher.NewLineMatcher(graph, geometries, rtree, log)
	circleMatcher := matcher.NewCircleMatcher(graph, geometries, rtree, log)
	overlayIndex := overlay.NewIndex(lineMatcher, circleMatcher, log)

	backend := newFeedBackend(t)
	feedConfig := feed.NewConfig(
		backend.server.URL+"/eds",
		backend.server.URL+"/areas",
		backend.server.URL+"/limits")
	feedService := feed.NewService(feed.NewClient(), feedConfig, log)
	container := overlay.NewContainer(feedService, overlayIndex, log)

	baseCost := costfunction.NewTimeCostFunction(graph)
	engine := routing.NewRoutingEngine(graph, baseCost, nil, log)
	binder := overlay.NewBinder(overlayIndex, baseCost, graph.NumberOfEdges(), log)
	routingService := usecases.NewRoutingService(log, engine, rtree, binder, 4)

	return &pipeline{
		graph:     graph,
		baseCost:  baseCost,
		engine:    engine,
		index:     overlayIndex,
		container: container,
		binder:    binder,
		routing:   routingService,
		backend:   backend,
	}
}

// installAll fetches and installs all three feeds once, synchronously.
func (p *pipeline) installAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, f := range []feed.Feed{feed.FeedEds, feed.FeedCustomAreas, feed.FeedSpeedLimits} {
		require.NoError(t, p.container.Refresh(ctx, f))
	}
}

// roadEdgeIDs resolves both directed edge ids of a block.
func (p *pipeline) roadEdgeIDs(t *testing.T, road gridRoad) []datastructure.Index {
	t.Helper()
	from := gridVertex(road.fromRow, road.fromCol)
	to := gridVertex(road.toRow, road.toCol)

	forward, ok := p.graph.FindOutEdge(from, to)
	require.True(t, ok, "no edge between cells (%d,%d) and (%d,%d)",
		road.fromRow, road.fromCol, road.toRow, road.toCol)
	backward, ok := p.graph.FindOutEdge(to, from)
	require.True(t, ok)
	return []datastructure.Index{forward, backward}
}

func routeEdgeSet(route *routing.AlternativeRoute) map[datastructure.Index]struct{} {
	edges := make(map[datastructure.Index]struct{}, len(route.GetPath()))
	for _, e := range route.GetPath() {
		edges[e.GetEdgeId()] = struct{}{}
	}
	return edges
}

func routeVisitsCell(route *routing.AlternativeRoute, row, col int) bool {
	lat, lon := gridCoordinate(row, col)
	for _, c := range route.GetCoords() {
		if c.GetLat() == lat && c.GetLon() == lon {
			return true
		}
	}
	return false
}
