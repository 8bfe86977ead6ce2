package main

import (
	"flag"
	"math/rand"
	"strconv"
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/concurrent"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/engine/routing"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	log "github.com/lintang-b-s/trafficx/pkg/logger"
	"github.com/lintang-b-s/trafficx/pkg/matcher"
	"github.com/lintang-b-s/trafficx/pkg/osmparser"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/lintang-b-s/trafficx/pkg/spatialindex"
)

var (
	gridN      = flag.Int("grid", 64, "synthetic grid dimension (grid x grid vertices)")
	corridors  = flag.Int("corridors", 200, "synthetic eds corridors per snapshot")
	rounds     = flag.Int("rounds", 10, "index rebuild rounds")
	numQueries = flag.Int("queries", 2000, "random route queries on the bound metric")
)

const (
	baseLat     = 37.90
	baseLon     = 32.45
	gridSpacing = 0.001 // deg, ~111 m between neighbors
	gridSpeed   = 500.0 // meter/minute
)

// buildGrid assembles a gridN x gridN road network with two-way edges between
// horizontal and vertical neighbors.
func buildGrid(n int) *da.Graph {
	coords := make([]osmparser.NodeCoord, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			coords = append(coords, osmparser.NewNodeCoord(baseLat+float64(i)*gridSpacing,
				baseLon+float64(j)*gridSpacing))
		}
	}

	noInfo := da.NewEdgeExtraInfo(0, uint8(pkg.RESIDENTIAL), 2, 0, 0, 0, 0, -1)
	edges := make([]osmparser.Edge, 0, 4*n*n)
	addRoad := func(u, v uint32) {
		dist := 1000.0 * geo.CalculateHaversineDistance(coords[u].GetLat(), coords[u].GetLon(),
			coords[v].GetLat(), coords[v].GetLon())
		weight := dist / gridSpeed
		edges = append(edges,
			osmparser.NewEdge(u, v, weight, dist, pkg.RESIDENTIAL, false, noInfo),
			osmparser.NewEdge(v, u, weight, dist, pkg.RESIDENTIAL, false, noInfo))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			id := uint32(i*n + j)
			if j+1 < n {
				addRoad(id, id+1)
			}
			if i+1 < n {
				addRoad(id, id+uint32(n))
			}
		}
	}

	graph := osmparser.BuildGraph(coords, edges, da.NewGraphStorage())
	graph.RunKosaraju()
	return graph
}

// syntheticCorridors draws random corridors along grid rows, jittered a few
// meters off the centerline the way probe traces are.
func syntheticCorridors(rng *rand.Rand, graph *da.Graph, n, count int) []feed.Corridor {
	out := make([]feed.Corridor, 0, count)
	for c := 0; c < count; c++ {
		row := rng.Intn(n)
		length := 4 + rng.Intn(8)
		start := rng.Intn(n - 1)
		if start+length >= n {
			length = n - 1 - start
		}

		waypoints := make([]da.Coordinate, 0, length+1)
		for j := start; j <= start+length; j++ {
			lat, lon := graph.GetVertexCoordinates(da.Index(row*n + j))
			jitter := (rng.Float64() - 0.5) * 0.0001
			waypoints = append(waypoints, da.NewCoordinate(lat+jitter, lon))
		}
		out = append(out, feed.NewCorridor("corridor-"+strconv.Itoa(c), waypoints))
	}
	return out
}

func main() {
	flag.Parse()
	logger, err := log.New()
	if err != nil {
		panic(err)
	}

	n := *gridN
	graph := buildGrid(n)
	logger.Sugar().Infof("synthetic grid ready: %d vertices, %d edges",
		graph.NumberOfVertices(), graph.NumberOfEdges())

	rtree := spatialindex.NewRtree(graph)
	rtree.Build(0.05, logger)

	geometries, err := matcher.NewGeometryCache(graph)
	if err != nil {
		panic(err)
	}
	lineMatcher := matcher.NewLineMatcher(graph, geometries, rtree, logger)
	circleMatcher := matcher.NewCircleMatcher(graph, geometries, rtree, logger)
	overlayIndex := overlay.NewIndex(lineMatcher, circleMatcher, logger)

	rng := rand.New(rand.NewSource(42))

	// 1. eds index rebuild latency. every refresh rebuilds the full table, so
	// this is the cost a feed tick adds.
	var total, min, max time.Duration
	for r := 0; r < *rounds; r++ {
		snapshot := feed.NewEdsSnapshot(syntheticCorridors(rng, graph, n, *corridors), time.Now())

		before := time.Now()
		overlayIndex.RebuildEds(snapshot)
		dur := time.Since(before)

		total += dur
		if r == 0 || dur < min {
			min = dur
		}
		if dur > max {
			max = dur
		}
		logger.Sugar().Infof("rebuild round %d: %v (%d matched edges)", r+1, dur,
			overlayIndex.CurrentEds().Len())
	}
	logger.Sugar().Infof("rebuild over %d rounds: avg %v min %v max %v",
		*rounds, total/time.Duration(*rounds), min, max)

	// 2. query latency on the bound overlay metric vs the base metric.
	costFunction := costfunction.NewTimeCostFunction(graph)
	binder := overlay.NewBinder(overlayIndex, costFunction, graph.NumberOfEdges(), logger)
	bound := binder.Bind(overlay.NewRouteRequest(overlay.ProfileCar,
		overlay.NewHints().With(overlay.HintAvoidEdsRoads, true)))

	engine := routing.NewRoutingEngine(graph, costFunction, nil, logger)

	type queryParam struct {
		s, t da.Index
	}
	queries := make([]queryParam, 0, *numQueries)
	for q := 0; q < *numQueries; q++ {
		queries = append(queries, queryParam{
			s: da.Index(rng.Intn(n * n)),
			t: da.Index(rng.Intn(n * n)),
		})
	}

	benchmark := func(name string, opts routing.SearchOptions) {
		before := time.Now()
		workers := concurrent.NewWorkerPool[queryParam, any](8, len(queries))
		for _, q := range queries {
			workers.AddJob(q)
		}
		workers.Close()
		workers.Start(func(q queryParam) any {
			engine.ShortestPath(q.s, q.t, opts)
			return nil
		})
		workers.Wait()
		dur := time.Since(before)
		logger.Sugar().Infof("%s: %d queries in %v (%v/query)", name, len(queries), dur,
			dur/time.Duration(len(queries)))
	}

	benchmark("base metric", routing.NewSearchOptions(nil, nil, false))
	benchmark("overlay metric", routing.NewSearchOptions(bound.CostFunction(),
		bound.EdgeFilter(), bound.SpeedupDisabled()))
}
