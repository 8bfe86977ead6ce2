package routing

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/osmparser"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// test network around konya. three parallel corridors between vSource and
// vTarget plus one unreachable vertex:
//
//	north:  vSource -> vA1 -> vA2 -> vTarget          weight 3.0 (best)
//	middle: vSource -> vA1 -> vM1 -> vM2 -> vTarget   weight 4.375
//	south:  vSource -> vC1 -> vC2 -> vTarget          weight 6.5
//
// every road is two-way. weights are picked so that any sum of them is exact
// in float64, which keeps cross-algorithm equality assertions strict.
const (
	vSource = datastructure.Index(0)
	vA1     = datastructure.Index(1)
	vA2     = datastructure.Index(2)
	vTarget = datastructure.Index(3)
	vM1     = datastructure.Index(4)
	vM2     = datastructure.Index(5)
	vC1     = datastructure.Index(6)
	vC2     = datastructure.Index(7)
	vIsland = datastructure.Index(8)
)

// every test edge drives at 512 meter/minute, so distance = weight * 512
// round-trips exactly through the stored edge speed.
const testEdgeSpeedMpm = 512.0

type testRoad struct {
	from, to datastructure.Index
	weight   float64 // minute
}

func buildQueryTestGraph() *datastructure.Graph {
	coords := []osmparser.NodeCoord{
		osmparser.NewNodeCoord(37.950, 32.530), // vSource
		osmparser.NewNodeCoord(37.951, 32.531), // vA1
		osmparser.NewNodeCoord(37.951, 32.533), // vA2
		osmparser.NewNodeCoord(37.950, 32.534), // vTarget
		osmparser.NewNodeCoord(37.949, 32.532), // vM1
		osmparser.NewNodeCoord(37.949, 32.533), // vM2
		osmparser.NewNodeCoord(37.947, 32.531), // vC1
		osmparser.NewNodeCoord(37.947, 32.533), // vC2
		osmparser.NewNodeCoord(37.960, 32.540), // vIsland
	}

	roads := []testRoad{
		{vSource, vA1, 1.0},
		{vA1, vA2, 1.0},
		{vA2, vTarget, 1.0},
		{vA1, vM1, 1.125},
		{vM1, vM2, 1.125},
		{vM2, vTarget, 1.125},
		{vSource, vC1, 2.0},
		{vC1, vC2, 2.5},
		{vC2, vTarget, 2.0},
	}

	graphStorage := datastructure.NewGraphStorage()
	scannedEdges := make([]osmparser.Edge, 0, 2*len(roads))

	for i, road := range roads {
		from, to := coords[road.from], coords[road.to]
		offset := datastructure.Index(graphStorage.GetGlobalPointsCount())
		graphStorage.AppendGlobalPoints([]datastructure.Coordinate{
			datastructure.NewCoordinate(from.GetLat(), from.GetLon()),
			datastructure.NewCoordinate(to.GetLat(), to.GetLon()),
		})

		dist := road.weight * testEdgeSpeedMpm
		wayId := int64(i)

		// the reversed direction shares the forward points range, marked by
		// startIndex > endIndex
		forwardInfo := datastructure.NewEdgeExtraInfo(0, uint8(pkg.RESIDENTIAL), 2, 0,
			offset, offset+2, 0, wayId)
		reverseInfo := datastructure.NewEdgeExtraInfo(0, uint8(pkg.RESIDENTIAL), 2, 0,
			offset+2, offset, 0, wayId)

		scannedEdges = append(scannedEdges,
			osmparser.NewEdge(uint32(road.from), uint32(road.to), road.weight, dist,
				pkg.RESIDENTIAL, false, forwardInfo),
			osmparser.NewEdge(uint32(road.to), uint32(road.from), road.weight, dist,
				pkg.RESIDENTIAL, false, reverseInfo))
	}

	graph := osmparser.BuildGraph(coords, scannedEdges, graphStorage)
	graph.RunKosaraju()
	return graph
}

func newTestEngine() *RoutingEngine {
	graph := buildQueryTestGraph()
	return NewRoutingEngine(graph, costfunction.NewTimeCostFunction(graph), nil, zap.NewNop())
}

// edgeIdBetween finds the directed edge from -> to, which must exist in the
// test network.
func edgeIdBetween(t *testing.T, graph *datastructure.Graph, from, to datastructure.Index) datastructure.Index {
	t.Helper()
	edgeId := datastructure.INVALID_EDGE_ID
	graph.ForOutEdgesOf(from, func(outArc *datastructure.OutEdge) {
		if outArc.GetHead() == to {
			edgeId = outArc.GetEdgeId()
		}
	})
	if edgeId == datastructure.INVALID_EDGE_ID {
		t.Fatalf("no edge between %d and %d in the test network", from, to)
	}
	return edgeId
}

func pathVertices(graph *datastructure.Graph, s datastructure.Index, edges []datastructure.OutEdge) []datastructure.Index {
	vertices := []datastructure.Index{s}
	for i := range edges {
		vertices = append(vertices, edges[i].GetHead())
	}
	return vertices
}

// delayCostFunction adds a fixed crossing delay on chosen vertices on top of
// the plain travel-time function, mimicking traffic lights.
type delayCostFunction struct {
	*costfunction.TimeFunction
	delays map[datastructure.Index]float64 // minute
}

func newDelayCostFunction(graph *datastructure.Graph,
	delays map[datastructure.Index]float64) *delayCostFunction {
	return &delayCostFunction{
		TimeFunction: costfunction.NewTimeCostFunction(graph),
		delays:       delays,
	}
}

func (d *delayCostFunction) Name() string {
	return "fastest_with_delays"
}

func (d *delayCostFunction) GetVertexCost(vertexId datastructure.Index) float64 {
	return d.delays[vertexId]
}

func (d *delayCostFunction) GetVertexMilliseconds(vertexId datastructure.Index) float64 {
	return d.delays[vertexId] * 60000
}

func (d *delayCostFunction) HasVertexCosts() bool {
	return true
}

func TestRemoveDuplicates(t *testing.T) {
	got := removeDuplicates([]datastructure.Index{4, 2, 4, 1, 2, 4})
	assert.Equal(t, []datastructure.Index{4, 2, 1}, got)
}

func TestTestGraphEdgeIdsMatchPositions(t *testing.T) {
	graph := buildQueryTestGraph()
	for e := 0; e < graph.NumberOfEdges(); e++ {
		assert.Equal(t, datastructure.Index(e), graph.GetOutEdge(datastructure.Index(e)).GetEdgeId())
	}
}
