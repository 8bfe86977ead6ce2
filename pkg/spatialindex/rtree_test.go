package spatialindex

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"github.com/lintang-b-s/trafficx/pkg/osmparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// a 3.5 km east-west avenue (vertices 0-1-2) with a short side street
// (vertices 3-4) about 300 m north of the avenue's midpoint.
var rtreeFixtureCoords = []osmparser.NodeCoord{
	osmparser.NewNodeCoord(37.9000, 32.5000),
	osmparser.NewNodeCoord(37.9000, 32.5200),
	osmparser.NewNodeCoord(37.9000, 32.5400),
	osmparser.NewNodeCoord(37.9030, 32.5210),
	osmparser.NewNodeCoord(37.9030, 32.5260),
}

func buildRtreeFixture(t *testing.T) (*datastructure.Graph, *Rtree) {
	t.Helper()

	noInfo := datastructure.NewEdgeExtraInfo(0, uint8(pkg.RESIDENTIAL), 2, 0, 0, 0, 0, -1)
	edges := make([]osmparser.Edge, 0, 6)
	addRoad := func(from, to int) {
		fromLat, fromLon := rtreeFixtureCoords[from].GetLat(), rtreeFixtureCoords[from].GetLon()
		toLat, toLon := rtreeFixtureCoords[to].GetLat(), rtreeFixtureCoords[to].GetLon()
		dist := 1000.0 * geo.CalculateHaversineDistance(fromLat, fromLon, toLat, toLon)
		edges = append(edges,
			osmparser.NewEdge(uint32(from), uint32(to), dist, dist, pkg.RESIDENTIAL, false, noInfo),
			osmparser.NewEdge(uint32(to), uint32(from), dist, dist, pkg.RESIDENTIAL, false, noInfo))
	}
	addRoad(0, 1)
	addRoad(1, 2)
	addRoad(3, 4)

	graph := osmparser.BuildGraph(rtreeFixtureCoords, edges, datastructure.NewGraphStorage())
	rt := NewRtree(graph)
	rt.Build(0.05, zap.NewNop())
	return graph, rt
}

func directedEdgeIDs(t *testing.T, graph *datastructure.Graph, u, v datastructure.Index) []datastructure.Index {
	t.Helper()
	fw, ok := graph.FindOutEdge(u, v)
	require.True(t, ok)
	bw, ok := graph.FindOutEdge(v, u)
	require.True(t, ok)
	return []datastructure.Index{fw, bw}
}

// the query point sits 33 m off the middle of the 1-2 avenue block, whose
// endpoints are both ~880 m away. the side street's nearest endpoint is only
// ~460 m away, so ranking by endpoint distance would put the side street
// first; ranking by segment distance must not.
func TestNearestEdgesRanksBySegmentDistance(t *testing.T) {
	graph, rt := buildRtreeFixture(t)

	got := rt.NearestEdges(37.9003, 32.5300, 3)
	require.Len(t, got, 3)

	avenue := directedEdgeIDs(t, graph, 1, 2)
	assert.ElementsMatch(t, avenue, got[:2],
		"both directions of the avenue block must rank first")

	street := directedEdgeIDs(t, graph, 3, 4)
	assert.Contains(t, street, got[2])
}

func TestNearestEdgesCapsAtAvailableEdges(t *testing.T) {
	_, rt := buildRtreeFixture(t)

	got := rt.NearestEdges(37.9001, 32.5210, 100)
	assert.Len(t, got, 6)
}

func TestSnapPrefersJunctionAndDeduplicatesVertices(t *testing.T) {
	_, rt := buildRtreeFixture(t)

	// four directed edges share vertex 1 as their nearer endpoint, so the
	// snap must emit it once and move on to the side street
	got := rt.SnapToNearestVertices(37.9001, 32.5210, 2)
	require.Equal(t, []datastructure.Index{1, 3}, got)
}

func TestSearchWithinRadiusPrefiltersByLeafBox(t *testing.T) {
	graph, rt := buildRtreeFixture(t)

	near := rt.SearchWithinRadius(37.9000, 32.5005, 0.05)
	assert.ElementsMatch(t, directedEdgeIDs(t, graph, 0, 1), near)

	assert.Empty(t, rt.SearchWithinRadius(37.9500, 32.6000, 0.05))
}
