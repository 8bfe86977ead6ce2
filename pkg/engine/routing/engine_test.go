package routing

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEngineShortestPath(t *testing.T) {
	engine := newTestEngine()

	travelTime, dist, coords, edges, found := engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(nil, nil, false))

	require.True(t, found)
	assert.Equal(t, 3.0*60000, travelTime)
	assert.Equal(t, 3.0*testEdgeSpeedMpm, dist)
	assert.Len(t, coords, 4)
	assert.Equal(t, []datastructure.Index{vSource, vA1, vA2, vTarget},
		pathVertices(engine.GetGraph(), vSource, edges))
}

func TestEngineShortestPathNotFound(t *testing.T) {
	engine := newTestEngine()

	_, _, _, _, found := engine.ShortestPath(vSource, vIsland, NewSearchOptions(nil, nil, false))

	assert.False(t, found)
}

func TestEngineCacheDoesNotLeakIntoFilteredQueries(t *testing.T) {
	engine := newTestEngine()
	graph := engine.GetGraph()

	// warm the cache with the unfiltered result
	travelTime, _, _, _, found := engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(nil, nil, false))
	require.True(t, found)
	assert.Equal(t, 3.0*60000, travelTime)

	// a filtered query must bypass the cache and compute the detour
	blockedEdge := edgeIdBetween(t, graph, vA1, vA2)
	travelTime, _, _, edges, found := engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(nil, func(edgeId datastructure.Index) bool {
			return edgeId != blockedEdge
		}, false))
	require.True(t, found)
	assert.Equal(t, 4.375*60000, travelTime)
	assert.Equal(t, []datastructure.Index{vSource, vA1, vM1, vM2, vTarget},
		pathVertices(graph, vSource, edges))

	// and the filtered result must not replace the cached plain one
	travelTime, _, _, _, found = engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(nil, nil, false))
	require.True(t, found)
	assert.Equal(t, 3.0*60000, travelTime)
}

func TestEngineCacheServesRepeatQueries(t *testing.T) {
	engine := newTestEngine()

	firstTravelTime, firstDist, firstCoords, firstEdges, found := engine.ShortestPath(
		vSource, vTarget, NewSearchOptions(nil, nil, false))
	require.True(t, found)

	secondTravelTime, secondDist, secondCoords, secondEdges, found := engine.ShortestPath(
		vSource, vTarget, NewSearchOptions(nil, nil, false))
	require.True(t, found)

	assert.Equal(t, firstTravelTime, secondTravelTime)
	assert.Equal(t, firstDist, secondDist)
	assert.Equal(t, firstCoords, secondCoords)
	assert.Equal(t, firstEdges, secondEdges)
}

func TestEngineBindsRequestCostFunction(t *testing.T) {
	engine := newTestEngine()
	graph := engine.GetGraph()

	costFunction := newDelayCostFunction(graph, map[datastructure.Index]float64{
		vA2: 2.0,
	})

	travelTime, _, _, edges, found := engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(costFunction, nil, false))
	require.True(t, found)
	assert.Equal(t, 4.375*60000, travelTime)
	assert.Equal(t, []datastructure.Index{vSource, vA1, vM1, vM2, vTarget},
		pathVertices(graph, vSource, edges))

	// bound cost functions are per request, the base metric is untouched
	travelTime, _, _, _, found = engine.ShortestPath(vSource, vTarget,
		NewSearchOptions(nil, nil, false))
	require.True(t, found)
	assert.Equal(t, 3.0*60000, travelTime)
}

func TestEngineWithLandmarks(t *testing.T) {
	graph := buildQueryTestGraph()
	baseCostFunction := costfunction.NewTimeCostFunction(graph)
	plainEngine := NewRoutingEngine(graph, baseCostFunction, nil, zap.NewNop())
	landmarks := preprocessTestLandmarks(t, plainEngine)

	engine := NewRoutingEngine(graph, baseCostFunction, landmarks, zap.NewNop())

	testCases := []struct {
		name string
		opts SearchOptions
	}{
		{"goal direction from landmarks", NewSearchOptions(nil, nil, false)},
		{"landmarks disabled per request", NewSearchOptions(nil, nil, true)},
		{
			// a bound cost function invalidates the precomputed bounds, the
			// engine must fall back to the haversine heuristic
			"bound cost function bypasses landmarks",
			NewSearchOptions(newDelayCostFunction(graph, nil), nil, false),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			travelTime, dist, _, edges, found := engine.ShortestPath(vSource, vTarget, tc.opts)
			require.True(t, found)
			assert.Equal(t, 3.0*60000, travelTime)
			assert.Equal(t, 3.0*testEdgeSpeedMpm, dist)
			assert.Equal(t, []datastructure.Index{vSource, vA1, vA2, vTarget},
				pathVertices(graph, vSource, edges))
		})
	}
}

func TestEngineConnectivity(t *testing.T) {
	engine := newTestEngine()

	assert.True(t, engine.VerticeUandVAreConnected(vSource, vTarget))
	assert.True(t, engine.VerticeUandVAreConnected(vTarget, vSource))
	assert.False(t, engine.VerticeUandVAreConnected(vSource, vIsland))
}
