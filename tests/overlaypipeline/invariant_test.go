package overlaypipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"github.com/lintang-b-s/trafficx/pkg/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullOverlayRequest() overlay.RouteRequest {
	hints := overlay.NewHints().
		With(overlay.HintAvoidEdsRoads, true).
		With(overlay.HintAvoidCustomAreas, true).
		With(overlay.HintCarTypeID, 1)
	return overlay.NewRouteRequest(overlay.ProfileCar, hints)
}

// with every overlay active each edge weight lands in exactly one bucket:
// the avoidance penalty, the speed-limit factor, or untouched base.
func TestBoundMetricPartitionsEdgesByOverlay(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)

	bound := p.binder.Bind(fullOverlayRequest())
	costFn := bound.CostFunction()
	eds := p.index.CurrentEds()
	areas := p.index.CurrentAreas()
	limits := p.index.CurrentSpeedLimits()

	p.graph.ForEdges(func(e *datastructure.OutEdge) {
		edgeId := e.GetEdgeId()
		base := p.baseCost.GetWeight(e)
		got := costFn.GetWeight(e)

		switch {
		case eds.Contains(edgeId) || areas.Contains(edgeId):
			require.InDelta(t, pkg.AVOIDANCE_PENALTY_FACTOR*base, got, 1e-9,
				"avoided edge %d", edgeId)
		default:
			if _, ok := limits.Get(pkg.VEHICLE_CLASS_AUTO, edgeId); ok {
				require.InDelta(t, bonusWeightFactor*base, got, 1e-9,
					"speed-limited edge %d", edgeId)
			} else {
				require.Equal(t, base, got, "plain edge %d", edgeId)
			}
		}
	})
}

func TestOverlayWeightsStayInsideEnvelope(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)

	bound := p.binder.Bind(fullOverlayRequest())
	costFn := bound.CostFunction()
	p.graph.ForEdges(func(e *datastructure.OutEdge) {
		base := p.baseCost.GetWeight(e)
		got := costFn.GetWeight(e)
		require.GreaterOrEqual(t, got, 0.85*base-1e-9, "edge %d below floor", e.GetEdgeId())
		require.LessOrEqual(t, got, 13.5*base+1e-9, "edge %d above ceiling", e.GetEdgeId())
		// travel-time estimates stay on the base metric regardless of overlays
		require.Equal(t, p.baseCost.GetMilliseconds(e), costFn.GetMilliseconds(e))
	})
}

func TestMatchScoresMeetThresholds(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)

	for _, road := range edsRoads {
		for _, edgeId := range p.roadEdgeIDs(t, road) {
			entry, ok := p.index.EdsEntry(edgeId)
			require.True(t, ok)
			assert.GreaterOrEqual(t, entry.GetMatchScore(), pkg.EDS_MIN_MATCH_SCORE)
			// the corridor lies exactly on the edge, so the score is a full match
			assert.InDelta(t, 1.0, entry.GetMatchScore(), 1e-9)
			assert.NotEmpty(t, entry.GetCorridor())
		}
	}
	for _, road := range speedLimitRoads {
		for _, edgeId := range p.roadEdgeIDs(t, road) {
			entry, ok := p.index.SpeedLimitEntry(pkg.VEHICLE_CLASS_AUTO, edgeId)
			require.True(t, ok)
			assert.GreaterOrEqual(t, entry.GetMatchScore(), pkg.SPEED_LIMIT_MIN_MATCH_SCORE)
			assert.InDelta(t, 1.0, entry.GetMatchScore(), 1e-9)
			assert.Equal(t, fedSpeedLimitKmh, entry.GetSpeedKmh())
		}
	}

	// no corridor may leak onto the parallel neighbor blocks
	neighborRoads := []gridRoad{
		{8, 2, 9, 2}, {8, 4, 9, 4}, {7, 3, 8, 3}, {12, 3, 13, 3},
	}
	for _, road := range neighborRoads {
		for _, edgeId := range p.roadEdgeIDs(t, road) {
			assert.False(t, p.index.CurrentEds().Contains(edgeId),
				"edge %d matched a corridor it does not lie on", edgeId)
		}
	}
}

func TestRebuildIsDeterministic(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)
	ctx := context.Background()

	first := p.index.CurrentEds()
	require.NoError(t, p.container.Refresh(ctx, feed.FeedEds))
	second := p.index.CurrentEds()

	require.NotSame(t, first, second)
	require.Equal(t, first.Len(), second.Len())
	for _, road := range edsRoads {
		for _, edgeId := range p.roadEdgeIDs(t, road) {
			a, ok := first.Get(edgeId)
			require.True(t, ok)
			b, ok := second.Get(edgeId)
			require.True(t, ok)
			assert.Equal(t, a.GetCorridor(), b.GetCorridor())
			assert.Equal(t, a.GetMatchScore(), b.GetMatchScore())
		}
	}
}

func TestCorridorDirectionDoesNotChangeMatches(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)
	ctx := context.Background()

	forward := make([]datastructure.Index, 0, 2*len(edsRoads))
	for _, road := range edsRoads {
		forward = append(forward, p.roadEdgeIDs(t, road)...)
	}
	sort.Slice(forward, func(i, j int) bool { return forward[i] < forward[j] })

	// resend every corridor with its waypoints reversed
	type geometry struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	}
	type properties struct {
		Name string `json:"Name"`
	}
	type featureBody struct {
		Geometry   geometry   `json:"geometry"`
		Properties properties `json:"properties"`
	}
	type collection struct {
		Features []featureBody `json:"features"`
	}
	features := make([]featureBody, 0, len(edsRoads))
	for n, road := range edsRoads {
		line := roadLineString(road)
		reversed := [][]float64{line[1], line[0]}
		features = append(features, featureBody{
			Geometry:   geometry{Type: "LineString", Coordinates: reversed},
			Properties: properties{Name: fmt.Sprintf("trunk-avenue-reversed-%d", n)},
		})
	}
	body, err := json.Marshal([]collection{{Features: features}})
	require.NoError(t, err)
	p.backend.setBody("/eds", body)
	require.NoError(t, p.container.Refresh(ctx, feed.FeedEds))

	table := p.index.CurrentEds()
	require.Equal(t, len(forward), table.Len())
	for _, edgeId := range forward {
		entry, ok := table.Get(edgeId)
		require.True(t, ok, "edge %d lost after reversing the corridor", edgeId)
		assert.InDelta(t, 1.0, entry.GetMatchScore(), 1e-9)
	}
}

func TestStatsClassifyFullMatchesAsHeavy(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)

	stats := p.index.Stats()
	assert.Equal(t, 2*len(edsRoads), stats.GetTotal())
	assert.Equal(t, 2*len(edsRoads), stats.GetHeavy())
	assert.Equal(t, 0, stats.GetModerate())
	assert.Equal(t, 0, stats.GetLight())
	assert.Positive(t, stats.GetLastUpdateMs())
	assert.True(t, p.index.HasRecentData())

	samples := p.index.SampleEds(3)
	require.Len(t, samples, 3)
	for i := 1; i < len(samples); i++ {
		assert.Less(t, samples[i-1].GetEdgeId(), samples[i].GetEdgeId(),
			"samples must come back in edge-id order")
	}
	for _, s := range samples {
		assert.True(t, p.index.CurrentEds().Contains(s.GetEdgeId()))
		assert.NotEmpty(t, s.GetCorridor())
	}
}

// a bound request captures its overlay tables once. rebuilds that land
// afterwards must not bleed into an in-flight search.
func TestBoundRequestKeepsSnapshotAcrossRebuilds(t *testing.T) {
	p := newPipeline(t)
	p.installAll(t)
	ctx := context.Background()

	request := overlay.NewRouteRequest(overlay.ProfileCar,
		overlay.NewHints().With(overlay.HintAvoidEdsRoads, true))
	bound := p.binder.Bind(request)
	require.False(t, bound.Degraded())

	p.backend.setBody("/eds", []byte(`[]`))
	require.NoError(t, p.container.Refresh(ctx, feed.FeedEds))
	require.Equal(t, 0, p.index.CurrentEds().Len())

	for _, road := range edsRoads {
		for _, edgeId := range p.roadEdgeIDs(t, road) {
			e := p.graph.GetOutEdge(edgeId)
			assert.InDelta(t, pkg.AVOIDANCE_PENALTY_FACTOR*p.baseCost.GetWeight(e),
				bound.CostFunction().GetWeight(e), 1e-9,
				"bound request must keep the table it was bound against")
		}
	}

	// a fresh bind sees the drained table and falls back to plain routing
	rebound := p.binder.Bind(request)
	assert.True(t, rebound.Degraded())
	assert.False(t, rebound.GetFlags().AnyOverlay())
}
