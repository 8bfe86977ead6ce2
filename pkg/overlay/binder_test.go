package overlay

import (
	"testing"
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBinder(t *testing.T) (*Binder, *Index, costfunction.CostFunction) {
	t.Helper()
	idx := newTestIndex(t, nil)
	base := costfunction.NewTimeCostFunction(nil)
	return NewBinder(idx, base, 100, zap.NewNop()), idx, base
}

// seedAllTables installs fresh tables: eds flags edge 3, areas edge 4, bus
// speed limits edge 5.
func seedAllTables(idx *Index) {
	idx.eds.Store(newEdsTable(map[datastructure.Index]EdsEntry{
		3: NewEdsEntry("corridor", 0.9),
	}, time.Now()))
	idx.areas.Store(newAreaTable(map[datastructure.Index]AreaEntry{
		4: NewAreaEntry("area", 0.8),
	}, time.Now()))
	idx.speedLimits.Store(newSpeedLimitTable(map[pkg.VehicleClass]map[datastructure.Index]SpeedLimitEntry{
		pkg.VEHICLE_CLASS_BUS: {5: NewSpeedLimitEntry("jalan", 30.0, 0.9)},
	}, time.Now()))
}

func TestBinderNoOverlayBindsPlain(t *testing.T) {
	binder, idx, base := newTestBinder(t)
	seedAllTables(idx)

	bound := binder.Bind(NewRouteRequest(ProfileCar, NewHints()))

	assert.Same(t, base, bound.CostFunction())
	assert.False(t, bound.SpeedupDisabled())
	assert.Nil(t, bound.EdgeFilter())
	assert.False(t, bound.Degraded())
	assert.False(t, bound.GetFlags().AnyOverlay())

	params := bound.AlternativeParams()
	assert.Equal(t, 3, params.GetMaxPaths())
	assert.Equal(t, 1.4, params.GetMaxWeightFactor())
	assert.Equal(t, 0.6, params.GetMaxShareFactor())
	assert.Equal(t, 1.3, params.GetMaxExplorationFactor())
}

func TestBinderTrafficAwareOffDisablesEverything(t *testing.T) {
	binder, idx, base := newTestBinder(t)
	seedAllTables(idx)

	hints := NewHints().
		With(HintAvoidEdsRoads, true).
		With(HintAvoidCustomAreas, true).
		With(HintCarTypeID, 5).
		With(HintTrafficAware, false)
	bound := binder.Bind(NewRouteRequest(ProfileCar, hints))

	assert.Same(t, base, bound.CostFunction())
	assert.False(t, bound.GetFlags().AnyOverlay())
	assert.False(t, bound.SpeedupDisabled())
	// opting out is not a degradation
	assert.False(t, bound.Degraded())
}

func TestBinderAvoidEdsBindsWeighting(t *testing.T) {
	binder, idx, base := newTestBinder(t)
	seedAllTables(idx)

	hints := NewHints().With(HintAvoidEdsRoads, true)
	bound := binder.Bind(NewRouteRequest(ProfileCar, hints))

	require.IsType(t, &Weighting{}, bound.CostFunction())
	assert.True(t, bound.SpeedupDisabled())
	assert.True(t, bound.GetHints().GetBool(HintDisableLandmark, false))
	assert.True(t, bound.GetFlags().AvoidEdsRoads())
	assert.False(t, bound.GetFlags().AvoidCustomAreas())

	edge := stubEdge{edgeId: 3, speedMpm: mpm(50), lengthM: 1000}
	assert.InDelta(t, base.GetWeight(edge)*pkg.AVOIDANCE_PENALTY_FACTOR,
		bound.CostFunction().GetWeight(edge), 1e-12)
}

func TestBinderAlternativeParamsPerFlagCombination(t *testing.T) {
	testCases := []struct {
		name        string
		avoidEds    bool
		avoidAreas  bool
		weight      float64
		share       float64
		exploration float64
	}{
		{"both avoidances", true, true, 1.5, 0.7, 1.3},
		{"custom areas only", false, true, 2.0, 0.5, 1.5},
		{"eds only", true, false, 1.3, 0.7, 1.2},
		{"no overlay", false, false, 1.4, 0.6, 1.3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			binder, idx, _ := newTestBinder(t)
			seedAllTables(idx)

			hints := NewHints().
				With(HintAvoidEdsRoads, tc.avoidEds).
				With(HintAvoidCustomAreas, tc.avoidAreas)
			bound := binder.Bind(NewRouteRequest(ProfileCar, hints))

			params := bound.AlternativeParams()
			assert.Equal(t, 3, params.GetMaxPaths())
			assert.Equal(t, tc.weight, params.GetMaxWeightFactor())
			assert.Equal(t, tc.share, params.GetMaxShareFactor())
			assert.Equal(t, tc.exploration, params.GetMaxExplorationFactor())
		})
	}
}

func TestBinderFallsBackWithoutData(t *testing.T) {
	binder, _, base := newTestBinder(t)

	hints := NewHints().With(HintAvoidEdsRoads, true)
	bound := binder.Bind(NewRouteRequest(ProfileCar, hints))

	assert.True(t, bound.Degraded())
	assert.Same(t, base, bound.CostFunction())
	assert.False(t, bound.SpeedupDisabled())
	assert.False(t, bound.GetFlags().AnyOverlay())
}

func TestBinderFallbackConsidersOnlyRequestedOverlays(t *testing.T) {
	binder, idx, _ := newTestBinder(t)
	// only the custom-area table has data
	idx.areas.Store(newAreaTable(map[datastructure.Index]AreaEntry{
		4: NewAreaEntry("area", 0.8),
	}, time.Now()))

	t.Run("requested overlay has no data", func(t *testing.T) {
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintAvoidEdsRoads, true)))
		assert.True(t, bound.Degraded())
	})
	t.Run("requested overlay has data", func(t *testing.T) {
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintAvoidCustomAreas, true)))
		assert.False(t, bound.Degraded())
		assert.IsType(t, &Weighting{}, bound.CostFunction())
	})
}

func TestBinderStaleTableTriggersFallback(t *testing.T) {
	binder, idx, _ := newTestBinder(t)
	idx.eds.Store(newEdsTable(map[datastructure.Index]EdsEntry{
		3: NewEdsEntry("corridor", 0.9),
	}, time.Now().Add(-49*time.Hour)))

	bound := binder.Bind(NewRouteRequest(ProfileCar,
		NewHints().With(HintAvoidEdsRoads, true)))
	assert.True(t, bound.Degraded())
}

func TestBinderFallbackDisabledBindsInertOverlay(t *testing.T) {
	binder, _, _ := newTestBinder(t)

	hints := NewHints().
		With(HintAvoidEdsRoads, true).
		With(HintFallbackToNormal, false)
	bound := binder.Bind(NewRouteRequest(ProfileCar, hints))

	require.IsType(t, &Weighting{}, bound.CostFunction())
	assert.False(t, bound.Degraded())
	assert.True(t, bound.SpeedupDisabled())
}

func TestBinderCarTypeSelectsVehicleClass(t *testing.T) {
	t.Run("known car type", func(t *testing.T) {
		binder, idx, _ := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintCarTypeID, 3)))
		assert.Equal(t, pkg.VEHICLE_CLASS_BUS, bound.GetFlags().VehicleClass())
		assert.IsType(t, &Weighting{}, bound.CostFunction())
	})
	t.Run("unknown car type stays inert", func(t *testing.T) {
		binder, idx, base := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintCarTypeID, 9)))
		assert.Equal(t, pkg.VEHICLE_CLASS_NONE, bound.GetFlags().VehicleClass())
		assert.Same(t, base, bound.CostFunction())
	})
	t.Run("speed limits switched off", func(t *testing.T) {
		binder, idx, base := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintCarTypeID, 3).With(HintEnableSpeedLimits, false)))
		assert.Equal(t, pkg.VEHICLE_CLASS_NONE, bound.GetFlags().VehicleClass())
		assert.Same(t, base, bound.CostFunction())
	})
}

func TestBinderFootAndBikeBypassSpeedLimits(t *testing.T) {
	for _, profile := range []Profile{ProfileFoot, ProfileBike} {
		t.Run(string(profile), func(t *testing.T) {
			binder, idx, base := newTestBinder(t)
			seedAllTables(idx)
			bound := binder.Bind(NewRouteRequest(profile,
				NewHints().With(HintCarTypeID, 5)))
			assert.Equal(t, pkg.VEHICLE_CLASS_NONE, bound.GetFlags().VehicleClass())
			assert.Same(t, base, bound.CostFunction())
		})
	}

	t.Run("avoidance still applies on foot", func(t *testing.T) {
		binder, idx, _ := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileFoot,
			NewHints().With(HintAvoidEdsRoads, true).With(HintCarTypeID, 5)))
		assert.True(t, bound.GetFlags().AvoidEdsRoads())
		assert.Equal(t, pkg.VEHICLE_CLASS_NONE, bound.GetFlags().VehicleClass())
		assert.IsType(t, &Weighting{}, bound.CostFunction())
	})
}

func TestBinderHardBanBuildsEdgeFilter(t *testing.T) {
	t.Run("eds avoidance only", func(t *testing.T) {
		binder, idx, _ := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar, NewHints().
			With(HintAvoidEdsRoads, true).
			With(HintHardBanEdges, true)))

		filter := bound.EdgeFilter()
		require.NotNil(t, filter)
		assert.False(t, filter(3), "eds edge is banned")
		assert.True(t, filter(4), "area edge passes, area avoidance not requested")
		assert.True(t, filter(7))
	})
	t.Run("both avoidances", func(t *testing.T) {
		binder, idx, _ := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar, NewHints().
			With(HintAvoidEdsRoads, true).
			With(HintAvoidCustomAreas, true).
			With(HintHardBanEdges, true)))

		filter := bound.EdgeFilter()
		require.NotNil(t, filter)
		assert.False(t, filter(3))
		assert.False(t, filter(4))
		assert.True(t, filter(7))
	})
	t.Run("soft penalty by default", func(t *testing.T) {
		binder, idx, _ := newTestBinder(t)
		seedAllTables(idx)
		bound := binder.Bind(NewRouteRequest(ProfileCar,
			NewHints().With(HintAvoidEdsRoads, true)))
		assert.Nil(t, bound.EdgeFilter())
	})
}

func TestBinderAlternativeRouteHint(t *testing.T) {
	binder, idx, _ := newTestBinder(t)
	seedAllTables(idx)

	bound := binder.Bind(NewRouteRequest(ProfileCar, NewHints()))
	assert.False(t, bound.UseAlternatives())

	bound = binder.Bind(NewRouteRequest(ProfileCar,
		NewHints().With(HintAlternativeRoute, true).With(HintAvoidEdsRoads, true)))
	assert.True(t, bound.UseAlternatives())
}

func TestBinderLeavesCallerHintsUntouched(t *testing.T) {
	binder, idx, _ := newTestBinder(t)
	seedAllTables(idx)

	hints := NewHints().With(HintAvoidEdsRoads, true)
	binder.Bind(NewRouteRequest(ProfileCar, hints))

	assert.False(t, hints.GetBool(HintDisableLandmark, false))
}

func TestBinderCapturesTablesAtBindTime(t *testing.T) {
	binder, idx, _ := newTestBinder(t)
	seedAllTables(idx)

	bound := binder.Bind(NewRouteRequest(ProfileCar,
		NewHints().With(HintAvoidEdsRoads, true)))

	edge := stubEdge{edgeId: 3, speedMpm: mpm(50), lengthM: 1000}
	penalized := bound.CostFunction().GetWeight(edge)

	// a refresh landing mid-request must not change this request's weights
	idx.eds.Store(emptyEdsTable())
	assert.Equal(t, penalized, bound.CostFunction().GetWeight(edge))
}
