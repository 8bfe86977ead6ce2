package overlay

import (
	"time"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/feed"
	"go.uber.org/zap"
)

// request hint keys. booleans unless noted.
const (
	HintAvoidEdsRoads     = "avoid_eds_roads"
	HintAvoidCustomAreas  = "avoid_custom_areas"
	HintEnableSpeedLimits = "enable_speed_limits"
	// int, 0 means no vehicle class
	HintCarTypeID = "car_type_id"
	// master switch, default true. false keeps every overlay off the request
	HintTrafficAware = "traffic_aware"
	// default true. degrade to plain routing when the overlay has no data
	HintFallbackToNormal = "fallback_to_normal_routing"
	// upgrade the avoidance penalty to an edge ban
	HintHardBanEdges = "hard_ban_edges"
	// ask for alternative routes instead of a single best path
	HintAlternativeRoute = "alternative_route"
	// derived: landmark lower bounds are computed on base weights, so the
	// binder sets this whenever an overlay factor can move a weight
	HintDisableLandmark = "landmark.disable"
)

type Profile string

const (
	ProfileCar  Profile = "car"
	ProfileFoot Profile = "foot"
	ProfileBike Profile = "bike"
)

const maxAlternativePaths = 3

// Hints is an immutable string-keyed parameter bag. With copies, so a bag
// handed to one request can never be mutated by another.
type Hints struct {
	values map[string]interface{}
}

func NewHints() Hints {
	return Hints{values: map[string]interface{}{}}
}

func (h Hints) With(key string, value interface{}) Hints {
	next := make(map[string]interface{}, len(h.values)+1)
	for k, v := range h.values {
		next[k] = v
	}
	next[key] = value
	return Hints{values: next}
}

func (h Hints) GetBool(key string, fallback bool) bool {
	if v, ok := h.values[key].(bool); ok {
		return v
	}
	return fallback
}

func (h Hints) GetInt(key string, fallback int) int {
	switch v := h.values[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

type RouteRequest struct {
	profile Profile
	hints   Hints
}

func NewRouteRequest(profile Profile, hints Hints) RouteRequest {
	return RouteRequest{profile: profile, hints: hints}
}

func (r RouteRequest) GetProfile() Profile {
	return r.profile
}

func (r RouteRequest) GetHints() Hints {
	return r.hints
}

// BoundRequest is the immutable result of binding: the cost function to
// search with, the resolved flags, and every search parameter the overlay
// state decided.
type BoundRequest struct {
	profile         Profile
	hints           Hints
	costFunction    costfunction.CostFunction
	flags           Flags
	speedupDisabled bool
	useAlternatives bool
	altParams       datastructure.AlternativeRouteParams
	edgeFilter      func(datastructure.Index) bool
	degraded        bool
}

func (r BoundRequest) GetProfile() Profile {
	return r.profile
}

func (r BoundRequest) GetHints() Hints {
	return r.hints
}

func (r BoundRequest) CostFunction() costfunction.CostFunction {
	return r.costFunction
}

func (r BoundRequest) GetFlags() Flags {
	return r.flags
}

func (r BoundRequest) SpeedupDisabled() bool {
	return r.speedupDisabled
}

func (r BoundRequest) UseAlternatives() bool {
	return r.useAlternatives
}

func (r BoundRequest) AlternativeParams() datastructure.AlternativeRouteParams {
	return r.altParams
}

// EdgeFilter is nil unless the request hard-bans avoided edges.
func (r BoundRequest) EdgeFilter() func(datastructure.Index) bool {
	return r.edgeFilter
}

// Degraded reports that the overlay was requested but had no data, and the
// request fell back to plain routing.
func (r BoundRequest) Degraded() bool {
	return r.degraded
}

// Binder resolves request hints against the live overlay state. Bind never
// mutates the incoming request and captures the overlay tables exactly
// once, so the produced request stays coherent for its whole lifetime.
type Binder struct {
	index     *Index
	base      costfunction.CostFunction
	edgeCount int
	logger    *zap.Logger
}

func NewBinder(index *Index, base costfunction.CostFunction, edgeCount int,
	logger *zap.Logger) *Binder {
	return &Binder{
		index:     index,
		base:      base,
		edgeCount: edgeCount,
		logger:    logger,
	}
}

func (b *Binder) Bind(request RouteRequest) BoundRequest {
	hints := request.GetHints()

	trafficAware := hints.GetBool(HintTrafficAware, true)
	avoidEds := trafficAware && hints.GetBool(HintAvoidEdsRoads, false)
	avoidAreas := trafficAware && hints.GetBool(HintAvoidCustomAreas, false)
	speedLimits := trafficAware && hints.GetBool(HintEnableSpeedLimits, true)

	vehicleClass := pkg.VEHICLE_CLASS_NONE
	if speedLimits {
		vehicleClass = pkg.GetVehicleClass(hints.GetInt(HintCarTypeID, 0))
	}
	if vehicleClass != pkg.VEHICLE_CLASS_NONE && request.GetProfile() != ProfileCar {
		b.logger.Debug("speed-limit overlay bypassed for non-car profile",
			zap.String("profile", string(request.GetProfile())))
		vehicleClass = pkg.VEHICLE_CLASS_NONE
	}

	flags := NewFlags(avoidEds, avoidAreas, vehicleClass)
	if !flags.AnyOverlay() {
		return b.plain(request, flags, false)
	}

	if hints.GetBool(HintFallbackToNormal, true) && !b.hasUsableData(flags) {
		b.logger.Info("traffic overlay has no usable data, falling back to normal routing")
		return b.plain(request, NewFlags(false, false, pkg.VEHICLE_CLASS_NONE), true)
	}

	// one snapshot of all three tables per request
	eds := b.index.CurrentEds()
	areas := b.index.CurrentAreas()
	speedLimitTable := b.index.CurrentSpeedLimits()

	var edgeFilter func(datastructure.Index) bool
	if flags.AnyAvoidance() && hints.GetBool(HintHardBanEdges, false) {
		edgeFilter = NewAvoidanceEdgeFilter(eds, areas, flags).Accept
	}

	return BoundRequest{
		profile:         request.GetProfile(),
		hints:           hints.With(HintDisableLandmark, true),
		costFunction:    NewWeighting(b.base, eds, areas, speedLimitTable, flags, b.edgeCount),
		flags:           flags,
		speedupDisabled: true,
		useAlternatives: hints.GetBool(HintAlternativeRoute, false),
		altParams:       alternativeParamsFor(flags),
		edgeFilter:      edgeFilter,
	}
}

func (b *Binder) plain(request RouteRequest, flags Flags, degraded bool) BoundRequest {
	return BoundRequest{
		profile:         request.GetProfile(),
		hints:           request.GetHints(),
		costFunction:    b.base,
		flags:           flags,
		useAlternatives: request.GetHints().GetBool(HintAlternativeRoute, false),
		altParams:       alternativeParamsFor(flags),
		degraded:        degraded,
	}
}

// hasUsableData reports whether at least one of the overlays the request
// asked for has entries built from a non-stale install. a request whose
// overlays would all be inert falls back instead of paying the disabled
// speedup for nothing.
func (b *Binder) hasUsableData(flags Flags) bool {
	now := time.Now()
	if flags.AvoidEdsRoads() {
		table := b.index.CurrentEds()
		if table.Len() > 0 && now.Sub(table.GetFetchedAt()) <= feed.EdsStaleAfter {
			return true
		}
	}
	if flags.AvoidCustomAreas() {
		table := b.index.CurrentAreas()
		if table.Len() > 0 && now.Sub(table.GetFetchedAt()) <= feed.CustomAreasStaleAfter {
			return true
		}
	}
	if flags.VehicleClass() != pkg.VEHICLE_CLASS_NONE {
		table := b.index.CurrentSpeedLimits()
		if table.Len() > 0 && now.Sub(table.GetFetchedAt()) <= feed.SpeedLimitsStaleAfter {
			return true
		}
	}
	return false
}

// alternativeParamsFor widens or narrows the alternative-route search by
// which avoidance overlays are active. custom areas carve holes in the
// graph, so that search is given the most slack.
func alternativeParamsFor(flags Flags) datastructure.AlternativeRouteParams {
	switch {
	case flags.AvoidEdsRoads() && flags.AvoidCustomAreas():
		return datastructure.NewAlternativeRouteParams(maxAlternativePaths, 1.5, 0.7, 1.3)
	case flags.AvoidCustomAreas():
		return datastructure.NewAlternativeRouteParams(maxAlternativePaths, 2.0, 0.5, 1.5)
	case flags.AvoidEdsRoads():
		return datastructure.NewAlternativeRouteParams(maxAlternativePaths, 1.3, 0.7, 1.2)
	default:
		return datastructure.NewAlternativeRouteParams(maxAlternativePaths, 1.4, 0.6, 1.3)
	}
}
