package overlay

import (
	"math"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

const (
	// m/min -> km/h
	kmhPerMeterPerMinute = 0.06

	// smallest and largest factor the overlay can ever apply to a base
	// weight. the lower bound keeps heuristic lower bounds admissible,
	// the upper bound is the product of the avoidance penalty and the
	// worst speed-limit penalty.
	minTrafficMultiplier = 0.85
	maxTrafficMultiplier = pkg.AVOIDANCE_PENALTY_FACTOR * 1.35
)

// Weighting decorates a base cost function with the traffic overlay. it
// holds the table pointers captured at bind time, so every edge weight a
// single query computes comes from one coherent overlay state no matter
// how many refreshes land mid-query.
type Weighting struct {
	base        costfunction.CostFunction
	eds         *EdsTable
	areas       *AreaTable
	speedLimits *SpeedLimitTable
	flags       Flags
	edgeCount   int
}

func NewWeighting(base costfunction.CostFunction, eds *EdsTable, areas *AreaTable,
	speedLimits *SpeedLimitTable, flags Flags, edgeCount int) *Weighting {
	return &Weighting{
		base:        base,
		eds:         eds,
		areas:       areas,
		speedLimits: speedLimits,
		flags:       flags,
		edgeCount:   edgeCount,
	}
}

func (w *Weighting) Name() string {
	return "traffic_" + w.base.Name()
}

// GetWeight multiplies the base weight by at most one overlay factor: an
// edge that pays the avoidance penalty never also pays a speed-limit
// adjustment.
func (w *Weighting) GetWeight(e costfunction.EdgeAttributes) float64 {
	baseWeight := w.base.GetWeight(e)
	edgeId := e.GetEdgeId()
	if int(edgeId) >= w.edgeCount {
		return baseWeight
	}
	if factor := w.avoidanceFactor(edgeId); factor != 1.0 {
		return baseWeight * factor
	}
	return baseWeight * w.speedLimitFactor(e, edgeId)
}

// GetMilliseconds stays the base travel-time estimate. penalties steer the
// search away from flagged edges, they do not change how long the edge
// takes to drive.
func (w *Weighting) GetMilliseconds(e costfunction.EdgeAttributes) float64 {
	return w.base.GetMilliseconds(e)
}

func (w *Weighting) GetVertexCost(vertexId datastructure.Index) float64 {
	return w.base.GetVertexCost(vertexId)
}

func (w *Weighting) GetVertexMilliseconds(vertexId datastructure.Index) float64 {
	return w.base.GetVertexMilliseconds(vertexId)
}

func (w *Weighting) HasVertexCosts() bool {
	return w.base.HasVertexCosts()
}

// MinWeightPerDistance scales the base bound by the largest speed-limit
// bonus, since a bonus edge can cost less per metre than the base minimum.
func (w *Weighting) MinWeightPerDistance() float64 {
	return w.base.MinWeightPerDistance() * minTrafficMultiplier
}

// avoidanceFactor returns the single live penalty for the edge. the eds
// table is consulted first, so an edge on both an eds corridor and a
// custom area still pays the factor exactly once.
func (w *Weighting) avoidanceFactor(edgeId datastructure.Index) float64 {
	if w.flags.AvoidEdsRoads() && w.eds.Contains(edgeId) {
		return pkg.AVOIDANCE_PENALTY_FACTOR
	}
	if w.flags.AvoidCustomAreas() && w.areas.Contains(edgeId) {
		return pkg.AVOIDANCE_PENALTY_FACTOR
	}
	return 1.0
}

// speedLimitFactor compares the fed per-class speed against the edge
// baseline and rewards or punishes by how far apart they are. without a
// vehicle class or a table entry the factor is 1.
func (w *Weighting) speedLimitFactor(e costfunction.EdgeAttributes, edgeId datastructure.Index) float64 {
	class := w.flags.VehicleClass()
	if class == pkg.VEHICLE_CLASS_NONE {
		return 1.0
	}
	entry, ok := w.speedLimits.Get(class, edgeId)
	if !ok {
		return 1.0
	}
	baselineKmh := e.GetEdgeSpeed() * kmhPerMeterPerMinute
	if baselineKmh <= 0 {
		baselineKmh = class.DefaultSpeedKmh()
	}
	return speedAdjustmentFactor(entry.GetSpeedKmh(), baselineKmh)
}

// speedAdjustmentFactor brackets the gap between the fed speed and the
// baseline. a fed speed at or above the baseline earns a bonus, below it
// a penalty, both growing with the gap.
func speedAdjustmentFactor(fedKmh, baselineKmh float64) float64 {
	delta := fedKmh - baselineKmh
	gap := math.Abs(delta)
	if delta >= 0 {
		switch {
		case gap <= 5:
			return 0.97
		case gap <= 15:
			return 0.95
		case gap <= 30:
			return 0.92
		case gap <= 50:
			return 0.88
		default:
			return 0.85
		}
	}
	switch {
	case gap <= 5:
		return 1.03
	case gap <= 15:
		return 1.08
	case gap <= 30:
		return 1.15
	case gap <= 50:
		return 1.25
	default:
		return 1.35
	}
}
