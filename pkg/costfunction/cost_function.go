package costfunction

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// EdgeAttributes is the view of one directed edge a cost function consumes.
// both datastructure.OutEdge and datastructure.InEdge satisfy it, so one cost
// function serves the forward and the backward search direction. lookups that
// depend on the undirected edge use GetEdgeId, which both views share.
type EdgeAttributes interface {
	GetWeight() float64
	GetEdgeSpeed() float64
	GetLength() float64
	GetEdgeId() datastructure.Index
	GetHighwayType() pkg.OsmHighwayType
}

// CostFunction computes search weights. weights are in minutes.
//
// GetWeight is the routing weight; GetMilliseconds is the predicted travel
// time and stays untouched by steering penalties, so the eta reported for a
// penalized detour is still honest. vertex costs model per-vertex delays
// (traffic lights); MinWeightPerDistance is the admissible minutes-per-meter
// lower bound a-star heuristics scale by.
type CostFunction interface {
	Name() string
	GetWeight(e EdgeAttributes) float64
	GetMilliseconds(e EdgeAttributes) float64
	GetVertexCost(vertexId datastructure.Index) float64
	GetVertexMilliseconds(vertexId datastructure.Index) float64
	HasVertexCosts() bool
	MinWeightPerDistance() float64
}
