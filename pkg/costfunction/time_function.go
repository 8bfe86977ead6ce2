package costfunction

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

const (
	defaultSpeed = 20.0 // km/h, for edges without a stored speed

	// upper bound on any edge speed the importer can produce (osm maxspeed
	// tags included). keeps MinWeightPerDistance admissible.
	maxPossibleSpeedKmh = 140.0
)

// TimeFunction is the plain travel-time cost function. the traffic overlay
// wraps it to penalize avoided corridors and speed-limit violations.
type TimeFunction struct {
	graph *datastructure.Graph
}

func NewTimeCostFunction(graph *datastructure.Graph) *TimeFunction {
	return &TimeFunction{graph: graph}
}

func (tf *TimeFunction) Name() string {
	return "fastest"
}

func (tf *TimeFunction) GetWeight(e EdgeAttributes) float64 {
	speed := e.GetEdgeSpeed()
	if speed == 0 {
		return e.GetLength() / (defaultSpeed * 1000 / 60)
	}
	return e.GetLength() / speed
}

func (tf *TimeFunction) GetMilliseconds(e EdgeAttributes) float64 {
	return tf.GetWeight(e) * 60000
}

func (tf *TimeFunction) GetVertexCost(vertexId datastructure.Index) float64 {
	if tf.graph != nil && tf.graph.IsTrafficLight(vertexId) {
		return pkg.TRAFFIC_LIGHT_ADDITIONAL_WEIGHT_SECOND / 60.0
	}
	return 0
}

func (tf *TimeFunction) GetVertexMilliseconds(vertexId datastructure.Index) float64 {
	if tf.graph != nil && tf.graph.IsTrafficLight(vertexId) {
		return pkg.TRAFFIC_LIGHT_ADDITIONAL_WEIGHT_SECOND * 1000
	}
	return 0
}

func (tf *TimeFunction) HasVertexCosts() bool {
	return pkg.TRAFFIC_LIGHT_ADDITIONAL_WEIGHT_SECOND > 0
}

func (tf *TimeFunction) MinWeightPerDistance() float64 {
	return 1.0 / (maxPossibleSpeedKmh * 1000 / 60)
}
