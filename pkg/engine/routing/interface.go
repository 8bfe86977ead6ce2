package routing

import (
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// Router is a point-to-point shortest path query between two vertices. it
// returns the travel time in milliseconds, the distance in meters, the path
// geometry, the edges of the path in travel order, and whether a path exists.
type Router interface {
	ShortestPathSearch(s, t datastructure.Index) (float64, float64, []datastructure.Coordinate,
		[]datastructure.OutEdge, bool)
}
