package routing

import (
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

func (re *RoutingEngine) GetHaversineDistanceFromUtoV(u, v datastructure.Index) float64 {
	return re.graph.GetHaversineDistanceFromUtoV(u, v)
}

func (re *RoutingEngine) VerticeUandVAreConnected(u, v datastructure.Index) bool {
	return re.graph.VerticeUandVAreConnected(u, v)
}

// assembleRoute walks the edges of a finished search in travel order and sums
// the reported travel time and distance. travel time comes from
// GetMilliseconds plus the delays of interior vertices, so steering penalties
// on the search weight never distort the reported eta.
func (re *RoutingEngine) assembleRoute(costFunction costfunction.CostFunction,
	edges []datastructure.OutEdge) (float64, float64, []datastructure.Coordinate) {
	travelTimeMs := 0.0
	dist := 0.0
	coords := make([]datastructure.Coordinate, 0, len(edges)*2)

	for i := range edges {
		edge := &edges[i]
		travelTimeMs += costFunction.GetMilliseconds(edge)
		dist += edge.GetLength()

		geom := re.graph.GetEdgeGeometry(edge.GetEdgeId())
		if len(coords) > 0 && len(geom) > 0 {
			// consecutive edges share their connecting vertex
			geom = geom[1:]
		}
		coords = append(coords, geom...)

		if i+1 < len(edges) && costFunction.HasVertexCosts() {
			travelTimeMs += costFunction.GetVertexMilliseconds(edge.GetHead())
		}
	}

	return travelTimeMs, dist, coords
}

// pathEdges maps an ordered edge id chain to the graph's out edges.
func (re *RoutingEngine) pathEdges(edgeIds []datastructure.Index) []datastructure.OutEdge {
	edges := make([]datastructure.OutEdge, 0, len(edgeIds))
	for _, edgeId := range edgeIds {
		edges = append(edges, *re.graph.GetOutEdge(edgeId))
	}
	return edges
}

func removeDuplicates[T comparable](arr []T) []T {
	set := make(map[T]struct{})
	newarr := make([]T, 0, len(arr))

	for _, v := range arr {
		if _, ok := set[v]; !ok {
			set[v] = struct{}{}
			newarr = append(newarr, v)
		}
	}
	return newarr
}
