package matcher

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/stretchr/testify/require"
)

// stubSource serves synthetic edges. vertex 2e is edge e's tail (first
// polyline point), vertex 2e+1 its head (last point).
type stubSource struct {
	edges [][]datastructure.Coordinate
}

func (s *stubSource) NumberOfEdges() int {
	return len(s.edges)
}

func (s *stubSource) IsValidEdge(e datastructure.Index) bool {
	return int(e) < len(s.edges)
}

func (s *stubSource) GetEdgeGeometry(e datastructure.Index) []datastructure.Coordinate {
	return s.edges[e]
}

func (s *stubSource) GetEdgeTail(e datastructure.Index) datastructure.Index {
	return 2 * e
}

func (s *stubSource) GetEdgeHead(e datastructure.Index) datastructure.Index {
	return 2*e + 1
}

func (s *stubSource) GetVertexCoordinates(v datastructure.Index) (float64, float64) {
	polyline := s.edges[v/2]
	if v%2 == 0 {
		return polyline[0].GetLat(), polyline[0].GetLon()
	}
	last := polyline[len(polyline)-1]
	return last.GetLat(), last.GetLon()
}

func newStubCache(t *testing.T, source *stubSource) *GeometryCache {
	t.Helper()
	cache, err := NewGeometryCache(source)
	require.NoError(t, err)
	return cache
}

func coords(latLon ...float64) []datastructure.Coordinate {
	out := make([]datastructure.Coordinate, 0, len(latLon)/2)
	for i := 0; i+1 < len(latLon); i += 2 {
		out = append(out, datastructure.NewCoordinate(latLon[i], latLon[i+1]))
	}
	return out
}
