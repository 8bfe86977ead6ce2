package overlay

import (
	"testing"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/matcher"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	point := polyline[0]
	if v%2 == 1 {
		point = polyline[len(polyline)-1]
	}
	return point.GetLat(), point.GetLon()
}

func coords(latLon ...float64) []datastructure.Coordinate {
	out := make([]datastructure.Coordinate, 0, len(latLon)/2)
	for i := 0; i+1 < len(latLon); i += 2 {
		out = append(out, datastructure.NewCoordinate(latLon[i], latLon[i+1]))
	}
	return out
}

// newTestIndex wires real matchers over the stub edges, full scan, no
// spatial index.
func newTestIndex(t *testing.T, edges [][]datastructure.Coordinate) *Index {
	t.Helper()
	source := &stubSource{edges: edges}
	geometries, err := matcher.NewGeometryCache(source)
	require.NoError(t, err)
	logger := zap.NewNop()
	return NewIndex(
		matcher.NewLineMatcher(source, geometries, nil, logger),
		matcher.NewCircleMatcher(source, geometries, nil, logger),
		logger,
	)
}

// stubEdge carries just enough attributes for a cost function: m/min speed
// and metre length, the units edges store.
type stubEdge struct {
	edgeId   datastructure.Index
	speedMpm float64
	lengthM  float64
}

func (e stubEdge) GetWeight() float64 {
	if e.speedMpm == 0 {
		return 0
	}
	return e.lengthM / e.speedMpm
}

func (e stubEdge) GetEdgeSpeed() float64 {
	return e.speedMpm
}

func (e stubEdge) GetLength() float64 {
	return e.lengthM
}

func (e stubEdge) GetEdgeId() datastructure.Index {
	return e.edgeId
}

func (e stubEdge) GetHighwayType() pkg.OsmHighwayType {
	return pkg.SECONDARY
}

// mpm converts km/h to the metre-per-minute unit edges use.
func mpm(kmh float64) float64 {
	return kmh * 1000.0 / 60.0
}
