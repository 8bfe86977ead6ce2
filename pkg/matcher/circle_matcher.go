package matcher

import (
	"math"
	"sort"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"go.uber.org/zap"
)

type CircleMatch struct {
	edgeId datastructure.Index
	score  float64
}

func NewCircleMatch(edgeId datastructure.Index, score float64) CircleMatch {
	return CircleMatch{edgeId: edgeId, score: score}
}

func (m CircleMatch) GetEdgeId() datastructure.Index {
	return m.edgeId
}

func (m CircleMatch) GetScore() float64 {
	return m.score
}

// CircleMatcher maps a circular area onto graph edges. an edge matches when
// any of its consecutive segments intersects the polygon approximating the
// circle; there is no minimum score, the non-empty intersection is the gate.
type CircleMatcher struct {
	source     EdgeGeometrySource
	geometries *GeometryCache
	index      CandidateIndex
	logger     *zap.Logger
}

func NewCircleMatcher(source EdgeGeometrySource, geometries *GeometryCache,
	index CandidateIndex, logger *zap.Logger) *CircleMatcher {
	return &CircleMatcher{
		source:     source,
		geometries: geometries,
		index:      index,
		logger:     logger,
	}
}

// Match returns every edge whose geometry intersects the circle, scored by
// how deep the nearest polyline point sits inside it:
// max(0, (radius - minDistance) / radius). results are sorted by descending
// score, edge id ascending on ties.
func (cm *CircleMatcher) Match(centerLat, centerLon, radiusMeters float64) []CircleMatch {
	if radiusMeters <= 0 {
		return nil
	}

	radiusDeg := radiusMeters / pkg.METERS_PER_DEGREE
	center := datastructure.NewPoint(centerLon, centerLat)
	polygon := datastructure.CirclePolygon(center, radiusDeg, pkg.CIRCLE_POLYGON_POINTS)
	centerGeo := geo.NewCoordinate(centerLat, centerLon)

	matches := make([]CircleMatch, 0)
	for _, edgeId := range cm.candidates(centerLat, centerLon, radiusMeters) {
		score, intersects, err := cm.score(centerGeo, polygon, radiusMeters, edgeId)
		if err != nil {
			cm.logger.Debug("circle match failed for edge",
				zap.Uint32("edge_id", uint32(edgeId)), zap.Error(err))
			continue
		}
		if !intersects {
			continue
		}
		matches = append(matches, NewCircleMatch(edgeId, score))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].edgeId < matches[j].edgeId
	})
	return matches
}

func (cm *CircleMatcher) candidates(centerLat, centerLon, radiusMeters float64) []datastructure.Index {
	if cm.index != nil {
		// the index query box is built from a diagonal offset, so double the
		// radius to circumscribe the circle polygon instead of inscribing it.
		return cm.index.SearchWithinRadius(centerLat, centerLon, 2*radiusMeters/1000.0)
	}
	all := make([]datastructure.Index, cm.source.NumberOfEdges())
	for e := range all {
		all[e] = datastructure.Index(e)
	}
	return all
}

func (cm *CircleMatcher) score(centerGeo geo.Coordinate, polygon []*datastructure.Point,
	radiusMeters float64, edgeId datastructure.Index) (float64, bool, error) {
	polyline, err := cm.geometries.Get(edgeId)
	if err != nil {
		return 0, false, err
	}

	intersects := false
	for i := 0; i+1 < len(polyline); i++ {
		a := datastructure.NewPoint(polyline[i].GetLon(), polyline[i].GetLat())
		b := datastructure.NewPoint(polyline[i+1].GetLon(), polyline[i+1].GetLat())
		if datastructure.SegmentIntersectsPolygon(a, b, polygon) {
			intersects = true
			break
		}
	}
	if !intersects {
		return 0, false, nil
	}

	minDistanceMeters := math.MaxFloat64
	for _, p := range polyline {
		minDistanceMeters = math.Min(minDistanceMeters,
			geo.HaversineMeters(centerGeo, p.ToGeoCoordinate()))
	}

	return math.Max(0, (radiusMeters-minDistanceMeters)/radiusMeters), true, nil
}
