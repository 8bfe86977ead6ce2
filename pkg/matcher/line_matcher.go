package matcher

import (
	"math"
	"sort"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"go.uber.org/zap"
)

const minBoundingBoxExpansionDeg = 0.001

type LineMatch struct {
	edgeId datastructure.Index
	score  float64
}

func NewLineMatch(edgeId datastructure.Index, score float64) LineMatch {
	return LineMatch{edgeId: edgeId, score: score}
}

func (m LineMatch) GetEdgeId() datastructure.Index {
	return m.edgeId
}

func (m LineMatch) GetScore() float64 {
	return m.score
}

// LineMatchParams are the per-feed acceptance knobs: the distance at which
// the distance score bottoms out, and the minimum accepted total score.
type LineMatchParams struct {
	maxDistanceMeters float64
	minScore          float64
}

func NewLineMatchParams(maxDistanceMeters, minScore float64) LineMatchParams {
	return LineMatchParams{
		maxDistanceMeters: maxDistanceMeters,
		minScore:          minScore,
	}
}

func EdsLineMatchParams() LineMatchParams {
	return NewLineMatchParams(pkg.EDS_MAX_MATCH_DISTANCE_METERS, pkg.EDS_MIN_MATCH_SCORE)
}

func SpeedLimitLineMatchParams() LineMatchParams {
	return NewLineMatchParams(pkg.SPEED_LIMIT_MAX_MATCH_DISTANCE_METERS, pkg.SPEED_LIMIT_MIN_MATCH_SCORE)
}

// boundingBox in degrees, already expanded.
type boundingBox struct {
	minLat, minLon, maxLat, maxLon float64
}

func (b boundingBox) contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

// LineMatcher maps a query polyline onto graph edges. the spatial index only
// prunes; the endpoint/straddle rule below decides candidacy.
type LineMatcher struct {
	source     EdgeGeometrySource
	geometries *GeometryCache
	index      CandidateIndex
	logger     *zap.Logger
}

func NewLineMatcher(source EdgeGeometrySource, geometries *GeometryCache,
	index CandidateIndex, logger *zap.Logger) *LineMatcher {
	return &LineMatcher{
		source:     source,
		geometries: geometries,
		index:      index,
		logger:     logger,
	}
}

// Match scores every candidate edge against the query polyline and returns
// the ones at or above params.minScore, sorted by descending score (edge id
// ascending on ties).
func (lm *LineMatcher) Match(query []datastructure.Coordinate, params LineMatchParams) []LineMatch {
	if len(query) < 2 {
		return nil
	}

	box := expandedBoundingBox(query)
	queryGeo := datastructure.NewGeoCoordinates(query)
	queryLengthDeg := geo.PolylineLengthDeg(queryGeo)

	matches := make([]LineMatch, 0)
	for _, edgeId := range lm.candidates(box) {
		if !lm.isCandidate(edgeId, box) {
			continue
		}
		score, err := lm.score(queryGeo, queryLengthDeg, edgeId, params.maxDistanceMeters)
		if err != nil {
			lm.logger.Debug("line match failed for edge",
				zap.Uint32("edge_id", uint32(edgeId)), zap.Error(err))
			continue
		}
		if score >= params.minScore {
			matches = append(matches, NewLineMatch(edgeId, score))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].edgeId < matches[j].edgeId
	})
	return matches
}

func (lm *LineMatcher) candidates(box boundingBox) []datastructure.Index {
	if lm.index != nil {
		return lm.index.SearchInBoundingBox(box.minLat, box.minLon, box.maxLat, box.maxLon)
	}
	all := make([]datastructure.Index, lm.source.NumberOfEdges())
	for e := range all {
		all[e] = datastructure.Index(e)
	}
	return all
}

// isCandidate applies the exact prefilter rule: an endpoint inside the
// expanded box, or the endpoint pair straddling the box in both lat and lon.
func (lm *LineMatcher) isCandidate(edgeId datastructure.Index, box boundingBox) bool {
	if !lm.source.IsValidEdge(edgeId) {
		return false
	}
	tailLat, tailLon := lm.source.GetVertexCoordinates(lm.source.GetEdgeTail(edgeId))
	headLat, headLon := lm.source.GetVertexCoordinates(lm.source.GetEdgeHead(edgeId))

	if box.contains(tailLat, tailLon) || box.contains(headLat, headLon) {
		return true
	}

	straddlesLat := (tailLat < box.minLat && headLat > box.maxLat) ||
		(headLat < box.minLat && tailLat > box.maxLat)
	straddlesLon := (tailLon < box.minLon && headLon > box.maxLon) ||
		(headLon < box.minLon && tailLon > box.maxLon)
	return straddlesLat && straddlesLon
}

func (lm *LineMatcher) score(queryGeo []geo.Coordinate, queryLengthDeg float64,
	edgeId datastructure.Index, maxDistanceMeters float64) (float64, error) {
	polyline, err := lm.geometries.Get(edgeId)
	if err != nil {
		return 0, err
	}
	edgeGeo := datastructure.NewGeoCoordinates(polyline)

	distanceMeters := geo.HausdorffDistanceDeg(queryGeo, edgeGeo) * pkg.METERS_PER_DEGREE
	distanceScore := math.Max(0, 1-distanceMeters/maxDistanceMeters)

	edgeLengthDeg := geo.PolylineLengthDeg(edgeGeo)
	lengthRatio := 1.0
	if longer := math.Max(queryLengthDeg, edgeLengthDeg); longer > 0 {
		lengthRatio = math.Min(queryLengthDeg, edgeLengthDeg) / longer
	}

	directionCosine := geo.DirectionCosine(queryGeo, edgeGeo)

	return 0.4*distanceScore + 0.3*lengthRatio + 0.3*directionCosine, nil
}

// expandedBoundingBox expands the query's box by the larger of 0.001 degree
// and 10% of its extent, per axis.
func expandedBoundingBox(query []datastructure.Coordinate) boundingBox {
	box := boundingBox{
		minLat: math.MaxFloat64, minLon: math.MaxFloat64,
		maxLat: -math.MaxFloat64, maxLon: -math.MaxFloat64,
	}
	for _, c := range query {
		box.minLat = math.Min(box.minLat, c.GetLat())
		box.maxLat = math.Max(box.maxLat, c.GetLat())
		box.minLon = math.Min(box.minLon, c.GetLon())
		box.maxLon = math.Max(box.maxLon, c.GetLon())
	}

	expandLat := math.Max(minBoundingBoxExpansionDeg, 0.1*(box.maxLat-box.minLat))
	expandLon := math.Max(minBoundingBoxExpansionDeg, 0.1*(box.maxLon-box.minLon))
	box.minLat -= expandLat
	box.maxLat += expandLat
	box.minLon -= expandLon
	box.maxLon += expandLon
	return box
}
