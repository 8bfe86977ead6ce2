package matcher

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"golang.org/x/sync/singleflight"
)

// EdgeGeometrySource is the slice of the road graph the matchers read.
// *datastructure.Graph satisfies it.
type EdgeGeometrySource interface {
	NumberOfEdges() int
	IsValidEdge(edgeId datastructure.Index) bool
	GetEdgeGeometry(edgeId datastructure.Index) []datastructure.Coordinate
	GetEdgeTail(edgeId datastructure.Index) datastructure.Index
	GetEdgeHead(edgeId datastructure.Index) datastructure.Index
	GetVertexCoordinates(v datastructure.Index) (float64, float64)
}

// CandidateIndex prunes the edge set before the exact matching rules run.
// *spatialindex.Rtree satisfies it. a nil index means a full edge scan.
type CandidateIndex interface {
	SearchInBoundingBox(minLat, minLon, maxLat, maxLon float64) []datastructure.Index
	SearchWithinRadius(qLat, qLon, radius float64) []datastructure.Index
}

const geometryCacheSize = 1 << 16

// GeometryCache hands out edge polylines, building each at most once
// concurrently. polylines always have >= 2 points: edges without stored
// geometry fall back to their endpoint pair. the cache survives overlay
// refreshes, Purge is the test hook that drops it.
type GeometryCache struct {
	source EdgeGeometrySource
	cache  *lru.Cache[datastructure.Index, []datastructure.Coordinate]
	group  singleflight.Group
}

func NewGeometryCache(source EdgeGeometrySource) (*GeometryCache, error) {
	cache, err := lru.New[datastructure.Index, []datastructure.Coordinate](geometryCacheSize)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "matcher.NewGeometryCache: create lru")
	}
	return &GeometryCache{
		source: source,
		cache:  cache,
	}, nil
}

func (gc *GeometryCache) Get(edgeId datastructure.Index) ([]datastructure.Coordinate, error) {
	if polyline, ok := gc.cache.Get(edgeId); ok {
		return polyline, nil
	}

	v, err, _ := gc.group.Do(strconv.FormatUint(uint64(edgeId), 10), func() (interface{}, error) {
		if polyline, ok := gc.cache.Get(edgeId); ok {
			return polyline, nil
		}
		if !gc.source.IsValidEdge(edgeId) {
			return nil, util.WrapErrorf(nil, util.ErrBadParamInput,
				"matcher.GeometryCache.Get: invalid edge id %d", edgeId)
		}

		polyline := gc.source.GetEdgeGeometry(edgeId)
		if len(polyline) < 2 {
			tailLat, tailLon := gc.source.GetVertexCoordinates(gc.source.GetEdgeTail(edgeId))
			headLat, headLon := gc.source.GetVertexCoordinates(gc.source.GetEdgeHead(edgeId))
			polyline = []datastructure.Coordinate{
				datastructure.NewCoordinate(tailLat, tailLon),
				datastructure.NewCoordinate(headLat, headLon),
			}
		}
		gc.cache.Add(edgeId, polyline)
		return polyline, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]datastructure.Coordinate), nil
}

func (gc *GeometryCache) Purge() {
	gc.cache.Purge()
}
