package usecases

import (
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/util"
)

// snapOrigDestToVertices snaps both query points to their nearest graph
// vertices and returns the closest pair that is actually connected, so a
// query next to a dead-end service road does not land in an unreachable
// component. when no candidate pair is connected the nearest snap is
// returned and the search itself reports not found.
func (rs *RoutingService) snapOrigDestToVertices(origLat, origLon, dstLat, dstLon float64) (datastructure.Index,
	datastructure.Index, error) {
	origCandidates := rs.spatialIndex.SnapToNearestVertices(origLat, origLon, rs.snapK)
	if len(origCandidates) == 0 {
		return 0, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"no road found near origin %f,%f", origLat, origLon)
	}

	dstCandidates := rs.spatialIndex.SnapToNearestVertices(dstLat, dstLon, rs.snapK)
	if len(dstCandidates) == 0 {
		return 0, 0, util.WrapErrorf(nil, util.ErrNotFound,
			"no road found near destination %f,%f", dstLat, dstLon)
	}

	graph := rs.engine.GetGraph()
	for _, o := range origCandidates {
		for _, d := range dstCandidates {
			if graph.VerticeUandVAreConnected(o, d) {
				return o, d, nil
			}
		}
	}

	return origCandidates[0], dstCandidates[0], nil
}
