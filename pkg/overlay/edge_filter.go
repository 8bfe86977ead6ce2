package overlay

import (
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// AvoidanceEdgeFilter turns the soft avoidance penalty into a hard ban:
// search algorithms consult it before relaxing an edge, so flagged edges
// never enter the frontier at all.
type AvoidanceEdgeFilter struct {
	eds   *EdsTable
	areas *AreaTable
	flags Flags
}

func NewAvoidanceEdgeFilter(eds *EdsTable, areas *AreaTable, flags Flags) *AvoidanceEdgeFilter {
	return &AvoidanceEdgeFilter{
		eds:   eds,
		areas: areas,
		flags: flags,
	}
}

func (f *AvoidanceEdgeFilter) Accept(edgeId datastructure.Index) bool {
	if f.flags.AvoidEdsRoads() && f.eds.Contains(edgeId) {
		return false
	}
	if f.flags.AvoidCustomAreas() && f.areas.Contains(edgeId) {
		return false
	}
	return true
}
