package osmparser

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

const (
	STREET_NAME     = "street_name"
	STREET_REF      = "street_ref"
	JUNCTION        = "junction"
	ROAD_CLASS      = "road_class"
	ROAD_CLASS_LINK = "road_class_link"
	LANES           = "lanes"
	TRAFFIC_LIGHT   = "traffic_light"
)

// NodeType classifies every node referenced by an accepted osm way. nodes shared
// by two or more ways are junctions and split the ways into graph edges.
type NodeType uint8

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

type NodeCoord struct {
	lat float64
	lon float64
}

func NewNodeCoord(lat, lon float64) NodeCoord {
	return NodeCoord{lat, lon}
}

func (n NodeCoord) GetLat() float64 {
	return n.lat
}

func (n NodeCoord) GetLon() float64 {
	return n.lon
}

// Edge is one scanned directed road segment. its csr edge id is assigned later
// by BuildGraph, ordered by tail vertex.
type Edge struct {
	from       uint32
	to         uint32
	weight     float64 // minute
	distance   float64 // meter
	hwType     pkg.OsmHighwayType
	roundabout bool
	info       datastructure.EdgeExtraInfo
}

func NewEdge(from, to uint32, weight, distance float64, hwType pkg.OsmHighwayType,
	roundabout bool, info datastructure.EdgeExtraInfo) Edge {
	return Edge{
		from:       from,
		to:         to,
		weight:     weight,
		distance:   distance,
		hwType:     hwType,
		roundabout: roundabout,
		info:       info,
	}
}

func (e *Edge) GetFrom() datastructure.Index {
	return datastructure.Index(e.from)
}

func (e *Edge) GetTo() datastructure.Index {
	return datastructure.Index(e.to)
}

func (e *Edge) GetWeight() float64 {
	return e.weight
}

func (e *Edge) GetDistance() float64 {
	return e.distance
}

func (e *Edge) GetHighwayType() pkg.OsmHighwayType {
	return e.hwType
}

func (e *Edge) IsRoundabout() bool {
	return e.roundabout
}

func (e *Edge) GetInfo() datastructure.EdgeExtraInfo {
	return e.info
}

var (
	// https://wiki.openstreetmap.org/wiki/OSM_tags_for_routing/Telenav
	acceptedHighway = map[string]struct{}{
		"motorway":         {},
		"motorway_link":    {},
		"trunk":            {},
		"trunk_link":       {},
		"primary":          {},
		"primary_link":     {},
		"secondary":        {},
		"secondary_link":   {},
		"residential":      {},
		"residential_link": {},
		"service":          {},
		"tertiary":         {},
		"tertiary_link":    {},
		"road":             {},
		"track":            {},
		"unclassified":     {},
		"undefined":        {},
		"unknown":          {},
		"living_street":    {},
		"private":          {},
		"motorroad":        {},
	}

	// https://wiki.openstreetmap.org/wiki/Key:barrier
	// a barrier node with access=no splits the street segment into 2 disconnected
	// graph edges
	acceptedBarrierType = map[string]struct{}{
		"bollard":        {},
		"swing_gate":     {},
		"jersey_barrier": {},
		"lift_gate":      {},
		"block":          {},
		"gate":           {},
	}
)
