package datastructure

import (
	"math"

	"github.com/lintang-b-s/trafficx/pkg/util"
)

type GraphStorage struct {
	globalPoints []Coordinate

	/*
		32 bit -> 32 boolean flag for roundabout & trafficlight

		idx in flag array = floor(edgeID/32)
		idx in flag = edgeID % 32
	*/
	roundaboutFlag   []Index
	nodeTrafficLight []Index

	mapEdgeInfo []EdgeExtraInfo

	tagStringIDMap  util.IDMap
	streetDirection map[int64][2]bool // osm way id -> [forward,backward]
}

func NewGraphStorage() *GraphStorage {
	return &GraphStorage{
		streetDirection:  make(map[int64][2]bool),
		mapEdgeInfo:      make([]EdgeExtraInfo, 0),
		tagStringIDMap:   util.NewIdMap(),
		roundaboutFlag:   make([]Index, 0),
		nodeTrafficLight: make([]Index, 0),
		globalPoints:     make([]Coordinate, 0),
	}
}

func BuildGraphStorage(globalPoints []Coordinate, roundaboutFlag []Index, nodeTrafficLight []Index,
	mapEdgeInfo []EdgeExtraInfo, tagStringIDMap util.IDMap, streetDirection map[int64][2]bool) *GraphStorage {
	return &GraphStorage{globalPoints: globalPoints, roundaboutFlag: roundaboutFlag,
		nodeTrafficLight: nodeTrafficLight, mapEdgeInfo: mapEdgeInfo, tagStringIDMap: tagStringIDMap,
		streetDirection: streetDirection}
}

func NewGraphStorageWithSize(numberOfEdges int, numberOfVertices int) *GraphStorage {
	return &GraphStorage{
		streetDirection:  make(map[int64][2]bool),
		mapEdgeInfo:      make([]EdgeExtraInfo, numberOfEdges),
		tagStringIDMap:   util.NewIdMap(),
		roundaboutFlag:   make([]Index, numberOfEdges/32+1),
		nodeTrafficLight: make([]Index, numberOfVertices/32+1),
		globalPoints:     make([]Coordinate, 1),
	}
}

func (gs *GraphStorage) SetRoundabout(edgeID Index, isRoundabout bool) {
	index := int(math.Floor(float64(edgeID) / 32))
	if len(gs.roundaboutFlag) <= index {
		gs.roundaboutFlag = append(gs.roundaboutFlag, make([]Index, index-len(gs.roundaboutFlag)+1)...)
	}
	if isRoundabout {
		gs.roundaboutFlag[index] |= 1 << (edgeID % 32)
	}
}

func (gs *GraphStorage) SetStreetDirection(streetDirection map[int64][2]bool) {
	gs.streetDirection = streetDirection
}

func (gs *GraphStorage) SetTagStringIdMap(tagStringIDMap util.IDMap) {
	gs.tagStringIDMap = tagStringIDMap
}

func (gs *GraphStorage) GetTagStringIdMap() util.IDMap {
	return gs.tagStringIDMap
}

func (gs *GraphStorage) GetStreetDirection(wayId int64) [2]bool {
	return gs.streetDirection[wayId]
}

func (gs *GraphStorage) SetTrafficLight(nodeID Index) {
	index := int(math.Floor(float64(nodeID) / 32))

	if len(gs.nodeTrafficLight) <= index {
		gs.nodeTrafficLight = append(gs.nodeTrafficLight, make([]Index, index-len(gs.nodeTrafficLight)+1)...)
	}

	gs.nodeTrafficLight[index] |= 1 << (nodeID % 32)
}

func (gs *GraphStorage) GetTrafficLight(nodeID Index) bool {
	index := int(math.Floor(float64(nodeID) / 32))

	var tf bool
	if len(gs.nodeTrafficLight) > index {
		tf = (gs.nodeTrafficLight[index] & (1 << (nodeID % 32))) != 0
	}
	return tf
}

type EdgeExtraInfo struct {
	startPointsIndex Index
	endPointsIndex   Index
	streetName       int
	roadClass        uint8
	roadClassLink    uint8
	lanes            uint8
	maxSpeed         float64 // km/h, 0 when the osm way has no maxspeed tag
	osmWayId         int64
}

func NewEdgeExtraInfo(streetName int, roadClass, lanes, roadClassLink uint8, startPointsIdx, endPointsIdx Index,
	maxSpeed float64, osmWayId int64) EdgeExtraInfo {
	return EdgeExtraInfo{
		streetName:       streetName,
		roadClass:        roadClass,
		roadClassLink:    roadClassLink,
		lanes:            lanes,
		startPointsIndex: startPointsIdx,
		endPointsIndex:   endPointsIdx,
		maxSpeed:         maxSpeed,
		osmWayId:         osmWayId,
	}
}

func (e *EdgeExtraInfo) GetStartPointsIndex() Index {
	return e.startPointsIndex
}

func (e *EdgeExtraInfo) GetEndPointsIndex() Index {
	return e.endPointsIndex
}

func (e *EdgeExtraInfo) GetMaxSpeed() float64 {
	return e.maxSpeed
}

func (e *EdgeExtraInfo) GetOsmWayId() int64 {
	return e.osmWayId
}

// GetEdgeGeometry. full pillar geometry of an edge. a reversed two-way edge shares the
// globalPoints range of its forward twin, marked by startIndex > endIndex, and is read
// backwards so the tail coordinate always comes first.
func (gs *GraphStorage) GetEdgeGeometry(edgeID Index) []Coordinate {
	edge := gs.mapEdgeInfo[edgeID]
	var (
		edgePoints []Coordinate
	)
	if edge.osmWayId == -1 {
		return []Coordinate{}
	}
	startIndex := edge.startPointsIndex
	endIndex := edge.endPointsIndex
	if startIndex < endIndex {
		edgePoints = gs.globalPoints[startIndex:endIndex]

		return edgePoints
	}

	if startIndex <= 0 {
		return make([]Coordinate, 0)
	}

	for i := startIndex - 1; i >= endIndex; i-- {
		edgePoints = append(edgePoints, gs.globalPoints[i])
	}

	return edgePoints
}

// return edgeExtraInfo, isRoundabout
func (gs *GraphStorage) GetEdgeExtraInfo(edgeID Index) (EdgeExtraInfo, bool) {
	index := int(math.Floor(float64(edgeID) / 32))
	var roundabout bool
	if len(gs.roundaboutFlag) > index {
		roundabout = (gs.roundaboutFlag[index] & (1 << (edgeID % 32))) != 0
	}
	return gs.mapEdgeInfo[edgeID], roundabout
}

func (gs *GraphStorage) UpdateEdgePoints(edgeID Index, startIdx, endIdx Index) {
	edge := gs.mapEdgeInfo[edgeID]
	edge.startPointsIndex = startIdx
	edge.endPointsIndex = endIdx
	gs.mapEdgeInfo[edgeID] = edge
}

func (gs *GraphStorage) AppendGlobalPoints(edgePoints []Coordinate) {
	gs.globalPoints = append(gs.globalPoints, edgePoints...)
}

func (gs *GraphStorage) SetMapEdgeInfo(edgeID Index, edgeInfo EdgeExtraInfo) {
	gs.mapEdgeInfo[edgeID] = edgeInfo
}

func (gs *GraphStorage) AppendMapEdgeInfo(edgeInfo EdgeExtraInfo) {
	gs.mapEdgeInfo = append(gs.mapEdgeInfo, edgeInfo)
}

func (gs *GraphStorage) GetGlobalPointsCount() int {
	return len(gs.globalPoints)
}
