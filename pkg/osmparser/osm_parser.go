package osmparser

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/geo"
	"github.com/lintang-b-s/trafficx/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

type node struct {
	id    int64
	coord NodeCoord
}

type OsmParser struct {
	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]NodeCoord
	barrierNodes    map[int64]bool
	nodeTag         map[int64]map[int]int
	tagStringIdMap  util.IDMap
	nodeIDMap       map[int64]datastructure.Index
	nodeToOsmId     map[datastructure.Index]int64
	maxNodeID       int64
}

func NewOSMParser() *OsmParser {
	return &OsmParser{
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]NodeCoord),
		barrierNodes:    make(map[int64]bool),
		nodeTag:         make(map[int64]map[int]int),
		tagStringIdMap:  util.NewIdMap(),
		nodeIDMap:       make(map[int64]datastructure.Index),
		nodeToOsmId:     make(map[datastructure.Index]int64),
	}
}

func (p *OsmParser) GetTagStringIdMap() util.IDMap {
	return p.tagStringIdMap
}

// Parse scans an openstreetmap pbf extract twice: first to classify the nodes
// of every accepted way (junction nodes split ways into graph edges), then to
// build the directed scanned edges plus their extra info, and finally
// assembles the csr graph.
func (p *OsmParser) Parse(mapFile string, logger *zap.Logger) (*datastructure.Graph, error) {

	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	countWays := 0
	for scanner.Scan() {
		o := scanner.Object()

		tipe := o.ObjectID().Type()

		switch tipe {
		case osm.TypeWay:
			{
				way := o.(*osm.Way)
				if len(way.Nodes) < 2 {
					continue
				}

				if !acceptOsmWay(way) {
					continue
				}
				if (countWays+1)%50000 == 0 {
					logger.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
				}
				countWays++

				for i, wayNode := range way.Nodes {
					if _, ok := p.wayNodeMap[int64(wayNode.ID)]; !ok {
						if i == 0 || i == len(way.Nodes)-1 {
							p.wayNodeMap[int64(wayNode.ID)] = END_NODE
						} else {
							p.wayNodeMap[int64(wayNode.ID)] = BETWEEN_NODE
						}
					} else {
						p.wayNodeMap[int64(wayNode.ID)] = JUNCTION_NODE
					}
				}
			}
		}
	}
	scanner.Close()

	graphStorage := datastructure.NewGraphStorage()

	edgeSet := make(map[datastructure.Index]map[datastructure.Index]struct{})

	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	// must not be parallel
	defer scanner.Close()

	scannedEdges := make([]Edge, 0)

	streetDirection := make(map[int64][2]bool)

	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		o := scanner.Object()

		tipe := o.ObjectID().Type()

		switch tipe {
		case osm.TypeWay:
			{
				way := o.(*osm.Way)
				if len(way.Nodes) < 2 {
					continue
				}

				if !acceptOsmWay(way) {
					continue
				}
				if (countWays+1)%100000 == 0 {
					logger.Sugar().Infof("processing openstreetmap ways: %d...", countWays+1)
				}
				countWays++

				err := p.processWay(way, graphStorage, streetDirection, edgeSet, &scannedEdges)
				if err != nil {
					continue
				}
			}
		case osm.TypeNode:
			{
				if (countNodes+1)%500000 == 0 {
					logger.Sugar().Infof("processing openstreetmap nodes: %d...", countNodes+1)
				}
				countNodes++
				osmNode := o.(*osm.Node)

				p.maxNodeID = max(p.maxNodeID, int64(osmNode.ID))

				if _, ok := p.wayNodeMap[int64(osmNode.ID)]; ok {
					p.acceptedNodeMap[int64(osmNode.ID)] = NodeCoord{
						lat: osmNode.Lat,
						lon: osmNode.Lon,
					}
				}
				accessType := osmNode.Tags.Find("access")
				barrierType := osmNode.Tags.Find("barrier")

				if _, ok := acceptedBarrierType[barrierType]; ok && accessType == "no" && barrierType != "" {
					p.barrierNodes[int64(osmNode.ID)] = true
				}

				for _, tag := range osmNode.Tags {
					if strings.Contains(tag.Key, "created_by") ||
						strings.Contains(tag.Key, "source") ||
						strings.Contains(tag.Key, "note") ||
						strings.Contains(tag.Key, "fixme") {
						continue
					}
					tagID := p.tagStringIdMap.GetID(tag.Key)
					if _, ok := p.nodeTag[int64(osmNode.ID)]; !ok {
						p.nodeTag[int64(osmNode.ID)] = make(map[int]int)
					}
					p.nodeTag[int64(osmNode.ID)][tagID] = p.tagStringIdMap.GetID(tag.Value)
					if strings.Contains(tag.Value, "traffic_signals") {
						p.nodeTag[int64(osmNode.ID)][p.tagStringIdMap.GetID(TRAFFIC_LIGHT)] = 1
					}
				}
			}
		}
	}

	graphStorage.SetStreetDirection(streetDirection)
	graphStorage.SetTagStringIdMap(p.tagStringIdMap)

	for osmNodeID, vertexID := range p.nodeIDMap {
		if val, ok := p.nodeTag[osmNodeID][p.tagStringIdMap.GetID(TRAFFIC_LIGHT)]; ok && val == 1 {
			graphStorage.SetTrafficLight(vertexID)
		}
	}

	coords := make([]NodeCoord, len(p.nodeIDMap))
	for osmNodeID, vertexID := range p.nodeIDMap {
		coords[vertexID] = p.acceptedNodeMap[osmNodeID]
	}

	graph := BuildGraph(coords, scannedEdges, graphStorage)
	graph.ForVertices(func(v *datastructure.Vertex) {
		v.SetOsmId(p.nodeToOsmId[v.GetID()])
	})

	logger.Sugar().Infof("number of vertices: %v", graph.NumberOfVertices())
	logger.Sugar().Infof("number of edges: %v", graph.NumberOfEdges())

	return graph, nil
}

type wayExtraInfo struct {
	oneWay  bool
	forward bool
}

func (p *OsmParser) processWay(way *osm.Way, graphStorage *datastructure.GraphStorage,
	streetDirection map[int64][2]bool, edgeSet map[datastructure.Index]map[datastructure.Index]struct{},
	scannedEdges *[]Edge) error {
	tempMap := make(map[string]string)
	name := way.Tags.Find("name")

	tempMap[STREET_NAME] = name

	refName := way.Tags.Find("ref")
	tempMap[STREET_REF] = refName

	maxSpeed := 0.0 // explicit maxspeed tag, km/h. stays 0 when the way has no usable tag
	highwayTypeSpeed := 0.0
	hwType := pkg.UNKNOWN

	wayExtraInfoData := wayExtraInfo{}
	okvf, okmvf, okvb, okmvb := getReversedOneWay(way)
	if val := way.Tags.Find("oneway"); val == "yes" || val == "-1" || okvf || okmvf || okvb || okmvb {
		wayExtraInfoData.oneWay = true
	}

	if way.Tags.Find("oneway") == "-1" || okvf || okmvf {
		// okvf / okmvf = restricted/not allowed forward.
		wayExtraInfoData.forward = false
	} else {
		wayExtraInfoData.forward = true
	}

	if wayExtraInfoData.oneWay {
		if wayExtraInfoData.forward {
			streetDirection[int64(way.ID)] = [2]bool{true, false} // {forward, backward}
		} else {
			streetDirection[int64(way.ID)] = [2]bool{false, true}
		}
	} else {
		streetDirection[int64(way.ID)] = [2]bool{true, true}
	}

	for _, tag := range way.Tags {
		switch tag.Key {
		case "junction":
			{
				tempMap[JUNCTION] = tag.Value
			}
		case "highway":
			{
				hwType = pkg.GetHighwayType(tag.Value)
				highwayTypeSpeed = pkg.DefaultHighwaySpeedKmh(hwType) * pkg.NERF_MAXSPEED_OSM

				if strings.Contains(tag.Value, "link") {
					tempMap[ROAD_CLASS_LINK] = tag.Value
				} else {
					tempMap[ROAD_CLASS] = tag.Value
				}
			}
		case "lanes":
			{
				tempMap[LANES] = tag.Value
			}
		case "maxspeed":
			{
				if strings.Contains(tag.Value, "mph") {
					currSpeed, err := strconv.ParseFloat(strings.Replace(tag.Value, " mph", "", -1), 64)
					if err != nil {
						return err
					}
					maxSpeed = currSpeed * 1.60934
				} else if strings.Contains(tag.Value, "km/h") {
					currSpeed, err := strconv.ParseFloat(strings.Replace(tag.Value, " km/h", "", -1), 64)
					if err != nil {
						return err
					}
					maxSpeed = currSpeed
				} else if strings.Contains(tag.Value, "knots") {
					currSpeed, err := strconv.ParseFloat(strings.Replace(tag.Value, " knots", "", -1), 64)
					if err != nil {
						return err
					}
					maxSpeed = currSpeed * 1.852
				} else {
					currSpeed, err := strconv.ParseFloat(strings.TrimSpace(tag.Value), 64)
					if err != nil {
						// "none", "signals", "walk", ...
						continue
					}
					maxSpeed = currSpeed
				}
			}
		}
	}

	speed := maxSpeed
	if speed == 0 {
		speed = highwayTypeSpeed
	}
	if speed == 0 {
		speed = 30
	}

	waySegment := []node{}
	for _, wayNode := range way.Nodes {
		nodeData := node{
			id:    int64(wayNode.ID),
			coord: p.acceptedNodeMap[int64(wayNode.ID)],
		}
		if p.isJunctionNode(nodeData.id) {

			waySegment = append(waySegment, nodeData)
			p.processSegment(waySegment, tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData,
				edgeSet, scannedEdges, int64(way.ID))
			waySegment = []node{}

			waySegment = append(waySegment, nodeData)

		} else {
			waySegment = append(waySegment, nodeData)
		}
	}
	if len(waySegment) > 1 {
		p.processSegment(waySegment, tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData,
			edgeSet, scannedEdges, int64(way.ID))
	}

	return nil
}

func isRestricted(value string) bool {
	if value == "no" || value == "restricted" {
		return true
	}
	return false
}

func getReversedOneWay(way *osm.Way) (bool, bool, bool, bool) {
	vehicleForward := way.Tags.Find("vehicle:forward")
	motorVehicleForward := way.Tags.Find("motor_vehicle:forward")
	vehicleBackward := way.Tags.Find("vehicle:backward")
	motorVehicleBackward := way.Tags.Find("motor_vehicle:backward")
	return isRestricted(vehicleForward), isRestricted(motorVehicleForward), isRestricted(vehicleBackward), isRestricted(motorVehicleBackward)
}

func (p *OsmParser) processSegment(segment []node, tempMap map[string]string, speed, maxSpeed float64,
	hwType pkg.OsmHighwayType, graphStorage *datastructure.GraphStorage, wayExtraInfoData wayExtraInfo,
	edgeSet map[datastructure.Index]map[datastructure.Index]struct{}, scannedEdges *[]Edge, wayID int64) {

	if len(segment) == 2 && segment[0].id == segment[1].id {
		// skip
		return
	} else if len(segment) > 2 && segment[0].id == segment[len(segment)-1].id {
		// loop
		p.processSegment2(segment[0:len(segment)-1], tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData, edgeSet, scannedEdges, wayID)
		p.processSegment2(segment[len(segment)-2:], tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData, edgeSet, scannedEdges, wayID)
	} else {
		p.processSegment2(segment, tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData, edgeSet, scannedEdges, wayID)
	}
}

func (p *OsmParser) processSegment2(segment []node, tempMap map[string]string, speed, maxSpeed float64,
	hwType pkg.OsmHighwayType, graphStorage *datastructure.GraphStorage, wayExtraInfoData wayExtraInfo,
	edgeSet map[datastructure.Index]map[datastructure.Index]struct{}, scannedEdges *[]Edge, wayID int64) {
	waySegment := []node{}
	for i := 0; i < len(segment); i++ {
		nodeData := segment[i]
		if _, ok := p.barrierNodes[nodeData.id]; ok {

			if len(waySegment) != 0 {
				// if current node is a barrier
				// add the barrier node and process the segment (add edge)
				waySegment = append(waySegment, nodeData)
				p.addEdge(waySegment, tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData, edgeSet, scannedEdges, wayID)
				waySegment = []node{}
			}
			// copy the barrier node but with different id so that previous edge (with barrier) not connected with the new edge

			nodeData = p.copyNode(nodeData)
			waySegment = append(waySegment, nodeData)

		} else {
			waySegment = append(waySegment, nodeData)
		}
	}
	if len(waySegment) > 1 {
		p.addEdge(waySegment, tempMap, speed, maxSpeed, hwType, graphStorage, wayExtraInfoData, edgeSet, scannedEdges, wayID)
	}
}

func (p *OsmParser) copyNode(nodeData node) node {
	// use the same coordinate but a fresh id, so the edge before the barrier is
	// not connected with the edge after it
	newMaxID := p.maxNodeID + 1
	p.acceptedNodeMap[newMaxID] = NodeCoord{
		lat: nodeData.coord.lat,
		lon: nodeData.coord.lon,
	}
	p.maxNodeID++
	return node{
		id: newMaxID,
		coord: NodeCoord{
			lat: nodeData.coord.lat,
			lon: nodeData.coord.lon,
		},
	}
}

func (p *OsmParser) addEdge(segment []node, tempMap map[string]string, speed, maxSpeed float64,
	hwType pkg.OsmHighwayType, graphStorage *datastructure.GraphStorage, wayExtraInfoData wayExtraInfo,
	edgeSet map[datastructure.Index]map[datastructure.Index]struct{}, scannedEdges *[]Edge, wayID int64) {
	from := segment[0]

	to := segment[len(segment)-1]

	if from == to {
		return
	}

	if _, ok := p.nodeIDMap[from.id]; !ok {
		p.nodeIDMap[from.id] = datastructure.Index(len(p.nodeIDMap))
		p.nodeToOsmId[p.nodeIDMap[from.id]] = from.id
	}
	if _, ok := p.nodeIDMap[to.id]; !ok {
		p.nodeIDMap[to.id] = datastructure.Index(len(p.nodeIDMap))
		p.nodeToOsmId[p.nodeIDMap[to.id]] = to.id
	}

	edgePoints := []datastructure.Coordinate{}
	distance := 0.0
	for i := 0; i < len(segment); i++ {
		if i != 0 && i != len(segment)-1 && p.nodeTag[segment[i].id][p.tagStringIdMap.GetID(TRAFFIC_LIGHT)] == 1 {
			// a traffic signal in the middle of the edge is not a graph vertex. move it
			// to the nearer endpoint so the cost function still sees it
			distToFromNode := geo.CalculateHaversineDistance(from.coord.lat, from.coord.lon, segment[i].coord.lat, segment[i].coord.lon)
			distToToNode := geo.CalculateHaversineDistance(to.coord.lat, to.coord.lon, segment[i].coord.lat, segment[i].coord.lon)
			if distToFromNode < distToToNode {
				if _, ok := p.nodeTag[from.id]; !ok {
					p.nodeTag[from.id] = make(map[int]int)
				}
				p.nodeTag[from.id][p.tagStringIdMap.GetID(TRAFFIC_LIGHT)] = 1
			} else {
				if _, ok := p.nodeTag[to.id]; !ok {
					p.nodeTag[to.id] = make(map[int]int)
				}
				p.nodeTag[to.id][p.tagStringIdMap.GetID(TRAFFIC_LIGHT)] = 1
			}
		}
		edgePoints = append(edgePoints, datastructure.NewCoordinate(
			segment[i].coord.lat,
			segment[i].coord.lon,
		))
		if i > 0 {
			distance += geo.CalculateHaversineDistance(segment[i-1].coord.lat, segment[i-1].coord.lon, segment[i].coord.lat, segment[i].coord.lon)
		}
	}

	// simplify edge geometry
	edgePoints = datastructure.FromGeoCoordinates(geo.RamerDouglasPeucker(datastructure.NewGeoCoordinates(edgePoints)))

	isRoundabout := false
	if val, ok := tempMap[JUNCTION]; ok {
		if val == "roundabout" {
			isRoundabout = true
		}
		if val == "circular" {
			isRoundabout = true
		}
	}

	distanceInMeter := distance * 1000

	travelTimeWeight := distanceInMeter / (speed * 1000 / 60) // in minutes

	lanes, err := strconv.Atoi(tempMap[LANES])
	if err != nil {
		lanes = 1
	}

	if _, ok := edgeSet[p.nodeIDMap[from.id]]; !ok {
		edgeSet[p.nodeIDMap[from.id]] = make(map[datastructure.Index]struct{})
	}
	if _, ok := edgeSet[p.nodeIDMap[to.id]]; !ok {
		edgeSet[p.nodeIDMap[to.id]] = make(map[datastructure.Index]struct{})
	}

	if wayExtraInfoData.oneWay {
		if wayExtraInfoData.forward {

			if _, ok := edgeSet[p.nodeIDMap[from.id]][p.nodeIDMap[to.id]]; ok {
				return
			}

			edgeSet[p.nodeIDMap[from.id]][p.nodeIDMap[to.id]] = struct{}{}

			startPointsIndex := graphStorage.GetGlobalPointsCount()

			graphStorage.AppendGlobalPoints(edgePoints)
			endPointsIndex := graphStorage.GetGlobalPointsCount()

			*scannedEdges = append(*scannedEdges, NewEdge(
				uint32(p.nodeIDMap[from.id]),
				uint32(p.nodeIDMap[to.id]),
				travelTimeWeight,
				distanceInMeter,
				hwType,
				isRoundabout,
				datastructure.NewEdgeExtraInfo(
					p.tagStringIdMap.GetID(tempMap[STREET_NAME]),
					uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS])),
					uint8(lanes),
					uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS_LINK])),
					datastructure.Index(startPointsIndex), datastructure.Index(endPointsIndex),
					maxSpeed,
					wayID,
				),
			))

		} else {

			if _, ok := edgeSet[p.nodeIDMap[to.id]][p.nodeIDMap[from.id]]; ok {
				return
			}
			edgeSet[p.nodeIDMap[to.id]][p.nodeIDMap[from.id]] = struct{}{}

			edgePoints = util.ReverseG(edgePoints)

			startPointsIndex := graphStorage.GetGlobalPointsCount()

			graphStorage.AppendGlobalPoints(edgePoints)
			endPointsIndex := graphStorage.GetGlobalPointsCount()

			*scannedEdges = append(*scannedEdges, NewEdge(
				uint32(p.nodeIDMap[to.id]),
				uint32(p.nodeIDMap[from.id]),
				travelTimeWeight,
				distanceInMeter,
				hwType,
				isRoundabout,
				datastructure.NewEdgeExtraInfo(
					p.tagStringIdMap.GetID(tempMap[STREET_NAME]),
					uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS])),
					uint8(lanes),
					uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS_LINK])),
					datastructure.Index(startPointsIndex), datastructure.Index(endPointsIndex),
					maxSpeed,
					wayID,
				),
			))
		}
	} else {
		if _, ok := edgeSet[p.nodeIDMap[from.id]][p.nodeIDMap[to.id]]; ok {
			return
		}
		edgeSet[p.nodeIDMap[from.id]][p.nodeIDMap[to.id]] = struct{}{}
		edgeSet[p.nodeIDMap[to.id]][p.nodeIDMap[from.id]] = struct{}{}

		startPointsIndex := graphStorage.GetGlobalPointsCount()

		graphStorage.AppendGlobalPoints(edgePoints)
		endPointsIndex := graphStorage.GetGlobalPointsCount()

		*scannedEdges = append(*scannedEdges, NewEdge(
			uint32(p.nodeIDMap[from.id]),
			uint32(p.nodeIDMap[to.id]),
			travelTimeWeight,
			distanceInMeter,
			hwType,
			isRoundabout,
			datastructure.NewEdgeExtraInfo(
				p.tagStringIdMap.GetID(tempMap[STREET_NAME]),
				uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS])),
				uint8(lanes),
				uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS_LINK])),
				datastructure.Index(startPointsIndex), datastructure.Index(endPointsIndex),
				maxSpeed,
				wayID,
			),
		))

		// the reversed twin shares the globalPoints range of its forward edge,
		// marked by startIndex > endIndex
		*scannedEdges = append(*scannedEdges, NewEdge(
			uint32(p.nodeIDMap[to.id]),
			uint32(p.nodeIDMap[from.id]),
			travelTimeWeight,
			distanceInMeter,
			hwType,
			isRoundabout,
			datastructure.NewEdgeExtraInfo(
				p.tagStringIdMap.GetID(tempMap[STREET_NAME]),
				uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS])),
				uint8(lanes),
				uint8(p.tagStringIdMap.GetID(tempMap[ROAD_CLASS_LINK])),
				datastructure.Index(endPointsIndex), datastructure.Index(startPointsIndex),
				maxSpeed,
				wayID,
			),
		))
	}
}

func (p *OsmParser) isJunctionNode(nodeID int64) bool {
	return p.wayNodeMap[nodeID] == JUNCTION_NODE
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		if _, ok := acceptedHighway[highway]; ok {
			return true
		}
	} else if junction != "" {
		return true
	}
	return false
}

func max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
