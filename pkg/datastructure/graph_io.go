package datastructure

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/util"
)

// WriteGraph serialize the graph (vertices, csr edges, sccs, bounding box and the
// graph storage) into a bzip2 compressed text file.
func (g *Graph) WriteGraph(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	defer bz.Close()

	w := bufio.NewWriter(bz)

	fmt.Fprintf(w, "%d %d\n", len(g.vertices), g.NumberOfEdges())

	for vId := 0; vId < len(g.vertices); vId++ {
		v := g.vertices[vId]
		latF := strconv.FormatFloat(v.lat, 'f', -1, 64)
		lonF := strconv.FormatFloat(v.lon, 'f', -1, 64)

		fmt.Fprintf(w, "%d %d %d %s %s %d\n",
			v.firstOut, v.firstIn, v.id, latF, lonF, v.osmId)
	}

	for _, e := range g.outEdges {
		weightF := strconv.FormatFloat(e.weight, 'f', -1, 64)
		distF := strconv.FormatFloat(e.dist, 'f', -1, 64)

		fmt.Fprintf(w, "%d %d %s %s %d\n",
			e.edgeId, e.head, weightF, distF, e.hwType)
	}

	for _, e := range g.inEdges {
		weightF := strconv.FormatFloat(e.weight, 'f', -1, 64)
		distF := strconv.FormatFloat(e.dist, 'f', -1, 64)

		fmt.Fprintf(w, "%d %d %s %s %d\n",
			e.edgeId, e.tail, weightF, distF, e.hwType)
	}

	// write sccs
	for i := 0; i < len(g.sccs); i++ {
		fmt.Fprintf(w, "%d", g.sccs[i])
		if i < len(g.sccs)-1 {
			fmt.Fprintf(w, " ")
		}
	}

	fmt.Fprintf(w, "\n")

	minLat := strconv.FormatFloat(g.boundingBox.GetMinLat(), 'f', -1, 64)
	minLon := strconv.FormatFloat(g.boundingBox.GetMinLon(), 'f', -1, 64)
	maxLat := strconv.FormatFloat(g.boundingBox.GetMaxLat(), 'f', -1, 64)
	maxLon := strconv.FormatFloat(g.boundingBox.GetMaxLon(), 'f', -1, 64)
	fmt.Fprintf(w, "%s %s %s %s\n", minLat, minLon, maxLat, maxLon)

	// write graph storage

	fmt.Fprintf(w, "%d\n", len(g.graphStorage.globalPoints))
	for i := 0; i < len(g.graphStorage.globalPoints); i++ {
		point := g.graphStorage.globalPoints[i]
		pointLat := strconv.FormatFloat(point.Lat, 'f', -1, 64)
		pointLon := strconv.FormatFloat(point.Lon, 'f', -1, 64)
		fmt.Fprintf(w, "%s %s\n", pointLat, pointLon)
	}

	fmt.Fprintf(w, "%d\n", len(g.graphStorage.roundaboutFlag))
	for i := 0; i < len(g.graphStorage.roundaboutFlag); i++ {
		fmt.Fprintf(w, "%d\n", g.graphStorage.roundaboutFlag[i])
	}

	fmt.Fprintf(w, "%d\n", len(g.graphStorage.nodeTrafficLight))
	for i := 0; i < len(g.graphStorage.nodeTrafficLight); i++ {
		fmt.Fprintf(w, "%d\n", g.graphStorage.nodeTrafficLight[i])
	}

	fmt.Fprintf(w, "%d\n", len(g.graphStorage.mapEdgeInfo))
	for i := 0; i < len(g.graphStorage.mapEdgeInfo); i++ {
		edgeInfo := g.graphStorage.mapEdgeInfo[i]
		maxSpeedF := strconv.FormatFloat(edgeInfo.maxSpeed, 'f', -1, 64)
		fmt.Fprintf(w, "%d %d %d %d %d %d %s %d\n", edgeInfo.startPointsIndex, edgeInfo.endPointsIndex,
			edgeInfo.streetName, edgeInfo.roadClass, edgeInfo.roadClassLink, edgeInfo.lanes,
			maxSpeedF, edgeInfo.osmWayId)
	}

	fmt.Fprintf(w, "%d\n", len(g.graphStorage.streetDirection))
	for wayId, streetDir := range g.graphStorage.streetDirection {
		fmt.Fprintf(w, "%d %t %t\n", wayId, streetDir[0], streetDir[1])
	}

	sortedKeys := make([]int, 0)
	for key := range g.graphStorage.tagStringIDMap.IDToStr {
		sortedKeys = append(sortedKeys, key)
	}

	fmt.Fprintf(w, "%d\n", len(sortedKeys))

	sort.Slice(sortedKeys, func(i, j int) bool {
		return sortedKeys[i] < sortedKeys[j]
	})

	for _, key := range sortedKeys {
		val := g.graphStorage.tagStringIDMap.GetStr(key)

		fmt.Fprintf(w, "%d %s\n", key, strconv.Quote(val))
	}

	// write scc condensation
	for i := 0; i < len(g.sccCondensationAdj); i++ {
		for j := 0; j < len(g.sccCondensationAdj[i]); j++ {
			fmt.Fprintf(w, "%d", g.sccCondensationAdj[i][j])
			if j < len(g.sccCondensationAdj[i])-1 {
				fmt.Fprintf(w, " ")
			}
		}
		if len(g.sccCondensationAdj[i]) == 0 {
			fmt.Fprintf(w, "empty")
		}
		fmt.Fprintf(w, "\n")
	}

	return w.Flush()
}

func fields(s string) []string {
	return util.Fields(s)
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func ParseIndex(s string) (Index, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("value %s overflows uint32", s)
	}
	return Index(u), nil
}

func ReadGraph(filename string) (*Graph, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)

	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(bz)

	line, err := util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens := fields(line)
	if len(tokens) != 2 {
		return nil, fmt.Errorf("expected 2 header fields, got %d", len(tokens))
	}

	numVertices, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}

	numEdges, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}

	vertices := make([]*Vertex, numVertices)

	for i := 0; i < int(numVertices); i++ {
		vertexLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		vertices[i], err = parseVertex(vertexLine)
		if err != nil {
			return nil, err
		}
	}

	outEdges := make([]*OutEdge, numEdges)
	for i := 0; i < int(numEdges); i++ {
		outEdgeLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		outEdges[i], err = parseOutEdge(outEdgeLine)
		if err != nil {
			return nil, err
		}
	}

	inEdges := make([]*InEdge, numEdges)
	edgeTail := make([]Index, numEdges)
	for i := 0; i < int(numEdges); i++ {
		inEdgeLine, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		inEdges[i], err = parseInEdge(inEdgeLine)
		if err != nil {
			return nil, err
		}
		edgeTail[inEdges[i].edgeId] = inEdges[i].tail
	}

	// read sccs
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}
	tokens = fields(line)
	if len(tokens) != int(numVertices-1) {
		return nil, fmt.Errorf("expected %d sccs, got %d", numVertices-1, len(tokens))
	}
	sccs := make([]Index, numVertices-1)
	for i, token := range tokens {
		scc, err := ParseIndex(token)
		if err != nil {
			return nil, err
		}
		sccs[i] = scc
	}

	// read bounding box
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}
	tokens = fields(line)

	minLat, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	minLon, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}
	maxLat, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	maxLon, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}
	bb := NewBoundingBox(minLat, minLon, maxLat, maxLon)

	// read graph storage
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	numGlobalPoints := parseInt(tokens[0])
	globalPoints := make([]Coordinate, numGlobalPoints)
	for i := 0; i < numGlobalPoints; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens = fields(line)

		lat, err := strconv.ParseFloat(tokens[0], 64)
		if err != nil {
			return nil, fmt.Errorf("lat: %w", err)
		}
		lon, err := strconv.ParseFloat(tokens[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lon: %w", err)
		}
		globalPoints[i] = NewCoordinate(lat, lon)
	}

	// roundabout flag
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	numRoundaboutFlag := parseInt(tokens[0])

	roundaboutFlag := make([]Index, numRoundaboutFlag)
	for i := 0; i < numRoundaboutFlag; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens = fields(line)
		roundaboutFlag[i] = Index(parseInt(tokens[0]))
	}

	// traffic light flag
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	numTrafficFlag := parseInt(tokens[0])
	trafficLight := make([]Index, numTrafficFlag)
	for i := 0; i < numTrafficFlag; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens = fields(line)
		trafficLight[i] = Index(parseInt(tokens[0]))
	}

	// map edge info
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	numMapEdgeInfos := parseInt(tokens[0])
	mapEdgeInfos := make([]EdgeExtraInfo, numMapEdgeInfos)
	for i := 0; i < numMapEdgeInfos; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens = fields(line)
		if len(tokens) != 8 {
			return nil, fmt.Errorf("expected 8 edge info fields, got %d", len(tokens))
		}
		startPointsIndex := parseInt(tokens[0])
		endPointsIndex := parseInt(tokens[1])
		streetName := parseInt(tokens[2])
		roadClass := parseInt(tokens[3])
		roadClassLink := parseInt(tokens[4])
		lanes := parseInt(tokens[5])
		maxSpeed, err := strconv.ParseFloat(tokens[6], 64)
		if err != nil {
			return nil, fmt.Errorf("maxSpeed: %w", err)
		}
		osmWayId, err := strconv.ParseInt(tokens[7], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("osmWayId: %w", err)
		}

		mapEdgeInfos[i] = NewEdgeExtraInfo(streetName, uint8(roadClass),
			uint8(lanes), uint8(roadClassLink), Index(startPointsIndex), Index(endPointsIndex),
			maxSpeed, osmWayId)
	}

	// street direction
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	numStreetDirections := parseInt(tokens[0])
	streetDirections := make(map[int64][2]bool, numStreetDirections)
	for i := 0; i < numStreetDirections; i++ {
		line, err = util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens = fields(line)
		wayId, err := strconv.ParseInt(tokens[0], 10, 64)
		if err != nil {
			return nil, err
		}
		forward, err := strconv.ParseBool(tokens[1])
		if err != nil {
			return nil, err
		}
		backward, err := strconv.ParseBool(tokens[2])
		if err != nil {
			return nil, err
		}

		streetDirections[wayId] = [2]bool{forward, backward}
	}

	// tagstring idmap
	line, err = util.ReadLine(br)
	if err != nil {
		return nil, err
	}

	tokens = fields(line)
	tagStringIdMap := util.NewIdMap()
	numIdMapItems := parseInt(tokens[0])
	for i := 0; i < numIdMapItems; i++ {

		line, err = util.ReadLine(br)

		if err != nil {
			return nil, err
		}
		tokens = fields(line)
		if len(tokens) < 2 {
			continue
		}

		val := tokens[1]

		if len(tokens) > 2 {
			for i := 2; i < len(tokens); i++ {
				val += " " + tokens[i]
			}
		}

		unquotedVal, err := strconv.Unquote(val)
		if err != nil {
			return nil, err
		}
		key := parseInt(tokens[0])
		tagStringIdMap.SetID(key, unquotedVal)
	}

	sccCondensationAdj := make([][]Index, 0)
	for {
		line, err = util.ReadLine(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		tokens = fields(line)
		if len(tokens) == 0 {
			continue
		}
		adj := make([]Index, 0)
		if tokens[0] != "empty" {
			for _, token := range tokens {
				scc, err := ParseIndex(token)
				if err != nil {
					return nil, err
				}
				adj = append(adj, scc)
			}
		}
		sccCondensationAdj = append(sccCondensationAdj, adj)
	}

	graphStorage := BuildGraphStorage(globalPoints,
		roundaboutFlag, trafficLight, mapEdgeInfos,
		tagStringIdMap, streetDirections)

	graph := NewGraph(vertices, outEdges, inEdges, edgeTail)
	graph.SetGraphStorage(graphStorage)
	graph.SetSCCs(sccs)
	graph.SetSCCCondensationAdj(sccCondensationAdj)
	graph.SetBoundingBox(bb)
	return graph, nil
}

func parseVertex(line string) (*Vertex, error) {
	tokens := fields(line)
	if len(tokens) != 6 {
		return nil, fmt.Errorf("expected 6 vertex fields, got %d", len(tokens))
	}
	firstOut, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	firstIn, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}

	id, err := ParseIndex(tokens[2])
	if err != nil {
		return nil, err
	}

	lat, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return nil, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return nil, fmt.Errorf("lon: %w", err)
	}

	osmId, err := strconv.ParseInt(tokens[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("osmId: %w", err)
	}

	return &Vertex{
		firstOut: firstOut, firstIn: firstIn,
		lat: lat, lon: lon, id: id, osmId: osmId,
	}, nil
}

func parseOutEdge(line string) (*OutEdge, error) {
	tokens := fields(line)
	if len(tokens) != 5 {
		return nil, fmt.Errorf("expected 5 out edge fields, got %d", len(tokens))
	}
	edgeId, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	head, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}
	weight, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, err
	}
	dist, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return nil, err
	}

	hwType, err := strconv.ParseUint(tokens[4], 10, 8)
	if err != nil {
		return nil, err
	}

	return NewOutEdge(edgeId, head, weight, dist, pkg.OsmHighwayType(hwType)), nil
}

func parseInEdge(line string) (*InEdge, error) {
	tokens := fields(line)
	if len(tokens) != 5 {
		return nil, fmt.Errorf("expected 5 in edge fields, got %d", len(tokens))
	}
	edgeId, err := ParseIndex(tokens[0])
	if err != nil {
		return nil, err
	}
	tail, err := ParseIndex(tokens[1])
	if err != nil {
		return nil, err
	}
	weight, err := strconv.ParseFloat(tokens[2], 64)
	if err != nil {
		return nil, err
	}
	dist, err := strconv.ParseFloat(tokens[3], 64)
	if err != nil {
		return nil, err
	}

	hwType, err := strconv.ParseUint(tokens[4], 10, 8)
	if err != nil {
		return nil, err
	}

	return NewInEdge(edgeId, tail, weight, dist, pkg.OsmHighwayType(hwType)), nil
}
