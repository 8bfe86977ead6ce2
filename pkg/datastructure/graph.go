package datastructure

import (
	"math"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/geo"
)

type Index uint32

const (
	INVALID_VERTEX_ID = Index(math.MaxUint32)
	INVALID_EDGE_ID   = Index(math.MaxUint32)
)

type Vertex struct {
	lat      float64
	lon      float64
	firstOut Index // index of the first outEdge of this vertex in the flattened graph.outEdges array
	firstIn  Index // index of the first inEdge of this vertex in the flattened graph.inEdges array
	id       Index
	osmId    int64
}

func NewVertex(lat, lon float64, id Index) *Vertex {
	return &Vertex{
		lat: lat,
		lon: lon,
		id:  id,
	}
}

func (v *Vertex) SetFirstOut(firstOut Index) {
	v.firstOut = firstOut
}

func (v *Vertex) SetFirstIn(firstIn Index) {
	v.firstIn = firstIn
}

func (v *Vertex) SetId(id Index) {
	v.id = id
}

func (v *Vertex) SetOsmId(osmId int64) {
	v.osmId = osmId
}

func (v *Vertex) GetID() Index {
	return v.id
}

func (v *Vertex) GetLat() float64 {
	return v.lat
}

func (v *Vertex) GetLon() float64 {
	return v.lon
}

func (v *Vertex) GetFirstOut() Index {
	return v.firstOut
}

func (v *Vertex) GetFirstIn() Index {
	return v.firstIn
}

func (v *Vertex) GetOsmId() int64 {
	return v.osmId
}

// outEdge leaves its tail vertex and enters vertex head.
type OutEdge struct {
	weight float64 // minute
	dist   float64 // meter
	edgeId Index
	head   Index
	hwType pkg.OsmHighwayType
}

// inEdge is the reverse-adjacency mirror of the outEdge with the same edgeId.
type InEdge struct {
	weight float64 // minute
	dist   float64 // meter
	edgeId Index
	tail   Index
	hwType pkg.OsmHighwayType
}

func NewOutEdge(edgeId, head Index, weight, dist float64, hwType pkg.OsmHighwayType) *OutEdge {
	return &OutEdge{
		edgeId: edgeId,
		head:   head,
		weight: weight,
		dist:   dist,
		hwType: hwType,
	}
}

func NewInEdge(edgeId, tail Index, weight, dist float64, hwType pkg.OsmHighwayType) *InEdge {
	return &InEdge{
		edgeId: edgeId,
		tail:   tail,
		weight: weight,
		dist:   dist,
		hwType: hwType,
	}
}

func (e *OutEdge) GetWeight() float64 {
	return e.weight
}

// GetEdgeSpeed. edge speed in meter/minute
func (e *OutEdge) GetEdgeSpeed() float64 {
	if e.weight == 0 {
		return 0
	}
	return e.dist / e.weight
}

func (e *OutEdge) SetWeight(travelTime float64) {
	e.weight = travelTime
}

func (e *OutEdge) SetEdgeId(edgeId Index) {
	e.edgeId = edgeId
}

func (e *OutEdge) SetHead(headId Index) {
	e.head = headId
}

func (e *OutEdge) GetLength() float64 {
	return e.dist
}

func (e *OutEdge) GetHead() Index {
	return e.head
}

func (e *OutEdge) GetEdgeId() Index {
	return e.edgeId
}

func (e *OutEdge) GetHighwayType() pkg.OsmHighwayType {
	return e.hwType
}

func (e *InEdge) GetWeight() float64 {
	return e.weight
}

func (e *InEdge) SetWeight(travelTime float64) {
	e.weight = travelTime
}

func (e *InEdge) GetEdgeSpeed() float64 {
	if e.weight == 0 {
		return 0
	}
	return e.dist / e.weight
}

func (e *InEdge) GetLength() float64 {
	return e.dist
}

func (e *InEdge) GetTail() Index {
	return e.tail
}

func (e *InEdge) GetEdgeId() Index {
	return e.edgeId
}

func (e *InEdge) SetTailId(tailId Index) {
	e.tail = tailId
}

func (e *InEdge) SetEdgeId(edgeId Index) {
	e.edgeId = edgeId
}

func (e *InEdge) GetHighwayType() pkg.OsmHighwayType {
	return e.hwType
}

// main road network graph. static (i.e. can't add new edges).
// outEdges is a flattened csr array ordered by tail vertex, outEdges[e].edgeId == e.
// inEdges mirrors every outEdge under the same edgeId, ordered by head vertex.
type Graph struct {
	graphStorage *GraphStorage
	vertices     []*Vertex // + one dummy sentinel vertex at the end
	outEdges     []*OutEdge
	inEdges      []*InEdge
	edgeTail     []Index // edgeId -> tail vertex id

	// strongly connected components
	sccs               []Index   // verticeId -> sccId
	sccCondensationAdj [][]Index // condensation connection of scc of u -> scc of v

	boundingBox *BoundingBox
}

func NewGraph(vertices []*Vertex, outEdges []*OutEdge, inEdges []*InEdge, edgeTail []Index) *Graph {
	return &Graph{vertices: vertices, outEdges: outEdges, inEdges: inEdges, edgeTail: edgeTail}
}

func (g *Graph) NumberOfVertices() int {
	return len(g.vertices) - 1
}

func (g *Graph) NumberOfEdges() int {
	return len(g.outEdges)
}

func (g *Graph) GetOutDegree(u Index) Index {
	// must return Index for uint32 (lot usage of outDegree used as big slice size)
	return g.vertices[u+1].firstOut - g.vertices[u].firstOut
}

func (g *Graph) GetInDegree(u Index) Index {
	return g.vertices[u+1].firstIn - g.vertices[u].firstIn
}

func (g *Graph) GetOutEdge(e Index) *OutEdge {
	return g.outEdges[e]
}

func (g *Graph) GetInEdge(e Index) *InEdge {
	return g.inEdges[e]
}

// GetEdgeTail. tail vertex of the directed edge edgeId.
func (g *Graph) GetEdgeTail(edgeId Index) Index {
	return g.edgeTail[edgeId]
}

// GetEdgeHead. head vertex of the directed edge edgeId.
func (g *Graph) GetEdgeHead(edgeId Index) Index {
	return g.outEdges[edgeId].head
}

func (g *Graph) IsValidEdge(edgeId Index) bool {
	return int(edgeId) < len(g.outEdges)
}

func (g *Graph) ForOutEdgesOf(u Index, handle func(e *OutEdge)) {
	for e := g.vertices[u].firstOut; e < g.vertices[u+1].firstOut; e++ {
		handle(g.outEdges[e])
	}
}

func (g *Graph) ForInEdgesOf(v Index, handle func(e *InEdge)) {
	for e := g.vertices[v].firstIn; e < g.vertices[v+1].firstIn; e++ {
		handle(g.inEdges[e])
	}
}

// ForEdges. iterate over every directed edge of the graph in edgeId order.
func (g *Graph) ForEdges(handle func(e *OutEdge)) {
	for _, e := range g.outEdges {
		handle(e)
	}
}

func (g *Graph) FindOutEdge(u, v Index) (Index, bool) {
	for e := g.vertices[u].firstOut; e < g.vertices[u+1].firstOut; e++ {
		if g.outEdges[e].head == v {
			return e, true
		}
	}
	return 0, false
}

func (g *Graph) GetVertices() []*Vertex {
	vertices := make([]*Vertex, 0, g.NumberOfVertices())
	for _, vertex := range g.vertices[:g.NumberOfVertices()] {
		vertices = append(vertices, vertex)
	}
	return vertices
}

func (g *Graph) GetVertex(u Index) *Vertex {
	return g.vertices[u]
}

func (g *Graph) GetVertexCoordinates(u Index) (float64, float64) {
	v := g.vertices[u]
	return v.lat, v.lon
}

func (g *Graph) SetVertices(vs []*Vertex) {
	g.vertices = vs
}

func (g *Graph) ForVertices(handle func(v *Vertex)) {
	for _, v := range g.vertices[:g.NumberOfVertices()] {
		handle(v)
	}
}

func (g *Graph) GetVerticeIds() []Index {
	nodeIds := make([]Index, 0, g.NumberOfVertices())
	for i := 0; i < g.NumberOfVertices(); i++ {
		nodeIds = append(nodeIds, Index(i))
	}
	return nodeIds
}

func (g *Graph) SetSCCs(sccs []Index) {
	g.sccs = sccs
}

func (g *Graph) SetSCCCondensationAdj(adj [][]Index) {
	g.sccCondensationAdj = adj
}

func (g *Graph) GetSCCOfAVertex(u Index) Index {
	return g.sccs[u]
}

func (g *Graph) GetSCCS() []Index {
	return g.sccs
}

func (g *Graph) SetBoundingBox(bb *BoundingBox) {
	g.boundingBox = bb
}

func (g *Graph) GetBoundingBox() *BoundingBox {
	return g.boundingBox
}

// VerticeUandVAreConnected. true when some directed path u->v exists. O(V_C + E_C) on
// the scc condensation graph.
func (g *Graph) VerticeUandVAreConnected(u, v Index) bool {
	sccOfU := g.GetSCCOfAVertex(u)
	sccOfV := g.GetSCCOfAVertex(v)
	if sccOfU == sccOfV {
		return true
	}

	visited := make([]bool, len(g.sccCondensationAdj))
	stack := []Index{sccOfU}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == sccOfV {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true
		stack = append(stack, g.sccCondensationAdj[cur]...)
	}
	return false
}

func (g *Graph) GetHaversineDistanceFromUtoV(u, v Index) float64 {
	uvertex := g.GetVertex(u)
	vvertex := g.GetVertex(v)
	return geo.CalculateHaversineDistance(uvertex.lat, uvertex.lon, vvertex.lat, vvertex.lon)
}

func (g *Graph) SetGraphStorage(gs *GraphStorage) {
	g.graphStorage = gs
}

func (g *Graph) GetGraphStorage() *GraphStorage {
	return g.graphStorage
}

func (g *Graph) SetOutEdge(id Index, e *OutEdge) {
	g.outEdges[id] = e
}

func (g *Graph) SetInEdge(id Index, e *InEdge) {
	g.inEdges[id] = e
}

func (g *Graph) GetNumberOfVerticesWithDummyVertex() int {
	return len(g.vertices)
}

func (g *Graph) IsTrafficLight(vertexId Index) bool {
	return g.graphStorage.GetTrafficLight(vertexId)
}

func (g *Graph) IsRoundabout(edgeId Index) bool {
	_, roundabout := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return roundabout
}

func (g *Graph) GetStreetName(edgeId Index) string {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return g.graphStorage.tagStringIDMap.GetStr(edgeInfo.streetName)
}

func (g *Graph) GetRoadClass(edgeId Index) string {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return g.graphStorage.tagStringIDMap.GetStr(int(edgeInfo.roadClass))
}

func (g *Graph) GetRoadClassLink(edgeId Index) string {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return g.graphStorage.tagStringIDMap.GetStr(int(edgeInfo.roadClassLink))
}

func (g *Graph) GetRoadLanes(edgeId Index) uint8 {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return edgeInfo.lanes
}

func (g *Graph) GetStreetDirection(edgeId Index) [2]bool {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return g.graphStorage.GetStreetDirection(edgeInfo.osmWayId)
}

func (g *Graph) GetOsmWayId(edgeId Index) int64 {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return edgeInfo.osmWayId
}

// GetMaxSpeed. osm maxspeed of the edge in km/h. 0 when the way has no maxspeed tag.
func (g *Graph) GetMaxSpeed(edgeId Index) float64 {
	edgeInfo, _ := g.graphStorage.GetEdgeExtraInfo(edgeId)
	return edgeInfo.maxSpeed
}

// GetEdgeGeometry. full pillar geometry of the edge (tail coordinate first).
func (g *Graph) GetEdgeGeometry(edgeID Index) []Coordinate {
	return g.graphStorage.GetEdgeGeometry(edgeID)
}

func (g *Graph) SetEdgeInfo(id Index, edgeInfo EdgeExtraInfo) {
	g.graphStorage.mapEdgeInfo[id] = edgeInfo
}

func (g *Graph) SetRoundabout(edgeID Index, isRoundabout bool) {
	g.graphStorage.SetRoundabout(edgeID, isRoundabout)
}

func (g *Graph) SetNodeTrafficLight(vId Index) {
	g.graphStorage.SetTrafficLight(vId)
}
