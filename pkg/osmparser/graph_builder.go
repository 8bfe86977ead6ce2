package osmparser

import (
	"math"

	"github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// BuildGraph assembles the flattened csr adjacency arrays from the scanned
// edges. final edge ids are assigned by position in the tail-ordered outEdges
// array, so graph.GetOutEdge(e).GetEdgeId() == e always holds and per-edge
// extra info / roundabout flags are stored under the same ids. coords[v] must
// hold the coordinate of vertex v.
func BuildGraph(coords []NodeCoord, scannedEdges []Edge, graphStorage *datastructure.GraphStorage) *datastructure.Graph {
	numV := len(coords)

	outBuckets := make([][]int, numV) // scannedEdges indices grouped by tail vertex
	for i := range scannedEdges {
		tail := scannedEdges[i].GetFrom()
		outBuckets[tail] = append(outBuckets[tail], i)
	}

	var (
		vertices = make([]*datastructure.Vertex, numV+1)
		outEdges = make([]*datastructure.OutEdge, 0, len(scannedEdges))
		edgeTail = make([]datastructure.Index, len(scannedEdges))
	)

	bbox := datastructure.NewBoundingBox(math.MaxFloat64, math.MaxFloat64,
		-math.MaxFloat64, -math.MaxFloat64)

	for v := 0; v < numV; v++ {
		vertices[v] = datastructure.NewVertex(coords[v].lat, coords[v].lon, datastructure.Index(v))
		vertices[v].SetFirstOut(datastructure.Index(len(outEdges)))
		bbox.Extend(coords[v].lat, coords[v].lon)

		for _, ei := range outBuckets[v] {
			e := scannedEdges[ei]
			edgeId := datastructure.Index(len(outEdges))

			outEdges = append(outEdges, datastructure.NewOutEdge(edgeId, e.GetTo(),
				e.weight, e.distance, e.hwType))
			edgeTail[edgeId] = datastructure.Index(v)

			graphStorage.AppendMapEdgeInfo(e.info)
			graphStorage.SetRoundabout(edgeId, e.roundabout)
		}
	}

	// sentinel vertex so that GetOutDegree/GetInDegree of the last real vertex works
	vertices[numV] = datastructure.NewVertex(0, 0, datastructure.Index(numV))
	vertices[numV].SetFirstOut(datastructure.Index(len(outEdges)))

	// reverse adjacency ordered by head vertex, mirroring every outEdge under the
	// same edge id
	inBuckets := make([][]datastructure.Index, numV)
	for e := 0; e < len(outEdges); e++ {
		head := outEdges[e].GetHead()
		inBuckets[head] = append(inBuckets[head], datastructure.Index(e))
	}

	inEdges := make([]*datastructure.InEdge, 0, len(outEdges))
	for v := 0; v < numV; v++ {
		vertices[v].SetFirstIn(datastructure.Index(len(inEdges)))
		for _, edgeId := range inBuckets[v] {
			e := outEdges[edgeId]
			inEdges = append(inEdges, datastructure.NewInEdge(edgeId, edgeTail[edgeId],
				e.GetWeight(), e.GetLength(), e.GetHighwayType()))
		}
	}
	vertices[numV].SetFirstIn(datastructure.Index(len(inEdges)))

	graph := datastructure.NewGraph(vertices, outEdges, inEdges, edgeTail)
	graph.SetGraphStorage(graphStorage)
	graph.SetBoundingBox(bbox)

	return graph
}
