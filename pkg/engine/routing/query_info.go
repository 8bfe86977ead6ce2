package routing

import (
	"github.com/lintang-b-s/trafficx/pkg"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// vertexEdgePair is a search-tree parent pointer: the neighbouring vertex the
// label came from and the directed edge that connects them.
type vertexEdgePair struct {
	vertex da.Index
	edge   da.Index
}

func newVertexEdgePair(vertex, edge da.Index) vertexEdgePair {
	return vertexEdgePair{
		vertex: vertex,
		edge:   edge,
	}
}

func (ve vertexEdgePair) getEdge() da.Index {
	return ve.edge
}

func (ve vertexEdgePair) getVertex() da.Index {
	return ve.vertex
}

type VertexInfo struct {
	travelTime float64
	parent     vertexEdgePair
	heapNode   *da.PriorityQueueNode[da.RoutingQueryKey]
}

func NewVertexInfo(travelTime float64, parent vertexEdgePair, hnode *da.PriorityQueueNode[da.RoutingQueryKey]) *VertexInfo {
	return &VertexInfo{
		travelTime: travelTime,
		parent:     parent,
		heapNode:   hnode,
	}
}

func (vi *VertexInfo) GetTravelTime() float64 {
	return vi.travelTime
}

func (vi *VertexInfo) UpdateTravelTime(tt float64) {
	vi.travelTime = tt
}

func (vi *VertexInfo) UpdateParent(par vertexEdgePair) {
	vi.parent = par
}

func (vi *VertexInfo) GetParent() vertexEdgePair {
	return vi.parent
}

func (vi *VertexInfo) GetHeapNode() *da.PriorityQueueNode[da.RoutingQueryKey] {
	return vi.heapNode
}

func (vi *VertexInfo) SetHeapNode(hnode *da.PriorityQueueNode[da.RoutingQueryKey]) {
	vi.heapNode = hnode
}

func (vi *VertexInfo) IsLabelled() bool {
	return da.Lt(vi.travelTime, pkg.INF_WEIGHT)
}

func initInfWeightVertexInfo(vs []*VertexInfo) {
	for i := range vs {
		vs[i] = NewVertexInfo(pkg.INF_WEIGHT, newVertexEdgePair(da.INVALID_VERTEX_ID, da.INVALID_EDGE_ID), nil)
	}
}
