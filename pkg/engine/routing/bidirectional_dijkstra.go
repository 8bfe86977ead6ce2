package routing

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// BidirectionalDijkstra runs a forward search from s and a backward search
// from t until their frontiers guarantee no better meeting point exists. an
// upperBound above one keeps both searches running past the optimum, which is
// how the alternative-route search collects via-vertex candidates (page 15,
// Customizable Route Planning in Road Networks, Delling et al.).
type BidirectionalDijkstra struct {
	engine *RoutingEngine

	costFunction costfunction.CostFunction
	edgeFilter   func(da.Index) bool

	shortestWeight float64
	meetingVertex  da.Index

	forwardInfo  map[da.Index]*VertexInfo
	backwardInfo map[da.Index]*VertexInfo

	forwardPq  *da.MinHeap[da.RoutingQueryKey]
	backwardPq *da.MinHeap[da.RoutingQueryKey]

	// every vertex labelled by both searches, in discovery order
	viaVertices []da.Index

	upperBound float64

	hasVertexCosts  bool
	numSettledNodes int
}

func NewBidirectionalDijkstra(engine *RoutingEngine, costFunction costfunction.CostFunction,
	edgeFilter func(da.Index) bool, upperBound float64) *BidirectionalDijkstra {
	return &BidirectionalDijkstra{
		engine:         engine,
		costFunction:   costFunction,
		edgeFilter:     edgeFilter,
		shortestWeight: 2 * pkg.INF_WEIGHT,
		meetingVertex:  da.INVALID_VERTEX_ID,
		forwardInfo:    make(map[da.Index]*VertexInfo),
		backwardInfo:   make(map[da.Index]*VertexInfo),
		forwardPq:      da.NewFourAryHeap[da.RoutingQueryKey](),
		backwardPq:     da.NewFourAryHeap[da.RoutingQueryKey](),
		viaVertices:    make([]da.Index, 0),
		upperBound:     upperBound,
		hasVertexCosts: costFunction.HasVertexCosts(),
	}
}

func (bs *BidirectionalDijkstra) ShortestPathSearch(s, t da.Index) (float64, float64,
	[]da.Coordinate, []da.OutEdge, bool) {
	if s == t {
		bs.shortestWeight = 0
		return 0, 0, []da.Coordinate{}, []da.OutEdge{}, true
	}

	fNode := da.NewPriorityQueueNode(0, da.NewRoutingQueryKey(s))
	bs.forwardInfo[s] = NewVertexInfo(0, newVertexEdgePair(da.INVALID_VERTEX_ID, da.INVALID_EDGE_ID), fNode)
	bs.forwardPq.Insert(fNode)

	bNode := da.NewPriorityQueueNode(0, da.NewRoutingQueryKey(t))
	bs.backwardInfo[t] = NewVertexInfo(0, newVertexEdgePair(da.INVALID_VERTEX_ID, da.INVALID_EDGE_ID), bNode)
	bs.backwardPq.Insert(bNode)

	for bs.forwardPq.Size() > 0 && bs.backwardPq.Size() > 0 {
		// once both frontiers passed the best meeting weight, no undiscovered
		// path can beat it. the upperBound widens the window for alternatives.
		if bs.forwardPq.GetMinrank()+bs.backwardPq.GetMinrank() > bs.shortestWeight*bs.upperBound {
			break
		}

		if bs.forwardPq.GetMinrank() <= bs.backwardPq.GetMinrank() {
			bs.forwardSearch(s, t)
		} else {
			bs.backwardSearch(s, t)
		}
		bs.numSettledNodes++
	}

	if bs.shortestWeight == 2*pkg.INF_WEIGHT {
		return 0, 0, nil, nil, false
	}

	edges := bs.engine.pathEdges(bs.reconstructEdgeIds(s, t))
	travelTime, dist, coords := bs.engine.assembleRoute(bs.costFunction, edges)

	return travelTime, dist, coords, edges, true
}

// GetShortestWeight is the weight of the found path under the bound cost
// function.
func (bs *BidirectionalDijkstra) GetShortestWeight() float64 {
	return bs.shortestWeight
}

func (bs *BidirectionalDijkstra) GetMeetingVertex() da.Index {
	return bs.meetingVertex
}

func (bs *BidirectionalDijkstra) GetViaVertices() []da.Index {
	return bs.viaVertices
}

func (bs *BidirectionalDijkstra) GetForwardInfo() map[da.Index]*VertexInfo {
	return bs.forwardInfo
}

func (bs *BidirectionalDijkstra) GetBackwardInfo() map[da.Index]*VertexInfo {
	return bs.backwardInfo
}

// crossingCost is the vertex delay paid when a path runs through v. the
// endpoints of the query pay nothing, the journey starts and ends there.
func (bs *BidirectionalDijkstra) crossingCost(v, s, t da.Index) float64 {
	if !bs.hasVertexCosts || v == s || v == t {
		return 0
	}
	return bs.costFunction.GetVertexCost(v)
}

func (bs *BidirectionalDijkstra) forwardSearch(source, target da.Index) {
	queryKey, _ := bs.forwardPq.ExtractMin()
	uItem := queryKey.GetItem()
	uId := uItem.GetVertex()

	vertexCost := 0.0
	if bs.hasVertexCosts && uId != source {
		vertexCost = bs.costFunction.GetVertexCost(uId)
	}

	uTravelTime := bs.forwardInfo[uId].GetTravelTime()

	bs.engine.graph.ForOutEdgesOf(uId, func(outArc *da.OutEdge) {
		if bs.edgeFilter != nil && !bs.edgeFilter(outArc.GetEdgeId()) {
			return
		}

		vId := outArc.GetHead()

		newTravelTime := uTravelTime + vertexCost + bs.costFunction.GetWeight(outArc)

		if da.Ge(newTravelTime, pkg.INF_WEIGHT) {
			return
		}

		vInfo, vAlreadyLabelled := bs.forwardInfo[vId]
		if vAlreadyLabelled && da.Ge(newTravelTime, vInfo.GetTravelTime()) {
			// newTravelTime is not better, do nothing
			return
		}

		// newTravelTime is better, update the label
		if vAlreadyLabelled {
			vInfo.UpdateTravelTime(newTravelTime)
			vInfo.UpdateParent(newVertexEdgePair(uId, outArc.GetEdgeId()))
			bs.forwardPq.DecreaseKey(vInfo.GetHeapNode(), newTravelTime)
		} else {
			vhNode := da.NewPriorityQueueNode(newTravelTime, da.NewRoutingQueryKey(vId))
			bs.forwardInfo[vId] = NewVertexInfo(newTravelTime, newVertexEdgePair(uId, outArc.GetEdgeId()), vhNode)
			bs.forwardPq.Insert(vhNode)
		}

		// v now carries labels from both directions: a meeting point. every
		// label improvement re-evaluates it, so the final weight uses the
		// final labels.
		if bInfo, ok := bs.backwardInfo[vId]; ok {
			newPathWeight := newTravelTime + bs.crossingCost(vId, source, target) + bInfo.GetTravelTime()
			if da.Lt(newPathWeight, bs.shortestWeight) {
				bs.shortestWeight = newPathWeight
				bs.meetingVertex = vId
			}
			bs.viaVertices = append(bs.viaVertices, vId)
		}
	})
}

func (bs *BidirectionalDijkstra) backwardSearch(source, target da.Index) {
	queryKey, _ := bs.backwardPq.ExtractMin()
	uItem := queryKey.GetItem()
	uId := uItem.GetVertex()

	vertexCost := 0.0
	if bs.hasVertexCosts && uId != target {
		vertexCost = bs.costFunction.GetVertexCost(uId)
	}

	uTravelTime := bs.backwardInfo[uId].GetTravelTime()

	bs.engine.graph.ForInEdgesOf(uId, func(inArc *da.InEdge) {
		if bs.edgeFilter != nil && !bs.edgeFilter(inArc.GetEdgeId()) {
			return
		}

		vId := inArc.GetTail()

		newTravelTime := uTravelTime + vertexCost + bs.costFunction.GetWeight(inArc)

		if da.Ge(newTravelTime, pkg.INF_WEIGHT) {
			return
		}

		vInfo, vAlreadyLabelled := bs.backwardInfo[vId]
		if vAlreadyLabelled && da.Ge(newTravelTime, vInfo.GetTravelTime()) {
			// newTravelTime is not better, do nothing
			return
		}

		// newTravelTime is better, update the label
		if vAlreadyLabelled {
			vInfo.UpdateTravelTime(newTravelTime)
			vInfo.UpdateParent(newVertexEdgePair(uId, inArc.GetEdgeId()))
			bs.backwardPq.DecreaseKey(vInfo.GetHeapNode(), newTravelTime)
		} else {
			vhNode := da.NewPriorityQueueNode(newTravelTime, da.NewRoutingQueryKey(vId))
			bs.backwardInfo[vId] = NewVertexInfo(newTravelTime, newVertexEdgePair(uId, inArc.GetEdgeId()), vhNode)
			bs.backwardPq.Insert(vhNode)
		}

		if fInfo, ok := bs.forwardInfo[vId]; ok {
			newPathWeight := fInfo.GetTravelTime() + bs.crossingCost(vId, source, target) + newTravelTime
			if da.Lt(newPathWeight, bs.shortestWeight) {
				bs.shortestWeight = newPathWeight
				bs.meetingVertex = vId
			}
			bs.viaVertices = append(bs.viaVertices, vId)
		}
	})
}

func (bs *BidirectionalDijkstra) reconstructEdgeIds(s, t da.Index) []da.Index {
	edgeIds := make([]da.Index, 0)

	// meeting vertex back to s over the forward tree
	cur := bs.meetingVertex
	for cur != s {
		parent := bs.forwardInfo[cur].GetParent()
		if parent.getEdge() == da.INVALID_EDGE_ID {
			break
		}
		edgeIds = append(edgeIds, parent.getEdge())
		cur = parent.getVertex()
	}
	for i, j := 0, len(edgeIds)-1; i < j; i, j = i+1, j-1 {
		edgeIds[i], edgeIds[j] = edgeIds[j], edgeIds[i]
	}

	// meeting vertex onward to t over the backward tree
	cur = bs.meetingVertex
	for cur != t {
		parent := bs.backwardInfo[cur].GetParent()
		if parent.getEdge() == da.INVALID_EDGE_ID {
			break
		}
		edgeIds = append(edgeIds, parent.getEdge())
		cur = parent.getVertex()
	}

	return edgeIds
}
