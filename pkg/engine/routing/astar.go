package routing

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// Astar is a goal-directed one-to-one search with a haversine potential. the
// potential scales the great-circle distance to the target by the cost
// function's admissible minimum weight per meter, so it stays a lower bound
// for any bound cost function, including traffic-adjusted ones.
type Astar struct {
	engine *RoutingEngine

	costFunction costfunction.CostFunction
	edgeFilter   func(da.Index) bool

	forwardInfo map[da.Index]*VertexInfo

	pq *da.MinHeap[da.RoutingQueryKey]

	shortestWeight float64

	hasVertexCosts  bool
	numSettledNodes int
}

func NewAstar(engine *RoutingEngine, costFunction costfunction.CostFunction,
	edgeFilter func(da.Index) bool) *Astar {
	return &Astar{
		engine:          engine,
		costFunction:    costFunction,
		edgeFilter:      edgeFilter,
		forwardInfo:     make(map[da.Index]*VertexInfo),
		pq:              da.NewFourAryHeap[da.RoutingQueryKey](),
		shortestWeight:  pkg.INF_WEIGHT,
		hasVertexCosts:  costFunction.HasVertexCosts(),
		numSettledNodes: 0,
	}
}

func (us *Astar) potential(u, t da.Index) float64 {
	distMeter := us.engine.graph.GetHaversineDistanceFromUtoV(u, t) * 1000.0
	return distMeter * us.costFunction.MinWeightPerDistance()
}

func (us *Astar) ShortestPathSearch(s, t da.Index) (float64, float64, []da.Coordinate,
	[]da.OutEdge, bool) {
	if s == t {
		us.shortestWeight = 0
		return 0, 0, []da.Coordinate{}, []da.OutEdge{}, true
	}

	shNode := da.NewPriorityQueueNode(us.potential(s, t), da.NewRoutingQueryKey(s))
	us.forwardInfo[s] = NewVertexInfo(0, newVertexEdgePair(da.INVALID_VERTEX_ID, da.INVALID_EDGE_ID), shNode)
	us.pq.Insert(shNode)

	finish := false
	for !us.pq.IsEmpty() {
		if finish {
			break
		}

		finish = us.graphSearchUni(s, t)
		us.numSettledNodes++
	}

	tInfo, ok := us.forwardInfo[t]
	if !ok || !finish {
		return 0, 0, nil, nil, false
	}

	us.shortestWeight = tInfo.GetTravelTime()

	edges := us.engine.pathEdges(us.reconstructEdgeIds(s, t))
	travelTime, dist, coords := us.engine.assembleRoute(us.costFunction, edges)

	return travelTime, dist, coords, edges, true
}

// GetShortestWeight is the weight of the found path under the bound cost
// function.
func (us *Astar) GetShortestWeight() float64 {
	return us.shortestWeight
}

func (us *Astar) graphSearchUni(source, target da.Index) bool {
	queryKey, _ := us.pq.ExtractMin()
	uItem := queryKey.GetItem()
	uId := uItem.GetVertex()

	if uId == target {
		return true
	}

	// cost of crossing u itself (traffic lights). the source is where the
	// journey starts, no crossing happens there.
	vertexCost := 0.0
	if us.hasVertexCosts && uId != source {
		vertexCost = us.costFunction.GetVertexCost(uId)
	}

	uTravelTime := us.forwardInfo[uId].GetTravelTime()

	us.engine.graph.ForOutEdgesOf(uId, func(outArc *da.OutEdge) {
		if us.edgeFilter != nil && !us.edgeFilter(outArc.GetEdgeId()) {
			return
		}

		vId := outArc.GetHead()

		newTravelTime := uTravelTime + vertexCost + us.costFunction.GetWeight(outArc)

		if da.Ge(newTravelTime, pkg.INF_WEIGHT) {
			return
		}

		vInfo, vAlreadyLabelled := us.forwardInfo[vId]
		if vAlreadyLabelled && da.Ge(newTravelTime, vInfo.GetTravelTime()) {
			// newTravelTime is not better, do nothing
			return
		}

		// rank the queue by label plus lower bound to the target
		rank := newTravelTime + us.potential(vId, target)

		// newTravelTime is better, update the label
		if vAlreadyLabelled {
			vInfo.UpdateTravelTime(newTravelTime)
			vInfo.UpdateParent(newVertexEdgePair(uId, outArc.GetEdgeId()))

			// key already in the priority queue, decrease its key
			us.pq.DecreaseKey(vInfo.GetHeapNode(), rank)
		} else {
			vhNode := da.NewPriorityQueueNode(rank, da.NewRoutingQueryKey(vId))
			us.forwardInfo[vId] = NewVertexInfo(newTravelTime, newVertexEdgePair(uId, outArc.GetEdgeId()), vhNode)

			// key not in the priority queue, insert it
			us.pq.Insert(vhNode)
		}
	})

	return false
}

func (us *Astar) reconstructEdgeIds(s, t da.Index) []da.Index {
	edgeIds := make([]da.Index, 0)

	cur := t
	for cur != s {
		parent := us.forwardInfo[cur].GetParent()
		if parent.getEdge() == da.INVALID_EDGE_ID {
			break
		}
		edgeIds = append(edgeIds, parent.getEdge())
		cur = parent.getVertex()
	}

	for i, j := 0, len(edgeIds)-1; i < j; i, j = i+1, j-1 {
		edgeIds[i], edgeIds[j] = edgeIds[j], edgeIds[i]
	}
	return edgeIds
}
