package routing

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
)

// Dijkstra is the plain one-to-one search without a heuristic. queries prefer
// the goal-directed variants, this one doubles as their correctness baseline.
type Dijkstra struct {
	engine *RoutingEngine

	costFunction costfunction.CostFunction
	edgeFilter   func(da.Index) bool

	forwardInfo []*VertexInfo

	pq *da.MinHeap[da.RoutingQueryKey]

	shortestWeight float64

	hasVertexCosts  bool
	numSettledNodes int
}

func NewDijkstra(engine *RoutingEngine, costFunction costfunction.CostFunction,
	edgeFilter func(da.Index) bool) *Dijkstra {
	return &Dijkstra{
		engine:          engine,
		costFunction:    costFunction,
		edgeFilter:      edgeFilter,
		pq:              da.NewFourAryHeap[da.RoutingQueryKey](),
		shortestWeight:  pkg.INF_WEIGHT,
		hasVertexCosts:  costFunction.HasVertexCosts(),
		numSettledNodes: 0,
	}
}

func (us *Dijkstra) ShortestPathSearch(s, t da.Index) (float64, float64, []da.Coordinate,
	[]da.OutEdge, bool) {
	if s == t {
		us.shortestWeight = 0
		return 0, 0, []da.Coordinate{}, []da.OutEdge{}, true
	}

	us.Preallocate()

	shNode := da.NewPriorityQueueNode(0, da.NewRoutingQueryKey(s))
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

	if !us.forwardInfo[t].IsLabelled() {
		return 0, 0, nil, nil, false
	}

	us.shortestWeight = us.forwardInfo[t].GetTravelTime()

	edges := us.engine.pathEdges(us.reconstructEdgeIds(s, t))
	travelTime, dist, coords := us.engine.assembleRoute(us.costFunction, edges)

	return travelTime, dist, coords, edges, true
}

// GetShortestWeight is the weight of the found path under the bound cost
// function. it differs from the returned travel time whenever the cost
// function carries steering penalties.
func (us *Dijkstra) GetShortestWeight() float64 {
	return us.shortestWeight
}

func (us *Dijkstra) graphSearchUni(source, target da.Index) bool {
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

	us.engine.graph.ForOutEdgesOf(uId, func(outArc *da.OutEdge) {
		if us.edgeFilter != nil && !us.edgeFilter(outArc.GetEdgeId()) {
			return
		}

		vId := outArc.GetHead()

		newTravelTime := us.forwardInfo[uId].GetTravelTime() + vertexCost + us.costFunction.GetWeight(outArc)

		if da.Ge(newTravelTime, pkg.INF_WEIGHT) {
			return
		}

		vInfo := us.forwardInfo[vId]
		vAlreadyLabelled := vInfo.IsLabelled()
		if vAlreadyLabelled && da.Ge(newTravelTime, vInfo.GetTravelTime()) {
			// newTravelTime is not better, do nothing
			return
		}

		// newTravelTime is better, update the label
		if vAlreadyLabelled {
			vInfo.UpdateTravelTime(newTravelTime)
			vInfo.UpdateParent(newVertexEdgePair(uId, outArc.GetEdgeId()))

			// key already in the priority queue, decrease its key
			us.pq.DecreaseKey(vInfo.GetHeapNode(), newTravelTime)
		} else {
			vhNode := da.NewPriorityQueueNode(newTravelTime, da.NewRoutingQueryKey(vId))
			us.forwardInfo[vId] = NewVertexInfo(newTravelTime, newVertexEdgePair(uId, outArc.GetEdgeId()), vhNode)

			// key not in the priority queue, insert it
			us.pq.Insert(vhNode)
		}
	})

	return false
}

func (us *Dijkstra) reconstructEdgeIds(s, t da.Index) []da.Index {
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

func (us *Dijkstra) Preallocate() {
	n := us.engine.graph.NumberOfVertices()
	us.forwardInfo = make([]*VertexInfo, n)
	initInfWeightVertexInfo(us.forwardInfo)
	us.pq.Preallocate(n)
}
