package landmark

import (
	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	da "github.com/lintang-b-s/trafficx/pkg/datastructure"
)

type Dijkstra struct {
	graph        *da.Graph
	costFunction costfunction.CostFunction

	travelTimes []float64
	heapNodes   []*da.PriorityQueueNode[da.RoutingQueryKey]

	pq *da.MinHeap[da.RoutingQueryKey]

	useReverseGraph bool

	numSettledNodes int
}

func NewDijkstra(graph *da.Graph, costFunction costfunction.CostFunction, useReverseGraph bool) *Dijkstra {
	return &Dijkstra{
		graph:           graph,
		costFunction:    costFunction,
		pq:              da.NewFourAryHeap[da.RoutingQueryKey](),
		useReverseGraph: useReverseGraph,
		numSettledNodes: 0,
	}
}

// ShortestPath runs single-source dijkstra from s to every vertex of the graph.
// with useReverseGraph set it traverses inEdges instead, so the result holds the
// distance from every vertex to s. labels sum edge weights only and skip vertex
// costs, so the triangle-inequality bounds built from them stay admissible for
// queries whose metric adds vertex costs on top.
func (us *Dijkstra) ShortestPath(s da.Index) []float64 {
	n := us.graph.NumberOfVertices()

	us.travelTimes = make([]float64, n)
	us.heapNodes = make([]*da.PriorityQueueNode[da.RoutingQueryKey], n)
	for v := 0; v < n; v++ {
		us.travelTimes[v] = 2 * pkg.INF_WEIGHT
	}

	us.pq.Preallocate(n)

	us.travelTimes[s] = 0
	shNode := da.NewPriorityQueueNode(0, da.NewRoutingQueryKey(s))
	us.heapNodes[s] = shNode
	us.pq.Insert(shNode)

	for !us.pq.IsEmpty() {
		us.graphSearchUni()
		us.numSettledNodes++
	}

	return us.travelTimes
}

func (us *Dijkstra) graphSearchUni() {
	queryKey, _ := us.pq.ExtractMin()
	uItem := queryKey.GetItem()

	uId := uItem.GetVertex()

	relax := func(vId da.Index, edgeWeight float64) {
		newTravelTime := us.travelTimes[uId] + edgeWeight

		if da.Ge(newTravelTime, pkg.INF_WEIGHT) {
			return
		}

		vAlreadyLabelled := da.Lt(us.travelTimes[vId], pkg.INF_WEIGHT)
		if vAlreadyLabelled && da.Ge(newTravelTime, us.travelTimes[vId]) {
			// newTravelTime is not better, do nothing
			return
		}

		// newTravelTime is better, update the label
		us.travelTimes[vId] = newTravelTime

		if vAlreadyLabelled {
			// key already in the priority queue, decrease its key
			us.pq.DecreaseKey(us.heapNodes[vId], newTravelTime)
		} else {
			// key not in the priority queue, insert it
			vhNode := da.NewPriorityQueueNode(newTravelTime, da.NewRoutingQueryKey(vId))
			us.heapNodes[vId] = vhNode
			us.pq.Insert(vhNode)
		}
	}

	if !us.useReverseGraph {
		us.graph.ForOutEdgesOf(uId, func(outArc *da.OutEdge) {
			relax(outArc.GetHead(), us.costFunction.GetWeight(outArc))
		})
	} else {
		us.graph.ForInEdgesOf(uId, func(inArc *da.InEdge) {
			relax(inArc.GetTail(), us.costFunction.GetWeight(inArc))
		})
	}
}
