package routing

import (
	"sort"
	"sync"

	"github.com/lintang-b-s/trafficx/pkg"
	"github.com/lintang-b-s/trafficx/pkg/concurrent"
	"github.com/lintang-b-s/trafficx/pkg/costfunction"
	"github.com/lintang-b-s/trafficx/pkg/datastructure"
	"github.com/lintang-b-s/trafficx/pkg/util"
)

type AlternativeRoute struct {
	path           []datastructure.Coordinate
	edges          []datastructure.OutEdge
	objectiveValue float64
	polylinePath   string

	travelTime float64
	dist       float64
	viaVertex  datastructure.Index
}

func NewAlternativeRoute(objectiveValue, dist, travelTime float64,
	viaVertex datastructure.Index, path []datastructure.Coordinate,
	edges []datastructure.OutEdge) *AlternativeRoute {
	return &AlternativeRoute{
		objectiveValue: objectiveValue,
		viaVertex:      viaVertex,
		path:           path,
		dist:           dist,
		edges:          edges,
		travelTime:     travelTime,
	}
}

func (ar *AlternativeRoute) GetCoords() []datastructure.Coordinate {
	return ar.path
}

func (ar *AlternativeRoute) GetPolylinePath() string {
	return ar.polylinePath
}

func (ar *AlternativeRoute) SetPolylinePath(pp string) {
	ar.polylinePath = pp
}

func (ar *AlternativeRoute) GetPath() []datastructure.OutEdge {
	return ar.edges
}

func (ar *AlternativeRoute) GetObjectiveValue() float64 {
	return ar.objectiveValue
}

func (ar *AlternativeRoute) GetTravelTime() float64 {
	return ar.travelTime
}

func (ar *AlternativeRoute) GetDist() float64 {
	return ar.dist
}

func (ar *AlternativeRoute) GetViaVertex() datastructure.Index {
	return ar.viaVertex
}

type AlternativeRouteSearch struct {
	engine       *RoutingEngine
	costFunction costfunction.CostFunction
	edgeFilter   func(datastructure.Index) bool
	params       datastructure.AlternativeRouteParams
	candidates   []*AlternativeRoute
	lock         *sync.RWMutex

	hasVertexCosts bool
}

func NewAlternativeRouteSearch(engine *RoutingEngine, costFunction costfunction.CostFunction,
	edgeFilter func(datastructure.Index) bool, params datastructure.AlternativeRouteParams) *AlternativeRouteSearch {
	return &AlternativeRouteSearch{
		engine:         engine,
		costFunction:   costFunction,
		edgeFilter:     edgeFilter,
		params:         params,
		candidates:     make([]*AlternativeRoute, 0),
		lock:           &sync.RWMutex{},
		hasVertexCosts: costFunction.HasVertexCosts(),
	}
}

/*
implementation of:
1. Abraham, I. et al. (2010) “Alternative Routes in Road Networks,” in P. Festa (ed.)
Experimental Algorithms. Berlin, Heidelberg: Springer, pp. 23–34. Available at:
https://doi.org/10.1007/978-3-642-13193-6_3.
2. page 15: Delling, D. et al. (2015) “Customizable Route Planning in Road
Networks,” Transportation Science [Preprint]. Available at:
https://doi.org/10.1287/trsc.2014.0579.

the result holds at most params.GetMaxPaths() routes, the shortest path first,
then the admissible single-via alternatives ordered by objective value
fv = 2*lv + sigmav - plv.
*/
func (ars *AlternativeRouteSearch) FindAlternativeRoutes(s, t datastructure.Index) []*AlternativeRoute {

	mainQuery := NewBidirectionalDijkstra(ars.engine, ars.costFunction, ars.edgeFilter,
		ars.params.GetMaxExplorationFactor())

	optTravelTime, optDist, optCoords, optEdgePath, found := mainQuery.ShortestPathSearch(s, t)
	if !found {
		return []*AlternativeRoute{}
	}

	optWeight := mainQuery.GetShortestWeight()

	// for the optimum, lv = sigmav = plv = optWeight, so fv = 2*optWeight
	optRoute := NewAlternativeRoute(2*optWeight, optDist, optTravelTime,
		mainQuery.GetMeetingVertex(), optCoords, optEdgePath)

	viaVertices := make([]datastructure.Index, len(mainQuery.GetViaVertices()))
	copy(viaVertices, mainQuery.GetViaVertices())

	ars.candidates = make([]*AlternativeRoute, 0, len(viaVertices))
	viaVertices = removeDuplicates(viaVertices)

	fInfo := mainQuery.GetForwardInfo()
	bInfo := mainQuery.GetBackwardInfo()

	maxWeight := ars.params.GetMaxWeightFactor() * optWeight

	// the through-label sum lower-bounds the via route weight, drop candidates
	// that already break the stretch bound
	for i := len(viaVertices) - 1; i >= 0; i-- {
		v := viaVertices[i]
		if fInfo[v].GetTravelTime()+ars.crossingCost(v, s, t)+bInfo[v].GetTravelTime() >= maxWeight {
			viaVertices = append(viaVertices[:i], viaVertices[i+1:]...)
		}
	}

	computeAlternatives := func(v datastructure.Index) any {
		var (
			svWeight, vtWeight     float64
			svEdgePath, vtEdgePath []datastructure.OutEdge
			svFound, vtFound       bool
		)
		querysv := NewBidirectionalDijkstra(ars.engine, ars.costFunction, ars.edgeFilter,
			UPPERBOUND_SHORTEST_PATH)
		queryvt := NewBidirectionalDijkstra(ars.engine, ars.costFunction, ars.edgeFilter,
			UPPERBOUND_SHORTEST_PATH)

		wg := sync.WaitGroup{}
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, _, svEdgePath, svFound = querysv.ShortestPathSearch(s, v)
			svWeight = querysv.GetShortestWeight()
		}()

		go func() {
			defer wg.Done()
			_, _, _, vtEdgePath, vtFound = queryvt.ShortestPathSearch(v, t)
			vtWeight = queryvt.GetShortestWeight()
		}()

		wg.Wait()
		if !svFound || !vtFound {
			return nil
		}

		pvEdgePath := append(svEdgePath, vtEdgePath...)

		sigmav := ars.calculateWeightShare(optEdgePath, pvEdgePath)
		if sigmav >= ars.params.GetMaxShareFactor()*optWeight {
			return nil
		}

		lv := svWeight + ars.crossingCost(v, s, t) + vtWeight
		if lv >= maxWeight {
			return nil
		}

		plv := ars.calculatePlateau(v, fInfo, bInfo)
		if plv < PLATEAU_ALPHA*optWeight {
			// plateau too short, the detour is not locally optimal
			return nil
		}

		fv := 2*lv + sigmav - plv

		travelTime, dist, pvCoords := ars.engine.assembleRoute(ars.costFunction, pvEdgePath)

		ars.lock.Lock()
		ars.candidates =
			append(ars.candidates, NewAlternativeRoute(fv, dist, travelTime, v, pvCoords, pvEdgePath))
		ars.lock.Unlock()
		return nil
	}

	workers := concurrent.NewWorkerPool[datastructure.Index, any](ALTERNATIVE_ROUTE_WORKERS, len(viaVertices))

	for _, v := range viaVertices {
		workers.AddJob(v)
	}

	workers.Close()
	workers.Start(computeAlternatives)
	workers.Wait()

	sort.Slice(ars.candidates, func(j, pivotIdx int) bool {
		return ars.candidates[j].objectiveValue < ars.candidates[pivotIdx].objectiveValue
	})

	all := append([]*AlternativeRoute{optRoute}, ars.candidates...)
	all = removeSimiliarAlternatives(all)

	res := make([]*AlternativeRoute, 0, ars.params.GetMaxPaths())

	for i := 0; i < util.Min(ars.params.GetMaxPaths(), len(all)); i++ {
		res = append(res, all[i])
	}

	return res
}

// crossingCost is the vertex delay paid when a via route runs through v.
func (ars *AlternativeRouteSearch) crossingCost(v, s, t datastructure.Index) float64 {
	if !ars.hasVertexCosts || v == s || v == t {
		return 0
	}
	return ars.costFunction.GetVertexCost(v)
}

// calculateWeightShare is the weight of the edges a via route shares with the
// optimal path.
func (ars *AlternativeRouteSearch) calculateWeightShare(optPath, pvPath []datastructure.OutEdge) float64 {
	// O(N+M), N=len(optPath), M=len(pvPath)
	share := 0.0

	optPathSet := make(map[datastructure.Index]struct{})
	for i := range optPath {
		optPathSet[optPath[i].GetEdgeId()] = struct{}{}
	}

	for i := range pvPath {
		if _, ok := optPathSet[pvPath[i].GetEdgeId()]; ok {
			share += ars.costFunction.GetWeight(&pvPath[i])
		}
	}
	return share
}

/*
calculatePlateau measures the stretch around v where the forward and the
backward search trees of the main query agree: walking from v toward t, the
backward parent edge of each vertex must be the edge the forward tree reaches
that parent with, and symmetrically toward s. a long plateau means the via
route is locally optimal around v (Abraham et al., Alternative Routes in Road
Networks, section 3). the result is measured in forward label weight.
*/
func (ars *AlternativeRouteSearch) calculatePlateau(v datastructure.Index,
	fInfo, bInfo map[datastructure.Index]*VertexInfo) float64 {
	fv, okf := fInfo[v]
	if _, okb := bInfo[v]; !okf || !okb {
		return 0
	}

	end := v
	endWeight := fv.GetTravelTime()
	for {
		parent := bInfo[end].GetParent()
		if parent.getEdge() == datastructure.INVALID_EDGE_ID {
			// reached t
			break
		}
		next := parent.getVertex()
		nextForward, ok := fInfo[next]
		if !ok || nextForward.GetParent().getEdge() != parent.getEdge() {
			break
		}
		end = next
		endWeight = nextForward.GetTravelTime()
	}

	start := v
	startWeight := fv.GetTravelTime()
	for {
		parent := fInfo[start].GetParent()
		if parent.getEdge() == datastructure.INVALID_EDGE_ID {
			// reached s
			break
		}
		prev := parent.getVertex()
		prevBackward, ok := bInfo[prev]
		if !ok || prevBackward.GetParent().getEdge() != parent.getEdge() {
			break
		}
		start = prev
		startWeight = fInfo[prev].GetTravelTime()
	}

	return endWeight - startWeight
}

func removeSimiliarAlternatives(alts []*AlternativeRoute) []*AlternativeRoute {
	set := make([]map[datastructure.Index]struct{}, len(alts))
	for i := 0; i < len(alts); i++ {
		set[i] = make(map[datastructure.Index]struct{})
	}
	res := make([]*AlternativeRoute, 0, len(alts))
	for i, alt := range alts {
		// O(N^2 * M), N=len(alts), M=max{len(alts.edges[i])}, for each 0<=i<len(alts)

		addToRes := true
		for j := 0; j < i; j++ {
			// check similiarity with other previous alternative routes
			similiarity := 0.0

			setJ := set[j]
			altPath := alt.GetPath()
			for _, e := range altPath {
				if _, exists := setJ[e.GetEdgeId()]; exists {
					similiarity++
				}
			}

			similiarity = (similiarity / float64(len(altPath))) * 100
			if similiarity > pkg.ALTERNATIVE_ROUTE_SIMILIARITY_THRESHOLD {
				// add alt to result only if similiarity with every other alternative route < pkg.ALTERNATIVE_ROUTE_SIMILIARITY_THRESHOLD
				addToRes = false
				break
			}
		}

		if addToRes {
			res = append(res, alt)
		}
		for _, e := range alt.GetPath() {
			// make alternative route path set
			set[i][e.GetEdgeId()] = struct{}{}
		}

	}
	return res
}

func (ars *AlternativeRouteSearch) Reset() {
	ars.candidates = make([]*AlternativeRoute, 0)
}
