package datastructure

import (
	"github.com/lintang-b-s/trafficx/pkg/util"
)

// RunKosaraju. runs kosaraju's algorithm to find strongly connected components (SCCs)
// of the road network, plus the scc condensation adjacency used for fast
// origin->destination reachability checks before running a query.
func (g *Graph) RunKosaraju() {
	n := Index(g.NumberOfVertices())

	order := make([]Index, 0, n)
	visited := make([]bool, n)
	for v := Index(0); v < n; v++ {
		if !visited[v] {
			g.dfsForward(v, &order, visited)
		}
	}

	order = util.ReverseG[Index](order)

	visited = make([]bool, n)
	sccs := make([]Index, n)
	numComponents := Index(0)
	for _, v := range order {
		if !visited[v] {
			component := make([]Index, 0, 10)
			g.dfsBackward(v, &component, visited)
			for _, u := range component {
				sccs[u] = numComponents
			}
			numComponents++
		}
	}
	g.SetSCCs(sccs)

	condAdj := make([][]Index, numComponents)
	for u := Index(0); u < n; u++ {
		g.ForOutEdgesOf(u, func(e *OutEdge) {
			if sccs[u] != sccs[e.GetHead()] {
				condAdj[sccs[u]] = append(condAdj[sccs[u]], sccs[e.GetHead()])
			}
		})
	}
	g.SetSCCCondensationAdj(condAdj)
}

type dfsFrame struct {
	v        Index
	expanded bool
}

// dfsForward. iterative postorder dfs over outEdges (explicit stack, road graphs are
// too big for recursion).
func (g *Graph) dfsForward(start Index, order *[]Index, visited []bool) {
	stack := []dfsFrame{{start, false}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			*order = append(*order, f.v)
			continue
		}
		if visited[f.v] {
			continue
		}
		visited[f.v] = true

		stack = append(stack, dfsFrame{f.v, true})
		g.ForOutEdgesOf(f.v, func(e *OutEdge) {
			if !visited[e.GetHead()] {
				stack = append(stack, dfsFrame{e.GetHead(), false})
			}
		})
	}
}

// dfsBackward. iterative dfs over inEdges collecting one scc.
func (g *Graph) dfsBackward(start Index, component *[]Index, visited []bool) {
	stack := []Index{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[v] {
			continue
		}
		visited[v] = true
		*component = append(*component, v)

		g.ForInEdgesOf(v, func(e *InEdge) {
			if !visited[e.GetTail()] {
				stack = append(stack, e.GetTail())
			}
		})
	}
}
