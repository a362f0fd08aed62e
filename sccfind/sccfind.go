// Package sccfind groups a constraint graph's vertices into strongly
// connected components in reverse topological order, the precondition
// per-component widening/narrowing needs. It runs Tarjan's algorithm the
// way staticcheck/vrp.Graph.FindSCCs does, over both a graph's ordinary
// data edges and its transient ControlDep edges (cgraph.Graph.ControlEdges)
// — the Nuutila variant described in RangeAnalysis.h's Nuutila class,
// which augments plain Tarjan with control-dependence edges solely so a
// symbolic sigma's component comes after the component of the bound it
// reads, without those edges ever being mistaken for a data dependency
// once Find returns.
package sccfind

import "github.com/rangevrp/rangevrp/cgraph"

type tarjanState struct {
	index   int
	stack   []*cgraph.Vertex
	indices map[*cgraph.Vertex]int
	lowlink map[*cgraph.Vertex]int
	onStack map[*cgraph.Vertex]bool
	raw     [][]*cgraph.Vertex
}

// Find computes g.SCCs and each vertex's SCC field. Component 0 is the
// least dependent (contains no vertex that uses a value from a later
// component); the last component is the most dependent. Because
// cgraph.AddEdge/addControlEdge both record an edge on its source
// vertex's Succs, a ControlDep edge participates in the DFS here exactly
// like a data edge; package solver distinguishes them afterward by
// Edge.Control when it decides what to propagate.
func Find(g *cgraph.Graph) [][]*cgraph.Vertex {
	s := &tarjanState{
		indices: map[*cgraph.Vertex]int{},
		lowlink: map[*cgraph.Vertex]int{},
		onStack: map[*cgraph.Vertex]bool{},
	}
	for _, v := range g.Vertices {
		if _, seen := s.indices[v]; !seen {
			s.strongconnect(v)
		}
	}

	n := len(s.raw)
	sccs := make([][]*cgraph.Vertex, n)
	for i, component := range s.raw {
		id := n - i - 1
		sccs[id] = component
		for _, v := range component {
			v.SCC = id
		}
	}
	g.SCCs = sccs
	return sccs
}

func (s *tarjanState) strongconnect(v *cgraph.Vertex) {
	s.indices[v] = s.index
	s.lowlink[v] = s.index
	s.index++
	s.stack = append(s.stack, v)
	s.onStack[v] = true

	for _, e := range v.Succs {
		w := e.To
		if _, seen := s.indices[w]; !seen {
			s.strongconnect(w)
			if s.lowlink[w] < s.lowlink[v] {
				s.lowlink[v] = s.lowlink[w]
			}
		} else if s.onStack[w] {
			if s.indices[w] < s.lowlink[v] {
				s.lowlink[v] = s.indices[w]
			}
		}
	}

	if s.lowlink[v] == s.indices[v] {
		var component []*cgraph.Vertex
		for {
			w := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			s.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		s.raw = append(s.raw, component)
	}
}
