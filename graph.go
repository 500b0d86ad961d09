package ioc

import (
	"strings"

	"github.com/sectrean/ioc-kit/internal/errors"
)

// Graph is the dependency graph of one resolution pass.
//
// Nodes are stored in an arena and addressed by their uid. Edges point from an entry
// to its dependencies. Edges into delayed or already cached entries are soft: they
// order nothing and may close a cycle.
type Graph struct {
	nodes []*Entry
	index map[entryKey]int
	edges [][]graphEdge
	root  int
	order []*Entry
}

type graphEdge struct {
	to   int
	soft bool
}

func newGraph() *Graph {
	return &Graph{
		index: make(map[entryKey]int),
	}
}

// intern returns the node with the same key as e, adding e when it is new.
func (g *Graph) intern(e *Entry) *Entry {
	if uid, ok := g.index[e.key()]; ok {
		return g.nodes[uid]
	}

	e.uid = len(g.nodes)
	g.index[e.key()] = e.uid
	g.nodes = append(g.nodes, e)
	g.edges = append(g.edges, nil)
	return e
}

func (g *Graph) addEdge(from, to int, soft bool) {
	g.edges[from] = append(g.edges[from], graphEdge{to: to, soft: soft})
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Root returns the requested entry.
func (g *Graph) Root() *Entry {
	return g.nodes[g.root]
}

// Node returns the node with the given uid.
func (g *Graph) Node(uid int) *Entry {
	return g.nodes[uid]
}

// Order returns the nodes leaves first: every entry comes after the entries it
// depends on through a hard edge. The root is last.
func (g *Graph) Order() []*Entry {
	return g.order
}

const (
	white = iota
	gray
	black
)

// sort computes the leaves first order with a depth first walk from the root.
// Reaching a node that is still on the walk path through a hard edge is a cycle.
func (g *Graph) sort() error {
	color := make([]uint8, len(g.nodes))
	path := make([]int, 0, len(g.nodes))
	order := make([]*Entry, 0, len(g.nodes))

	var visit func(u int) error
	visit = func(u int) error {
		color[u] = gray
		path = append(path, u)

		for _, edge := range g.edges[u] {
			switch color[edge.to] {
			case gray:
				if !edge.soft {
					return errors.Wrapf(ErrDependencyCycle, "%s", g.trail(path, edge.to))
				}
			case white:
				if err := visit(edge.to); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[u] = black
		order = append(order, g.nodes[u])
		return nil
	}

	if err := visit(g.root); err != nil {
		return err
	}

	g.order = order
	return nil
}

// trail renders the cycle closed by an edge into to, e.g. "a -> b -> a".
func (g *Graph) trail(path []int, to int) string {
	start := 0
	for i, uid := range path {
		if uid == to {
			start = i
			break
		}
	}

	names := make([]string, 0, len(path)-start+1)
	for _, uid := range path[start:] {
		names = append(names, g.nodes[uid].String())
	}
	names = append(names, g.nodes[to].String())

	return strings.Join(names, " -> ")
}
