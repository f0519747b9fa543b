package state

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
)

var ErrUnknownEdge = errors.New("unknown edge")

// Edge is a directed link with its current cost.
type Edge struct {
	From NodeId
	To   NodeId
	Cost Metric
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s: %s", e.From, e.To, e.Cost)
}

// Topology is the shared source of truth for link costs. It is safe for concurrent use.
// The set of nodes and edges is fixed, only the cost of an edge may change.
type Topology struct {
	mu         sync.RWMutex
	nodes      []NodeId
	costs      map[EdgeKey]Metric
	neighbours map[NodeId][]NodeId
}

func NewTopology(nodes []NodeId, edges map[EdgeKey]Metric) *Topology {
	t := &Topology{
		nodes:      slices.Sorted(slices.Values(nodes)),
		costs:      maps.Clone(edges),
		neighbours: make(map[NodeId][]NodeId),
	}
	if t.costs == nil {
		t.costs = make(map[EdgeKey]Metric)
	}
	for edge := range t.costs {
		t.neighbours[edge.V1] = append(t.neighbours[edge.V1], edge.V2)
	}
	for id, neighs := range t.neighbours {
		slices.Sort(neighs)
		t.neighbours[id] = slices.Compact(neighs)
	}
	return t
}

// EdgeCost returns the current cost of from->to. ok is false if there is no such edge.
func (t *Topology) EdgeCost(from, to NodeId) (cost Metric, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cost, ok = t.costs[EdgeKey{from, to}]
	return
}

// SetEdgeCost changes the cost of an existing directed edge. It takes effect for every subsequent read.
func (t *Topology) SetEdgeCost(from, to NodeId, cost Metric) error {
	if math.IsNaN(float64(cost)) || cost < 0 {
		return fmt.Errorf("%w: %s->%s = %v", ErrInvalidCost, from, to, float64(cost))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := EdgeKey{from, to}
	if _, ok := t.costs[key]; !ok {
		return fmt.Errorf("%w: %s->%s", ErrUnknownEdge, from, to)
	}
	t.costs[key] = cost
	return nil
}

// Neighbours returns the nodes reachable over a direct outgoing edge from id.
func (t *Topology) Neighbours(id NodeId) []NodeId {
	return slices.Clone(t.neighbours[id])
}

func (t *Topology) Nodes() []NodeId {
	return slices.Clone(t.nodes)
}

func (t *Topology) HasNode(id NodeId) bool {
	_, found := slices.BinarySearch(t.nodes, id)
	return found
}

// Edges returns a consistent snapshot of every edge, sorted by (from, to).
func (t *Topology) Edges() []Edge {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := slices.Collect(maps.Keys(t.costs))
	SortPairs(keys)
	edges := make([]Edge, 0, len(keys))
	for _, k := range keys {
		edges = append(edges, Edge{From: k.V1, To: k.V2, Cost: t.costs[k]})
	}
	return edges
}
