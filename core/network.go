package core

import (
	"maps"
	"slices"
	"sync"

	"github.com/encodeous/dualsim/state"
)

// Node is the registry entry for a simulated node. Env is safe to use from any goroutine,
// Router may only be used from the node's own goroutine.
type Node struct {
	Env    *state.Env
	Router *DualRouter
}

// Network is the registry of every node in the simulation, indexed by id.
// It also holds the last source table each node published, so the whole network can be
// inspected without touching any node's live state.
type Network struct {
	Topology *state.Topology

	nodes  map[state.NodeId]*Node
	mu     sync.RWMutex
	tables map[state.NodeId]state.SourceTable
}

func NewNetwork(topo *state.Topology) *Network {
	return &Network{
		Topology: topo,
		nodes:    make(map[state.NodeId]*Node),
		tables:   make(map[state.NodeId]state.SourceTable),
	}
}

// Register must only be called before the simulation starts.
func (n *Network) Register(node *Node) {
	n.nodes[node.Env.Id] = node
}

func (n *Network) Node(id state.NodeId) *Node {
	return n.nodes[id]
}

func (n *Network) NodeIds() []state.NodeId {
	return slices.Sorted(maps.Keys(n.nodes))
}

// Publish replaces the visible copy of a node's source table. The table must not be mutated afterwards.
func (n *Network) Publish(id state.NodeId, table state.SourceTable) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables[id] = table
}

type NodeSnapshot struct {
	Id         state.NodeId
	Neighbours []state.NodeId
	Sources    state.SourceTable
}

// NetworkSnapshot is an immutable view of the whole network at one point in time.
type NetworkSnapshot struct {
	Nodes []NodeSnapshot
	Edges []state.Edge
}

func (n *Network) Snapshot() NetworkSnapshot {
	snap := NetworkSnapshot{
		Edges: n.Topology.Edges(),
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, id := range n.Topology.Nodes() {
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			Id:         id,
			Neighbours: n.Topology.Neighbours(id),
			Sources:    n.tables[id].Clone(),
		})
	}
	return snap
}

func (s NetworkSnapshot) Node(id state.NodeId) (NodeSnapshot, bool) {
	idx := slices.IndexFunc(s.Nodes, func(n NodeSnapshot) bool {
		return n.Id == id
	})
	if idx == -1 {
		return NodeSnapshot{}, false
	}
	return s.Nodes[idx], true
}

// Route returns node's current route to dst.
func (s NetworkSnapshot) Route(node, dst state.NodeId) (state.Source, bool) {
	n, ok := s.Node(node)
	if !ok {
		return state.Source{}, false
	}
	src, ok := n.Sources[dst]
	return src, ok
}
