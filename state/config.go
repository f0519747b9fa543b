package state

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// EdgeCfg declares or overrides a single directed edge.
type EdgeCfg struct {
	From NodeId `yaml:"from"`
	To   NodeId `yaml:"to"`
	Cost Metric `yaml:"cost"`
}

// EventCfg is a link-state change applied At after the simulation starts.
type EventCfg struct {
	At            time.Duration `yaml:"at"`
	From          NodeId        `yaml:"from"`
	To            NodeId        `yaml:"to"`
	Cost          Metric        `yaml:"cost"`
	Bidirectional bool          `yaml:"bidirectional,omitempty"` // also apply to To->From
}

// SimCfg describes a simulation: timing, the initial topology and scheduled link changes.
type SimCfg struct {
	Tick        time.Duration `yaml:"tick"`                   // interval between advertisements (T)
	Jitter      time.Duration `yaml:"jitter"`                 // maximum transmission delay (D), must be < Tick
	DefaultCost *Metric       `yaml:"default_cost,omitempty"` // cost of edges generated from Graph
	Nodes       []NodeId      `yaml:"nodes"`
	Graph       []string      `yaml:"graph,omitempty"` // bidirectional links, see ParseGraph
	Edges       []EdgeCfg     `yaml:"edges,omitempty"` // directed edges, applied after Graph
	Events      []EventCfg    `yaml:"events,omitempty"`
}

func LoadSimCfg(path string) (*SimCfg, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSimCfg(file)
}

func ParseSimCfg(data []byte) (*SimCfg, error) {
	cfg := &SimCfg{}
	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *SimCfg) ApplyDefaults() {
	if c.Tick == 0 {
		c.Tick = DefaultTick
		if c.Jitter == 0 {
			c.Jitter = DefaultJitter
		}
	}
	if c.DefaultCost == nil {
		cost := DefaultCost
		c.DefaultCost = &cost
	}
}

// ExpandEdges evaluates Graph and Edges into the full set of directed edges.
func (c *SimCfg) ExpandEdges() (map[EdgeKey]Metric, error) {
	names := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		names = append(names, string(n))
	}
	cost := DefaultCost
	if c.DefaultCost != nil {
		cost = *c.DefaultCost
	}
	edges := make(map[EdgeKey]Metric)
	if len(c.Graph) != 0 {
		links, err := ParseGraph(c.Graph, names)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			edges[EdgeKey{link.V1, link.V2}] = cost
			edges[EdgeKey{link.V2, link.V1}] = cost
		}
	}
	for _, e := range c.Edges {
		edges[EdgeKey{e.From, e.To}] = e.Cost
	}
	return edges, nil
}

func (c *SimCfg) BuildTopology() (*Topology, error) {
	edges, err := c.ExpandEdges()
	if err != nil {
		return nil, err
	}
	return NewTopology(c.Nodes, edges), nil
}

func parseSymbolList(s string, validSymbols []string) ([]string, error) {
	spl := strings.Split(strings.TrimSpace(s), ",")
	line := make([]string, 0)
	for _, s := range spl {
		x := strings.TrimSpace(s)
		if x == "" {
			continue
		}
		if !slices.Contains(validSymbols, x) {
			return nil, fmt.Errorf(`%s is not a valid node/group`, x)
		}
		line = append(line, x)
	}
	if len(line) == 0 {
		return nil, fmt.Errorf(`node/group list must not be empty`)
	}
	slices.Sort(line)
	return line, nil
}

/*
ParseGraph expands a list of link declarations into undirected node pairs:

	core = a, b, c      // group definition, groups may reference other groups
	core, core          // every member of core is linked to every other member
	s, a                // s and a are linked
	s, core             // s is linked to every member of core, members are not linked to each other

Lines are case-insensitive. The returned pairs are sorted and unique.
*/
func ParseGraph(graph []string, nodes []string) ([]Pair[NodeId, NodeId], error) {
	parsedPairings := make([]Pair[string, string], 0)
	groups := make(map[string][]string)
	symbols := slices.Clone(nodes)

	// collect symbols first so groups can be referenced before they are defined
	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			if len(spl) != 2 {
				return nil, fmt.Errorf("invalid graph: %s. group definition must contain one '='", line)
			}
			grp := strings.TrimSpace(spl[0])
			if slices.Contains(nodes, grp) {
				return nil, fmt.Errorf("group name must not be a node name: %s", grp)
			}
			symbols = append(symbols, grp)
		}
	}
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)

	// group -> groups it depends on
	topo := make(map[string][]string)
	expansion := make(map[string][]string)

	for _, line := range graph {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.Contains(line, "=") {
			spl := strings.Split(line, "=")
			grp := strings.TrimSpace(spl[0])
			if _, ok := groups[grp]; ok {
				return nil, fmt.Errorf("duplicate group name: %s", grp)
			}
			lst, err := parseSymbolList(spl[1], symbols)
			if err != nil {
				return nil, err
			}
			deps := make([]string, 0)
			for _, l := range lst {
				if !slices.Contains(nodes, l) {
					deps = append(deps, l)
				} else {
					expansion[grp] = append(expansion[grp], l)
				}
			}
			slices.Sort(deps)
			topo[grp] = slices.Compact(deps)
			groups[grp] = lst
		} else {
			names, err := parseSymbolList(line, symbols)
			if err != nil {
				return nil, err
			}
			if len(names) < 2 {
				return nil, fmt.Errorf("invalid pairing, %v", names)
			}
			linked := make([]string, 0)
			for _, name := range names {
				for _, other := range linked {
					parsedPairings = append(parsedPairings, MakeSortedPair(other, name))
				}
				linked = append(linked, name)
			}
		}
	}
	SortPairs(parsedPairings)
	parsedPairings = slices.Compact(parsedPairings)

	// expand groups in topological order
	for len(topo) > 0 {
		var group string
		for k, v := range topo {
			if len(v) == 0 {
				group = k
				break
			}
		}
		if group == "" {
			cycleNodes := make([]string, 0)
			for node := range topo {
				cycleNodes = append(cycleNodes, node)
			}
			slices.Sort(cycleNodes)
			return nil, fmt.Errorf("cycle detected in graph: %v", cycleNodes)
		}
		delete(topo, group)

		for k, deps := range topo {
			if slices.Contains(deps, group) {
				expansion[k] = append(expansion[k], expansion[group]...)
				slices.Sort(expansion[k])
				expansion[k] = slices.Compact(expansion[k])
				topo[k] = slices.DeleteFunc(deps, func(dep string) bool {
					return dep == group
				})
			}
		}
	}

	resolve := func(symbol string) []NodeId {
		if slices.Contains(nodes, symbol) {
			return []NodeId{NodeId(symbol)}
		}
		out := make([]NodeId, 0, len(expansion[symbol]))
		for _, exp := range expansion[symbol] {
			out = append(out, NodeId(exp))
		}
		return out
	}

	pairings := make([]Pair[NodeId, NodeId], 0)
	for _, pair := range parsedPairings {
		for _, x := range resolve(pair.V1) {
			for _, y := range resolve(pair.V2) {
				if x != y {
					pairings = append(pairings, MakeSortedPair(x, y))
				}
			}
		}
	}
	SortPairs(pairings)
	return slices.Compact(pairings), nil
}
