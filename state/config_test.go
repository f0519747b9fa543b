package state

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGraph_SimpleGraph(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := `1, 2
3, 4
1,3,5`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		{"1", "2"},
		{"3", "4"},
		{"1", "3"},
		{"3", "5"},
		{"1", "5"},
	})
}

func TestParseGraph_Groups(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5", "6", "7"}
	input := `a = 1,2
b=3,,,4
c=5,6
d=a,b
d,d
7,d`
	pairs, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.NoError(t, err)
	assert.ElementsMatch(t, pairs, []Pair[NodeId, NodeId]{
		// d,d
		{"1", "2"},
		{"1", "3"},
		{"1", "4"},
		{"2", "3"},
		{"2", "4"},
		{"3", "4"},
		// 7,d
		{"1", "7"},
		{"2", "7"},
		{"3", "7"},
		{"4", "7"},
	})
}

func TestParseGraph_CaseInsensitive(t *testing.T) {
	nodes := []string{"s", "a", "b", "c"}
	pairs, err := ParseGraph([]string{"S, A", "A, B, C"}, nodes)
	assert.NoError(t, err)
	assert.Equal(t, []Pair[NodeId, NodeId]{
		{"a", "b"},
		{"a", "c"},
		{"a", "s"},
		{"b", "c"},
	}, pairs)
}

func TestParseGraph_Cycle(t *testing.T) {
	nodes := []string{}
	input := `a = b
b = c
c = a`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "cycle detected in graph: [a b c]")
}

func TestParseGraph_DupGroupName(t *testing.T) {
	nodes := []string{}
	input := `a = b
a = b
b = b`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "duplicate group name: a")
}

func TestParseGraph_SymbolError(t *testing.T) {
	nodes := []string{"1"}
	input := `a = 1
b = 2`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "2 is not a valid node/group")
}

func TestParseGraph_GroupNameIsNodeName(t *testing.T) {
	nodes := []string{"1"}
	input := `1 = 1`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "group name must not be a node name: 1")
}

func TestParseGraph_Single(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := `1`
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "invalid pairing, [1]")
}

func TestParseGraph_None(t *testing.T) {
	nodes := []string{"1", "2", "3", "4", "5"}
	input := ``
	_, err := ParseGraph(strings.Split(input, "\n"), nodes)
	assert.ErrorContains(t, err, "node/group list must not be empty")
}

func failGraph(t *testing.T, graph string) {
	_, err := ParseGraph(strings.Split(graph, "\n"), []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"})
	assert.Error(t, err)
}

func TestParseGraph_InvalidGraph(t *testing.T) {
	failGraph(t, `this graph is a baddie`)
	failGraph(t, `=========,,,,`)
	failGraph(t, `#`)
	failGraph(t, `1`)
	failGraph(t, `1,2,3,4,5,6,a`)
	failGraph(t, `,,,,,,,,,,,,,,,,`)
	failGraph(t, `a=a`)
}

const diamondCfg = `
tick: 1s
jitter: 100ms
nodes: [s, a, b, c]
graph:
  - s, a
  - a, b, c
events:
  - at: 4s
    from: s
    to: a
    cost: .inf
    bidirectional: true
`

func TestParseSimCfg(t *testing.T) {
	cfg, err := ParseSimCfg([]byte(diamondCfg))
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.Equal(t, 100*time.Millisecond, cfg.Jitter)
	assert.Equal(t, []NodeId{"s", "a", "b", "c"}, cfg.Nodes)
	require.NotNil(t, cfg.DefaultCost)
	assert.Equal(t, Metric(1), *cfg.DefaultCost)
	require.Len(t, cfg.Events, 1)
	assert.Equal(t, 4*time.Second, cfg.Events[0].At)
	assert.True(t, cfg.Events[0].Cost.IsInf())
	assert.True(t, cfg.Events[0].Bidirectional)
	assert.NoError(t, SimConfigValidator(cfg))
}

func TestParseSimCfg_Defaults(t *testing.T) {
	cfg, err := ParseSimCfg([]byte("nodes: [a, b]\ngraph: [\"a, b\"]\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTick, cfg.Tick)
	assert.Equal(t, DefaultJitter, cfg.Jitter)
	assert.NoError(t, SimConfigValidator(cfg))
}

func TestParseSimCfg_InfinityToken(t *testing.T) {
	cfg, err := ParseSimCfg([]byte(`
nodes: [a, b]
edges:
  - {from: a, to: b, cost: Infinity}
  - {from: b, to: a, cost: 2.5}
`))
	require.NoError(t, err)
	assert.True(t, cfg.Edges[0].Cost.IsInf())
	assert.Equal(t, Metric(2.5), cfg.Edges[1].Cost)
}

func TestParseSimCfg_NegativeCost(t *testing.T) {
	_, err := ParseSimCfg([]byte(`
nodes: [a, b]
edges:
  - {from: a, to: b, cost: -1}
`))
	assert.ErrorContains(t, err, "invalid cost")
}

func TestExpandEdges(t *testing.T) {
	cfg, err := ParseSimCfg([]byte(`
nodes: [s, a, b, c, d]
default_cost: 1
graph:
  - s, a
  - a, b
  - b, d
  - s, c
edges:
  - {from: c, to: d, cost: 50}
  - {from: d, to: c, cost: 50}
  - {from: s, to: a, cost: 3}
`))
	require.NoError(t, err)
	edges, err := cfg.ExpandEdges()
	require.NoError(t, err)
	assert.Equal(t, map[EdgeKey]Metric{
		{"s", "a"}: 3,
		{"a", "s"}: 1,
		{"a", "b"}: 1,
		{"b", "a"}: 1,
		{"b", "d"}: 1,
		{"d", "b"}: 1,
		{"s", "c"}: 1,
		{"c", "s"}: 1,
		{"c", "d"}: 50,
		{"d", "c"}: 50,
	}, edges)

	topo, err := cfg.BuildTopology()
	require.NoError(t, err)
	assert.Equal(t, []NodeId{"a", "c"}, topo.Neighbours("s"))
	assert.Equal(t, []NodeId{"b", "c"}, topo.Neighbours("d"))
}

func TestSimCfgRoundTrip(t *testing.T) {
	cfg, err := ParseSimCfg([]byte(diamondCfg))
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	cfg2, err := ParseSimCfg(out)
	require.NoError(t, err)
	assert.EqualValues(t, cfg, cfg2)
}
