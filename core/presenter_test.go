package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/encodeous/dualsim/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingPresenter struct {
	snaps []NetworkSnapshot
	logs  []string
}

func (r *recordingPresenter) OnNetworkChanged(snap NetworkSnapshot) {
	r.snaps = append(r.snaps, snap)
}

func (r *recordingPresenter) OnLogEvent(node state.NodeId, msg string) {
	r.logs = append(r.logs, string(node)+": "+msg)
}

func testNetwork() *Network {
	topo := state.NewTopology([]state.NodeId{"a", "b"}, map[state.EdgeKey]state.Metric{
		{V1: "a", V2: "b"}: 1,
		{V1: "b", V2: "a"}: 2,
	})
	n := NewNetwork(topo)
	n.Publish("a", state.SourceTable{
		"a": {Cost: 0, NextHop: "a", Fd: 0},
		"b": {Cost: 1, NextHop: "b", Fd: state.INF},
	})
	return n
}

func TestRenderSnapshot(t *testing.T) {
	out := RenderSnapshot(testNetwork().Snapshot())
	assert.Equal(t, `Links:
 - a->b: 1
 - b->a: 2

Route Tables:
 - a
    - a via (cost: 0, nh: a, fd: 0)
    - b via (cost: 1, nh: b, fd: Infinity)
 - b
    (none)
`, out)
}

func TestNetworkSnapshotIsolated(t *testing.T) {
	n := testNetwork()
	snap := n.Snapshot()

	require.NoError(t, n.Topology.SetEdgeCost("a", "b", state.INF))
	n.Publish("a", state.SourceTable{})

	src, ok := snap.Route("a", "b")
	assert.True(t, ok)
	assert.Equal(t, state.Metric(1), src.Cost)
	assert.Equal(t, state.Metric(1), snap.Edges[0].Cost)

	_, ok = snap.Route("z", "a")
	assert.False(t, ok)
	node, ok := snap.Node("b")
	assert.True(t, ok)
	assert.Equal(t, []state.NodeId{"a"}, node.Neighbours)
}

func TestMultiPresenter(t *testing.T) {
	r1, r2 := &recordingPresenter{}, &recordingPresenter{}
	p := MultiPresenter{r1, r2}
	p.OnLogEvent("a", "hello")
	p.OnNetworkChanged(NetworkSnapshot{})
	for _, r := range []*recordingPresenter{r1, r2} {
		assert.Equal(t, []string{"a: hello"}, r.logs)
		assert.Len(t, r.snaps, 1)
	}
}

func TestLogPresenterDedup(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewLogPresenter(slog.New(slog.NewTextHandler(buf, nil)))

	p.OnLogEvent("a", "a rejected update")
	p.OnLogEvent("a", "a rejected update")
	p.OnLogEvent("b", "a rejected update")
	p.OnLogEvent("a", "a accepted update")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "node=a")
	assert.Contains(t, lines[1], "node=b")
	assert.Contains(t, lines[2], `msg="a accepted update"`)

	// the network is only rendered when debug logging is on
	p.OnNetworkChanged(testNetwork().Snapshot())
	assert.NotContains(t, buf.String(), "Route Tables")

	dbg := &bytes.Buffer{}
	p = NewLogPresenter(slog.New(slog.NewTextHandler(dbg, &slog.HandlerOptions{Level: slog.LevelDebug})))
	p.OnNetworkChanged(testNetwork().Snapshot())
	assert.Contains(t, dbg.String(), "Route Tables")
}

func TestTracePresenter(t *testing.T) {
	defer goleak.VerifyNone(t)
	tp := NewTracePresenter()
	ch := tp.Subscribe(4)

	tp.OnLogEvent("a", "hello")
	ev := (<-ch).(TraceEvent)
	assert.Equal(t, TraceEvent{Kind: TraceLog, Node: "a", Msg: "hello"}, ev)

	tp.OnNetworkChanged(testNetwork().Snapshot())
	ev = (<-ch).(TraceEvent)
	assert.Equal(t, TraceNetworkChanged, ev.Kind)
	assert.Len(t, ev.Snapshot.Nodes, 2)

	tp.Unsubscribe(ch)
	require.NoError(t, tp.Close())
}
