package core

import (
	"context"
	"log/slog"

	"github.com/dustin/go-broadcast"
	"github.com/encodeous/dualsim/state"
	"github.com/jellydator/ttlcache/v3"
)

// Presenter receives the observable side effects of the simulation.
// Implementations are called concurrently from every node's goroutine and must not block.
type Presenter interface {
	OnNetworkChanged(snap NetworkSnapshot)
	OnLogEvent(node state.NodeId, msg string)
}

type MultiPresenter []Presenter

func (m MultiPresenter) OnNetworkChanged(snap NetworkSnapshot) {
	for _, p := range m {
		p.OnNetworkChanged(snap)
	}
}

func (m MultiPresenter) OnLogEvent(node state.NodeId, msg string) {
	for _, p := range m {
		p.OnLogEvent(node, msg)
	}
}

type logKey struct {
	Node state.NodeId
	Msg  string
}

// LogPresenter writes events to a slog.Logger. Identical messages from the same node are
// only written once per state.LogDedupTTL, since rejections repeat on every tick.
type LogPresenter struct {
	Log   *slog.Logger
	dedup *ttlcache.Cache[logKey, struct{}]
}

func NewLogPresenter(log *slog.Logger) *LogPresenter {
	return &LogPresenter{
		Log: log,
		dedup: ttlcache.New[logKey, struct{}](
			ttlcache.WithTTL[logKey, struct{}](state.LogDedupTTL),
			ttlcache.WithDisableTouchOnHit[logKey, struct{}](),
		),
	}
}

func (p *LogPresenter) OnNetworkChanged(snap NetworkSnapshot) {
	if !p.Log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	p.Log.Debug("network changed\n" + RenderSnapshot(snap))
}

func (p *LogPresenter) OnLogEvent(node state.NodeId, msg string) {
	key := logKey{node, msg}
	if p.dedup.Get(key) != nil {
		return
	}
	if p.dedup.Len() > 4096 {
		p.dedup.DeleteExpired()
	}
	p.dedup.Set(key, struct{}{}, ttlcache.DefaultTTL)
	p.Log.Info(msg, "node", node)
}

type TraceKind int

const (
	TraceNetworkChanged TraceKind = iota
	TraceLog
)

// TraceEvent is what TracePresenter subscribers receive.
type TraceEvent struct {
	Kind     TraceKind
	Node     state.NodeId
	Msg      string
	Snapshot NetworkSnapshot
}

// TracePresenter fans events out to any number of subscribers.
// Events are dropped rather than stalling the simulation when subscribers fall behind.
type TracePresenter struct {
	broadcast.Broadcaster
}

func NewTracePresenter() *TracePresenter {
	return &TracePresenter{
		Broadcaster: broadcast.NewBroadcaster(1024),
	}
}

func (t *TracePresenter) OnNetworkChanged(snap NetworkSnapshot) {
	t.TrySubmit(TraceEvent{Kind: TraceNetworkChanged, Snapshot: snap})
}

func (t *TracePresenter) OnLogEvent(node state.NodeId, msg string) {
	t.TrySubmit(TraceEvent{Kind: TraceLog, Node: node, Msg: msg})
}

// Subscribe registers a new subscriber channel. The caller must keep draining it until Unsubscribe.
func (t *TracePresenter) Subscribe(buffer int) chan any {
	ch := make(chan any, buffer)
	t.Register(ch)
	return ch
}

func (t *TracePresenter) Unsubscribe(ch chan any) {
	t.Unregister(ch)
}
