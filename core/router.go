package core

import (
	"math/rand/v2"
	"time"

	"github.com/encodeous/dualsim/perf"
	"github.com/encodeous/dualsim/state"
	"github.com/google/uuid"
)

// DualRouter drives a single node: it advertises on every tick and simulates delayed delivery to neighbours.
type DualRouter struct {
	*state.State
	Network   *Network
	Presenter Presenter
	Tick      time.Duration
	Jitter    time.Duration
}

func (r *DualRouter) Init(s *state.State) error {
	s.Log.Debug("init router", "neighbours", s.Neighbours)
	r.State = s
	r.Network.Publish(s.Id, s.Sources.Clone())

	// random phase so that nodes don't advertise in lock-step
	s.Env.RepeatTask(func(s *state.State) error {
		return Advertise(s, r)
	}, rand.N(r.Tick), r.Tick)
	return nil
}

func (r *DualRouter) Cleanup(s *state.State) error {
	r.State = nil
	return nil
}

func (r *DualRouter) Transmit(neigh state.NodeId, payload []byte) TransmitResult {
	cost, ok := r.Topology.EdgeCost(r.Id, neigh)
	if ok && cost.IsInf() {
		r.Log(AdvertisementSuppressed, "link down, advertisement suppressed", "to", neigh)
		return Suppressed
	}
	target := r.Network.Node(neigh)
	if target == nil {
		r.Log(InconsistentState, "advertisement to unknown node", "to", neigh)
		return Suppressed
	}

	var delay time.Duration
	if r.Jitter > 0 {
		delay = rand.N(r.Jitter)
	}
	id := uuid.New()
	from := r.Id
	r.Log(AdvertisementSent, "advertisement sent", "to", neigh, "id", id, "delay", delay)

	target.Env.ScheduleTask(func(s *state.State) error {
		s.Log.Debug("advertisement delivered", "from", from, "id", id)
		return HandleUpdates(s, target.Router, from, payload)
	}, delay)
	return Delivered
}

func (r *DualRouter) TableChanged() {
	r.Network.Publish(r.Id, r.Sources.Clone())
	r.Presenter.OnNetworkChanged(r.Network.Snapshot())
}

func (r *DualRouter) Log(event RouterEvent, desc string, args ...any) {
	switch event {
	case UpdateAccepted:
		perf.UpdatesAccepted.Add(1)
	case UpdateRejected:
		perf.UpdatesRejected.Add(1)
	case AdvertisementSent:
		perf.AdvertisementsSent.Add(1)
	case AdvertisementSuppressed:
		perf.AdvertisementsSuppressed.Add(1)
	case MalformedUpdate:
		perf.MalformedUpdates.Add(1)
	}

	if event >= MalformedUpdate {
		r.Env.Log.Warn(event.String()+" "+desc, args...)
	} else {
		r.Env.Log.Debug(event.String()+" "+desc, args...)
	}

	switch event {
	case UpdateAccepted, UpdateRejected, RouteUnreachable, MalformedUpdate:
		r.Presenter.OnLogEvent(r.Id, desc)
	}
}
