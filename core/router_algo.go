package core

import (
	"fmt"

	"github.com/encodeous/dualsim/state"
)

type RouterEvent int

// trace events

const (
	UpdateAccepted RouterEvent = iota
	UpdateRejected
	RouteUnreachable
	AdvertisementSent
	AdvertisementSuppressed
)

// warn events

const (
	MalformedUpdate RouterEvent = iota + 1000
	InconsistentState
)

func (e RouterEvent) String() string {
	switch e {
	case UpdateAccepted:
		return "UpdateAccepted"
	case UpdateRejected:
		return "UpdateRejected"
	case RouteUnreachable:
		return "RouteUnreachable"
	case AdvertisementSent:
		return "AdvertisementSent"
	case AdvertisementSuppressed:
		return "AdvertisementSuppressed"
	case MalformedUpdate:
		return "MalformedUpdate"
	case InconsistentState:
		return "InconsistentState"
	}
	return fmt.Sprintf("RouterEvent(%d)", int(e))
}

// TransmitResult is the outcome of handing an advertisement to a neighbour.
type TransmitResult int

const (
	Delivered TransmitResult = iota
	// Suppressed means the link to the neighbour is down, nothing was sent.
	Suppressed
)

func (t TransmitResult) String() string {
	if t == Suppressed {
		return "Suppressed"
	}
	return "Delivered"
}

// Router is an interface that defines the underlying router operations
type Router interface {
	// Transmit schedules delivery of an encoded advertisement to a neighbour.
	Transmit(neigh state.NodeId, payload []byte) TransmitResult
	// TableChanged is called after the local source table was mutated.
	TableChanged()
	Log(event RouterEvent, desc string, args ...any)
}

// CheckFeasibility decides whether an update for upd.Id received from a neighbour may be applied.
// cur and ok are the current source entry for the destination, if any.
func CheckFeasibility(self, from state.NodeId, upd state.Update, cur state.Source, ok bool) bool {
	if upd.Id == self {
		// never route to ourselves through someone else
		return false
	} else if !ok {
		// first route to a destination is always accepted
		return true
	} else if from == cur.NextHop {
		// the successor is authoritative for its own path, this carries cost increases and retractions
		return true
	} else if upd.Cost < cur.Fd {
		// the neighbour is strictly closer than anything we have ever advertised, so it can't be routing through us
		return true
	}
	return false
}

// ApplyUpdate runs a single update through the feasibility condition and merges it into the source table.
// edgeCost is the cost of the link from this node to the neighbour.
func ApplyUpdate(s *state.State, r Router, from state.NodeId, edgeCost state.Metric, upd state.Update) bool {
	cur, ok := s.Sources[upd.Id]
	if !CheckFeasibility(s.Id, from, upd, cur, ok) {
		r.Log(UpdateRejected, fmt.Sprintf("%s rejected update %s from %s", s.Id, upd, from),
			"from", from, "dst", upd.Id, "cost", upd.Cost)
		return false
	}

	if !ok {
		cur = state.Source{Fd: state.INF}
	}
	cur.Cost = upd.Cost.Add(edgeCost)
	cur.NextHop = from
	s.Sources[upd.Id] = cur

	r.Log(UpdateAccepted, fmt.Sprintf("%s accepted update %s from %s to source %s", s.Id, upd, from, cur),
		"from", from, "dst", upd.Id, "cost", cur.Cost)
	r.TableChanged()
	return true
}

// HandleUpdates processes an advertisement received from a neighbour.
// A malformed payload is rejected as a whole and leaves the source table untouched.
func HandleUpdates(s *state.State, r Router, from state.NodeId, payload []byte) error {
	updates, err := state.DecodeUpdates(payload)
	if err != nil {
		r.Log(MalformedUpdate, fmt.Sprintf("%s dropped malformed update from %s", s.Id, from), "from", from, "error", err)
		return fmt.Errorf("decode update from %s: %w", from, err)
	}

	// the cost of reaching the neighbour that sent this advertisement
	edgeCost, ok := s.Topology.EdgeCost(s.Id, from)
	if !ok {
		edgeCost = 0
	}

	for _, upd := range updates {
		ApplyUpdate(s, r, from, edgeCost, upd)
	}
	return nil
}

// UpdateFeasibility commits the current cost of every source as the feasibility distance floor.
// Must be called right before the sources are advertised.
func UpdateFeasibility(s *state.State) {
	for id, src := range s.Sources {
		if src.Cost < src.Fd {
			src.Fd = src.Cost
			s.Sources[id] = src
		}
	}
}

// BuildAdvertisement lists every known destination with its current cost, ordered by destination.
func BuildAdvertisement(s *state.State) []state.Update {
	updates := make([]state.Update, 0, len(s.Sources))
	for _, id := range s.Sources.Destinations() {
		updates = append(updates, state.Update{
			Id:   id,
			Cost: s.Sources[id].Cost,
		})
	}
	return updates
}

// Advertise sends the full source table to every neighbour. If the link to a neighbour is down,
// every route through that neighbour becomes unreachable.
func Advertise(s *state.State, r Router) error {
	UpdateFeasibility(s)
	payload, err := state.EncodeUpdates(BuildAdvertisement(s))
	if err != nil {
		return fmt.Errorf("encode advertisement: %w", err)
	}

	for _, neigh := range s.Neighbours {
		if r.Transmit(neigh, payload) == Suppressed {
			MarkUnreachable(s, r, neigh)
		}
	}
	return nil
}

// MarkUnreachable sets the cost of every route with nextHop neigh to INF.
func MarkUnreachable(s *state.State, r Router, neigh state.NodeId) {
	changed := false
	for _, dst := range s.Sources.Destinations() {
		src := s.Sources[dst]
		if dst == s.Id || src.NextHop != neigh || src.Cost.IsInf() {
			continue
		}
		src.Cost = state.INF
		s.Sources[dst] = src
		changed = true
		r.Log(RouteUnreachable, fmt.Sprintf("%s lost route to %s, %s is unreachable", s.Id, dst, neigh),
			"dst", dst, "nh", neigh)
	}
	if changed {
		r.TableChanged()
	}
}
