package core

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/dualsim/state"
	"github.com/google/go-cmp/cmp"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

// RouterHarness records every side effect of the routing algorithm instead of performing it.
type RouterHarness struct {
	actions []HarnessEvent
	// links that report Suppressed on Transmit
	down map[state.NodeId]bool
}

func (h *RouterHarness) Transmit(neigh state.NodeId, payload []byte) TransmitResult {
	if h.down[neigh] {
		h.actions = append(h.actions, MakeEvent("SUPPRESSED", neigh))
		return Suppressed
	}
	h.actions = append(h.actions, MakeEvent("TRANSMIT", neigh, string(payload)))
	return Delivered
}

func (h *RouterHarness) TableChanged() {
	h.actions = append(h.actions, MakeEvent("TABLE_CHANGED"))
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

func (h *RouterHarness) LinkDown(neigh state.NodeId) {
	if h.down == nil {
		h.down = make(map[state.NodeId]bool)
	}
	h.down[neigh] = true
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears every recorded action except logs.
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}

	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetLogs returns and clears every recorded action.
func (h *RouterHarness) GetLogs() HarnessEvents {
	x := h.actions
	h.actions = make([]HarnessEvent, 0)
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message == msg {
			if len(event.Args) >= len(args) {
				match := true
				for i, arg := range args {
					if !cmp.Equal(event.Args[i], arg) {
						match = false
						break
					}
				}
				if match {
					return true
				}
			}
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

// MakeState builds the state of node id in a network made of the given bidirectional links.
func MakeState(id state.NodeId, links map[state.EdgeKey]state.Metric) *state.State {
	nodes := []state.NodeId{id}
	edges := make(map[state.EdgeKey]state.Metric)
	for link, cost := range links {
		edges[link] = cost
		edges[state.EdgeKey{V1: link.V2, V2: link.V1}] = cost
		nodes = append(nodes, link.V1, link.V2)
	}
	slices.Sort(nodes)
	nodes = slices.Compact(nodes)
	return state.NewState(&state.Env{
		Id:       id,
		Topology: state.NewTopology(nodes, edges),
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (h *RouterHarness) NeighUpdate(s *state.State, neigh state.NodeId, updates ...state.Update) error {
	payload, err := state.EncodeUpdates(updates)
	if err != nil {
		return err
	}
	return HandleUpdates(s, h, neigh, payload)
}

func U(id state.NodeId, cost state.Metric) state.Update {
	return state.Update{Id: id, Cost: cost}
}
