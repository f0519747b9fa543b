package state

import (
	"context"
	"log/slog"
)

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State is the private belief of a single node.
// State access must be done only on the node's own Goroutine
type State struct {
	*Env
	Modules    map[string]Module
	Sources    SourceTable
	Neighbours []NodeId
}

// Env can be read from any Goroutine
type Env struct {
	Id              NodeId
	DispatchChannel chan func(s *State) error
	Topology        *Topology
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
}

// NewState creates a node with its identity route and neighbours taken from the topology.
func NewState(env *Env) *State {
	return &State{
		Env:     env,
		Modules: make(map[string]Module),
		Sources: SourceTable{
			env.Id: {Cost: 0, NextHop: env.Id, Fd: INF},
		},
		Neighbours: env.Topology.Neighbours(env.Id),
	}
}
