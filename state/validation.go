package state

import (
	"fmt"
	"math"
	"regexp"
)

var namePattern, _ = regexp.Compile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

func CostValidator(cost Metric) error {
	if math.IsNaN(float64(cost)) || cost < 0 {
		return fmt.Errorf("%w: %v must be non-negative", ErrInvalidCost, float64(cost))
	}
	return nil
}

func SimConfigValidator(cfg *SimCfg) error {
	if cfg.Tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", cfg.Tick)
	}
	if cfg.Jitter < 0 || cfg.Jitter >= cfg.Tick {
		return fmt.Errorf("jitter must satisfy 0 <= jitter < tick, got jitter=%s tick=%s", cfg.Jitter, cfg.Tick)
	}
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("no nodes defined")
	}
	seen := make(map[NodeId]struct{})
	for _, node := range cfg.Nodes {
		err := NameValidator(string(node))
		if err != nil {
			return err
		}
		if _, ok := seen[node]; ok {
			return fmt.Errorf("duplicate node: %s", node)
		}
		seen[node] = struct{}{}
	}
	if cfg.DefaultCost != nil {
		if err := CostValidator(*cfg.DefaultCost); err != nil {
			return fmt.Errorf("default_cost: %w", err)
		}
	}
	edges, err := cfg.ExpandEdges()
	if err != nil {
		return err
	}
	for edge, cost := range edges {
		if _, ok := seen[edge.V1]; !ok {
			return fmt.Errorf("node %s not defined", edge.V1)
		}
		if _, ok := seen[edge.V2]; !ok {
			return fmt.Errorf("node %s not defined", edge.V2)
		}
		if edge.V1 == edge.V2 {
			return fmt.Errorf("self edge on %s", edge.V1)
		}
		if err := CostValidator(cost); err != nil {
			return fmt.Errorf("edge %s->%s: %w", edge.V1, edge.V2, err)
		}
	}
	for i, ev := range cfg.Events {
		if ev.At < 0 {
			return fmt.Errorf("event %d: at must not be negative", i)
		}
		if err := CostValidator(ev.Cost); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if _, ok := edges[EdgeKey{ev.From, ev.To}]; !ok {
			return fmt.Errorf("event %d: %w: %s->%s", i, ErrUnknownEdge, ev.From, ev.To)
		}
		if _, ok := edges[EdgeKey{ev.To, ev.From}]; ev.Bidirectional && !ok {
			return fmt.Errorf("event %d: %w: %s->%s", i, ErrUnknownEdge, ev.To, ev.From)
		}
	}
	return nil
}
