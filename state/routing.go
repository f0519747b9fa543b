package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

type NodeId string

// Metric is an additive link/route cost. INF means unreachable.
type Metric float64

func (m Metric) IsInf() bool {
	return math.IsInf(float64(m), 1)
}

// Add sums two metrics, INF absorbs.
func (m Metric) Add(o Metric) Metric {
	if m.IsInf() || o.IsInf() {
		return INF
	}
	return m + o
}

func (m Metric) String() string {
	if m.IsInf() {
		return infinityToken
	}
	return strconv.FormatFloat(float64(m), 'g', -1, 64)
}

// Source is a routing table entry for a single destination.
type Source struct {
	Cost    Metric
	NextHop NodeId
	Fd      Metric // feasibility distance, lowest cost ever advertised
}

func (s Source) String() string {
	return fmt.Sprintf("(cost: %s, nh: %s, fd: %s)", s.Cost, s.NextHop, s.Fd)
}

// Update is a single advertised (destination, cost) record.
type Update struct {
	Id   NodeId `json:"id"`
	Cost Metric `json:"cost"`
}

func (u Update) String() string {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Sprintf("{id: %s, cost: %s}", u.Id, u.Cost)
	}
	return string(b)
}

// SourceTable maps a destination to the best known route.
type SourceTable map[NodeId]Source

func (t SourceTable) Clone() SourceTable {
	return maps.Clone(t)
}

func (t SourceTable) Destinations() []NodeId {
	return slices.Sorted(maps.Keys(t))
}

func (t SourceTable) String() string {
	rt := make([]string, 0, len(t))
	for _, dst := range t.Destinations() {
		rt = append(rt, fmt.Sprintf("%s via %s", dst, t[dst]))
	}
	return strings.Join(rt, "\n")
}
