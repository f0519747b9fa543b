package state

import (
	"math"
	"time"
)

// INF is the sentinel metric for an unusable link or unreachable destination.
var INF = Metric(math.Inf(1))

var (
	DefaultTick   = time.Second
	DefaultJitter = 100 * time.Millisecond
	DefaultCost   = Metric(1)

	// LogDedupTTL is how long an identical log line from the same node is collapsed for.
	LogDedupTTL = 2 * time.Second

	DispatchBufferSize = 128
	// SlowDispatchThreshold triggers a warning when a single dispatched function runs longer.
	SlowDispatchThreshold = 4 * time.Millisecond
)
