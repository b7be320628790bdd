// Package metrics emits the portal's standard StatsD metrics.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/besf/portal/internal/observability/errors"
	"github.com/besf/portal/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GateOp names a session gate operation.
type GateOp string

const (
	OpRefresh    GateOp = "refresh"
	OpSubscribe  GateOp = "subscribe"
	OpRoleLookup GateOp = "role_lookup"
	OpSignOut    GateOp = "sign_out"
)

// GateMetric captures one gate operation for metric emission.
type GateMetric struct {
	Op       GateOp
	Duration time.Duration
	Err      error
}

// EmitGateOp counts a gate operation tagged with its result and, on failure, the
// error class. A positive Duration is also recorded as a timing.
func EmitGateOp(sink statsd.Sink, in GateMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"op":     string(in.Op),
		"result": ResultSuccess,
	}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("gate.op", 1, tags)

	if in.Duration > 0 {
		sink.Timing("gate.op.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
