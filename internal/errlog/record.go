// Package errlog turns solver error logs into chart-ready series.
//
// A series is the per-iteration error history of one job. Before it reaches a
// chart it gets a noise floor on both error channels and a gap marker at every
// load-step transition, so the renderer draws one line segment per step.
package errlog

// IterationRecord is one observation of solver progress. A nil Iteration marks
// a synthetic gap marker. A nil error channel means the point contributes
// nothing to that channel.
//
// Decoded from the tuple [iters, load, error_u, error_phi].
type IterationRecord struct {
	_msgpack struct{} `msgpack:",as_array"`

	Iteration      *int64   `json:"iters"`
	Load           float64  `json:"load"`
	ErrorPrimary   *float64 `json:"error_u"`
	ErrorSecondary *float64 `json:"error_phi"`
}

// IsMarker reports whether r is a gap marker rather than a measurement.
func (r IterationRecord) IsMarker() bool {
	return r.Iteration == nil
}

// SummaryRecord is one load step: how many iterations it took and, except for
// the final step, how long it ran.
//
// Decoded from the tuple [load, iters, cost].
type SummaryRecord struct {
	_msgpack struct{} `msgpack:",as_array"`

	Load       float64  `json:"load"`
	Iterations int64    `json:"iters"`
	Cost       *float64 `json:"cost"`
}

// Series is the decoded content of one error-log payload.
type Series struct {
	_msgpack struct{} `msgpack:",as_array"`

	Summary []SummaryRecord
	Errors  []IterationRecord
}

// marker returns the gap marker placed before the first record of a load step.
func marker(load float64) IterationRecord {
	return IterationRecord{Load: load}
}
