package models

import "time"

// LogEntry is one parsed solver log line, as written to the error_log table.
type LogEntry struct {
	Timestamp time.Time `db:"timestamp"`
	Load      float64   `db:"load"`
	Iter      int32     `db:"iter"`
	ErrorU    float64   `db:"error_u"`
	ErrorPhi  float64   `db:"error_phi"`
}

// ErrorLogSummary is one row per load step. Cost is the wall time until the
// next step started and is nil for the last step.
//
// Encoded on the wire as the tuple [load, iters, cost].
type ErrorLogSummary struct {
	_msgpack struct{} `msgpack:",as_array"`

	Load  float64  `db:"load"  json:"load"`
	Iters int64    `db:"iters" json:"iters"`
	Cost  *float64 `db:"cost"  json:"cost"`
}

// ErrorLogEntry is one solver iteration. Iters is the 1-based rank of the
// row in timestamp order, not the per-step counter stored in the log.
//
// Encoded on the wire as the tuple [iters, load, error_u, error_phi].
type ErrorLogEntry struct {
	_msgpack struct{} `msgpack:",as_array"`

	Iters    int64   `db:"iters"     json:"iters"`
	Load     float64 `db:"load"      json:"load"`
	ErrorU   float64 `db:"error_u"   json:"error_u"`
	ErrorPhi float64 `db:"error_phi" json:"error_phi"`
}
