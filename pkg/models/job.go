package models

import (
	"encoding/json"
	"time"
)

// Job is one solver run. Its id comes from the solver's own JobInfo header,
// not from a database sequence.
type Job struct {
	ID         int64           `db:"id"         json:"id"`
	Name       string          `db:"name"       json:"name"`
	Queue      string          `db:"queue"      json:"queue"`
	NumCPU     int32           `db:"num_cpu"    json:"cpus"`
	Nodes      []string        `db:"nodes"      json:"nodes"`
	Parameters json.RawMessage `db:"parameters" json:"parameters,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
