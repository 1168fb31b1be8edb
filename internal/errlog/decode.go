package errlog

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/solverwatch/pkg/models"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformedPayload is returned when a binary payload does not decode to
// [summaryTuples, errorTuples].
var ErrMalformedPayload = errors.New("malformed error log payload")

// ContentType is the media type of an encoded payload.
const ContentType = "application/vnd.msgpack"

// EncodePayload packs summary and entry rows into the binary wire format
// [[load, iters, cost]...], [[iters, load, error_u, error_phi]...].
func EncodePayload(summary []models.ErrorLogSummary, entries []models.ErrorLogEntry) ([]byte, error) {
	if summary == nil {
		summary = []models.ErrorLogSummary{}
	}
	if entries == nil {
		entries = []models.ErrorLogEntry{}
	}
	b, err := msgpack.Marshal([]any{summary, entries})
	if err != nil {
		return nil, fmt.Errorf("encode error log payload: %w", err)
	}
	return b, nil
}

// DecodePayload unpacks a binary payload. Only type conformance is checked.
func DecodePayload(b []byte) (Series, error) {
	var s Series
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return Series{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if s.Summary == nil {
		s.Summary = []SummaryRecord{}
	}
	if s.Errors == nil {
		s.Errors = []IterationRecord{}
	}
	return s, nil
}

// FromRows maps queried rows to records. The iteration of each entry is the
// rank the query assigned, so it is always present.
func FromRows(summary []models.ErrorLogSummary, entries []models.ErrorLogEntry) Series {
	s := Series{
		Summary: make([]SummaryRecord, len(summary)),
		Errors:  make([]IterationRecord, len(entries)),
	}
	for i, row := range summary {
		s.Summary[i] = SummaryRecord{Load: row.Load, Iterations: row.Iters, Cost: row.Cost}
	}
	for i, row := range entries {
		iter, u, phi := row.Iters, row.ErrorU, row.ErrorPhi
		s.Errors[i] = IterationRecord{
			Iteration:      &iter,
			Load:           row.Load,
			ErrorPrimary:   &u,
			ErrorSecondary: &phi,
		}
	}
	return s
}
