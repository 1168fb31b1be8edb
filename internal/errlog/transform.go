package errlog

// NoiseFloor is the largest error value still treated as numerically zero.
const NoiseFloor = 1e-25

// Transform applies the noise floor and inserts gap markers. The input is not
// modified.
func Transform(records []IterationRecord) []IterationRecord {
	return InsertGapMarkers(ApplyNoiseFloor(records))
}

// ApplyNoiseFloor returns a copy of records where every present error value
// not above NoiseFloor is replaced by nil. Markers are copied unchanged.
func ApplyNoiseFloor(records []IterationRecord) []IterationRecord {
	out := make([]IterationRecord, len(records))
	for i, r := range records {
		if !r.IsMarker() {
			r.ErrorPrimary = floor(r.ErrorPrimary)
			r.ErrorSecondary = floor(r.ErrorSecondary)
		}
		out[i] = r
	}
	return out
}

func floor(v *float64) *float64 {
	if v == nil || *v <= NoiseFloor {
		return nil
	}
	return v
}

// InsertGapMarkers returns records with one marker inserted before the first
// record of every load step but the first. A marker is only placed right after
// a real record, so markers already present in the input are passed through and
// never trigger another one.
func InsertGapMarkers(records []IterationRecord) []IterationRecord {
	out := make([]IterationRecord, 0, len(records)+countTransitions(records))
	var sc boundaryScanner
	for _, r := range records {
		if sc.next(r) {
			out = append(out, marker(r.Load))
		}
		out = append(out, r)
	}
	return out
}

// countTransitions reports how many markers InsertGapMarkers adds.
func countTransitions(records []IterationRecord) int {
	n := 0
	var sc boundaryScanner
	for _, r := range records {
		if sc.next(r) {
			n++
		}
	}
	return n
}

// boundaryScanner carries the load of the previous element across a forward
// scan. It only ever sees input elements, never inserted markers.
type boundaryScanner struct {
	lastLoad float64
	prevReal bool
}

// next reports whether a marker belongs in front of r and advances past r.
func (s *boundaryScanner) next(r IterationRecord) bool {
	boundary := s.prevReal && !r.IsMarker() && r.Load != s.lastLoad
	s.prevReal = !r.IsMarker()
	s.lastLoad = r.Load
	return boundary
}
