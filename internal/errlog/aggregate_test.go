package errlog_test

import (
	"testing"

	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/stretchr/testify/assert"
)

func TestSplitElapsed(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    errlog.Elapsed
	}{
		{"zero", 0, errlog.Elapsed{}},
		{"seconds only", 59.9, errlog.Elapsed{Seconds: 59}},
		{"one minute", 60, errlog.Elapsed{Minutes: 1}},
		{"day hour minute seconds", 90065, errlog.Elapsed{Days: 1, Hours: 1, Minutes: 1, Seconds: 5}},
		{"hours wrap at 24", 3 * 86400, errlog.Elapsed{Days: 3}},
		{"just under a day", 86399, errlog.Elapsed{Hours: 23, Minutes: 59, Seconds: 59}},
		{"negative clamps to zero", -5, errlog.Elapsed{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errlog.SplitElapsed(tt.seconds))
		})
	}
}

func TestElapsed_String(t *testing.T) {
	assert.Equal(t, "1 day, 1 hr, 1 min, 5 sec", errlog.SplitElapsed(90065).String())
	assert.Equal(t, "2 days, 30 sec", errlog.SplitElapsed(2*86400+30).String())
	assert.Equal(t, "5 min", errlog.SplitElapsed(300).String())
	assert.Equal(t, "0 sec", errlog.SplitElapsed(0).String())
}
