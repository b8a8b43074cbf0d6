package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-insight/internal/status"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
	RecordSinkError()
	RecordPoll(true)
	RecordPoll(false)
}

func TestStatsRecorder_DeltasAndRebase(t *testing.T) {
	var r StatsRecorder
	before := testutil.ToFloat64(frames)

	r.Record(status.Snapshot{State: status.StateActive, Variables: 3, Stats: status.Stats{Frames: 5}})
	r.Record(status.Snapshot{State: status.StateActive, Variables: 3, Stats: status.Stats{Frames: 8}})
	if got := testutil.ToFloat64(frames) - before; got != 8 {
		t.Fatalf("frames delta: got=%v want=8", got)
	}

	// streamer reset: counters restart from zero
	r.Record(status.Snapshot{State: status.StateDisabled, Stats: status.Stats{Frames: 2}})
	if got := testutil.ToFloat64(frames) - before; got != 10 {
		t.Fatalf("frames after rebase: got=%v want=10", got)
	}
	if testutil.ToFloat64(state) != 0 || testutil.ToFloat64(variables) != 0 {
		t.Fatalf("gauges not updated")
	}
}

func TestLoggerLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "insightd", "warn")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if ParseLevel("bogus") != zerolog.InfoLevel || ParseLevel("OFF") != zerolog.Disabled {
		t.Fatalf("ParseLevel mapping wrong")
	}
}
