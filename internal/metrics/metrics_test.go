package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersStartAtZeroAndIncrement(t *testing.T) {
	before := testutil.ToFloat64(EncoderFramesWritten)
	EncoderFramesWritten.Add(3)
	after := testutil.ToFloat64(EncoderFramesWritten)
	if after-before != 3 {
		t.Errorf("EncoderFramesWritten delta = %v, want 3", after-before)
	}
}

func TestLabeledCounters(t *testing.T) {
	c := RunsTotal.WithLabelValues("success")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got-before != 1 {
		t.Errorf("RunsTotal{success} delta = %v, want 1", got-before)
	}

	FailuresTotal.WithLabelValues("encoder_write").Inc()
	if got := testutil.ToFloat64(FailuresTotal.WithLabelValues("encoder_write")); got < 1 {
		t.Errorf("FailuresTotal{encoder_write} = %v, want >= 1", got)
	}
}

func TestGaugeUpDown(t *testing.T) {
	RunsInFlight.Inc()
	RunsInFlight.Dec()
	if got := testutil.ToFloat64(RunsInFlight); got != 0 {
		t.Errorf("RunsInFlight = %v, want 0", got)
	}
}
