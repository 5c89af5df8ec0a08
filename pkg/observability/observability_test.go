package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/observability"
)

func TestMetrics_CountsStepsAndRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	ctx := context.Background()

	m.Notify(ctx, domain.Event{Type: domain.EventStepComplete, RunID: "r1", Step: 1, Node: "tick", State: map[string]any{"count": 1.0}, Timestamp: time.Now()})
	m.Notify(ctx, domain.Event{Type: domain.EventStepComplete, RunID: "r1", Step: 2, Node: "tick", Timestamp: time.Now()})
	m.Notify(ctx, domain.Event{Type: domain.EventWorkflowComplete, RunID: "r1", Step: 2, Timestamp: time.Now()})
	m.Notify(ctx, domain.Event{Type: domain.EventError, RunID: "r2", Step: 1, Node: "boom", Error: "exploded", Timestamp: time.Now()})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepsTotal().WithLabelValues("tick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal().WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal().WithLabelValues("failed")))
}

func TestMetrics_IgnoresConnected(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.Notify(context.Background(), domain.Event{Type: domain.EventConnected, RunID: "r1"})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsTotal().WithLabelValues("completed")))
}
