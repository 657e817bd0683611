package adapters

import (
	"context"
	"strings"
	"testing"

	"onboarding_backend/internal/events"
	"onboarding_backend/platform/logger"
	"onboarding_backend/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSubscribeEventMetricsCountsEvents(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("development"))
	m := metrics.NewManager()
	SubscribeEventMetrics(bus, m)

	if err := bus.PublishSync(context.Background(), events.MilestoneJobFinished{BaseEvent: events.NewBaseEvent(), JobID: "j1", Status: "completed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `
# HELP onboarding_events_published_total Domain events observed on the bus, by name.
# TYPE onboarding_events_published_total counter
onboarding_events_published_total{event="milestones.job.finished"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "onboarding_events_published_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}
