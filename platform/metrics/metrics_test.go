package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJobLifecycleCounters(t *testing.T) {
	m := NewManager()

	m.JobSubmitted(14)
	m.DriverProcessed(true, 10*time.Millisecond)
	m.DriverProcessed(false, 20*time.Millisecond)
	m.JobFinished("completed")

	if got := testutil.ToFloat64(m.jobsSubmitted.WithLabelValues("14")); got != 1 {
		t.Fatalf("expected 1 submitted job, got %v", got)
	}
	if got := testutil.ToFloat64(m.driversDone.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed driver, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobsRunning); got != 0 {
		t.Fatalf("expected no running jobs, got %v", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewManager(WithNamespace("test"))
	m.DomainEvent("milestones.fulfilled")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `test_events_published_total{event="milestones.fulfilled"} 1`) {
		t.Fatalf("expected event counter in exposition, got:\n%s", w.Body.String())
	}
}
