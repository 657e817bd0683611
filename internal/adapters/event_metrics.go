package adapters

import (
	"context"

	"onboarding_backend/internal/events"
	"onboarding_backend/platform/metrics"
)

// SubscribeEventMetrics counts every domain event published on the bus.
func SubscribeEventMetrics(bus events.Bus, m *metrics.Manager) {
	for _, name := range events.AllNames {
		bus.Subscribe(name, events.HandlerFunc(func(_ context.Context, e events.Event) error {
			m.DomainEvent(e.EventName())
			return nil
		}))
	}
}
