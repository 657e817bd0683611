// Package events re-exports the platform event bus so modules import a
// single events package for both infrastructure and domain event types.
package events

import (
	platformevents "onboarding_backend/platform/events"
	"onboarding_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
