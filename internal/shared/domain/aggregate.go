package domain

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is the consistency boundary that records domain events
// until they are handed to the outbox.
type AggregateRoot interface {
	ID() uuid.UUID
	CreatedAt() time.Time
	DomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot carries identity, creation time and pending events.
type BaseAggregateRoot struct {
	id           uuid.UUID
	createdAt    time.Time
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a root with a fresh ID.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
	}
}

// RehydrateBaseAggregateRoot recreates a root from persisted state.
func RehydrateBaseAggregateRoot(id uuid.UUID, createdAt time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{
		id:        id,
		createdAt: createdAt,
	}
}

func (a *BaseAggregateRoot) ID() uuid.UUID        { return a.id }
func (a *BaseAggregateRoot) CreatedAt() time.Time { return a.createdAt }

// DomainEvents returns events recorded since the last clear.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops all recorded events.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// AddDomainEvent records an event.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}
