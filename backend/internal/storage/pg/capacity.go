package pg

import (
	"context"

	"github.com/practix/practix/shared/domain"
)

// Capacity figures are always counted, never stored.

// Capacity reads the approved and pending counts of an event in one
// statement, so the figures agree with each other.
func (s *Storage) Capacity(ctx context.Context, eventId domain.EventId) (domain.CapacityState, error) {
	event, err := s.event(ctx, s.db, eventId)
	if err != nil {
		return domain.CapacityState{}, err
	}
	return event.CapacityState(), nil
}
