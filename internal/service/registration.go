package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mvenault/eventhub/internal/model"
)

// RegistrationStore is the persistence contract the registration service
// depends on. Create and UpdateStatus are atomic: the duplicate check,
// the capacity check against the committed confirmed count, and the
// write happen under a lock on the event so concurrent calls cannot
// jointly oversell it.
type RegistrationStore interface {
	Create(ctx context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error)
	UpdateStatus(ctx context.Context, userID, eventID int64, status model.RegistrationStatus) (*model.Registration, error)
	GetByUserAndEvent(ctx context.Context, userID, eventID int64) (*model.Registration, error)
	Delete(ctx context.Context, userID, eventID int64) error
	ListByUser(ctx context.Context, userID int64) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Registration, error)
	CountConfirmed(ctx context.Context, eventID int64) (int, error)
}

// RegistrationService enforces the registration state machine on top of
// the event lifecycle rules.
type RegistrationService struct {
	registrations RegistrationStore
	events        *EventService
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(registrations RegistrationStore, events *EventService) *RegistrationService {
	return &RegistrationService{registrations: registrations, events: events}
}

// Register creates a registration for a published, not-yet-started
// event. The uniqueness and capacity guards run inside the store's
// transaction; the state checks here gate entry.
func (s *RegistrationService) Register(ctx context.Context, req model.CreateRegistrationRequest, userID int64) (*model.Registration, error) {
	event, err := s.events.Get(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventPublished {
		return nil, fmt.Errorf("%w: cannot register to unpublished event", model.ErrInvalidState)
	}
	if event.HasStarted(time.Now()) {
		return nil, fmt.Errorf("%w: cannot register to past event", model.ErrInvalidState)
	}

	status := req.Status
	if status == "" {
		status = model.RegistrationConfirmed
	}

	reg, err := s.registrations.Create(ctx, userID, req.EventID, status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrConflict):
			return nil, fmt.Errorf("%w: you are already registered to this event", model.ErrConflict)
		case errors.Is(err, model.ErrCapacityExceeded):
			return nil, fmt.Errorf("%w: event is full", model.ErrCapacityExceeded)
		case errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("event #%d: %w", req.EventID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}
	return reg, nil
}

// Unregister hard-deletes the caller's registration before the event
// starts. Once the event has started the row is kept as history.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID int64) error {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if _, err := s.registrations.GetByUserAndEvent(ctx, userID, eventID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: you are not registered to this event", model.ErrNotFound)
		}
		return fmt.Errorf("get registration: %w", err)
	}
	if event.HasStarted(time.Now()) {
		return fmt.Errorf("%w: cannot unregister from an event that has already started",
			model.ErrInvalidState)
	}
	return s.registrations.Delete(ctx, userID, eventID)
}

// MyRegistrations returns the caller's registrations, newest first.
func (s *RegistrationService) MyRegistrations(ctx context.Context, userID int64) ([]model.Registration, error) {
	return s.registrations.ListByUser(ctx, userID)
}

// EventRegistrations returns all registrants of an event, oldest first.
// Only the owning organizer or an admin may look.
func (s *RegistrationService) EventRegistrations(ctx context.Context, eventID int64, caller model.Caller) ([]model.Registration, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.CanMutate(event.OrganizerID) {
		return nil, fmt.Errorf("%w: you can only view registrations for your own events",
			model.ErrForbidden)
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// IsRegistered reports whether the user holds a registration for the
// event. The event itself must exist.
func (s *RegistrationService) IsRegistered(ctx context.Context, eventID, userID int64) (bool, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return false, err
	}
	if _, err := s.registrations.GetByUserAndEvent(ctx, userID, eventID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get registration: %w", err)
	}
	return true, nil
}

// UpdateStatus transitions a registration's status on behalf of the
// owning organizer or an admin. The store re-checks capacity on any
// transition into confirmed and refuses to leave cancelled.
func (s *RegistrationService) UpdateStatus(ctx context.Context, eventID, targetUserID int64, status model.RegistrationStatus, caller model.Caller) (*model.Registration, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrInvalidState, status)
	}
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.CanMutate(event.OrganizerID) {
		return nil, fmt.Errorf("%w: you can only update registrations for your own events",
			model.ErrForbidden)
	}

	reg, err := s.registrations.UpdateStatus(ctx, targetUserID, eventID, status)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotFound):
			return nil, fmt.Errorf("registration: %w", model.ErrNotFound)
		case errors.Is(err, model.ErrInvalidState):
			return nil, fmt.Errorf("%w: a cancelled registration cannot be reactivated",
				model.ErrInvalidState)
		case errors.Is(err, model.ErrCapacityExceeded):
			return nil, fmt.Errorf("%w: event is full", model.ErrCapacityExceeded)
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return reg, nil
}
