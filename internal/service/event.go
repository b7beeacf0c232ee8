// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/mvenault/eventhub/internal/model"
)

// EventStore is the persistence contract the event service depends on.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id int64) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	List(ctx context.Context, f model.EventFilter) ([]model.Event, int, error)
	Update(ctx context.Context, e *model.Event) error
	SoftDelete(ctx context.Context, id int64) error
	ReplaceTags(ctx context.Context, eventID int64, tagIDs []int64) error
	TagsFor(ctx context.Context, eventID int64) ([]model.Tag, error)
}

// CategoryResolver validates category references.
type CategoryResolver interface {
	GetByID(ctx context.Context, id int64) (*model.Category, error)
}

// TagResolver validates tag references.
type TagResolver interface {
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
}

// ConfirmedCounter reads the committed confirmed-registration count.
type ConfirmedCounter interface {
	CountConfirmed(ctx context.Context, eventID int64) (int, error)
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// EventService orchestrates event lifecycle operations.
type EventService struct {
	events        EventStore
	categories    CategoryResolver
	tags          TagResolver
	registrations ConfirmedCounter
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, categories CategoryResolver, tags TagResolver, registrations ConfirmedCounter) *EventService {
	return &EventService{events: events, categories: categories, tags: tags, registrations: registrations}
}

// Create derives a slug from the title and persists a new event. The
// slug pre-check is advisory; the store's unique index is authoritative
// and its violation surfaces as the same conflict.
func (s *EventService) Create(ctx context.Context, req model.CreateEventRequest, organizerID int64) (*model.Event, error) {
	eventSlug := slug.Make(req.Title)

	if _, err := s.events.GetBySlug(ctx, eventSlug); err == nil {
		return nil, fmt.Errorf("%w: an event with this title already exists", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("category #%d: %w", req.CategoryID, model.ErrNotFound)
		}
		return nil, err
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.EventDraft
	}

	event := &model.Event{
		Title:           req.Title,
		Slug:            eventSlug,
		Description:     req.Description,
		Image:           req.Image,
		Location:        req.Location,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		Status:          status,
		OrganizerID:     organizerID,
		CategoryID:      req.CategoryID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: an event with this title already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	if len(req.TagIDs) > 0 {
		if err := s.events.ReplaceTags(ctx, event.ID, req.TagIDs); err != nil {
			return nil, fmt.Errorf("attach tags: %w", err)
		}
		event.Tags = tags
	}
	return event, nil
}

// resolveTags validates every referenced tag up front so a bad id fails
// the request before anything is written.
func (s *EventService) resolveTags(ctx context.Context, tagIDs []int64) ([]model.Tag, error) {
	var tags []model.Tag
	for _, id := range tagIDs {
		tag, err := s.tags.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("tag #%d: %w", id, model.ErrNotFound)
			}
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Get returns a single live event by id, tags included.
func (s *EventService) Get(ctx context.Context, id int64) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("event #%d: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Tags, err = s.events.TagsFor(ctx, event.ID); err != nil {
		return nil, fmt.Errorf("load event tags: %w", err)
	}
	return event, nil
}

// GetBySlug returns a single live event by slug, tags included.
func (s *EventService) GetBySlug(ctx context.Context, eventSlug string) (*model.Event, error) {
	event, err := s.events.GetBySlug(ctx, eventSlug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("event %q: %w", eventSlug, model.ErrNotFound)
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	if event.Tags, err = s.events.TagsFor(ctx, event.ID); err != nil {
		return nil, fmt.Errorf("load event tags: %w", err)
	}
	return event, nil
}

// ListParams narrows the public event listing. Filters are conjunctive.
type ListParams struct {
	Page       int
	Limit      int
	Status     model.EventStatus
	CategoryID int64
	Search     string
}

// List returns a page of events plus the unpaginated total, sorted by
// start date ascending.
func (s *EventService) List(ctx context.Context, p ListParams) ([]model.Event, int, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Status != "" && !p.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", model.ErrInvalidState, p.Status)
	}
	return s.events.List(ctx, model.EventFilter{
		Status:     p.Status,
		CategoryID: p.CategoryID,
		Search:     p.Search,
		Page:       p.Page,
		Limit:      p.Limit,
	})
}

// Upcoming returns published events that have not started yet.
func (s *EventService) Upcoming(ctx context.Context) ([]model.Event, error) {
	now := time.Now()
	events, _, err := s.events.List(ctx, model.EventFilter{
		Status:      model.EventPublished,
		StartsAfter: &now,
	})
	return events, err
}

// MyEvents returns the organizer's events, newest first.
func (s *EventService) MyEvents(ctx context.Context, organizerID int64) ([]model.Event, error) {
	events, _, err := s.events.List(ctx, model.EventFilter{
		OrganizerID: organizerID,
		NewestFirst: true,
	})
	return events, err
}

// Update applies a partial patch. Only the owning organizer or an admin
// may mutate; a title change regenerates the slug and re-checks its
// uniqueness against every event except this one.
func (s *EventService) Update(ctx context.Context, id int64, req model.UpdateEventRequest, caller model.Caller) (*model.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanMutate(event.OrganizerID) {
		return nil, fmt.Errorf("%w: you can only update your own events", model.ErrForbidden)
	}

	if req.Title != nil {
		newSlug := slug.Make(*req.Title)
		if existing, err := s.events.GetBySlug(ctx, newSlug); err == nil {
			if existing.ID != id {
				return nil, fmt.Errorf("%w: an event with this title already exists", model.ErrConflict)
			}
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		event.Title = *req.Title
		event.Slug = newSlug
	}

	if req.StartDate != nil || req.EndDate != nil {
		start, end := event.StartDate, event.EndDate
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		if err := validateDates(start, end); err != nil {
			return nil, err
		}
		event.StartDate, event.EndDate = start, end
	}

	if req.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("category #%d: %w", *req.CategoryID, model.ErrNotFound)
			}
			return nil, err
		}
		event.CategoryID = *req.CategoryID
	}

	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Image != nil {
		event.Image = req.Image
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.MaxParticipants != nil {
		event.MaxParticipants = req.MaxParticipants
	}
	if req.Price != nil {
		event.Price = req.Price
	}
	if req.Status != nil {
		event.Status = *req.Status
	}

	var newTags []model.Tag
	if req.TagIDs != nil {
		if newTags, err = s.resolveTags(ctx, *req.TagIDs); err != nil {
			return nil, err
		}
	}

	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: an event with this title already exists", model.ErrConflict)
		}
		return nil, fmt.Errorf("update event: %w", err)
	}

	if req.TagIDs != nil {
		if err := s.events.ReplaceTags(ctx, id, *req.TagIDs); err != nil {
			return nil, fmt.Errorf("replace tags: %w", err)
		}
		event.Tags = newTags
	}
	return event, nil
}

// Delete soft-deletes an event that has no confirmed registrations.
func (s *EventService) Delete(ctx context.Context, id int64, caller model.Caller) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanMutate(event.OrganizerID) {
		return fmt.Errorf("%w: you can only delete your own events", model.ErrForbidden)
	}

	confirmed, err := s.registrations.CountConfirmed(ctx, id)
	if err != nil {
		return fmt.Errorf("count registrations: %w", err)
	}
	if confirmed > 0 {
		return fmt.Errorf("%w: cannot delete event with %d confirmed registration(s)",
			model.ErrPreconditionFailed, confirmed)
	}
	return s.events.SoftDelete(ctx, id)
}

func validateDates(start, end time.Time) error {
	if !start.After(time.Now()) {
		return fmt.Errorf("%w: start date must be in the future", model.ErrInvalidState)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end date must be after start date", model.ErrInvalidState)
	}
	return nil
}
