// Package model defines the core domain types for the event management system.
package model

import "time"

// Role is the closed set of account roles. Every authorization decision
// matches on it exhaustively so an unknown role never passes a check.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// EventStatus is the publishable state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// RegistrationStatus is the state of a user's registration to an event.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	}
	return false
}

// Caller is the authenticated identity attached to a request. The role is
// resolved from stored user data, never trusted from the token payload.
type Caller struct {
	ID   int64
	Role Role
}

// CanMutate is the single ownership capability check shared by the event
// and registration services: the owning user or an admin may mutate.
func (c Caller) CanMutate(ownerID int64) bool {
	switch c.Role {
	case RoleAdmin:
		return true
	case RoleUser, RoleOrganizer:
		return c.ID == ownerID
	}
	return false
}

// User is an account. The password hash never leaves the API.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Avatar    *string   `json:"avatar,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event is a bookable event created by an organizer. Events are only ever
// soft-deleted; past registrations keep referencing them by id.
type Event struct {
	ID              int64       `json:"id"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Description     string      `json:"description"`
	Image           *string     `json:"image,omitempty"`
	Location        string      `json:"location"`
	StartDate       time.Time   `json:"startDate"`
	EndDate         time.Time   `json:"endDate"`
	MaxParticipants *int        `json:"maxParticipants,omitempty"`
	Price           *float64    `json:"price,omitempty"`
	Status          EventStatus `json:"status"`
	OrganizerID     int64       `json:"organizerId"`
	CategoryID      int64       `json:"categoryId"`
	Tags            []Tag       `json:"tags,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	DeletedAt       *time.Time  `json:"-"`
}

// HasStarted reports whether the event start time has passed.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartDate.After(now)
}

// EventSummary is the event snapshot joined onto a registration.
type EventSummary struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Image     *string     `json:"image,omitempty"`
	Location  string      `json:"location"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Price     *float64    `json:"price,omitempty"`
	Status    EventStatus `json:"status"`
}

// UserSummary is the user snapshot joined onto a registration.
type UserSummary struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar,omitempty"`
}

// Registration ties a user to an event. At most one row exists per
// (user, event) pair; the storage layer enforces the uniqueness.
type Registration struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"userId"`
	EventID      int64              `json:"eventId"`
	Status       RegistrationStatus `json:"status"`
	RegisteredAt time.Time          `json:"registeredAt"`
	Event        *EventSummary      `json:"event,omitempty"`
	User         *UserSummary       `json:"user,omitempty"`
}

// Category groups events. Slug-unique; deletion blocked while referenced.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Tag labels events. Slug-unique; deletion blocked while referenced.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     *string   `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RefreshToken is an opaque server-side session token.
type RefreshToken struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventFilter narrows event listings. Zero values mean "no filter".
// Page is 1-indexed; a Limit of 0 disables pagination.
type EventFilter struct {
	Status      EventStatus
	CategoryID  int64
	OrganizerID int64
	Search      string
	StartsAfter *time.Time
	Page        int
	Limit       int
	NewestFirst bool
}
