package model

import "time"

// Request payloads decoded by the handlers and passed straight into the
// services. Validation tags are enforced at the HTTP boundary.

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title           string      `json:"title" validate:"required,min=3,max=200"`
	Description     string      `json:"description" validate:"required,min=10"`
	Image           *string     `json:"image,omitempty" validate:"omitempty,max=500"`
	Location        string      `json:"location" validate:"required,max=200"`
	StartDate       time.Time   `json:"startDate" validate:"required"`
	EndDate         time.Time   `json:"endDate" validate:"required"`
	MaxParticipants *int        `json:"maxParticipants,omitempty" validate:"omitempty,min=1"`
	Price           *float64    `json:"price,omitempty" validate:"omitempty,gt=0"`
	Status          EventStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published cancelled completed"`
	CategoryID      int64       `json:"categoryId" validate:"required"`
	TagIDs          []int64     `json:"tagIds,omitempty" validate:"omitempty,dive,gt=0"`
}

// UpdateEventRequest is a partial patch; nil fields are left untouched.
type UpdateEventRequest struct {
	Title           *string      `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description     *string      `json:"description,omitempty" validate:"omitempty,min=10"`
	Image           *string      `json:"image,omitempty" validate:"omitempty,max=500"`
	Location        *string      `json:"location,omitempty" validate:"omitempty,max=200"`
	StartDate       *time.Time   `json:"startDate,omitempty"`
	EndDate         *time.Time   `json:"endDate,omitempty"`
	MaxParticipants *int         `json:"maxParticipants,omitempty" validate:"omitempty,min=1"`
	Price           *float64     `json:"price,omitempty" validate:"omitempty,gt=0"`
	Status          *EventStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published cancelled completed"`
	CategoryID      *int64       `json:"categoryId,omitempty"`
	TagIDs          *[]int64     `json:"tagIds,omitempty" validate:"omitempty,dive,gt=0"`
}

// CreateRegistrationRequest is the payload for registering to an event.
type CreateRegistrationRequest struct {
	EventID int64              `json:"eventId" validate:"required"`
	Status  RegistrationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
}

// UpdateRegistrationRequest changes a registration's status.
type UpdateRegistrationRequest struct {
	Status RegistrationStatus `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// UpdateCategoryRequest is a partial category patch.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// CreateTagRequest is the payload for creating a tag.
type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateTagRequest is a partial tag patch.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// RegisterUserRequest creates an account. Role always defaults to "user".
type RegisterUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// LoginRequest exchanges credentials for a token pair.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest renews an access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UpdateUserRequest is a partial profile patch.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,max=500"`
}
