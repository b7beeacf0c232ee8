package handler

import (
	"net/http"

	"github.com/mvenault/eventhub/internal/model"
	"github.com/mvenault/eventhub/internal/service"
)

// RegistrationHandler exposes event registrations over HTTP. Every route
// requires authentication.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Create handles POST /registrations
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	var req model.CreateRegistrationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	reg, err := h.registrations.Register(r.Context(), req, caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// Delete handles DELETE /registrations/event/{eventId}
func (h *RegistrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	if err := h.registrations.Unregister(r.Context(), eventID, caller.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully unregistered from event"})
}

// MyRegistrations handles GET /registrations/my-registrations
func (h *RegistrationHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	regs, err := h.registrations.MyRegistrations(r.Context(), caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// EventRegistrations handles GET /registrations/event/{eventId}
func (h *RegistrationHandler) EventRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	regs, err := h.registrations.EventRegistrations(r.Context(), eventID, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regs)
}

// IsRegistered handles GET /registrations/event/{eventId}/is-registered
func (h *RegistrationHandler) IsRegistered(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	registered, err := h.registrations.IsRegistered(r.Context(), eventID, caller.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isRegistered": registered})
}

// UpdateStatus handles PATCH /registrations/event/{eventId}/user/{userId}
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	eventID, err := pathID(r, "eventId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req model.UpdateRegistrationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	reg, err := h.registrations.UpdateStatus(r.Context(), eventID, userID, req.Status, caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}
