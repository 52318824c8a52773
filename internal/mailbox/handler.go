package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appctx "github.com/Mitul30M/exploreinn-sub002/internal/context"
	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
)

// APIResponse represents the standard API response format
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents the error detail in API response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OpenViewRequest is the payload for opening a mailbox view
type OpenViewRequest struct {
	Mailbox   string `json:"mailbox" validate:"required,oneof=user listing admin"`
	ListingID string `json:"listing_id,omitempty" validate:"omitempty,uuid"`
}

// SelectMailRequest is the payload for selecting a mail within a view
type SelectMailRequest struct {
	MailID string `json:"mail_id" validate:"required,uuid"`
}

// Handler handles HTTP requests for mailbox endpoints
type Handler struct {
	views    *ViewService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(views *ViewService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		views:    views,
		validate: validator.New(),
		logger:   logger,
	}
}

// actor reconstructs the caller's identity from the request context, where
// the resolution middleware stored it.
func (h *Handler) actor(ctx context.Context) identity.Actor {
	idStr, ok := appctx.ExtractActorID(ctx)
	if !ok {
		return identity.Anonymous()
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return identity.Anonymous()
	}

	roleStr, _ := appctx.ExtractActorRole(ctx)
	metaStr, _ := appctx.ExtractActorMetadataRole(ctx)
	return identity.Actor{
		ID:           id,
		Role:         identity.ParseRole(roleStr),
		MetadataRole: identity.ParseRole(metaStr),
	}
}

// ListPersonal handles GET /api/v1/mailboxes/me/mails
func (h *Handler) ListPersonal(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())
	h.loadAndRespond(w, r, actor, UserMailbox(actor.ID))
}

// ListListing handles GET /api/v1/mailboxes/listings/{listingID}/mails
func (h *Handler) ListListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		// A malformed listing ID can't name an existing mailbox
		h.writeError(w, http.StatusNotFound, CodeMailboxNotFound, "Mailbox not found")
		return
	}
	h.loadAndRespond(w, r, h.actor(r.Context()), ListingMailbox(listingID))
}

// ListAdmin handles GET /api/v1/mailboxes/admin/mails
func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	h.loadAndRespond(w, r, h.actor(r.Context()), AdminMailbox())
}

// UnreadCount handles GET /api/v1/mailboxes/me/unread
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())

	count, err := h.views.UnreadCount(r.Context(), actor)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"unread": count,
	})
}

// OpenView handles POST /api/v1/mailboxes/views
func (h *Handler) OpenView(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())

	var req OpenViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid view request")
		return
	}

	target, ok := h.targetFromRequest(actor, req)
	if !ok {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "listing_id is required for a listing mailbox")
		return
	}

	session, mails, err := h.views.OpenView(r.Context(), actor, target)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, map[string]interface{}{
		"view_id": session.ID().String(),
		"mails":   mails,
	})
}

// SelectMail handles POST /api/v1/mailboxes/views/{viewID}/select
func (h *Handler) SelectMail(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())

	viewID, err := uuid.Parse(chi.URLParam(r, "viewID"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, CodeViewNotFound, "View not found")
		return
	}

	var req SelectMailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, CodeValidationError, "mail_id must be a UUID")
		return
	}
	mailID, _ := uuid.Parse(req.MailID)

	mail, err := h.views.SelectMail(r.Context(), actor, viewID, mailID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"mail": mail,
	})
}

// CloseMail handles POST /api/v1/mailboxes/views/{viewID}/close
func (h *Handler) CloseMail(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())

	viewID, err := uuid.Parse(chi.URLParam(r, "viewID"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, CodeViewNotFound, "View not found")
		return
	}

	if err := h.views.CloseMail(actor, viewID); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"message": "Mail closed",
	})
}

// DiscardView handles DELETE /api/v1/mailboxes/views/{viewID}
func (h *Handler) DiscardView(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(r.Context())

	viewID, err := uuid.Parse(chi.URLParam(r, "viewID"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, CodeViewNotFound, "View not found")
		return
	}

	h.views.DiscardView(actor, viewID)
	w.WriteHeader(http.StatusNoContent)
}

// targetFromRequest builds the mailbox target named by an open-view request
func (h *Handler) targetFromRequest(actor identity.Actor, req OpenViewRequest) (Target, bool) {
	switch Kind(req.Mailbox) {
	case KindUser:
		return UserMailbox(actor.ID), true
	case KindListing:
		if req.ListingID == "" {
			return Target{}, false
		}
		listingID, err := uuid.Parse(req.ListingID)
		if err != nil {
			return Target{}, false
		}
		return ListingMailbox(listingID), true
	default:
		return AdminMailbox(), true
	}
}

// loadAndRespond runs the authorize-fetch-enrich pipeline for a target and
// writes the mail list.
func (h *Handler) loadAndRespond(w http.ResponseWriter, r *http.Request, actor identity.Actor, target Target) {
	mails, err := h.views.LoadMailbox(r.Context(), actor, target)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]interface{}{
		"mails": mails,
	})
}

// handleError maps core errors to API responses. Authorization denials and
// missing mailboxes must produce one identical code and message.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMailboxNotFound):
		h.writeError(w, http.StatusNotFound, CodeMailboxNotFound, "Mailbox not found")
	case errors.Is(err, ErrMailNotInView):
		h.writeError(w, http.StatusNotFound, CodeMailNotFound, "Mail not found")
	case errors.Is(err, ErrViewNotFound):
		h.writeError(w, http.StatusNotFound, CodeViewNotFound, "View not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusServiceUnavailable, CodeStoreUnavailable, "Request canceled")
	default:
		h.logger.Error("mailbox request failed", "error", err, "path", r.URL.Path)
		h.writeError(w, http.StatusServiceUnavailable, CodeStoreUnavailable, "Mailbox temporarily unavailable")
	}
}

// writeSuccess writes a JSON success response
func (h *Handler) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	})
}
