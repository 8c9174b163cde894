/**
 * @description
 * This file contains the shared plumbing for the payment-service's HTTP
 * handlers: the handler struct, JSON helpers, the authenticated-user helper
 * and the mapping from the service error taxonomy to HTTP status codes.
 * Per-aggregate handlers live in their own files.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/store: For service logic and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/app"
	"github.com/consultlink/payment-service/internal/store"
)

// PaymentHandlers holds the application service that handlers will use.
type PaymentHandlers struct {
	service   *app.Service
	pageLimit int
}

// NewPaymentHandlers creates a new instance of PaymentHandlers. defaultPageLimit
// is the page size list endpoints fall back to when no limit is given.
func NewPaymentHandlers(service *app.Service, defaultPageLimit int) *PaymentHandlers {
	if defaultPageLimit <= 0 {
		defaultPageLimit = 50
	}
	return &PaymentHandlers{service: service, pageLimit: defaultPageLimit}
}

// authenticatedUserID extracts and parses the caller's UUID from the request
// context. Writes the error response itself when the id is missing or bad.
func (h *PaymentHandlers) authenticatedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := GetAuthUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get user ID from context")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("level=warn component=api outcome=reject reason=invalid_user_id user_id=%s", userIDStr)
		h.writeError(w, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses one URL parameter as a UUID.
func (h *PaymentHandlers) pathUUID(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Every
// handler funnels service failures through here so the mapping stays in one
// place.
func (h *PaymentHandlers) respondServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, store.ErrEscrowAccountNotFound),
		errors.Is(err, store.ErrWalletNotFound),
		errors.Is(err, store.ErrMilestoneNotFound),
		errors.Is(err, store.ErrInvoiceNotFound),
		errors.Is(err, store.ErrRefundRequestNotFound),
		errors.Is(err, store.ErrTaxProfileNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, "Caller is not authorized for this operation")
	case errors.Is(err, store.ErrInsufficientBalance):
		h.writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, store.ErrMilestoneExists):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidAmount), errors.Is(err, app.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s outcome=failed err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parsePagination reads limit/offset query params with defaults.
func (h *PaymentHandlers) parsePagination(r *http.Request) (limit, offset int, err error) {
	limit, err = parseOptionalInt(r.URL.Query().Get("limit"), h.pageLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = parseOptionalInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func parseOptionalInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// writeJSON is a helper for writing JSON responses.
func (h *PaymentHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *PaymentHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
