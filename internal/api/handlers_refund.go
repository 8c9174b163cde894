/**
 * @description
 * HTTP handlers for the refund workflow, tax profiles and the stateless VAT
 * calculator.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
)

// CreateRefundRequestHandler opens a pending refund claim.
func (h *PaymentHandlers) CreateRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var payload domain.CreateRefundRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("level=warn component=api endpoint=refund_create outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	request, err := h.service.CreateRefundRequest(r.Context(), userID, payload)
	if err != nil {
		h.respondServiceError(w, "refund_create", err)
		return
	}

	log.Printf("level=info component=api endpoint=refund_create outcome=ok refund_id=%s project_id=%s amount=%s", request.ID, payload.ProjectID, payload.Amount)
	h.writeJSON(w, http.StatusCreated, refundRequestToView(request))
}

// refundDecisionHandler is shared by the approve and reject endpoints.
func (h *PaymentHandlers) refundDecisionHandler(endpoint string, decide func(r *http.Request, refundID, adminID uuid.UUID, notes string) (*domain.RefundRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := h.authenticatedUserID(w, r)
		if !ok {
			return
		}
		refundID, ok := h.pathUUID(w, chi.URLParam(r, "refundID"), "refund ID")
		if !ok {
			return
		}

		var payload domain.ReviewRefundPayload
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				h.writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		request, err := decide(r, refundID, adminID, payload.Notes)
		if err != nil {
			h.respondServiceError(w, endpoint, err)
			return
		}

		log.Printf("level=info component=api endpoint=%s outcome=ok refund_id=%s admin_id=%s", endpoint, refundID, adminID)
		h.writeJSON(w, http.StatusOK, refundRequestToView(request))
	}
}

// ApproveRefundRequestHandler records an admin approval.
func (h *PaymentHandlers) ApproveRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.refundDecisionHandler("refund_approve", func(r *http.Request, refundID, adminID uuid.UUID, notes string) (*domain.RefundRequest, error) {
		return h.service.ApproveRefundRequest(r.Context(), refundID, adminID, notes)
	})(w, r)
}

// RejectRefundRequestHandler records an admin rejection.
func (h *PaymentHandlers) RejectRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.refundDecisionHandler("refund_reject", func(r *http.Request, refundID, adminID uuid.UUID, notes string) (*domain.RefundRequest, error) {
		return h.service.RejectRefundRequest(r.Context(), refundID, adminID, notes)
	})(w, r)
}

// ProcessRefundHandler executes an approved refund.
func (h *PaymentHandlers) ProcessRefundHandler(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	refundID, ok := h.pathUUID(w, chi.URLParam(r, "refundID"), "refund ID")
	if !ok {
		return
	}

	request, escrow, err := h.service.ProcessRefund(r.Context(), refundID, adminID)
	if err != nil {
		h.respondServiceError(w, "refund_process", err)
		return
	}

	log.Printf("level=info component=api endpoint=refund_process outcome=ok refund_id=%s admin_id=%s", refundID, adminID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"refund_request": refundRequestToView(request),
		"escrow":         escrowAccountToView(escrow),
	})
}

// GetRefundRequestHandler returns one refund request.
func (h *PaymentHandlers) GetRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	refundID, ok := h.pathUUID(w, chi.URLParam(r, "refundID"), "refund ID")
	if !ok {
		return
	}

	request, err := h.service.GetRefundRequest(r.Context(), refundID, userID)
	if err != nil {
		h.respondServiceError(w, "refund_get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, refundRequestToView(request))
}

// ListRefundRequestsHandler lists refund requests with optional project and
// status filters.
func (h *PaymentHandlers) ListRefundRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	limit, offset, err := h.parsePagination(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	filter := store.RefundListFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid project_id filter")
			return
		}
		filter.ProjectID = &projectID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = domain.RefundStatus(raw)
	}

	requests, err := h.service.ListRefundRequests(r.Context(), userID, filter)
	if err != nil {
		h.respondServiceError(w, "refund_list", err)
		return
	}
	h.writeJSON(w, http.StatusOK, refundRequestsToView(requests))
}

// CalculateVATHandler runs the stateless VAT calculator.
func (h *PaymentHandlers) CalculateVATHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticatedUserID(w, r); !ok {
		return
	}

	var payload struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	breakdown, err := h.service.CalculateVAT(payload.Amount)
	if err != nil {
		h.respondServiceError(w, "tax_calculate", err)
		return
	}
	h.writeJSON(w, http.StatusOK, vatBreakdownToView(breakdown))
}

// UpsertTaxProfileHandler writes the caller's VAT registration details.
func (h *PaymentHandlers) UpsertTaxProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var payload domain.UpsertTaxProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.UpsertTaxProfile(r.Context(), userID, payload)
	if err != nil {
		h.respondServiceError(w, "tax_profile_upsert", err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// GetTaxProfileHandler returns the caller's tax profile.
func (h *PaymentHandlers) GetTaxProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetTaxProfile(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, "tax_profile_get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// DeleteTaxProfileHandler removes the caller's tax profile.
func (h *PaymentHandlers) DeleteTaxProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTaxProfile(r.Context(), userID); err != nil {
		h.respondServiceError(w, "tax_profile_delete", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Tax profile deleted"})
}
