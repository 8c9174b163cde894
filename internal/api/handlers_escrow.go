/**
 * @description
 * HTTP handlers for the escrow endpoints: the six balance mutations, the
 * balance snapshot and the ledger listing.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
)

type escrowMutationResponse struct {
	Account     escrowAccountView     `json:"account"`
	Transaction escrowTransactionView `json:"transaction"`
}

// escrowMutationHandler is shared by all six escrow mutation endpoints; op
// selects the service method.
func (h *PaymentHandlers) escrowMutationHandler(endpoint string, op func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := h.authenticatedUserID(w, r)
		if !ok {
			return
		}
		projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
		if !ok {
			return
		}

		var req domain.EscrowMutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("level=warn component=api endpoint=%s outcome=reject reason=invalid_json err=%v", endpoint, err)
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		account, tx, err := op(r, projectID, actorID, req)
		if err != nil {
			h.respondServiceError(w, endpoint, err)
			return
		}

		log.Printf("level=info component=api endpoint=%s outcome=ok project_id=%s actor_id=%s amount=%s", endpoint, projectID, actorID, req.Amount)
		h.writeJSON(w, http.StatusOK, escrowMutationResponse{
			Account:     escrowAccountToView(account),
			Transaction: escrowTransactionToView(tx),
		})
	}
}

// DepositHandler handles escrow deposits.
func (h *PaymentHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	h.escrowMutationHandler("escrow_deposit", func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
		return h.service.Deposit(r.Context(), projectID, actorID, req)
	})(w, r)
}

// ReleaseHandler handles full escrow releases.
func (h *PaymentHandlers) ReleaseHandler(w http.ResponseWriter, r *http.Request) {
	h.escrowMutationHandler("escrow_release", func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
		return h.service.Release(r.Context(), projectID, actorID, req)
	})(w, r)
}

// HoldHandler moves available funds on hold.
func (h *PaymentHandlers) HoldHandler(w http.ResponseWriter, r *http.Request) {
	h.escrowMutationHandler("escrow_hold", func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
		return h.service.Hold(r.Context(), projectID, actorID, req)
	})(w, r)
}

// ReleaseHoldHandler moves on-hold funds back to available.
func (h *PaymentHandlers) ReleaseHoldHandler(w http.ResponseWriter, r *http.Request) {
	h.escrowMutationHandler("escrow_release_hold", func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
		return h.service.ReleaseHold(r.Context(), projectID, actorID, req)
	})(w, r)
}

// RefundEscrowHandler handles direct escrow refunds.
func (h *PaymentHandlers) RefundEscrowHandler(w http.ResponseWriter, r *http.Request) {
	h.escrowMutationHandler("escrow_refund", func(r *http.Request, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
		return h.service.RefundEscrow(r.Context(), projectID, actorID, req)
	})(w, r)
}

// PartialReleaseHandler handles milestone-tagged partial releases.
func (h *PaymentHandlers) PartialReleaseHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}

	var req domain.PartialReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=escrow_partial_release outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account, tx, err := h.service.PartialRelease(r.Context(), projectID, actorID, req)
	if err != nil {
		h.respondServiceError(w, "escrow_partial_release", err)
		return
	}

	log.Printf("level=info component=api endpoint=escrow_partial_release outcome=ok project_id=%s actor_id=%s amount=%s milestone_index=%d", projectID, actorID, req.Amount, req.MilestoneIndex)
	h.writeJSON(w, http.StatusOK, escrowMutationResponse{
		Account:     escrowAccountToView(account),
		Transaction: escrowTransactionToView(tx),
	})
}

// GetEscrowBalanceHandler returns the project's escrow balance snapshot.
func (h *PaymentHandlers) GetEscrowBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}

	balance, err := h.service.GetEscrowBalance(r.Context(), projectID, userID)
	if err != nil {
		h.respondServiceError(w, "escrow_balance", err)
		return
	}
	h.writeJSON(w, http.StatusOK, escrowBalanceToView(*balance))
}

// ListEscrowTransactionsHandler returns the project's escrow ledger.
func (h *PaymentHandlers) ListEscrowTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}
	limit, offset, err := h.parsePagination(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	txs, err := h.service.ListEscrowTransactions(r.Context(), projectID, userID, limit, offset)
	if err != nil {
		h.respondServiceError(w, "escrow_transactions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, escrowTransactionsToView(txs))
}
