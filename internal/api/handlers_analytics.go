/**
 * @description
 * HTTP handlers for the read-only analytics endpoints: the project financial
 * summary and the escrow ledger CSV export.
 */

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetProjectSummaryHandler returns the project's aggregated financial figures.
func (h *PaymentHandlers) GetProjectSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}

	summary, err := h.service.GetProjectFinancialSummary(r.Context(), projectID, userID)
	if err != nil {
		h.respondServiceError(w, "project_summary", err)
		return
	}
	h.writeJSON(w, http.StatusOK, financialSummaryToView(summary))
}

// ExportEscrowTransactionsHandler streams the project's escrow ledger as CSV.
func (h *PaymentHandlers) ExportEscrowTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(w, chi.URLParam(r, "projectID"), "project ID")
	if !ok {
		return
	}

	// The guard runs before any byte is written, so error responses stay clean.
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=escrow-%s.csv", projectID))
	if err := h.service.ExportEscrowTransactionsCSV(r.Context(), projectID, userID, w); err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json")
		h.respondServiceError(w, "escrow_export", err)
	}
}

// ExportWalletTransactionsHandler streams the caller's wallet ledger as CSV.
func (h *PaymentHandlers) ExportWalletTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=wallet-%s.csv", userID))
	if err := h.service.ExportWalletTransactionsCSV(r.Context(), userID, w); err != nil {
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json")
		h.respondServiceError(w, "wallet_export", err)
	}
}
