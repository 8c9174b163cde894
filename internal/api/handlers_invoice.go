/**
 * @description
 * HTTP handlers for invoice endpoints: creation, lifecycle transitions,
 * payment and the read paths.
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

// CreateInvoiceHandler raises a draft invoice.
func (h *PaymentHandlers) CreateInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var payload domain.CreateInvoicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("level=warn component=api endpoint=invoice_create outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	invoice, err := h.service.CreateInvoice(r.Context(), actorID, payload)
	if err != nil {
		h.respondServiceError(w, "invoice_create", err)
		return
	}

	log.Printf("level=info component=api endpoint=invoice_create outcome=ok invoice_number=%s project_id=%s", invoice.InvoiceNumber, invoice.ProjectID)
	h.writeJSON(w, http.StatusCreated, invoiceToView(invoice))
}

// GetInvoiceHandler returns one invoice with its line items.
func (h *PaymentHandlers) GetInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathUUID(w, chi.URLParam(r, "invoiceID"), "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.service.GetInvoice(r.Context(), invoiceID, userID)
	if err != nil {
		h.respondServiceError(w, "invoice_get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, invoiceToView(invoice))
}

// ListInvoicesHandler returns the caller's invoices as client or consultant.
func (h *PaymentHandlers) ListInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	limit, offset, err := h.parsePagination(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	filter := domain.InvoiceListFilter{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid project_id filter")
			return
		}
		filter.ProjectID = &projectID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = domain.InvoiceStatus(raw)
	}

	invoices, err := h.service.ListInvoices(r.Context(), userID, filter)
	if err != nil {
		h.respondServiceError(w, "invoice_list", err)
		return
	}
	h.writeJSON(w, http.StatusOK, invoicesToView(invoices))
}

// PayInvoiceHandler settles an invoice from the client's wallet.
func (h *PaymentHandlers) PayInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathUUID(w, chi.URLParam(r, "invoiceID"), "invoice ID")
	if !ok {
		return
	}

	invoice, tx, err := h.service.PayInvoice(r.Context(), invoiceID, actorID)
	if err != nil {
		h.respondServiceError(w, "invoice_pay", err)
		return
	}

	log.Printf("level=info component=api endpoint=invoice_pay outcome=ok invoice_number=%s payer_id=%s", invoice.InvoiceNumber, actorID)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoice":     invoiceToView(invoice),
		"transaction": walletTransactionToView(tx),
	})
}

// SendInvoiceHandler marks a draft invoice sent.
func (h *PaymentHandlers) SendInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathUUID(w, chi.URLParam(r, "invoiceID"), "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.service.SendInvoice(r.Context(), invoiceID, actorID)
	if err != nil {
		h.respondServiceError(w, "invoice_send", err)
		return
	}
	h.writeJSON(w, http.StatusOK, invoiceToView(invoice))
}

// CancelInvoiceHandler voids an unpaid invoice.
func (h *PaymentHandlers) CancelInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathUUID(w, chi.URLParam(r, "invoiceID"), "invoice ID")
	if !ok {
		return
	}

	invoice, err := h.service.CancelInvoice(r.Context(), invoiceID, actorID)
	if err != nil {
		h.respondServiceError(w, "invoice_cancel", err)
		return
	}
	h.writeJSON(w, http.StatusOK, invoiceToView(invoice))
}

// PeekInvoiceNumberHandler previews the next invoice number without
// consuming it.
func (h *PaymentHandlers) PeekInvoiceNumberHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticatedUserID(w, r); !ok {
		return
	}

	number, err := h.service.PeekInvoiceNumber(r.Context())
	if err != nil {
		h.respondServiceError(w, "invoice_peek_number", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"next_invoice_number": number})
}
