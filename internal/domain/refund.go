/**
 * @description
 * Domain models for the refund request workflow and tax profiles. Refunds
 * follow pending -> (approved | rejected), approved -> processed; rejected
 * and processed are terminal. Processing a refund moves escrow money and
 * transitions the request in one atomic unit.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus is the refund request lifecycle state.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
)

// RefundRequest is one client- or consultant-raised refund claim against a
// project's escrow.
type RefundRequest struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	RequestedBy uuid.UUID    `json:"requested_by"`
	Amount      int64        `json:"amount"` // in halalas
	Reason      string       `json:"reason"`
	Status      RefundStatus `json:"status"`
	AdminID     *uuid.UUID   `json:"admin_id,omitempty"`
	AdminNotes  *string      `json:"admin_notes,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

// CreateRefundRequestPayload is the boundary DTO for raising a refund request.
type CreateRefundRequestPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
	Amount    string    `json:"amount"`
	Reason    string    `json:"reason"`
}

// ReviewRefundPayload carries the admin's decision notes.
type ReviewRefundPayload struct {
	Notes string `json:"notes"`
}

// VATBreakdown is the result of the stateless VAT calculator.
type VATBreakdown struct {
	Amount    int64 `json:"amount"`     // net, in halalas
	VATAmount int64 `json:"vat_amount"` // in halalas
	Total     int64 `json:"total"`      // in halalas
}

// TaxProfile holds a user's VAT registration details, used only to decorate
// invoices.
type TaxProfile struct {
	UserID       uuid.UUID `json:"user_id"`
	VATNumber    string    `json:"vat_number"`
	BusinessName string    `json:"business_name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UpsertTaxProfilePayload is the boundary DTO for tax profile writes.
type UpsertTaxProfilePayload struct {
	VATNumber    string `json:"vat_number"`
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Country      string `json:"country"`
}
