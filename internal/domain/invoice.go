/**
 * @description
 * Domain models for invoices. Consultants raise invoices against their
 * projects; numbers are sequential per year in the INV-YYYY-NNNN format,
 * VAT is fixed at 15% of the subtotal, and the lifecycle is
 * draft -> sent -> paid/cancelled with paid and cancelled terminal.
 */

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Terminal reports whether no further mutation of the invoice is permitted.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoicePaid || s == InvoiceCancelled
}

// Invoice is one VAT invoice raised by a consultant against a project.
type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	InvoiceNumber string        `json:"invoice_number"` // INV-YYYY-NNNN
	ProjectID     uuid.UUID     `json:"project_id"`
	ClientID      uuid.UUID     `json:"client_id"`
	ConsultantID  uuid.UUID     `json:"consultant_id"`
	Subtotal      int64         `json:"subtotal"`   // in halalas
	VATRate       string        `json:"vat_rate"`   // fixed "15.00"
	VATAmount     int64         `json:"vat_amount"` // in halalas
	TotalAmount   int64         `json:"total_amount"`
	Status        InvoiceStatus `json:"status"`
	Items         []InvoiceItem `json:"items"`
	IssueDate     time.Time     `json:"issue_date"`
	DueDate       time.Time     `json:"due_date"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// InvoiceItem is one ordered line item of an invoice.
type InvoiceItem struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Position    int       `json:"position"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"` // in halalas
	Amount      int64     `json:"amount"`     // quantity * unit price, in halalas
}

// FormatInvoiceNumber renders the canonical INV-YYYY-NNNN number.
func FormatInvoiceNumber(year int, seq int) string {
	return fmt.Sprintf("INV-%04d-%04d", year, seq)
}

// CreateInvoiceItemPayload is one boundary line item.
type CreateInvoiceItemPayload struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CreateInvoicePayload is the boundary DTO for raising an invoice.
type CreateInvoicePayload struct {
	ProjectID  uuid.UUID                  `json:"project_id"`
	Items      []CreateInvoiceItemPayload `json:"items"`
	DueInDays  int                        `json:"due_in_days"`
}

// InvoiceListFilter narrows invoice listings.
type InvoiceListFilter struct {
	ProjectID *uuid.UUID
	Status    InvoiceStatus
	Limit     int
	Offset    int
}
