// Read-only aggregation views for dashboards and exports. These carry no
// invariants of their own; they are computed from the ledgers.

package domain

import "github.com/google/uuid"

// ProjectFinancialSummary aggregates a project's money state for dashboards.
type ProjectFinancialSummary struct {
	ProjectID          uuid.UUID     `json:"project_id"`
	Escrow             EscrowBalance `json:"escrow"`
	InvoicedTotal      int64         `json:"invoiced_total"`       // in halalas
	PaidInvoiceTotal   int64         `json:"paid_invoice_total"`   // in halalas
	OpenInvoiceCount   int           `json:"open_invoice_count"`
	MilestoneCount     int           `json:"milestone_count"`
	ReleasedMilestones int           `json:"released_milestones"`
}
