/**
 * @description
 * Response view types. The core works in int64 halalas; the API renders every
 * amount back as a two-decimal string so clients never see minor units.
 */

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

type escrowAccountView struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"project_id"`
	TotalAmount      string    `json:"total_amount"`
	AvailableBalance string    `json:"available_balance"`
	OnHoldAmount     string    `json:"on_hold_amount"`
	ReleasedAmount   string    `json:"released_amount"`
	RefundedAmount   string    `json:"refunded_amount"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
}

func escrowAccountToView(a *domain.EscrowAccount) escrowAccountView {
	return escrowAccountView{
		ID:               a.ID,
		ProjectID:        a.ProjectID,
		TotalAmount:      money.Format(a.TotalAmount),
		AvailableBalance: money.Format(a.AvailableBalance),
		OnHoldAmount:     money.Format(a.OnHoldAmount),
		ReleasedAmount:   money.Format(a.ReleasedAmount),
		RefundedAmount:   money.Format(a.RefundedAmount),
		Currency:         a.Currency,
		Status:           string(a.Status),
	}
}

type escrowBalanceView struct {
	ProjectID        uuid.UUID `json:"project_id"`
	TotalAmount      string    `json:"total_amount"`
	AvailableBalance string    `json:"available_balance"`
	OnHoldAmount     string    `json:"on_hold_amount"`
	ReleasedAmount   string    `json:"released_amount"`
	RefundedAmount   string    `json:"refunded_amount"`
	Currency         string    `json:"currency"`
}

func escrowBalanceToView(b domain.EscrowBalance) escrowBalanceView {
	return escrowBalanceView{
		ProjectID:        b.ProjectID,
		TotalAmount:      money.Format(b.TotalAmount),
		AvailableBalance: money.Format(b.AvailableBalance),
		OnHoldAmount:     money.Format(b.OnHoldAmount),
		ReleasedAmount:   money.Format(b.ReleasedAmount),
		RefundedAmount:   money.Format(b.RefundedAmount),
		Currency:         b.Currency,
	}
}

type escrowTransactionView struct {
	ID                    uuid.UUID `json:"id"`
	Type                  string    `json:"type"`
	Amount                string    `json:"amount"`
	Status                string    `json:"status"`
	Description           string    `json:"description"`
	CreatedBy             uuid.UUID `json:"created_by"`
	RelatedMilestoneIndex *int      `json:"related_milestone_index,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

func escrowTransactionToView(tx *domain.EscrowTransaction) escrowTransactionView {
	return escrowTransactionView{
		ID:                    tx.ID,
		Type:                  string(tx.Type),
		Amount:                money.Format(tx.Amount),
		Status:                tx.Status,
		Description:           tx.Description,
		CreatedBy:             tx.CreatedBy,
		RelatedMilestoneIndex: tx.RelatedMilestoneIndex,
		CreatedAt:             tx.CreatedAt,
	}
}

func escrowTransactionsToView(txs []domain.EscrowTransaction) []escrowTransactionView {
	views := make([]escrowTransactionView, 0, len(txs))
	for i := range txs {
		views = append(views, escrowTransactionToView(&txs[i]))
	}
	return views
}

type walletView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Balance  string    `json:"balance"`
	Currency string    `json:"currency"`
}

func walletToView(w *domain.WalletAccount) walletView {
	return walletView{ID: w.ID, UserID: w.UserID, Balance: money.Format(w.Balance), Currency: w.Currency}
}

type walletTransactionView struct {
	ID               uuid.UUID  `json:"id"`
	Type             string     `json:"type"`
	Amount           string     `json:"amount"`
	RelatedProjectID *uuid.UUID `json:"related_project_id,omitempty"`
	Description      string     `json:"description"`
	BalanceBefore    string     `json:"balance_before"`
	BalanceAfter     string     `json:"balance_after"`
	CreatedAt        time.Time  `json:"created_at"`
}

func walletTransactionToView(tx *domain.WalletTransaction) walletTransactionView {
	return walletTransactionView{
		ID:               tx.ID,
		Type:             string(tx.Type),
		Amount:           money.Format(tx.Amount),
		RelatedProjectID: tx.RelatedProjectID,
		Description:      tx.Description,
		BalanceBefore:    money.Format(tx.BalanceBefore),
		BalanceAfter:     money.Format(tx.BalanceAfter),
		CreatedAt:        tx.CreatedAt,
	}
}

func walletTransactionsToView(txs []domain.WalletTransaction) []walletTransactionView {
	views := make([]walletTransactionView, 0, len(txs))
	for i := range txs {
		views = append(views, walletTransactionToView(&txs[i]))
	}
	return views
}

type milestoneView struct {
	ID             uuid.UUID  `json:"id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	MilestoneIndex int        `json:"milestone_index"`
	Amount         string     `json:"amount"`
	Status         string     `json:"status"`
	ReleasedBy     *uuid.UUID `json:"released_by,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

func milestoneToView(m *domain.PaymentMilestone) milestoneView {
	return milestoneView{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		MilestoneIndex: m.MilestoneIndex,
		Amount:         money.Format(m.Amount),
		Status:         string(m.Status),
		ReleasedBy:     m.ReleasedBy,
		PaidAt:         m.PaidAt,
	}
}

func milestonesToView(ms []domain.PaymentMilestone) []milestoneView {
	views := make([]milestoneView, 0, len(ms))
	for i := range ms {
		views = append(views, milestoneToView(&ms[i]))
	}
	return views
}

type invoiceItemView struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Amount      string `json:"amount"`
}

type invoiceView struct {
	ID            uuid.UUID         `json:"id"`
	InvoiceNumber string            `json:"invoice_number"`
	ProjectID     uuid.UUID         `json:"project_id"`
	ClientID      uuid.UUID         `json:"client_id"`
	ConsultantID  uuid.UUID         `json:"consultant_id"`
	Subtotal      string            `json:"subtotal"`
	VATRate       string            `json:"vat_rate"`
	VATAmount     string            `json:"vat_amount"`
	TotalAmount   string            `json:"total_amount"`
	Status        string            `json:"status"`
	Items         []invoiceItemView `json:"items,omitempty"`
	IssueDate     time.Time         `json:"issue_date"`
	DueDate       time.Time         `json:"due_date"`
}

func invoiceToView(inv *domain.Invoice) invoiceView {
	view := invoiceView{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ProjectID:     inv.ProjectID,
		ClientID:      inv.ClientID,
		ConsultantID:  inv.ConsultantID,
		Subtotal:      money.Format(inv.Subtotal),
		VATRate:       inv.VATRate,
		VATAmount:     money.Format(inv.VATAmount),
		TotalAmount:   money.Format(inv.TotalAmount),
		Status:        string(inv.Status),
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
	}
	for _, item := range inv.Items {
		view.Items = append(view.Items, invoiceItemView{
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   money.Format(item.UnitPrice),
			Amount:      money.Format(item.Amount),
		})
	}
	return view
}

func invoicesToView(invs []domain.Invoice) []invoiceView {
	views := make([]invoiceView, 0, len(invs))
	for i := range invs {
		views = append(views, invoiceToView(&invs[i]))
	}
	return views
}

type refundRequestView struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	Amount      string     `json:"amount"`
	Reason      string     `json:"reason"`
	Status      string     `json:"status"`
	AdminID     *uuid.UUID `json:"admin_id,omitempty"`
	AdminNotes  *string    `json:"admin_notes,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func refundRequestToView(req *domain.RefundRequest) refundRequestView {
	return refundRequestView{
		ID:          req.ID,
		ProjectID:   req.ProjectID,
		RequestedBy: req.RequestedBy,
		Amount:      money.Format(req.Amount),
		Reason:      req.Reason,
		Status:      string(req.Status),
		AdminID:     req.AdminID,
		AdminNotes:  req.AdminNotes,
		RequestedAt: req.RequestedAt,
		ReviewedAt:  req.ReviewedAt,
		ProcessedAt: req.ProcessedAt,
	}
}

func refundRequestsToView(reqs []domain.RefundRequest) []refundRequestView {
	views := make([]refundRequestView, 0, len(reqs))
	for i := range reqs {
		views = append(views, refundRequestToView(&reqs[i]))
	}
	return views
}

type vatBreakdownView struct {
	Amount    string `json:"amount"`
	VATRate   string `json:"vat_rate"`
	VATAmount string `json:"vat_amount"`
	Total     string `json:"total"`
}

func vatBreakdownToView(b *domain.VATBreakdown) vatBreakdownView {
	return vatBreakdownView{
		Amount:    money.Format(b.Amount),
		VATRate:   "15.00",
		VATAmount: money.Format(b.VATAmount),
		Total:     money.Format(b.Total),
	}
}

type financialSummaryView struct {
	ProjectID          uuid.UUID         `json:"project_id"`
	Escrow             escrowBalanceView `json:"escrow"`
	InvoicedTotal      string            `json:"invoiced_total"`
	PaidInvoiceTotal   string            `json:"paid_invoice_total"`
	OpenInvoiceCount   int               `json:"open_invoice_count"`
	MilestoneCount     int               `json:"milestone_count"`
	ReleasedMilestones int               `json:"released_milestones"`
}

func financialSummaryToView(s *domain.ProjectFinancialSummary) financialSummaryView {
	return financialSummaryView{
		ProjectID:          s.ProjectID,
		Escrow:             escrowBalanceToView(s.Escrow),
		InvoicedTotal:      money.Format(s.InvoicedTotal),
		PaidInvoiceTotal:   money.Format(s.PaidInvoiceTotal),
		OpenInvoiceCount:   s.OpenInvoiceCount,
		MilestoneCount:     s.MilestoneCount,
		ReleasedMilestones: s.ReleasedMilestones,
	}
}
