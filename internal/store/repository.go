/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the payment service needs. Mutating operations are atomic: each one
 * runs in a single database transaction that locks the affected balance rows,
 * performs the authoritative ownership and sufficiency checks, appends the
 * immutable ledger row and updates the balance, committing all-or-nothing.
 * Composite operations (pay-project, release-milestone, pay-invoice,
 * process-refund) span both aggregates inside one transaction.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Identifier handling.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Project registry (read-only)
	GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)

	// Escrow ledger. All mutations assert the actor's project role inside
	// the same transaction that moves the money.
	Deposit(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	Release(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	PartialRelease(ctx context.Context, projectID, actorID uuid.UUID, amount int64, milestoneIndex int, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	Hold(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	ReleaseHold(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	RefundEscrow(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error)
	GetEscrowAccount(ctx context.Context, projectID uuid.UUID) (*domain.EscrowAccount, error)
	ListEscrowTransactions(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.EscrowTransaction, error)

	// Wallet ledger
	AddFunds(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error)
	PayProject(ctx context.Context, userID, projectID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.EscrowAccount, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error)
	ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error)

	// Payment milestones
	LinkMilestone(ctx context.Context, projectID, actorID uuid.UUID, milestoneIndex int, amount int64) (*domain.PaymentMilestone, error)
	ReleaseMilestone(ctx context.Context, milestoneID, actorID uuid.UUID, description string) (*domain.PaymentMilestone, *domain.EscrowAccount, error)
	GetMilestone(ctx context.Context, milestoneID uuid.UUID) (*domain.PaymentMilestone, error)
	ListMilestones(ctx context.Context, projectID uuid.UUID, statuses []domain.MilestoneStatus) ([]domain.PaymentMilestone, error)

	// Invoices
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, filter domain.InvoiceListFilter) ([]domain.Invoice, error)
	PayInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, *domain.WalletTransaction, error)
	CancelInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error)
	MarkInvoiceSent(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error)
	PeekInvoiceNumber(ctx context.Context, year int) (string, error)

	// Refund requests
	CreateRefundRequest(ctx context.Context, projectID, requestedBy uuid.UUID, amount int64, reason string) (*domain.RefundRequest, error)
	ReviewRefundRequest(ctx context.Context, refundID, adminID uuid.UUID, approve bool, notes string) (*domain.RefundRequest, error)
	ProcessRefund(ctx context.Context, refundID, adminID uuid.UUID) (*domain.RefundRequest, *domain.EscrowAccount, error)
	GetRefundRequest(ctx context.Context, refundID uuid.UUID) (*domain.RefundRequest, error)
	ListRefundRequests(ctx context.Context, filter RefundListFilter) ([]domain.RefundRequest, error)

	// Tax profiles
	UpsertTaxProfile(ctx context.Context, profile *domain.TaxProfile) (*domain.TaxProfile, error)
	GetTaxProfile(ctx context.Context, userID uuid.UUID) (*domain.TaxProfile, error)
	DeleteTaxProfile(ctx context.Context, userID uuid.UUID) error

	// Analytics (read-only)
	GetProjectFinancialSummary(ctx context.Context, projectID uuid.UUID) (*domain.ProjectFinancialSummary, error)
}

// CreateInvoiceParams carries everything needed to raise an invoice in one
// transaction, including the serialized number allocation.
type CreateInvoiceParams struct {
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Items     []InvoiceItemParams
	IssueDate time.Time
	DueDate   time.Time
}

// InvoiceItemParams is one validated line item with the unit price already
// converted to halalas.
type InvoiceItemParams struct {
	Description string
	Quantity    int
	UnitPrice   int64
}

// RefundListFilter narrows refund request listings.
type RefundListFilter struct {
	ProjectID *uuid.UUID
	Status    domain.RefundStatus
	Limit     int
	Offset    int
}
