/**
 * @description
 * Domain models for the escrow ledger. Each project has at most one escrow
 * account which receives client deposits and pays the consultant only
 * through explicit release operations. The account row carries four
 * sub-balances that must always sum to the total amount ever deposited;
 * every change to them is witnessed by an immutable EscrowTransaction row.
 *
 * @notes
 * - Amounts are int64 halalas (smallest SAR unit) to keep ledger math exact.
 * - EscrowTransaction rows are append-only; they are the sole audit trail
 *   for balance changes and are never updated after insert.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// EscrowAccountStatus is the lifecycle state of an escrow account.
type EscrowAccountStatus string

const (
	EscrowAccountActive EscrowAccountStatus = "active"
	EscrowAccountClosed EscrowAccountStatus = "closed"
)

// EscrowTransactionType tags each escrow ledger row with the operation that
// produced it.
type EscrowTransactionType string

const (
	EscrowTxDeposit        EscrowTransactionType = "deposit"
	EscrowTxRelease        EscrowTransactionType = "release"
	EscrowTxPartialRelease EscrowTransactionType = "partial_release"
	EscrowTxHold           EscrowTransactionType = "hold"
	EscrowTxReleaseHold    EscrowTransactionType = "release_hold"
	EscrowTxRefund         EscrowTransactionType = "refund"
)

// EscrowAccount is the per-project holding account.
// Invariant: TotalAmount == AvailableBalance + OnHoldAmount + ReleasedAmount + RefundedAmount.
type EscrowAccount struct {
	ID               uuid.UUID           `json:"id"`
	ProjectID        uuid.UUID           `json:"project_id"`
	TotalAmount      int64               `json:"total_amount"`      // in halalas
	AvailableBalance int64               `json:"available_balance"` // in halalas
	OnHoldAmount     int64               `json:"on_hold_amount"`    // in halalas
	ReleasedAmount   int64               `json:"released_amount"`   // in halalas
	RefundedAmount   int64               `json:"refunded_amount"`   // in halalas
	Currency         string              `json:"currency"`
	Status           EscrowAccountStatus `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// EscrowTransaction is one immutable ledger row recording a balance mutation.
type EscrowTransaction struct {
	ID                    uuid.UUID             `json:"id"`
	EscrowAccountID       uuid.UUID             `json:"escrow_account_id"`
	Type                  EscrowTransactionType `json:"type"`
	Amount                int64                 `json:"amount"` // in halalas
	Status                string                `json:"status"` // always 'completed'; no partial state in this model
	Description           string                `json:"description"`
	CreatedBy             uuid.UUID             `json:"created_by"`
	RelatedMilestoneIndex *int                  `json:"related_milestone_index,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// EscrowBalance is the read-only snapshot returned by balance queries.
type EscrowBalance struct {
	ProjectID        uuid.UUID `json:"project_id"`
	TotalAmount      int64     `json:"total_amount"`
	AvailableBalance int64     `json:"available_balance"`
	OnHoldAmount     int64     `json:"on_hold_amount"`
	ReleasedAmount   int64     `json:"released_amount"`
	RefundedAmount   int64     `json:"refunded_amount"`
	Currency         string    `json:"currency"`
}

// Snapshot copies the five amount fields into a balance view.
func (a *EscrowAccount) Snapshot() EscrowBalance {
	return EscrowBalance{
		ProjectID:        a.ProjectID,
		TotalAmount:      a.TotalAmount,
		AvailableBalance: a.AvailableBalance,
		OnHoldAmount:     a.OnHoldAmount,
		ReleasedAmount:   a.ReleasedAmount,
		RefundedAmount:   a.RefundedAmount,
		Currency:         a.Currency,
	}
}

// EscrowMutationRequest is the boundary DTO shared by deposit, release,
// hold, release-hold and refund endpoints. Amount is a decimal string
// validated at the boundary before entering the core.
type EscrowMutationRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// PartialReleaseRequest additionally tags the ledger row with the milestone
// the release pays out.
type PartialReleaseRequest struct {
	Amount         string `json:"amount"`
	MilestoneIndex int    `json:"milestone_index"`
	Description    string `json:"description"`
}
