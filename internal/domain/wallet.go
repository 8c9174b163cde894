/**
 * @description
 * Domain models for the wallet ledger. Every user owns at most one wallet,
 * created lazily on first credit. Wallet balances fund escrow deposits and
 * invoice payments; each mutation appends a WalletTransaction carrying the
 * balance before and after, which chains the ledger: balance_after of row n
 * equals balance_before of row n+1 for the same wallet.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransactionType tags each wallet ledger row.
type WalletTransactionType string

const (
	WalletTxAddFunds WalletTransactionType = "add_funds"
	WalletTxWithdraw WalletTransactionType = "withdraw"
	WalletTxPayment  WalletTransactionType = "payment"
)

// WalletAccount is a user's standing balance. Invariant: Balance >= 0.
type WalletAccount struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"` // in halalas
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransaction is one immutable wallet ledger row.
type WalletTransaction struct {
	ID               uuid.UUID             `json:"id"`
	WalletAccountID  uuid.UUID             `json:"wallet_account_id"`
	Type             WalletTransactionType `json:"type"`
	Amount           int64                 `json:"amount"` // in halalas
	RelatedProjectID *uuid.UUID            `json:"related_project_id,omitempty"`
	Description      string                `json:"description"`
	BalanceBefore    int64                 `json:"balance_before"` // in halalas
	BalanceAfter     int64                 `json:"balance_after"`  // in halalas
	CreatedAt        time.Time             `json:"created_at"`
}

// WalletMutationRequest is the boundary DTO for add-funds and withdraw.
type WalletMutationRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// PayProjectRequest funds a project's escrow from the caller's wallet.
type PayProjectRequest struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
}
