/**
 * @description
 * Error taxonomy for the payment ledger store. Callers match these with
 * errors.Is; the transport layer maps each kind to a distinct HTTP status.
 * InsufficientBalanceError and InvalidStateError are typed so the caller can
 * build a useful message (requested vs. available, current vs. attempted
 * state) while still matching the corresponding sentinel.
 */

package store

import (
	"errors"
	"fmt"

	"github.com/consultlink/payment-service/pkg/money"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrEscrowAccountNotFound = errors.New("escrow account not found")
	ErrWalletNotFound        = errors.New("wallet account not found")
	ErrMilestoneNotFound     = errors.New("payment milestone not found")
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrRefundRequestNotFound = errors.New("refund request not found")
	ErrTaxProfileNotFound    = errors.New("tax profile not found")

	ErrUnauthorized        = errors.New("caller is not authorized for this operation")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("operation not legal in the current state")
	ErrMilestoneExists     = errors.New("milestone index already linked to a payment")
)

// InsufficientBalanceError reports how much was requested against how much
// was available at the authoritative in-transaction check.
type InsufficientBalanceError struct {
	Requested int64 // in halalas
	Available int64 // in halalas
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		money.Format(e.Requested), money.Format(e.Available))
}

// Is lets errors.Is(err, ErrInsufficientBalance) match the typed error.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// InvalidStateError reports the lifecycle state that rejected the operation.
type InvalidStateError struct {
	Entity  string
	Current string
	Attempt string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s in state %q does not permit %s", e.Entity, e.Current, e.Attempt)
}

// Is lets errors.Is(err, ErrInvalidState) match the typed error.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
