/**
 * @description
 * Wallet ledger operations. Every mutation locks the wallet row with
 * FOR UPDATE before the sufficiency check, appends one WalletTransaction
 * carrying balance_before/balance_after and writes the new balance, all in
 * one transaction. PayProject is the composite operation: wallet deduction
 * and escrow deposit commit as a single atomic unit.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/consultlink/payment-service/internal/domain"
)

// AddFunds credits a wallet unconditionally, creating it lazily. Deposits
// are an internal ledger credit here; gateway settlement is out of scope.
func (r *PostgresRepository) AddFunds(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	var (
		wallet *domain.WalletAccount
		ledger *domain.WalletTransaction
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		w, err := lockWallet(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		wtx, err := creditWalletTx(ctx, tx, w, domain.WalletTxAddFunds, amount, nil, description)
		if err != nil {
			return err
		}
		wallet, ledger = w, wtx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, ledger, nil
}

// Withdraw debits a wallet for an off-platform payout.
func (r *PostgresRepository) Withdraw(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	return r.debit(ctx, userID, domain.WalletTxWithdraw, amount, nil, description)
}

func (r *PostgresRepository) debit(ctx context.Context, userID uuid.UUID, txType domain.WalletTransactionType, amount int64, relatedProjectID *uuid.UUID, description string) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	var (
		wallet *domain.WalletAccount
		ledger *domain.WalletTransaction
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		w, err := lockWallet(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		wtx, err := debitWalletTx(ctx, tx, w, txType, amount, relatedProjectID, description)
		if err != nil {
			return err
		}
		wallet, ledger = w, wtx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, ledger, nil
}

// debitWalletTx applies a debit against an already-locked wallet. The
// balance check here is the authoritative one.
func debitWalletTx(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount, txType domain.WalletTransactionType, amount int64, relatedProjectID *uuid.UUID, description string) (*domain.WalletTransaction, error) {
	if amount > w.Balance {
		return nil, &InsufficientBalanceError{Requested: amount, Available: w.Balance}
	}

	before := w.Balance
	w.Balance -= amount

	wtx := &domain.WalletTransaction{
		ID:               uuid.New(),
		WalletAccountID:  w.ID,
		Type:             txType,
		Amount:           amount,
		RelatedProjectID: relatedProjectID,
		Description:      description,
		BalanceBefore:    before,
		BalanceAfter:     w.Balance,
	}
	if err := insertWalletTransaction(ctx, tx, wtx); err != nil {
		return nil, err
	}
	if err := saveWalletBalance(ctx, tx, w); err != nil {
		return nil, err
	}
	return wtx, nil
}

// creditWalletTx applies a credit against an already-locked wallet.
func creditWalletTx(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount, txType domain.WalletTransactionType, amount int64, relatedProjectID *uuid.UUID, description string) (*domain.WalletTransaction, error) {
	before := w.Balance
	w.Balance += amount

	wtx := &domain.WalletTransaction{
		ID:               uuid.New(),
		WalletAccountID:  w.ID,
		Type:             txType,
		Amount:           amount,
		RelatedProjectID: relatedProjectID,
		Description:      description,
		BalanceBefore:    before,
		BalanceAfter:     w.Balance,
	}
	if err := insertWalletTransaction(ctx, tx, wtx); err != nil {
		return nil, err
	}
	if err := saveWalletBalance(ctx, tx, w); err != nil {
		return nil, err
	}
	return wtx, nil
}

// PayProject funds a project's escrow from the client's wallet: one
// transaction spanning the wallet debit, the escrow deposit and the ledger
// rows of both aggregates. Lock order is wallet first, then escrow.
func (r *PostgresRepository) PayProject(ctx context.Context, userID, projectID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.EscrowAccount, error) {
	var (
		wallet *domain.WalletAccount
		escrow *domain.EscrowAccount
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := requireProjectRole(ctx, tx, projectID, userID, domain.RoleClient); err != nil {
			return err
		}

		w, err := lockWallet(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if _, err := debitWalletTx(ctx, tx, w, domain.WalletTxPayment, amount, &projectID, description); err != nil {
			return err
		}

		a, err := lockEscrowAccount(ctx, tx, projectID, true)
		if err != nil {
			return err
		}
		a.AvailableBalance += amount
		a.TotalAmount += amount

		etx := &domain.EscrowTransaction{
			ID:              uuid.New(),
			EscrowAccountID: a.ID,
			Type:            domain.EscrowTxDeposit,
			Amount:          amount,
			Status:          "completed",
			Description:     description,
			CreatedBy:       userID,
		}
		if err := insertEscrowTransaction(ctx, tx, etx); err != nil {
			return err
		}
		if err := saveEscrowBalances(ctx, tx, a); err != nil {
			return err
		}
		if err := promoteFundedMilestones(ctx, tx, projectID, a.AvailableBalance); err != nil {
			return err
		}

		wallet, escrow = w, a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, escrow, nil
}

// GetWallet returns a user's wallet without locking.
func (r *PostgresRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	var w domain.WalletAccount
	query := `SELECT id, user_id, balance, currency, created_at, updated_at FROM wallet_accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ListWalletTransactions returns the wallet's append-only ledger, newest
// first.
func (r *PostgresRepository) ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.wallet_account_id, t.type, t.amount, t.related_project_id, t.description, t.balance_before, t.balance_after, t.created_at
		FROM wallet_transactions t
		JOIN wallet_accounts w ON w.id = t.wallet_account_id
		WHERE w.user_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.WalletTransaction
	for rows.Next() {
		var t domain.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletAccountID, &t.Type, &t.Amount, &t.RelatedProjectID, &t.Description, &t.BalanceBefore, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
