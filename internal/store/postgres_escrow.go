/**
 * @description
 * Escrow ledger operations. Each mutation runs in one transaction that
 * asserts the actor's project role, locks the account row, re-validates the
 * balance (the authoritative check), appends the immutable ledger row and
 * writes the new sub-balances. The conservation invariant
 * total == available + on_hold + released + refunded holds after every
 * operation because each one moves value between exactly two terms (deposit
 * grows total and available together).
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/consultlink/payment-service/internal/domain"
)

// escrowMutation describes one balance movement so the shared transactional
// skeleton stays in a single place.
type escrowMutation struct {
	role           domain.Role
	txType         domain.EscrowTransactionType
	lazyCreate     bool
	milestoneIndex *int
	apply          func(a *domain.EscrowAccount, amount int64) error
}

func (r *PostgresRepository) escrowMutate(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string, m escrowMutation) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	var (
		account *domain.EscrowAccount
		ledger  *domain.EscrowTransaction
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := requireProjectRole(ctx, tx, projectID, actorID, m.role); err != nil {
			return err
		}

		a, err := lockEscrowAccount(ctx, tx, projectID, m.lazyCreate)
		if err != nil {
			return err
		}
		if err := m.apply(a, amount); err != nil {
			return err
		}

		etx := &domain.EscrowTransaction{
			ID:                    uuid.New(),
			EscrowAccountID:       a.ID,
			Type:                  m.txType,
			Amount:                amount,
			Status:                "completed",
			Description:           description,
			CreatedBy:             actorID,
			RelatedMilestoneIndex: m.milestoneIndex,
		}
		if err := insertEscrowTransaction(ctx, tx, etx); err != nil {
			return err
		}
		if err := saveEscrowBalances(ctx, tx, a); err != nil {
			return err
		}

		// Deposits can newly fund milestones waiting on escrow coverage.
		if m.txType == domain.EscrowTxDeposit {
			if err := promoteFundedMilestones(ctx, tx, projectID, a.AvailableBalance); err != nil {
				return err
			}
		}

		account, ledger = a, etx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, ledger, nil
}

// requireAvailable is the authoritative in-transaction sufficiency check
// against the locked row's available balance.
func requireAvailable(a *domain.EscrowAccount, amount int64) error {
	if amount > a.AvailableBalance {
		return &InsufficientBalanceError{Requested: amount, Available: a.AvailableBalance}
	}
	return nil
}

// The balance movements below are the whole arithmetic of the escrow ledger.
// Each moves value between exactly two terms of
// total == available + on_hold + released + refunded, which is what keeps
// the conservation invariant standing after every operation.

func applyEscrowDeposit(a *domain.EscrowAccount, amount int64) error {
	a.AvailableBalance += amount
	a.TotalAmount += amount
	return nil
}

func applyEscrowRelease(a *domain.EscrowAccount, amount int64) error {
	if err := requireAvailable(a, amount); err != nil {
		return err
	}
	a.AvailableBalance -= amount
	a.ReleasedAmount += amount
	return nil
}

func applyEscrowHold(a *domain.EscrowAccount, amount int64) error {
	if err := requireAvailable(a, amount); err != nil {
		return err
	}
	a.AvailableBalance -= amount
	a.OnHoldAmount += amount
	return nil
}

func applyEscrowReleaseHold(a *domain.EscrowAccount, amount int64) error {
	if amount > a.OnHoldAmount {
		return &InsufficientBalanceError{Requested: amount, Available: a.OnHoldAmount}
	}
	a.OnHoldAmount -= amount
	a.AvailableBalance += amount
	return nil
}

func applyEscrowRefund(a *domain.EscrowAccount, amount int64) error {
	if err := requireAvailable(a, amount); err != nil {
		return err
	}
	a.AvailableBalance -= amount
	a.RefundedAmount += amount
	return nil
}

// Deposit credits the project's escrow, creating the account lazily on the
// first deposit. Client only.
func (r *PostgresRepository) Deposit(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:       domain.RoleClient,
		txType:     domain.EscrowTxDeposit,
		lazyCreate: true,
		apply:      applyEscrowDeposit,
	})
}

// Release pays escrow funds out to the consultant. Client only.
func (r *PostgresRepository) Release(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:   domain.RoleClient,
		txType: domain.EscrowTxRelease,
		apply:  applyEscrowRelease,
	})
}

// PartialRelease is a release tagged with the milestone it pays out.
func (r *PostgresRepository) PartialRelease(ctx context.Context, projectID, actorID uuid.UUID, amount int64, milestoneIndex int, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:           domain.RoleClient,
		txType:         domain.EscrowTxPartialRelease,
		milestoneIndex: &milestoneIndex,
		apply:          applyEscrowRelease,
	})
}

// Hold earmarks available funds (e.g. pending a dispute). Either participant.
func (r *PostgresRepository) Hold(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:   domain.RoleParticipant,
		txType: domain.EscrowTxHold,
		apply:  applyEscrowHold,
	})
}

// ReleaseHold moves earmarked funds back to the available balance.
func (r *PostgresRepository) ReleaseHold(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:   domain.RoleParticipant,
		txType: domain.EscrowTxReleaseHold,
		apply:  applyEscrowReleaseHold,
	})
}

// RefundEscrow returns available funds to the client side of the ledger.
func (r *PostgresRepository) RefundEscrow(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	return r.escrowMutate(ctx, projectID, actorID, amount, description, escrowMutation{
		role:   domain.RoleParticipant,
		txType: domain.EscrowTxRefund,
		apply:  applyEscrowRefund,
	})
}

// GetEscrowAccount returns the project's escrow account without locking.
func (r *PostgresRepository) GetEscrowAccount(ctx context.Context, projectID uuid.UUID) (*domain.EscrowAccount, error) {
	var a domain.EscrowAccount
	query := `
		SELECT id, project_id, total_amount, available_balance, on_hold_amount, released_amount, refunded_amount, currency, status, created_at, updated_at
		FROM escrow_accounts
		WHERE project_id = $1
	`
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&a.ID, &a.ProjectID, &a.TotalAmount, &a.AvailableBalance, &a.OnHoldAmount,
		&a.ReleasedAmount, &a.RefundedAmount, &a.Currency, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrEscrowAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListEscrowTransactions returns the account's append-only ledger, newest
// first.
func (r *PostgresRepository) ListEscrowTransactions(ctx context.Context, projectID uuid.UUID, limit, offset int) ([]domain.EscrowTransaction, error) {
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
		SELECT t.id, t.escrow_account_id, t.type, t.amount, t.status, t.description, t.created_by, t.related_milestone_index, t.created_at
		FROM escrow_transactions t
		JOIN escrow_accounts a ON a.id = t.escrow_account_id
		WHERE a.project_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.EscrowTransaction
	for rows.Next() {
		var t domain.EscrowTransaction
		if err := rows.Scan(&t.ID, &t.EscrowAccountID, &t.Type, &t.Amount, &t.Status, &t.Description, &t.CreatedBy, &t.RelatedMilestoneIndex, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
