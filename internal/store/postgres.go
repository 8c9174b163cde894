/**
 * @description
 * PostgreSQL implementation of the `Repository` interface: connection pool
 * handling, the transaction wrapper every mutating operation runs inside,
 * and the shared ownership-resolution helpers. The per-aggregate operations
 * live in the postgres_*.go files alongside this one.
 *
 * The transactional discipline is uniform: withTx opens one database
 * transaction, the affected balance row is locked with SELECT ... FOR UPDATE
 * before any sufficiency check, the immutable ledger row is appended and the
 * balance updated, and the whole unit commits or rolls back atomically. Row
 * locks are what serialize concurrent mutations against the same account so
 * the check and the write can never interleave.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and transaction handling.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ownership
// resolution can run against the pool for plain reads and against the open
// transaction for guarded mutations, observing the same snapshot as the
// mutation itself.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is a concrete implementation of the Repository
// interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// withTx runs fn inside one database transaction. Any error from fn rolls
// back every write made inside it; success commits atomically.
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetProject resolves a project registry row. The payment service never
// writes this table.
func (r *PostgresRepository) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return getProject(ctx, r.db, projectID)
}

func getProject(ctx context.Context, q querier, projectID uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	query := `SELECT id, client_id, consultant_id, title, status FROM projects WHERE id = $1`
	err := q.QueryRow(ctx, query, projectID).Scan(&p.ID, &p.ClientID, &p.ConsultantID, &p.Title, &p.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// requireProjectRole resolves the project and asserts the actor satisfies
// the required role. Passing the open transaction as the querier makes the
// check and the subsequent mutation observe one snapshot.
func requireProjectRole(ctx context.Context, q querier, projectID, actorID uuid.UUID, role domain.Role) (*domain.Project, error) {
	project, err := getProject(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	if !project.Satisfies(actorID, role) {
		return nil, ErrUnauthorized
	}
	return project, nil
}

// lockEscrowAccount loads the project's escrow account under FOR UPDATE.
// When createIfMissing is set, a fresh zero-balance account is created
// lazily; the insert is conflict-safe against a concurrent first deposit.
func lockEscrowAccount(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, createIfMissing bool) (*domain.EscrowAccount, error) {
	account, err := selectEscrowForUpdate(ctx, tx, projectID)
	if err == nil || err != ErrEscrowAccountNotFound || !createIfMissing {
		return account, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO escrow_accounts (id, project_id, total_amount, available_balance, on_hold_amount, released_amount, refunded_amount, currency, status)
		VALUES ($1, $2, 0, 0, 0, 0, 0, $3, $4)
		ON CONFLICT (project_id) DO NOTHING
	`, uuid.New(), projectID, money.Currency, domain.EscrowAccountActive)
	if err != nil {
		return nil, err
	}
	return selectEscrowForUpdate(ctx, tx, projectID)
}

func selectEscrowForUpdate(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (*domain.EscrowAccount, error) {
	var a domain.EscrowAccount
	query := `
		SELECT id, project_id, total_amount, available_balance, on_hold_amount, released_amount, refunded_amount, currency, status, created_at, updated_at
		FROM escrow_accounts
		WHERE project_id = $1
		FOR UPDATE
	`
	err := tx.QueryRow(ctx, query, projectID).Scan(
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

// saveEscrowBalances writes the mutated sub-balances back to the locked row.
func saveEscrowBalances(ctx context.Context, tx pgx.Tx, a *domain.EscrowAccount) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_accounts
		SET total_amount = $2, available_balance = $3, on_hold_amount = $4, released_amount = $5, refunded_amount = $6, updated_at = NOW()
		WHERE id = $1
	`, a.ID, a.TotalAmount, a.AvailableBalance, a.OnHoldAmount, a.ReleasedAmount, a.RefundedAmount)
	return err
}

// insertEscrowTransaction appends one immutable escrow ledger row.
func insertEscrowTransaction(ctx context.Context, tx pgx.Tx, etx *domain.EscrowTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO escrow_transactions (id, escrow_account_id, type, amount, status, description, created_by, related_milestone_index)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7)
		RETURNING created_at
	`, etx.ID, etx.EscrowAccountID, etx.Type, etx.Amount, etx.Description, etx.CreatedBy, etx.RelatedMilestoneIndex).Scan(&etx.CreatedAt)
}

// lockWallet loads a user's wallet under FOR UPDATE, lazily creating an
// empty one when createIfMissing is set.
func lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID, createIfMissing bool) (*domain.WalletAccount, error) {
	wallet, err := selectWalletForUpdate(ctx, tx, userID)
	if err == nil || err != ErrWalletNotFound || !createIfMissing {
		return wallet, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO wallet_accounts (id, user_id, balance, currency)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID, money.Currency)
	if err != nil {
		return nil, err
	}
	return selectWalletForUpdate(ctx, tx, userID)
}

func selectWalletForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error) {
	var w domain.WalletAccount
	query := `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = $1
		FOR UPDATE
	`
	err := tx.QueryRow(ctx, query, userID).Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

// saveWalletBalance writes the mutated balance back to the locked row.
func saveWalletBalance(ctx context.Context, tx pgx.Tx, w *domain.WalletAccount) error {
	_, err := tx.Exec(ctx, `UPDATE wallet_accounts SET balance = $2, updated_at = NOW() WHERE id = $1`, w.ID, w.Balance)
	return err
}

// insertWalletTransaction appends one immutable wallet ledger row carrying
// the before/after balances that chain the ledger.
func insertWalletTransaction(ctx context.Context, tx pgx.Tx, wtx *domain.WalletTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (id, wallet_account_id, type, amount, related_project_id, description, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, wtx.ID, wtx.WalletAccountID, wtx.Type, wtx.Amount, wtx.RelatedProjectID, wtx.Description, wtx.BalanceBefore, wtx.BalanceAfter).Scan(&wtx.CreatedAt)
}

// promoteFundedMilestones walks the project's unreleased milestones in index
// order and moves pending_deposit ones to pending_release while the
// available balance still covers them. Allocation stops at the first
// milestone the balance cannot cover, so milestones fund strictly in order.
// Must run inside the same transaction that changed the available balance.
func promoteFundedMilestones(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, available int64) error {
	rows, err := tx.Query(ctx, `
		SELECT id, amount, status
		FROM payment_milestones
		WHERE project_id = $1 AND status IN ($2, $3)
		ORDER BY milestone_index
		FOR UPDATE
	`, projectID, domain.MilestonePendingDeposit, domain.MilestonePendingRelease)
	if err != nil {
		return err
	}
	defer rows.Close()

	var promote []uuid.UUID
	remaining := available
	for rows.Next() {
		var (
			id     uuid.UUID
			amount int64
			status domain.MilestoneStatus
		)
		if err := rows.Scan(&id, &amount, &status); err != nil {
			return err
		}
		if amount > remaining {
			break
		}
		remaining -= amount
		if status == domain.MilestonePendingDeposit {
			promote = append(promote, id)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, id := range promote {
		if _, err := tx.Exec(ctx, `
			UPDATE payment_milestones SET status = $2, updated_at = NOW() WHERE id = $1
		`, id, domain.MilestonePendingRelease); err != nil {
			return err
		}
	}
	return nil
}
