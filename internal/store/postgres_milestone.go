/**
 * @description
 * Payment milestone operations. Linking creates a milestone in
 * pending_deposit and immediately checks whether the escrow already funds
 * it; releasing is the composite operation that locks the milestone and the
 * escrow account, performs the partial release and marks the milestone
 * released, all in one transaction, so no escrow money moves without the
 * milestone transitioning and vice versa.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/consultlink/payment-service/internal/domain"
)

// LinkMilestone ties a project milestone index to a payment amount.
// Consultant only. The (project, index) pair is unique.
func (r *PostgresRepository) LinkMilestone(ctx context.Context, projectID, actorID uuid.UUID, milestoneIndex int, amount int64) (*domain.PaymentMilestone, error) {
	var milestone *domain.PaymentMilestone
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := requireProjectRole(ctx, tx, projectID, actorID, domain.RoleConsultant); err != nil {
			return err
		}

		m := &domain.PaymentMilestone{
			ID:             uuid.New(),
			ProjectID:      projectID,
			MilestoneIndex: milestoneIndex,
			Amount:         amount,
			Status:         domain.MilestonePendingDeposit,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO payment_milestones (id, project_id, milestone_index, amount, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`, m.ID, m.ProjectID, m.MilestoneIndex, m.Amount, m.Status).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrMilestoneExists
			}
			return err
		}

		// The escrow may already hold enough to fund this milestone.
		account, err := selectEscrowForUpdate(ctx, tx, projectID)
		if err != nil {
			if err == ErrEscrowAccountNotFound {
				milestone = m
				return nil
			}
			return err
		}
		if err := promoteFundedMilestones(ctx, tx, projectID, account.AvailableBalance); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
			SELECT status, updated_at FROM payment_milestones WHERE id = $1
		`, m.ID).Scan(&m.Status, &m.UpdatedAt); err != nil {
			return err
		}
		milestone = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return milestone, nil
}

// ReleaseMilestone pays a funded milestone out of escrow and marks it
// released, atomically. Client only; legal only from pending_release.
func (r *PostgresRepository) ReleaseMilestone(ctx context.Context, milestoneID, actorID uuid.UUID, description string) (*domain.PaymentMilestone, *domain.EscrowAccount, error) {
	var (
		milestone *domain.PaymentMilestone
		escrow    *domain.EscrowAccount
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		m, err := selectMilestoneForUpdate(ctx, tx, milestoneID)
		if err != nil {
			return err
		}
		if _, err := requireProjectRole(ctx, tx, m.ProjectID, actorID, domain.RoleClient); err != nil {
			return err
		}
		if m.Status != domain.MilestonePendingRelease {
			return &InvalidStateError{Entity: "milestone", Current: string(m.Status), Attempt: "release"}
		}

		a, err := lockEscrowAccount(ctx, tx, m.ProjectID, false)
		if err != nil {
			return err
		}
		if m.Amount > a.AvailableBalance {
			return &InsufficientBalanceError{Requested: m.Amount, Available: a.AvailableBalance}
		}
		a.AvailableBalance -= m.Amount
		a.ReleasedAmount += m.Amount

		etx := &domain.EscrowTransaction{
			ID:                    uuid.New(),
			EscrowAccountID:       a.ID,
			Type:                  domain.EscrowTxPartialRelease,
			Amount:                m.Amount,
			Status:                "completed",
			Description:           description,
			CreatedBy:             actorID,
			RelatedMilestoneIndex: &m.MilestoneIndex,
		}
		if err := insertEscrowTransaction(ctx, tx, etx); err != nil {
			return err
		}
		if err := saveEscrowBalances(ctx, tx, a); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE payment_milestones
			SET status = $2, released_by = $3, paid_at = $4, updated_at = NOW()
			WHERE id = $1
		`, m.ID, domain.MilestoneReleased, actorID, now); err != nil {
			return err
		}
		m.Status = domain.MilestoneReleased
		m.ReleasedBy = &actorID
		m.PaidAt = &now

		milestone, escrow = m, a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return milestone, escrow, nil
}

func selectMilestoneForUpdate(ctx context.Context, tx pgx.Tx, milestoneID uuid.UUID) (*domain.PaymentMilestone, error) {
	var m domain.PaymentMilestone
	err := tx.QueryRow(ctx, `
		SELECT id, project_id, milestone_index, amount, status, released_by, paid_at, created_at, updated_at
		FROM payment_milestones
		WHERE id = $1
		FOR UPDATE
	`, milestoneID).Scan(&m.ID, &m.ProjectID, &m.MilestoneIndex, &m.Amount, &m.Status, &m.ReleasedBy, &m.PaidAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetMilestone returns one milestone without locking.
func (r *PostgresRepository) GetMilestone(ctx context.Context, milestoneID uuid.UUID) (*domain.PaymentMilestone, error) {
	var m domain.PaymentMilestone
	err := r.db.QueryRow(ctx, `
		SELECT id, project_id, milestone_index, amount, status, released_by, paid_at, created_at, updated_at
		FROM payment_milestones
		WHERE id = $1
	`, milestoneID).Scan(&m.ID, &m.ProjectID, &m.MilestoneIndex, &m.Amount, &m.Status, &m.ReleasedBy, &m.PaidAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMilestoneNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMilestones returns a project's milestones in index order, optionally
// filtered by status.
func (r *PostgresRepository) ListMilestones(ctx context.Context, projectID uuid.UUID, statuses []domain.MilestoneStatus) ([]domain.PaymentMilestone, error) {
	query := `
		SELECT id, project_id, milestone_index, amount, status, released_by, paid_at, created_at, updated_at
		FROM payment_milestones
		WHERE project_id = $1
	`
	args := []any{projectID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		wanted := make([]string, len(statuses))
		for i, s := range statuses {
			wanted[i] = string(s)
		}
		args = append(args, wanted)
	}
	query += ` ORDER BY milestone_index`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []domain.PaymentMilestone
	for rows.Next() {
		var m domain.PaymentMilestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.MilestoneIndex, &m.Amount, &m.Status, &m.ReleasedBy, &m.PaidAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
