/**
 * @description
 * Refund request workflow and tax profile storage. Processing an approved
 * refund is the composite operation: the escrow refund (balance movement
 * plus ledger row) and the request's transition to processed commit in one
 * transaction, so the request can never read processed while the money
 * stayed put, or the reverse.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/consultlink/payment-service/internal/domain"
)

// CreateRefundRequest opens a pending refund claim. The caller's project
// role is asserted in the same transaction as the insert.
func (r *PostgresRepository) CreateRefundRequest(ctx context.Context, projectID, requestedBy uuid.UUID, amount int64, reason string) (*domain.RefundRequest, error) {
	var request *domain.RefundRequest
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := requireProjectRole(ctx, tx, projectID, requestedBy, domain.RoleParticipant); err != nil {
			return err
		}

		req := &domain.RefundRequest{
			ID:          uuid.New(),
			ProjectID:   projectID,
			RequestedBy: requestedBy,
			Amount:      amount,
			Reason:      reason,
			Status:      domain.RefundPending,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO refund_requests (id, project_id, requested_by, amount, reason, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING requested_at
		`, req.ID, req.ProjectID, req.RequestedBy, req.Amount, req.Reason, req.Status).Scan(&req.RequestedAt)
		if err != nil {
			return err
		}
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ReviewRefundRequest records the admin decision. Legal only from pending.
func (r *PostgresRepository) ReviewRefundRequest(ctx context.Context, refundID, adminID uuid.UUID, approve bool, notes string) (*domain.RefundRequest, error) {
	var request *domain.RefundRequest
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		req, err := selectRefundForUpdate(ctx, tx, refundID)
		if err != nil {
			return err
		}
		attempt := "reject"
		status := domain.RefundRejected
		if approve {
			attempt = "approve"
			status = domain.RefundApproved
		}
		if err := requireRefundStatus(req, domain.RefundPending, attempt); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE refund_requests
			SET status = $2, admin_id = $3, admin_notes = $4, reviewed_at = $5
			WHERE id = $1
		`, req.ID, status, adminID, notes, now); err != nil {
			return err
		}
		req.Status = status
		req.AdminID = &adminID
		req.AdminNotes = &notes
		req.ReviewedAt = &now
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ProcessRefund executes an approved refund: escrow money moves and the
// request transitions to processed in one atomic unit.
func (r *PostgresRepository) ProcessRefund(ctx context.Context, refundID, adminID uuid.UUID) (*domain.RefundRequest, *domain.EscrowAccount, error) {
	var (
		request *domain.RefundRequest
		escrow  *domain.EscrowAccount
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		req, err := selectRefundForUpdate(ctx, tx, refundID)
		if err != nil {
			return err
		}
		if err := requireRefundStatus(req, domain.RefundApproved, "process"); err != nil {
			return err
		}

		a, err := lockEscrowAccount(ctx, tx, req.ProjectID, false)
		if err != nil {
			return err
		}
		if err := applyEscrowRefund(a, req.Amount); err != nil {
			return err
		}

		etx := &domain.EscrowTransaction{
			ID:              uuid.New(),
			EscrowAccountID: a.ID,
			Type:            domain.EscrowTxRefund,
			Amount:          req.Amount,
			Status:          "completed",
			Description:     fmt.Sprintf("Refund request %s processed", req.ID),
			CreatedBy:       adminID,
		}
		if err := insertEscrowTransaction(ctx, tx, etx); err != nil {
			return err
		}
		if err := saveEscrowBalances(ctx, tx, a); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE refund_requests SET status = $2, processed_at = $3 WHERE id = $1
		`, req.ID, domain.RefundProcessed, now); err != nil {
			return err
		}
		req.Status = domain.RefundProcessed
		req.ProcessedAt = &now

		request, escrow = req, a
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return request, escrow, nil
}

// requireRefundStatus rejects the attempted transition unless the request is
// in the required state. Review needs pending, processing needs approved.
func requireRefundStatus(req *domain.RefundRequest, want domain.RefundStatus, attempt string) error {
	if req.Status != want {
		return &InvalidStateError{Entity: "refund request", Current: string(req.Status), Attempt: attempt}
	}
	return nil
}

func selectRefundForUpdate(ctx context.Context, tx pgx.Tx, refundID uuid.UUID) (*domain.RefundRequest, error) {
	return scanRefund(tx.QueryRow(ctx, selectRefundQuery+` WHERE id = $1 FOR UPDATE`, refundID))
}

const selectRefundQuery = `
	SELECT id, project_id, requested_by, amount, reason, status, admin_id, admin_notes, requested_at, reviewed_at, processed_at
	FROM refund_requests
`

func scanRefund(row pgx.Row) (*domain.RefundRequest, error) {
	var req domain.RefundRequest
	err := row.Scan(&req.ID, &req.ProjectID, &req.RequestedBy, &req.Amount, &req.Reason, &req.Status,
		&req.AdminID, &req.AdminNotes, &req.RequestedAt, &req.ReviewedAt, &req.ProcessedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrRefundRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetRefundRequest returns one refund request without locking.
func (r *PostgresRepository) GetRefundRequest(ctx context.Context, refundID uuid.UUID) (*domain.RefundRequest, error) {
	return scanRefund(r.db.QueryRow(ctx, selectRefundQuery+` WHERE id = $1`, refundID))
}

// ListRefundRequests returns refund requests, newest first, with optional
// project and status filters.
func (r *PostgresRepository) ListRefundRequests(ctx context.Context, filter RefundListFilter) ([]domain.RefundRequest, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := selectRefundQuery + ` WHERE 1=1`
	var args []any
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		query += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.RefundRequest
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// UpsertTaxProfile writes a user's VAT registration details.
func (r *PostgresRepository) UpsertTaxProfile(ctx context.Context, profile *domain.TaxProfile) (*domain.TaxProfile, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO tax_profiles (user_id, vat_number, business_name, address, city, country)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET vat_number = EXCLUDED.vat_number, business_name = EXCLUDED.business_name,
		    address = EXCLUDED.address, city = EXCLUDED.city, country = EXCLUDED.country,
		    updated_at = NOW()
		RETURNING created_at, updated_at
	`, profile.UserID, profile.VATNumber, profile.BusinessName, profile.Address, profile.City, profile.Country).
		Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetTaxProfile returns a user's tax profile.
func (r *PostgresRepository) GetTaxProfile(ctx context.Context, userID uuid.UUID) (*domain.TaxProfile, error) {
	var p domain.TaxProfile
	err := r.db.QueryRow(ctx, `
		SELECT user_id, vat_number, business_name, address, city, country, created_at, updated_at
		FROM tax_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.VATNumber, &p.BusinessName, &p.Address, &p.City, &p.Country, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTaxProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DeleteTaxProfile removes a user's tax profile.
func (r *PostgresRepository) DeleteTaxProfile(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tax_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaxProfileNotFound
	}
	return nil
}
