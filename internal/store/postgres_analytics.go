// Read-only aggregation over the ledgers for dashboards. No locking: these
// queries never feed a mutation.

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

// GetProjectFinancialSummary aggregates a project's escrow balances,
// invoice totals and milestone progress in one round trip per aggregate.
func (r *PostgresRepository) GetProjectFinancialSummary(ctx context.Context, projectID uuid.UUID) (*domain.ProjectFinancialSummary, error) {
	summary := &domain.ProjectFinancialSummary{ProjectID: projectID}

	account, err := r.GetEscrowAccount(ctx, projectID)
	switch err {
	case nil:
		summary.Escrow = account.Snapshot()
	case ErrEscrowAccountNotFound:
		summary.Escrow = domain.EscrowBalance{ProjectID: projectID, Currency: money.Currency}
	default:
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'paid'), 0),
			COUNT(*) FILTER (WHERE status IN ('draft', 'sent'))
		FROM invoices
		WHERE project_id = $1
	`, projectID).Scan(&summary.InvoicedTotal, &summary.PaidInvoiceTotal, &summary.OpenInvoiceCount)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'released')
		FROM payment_milestones
		WHERE project_id = $1
	`, projectID).Scan(&summary.MilestoneCount, &summary.ReleasedMilestones)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
