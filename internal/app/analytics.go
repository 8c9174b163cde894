/**
 * @description
 * Read-only analytics use cases: the per-project financial summary and CSV
 * exports of the escrow and wallet ledgers for accounting handoff.
 */

package app

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

// GetProjectFinancialSummary aggregates a project's escrow, invoice and
// milestone figures for dashboards.
func (s *Service) GetProjectFinancialSummary(ctx context.Context, projectID, userID uuid.UUID) (*domain.ProjectFinancialSummary, error) {
	if err := s.guardProjectRead(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetProjectFinancialSummary(ctx, projectID)
}

// ExportEscrowTransactionsCSV streams the project's full escrow ledger as
// CSV, oldest row last (the ledger lists newest first).
func (s *Service) ExportEscrowTransactionsCSV(ctx context.Context, projectID, userID uuid.UUID, w io.Writer) error {
	if err := s.guardProjectRead(ctx, projectID, userID); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "type", "amount", "currency", "description", "created_by", "milestone_index", "created_at"}); err != nil {
		return err
	}

	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.ListEscrowTransactions(ctx, projectID, pageSize, offset)
		if err != nil {
			return err
		}
		for _, tx := range page {
			index := ""
			if tx.RelatedMilestoneIndex != nil {
				index = strconv.Itoa(*tx.RelatedMilestoneIndex)
			}
			record := []string{
				tx.ID.String(),
				string(tx.Type),
				money.Format(tx.Amount),
				money.Currency,
				tx.Description,
				tx.CreatedBy.String(),
				index,
				tx.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportWalletTransactionsCSV streams the caller's wallet ledger as CSV. The
// wallet is owned by the caller, so no further authorization is needed.
func (s *Service) ExportWalletTransactionsCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	if _, err := s.repo.GetWallet(ctx, userID); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "type", "amount", "currency", "description", "balance_before", "balance_after", "related_project_id", "created_at"}); err != nil {
		return err
	}

	const pageSize = 200
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.ListWalletTransactions(ctx, userID, pageSize, offset)
		if err != nil {
			return err
		}
		for _, tx := range page {
			projectID := ""
			if tx.RelatedProjectID != nil {
				projectID = tx.RelatedProjectID.String()
			}
			record := []string{
				tx.ID.String(),
				string(tx.Type),
				money.Format(tx.Amount),
				money.Currency,
				tx.Description,
				money.Format(tx.BalanceBefore),
				money.Format(tx.BalanceAfter),
				projectID,
				tx.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	writer.Flush()
	return writer.Error()
}
