/**
 * @description
 * Wallet use cases. Add-funds and withdraw are rate limited per user; the
 * pay-project composite funds a project's escrow from the caller's wallet in
 * one repository transaction.
 */

package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

// AddFunds credits the caller's wallet, creating it on first use.
func (s *Service) AddFunds(ctx context.Context, userID uuid.UUID, req domain.WalletMutationRequest) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	if err := s.consumeWalletLimit(ctx, userID); err != nil {
		return nil, nil, err
	}
	return s.repo.AddFunds(ctx, userID, amount, req.Description)
}

// Withdraw debits the caller's wallet. Rejects overdrafts.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, req domain.WalletMutationRequest) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	if err := s.consumeWalletLimit(ctx, userID); err != nil {
		return nil, nil, err
	}
	wallet, tx, err := s.repo.Withdraw(ctx, userID, amount, req.Description)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, "wallet.withdrawn", rabbitmq.WalletWithdrawnEvent{
		UserID:    userID,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
	})
	return wallet, tx, nil
}

// PayProject moves wallet funds into the project's escrow: one transaction
// debits the wallet and credits the escrow, so neither side can commit alone.
func (s *Service) PayProject(ctx context.Context, userID uuid.UUID, req domain.PayProjectRequest) (*domain.WalletAccount, *domain.EscrowAccount, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	if err := s.consumeWalletLimit(ctx, userID); err != nil {
		return nil, nil, err
	}
	description := req.Description
	if description == "" {
		description = "Escrow deposit from wallet"
	}
	return s.repo.PayProject(ctx, userID, req.ProjectID, amount, description)
}

// GetWallet returns the caller's wallet.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	return s.repo.GetWallet(ctx, userID)
}

// ListWalletTransactions returns the caller's wallet ledger, newest first.
func (s *Service) ListWalletTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WalletTransaction, error) {
	return s.repo.ListWalletTransactions(ctx, userID, limit, offset)
}
