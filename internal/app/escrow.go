/**
 * @description
 * Escrow use cases. Each mutation parses the boundary amount, delegates the
 * atomic balance movement to the repository and publishes the corresponding
 * event after commit. Reads are guarded here against the project registry.
 */

package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

// Deposit credits a project's escrow from an external source. Client only.
func (s *Service) Deposit(ctx context.Context, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	return s.repo.Deposit(ctx, projectID, actorID, amount, req.Description)
}

// Release pays escrow funds out to the consultant. Client only.
func (s *Service) Release(ctx context.Context, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	account, tx, err := s.repo.Release(ctx, projectID, actorID, amount, req.Description)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, "payment.released", rabbitmq.PaymentReleasedEvent{
		ProjectID:  projectID,
		ReleasedBy: actorID,
		Amount:     amount,
		Timestamp:  time.Now().UTC(),
	})
	return account, tx, nil
}

// PartialRelease pays out part of the escrow, tagged with the milestone index
// it settles. Client only.
func (s *Service) PartialRelease(ctx context.Context, projectID, actorID uuid.UUID, req domain.PartialReleaseRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	if req.MilestoneIndex < 0 {
		return nil, nil, ErrValidation
	}
	account, tx, err := s.repo.PartialRelease(ctx, projectID, actorID, amount, req.MilestoneIndex, req.Description)
	if err != nil {
		return nil, nil, err
	}
	index := req.MilestoneIndex
	s.publish(ctx, "payment.released", rabbitmq.PaymentReleasedEvent{
		ProjectID:      projectID,
		ReleasedBy:     actorID,
		Amount:         amount,
		MilestoneIndex: &index,
		Timestamp:      time.Now().UTC(),
	})
	return account, tx, nil
}

// Hold moves available escrow funds into the on-hold bucket during a dispute.
// Any project participant may place a hold.
func (s *Service) Hold(ctx context.Context, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	return s.repo.Hold(ctx, projectID, actorID, amount, req.Description)
}

// ReleaseHold moves on-hold funds back to available once a dispute resolves.
func (s *Service) ReleaseHold(ctx context.Context, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	return s.repo.ReleaseHold(ctx, projectID, actorID, amount, req.Description)
}

// RefundEscrow returns available escrow funds to the client outside the
// refund request workflow. Used for direct, uncontested refunds.
func (s *Service) RefundEscrow(ctx context.Context, projectID, actorID uuid.UUID, req domain.EscrowMutationRequest) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, nil, err
	}
	return s.repo.RefundEscrow(ctx, projectID, actorID, amount, req.Description)
}

// GetEscrowBalance returns the project's escrow balance snapshot. A project
// with no escrow account yet reads as all-zero balances.
func (s *Service) GetEscrowBalance(ctx context.Context, projectID, userID uuid.UUID) (*domain.EscrowBalance, error) {
	if err := s.guardProjectRead(ctx, projectID, userID); err != nil {
		return nil, err
	}
	account, err := s.repo.GetEscrowAccount(ctx, projectID)
	if err != nil {
		return nil, err
	}
	balance := account.Snapshot()
	return &balance, nil
}

// ListEscrowTransactions returns the project's escrow ledger, newest first.
func (s *Service) ListEscrowTransactions(ctx context.Context, projectID, userID uuid.UUID, limit, offset int) ([]domain.EscrowTransaction, error) {
	if err := s.guardProjectRead(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListEscrowTransactions(ctx, projectID, limit, offset)
}
