/**
 * @description
 * Payment milestone use cases. Linking validates the amount and delegates to
 * the repository, which also promotes already-funded milestones; releasing a
 * milestone publishes the payment.released event after the atomic payout.
 */

package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

// LinkMilestone ties a project milestone index to a payment amount.
// Consultant only.
func (s *Service) LinkMilestone(ctx context.Context, actorID uuid.UUID, req domain.LinkMilestoneRequest) (*domain.PaymentMilestone, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.MilestoneIndex < 0 {
		return nil, ErrValidation
	}
	return s.repo.LinkMilestone(ctx, req.ProjectID, actorID, req.MilestoneIndex, amount)
}

// ReleaseMilestone pays a funded milestone out of escrow. Client only.
func (s *Service) ReleaseMilestone(ctx context.Context, milestoneID, actorID uuid.UUID, description string) (*domain.PaymentMilestone, *domain.EscrowAccount, error) {
	if description == "" {
		description = "Milestone release"
	}
	milestone, escrow, err := s.repo.ReleaseMilestone(ctx, milestoneID, actorID, description)
	if err != nil {
		return nil, nil, err
	}
	index := milestone.MilestoneIndex
	s.publish(ctx, "payment.released", rabbitmq.PaymentReleasedEvent{
		ProjectID:      milestone.ProjectID,
		ReleasedBy:     actorID,
		Amount:         milestone.Amount,
		MilestoneIndex: &index,
		Timestamp:      time.Now().UTC(),
	})
	return milestone, escrow, nil
}

// GetMilestone returns one milestone for any project participant.
func (s *Service) GetMilestone(ctx context.Context, milestoneID, userID uuid.UUID) (*domain.PaymentMilestone, error) {
	milestone, err := s.repo.GetMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	if err := s.guardProjectRead(ctx, milestone.ProjectID, userID); err != nil {
		return nil, err
	}
	return milestone, nil
}

// ListMilestones returns a project's milestones in index order.
func (s *Service) ListMilestones(ctx context.Context, projectID, userID uuid.UUID, statuses []domain.MilestoneStatus) ([]domain.PaymentMilestone, error) {
	if err := s.guardProjectRead(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMilestones(ctx, projectID, statuses)
}
