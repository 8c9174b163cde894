/**
 * @description
 * Refund workflow use cases. Requests come from project participants; review
 * and processing are admin-only. Processing publishes the refund.processed
 * event after the atomic escrow movement.
 */

package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

// CreateRefundRequest opens a pending refund claim against a project's escrow.
func (s *Service) CreateRefundRequest(ctx context.Context, requestedBy uuid.UUID, payload domain.CreateRefundRequestPayload) (*domain.RefundRequest, error) {
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload.Reason) == "" {
		return nil, ErrValidation
	}
	return s.repo.CreateRefundRequest(ctx, payload.ProjectID, requestedBy, amount, payload.Reason)
}

// ApproveRefundRequest records an admin approval. Admin only.
func (s *Service) ApproveRefundRequest(ctx context.Context, refundID, adminID uuid.UUID, notes string) (*domain.RefundRequest, error) {
	if !s.IsAdmin(adminID) {
		return nil, store.ErrUnauthorized
	}
	return s.repo.ReviewRefundRequest(ctx, refundID, adminID, true, notes)
}

// RejectRefundRequest records an admin rejection. Admin only.
func (s *Service) RejectRefundRequest(ctx context.Context, refundID, adminID uuid.UUID, notes string) (*domain.RefundRequest, error) {
	if !s.IsAdmin(adminID) {
		return nil, store.ErrUnauthorized
	}
	return s.repo.ReviewRefundRequest(ctx, refundID, adminID, false, notes)
}

// ProcessRefund executes an approved refund. Admin only.
func (s *Service) ProcessRefund(ctx context.Context, refundID, adminID uuid.UUID) (*domain.RefundRequest, *domain.EscrowAccount, error) {
	if !s.IsAdmin(adminID) {
		return nil, nil, store.ErrUnauthorized
	}
	request, escrow, err := s.repo.ProcessRefund(ctx, refundID, adminID)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, "refund.processed", rabbitmq.RefundProcessedEvent{
		RefundID:  request.ID,
		ProjectID: request.ProjectID,
		Amount:    request.Amount,
		AdminID:   adminID,
		Timestamp: time.Now().UTC(),
	})
	return request, escrow, nil
}

// GetRefundRequest returns one refund request to its project participants or
// an admin.
func (s *Service) GetRefundRequest(ctx context.Context, refundID, userID uuid.UUID) (*domain.RefundRequest, error) {
	request, err := s.repo.GetRefundRequest(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if err := s.guardProjectRead(ctx, request.ProjectID, userID); err != nil {
		return nil, err
	}
	return request, nil
}

// ListRefundRequests returns refund requests. Admins see everything;
// everyone else must scope the listing to a project they participate in.
func (s *Service) ListRefundRequests(ctx context.Context, userID uuid.UUID, filter store.RefundListFilter) ([]domain.RefundRequest, error) {
	if !s.IsAdmin(userID) {
		if filter.ProjectID == nil {
			return nil, store.ErrUnauthorized
		}
		if err := s.guardProjectRead(ctx, *filter.ProjectID, userID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListRefundRequests(ctx, filter)
}
