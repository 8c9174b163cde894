package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
)

type refundRepoStub struct {
	store.Repository

	createCalled  bool
	reviewCalled  bool
	reviewApprove bool
	processCalled bool
	listCalled    bool

	request *domain.RefundRequest
	escrow  *domain.EscrowAccount
	project *domain.Project
}

func (s *refundRepoStub) CreateRefundRequest(ctx context.Context, projectID, requestedBy uuid.UUID, amount int64, reason string) (*domain.RefundRequest, error) {
	s.createCalled = true
	return s.request, nil
}

func (s *refundRepoStub) ReviewRefundRequest(ctx context.Context, refundID, adminID uuid.UUID, approve bool, notes string) (*domain.RefundRequest, error) {
	s.reviewCalled = true
	s.reviewApprove = approve
	return s.request, nil
}

func (s *refundRepoStub) ProcessRefund(ctx context.Context, refundID, adminID uuid.UUID) (*domain.RefundRequest, *domain.EscrowAccount, error) {
	s.processCalled = true
	return s.request, s.escrow, nil
}

func (s *refundRepoStub) GetRefundRequest(ctx context.Context, refundID uuid.UUID) (*domain.RefundRequest, error) {
	if s.request == nil {
		return nil, store.ErrRefundRequestNotFound
	}
	return s.request, nil
}

func (s *refundRepoStub) ListRefundRequests(ctx context.Context, filter store.RefundListFilter) ([]domain.RefundRequest, error) {
	s.listCalled = true
	return []domain.RefundRequest{*s.request}, nil
}

func (s *refundRepoStub) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	if s.project == nil {
		return nil, store.ErrProjectNotFound
	}
	return s.project, nil
}

func newRefundStub() *refundRepoStub {
	projectID := uuid.New()
	return &refundRepoStub{
		request: &domain.RefundRequest{
			ID:        uuid.New(),
			ProjectID: projectID,
			Amount:    20000,
			Status:    domain.RefundPending,
		},
		escrow:  &domain.EscrowAccount{ID: uuid.New(), ProjectID: projectID, Currency: "SAR"},
		project: &domain.Project{ID: projectID, ClientID: uuid.New(), ConsultantID: uuid.New()},
	}
}

func TestCreateRefundRequestRequiresReason(t *testing.T) {
	repo := newRefundStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, err := svc.CreateRefundRequest(context.Background(), uuid.New(), domain.CreateRefundRequestPayload{
		ProjectID: repo.request.ProjectID,
		Amount:    "200",
		Reason:    "   ",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.createCalled {
		t.Fatal("repository must not be reached without a reason")
	}
}

func TestRefundReviewIsAdminOnly(t *testing.T) {
	repo := newRefundStub()
	admin := uuid.New()
	svc := NewService(repo, nil, []uuid.UUID{admin}, nil, RateLimitConfig{})

	if _, err := svc.ApproveRefundRequest(context.Background(), repo.request.ID, uuid.New(), "ok"); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}
	if repo.reviewCalled {
		t.Fatal("repository must not be reached by a non-admin")
	}

	if _, err := svc.ApproveRefundRequest(context.Background(), repo.request.ID, admin, "ok"); err != nil {
		t.Fatalf("expected admin approval to succeed, got %v", err)
	}
	if !repo.reviewApprove {
		t.Fatal("expected approval to be recorded as approve")
	}

	if _, err := svc.RejectRefundRequest(context.Background(), repo.request.ID, admin, "no"); err != nil {
		t.Fatalf("expected admin rejection to succeed, got %v", err)
	}
	if repo.reviewApprove {
		t.Fatal("expected rejection to be recorded as reject")
	}
}

func TestProcessRefundPublishesEvent(t *testing.T) {
	repo := newRefundStub()
	admin := uuid.New()
	producer := &publisherStub{}
	svc := NewService(repo, producer, []uuid.UUID{admin}, nil, RateLimitConfig{})

	if _, _, err := svc.ProcessRefund(context.Background(), repo.request.ID, uuid.New()); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}
	if producer.published {
		t.Fatal("unauthorized process must not publish an event")
	}

	_, _, err := svc.ProcessRefund(context.Background(), repo.request.ID, admin)
	if err != nil {
		t.Fatalf("expected admin processing to succeed, got %v", err)
	}
	if producer.routingKey != "refund.processed" {
		t.Fatalf("expected routing key refund.processed, got %s", producer.routingKey)
	}
}

func TestListRefundRequestsScopesNonAdmins(t *testing.T) {
	repo := newRefundStub()
	admin := uuid.New()
	svc := NewService(repo, nil, []uuid.UUID{admin}, nil, RateLimitConfig{})

	// Non-admin without a project filter gets nothing.
	if _, err := svc.ListRefundRequests(context.Background(), uuid.New(), store.RefundListFilter{}); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without project scope, got %v", err)
	}

	// Participant scoped to their own project may list.
	filter := store.RefundListFilter{ProjectID: &repo.request.ProjectID}
	if _, err := svc.ListRefundRequests(context.Background(), repo.project.ClientID, filter); err != nil {
		t.Fatalf("expected participant listing to succeed, got %v", err)
	}

	// Admin lists without scoping.
	repo.listCalled = false
	if _, err := svc.ListRefundRequests(context.Background(), admin, store.RefundListFilter{}); err != nil {
		t.Fatalf("expected admin listing to succeed, got %v", err)
	}
	if !repo.listCalled {
		t.Fatal("expected repository listing to be called for admin")
	}
}
