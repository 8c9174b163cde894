package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

type milestoneRepoStub struct {
	store.Repository

	linkCalled    bool
	linkAmount    int64
	releaseCalled bool
	releaseErr    error

	milestone *domain.PaymentMilestone
	escrow    *domain.EscrowAccount
}

func (s *milestoneRepoStub) LinkMilestone(ctx context.Context, projectID, actorID uuid.UUID, milestoneIndex int, amount int64) (*domain.PaymentMilestone, error) {
	s.linkCalled = true
	s.linkAmount = amount
	return s.milestone, nil
}

func (s *milestoneRepoStub) ReleaseMilestone(ctx context.Context, milestoneID, actorID uuid.UUID, description string) (*domain.PaymentMilestone, *domain.EscrowAccount, error) {
	s.releaseCalled = true
	if s.releaseErr != nil {
		return nil, nil, s.releaseErr
	}
	return s.milestone, s.escrow, nil
}

func newMilestoneStub() *milestoneRepoStub {
	projectID := uuid.New()
	return &milestoneRepoStub{
		milestone: &domain.PaymentMilestone{
			ID:             uuid.New(),
			ProjectID:      projectID,
			MilestoneIndex: 1,
			Amount:         30000,
			Status:         domain.MilestonePendingRelease,
		},
		escrow: &domain.EscrowAccount{ID: uuid.New(), ProjectID: projectID, Currency: "SAR"},
	}
}

func TestLinkMilestoneValidatesInput(t *testing.T) {
	repo := newMilestoneStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})
	actor := uuid.New()

	_, err := svc.LinkMilestone(context.Background(), actor, domain.LinkMilestoneRequest{ProjectID: uuid.New(), MilestoneIndex: -1, Amount: "300"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative index, got %v", err)
	}

	_, err = svc.LinkMilestone(context.Background(), actor, domain.LinkMilestoneRequest{ProjectID: uuid.New(), MilestoneIndex: 1, Amount: "0"})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if repo.linkCalled {
		t.Fatal("repository must not be reached with invalid input")
	}

	_, err = svc.LinkMilestone(context.Background(), actor, domain.LinkMilestoneRequest{ProjectID: uuid.New(), MilestoneIndex: 1, Amount: "300.00"})
	if err != nil {
		t.Fatalf("expected link to succeed, got %v", err)
	}
	if repo.linkAmount != 30000 {
		t.Fatalf("expected 30000 halalas, got %d", repo.linkAmount)
	}
}

func TestReleaseMilestonePublishesTaggedEvent(t *testing.T) {
	repo := newMilestoneStub()
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})
	client := uuid.New()

	_, _, err := svc.ReleaseMilestone(context.Background(), repo.milestone.ID, client, "")
	if err != nil {
		t.Fatalf("expected release to succeed, got %v", err)
	}
	event, ok := producer.body.(rabbitmq.PaymentReleasedEvent)
	if !ok {
		t.Fatalf("expected PaymentReleasedEvent, got %T", producer.body)
	}
	if event.MilestoneIndex == nil || *event.MilestoneIndex != repo.milestone.MilestoneIndex {
		t.Fatalf("expected milestone index %d in event, got %v", repo.milestone.MilestoneIndex, event.MilestoneIndex)
	}
	if event.Amount != repo.milestone.Amount {
		t.Fatalf("expected amount %d, got %d", repo.milestone.Amount, event.Amount)
	}
}

func TestReleaseMilestoneRejectsWrongState(t *testing.T) {
	repo := newMilestoneStub()
	repo.releaseErr = &store.InvalidStateError{Entity: "milestone", Current: "pending_deposit", Attempt: "release"}
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, _, err := svc.ReleaseMilestone(context.Background(), repo.milestone.ID, uuid.New(), "early")
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if producer.published {
		t.Fatal("failed release must not publish an event")
	}
}
