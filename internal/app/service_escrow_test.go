package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
)

type publisherStub struct {
	published   bool
	exchange    string
	routingKey  string
	body        interface{}
	publishErr  error
	closeCalled bool
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.published = true
	p.exchange = exchange
	p.routingKey = routingKey
	p.body = body
	return p.publishErr
}

func (p *publisherStub) Close() { p.closeCalled = true }

type escrowRepoStub struct {
	store.Repository

	project *domain.Project

	depositCalled bool
	depositAmount int64

	releaseCalled bool
	releaseAmount int64
	releaseErr    error

	partialCalled bool
	partialIndex  int

	account *domain.EscrowAccount
	tx      *domain.EscrowTransaction
}

func (s *escrowRepoStub) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	if s.project == nil {
		return nil, store.ErrProjectNotFound
	}
	return s.project, nil
}

func (s *escrowRepoStub) Deposit(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	s.depositCalled = true
	s.depositAmount = amount
	return s.account, s.tx, nil
}

func (s *escrowRepoStub) Release(ctx context.Context, projectID, actorID uuid.UUID, amount int64, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	s.releaseCalled = true
	s.releaseAmount = amount
	if s.releaseErr != nil {
		return nil, nil, s.releaseErr
	}
	return s.account, s.tx, nil
}

func (s *escrowRepoStub) PartialRelease(ctx context.Context, projectID, actorID uuid.UUID, amount int64, milestoneIndex int, description string) (*domain.EscrowAccount, *domain.EscrowTransaction, error) {
	s.partialCalled = true
	s.partialIndex = milestoneIndex
	return s.account, s.tx, nil
}

func (s *escrowRepoStub) GetEscrowAccount(ctx context.Context, projectID uuid.UUID) (*domain.EscrowAccount, error) {
	if s.account == nil {
		return nil, store.ErrEscrowAccountNotFound
	}
	return s.account, nil
}

func newEscrowStub() *escrowRepoStub {
	projectID := uuid.New()
	return &escrowRepoStub{
		account: &domain.EscrowAccount{ID: uuid.New(), ProjectID: projectID, Currency: "SAR"},
		tx:      &domain.EscrowTransaction{ID: uuid.New()},
	}
}

func TestDepositRejectsMalformedAmounts(t *testing.T) {
	repo := newEscrowStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})
	actor := uuid.New()

	for _, amount := range []string{"", "abc", "-5", "10.001", "0", "0.00"} {
		_, _, err := svc.Deposit(context.Background(), uuid.New(), actor, domain.EscrowMutationRequest{Amount: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %q: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if repo.depositCalled {
		t.Fatal("repository must not be reached with a malformed amount")
	}
}

func TestDepositConvertsToHalalas(t *testing.T) {
	repo := newEscrowStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, _, err := svc.Deposit(context.Background(), uuid.New(), uuid.New(), domain.EscrowMutationRequest{Amount: "1000.00", Description: "initial funding"})
	if err != nil {
		t.Fatalf("expected deposit to succeed, got %v", err)
	}
	if !repo.depositCalled {
		t.Fatal("expected repository deposit to be called")
	}
	if repo.depositAmount != 100000 {
		t.Fatalf("expected 100000 halalas, got %d", repo.depositAmount)
	}
}

func TestReleasePublishesPaymentReleasedEvent(t *testing.T) {
	repo := newEscrowStub()
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, _, err := svc.Release(context.Background(), uuid.New(), uuid.New(), domain.EscrowMutationRequest{Amount: "400", Description: "phase one"})
	if err != nil {
		t.Fatalf("expected release to succeed, got %v", err)
	}
	if !producer.published {
		t.Fatal("expected payment.released event to be published")
	}
	if producer.routingKey != "payment.released" {
		t.Fatalf("expected routing key payment.released, got %s", producer.routingKey)
	}
}

func TestReleaseFailureDoesNotPublish(t *testing.T) {
	repo := newEscrowStub()
	repo.releaseErr = &store.InsufficientBalanceError{Requested: 70000, Available: 60000}
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, _, err := svc.Release(context.Background(), uuid.New(), uuid.New(), domain.EscrowMutationRequest{Amount: "700"})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if producer.published {
		t.Fatal("failed release must not publish an event")
	}
}

func TestPartialReleaseRejectsNegativeIndex(t *testing.T) {
	repo := newEscrowStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, _, err := svc.PartialRelease(context.Background(), uuid.New(), uuid.New(), domain.PartialReleaseRequest{Amount: "100", MilestoneIndex: -1})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.partialCalled {
		t.Fatal("repository must not be reached with a negative index")
	}
}

func TestGetEscrowBalanceGuardsNonParticipants(t *testing.T) {
	repo := newEscrowStub()
	client, consultant, stranger := uuid.New(), uuid.New(), uuid.New()
	repo.project = &domain.Project{ID: repo.account.ProjectID, ClientID: client, ConsultantID: consultant}

	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	if _, err := svc.GetEscrowBalance(context.Background(), repo.account.ProjectID, stranger); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}
	if _, err := svc.GetEscrowBalance(context.Background(), repo.account.ProjectID, consultant); err != nil {
		t.Fatalf("expected consultant to read balance, got %v", err)
	}
}

func TestGetEscrowBalanceAllowsAdmins(t *testing.T) {
	repo := newEscrowStub()
	admin := uuid.New()
	svc := NewService(repo, nil, []uuid.UUID{admin}, nil, RateLimitConfig{})

	// Admin path never touches the project registry.
	if _, err := svc.GetEscrowBalance(context.Background(), repo.account.ProjectID, admin); err != nil {
		t.Fatalf("expected admin to read balance, got %v", err)
	}
}
