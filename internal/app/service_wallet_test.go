package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
)

type walletRepoStub struct {
	store.Repository

	addFundsCalled bool
	addFundsAmount int64

	withdrawCalled bool
	withdrawErr    error

	payProjectCalled bool
	payProjectDesc   string

	wallet *domain.WalletAccount
	tx     *domain.WalletTransaction
	escrow *domain.EscrowAccount
}

func (s *walletRepoStub) AddFunds(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	s.addFundsCalled = true
	s.addFundsAmount = amount
	return s.wallet, s.tx, nil
}

func (s *walletRepoStub) Withdraw(ctx context.Context, userID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.WalletTransaction, error) {
	s.withdrawCalled = true
	if s.withdrawErr != nil {
		return nil, nil, s.withdrawErr
	}
	return s.wallet, s.tx, nil
}

func (s *walletRepoStub) PayProject(ctx context.Context, userID, projectID uuid.UUID, amount int64, description string) (*domain.WalletAccount, *domain.EscrowAccount, error) {
	s.payProjectCalled = true
	s.payProjectDesc = description
	return s.wallet, s.escrow, nil
}

type limiterStub struct {
	count      int
	retryAfter int
	err        error
	called     bool
	scope      string
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	l.called = true
	l.scope = scope
	return l.count, l.retryAfter, l.err
}

func newWalletStub() *walletRepoStub {
	return &walletRepoStub{
		wallet: &domain.WalletAccount{ID: uuid.New(), UserID: uuid.New(), Currency: "SAR"},
		tx:     &domain.WalletTransaction{ID: uuid.New()},
		escrow: &domain.EscrowAccount{ID: uuid.New(), Currency: "SAR"},
	}
}

func TestAddFundsConvertsToHalalas(t *testing.T) {
	repo := newWalletStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, _, err := svc.AddFunds(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: "50.00"})
	if err != nil {
		t.Fatalf("expected add funds to succeed, got %v", err)
	}
	if repo.addFundsAmount != 5000 {
		t.Fatalf("expected 5000 halalas, got %d", repo.addFundsAmount)
	}
}

func TestWithdrawPublishesWalletWithdrawnEvent(t *testing.T) {
	repo := newWalletStub()
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, _, err := svc.Withdraw(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: "50"})
	if err != nil {
		t.Fatalf("expected withdraw to succeed, got %v", err)
	}
	if producer.routingKey != "wallet.withdrawn" {
		t.Fatalf("expected routing key wallet.withdrawn, got %s", producer.routingKey)
	}
}

func TestWithdrawOverdraftSurfacesInsufficientBalance(t *testing.T) {
	repo := newWalletStub()
	repo.withdrawErr = &store.InsufficientBalanceError{Requested: 1, Available: 0}
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, _, err := svc.Withdraw(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: "0.01"})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if producer.published {
		t.Fatal("failed withdraw must not publish an event")
	}
}

func TestWalletMutationsAreRateLimited(t *testing.T) {
	repo := newWalletStub()
	limiter := &limiterStub{count: 11, retryAfter: 30}
	svc := NewService(repo, nil, nil, limiter, RateLimitConfig{Limit: 10, Window: time.Minute})

	_, _, err := svc.AddFunds(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: "10"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if repo.addFundsCalled {
		t.Fatal("repository must not be reached once the limit is exceeded")
	}
	if limiter.scope != "wallet_mutation" {
		t.Fatalf("expected wallet_mutation scope, got %s", limiter.scope)
	}
}

func TestBrokenLimiterDoesNotBlockMutations(t *testing.T) {
	repo := newWalletStub()
	limiter := &limiterStub{err: errors.New("redis unavailable")}
	svc := NewService(repo, nil, nil, limiter, RateLimitConfig{Limit: 10, Window: time.Minute})

	_, _, err := svc.AddFunds(context.Background(), uuid.New(), domain.WalletMutationRequest{Amount: "10"})
	if err != nil {
		t.Fatalf("expected add funds to succeed despite limiter error, got %v", err)
	}
	if !repo.addFundsCalled {
		t.Fatal("expected repository add funds to be called")
	}
}

func TestPayProjectDefaultsDescription(t *testing.T) {
	repo := newWalletStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, _, err := svc.PayProject(context.Background(), uuid.New(), domain.PayProjectRequest{ProjectID: uuid.New(), Amount: "250.50"})
	if err != nil {
		t.Fatalf("expected pay project to succeed, got %v", err)
	}
	if !repo.payProjectCalled {
		t.Fatal("expected repository pay project to be called")
	}
	if repo.payProjectDesc != "Escrow deposit from wallet" {
		t.Fatalf("unexpected default description: %q", repo.payProjectDesc)
	}
}
