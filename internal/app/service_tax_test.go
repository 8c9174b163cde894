package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
)

type taxRepoStub struct {
	store.Repository

	upsertCalled bool
	profile      *domain.TaxProfile
}

func (s *taxRepoStub) UpsertTaxProfile(ctx context.Context, profile *domain.TaxProfile) (*domain.TaxProfile, error) {
	s.upsertCalled = true
	s.profile = profile
	return profile, nil
}

func TestCalculateVAT(t *testing.T) {
	svc := NewService(&taxRepoStub{}, nil, nil, nil, RateLimitConfig{})

	tests := []struct {
		amount    string
		wantNet   int64
		wantVAT   int64
		wantTotal int64
	}{
		{"100", 10000, 1500, 11500},
		{"1000.00", 100000, 15000, 115000},
		{"0.10", 10, 2, 12}, // 1.5 halalas rounds up
		{"333.33", 33333, 5000, 38333},
	}
	for _, tt := range tests {
		got, err := svc.CalculateVAT(tt.amount)
		if err != nil {
			t.Fatalf("amount %q: unexpected error %v", tt.amount, err)
		}
		if got.Amount != tt.wantNet || got.VATAmount != tt.wantVAT || got.Total != tt.wantTotal {
			t.Fatalf("amount %q: got %+v, want net=%d vat=%d total=%d", tt.amount, got, tt.wantNet, tt.wantVAT, tt.wantTotal)
		}
	}

	if _, err := svc.CalculateVAT("-1"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
}

func TestUpsertTaxProfileRequiresRegistration(t *testing.T) {
	repo := &taxRepoStub{}
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})
	userID := uuid.New()

	_, err := svc.UpsertTaxProfile(context.Background(), userID, domain.UpsertTaxProfilePayload{VATNumber: " "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.upsertCalled {
		t.Fatal("repository must not be reached with a blank VAT number")
	}

	_, err = svc.UpsertTaxProfile(context.Background(), userID, domain.UpsertTaxProfilePayload{
		VATNumber:    "310123456700003",
		BusinessName: "Najd Consulting",
		City:         "Riyadh",
		Country:      "SA",
	})
	if err != nil {
		t.Fatalf("expected upsert to succeed, got %v", err)
	}
	if repo.profile.UserID != userID {
		t.Fatalf("expected profile bound to caller, got %s", repo.profile.UserID)
	}
}
