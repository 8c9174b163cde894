package store

import (
	"errors"
	"testing"

	"github.com/consultlink/payment-service/internal/domain"
)

func escrowAccountFixture() *domain.EscrowAccount {
	return &domain.EscrowAccount{
		TotalAmount:      100000,
		AvailableBalance: 60000,
		OnHoldAmount:     10000,
		ReleasedAmount:   20000,
		RefundedAmount:   10000,
	}
}

func assertConservation(t *testing.T, a *domain.EscrowAccount) {
	t.Helper()
	if a.TotalAmount != a.AvailableBalance+a.OnHoldAmount+a.ReleasedAmount+a.RefundedAmount {
		t.Fatalf("conservation broken: total=%d available=%d on_hold=%d released=%d refunded=%d",
			a.TotalAmount, a.AvailableBalance, a.OnHoldAmount, a.ReleasedAmount, a.RefundedAmount)
	}
	if a.AvailableBalance < 0 || a.OnHoldAmount < 0 || a.ReleasedAmount < 0 || a.RefundedAmount < 0 {
		t.Fatalf("negative sub-balance: available=%d on_hold=%d released=%d refunded=%d",
			a.AvailableBalance, a.OnHoldAmount, a.ReleasedAmount, a.RefundedAmount)
	}
}

func TestEscrowBalanceMovements(t *testing.T) {
	cases := []struct {
		name          string
		apply         func(a *domain.EscrowAccount, amount int64) error
		amount        int64
		wantTotal     int64
		wantAvailable int64
		wantOnHold    int64
		wantReleased  int64
		wantRefunded  int64
	}{
		{
			name:  "deposit grows total and available together",
			apply: applyEscrowDeposit, amount: 40000,
			wantTotal: 140000, wantAvailable: 100000, wantOnHold: 10000, wantReleased: 20000, wantRefunded: 10000,
		},
		{
			name:  "release moves available to released",
			apply: applyEscrowRelease, amount: 25000,
			wantTotal: 100000, wantAvailable: 35000, wantOnHold: 10000, wantReleased: 45000, wantRefunded: 10000,
		},
		{
			name:  "hold earmarks available funds",
			apply: applyEscrowHold, amount: 15000,
			wantTotal: 100000, wantAvailable: 45000, wantOnHold: 25000, wantReleased: 20000, wantRefunded: 10000,
		},
		{
			name:  "release-hold returns earmarked funds",
			apply: applyEscrowReleaseHold, amount: 10000,
			wantTotal: 100000, wantAvailable: 70000, wantOnHold: 0, wantReleased: 20000, wantRefunded: 10000,
		},
		{
			name:  "refund can drain the full available balance",
			apply: applyEscrowRefund, amount: 60000,
			wantTotal: 100000, wantAvailable: 0, wantOnHold: 10000, wantReleased: 20000, wantRefunded: 70000,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := escrowAccountFixture()
			if err := tc.apply(a, tc.amount); err != nil {
				t.Fatalf("apply returned error: %v", err)
			}
			if a.TotalAmount != tc.wantTotal || a.AvailableBalance != tc.wantAvailable ||
				a.OnHoldAmount != tc.wantOnHold || a.ReleasedAmount != tc.wantReleased ||
				a.RefundedAmount != tc.wantRefunded {
				t.Fatalf("balances = total %d / available %d / on_hold %d / released %d / refunded %d, want %d / %d / %d / %d / %d",
					a.TotalAmount, a.AvailableBalance, a.OnHoldAmount, a.ReleasedAmount, a.RefundedAmount,
					tc.wantTotal, tc.wantAvailable, tc.wantOnHold, tc.wantReleased, tc.wantRefunded)
			}
			assertConservation(t, a)
		})
	}
}

func TestEscrowMovementsRejectOverdraw(t *testing.T) {
	cases := []struct {
		name   string
		apply  func(a *domain.EscrowAccount, amount int64) error
		amount int64
	}{
		{"release beyond available", applyEscrowRelease, 60001},
		{"hold beyond available", applyEscrowHold, 60001},
		{"refund beyond available", applyEscrowRefund, 60001},
		{"release-hold beyond on-hold", applyEscrowReleaseHold, 10001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := escrowAccountFixture()
			err := tc.apply(a, tc.amount)
			if !errors.Is(err, ErrInsufficientBalance) {
				t.Fatalf("expected ErrInsufficientBalance, got %v", err)
			}
			want := escrowAccountFixture()
			if *a != *want {
				t.Fatalf("balances mutated by a rejected movement: %+v", a)
			}
			assertConservation(t, a)
		})
	}
}

func TestRequireAvailableReportsAmounts(t *testing.T) {
	a := &domain.EscrowAccount{AvailableBalance: 5000}
	err := requireAvailable(a, 5001)
	var ib *InsufficientBalanceError
	if !errors.As(err, &ib) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if ib.Requested != 5001 || ib.Available != 5000 {
		t.Fatalf("error carries requested=%d available=%d, want 5001/5000", ib.Requested, ib.Available)
	}
	if err := requireAvailable(a, 5000); err != nil {
		t.Fatalf("exact balance must pass, got %v", err)
	}
}

func TestInvoiceTransitionLegality(t *testing.T) {
	all := []domain.InvoiceStatus{domain.InvoiceDraft, domain.InvoiceSent, domain.InvoicePaid, domain.InvoiceCancelled}
	legalFrom := map[string][]domain.InvoiceStatus{
		"pay":    {domain.InvoiceDraft, domain.InvoiceSent},
		"send":   {domain.InvoiceDraft},
		"cancel": {domain.InvoiceDraft, domain.InvoiceSent},
	}
	for attempt, from := range legalFrom {
		for _, current := range all {
			legal := false
			for _, s := range from {
				if current == s {
					legal = true
				}
			}
			err := requireInvoiceStatus(&domain.Invoice{Status: current}, attempt, from...)
			if legal && err != nil {
				t.Fatalf("%s from %s must be legal, got %v", attempt, current, err)
			}
			if !legal && !errors.Is(err, ErrInvalidState) {
				t.Fatalf("%s from %s must return ErrInvalidState, got %v", attempt, current, err)
			}
		}
	}
}

func TestInvoiceTerminalStatesRejectEverything(t *testing.T) {
	for _, current := range []domain.InvoiceStatus{domain.InvoicePaid, domain.InvoiceCancelled} {
		for _, attempt := range []string{"pay", "send", "cancel"} {
			var from []domain.InvoiceStatus
			switch attempt {
			case "send":
				from = []domain.InvoiceStatus{domain.InvoiceDraft}
			default:
				from = []domain.InvoiceStatus{domain.InvoiceDraft, domain.InvoiceSent}
			}
			err := requireInvoiceStatus(&domain.Invoice{Status: current}, attempt, from...)
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("%s from terminal %s must return ErrInvalidState, got %v", attempt, current, err)
			}
		}
	}
}

func TestRefundReviewRequiresPending(t *testing.T) {
	for _, current := range []domain.RefundStatus{domain.RefundApproved, domain.RefundRejected, domain.RefundProcessed} {
		err := requireRefundStatus(&domain.RefundRequest{Status: current}, domain.RefundPending, "approve")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("review from %s must return ErrInvalidState, got %v", current, err)
		}
	}
	if err := requireRefundStatus(&domain.RefundRequest{Status: domain.RefundPending}, domain.RefundPending, "approve"); err != nil {
		t.Fatalf("review from pending must be legal, got %v", err)
	}
}

func TestRefundProcessRequiresApproval(t *testing.T) {
	for _, current := range []domain.RefundStatus{domain.RefundPending, domain.RefundRejected, domain.RefundProcessed} {
		err := requireRefundStatus(&domain.RefundRequest{Status: current}, domain.RefundApproved, "process")
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("process from %s must return ErrInvalidState, got %v", current, err)
		}
	}
	if err := requireRefundStatus(&domain.RefundRequest{Status: domain.RefundApproved}, domain.RefundApproved, "process"); err != nil {
		t.Fatalf("process from approved must be legal, got %v", err)
	}
}
