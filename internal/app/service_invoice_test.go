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

type invoiceRepoStub struct {
	store.Repository

	createCalled bool
	createParams store.CreateInvoiceParams

	invoice *domain.Invoice
}

func (s *invoiceRepoStub) CreateInvoice(ctx context.Context, params store.CreateInvoiceParams) (*domain.Invoice, error) {
	s.createCalled = true
	s.createParams = params
	return s.invoice, nil
}

func (s *invoiceRepoStub) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	if s.invoice == nil {
		return nil, store.ErrInvoiceNotFound
	}
	return s.invoice, nil
}

func newInvoiceStub() *invoiceRepoStub {
	return &invoiceRepoStub{
		invoice: &domain.Invoice{
			ID:            uuid.New(),
			InvoiceNumber: "INV-2026-0001",
			ProjectID:     uuid.New(),
			ClientID:      uuid.New(),
			ConsultantID:  uuid.New(),
			Subtotal:      100000,
			VATAmount:     15000,
			TotalAmount:   115000,
			Status:        domain.InvoiceDraft,
		},
	}
}

func TestCreateInvoiceRejectsEmptyItems(t *testing.T) {
	repo := newInvoiceStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})

	_, err := svc.CreateInvoice(context.Background(), uuid.New(), domain.CreateInvoicePayload{ProjectID: uuid.New()})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.createCalled {
		t.Fatal("repository must not be reached with no items")
	}
}

func TestCreateInvoiceRejectsBadLineItems(t *testing.T) {
	repo := newInvoiceStub()
	svc := NewService(repo, nil, nil, nil, RateLimitConfig{})
	projectID := uuid.New()

	cases := []struct {
		name string
		item domain.CreateInvoiceItemPayload
		want error
	}{
		{"blank description", domain.CreateInvoiceItemPayload{Description: "  ", Quantity: 1, UnitPrice: "100"}, ErrValidation},
		{"zero quantity", domain.CreateInvoiceItemPayload{Description: "Consulting", Quantity: 0, UnitPrice: "100"}, ErrValidation},
		{"malformed unit price", domain.CreateInvoiceItemPayload{Description: "Consulting", Quantity: 1, UnitPrice: "12.345"}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(context.Background(), uuid.New(), domain.CreateInvoicePayload{
				ProjectID: projectID,
				Items:     []domain.CreateInvoiceItemPayload{tc.item},
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateInvoiceDefaultsDueDateAndPublishes(t *testing.T) {
	repo := newInvoiceStub()
	producer := &publisherStub{}
	svc := NewService(repo, producer, nil, nil, RateLimitConfig{})

	_, err := svc.CreateInvoice(context.Background(), repo.invoice.ConsultantID, domain.CreateInvoicePayload{
		ProjectID: repo.invoice.ProjectID,
		Items: []domain.CreateInvoiceItemPayload{
			{Description: "Advisory retainer", Quantity: 2, UnitPrice: "500.00"},
		},
	})
	if err != nil {
		t.Fatalf("expected invoice creation to succeed, got %v", err)
	}
	if !repo.createCalled {
		t.Fatal("expected repository create to be called")
	}

	params := repo.createParams
	if len(params.Items) != 1 || params.Items[0].UnitPrice != 50000 {
		t.Fatalf("expected unit price 50000 halalas, got %+v", params.Items)
	}
	gotDue := params.DueDate.Sub(params.IssueDate)
	wantDue := time.Duration(defaultInvoiceDueDays) * 24 * time.Hour
	if gotDue != wantDue {
		t.Fatalf("expected due date %v after issue, got %v", wantDue, gotDue)
	}
	if producer.routingKey != "invoice.generated" {
		t.Fatalf("expected routing key invoice.generated, got %s", producer.routingKey)
	}
}

func TestGetInvoiceRestrictsToParties(t *testing.T) {
	repo := newInvoiceStub()
	admin := uuid.New()
	svc := NewService(repo, nil, []uuid.UUID{admin}, nil, RateLimitConfig{})

	if _, err := svc.GetInvoice(context.Background(), repo.invoice.ID, uuid.New()); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}
	if _, err := svc.GetInvoice(context.Background(), repo.invoice.ID, repo.invoice.ClientID); err != nil {
		t.Fatalf("expected client to read invoice, got %v", err)
	}
	if _, err := svc.GetInvoice(context.Background(), repo.invoice.ID, admin); err != nil {
		t.Fatalf("expected admin to read invoice, got %v", err)
	}
}
