/**
 * @description
 * Invoice use cases. Line items are validated and converted to halalas here;
 * VAT math and number allocation live in the repository transaction so that
 * concurrent creations stay consistent. Creation publishes the
 * invoice.generated event after commit.
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

const defaultInvoiceDueDays = 30

// CreateInvoice raises a draft invoice with at least one line item.
// Consultant only.
func (s *Service) CreateInvoice(ctx context.Context, actorID uuid.UUID, payload domain.CreateInvoicePayload) (*domain.Invoice, error) {
	if len(payload.Items) == 0 {
		return nil, ErrValidation
	}
	items := make([]store.InvoiceItemParams, 0, len(payload.Items))
	for _, item := range payload.Items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 {
			return nil, ErrValidation
		}
		unitPrice, err := parseAmount(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, store.InvoiceItemParams{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
		})
	}

	dueInDays := payload.DueInDays
	if dueInDays <= 0 {
		dueInDays = defaultInvoiceDueDays
	}
	issueDate := time.Now().UTC()

	invoice, err := s.repo.CreateInvoice(ctx, store.CreateInvoiceParams{
		ProjectID: payload.ProjectID,
		ActorID:   actorID,
		Items:     items,
		IssueDate: issueDate,
		DueDate:   issueDate.AddDate(0, 0, dueInDays),
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "invoice.generated", rabbitmq.InvoiceGeneratedEvent{
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		ProjectID:     invoice.ProjectID,
		ClientID:      invoice.ClientID,
		TotalAmount:   invoice.TotalAmount,
		Timestamp:     time.Now().UTC(),
	})
	return invoice, nil
}

// GetInvoice returns one invoice with its items. Invoice parties and admins
// only.
func (s *Service) GetInvoice(ctx context.Context, invoiceID, userID uuid.UUID) (*domain.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if userID != invoice.ClientID && userID != invoice.ConsultantID && !s.IsAdmin(userID) {
		return nil, store.ErrUnauthorized
	}
	return invoice, nil
}

// ListInvoices returns the caller's invoices as client or consultant.
func (s *Service) ListInvoices(ctx context.Context, userID uuid.UUID, filter domain.InvoiceListFilter) ([]domain.Invoice, error) {
	return s.repo.ListInvoices(ctx, userID, filter)
}

// PayInvoice settles an invoice from the client's wallet.
func (s *Service) PayInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, *domain.WalletTransaction, error) {
	if err := s.consumeWalletLimit(ctx, actorID); err != nil {
		return nil, nil, err
	}
	return s.repo.PayInvoice(ctx, invoiceID, actorID)
}

// SendInvoice marks a draft invoice sent. Consultant only.
func (s *Service) SendInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error) {
	return s.repo.MarkInvoiceSent(ctx, invoiceID, actorID)
}

// CancelInvoice voids an unpaid invoice. Consultant only.
func (s *Service) CancelInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error) {
	return s.repo.CancelInvoice(ctx, invoiceID, actorID)
}

// PeekInvoiceNumber previews the next invoice number for the current year
// without consuming it.
func (s *Service) PeekInvoiceNumber(ctx context.Context) (string, error) {
	return s.repo.PeekInvoiceNumber(ctx, time.Now().UTC().Year())
}
