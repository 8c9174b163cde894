/**
 * @description
 * Tax use cases: the stateless VAT calculator and per-user tax profile
 * management. Profiles only decorate invoices; they never change the fixed
 * 15% rate applied by the ledger.
 */

package app

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

// CalculateVAT breaks a net amount into net, VAT and gross at the fixed 15%
// rate, rounding half-up to the halala. Pure; touches no state.
func (s *Service) CalculateVAT(rawAmount string) (*domain.VATBreakdown, error) {
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	vat, total := money.VAT(amount)
	return &domain.VATBreakdown{Amount: amount, VATAmount: vat, Total: total}, nil
}

// UpsertTaxProfile writes the caller's VAT registration details.
func (s *Service) UpsertTaxProfile(ctx context.Context, userID uuid.UUID, payload domain.UpsertTaxProfilePayload) (*domain.TaxProfile, error) {
	if strings.TrimSpace(payload.VATNumber) == "" || strings.TrimSpace(payload.BusinessName) == "" {
		return nil, ErrValidation
	}
	return s.repo.UpsertTaxProfile(ctx, &domain.TaxProfile{
		UserID:       userID,
		VATNumber:    payload.VATNumber,
		BusinessName: payload.BusinessName,
		Address:      payload.Address,
		City:         payload.City,
		Country:      payload.Country,
	})
}

// GetTaxProfile returns the caller's tax profile.
func (s *Service) GetTaxProfile(ctx context.Context, userID uuid.UUID) (*domain.TaxProfile, error) {
	return s.repo.GetTaxProfile(ctx, userID)
}

// DeleteTaxProfile removes the caller's tax profile.
func (s *Service) DeleteTaxProfile(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteTaxProfile(ctx, userID)
}
