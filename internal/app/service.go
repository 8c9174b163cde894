/**
 * @description
 * This file contains the core business logic for the payment-service. The
 * `Service` struct orchestrates all money movement operations, coordinating
 * between the database repository, the message broker and the rate limiter.
 *
 * Key features:
 * - Validates boundary input (decimal amount strings, line items) before any
 *   amount enters the core as int64 halalas.
 * - Guards read paths with project-participant checks; mutation paths are
 *   authorized inside the repository's own transaction.
 * - Publishes events to RabbitMQ for asynchronous processing by other
 *   services. Publishing is best-effort: a failed publish is logged and never
 *   rolls back a committed mutation.
 *
 * @dependencies
 * - context, errors, log: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/money, pkg/rabbitmq: Amount parsing and event publishing.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/internal/store"
	"github.com/consultlink/payment-service/pkg/money"
	"github.com/consultlink/payment-service/pkg/rabbitmq"
)

var (
	// ErrInvalidAmount rejects amounts that are not positive decimals with at
	// most two fraction digits.
	ErrInvalidAmount = errors.New("amount must be a positive decimal with at most two fraction digits")

	// ErrValidation rejects otherwise malformed input (empty items, bad
	// quantities, missing reason).
	ErrValidation = errors.New("invalid request")

	// ErrRateLimited signals the caller exceeded the mutation rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// RateLimiter is the distributed limiter consulted before wallet mutations.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// RateLimitConfig bounds how often one user may mutate their wallet.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// Service provides the core business logic for the payment ledger.
type Service struct {
	repo        store.Repository
	events      rabbitmq.Publisher
	admins      map[uuid.UUID]struct{}
	limiter     RateLimiter
	walletLimit RateLimitConfig
}

// NewService creates a new payment service instance. adminIDs are the user
// ids permitted to review and process refunds; limiter may be nil to disable
// rate limiting.
func NewService(repo store.Repository, producer rabbitmq.Publisher, adminIDs []uuid.UUID, limiter RateLimiter, walletLimit RateLimitConfig) *Service {
	admins := make(map[uuid.UUID]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Service{
		repo:        repo,
		events:      producer,
		admins:      admins,
		limiter:     limiter,
		walletLimit: walletLimit,
	}
}

// IsAdmin reports whether the user is a configured platform admin.
func (s *Service) IsAdmin(userID uuid.UUID) bool {
	_, ok := s.admins[userID]
	return ok
}

// parseAmount converts a boundary decimal string into positive halalas.
func parseAmount(raw string) (int64, error) {
	halalas, err := money.Parse(raw)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if halalas <= 0 {
		return 0, ErrInvalidAmount
	}
	return halalas, nil
}

// guardProjectRead asserts the caller may read project-scoped data: any
// project participant, or an admin. Mutations do NOT use this; they are
// authorized inside the repository transaction against the same snapshot
// that moves the money.
func (s *Service) guardProjectRead(ctx context.Context, projectID, userID uuid.UUID) error {
	if s.IsAdmin(userID) {
		return nil
	}
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.Satisfies(userID, domain.RoleParticipant) {
		return store.ErrUnauthorized
	}
	return nil
}

// consumeWalletLimit enforces the per-user wallet mutation budget.
func (s *Service) consumeWalletLimit(ctx context.Context, userID uuid.UUID) error {
	if s.limiter == nil || s.walletLimit.Limit <= 0 {
		return nil
	}
	count, retryAfter, err := s.limiter.ConsumeRateLimit(ctx, "wallet_mutation", userID.String(), s.walletLimit.Limit, s.walletLimit.Window)
	if err != nil {
		// A broken limiter must not block money movement.
		log.Printf("level=warn component=payment_service msg=\"rate limiter unavailable\" user_id=%s err=%v", userID, err)
		return nil
	}
	if count > s.walletLimit.Limit {
		log.Printf("level=info component=payment_service msg=\"wallet mutation rate limited\" user_id=%s count=%d retry_after=%d", userID, count, retryAfter)
		return ErrRateLimited
	}
	return nil
}

// publish sends an event without letting broker trouble surface to callers.
func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, rabbitmq.PaymentEventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=payment_service msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
