/**
 * @description
 * This file sets up the HTTP router for the payment-service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, recovery, CORS and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// PaymentRoutes creates and returns a new router for the payment service.
func PaymentRoutes(h *PaymentHandlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		// Escrow endpoints, keyed by project.
		r.Route("/projects/{projectID}/escrow", func(r chi.Router) {
			r.Post("/deposit", h.DepositHandler)
			r.Post("/release", h.ReleaseHandler)
			r.Post("/partial-release", h.PartialReleaseHandler)
			r.Post("/hold", h.HoldHandler)
			r.Post("/release-hold", h.ReleaseHoldHandler)
			r.Post("/refund", h.RefundEscrowHandler)
			r.Get("/balance", h.GetEscrowBalanceHandler)
			r.Get("/transactions", h.ListEscrowTransactionsHandler)
			r.Get("/transactions/export", h.ExportEscrowTransactionsHandler)
		})
		r.Get("/projects/{projectID}/summary", h.GetProjectSummaryHandler)
		r.Get("/projects/{projectID}/milestones", h.ListMilestonesHandler)

		// Payment milestones
		r.Post("/milestones", h.LinkMilestoneHandler)
		r.Get("/milestones/{milestoneID}", h.GetMilestoneHandler)
		r.Post("/milestones/{milestoneID}/release", h.ReleaseMilestoneHandler)

		// Wallet endpoints
		r.Get("/wallet", h.GetWalletHandler)
		r.Get("/wallet/transactions", h.ListWalletTransactionsHandler)
		r.Get("/wallet/transactions/export", h.ExportWalletTransactionsHandler)
		r.Post("/wallet/add-funds", h.AddFundsHandler)
		r.Post("/wallet/withdraw", h.WithdrawHandler)
		r.Post("/wallet/pay-project", h.PayProjectHandler)

		// Invoices
		r.Post("/invoices", h.CreateInvoiceHandler)
		r.Get("/invoices", h.ListInvoicesHandler)
		r.Get("/invoices/next-number", h.PeekInvoiceNumberHandler)
		r.Get("/invoices/{invoiceID}", h.GetInvoiceHandler)
		r.Post("/invoices/{invoiceID}/pay", h.PayInvoiceHandler)
		r.Post("/invoices/{invoiceID}/send", h.SendInvoiceHandler)
		r.Post("/invoices/{invoiceID}/cancel", h.CancelInvoiceHandler)

		// Refund workflow
		r.Post("/refunds", h.CreateRefundRequestHandler)
		r.Get("/refunds", h.ListRefundRequestsHandler)
		r.Get("/refunds/{refundID}", h.GetRefundRequestHandler)
		r.Post("/refunds/{refundID}/approve", h.ApproveRefundRequestHandler)
		r.Post("/refunds/{refundID}/reject", h.RejectRefundRequestHandler)
		r.Post("/refunds/{refundID}/process", h.ProcessRefundHandler)

		// Tax
		r.Post("/tax/calculate", h.CalculateVATHandler)
		r.Put("/tax/profile", h.UpsertTaxProfileHandler)
		r.Get("/tax/profile", h.GetTaxProfileHandler)
		r.Delete("/tax/profile", h.DeleteTaxProfileHandler)
	})

	return r
}
