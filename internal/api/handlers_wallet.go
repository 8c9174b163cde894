/**
 * @description
 * HTTP handlers for the wallet endpoints: funding, withdrawal, the
 * wallet-to-escrow composite and the read paths.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/consultlink/payment-service/internal/domain"
)

type walletMutationResponse struct {
	Wallet      walletView            `json:"wallet"`
	Transaction walletTransactionView `json:"transaction"`
}

// AddFundsHandler credits the caller's wallet.
func (h *PaymentHandlers) AddFundsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.WalletMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=wallet_add_funds outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wallet, tx, err := h.service.AddFunds(r.Context(), userID, req)
	if err != nil {
		h.respondServiceError(w, "wallet_add_funds", err)
		return
	}

	log.Printf("level=info component=api endpoint=wallet_add_funds outcome=ok user_id=%s amount=%s", userID, req.Amount)
	h.writeJSON(w, http.StatusOK, walletMutationResponse{Wallet: walletToView(wallet), Transaction: walletTransactionToView(tx)})
}

// WithdrawHandler debits the caller's wallet.
func (h *PaymentHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.WalletMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=wallet_withdraw outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wallet, tx, err := h.service.Withdraw(r.Context(), userID, req)
	if err != nil {
		h.respondServiceError(w, "wallet_withdraw", err)
		return
	}

	log.Printf("level=info component=api endpoint=wallet_withdraw outcome=ok user_id=%s amount=%s", userID, req.Amount)
	h.writeJSON(w, http.StatusOK, walletMutationResponse{Wallet: walletToView(wallet), Transaction: walletTransactionToView(tx)})
}

// PayProjectHandler funds a project's escrow from the caller's wallet.
func (h *PaymentHandlers) PayProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req domain.PayProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=wallet_pay_project outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wallet, escrow, err := h.service.PayProject(r.Context(), userID, req)
	if err != nil {
		h.respondServiceError(w, "wallet_pay_project", err)
		return
	}

	log.Printf("level=info component=api endpoint=wallet_pay_project outcome=ok user_id=%s project_id=%s amount=%s", userID, req.ProjectID, req.Amount)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet": walletToView(wallet),
		"escrow": escrowAccountToView(escrow),
	})
}

// GetWalletHandler returns the caller's wallet.
func (h *PaymentHandlers) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, "wallet_get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, walletToView(wallet))
}

// ListWalletTransactionsHandler returns the caller's wallet ledger.
func (h *PaymentHandlers) ListWalletTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUserID(w, r)
	if !ok {
		return
	}
	limit, offset, err := h.parsePagination(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid pagination parameters")
		return
	}

	txs, err := h.service.ListWalletTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondServiceError(w, "wallet_transactions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, walletTransactionsToView(txs))
}
