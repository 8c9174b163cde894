/**
 * @description
 * Invoice operations. Number allocation is serialized through a per-year
 * counter row updated with an atomic upsert, so concurrent creations in the
 * same year can never produce duplicate numbers. Paying an invoice is the
 * composite operation: it locks the invoice and the client's wallet and
 * commits the wallet deduction together with the status transition.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/consultlink/payment-service/internal/domain"
	"github.com/consultlink/payment-service/pkg/money"
)

// CreateInvoice raises a draft invoice against a project. Consultant only.
// Items are inserted with the invoice in one transaction; VAT is 15% of the
// subtotal, rounded half-up to the halala.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		project, err := requireProjectRole(ctx, tx, params.ProjectID, params.ActorID, domain.RoleConsultant)
		if err != nil {
			return err
		}

		var subtotal int64
		for _, item := range params.Items {
			subtotal += int64(item.Quantity) * item.UnitPrice
		}
		vatAmount, totalAmount := money.VAT(subtotal)

		number, err := allocateInvoiceNumber(ctx, tx, params.IssueDate.Year())
		if err != nil {
			return err
		}

		inv := &domain.Invoice{
			ID:            uuid.New(),
			InvoiceNumber: number,
			ProjectID:     project.ID,
			ClientID:      project.ClientID,
			ConsultantID:  project.ConsultantID,
			Subtotal:      subtotal,
			VATRate:       fmt.Sprintf("%d.00", money.VATRatePercent),
			VATAmount:     vatAmount,
			TotalAmount:   totalAmount,
			Status:        domain.InvoiceDraft,
			IssueDate:     params.IssueDate,
			DueDate:       params.DueDate,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (id, invoice_number, project_id, client_id, consultant_id, subtotal, vat_rate, vat_amount, total_amount, status, issue_date, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`, inv.ID, inv.InvoiceNumber, inv.ProjectID, inv.ClientID, inv.ConsultantID,
			inv.Subtotal, inv.VATRate, inv.VATAmount, inv.TotalAmount, inv.Status,
			inv.IssueDate, inv.DueDate).Scan(&inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return err
		}

		for i, item := range params.Items {
			line := domain.InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   inv.ID,
				Position:    i + 1,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Amount:      int64(item.Quantity) * item.UnitPrice,
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO invoice_items (id, invoice_id, position, description, quantity, unit_price, amount)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, line.ID, line.InvoiceID, line.Position, line.Description, line.Quantity, line.UnitPrice, line.Amount); err != nil {
				return err
			}
			inv.Items = append(inv.Items, line)
		}

		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// allocateInvoiceNumber increments the per-year counter row atomically. The
// upsert takes a row lock, which serializes concurrent allocations.
func allocateInvoiceNumber(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	var seq int
	err := tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_seq = invoice_counters.last_seq + 1
		RETURNING last_seq
	`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return domain.FormatInvoiceNumber(year, seq), nil
}

// PeekInvoiceNumber previews the next number for a year without consuming
// it. Only the allocation inside CreateInvoice is authoritative.
func (r *PostgresRepository) PeekInvoiceNumber(ctx context.Context, year int) (string, error) {
	var last int
	err := r.db.QueryRow(ctx, `SELECT last_seq FROM invoice_counters WHERE year = $1`, year).Scan(&last)
	if err != nil && err != pgx.ErrNoRows {
		return "", err
	}
	return domain.FormatInvoiceNumber(year, last+1), nil
}

// GetInvoice returns one invoice with its line items.
func (r *PostgresRepository) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, selectInvoiceQuery+` WHERE id = $1`, invoiceID))
	if err != nil {
		return nil, err
	}
	items, err := r.listInvoiceItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

const selectInvoiceQuery = `
	SELECT id, invoice_number, project_id, client_id, consultant_id, subtotal, vat_rate, vat_amount, total_amount, status, issue_date, due_date, created_at, updated_at
	FROM invoices
`

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.ProjectID, &inv.ClientID, &inv.ConsultantID,
		&inv.Subtotal, &inv.VATRate, &inv.VATAmount, &inv.TotalAmount, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PostgresRepository) listInvoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]domain.InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, position, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.InvoiceItem
	for rows.Next() {
		var it domain.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &it.Description, &it.Quantity, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListInvoices returns invoices where the user is either party, newest
// first, with optional project and status filters.
func (r *PostgresRepository) ListInvoices(ctx context.Context, userID uuid.UUID, filter domain.InvoiceListFilter) ([]domain.Invoice, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := selectInvoiceQuery + ` WHERE (client_id = $1 OR consultant_id = $1)`
	args := []any{userID}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		query += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func selectInvoiceForUpdate(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID) (*domain.Invoice, error) {
	return scanInvoice(tx.QueryRow(ctx, selectInvoiceQuery+` WHERE id = $1 FOR UPDATE`, invoiceID))
}

// PayInvoice settles an invoice from the client's wallet: one transaction
// locking the invoice and the wallet, debiting the wallet and marking the
// invoice paid. Legal from draft or sent.
func (r *PostgresRepository) PayInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, *domain.WalletTransaction, error) {
	var (
		invoice *domain.Invoice
		ledger  *domain.WalletTransaction
	)
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		inv, err := selectInvoiceForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if actorID != inv.ClientID {
			return ErrUnauthorized
		}
		if err := requireInvoiceStatus(inv, "pay", domain.InvoiceDraft, domain.InvoiceSent); err != nil {
			return err
		}

		w, err := lockWallet(ctx, tx, actorID, false)
		if err != nil {
			return err
		}
		projectID := inv.ProjectID
		wtx, err := debitWalletTx(ctx, tx, w, domain.WalletTxPayment, inv.TotalAmount, &projectID, "Payment for invoice "+inv.InvoiceNumber)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1
		`, inv.ID, domain.InvoicePaid); err != nil {
			return err
		}
		inv.Status = domain.InvoicePaid

		invoice, ledger = inv, wtx
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return invoice, ledger, nil
}

// CancelInvoice voids an unpaid invoice. Consultant only; terminal states
// reject with InvalidState.
func (r *PostgresRepository) CancelInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error) {
	return r.transitionInvoice(ctx, invoiceID, actorID, "cancel", domain.InvoiceCancelled, []domain.InvoiceStatus{domain.InvoiceDraft, domain.InvoiceSent})
}

// MarkInvoiceSent records that the invoice went out to the client.
// Consultant only; legal only from draft.
func (r *PostgresRepository) MarkInvoiceSent(ctx context.Context, invoiceID, actorID uuid.UUID) (*domain.Invoice, error) {
	return r.transitionInvoice(ctx, invoiceID, actorID, "send", domain.InvoiceSent, []domain.InvoiceStatus{domain.InvoiceDraft})
}

// requireInvoiceStatus rejects the attempted transition unless the invoice
// is in one of the given states. Paid and cancelled never appear in a legal
// set, which is what makes them terminal.
func requireInvoiceStatus(inv *domain.Invoice, attempt string, from ...domain.InvoiceStatus) error {
	for _, s := range from {
		if inv.Status == s {
			return nil
		}
	}
	return &InvalidStateError{Entity: "invoice", Current: string(inv.Status), Attempt: attempt}
}

func (r *PostgresRepository) transitionInvoice(ctx context.Context, invoiceID, actorID uuid.UUID, attempt string, to domain.InvoiceStatus, from []domain.InvoiceStatus) (*domain.Invoice, error) {
	var invoice *domain.Invoice
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		inv, err := selectInvoiceForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if actorID != inv.ConsultantID {
			return ErrUnauthorized
		}
		if err := requireInvoiceStatus(inv, attempt, from...); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, inv.ID, to); err != nil {
			return err
		}
		inv.Status = to
		invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}
