package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notasimples/nfse-assistente/internal/domain/billing"
)

// BillingRepository implementa a interface billing.Repository
type BillingRepository struct {
	db *pgxpool.Pool
}

// NewBillingRepository cria uma nova instância de BillingRepository
func NewBillingRepository(db *pgxpool.Pool) billing.Repository {
	return &BillingRepository{
		db: db,
	}
}

// Create implementa o método Create da interface billing.Repository
func (r *BillingRepository) Create(ctx context.Context, u *billing.UsageCharge) error {
	query := `
		INSERT INTO usage_charges (
			id, account_id, invoice_id, amount_cents,
			description, charge_ref, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(ctx, query,
		u.ID, u.AccountID, u.InvoiceID, u.AmountCents,
		u.Description, u.ChargeRef, u.Status, u.CreatedAt)

	if err != nil {
		return fmt.Errorf("erro ao registrar cobrança: %w", err)
	}

	return nil
}

// LinkInvoice implementa o método LinkInvoice da interface billing.Repository
func (r *BillingRepository) LinkInvoice(ctx context.Context, chargeID, invoiceID string) error {
	result, err := r.db.Exec(ctx,
		"UPDATE usage_charges SET invoice_id = $1 WHERE id = $2", invoiceID, chargeID)
	if err != nil {
		return fmt.Errorf("erro ao associar cobrança à nota: %w", err)
	}

	if result.RowsAffected() == 0 {
		return billing.ErrNotFound
	}

	return nil
}

// List implementa o método List da interface billing.Repository
func (r *BillingRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*billing.UsageCharge, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, account_id, invoice_id, amount_cents,
			description, charge_ref, status, created_at
		FROM usage_charges
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar cobranças: %w", err)
	}
	defer rows.Close()

	charges := []*billing.UsageCharge{}
	for rows.Next() {
		var u billing.UsageCharge
		err := rows.Scan(
			&u.ID, &u.AccountID, &u.InvoiceID, &u.AmountCents,
			&u.Description, &u.ChargeRef, &u.Status, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler cobrança: %w", err)
		}
		charges = append(charges, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar cobranças: %w", err)
	}

	return charges, nil
}

// SumInMonth implementa o método SumInMonth da interface billing.Repository
func (r *BillingRepository) SumInMonth(ctx context.Context, accountID string, ref time.Time) (int64, error) {
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)
		FROM usage_charges
		WHERE account_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4`,
		accountID, billing.ChargePaid, monthStart, monthEnd).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("erro ao somar cobranças do mês: %w", err)
	}

	return total, nil
}
