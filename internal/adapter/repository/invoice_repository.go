package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
)

// InvoiceRepository implementa a interface invoice.Repository
type InvoiceRepository struct {
	db *pgxpool.Pool
}

// NewInvoiceRepository cria uma nova instância de InvoiceRepository
func NewInvoiceRepository(db *pgxpool.Pool) invoice.Repository {
	return &InvoiceRepository{
		db: db,
	}
}

// Create implementa o método Create da interface invoice.Repository
func (r *InvoiceRepository) Create(ctx context.Context, i *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.Exec(ctx, query,
		i.ID, i.AccountID, i.CompanyID, i.ClientID, i.ClientName,
		i.Number, i.ProviderRef, i.AmountCents, i.ServiceCode, i.ServiceDescription,
		i.ISSRate, i.Status, i.RejectionReason, i.VerificationURL, i.PDFURL,
		i.IssuedAt, i.AuthorizedAt, i.CanceledAt, i.CreatedAt, i.UpdatedAt)

	if err != nil {
		return fmt.Errorf("erro ao criar nota: %w", err)
	}

	return nil
}

// FindByID implementa o método FindByID da interface invoice.Repository
func (r *InvoiceRepository) FindByID(ctx context.Context, accountID, id string) (*invoice.Invoice, error) {
	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND account_id = $2
	`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar nota: %w", err)
	}

	return inv, nil
}

// FindByNumber implementa o método FindByNumber da interface invoice.Repository
func (r *InvoiceRepository) FindByNumber(ctx context.Context, accountID, companyID, number string) (*invoice.Invoice, error) {
	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE number = $1 AND account_id = $2 AND company_id = $3
	`

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, number, accountID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar nota por número: %w", err)
	}

	return inv, nil
}

// FindLatest implementa o método FindLatest da interface invoice.Repository
func (r *InvoiceRepository) FindLatest(ctx context.Context, accountID, companyID string, status invoice.Status) (*invoice.Invoice, error) {
	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE account_id = $1 AND company_id = $2
	`

	args := []interface{}{accountID, companyID}
	if status != "" {
		query += " AND status = $3"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar nota mais recente: %w", err)
	}

	return inv, nil
}

// List implementa o método List da interface invoice.Repository
func (r *InvoiceRepository) List(ctx context.Context, accountID, companyID string, limit, offset int) ([]*invoice.Invoice, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE account_id = $1 AND company_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, accountID, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar notas: %w", err)
	}
	defer rows.Close()

	return scanInvoiceRows(rows)
}

// ListByPeriod implementa o método ListByPeriod da interface invoice.Repository
func (r *InvoiceRepository) ListByPeriod(ctx context.Context, accountID, companyID string, from, to time.Time) ([]*invoice.Invoice, error) {
	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE account_id = $1 AND company_id = $2 AND issued_at >= $3 AND issued_at < $4
		ORDER BY issued_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar notas do período: %w", err)
	}
	defer rows.Close()

	return scanInvoiceRows(rows)
}

// ListProcessing implementa o método ListProcessing da interface invoice.Repository
func (r *InvoiceRepository) ListProcessing(ctx context.Context, limit int) ([]*invoice.Invoice, error) {
	if limit <= 0 {
		limit = 10
	}

	// As mais antigas primeiro, para nenhuma nota ficar sem consulta
	query := `
		SELECT id, account_id, company_id, client_id, client_name,
			number, provider_ref, amount_cents, service_code, service_description,
			iss_rate, status, rejection_reason, verification_url, pdf_url,
			issued_at, authorized_at, canceled_at, created_at, updated_at
		FROM invoices
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, invoice.StatusProcessing, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar notas pendentes: %w", err)
	}
	defer rows.Close()

	return scanInvoiceRows(rows)
}

// Update implementa o método Update da interface invoice.Repository
func (r *InvoiceRepository) Update(ctx context.Context, i *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			number = $1, provider_ref = $2, status = $3, rejection_reason = $4,
			verification_url = $5, pdf_url = $6, authorized_at = $7,
			canceled_at = $8, updated_at = $9
		WHERE id = $10 AND account_id = $11
	`

	result, err := r.db.Exec(ctx, query,
		i.Number, i.ProviderRef, i.Status, i.RejectionReason,
		i.VerificationURL, i.PDFURL, i.AuthorizedAt,
		i.CanceledAt, time.Now(),
		i.ID, i.AccountID)

	if err != nil {
		return fmt.Errorf("erro ao atualizar nota: %w", err)
	}

	if result.RowsAffected() == 0 {
		return invoice.ErrNotFound
	}

	return nil
}

// AppendStatusChange implementa o método AppendStatusChange da interface invoice.Repository
func (r *InvoiceRepository) AppendStatusChange(ctx context.Context, change *invoice.StatusChange) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO invoice_status_history (id, invoice_id, status, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		change.ID, change.InvoiceID, change.Status, change.Detail, change.CreatedAt)

	if err != nil {
		return fmt.Errorf("erro ao registrar mudança de status: %w", err)
	}

	return nil
}

// StatusHistory implementa o método StatusHistory da interface invoice.Repository
func (r *InvoiceRepository) StatusHistory(ctx context.Context, invoiceID string) ([]*invoice.StatusChange, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, invoice_id, status, detail, created_at
		FROM invoice_status_history
		WHERE invoice_id = $1
		ORDER BY created_at ASC`,
		invoiceID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar histórico de status: %w", err)
	}
	defer rows.Close()

	changes := []*invoice.StatusChange{}
	for rows.Next() {
		var change invoice.StatusChange
		err := rows.Scan(&change.ID, &change.InvoiceID, &change.Status, &change.Detail, &change.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler mudança de status: %w", err)
		}
		changes = append(changes, &change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar histórico de status: %w", err)
	}

	return changes, nil
}

// SumAuthorizedByPeriod implementa o método SumAuthorizedByPeriod da interface invoice.Repository
func (r *InvoiceRepository) SumAuthorizedByPeriod(ctx context.Context, companyID string, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0)
		FROM invoices
		WHERE company_id = $1 AND status = $2 AND issued_at >= $3 AND issued_at < $4`,
		companyID, invoice.StatusAuthorized, from, to).Scan(&total)

	if err != nil {
		return 0, fmt.Errorf("erro ao somar notas autorizadas: %w", err)
	}

	return total, nil
}

// CountIssuedInMonth implementa o método CountIssuedInMonth da interface invoice.Repository
func (r *InvoiceRepository) CountIssuedInMonth(ctx context.Context, accountID string, ref time.Time) (int, error) {
	monthStart := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*)
		FROM invoices
		WHERE account_id = $1 AND status NOT IN ($2, $3) AND issued_at >= $4 AND issued_at < $5`,
		accountID, invoice.StatusDraft, invoice.StatusRejected, monthStart, monthEnd).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("erro ao contar notas do mês: %w", err)
	}

	return count, nil
}

func scanInvoice(row pgx.Row) (*invoice.Invoice, error) {
	var i invoice.Invoice
	err := row.Scan(
		&i.ID, &i.AccountID, &i.CompanyID, &i.ClientID, &i.ClientName,
		&i.Number, &i.ProviderRef, &i.AmountCents, &i.ServiceCode, &i.ServiceDescription,
		&i.ISSRate, &i.Status, &i.RejectionReason, &i.VerificationURL, &i.PDFURL,
		&i.IssuedAt, &i.AuthorizedAt, &i.CanceledAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func scanInvoiceRows(rows pgx.Rows) ([]*invoice.Invoice, error) {
	invoices := []*invoice.Invoice{}
	for rows.Next() {
		var i invoice.Invoice
		err := rows.Scan(
			&i.ID, &i.AccountID, &i.CompanyID, &i.ClientID, &i.ClientName,
			&i.Number, &i.ProviderRef, &i.AmountCents, &i.ServiceCode, &i.ServiceDescription,
			&i.ISSRate, &i.Status, &i.RejectionReason, &i.VerificationURL, &i.PDFURL,
			&i.IssuedAt, &i.AuthorizedAt, &i.CanceledAt, &i.CreatedAt, &i.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler nota: %w", err)
		}
		invoices = append(invoices, &i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar notas: %w", err)
	}

	return invoices, nil
}
