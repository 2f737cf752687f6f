package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
)

// CertificateRepository implementa a interface certificate.Repository
type CertificateRepository struct {
	db *pgxpool.Pool
}

// NewCertificateRepository cria uma nova instância de CertificateRepository
func NewCertificateRepository(db *pgxpool.Pool) certificate.Repository {
	return &CertificateRepository{
		db: db,
	}
}

// Create implementa o método Create da interface certificate.Repository
func (r *CertificateRepository) Create(ctx context.Context, cert *certificate.Certificate) error {
	// Um certificado ativo por empresa: desativa os demais antes de inserir
	if cert.IsActive {
		_, err := r.db.Exec(ctx,
			"UPDATE certificates SET is_active = false WHERE company_id = $1 AND is_active = true",
			cert.CompanyID)
		if err != nil {
			return fmt.Errorf("erro ao desativar certificados existentes: %w", err)
		}
	}

	query := `
		INSERT INTO certificates (
			id, account_id, company_id, name, certificate_data,
			password, expiration_date, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		cert.ID, cert.AccountID, cert.CompanyID, cert.Name, cert.CertificateData,
		cert.Password, cert.ExpirationDate, cert.IsActive,
		cert.CreatedAt, cert.UpdatedAt)

	if err != nil {
		return fmt.Errorf("erro ao criar certificado: %w", err)
	}

	return nil
}

// FindByID implementa o método FindByID da interface certificate.Repository
func (r *CertificateRepository) FindByID(ctx context.Context, accountID, id string) (*certificate.Certificate, error) {
	query := `
		SELECT id, account_id, company_id, name, certificate_data,
			password, expiration_date, is_active, created_at, updated_at
		FROM certificates
		WHERE id = $1 AND account_id = $2
	`

	cert, err := scanCertificate(r.db.QueryRow(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certificate.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar certificado: %w", err)
	}

	return cert, nil
}

// FindActiveCertificate implementa o método FindActiveCertificate da interface certificate.Repository
func (r *CertificateRepository) FindActiveCertificate(ctx context.Context, companyID string) (*certificate.Certificate, error) {
	query := `
		SELECT id, account_id, company_id, name, certificate_data,
			password, expiration_date, is_active, created_at, updated_at
		FROM certificates
		WHERE company_id = $1 AND is_active = true
		ORDER BY expiration_date DESC
		LIMIT 1
	`

	cert, err := scanCertificate(r.db.QueryRow(ctx, query, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar certificado ativo: %w", err)
	}

	return cert, nil
}

// List implementa o método List da interface certificate.Repository
func (r *CertificateRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*certificate.Certificate, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, account_id, company_id, name, certificate_data,
			password, expiration_date, is_active, created_at, updated_at
		FROM certificates
		WHERE account_id = $1
		ORDER BY company_id, is_active DESC, expiration_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar certificados: %w", err)
	}
	defer rows.Close()

	return scanCertificateRows(rows)
}

// Update implementa o método Update da interface certificate.Repository
func (r *CertificateRepository) Update(ctx context.Context, cert *certificate.Certificate) error {
	if cert.IsActive {
		_, err := r.db.Exec(ctx,
			"UPDATE certificates SET is_active = false WHERE company_id = $1 AND id != $2 AND is_active = true",
			cert.CompanyID, cert.ID)
		if err != nil {
			return fmt.Errorf("erro ao desativar outros certificados: %w", err)
		}
	}

	query := `
		UPDATE certificates SET
			name = $1, certificate_data = $2, password = $3,
			expiration_date = $4, is_active = $5, updated_at = $6
		WHERE id = $7 AND account_id = $8
	`

	result, err := r.db.Exec(ctx, query,
		cert.Name, cert.CertificateData, cert.Password,
		cert.ExpirationDate, cert.IsActive, time.Now(),
		cert.ID, cert.AccountID)

	if err != nil {
		return fmt.Errorf("erro ao atualizar certificado: %w", err)
	}

	if result.RowsAffected() == 0 {
		return certificate.ErrNotFound
	}

	return nil
}

// Delete implementa o método Delete da interface certificate.Repository
func (r *CertificateRepository) Delete(ctx context.Context, accountID, id string) error {
	result, err := r.db.Exec(ctx,
		"DELETE FROM certificates WHERE id = $1 AND account_id = $2", id, accountID)
	if err != nil {
		return fmt.Errorf("erro ao excluir certificado: %w", err)
	}

	if result.RowsAffected() == 0 {
		return certificate.ErrNotFound
	}

	return nil
}

// Activate implementa o método Activate da interface certificate.Repository
func (r *CertificateRepository) Activate(ctx context.Context, accountID, id string) error {
	var companyID string
	err := r.db.QueryRow(ctx,
		"SELECT company_id FROM certificates WHERE id = $1 AND account_id = $2", id, accountID).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return certificate.ErrNotFound
		}
		return fmt.Errorf("erro ao buscar certificado: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"UPDATE certificates SET is_active = false WHERE company_id = $1", companyID)
	if err != nil {
		return fmt.Errorf("erro ao desativar certificados da empresa: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE certificates SET is_active = true, updated_at = $1 WHERE id = $2", time.Now(), id)
	if err != nil {
		return fmt.Errorf("erro ao ativar certificado: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("erro ao confirmar transação: %w", err)
	}

	return nil
}

// FindExpiring implementa o método FindExpiring da interface certificate.Repository
func (r *CertificateRepository) FindExpiring(ctx context.Context, daysToExpire int) ([]*certificate.Certificate, error) {
	expirationLimit := time.Now().AddDate(0, 0, daysToExpire)

	query := `
		SELECT id, account_id, company_id, name, certificate_data,
			password, expiration_date, is_active, created_at, updated_at
		FROM certificates
		WHERE is_active = true AND expiration_date <= $1
		ORDER BY expiration_date
	`

	rows, err := r.db.Query(ctx, query, expirationLimit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar certificados a vencer: %w", err)
	}
	defer rows.Close()

	return scanCertificateRows(rows)
}

func scanCertificate(row pgx.Row) (*certificate.Certificate, error) {
	var cert certificate.Certificate
	err := row.Scan(
		&cert.ID, &cert.AccountID, &cert.CompanyID, &cert.Name, &cert.CertificateData,
		&cert.Password, &cert.ExpirationDate, &cert.IsActive,
		&cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func scanCertificateRows(rows pgx.Rows) ([]*certificate.Certificate, error) {
	certificates := []*certificate.Certificate{}
	for rows.Next() {
		var cert certificate.Certificate
		err := rows.Scan(
			&cert.ID, &cert.AccountID, &cert.CompanyID, &cert.Name, &cert.CertificateData,
			&cert.Password, &cert.ExpirationDate, &cert.IsActive,
			&cert.CreatedAt, &cert.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler certificado: %w", err)
		}
		certificates = append(certificates, &cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar certificados: %w", err)
	}

	return certificates, nil
}
