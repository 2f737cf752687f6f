package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notasimples/nfse-assistente/internal/domain/company"
)

// ErrDuplicateCompany indica que a conta já tem empresa com o mesmo CNPJ
var ErrDuplicateCompany = errors.New("já existe uma empresa com este CNPJ na conta")

// CompanyRepository implementa a interface company.Repository
type CompanyRepository struct {
	db *pgxpool.Pool
}

// NewCompanyRepository cria uma nova instância de CompanyRepository
func NewCompanyRepository(db *pgxpool.Pool) company.Repository {
	return &CompanyRepository{db: db}
}

// Create implementa company.Repository.Create
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO companies (
			id, account_id, name, trade_name, document, email,
			municipal_registration, city_code, city_name, state, regime,
			iss_rate, service_code, service_description, rps_series,
			rps_number, provider_ref, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20
		)`,
		c.ID, c.AccountID, c.Name, c.TradeName, c.Document, c.Email,
		c.MunicipalRegistration, c.CityCode, c.CityName, c.State, c.Regime,
		c.ISSRate, c.ServiceCode, c.ServiceDescription, c.RPSSeries,
		c.RPSNumber, c.ProviderRef, c.Status, c.CreatedAt, c.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateCompany
		}
		return fmt.Errorf("erro ao criar empresa: %w", err)
	}

	return nil
}

// FindByID implementa company.Repository.FindByID
func (r *CompanyRepository) FindByID(ctx context.Context, accountID, id string) (*company.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, trade_name, document, email,
			municipal_registration, city_code, city_name, state, regime,
			iss_rate, service_code, service_description, rps_series,
			rps_number, provider_ref, status, created_at, updated_at
		FROM companies WHERE account_id = $1 AND id = $2`,
		accountID, id)

	return scanCompany(row)
}

// FindByDocument implementa company.Repository.FindByDocument
func (r *CompanyRepository) FindByDocument(ctx context.Context, accountID, document string) (*company.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, trade_name, document, email,
			municipal_registration, city_code, city_name, state, regime,
			iss_rate, service_code, service_description, rps_series,
			rps_number, provider_ref, status, created_at, updated_at
		FROM companies WHERE account_id = $1 AND document = $2`,
		accountID, document)

	return scanCompany(row)
}

// FindDefault implementa company.Repository.FindDefault
func (r *CompanyRepository) FindDefault(ctx context.Context, accountID string) (*company.Company, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, trade_name, document, email,
			municipal_registration, city_code, city_name, state, regime,
			iss_rate, service_code, service_description, rps_series,
			rps_number, provider_ref, status, created_at, updated_at
		FROM companies
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1`,
		accountID, company.StatusActive)

	return scanCompany(row)
}

// List implementa company.Repository.List
func (r *CompanyRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*company.Company, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, name, trade_name, document, email,
			municipal_registration, city_code, city_name, state, regime,
			iss_rate, service_code, service_description, rps_series,
			rps_number, provider_ref, status, created_at, updated_at
		FROM companies
		WHERE account_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar empresas: %w", err)
	}
	defer rows.Close()

	companies := make([]*company.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler resultados: %w", err)
	}

	return companies, nil
}

// Update implementa company.Repository.Update
func (r *CompanyRepository) Update(ctx context.Context, c *company.Company) error {
	result, err := r.db.Exec(ctx,
		`UPDATE companies SET
			name = $1, trade_name = $2, email = $3,
			municipal_registration = $4, city_code = $5, city_name = $6,
			state = $7, regime = $8, iss_rate = $9, service_code = $10,
			service_description = $11, rps_series = $12, rps_number = $13,
			provider_ref = $14, status = $15, updated_at = $16
		WHERE id = $17 AND account_id = $18`,
		c.Name, c.TradeName, c.Email, c.MunicipalRegistration, c.CityCode,
		c.CityName, c.State, c.Regime, c.ISSRate, c.ServiceCode,
		c.ServiceDescription, c.RPSSeries, c.RPSNumber, c.ProviderRef,
		c.Status, c.UpdatedAt, c.ID, c.AccountID)

	if err != nil {
		return fmt.Errorf("erro ao atualizar empresa: %w", err)
	}

	if result.RowsAffected() == 0 {
		return company.ErrNotFound
	}

	return nil
}

// Delete implementa company.Repository.Delete
func (r *CompanyRepository) Delete(ctx context.Context, accountID, id string) error {
	result, err := r.db.Exec(ctx,
		"DELETE FROM companies WHERE account_id = $1 AND id = $2",
		accountID, id)
	if err != nil {
		return fmt.Errorf("erro ao excluir empresa: %w", err)
	}

	if result.RowsAffected() == 0 {
		return company.ErrNotFound
	}

	return nil
}

// Count implementa company.Repository.Count
func (r *CompanyRepository) Count(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM companies WHERE account_id = $1",
		accountID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("erro ao contar empresas: %w", err)
	}

	return count, nil
}

func scanCompany(row pgx.Row) (*company.Company, error) {
	var c company.Company

	err := row.Scan(
		&c.ID, &c.AccountID, &c.Name, &c.TradeName, &c.Document, &c.Email,
		&c.MunicipalRegistration, &c.CityCode, &c.CityName, &c.State,
		&c.Regime, &c.ISSRate, &c.ServiceCode, &c.ServiceDescription,
		&c.RPSSeries, &c.RPSNumber, &c.ProviderRef, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar empresa: %w", err)
	}

	return &c, nil
}
