package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
)

// ErrDuplicateEmail indica que já existe conta com o e-mail informado
var ErrDuplicateEmail = errors.New("já existe uma conta com este e-mail")

// AccountRepository implementa a interface account.Repository
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository cria uma nova instância de AccountRepository
func NewAccountRepository(db *pgxpool.Pool) account.Repository {
	return &AccountRepository{db: db}
}

// Create implementa account.Repository.Create
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (
			id, name, email, phone, password, plan, status,
			payment_customer_ref, last_login_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Name, a.Email, a.Phone, a.Password, a.Plan, a.Status,
		a.PaymentCustomerRef, a.LastLoginAt, a.CreatedAt, a.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("erro ao criar conta: %w", err)
	}

	return nil
}

// FindByID implementa account.Repository.FindByID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*account.Account, error) {
	var a account.Account

	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone, password, plan, status,
			payment_customer_ref, last_login_at, created_at, updated_at
		FROM accounts WHERE id = $1`,
		id).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Password, &a.Plan, &a.Status,
		&a.PaymentCustomerRef, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar conta: %w", err)
	}

	return &a, nil
}

// FindByEmail implementa account.Repository.FindByEmail
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	var a account.Account

	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone, password, plan, status,
			payment_customer_ref, last_login_at, created_at, updated_at
		FROM accounts WHERE email = $1`,
		email).Scan(
		&a.ID, &a.Name, &a.Email, &a.Phone, &a.Password, &a.Plan, &a.Status,
		&a.PaymentCustomerRef, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar conta por e-mail: %w", err)
	}

	return &a, nil
}

// Update implementa account.Repository.Update
func (r *AccountRepository) Update(ctx context.Context, a *account.Account) error {
	result, err := r.db.Exec(ctx,
		`UPDATE accounts SET
			name = $1, phone = $2, password = $3, plan = $4, status = $5,
			payment_customer_ref = $6, updated_at = $7
		WHERE id = $8`,
		a.Name, a.Phone, a.Password, a.Plan, a.Status,
		a.PaymentCustomerRef, a.UpdatedAt, a.ID)

	if err != nil {
		return fmt.Errorf("erro ao atualizar conta: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

// UpdateStatus implementa account.Repository.UpdateStatus
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status account.Status) error {
	result, err := r.db.Exec(ctx,
		"UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now(), id)

	if err != nil {
		return fmt.Errorf("erro ao atualizar status da conta: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

// Exists implementa account.Repository.Exists
func (r *AccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND status = $2)",
		id, account.StatusActive).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("erro ao verificar existência da conta: %w", err)
	}

	return exists, nil
}

// RegisterLogin implementa account.Repository.RegisterLogin
func (r *AccountRepository) RegisterLogin(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE accounts SET last_login_at = $1 WHERE id = $2",
		time.Now(), id)

	if err != nil {
		return fmt.Errorf("erro ao registrar acesso: %w", err)
	}

	return nil
}
