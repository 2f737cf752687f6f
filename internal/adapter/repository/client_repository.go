package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

// ClientRepository implementa a interface client.Repository
type ClientRepository struct {
	db *pgxpool.Pool
}

// NewClientRepository cria uma nova instância de ClientRepository
func NewClientRepository(db *pgxpool.Pool) client.Repository {
	return &ClientRepository{db: db}
}

// Create implementa client.Repository.Create. A unicidade é por
// (conta, documento): repetir o mesmo documento devolve o registro já
// existente em vez de erro, inclusive quando duas requisições disputam a
// inserção
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) (*client.Client, error) {
	existing, err := r.FindByDocument(ctx, c.AccountID, c.Document)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, client.ErrNotFound) {
		return nil, err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO clients (
			id, account_id, name, name_search, document, kind, email, phone,
			city_code, city_name, state, zip_code, street, number,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.AccountID, c.Name, nlu.Normalize(c.Name), c.Document, c.Kind, c.Email, c.Phone,
		c.CityCode, c.CityName, c.State, c.ZipCode, c.Street, c.Number,
		c.CreatedAt, c.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return r.FindByDocument(ctx, c.AccountID, c.Document)
		}
		return nil, fmt.Errorf("erro ao criar tomador: %w", err)
	}

	return c, nil
}

// FindByID implementa client.Repository.FindByID
func (r *ClientRepository) FindByID(ctx context.Context, accountID, id string) (*client.Client, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, document, kind, email, phone,
			city_code, city_name, state, zip_code, street, number,
			created_at, updated_at
		FROM clients WHERE account_id = $1 AND id = $2`,
		accountID, id)

	return scanClient(row)
}

// FindByDocument implementa client.Repository.FindByDocument
func (r *ClientRepository) FindByDocument(ctx context.Context, accountID, document string) (*client.Client, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, account_id, name, document, kind, email, phone,
			city_code, city_name, state, zip_code, street, number,
			created_at, updated_at
		FROM clients WHERE account_id = $1 AND document = $2`,
		accountID, document)

	return scanClient(row)
}

// SearchByName implementa client.Repository.SearchByName. A comparação
// ignora maiúsculas e acentos via a coluna normalizada name_search
func (r *ClientRepository) SearchByName(ctx context.Context, accountID, name string, limit int) ([]*client.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, name, document, kind, email, phone,
			city_code, city_name, state, zip_code, street, number,
			created_at, updated_at
		FROM clients
		WHERE account_id = $1 AND name_search LIKE $2
		ORDER BY name ASC
		LIMIT $3`,
		accountID, "%"+nlu.Normalize(name)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tomadores: %w", err)
	}
	defer rows.Close()

	return scanClientRows(rows)
}

// List implementa client.Repository.List
func (r *ClientRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*client.Client, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, name, document, kind, email, phone,
			city_code, city_name, state, zip_code, street, number,
			created_at, updated_at
		FROM clients
		WHERE account_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar tomadores: %w", err)
	}
	defer rows.Close()

	return scanClientRows(rows)
}

// Update implementa client.Repository.Update
func (r *ClientRepository) Update(ctx context.Context, c *client.Client) error {
	result, err := r.db.Exec(ctx,
		`UPDATE clients SET
			name = $1, name_search = $2, email = $3, phone = $4,
			city_code = $5, city_name = $6, state = $7, zip_code = $8,
			street = $9, number = $10, updated_at = $11
		WHERE id = $12 AND account_id = $13`,
		c.Name, nlu.Normalize(c.Name), c.Email, c.Phone, c.CityCode,
		c.CityName, c.State, c.ZipCode, c.Street, c.Number, c.UpdatedAt,
		c.ID, c.AccountID)

	if err != nil {
		return fmt.Errorf("erro ao atualizar tomador: %w", err)
	}

	if result.RowsAffected() == 0 {
		return client.ErrNotFound
	}

	return nil
}

// Delete implementa client.Repository.Delete
func (r *ClientRepository) Delete(ctx context.Context, accountID, id string) error {
	result, err := r.db.Exec(ctx,
		"DELETE FROM clients WHERE account_id = $1 AND id = $2",
		accountID, id)
	if err != nil {
		return fmt.Errorf("erro ao excluir tomador: %w", err)
	}

	if result.RowsAffected() == 0 {
		return client.ErrNotFound
	}

	return nil
}

// Count implementa client.Repository.Count
func (r *ClientRepository) Count(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM clients WHERE account_id = $1",
		accountID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("erro ao contar tomadores: %w", err)
	}

	return count, nil
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client

	err := row.Scan(
		&c.ID, &c.AccountID, &c.Name, &c.Document, &c.Kind, &c.Email,
		&c.Phone, &c.CityCode, &c.CityName, &c.State, &c.ZipCode,
		&c.Street, &c.Number, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrNotFound
		}
		return nil, fmt.Errorf("erro ao buscar tomador: %w", err)
	}

	return &c, nil
}

func scanClientRows(rows pgx.Rows) ([]*client.Client, error) {
	clients := make([]*client.Client, 0)

	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao ler resultados: %w", err)
	}

	return clients, nil
}
