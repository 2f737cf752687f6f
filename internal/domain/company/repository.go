package company

import (
	"context"
)

// Repository define a interface para operações de repositório de empresas
type Repository interface {
	// Create cria uma nova empresa
	Create(ctx context.Context, c *Company) error

	// FindByID busca uma empresa pelo ID, restrita à conta dona
	FindByID(ctx context.Context, accountID, id string) (*Company, error)

	// FindByDocument busca uma empresa pelo CNPJ dentro da conta
	FindByDocument(ctx context.Context, accountID, document string) (*Company, error)

	// FindDefault busca a empresa padrão da conta (a mais antiga ativa)
	FindDefault(ctx context.Context, accountID string) (*Company, error)

	// List lista as empresas de uma conta com paginação
	List(ctx context.Context, accountID string, limit, offset int) ([]*Company, error)

	// Update atualiza os dados de uma empresa existente
	Update(ctx context.Context, c *Company) error

	// Delete remove uma empresa
	Delete(ctx context.Context, accountID, id string) error

	// Count conta quantas empresas a conta possui
	Count(ctx context.Context, accountID string) (int, error)
}
