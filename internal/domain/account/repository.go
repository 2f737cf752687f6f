package account

import (
	"context"
)

// Repository define a interface para operações de repositório de contas
type Repository interface {
	// Create cria uma nova conta
	Create(ctx context.Context, a *Account) error

	// FindByID busca uma conta pelo ID
	FindByID(ctx context.Context, id string) (*Account, error)

	// FindByEmail busca uma conta pelo email
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Update atualiza os dados de uma conta existente
	Update(ctx context.Context, a *Account) error

	// UpdateStatus atualiza o status de uma conta
	UpdateStatus(ctx context.Context, id string, status Status) error

	// Exists verifica se uma conta existe e está ativa
	Exists(ctx context.Context, id string) (bool, error)

	// RegisterLogin registra o último acesso da conta
	RegisterLogin(ctx context.Context, id string) error
}
