package client

import (
	"context"
)

// Repository define a interface para operações de repositório de tomadores
type Repository interface {
	// Create cria um novo tomador. Criações repetidas com o mesmo
	// documento na mesma conta devolvem o registro já existente
	Create(ctx context.Context, c *Client) (*Client, error)

	// FindByID busca um tomador pelo ID, restrito à conta dona
	FindByID(ctx context.Context, accountID, id string) (*Client, error)

	// FindByDocument busca um tomador pelo documento dentro da conta
	FindByDocument(ctx context.Context, accountID, document string) (*Client, error)

	// SearchByName busca tomadores por fragmento de nome, sem distinguir
	// maiúsculas ou acentos
	SearchByName(ctx context.Context, accountID, name string, limit int) ([]*Client, error)

	// List lista os tomadores de uma conta com paginação
	List(ctx context.Context, accountID string, limit, offset int) ([]*Client, error)

	// Update atualiza os dados de um tomador existente
	Update(ctx context.Context, c *Client) error

	// Delete remove um tomador
	Delete(ctx context.Context, accountID, id string) error

	// Count conta quantos tomadores a conta possui
	Count(ctx context.Context, accountID string) (int, error)
}
