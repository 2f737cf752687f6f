package repository

import (
	"context"
	"errors"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
)

// ClientDirectory adapta client.Repository ao contrato do resolvedor do
// assistente, que espera nil sem erro em buscas sem resultado
type ClientDirectory struct {
	repository client.Repository
}

// NewClientDirectory cria uma nova instância de ClientDirectory
func NewClientDirectory(repository client.Repository) assistant.ClientDirectory {
	return &ClientDirectory{repository: repository}
}

// FindByDocument busca o tomador pelo documento dentro da conta
func (d *ClientDirectory) FindByDocument(ctx context.Context, accountID, document string) (*client.Client, error) {
	c, err := d.repository.FindByDocument(ctx, accountID, document)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// SearchByName busca tomadores por fragmento de nome
func (d *ClientDirectory) SearchByName(ctx context.Context, accountID, name string, limit int) ([]*client.Client, error) {
	return d.repository.SearchByName(ctx, accountID, name, limit)
}

// Create cadastra o tomador; o repositório garante a idempotência por
// (conta, documento)
func (d *ClientDirectory) Create(ctx context.Context, c *client.Client) (*client.Client, error) {
	return d.repository.Create(ctx, c)
}

// List lista os tomadores da conta
func (d *ClientDirectory) List(ctx context.Context, accountID string, limit int) ([]*client.Client, error) {
	return d.repository.List(ctx, accountID, limit, 0)
}
