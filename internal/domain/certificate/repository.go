package certificate

import (
	"context"
)

// Repository define a interface para operações de repositório de certificados digitais
type Repository interface {
	// Create cria um novo certificado digital
	Create(ctx context.Context, cert *Certificate) error

	// FindByID busca um certificado pelo ID, restrito à conta dona
	FindByID(ctx context.Context, accountID, id string) (*Certificate, error)

	// FindActiveCertificate busca o certificado ativo de uma empresa.
	// Devolve nil sem erro quando a empresa não tem certificado ativo
	FindActiveCertificate(ctx context.Context, companyID string) (*Certificate, error)

	// List lista os certificados de uma conta com paginação
	List(ctx context.Context, accountID string, limit, offset int) ([]*Certificate, error)

	// Update atualiza os dados de um certificado existente
	Update(ctx context.Context, cert *Certificate) error

	// Delete remove um certificado
	Delete(ctx context.Context, accountID, id string) error

	// Activate ativa um certificado e desativa os demais da mesma empresa
	Activate(ctx context.Context, accountID, id string) error

	// FindExpiring retorna certificados ativos que vencem dentro de X dias
	FindExpiring(ctx context.Context, daysToExpire int) ([]*Certificate, error)
}
