package invoice

import (
	"context"
	"time"
)

// Repository define a interface para operações de repositório de notas
type Repository interface {
	// Create persiste uma nova nota
	Create(ctx context.Context, i *Invoice) error

	// FindByID busca uma nota pelo ID, restrita à conta dona
	FindByID(ctx context.Context, accountID, id string) (*Invoice, error)

	// FindByNumber busca uma nota pelo número atribuído pela prefeitura
	FindByNumber(ctx context.Context, accountID, companyID, number string) (*Invoice, error)

	// FindLatest busca a nota mais recente da empresa, opcionalmente
	// restrita a um status
	FindLatest(ctx context.Context, accountID, companyID string, status Status) (*Invoice, error)

	// List lista as notas de uma empresa, da mais recente para a mais antiga
	List(ctx context.Context, accountID, companyID string, limit, offset int) ([]*Invoice, error)

	// ListByPeriod lista as notas emitidas dentro do período
	ListByPeriod(ctx context.Context, accountID, companyID string, from, to time.Time) ([]*Invoice, error)

	// ListProcessing lista notas aguardando resposta da prefeitura,
	// usado pelo verificador de pendências
	ListProcessing(ctx context.Context, limit int) ([]*Invoice, error)

	// Update atualiza o estado de uma nota existente
	Update(ctx context.Context, i *Invoice) error

	// AppendStatusChange registra uma mudança de status para auditoria
	AppendStatusChange(ctx context.Context, change *StatusChange) error

	// StatusHistory devolve o histórico de status de uma nota
	StatusHistory(ctx context.Context, invoiceID string) ([]*StatusChange, error)

	// SumAuthorizedByPeriod soma em centavos as notas autorizadas da
	// empresa no período, base das consultas de faturamento e do teto anual
	SumAuthorizedByPeriod(ctx context.Context, companyID string, from, to time.Time) (int64, error)

	// CountIssuedInMonth conta as notas da conta no mês de referência,
	// desconsiderando rascunhos e recusadas, base da franquia do plano
	CountIssuedInMonth(ctx context.Context, accountID string, ref time.Time) (int, error)
}
