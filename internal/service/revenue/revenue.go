package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

var (
	ErrNilInvoices = errors.New("faturamento: repositório de notas é obrigatório")
	ErrNilLogger   = errors.New("faturamento: logger é obrigatório")
)

// Service consolida o faturamento de uma empresa a partir das notas
// autorizadas. Notas recusadas, canceladas ou ainda em processamento não
// entram na soma
type Service struct {
	invoices invoice.Repository
	logger   logger.Logger
}

// NewService cria o serviço de consultas de faturamento
func NewService(invoices invoice.Repository, log logger.Logger) (*Service, error) {
	if invoices == nil {
		return nil, ErrNilInvoices
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &Service{invoices: invoices, logger: log}, nil
}

// Summary apura o faturamento do período. Datas zeradas apuram o mês
// corrente
func (s *Service) Summary(ctx context.Context, accountID, companyID string, from, to time.Time) (*assistant.RevenueSummary, error) {
	if companyID == "" {
		return nil, errors.New("faturamento: empresa é obrigatória")
	}

	if from.IsZero() || to.IsZero() {
		from, to = currentMonth(time.Now())
	}

	total, err := s.invoices.SumAuthorizedByPeriod(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao apurar faturamento: %w", err)
	}

	issued, err := s.invoices.ListByPeriod(ctx, accountID, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar notas do período: %w", err)
	}

	count := 0
	for _, inv := range issued {
		if inv.Status == invoice.StatusAuthorized {
			count++
		}
	}

	return &assistant.RevenueSummary{
		TotalCents:   total,
		InvoiceCount: count,
		From:         from,
		To:           to,
	}, nil
}

func currentMonth(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}
