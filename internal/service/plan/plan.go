package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

var (
	ErrNilAccounts  = errors.New("repositório de contas não pode ser nulo")
	ErrNilCompanies = errors.New("repositório de empresas não pode ser nulo")
	ErrNilInvoices  = errors.New("repositório de notas não pode ser nulo")
	ErrNilLogger    = errors.New("logger não pode ser nulo")
)

// Limits descreve o que cada plano permite. MonthlyInvoices zero significa
// emissão ilimitada no mês
type Limits struct {
	Plan             account.Plan `json:"plan"`
	MonthlyInvoices  int          `json:"monthly_invoices"`
	MaxCompanies     int          `json:"max_companies"`
	PerUse           bool         `json:"per_use"`
	PerUsePriceCents int64        `json:"per_use_price_cents,omitempty"`
}

var catalog = map[account.Plan]Limits{
	account.PlanFree:   {Plan: account.PlanFree, MonthlyInvoices: 3, MaxCompanies: 1},
	account.PlanMEI:    {Plan: account.PlanMEI, MonthlyInvoices: 30, MaxCompanies: 1},
	account.PlanPro:    {Plan: account.PlanPro, MonthlyInvoices: 0, MaxCompanies: 10},
	account.PlanPerUse: {Plan: account.PlanPerUse, MonthlyInvoices: 0, MaxCompanies: 3, PerUse: true, PerUsePriceCents: 199},
}

// LimitsFor devolve os limites do plano; planos desconhecidos caem no
// gratuito para nunca liberar mais do que o mínimo
func LimitsFor(p account.Plan) Limits {
	if l, ok := catalog[p]; ok {
		return l
	}
	return catalog[account.PlanFree]
}

// Catalog devolve todos os planos disponíveis
func Catalog() []Limits {
	return []Limits{
		catalog[account.PlanFree],
		catalog[account.PlanMEI],
		catalog[account.PlanPro],
		catalog[account.PlanPerUse],
	}
}

// LimitService aplica as franquias do plano da conta antes de operações
// que consomem recursos
type LimitService struct {
	accounts  account.Repository
	companies company.Repository
	invoices  invoice.Repository
	logger    logger.Logger
}

// NewLimitService cria o serviço de limites de plano
func NewLimitService(accounts account.Repository, companies company.Repository, invoices invoice.Repository, log logger.Logger) (*LimitService, error) {
	if accounts == nil {
		return nil, ErrNilAccounts
	}
	if companies == nil {
		return nil, ErrNilCompanies
	}
	if invoices == nil {
		return nil, ErrNilInvoices
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &LimitService{accounts: accounts, companies: companies, invoices: invoices, logger: log}, nil
}

// CheckInvoiceQuota verifica se a conta ainda pode emitir no mês corrente
// e devolve os limites do plano para os portões seguintes. Planos avulsos
// passam direto; a cobrança acontece no portão de pagamento
func (s *LimitService) CheckInvoiceQuota(ctx context.Context, accountID string) (Limits, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return Limits{}, fmt.Errorf("erro ao buscar conta: %w", err)
	}

	if !acc.IsActive() {
		return Limits{}, apperr.New(apperr.CodeUnauthorized, "conta bloqueada ou inativa")
	}

	limits := LimitsFor(acc.Plan)
	if limits.PerUse || limits.MonthlyInvoices == 0 {
		return limits, nil
	}

	used, err := s.invoices.CountIssuedInMonth(ctx, accountID, time.Now())
	if err != nil {
		return Limits{}, fmt.Errorf("erro ao contar notas do mês: %w", err)
	}

	if used >= limits.MonthlyInvoices {
		s.logger.Info("franquia mensal de notas atingida",
			"account_id", accountID,
			"plan", string(acc.Plan),
			"used", used)
		return Limits{}, apperr.Newf(apperr.CodeQuotaExceeded,
			"franquia de %d notas do plano %s atingida neste mês", limits.MonthlyInvoices, acc.Plan)
	}

	return limits, nil
}

// CheckCompanyQuota verifica se a conta pode cadastrar mais uma empresa
func (s *LimitService) CheckCompanyQuota(ctx context.Context, accountID string) error {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("erro ao buscar conta: %w", err)
	}

	limits := LimitsFor(acc.Plan)

	count, err := s.companies.Count(ctx, accountID)
	if err != nil {
		return fmt.Errorf("erro ao contar empresas: %w", err)
	}

	if count >= limits.MaxCompanies {
		return apperr.Newf(apperr.CodeQuotaExceeded,
			"plano %s permite no máximo %d empresa(s)", acc.Plan, limits.MaxCompanies)
	}
	return nil
}
