package emission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/billing"
	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/internal/domain/payment"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const (
	// meiISSRate é a alíquota fixa de ISS do MEI prevista na LC 123/2006
	meiISSRate = 5.0

	// meiAnnualCeilingCents é o teto anual de faturamento do MEI,
	// R$ 81.000,00 em centavos
	meiAnnualCeilingCents int64 = 8_100_000

	chargeDescription = "Emissão avulsa de NFS-e"

	cancelReason = "cancelamento a pedido do emissor"
)

// QuotaChecker valida a franquia do plano antes da emissão
type QuotaChecker interface {
	CheckInvoiceQuota(ctx context.Context, accountID string) (plan.Limits, error)
}

// Deps agrupa os colaboradores do orquestrador de emissão
type Deps struct {
	Accounts     account.Repository
	Companies    company.Repository
	Clients      client.Repository
	Certificates certificate.Repository
	Invoices     invoice.Repository
	Charges      billing.Repository
	Limits       QuotaChecker
	Gateway      provider.Gateway
	Payments     payment.Processor
	Notifier     notification.Notifier
	Logger       logger.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Accounts == nil:
		return errors.New("repositório de contas é obrigatório")
	case d.Companies == nil:
		return errors.New("repositório de empresas é obrigatório")
	case d.Clients == nil:
		return errors.New("repositório de tomadores é obrigatório")
	case d.Certificates == nil:
		return errors.New("repositório de certificados é obrigatório")
	case d.Invoices == nil:
		return errors.New("repositório de notas é obrigatório")
	case d.Charges == nil:
		return errors.New("repositório de cobranças é obrigatório")
	case d.Limits == nil:
		return errors.New("serviço de limites de plano é obrigatório")
	case d.Gateway == nil:
		return errors.New("provedor fiscal é obrigatório")
	case d.Payments == nil:
		return errors.New("gateway de pagamento é obrigatório")
	case d.Notifier == nil:
		return errors.New("notificador é obrigatório")
	case d.Logger == nil:
		return errors.New("logger é obrigatório")
	}
	return nil
}

// Service orquestra a emissão de NFS-e. Toda emissão, conversacional ou
// via REST, passa pela mesma sequência de validações antes de chegar ao
// provedor fiscal
type Service struct {
	deps Deps
	now  func() time.Time
}

// Option configura o serviço de emissão
type Option func(*Service)

// WithClock troca a fonte de tempo, usada nos testes e no cálculo do ano
// de apuração do teto do MEI
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService cria o orquestrador de emissão
func NewService(deps Deps, opts ...Option) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("emissão: %w", err)
	}

	s := &Service{deps: deps, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue emite uma nota fiscal percorrendo as validações em ordem fixa:
// franquia do plano, cobrança avulsa, registro da empresa no provedor,
// cobertura do município, certificado digital, tomador, regras do regime
// tributário e por fim o envio ao provedor. Uma nota recusada de forma
// síncrona pelo provedor é devolvida sem erro; o chamador decide como
// apresentar a recusa
func (s *Service) Issue(ctx context.Context, req assistant.IssuanceRequest) (*invoice.Invoice, error) {
	if req.AccountID == "" || req.CompanyID == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "conta e empresa são obrigatórias")
	}

	if req.AmountCents <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "o valor da nota deve ser maior que zero")
	}

	if req.ClientID == "" {
		return nil, apperr.New(apperr.CodeClientUnresolved, "não consegui identificar o tomador da nota")
	}

	limits, err := s.deps.Limits.CheckInvoiceQuota(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	var charge *billing.UsageCharge
	if limits.PerUse {
		charge, err = s.chargeForEmission(ctx, req.AccountID, limits)
		if err != nil {
			return nil, err
		}
	}

	comp, err := s.deps.Companies.FindByID(ctx, req.AccountID, req.CompanyID)
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "empresa não encontrada")
		}
		return nil, fmt.Errorf("erro ao buscar empresa: %w", err)
	}

	if !comp.IsActive() {
		return nil, apperr.New(apperr.CodeInvalidInput, "a empresa está inativa e não pode emitir notas")
	}

	if !comp.IsRegisteredWithProvider() {
		return nil, apperr.New(apperr.CodeCompanyNotRegistered,
			"a empresa ainda não foi registrada no provedor fiscal; conclua o cadastro antes de emitir")
	}

	if err := s.checkMunicipality(ctx, comp); err != nil {
		return nil, err
	}

	if err := s.checkCertificate(ctx, comp); err != nil {
		return nil, err
	}

	cli, err := s.deps.Clients.FindByID(ctx, req.AccountID, req.ClientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, apperr.New(apperr.CodeClientUnresolved, "tomador não encontrado no cadastro")
		}
		return nil, fmt.Errorf("erro ao buscar tomador: %w", err)
	}

	issRate := req.ISSRate
	if issRate == 0 {
		issRate = comp.ISSRate
	}

	if comp.IsMEI() {
		issRate = meiISSRate
		if err := s.checkAnnualCeiling(ctx, comp, req.AmountCents); err != nil {
			return nil, err
		}
	}

	serviceCode := req.ServiceCode
	serviceText := req.ServiceText
	if serviceCode == "" {
		serviceCode = comp.ServiceCode
		if serviceText == "" {
			serviceText = comp.ServiceDescription
		}
	}

	inv, err := invoice.NewInvoice(req.AccountID, req.CompanyID, cli.ID, cli.Name,
		req.AmountCents, serviceCode, serviceText, issRate)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, "não foi possível montar a nota", err)
	}

	if err := s.deps.Invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("erro ao gravar a nota: %w", err)
	}
	s.appendStatus(ctx, inv.ID, invoice.StatusDraft, "nota criada")

	rpsNumber := comp.NextRPS()
	if err := s.deps.Companies.Update(ctx, comp); err != nil {
		s.deps.Logger.Warn("erro ao avançar numeração de RPS", "error", err, "company_id", comp.ID)
	}

	result, err := s.deps.Gateway.EmitInvoice(ctx, provider.EmissionRequest{
		CompanyRef:         comp.ProviderRef,
		ClientName:         cli.Name,
		ClientDocument:     cli.Document,
		ClientEmail:        cli.Email,
		AmountCents:        inv.AmountCents,
		ServiceCode:        inv.ServiceCode,
		ServiceDescription: inv.ServiceDescription,
		ISSRate:            inv.ISSRate,
		RPSSeries:          comp.RPSSeries,
		RPSNumber:          rpsNumber,
	})
	if err != nil {
		s.appendStatus(ctx, inv.ID, inv.Status, "falha na emissão: "+err.Error())
		return nil, translateProviderError(err)
	}

	if err := applyEmissionResult(inv, result); err != nil {
		s.deps.Logger.Error("resposta do provedor gerou transição inválida",
			"error", err, "invoice_id", inv.ID, "provider_status", result.Status)
	}

	if err := s.deps.Invoices.Update(ctx, inv); err != nil {
		s.deps.Logger.Error("erro ao atualizar a nota após emissão", "error", err, "invoice_id", inv.ID)
	}

	s.bookkeep(ctx, inv, charge)

	s.deps.Logger.Info("nota enviada ao provedor fiscal",
		"invoice_id", inv.ID, "company_id", comp.ID, "status", inv.Status, "amount_cents", inv.AmountCents)
	return inv, nil
}

// Cancel cancela uma nota autorizada junto ao provedor. Referência vazia
// cancela a última nota autorizada da empresa
func (s *Service) Cancel(ctx context.Context, accountID, companyID, ref string) (*invoice.Invoice, error) {
	inv, err := s.findByRef(ctx, accountID, companyID, ref, invoice.StatusAuthorized)
	if err != nil {
		return nil, err
	}

	if inv.Status != invoice.StatusAuthorized {
		return nil, apperr.New(apperr.CodeInvalidInput, "apenas notas autorizadas podem ser canceladas")
	}

	if err := s.deps.Gateway.CancelInvoice(ctx, inv.ProviderRef, cancelReason); err != nil {
		s.appendStatus(ctx, inv.ID, inv.Status, "falha no cancelamento: "+err.Error())
		return nil, translateProviderError(err)
	}

	if err := inv.MarkCanceled(); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, "a nota não pode ser cancelada", err)
	}

	if err := s.deps.Invoices.Update(ctx, inv); err != nil {
		s.deps.Logger.Error("erro ao atualizar a nota após cancelamento", "error", err, "invoice_id", inv.ID)
	}

	s.appendStatus(ctx, inv.ID, invoice.StatusCanceled, "cancelada a pedido do emissor")
	s.notify(ctx, inv.AccountID, notification.KindInvoiceCanceled, inv)

	s.deps.Logger.Info("nota cancelada", "invoice_id", inv.ID, "number", inv.Number)
	return inv, nil
}

// Status consulta a situação de uma nota. Quando a nota ainda está em
// processamento, o provedor é consultado e o estado local é atualizado.
// Referência vazia consulta a última nota da empresa
func (s *Service) Status(ctx context.Context, accountID, companyID, ref string) (*invoice.Invoice, error) {
	inv, err := s.findByRef(ctx, accountID, companyID, ref, "")
	if err != nil {
		return nil, err
	}

	if inv.Status != invoice.StatusProcessing || inv.ProviderRef == "" {
		return inv, nil
	}

	current, err := s.deps.Gateway.QueryInvoice(ctx, inv.ProviderRef)
	if err != nil {
		s.deps.Logger.Warn("erro ao consultar nota no provedor", "error", err, "invoice_id", inv.ID)
		return inv, nil
	}

	if s.applyStatusUpdate(ctx, inv, current) {
		if err := s.deps.Invoices.Update(ctx, inv); err != nil {
			s.deps.Logger.Error("erro ao atualizar status da nota", "error", err, "invoice_id", inv.ID)
		}
	}

	return inv, nil
}

// Recent lista as notas mais recentes da empresa; datas zeradas listam sem
// filtro de período
func (s *Service) Recent(ctx context.Context, accountID, companyID string, from, to time.Time, limit int) ([]*invoice.Invoice, error) {
	if !from.IsZero() || !to.IsZero() {
		return s.deps.Invoices.ListByPeriod(ctx, accountID, companyID, from, to)
	}
	return s.deps.Invoices.List(ctx, accountID, companyID, limit, 0)
}

// chargeForEmission cobra a emissão avulsa antes de qualquer chamada ao
// provedor. O registro da cobrança é gravado com o resultado do gateway,
// pago ou recusado, para deixar trilha auditável mesmo quando a emissão
// não acontece
func (s *Service) chargeForEmission(ctx context.Context, accountID string, limits plan.Limits) (*billing.UsageCharge, error) {
	acc, err := s.deps.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar conta: %w", err)
	}

	if acc.PaymentCustomerRef == "" {
		return nil, apperr.New(apperr.CodeNoPaymentMethod,
			"seu plano cobra por nota emitida e a conta ainda não tem forma de pagamento cadastrada")
	}

	charge, err := billing.NewUsageCharge(accountID, limits.PerUsePriceCents, chargeDescription)
	if err != nil {
		return nil, fmt.Errorf("erro ao montar cobrança avulsa: %w", err)
	}

	ref, chargeErr := s.deps.Payments.ChargeOnce(ctx, acc.PaymentCustomerRef, charge.AmountCents, charge.Description)
	if chargeErr == nil {
		charge.MarkPaid(ref)
	}

	if err := s.deps.Charges.Create(ctx, charge); err != nil {
		s.deps.Logger.Error("erro ao registrar cobrança avulsa",
			"error", err, "account_id", accountID, "charge_status", charge.Status)
	}

	if chargeErr != nil {
		s.deps.Logger.Warn("cobrança avulsa recusada", "error", chargeErr, "account_id", accountID)
		if errors.Is(chargeErr, payment.ErrNoPaymentMethod) {
			return nil, apperr.Wrap(apperr.CodeNoPaymentMethod,
				"a forma de pagamento da conta não é mais válida", chargeErr)
		}
		return nil, apperr.Wrap(apperr.CodeChargeDeclined,
			"a cobrança da emissão avulsa foi recusada", chargeErr).AsRetryable()
	}

	return charge, nil
}

// checkMunicipality confirma a cobertura do município junto ao provedor.
// A falta de cobertura só bloqueia a emissão quando o provedor a declara
// explicitamente e o código IBGE está malformado; nos demais casos fica
// registrado um aviso e o provedor dá a palavra final
func (s *Service) checkMunicipality(ctx context.Context, comp *company.Company) error {
	supported, err := s.deps.Gateway.MunicipalitySupported(ctx, comp.CityCode)
	switch {
	case err != nil:
		s.deps.Logger.Warn("não foi possível verificar a cobertura do município",
			"error", err, "city_code", comp.CityCode)
	case !supported && malformedCityCode(comp.CityCode):
		return apperr.Newf(apperr.CodeMunicipalityUnsupported,
			"o código de município %q não é válido e o provedor fiscal não o reconhece", comp.CityCode)
	case !supported:
		s.deps.Logger.Warn("município sem cobertura confirmada pelo provedor",
			"city_code", comp.CityCode, "company_id", comp.ID)
	}
	return nil
}

func (s *Service) checkCertificate(ctx context.Context, comp *company.Company) error {
	cert, err := s.deps.Certificates.FindActiveCertificate(ctx, comp.ID)
	if err != nil {
		return fmt.Errorf("erro ao buscar certificado da empresa: %w", err)
	}

	if cert == nil {
		return apperr.New(apperr.CodeCertificateMissing,
			"a empresa não tem certificado digital ativo; envie um certificado A1 para emitir notas")
	}

	if cert.IsExpired() {
		return apperr.Newf(apperr.CodeCertificateExpired,
			"o certificado digital da empresa venceu em %s", cert.ExpirationDate.Format("02/01/2006"))
	}

	return nil
}

// checkAnnualCeiling barra a emissão que ultrapassaria o teto anual de
// faturamento do MEI. O ano de apuração é o ano civil corrente
func (s *Service) checkAnnualCeiling(ctx context.Context, comp *company.Company, amountCents int64) error {
	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	yearEnd := yearStart.AddDate(1, 0, 0)

	authorized, err := s.deps.Invoices.SumAuthorizedByPeriod(ctx, comp.ID, yearStart, yearEnd)
	if err != nil {
		return fmt.Errorf("erro ao apurar faturamento anual: %w", err)
	}

	if authorized+amountCents > meiAnnualCeilingCents {
		s.deps.Logger.Warn("emissão bloqueada pelo teto anual do MEI",
			"company_id", comp.ID, "authorized_cents", authorized, "amount_cents", amountCents)
		return apperr.Newf(apperr.CodeRevenueCeilingExceeded,
			"emitir %s ultrapassaria o teto anual de %s do MEI; a empresa já faturou %s neste ano",
			formatCents(amountCents), formatCents(meiAnnualCeilingCents), formatCents(authorized))
	}

	return nil
}

// bookkeep registra os efeitos pós-emissão. Tudo aqui é melhor esforço: a
// nota já foi emitida e nenhuma falha de escrituração a desfaz
func (s *Service) bookkeep(ctx context.Context, inv *invoice.Invoice, charge *billing.UsageCharge) {
	switch inv.Status {
	case invoice.StatusProcessing:
		s.appendStatus(ctx, inv.ID, inv.Status, "aceita pelo provedor, aguardando a prefeitura")
	case invoice.StatusAuthorized:
		s.appendStatus(ctx, inv.ID, inv.Status, "autorizada pela prefeitura")
		s.notify(ctx, inv.AccountID, notification.KindInvoiceAuthorized, inv)
	case invoice.StatusRejected:
		s.appendStatus(ctx, inv.ID, inv.Status, inv.RejectionReason)
		s.notify(ctx, inv.AccountID, notification.KindInvoiceRejected, inv)
	}

	if charge != nil {
		if err := s.deps.Charges.LinkInvoice(ctx, charge.ID, inv.ID); err != nil {
			s.deps.Logger.Error("erro ao vincular cobrança à nota",
				"error", err, "charge_id", charge.ID, "invoice_id", inv.ID)
		}
	}
}

// applyStatusUpdate aplica ao registro local o estado reportado pelo
// provedor e devolve true quando houve mudança
func (s *Service) applyStatusUpdate(ctx context.Context, inv *invoice.Invoice, current *provider.InvoiceStatus) bool {
	switch current.Status {
	case provider.StatusAuthorized:
		if err := inv.MarkAuthorized(current.Number, current.VerificationURL, current.PDFURL); err != nil {
			return false
		}
		s.appendStatus(ctx, inv.ID, inv.Status, "autorizada pela prefeitura")
		s.notify(ctx, inv.AccountID, notification.KindInvoiceAuthorized, inv)
		return true
	case provider.StatusRejected:
		if err := inv.MarkRejected(current.RejectionReason); err != nil {
			return false
		}
		s.appendStatus(ctx, inv.ID, inv.Status, current.RejectionReason)
		s.notify(ctx, inv.AccountID, notification.KindInvoiceRejected, inv)
		return true
	case provider.StatusCanceled:
		if err := inv.MarkCanceled(); err != nil {
			return false
		}
		s.appendStatus(ctx, inv.ID, inv.Status, "cancelada no provedor")
		return true
	}
	return false
}

// findByRef localiza uma nota pela referência dada na conversa ou na API:
// número atribuído pela prefeitura, ID interno, ou vazio para a nota mais
// recente da empresa no status pedido
func (s *Service) findByRef(ctx context.Context, accountID, companyID, ref string, status invoice.Status) (*invoice.Invoice, error) {
	if ref == "" {
		inv, err := s.deps.Invoices.FindLatest(ctx, accountID, companyID, status)
		if err != nil {
			if errors.Is(err, invoice.ErrNotFound) {
				return nil, apperr.New(apperr.CodeNotFound, "nenhuma nota encontrada para a empresa")
			}
			return nil, fmt.Errorf("erro ao buscar a nota mais recente: %w", err)
		}
		return inv, nil
	}

	inv, err := s.deps.Invoices.FindByNumber(ctx, accountID, companyID, ref)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, invoice.ErrNotFound) {
		return nil, fmt.Errorf("erro ao buscar nota pelo número: %w", err)
	}

	inv, err = s.deps.Invoices.FindByID(ctx, accountID, ref)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return nil, apperr.Newf(apperr.CodeNotFound, "não encontrei a nota %s", ref)
		}
		return nil, fmt.Errorf("erro ao buscar nota: %w", err)
	}
	return inv, nil
}

func (s *Service) appendStatus(ctx context.Context, invoiceID string, status invoice.Status, detail string) {
	change := invoice.NewStatusChange(invoiceID, status, detail)
	if err := s.deps.Invoices.AppendStatusChange(ctx, change); err != nil {
		s.deps.Logger.Warn("erro ao registrar histórico de status",
			"error", err, "invoice_id", invoiceID, "status", status)
	}
}

func (s *Service) notify(ctx context.Context, accountID string, kind notification.Kind, inv *invoice.Invoice) {
	payload := map[string]string{
		"invoice_id": inv.ID,
		"number":     inv.Number,
		"client":     inv.ClientName,
		"amount":     formatCents(inv.AmountCents),
	}
	if inv.RejectionReason != "" {
		payload["reason"] = inv.RejectionReason
	}

	if err := s.deps.Notifier.Notify(ctx, accountID, kind, payload); err != nil {
		s.deps.Logger.Warn("erro ao enviar notificação", "error", err, "kind", kind, "invoice_id", inv.ID)
	}
}

func applyEmissionResult(inv *invoice.Invoice, res *provider.EmissionResult) error {
	if err := inv.MarkProcessing(res.ProviderRef); err != nil {
		return err
	}

	switch res.Status {
	case provider.StatusAuthorized:
		return inv.MarkAuthorized(res.Number, res.VerificationURL, res.PDFURL)
	case provider.StatusRejected:
		return inv.MarkRejected(res.RejectionReason)
	}
	return nil
}

func translateProviderError(err error) error {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return apperr.Wrap(apperr.CodeProviderUnavailable,
			"o provedor fiscal está indisponível no momento; tente de novo em alguns minutos", err).AsRetryable()
	case errors.Is(err, provider.ErrUnauthorized):
		return apperr.Wrap(apperr.CodeProviderUnauthorized,
			"as credenciais junto ao provedor fiscal foram recusadas", err)
	case errors.Is(err, provider.ErrMalformedResponse):
		return apperr.Wrap(apperr.CodeProviderMalformed,
			"o provedor fiscal devolveu uma resposta inesperada", err)
	case errors.Is(err, provider.ErrNotFound):
		return apperr.Wrap(apperr.CodeNotFound, "a nota não existe no provedor fiscal", err)
	case errors.Is(err, provider.ErrRefused):
		return apperr.Wrap(apperr.CodeInvoiceRejected, "o provedor fiscal recusou a operação", err)
	}
	return apperr.Wrap(apperr.CodeProviderUnavailable, "falha na comunicação com o provedor fiscal", err).AsRetryable()
}

// malformedCityCode detecta códigos fora do padrão IBGE de sete dígitos
func malformedCityCode(code string) bool {
	if len(code) != 7 {
		return true
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

func formatCents(cents int64) string {
	return nlu.MonetaryAmount{Cents: cents}.Format()
}
