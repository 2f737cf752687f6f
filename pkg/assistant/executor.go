package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

var statusLabels = map[invoice.Status]string{
	invoice.StatusDraft:      "em rascunho",
	invoice.StatusProcessing: "em processamento na prefeitura",
	invoice.StatusAuthorized: "autorizada",
	invoice.StatusRejected:   "recusada",
	invoice.StatusCanceled:   "cancelada",
}

// Executor traduz ações do assistente em chamadas aos serviços de emissão,
// faturamento e cadastro, e formata a resposta em linguagem natural
type Executor struct {
	invoices InvoiceService
	revenue  RevenueService
	clients  ClientDirectory
	logger   logger.Logger
}

// NewExecutor cria o executor de ações do assistente
func NewExecutor(invoices InvoiceService, revenue RevenueService, clients ClientDirectory, log logger.Logger) (*Executor, error) {
	if invoices == nil {
		return nil, fmt.Errorf("serviço de notas não pode ser nulo")
	}
	if revenue == nil {
		return nil, fmt.Errorf("serviço de faturamento não pode ser nulo")
	}
	if clients == nil {
		return nil, ErrNilDirectory
	}
	if log == nil {
		return nil, ErrNilLogger
	}
	return &Executor{invoices: invoices, revenue: revenue, clients: clients, logger: log}, nil
}

// Execute executa a ação e devolve a mensagem de resultado para o usuário
func (e *Executor) Execute(ctx context.Context, accountID, companyID string, action *Action) (*ExecutionResult, error) {
	if action == nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "ação não informada")
	}

	switch action.Type {
	case ActionEmitInvoice:
		return e.emitInvoice(ctx, accountID, companyID, action.Data)
	case ActionCancelInvoice:
		return e.cancelInvoice(ctx, accountID, companyID, action.Data)
	case ActionInvoiceStatus:
		return e.invoiceStatus(ctx, accountID, companyID, action.Data)
	case ActionListInvoices:
		return e.listInvoices(ctx, accountID, companyID, action.Data)
	case ActionRevenueQuery:
		return e.revenueQuery(ctx, accountID, companyID, action.Data)
	case ActionCreateClient:
		return e.createClient(ctx, accountID, action.Data)
	case ActionListClients:
		return e.listClients(ctx, accountID, action.Data)
	default:
		return nil, apperr.Newf(apperr.CodeInvalidInput, "ação não executável: %s", action.Type)
	}
}

func (e *Executor) emitInvoice(ctx context.Context, accountID, companyID string, data ActionData) (*ExecutionResult, error) {
	if data.Amount == nil || data.Client == nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "emissão sem valor ou cliente resolvido")
	}

	req := IssuanceRequest{
		AccountID:   accountID,
		CompanyID:   companyID,
		ClientID:    data.Client.ID,
		AmountCents: data.Amount.Cents,
	}
	if data.Service != nil {
		req.ServiceCode = data.Service.Code
		req.ServiceText = data.Service.Text
	}

	inv, err := e.invoices.Issue(ctx, req)
	if err != nil {
		return nil, err
	}

	e.logger.Info("nota emitida via assistente",
		"account_id", accountID,
		"invoice_id", inv.ID,
		"amount_cents", inv.AmountCents)

	return &ExecutionResult{Message: emissionMessage(inv), Invoice: inv}, nil
}

func (e *Executor) cancelInvoice(ctx context.Context, accountID, companyID string, data ActionData) (*ExecutionResult, error) {
	inv, err := e.invoices.Cancel(ctx, accountID, companyID, data.InvoiceRef)
	if err != nil {
		return nil, err
	}

	e.logger.Info("nota cancelada via assistente",
		"account_id", accountID,
		"invoice_id", inv.ID)

	msg := fmt.Sprintf("Nota fiscal nº %s cancelada. O valor de %s sai do seu faturamento do período.",
		invoiceLabel(inv), formatCents(inv.AmountCents))
	return &ExecutionResult{Message: msg, Invoice: inv}, nil
}

func (e *Executor) invoiceStatus(ctx context.Context, accountID, companyID string, data ActionData) (*ExecutionResult, error) {
	inv, err := e.invoices.Status(ctx, accountID, companyID, data.InvoiceRef)
	if err != nil {
		return nil, err
	}
	return &ExecutionResult{Message: statusMessage(inv), Invoice: inv}, nil
}

func (e *Executor) listInvoices(ctx context.Context, accountID, companyID string, data ActionData) (*ExecutionResult, error) {
	var from, to time.Time
	if data.Period != nil {
		from, to = data.Period.From, data.Period.To
	}

	limit := data.Limit
	if limit <= 0 {
		limit = defaultInvoiceLimit
	}

	invoices, err := e.invoices.Recent(ctx, accountID, companyID, from, to, limit)
	if err != nil {
		return nil, err
	}

	if len(invoices) == 0 {
		msg := "Você ainda não emitiu notas fiscais."
		if data.Period != nil {
			msg = fmt.Sprintf("Nenhuma nota emitida entre %s e %s.", formatDate(from), formatDate(to.AddDate(0, 0, -1)))
		}
		return &ExecutionResult{Message: msg}, nil
	}

	var sb strings.Builder
	if data.Period != nil {
		sb.WriteString(fmt.Sprintf("Notas de %s a %s:\n\n", formatDate(from), formatDate(to.AddDate(0, 0, -1))))
	} else {
		sb.WriteString("Suas notas mais recentes:\n\n")
	}
	for i, inv := range invoices {
		sb.WriteString(fmt.Sprintf("%d. Nº %s - %s - %s - %s\n",
			i+1, invoiceLabel(inv), formatCents(inv.AmountCents), inv.ClientName, statusLabels[inv.Status]))
	}
	return &ExecutionResult{Message: sb.String(), Invoices: invoices}, nil
}

func (e *Executor) revenueQuery(ctx context.Context, accountID, companyID string, data ActionData) (*ExecutionResult, error) {
	var from, to time.Time
	if data.Period != nil {
		from, to = data.Period.From, data.Period.To
	} else {
		from, to = currentMonth(time.Now())
	}

	summary, err := e.revenue.Summary(ctx, accountID, companyID, from, to)
	if err != nil {
		return nil, err
	}

	if summary.InvoiceCount == 0 {
		msg := fmt.Sprintf("Nenhuma nota autorizada entre %s e %s.", formatDate(from), formatDate(to.AddDate(0, 0, -1)))
		return &ExecutionResult{Message: msg, Revenue: summary}, nil
	}

	msg := fmt.Sprintf("Faturamento de %s a %s: %s em %d %s.",
		formatDate(from), formatDate(to.AddDate(0, 0, -1)),
		formatCents(summary.TotalCents), summary.InvoiceCount, plural(summary.InvoiceCount, "nota autorizada", "notas autorizadas"))
	return &ExecutionResult{Message: msg, Revenue: summary}, nil
}

func (e *Executor) createClient(ctx context.Context, accountID string, data ActionData) (*ExecutionResult, error) {
	if data.ClientName == "" || data.Document == nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "cadastro sem nome ou documento")
	}

	c, err := client.NewClient(accountID, data.ClientName, data.Document.Digits)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, "dados do cliente inválidos", err)
	}

	created, err := e.clients.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	e.logger.Info("cliente cadastrado via assistente",
		"account_id", accountID,
		"client_id", created.ID)

	msg := fmt.Sprintf("Cliente %s cadastrado (%s).", created.Name, clientDocumentLabel(created))
	return &ExecutionResult{Message: msg, Client: created}, nil
}

func (e *Executor) listClients(ctx context.Context, accountID string, data ActionData) (*ExecutionResult, error) {
	limit := data.Limit
	if limit <= 0 {
		limit = defaultClientLimit
	}

	clients, err := e.clients.List(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}

	if len(clients) == 0 {
		return &ExecutionResult{Message: "Você ainda não tem clientes cadastrados. Me diga o nome e o CPF ou CNPJ de um cliente que eu cadastro."}, nil
	}

	var sb strings.Builder
	sb.WriteString("Seus clientes cadastrados:\n\n")
	for i, c := range clients {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, c.Name, clientDocumentLabel(c)))
	}
	return &ExecutionResult{Message: sb.String(), Clients: clients}, nil
}

func emissionMessage(inv *invoice.Invoice) string {
	switch inv.Status {
	case invoice.StatusAuthorized:
		msg := fmt.Sprintf("Nota fiscal nº %s autorizada! %s para %s.",
			invoiceLabel(inv), formatCents(inv.AmountCents), inv.ClientName)
		if inv.VerificationURL != "" {
			msg += fmt.Sprintf("\nConsulta: %s", inv.VerificationURL)
		}
		return msg
	case invoice.StatusRejected:
		return fmt.Sprintf("A prefeitura recusou a nota de %s para %s: %s",
			formatCents(inv.AmountCents), inv.ClientName, inv.RejectionReason)
	default:
		return fmt.Sprintf("Nota de %s para %s enviada para a prefeitura. Te aviso assim que for autorizada.",
			formatCents(inv.AmountCents), inv.ClientName)
	}
}

func statusMessage(inv *invoice.Invoice) string {
	label := statusLabels[inv.Status]
	switch inv.Status {
	case invoice.StatusRejected:
		return fmt.Sprintf("A nota nº %s foi %s: %s", invoiceLabel(inv), label, inv.RejectionReason)
	case invoice.StatusAuthorized:
		msg := fmt.Sprintf("A nota nº %s está %s desde %s.", invoiceLabel(inv), label, formatDate(inv.AuthorizedAt))
		if inv.VerificationURL != "" {
			msg += fmt.Sprintf("\nConsulta: %s", inv.VerificationURL)
		}
		return msg
	default:
		return fmt.Sprintf("A nota nº %s está %s.", invoiceLabel(inv), label)
	}
}

// invoiceLabel prefere o número municipal; antes da autorização só existe o
// identificador interno
func invoiceLabel(inv *invoice.Invoice) string {
	if inv.Number != "" {
		return inv.Number
	}
	if len(inv.ID) >= 8 {
		return inv.ID[:8]
	}
	return inv.ID
}

func formatCents(cents int64) string {
	return nlu.MonetaryAmount{Cents: cents}.Format()
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

// currentMonth devolve o mês corrente como intervalo meio-aberto
func currentMonth(now time.Time) (time.Time, time.Time) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 1, 0)
}
