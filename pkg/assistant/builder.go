package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

const (
	defaultInvoiceLimit = 10
	defaultClientLimit  = 20
)

// invoiceRefRe captura sequências curtas de dígitos que funcionam como
// número de nota. Separadores de milhar e centavos ao redor invalidam o
// token para não confundir número de nota com valor
var invoiceRefRe = regexp.MustCompile(`(?:^|[^0-9.,])([0-9]{1,10})(?:[^0-9.,]|$)`)

// Builder monta a ação tipada e o texto de explicação a partir da intenção
// e das entidades extraídas. Não toca banco nem rede; a resolução de
// cliente chega pronta de fora
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build monta a ação correspondente à intenção reconhecida. Para ações de
// consulta a explicação volta vazia porque a resposta final vem da execução
func (b *Builder) Build(intent nlu.Intent, message string, set nlu.EntitySet, res *Resolution) (*Action, string) {
	switch intent {
	case nlu.IntentEmitInvoice:
		return b.BuildEmit(set, res)
	case nlu.IntentCreateClient:
		return b.BuildCreateClient(set, res)
	case nlu.IntentCancelInvoice:
		return b.BuildCancel(ExtractInvoiceRef(message))
	case nlu.IntentListInvoices:
		return b.BuildListInvoices(set)
	case nlu.IntentRevenue:
		return b.BuildRevenue(set)
	case nlu.IntentListClients:
		return b.BuildListClients()
	case nlu.IntentInvoiceStatus:
		return b.BuildStatus(ExtractInvoiceRef(message))
	default:
		return nil, b.CapabilityMenu()
	}
}

// BuildEmit monta a emissão de nota. Valor ou cliente ausentes viram pedidos
// de esclarecimento que carregam o que já foi capturado; com tudo em mãos a
// ação fica pendente de confirmação explícita
func (b *Builder) BuildEmit(set nlu.EntitySet, res *Resolution) (*Action, string) {
	if set.Amount == nil {
		data := ActionData{Document: set.Document, Service: set.Service}
		who := ""
		if res != nil && res.Client != nil {
			data.Client = res.Client
			who = " para " + res.Client.Name
		} else if set.Name != nil {
			data.ClientName = set.Name.Text
			who = " para " + set.Name.Text
		}
		return NewAction(ActionAwaitingValue, data),
			fmt.Sprintf("Qual o valor da nota%s? Pode me dizer algo como \"R$ 150,00\".", who)
	}

	if res == nil || res.Status == ResolutionNotFound {
		if set.Name != nil {
			data := ActionData{Amount: set.Amount, ClientName: set.Name.Text, Service: set.Service}
			return NewAction(ActionAwaitingDocument, data),
				fmt.Sprintf("Não encontrei nenhum cliente chamado \"%s\" no seu cadastro. Me informe o CPF ou CNPJ dele que eu cadastro na hora e já emito a nota de %s.",
					set.Name.Text, set.Amount.Format())
		}
		if set.Document != nil {
			data := ActionData{Amount: set.Amount, Document: set.Document, Service: set.Service}
			return NewAction(ActionAwaitingClient, data),
				fmt.Sprintf("Não encontrei cadastro para o documento %s. Qual o nome do cliente?", set.Document.Format())
		}
		data := ActionData{Amount: set.Amount, Service: set.Service}
		return NewAction(ActionAwaitingClient, data),
			fmt.Sprintf("Para quem devo emitir a nota de %s? Me diga o nome ou o CPF/CNPJ do cliente.", set.Amount.Format())
	}

	if res.Status == ResolutionAmbiguous {
		data := ActionData{Amount: set.Amount, Candidates: res.Candidates, Service: set.Service}
		if set.Name != nil {
			data.ClientName = set.Name.Text
		}
		return NewAction(ActionChooseClient, data), b.renderCandidates(res.Candidates)
	}

	service := set.Service
	if service == nil {
		service = &nlu.ServiceDescription{Code: nlu.DefaultServiceCode, Text: nlu.DefaultServiceText}
	}

	data := ActionData{
		Amount:        set.Amount,
		Client:        res.Client,
		Service:       service,
		ClientCreated: res.Status == ResolutionCreated,
	}
	return NewAction(ActionEmitInvoice, data), b.renderEmitConfirmation(data)
}

// BuildCreateClient monta o cadastro explícito de cliente. Diferente da
// emissão, aqui nada é criado antes do usuário confirmar
func (b *Builder) BuildCreateClient(set nlu.EntitySet, res *Resolution) (*Action, string) {
	if res != nil && res.Status == ResolutionFound {
		return nil, fmt.Sprintf("O cliente %s já está cadastrado (%s).", res.Client.Name, clientDocumentLabel(res.Client))
	}

	if set.Document == nil {
		data := ActionData{}
		if set.Name != nil {
			data.ClientName = set.Name.Text
			return NewAction(ActionAwaitingDocument, data),
				fmt.Sprintf("Para cadastrar %s preciso do CPF ou CNPJ. Qual é o documento?", set.Name.Text)
		}
		return NewAction(ActionAwaitingClient, data),
			"Me diga o nome e o CPF ou CNPJ do cliente que devo cadastrar."
	}

	if set.Name == nil {
		data := ActionData{Document: set.Document}
		return NewAction(ActionAwaitingClient, data),
			fmt.Sprintf("Qual o nome do cliente com documento %s?", set.Document.Format())
	}

	data := ActionData{ClientName: set.Name.Text, Document: set.Document}
	var sb strings.Builder
	sb.WriteString("Vou cadastrar este cliente:\n")
	sb.WriteString(fmt.Sprintf("- Nome: %s\n", set.Name.Text))
	sb.WriteString(fmt.Sprintf("- %s: %s\n", set.Document.Kind, set.Document.Format()))
	sb.WriteString("\nPosso confirmar o cadastro? Responda 'sim' ou 'não'.")
	return NewAction(ActionCreateClient, data), sb.String()
}

// BuildCancel monta o cancelamento. Sem número informado o alvo passa a
// ser a última nota autorizada da empresa
func (b *Builder) BuildCancel(ref string) (*Action, string) {
	data := ActionData{InvoiceRef: ref}
	action := NewAction(ActionCancelInvoice, data)

	if ref != "" {
		return action, fmt.Sprintf("Vou cancelar a nota fiscal nº %s. O cancelamento é definitivo e não pode ser desfeito. Confirma? Responda 'sim' ou 'não'.", ref)
	}
	return action, "Vou cancelar a última nota fiscal autorizada da empresa. O cancelamento é definitivo e não pode ser desfeito. Confirma? Responda 'sim' ou 'não'."
}

// BuildListInvoices monta a consulta de notas, restringindo ao período
// quando a mensagem citar um
func (b *Builder) BuildListInvoices(set nlu.EntitySet) (*Action, string) {
	data := ActionData{Limit: defaultInvoiceLimit, Period: set.Period}
	return NewAction(ActionListInvoices, data), ""
}

// BuildRevenue monta a consulta de faturamento. Sem período explícito a
// janela é o mês corrente, resolvido na execução
func (b *Builder) BuildRevenue(set nlu.EntitySet) (*Action, string) {
	data := ActionData{Period: set.Period}
	return NewAction(ActionRevenueQuery, data), ""
}

// BuildListClients monta a listagem de clientes cadastrados
func (b *Builder) BuildListClients() (*Action, string) {
	data := ActionData{Limit: defaultClientLimit}
	return NewAction(ActionListClients, data), ""
}

// BuildStatus monta a consulta de situação de uma nota específica ou da
// emissão mais recente
func (b *Builder) BuildStatus(ref string) (*Action, string) {
	data := ActionData{InvoiceRef: ref}
	return NewAction(ActionInvoiceStatus, data), ""
}

// CapabilityMenu é a resposta fixa para mensagens fora do domínio fiscal
func (b *Builder) CapabilityMenu() string {
	var sb strings.Builder
	sb.WriteString("Sou seu assistente de notas fiscais de serviço. Posso ajudar com:\n\n")
	sb.WriteString("- Emitir nota: \"emitir nota de R$ 500 para João Silva\"\n")
	sb.WriteString("- Cancelar nota: \"cancelar a nota 123\"\n")
	sb.WriteString("- Consultar notas: \"minhas notas deste mês\"\n")
	sb.WriteString("- Consultar faturamento: \"quanto faturei em janeiro?\"\n")
	sb.WriteString("- Cadastrar cliente: \"cadastrar cliente Maria Souza, CPF 653.252.739-49\"\n")
	sb.WriteString("- Listar clientes: \"quais clientes tenho cadastrados?\"\n\n")
	sb.WriteString("Como posso ajudar?")
	return sb.String()
}

func (b *Builder) renderEmitConfirmation(data ActionData) string {
	var sb strings.Builder
	if data.ClientCreated {
		sb.WriteString(fmt.Sprintf("Cadastrei o cliente %s (%s).\n\n", data.Client.Name, clientDocumentLabel(data.Client)))
	}
	sb.WriteString("Vou emitir uma nota fiscal com estes dados:\n")
	sb.WriteString(fmt.Sprintf("- Valor: %s\n", data.Amount.Format()))
	sb.WriteString(fmt.Sprintf("- Cliente: %s (%s)\n", data.Client.Name, clientDocumentLabel(data.Client)))
	sb.WriteString(fmt.Sprintf("- Serviço: %s\n", data.Service.Text))
	sb.WriteString("\nPosso emitir? Responda 'sim' para confirmar ou 'não' para cancelar.")
	return sb.String()
}

func (b *Builder) renderCandidates(candidates []*client.Client) string {
	var sb strings.Builder
	sb.WriteString("Encontrei mais de um cliente com esse nome:\n\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, c.Name, clientDocumentLabel(c)))
	}
	sb.WriteString("\nResponda com o número da lista ou com o CPF/CNPJ do cliente certo.")
	return sb.String()
}

// clientDocumentLabel formata "CPF 653.252.739-49" ou "CNPJ 12.345.678/0001-90"
func clientDocumentLabel(c *client.Client) string {
	doc := nlu.DocumentNumber{Digits: c.Document, Kind: nlu.DocumentCPF}
	if c.Kind == client.KindCompany {
		doc.Kind = nlu.DocumentCNPJ
	}
	return fmt.Sprintf("%s %s", doc.Kind, doc.Format())
}

// ExtractInvoiceRef acha o primeiro número curto da mensagem. Sequências de
// 11 ou 14 dígitos são documentos e ficam de fora
func ExtractInvoiceRef(message string) string {
	for _, m := range invoiceRefRe.FindAllStringSubmatch(message, -1) {
		n := len(m[1])
		if n == 11 || n == 14 {
			continue
		}
		return m[1]
	}
	return ""
}
