package assistant

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
)

// Esquemas oferecidos ao modelo. Os nomes das funções coincidem com as
// intenções para que o retorno caia direto no builder
const (
	emitSchema = `{
		"type": "object",
		"properties": {
			"valor": {"type": "number", "description": "Valor da nota em reais, ex: 1500.00"},
			"nome": {"type": "string", "description": "Nome do cliente tomador do serviço"},
			"documento": {"type": "string", "description": "CPF ou CNPJ do cliente"},
			"servico": {"type": "string", "description": "Descrição do serviço prestado"}
		},
		"additionalProperties": false
	}`

	cancelSchema = `{
		"type": "object",
		"properties": {
			"numero": {"type": ["string", "integer"], "description": "Número da nota a cancelar"}
		},
		"additionalProperties": false
	}`

	listInvoicesSchema = `{
		"type": "object",
		"properties": {
			"periodo_inicio": {"type": "string", "description": "Data inicial AAAA-MM-DD"},
			"periodo_fim": {"type": "string", "description": "Data final AAAA-MM-DD, inclusiva"}
		},
		"additionalProperties": false
	}`

	revenueSchema = `{
		"type": "object",
		"properties": {
			"periodo_inicio": {"type": "string", "description": "Data inicial AAAA-MM-DD"},
			"periodo_fim": {"type": "string", "description": "Data final AAAA-MM-DD, inclusiva"}
		},
		"additionalProperties": false
	}`

	createClientSchema = `{
		"type": "object",
		"properties": {
			"nome": {"type": "string", "description": "Nome do cliente"},
			"documento": {"type": "string", "description": "CPF ou CNPJ do cliente"}
		},
		"additionalProperties": false
	}`

	listClientsSchema = `{
		"type": "object",
		"properties": {},
		"additionalProperties": false
	}`

	statusSchema = `{
		"type": "object",
		"properties": {
			"numero": {"type": ["string", "integer"], "description": "Número da nota consultada"}
		},
		"additionalProperties": false
	}`
)

var functionSchemas = map[nlu.Intent]string{
	nlu.IntentEmitInvoice:   emitSchema,
	nlu.IntentCancelInvoice: cancelSchema,
	nlu.IntentListInvoices:  listInvoicesSchema,
	nlu.IntentRevenue:       revenueSchema,
	nlu.IntentCreateClient:  createClientSchema,
	nlu.IntentListClients:   listClientsSchema,
	nlu.IntentInvoiceStatus: statusSchema,
}

var functionDescriptions = map[nlu.Intent]string{
	nlu.IntentEmitInvoice:   "Emite uma nota fiscal de serviço para um cliente",
	nlu.IntentCancelInvoice: "Cancela uma nota fiscal já autorizada",
	nlu.IntentListInvoices:  "Lista as notas fiscais emitidas, com filtro opcional de período",
	nlu.IntentRevenue:       "Consulta o faturamento autorizado em um período",
	nlu.IntentCreateClient:  "Cadastra um novo cliente tomador de serviços",
	nlu.IntentListClients:   "Lista os clientes cadastrados",
	nlu.IntentInvoiceStatus: "Consulta a situação de processamento de uma nota fiscal",
}

// Nomes alternativos que os modelos costumam inventar, mapeados para a
// chave canônica antes da validação
var argAliases = map[string]string{
	"amount":            "valor",
	"value":             "valor",
	"valor_reais":       "valor",
	"cliente":           "nome",
	"cliente_nome":      "nome",
	"client_name":       "nome",
	"name":              "nome",
	"cliente_documento": "documento",
	"document":          "documento",
	"cpf":               "documento",
	"cnpj":              "documento",
	"cpf_cnpj":          "documento",
	"service":           "servico",
	"descricao":         "servico",
	"descricao_servico": "servico",
	"servico_descricao": "servico",
	"numero_nota":       "numero",
	"nota":              "numero",
	"invoice_number":    "numero",
	"inicio":            "periodo_inicio",
	"start_date":        "periodo_inicio",
	"data_inicio":       "periodo_inicio",
	"fim":               "periodo_fim",
	"end_date":          "periodo_fim",
	"data_fim":          "periodo_fim",
}

// FunctionSchemas devolve as definições de função oferecidas ao modelo em
// toda chamada de interpretação
func FunctionSchemas() []FunctionSchema {
	order := []nlu.Intent{
		nlu.IntentEmitInvoice,
		nlu.IntentCancelInvoice,
		nlu.IntentListInvoices,
		nlu.IntentRevenue,
		nlu.IntentCreateClient,
		nlu.IntentListClients,
		nlu.IntentInvoiceStatus,
	}

	schemas := make([]FunctionSchema, 0, len(order))
	for _, intent := range order {
		schemas = append(schemas, FunctionSchema{
			Name:        string(intent),
			Description: functionDescriptions[intent],
			Parameters:  json.RawMessage(functionSchemas[intent]),
		})
	}
	return schemas
}

// FunctionInterpretation é o resultado estruturado de uma chamada de
// função devolvida pelo modelo
type FunctionInterpretation struct {
	Intent nlu.Intent
	Set    nlu.EntitySet
	Ref    string
}

// ParseFunctionCall valida a chamada devolvida pelo modelo e converte os
// argumentos nas entidades que o builder consome. Qualquer argumento fora
// do esquema invalida a chamada inteira
func ParseFunctionCall(call FunctionCall) (*FunctionInterpretation, error) {
	intent := nlu.Intent(call.Name)
	schema, ok := functionSchemas[intent]
	if !ok {
		return nil, fmt.Errorf("função desconhecida: %s", call.Name)
	}

	args := map[string]interface{}{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("erro ao decodificar argumentos: %w", err)
		}
	}
	args = canonicalizeArgs(args)

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, fmt.Errorf("erro ao validar argumentos: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("argumentos inválidos: %s", strings.Join(details, "; "))
	}

	return &FunctionInterpretation{
		Intent: intent,
		Set:    entitiesFromArgs(args),
		Ref:    numeroArg(args),
	}, nil
}

func canonicalizeArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for key, value := range args {
		k := strings.ToLower(strings.TrimSpace(key))
		if canonical, ok := argAliases[k]; ok {
			k = canonical
		}
		if _, exists := out[k]; !exists {
			out[k] = value
		}
	}
	return out
}

func entitiesFromArgs(args map[string]interface{}) nlu.EntitySet {
	var set nlu.EntitySet

	if v, ok := args["valor"].(float64); ok {
		cents := int64(math.Round(v * 100))
		if cents > 0 {
			set.Amount = &nlu.MonetaryAmount{Cents: cents}
		}
	}

	if s := stringArg(args, "nome"); s != "" {
		set.Name = &nlu.PersonName{Text: s}
	}

	if s := stringArg(args, "documento"); s != "" {
		digits := nlu.OnlyDigits(s)
		switch len(digits) {
		case 11:
			set.Document = &nlu.DocumentNumber{Digits: digits, Kind: nlu.DocumentCPF}
		case 14:
			set.Document = &nlu.DocumentNumber{Digits: digits, Kind: nlu.DocumentCNPJ}
		}
	}

	if s := stringArg(args, "servico"); s != "" {
		svc := nlu.ExtractService(s)
		if svc == nil {
			svc = &nlu.ServiceDescription{Code: nlu.DefaultServiceCode}
		}
		svc.Text = s
		set.Service = svc
	}

	if from, to, ok := periodArgs(args); ok {
		set.Period = &nlu.Period{Kind: nlu.PeriodExplicit, From: from, To: to}
	}

	return set
}

// numeroArg aceita o número da nota como string ou inteiro
func numeroArg(args map[string]interface{}) string {
	switch v := args["numero"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func stringArg(args map[string]interface{}, key string) string {
	if s, ok := args[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// periodArgs interpreta datas AAAA-MM-DD com fim inclusivo, convertendo
// para o intervalo meio-aberto usado internamente
func periodArgs(args map[string]interface{}) (time.Time, time.Time, bool) {
	fromStr := stringArg(args, "periodo_inicio")
	toStr := stringArg(args, "periodo_fim")
	if fromStr == "" && toStr == "" {
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	to := from.AddDate(0, 0, 1)
	if toStr != "" {
		end, err := time.Parse("2006-01-02", toStr)
		if err != nil || end.Before(from) {
			return time.Time{}, time.Time{}, false
		}
		to = end.AddDate(0, 0, 1)
	}
	return from, to, true
}
