package nlu

import (
	"regexp"
	"strings"
)

func wordsRe(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)
}

var (
	emitVerbRe     = wordsRe("emitir", "emita", "emite", "gerar", "gera", "gere", "fazer", "faca", "faz", "criar", "crie", "cria")
	invoiceNounRe  = wordsRe("nota fiscal", "notas fiscais", "nota", "notas", "nfse", "nfs-e", "nf")
	cancelVerbRe   = wordsRe("cancelar", "cancela", "cancele", "estornar", "estorna", "anular", "anula")
	registerVerbRe = wordsRe("cadastrar", "cadastra", "cadastre", "adicionar", "adiciona", "adicione", "registrar", "registra", "registre", "criar", "crie", "cria", "novo", "nova")
	clientNounRe   = wordsRe("cliente", "clientes", "tomador", "tomadores")
	listVerbRe     = wordsRe("listar", "liste", "lista", "consultar", "consulta", "consulte", "ver", "mostrar", "mostra", "mostre", "quais", "ultimas", "minhas", "meus")
	statusWordRe   = wordsRe("status", "situacao", "andamento", "processamento")
	revenueWordRe  = wordsRe("faturamento", "faturei", "faturou", "faturamos", "receita", "rendimento", "ganhei", "ganhos")
	helpWordRe     = wordsRe("ajuda", "help", "socorro", "comandos", "menu", "opcoes", "o que voce faz", "como funciona", "como usar")
	greetingRe     = wordsRe("oi", "ola", "bom dia", "boa tarde", "boa noite", "eai", "opa")
)

// ruleTiers é a tabela ordenada de regras determinísticas. A primeira
// camada reconhece intenção pela estrutura das entidades extraídas; a
// segunda exige verbo e objeto explícitos; a terceira guarda dicas
// fracas que nunca atingem o limiar sozinhas
var ruleTiers = [][]Rule{
	{
		{
			Name: "estrutura_faturamento", Intent: IntentRevenue, Confidence: 0.9, Specificity: 5,
			Match: func(norm string, set EntitySet) bool {
				return revenueWordRe.MatchString(norm) || (strings.Contains(norm, "quanto") && set.Period != nil)
			},
		},
		{
			Name: "estrutura_valor_destinatario", Intent: IntentEmitInvoice, Confidence: 0.95, Specificity: 4,
			Match: func(norm string, set EntitySet) bool {
				return set.Amount != nil && (set.Name != nil || set.Document != nil) && !cancelVerbRe.MatchString(norm)
			},
		},
		{
			Name: "estrutura_nome_documento", Intent: IntentCreateClient, Confidence: 0.9, Specificity: 3,
			Match: func(norm string, set EntitySet) bool {
				return set.Amount == nil && set.Name != nil && set.Document != nil &&
					!emitVerbRe.MatchString(norm) && !invoiceNounRe.MatchString(norm)
			},
		},
	},
	{
		{
			Name: "verbo_emitir_nota", Intent: IntentEmitInvoice, Confidence: 0.85, Specificity: 3,
			Match: func(norm string, _ EntitySet) bool {
				return emitVerbRe.MatchString(norm) && invoiceNounRe.MatchString(norm)
			},
		},
		{
			Name: "verbo_cancelar_nota", Intent: IntentCancelInvoice, Confidence: 0.85, Specificity: 3,
			Match: func(norm string, _ EntitySet) bool {
				return cancelVerbRe.MatchString(norm) && invoiceNounRe.MatchString(norm)
			},
		},
		{
			Name: "verbo_cadastrar_cliente", Intent: IntentCreateClient, Confidence: 0.85, Specificity: 3,
			Match: func(norm string, _ EntitySet) bool {
				return registerVerbRe.MatchString(norm) && clientNounRe.MatchString(norm)
			},
		},
		{
			Name: "palavra_status", Intent: IntentInvoiceStatus, Confidence: 0.8, Specificity: 2,
			Match: func(norm string, _ EntitySet) bool {
				return statusWordRe.MatchString(norm)
			},
		},
		{
			Name: "verbo_listar_notas", Intent: IntentListInvoices, Confidence: 0.8, Specificity: 2,
			Match: func(norm string, _ EntitySet) bool {
				return listVerbRe.MatchString(norm) && invoiceNounRe.MatchString(norm)
			},
		},
		{
			Name: "verbo_listar_clientes", Intent: IntentListClients, Confidence: 0.75, Specificity: 1,
			Match: func(norm string, _ EntitySet) bool {
				return listVerbRe.MatchString(norm) && clientNounRe.MatchString(norm)
			},
		},
		{
			Name: "palavra_ajuda", Intent: IntentHelp, Confidence: 0.9, Specificity: 1,
			Match: func(norm string, _ EntitySet) bool {
				return helpWordRe.MatchString(norm)
			},
		},
		{
			Name: "saudacao", Intent: IntentHelp, Confidence: 0.85, Specificity: 0,
			Match: func(norm string, _ EntitySet) bool {
				return greetingRe.MatchString(norm)
			},
		},
	},
	{
		{
			Name: "nota_isolada", Intent: IntentEmitInvoice, Confidence: 0.5, Specificity: 1,
			Match: func(norm string, _ EntitySet) bool {
				return invoiceNounRe.MatchString(norm)
			},
		},
		{
			Name: "cliente_isolado", Intent: IntentListClients, Confidence: 0.4, Specificity: 0,
			Match: func(norm string, _ EntitySet) bool {
				return clientNounRe.MatchString(norm)
			},
		},
	},
}
