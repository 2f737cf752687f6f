package nlu

import "strings"

// Intent identifica a ação que o usuário deseja executar
type Intent string

const (
	IntentEmitInvoice   Intent = "emitir_nota"
	IntentCancelInvoice Intent = "cancelar_nota"
	IntentListInvoices  Intent = "consultar_notas"
	IntentRevenue       Intent = "consultar_faturamento"
	IntentCreateClient  Intent = "cadastrar_cliente"
	IntentListClients   Intent = "consultar_clientes"
	IntentInvoiceStatus Intent = "consultar_status"
	IntentHelp          Intent = "ajuda"
	IntentUnknown       Intent = "desconhecida"
)

// DeterministicThreshold é a confiança mínima para que a rota
// determinística responda sem consultar o modelo generativo
const DeterministicThreshold = 0.6

// Classification carrega a intenção reconhecida, a confiança atribuída
// pela regra vencedora e o nome da regra para fins de auditoria
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rule       string  `json:"rule,omitempty"`
}

// Routable informa se a classificação tem confiança suficiente para a
// rota determinística
func (c Classification) Routable() bool {
	return c.Intent != IntentUnknown && c.Confidence >= DeterministicThreshold
}

// Rule liga um predicado sobre a mensagem normalizada a uma intenção.
// Specificity desempata regras da mesma camada
type Rule struct {
	Name        string
	Intent      Intent
	Confidence  float64
	Specificity int
	Match       func(norm string, set EntitySet) bool
}

// Classify percorre a tabela de regras camada por camada e para na
// primeira camada com correspondência
func Classify(text string) Classification {
	return ClassifyWith(text, Extract(text))
}

// ClassifyWith reaproveita entidades já extraídas da mesma mensagem
func ClassifyWith(text string, set EntitySet) Classification {
	norm := Normalize(text)
	for _, tier := range ruleTiers {
		if c, ok := bestInTier(tier, norm, set); ok {
			return c
		}
	}
	return Classification{Intent: IntentUnknown}
}

// PriorityIntent avalia apenas a camada estrutural, que dispensa o
// modelo generativo quando a própria forma da mensagem revela a intenção
func PriorityIntent(text string, set EntitySet) (Classification, bool) {
	return bestInTier(ruleTiers[0], Normalize(text), set)
}

func bestInTier(tier []Rule, norm string, set EntitySet) (Classification, bool) {
	best := -1
	for i, r := range tier {
		if !r.Match(norm, set) {
			continue
		}
		if best < 0 || r.Specificity > tier[best].Specificity {
			best = i
		}
	}
	if best < 0 {
		return Classification{Intent: IntentUnknown}, false
	}
	r := tier[best]
	return Classification{Intent: r.Intent, Confidence: r.Confidence, Rule: r.Name}, true
}

var confirmExact = map[string]bool{
	"confirmar":      true,
	"confirmo":       true,
	"sim":            true,
	"ok":             true,
	"pode confirmar": true,
	"pode emitir":    true,
	"isso":           true,
	"isso mesmo":     true,
}

var cancelExact = map[string]bool{
	"cancelar":     true,
	"nao":          true,
	"nao quero":    true,
	"deixa":        true,
	"deixa pra la": true,
}

// IsConfirmation reconhece respostas curtas que confirmam uma ação pendente
func IsConfirmation(text string) bool {
	norm := strings.Trim(Normalize(text), "!?.,")
	if strings.HasPrefix(norm, "nao") {
		return false
	}
	if confirmExact[norm] {
		return true
	}
	return strings.Contains(norm, "confirm") || strings.Contains(norm, "certo") || strings.Contains(norm, "correto")
}

// IsCancellation reconhece respostas curtas que desistem de uma ação pendente
func IsCancellation(text string) bool {
	norm := strings.Trim(Normalize(text), "!?.,")
	if cancelExact[norm] {
		return true
	}
	return strings.Contains(norm, "desist") || strings.Contains(norm, "canc")
}
