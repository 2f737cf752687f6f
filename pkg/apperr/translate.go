package apperr

import (
	"strings"
)

// Origin indica a origem do erro, usada para desambiguar códigos de status
// HTTP: um 401 do provedor fiscal não é um 401 de login do usuário
type Origin string

const (
	OriginProvider Origin = "provedor"
	OriginPayment  Origin = "pagamento"
	OriginModel    Origin = "modelo"
	OriginUser     Origin = "usuario"
	OriginInternal Origin = "interno"
)

// Translation é a tradução de um erro para o usuário final. Nunca contém
// stack trace nem identificadores internos.
type Translation struct {
	Message     string `json:"message"`
	Explanation string `json:"explanation"`
	Action      string `json:"action"`
	Category    Code   `json:"category"`
	Retryable   bool   `json:"retryable"`
}

var byCode = map[Code]Translation{
	CodeInvalidInput: {
		Message:     "Alguns dados informados são inválidos.",
		Explanation: "Revise os dados e tente novamente.",
		Action:      "corrigir_dados",
		Category:    CodeInvalidInput,
	},
	CodeQuotaExceeded: {
		Message:     "Você atingiu o limite de notas do seu plano neste mês.",
		Explanation: "Faça upgrade do plano ou aguarde o próximo ciclo para emitir novas notas.",
		Action:      "upgrade_plano",
		Category:    CodeQuotaExceeded,
	},
	CodeNoPaymentMethod: {
		Message:     "Nenhuma forma de pagamento cadastrada para emissão avulsa.",
		Explanation: "Cadastre um cartão em Configurações > Pagamento para emitir notas avulsas.",
		Action:      "cadastrar_pagamento",
		Category:    CodeNoPaymentMethod,
	},
	CodeChargeDeclined: {
		Message:     "Não foi possível cobrar a emissão avulsa.",
		Explanation: "A cobrança foi recusada pela operadora. Verifique o cartão cadastrado e tente novamente.",
		Action:      "verificar_pagamento",
		Category:    CodeChargeDeclined,
		Retryable:   true,
	},
	CodeCompanyNotRegistered: {
		Message:     "Sua empresa ainda não está habilitada para emitir notas.",
		Explanation: "Complete o cadastro da empresa e aguarde a habilitação junto à prefeitura.",
		Action:      "completar_cadastro",
		Category:    CodeCompanyNotRegistered,
	},
	CodeMunicipalityUnsupported: {
		Message:     "A emissão de NFS-e ainda não está disponível para o seu município.",
		Explanation: "Estamos ampliando a cobertura. Você será avisado quando sua cidade for habilitada.",
		Action:      "aguardar_cobertura",
		Category:    CodeMunicipalityUnsupported,
	},
	CodeCertificateMissing: {
		Message:     "Nenhum certificado digital cadastrado para a empresa.",
		Explanation: "Envie o certificado A1 (.pfx) em Configurações > Certificado para emitir notas.",
		Action:      "enviar_certificado",
		Category:    CodeCertificateMissing,
	},
	CodeCertificateExpired: {
		Message:     "O certificado digital da empresa está vencido.",
		Explanation: "Renove o certificado A1 com a autoridade certificadora e envie o novo arquivo.",
		Action:      "renovar_certificado",
		Category:    CodeCertificateExpired,
	},
	CodeClientUnresolved: {
		Message:     "Não consegui identificar o cliente da nota.",
		Explanation: "Informe o nome completo ou o CPF/CNPJ do cliente.",
		Action:      "informar_cliente",
		Category:    CodeClientUnresolved,
	},
	CodeClientAmbiguous: {
		Message:     "Encontrei mais de um cliente com esse nome.",
		Explanation: "Informe o CPF/CNPJ ou escolha um dos clientes listados.",
		Action:      "escolher_cliente",
		Category:    CodeClientAmbiguous,
	},
	CodeRegimeViolation: {
		Message:     "A nota viola uma regra do regime tributário da empresa.",
		Explanation: "Confira a alíquota e as regras do seu regime antes de emitir.",
		Action:      "revisar_regime",
		Category:    CodeRegimeViolation,
	},
	CodeRevenueCeilingExceeded: {
		Message:     "Esta nota ultrapassaria o teto anual de faturamento do MEI.",
		Explanation: "Acima do teto o MEI precisa ser desenquadrado. Fale com seu contador antes de emitir.",
		Action:      "consultar_contador",
		Category:    CodeRevenueCeilingExceeded,
	},
	CodeInvoiceRejected: {
		Message:     "A prefeitura rejeitou a nota.",
		Explanation: "Revise os dados da nota e do tomador; se o problema persistir, fale com o suporte.",
		Action:      "revisar_nota",
		Category:    CodeInvoiceRejected,
	},
	CodeProviderUnavailable: {
		Message:     "O serviço da prefeitura está instável no momento.",
		Explanation: "Não é um problema com seus dados. Tente novamente em alguns minutos.",
		Action:      "tentar_novamente",
		Category:    CodeProviderUnavailable,
		Retryable:   true,
	},
	CodeProviderUnauthorized: {
		Message:     "Falha de autorização na integração fiscal.",
		Explanation: "Não é um problema com seus dados. Nossa equipe já foi notificada.",
		Action:      "aguardar_suporte",
		Category:    CodeProviderUnauthorized,
	},
	CodeProviderMalformed: {
		Message:     "O serviço da prefeitura devolveu uma resposta inesperada.",
		Explanation: "Não é um problema com seus dados. Tente novamente; se persistir, fale com o suporte.",
		Action:      "tentar_novamente",
		Category:    CodeProviderMalformed,
		Retryable:   true,
	},
	CodeNotFound: {
		Message:     "Registro não encontrado.",
		Explanation: "O item pode ter sido removido ou o identificador está incorreto.",
		Action:      "verificar_dados",
		Category:    CodeNotFound,
	},
	CodeUnauthorized: {
		Message:     "Sessão inválida ou expirada.",
		Explanation: "Faça login novamente para continuar.",
		Action:      "fazer_login",
		Category:    CodeUnauthorized,
	},
	CodeInternal: {
		Message:     "Ocorreu um erro inesperado.",
		Explanation: "Já registramos o problema. Tente novamente em instantes.",
		Action:      "tentar_novamente",
		Category:    CodeInternal,
		Retryable:   true,
	},
}

// Mensagens literais conhecidas de provedores, na forma exata em que chegam
var byExactMessage = map[string]Code{
	"empresa nao encontrada":                  CodeCompanyNotRegistered,
	"empresa não encontrada":                  CodeCompanyNotRegistered,
	"cnpj nao habilitado para emissao":        CodeCompanyNotRegistered,
	"certificado digital vencido":             CodeCertificateExpired,
	"certificado digital nao encontrado":      CodeCertificateMissing,
	"municipio nao homologado":                CodeMunicipalityUnsupported,
	"rps duplicado":                           CodeInvalidInput,
	"tomador invalido":                        CodeInvalidInput,
	"invalid_token":                           CodeProviderUnauthorized,
	"unauthorized":                            CodeProviderUnauthorized,
	"insufficient funds":                      CodeChargeDeclined,
	"card_declined":                           CodeChargeDeclined,
	"context deadline exceeded":               CodeProviderUnavailable,
	"client.timeout exceeded while awaiting headers": CodeProviderUnavailable,
}

// Translate converte qualquer erro em uma tradução estável para o usuário,
// na ordem: código conhecido, mensagem exata, status HTTP pela origem,
// heurística por substring e por fim o fallback genérico
func Translate(err error, origin Origin) Translation {
	if err == nil {
		return byCode[CodeInternal]
	}

	// 1. Código conhecido
	if ae, ok := From(err); ok {
		if t, ok := byCode[ae.Code]; ok {
			if ae.Message != "" {
				t.Message = ae.Message
			}
			if ae.Retryable {
				t.Retryable = true
			}
			return t
		}
	}

	raw := err.Error()
	lower := strings.ToLower(strings.TrimSpace(raw))

	// 2. Mensagem exata
	if code, ok := byExactMessage[lower]; ok {
		return byCode[code]
	}

	// 3. Status HTTP interpretado pela origem
	var sc StatusCoder
	if asStatusCoder(err, &sc) {
		if t, ok := translateStatus(sc.HTTPStatus(), origin); ok {
			return t
		}
	}

	// 4. Substring
	if t, ok := translateSubstring(lower); ok {
		return t
	}

	// 5. Genérico
	return byCode[CodeInternal]
}

func asStatusCoder(err error, target *StatusCoder) bool {
	for err != nil {
		if sc, ok := err.(StatusCoder); ok {
			*target = sc
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func translateStatus(status int, origin Origin) (Translation, bool) {
	switch {
	case status == 401 || status == 403:
		if origin == OriginProvider || origin == OriginPayment {
			return byCode[CodeProviderUnauthorized], true
		}
		return byCode[CodeUnauthorized], true
	case status == 402:
		return byCode[CodeChargeDeclined], true
	case status == 404 && origin == OriginProvider:
		return byCode[CodeCompanyNotRegistered], true
	case status == 422 && origin == OriginProvider:
		return byCode[CodeInvoiceRejected], true
	case status == 429:
		return byCode[CodeProviderUnavailable], true
	case status >= 500:
		if origin == OriginProvider || origin == OriginPayment || origin == OriginModel {
			return byCode[CodeProviderUnavailable], true
		}
		return byCode[CodeInternal], true
	}
	return Translation{}, false
}

func translateSubstring(lower string) (Translation, bool) {
	switch {
	case strings.Contains(lower, "certificado") && (strings.Contains(lower, "vencid") || strings.Contains(lower, "expirad")):
		return byCode[CodeCertificateExpired], true
	case strings.Contains(lower, "certificado"):
		return byCode[CodeCertificateMissing], true
	case strings.Contains(lower, "municipio") || strings.Contains(lower, "município"):
		return byCode[CodeMunicipalityUnsupported], true
	case strings.Contains(lower, "rejeitad") || strings.Contains(lower, "rejected"):
		return byCode[CodeInvoiceRejected], true
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return byCode[CodeProviderUnavailable], true
	case strings.Contains(lower, "recusad") || strings.Contains(lower, "declined"):
		return byCode[CodeChargeDeclined], true
	case strings.Contains(lower, "limite") && strings.Contains(lower, "plano"):
		return byCode[CodeQuotaExceeded], true
	}
	return Translation{}, false
}

// Redact devolve uma versão curta e de linha única do erro, adequada para
// log no servidor mas nunca para o usuário final
func Redact(err error) string {
	if err == nil {
		return ""
	}
	s := strings.Join(strings.Fields(err.Error()), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
