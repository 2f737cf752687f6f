package apperr

import (
	"errors"
	"fmt"
)

// Code identifica uma categoria estável de erro do sistema
type Code string

const (
	CodeInvalidInput            Code = "DADOS_INVALIDOS"
	CodeQuotaExceeded           Code = "LIMITE_PLANO_EXCEDIDO"
	CodeNoPaymentMethod         Code = "SEM_FORMA_PAGAMENTO"
	CodeChargeDeclined          Code = "COBRANCA_RECUSADA"
	CodeCompanyNotRegistered    Code = "EMPRESA_NAO_REGISTRADA"
	CodeMunicipalityUnsupported Code = "MUNICIPIO_NAO_SUPORTADO"
	CodeCertificateMissing      Code = "CERTIFICADO_AUSENTE"
	CodeCertificateExpired      Code = "CERTIFICADO_VENCIDO"
	CodeClientUnresolved        Code = "CLIENTE_NAO_IDENTIFICADO"
	CodeClientAmbiguous         Code = "CLIENTE_AMBIGUO"
	CodeRegimeViolation         Code = "REGRA_REGIME_VIOLADA"
	CodeRevenueCeilingExceeded  Code = "TETO_ANUAL_EXCEDIDO"
	CodeInvoiceRejected         Code = "NOTA_REJEITADA"
	CodeProviderUnavailable     Code = "PROVEDOR_INDISPONIVEL"
	CodeProviderUnauthorized    Code = "PROVEDOR_NAO_AUTORIZADO"
	CodeProviderMalformed       Code = "RESPOSTA_PROVEDOR_INVALIDA"
	CodeNotFound                Code = "NAO_ENCONTRADO"
	CodeUnauthorized            Code = "NAO_AUTORIZADO"
	CodeInternal                Code = "ERRO_INTERNO"
)

// Error é o erro tipado do sistema: código estável, mensagem para o usuário
// e detalhe técnico que fica apenas no servidor
type Error struct {
	Code      Code
	Message   string
	Details   string
	Retryable bool
	cause     error
}

// Error implementa a interface error
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap expõe a causa original para errors.Is/errors.As
func (e *Error) Unwrap() error {
	return e.cause
}

// New cria um erro tipado sem causa
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf cria um erro tipado com mensagem formatada
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap cria um erro tipado preservando a causa; o detalhe técnico guarda o
// texto da causa para diagnóstico no servidor
func Wrap(code Code, message string, cause error) *Error {
	e := &Error{Code: code, Message: message, cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// WithDetails define o detalhe técnico do erro
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// AsRetryable marca o erro como passível de nova tentativa pelo usuário
func (e *Error) AsRetryable() *Error {
	e.Retryable = true
	return e
}

// From extrai um *Error da cadeia de erros, se houver
func From(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf retorna o código do erro ou CodeInternal quando não tipado
func CodeOf(err error) Code {
	if ae, ok := From(err); ok {
		return ae.Code
	}
	return CodeInternal
}

// IsCode verifica se o erro carrega o código informado
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// StatusCoder é implementado por erros que carregam o status HTTP de origem
type StatusCoder interface {
	HTTPStatus() int
}
