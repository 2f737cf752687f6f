package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indica falha de transporte ou indisponibilidade do provedor
	ErrUnavailable = errors.New("provedor fiscal indisponível")

	// ErrUnauthorized indica credenciais recusadas pelo provedor
	ErrUnauthorized = errors.New("credenciais recusadas pelo provedor fiscal")

	// ErrMalformedResponse indica resposta do provedor fora do contrato
	ErrMalformedResponse = errors.New("resposta inválida do provedor fiscal")

	// ErrNotFound indica recurso inexistente no provedor
	ErrNotFound = errors.New("recurso não encontrado no provedor fiscal")

	// ErrRefused indica recusa definitiva do provedor; repetir não ajuda
	ErrRefused = errors.New("operação recusada pelo provedor fiscal")
)

// Status é o estado de uma nota do ponto de vista do provedor
type Status string

const (
	StatusProcessing Status = "processing"
	StatusAuthorized Status = "authorized"
	StatusRejected   Status = "rejected"
	StatusCanceled   Status = "canceled"
)

// CompanyRegistration são os dados enviados ao provedor ao registrar uma
// empresa emissora
type CompanyRegistration struct {
	Name                  string `json:"name"`
	TradeName             string `json:"trade_name,omitempty"`
	Document              string `json:"document"`
	Email                 string `json:"email,omitempty"`
	MunicipalRegistration string `json:"municipal_registration,omitempty"`
	CityCode              string `json:"city_code"`
	State                 string `json:"state,omitempty"`
	Regime                string `json:"regime"`
}

// EmissionRequest são os dados de emissão enviados ao provedor
type EmissionRequest struct {
	CompanyRef         string  `json:"company_ref"`
	ClientName         string  `json:"client_name"`
	ClientDocument     string  `json:"client_document"`
	ClientEmail        string  `json:"client_email,omitempty"`
	AmountCents        int64   `json:"amount_cents"`
	ServiceCode        string  `json:"service_code"`
	ServiceDescription string  `json:"service_description"`
	ISSRate            float64 `json:"iss_rate"`
	RPSSeries          string  `json:"rps_series,omitempty"`
	RPSNumber          int64   `json:"rps_number,omitempty"`
}

// EmissionResult é a resposta do provedor a um pedido de emissão
type EmissionResult struct {
	ProviderRef     string `json:"provider_ref"`
	Status          Status `json:"status"`
	Number          string `json:"number,omitempty"`
	VerificationURL string `json:"verification_url,omitempty"`
	PDFURL          string `json:"pdf_url,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// InvoiceStatus é o estado corrente de uma nota consultada no provedor
type InvoiceStatus struct {
	Status          Status `json:"status"`
	Number          string `json:"number,omitempty"`
	VerificationURL string `json:"verification_url,omitempty"`
	PDFURL          string `json:"pdf_url,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ConnectionStatus é a situação do cadastro da empresa junto ao provedor
type ConnectionStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Gateway é o contrato consumido pelo orquestrador de emissão. A
// implementação concreta fala HTTP com o provedor e traduz as falhas para
// os erros deste pacote
type Gateway interface {
	// RegisterCompany registra a empresa no provedor e devolve a referência
	RegisterCompany(ctx context.Context, reg CompanyRegistration) (string, error)

	// CheckConnection consulta a situação do cadastro da empresa no provedor
	CheckConnection(ctx context.Context, companyRef string) (*ConnectionStatus, error)

	// MunicipalitySupported informa se o provedor atende o município
	MunicipalitySupported(ctx context.Context, cityCode string) (bool, error)

	// EmitInvoice envia a nota para emissão
	EmitInvoice(ctx context.Context, req EmissionRequest) (*EmissionResult, error)

	// QueryInvoice consulta o estado corrente de uma nota
	QueryInvoice(ctx context.Context, providerRef string) (*InvoiceStatus, error)

	// CancelInvoice cancela uma nota autorizada informando o motivo
	CancelInvoice(ctx context.Context, providerRef, reason string) error
}
