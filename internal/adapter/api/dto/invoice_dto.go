package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
)

// InvoiceRequest representa os dados para emitir uma nota. Código de
// serviço e alíquota vazios usam os padrões configurados na empresa
type InvoiceRequest struct {
	ClientID    string  `json:"client_id" binding:"required"`
	AmountCents int64   `json:"amount_cents" binding:"required"`
	ServiceCode string  `json:"service_code"`
	ServiceText string  `json:"service_text"`
	ISSRate     float64 `json:"iss_rate"`
}

// InvoiceResponse representa a resposta com dados de uma nota
type InvoiceResponse struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"company_id"`
	ClientID           string    `json:"client_id"`
	ClientName         string    `json:"client_name"`
	Number             string    `json:"number,omitempty"`
	AmountCents        int64     `json:"amount_cents"`
	ISSRate            float64   `json:"iss_rate"`
	ISSAmountCents     int64     `json:"iss_amount_cents"`
	ServiceCode        string    `json:"service_code"`
	ServiceDescription string    `json:"service_description,omitempty"`
	Status             string    `json:"status"`
	RejectionReason    string    `json:"rejection_reason,omitempty"`
	VerificationURL    string    `json:"verification_url,omitempty"`
	PDFURL             string    `json:"pdf_url,omitempty"`
	IssuedAt           time.Time `json:"issued_at"`
	AuthorizedAt       time.Time `json:"authorized_at,omitempty"`
	CanceledAt         time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// InvoiceListResponse representa a resposta com uma lista de notas
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
}

// RevenueSummaryResponse representa o faturamento consolidado de um
// período. Somente notas autorizadas entram na soma
type RevenueSummaryResponse struct {
	TotalCents   int64  `json:"total_cents"`
	InvoiceCount int    `json:"invoice_count"`
	From         string `json:"from"`
	To           string `json:"to"`
}

// StatusChangeResponse representa uma entrada do histórico de status
type StatusChangeResponse struct {
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusHistoryResponse representa o histórico de status de uma nota
type StatusHistoryResponse struct {
	InvoiceID string                 `json:"invoice_id"`
	History   []StatusChangeResponse `json:"history"`
}

// NewInvoiceResponse cria um novo InvoiceResponse a partir de uma nota
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:                 inv.ID,
		CompanyID:          inv.CompanyID,
		ClientID:           inv.ClientID,
		ClientName:         inv.ClientName,
		Number:             inv.Number,
		AmountCents:        inv.AmountCents,
		ISSRate:            inv.ISSRate,
		ISSAmountCents:     inv.ISSAmountCents(),
		ServiceCode:        inv.ServiceCode,
		ServiceDescription: inv.ServiceDescription,
		Status:             string(inv.Status),
		RejectionReason:    inv.RejectionReason,
		VerificationURL:    inv.VerificationURL,
		PDFURL:             inv.PDFURL,
		IssuedAt:           inv.IssuedAt,
		AuthorizedAt:       inv.AuthorizedAt,
		CanceledAt:         inv.CanceledAt,
		CreatedAt:          inv.CreatedAt,
	}
}

// NewInvoiceListResponse cria um novo InvoiceListResponse
func NewInvoiceListResponse(invoices []*invoice.Invoice) *InvoiceListResponse {
	response := &InvoiceListResponse{
		Invoices: make([]InvoiceResponse, 0, len(invoices)),
		Total:    len(invoices),
	}

	for _, inv := range invoices {
		response.Invoices = append(response.Invoices, *NewInvoiceResponse(inv))
	}

	return response
}

// NewRevenueSummaryResponse cria um novo RevenueSummaryResponse
func NewRevenueSummaryResponse(summary *assistant.RevenueSummary) *RevenueSummaryResponse {
	return &RevenueSummaryResponse{
		TotalCents:   summary.TotalCents,
		InvoiceCount: summary.InvoiceCount,
		From:         summary.From.Format("2006-01-02"),
		To:           summary.To.Format("2006-01-02"),
	}
}

// NewStatusHistoryResponse cria um novo StatusHistoryResponse
func NewStatusHistoryResponse(invoiceID string, changes []*invoice.StatusChange) *StatusHistoryResponse {
	response := &StatusHistoryResponse{
		InvoiceID: invoiceID,
		History:   make([]StatusChangeResponse, 0, len(changes)),
	}

	for _, change := range changes {
		response.History = append(response.History, StatusChangeResponse{
			Status:    string(change.Status),
			Detail:    change.Detail,
			CreatedAt: change.CreatedAt,
		})
	}

	return response
}
