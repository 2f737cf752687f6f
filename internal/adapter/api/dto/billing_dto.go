package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/billing"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
)

// UpdatePlanRequest representa a troca de plano da conta
type UpdatePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// PaymentMethodRequest vincula a conta ao cliente criado no gateway de
// pagamento, pré-requisito da emissão avulsa
type PaymentMethodRequest struct {
	CustomerRef string `json:"customer_ref" binding:"required"`
}

// PlanResponse representa um plano disponível
type PlanResponse struct {
	Plan             string `json:"plan"`
	MonthlyInvoices  int    `json:"monthly_invoices"`
	MaxCompanies     int    `json:"max_companies"`
	PerUse           bool   `json:"per_use"`
	PerUsePriceCents int64  `json:"per_use_price_cents,omitempty"`
}

// PlanCatalogResponse representa o catálogo de planos
type PlanCatalogResponse struct {
	Plans []PlanResponse `json:"plans"`
}

// UsageChargeResponse representa uma cobrança avulsa registrada
type UsageChargeResponse struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	ChargeRef   string    `json:"charge_ref,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// UsageSummaryResponse representa o consumo da conta no mês corrente
type UsageSummaryResponse struct {
	Plan                  string                `json:"plan"`
	MonthlyQuota          int                   `json:"monthly_quota"`
	IssuedThisMonth       int                   `json:"issued_this_month"`
	PerUse                bool                  `json:"per_use"`
	PerUsePriceCents      int64                 `json:"per_use_price_cents,omitempty"`
	ChargedThisMonthCents int64                 `json:"charged_this_month_cents"`
	Charges               []UsageChargeResponse `json:"charges"`
}

// NewPlanResponse cria um PlanResponse a partir dos limites do plano
func NewPlanResponse(limits plan.Limits) PlanResponse {
	return PlanResponse{
		Plan:             string(limits.Plan),
		MonthlyInvoices:  limits.MonthlyInvoices,
		MaxCompanies:     limits.MaxCompanies,
		PerUse:           limits.PerUse,
		PerUsePriceCents: limits.PerUsePriceCents,
	}
}

// NewPlanCatalogResponse cria o catálogo de planos
func NewPlanCatalogResponse(catalog []plan.Limits) *PlanCatalogResponse {
	response := &PlanCatalogResponse{Plans: make([]PlanResponse, 0, len(catalog))}
	for _, limits := range catalog {
		response.Plans = append(response.Plans, NewPlanResponse(limits))
	}
	return response
}

// NewUsageChargeResponse cria um UsageChargeResponse a partir de uma cobrança
func NewUsageChargeResponse(charge *billing.UsageCharge) UsageChargeResponse {
	return UsageChargeResponse{
		ID:          charge.ID,
		InvoiceID:   charge.InvoiceID,
		AmountCents: charge.AmountCents,
		Description: charge.Description,
		ChargeRef:   charge.ChargeRef,
		Status:      string(charge.Status),
		CreatedAt:   charge.CreatedAt,
	}
}

// NewUsageSummaryResponse cria o resumo de consumo do mês
func NewUsageSummaryResponse(limits plan.Limits, issued int, chargedCents int64, charges []*billing.UsageCharge) *UsageSummaryResponse {
	response := &UsageSummaryResponse{
		Plan:                  string(limits.Plan),
		MonthlyQuota:          limits.MonthlyInvoices,
		IssuedThisMonth:       issued,
		PerUse:                limits.PerUse,
		PerUsePriceCents:      limits.PerUsePriceCents,
		ChargedThisMonthCents: chargedCents,
		Charges:               make([]UsageChargeResponse, 0, len(charges)),
	}

	for _, charge := range charges {
		response.Charges = append(response.Charges, NewUsageChargeResponse(charge))
	}

	return response
}
