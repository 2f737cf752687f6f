package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
)

// CompanyRequest representa os dados para criar uma empresa emissora
type CompanyRequest struct {
	Name                  string  `json:"name" binding:"required"`
	TradeName             string  `json:"trade_name"`
	Document              string  `json:"document" binding:"required"`
	Email                 string  `json:"email"`
	MunicipalRegistration string  `json:"municipal_registration"`
	CityCode              string  `json:"city_code" binding:"required"`
	CityName              string  `json:"city_name"`
	State                 string  `json:"state"`
	Regime                string  `json:"regime" binding:"required"`
	ISSRate               float64 `json:"iss_rate"`
	ServiceCode           string  `json:"service_code"`
	ServiceDescription    string  `json:"service_description"`
}

// CompanyUpdateRequest representa os dados atualizáveis de uma empresa
type CompanyUpdateRequest struct {
	Name                  string  `json:"name" binding:"required"`
	TradeName             string  `json:"trade_name"`
	Email                 string  `json:"email"`
	MunicipalRegistration string  `json:"municipal_registration"`
	ISSRate               float64 `json:"iss_rate"`
	ServiceCode           string  `json:"service_code"`
	ServiceDescription    string  `json:"service_description"`
}

// CompanyResponse representa a resposta com dados de uma empresa
type CompanyResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	TradeName             string    `json:"trade_name,omitempty"`
	Document              string    `json:"document"`
	Email                 string    `json:"email,omitempty"`
	MunicipalRegistration string    `json:"municipal_registration,omitempty"`
	CityCode              string    `json:"city_code"`
	CityName              string    `json:"city_name,omitempty"`
	State                 string    `json:"state,omitempty"`
	Regime                string    `json:"regime"`
	ISSRate               float64   `json:"iss_rate"`
	ServiceCode           string    `json:"service_code,omitempty"`
	ServiceDescription    string    `json:"service_description,omitempty"`
	RPSSeries             string    `json:"rps_series"`
	Registered            bool      `json:"registered"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CompanyListResponse representa a resposta com uma lista de empresas
type CompanyListResponse struct {
	Companies  []CompanyResponse `json:"companies"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ProviderStatusResponse representa a situação da empresa junto ao provedor fiscal
type ProviderStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewCompanyResponse cria um novo CompanyResponse a partir de uma empresa
func NewCompanyResponse(comp *company.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:                    comp.ID,
		Name:                  comp.Name,
		TradeName:             comp.TradeName,
		Document:              comp.Document,
		Email:                 comp.Email,
		MunicipalRegistration: comp.MunicipalRegistration,
		CityCode:              comp.CityCode,
		CityName:              comp.CityName,
		State:                 comp.State,
		Regime:                string(comp.Regime),
		ISSRate:               comp.ISSRate,
		ServiceCode:           comp.ServiceCode,
		ServiceDescription:    comp.ServiceDescription,
		RPSSeries:             comp.RPSSeries,
		Registered:            comp.IsRegisteredWithProvider(),
		Status:                string(comp.Status),
		CreatedAt:             comp.CreatedAt,
		UpdatedAt:             comp.UpdatedAt,
	}
}

// NewCompanyListResponse cria um novo CompanyListResponse
func NewCompanyListResponse(companies []*company.Company, total, page, pageSize int) *CompanyListResponse {
	response := &CompanyListResponse{
		Companies:  make([]CompanyResponse, 0, len(companies)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}

	for _, comp := range companies {
		response.Companies = append(response.Companies, *NewCompanyResponse(comp))
	}

	return response
}

// NewProviderStatusResponse cria um ProviderStatusResponse a partir da
// consulta ao provedor
func NewProviderStatusResponse(status *provider.ConnectionStatus) *ProviderStatusResponse {
	return &ProviderStatusResponse{
		Status:  status.Status,
		Message: status.Message,
	}
}
