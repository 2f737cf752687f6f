package dto

import (
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
)

// CertificateUploadRequest representa o envio de um certificado A1. O
// arquivo .pfx vai no corpo em base64; a senha é usada para validar o
// arquivo e fica guardada para o provedor fiscal
type CertificateUploadRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Name      string `json:"name"`
	File      string `json:"file" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// CertificateResponse representa a resposta com dados de um certificado.
// O arquivo e a senha nunca aparecem em respostas
type CertificateResponse struct {
	ID             string    `json:"id"`
	CompanyID      string    `json:"company_id"`
	Name           string    `json:"name"`
	ExpirationDate time.Time `json:"expiration_date"`
	IsActive       bool      `json:"is_active"`
	IsExpired      bool      `json:"is_expired"`
	ExpiresSoon    bool      `json:"expires_soon"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CertificateListResponse representa a resposta com uma lista de certificados
type CertificateListResponse struct {
	Certificates []CertificateResponse `json:"certificates"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

// NewCertificateResponse cria um novo CertificateResponse a partir de um certificado
func NewCertificateResponse(cert *certificate.Certificate) *CertificateResponse {
	return &CertificateResponse{
		ID:             cert.ID,
		CompanyID:      cert.CompanyID,
		Name:           cert.Name,
		ExpirationDate: cert.ExpirationDate,
		IsActive:       cert.IsActive,
		IsExpired:      cert.IsExpired(),
		ExpiresSoon:    cert.ExpiresWithin(30 * 24 * time.Hour),
		CreatedAt:      cert.CreatedAt,
		UpdatedAt:      cert.UpdatedAt,
	}
}

// NewCertificateListResponse cria um novo CertificateListResponse
func NewCertificateListResponse(certificates []*certificate.Certificate, total, page, pageSize int) *CertificateListResponse {
	response := &CertificateListResponse{
		Certificates: make([]CertificateResponse, 0, len(certificates)),
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}

	for _, cert := range certificates {
		response.Certificates = append(response.Certificates, *NewCertificateResponse(cert))
	}

	return response
}
