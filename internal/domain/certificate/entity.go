package certificate

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indica certificado inexistente na conta
var ErrNotFound = errors.New("certificado não encontrado")

// Certificado digital A1 vinculado a uma empresa emissora
type Certificate struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	CompanyID       string    `json:"company_id"`
	Name            string    `json:"name"`
	CertificateData []byte    `json:"-"`
	Password        string    `json:"-"`
	ExpirationDate  time.Time `json:"expiration_date"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCertificate cria um novo certificado digital
func NewCertificate(accountID, companyID, name string, expirationDate time.Time) (*Certificate, error) {
	if accountID == "" {
		return nil, errors.New("conta é obrigatória")
	}
	if companyID == "" {
		return nil, errors.New("empresa é obrigatória")
	}
	if name == "" {
		return nil, errors.New("nome do certificado é obrigatório")
	}
	if expirationDate.Before(time.Now()) {
		return nil, errors.New("data de validade do certificado já passou")
	}

	now := time.Now()
	return &Certificate{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		CompanyID:      companyID,
		Name:           name,
		ExpirationDate: expirationDate,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// StoreCertificateData armazena os dados binários do certificado
func (c *Certificate) StoreCertificateData(data []byte, password string) error {
	if len(data) == 0 {
		return errors.New("dados do certificado não podem estar vazios")
	}
	if password == "" {
		return errors.New("senha do certificado é obrigatória")
	}

	c.CertificateData = data
	c.Password = password
	c.UpdatedAt = time.Now()
	return nil
}

// IsExpired informa se o certificado já venceu
func (c *Certificate) IsExpired() bool {
	return time.Now().After(c.ExpirationDate)
}

// ExpiresWithin informa se o certificado vence dentro do prazo dado,
// usado para avisar o usuário antes do vencimento
func (c *Certificate) ExpiresWithin(d time.Duration) bool {
	return !c.IsExpired() && time.Now().Add(d).After(c.ExpirationDate)
}

// Deactivate desativa o certificado
func (c *Certificate) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}
