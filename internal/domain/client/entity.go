package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAccountID  = errors.New("conta não pode ser vazia")
	ErrEmptyName       = errors.New("nome não pode ser vazio")
	ErrEmptyDocument   = errors.New("documento não pode ser vazio")
	ErrInvalidDocument = errors.New("documento deve ter 11 (CPF) ou 14 (CNPJ) dígitos")
	ErrNotFound        = errors.New("tomador não encontrado")
)

// Kind distingue tomadores pessoa física de pessoa jurídica
type Kind string

const (
	KindIndividual Kind = "PF"
	KindCompany    Kind = "PJ"
)

// Client representa um tomador de serviço cadastrado por uma conta. A
// unicidade é por (conta, documento); o nome nunca é chave
type Client struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Document  string    `json:"document"`
	Kind      Kind      `json:"kind"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CityCode  string    `json:"city_code,omitempty"`
	CityName  string    `json:"city_name,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Street    string    `json:"street,omitempty"`
	Number    string    `json:"number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClient cria um novo tomador. O tipo (PF ou PJ) é derivado da
// quantidade de dígitos do documento
func NewClient(accountID, name, document string) (*Client, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	if name == "" {
		return nil, ErrEmptyName
	}

	if document == "" {
		return nil, ErrEmptyDocument
	}

	digits := onlyDigits(document)
	var kind Kind
	switch len(digits) {
	case 11:
		kind = KindIndividual
	case 14:
		kind = KindCompany
	default:
		return nil, ErrInvalidDocument
	}

	now := time.Now()
	return &Client{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Name:      name,
		Document:  digits,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update atualiza os dados de contato do tomador
func (c *Client) Update(name, email, phone string) error {
	if name == "" {
		return ErrEmptyName
	}

	c.Name = name
	c.Email = email
	c.Phone = phone
	c.UpdatedAt = time.Now()
	return nil
}

// SetAddress preenche o endereço do tomador
func (c *Client) SetAddress(cityCode, cityName, state, zipCode, street, number string) {
	c.CityCode = cityCode
	c.CityName = cityName
	c.State = state
	c.ZipCode = zipCode
	c.Street = street
	c.Number = number
	c.UpdatedAt = time.Now()
}

func onlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
