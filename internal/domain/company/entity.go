package company

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAccountID     = errors.New("conta não pode ser vazia")
	ErrEmptyName          = errors.New("razão social não pode ser vazia")
	ErrEmptyDocument      = errors.New("CNPJ não pode ser vazio")
	ErrInvalidDocument    = errors.New("CNPJ deve ter 14 dígitos")
	ErrEmptyCityCode      = errors.New("código IBGE do município não pode ser vazio")
	ErrInvalidRegime      = errors.New("regime tributário inválido")
	ErrNotRegistered      = errors.New("empresa ainda não registrada no provedor fiscal")
	ErrCompanyNotActive   = errors.New("empresa não está ativa")
	ErrInvalidServiceCode = errors.New("código de serviço inválido")
	ErrNotFound           = errors.New("empresa não encontrada")
)

// TaxRegime representa o regime tributário da empresa emissora
type TaxRegime string

const (
	// RegimeMEI tem alíquota fixa de ISS e teto anual de faturamento
	RegimeMEI TaxRegime = "mei"

	// RegimeSimples segue as alíquotas do Simples Nacional
	RegimeSimples TaxRegime = "simples"

	// RegimePresumido é o lucro presumido
	RegimePresumido TaxRegime = "presumido"

	// RegimeReal é o lucro real
	RegimeReal TaxRegime = "real"
)

// ValidRegime verifica se o regime informado existe
func ValidRegime(r TaxRegime) bool {
	switch r {
	case RegimeMEI, RegimeSimples, RegimePresumido, RegimeReal:
		return true
	}
	return false
}

// Status representa o estado da empresa
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Company representa uma empresa emissora de NFS-e pertencente a uma conta
type Company struct {
	ID                    string    `json:"id"`
	AccountID             string    `json:"account_id"`
	Name                  string    `json:"name"`
	TradeName             string    `json:"trade_name"`
	Document              string    `json:"document"`
	Email                 string    `json:"email"`
	MunicipalRegistration string    `json:"municipal_registration"`
	CityCode              string    `json:"city_code"`
	CityName              string    `json:"city_name"`
	State                 string    `json:"state"`
	Regime                TaxRegime `json:"regime"`
	ISSRate               float64   `json:"iss_rate"`
	ServiceCode           string    `json:"service_code"`
	ServiceDescription    string    `json:"service_description"`
	RPSSeries             string    `json:"rps_series"`
	RPSNumber             int64     `json:"rps_number"`
	ProviderRef           string    `json:"provider_ref,omitempty"`
	Status                Status    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewCompany cria uma nova empresa emissora
func NewCompany(accountID, name, document, cityCode string, regime TaxRegime) (*Company, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	if name == "" {
		return nil, ErrEmptyName
	}

	if document == "" {
		return nil, ErrEmptyDocument
	}

	if len(onlyDigits(document)) != 14 {
		return nil, ErrInvalidDocument
	}

	if cityCode == "" {
		return nil, ErrEmptyCityCode
	}

	if !ValidRegime(regime) {
		return nil, ErrInvalidRegime
	}

	now := time.Now()
	return &Company{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Name:      name,
		Document:  onlyDigits(document),
		CityCode:  cityCode,
		Regime:    regime,
		RPSSeries: "1",
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsMEI informa se a empresa está no regime MEI
func (c *Company) IsMEI() bool {
	return c.Regime == RegimeMEI
}

// IsRegisteredWithProvider informa se a empresa já foi registrada no
// provedor fiscal e pode emitir notas
func (c *Company) IsRegisteredWithProvider() bool {
	return c.ProviderRef != ""
}

// SetProviderRef vincula a empresa ao cadastro correspondente no provedor
func (c *Company) SetProviderRef(ref string) {
	c.ProviderRef = ref
	c.UpdatedAt = time.Now()
}

// IsActive verifica se a empresa está ativa
func (c *Company) IsActive() bool {
	return c.Status == StatusActive
}

// Update atualiza os dados cadastrais da empresa
func (c *Company) Update(name, tradeName, email, municipalRegistration string) error {
	if name == "" {
		return ErrEmptyName
	}

	c.Name = name
	c.TradeName = tradeName
	c.Email = email
	c.MunicipalRegistration = municipalRegistration
	c.UpdatedAt = time.Now()
	return nil
}

// NextRPS avança a numeração de RPS da empresa e devolve o número a usar
// na próxima emissão. A numeração não é transacional; colisões são
// resolvidas pelo provedor fiscal
func (c *Company) NextRPS() int64 {
	c.RPSNumber++
	c.UpdatedAt = time.Now()
	return c.RPSNumber
}

// SetDefaultService define o serviço padrão usado quando a mensagem não
// descreve o serviço prestado
func (c *Company) SetDefaultService(code, description string, issRate float64) error {
	if code == "" {
		return ErrInvalidServiceCode
	}

	c.ServiceCode = code
	c.ServiceDescription = description
	c.ISSRate = issRate
	c.UpdatedAt = time.Now()
	return nil
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
