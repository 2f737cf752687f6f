package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyName        = errors.New("nome não pode ser vazio")
	ErrEmptyEmail       = errors.New("email não pode ser vazio")
	ErrInvalidPlan      = errors.New("plano inválido")
	ErrAccountNotActive = errors.New("conta não está ativa")
	ErrNotFound         = errors.New("conta não encontrada")
)

// Plan representa o plano de cobrança contratado pela conta
type Plan string

const (
	// PlanFree dá direito a uma franquia mensal pequena de notas sem cobrança
	PlanFree Plan = "gratuito"

	// PlanMEI é a assinatura voltada ao microempreendedor individual
	PlanMEI Plan = "mei"

	// PlanPro é a assinatura com emissão ilimitada
	PlanPro Plan = "profissional"

	// PlanPerUse cobra por nota emitida e exige forma de pagamento
	PlanPerUse Plan = "avulso"
)

// ValidPlan verifica se o plano informado existe
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanMEI, PlanPro, PlanPerUse:
		return true
	}
	return false
}

// Status representa o estado da conta
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Account representa uma conta de usuário do assistente. Cada conta é o
// dono de suas empresas, clientes, notas e histórico de conversa
type Account struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	Password           string    `json:"-"`
	Plan               Plan      `json:"plan"`
	Status             Status    `json:"status"`
	PaymentCustomerRef string    `json:"-"`
	LastLoginAt        time.Time `json:"last_login_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewAccount cria uma nova conta no plano informado
func NewAccount(name, email, phone string, plan Plan) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	if email == "" {
		return nil, ErrEmptyEmail
	}

	if !ValidPlan(plan) {
		return nil, ErrInvalidPlan
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Plan:      plan,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetPassword configura a senha da conta com hash
func (a *Account) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifica se a senha fornecida é válida
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// IsActive verifica se a conta está ativa
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// ChangePlan altera o plano da conta
func (a *Account) ChangePlan(plan Plan) error {
	if !ValidPlan(plan) {
		return ErrInvalidPlan
	}
	a.Plan = plan
	a.UpdatedAt = time.Now()
	return nil
}

// SetPaymentCustomer vincula a conta ao cliente correspondente no gateway
// de pagamento, pré-requisito do plano avulso
func (a *Account) SetPaymentCustomer(ref string) {
	a.PaymentCustomerRef = ref
	a.UpdatedAt = time.Now()
}

// HasPaymentMethod informa se a conta pode ser cobrada por nota
func (a *Account) HasPaymentMethod() bool {
	return a.PaymentCustomerRef != ""
}

// Block bloqueia a conta
func (a *Account) Block() {
	a.Status = StatusBlocked
	a.UpdatedAt = time.Now()
}

// Activate reativa a conta
func (a *Account) Activate() {
	a.Status = StatusActive
	a.UpdatedAt = time.Now()
}

// RegisterLogin registra o instante do último acesso
func (a *Account) RegisterLogin() {
	a.LastLoginAt = time.Now()
	a.UpdatedAt = time.Now()
}
