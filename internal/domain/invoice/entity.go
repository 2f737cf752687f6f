package invoice

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAccountID    = errors.New("conta não pode ser vazia")
	ErrEmptyCompanyID    = errors.New("empresa não pode ser vazia")
	ErrEmptyClientID     = errors.New("tomador não pode ser vazio")
	ErrInvalidAmount     = errors.New("valor da nota deve ser maior que zero")
	ErrEmptyServiceCode  = errors.New("código de serviço não pode ser vazio")
	ErrInvalidTransition = errors.New("transição de status inválida")
	ErrNotCancelable     = errors.New("apenas notas autorizadas podem ser canceladas")
	ErrNotFound          = errors.New("nota não encontrada")
)

// Status representa o ciclo de vida de uma NFS-e
type Status string

const (
	// StatusDraft é a nota montada e ainda não enviada ao provedor
	StatusDraft Status = "draft"

	// StatusProcessing é a nota aceita pelo provedor e aguardando a prefeitura
	StatusProcessing Status = "processing"

	// StatusAuthorized é a nota autorizada pela prefeitura
	StatusAuthorized Status = "authorized"

	// StatusRejected é a nota recusada pela prefeitura ou pelo provedor
	StatusRejected Status = "rejected"

	// StatusCanceled é a nota cancelada após autorização
	StatusCanceled Status = "canceled"
)

// IsFinal informa se o status encerra o acompanhamento da nota
func (s Status) IsFinal() bool {
	return s == StatusAuthorized || s == StatusRejected || s == StatusCanceled
}

// Invoice representa uma NFS-e emitida por uma empresa para um tomador
type Invoice struct {
	ID                 string    `json:"id"`
	AccountID          string    `json:"account_id"`
	CompanyID          string    `json:"company_id"`
	ClientID           string    `json:"client_id"`
	ClientName         string    `json:"client_name"`
	Number             string    `json:"number,omitempty"`
	ProviderRef        string    `json:"provider_ref,omitempty"`
	AmountCents        int64     `json:"amount_cents"`
	ServiceCode        string    `json:"service_code"`
	ServiceDescription string    `json:"service_description"`
	ISSRate            float64   `json:"iss_rate"`
	Status             Status    `json:"status"`
	RejectionReason    string    `json:"rejection_reason,omitempty"`
	VerificationURL    string    `json:"verification_url,omitempty"`
	PDFURL             string    `json:"pdf_url,omitempty"`
	IssuedAt           time.Time `json:"issued_at"`
	AuthorizedAt       time.Time `json:"authorized_at,omitempty"`
	CanceledAt         time.Time `json:"canceled_at,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// StatusChange registra uma mudança de status para auditoria
type StatusChange struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Status    Status    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStatusChange cria um registro de mudança de status
func NewStatusChange(invoiceID string, status Status, detail string) *StatusChange {
	return &StatusChange{
		ID:        uuid.New().String(),
		InvoiceID: invoiceID,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

// NewInvoice cria uma nota em rascunho pronta para envio ao provedor
func NewInvoice(accountID, companyID, clientID, clientName string, amountCents int64, serviceCode, serviceDescription string, issRate float64) (*Invoice, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	if companyID == "" {
		return nil, ErrEmptyCompanyID
	}

	if clientID == "" {
		return nil, ErrEmptyClientID
	}

	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	if serviceCode == "" {
		return nil, ErrEmptyServiceCode
	}

	now := time.Now()
	return &Invoice{
		ID:                 uuid.New().String(),
		AccountID:          accountID,
		CompanyID:          companyID,
		ClientID:           clientID,
		ClientName:         clientName,
		AmountCents:        amountCents,
		ServiceCode:        serviceCode,
		ServiceDescription: serviceDescription,
		ISSRate:            issRate,
		Status:             StatusDraft,
		IssuedAt:           now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ISSAmountCents calcula o ISS devido sobre o valor da nota
func (i *Invoice) ISSAmountCents() int64 {
	return int64(math.Round(float64(i.AmountCents) * i.ISSRate / 100))
}

// MarkProcessing registra o aceite do provedor e a referência para consulta
func (i *Invoice) MarkProcessing(providerRef string) error {
	if i.Status != StatusDraft {
		return ErrInvalidTransition
	}

	i.Status = StatusProcessing
	i.ProviderRef = providerRef
	i.UpdatedAt = time.Now()
	return nil
}

// MarkAuthorized registra a autorização da prefeitura
func (i *Invoice) MarkAuthorized(number, verificationURL, pdfURL string) error {
	if i.Status != StatusDraft && i.Status != StatusProcessing {
		return ErrInvalidTransition
	}

	i.Status = StatusAuthorized
	i.Number = number
	i.VerificationURL = verificationURL
	i.PDFURL = pdfURL
	i.AuthorizedAt = time.Now()
	i.UpdatedAt = time.Now()
	return nil
}

// MarkRejected registra a recusa com o motivo reportado
func (i *Invoice) MarkRejected(reason string) error {
	if i.Status.IsFinal() {
		return ErrInvalidTransition
	}

	i.Status = StatusRejected
	i.RejectionReason = reason
	i.UpdatedAt = time.Now()
	return nil
}

// MarkCanceled registra o cancelamento de uma nota autorizada
func (i *Invoice) MarkCanceled() error {
	if i.Status != StatusAuthorized {
		return ErrNotCancelable
	}

	i.Status = StatusCanceled
	i.CanceledAt = time.Now()
	i.UpdatedAt = time.Now()
	return nil
}
