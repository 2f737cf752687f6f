package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyAccountID = errors.New("conta não pode ser vazia")
	ErrInvalidAmount  = errors.New("valor da cobrança deve ser maior que zero")
	ErrNotFound       = errors.New("cobrança não encontrada")
)

// ChargeStatus representa o resultado da cobrança no gateway de pagamento
type ChargeStatus string

const (
	ChargePaid   ChargeStatus = "paid"
	ChargeFailed ChargeStatus = "failed"
)

// UsageCharge registra uma cobrança avulsa por nota emitida. A cobrança é
// registrada antes da emissão; InvoiceID fica vazio até a nota existir,
// de modo que uma falha posterior deixa trilha auditável
type UsageCharge struct {
	ID          string       `json:"id"`
	AccountID   string       `json:"account_id"`
	InvoiceID   string       `json:"invoice_id,omitempty"`
	AmountCents int64        `json:"amount_cents"`
	Description string       `json:"description"`
	ChargeRef   string       `json:"charge_ref,omitempty"`
	Status      ChargeStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewUsageCharge cria o registro de uma cobrança avulsa
func NewUsageCharge(accountID string, amountCents int64, description string) (*UsageCharge, error) {
	if accountID == "" {
		return nil, ErrEmptyAccountID
	}

	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	return &UsageCharge{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		AmountCents: amountCents,
		Description: description,
		Status:      ChargeFailed,
		CreatedAt:   time.Now(),
	}, nil
}

// MarkPaid registra o aceite da cobrança pelo gateway
func (u *UsageCharge) MarkPaid(chargeRef string) {
	u.Status = ChargePaid
	u.ChargeRef = chargeRef
}
