package billing

import (
	"context"
	"time"
)

// Repository define a interface para operações de repositório de cobranças
type Repository interface {
	// Create persiste o registro de uma cobrança
	Create(ctx context.Context, u *UsageCharge) error

	// LinkInvoice associa a cobrança à nota emitida em seguida
	LinkInvoice(ctx context.Context, chargeID, invoiceID string) error

	// List lista as cobranças de uma conta, da mais recente para a mais antiga
	List(ctx context.Context, accountID string, limit, offset int) ([]*UsageCharge, error)

	// SumInMonth soma em centavos as cobranças aceitas da conta no mês
	SumInMonth(ctx context.Context, accountID string, ref time.Time) (int64, error)
}
