package payment

import (
	"context"
	"errors"
)

var (
	// ErrNoPaymentMethod indica cliente de cobrança sem forma de pagamento válida
	ErrNoPaymentMethod = errors.New("nenhuma forma de pagamento cadastrada")

	// ErrDeclined indica cobrança recusada pelo gateway de pagamento
	ErrDeclined = errors.New("cobrança recusada pelo gateway de pagamento")

	// ErrUnavailable indica falha de transporte ou indisponibilidade do gateway
	ErrUnavailable = errors.New("gateway de pagamento indisponível")
)

// Processor é o contrato de cobrança avulsa consumido pelo orquestrador de
// emissão. A implementação concreta fala HTTP com o gateway de pagamento e
// traduz as falhas para os erros deste pacote
type Processor interface {
	// ChargeOnce cobra o cliente de pagamento uma única vez e devolve a
	// referência da transação no gateway
	ChargeOnce(ctx context.Context, customerRef string, amountCents int64, description string) (string, error)
}
