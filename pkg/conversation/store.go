package conversation

import (
	"context"
)

// Store define a interface para persistência do histórico de conversas
type Store interface {
	// Append acrescenta um turno ao histórico
	Append(ctx context.Context, turn *Turn) error

	// Recent retorna os turnos mais recentes de uma conta, do mais novo
	// para o mais antigo
	Recent(ctx context.Context, accountID string, limit int) ([]Turn, error)

	// Purge apaga todo o histórico de uma conta
	Purge(ctx context.Context, accountID string) error

	// Count conta quantos turnos uma conta tem
	Count(ctx context.Context, accountID string) (int, error)
}
