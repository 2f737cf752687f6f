package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notasimples/nfse-assistente/pkg/conversation"
)

// ConversationRepository implementa a interface conversation.Store
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository cria uma nova instância de ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) conversation.Store {
	return &ConversationRepository{
		db: db,
	}
}

// Append implementa o método Append da interface conversation.Store
func (r *ConversationRepository) Append(ctx context.Context, turn *conversation.Turn) error {
	metadata, err := json.Marshal(turn.Metadata)
	if err != nil {
		return fmt.Errorf("erro ao serializar metadados do turno: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO conversation_turns (id, account_id, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.ID, turn.AccountID, turn.Role, turn.Content, metadata, turn.CreatedAt)

	if err != nil {
		return fmt.Errorf("erro ao gravar turno da conversa: %w", err)
	}

	return nil
}

// Recent implementa o método Recent da interface conversation.Store
func (r *ConversationRepository) Recent(ctx context.Context, accountID string, limit int) ([]conversation.Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, account_id, role, content, metadata, created_at
		FROM conversation_turns
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar histórico da conversa: %w", err)
	}
	defer rows.Close()

	turns := []conversation.Turn{}
	for rows.Next() {
		var turn conversation.Turn
		var metadataJSON []byte
		err := rows.Scan(&turn.ID, &turn.AccountID, &turn.Role, &turn.Content, &metadataJSON, &turn.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("erro ao ler turno da conversa: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("erro ao deserializar metadados do turno: %w", err)
			}
		}

		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar turnos da conversa: %w", err)
	}

	return turns, nil
}

// Purge implementa o método Purge da interface conversation.Store
func (r *ConversationRepository) Purge(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM conversation_turns WHERE account_id = $1", accountID)
	if err != nil {
		return fmt.Errorf("erro ao apagar histórico da conversa: %w", err)
	}

	return nil
}

// Count implementa o método Count da interface conversation.Store
func (r *ConversationRepository) Count(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM conversation_turns WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("erro ao contar turnos da conversa: %w", err)
	}

	return count, nil
}
