package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role identifica o autor de um turno da conversa
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn representa um turno no histórico da conversa. O histórico é um log
// de apêndice: turnos nunca são alterados depois de criados.
type Turn struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewTurn cria um novo turno de conversa
func NewTurn(accountID string, role Role, content string) *Turn {
	return &Turn{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// WithMetadata anexa metadados ao turno
func (t *Turn) WithMetadata(key, value string) *Turn {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	t.Metadata[key] = value
	return t
}
