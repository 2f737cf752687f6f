package accountctx

import "errors"

// Erros comuns relacionados a operações de conta
var (
	// ErrAccountNotSpecified ocorre quando um ID de conta não é fornecido
	ErrAccountNotSpecified = errors.New("account ID não especificado")

	// ErrAccountNotFound ocorre quando uma conta não é encontrada
	ErrAccountNotFound = errors.New("conta não encontrada")

	// ErrAccountNotActive ocorre quando uma conta não está com status ativo
	ErrAccountNotActive = errors.New("conta não está ativa")
)
