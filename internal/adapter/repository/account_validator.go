package repository

import (
	"context"
	"errors"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/pkg/accountctx"
	"github.com/notasimples/nfse-assistente/pkg/cache"
)

// validationTTL limita a janela em que uma conta recém-bloqueada ainda
// passa na validação cacheada
const validationTTL = 30 * time.Second

// AccountValidator implementa accountctx.AccountValidator consultando o
// repositório com um cache curto, já que a validação roda a cada requisição
type AccountValidator struct {
	repository account.Repository
	results    *cache.TTL[bool]
}

// NewAccountValidator cria uma nova instância de AccountValidator
func NewAccountValidator(repository account.Repository) accountctx.AccountValidator {
	return &AccountValidator{
		repository: repository,
		results:    cache.New[bool](validationTTL),
	}
}

// ValidateAccount verifica se a conta existe e está ativa
func (v *AccountValidator) ValidateAccount(accountID string) (bool, error) {
	if valid, ok := v.results.Get(accountID); ok {
		return valid, nil
	}

	a, err := v.repository.FindByID(context.Background(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			v.results.Set(accountID, false)
			return false, nil
		}
		return false, err
	}

	valid := a.IsActive()
	v.results.Set(accountID, valid)
	return valid, nil
}
