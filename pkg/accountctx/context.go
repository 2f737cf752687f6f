package accountctx

import (
	"context"
)

type contextKey string

const (
	// accountIDKey é a chave usada para armazenar o account ID no contexto
	accountIDKey contextKey = "account_id"
)

// SetAccountIDContext define o account ID no contexto
func SetAccountIDContext(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// GetAccountIDFromContext obtém o account ID do contexto
func GetAccountIDFromContext(ctx context.Context) string {
	if accountID, ok := ctx.Value(accountIDKey).(string); ok {
		return accountID
	}
	return ""
}

// GetAccountID obtém o account ID de um contexto do Gin
func GetAccountID(c interface{}) string {
	if gc, ok := c.(interface{ GetString(string) string }); ok {
		return gc.GetString("account_id")
	}

	if gc, ok := c.(interface {
		Get(string) (interface{}, bool)
	}); ok {
		if val, exists := gc.Get("account_id"); exists {
			if accountID, ok := val.(string); ok {
				return accountID
			}
		}
	}

	return ""
}
