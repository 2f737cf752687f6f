package provider

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"

	"github.com/notasimples/nfse-assistente/internal/domain/provider"
)

// newBreaker cria o disjuntor do provedor fiscal. Só indisponibilidade
// conta como falha: recusas de negócio não abrem o circuito
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, provider.ErrUnavailable)
		},
	})
}

// retryOnUnavailable reexecuta fn com backoff exponencial e jitter
// enquanto o erro indicar indisponibilidade; qualquer outro erro
// interrompe na hora
func (g *HTTPGateway) retryOnUnavailable(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, provider.ErrUnavailable) {
			return lastErr
		}

		if attempt == g.maxRetries {
			break
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * g.initialBackoff
		jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))

		g.logger.Warn("provedor fiscal indisponível, aguardando nova tentativa",
			"attempt", attempt+1, "backoff", backoff+jitter, "error", lastErr.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}

	return lastErr
}
