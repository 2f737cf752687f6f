package emission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
)

func newTestPoller(t *testing.T, f *fixture, cfg PollerConfig) *Poller {
	t.Helper()
	p, err := NewPoller(f.svc, cfg)
	require.NoError(t, err)
	return p
}

func TestPollerResolvesAuthorizedInvoice(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.processing = []*invoice.Invoice{inv}
	f.gateway.queryResult = &provider.InvoiceStatus{
		Status: provider.StatusAuthorized,
		Number: "4601",
	}
	p := newTestPoller(t, f, PollerConfig{})

	p.tick(context.Background())

	assert.Equal(t, invoice.StatusAuthorized, inv.Status)
	assert.Equal(t, "4601", inv.Number)
	require.Len(t, f.invoices.updated, 1)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceAuthorized}, f.notifier.kinds)
	assert.Empty(t, p.states)
}

func TestPollerRecordsRejection(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.processing = []*invoice.Invoice{inv}
	f.gateway.queryResult = &provider.InvoiceStatus{
		Status:          provider.StatusRejected,
		RejectionReason: "serviço não permitido para o cadastro",
	}
	p := newTestPoller(t, f, PollerConfig{})

	p.tick(context.Background())

	assert.Equal(t, invoice.StatusRejected, inv.Status)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceRejected}, f.notifier.kinds)
}

func TestPollerBacksOffBetweenChecks(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.processing = []*invoice.Invoice{inv}
	p := newTestPoller(t, f, PollerConfig{BaseBackoff: time.Minute})

	p.tick(context.Background())
	p.tick(context.Background())

	assert.Equal(t, 1, f.gateway.queryCalls)

	f.clock.advance(61 * time.Second)
	p.tick(context.Background())

	assert.Equal(t, 2, f.gateway.queryCalls)
}

func TestPollerGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.processing = []*invoice.Invoice{inv}
	p := newTestPoller(t, f, PollerConfig{MaxAttempts: 2, BaseBackoff: time.Minute})

	p.tick(context.Background())
	f.clock.advance(2 * time.Minute)
	p.tick(context.Background())

	assert.Equal(t, 2, f.gateway.queryCalls)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceStuck}, f.notifier.kinds)

	f.clock.advance(time.Hour)
	p.tick(context.Background())

	assert.Equal(t, 2, f.gateway.queryCalls, "nota abandonada não volta a ser consultada")
	assert.Len(t, f.notifier.kinds, 1)
}

func TestPollerSkipsUntilNextAttempt(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.processing = []*invoice.Invoice{inv}
	f.gateway.queryErr = provider.ErrUnavailable
	p := newTestPoller(t, f, PollerConfig{BaseBackoff: 10 * time.Minute})

	p.tick(context.Background())
	f.clock.advance(5 * time.Minute)
	p.tick(context.Background())

	assert.Equal(t, 1, f.gateway.queryCalls)
}

func TestPollerPrunesResolvedInvoices(t *testing.T) {
	f := newFixture(t)
	p := newTestPoller(t, f, PollerConfig{})
	p.states["sumida"] = pollState{attempts: 3}

	p.tick(context.Background())

	assert.Empty(t, p.states)
}

func TestPollerBackoffProgression(t *testing.T) {
	f := newFixture(t)
	p := newTestPoller(t, f, PollerConfig{BaseBackoff: time.Minute, MaxBackoff: 30 * time.Minute})

	assert.Equal(t, time.Minute, p.backoff(1))
	assert.Equal(t, 2*time.Minute, p.backoff(2))
	assert.Equal(t, 4*time.Minute, p.backoff(3))
	assert.Equal(t, 16*time.Minute, p.backoff(5))
	assert.Equal(t, 30*time.Minute, p.backoff(7))
	assert.Equal(t, 30*time.Minute, p.backoff(20))
}

func TestPollerRunStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	p := newTestPoller(t, f, PollerConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("verificador não encerrou após o cancelamento do contexto")
	}
}

func TestPollerConfigDefaults(t *testing.T) {
	cfg := PollerConfig{}.withDefaults()

	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 20, cfg.Batch)
	assert.Equal(t, 12, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.BaseBackoff)
	assert.Equal(t, 30*time.Minute, cfg.MaxBackoff)
}
