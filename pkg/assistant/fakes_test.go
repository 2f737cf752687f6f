package assistant_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

type fakeDirectory struct {
	mu      sync.Mutex
	clients []*client.Client
	created int
	err     error
}

func (f *fakeDirectory) FindByDocument(_ context.Context, accountID, document string) (*client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.clients {
		if c.AccountID == accountID && c.Document == document {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) SearchByName(_ context.Context, accountID, name string, limit int) ([]*client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*client.Client
	for _, c := range f.clients {
		if c.AccountID != accountID {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeDirectory) Create(_ context.Context, c *client.Client) (*client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.clients {
		if existing.AccountID == c.AccountID && existing.Document == c.Document {
			return existing, nil
		}
	}
	f.clients = append(f.clients, c)
	f.created++
	return c, nil
}

func (f *fakeDirectory) List(_ context.Context, accountID string, limit int) ([]*client.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*client.Client
	for _, c := range f.clients {
		if c.AccountID == accountID {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeSessions struct {
	mu      sync.Mutex
	pending map[string]assistant.PendingAction
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{pending: make(map[string]assistant.PendingAction)}
}

func (f *fakeSessions) SetPending(_ context.Context, accountID string, p assistant.PendingAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[accountID] = p
	return nil
}

func (f *fakeSessions) GetPending(_ context.Context, accountID string) (*assistant.PendingAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[accountID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeSessions) ClearPending(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, accountID)
	return nil
}

func (f *fakeSessions) has(accountID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[accountID]
	return ok
}

type fakeExecutor struct {
	mu     sync.Mutex
	calls  []*assistant.Action
	result *assistant.ExecutionResult
	err    error
}

func (f *fakeExecutor) Execute(_ context.Context, _, _ string, action *assistant.Action) (*assistant.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, action)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &assistant.ExecutionResult{Message: "feito"}, nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) lastCall() *assistant.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fakeModel struct {
	mu       sync.Mutex
	result   *assistant.ModelResult
	err      error
	calls    int
	messages []assistant.ModelMessage
}

func (f *fakeModel) Complete(_ context.Context, messages []assistant.ModelMessage, _ []assistant.FunctionSchema) (*assistant.ModelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeInvoiceService struct {
	issued   []assistant.IssuanceRequest
	invoice  *invoice.Invoice
	invoices []*invoice.Invoice
	err      error

	recentFrom time.Time
	recentTo   time.Time
}

func (f *fakeInvoiceService) Issue(_ context.Context, req assistant.IssuanceRequest) (*invoice.Invoice, error) {
	f.issued = append(f.issued, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Cancel(_ context.Context, _, _, _ string) (*invoice.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Status(_ context.Context, _, _, _ string) (*invoice.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func (f *fakeInvoiceService) Recent(_ context.Context, _, _ string, from, to time.Time, _ int) ([]*invoice.Invoice, error) {
	f.recentFrom, f.recentTo = from, to
	if f.err != nil {
		return nil, f.err
	}
	return f.invoices, nil
}

type fakeRevenueService struct {
	summary *assistant.RevenueSummary
	err     error
	from    time.Time
	to      time.Time
}

func (f *fakeRevenueService) Summary(_ context.Context, _, _ string, from, to time.Time) (*assistant.RevenueSummary, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &assistant.RevenueSummary{From: from, To: to}, nil
}

func mustClient(t *testing.T, accountID, name, document string) *client.Client {
	t.Helper()
	c, err := client.NewClient(accountID, name, document)
	require.NoError(t, err)
	return c
}

func newTestDispatcher(t *testing.T, dir *fakeDirectory, exec *fakeExecutor, opts ...assistant.DispatcherOption) (*assistant.Dispatcher, *fakeSessions) {
	t.Helper()

	resolver, err := assistant.NewResolver(dir, logger.NewTestLogger())
	require.NoError(t, err)

	sessions := newFakeSessions()
	d, err := assistant.NewDispatcher(resolver, sessions, exec, logger.NewTestLogger(), opts...)
	require.NoError(t, err)
	return d, sessions
}
