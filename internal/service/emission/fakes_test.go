package emission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/billing"
	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type fakeAccounts struct {
	account.Repository
	acc *account.Account
	err error
}

func (f *fakeAccounts) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.acc, nil
}

type fakeCompanies struct {
	company.Repository
	comp        *company.Company
	findErr     error
	updateCalls int
}

func (f *fakeCompanies) FindByID(ctx context.Context, accountID, id string) (*company.Company, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.comp, nil
}

func (f *fakeCompanies) Update(ctx context.Context, c *company.Company) error {
	f.updateCalls++
	return nil
}

type fakeClients struct {
	client.Repository
	cli *client.Client
}

func (f *fakeClients) FindByID(ctx context.Context, accountID, id string) (*client.Client, error) {
	if f.cli == nil || f.cli.ID != id {
		return nil, client.ErrNotFound
	}
	return f.cli, nil
}

type fakeCertificates struct {
	certificate.Repository
	cert *certificate.Certificate
	err  error
}

func (f *fakeCertificates) FindActiveCertificate(ctx context.Context, companyID string) (*certificate.Certificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cert, nil
}

type fakeInvoices struct {
	invoice.Repository
	created      []*invoice.Invoice
	updated      []*invoice.Invoice
	history      []*invoice.StatusChange
	byNumber     map[string]*invoice.Invoice
	byID         map[string]*invoice.Invoice
	latest       *invoice.Invoice
	latestStatus invoice.Status
	processing   []*invoice.Invoice
	listCalls    int
	periodCalls  int
	periodFrom   time.Time
	periodTo     time.Time
	sum          int64
	sumFrom      time.Time
	sumTo        time.Time
	createErr    error
}

func (f *fakeInvoices) Create(ctx context.Context, i *invoice.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, i)
	return nil
}

func (f *fakeInvoices) Update(ctx context.Context, i *invoice.Invoice) error {
	f.updated = append(f.updated, i)
	return nil
}

func (f *fakeInvoices) AppendStatusChange(ctx context.Context, change *invoice.StatusChange) error {
	f.history = append(f.history, change)
	return nil
}

func (f *fakeInvoices) FindByID(ctx context.Context, accountID, id string) (*invoice.Invoice, error) {
	if inv, ok := f.byID[id]; ok {
		return inv, nil
	}
	return nil, invoice.ErrNotFound
}

func (f *fakeInvoices) FindByNumber(ctx context.Context, accountID, companyID, number string) (*invoice.Invoice, error) {
	if inv, ok := f.byNumber[number]; ok {
		return inv, nil
	}
	return nil, invoice.ErrNotFound
}

func (f *fakeInvoices) FindLatest(ctx context.Context, accountID, companyID string, status invoice.Status) (*invoice.Invoice, error) {
	f.latestStatus = status
	if f.latest == nil {
		return nil, invoice.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeInvoices) List(ctx context.Context, accountID, companyID string, limit, offset int) ([]*invoice.Invoice, error) {
	f.listCalls++
	return f.processing, nil
}

func (f *fakeInvoices) ListByPeriod(ctx context.Context, accountID, companyID string, from, to time.Time) ([]*invoice.Invoice, error) {
	f.periodCalls++
	f.periodFrom = from
	f.periodTo = to
	return f.processing, nil
}

func (f *fakeInvoices) ListProcessing(ctx context.Context, limit int) ([]*invoice.Invoice, error) {
	return f.processing, nil
}

func (f *fakeInvoices) SumAuthorizedByPeriod(ctx context.Context, companyID string, from, to time.Time) (int64, error) {
	f.sumFrom = from
	f.sumTo = to
	return f.sum, nil
}

type fakeCharges struct {
	billing.Repository
	created       []*billing.UsageCharge
	createErr     error
	linkedCharge  string
	linkedInvoice string
	linkCalls     int
}

func (f *fakeCharges) Create(ctx context.Context, u *billing.UsageCharge) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, u)
	return nil
}

func (f *fakeCharges) LinkInvoice(ctx context.Context, chargeID, invoiceID string) error {
	f.linkCalls++
	f.linkedCharge = chargeID
	f.linkedInvoice = invoiceID
	return nil
}

type fakeLimits struct {
	limits plan.Limits
	err    error
}

func (f *fakeLimits) CheckInvoiceQuota(ctx context.Context, accountID string) (plan.Limits, error) {
	if f.err != nil {
		return plan.Limits{}, f.err
	}
	return f.limits, nil
}

type fakeGateway struct {
	supported        bool
	supportedErr     error
	emitResult       *provider.EmissionResult
	emitErr          error
	emitCalls        int
	lastEmission     provider.EmissionRequest
	queryResult      *provider.InvoiceStatus
	queryErr         error
	queryCalls       int
	cancelErr        error
	cancelCalls      int
	lastCancelRef    string
	lastCancelReason string
}

func (f *fakeGateway) RegisterCompany(ctx context.Context, reg provider.CompanyRegistration) (string, error) {
	return "prov-comp-1", nil
}

func (f *fakeGateway) CheckConnection(ctx context.Context, companyRef string) (*provider.ConnectionStatus, error) {
	return &provider.ConnectionStatus{Status: "active"}, nil
}

func (f *fakeGateway) MunicipalitySupported(ctx context.Context, cityCode string) (bool, error) {
	if f.supportedErr != nil {
		return false, f.supportedErr
	}
	return f.supported, nil
}

func (f *fakeGateway) EmitInvoice(ctx context.Context, req provider.EmissionRequest) (*provider.EmissionResult, error) {
	f.emitCalls++
	f.lastEmission = req
	if f.emitErr != nil {
		return nil, f.emitErr
	}
	return f.emitResult, nil
}

func (f *fakeGateway) QueryInvoice(ctx context.Context, providerRef string) (*provider.InvoiceStatus, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResult, nil
}

func (f *fakeGateway) CancelInvoice(ctx context.Context, providerRef, reason string) error {
	f.cancelCalls++
	f.lastCancelRef = providerRef
	f.lastCancelReason = reason
	return f.cancelErr
}

type fakePayments struct {
	ref             string
	err             error
	calls           int
	lastCustomer    string
	lastAmount      int64
	lastDescription string
}

func (f *fakePayments) ChargeOnce(ctx context.Context, customerRef string, amountCents int64, description string) (string, error) {
	f.calls++
	f.lastCustomer = customerRef
	f.lastAmount = amountCents
	f.lastDescription = description
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

type fakeNotifier struct {
	kinds    []notification.Kind
	payloads []map[string]string
}

func (f *fakeNotifier) Notify(ctx context.Context, accountID string, kind notification.Kind, payload map[string]string) error {
	f.kinds = append(f.kinds, kind)
	f.payloads = append(f.payloads, payload)
	return nil
}

type fixture struct {
	accounts  *fakeAccounts
	companies *fakeCompanies
	clients   *fakeClients
	certs     *fakeCertificates
	invoices  *fakeInvoices
	charges   *fakeCharges
	limits    *fakeLimits
	gateway   *fakeGateway
	payments  *fakePayments
	notifier  *fakeNotifier
	clock     *fakeClock
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	acc, err := account.NewAccount("Luciano Bernardo", "luciano@example.com", "11999998888", account.PlanMEI)
	require.NoError(t, err)
	acc.PaymentCustomerRef = "cus-1"

	comp, err := company.NewCompany(acc.ID, "Bernardo Serviços ME", "12345678000190", "3550308", company.RegimeSimples)
	require.NoError(t, err)
	comp.SetProviderRef("prov-comp-1")
	comp.ISSRate = 2.0
	comp.ServiceCode = "07.02"
	comp.ServiceDescription = "Serviços de manutenção"

	cli, err := client.NewClient("acc-1", "João Silva", "11144477735")
	require.NoError(t, err)

	cert, err := certificate.NewCertificate(acc.ID, comp.ID, "certificado A1", time.Now().Add(200*24*time.Hour))
	require.NoError(t, err)

	f := &fixture{
		accounts:  &fakeAccounts{acc: acc},
		companies: &fakeCompanies{comp: comp},
		clients:   &fakeClients{cli: cli},
		certs:     &fakeCertificates{cert: cert},
		invoices:  &fakeInvoices{},
		charges:   &fakeCharges{},
		limits:    &fakeLimits{limits: plan.LimitsFor(account.PlanMEI)},
		gateway: &fakeGateway{
			supported:   true,
			emitResult:  &provider.EmissionResult{ProviderRef: "prov-ref-1", Status: provider.StatusProcessing},
			queryResult: &provider.InvoiceStatus{Status: provider.StatusProcessing},
		},
		payments: &fakePayments{ref: "ch-1"},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{t: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)},
	}

	svc, err := NewService(Deps{
		Accounts:     f.accounts,
		Companies:    f.companies,
		Clients:      f.clients,
		Certificates: f.certs,
		Invoices:     f.invoices,
		Charges:      f.charges,
		Limits:       f.limits,
		Gateway:      f.gateway,
		Payments:     f.payments,
		Notifier:     f.notifier,
		Logger:       logger.NewTestLogger(),
	}, WithClock(f.clock.Now))
	require.NoError(t, err)

	f.svc = svc
	return f
}

func (f *fixture) request() assistant.IssuanceRequest {
	return assistant.IssuanceRequest{
		AccountID:   "acc-1",
		CompanyID:   "comp-1",
		ClientID:    f.clients.cli.ID,
		AmountCents: 150000,
		ServiceCode: "01.01",
		ServiceText: "Prestação de serviços",
	}
}
