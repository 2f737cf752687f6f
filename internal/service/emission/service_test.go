package emission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/billing"
	"github.com/notasimples/nfse-assistente/internal/domain/company"
	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/internal/domain/payment"
	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/internal/service/plan"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
)

func TestIssueSendsInvoiceToProvider(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusProcessing, inv.Status)
	assert.Equal(t, "prov-ref-1", inv.ProviderRef)
	assert.Equal(t, int64(150000), inv.AmountCents)
	assert.Equal(t, "João Silva", inv.ClientName)

	require.Len(t, f.invoices.created, 1)
	require.Len(t, f.invoices.updated, 1)

	sent := f.gateway.lastEmission
	assert.Equal(t, "prov-comp-1", sent.CompanyRef)
	assert.Equal(t, "11144477735", sent.ClientDocument)
	assert.Equal(t, "01.01", sent.ServiceCode)
	assert.Equal(t, 2.0, sent.ISSRate)
	assert.Equal(t, "1", sent.RPSSeries)
	assert.Equal(t, int64(1), sent.RPSNumber)
	assert.Equal(t, 1, f.companies.updateCalls)

	require.Len(t, f.invoices.history, 2)
	assert.Equal(t, invoice.StatusDraft, f.invoices.history[0].Status)
	assert.Equal(t, invoice.StatusProcessing, f.invoices.history[1].Status)
}

func TestIssueSynchronousAuthorization(t *testing.T) {
	f := newFixture(t)
	f.gateway.emitResult = &provider.EmissionResult{
		ProviderRef:     "prov-ref-1",
		Status:          provider.StatusAuthorized,
		Number:          "4587",
		VerificationURL: "https://nfse.example/verifica/abc",
	}

	inv, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusAuthorized, inv.Status)
	assert.Equal(t, "4587", inv.Number)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceAuthorized}, f.notifier.kinds)
}

func TestIssueSynchronousRejectionReturnsInvoice(t *testing.T) {
	f := newFixture(t)
	f.gateway.emitResult = &provider.EmissionResult{
		ProviderRef:     "prov-ref-1",
		Status:          provider.StatusRejected,
		RejectionReason: "CPF do tomador inválido",
	}

	inv, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusRejected, inv.Status)
	assert.Equal(t, "CPF do tomador inválido", inv.RejectionReason)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceRejected}, f.notifier.kinds)
}

func TestIssueQuotaExceededBlocksEverything(t *testing.T) {
	f := newFixture(t)
	f.limits.err = apperr.New(apperr.CodeQuotaExceeded, "franquia atingida")

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeQuotaExceeded))
	assert.Empty(t, f.invoices.created)
	assert.Zero(t, f.gateway.emitCalls)
	assert.Zero(t, f.payments.calls)
}

func TestIssuePerUseChargesAndLinks(t *testing.T) {
	f := newFixture(t)
	f.limits.limits = plan.LimitsFor(account.PlanPerUse)

	inv, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, 1, f.payments.calls)
	assert.Equal(t, "cus-1", f.payments.lastCustomer)
	assert.Equal(t, int64(199), f.payments.lastAmount)

	require.Len(t, f.charges.created, 1)
	charge := f.charges.created[0]
	assert.Equal(t, billing.ChargePaid, charge.Status)
	assert.Equal(t, "ch-1", charge.ChargeRef)

	assert.Equal(t, 1, f.charges.linkCalls)
	assert.Equal(t, charge.ID, f.charges.linkedCharge)
	assert.Equal(t, inv.ID, f.charges.linkedInvoice)
}

func TestIssuePerUseDeclinedRecordsFailedCharge(t *testing.T) {
	f := newFixture(t)
	f.limits.limits = plan.LimitsFor(account.PlanPerUse)
	f.payments.err = payment.ErrDeclined

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeChargeDeclined))

	require.Len(t, f.charges.created, 1)
	assert.Equal(t, billing.ChargeFailed, f.charges.created[0].Status)
	assert.Empty(t, f.charges.created[0].InvoiceID)

	assert.Empty(t, f.invoices.created)
	assert.Zero(t, f.gateway.emitCalls)
}

func TestIssuePerUseWithoutPaymentMethod(t *testing.T) {
	f := newFixture(t)
	f.limits.limits = plan.LimitsFor(account.PlanPerUse)
	f.accounts.acc.PaymentCustomerRef = ""

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNoPaymentMethod))
	assert.Zero(t, f.payments.calls)
	assert.Empty(t, f.charges.created)
}

func TestIssueUnregisteredCompany(t *testing.T) {
	f := newFixture(t)
	f.companies.comp.ProviderRef = ""

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCompanyNotRegistered))
	assert.Zero(t, f.gateway.emitCalls)
}

func TestIssueMunicipalityUnsupportedWithMalformedCode(t *testing.T) {
	f := newFixture(t)
	f.gateway.supported = false
	f.companies.comp.CityCode = "35"

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeMunicipalityUnsupported))
	assert.Zero(t, f.gateway.emitCalls)
}

func TestIssueMunicipalityUnconfirmedOnlyWarns(t *testing.T) {
	f := newFixture(t)
	f.gateway.supported = false

	inv, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusProcessing, inv.Status)
	assert.Equal(t, 1, f.gateway.emitCalls)
}

func TestIssueMunicipalityCheckFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.gateway.supportedErr = provider.ErrUnavailable

	_, err := f.svc.Issue(context.Background(), f.request())

	require.NoError(t, err)
	assert.Equal(t, 1, f.gateway.emitCalls)
}

func TestIssueWithoutActiveCertificate(t *testing.T) {
	f := newFixture(t)
	f.certs.cert = nil

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCertificateMissing))
}

func TestIssueWithExpiredCertificate(t *testing.T) {
	f := newFixture(t)
	f.certs.cert.ExpirationDate = time.Now().Add(-24 * time.Hour)

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCertificateExpired))
}

func TestIssueUnknownClient(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.ClientID = "nao-existe"

	_, err := f.svc.Issue(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeClientUnresolved))
}

func TestIssueMEIForcesFixedISSRate(t *testing.T) {
	f := newFixture(t)
	f.companies.comp.Regime = company.RegimeMEI
	req := f.request()
	req.ISSRate = 2.0

	inv, err := f.svc.Issue(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 5.0, inv.ISSRate)
	assert.Equal(t, 5.0, f.gateway.lastEmission.ISSRate)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), f.invoices.sumFrom)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), f.invoices.sumTo)
}

func TestIssueMEICeilingBlocksWithoutInvoiceRecord(t *testing.T) {
	f := newFixture(t)
	f.companies.comp.Regime = company.RegimeMEI
	f.invoices.sum = 8_000_000
	req := f.request()
	req.AmountCents = 200_000

	_, err := f.svc.Issue(context.Background(), req)

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeRevenueCeilingExceeded))
	assert.Empty(t, f.invoices.created)
	assert.Zero(t, f.gateway.emitCalls)
}

func TestIssueMEIAtCeilingBoundaryPasses(t *testing.T) {
	f := newFixture(t)
	f.companies.comp.Regime = company.RegimeMEI
	f.invoices.sum = 8_000_000
	req := f.request()
	req.AmountCents = 100_000

	_, err := f.svc.Issue(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, f.gateway.emitCalls)
}

func TestIssueProviderFailureKeepsDraftWithHistory(t *testing.T) {
	f := newFixture(t)
	f.gateway.emitErr = provider.ErrUnavailable

	_, err := f.svc.Issue(context.Background(), f.request())

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeProviderUnavailable))

	ae, ok := apperr.From(err)
	require.True(t, ok)
	assert.True(t, ae.Retryable)

	require.Len(t, f.invoices.created, 1)
	assert.Equal(t, invoice.StatusDraft, f.invoices.created[0].Status)

	require.Len(t, f.invoices.history, 2)
	assert.Contains(t, f.invoices.history[1].Detail, "falha na emissão")
}

func TestIssueDefaultsServiceFromCompany(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.ServiceCode = ""
	req.ServiceText = ""

	_, err := f.svc.Issue(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "07.02", f.gateway.lastEmission.ServiceCode)
	assert.Equal(t, "Serviços de manutenção", f.gateway.lastEmission.ServiceDescription)
}

func TestCancelAuthorizedInvoice(t *testing.T) {
	f := newFixture(t)
	inv := authorizedInvoice(t, "4587")
	f.invoices.byNumber = map[string]*invoice.Invoice{"4587": inv}

	canceled, err := f.svc.Cancel(context.Background(), "acc-1", "comp-1", "4587")

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusCanceled, canceled.Status)
	assert.Equal(t, 1, f.gateway.cancelCalls)
	assert.Equal(t, "prov-ref-1", f.gateway.lastCancelRef)
	assert.NotEmpty(t, f.gateway.lastCancelReason, "o provedor exige o motivo do cancelamento")
	assert.Equal(t, []notification.Kind{notification.KindInvoiceCanceled}, f.notifier.kinds)
	require.Len(t, f.invoices.updated, 1)
}

func TestCancelWithoutRefUsesLatestAuthorized(t *testing.T) {
	f := newFixture(t)
	f.invoices.latest = authorizedInvoice(t, "99")

	_, err := f.svc.Cancel(context.Background(), "acc-1", "comp-1", "")

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusAuthorized, f.invoices.latestStatus)
}

func TestCancelRejectsProcessingInvoice(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.byNumber = map[string]*invoice.Invoice{"4587": inv}

	_, err := f.svc.Cancel(context.Background(), "acc-1", "comp-1", "4587")

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
	assert.Zero(t, f.gateway.cancelCalls)
}

func TestCancelUnknownInvoice(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(context.Background(), "acc-1", "comp-1", "123")

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestStatusRefreshesProcessingInvoice(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.byID = map[string]*invoice.Invoice{inv.ID: inv}
	f.gateway.queryResult = &provider.InvoiceStatus{
		Status: provider.StatusAuthorized,
		Number: "4588",
	}

	got, err := f.svc.Status(context.Background(), "acc-1", "comp-1", inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusAuthorized, got.Status)
	assert.Equal(t, "4588", got.Number)
	require.Len(t, f.invoices.updated, 1)
	assert.Equal(t, []notification.Kind{notification.KindInvoiceAuthorized}, f.notifier.kinds)
}

func TestStatusProviderErrorKeepsLocalState(t *testing.T) {
	f := newFixture(t)
	inv := processingInvoice(t)
	f.invoices.byID = map[string]*invoice.Invoice{inv.ID: inv}
	f.gateway.queryErr = provider.ErrUnavailable

	got, err := f.svc.Status(context.Background(), "acc-1", "comp-1", inv.ID)

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusProcessing, got.Status)
	assert.Empty(t, f.invoices.updated)
}

func TestStatusFinalInvoiceSkipsProvider(t *testing.T) {
	f := newFixture(t)
	inv := authorizedInvoice(t, "4587")
	f.invoices.byNumber = map[string]*invoice.Invoice{"4587": inv}

	got, err := f.svc.Status(context.Background(), "acc-1", "comp-1", "4587")

	require.NoError(t, err)
	assert.Equal(t, invoice.StatusAuthorized, got.Status)
	assert.Zero(t, f.gateway.queryCalls)
}

func TestRecentWithPeriodFilters(t *testing.T) {
	f := newFixture(t)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Recent(context.Background(), "acc-1", "comp-1", from, to, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, f.invoices.periodCalls)
	assert.Equal(t, from, f.invoices.periodFrom)
	assert.Zero(t, f.invoices.listCalls)
}

func TestRecentWithoutPeriodLists(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Recent(context.Background(), "acc-1", "comp-1", time.Time{}, time.Time{}, 10)

	require.NoError(t, err)
	assert.Equal(t, 1, f.invoices.listCalls)
	assert.Zero(t, f.invoices.periodCalls)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(Deps{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "repositório de contas")
}

func authorizedInvoice(t *testing.T, number string) *invoice.Invoice {
	t.Helper()
	inv := processingInvoice(t)
	require.NoError(t, inv.MarkAuthorized(number, "https://nfse.example/verifica/abc", ""))
	return inv
}

func processingInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice("acc-1", "comp-1", "cli-1", "João Silva",
		150000, "01.01", "Prestação de serviços", 2.0)
	require.NoError(t, err)
	require.NoError(t, inv.MarkProcessing("prov-ref-1"))
	return inv
}
