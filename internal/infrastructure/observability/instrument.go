package observability

import (
	"context"
	"errors"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
)

// InstrumentGateway decora o gateway fiscal medindo duração e resultado de
// cada operação
func (m *Metrics) InstrumentGateway(next provider.Gateway) provider.Gateway {
	return &instrumentedGateway{next: next, metrics: m}
}

type instrumentedGateway struct {
	next    provider.Gateway
	metrics *Metrics
}

func (g *instrumentedGateway) RegisterCompany(ctx context.Context, reg provider.CompanyRegistration) (string, error) {
	start := time.Now()
	ref, err := g.next.RegisterCompany(ctx, reg)
	g.metrics.ObserveProvider("register_company", providerOutcome(err), time.Since(start))
	return ref, err
}

func (g *instrumentedGateway) CheckConnection(ctx context.Context, companyRef string) (*provider.ConnectionStatus, error) {
	start := time.Now()
	status, err := g.next.CheckConnection(ctx, companyRef)
	g.metrics.ObserveProvider("check_connection", providerOutcome(err), time.Since(start))
	return status, err
}

func (g *instrumentedGateway) MunicipalitySupported(ctx context.Context, cityCode string) (bool, error) {
	start := time.Now()
	supported, err := g.next.MunicipalitySupported(ctx, cityCode)
	g.metrics.ObserveProvider("municipality_supported", providerOutcome(err), time.Since(start))
	return supported, err
}

func (g *instrumentedGateway) EmitInvoice(ctx context.Context, req provider.EmissionRequest) (*provider.EmissionResult, error) {
	start := time.Now()
	result, err := g.next.EmitInvoice(ctx, req)
	g.metrics.ObserveProvider("emit_invoice", providerOutcome(err), time.Since(start))

	if err == nil {
		g.metrics.IncrEmission(string(result.Status))
	} else {
		g.metrics.IncrEmission(providerOutcome(err))
	}
	return result, err
}

func (g *instrumentedGateway) QueryInvoice(ctx context.Context, providerRef string) (*provider.InvoiceStatus, error) {
	start := time.Now()
	status, err := g.next.QueryInvoice(ctx, providerRef)
	g.metrics.ObserveProvider("query_invoice", providerOutcome(err), time.Since(start))
	return status, err
}

func (g *instrumentedGateway) CancelInvoice(ctx context.Context, providerRef, reason string) error {
	start := time.Now()
	err := g.next.CancelInvoice(ctx, providerRef, reason)
	g.metrics.ObserveProvider("cancel_invoice", providerOutcome(err), time.Since(start))
	return err
}

func providerOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, provider.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, provider.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, provider.ErrRefused):
		return "refused"
	case errors.Is(err, provider.ErrNotFound):
		return "not_found"
	case errors.Is(err, provider.ErrMalformedResponse):
		return "malformed"
	}
	return "error"
}

// InstrumentModel decora o modelo de linguagem medindo duração e o tipo de
// resposta devolvida
func (m *Metrics) InstrumentModel(next assistant.LanguageModel) assistant.LanguageModel {
	return &instrumentedModel{next: next, metrics: m}
}

type instrumentedModel struct {
	next    assistant.LanguageModel
	metrics *Metrics
}

func (im *instrumentedModel) Complete(ctx context.Context, messages []assistant.ModelMessage, functions []assistant.FunctionSchema) (*assistant.ModelResult, error) {
	start := time.Now()
	result, err := im.next.Complete(ctx, messages, functions)

	outcome := "content"
	switch {
	case err != nil:
		outcome = "error"
	case result.FunctionCall != nil:
		outcome = "function_call"
	}

	im.metrics.ObserveModel(outcome, time.Since(start))
	return result, err
}
