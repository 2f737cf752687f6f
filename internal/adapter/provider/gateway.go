// Package provider implementa o gateway fiscal sobre a API HTTP do
// provedor de emissão. Toda falha é traduzida para os erros de
// internal/domain/provider antes de chegar ao orquestrador; nenhum
// detalhe do transporte vaza para as camadas de cima.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/notasimples/nfse-assistente/internal/domain/provider"
	"github.com/notasimples/nfse-assistente/pkg/cache"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 2
	defaultInitialBackoff = 200 * time.Millisecond

	tokenKey = "token"

	// tokenSafetyMargin renova o token antes do vencimento real para não
	// disputar com o relógio do provedor
	tokenSafetyMargin = 30 * time.Second

	// coverageTTL limita por quanto tempo a cobertura de um município vale
	// sem nova consulta
	coverageTTL = 24 * time.Hour
)

// Config configura o gateway fiscal
type Config struct {
	// BaseURL inclui o prefixo de versão da API, ex: https://api.exemplo.com.br/v1
	BaseURL string
	APIKey  string

	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// HTTPGateway implementa provider.Gateway sobre HTTP
type HTTPGateway struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	breaker        *gobreaker.CircuitBreaker
	maxRetries     int
	initialBackoff time.Duration
	tokens         *cache.TTL[string]
	coverage       *cache.TTL[bool]
	logger         logger.Logger
}

// NewHTTPGateway cria o gateway fiscal
func NewHTTPGateway(cfg Config, log logger.Logger) (*HTTPGateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("endereço do provedor fiscal não configurado")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("chave do provedor fiscal não configurada")
	}
	if log == nil {
		return nil, errors.New("logger não pode ser nulo")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}

	return &HTTPGateway{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		breaker:        newBreaker("provedor-fiscal"),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		tokens:         cache.New[string](time.Hour),
		coverage:       cache.New[bool](coverageTTL),
		logger:         log,
	}, nil
}

// RegisterCompany implementa provider.Gateway.RegisterCompany
func (g *HTTPGateway) RegisterCompany(ctx context.Context, reg provider.CompanyRegistration) (string, error) {
	var resp registerResponse
	if err := g.doJSON(ctx, http.MethodPost, "/companies", reg, &resp); err != nil {
		return "", err
	}

	if resp.ID == "" {
		return "", fmt.Errorf("%w: cadastro sem referência", provider.ErrMalformedResponse)
	}

	g.logger.Info("empresa registrada no provedor fiscal",
		"document", reg.Document, "provider_ref", resp.ID)
	return resp.ID, nil
}

// CheckConnection implementa provider.Gateway.CheckConnection
func (g *HTTPGateway) CheckConnection(ctx context.Context, companyRef string) (*provider.ConnectionStatus, error) {
	var resp connectionResponse
	if err := g.doJSON(ctx, http.MethodGet, "/companies/"+url.PathEscape(companyRef), nil, &resp); err != nil {
		return nil, err
	}

	return &provider.ConnectionStatus{
		Status:  resp.Status,
		Message: resp.Message,
	}, nil
}

// MunicipalitySupported implementa provider.Gateway.MunicipalitySupported.
// Respostas definitivas ficam em cache; falhas de transporte não
func (g *HTTPGateway) MunicipalitySupported(ctx context.Context, cityCode string) (bool, error) {
	if supported, ok := g.coverage.Get(cityCode); ok {
		return supported, nil
	}

	var resp municipalityResponse
	err := g.doJSON(ctx, http.MethodGet, "/municipalities/"+url.PathEscape(cityCode), nil, &resp)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			g.coverage.Set(cityCode, false)
			return false, nil
		}
		return false, err
	}

	g.coverage.Set(cityCode, resp.Supported)
	return resp.Supported, nil
}

// EmitInvoice implementa provider.Gateway.EmitInvoice.
// Reenviar a mesma emissão é seguro: o provedor deduplica pela série e
// número do RPS
func (g *HTTPGateway) EmitInvoice(ctx context.Context, req provider.EmissionRequest) (*provider.EmissionResult, error) {
	var resp emissionResponse
	if err := g.doJSON(ctx, http.MethodPost, "/invoices", req, &resp); err != nil {
		return nil, err
	}

	if resp.ID == "" {
		return nil, fmt.Errorf("%w: emissão sem referência", provider.ErrMalformedResponse)
	}

	status, err := parseStatus(resp.Status)
	if err != nil {
		return nil, err
	}

	return &provider.EmissionResult{
		ProviderRef:     resp.ID,
		Status:          status,
		Number:          resp.Number,
		VerificationURL: resp.VerificationURL,
		PDFURL:          resp.PDFURL,
		RejectionReason: resp.RejectionReason,
	}, nil
}

// QueryInvoice implementa provider.Gateway.QueryInvoice
func (g *HTTPGateway) QueryInvoice(ctx context.Context, providerRef string) (*provider.InvoiceStatus, error) {
	var resp invoiceStatusResponse
	if err := g.doJSON(ctx, http.MethodGet, "/invoices/"+url.PathEscape(providerRef), nil, &resp); err != nil {
		return nil, err
	}

	status, err := parseStatus(resp.Status)
	if err != nil {
		return nil, err
	}

	return &provider.InvoiceStatus{
		Status:          status,
		Number:          resp.Number,
		VerificationURL: resp.VerificationURL,
		PDFURL:          resp.PDFURL,
		RejectionReason: resp.RejectionReason,
	}, nil
}

// CancelInvoice implementa provider.Gateway.CancelInvoice
func (g *HTTPGateway) CancelInvoice(ctx context.Context, providerRef, reason string) error {
	path := "/invoices/" + url.PathEscape(providerRef) + "/cancel"
	return g.doJSON(ctx, http.MethodPost, path, cancelRequest{Reason: reason}, nil)
}

// doJSON executa uma chamada autenticada sob o disjuntor e a política de
// reexecução, decodificando a resposta em out quando não nulo
func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.retryOnUnavailable(ctx, func() error {
			return g.roundTrip(ctx, method, path, payload, out)
		})
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: circuito aberto", provider.ErrUnavailable)
		}
		return err
	}
	return nil
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := g.authToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("erro ao serializar requisição ao provedor: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("erro ao montar requisição ao provedor: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
		}
		return nil
	}

	return g.translateHTTPError(resp)
}

func (g *HTTPGateway) translateHTTPError(resp *http.Response) error {
	msg := apiMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// O token pode ter sido revogado; a próxima chamada renova
		g.tokens.Delete(tokenKey)
		return fmt.Errorf("%w (HTTP %d)", provider.ErrUnauthorized, resp.StatusCode)
	case http.StatusNotFound:
		return provider.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "requisição recusada"
		}
		return fmt.Errorf("%w: %s", provider.ErrRefused, msg)
	}

	return fmt.Errorf("%w (HTTP %d)", provider.ErrUnavailable, resp.StatusCode)
}

// authToken devolve o token corrente ou autentica com a chave de API.
// O token fica em cache até perto do vencimento informado pelo provedor
func (g *HTTPGateway) authToken(ctx context.Context) (string, error) {
	if token, ok := g.tokens.Get(tokenKey); ok {
		return token, nil
	}

	data, err := json.Marshal(map[string]string{"api_key": g.apiKey})
	if err != nil {
		return "", fmt.Errorf("erro ao serializar autenticação: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/token", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("erro ao montar autenticação: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: chave de API recusada", provider.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w (HTTP %d)", provider.ErrUnavailable, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrMalformedResponse, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: token vazio", provider.ErrMalformedResponse)
	}

	ttl := time.Duration(body.ExpiresIn)*time.Second - tokenSafetyMargin
	if ttl < time.Minute {
		ttl = time.Minute
	}
	g.tokens.SetWithTTL(tokenKey, body.AccessToken, ttl)

	g.logger.Debug("token do provedor fiscal renovado", "expires_in", body.ExpiresIn)
	return body.AccessToken, nil
}

func parseStatus(s string) (provider.Status, error) {
	switch provider.Status(s) {
	case provider.StatusProcessing, provider.StatusAuthorized, provider.StatusRejected, provider.StatusCanceled:
		return provider.Status(s), nil
	}
	return "", fmt.Errorf("%w: status desconhecido %q", provider.ErrMalformedResponse, s)
}

// apiMessage extrai a mensagem de erro do corpo, quando houver
func apiMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}

	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error.Message
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type registerResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type connectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type municipalityResponse struct {
	Supported bool `json:"supported"`
}

type emissionResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	Number          string `json:"number"`
	VerificationURL string `json:"verification_url"`
	PDFURL          string `json:"pdf_url"`
	RejectionReason string `json:"rejection_reason"`
}

type invoiceStatusResponse struct {
	Status          string `json:"status"`
	Number          string `json:"number"`
	VerificationURL string `json:"verification_url"`
	PDFURL          string `json:"pdf_url"`
	RejectionReason string `json:"rejection_reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}
