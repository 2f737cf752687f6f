// Package payment implementa a cobrança avulsa sobre a API HTTP do gateway
// de pagamento. Cada cobrança é enviada uma única vez: reenviar uma chamada
// que falhou no meio do caminho poderia cobrar o cliente em dobro, então o
// adaptador nunca repete e deixa a decisão com o orquestrador
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/payment"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const defaultTimeout = 15 * time.Second

// Config configura o gateway de pagamento
type Config struct {
	// BaseURL inclui o prefixo de versão da API, ex: https://pagamentos.exemplo.com.br/v1
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPCharger implementa payment.Processor sobre HTTP
type HTTPCharger struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     logger.Logger
}

// NewHTTPCharger cria o gateway de pagamento
func NewHTTPCharger(cfg Config, log logger.Logger) (*HTTPCharger, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("endereço do gateway de pagamento não configurado")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("chave do gateway de pagamento não configurada")
	}
	if log == nil {
		return nil, errors.New("logger não pode ser nulo")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &HTTPCharger{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     log,
	}, nil
}

type chargeRequest struct {
	Customer    string `json:"customer"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type chargeResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	DeclineReason string `json:"decline_reason"`
}

// ChargeOnce implementa payment.Processor.ChargeOnce
func (c *HTTPCharger) ChargeOnce(ctx context.Context, customerRef string, amountCents int64, description string) (string, error) {
	payload := chargeRequest{
		Customer:    customerRef,
		AmountCents: amountCents,
		Currency:    "BRL",
		Description: description,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("erro ao serializar cobrança: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("erro ao montar cobrança: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", payment.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var body chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("%w: resposta inválida: %v", payment.ErrUnavailable, err)
		}
		if body.Status == "declined" {
			return "", fmt.Errorf("%w: %s", payment.ErrDeclined, body.DeclineReason)
		}
		if body.ID == "" {
			return "", fmt.Errorf("%w: resposta sem referência da transação", payment.ErrUnavailable)
		}

		c.logger.Info("cobrança avulsa confirmada",
			"charge_ref", body.ID, "amount_cents", amountCents)
		return body.ID, nil
	}

	return "", c.translateHTTPError(resp)
}

func (c *HTTPCharger) translateHTTPError(resp *http.Response) error {
	msg := gatewayMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		if msg == "" {
			msg = "cobrança recusada"
		}
		return fmt.Errorf("%w: %s", payment.ErrDeclined, msg)
	case http.StatusNotFound, http.StatusConflict:
		if msg == "" {
			return payment.ErrNoPaymentMethod
		}
		return fmt.Errorf("%w: %s", payment.ErrNoPaymentMethod, msg)
	}

	return fmt.Errorf("%w (HTTP %d)", payment.ErrUnavailable, resp.StatusCode)
}

func gatewayMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Message
}
