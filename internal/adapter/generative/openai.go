// Package generative adapta a API de chat da OpenAI ao contrato de modelo
// do assistente. O adaptador só traduz mensagens e chamadas de função;
// validação de argumentos e recuperação de falhas ficam com o despachante.
package generative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const (
	defaultModel       = openai.GPT4oMini
	defaultMaxTokens   = 400
	defaultTemperature = 0.2
)

// Config configura o adaptador do modelo generativo
type Config struct {
	APIKey string

	// BaseURL aponta para um endpoint compatível; vazio usa a API oficial
	BaseURL string

	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAIModel implementa assistant.LanguageModel sobre a API de chat da OpenAI
type OpenAIModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      logger.Logger
}

// NewOpenAIModel cria o adaptador do modelo generativo
func NewOpenAIModel(cfg Config, log logger.Logger) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("chave da API do modelo não configurada")
	}
	if log == nil {
		return nil, errors.New("logger não pode ser nulo")
	}

	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      log,
	}, nil
}

// Complete implementa assistant.LanguageModel.Complete
func (m *OpenAIModel) Complete(ctx context.Context, messages []assistant.ModelMessage, functions []assistant.FunctionSchema) (*assistant.ModelResult, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	}

	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	if len(functions) > 0 {
		defs := make([]openai.FunctionDefinition, 0, len(functions))
		for _, fn := range functions {
			defs = append(defs, openai.FunctionDefinition{
				Name:        fn.Name,
				Description: fn.Description,
				Parameters:  fn.Parameters,
			})
		}
		req.Functions = defs
		req.FunctionCall = "auto"
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar o modelo: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("modelo não devolveu nenhuma alternativa")
	}

	choice := resp.Choices[0].Message
	if choice.FunctionCall != nil {
		m.logger.Debug("modelo devolveu chamada de função",
			"function", choice.FunctionCall.Name)

		return &assistant.ModelResult{
			FunctionCall: &assistant.FunctionCall{
				Name:      choice.FunctionCall.Name,
				Arguments: choice.FunctionCall.Arguments,
			},
		}, nil
	}

	return &assistant.ModelResult{
		Content: strings.TrimSpace(choice.Content),
	}, nil
}
