package generative_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notasimples/nfse-assistente/internal/adapter/generative"
	"github.com/notasimples/nfse-assistente/pkg/assistant"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const functionCallResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"function_call": {"name": "emitir_nota", "arguments": "{\"valor\": 1500, \"nome\": \"João Silva\"}"}
		},
		"finish_reason": "function_call"
	}]
}`

const contentResponse = `{
	"id": "chatcmpl-2",
	"object": "chat.completion",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "  Posso emitir, cancelar e consultar notas.  "},
		"finish_reason": "stop"
	}]
}`

func newTestModel(t *testing.T, handler http.HandlerFunc) *generative.OpenAIModel {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	model, err := generative.NewOpenAIModel(generative.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	}, logger.NewTestLogger())
	require.NoError(t, err)

	return model
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func userMessage(content string) []assistant.ModelMessage {
	return []assistant.ModelMessage{
		{Role: "system", Content: "Você é um assistente fiscal."},
		{Role: "user", Content: content},
	}
}

func TestCompleteTranslatesFunctionCall(t *testing.T) {
	model := newTestModel(t, respondJSON(functionCallResponse))

	result, err := model.Complete(context.Background(), userMessage("emite 1500 pro João"), assistant.FunctionSchemas())

	require.NoError(t, err)
	require.NotNil(t, result.FunctionCall)
	assert.Equal(t, "emitir_nota", result.FunctionCall.Name)
	assert.Contains(t, result.FunctionCall.Arguments, "valor")
	assert.Empty(t, result.Content)
}

func TestCompleteTranslatesContent(t *testing.T) {
	model := newTestModel(t, respondJSON(contentResponse))

	result, err := model.Complete(context.Background(), userMessage("o que você faz?"), assistant.FunctionSchemas())

	require.NoError(t, err)
	assert.Nil(t, result.FunctionCall)
	assert.Equal(t, "Posso emitir, cancelar e consultar notas.", result.Content)
}

func TestCompleteSendsModelMessagesAndFunctions(t *testing.T) {
	var captured struct {
		Model     string `json:"model"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Functions []struct {
			Name string `json:"name"`
		} `json:"functions"`
		FunctionCall interface{} `json:"function_call"`
	}

	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respondJSON(functionCallResponse)(w, r)
	})

	_, err := model.Complete(context.Background(), userMessage("emite 1500 pro João"), assistant.FunctionSchemas())
	require.NoError(t, err)

	assert.Equal(t, openai.GPT4oMini, captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "emite 1500 pro João", captured.Messages[1].Content)
	require.NotEmpty(t, captured.Functions)
	assert.Equal(t, "emitir_nota", captured.Functions[0].Name)
	assert.Equal(t, "auto", captured.FunctionCall)
}

func TestCompleteWithoutFunctionsOmitsDefinitions(t *testing.T) {
	var captured map[string]interface{}

	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respondJSON(contentResponse)(w, r)
	})

	_, err := model.Complete(context.Background(), userMessage("bom dia"), nil)
	require.NoError(t, err)

	assert.NotContains(t, captured, "functions")
	assert.NotContains(t, captured, "function_call")
}

func TestCompleteEmptyChoices(t *testing.T) {
	model := newTestModel(t, respondJSON(`{"id": "chatcmpl-3", "object": "chat.completion", "choices": []}`))

	_, err := model.Complete(context.Background(), userMessage("oi"), nil)

	assert.Error(t, err)
}

func TestCompleteAPIError(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "temporariamente indisponível", "type": "server_error"}}`))
	})

	_, err := model.Complete(context.Background(), userMessage("oi"), nil)

	assert.ErrorContains(t, err, "erro ao consultar o modelo")
}

func TestNewOpenAIModelRequiresAPIKey(t *testing.T) {
	_, err := generative.NewOpenAIModel(generative.Config{}, logger.NewTestLogger())

	assert.Error(t, err)
}
