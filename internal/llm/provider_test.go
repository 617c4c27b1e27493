package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAIClient_SendsContextAsSystemMessage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  bullish  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ProviderOpenAI, srv.URL, "sk-test", "gpt-4o-mini", srv.Client())
	out, err := c.Generate(context.Background(), Request{
		Prompt:      "outlook?",
		Context:     map[string]any{"symbol": "AAPL"},
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "bullish", out)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, `Context: {"symbol":"AAPL"}`, got.Messages[0].Content)
	assert.Equal(t, "outlook?", got.Messages[1].Content)
}

func TestOpenAIClient_NoContextUsesDefaultSystemPrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ProviderOpenAI, srv.URL, "k", "m", srv.Client())
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, defaultSystemPrompt, got.Messages[0].Content)
}

func TestOpenAIClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(ProviderOpenAI, srv.URL, "k", "m", srv.Client())
	_, err := c.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiClient_InlinesContextAndJSONMode(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gk", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(srv.URL, "gk", "gemini-2.0-flash", srv.Client())
	out, err := c.Generate(context.Background(), Request{
		Prompt:  "classify",
		Context: map[string]any{"a": 1},
		Schema:  map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
	assert.Equal(t, "Context: {\"a\":1}\n\nclassify", got.Contents[0].Parts[0].Text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
}

func TestAnthropicClient_Headers(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"neutral"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.URL, "ak", "claude", srv.Client())
	out, err := c.Generate(context.Background(), Request{Prompt: "p", Context: map[string]any{"x": "y"}})
	require.NoError(t, err)
	assert.Equal(t, "neutral", out)
	assert.Equal(t, `Context: {"x":"y"}`, got.System)
}

func TestOllamaClient_FormatJSONWithSchema(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"{\"ok\":true}"}`))
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL+"/", "llama3", srv.Client())
	out, err := c.Generate(context.Background(), Request{Prompt: "p", Schema: map[string]any{}, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, 0.3, got.Options.Temperature)
}

func TestNewGateway_LMStudioLiveness(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"local"}}]}`))
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	cfg := Config{
		Order:    []string{ProviderLMStudio, ProviderMock},
		Settings: Settings{LMStudioEnabled: true, LMStudioBaseURL: down.URL},
	}
	g, err := NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, g.DefaultProvider())

	cfg.Settings.LMStudioBaseURL = up.URL
	g, err = NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderLMStudio, g.DefaultProvider())

	out, err := g.GenerateText(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "local", out)
}

func TestNewProvider_MissingSettings(t *testing.T) {
	for _, name := range []string{ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderCerebras, ProviderLMStudio, ProviderOllama} {
		_, err := NewProvider(name, Settings{})
		assert.ErrorIs(t, err, ErrProviderNotConfigured, name)
	}

	_, err := NewProvider("bogus", Settings{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProviderNotConfigured)
}
