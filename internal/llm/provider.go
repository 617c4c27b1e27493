package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderLMStudio  = "lm_studio"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// Request is one generation call as seen by a backend. Context has already
// been passed through SerializeContext.
type Request struct {
	Prompt      string
	Context     map[string]any
	Temperature float64
	// Schema is set for structured output calls. Backends may use it to
	// switch on a JSON response mode.
	Schema map[string]any
}

// Provider is a single text generation backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Pinger is implemented by backends that must answer a liveness probe before
// they are put into rotation.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Settings carries credentials, models and endpoints for every backend.
// Empty base URLs fall back to the public endpoints.
type Settings struct {
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	CerebrasAPIKey  string
	CerebrasModel   string
	CerebrasBaseURL string

	LMStudioEnabled bool
	LMStudioBaseURL string
	LMStudioModel   string

	OllamaEnabled bool
	OllamaAPIURL  string
	OllamaModel   string

	Timeout time.Duration
}

func (s Settings) httpClient() *http.Client {
	return &http.Client{Timeout: s.Timeout}
}

// NewProvider creates a backend by name. It returns ErrProviderNotConfigured
// when the settings the backend needs are missing.
func NewProvider(name string, s Settings) (Provider, error) {
	switch name {
	case ProviderOpenAI:
		if s.OpenAIAPIKey == "" || s.OpenAIModel == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY and OPENAI_MODEL are required for OpenAI provider", ErrProviderNotConfigured)
		}
		return NewOpenAIClient(ProviderOpenAI, orDefault(s.OpenAIBaseURL, openAIBaseURL), s.OpenAIAPIKey, s.OpenAIModel, s.httpClient()), nil

	case ProviderAnthropic:
		if s.AnthropicAPIKey == "" || s.AnthropicModel == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is required for Anthropic provider", ErrProviderNotConfigured)
		}
		return NewAnthropicClient(orDefault(s.AnthropicBaseURL, anthropicBaseURL), s.AnthropicAPIKey, s.AnthropicModel, s.httpClient()), nil

	case ProviderGemini:
		if s.GeminiAPIKey == "" || s.GeminiModel == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY and GEMINI_MODEL are required for Gemini provider", ErrProviderNotConfigured)
		}
		return NewGeminiClient(orDefault(s.GeminiBaseURL, geminiBaseURL), s.GeminiAPIKey, s.GeminiModel, s.httpClient()), nil

	case ProviderCerebras:
		if s.CerebrasAPIKey == "" || s.CerebrasModel == "" {
			return nil, fmt.Errorf("%w: CEREBRAS_API_KEY is required for Cerebras provider", ErrProviderNotConfigured)
		}
		return NewCerebrasClient(orDefault(s.CerebrasBaseURL, cerebrasBaseURL), s.CerebrasAPIKey, s.CerebrasModel, s.httpClient()), nil

	case ProviderLMStudio:
		if !s.LMStudioEnabled || s.LMStudioBaseURL == "" {
			return nil, fmt.Errorf("%w: ENABLE_LM_STUDIO and LM_STUDIO_BASE_URL are required for LM Studio provider", ErrProviderNotConfigured)
		}
		return NewLMStudioClient(s.LMStudioBaseURL, orDefault(s.LMStudioModel, s.OpenAIModel), s.httpClient()), nil

	case ProviderOllama:
		if !s.OllamaEnabled || s.OllamaAPIURL == "" || s.OllamaModel == "" {
			return nil, fmt.Errorf("%w: ENABLE_OLLAMA, OLLAMA_API_URL and OLLAMA_MODEL are required for Ollama provider", ErrProviderNotConfigured)
		}
		return NewOllamaClient(s.OllamaAPIURL, s.OllamaModel, s.httpClient()), nil

	case ProviderMock:
		return NewMockProvider(ProviderMock), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: gemini, openai, lm_studio, ollama, anthropic, cerebras, mock)", name)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// contextPrompt prefixes the prompt with the JSON-encoded context, the layout
// used by backends without a separate system slot.
func contextPrompt(prompt string, ctxData map[string]any) string {
	if len(ctxData) == 0 {
		return prompt
	}
	return contextLine(ctxData) + "\n\n" + prompt
}

func contextLine(ctxData map[string]any) string {
	b, err := json.Marshal(ctxData)
	if err != nil {
		// unencodable values such as channels or funcs
		return fmt.Sprintf("Context: %v", ctxData)
	}
	return "Context: " + string(b)
}

func trimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
