package llm

import "net/http"

const cerebrasBaseURL = "https://api.cerebras.ai/v1"

// NewCerebrasClient returns a client for Cerebras, which speaks the OpenAI
// chat completions format.
func NewCerebrasClient(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIClient {
	return NewOpenAIClient(ProviderCerebras, baseURL, apiKey, model, httpClient)
}
