package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// LMStudioClient is a local OpenAI-compatible server. It only joins the
// rotation when GET {base}/models answers 200.
type LMStudioClient struct {
	*OpenAIClient
}

func NewLMStudioClient(baseURL, model string, httpClient *http.Client) *LMStudioClient {
	return &LMStudioClient{OpenAIClient: NewOpenAIClient(ProviderLMStudio, baseURL, "", model, httpClient)}
}

func (c *LMStudioClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("create lm studio ping: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lm studio ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lm studio API returned status %d", resp.StatusCode)
	}
	return nil
}
