package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, providers ...Provider) *Gateway {
	t.Helper()
	g, err := NewGatewayWithProviders(zap.NewNop(), providers...)
	require.NoError(t, err)
	return g
}

func TestGateway_NoProviders(t *testing.T) {
	_, err := NewGatewayWithProviders(zap.NewNop())
	assert.ErrorIs(t, err, ErrNoProviderConfigured)

	_, err = NewGateway(context.Background(), Config{Order: []string{"gemini", "openai"}}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoProviderConfigured)
}

func TestGateway_DefaultIsFirstAvailable(t *testing.T) {
	cfg := Config{
		Order: []string{ProviderGemini, ProviderOpenAI, ProviderMock},
		Settings: Settings{
			OpenAIAPIKey: "sk-test",
			OpenAIModel:  "gpt-4o-mini",
		},
	}
	g, err := NewGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, g.DefaultProvider())
	assert.Equal(t, []string{ProviderOpenAI, ProviderMock}, g.Available())
}

func TestGateway_GenerateText_DefaultTemperature(t *testing.T) {
	p := NewMockProvider("primary")
	p.Response = "hello"
	g := newTestGateway(t, p)

	out, err := g.GenerateText(context.Background(), "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, DefaultTemperature, p.LastCall().Temperature)
	assert.Nil(t, p.LastCall().Schema)
}

func TestGateway_FallbackRetriesDefaultOnce(t *testing.T) {
	primary := NewMockProvider("primary")
	primary.Response = "from default"
	secondary := NewMockProvider("secondary")
	secondary.Err = errors.New("boom")
	g := newTestGateway(t, primary, secondary)

	out, err := g.GenerateText(context.Background(), "p", WithProvider("secondary"), WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "from default", out)
	assert.Equal(t, 1, secondary.CallCount())
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 0.2, primary.LastCall().Temperature)
}

func TestGateway_FallbackFailureSurfacesCallError(t *testing.T) {
	primary := NewMockProvider("primary")
	primary.Err = errors.New("default down")
	secondary := NewMockProvider("secondary")
	secondary.Err = errors.New("secondary down")
	g := newTestGateway(t, primary, secondary)

	_, err := g.GenerateText(context.Background(), "p", WithProvider("secondary"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderCallFailed)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "primary", callErr.Provider)
	assert.Equal(t, "secondary", callErr.FallbackFrom)

	// exactly one retry
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 1, secondary.CallCount())
}

func TestGateway_DefaultFailureIsNotRetried(t *testing.T) {
	primary := NewMockProvider("primary")
	primary.Err = errors.New("down")
	other := NewMockProvider("other")
	g := newTestGateway(t, primary, other)

	_, err := g.GenerateText(context.Background(), "p")
	assert.ErrorIs(t, err, ErrProviderCallFailed)
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 0, other.CallCount())
}

func TestGateway_UnknownProviderUsesDefault(t *testing.T) {
	primary := NewMockProvider("primary")
	g := newTestGateway(t, primary)

	_, err := g.GenerateText(context.Background(), "p", WithProvider("nope"))
	require.NoError(t, err)
	assert.Equal(t, 1, primary.CallCount())
}

func TestGateway_ContextIsSerializedOnEveryCall(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	primary := NewMockProvider("primary")
	secondary := NewMockProvider("secondary").QueueError(errors.New("fail"))
	g := newTestGateway(t, primary, secondary)

	_, err := g.GenerateText(context.Background(), "p",
		WithProvider("secondary"),
		WithPromptContext(map[string]any{"analysis": map[string]any{"timestamp": ts}}),
	)
	require.NoError(t, err)

	for _, req := range []Request{secondary.LastCall(), primary.LastCall()} {
		analysis := req.Context["analysis"].(map[string]any)
		assert.Equal(t, "2024-05-01T12:00:00Z", analysis["timestamp"])
	}
}

func TestSerializeContext(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var nilTime *time.Time
	in := map[string]any{
		"at":      ts,
		"ptr":     &ts,
		"nilptr":  nilTime,
		"nested":  map[string]any{"deep": map[string]any{"at": ts}},
		"list":    []any{ts, map[string]any{"at": ts}, 3},
		"records": []map[string]any{{"at": ts}},
		"plain":   "x",
	}

	out := SerializeContext(in)
	want := "2024-01-02T03:04:05Z"
	assert.Equal(t, want, out["at"])
	assert.Equal(t, want, out["ptr"])
	assert.Nil(t, out["nilptr"])
	assert.Equal(t, want, out["nested"].(map[string]any)["deep"].(map[string]any)["at"])
	list := out["list"].([]any)
	assert.Equal(t, want, list[0])
	assert.Equal(t, want, list[1].(map[string]any)["at"])
	assert.Equal(t, 3, list[2])
	assert.Equal(t, want, out["records"].([]any)[0].(map[string]any)["at"])
	assert.Equal(t, "x", out["plain"])

	// input untouched
	assert.Equal(t, ts, in["at"])
	assert.Nil(t, SerializeContext(nil))
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"upper json fence", "```JSON\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `  {"a":1}  `, `{"a":1}`},
		{"trailing only", "{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestGateway_GenerateStructuredOutput(t *testing.T) {
	p := NewMockProvider("primary")
	p.Response = "```json\n{\"query_type\": \"technical_analysis\"}\n```"
	g := newTestGateway(t, p)

	schema := map[string]any{"type": "object"}
	out, err := g.GenerateStructuredOutput(context.Background(), "classify", schema)
	require.NoError(t, err)
	assert.Equal(t, "technical_analysis", out["query_type"])

	call := p.LastCall()
	assert.Equal(t, schema, call.Schema)
	assert.Contains(t, call.Prompt, "classify")
	assert.Contains(t, call.Prompt, `"type": "object"`)
}

func TestGateway_GenerateStructuredOutput_ParseError(t *testing.T) {
	for _, resp := range []string{"not json at all", "```json\n[1, 2]\n```", "null"} {
		p := NewMockProvider("primary")
		p.Response = resp
		g := newTestGateway(t, p)

		_, err := g.GenerateStructuredOutput(context.Background(), "classify", map[string]any{"type": "object"})
		var parseErr *SchemaParseError
		require.ErrorAs(t, err, &parseErr, resp)
		assert.False(t, errors.Is(err, ErrProviderCallFailed))
	}
}

func TestGateway_GenerateStructuredOutput_ProviderError(t *testing.T) {
	p := NewMockProvider("primary")
	p.Err = errors.New("down")
	g := newTestGateway(t, p)

	_, err := g.GenerateStructuredOutput(context.Background(), "classify", nil)
	assert.ErrorIs(t, err, ErrProviderCallFailed)
}

func TestGateway_RateLimitHonoursContext(t *testing.T) {
	p := NewMockProvider("primary")
	g := newTestGateway(t, p)
	g.SetRateLimit(0.001, 1)

	_, err := g.GenerateText(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.GenerateText(ctx, "second")
	assert.ErrorIs(t, err, ErrProviderCallFailed)
	assert.Equal(t, 1, p.CallCount())
}
