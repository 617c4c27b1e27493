package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/augur/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTemperature is used when a call does not set one.
const DefaultTemperature = 0.7

const defaultPingTimeout = 5 * time.Second

// Config selects and tunes the backends a Gateway is built from.
type Config struct {
	// Order is the provider priority. The first provider that initialises
	// becomes the default.
	Order    []string
	Settings Settings

	// RateLimitRPS caps calls per second per provider; 0 disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

type callOptions struct {
	context     map[string]any
	temperature float64
	provider    string
}

// Option configures a single generation call.
type Option func(*callOptions)

// WithPromptContext attaches structured context to the call.
func WithPromptContext(c map[string]any) Option {
	return func(o *callOptions) {
		o.context = c
	}
}

func WithTemperature(t float64) Option {
	return func(o *callOptions) {
		o.temperature = t
	}
}

// WithProvider requests a specific backend. Unknown names use the default.
func WithProvider(name string) Option {
	return func(o *callOptions) {
		o.provider = name
	}
}

// Gateway routes generation calls to the configured backends, retrying once
// on the default provider when a non-default provider fails.
type Gateway struct {
	providers   map[string]Provider
	available   []string
	defaultName string
	limiters    map[string]*rate.Limiter
	logger      *zap.Logger
}

// NewGateway initialises every provider in cfg.Order whose settings are
// present and which passes its liveness probe. It fails with
// ErrNoProviderConfigured when none does.
func NewGateway(ctx context.Context, cfg Config, logger *zap.Logger) (*Gateway, error) {
	logger.Info("creating llm gateway", zap.Strings("provider_order", cfg.Order))

	var providers []Provider
	seen := make(map[string]bool)
	for _, name := range cfg.Order {
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := NewProvider(name, cfg.Settings)
		if err != nil {
			if errors.Is(err, ErrProviderNotConfigured) {
				logger.Debug("provider not configured", zap.String("provider", name))
			} else {
				logger.Error("error initializing provider", zap.String("provider", name), zap.Error(err))
			}
			continue
		}

		if pinger, ok := p.(Pinger); ok {
			pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
			err := pinger.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warn("provider liveness check failed, not initialized",
					zap.String("provider", name),
					zap.Error(err))
				continue
			}
		}

		logger.Info("provider initialized", zap.String("provider", name))
		providers = append(providers, p)
	}

	g, err := NewGatewayWithProviders(logger, providers...)
	if err != nil {
		return nil, err
	}
	g.SetRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return g, nil
}

// NewGatewayWithProviders builds a gateway from ready backends. The first
// provider is the default.
func NewGatewayWithProviders(logger *zap.Logger, providers ...Provider) (*Gateway, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviderConfigured
	}

	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		limiters:  make(map[string]*rate.Limiter),
		logger:    logger,
	}
	for _, p := range providers {
		if _, dup := g.providers[p.Name()]; dup {
			continue
		}
		g.providers[p.Name()] = p
		g.available = append(g.available, p.Name())
	}
	g.defaultName = g.available[0]

	logger.Info("llm gateway initialized",
		zap.String("default", g.defaultName),
		zap.Strings("available", g.available))
	return g, nil
}

// SetRateLimit installs a token bucket per provider. rps <= 0 removes limits.
func (g *Gateway) SetRateLimit(rps float64, burst int) {
	g.limiters = make(map[string]*rate.Limiter)
	if rps <= 0 {
		return
	}
	if burst <= 0 {
		burst = 1
	}
	for _, name := range g.available {
		g.limiters[name] = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func (g *Gateway) DefaultProvider() string {
	return g.defaultName
}

// Available returns the initialised providers in priority order.
func (g *Gateway) Available() []string {
	out := make([]string, len(g.available))
	copy(out, g.available)
	return out
}

// GenerateText produces free text for prompt.
func (g *Gateway) GenerateText(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := callOptions{temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&o)
	}
	return g.generate(ctx, Request{Prompt: prompt, Temperature: o.temperature}, o)
}

// GenerateStructuredOutput asks for a JSON object shaped like schema and
// parses it. The schema is advisory and the result is not validated against
// it. Parse failures return *SchemaParseError.
func (g *Gateway) GenerateStructuredOutput(ctx context.Context, prompt string, schema map[string]any, opts ...Option) (map[string]any, error) {
	o := callOptions{temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&o)
	}

	req := Request{
		Prompt:      withSchemaInstruction(prompt, schema),
		Temperature: o.temperature,
		Schema:      schema,
	}
	text, err := g.generate(ctx, req, o)
	if err != nil {
		return nil, err
	}

	out, err := ParseStructured(text)
	if err != nil {
		metrics.SchemaParseFailures.Inc()
		g.logger.Error("failed to decode structured output", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (g *Gateway) generate(ctx context.Context, req Request, o callOptions) (string, error) {
	provider := g.resolve(o.provider)

	text, err := g.call(ctx, provider, req, o.context)
	if err == nil {
		return text, nil
	}

	g.logger.Error("error generating text",
		zap.String("provider", provider.Name()),
		zap.Error(err))

	if provider.Name() == g.defaultName {
		return "", &CallError{Provider: provider.Name(), Err: err}
	}

	fallback := g.providers[g.defaultName]
	g.logger.Info("falling back to default provider",
		zap.String("from", provider.Name()),
		zap.String("to", fallback.Name()))
	metrics.GenerationFallbacks.WithLabelValues(provider.Name(), fallback.Name()).Inc()

	text, err = g.call(ctx, fallback, req, o.context)
	if err != nil {
		g.logger.Error("fallback provider failed",
			zap.String("provider", fallback.Name()),
			zap.Error(err))
		return "", &CallError{Provider: fallback.Name(), FallbackFrom: provider.Name(), Err: err}
	}
	return text, nil
}

func (g *Gateway) resolve(name string) Provider {
	if name == "" {
		return g.providers[g.defaultName]
	}
	if p, ok := g.providers[name]; ok {
		return p
	}
	g.logger.Warn("requested provider not available, using default",
		zap.String("requested", name),
		zap.String("default", g.defaultName))
	return g.providers[g.defaultName]
}

// call serializes the context and invokes one backend, honouring its limiter.
func (g *Gateway) call(ctx context.Context, p Provider, req Request, rawContext map[string]any) (string, error) {
	if lim, ok := g.limiters[p.Name()]; ok {
		if err := lim.Wait(ctx); err != nil {
			metrics.GenerationCalls.WithLabelValues(p.Name(), "rate_limited").Inc()
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req.Context = SerializeContext(rawContext)

	start := time.Now()
	text, err := p.Generate(ctx, req)
	metrics.GenerationLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationCalls.WithLabelValues(p.Name(), "error").Inc()
		return "", err
	}
	metrics.GenerationCalls.WithLabelValues(p.Name(), "ok").Inc()
	return text, nil
}

// SerializeContext returns a copy of c in which every time value, at any
// depth of maps and slices, is replaced by its RFC 3339 string.
func SerializeContext(c map[string]any) map[string]any {
	if c == nil {
		return nil
	}
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = serializeValue(v)
	}
	return out
}

func serializeValue(v any) any {
	switch vv := v.(type) {
	case time.Time:
		return vv.Format(time.RFC3339Nano)
	case *time.Time:
		if vv == nil {
			return nil
		}
		return vv.Format(time.RFC3339Nano)
	case map[string]any:
		return SerializeContext(vv)
	case []map[string]any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = SerializeContext(item)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = serializeValue(item)
		}
		return out
	case []time.Time:
		out := make([]any, len(vv))
		for i, t := range vv {
			out[i] = t.Format(time.RFC3339Nano)
		}
		return out
	default:
		return v
	}
}

// StripFences removes a leading ```json or ``` fence and a trailing ``` fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(lower, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParseStructured strips fences and decodes a JSON object.
func ParseStructured(text string) (map[string]any, error) {
	raw := StripFences(text)
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &SchemaParseError{Raw: raw, Err: err}
	}
	if out == nil {
		return nil, &SchemaParseError{Raw: raw, Err: errors.New("response is not a JSON object")}
	}
	return out, nil
}

func withSchemaInstruction(prompt string, schema map[string]any) string {
	if len(schema) == 0 {
		return prompt
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return prompt
	}
	return fmt.Sprintf(structuredOutputPrompt, prompt, string(b))
}
