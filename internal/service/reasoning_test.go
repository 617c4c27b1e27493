package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/llm"
	"github.com/Harshitk-cp/augur/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReasoning(t *testing.T) (*ReasoningService, *KnowledgeService, *llm.MockProvider) {
	t.Helper()
	mock := llm.NewMockProvider("mock")
	mock.Response = "Price is consolidating above the 50-day average."
	ks := newTestKnowledge(store.NewMemoryKV())
	learning := NewLearningService(ks, zap.NewNop())
	svc := NewReasoningService(newTestGateway(t, mock), ks, learning, domain.DefaultTuning(), zap.NewNop())
	return svc, ks, mock
}

func samplePayload() domain.InputData {
	return domain.InputData{
		TechnicalData:   map[string]any{"rsi": 62.5, "sma_50": 181.2},
		FundamentalData: map[string]any{"pe_ratio": 29.1},
		Extra:           map[string]any{"as_of": "2024-03-01"},
	}
}

func TestReasoning_AnalyzeTemplates(t *testing.T) {
	tests := []struct {
		queryType    string
		wantTemplate string
		wantPayload  string
		wantAbsent   string
	}{
		{domain.QueryTypeTechnical, "Analyze the technical indicators", "rsi", "pe_ratio"},
		{domain.QueryTypeFundamental, "Analyze the fundamental data", "pe_ratio", "rsi"},
		{domain.QueryTypeSentiment, "Analyze market sentiment", "{}", "rsi"},
		{"price_prediction", "Provide a comprehensive analysis", "pe_ratio", ""},
	}
	for _, tt := range tests {
		t.Run(tt.queryType, func(t *testing.T) {
			svc, _, mock := newTestReasoning(t)
			rc := domain.RequestContext{CurrentSymbol: "AAPL"}

			_, err := svc.AnalyzeData(context.Background(), samplePayload(), rc, &domain.Intent{QueryType: tt.queryType})
			require.NoError(t, err)

			prompt := mock.LastCall().Prompt
			assert.Contains(t, prompt, tt.wantTemplate)
			assert.Contains(t, prompt, "AAPL")
			assert.Contains(t, prompt, tt.wantPayload)
			if tt.wantAbsent != "" {
				assert.NotContains(t, prompt, tt.wantAbsent)
			}
		})
	}
}

func TestReasoning_AnalyzeResult(t *testing.T) {
	ctx := context.Background()
	svc, ks, mock := newTestReasoning(t)
	clock := newTestClock()
	svc.now = clock.Now
	rc := domain.RequestContext{CurrentSymbol: "AAPL", CurrentSymbols: []string{"AAPL", "MSFT"}}

	result, err := svc.AnalyzeData(ctx, samplePayload(), rc, &domain.Intent{QueryType: domain.QueryTypeTechnical})
	require.NoError(t, err)

	assert.Equal(t, mock.Response, result.AnalysisSummary)
	assert.Equal(t, domain.QueryTypeTechnical, result.QueryType)
	assert.Equal(t, clock.Now(), result.Timestamp)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.7, *result.Confidence)
	assert.Nil(t, result.DataQualityScore)
	assert.Equal(t, map[string]string{
		"technical_data":   "map",
		"fundamental_data": "map",
		"as_of":            "string",
	}, result.DataAnalyzed)
	assert.Empty(t, result.Insights)
	assert.Empty(t, result.ChartsForFrontend)

	call := mock.LastCall()
	assert.Equal(t, 0.3, call.Temperature)
	assert.Equal(t, "AAPL", call.Context["current_symbol"])

	items, err := ks.RetrieveMemory(ctx, map[string]any{"source": "reasoning_analysis"}, "short_term", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{domain.QueryTypeTechnical, "AAPL", "MSFT"}, items[0].Tags)
	assert.Equal(t, mock.Response, items[0].Content["analysis_summary"])
}

func TestReasoning_AnalyzeWithoutIntent(t *testing.T) {
	svc, _, mock := newTestReasoning(t)

	result, err := svc.AnalyzeData(context.Background(), samplePayload(), domain.RequestContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryTypeGeneral, result.QueryType)
	assert.Contains(t, mock.LastCall().Prompt, "the requested instrument")
}

func TestReasoning_AnalyzeGatewayFailure(t *testing.T) {
	ctx := context.Background()
	svc, ks, mock := newTestReasoning(t)
	mock.Err = errors.New("timeout")

	_, err := svc.AnalyzeData(ctx, samplePayload(), domain.RequestContext{}, nil)
	assert.ErrorIs(t, err, llm.ErrProviderCallFailed)

	items, err := ks.RetrieveMemory(ctx, nil, "all", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestReasoning_TradingSuggestion(t *testing.T) {
	svc, _, mock := newTestReasoning(t)
	mock.QueueResponse("Accumulate on dips below 180 with a 5% position.")

	ts := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	analysis := &domain.AnalysisResult{AnalysisSummary: "uptrend", Timestamp: ts, QueryType: domain.QueryTypeTechnical}
	portfolio := map[string]any{"cash": 10000.0}

	s, err := svc.GenerateTradingSuggestion(context.Background(), analysis, portfolio, "aggressive")
	require.NoError(t, err)
	assert.Equal(t, "Accumulate on dips below 180 with a 5% position.", s.SuggestionText)
	assert.Equal(t, "aggressive", s.RiskProfile)
	assert.Equal(t, ts, s.AnalysisTimestamp)
	assert.Equal(t, 0.7, s.Confidence)

	call := mock.LastCall()
	assert.Equal(t, 0.2, call.Temperature)
	assert.Equal(t, "aggressive", call.Context["risk_profile"])
	assert.Equal(t, portfolio, call.Context["portfolio"])
	analysisCtx, ok := call.Context["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ts.Format(time.RFC3339Nano), analysisCtx["timestamp"])
}
