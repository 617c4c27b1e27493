package service

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLearning_LearnFromFeedback(t *testing.T) {
	ctx := context.Background()
	ks := newTestKnowledge(store.NewMemoryKV())
	svc := NewLearningService(ks, zap.NewNop())
	clock := newTestClock()
	svc.now = clock.Now

	previous := &domain.Opinion{ID: "op-1", Topic: "AAPL", Belief: "bullish", Confidence: 0.7}
	outcome := map[string]any{"matches_belief": true, "pnl": 0.04}

	svc.LearnFromFeedback(ctx, domain.FeedbackContext{
		InputData: map[string]string{"technical_data": "map"},
		Symbol:    "AAPL",
	}, outcome, previous)

	items, err := ks.RetrieveMemory(ctx, map[string]any{"tags": []string{"learning"}}, "short_term", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "feedback_learning", item.Source)
	assert.Equal(t, []string{"learning", "AAPL"}, item.Tags)
	assert.Equal(t, clock.Now().Format(time.RFC3339Nano), item.Content["timestamp"])
	assert.Equal(t, outcome, item.Content["outcome"])

	prev, ok := item.Content["previous_opinion"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "op-1", prev["id"])

	dc, ok := item.Content["data_context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AAPL", dc["symbol"])
}

func TestLearning_LearnFromFeedbackUnknownSymbol(t *testing.T) {
	ctx := context.Background()
	ks := newTestKnowledge(store.NewMemoryKV())
	svc := NewLearningService(ks, zap.NewNop())

	svc.LearnFromFeedback(ctx, domain.FeedbackContext{}, map[string]any{"note": "no position taken"}, nil)

	items, err := ks.RetrieveMemory(ctx, map[string]any{"tags": []string{"unknown"}}, "short_term", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Content["previous_opinion"])
}

func TestLearning_LearnFromFeedbackStoreFailure(t *testing.T) {
	ks := newTestKnowledge(&flakyKV{KVStore: store.NewMemoryKV(), failSet: true})
	svc := NewLearningService(ks, zap.NewNop())

	assert.NotPanics(t, func() {
		svc.LearnFromFeedback(context.Background(), domain.FeedbackContext{Symbol: "AAPL"}, nil, nil)
	})
}

func TestLearning_PatternHooks(t *testing.T) {
	svc := NewLearningService(newTestKnowledge(store.NewMemoryKV()), zap.NewNop())

	patterns := svc.IdentifyPatterns(context.Background(), map[string]any{"rsi": 30.0})
	assert.NotNil(t, patterns)
	assert.Empty(t, patterns)

	p := &domain.Pattern{Name: "double_bottom"}
	assert.False(t, svc.ValidatePattern(context.Background(), p, map[string]any{}))
	assert.Zero(t, p.ValidationCount)
}
