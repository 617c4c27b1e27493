package service

import (
	"context"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"go.uber.org/zap"
)

const (
	sourceFeedbackLearning = "feedback_learning"
	tagLearning            = "learning"
	unknownSymbol          = "unknown"
)

// LearningService records outcomes for later pattern mining. Pattern
// identification and validation are extension points with no algorithm yet.
type LearningService struct {
	knowledge *KnowledgeService
	logger    *zap.Logger
	now       func() time.Time
}

func NewLearningService(knowledge *KnowledgeService, logger *zap.Logger) *LearningService {
	return &LearningService{
		knowledge: knowledge,
		logger:    logger,
		now:       time.Now,
	}
}

// IdentifyPatterns is meant to detect recurring signatures in market data.
// It returns no patterns until a detection algorithm is chosen.
func (s *LearningService) IdentifyPatterns(ctx context.Context, data map[string]any) []domain.Pattern {
	return []domain.Pattern{}
}

// ValidatePattern is meant to check newData against a pattern and bump its
// validation count on success. It reports false until implemented.
func (s *LearningService) ValidatePattern(ctx context.Context, pattern *domain.Pattern, newData map[string]any) bool {
	return false
}

// LearnFromFeedback appends one short-term record of the outcome. It never
// fails; a failed write is logged.
func (s *LearningService) LearnFromFeedback(ctx context.Context, dataContext domain.FeedbackContext, outcome map[string]any, previous *domain.Opinion) {
	symbol := dataContext.Symbol
	if symbol == "" {
		symbol = unknownSymbol
	}

	var prev any
	if previous != nil {
		prev = contentMap(previous)
	}

	content := map[string]any{
		"data_context":     contentMap(dataContext),
		"outcome":          outcome,
		"previous_opinion": prev,
		"timestamp":        s.now().UTC().Format(time.RFC3339Nano),
	}

	item, err := s.knowledge.AddToShortTerm(ctx, content, sourceFeedbackLearning, []string{tagLearning, symbol})
	if err != nil {
		s.logger.Warn("failed to record feedback",
			zap.String("memory_id", item.ID),
			zap.String("symbol", symbol),
			zap.Error(err))
		return
	}
	s.logger.Debug("recorded feedback", zap.String("memory_id", item.ID), zap.String("symbol", symbol))
}
