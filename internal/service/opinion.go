package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/llm"
	"github.com/Harshitk-cp/augur/internal/metrics"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	sourceOpinionFormation = "opinion_formation"
	sourceInitialAnalysis  = "initial_analysis"
)

// OpinionService forms opinions from analyses and revises them as evidence
// arrives. An opinion is stored under a memory record with the same id.
type OpinionService struct {
	gen       Generator
	knowledge *KnowledgeService
	tuning    domain.Tuning
	logger    *zap.Logger
	now       func() time.Time
}

func NewOpinionService(gen Generator, knowledge *KnowledgeService, tuning domain.Tuning, logger *zap.Logger) *OpinionService {
	return &OpinionService{
		gen:       gen,
		knowledge: knowledge,
		tuning:    tuning,
		logger:    logger,
		now:       time.Now,
	}
}

// FormOpinion asks the gateway for a belief about topic and scores it. The
// opinion is stored only when its confidence reaches MinConfidenceToStore;
// a failed write is logged and the opinion is still returned.
func (s *OpinionService) FormOpinion(ctx context.Context, topic string, analysis *domain.AnalysisResult, rc domain.RequestContext) (*domain.Opinion, error) {
	promptContext := rc.AsMap()
	prompt := fmt.Sprintf(opinionPrompt, topic, analysis.AnalysisSummary, prettyJSON(promptContext), topic)

	belief, err := s.gen.GenerateText(ctx, prompt,
		llm.WithPromptContext(promptContext),
		llm.WithTemperature(s.tuning.OpinionTemperature),
	)
	if err != nil {
		return nil, fmt.Errorf("form opinion on %s: %w", topic, err)
	}

	now := s.now().UTC()
	op := &domain.Opinion{
		ID:         uuid.New().String(),
		Topic:      topic,
		Belief:     belief,
		Confidence: InitialConfidence(analysis, s.tuning),
		Evidence: []domain.Evidence{{
			Type:          domain.EvidenceAnalysisResult,
			Content:       contentMap(analysis),
			Source:        sourceInitialAnalysis,
			Timestamp:     now,
			MatchesBelief: true,
		}},
		FormedAt:        now,
		LastUpdated:     now,
		ValidationCount: 1,
		Metadata: map[string]any{
			"context": promptContext,
			"source":  sourceInitialAnalysis,
		},
	}
	metrics.OpinionConfidence.Observe(op.Confidence)

	if op.Confidence < s.tuning.MinConfidenceToStore {
		s.logger.Debug("opinion below storage threshold",
			zap.String("opinion_id", op.ID),
			zap.Float64("confidence", op.Confidence))
		return op, nil
	}

	content, err := op.ToContent()
	if err != nil {
		s.logger.Error("failed to encode opinion", zap.String("opinion_id", op.ID), zap.Error(err))
		return op, nil
	}
	tags := lo.Uniq(lo.Compact(append([]string{topic}, rc.CurrentSymbols...)))
	if _, err := s.knowledge.AddToShortTerm(ctx, content, sourceOpinionFormation, tags, WithID(op.ID)); err != nil {
		s.logger.Error("failed to store opinion in memory", zap.String("opinion_id", op.ID), zap.Error(err))
	}
	return op, nil
}

// UpdateOpinion appends evidence to a stored opinion, counts one validation,
// recomputes confidence and promotes the record to core when it qualifies.
// Store failures while writing are logged, not returned.
func (s *OpinionService) UpdateOpinion(ctx context.Context, opinionID string, newEvidence []domain.Evidence) (*domain.Opinion, error) {
	for i, e := range newEvidence {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("evidence %d: %w", i, err)
		}
	}

	items, err := s.knowledge.RetrieveMemory(ctx, map[string]any{"id": opinionID}, string(domain.MemoryTypeAll), 1)
	if err != nil {
		return nil, fmt.Errorf("load opinion %s: %w", opinionID, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("opinion %s: %w", opinionID, domain.ErrNotFound)
	}
	item := items[0]

	op, err := domain.OpinionFromContent(item.Content)
	if err != nil {
		return nil, fmt.Errorf("opinion %s: %w", opinionID, err)
	}

	now := s.now().UTC()
	for _, e := range newEvidence {
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		op.Evidence = append(op.Evidence, e)
	}
	op.ValidationCount++
	op.LastUpdated = now
	op.Confidence = RevisedConfidence(op.Confidence, op.ValidationCount, newEvidence, s.tuning)
	metrics.OpinionConfidence.Observe(op.Confidence)

	s.logger.Debug("opinion revised",
		zap.String("opinion_id", op.ID),
		zap.Float64("confidence", op.Confidence),
		zap.Int("validation_count", op.ValidationCount))

	content, err := op.ToContent()
	if err != nil {
		s.logger.Error("failed to encode opinion", zap.String("opinion_id", op.ID), zap.Error(err))
		return op, nil
	}
	item.Content = content
	item.Confidence = op.Confidence
	item.ValidationCount = op.ValidationCount

	if err := s.knowledge.Revise(ctx, &item); err != nil {
		s.logger.Error("failed to update opinion in memory", zap.String("opinion_id", op.ID), zap.Error(err))
		return op, nil
	}

	if !item.IsCore() && ShouldPromote(op.Confidence, op.ValidationCount, s.tuning) {
		if !s.knowledge.MoveToCore(ctx, &item) {
			s.logger.Warn("opinion qualified for core but promotion failed", zap.String("opinion_id", op.ID))
		}
	}
	return op, nil
}
