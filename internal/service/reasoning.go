package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/llm"
	"go.uber.org/zap"
)

const sourceReasoningAnalysis = "reasoning_analysis"

// ReasoningService turns analytical payloads into narrative analyses and
// trading suggestions.
type ReasoningService struct {
	gen       Generator
	knowledge *KnowledgeService
	learning  *LearningService
	logger    *zap.Logger
	now       func() time.Time

	engineConfidence      float64
	analysisTemperature   float64
	suggestionTemperature float64
}

func NewReasoningService(gen Generator, knowledge *KnowledgeService, learning *LearningService, tuning domain.Tuning, logger *zap.Logger) *ReasoningService {
	return &ReasoningService{
		gen:                   gen,
		knowledge:             knowledge,
		learning:              learning,
		logger:                logger,
		now:                   time.Now,
		engineConfidence:      tuning.EngineConfidence,
		analysisTemperature:   tuning.AnalysisTemperature,
		suggestionTemperature: tuning.SuggestionTemperature,
	}
}

// AnalyzeData picks a template by the intent's query type, asks the gateway
// for a narrative and records the result to short-term memory.
func (s *ReasoningService) AnalyzeData(ctx context.Context, data domain.InputData, rc domain.RequestContext, intent *domain.Intent) (*domain.AnalysisResult, error) {
	queryType := domain.QueryTypeGeneral
	if intent != nil && intent.QueryType != "" {
		queryType = intent.QueryType
	}

	prompt := analysisPrompt(queryType, data, rc)
	text, err := s.gen.GenerateText(ctx, prompt,
		llm.WithPromptContext(rc.AsMap()),
		llm.WithTemperature(s.analysisTemperature),
	)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", queryType, err)
	}

	confidence := s.engineConfidence
	result := &domain.AnalysisResult{
		AnalysisSummary:   text,
		Timestamp:         s.now().UTC(),
		DataAnalyzed:      data.Describe(),
		QueryType:         queryType,
		Confidence:        &confidence,
		Insights:          []map[string]any{},
		ChartsForFrontend: chartRecommendations(data),
	}

	// Detected patterns become insights.
	for _, p := range s.learning.IdentifyPatterns(ctx, data.Slice(queryType)) {
		result.Insights = append(result.Insights, map[string]any{"pattern": p.Name, "confidence": p.Confidence})
	}

	tags := append([]string{queryType}, rc.CurrentSymbols...)
	item, err := s.knowledge.AddToShortTerm(ctx, contentMap(result), sourceReasoningAnalysis, tags)
	if err != nil {
		s.logger.Warn("failed to record analysis",
			zap.String("memory_id", item.ID),
			zap.String("query_type", queryType),
			zap.Error(err))
	}
	return result, nil
}

// GenerateTradingSuggestion issues one gateway call combining the analysis,
// portfolio and risk profile.
func (s *ReasoningService) GenerateTradingSuggestion(ctx context.Context, analysis *domain.AnalysisResult, portfolio map[string]any, riskProfile string) (*domain.Suggestion, error) {
	promptContext := map[string]any{
		"analysis":     analysis.AsMap(),
		"portfolio":    portfolio,
		"risk_profile": riskProfile,
	}

	text, err := s.gen.GenerateText(ctx, tradingSuggestionPrompt,
		llm.WithPromptContext(promptContext),
		llm.WithTemperature(s.suggestionTemperature),
	)
	if err != nil {
		return nil, fmt.Errorf("generate trading suggestion: %w", err)
	}

	return &domain.Suggestion{
		SuggestionText:    text,
		RiskProfile:       riskProfile,
		AnalysisTimestamp: analysis.Timestamp,
		Confidence:        s.engineConfidence,
	}, nil
}

func analysisPrompt(queryType string, data domain.InputData, rc domain.RequestContext) string {
	symbol := rc.CurrentSymbol
	if symbol == "" {
		symbol = "the requested instrument"
	}
	payload := prettyJSON(data.Slice(queryType))

	switch queryType {
	case domain.QueryTypeTechnical:
		return fmt.Sprintf(technicalAnalysisPrompt, symbol, payload)
	case domain.QueryTypeFundamental:
		return fmt.Sprintf(fundamentalAnalysisPrompt, symbol, payload)
	case domain.QueryTypeSentiment:
		return fmt.Sprintf(sentimentAnalysisPrompt, symbol, payload)
	default:
		return fmt.Sprintf(generalAnalysisPrompt, symbol, payload)
	}
}

// chartRecommendations lists charts worth drawing for the payload. No chart
// mapping exists yet, so it is always empty.
func chartRecommendations(data domain.InputData) []map[string]any {
	return []map[string]any{}
}

func prettyJSON(m map[string]any) string {
	b, err := json.MarshalIndent(llm.SerializeContext(m), "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(b)
}
