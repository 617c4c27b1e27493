package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/Harshitk-cp/augur/internal/llm"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	sourceAnalysisPipeline = "analysis_pipeline"
	sourceFeedbackLoop     = "feedback_loop"

	sessionRecordType = "analysis_session"
	corePatternType   = "core_pattern"

	statusSampleLimit = 3
)

// Brain owns the engines and runs the cognitive pipeline. Build one per
// process with NewBrain and pass it to every caller.
type Brain struct {
	gen       Generator
	Knowledge *KnowledgeService
	Learning  *LearningService
	Reasoning *ReasoningService
	Opinions  *OpinionService

	tuning domain.Tuning
	logger *zap.Logger
	now    func() time.Time
}

// NewBrain wires the engines over one gateway and one keyed store.
func NewBrain(gen Generator, kv domain.KVStore, tuning domain.Tuning, logger *zap.Logger) *Brain {
	knowledge := NewKnowledgeService(kv, tuning, logger.Named("knowledge"))
	learning := NewLearningService(knowledge, logger.Named("learning"))
	b := &Brain{
		gen:       gen,
		Knowledge: knowledge,
		Learning:  learning,
		Reasoning: NewReasoningService(gen, knowledge, learning, tuning, logger.Named("reasoning")),
		Opinions:  NewOpinionService(gen, knowledge, tuning, logger.Named("opinion")),
		tuning:    tuning,
		logger:    logger,
		now:       time.Now,
	}
	logger.Info("brain initialized",
		zap.String("default_provider", gen.DefaultProvider()),
		zap.Strings("providers", gen.Available()))
	return b
}

// SetClock replaces time.Now across every engine.
func (b *Brain) SetClock(now func() time.Time) {
	b.now = now
	b.Knowledge.SetClock(now)
	b.Learning.now = now
	b.Reasoning.now = now
	b.Opinions.now = now
}

// UnderstandQueryIntent parses a free-text query into an Intent. It never
// fails: gateway or decoding errors yield a degraded intent carrying the
// error message.
func (b *Brain) UnderstandQueryIntent(ctx context.Context, queryText string, chatContext map[string]any, provider string) *domain.Intent {
	chat := "None"
	if len(chatContext) > 0 {
		if raw, err := json.Marshal(llm.SerializeContext(chatContext)); err == nil {
			chat = string(raw)
		}
	}
	prompt := fmt.Sprintf(intentPrompt, queryText, chat)

	var opts []llm.Option
	if provider != "" {
		opts = append(opts, llm.WithProvider(provider))
	}

	raw, err := b.gen.GenerateStructuredOutput(ctx, prompt, intentSchema, opts...)
	if err != nil {
		b.logger.Warn("error parsing query intent", zap.String("query", queryText), zap.Error(err))
		return domain.DegradedIntent(err.Error())
	}

	intent, err := decodeIntent(raw)
	if err != nil {
		b.logger.Warn("malformed query intent", zap.String("query", queryText), zap.Error(err))
		return domain.DegradedIntent(err.Error())
	}

	enrichIntent(intent, chatContext)
	checkIntent(intent)

	b.logger.Debug("parsed intent",
		zap.String("query_type", intent.QueryType),
		zap.Strings("symbols", intent.Entities.Symbols),
		zap.String("user_goal", intent.UserGoal))
	return intent
}

// decodeIntent normalises the loosely shaped model output and decodes it.
// Non-list symbols, indicators or keywords become empty lists.
func decodeIntent(raw map[string]any) (*domain.Intent, error) {
	entities, ok := raw["entities"].(map[string]any)
	if !ok {
		entities = map[string]any{}
	}
	for _, key := range []string{"symbols", "indicators", "keywords"} {
		list, ok := entities[key].([]any)
		if !ok {
			entities[key] = []string{}
			continue
		}
		entities[key] = lo.FilterMap(list, func(v any, _ int) (string, bool) {
			s, ok := v.(string)
			s = strings.TrimSpace(s)
			return s, ok && s != ""
		})
	}
	raw["entities"] = entities

	var intent domain.Intent
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &intent,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: intent: %v", domain.ErrValidation, err)
	}

	intent.QueryType = strings.TrimSpace(intent.QueryType)
	intent.UserGoal = strings.TrimSpace(intent.UserGoal)
	intent.Entities.Symbols = lo.Uniq(lo.Map(intent.Entities.Symbols, func(s string, _ int) string {
		return strings.ToUpper(s)
	}))
	if intent.Entities.Indicators == nil {
		intent.Entities.Indicators = []string{}
	}
	if intent.Entities.Keywords == nil {
		intent.Entities.Keywords = []string{}
	}
	// Parsed intents never carry an error.
	intent.Error = ""
	return &intent, nil
}

// enrichIntent fills missing symbols from the chat's current symbol.
func enrichIntent(intent *domain.Intent, chatContext map[string]any) {
	if len(intent.Entities.Symbols) > 0 {
		return
	}
	if sym, ok := chatContext["current_symbol"].(string); ok && sym != "" {
		intent.Entities.Symbols = []string{strings.ToUpper(sym)}
	}
}

// checkIntent decides whether the pipeline can serve the intent.
func checkIntent(intent *domain.Intent) {
	switch intent.QueryType {
	case "", domain.QueryTypeUnknown:
		intent.CanHandle = false
		intent.ErrorMessage = "I could not tell what kind of analysis you are asking for. Try naming a symbol and what you want to know about it."
	default:
		intent.CanHandle = true
		intent.ErrorMessage = ""
	}
}

// ProcessDataAndGenerateAnalysis runs analysis, opinion formation and, when
// warranted, a trading suggestion, then records the session. Gateway errors
// are returned; store errors are logged.
func (b *Brain) ProcessDataAndGenerateAnalysis(ctx context.Context, input domain.InputData, intent *domain.Intent, rc domain.RequestContext) (*domain.Interaction, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: intent is required", domain.ErrValidation)
	}
	b.logger.Info("processing data", zap.String("query_type", intent.QueryType))

	analysis, err := b.Reasoning.AnalyzeData(ctx, input, rc, intent)
	if err != nil {
		return nil, err
	}

	topic := opinionTopic(intent)
	op, err := b.Opinions.FormOpinion(ctx, topic, analysis, rc)
	if err != nil {
		return nil, err
	}

	var suggestion *domain.Suggestion
	if domain.TradingGoal(intent.UserGoal) || op.Confidence > b.tuning.SuggestionConfidence {
		suggestion, err = b.Reasoning.GenerateTradingSuggestion(ctx, analysis, rc.PortfolioSnapshot, rc.RiskProfile())
		if err != nil {
			return nil, err
		}
	}

	var suggestionContent any
	if suggestion != nil {
		suggestionContent = contentMap(suggestion)
	}
	content := map[string]any{
		"type":               sessionRecordType,
		"query_intent":       intent.AsMap(),
		"input_data_summary": input.Describe(),
		"analysis_summary":   analysis.AnalysisSummary,
		"opinion_id":         op.ID,
		"opinion_belief":     op.Belief,
		"opinion_confidence": op.Confidence,
		"trading_suggestion": suggestionContent,
	}
	sessionType := intent.QueryType
	if sessionType == "" {
		sessionType = "analysis"
	}
	tags := append(append([]string{}, intent.Entities.Symbols...), sessionType)
	item, err := b.Knowledge.AddToShortTerm(ctx, content, sourceAnalysisPipeline, tags)
	if err != nil {
		b.logger.Warn("failed to record analysis session", zap.String("memory_id", item.ID), zap.Error(err))
	}

	return &domain.Interaction{
		Analysis:          analysis,
		Opinion:           op,
		TradingSuggestion: suggestion,
	}, nil
}

// opinionTopic is the joined symbols, else the query type.
func opinionTopic(intent *domain.Intent) string {
	if len(intent.Entities.Symbols) > 0 {
		return strings.Join(intent.Entities.Symbols, ", ")
	}
	if intent.QueryType != "" {
		return intent.QueryType
	}
	return domain.QueryTypeGeneral
}

// LearnFromInteractionOutcome records the outcome and, when the interaction
// produced an opinion, revises it with the outcome as evidence.
func (b *Brain) LearnFromInteractionOutcome(ctx context.Context, rec *domain.InteractionRecord, outcome map[string]any) error {
	if rec == nil {
		return fmt.Errorf("%w: interaction is required", domain.ErrValidation)
	}
	b.logger.Info("learning from outcome", zap.String("opinion_id", rec.PriorOpinionID()))

	symbol := rec.RequestContext.Symbol
	if symbol == "" {
		symbol = rec.RequestContext.CurrentSymbol
	}
	dataContext := domain.FeedbackContext{
		QueryIntent:    rec.QueryIntent,
		InputData:      rec.InputDataSummary,
		RequestContext: rec.RequestContext.AsMap(),
		Symbol:         symbol,
	}
	b.Learning.LearnFromFeedback(ctx, dataContext, outcome, rec.Opinion)

	opinionID := rec.PriorOpinionID()
	if opinionID == "" {
		return nil
	}

	matches, _ := outcome["matches_belief"].(bool)
	evidence := domain.Evidence{
		Type:          domain.EvidenceObservedOutcome,
		Content:       outcome,
		Source:        sourceFeedbackLoop,
		Timestamp:     b.now().UTC(),
		MatchesBelief: matches,
	}
	if _, err := b.Opinions.UpdateOpinion(ctx, opinionID, []domain.Evidence{evidence}); err != nil {
		return fmt.Errorf("revise opinion %s: %w", opinionID, err)
	}
	return nil
}

// SystemStatus is a snapshot of the brain for operators.
type SystemStatus struct {
	Status               string   `json:"status"`
	DefaultProvider      string   `json:"default_llm_provider"`
	AvailableProviders   []string `json:"available_llm_providers"`
	RecentCoreMemories   int      `json:"recent_core_memories_count"`
	RecentPatterns       int      `json:"recent_patterns_learned_count"`
	SampleRecentPatterns []string `json:"sample_recent_patterns"`
}

// Status reports the active providers and a sample of recent core learnings.
func (b *Brain) Status(ctx context.Context) (*SystemStatus, error) {
	core, err := b.Knowledge.RetrieveMemory(ctx, map[string]any{}, string(domain.MemoryTypeCore), statusSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("recent core memories: %w", err)
	}
	patterns, err := b.Knowledge.RetrieveMemory(ctx, map[string]any{"content.type": corePatternType}, string(domain.MemoryTypeCore), statusSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("recent patterns: %w", err)
	}

	names := make([]string, 0, len(patterns))
	for _, item := range patterns {
		var p domain.Pattern
		raw, err := json.Marshal(item.Content)
		if err == nil {
			err = json.Unmarshal(raw, &p)
		}
		if err != nil || p.Name == "" {
			continue
		}
		names = append(names, p.Name)
	}

	return &SystemStatus{
		Status:               "operational",
		DefaultProvider:      b.gen.DefaultProvider(),
		AvailableProviders:   b.gen.Available(),
		RecentCoreMemories:   len(core),
		RecentPatterns:       len(patterns),
		SampleRecentPatterns: names,
	}, nil
}

// IsDegraded reports whether err came from a failed generation call, as
// opposed to a validation or missing-record error.
func IsDegraded(err error) bool {
	return errors.Is(err, llm.ErrProviderCallFailed)
}
