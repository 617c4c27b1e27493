package domain

import (
	"encoding/json"
	"time"
)

// Known payload slots of the analytical data feed.
const (
	PayloadTechnical   = "technical_data"
	PayloadFundamental = "fundamental_data"
	PayloadSentiment   = "sentiment_data"
)

// InputData is the analytical payload handed to the pipeline by the data
// services. The three known slots are typed by query type; anything else is
// kept verbatim in Extra.
type InputData struct {
	TechnicalData   map[string]any
	FundamentalData map[string]any
	SentimentData   map[string]any
	Extra           map[string]any
}

// InputDataFromMap sorts a raw payload into its known slots. A known key whose
// value is not an object is kept in Extra.
func InputDataFromMap(m map[string]any) InputData {
	var d InputData
	for k, v := range m {
		obj, isObj := v.(map[string]any)
		switch {
		case k == PayloadTechnical && isObj:
			d.TechnicalData = obj
		case k == PayloadFundamental && isObj:
			d.FundamentalData = obj
		case k == PayloadSentiment && isObj:
			d.SentimentData = obj
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]any)
			}
			d.Extra[k] = v
		}
	}
	return d
}

func (d *InputData) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = InputDataFromMap(m)
	return nil
}

func (d InputData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.AsMap())
}

// AsMap flattens the payload back into its wire shape.
func (d InputData) AsMap() map[string]any {
	out := make(map[string]any, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.TechnicalData != nil {
		out[PayloadTechnical] = d.TechnicalData
	}
	if d.FundamentalData != nil {
		out[PayloadFundamental] = d.FundamentalData
	}
	if d.SentimentData != nil {
		out[PayloadSentiment] = d.SentimentData
	}
	return out
}

// Slice returns the part of the payload a query type reasons over. Query
// types without a dedicated slot see the whole payload.
func (d InputData) Slice(queryType string) map[string]any {
	var slot map[string]any
	switch queryType {
	case QueryTypeTechnical:
		slot = d.TechnicalData
	case QueryTypeFundamental:
		slot = d.FundamentalData
	case QueryTypeSentiment:
		slot = d.SentimentData
	default:
		return d.AsMap()
	}
	if slot == nil {
		return map[string]any{}
	}
	return slot
}

// Describe maps each top-level key to the type name of its value. It never
// copies the payload itself.
func (d InputData) Describe() map[string]string {
	return DescribeMap(d.AsMap())
}

// DescribeMap maps each key of m to the type name of its value.
func DescribeMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = TypeName(v)
	}
	return out
}

// TypeName returns a short type descriptor for a decoded payload value.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64, json.Number:
		return "float"
	case time.Time, *time.Time:
		return "datetime"
	case map[string]any:
		return "map"
	case []any, []string, []map[string]any, []float64, []int:
		return "list"
	default:
		return "object"
	}
}

// RequestContext is the caller's view of the request: symbols in focus,
// portfolio and risk profile. Unrecognised keys are kept in Extra.
type RequestContext struct {
	CurrentSymbol     string
	CurrentSymbols    []string
	Symbol            string
	PortfolioSnapshot map[string]any
	UserRiskProfile   string
	Extra             map[string]any
}

const DefaultRiskProfile = "moderate"

// RequestContextFromMap reads the documented fields out of a raw context map.
func RequestContextFromMap(m map[string]any) RequestContext {
	var rc RequestContext
	for k, v := range m {
		switch k {
		case "current_symbol":
			rc.CurrentSymbol, _ = v.(string)
		case "current_symbols":
			rc.CurrentSymbols = stringList(v)
		case "symbol":
			rc.Symbol, _ = v.(string)
		case "portfolio_snapshot":
			rc.PortfolioSnapshot, _ = v.(map[string]any)
		case "user_risk_profile":
			rc.UserRiskProfile, _ = v.(string)
		default:
			if rc.Extra == nil {
				rc.Extra = make(map[string]any)
			}
			rc.Extra[k] = v
		}
	}
	return rc
}

func (rc *RequestContext) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*rc = RequestContextFromMap(m)
	return nil
}

func (rc RequestContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(rc.AsMap())
}

// AsMap renders the context for prompts. Empty fields are omitted.
func (rc RequestContext) AsMap() map[string]any {
	out := make(map[string]any, len(rc.Extra)+5)
	for k, v := range rc.Extra {
		out[k] = v
	}
	if rc.CurrentSymbol != "" {
		out["current_symbol"] = rc.CurrentSymbol
	}
	if len(rc.CurrentSymbols) > 0 {
		out["current_symbols"] = rc.CurrentSymbols
	}
	if rc.Symbol != "" {
		out["symbol"] = rc.Symbol
	}
	if rc.PortfolioSnapshot != nil {
		out["portfolio_snapshot"] = rc.PortfolioSnapshot
	}
	if rc.UserRiskProfile != "" {
		out["user_risk_profile"] = rc.UserRiskProfile
	}
	return out
}

// RiskProfile returns the user's risk profile, defaulting to moderate.
func (rc RequestContext) RiskProfile() string {
	if rc.UserRiskProfile == "" {
		return DefaultRiskProfile
	}
	return rc.UserRiskProfile
}

func stringList(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// AnalysisResult is the reasoning engine's narrative over one payload.
// DataAnalyzed holds type descriptors only.
type AnalysisResult struct {
	AnalysisSummary   string            `json:"analysis_summary"`
	Timestamp         time.Time         `json:"timestamp"`
	DataAnalyzed      map[string]string `json:"data_analyzed"`
	QueryType         string            `json:"query_type"`
	Confidence        *float64          `json:"confidence,omitempty"`
	DataQualityScore  *float64          `json:"data_quality_score,omitempty"`
	Insights          []map[string]any  `json:"insights"`
	ChartsForFrontend []map[string]any  `json:"charts_for_frontend"`
}

// AsMap renders the result for prompt context, keeping the timestamp as a
// time value so the gateway serializes it.
func (a *AnalysisResult) AsMap() map[string]any {
	analyzed := make(map[string]any, len(a.DataAnalyzed))
	for k, v := range a.DataAnalyzed {
		analyzed[k] = v
	}
	out := map[string]any{
		"analysis_summary":    a.AnalysisSummary,
		"timestamp":           a.Timestamp,
		"data_analyzed":       analyzed,
		"query_type":          a.QueryType,
		"insights":            a.Insights,
		"charts_for_frontend": a.ChartsForFrontend,
	}
	if a.Confidence != nil {
		out["confidence"] = *a.Confidence
	}
	if a.DataQualityScore != nil {
		out["data_quality_score"] = *a.DataQualityScore
	}
	return out
}

// Suggestion is a trading recommendation derived from an analysis.
type Suggestion struct {
	SuggestionText    string    `json:"suggestion_text"`
	RiskProfile       string    `json:"risk_profile"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
	Confidence        float64   `json:"confidence"`
}

// Interaction is the full output of one analysis pipeline run.
type Interaction struct {
	Analysis          *AnalysisResult `json:"analysis"`
	Opinion           *Opinion        `json:"opinion"`
	TradingSuggestion *Suggestion     `json:"trading_suggestion,omitempty"`
}

// InteractionRecord is what the caller hands back when the outcome of an
// earlier interaction becomes known.
type InteractionRecord struct {
	QueryIntent      *Intent           `json:"query_intent,omitempty"`
	InputDataSummary map[string]string `json:"input_data_summary,omitempty"`
	RequestContext   RequestContext    `json:"request_context"`
	OpinionID        string            `json:"opinion_id,omitempty"`
	Opinion          *Opinion          `json:"opinion,omitempty"`
}

// PriorOpinionID returns the id of the opinion the interaction produced, if any.
func (r *InteractionRecord) PriorOpinionID() string {
	if r.OpinionID != "" {
		return r.OpinionID
	}
	if r.Opinion != nil {
		return r.Opinion.ID
	}
	return ""
}

// FeedbackContext is what the learning engine records alongside an outcome.
type FeedbackContext struct {
	QueryIntent    *Intent           `json:"query_intent,omitempty"`
	InputData      map[string]string `json:"input_data,omitempty"`
	RequestContext map[string]any    `json:"request_context,omitempty"`
	Symbol         string            `json:"symbol,omitempty"`
}
