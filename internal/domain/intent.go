package domain

// Query types the reasoning engine has dedicated templates for.
const (
	QueryTypeTechnical   = "technical_analysis"
	QueryTypeFundamental = "fundamental_analysis"
	QueryTypeSentiment   = "market_sentiment"
	QueryTypeGeneral     = "general"
	QueryTypeUnknown     = "unknown"
)

// User goals that always warrant a trading suggestion.
const (
	GoalFindBuyOpportunity  = "find_buy_opportunity"
	GoalFindSellOpportunity = "find_sell_opportunity"
	GoalAssessTrade         = "assess_trade"
	GoalUnknown             = "unknown"
)

// TradingGoal reports whether the goal asks for a trade decision.
func TradingGoal(goal string) bool {
	switch goal {
	case GoalFindBuyOpportunity, GoalFindSellOpportunity, GoalAssessTrade:
		return true
	}
	return false
}

type Entities struct {
	Symbols    []string `json:"symbols" mapstructure:"symbols"`
	Indicators []string `json:"indicators" mapstructure:"indicators"`
	Timeframe  *string  `json:"timeframe" mapstructure:"timeframe"`
	Keywords   []string `json:"keywords" mapstructure:"keywords"`
}

// Intent is the structured reading of a free-text query.
type Intent struct {
	QueryType    string   `json:"query_type" mapstructure:"query_type"`
	Entities     Entities `json:"entities" mapstructure:"entities"`
	UserGoal     string   `json:"user_goal" mapstructure:"user_goal"`
	CanHandle    bool     `json:"can_handle" mapstructure:"can_handle"`
	ErrorMessage string   `json:"error_message,omitempty" mapstructure:"error_message"`
	Error        string   `json:"error,omitempty" mapstructure:"error"`
}

// DegradedIntent is returned when the query could not be parsed at all.
func DegradedIntent(reason string) *Intent {
	return &Intent{
		QueryType: QueryTypeUnknown,
		UserGoal:  GoalUnknown,
		Error:     reason,
	}
}

// Degraded reports whether the intent came from a failed parse.
func (i *Intent) Degraded() bool {
	return i.Error != ""
}

// AsMap renders the intent for prompts and memory records.
func (i *Intent) AsMap() map[string]any {
	m, err := toMap(i)
	if err != nil {
		return map[string]any{"query_type": i.QueryType, "user_goal": i.UserGoal}
	}
	return m
}
