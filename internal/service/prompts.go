package service

const technicalAnalysisPrompt = `Analyze the technical indicators and price action for %s:

Technical Data:
%s

Consider:
1. Trend analysis (short, medium, long term)
2. Support and resistance levels
3. Technical indicator signals
4. Pattern formations
5. Volume analysis
6. Momentum indicators

Provide a comprehensive technical analysis with specific insights and predictions.`

const fundamentalAnalysisPrompt = `Analyze the fundamental data for %s:

Financial Data:
%s

Consider:
1. Financial ratios
2. Growth metrics
3. Industry comparison
4. Business model strength
5. Market position
6. Risk factors

Provide a comprehensive fundamental analysis with specific insights about the company's value.`

const sentimentAnalysisPrompt = `Analyze market sentiment for %s:

Sentiment Data:
%s

Consider:
1. News sentiment
2. Social media trends
3. Analyst opinions
4. Market sentiment indicators
5. Institutional activity

Provide a comprehensive sentiment analysis with specific insights about market perception.`

const generalAnalysisPrompt = `Provide a comprehensive analysis of %s:

Available Data:
%s

Consider:
1. Overall market context
2. Available technical signals
3. Fundamental factors
4. Market sentiment
5. Risk factors

Provide a balanced analysis combining all available information.`

const tradingSuggestionPrompt = `Based on the analysis and considering the current portfolio and risk profile,
generate specific trading suggestions. Include:
1. Recommended actions (buy/sell/hold)
2. Risk assessment
3. Position size recommendations
4. Entry/exit points if applicable`

const opinionPrompt = `Based on the following analysis of %s, form a clear opinion:

Analysis Results:
%s

Market Context:
%s

Consider:
1. Strength of evidence in the analysis
2. Market conditions and context
3. Historical patterns and precedents
4. Risk factors and uncertainties

Provide a clear, well-reasoned opinion about %s that includes:
1. Main belief/conclusion
2. Key supporting evidence
3. Potential counter-arguments
4. Level of conviction`

const intentPrompt = `Parse the following user query into a structured intent based on the provided schema.
Identify stock symbols (assume uppercase are symbols), technical indicators, timeframes, and other keywords.
Infer the primary goal of the user.

User Query: %q

Chat Context (if any, for disambiguation): %s`

// intentSchema describes the Intent shape to the model. It is advisory.
var intentSchema = map[string]any{
	"query_type": "str (one of 'technical_analysis', 'fundamental_analysis', 'market_sentiment', 'general', or another short label such as 'stock_price', 'compare_stocks', 'portfolio_status')",
	"entities": map[string]any{
		"symbols":    "List[str] (stock tickers like AAPL, MSFT)",
		"indicators": "List[str] (technical indicators like RSI, MACD)",
		"timeframe":  "Optional[str] (e.g., '1D', '1W', 'YTD')",
		"keywords":   "List[str] (other relevant keywords from query)",
	},
	"user_goal": "str (inferred goal of the user, e.g., 'assess_risk', 'find_buy_opportunity', 'find_sell_opportunity', 'assess_trade')",
}
