package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/augur/internal/domain"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by AUGUR_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("AUGUR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// StoreBackend returns the keyed store used for the knowledge tiers.
// Defaults to "memory". Valid values: memory, redis, postgres
func StoreBackend() string {
	b := strings.ToLower(os.Getenv("STORE_BACKEND"))
	if b == "" {
		return "memory"
	}
	return b
}

func RedisAddr() string {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return "localhost:6379"
	}
	return addr
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

func RedisDB() int {
	db, err := strconv.Atoi(os.Getenv("REDIS_DB"))
	if err != nil {
		return 0
	}
	return db
}

// TagIndexEnabled turns on the in-process tag index for memory retrieval.
// Only safe when this process is the sole writer of the store.
func TagIndexEnabled() bool {
	return boolEnv("KNOWLEDGE_TAG_INDEX", StoreBackend() == "memory")
}

// SweepInterval is how often expired short-term rows are purged.
func SweepInterval() time.Duration {
	return durationSeconds("STORE_SWEEP_INTERVAL_SECONDS", 5*time.Minute)
}

// LLMProviderOrder returns the provider priority order probed at startup.
// Accepts a comma-separated list.
func LLMProviderOrder() []string {
	raw := os.Getenv("LLM_PROVIDER_ORDER")
	if raw == "" {
		return []string{"gemini", "openai", "lm_studio", "ollama"}
	}
	var order []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			order = append(order, p)
		}
	}
	return order
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func OpenAIModel() string {
	return envOr("OPENAI_MODEL", "gpt-4o-mini")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func AnthropicModel() string {
	return envOr("ANTHROPIC_MODEL", "claude-3-5-haiku-20241022")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func GeminiModel() string {
	return envOr("GEMINI_MODEL", "gemini-2.0-flash")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

func CerebrasModel() string {
	return envOr("CEREBRAS_MODEL", "llama3.1-8b")
}

func LMStudioEnabled() bool {
	return boolEnv("ENABLE_LM_STUDIO", false)
}

func LMStudioBaseURL() string {
	return os.Getenv("LM_STUDIO_BASE_URL")
}

func LMStudioModel() string {
	return os.Getenv("LM_STUDIO_MODEL")
}

func OllamaEnabled() bool {
	return boolEnv("ENABLE_OLLAMA", false)
}

func OllamaAPIURL() string {
	return os.Getenv("OLLAMA_API_URL")
}

func OllamaModel() string {
	return os.Getenv("OLLAMA_MODEL")
}

// LLMTimeout is the HTTP timeout applied to every backend call.
// Defaults to 30s.
func LLMTimeout() time.Duration {
	return durationSeconds("LLM_API_TIMEOUT_SECONDS", 30*time.Second)
}

// LLMRateLimitRPS caps calls per second to each backend. 0 disables the limit.
func LLMRateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("LLM_RATE_LIMIT_RPS"), 64)
	if err != nil || rps < 0 {
		return 0
	}
	return rps
}

func LLMRateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("LLM_RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 1
	}
	return burst
}

// RateLimitRPS returns requests per second limit for the ops server.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// Tuning returns the pipeline tuning with any AUGUR_* overrides applied.
func Tuning() domain.Tuning {
	t := domain.DefaultTuning()
	t.MinConfidenceToStore = floatEnv("AUGUR_OPINION_MIN_CONFIDENCE_TO_STORE", t.MinConfidenceToStore)
	t.PromotionConfidence = floatEnv("AUGUR_MEMORY_CORE_CONFIDENCE_THRESHOLD", t.PromotionConfidence)
	t.PromotionValidations = intEnv("AUGUR_MEMORY_VALIDATION_THRESHOLD", t.PromotionValidations)
	t.ValidationBoostStep = floatEnv("AUGUR_MEMORY_VALIDATION_CONFIDENCE_BOOST", t.ValidationBoostStep)
	t.EngineConfidence = floatEnv("AUGUR_REASONING_HYPOTHESIS_CONFIDENCE", t.EngineConfidence)
	t.ShortTermTTL = durationSeconds("AUGUR_MEMORY_SHORT_TERM_TTL_SECONDS", t.ShortTermTTL)
	return t
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func floatEnv(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func durationSeconds(key string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(os.Getenv(key))
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
