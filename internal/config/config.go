package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Generate GenerateConfig `mapstructure:"generate" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Governor GovernorConfig `mapstructure:"governor" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// CacheConfig controls the artifact cache layer.
//
// TTLSeconds follows the engine's three cache regimes: negative bypasses
// the cache entirely, zero caches forever, positive bounds entry age.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"     validate:"required,oneof=postgres redis"`
	RedisAddr  string `mapstructure:"redis_addr"  validate:"required_if=Backend redis"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// LLMConfig contains all LLM endpoint related settings.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider"            validate:"required,oneof=deepseek openai custom"`
	APIKey            string  `mapstructure:"api_key"             validate:"required"`
	Model             string  `mapstructure:"model"               validate:"required"`
	BaseURL           string  `mapstructure:"base_url"            validate:"required_if=Provider custom,omitempty,url"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"gte=1"`
	Temperature       float64 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
	MaxTokens         int     `mapstructure:"max_tokens"          validate:"gt=0"`
}

// GenerateConfig controls which artifacts are produced and how.
type GenerateConfig struct {
	Features          []string          `mapstructure:"features"            validate:"required,min=1,dive,oneof=summary tags category seo"`
	Language          string            `mapstructure:"language"            validate:"required"`
	MaxSummaryLength  int               `mapstructure:"max_summary_length"  validate:"gt=0"`
	MaxTags           int               `mapstructure:"max_tags"            validate:"gte=1,lte=10"`
	SEOLength         int               `mapstructure:"seo_length"          validate:"gt=0"`
	DefaultCategory   string            `mapstructure:"default_category"`
	Categories        []string          `mapstructure:"categories"`
	Prompts           map[string]string `mapstructure:"prompts"`
	QualityThreshold  float64           `mapstructure:"quality_threshold"   validate:"gte=0,lte=1"`
	MaxRefineAttempts int               `mapstructure:"max_refine_attempts" validate:"gte=1"`
	SegmentMaxLength  int               `mapstructure:"segment_max_length"  validate:"gt=0"`
	SegmentMinLength  int               `mapstructure:"segment_min_length"  validate:"gte=0"`
	SegmentOverlap    int               `mapstructure:"segment_overlap"     validate:"gte=0"`
}

// QueueConfig controls the durable task queue and its workers.
type QueueConfig struct {
	BatchSize         int     `mapstructure:"batch_size"           validate:"gte=1"`
	WorkerCount       int     `mapstructure:"worker_count"         validate:"gte=1"`
	MaxLoad           float64 `mapstructure:"max_load"             validate:"gt=0"`
	LeaseMinutes      int     `mapstructure:"lease_minutes"        validate:"gte=1"`
	MaxRetries        int     `mapstructure:"max_retries"          validate:"gte=0"`
	ThrottleEvery     int     `mapstructure:"throttle_every"       validate:"gte=1"`
	MinTaskIntervalMS int     `mapstructure:"min_task_interval_ms" validate:"gte=0"`
}

// GovernorConfig bounds resource usage for a single orchestration run.
type GovernorConfig struct {
	MaxConcurrent    int   `mapstructure:"max_concurrent"     validate:"gte=1"`
	MemoryLimitBytes int64 `mapstructure:"memory_limit_bytes" validate:"gt=0"`
	TimeLimitSeconds int64 `mapstructure:"time_limit_seconds" validate:"gt=0"`
}

// FeatureEnabled reports whether the given artifact feature is configured.
func (g GenerateConfig) FeatureEnabled(name string) bool {
	for _, f := range g.Features {
		if f == name {
			return true
		}
	}
	return false
}
