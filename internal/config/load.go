package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (prefix INKMILL_, nested keys joined with _) take
// precedence over values from the config file, which takes precedence over
// defaults. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional YAML config file in the working directory or /etc/inkmill.
	v.SetConfigName("inkmill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/inkmill")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; env vars and defaults still apply.
	}

	v.SetEnvPrefix("INKMILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets (database URL, API key) deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Registered empty so AutomaticEnv can bind them; validation rejects
	// the empty values if nothing supplies one.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("cache.redis_addr", "")

	v.SetDefault("cache.backend", "postgres")
	v.SetDefault("cache.ttl_seconds", 86400)

	v.SetDefault("llm.provider", "deepseek")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("generate.features", []string{"summary"})
	v.SetDefault("generate.language", "en")
	v.SetDefault("generate.max_summary_length", 200)
	v.SetDefault("generate.max_tags", 5)
	v.SetDefault("generate.seo_length", 200)
	v.SetDefault("generate.default_category", "General")
	v.SetDefault("generate.quality_threshold", 0.8)
	v.SetDefault("generate.max_refine_attempts", 3)
	v.SetDefault("generate.segment_max_length", 3000)
	v.SetDefault("generate.segment_min_length", 200)
	v.SetDefault("generate.segment_overlap", 0)

	v.SetDefault("queue.batch_size", 5)
	v.SetDefault("queue.worker_count", 2)
	v.SetDefault("queue.max_load", 4.0)
	v.SetDefault("queue.lease_minutes", 30)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.throttle_every", 10)
	v.SetDefault("queue.min_task_interval_ms", 200)

	v.SetDefault("governor.max_concurrent", 8)
	v.SetDefault("governor.memory_limit_bytes", 256<<20)
	v.SetDefault("governor.time_limit_seconds", 300)
}
