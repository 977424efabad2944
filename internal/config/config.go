package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort          int    `mapstructure:"APP_PORT"`
	DatabasePath     string `mapstructure:"DATABASE_PATH"`
	RedisAddr        string `mapstructure:"REDIS_ADDR"` // empty means use SQLite
	GeminiAPIKey     string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel      string `mapstructure:"GEMINI_MODEL"`
	EnableThinking   bool   `mapstructure:"ENABLE_THINKING"`
	DebounceMillis   int    `mapstructure:"DEBOUNCE_MILLIS"`
	PollMillis       int    `mapstructure:"POLL_MILLIS"`
	PollMaxAttempts  int    `mapstructure:"POLL_MAX_ATTEMPTS"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 8000)
	viper.SetDefault("DATABASE_PATH", "/data/leetmate.db")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("ENABLE_THINKING", true)
	viper.SetDefault("DEBOUNCE_MILLIS", 200)
	viper.SetDefault("POLL_MILLIS", 500)
	viper.SetDefault("POLL_MAX_ATTEMPTS", 40)
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Debounce is the coalescing window for mutation-triggered reparses.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// PollInterval is the fixed interval of the run-result poll loop.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollMillis) * time.Millisecond
}
