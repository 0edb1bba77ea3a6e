package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	JudgeURL             string
	JudgeAPIKey          string
	JudgeTimeout         time.Duration
	PollMaxAttempts      int
	PollDelay            time.Duration
	MaxCodeBytes         int
	MaxSubmissionsPerDay int
	SubmitBurstLimit     int
	SubmitBurstWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PREPSTACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "PrepStack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.timeout_ms", 10000)
	v.SetDefault("poll.max_attempts", 10)
	v.SetDefault("poll.delay_ms", 1000)
	v.SetDefault("max_code_bytes", 10000)
	v.SetDefault("max_submissions_per_day", 50)
	v.SetDefault("submit.burst_limit", 10)
	v.SetDefault("submit.burst_window_ms", 60000)

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		JudgeURL:             v.GetString("judge.url"),
		JudgeAPIKey:          v.GetString("judge.api_key"),
		JudgeTimeout:         time.Duration(v.GetInt("judge.timeout_ms")) * time.Millisecond,
		PollMaxAttempts:      v.GetInt("poll.max_attempts"),
		PollDelay:            time.Duration(v.GetInt("poll.delay_ms")) * time.Millisecond,
		MaxCodeBytes:         v.GetInt("max_code_bytes"),
		MaxSubmissionsPerDay: v.GetInt("max_submissions_per_day"),
		SubmitBurstLimit:     v.GetInt("submit.burst_limit"),
		SubmitBurstWindow:    time.Duration(v.GetInt("submit.burst_window_ms")) * time.Millisecond,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeURL == "" {
		return Config{}, fmt.Errorf("judge url must be provided")
	}

	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = 10000
	}

	if cfg.MaxSubmissionsPerDay <= 0 {
		cfg.MaxSubmissionsPerDay = 50
	}

	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 10
	}

	if cfg.PollDelay <= 0 {
		cfg.PollDelay = time.Second
	}

	return cfg, nil
}
