package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/speechgateway/internal/tts"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	TTS      TTSConfig
	Usage    UsageConfig
	Client   ClientConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string // empty disables auth on the speech route
}

// TTSConfig is the process-wide synthesis configuration. It is loaded once
// and never mutated afterwards.
type TTSConfig struct {
	OpenAIKey      string // optional; absence is reported per request
	OpenAIBaseURL  string
	Model          string
	Voice          string
	Instructions   string
	Timeout        time.Duration
	MaxConcurrency int
}

type UsageConfig struct {
	Enabled bool
}

type ClientConfig struct {
	APIURL string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	timeout, err := getEnvDuration("TTS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_TIMEOUT: %w", err)
	}

	maxConcurrency, err := getEnvInt("TTS_MAX_CONCURRENCY", 16)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MAX_CONCURRENCY: %w", err)
	}

	usageEnabled, err := getEnvBool("USAGE_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid USAGE_ENABLED: %w", err)
	}

	instructions := getEnv("TTS_INSTRUCTIONS", "")
	if instructions == "" {
		if name := getEnv("TTS_INSTRUCTIONS_PRESET", ""); name != "" {
			preset, ok := tts.Preset(name)
			if !ok {
				return nil, fmt.Errorf("unknown TTS_INSTRUCTIONS_PRESET %q", name)
			}
			instructions = preset
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   rps,
			RateLimitBurst: burst,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		TTS: TTSConfig{
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("TTS_OPENAI_BASE_URL", ""),
			Model:          getEnv("TTS_MODEL", tts.DefaultModel),
			Voice:          getEnv("TTS_VOICE", tts.DefaultVoice),
			Instructions:   instructions,
			Timeout:        timeout,
			MaxConcurrency: maxConcurrency,
		},
		Usage: UsageConfig{
			Enabled: usageEnabled,
		},
		Client: ClientConfig{
			APIURL: strings.TrimRight(getEnv("API_URL", "http://localhost:8080/api"), "/"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ValidateWorker reports the settings the usage worker cannot run without.
func (c *Config) ValidateWorker() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Redis.Addr == "" {
		missing = append(missing, "REDIS_ADDR")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
