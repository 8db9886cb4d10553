package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Server        ServerConfig        `json:"server"`
	Supabase      SupabaseConfig      `json:"supabase"`
	Stripe        StripeConfig        `json:"stripe"`
	AI            AIConfig            `json:"ai"`
	Registry      RegistryConfig      `json:"registry"`
	Notifications NotificationsConfig `json:"notifications"`
	GitHub        GitHubConfig        `json:"github"`
	Redis         RedisConfig         `json:"redis"`
	Limits        LimitsConfig        `json:"limits"`
	Logging       LoggingConfig       `json:"logging"`
	Tracing       TracingConfig       `json:"tracing"`
	Metrics       MetricsConfig       `json:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	WebDir       string        `json:"web_dir"`
	// PublicURL is where the frontend is reachable; used in outbound links
	PublicURL string `json:"public_url"`
	// AllowedOrigins are the deployment origins accepted as checkout return URLs
	AllowedOrigins []string `json:"allowed_origins"`
	// TrustedHostSuffix accepts any return URL whose host ends with it
	TrustedHostSuffix string `json:"trusted_host_suffix"`
}

// SupabaseConfig contains the hosted backend settings
type SupabaseConfig struct {
	URL            string `json:"url"`
	AnonKey        string `json:"anon_key"`
	ServiceRoleKey string `json:"service_role_key"`
	JWTSecret      string `json:"jwt_secret"`
	// DatabaseURL is the direct Postgres connection used by maintenance jobs
	DatabaseURL string `json:"database_url"`
}

// StripeConfig contains payment provider settings
type StripeConfig struct {
	SecretKey      string `json:"secret_key"`
	WebhookSecret  string `json:"webhook_secret"`
	PriceMonthly   string `json:"price_monthly"`
	PriceAnnual    string `json:"price_annual"`
	InvoiceLimit   int    `json:"invoice_limit"`
	PromoScanLimit int    `json:"promo_scan_limit"`
}

// AIConfig contains text-generation gateway settings
type AIConfig struct {
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// RegistryConfig contains the external code registry settings
type RegistryConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Timeout time.Duration `json:"timeout"`
}

// NotificationsConfig contains the operational chat webhook settings
type NotificationsConfig struct {
	ChatWebhookURL string `json:"chat_webhook_url"`
	Timezone       string `json:"timezone"`
}

// GitHubConfig holds the optional token used to read repository metadata
type GitHubConfig struct {
	Token string `json:"token"`
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
	Enabled  bool   `json:"enabled"`
}

// LimitsConfig contains free/PRO tier limits
type LimitsConfig struct {
	FreeScansPerMonth int   `json:"free_scans_per_month"`
	MaxFileSizeFree   int64 `json:"max_file_size_free"`
	MaxFileSizePro    int64 `json:"max_file_size_pro"`
	// CodeAttemptsPerMinute bounds code validation/redeem calls per caller
	CodeAttemptsPerMinute int `json:"code_attempts_per_minute"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// TracingConfig contains distributed tracing configuration
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	JaegerEndpoint string  `json:"jaeger_endpoint"`
	SamplingRate   float64 `json:"sampling_rate"`
	Environment    string  `json:"environment"`
}

// MetricsConfig contains Prometheus configuration
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

const megabyte = 1024 * 1024

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := fromEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadMaintenance loads configuration for the maintenance commands, which
// only need the direct database connection.
func LoadMaintenance() (*Config, error) {
	config := fromEnv()
	if config.Supabase.DatabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_DB_URL is required")
	}
	return config, nil
}

func fromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			WebDir:            getEnvString("WEB_DIR", "./web/dist"),
			PublicURL:         strings.TrimRight(getEnvString("PUBLIC_URL", "http://localhost:8080"), "/"),
			AllowedOrigins:    getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
			TrustedHostSuffix: getEnvString("TRUSTED_HOST_SUFFIX", ".lovable.app"),
		},
		Supabase: SupabaseConfig{
			URL:            getEnvString("SUPABASE_URL", ""),
			AnonKey:        getEnvString("SUPABASE_ANON_KEY", ""),
			ServiceRoleKey: getEnvString("SUPABASE_SERVICE_ROLE_KEY", ""),
			JWTSecret:      getEnvString("SUPABASE_JWT_SECRET", ""),
			DatabaseURL:    getEnvString("SUPABASE_DB_URL", ""),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnvString("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnvString("STRIPE_WEBHOOK_SECRET", ""),
			PriceMonthly:   getEnvString("STRIPE_PRICE_MONTHLY", ""),
			PriceAnnual:    getEnvString("STRIPE_PRICE_ANNUAL", ""),
			InvoiceLimit:   getEnvInt("STRIPE_INVOICE_LIMIT", 20),
			PromoScanLimit: getEnvInt("STRIPE_PROMO_SCAN_LIMIT", 100),
		},
		AI: AIConfig{
			BaseURL:     getEnvString("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
			APIKey:      getEnvString("AI_GATEWAY_API_KEY", ""),
			Model:       getEnvString("AI_MODEL", "google/gemini-2.5-flash"),
			MaxTokens:   getEnvInt("AI_MAX_TOKENS", 4000),
			Temperature: getEnvFloat("AI_TEMPERATURE", 0.3),
			Timeout:     getEnvDuration("AI_TIMEOUT", 90*time.Second),
		},
		Registry: RegistryConfig{
			URL:     strings.TrimRight(getEnvString("CODE_REGISTRY_URL", ""), "/"),
			Token:   getEnvString("CODE_REGISTRY_TOKEN", ""),
			Timeout: getEnvDuration("CODE_REGISTRY_TIMEOUT", 10*time.Second),
		},
		Notifications: NotificationsConfig{
			ChatWebhookURL: getEnvString("CHAT_WEBHOOK_URL", ""),
			Timezone:       getEnvString("NOTIFY_TIMEZONE", "America/Sao_Paulo"),
		},
		GitHub: GitHubConfig{
			Token: getEnvString("GITHUB_TOKEN", ""),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		Limits: LimitsConfig{
			FreeScansPerMonth:     getEnvInt("FREE_SCANS_PER_MONTH", 5),
			MaxFileSizeFree:       int64(getEnvInt("MAX_FILE_SIZE_FREE_MB", 50)) * megabyte,
			MaxFileSizePro:        int64(getEnvInt("MAX_FILE_SIZE_PRO_MB", 600)) * megabyte,
			CodeAttemptsPerMinute: getEnvInt("CODE_ATTEMPTS_PER_MINUTE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
			Output: getEnvString("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("TRACING_ENABLED", false),
			JaegerEndpoint: getEnvString("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			SamplingRate:   getEnvFloat("TRACING_SAMPLING_RATE", 1.0),
			Environment:    getEnvString("ENVIRONMENT", "development"),
		},
		Metrics: MetricsConfig{
			Enabled:   getEnvBool("METRICS_ENABLED", true),
			Namespace: getEnvString("METRICS_NAMESPACE", "securex"),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}

	if c.Supabase.ServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	if c.AI.APIKey == "" {
		return fmt.Errorf("AI gateway API key is required")
	}

	if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("Stripe secret key and webhook secret are required")
	}

	if c.Limits.MaxFileSizeFree > c.Limits.MaxFileSizePro {
		return fmt.Errorf("free file size limit cannot exceed the PRO limit")
	}

	return nil
}

// PriceIDs returns the configured checkout prices
func (c *Config) PriceIDs() []string {
	var ids []string
	for _, id := range []string{c.Stripe.PriceMonthly, c.Stripe.PriceAnnual} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
