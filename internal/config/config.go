package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"payment_binder/internal/domain/entities"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	EnvironmentSandbox = "sandbox"
	EnvironmentLive    = "live"
)

// Config represents the complete application configuration
type Config struct {
	Environment string `validate:"required"`
	Server      ServerConfig
	Log         LogConfig
	Dispatch    DispatchConfig
	Store       StoreConfig
	Payments    PaymentsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `validate:"gte=0"`
	WriteTimeout    time.Duration `validate:"gte=0"`
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// DispatchConfig holds retry and idempotency settings of the dispatch core.
type DispatchConfig struct {
	MaxAttempts    int           `validate:"min=1,max=10"`
	BaseDelay      time.Duration `validate:"gte=0"`
	MaxDelay       time.Duration `validate:"gte=0"`
	Jitter         bool
	AttemptTimeout time.Duration `validate:"gte=0"`
	RecordTTL      time.Duration `validate:"gt=0"`
}

type StoreConfig struct {
	Backend       string        `validate:"oneof=memory dynamodb redis postgres"`
	SweepInterval time.Duration `validate:"gte=0"`
	DynamoDBTable string
	AWS           AWSConfig
	Redis         RedisConfig
	Database      DatabaseConfig
}

// AWSConfig holds the region, optional static credentials and endpoint override for DynamoDB.
type AWSConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	DynamoDBEndpoint string `validate:"omitempty,url"`
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// DatabaseConfig holds PostgreSQL settings. ConnectionString (DATABASE_URL) wins over the DB_* fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// PaymentsConfig holds the credentials of every provider. A provider without an API key is not registered.
type PaymentsConfig struct {
	Mock        bool
	Stripe      ProviderConfig
	Razorpay    ProviderConfig
	Paddle      ProviderConfig
	MercadoPago ProviderConfig
}

// ProviderConfig is the per-provider credential set passed explicitly to each adapter.
//
// Currency is the settlement currency of the account, for providers that charge every payment in
// it (Mercado Pago). PayerEmail is the fallback payer for providers that require one.
type ProviderConfig struct {
	Name          entities.ProviderName
	APIKey        string
	APISecret     string
	Environment   string        `validate:"oneof=sandbox live"`
	WebhookSecret string
	BaseURL       string        `validate:"omitempty,url"`
	Timeout       time.Duration `validate:"gte=0"`
	Currency      string        `validate:"omitempty,iso4217"`
	PayerEmail    string        `validate:"omitempty,email"`
}

// Enabled reports whether the provider has credentials.
func (p ProviderConfig) Enabled() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// IsLive reports whether the provider targets its production environment.
func (p ProviderConfig) IsLive() bool {
	return p.Environment == EnvironmentLive
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
		Dispatch: DispatchConfig{
			MaxAttempts:    getEnvAsInt("DISPATCH_MAX_ATTEMPTS", 3),
			BaseDelay:      getEnvAsDuration("DISPATCH_BASE_DELAY", 200*time.Millisecond),
			MaxDelay:       getEnvAsDuration("DISPATCH_MAX_DELAY", 5*time.Second),
			Jitter:         getEnvAsBool("DISPATCH_JITTER", true),
			AttemptTimeout: getEnvAsDuration("DISPATCH_ATTEMPT_TIMEOUT", 30*time.Second),
			RecordTTL:      getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Store: StoreConfig{
			Backend:       strings.ToLower(getEnv("IDEMPOTENCY_STORE", StoreMemory)),
			SweepInterval: getEnvAsDuration("IDEMPOTENCY_SWEEP_INTERVAL", time.Minute),
			DynamoDBTable: getEnv("IDEMPOTENCY_TABLE", "idempotency_records"),
			AWS: AWSConfig{
				Region:           getEnv("AWS_REGION", "us-east-1"),
				AccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
				SessionToken:     getEnv("AWS_SESSION_TOKEN", ""),
				DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
			},
			Redis: RedisConfig{
				Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
				Password:  getEnv("REDIS_PASSWORD", ""),
				DB:        getEnvAsInt("REDIS_DB", 0),
				KeyPrefix: getEnv("IDEMPOTENCY_REDIS_PREFIX", "idempotency:"),
			},
			Database: loadDatabaseConfig(),
		},
		Payments: PaymentsConfig{
			Mock:        isMockEnabled(),
			Stripe:      loadProviderConfig(entities.ProviderStripe, "STRIPE"),
			Razorpay:    loadProviderConfig(entities.ProviderRazorpay, "RAZORPAY"),
			Paddle:      loadProviderConfig(entities.ProviderPaddle, "PADDLE"),
			MercadoPago: loadProviderConfig(entities.ProviderMercadoPago, "MERCADOPAGO"),
		},
	}

	// Razorpay and Mercado Pago document their own variable names.
	if v := os.Getenv("RAZORPAY_KEY_ID"); v != "" {
		cfg.Payments.Razorpay.APIKey = v
	}
	if v := os.Getenv("RAZORPAY_KEY_SECRET"); v != "" {
		cfg.Payments.Razorpay.APISecret = v
	}
	if v := os.Getenv("MERCADOPAGO_ACCESS_TOKEN"); v != "" {
		cfg.Payments.MercadoPago.APIKey = v
	}
	if cfg.Payments.MercadoPago.Currency == "" {
		cfg.Payments.MercadoPago.Currency = "BRL"
	}
	if v := os.Getenv("MERCADOPAGO_TEST_PAYER_EMAIL"); v != "" {
		cfg.Payments.MercadoPago.PayerEmail = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return err
	}
	if c.Dispatch.MaxDelay > 0 && c.Dispatch.BaseDelay > c.Dispatch.MaxDelay {
		return fmt.Errorf("dispatch base delay %s exceeds max delay %s", c.Dispatch.BaseDelay, c.Dispatch.MaxDelay)
	}
	if c.Payments.Razorpay.Enabled() && c.Payments.Razorpay.APISecret == "" {
		return fmt.Errorf("razorpay key secret is required when RAZORPAY_KEY_ID is set")
	}
	if c.IsProduction() && !c.Payments.Mock && len(c.Payments.Enabled()) == 0 {
		return fmt.Errorf("at least one payment provider must be configured in production")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Enabled returns the configurations of providers that have credentials, in a stable order.
func (p PaymentsConfig) Enabled() []ProviderConfig {
	var out []ProviderConfig
	for _, pc := range []ProviderConfig{p.Paddle, p.Razorpay, p.Stripe, p.MercadoPago} {
		if pc.Enabled() {
			out = append(out, pc)
		}
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		ConnectionString: getEnv("DATABASE_URL", ""),
		Host:             getEnv("DB_HOST", "localhost"),
		Port:             getEnvAsInt("DB_PORT", 5432),
		User:             getEnv("DB_USER", "payments"),
		Password:         getEnv("DB_PASSWORD", ""),
		Database:         getEnv("DB_NAME", "payments"),
		SSLMode:          getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func loadProviderConfig(name entities.ProviderName, prefix string) ProviderConfig {
	return ProviderConfig{
		Name:          name,
		APIKey:        getEnv(prefix+"_API_KEY", ""),
		APISecret:     getEnv(prefix+"_API_SECRET", ""),
		Environment:   strings.ToLower(getEnv(prefix+"_ENVIRONMENT", EnvironmentSandbox)),
		WebhookSecret: getEnv(prefix+"_WEBHOOK_SECRET", ""),
		BaseURL:       getEnv(prefix+"_BASE_URL", ""),
		Timeout:       getEnvAsDuration(prefix+"_TIMEOUT", 30*time.Second),
		Currency:      strings.ToUpper(getEnv(prefix+"_CURRENCY", "")),
		PayerEmail:    getEnv(prefix+"_PAYER_EMAIL", ""),
	}
}

func isMockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}

// getPort returns the server port from PORT or SERVER_PORT (default: 8080)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
