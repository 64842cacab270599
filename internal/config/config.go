package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	JWT        JWTConfig
	S3         S3Config
	Log        LogConfig
	Extractor  ExtractorConfig
	CORS       CORSConfig
	Worker     WorkerConfig
	Matching   MatchingConfig
	Accounting AccountingConfig
	Email      EmailConfig
	Webhook    WebhookConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for source document storage.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractorConfig holds LLM invoice extractor settings.
type ExtractorConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WorkerConfig holds extraction worker settings.
type WorkerConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// MatchingConfig holds entity-resolution thresholds.
type MatchingConfig struct {
	// FuzzyThreshold is the minimum similarity ratio (0-100) for a
	// fuzzy suggestion.
	FuzzyThreshold int `mapstructure:"fuzzy_threshold"`
	// DuplicateTolerance is the maximum absolute total difference for
	// two records to count as potential duplicates.
	DuplicateTolerance float64 `mapstructure:"duplicate_tolerance"`
	// DuplicateWindowDays bounds the invoice-date window scanned for
	// duplicates.
	DuplicateWindowDays int `mapstructure:"duplicate_window_days"`
}

// AccountingConfig holds document-assembly defaults. Account and item
// references are codes resolved against master data at startup.
type AccountingConfig struct {
	Company             string  `mapstructure:"company"`
	FallbackItemCode    string  `mapstructure:"fallback_item_code"`
	DefaultExpenseAccnt string  `mapstructure:"default_expense_account"`
	DefaultCreditAccnt  string  `mapstructure:"default_credit_account"`
	TaxInputAccount     string  `mapstructure:"tax_input_account"`
	DefaultCostCenter   string  `mapstructure:"default_cost_center"`
	VATTemplate         string  `mapstructure:"vat_template"`
	NonVATTemplate      string  `mapstructure:"non_vat_template"`
	TaxNoiseTolerance   float64 `mapstructure:"tax_noise_tolerance"`
}

// EmailConfig holds notification delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	ReviewerTo  string `mapstructure:"reviewer_to"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// WebhookConfig holds inbound webhook authentication settings.
type WebhookConfig struct {
	Token string `mapstructure:"token"`
}

// Load reads configuration from environment variables with the OCRDESK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OCRDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "ocrdesk")
	v.SetDefault("db.password", "ocrdesk_secret")
	v.SetDefault("db.name", "ocrdesk_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "12h")
	v.SetDefault("jwt.issuer", "ocrdesk")

	// S3 defaults
	v.SetDefault("s3.region", "af-south-1")
	v.SetDefault("s3.bucket", "ocrdesk-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Extractor defaults
	v.SetDefault("extractor.provider", "gemini")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.default_model", "gemini-2.0-flash")
	v.SetDefault("extractor.max_retries", 2)
	v.SetDefault("extractor.timeout_secs", 120)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Worker defaults
	v.SetDefault("worker.poll_interval_secs", 10)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.concurrency", 4)

	// Matching defaults
	v.SetDefault("matching.fuzzy_threshold", 80)
	v.SetDefault("matching.duplicate_tolerance", 0.5)
	v.SetDefault("matching.duplicate_window_days", 90)

	// Accounting defaults
	v.SetDefault("accounting.company", "")
	v.SetDefault("accounting.fallback_item_code", "OCR-UNMATCHED")
	v.SetDefault("accounting.default_expense_account", "")
	v.SetDefault("accounting.default_credit_account", "")
	v.SetDefault("accounting.tax_input_account", "")
	v.SetDefault("accounting.default_cost_center", "")
	v.SetDefault("accounting.vat_template", "")
	v.SetDefault("accounting.non_vat_template", "")
	v.SetDefault("accounting.tax_noise_tolerance", 0.05)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "af-south-1")
	v.SetDefault("email.from_address", "noreply@ocrdesk.local")
	v.SetDefault("email.from_name", "OCR Desk")
	v.SetDefault("email.reviewer_to", "")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Webhook defaults
	v.SetDefault("webhook.token", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                        "OCRDESK_SERVER_PORT",
		"server.read_timeout":                "OCRDESK_SERVER_READ_TIMEOUT",
		"server.write_timeout":               "OCRDESK_SERVER_WRITE_TIMEOUT",
		"server.environment":                 "OCRDESK_SERVER_ENVIRONMENT",
		"db.host":                            "OCRDESK_DB_HOST",
		"db.port":                            "OCRDESK_DB_PORT",
		"db.user":                            "OCRDESK_DB_USER",
		"db.password":                        "OCRDESK_DB_PASSWORD",
		"db.name":                            "OCRDESK_DB_NAME",
		"db.sslmode":                         "OCRDESK_DB_SSLMODE",
		"db.max_open":                        "OCRDESK_DB_MAX_OPEN",
		"db.max_idle":                        "OCRDESK_DB_MAX_IDLE",
		"jwt.secret":                         "OCRDESK_JWT_SECRET",
		"jwt.access_expiry":                  "OCRDESK_JWT_ACCESS_EXPIRY",
		"jwt.issuer":                         "OCRDESK_JWT_ISSUER",
		"s3.region":                          "OCRDESK_S3_REGION",
		"s3.bucket":                          "OCRDESK_S3_BUCKET",
		"s3.endpoint":                        "OCRDESK_S3_ENDPOINT",
		"s3.access_key":                      "OCRDESK_S3_ACCESS_KEY",
		"s3.secret_key":                      "OCRDESK_S3_SECRET_KEY",
		"s3.max_file_size_mb":                "OCRDESK_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                  "OCRDESK_S3_PRESIGN_EXPIRY",
		"log.level":                          "OCRDESK_LOG_LEVEL",
		"log.format":                         "OCRDESK_LOG_FORMAT",
		"extractor.provider":                 "OCRDESK_EXTRACTOR_PROVIDER",
		"extractor.api_key":                  "OCRDESK_EXTRACTOR_API_KEY",
		"extractor.default_model":            "OCRDESK_EXTRACTOR_DEFAULT_MODEL",
		"extractor.max_retries":              "OCRDESK_EXTRACTOR_MAX_RETRIES",
		"extractor.timeout_secs":             "OCRDESK_EXTRACTOR_TIMEOUT_SECS",
		"cors.allowed_origins":               "OCRDESK_CORS_ALLOWED_ORIGINS",
		"worker.poll_interval_secs":          "OCRDESK_WORKER_POLL_INTERVAL_SECS",
		"worker.max_retries":                 "OCRDESK_WORKER_MAX_RETRIES",
		"worker.concurrency":                 "OCRDESK_WORKER_CONCURRENCY",
		"matching.fuzzy_threshold":           "OCRDESK_MATCHING_FUZZY_THRESHOLD",
		"matching.duplicate_tolerance":       "OCRDESK_MATCHING_DUPLICATE_TOLERANCE",
		"matching.duplicate_window_days":     "OCRDESK_MATCHING_DUPLICATE_WINDOW_DAYS",
		"accounting.company":                 "OCRDESK_ACCOUNTING_COMPANY",
		"accounting.fallback_item_code":      "OCRDESK_ACCOUNTING_FALLBACK_ITEM_CODE",
		"accounting.default_expense_account": "OCRDESK_ACCOUNTING_DEFAULT_EXPENSE_ACCOUNT",
		"accounting.default_credit_account":  "OCRDESK_ACCOUNTING_DEFAULT_CREDIT_ACCOUNT",
		"accounting.tax_input_account":       "OCRDESK_ACCOUNTING_TAX_INPUT_ACCOUNT",
		"accounting.default_cost_center":     "OCRDESK_ACCOUNTING_DEFAULT_COST_CENTER",
		"accounting.vat_template":            "OCRDESK_ACCOUNTING_VAT_TEMPLATE",
		"accounting.non_vat_template":        "OCRDESK_ACCOUNTING_NON_VAT_TEMPLATE",
		"accounting.tax_noise_tolerance":     "OCRDESK_ACCOUNTING_TAX_NOISE_TOLERANCE",
		"email.provider":                     "OCRDESK_EMAIL_PROVIDER",
		"email.region":                       "OCRDESK_EMAIL_REGION",
		"email.from_address":                 "OCRDESK_EMAIL_FROM_ADDRESS",
		"email.from_name":                    "OCRDESK_EMAIL_FROM_NAME",
		"email.reviewer_to":                  "OCRDESK_EMAIL_REVIEWER_TO",
		"email.frontend_url":                 "OCRDESK_EMAIL_FRONTEND_URL",
		"webhook.token":                      "OCRDESK_WEBHOOK_TOKEN",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if OCRDESK_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("OCRDESK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Extractor = ExtractorConfig{
		Provider:     v.GetString("extractor.provider"),
		APIKey:       v.GetString("extractor.api_key"),
		DefaultModel: v.GetString("extractor.default_model"),
		MaxRetries:   v.GetInt("extractor.max_retries"),
		TimeoutSecs:  v.GetInt("extractor.timeout_secs"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Worker = WorkerConfig{
		PollIntervalSecs: v.GetInt("worker.poll_interval_secs"),
		MaxRetries:       v.GetInt("worker.max_retries"),
		Concurrency:      v.GetInt("worker.concurrency"),
	}
	cfg.Matching = MatchingConfig{
		FuzzyThreshold:      v.GetInt("matching.fuzzy_threshold"),
		DuplicateTolerance:  v.GetFloat64("matching.duplicate_tolerance"),
		DuplicateWindowDays: v.GetInt("matching.duplicate_window_days"),
	}
	cfg.Accounting = AccountingConfig{
		Company:             v.GetString("accounting.company"),
		FallbackItemCode:    v.GetString("accounting.fallback_item_code"),
		DefaultExpenseAccnt: v.GetString("accounting.default_expense_account"),
		DefaultCreditAccnt:  v.GetString("accounting.default_credit_account"),
		TaxInputAccount:     v.GetString("accounting.tax_input_account"),
		DefaultCostCenter:   v.GetString("accounting.default_cost_center"),
		VATTemplate:         v.GetString("accounting.vat_template"),
		NonVATTemplate:      v.GetString("accounting.non_vat_template"),
		TaxNoiseTolerance:   v.GetFloat64("accounting.tax_noise_tolerance"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		ReviewerTo:  v.GetString("email.reviewer_to"),
		FrontendURL: v.GetString("email.frontend_url"),
	}
	cfg.Webhook = WebhookConfig{
		Token: v.GetString("webhook.token"),
	}

	return cfg, nil
}
