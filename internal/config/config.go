// Package config manages application configuration
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mail transports
const (
	MailTransportLog  = "log"
	MailTransportSMTP = "smtp"
	MailTransportAMQP = "amqp"
)

// DevSecretKey is the development signing key; production refuses it
const DevSecretKey = "dev-secret-key-change-in-production"

// ConfigFileEnv names the optional YAML file applied beneath env vars
const ConfigFileEnv = "SPENDWATCH_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"` // "development" or "production"
	LogLevel    string `yaml:"log_level"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Security
	SecretKey  string        `yaml:"secret_key"` // For JWT signing
	TokenTTL   time.Duration `yaml:"token_ttl"`
	OTPTTL     time.Duration `yaml:"otp_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`

	// Per-IP limit on login and OTP endpoints
	AuthRateLimit float64 `yaml:"auth_rate_limit"` // requests per second
	AuthRateBurst int     `yaml:"auth_rate_burst"`
	// Take the client address from X-Forwarded-For and X-Real-IP. Only
	// enable behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`

	// Mail delivery
	MailTransport string `yaml:"mail_transport"`
	MailFrom      string `yaml:"mail_from"`
	SMTPHost      string `yaml:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port"`
	SMTPUser      string `yaml:"smtp_user"`
	SMTPPassword  string `yaml:"smtp_password"`
	AMQPURL       string `yaml:"amqp_url"`
	AMQPExchange  string `yaml:"amqp_exchange"`
	AMQPQueue     string `yaml:"amqp_queue"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:          "8080",
		Environment:   "development",
		LogLevel:      "info",
		DatabaseURL:   "spendwatch.db",
		SecretKey:     DevSecretKey,
		TokenTTL:      2 * time.Hour,
		OTPTTL:        5 * time.Minute,
		BcryptCost:    12,
		AuthRateLimit: 1,
		AuthRateBurst: 10,
		MailTransport: MailTransportLog,
		MailFrom:      "no-reply@spendwatch.local",
		SMTPPort:      587,
		AMQPExchange:  "spendwatch",
		AMQPQueue:     "mail.outbound",
	}
}

// Load reads configuration from defaults, then the optional YAML file named by
// SPENDWATCH_CONFIG_FILE, then environment variables
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("SPENDWATCH_PORT", cfg.Port)
	cfg.Environment = getEnv("SPENDWATCH_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("SPENDWATCH_LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = getEnv("SPENDWATCH_DATABASE_URL", cfg.DatabaseURL)
	cfg.SecretKey = getEnv("SPENDWATCH_SECRET_KEY", cfg.SecretKey)
	cfg.TokenTTL = getDurationEnv("SPENDWATCH_TOKEN_TTL", cfg.TokenTTL)
	cfg.OTPTTL = getDurationEnv("SPENDWATCH_OTP_TTL", cfg.OTPTTL)
	cfg.BcryptCost = getIntEnv("SPENDWATCH_BCRYPT_COST", cfg.BcryptCost)
	cfg.AuthRateLimit = getFloatEnv("SPENDWATCH_AUTH_RATE_LIMIT", cfg.AuthRateLimit)
	cfg.AuthRateBurst = getIntEnv("SPENDWATCH_AUTH_RATE_BURST", cfg.AuthRateBurst)
	cfg.TrustProxy = getBoolEnv("SPENDWATCH_TRUST_PROXY", cfg.TrustProxy)
	cfg.MailTransport = getEnv("SPENDWATCH_MAIL_TRANSPORT", cfg.MailTransport)
	cfg.MailFrom = getEnv("SPENDWATCH_MAIL_FROM", cfg.MailFrom)
	cfg.SMTPHost = getEnv("SPENDWATCH_SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getIntEnv("SPENDWATCH_SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUser = getEnv("SPENDWATCH_SMTP_USER", cfg.SMTPUser)
	cfg.SMTPPassword = getEnv("SPENDWATCH_SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.AMQPURL = getEnv("SPENDWATCH_AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("SPENDWATCH_AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("SPENDWATCH_AMQP_QUEUE", cfg.AMQPQueue)

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatabaseURL == "" {
		problems = append(problems, "database URL cannot be empty")
	}

	if c.SecretKey == "" {
		problems = append(problems, "secret key cannot be empty")
	} else if c.IsProduction() && c.SecretKey == DevSecretKey {
		problems = append(problems, "secret key must be set explicitly in production")
	} else if c.IsProduction() && len(c.SecretKey) < 32 {
		problems = append(problems, "secret key must be at least 32 bytes in production")
	}

	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}
	if c.OTPTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid OTP TTL %v: must be positive", c.OTPTTL))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.BcryptCost))
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst < 1 {
		problems = append(problems, "auth rate limit and burst must be positive")
	}

	switch c.MailTransport {
	case MailTransportLog:
	case MailTransportSMTP:
		if c.SMTPHost == "" {
			problems = append(problems, "SMTP host is required when using the smtp mail transport")
		}
	case MailTransportAMQP:
		if c.AMQPURL == "" {
			problems = append(problems, "AMQP URL is required when using the amqp mail transport")
		} else if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			problems = append(problems, "AMQP exchange and queue names cannot be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid mail transport '%s': must be one of log, smtp, amqp", c.MailTransport))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
