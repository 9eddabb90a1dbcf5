// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EscalationConfig provides settings for the escalation engine.
type EscalationConfig interface {
	GetClaimTokenSecret() string
	GetClaimBaseURL() string
	GetClaimResultURL() string
	GetDefaultClaimTimeout() time.Duration
}

// CacheConfig provides settings for the claim timeout cache.
type CacheConfig interface {
	GetRedisURL() string
}

// SchedulerConfig provides settings for the sweep scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
}

// CronConfig provides settings for authenticated cron triggers.
type CronConfig interface {
	GetCronSecret() string
}

// SMSConfig provides settings for the SMS provider.
type SMSConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioAPIBase() string
	IsSMSEnabled() bool
}

// VoiceConfig provides settings for the outbound voice-call provider.
type VoiceConfig interface {
	GetRetellAPIKey() string
	GetRetellAPIBase() string
	GetRetellAgentID() string
	GetRetellFromNumber() string
	IsVoiceEnabled() bool
}

// EmailConfig provides settings for SMTP alert emails.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCallTranscripts() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	ClaimTokenSecret           string
	ClaimBaseURL               string
	ClaimResultURL             string
	DefaultClaimTimeout        time.Duration
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	SweepInterval              time.Duration
	CronSecret                 string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	TwilioAccountSID           string
	TwilioAuthToken            string
	TwilioAPIBase              string
	RetellAPIKey               string
	RetellAPIBase              string
	RetellAgentID              string
	RetellFromNumber           string
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinioBucketCallTranscripts string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// EscalationConfig implementation
func (c *Config) GetClaimTokenSecret() string           { return c.ClaimTokenSecret }
func (c *Config) GetClaimBaseURL() string               { return c.ClaimBaseURL }
func (c *Config) GetClaimResultURL() string             { return c.ClaimResultURL }
func (c *Config) GetDefaultClaimTimeout() time.Duration { return c.DefaultClaimTimeout }

// CacheConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration { return c.SweepInterval }

// CronConfig implementation
func (c *Config) GetCronSecret() string { return c.CronSecret }

// SMSConfig implementation
func (c *Config) GetTwilioAccountSID() string { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string  { return c.TwilioAuthToken }
func (c *Config) GetTwilioAPIBase() string    { return c.TwilioAPIBase }
func (c *Config) IsSMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

// VoiceConfig implementation
func (c *Config) GetRetellAPIKey() string     { return c.RetellAPIKey }
func (c *Config) GetRetellAPIBase() string    { return c.RetellAPIBase }
func (c *Config) GetRetellAgentID() string    { return c.RetellAgentID }
func (c *Config) GetRetellFromNumber() string { return c.RetellFromNumber }
func (c *Config) IsVoiceEnabled() bool {
	return c.RetellAPIKey != "" && c.RetellAgentID != ""
}

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.EmailFromAddress != ""
}

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketCallTranscripts() string {
	return c.MinioBucketCallTranscripts
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		ClaimTokenSecret:           getEnv("CLAIM_TOKEN_SECRET", ""),
		ClaimBaseURL:               getEnv("CLAIM_BASE_URL", "http://localhost:8080/api/v1/public/claim"),
		ClaimResultURL:             getEnv("CLAIM_RESULT_URL", "http://localhost:4200/claim"),
		DefaultClaimTimeout:        mustDuration(getEnv("DEFAULT_CLAIM_TIMEOUT", "120s")),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SweepInterval:              mustDuration(getEnv("SWEEP_INTERVAL", "60s")),
		CronSecret:                 getEnv("CRON_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		TwilioAccountSID:           getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:            getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioAPIBase:              getEnv("TWILIO_API_BASE", "https://api.twilio.com/2010-04-01"),
		RetellAPIKey:               getEnv("RETELL_API_KEY", ""),
		RetellAPIBase:              getEnv("RETELL_API_BASE", "https://api.retellai.com"),
		RetellAgentID:              getEnv("RETELL_AGENT_ID", ""),
		RetellFromNumber:           getEnv("RETELL_FROM_NUMBER", ""),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Leadline"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketCallTranscripts: getEnv("MINIO_BUCKET_CALL_TRANSCRIPTS", "call-transcripts"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ClaimTokenSecret == "" {
		return nil, fmt.Errorf("CLAIM_TOKEN_SECRET is required")
	}
	if cfg.DefaultClaimTimeout <= 0 {
		return nil, fmt.Errorf("DEFAULT_CLAIM_TIMEOUT must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
