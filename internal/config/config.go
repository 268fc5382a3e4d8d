// Package config loads process configuration from the environment.
// Commands call godotenv.Load first so a local .env file can supply values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/analytics"
)

type Config struct {
	// Google Cloud
	ProjectID string
	Dataset   string
	Bucket    string

	// Narrative model
	GeminiModel string

	// HTTP server
	Port        string
	CORSOrigins []string

	// Logging
	LogLevel  string
	LogFormat string // console | json

	// Job queue
	QueueBuffer   int
	QueueWorkers  int
	JobMaxRetries int
	JobRetention  time.Duration

	// Analytics windows and thresholds
	BaselineMonths           int
	ForesightMonths          int
	ProactiveMonths          int
	MinTargetTransactions    int
	MinBaselineTransactions  int
	MinForesightTransactions int
	MinProactiveTransactions int
	SignificancePct          float64
	SignificanceAbs          float64
	TrendPct                 float64
	LargeRefundThreshold     float64
	SignConvention           string

	// Insight lifetimes
	MonthlyInsightTTL   time.Duration
	ForesightTTL        time.Duration
	ProactiveInsightTTL time.Duration

	// Fan-out over users
	UserConcurrency int

	// Notion export of insights
	NotionToken      string
	NotionDatabaseID string
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		ProjectID: getEnv("GCP_PROJECT_ID", ""),
		Dataset:   getEnv("BQ_DATASET", "insights"),
		Bucket:    getEnv("GCS_BUCKET", ""),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		QueueBuffer:   getEnvInt("QUEUE_BUFFER", 100),
		QueueWorkers:  getEnvInt("QUEUE_WORKERS", 2),
		JobMaxRetries: getEnvInt("JOB_MAX_RETRIES", 3),
		JobRetention:  getEnvDuration("JOB_RETENTION", 24*time.Hour),

		BaselineMonths:           getEnvInt("BASELINE_MONTHS", 12),
		ForesightMonths:          getEnvInt("FORESIGHT_MONTHS", 24),
		ProactiveMonths:          getEnvInt("PROACTIVE_MONTHS", 12),
		MinTargetTransactions:    getEnvInt("MIN_TARGET_TRANSACTIONS", 5),
		MinBaselineTransactions:  getEnvInt("MIN_BASELINE_TRANSACTIONS", 50),
		MinForesightTransactions: getEnvInt("MIN_FORESIGHT_TRANSACTIONS", 100),
		MinProactiveTransactions: getEnvInt("MIN_PROACTIVE_TRANSACTIONS", 50),
		SignificancePct:          getEnvFloat("SIGNIFICANCE_PCT", 10),
		SignificanceAbs:          getEnvFloat("SIGNIFICANCE_ABS", 50),
		TrendPct:                 getEnvFloat("TREND_PCT", 5),
		LargeRefundThreshold:     getEnvFloat("LARGE_REFUND_THRESHOLD", 100),
		SignConvention:           getEnv("AMOUNT_SIGN_CONVENTION", string(analytics.CreditPositive)),

		MonthlyInsightTTL:   getEnvDuration("MONTHLY_INSIGHT_TTL", 45*24*time.Hour),
		ForesightTTL:        getEnvDuration("FORESIGHT_TTL", 90*24*time.Hour),
		ProactiveInsightTTL: getEnvDuration("PROACTIVE_INSIGHT_TTL", 60*24*time.Hour),

		UserConcurrency: getEnvInt("USER_CONCURRENCY", 4),

		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_INSIGHTS_DB_ID", ""),
	}
}

// Validate checks the values that do not depend on which command runs.
// Cloud settings are checked separately by RequireCloud.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be console or json", c.LogFormat))
	}

	if _, err := analytics.ParseSignConvention(c.SignConvention); err != nil {
		errors = append(errors, fmt.Sprintf("invalid amount sign convention '%s'", c.SignConvention))
	}

	for _, v := range []struct {
		name  string
		value int
	}{
		{"QUEUE_BUFFER", c.QueueBuffer},
		{"QUEUE_WORKERS", c.QueueWorkers},
		{"BASELINE_MONTHS", c.BaselineMonths},
		{"FORESIGHT_MONTHS", c.ForesightMonths},
		{"PROACTIVE_MONTHS", c.ProactiveMonths},
		{"USER_CONCURRENCY", c.UserConcurrency},
	} {
		if v.value < 1 {
			errors = append(errors, fmt.Sprintf("invalid %s %d: must be at least 1", v.name, v.value))
		}
	}

	if c.JobMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("invalid JOB_MAX_RETRIES %d: must not be negative", c.JobMaxRetries))
	}
	if c.MinTargetTransactions < 0 || c.MinBaselineTransactions < 0 ||
		c.MinForesightTransactions < 0 || c.MinProactiveTransactions < 0 {
		errors = append(errors, "minimum transaction counts must not be negative")
	}
	if c.SignificancePct < 0 || c.SignificanceAbs < 0 || c.TrendPct < 0 || c.LargeRefundThreshold < 0 {
		errors = append(errors, "analytics thresholds must not be negative")
	}

	for _, v := range []struct {
		name string
		ttl  time.Duration
	}{
		{"MONTHLY_INSIGHT_TTL", c.MonthlyInsightTTL},
		{"FORESIGHT_TTL", c.ForesightTTL},
		{"PROACTIVE_INSIGHT_TTL", c.ProactiveInsightTTL},
		{"JOB_RETENTION", c.JobRetention},
	} {
		if v.ttl < time.Hour {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be at least 1 hour", v.name, v.ttl))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// RequireCloud checks the settings needed by commands that talk to BigQuery
// and Cloud Storage.
func (c *Config) RequireCloud() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if c.Dataset == "" {
		missing = append(missing, "BQ_DATASET")
	}
	if c.Bucket == "" {
		missing = append(missing, "GCS_BUCKET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireNotion checks the settings needed to export insights to Notion.
func (c *Config) RequireNotion() error {
	var missing []string
	if c.NotionToken == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if c.NotionDatabaseID == "" {
		missing = append(missing, "NOTION_INSIGHTS_DB_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Thresholds builds the analytics engine tuning from the configuration.
func (c *Config) Thresholds() analytics.Thresholds {
	th := analytics.DefaultThresholds()
	th.BaselineMonths = c.BaselineMonths
	th.SignificancePct = c.SignificancePct
	th.SignificanceAbs = c.SignificanceAbs
	th.TrendPct = c.TrendPct
	th.LargeRefund = c.LargeRefundThreshold
	return th
}

// Convention returns the validated amount sign convention.
func (c *Config) Convention() analytics.SignConvention {
	conv, err := analytics.ParseSignConvention(c.SignConvention)
	if err != nil {
		return analytics.CreditPositive
	}
	return conv
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
