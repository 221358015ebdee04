package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Server configuration
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5260"`
	}

	// Database configuration. When PostgresURL is set the Postgres store is
	// used instead of the local SQLite file.
	Database struct {
		SQLitePath  string `env:"DB_PATH" envDefault:"database/yieldista.db"`
		PostgresURL string `env:"DATABASE_URL"`
	}

	// Fetcher configuration for comparable-market requests
	Fetcher struct {
		// HTTP timeout for a single comparable fetch (in seconds)
		TimeoutSeconds int `env:"FETCH_TIMEOUT" envDefault:"15"`

		// Maximum fetch attempts per comparable URL (first try included)
		MaxAttempts int `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`

		// Base delay for exponential backoff (in milliseconds)
		RetryBaseDelayMS int `env:"FETCH_RETRY_BASE_DELAY_MS" envDefault:"1000"`

		// Delay between comparable fetches within one analysis pass (in milliseconds)
		PacingDelayMS int `env:"FETCH_PACING_DELAY_MS" envDefault:"1000"`
	}

	// Cache configuration for comparable-market summaries
	Cache struct {
		// Time-to-live for a cached market summary (in minutes)
		TTLMinutes int `env:"CACHE_TTL_MINUTES" envDefault:"10"`

		// Cron expression for the periodic expired-entry sweep
		SweepCron string `env:"CACHE_SWEEP_CRON" envDefault:"*/5 * * * *"`
	}

	// BatchPersistence configuration for the outcome processor
	BatchPersistence struct {
		// Maximum number of outcomes to accumulate before persisting
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"50"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	// Scheduler configuration for recurring analysis of saved searches
	Scheduler struct {
		// Cron expression; empty disables scheduled analysis
		AnalyzeCron string `env:"ANALYZE_CRON"`

		// Search-page URLs to analyze on the schedule (comma separated)
		SearchURLs []string `env:"ANALYZE_URLS" envSeparator:","`
	}

	// Telegram configuration for deal notifications
	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	// Analysis holds the investment model resolved once at startup. The
	// calculator receives it fully formed and never applies fallbacks itself.
	Analysis AnalysisConfig
}

// AnalysisConfig is the read-only investment model used by the
// profitability calculator.
type AnalysisConfig struct {
	Expenses   ExpenseConfig
	Mortgage   MortgageConfig
	Thresholds ProfitabilityThresholds
	Display    DisplayOptions
}

// ExpenseConfig models the monthly cost of holding a rented property.
// Fixed costs are whole euros per month; rates apply to the monthly rent.
type ExpenseConfig struct {
	PropertyManagementMonthly int     `env:"EXPENSE_MANAGEMENT_MONTHLY" envDefault:"150"`
	InsuranceMonthly          int     `env:"EXPENSE_INSURANCE_MONTHLY" envDefault:"50"`
	PropertyTaxMonthly        int     `env:"EXPENSE_PROPERTY_TAX_MONTHLY" envDefault:"100"`
	CommunityFees             int     `env:"EXPENSE_COMMUNITY_FEES" envDefault:"60"`
	VacancyRate               float64 `env:"EXPENSE_VACANCY_RATE" envDefault:"0.05"`
	MaintenanceRate           float64 `env:"EXPENSE_MAINTENANCE_RATE" envDefault:"0.01"`
}

// MortgageConfig models the financing of the purchase. A DownPaymentRatio of
// 1 disables financing entirely.
type MortgageConfig struct {
	DownPaymentRatio   float64 `env:"MORTGAGE_DOWN_PAYMENT_RATIO" envDefault:"0.2"`
	AnnualInterestRate float64 `env:"MORTGAGE_INTEREST_RATE" envDefault:"0.035"`
	TermYears          int     `env:"MORTGAGE_TERM_YEARS" envDefault:"30"`
}

// ProfitabilityThresholds are the net-yield cut points for recommendations,
// in descending order.
type ProfitabilityThresholds struct {
	Excellent float64 `env:"THRESHOLD_EXCELLENT" envDefault:"6"`
	Good      float64 `env:"THRESHOLD_GOOD" envDefault:"4"`
	Fair      float64 `env:"THRESHOLD_FAIR" envDefault:"2"`
}

// DisplayOptions control what the API includes in analysis responses.
type DisplayOptions struct {
	IncludeSampleProperties bool `env:"DISPLAY_INCLUDE_SAMPLE" envDefault:"false"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FetchTimeout returns the fetcher timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetcher.TimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the backoff base as a duration.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Fetcher.RetryBaseDelayMS) * time.Millisecond
}

// PacingDelay returns the inter-fetch pacing delay as a duration.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.Fetcher.PacingDelayMS) * time.Millisecond
}

// CacheTTL returns the market-summary TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
