package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
)

// Predictor backends selectable with -predictor.
const (
	PredictorNone   = "none"
	PredictorHTTP   = "http"
	PredictorClaude = "claude"
)

// Config adds app-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	Predictor             string
	PredictorURL          string
	PredictorAPIKey       string
	ClaudeAPIKey          string
	ClaudeModel           string
	SlackWebhookURL       string
	NotifyMinSeverity     int
	EnvFile               string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.Predictor, "predictor", PredictorHTTP, "prediction backend tried before the keyword rules (none, http, claude)")
	fs.StringVar(&c.PredictorURL, "predictor-url", "", "base URL of the triage model service (empty = rules only)")
	fs.StringVar(&c.PredictorAPIKey, "predictor-api-key", "", "bearer token for the triage model service")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude prediction backend")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for high-severity triage notifications")
	fs.IntVar(&c.NotifyMinSeverity, "notify-min-severity", 4, "minimum verdict severity that triggers a notification (1..4)")
	fs.StringVar(&c.EnvFile, "env-file", ".env", "dotenv file loaded before reading MEDIC_ environment variables (missing file is ignored)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	switch c.Predictor {
	case PredictorNone:
	case PredictorHTTP:
		// an empty URL is allowed: the service runs on the keyword rules alone
		if c.PredictorURL != "" {
			if err := validateHTTPURL(c.PredictorURL); err != nil {
				errs = append(errs, fmt.Errorf("invalid PREDICTOR_URL: %w", err))
			}
		}
	case PredictorClaude:
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when PREDICTOR is claude"))
		}
		if c.ClaudeModel == "" {
			errs = append(errs, errors.New("CLAUDE_MODEL is required when PREDICTOR is claude"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid PREDICTOR %q (must be none, http or claude)", c.Predictor))
	}

	if c.SlackWebhookURL != "" {
		if err := validateHTTPURL(c.SlackWebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid SLACK_WEBHOOK_URL: %w", err))
		}
	}

	if c.NotifyMinSeverity < 1 || c.NotifyMinSeverity > 4 {
		errs = append(errs, fmt.Errorf("invalid NOTIFY_MIN_SEVERITY %d (must be 1..4)", c.NotifyMinSeverity))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PredictorEnabled reports whether a prediction backend should be built.
func (c *Config) PredictorEnabled() bool {
	switch c.Predictor {
	case PredictorHTTP:
		return c.PredictorURL != ""
	case PredictorClaude:
		return true
	default:
		return false
	}
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}
