package cfg

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

// Config holds the application-level configuration, registered as flags and
// fillable from CRISISNET_-prefixed environment variables.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	ClaudeAPIKey          string
	ClaudeModel           string
	SocialBaseURL         string
	SocialToken           string
	DatabaseURL           string
	HazardLabels          string
	AlertRadiusKm         float64
	CampaignMinutes       int
	ReplyPollSeconds      int
	CORSOrigins           string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on mutating API routes (empty = open)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude LLM provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model used for reply generation")
	fs.StringVar(&c.SocialBaseURL, "social-base-url", "", "base URL of the social posting service")
	fs.StringVar(&c.SocialToken, "social-token", "", "bearer token for the social posting service")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory campaign store)")
	fs.StringVar(&c.HazardLabels, "hazard-labels", "fire,flame,smoke", "comma-separated detection labels treated as hazards")
	fs.Float64Var(&c.AlertRadiusKm, "alert-radius-km", 5, "radius in km attached to broadcast alerts")
	fs.IntVar(&c.CampaignMinutes, "campaign-minutes", 30, "total minutes the reply-polling campaign stays armed after an alert (1..1440)")
	fs.IntVar(&c.ReplyPollSeconds, "reply-poll-seconds", 20, "seconds between reply-polling ticks (1..3600)")
	fs.StringVar(&c.CORSOrigins, "cors-origins", "*", "comma-separated origins allowed to call the API from a browser")
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

	// Claude access is required for reply generation
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	// The posting service is required for broadcasting and replies
	if c.SocialBaseURL == "" {
		errs = append(errs, errors.New("SOCIAL_BASE_URL is required"))
	}

	if len(c.HazardLabelList()) == 0 {
		errs = append(errs, errors.New("HAZARD_LABELS must name at least one label"))
	}

	if c.AlertRadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("invalid ALERT_RADIUS_KM %v (must be > 0)", c.AlertRadiusKm))
	}
	if c.CampaignMinutes <= 0 || c.CampaignMinutes > 1440 {
		errs = append(errs, fmt.Errorf("invalid CAMPAIGN_MINUTES %d (must be 1..1440)", c.CampaignMinutes))
	}
	if c.ReplyPollSeconds <= 0 || c.ReplyPollSeconds > 3600 {
		errs = append(errs, fmt.Errorf("invalid REPLY_POLL_SECONDS %d (must be 1..3600)", c.ReplyPollSeconds))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HazardLabelList splits HazardLabels into trimmed, non-empty label names.
func (c *Config) HazardLabelList() []string {
	parts := strings.Split(c.HazardLabels, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CORSOriginList splits CORSOrigins into trimmed, non-empty origins.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
