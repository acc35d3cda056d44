package resilience

import (
	"github.com/sells-group/leadgen-cli/internal/config"
)

// FromConfig builds a Policy from configured values. Zero values keep the
// DefaultPolicy setting.
func FromConfig(c config.RetryConfig) Policy {
	cfg := DefaultPolicy()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoff > 0 {
		cfg.InitialBackoff = c.InitialBackoff
	}
	if c.MaxBackoff > 0 {
		cfg.MaxBackoff = c.MaxBackoff
	}
	if c.Multiplier > 0 {
		cfg.Multiplier = c.Multiplier
	}
	return cfg
}
