package snov

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPollDelay   = 30 * time.Second
	defaultPollInitial = 5 * time.Second
	defaultPollCap     = 30 * time.Second
	defaultPollTimeout = 2 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	delay   time.Duration
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
}

func defaultPollConfig() pollConfig {
	return pollConfig{
		delay:   defaultPollDelay,
		initial: defaultPollInitial,
		cap:     defaultPollCap,
		timeout: defaultPollTimeout,
	}
}

// WithInitialDelay sets how long to wait before the first result request.
func WithInitialDelay(d time.Duration) PollOption {
	return func(c *pollConfig) {
		c.delay = d
	}
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.initial = d
		}
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.cap = d
		}
	}
}

// WithPollTimeout bounds the whole poll, initial delay included.
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// PollNameDomain waits the initial delay, then requests the task result
// until it leaves the in-progress state or the timeout expires. Intervals
// double from the initial interval up to the cap.
func PollNameDomain(ctx context.Context, client Client, taskHash string, opts ...PollOption) (*NameDomainResult, error) {
	cfg := defaultPollConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	if err := wait(ctx, cfg.delay); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("snov: poll name search %s timed out", taskHash))
	}

	interval := cfg.initial
	for {
		res, err := client.GetNameDomainResult(ctx, taskHash)
		if err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("snov: poll name search %s", taskHash))
		}
		if res.Done() {
			return res, nil
		}

		if err := wait(ctx, interval); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("snov: poll name search %s timed out", taskHash))
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
