// Package cost prices LLM token usage and accumulates it per run.
package cost

import (
	"sort"
	"sync"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

// ModelRate holds token pricing per million tokens. Cache multipliers are
// applied to the input price.
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// DefaultRate is the Sonnet list price.
func DefaultRate() ModelRate {
	return ModelRate{Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1}
}

// RateFromConfig builds the rate from the configured $/MTok prices. Unset
// prices fall back to DefaultRate.
func RateFromConfig(cfg config.AnthropicConfig) ModelRate {
	r := DefaultRate()
	if cfg.InputPrice > 0 {
		r.Input = cfg.InputPrice
	}
	if cfg.OutputPrice > 0 {
		r.Output = cfg.OutputPrice
	}
	return r
}

// Calculator computes costs for API usage.
type Calculator struct {
	rate ModelRate
}

// NewCalculator creates a Calculator with the given rate.
func NewCalculator(rate ModelRate) *Calculator {
	return &Calculator{rate: rate}
}

// Claude computes the cost of one Claude call.
func (c *Calculator) Claude(u anthropic.TokenUsage) float64 {
	inCost := (float64(u.InputTokens) / 1e6) * c.rate.Input
	outCost := (float64(u.OutputTokens) / 1e6) * c.rate.Output
	cwCost := (float64(u.CacheCreationInputTokens) / 1e6) * c.rate.Input * c.rate.CacheWriteMul
	crCost := (float64(u.CacheReadInputTokens) / 1e6) * c.rate.Input * c.rate.CacheReadMul
	return inCost + outCost + cwCost + crCost
}

// Ledger accumulates priced usage per phase. It is safe for concurrent use.
type Ledger struct {
	calc *Calculator

	mu     sync.Mutex
	phases map[string]model.TokenUsage
}

// NewLedger creates an empty ledger priced by calc.
func NewLedger(calc *Calculator) *Ledger {
	return &Ledger{calc: calc, phases: make(map[string]model.TokenUsage)}
}

// Record prices u, adds it to phase and returns the priced usage.
func (l *Ledger) Record(phase string, u anthropic.TokenUsage) model.TokenUsage {
	priced := model.TokenUsage{
		InputTokens:  u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens,
		OutputTokens: u.OutputTokens,
		Calls:        1,
		CostUSD:      l.calc.Claude(u),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.phases[phase]
	cur.Add(priced)
	l.phases[phase] = cur
	return priced
}

// Phase returns the usage recorded for one phase.
func (l *Ledger) Phase(phase string) model.TokenUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phases[phase]
}

// Phases returns the recorded phase names in sorted order.
func (l *Ledger) Phases() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.phases))
	for p := range l.phases {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Total sums every phase.
func (l *Ledger) Total() model.TokenUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total model.TokenUsage
	for _, u := range l.phases {
		total.Add(u)
	}
	return total
}
