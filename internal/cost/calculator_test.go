package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRate())

	tests := []struct {
		name  string
		usage anthropic.TokenUsage
		want  float64
	}{
		{
			name:  "input and output",
			usage: anthropic.TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000},
			want:  3.00 + 1.50,
		},
		{
			name:  "cache write",
			usage: anthropic.TokenUsage{CacheCreationInputTokens: 1_000_000},
			want:  3.75,
		},
		{
			name:  "cache read",
			usage: anthropic.TokenUsage{CacheReadInputTokens: 1_000_000},
			want:  0.30,
		},
		{
			name:  "zero",
			usage: anthropic.TokenUsage{},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Claude(tt.usage), 1e-9)
		})
	}
}

func TestRateFromConfig(t *testing.T) {
	t.Parallel()

	r := RateFromConfig(config.AnthropicConfig{InputPrice: 1, OutputPrice: 5})
	assert.InDelta(t, 1.0, r.Input, 1e-9)
	assert.InDelta(t, 5.0, r.Output, 1e-9)
	assert.InDelta(t, 1.25, r.CacheWriteMul, 1e-9)

	r = RateFromConfig(config.AnthropicConfig{})
	assert.Equal(t, DefaultRate(), r)
}

func TestLedger(t *testing.T) {
	t.Parallel()
	l := NewLedger(NewCalculator(DefaultRate()))

	got := l.Record("sequence", anthropic.TokenUsage{InputTokens: 1_000_000, OutputTokens: 0})
	assert.Equal(t, 1, got.Calls)
	assert.InDelta(t, 3.0, got.CostUSD, 1e-9)

	l.Record("sequence", anthropic.TokenUsage{InputTokens: 100, CacheReadInputTokens: 50, OutputTokens: 10})
	l.Record("questionnaire", anthropic.TokenUsage{OutputTokens: 1_000_000})

	seq := l.Phase("sequence")
	assert.Equal(t, 2, seq.Calls)
	assert.Equal(t, int64(1_000_150), seq.InputTokens)
	assert.Equal(t, int64(10), seq.OutputTokens)

	assert.Equal(t, []string{"questionnaire", "sequence"}, l.Phases())

	total := l.Total()
	assert.Equal(t, 3, total.Calls)
	assert.InDelta(t, 3.0+15.0+calcSmall(), total.CostUSD, 1e-6)
}

func calcSmall() float64 {
	return NewCalculator(DefaultRate()).Claude(anthropic.TokenUsage{InputTokens: 100, CacheReadInputTokens: 50, OutputTokens: 10})
}

func TestLedger_Concurrent(t *testing.T) {
	t.Parallel()
	l := NewLedger(NewCalculator(DefaultRate()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Record("sequence", anthropic.TokenUsage{InputTokens: 10})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, l.Phase("sequence").Calls)
	assert.Equal(t, int64(200), l.Total().InputTokens)
}
