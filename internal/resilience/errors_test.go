package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"429", WithStatus(boom, 429), ClassRateLimited},
		{"wrapped 429", fmt.Errorf("search jobs: %w", WithStatus(boom, 429)), ClassRateLimited},
		{"408", WithStatus(boom, 408), ClassTransient},
		{"502", WithStatus(boom, 502), ClassTransient},
		{"404", WithStatus(boom, 404), ClassPermanent},
		{"net timeout", fmt.Errorf("get: %w", timeoutErr{}), ClassTransient},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ClassTransient},
		{"broken pipe", fmt.Errorf("write: %w", syscall.EPIPE), ClassTransient},
		{"plain", boom, ClassPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want != ClassPermanent, IsTransient(tt.err))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(WithStatus(errors.New("slow down"), 429)))
	assert.False(t, IsRateLimited(WithStatus(errors.New("oops"), 500)))
	assert.False(t, IsRateLimited(errors.New("boom")))
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsTransient(nil))
}

func TestWithStatus(t *testing.T) {
	assert.NoError(t, WithStatus(nil, 500))

	base := errors.New("unavailable")
	err := WithStatus(base, 503)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 503, StatusOf(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, "unavailable", err.Error())
	assert.Zero(t, StatusOf(base))
}
