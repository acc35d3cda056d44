package resilience

import (
	"errors"
	"net"
	"net/http"
	"syscall"
)

// Class is the retry category of a failed call.
type Class string

// Error classes, also used as metric outcome labels.
const (
	ClassRateLimited Class = "rate_limited"
	ClassTransient   Class = "transient"
	ClassPermanent   Class = "permanent"
)

// StatusCoder is implemented by API errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// StatusError attaches an HTTP status to err.
type StatusError struct {
	Err    error
	Status int
}

func (e *StatusError) Error() string   { return e.Err.Error() }
func (e *StatusError) Unwrap() error   { return e.Err }
func (e *StatusError) HTTPStatus() int { return e.Status }

// WithStatus wraps err with an HTTP status.
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &StatusError{Err: err, Status: status}
}

// StatusOf returns the first HTTP status found in err's chain, or 0.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// IsRateLimited reports whether err is a 429 response.
func IsRateLimited(err error) bool {
	return err != nil && StatusOf(err) == http.StatusTooManyRequests
}

// Classify sorts err into a Class. Timeouts, dropped connections and 408 or
// 5xx statuses are transient.
func Classify(err error) Class {
	status := StatusOf(err)
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status == http.StatusRequestTimeout, status >= 500 && status <= 599:
		return ClassTransient
	case status != 0:
		return ClassPermanent
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTransient
	}
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED, syscall.EPIPE} {
		if errors.Is(err, errno) {
			return ClassTransient
		}
	}
	return ClassPermanent
}

// IsTransient reports whether err is worth another attempt under a general
// policy. Rate limits count as transient.
func IsTransient(err error) bool {
	return err != nil && Classify(err) != ClassPermanent
}
