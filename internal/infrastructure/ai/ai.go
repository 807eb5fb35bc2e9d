// Package ai defines the text generation port used by the chat router and the
// error taxonomy shared by its provider implementations.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// StatusError is returned by providers when the upstream API answered with a
// non-success HTTP status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

var ErrDisabled = errors.New("text generation is not configured")

type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureAuth      FailureKind = "auth"
	FailureRateLimit FailureKind = "rate_limit"
	FailureGeneric   FailureKind = "generic"
)

// Classify maps a generation error to the failure kinds surfaced to users.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return FailureAuth
		case http.StatusTooManyRequests:
			return FailureRateLimit
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return FailureTimeout
		}
		return FailureGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return FailureTimeout
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return FailureRateLimit
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"):
		return FailureAuth
	}
	return FailureGeneric
}

// Disabled is used when no provider is configured. Every call fails with
// ErrDisabled.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}
