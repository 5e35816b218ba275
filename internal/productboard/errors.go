package productboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorKind classifies an API failure and drives the retry policy.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindUnknown        ErrorKind = "unknown"
)

const (
	// defaultRetryAfter is used when a 429 response carries no Retry-After header
	defaultRetryAfter = 60 * time.Second
	// backoffBase is the exponential backoff starting delay
	backoffBase = 1 * time.Second
	// backoffCap is the maximum backoff delay between retries
	backoffCap = 30 * time.Second
)

// APIError is the single error type surfaced by the client. Callers switch
// on Kind rather than on concrete error types.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Details    any
	// RetryAfter is only set for rate-limit responses
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("productboard: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("productboard: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is transient. Transport failures
// (no response at all) are retryable; unrecognised statuses only when 5xx.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer:
		return true
	case KindUnknown:
		return e.StatusCode == 0 || e.StatusCode >= 500
	default:
		return false
	}
}

// RetryDelay returns how long to wait before the given retry attempt
// (attempt starts at 0). Rate-limit errors honour the server's Retry-After;
// everything else uses capped exponential backoff.
func (e *APIError) RetryDelay(attempt int) time.Duration {
	return retryDelay(e, attempt, backoffBase, backoffCap)
}

func retryDelay(e *APIError, attempt int, base, ceiling time.Duration) time.Duration {
	if e.Kind == KindRateLimit {
		if e.RetryAfter > 0 {
			return e.RetryAfter
		}
		return defaultRetryAfter
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}

// classifyStatus maps an HTTP status code to an error kind.
func classifyStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServer
	default:
		return KindUnknown
	}
}

// classifyResponse builds an APIError from a non-2xx response. Malformed
// error bodies never prevent error construction.
func classifyResponse(status int, header http.Header, body []byte) *APIError {
	apiErr := &APIError{
		Kind:       classifyStatus(status),
		StatusCode: status,
		Message:    extractMessage(body),
		Details:    extractDetails(body),
	}

	if apiErr.Kind == KindRateLimit {
		apiErr.RetryAfter = defaultRetryAfter
		if raw := header.Get("Retry-After"); raw != "" {
			if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
	}

	return apiErr
}

// transportError wraps a failure where no HTTP response was received
// (connection refused, timeout, DNS). These are always retryable.
func transportError(err error) *APIError {
	return &APIError{
		Kind:    KindUnknown,
		Message: err.Error(),
	}
}

// extractMessage pulls a human-readable message out of an upstream error
// body. The API is not consistent about its error shape, so several known
// layouts are tried before falling back to a generic message.
func extractMessage(body []byte) string {
	const fallback = "unexpected error from Productboard API"

	if len(body) == 0 {
		return fallback
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}

	// Top-level "message" field
	if msg, ok := parsed["message"].(string); ok && msg != "" {
		return msg
	}

	// "error" as a plain string or as an object with a message
	switch errVal := parsed["error"].(type) {
	case string:
		if errVal != "" {
			return errVal
		}
	case map[string]any:
		if msg, ok := errVal["message"].(string); ok && msg != "" {
			return msg
		}
	}

	// First element of an "errors" array
	if errs, ok := parsed["errors"].([]any); ok && len(errs) > 0 {
		switch first := errs[0].(type) {
		case string:
			if first != "" {
				return first
			}
		case map[string]any:
			if msg, ok := first["message"].(string); ok && msg != "" {
				return msg
			}
			if msg, ok := first["detail"].(string); ok && msg != "" {
				return msg
			}
		}
	}

	return fallback
}

// extractDetails returns any structured detail payload the API attached to
// the error, most commonly on validation failures.
func extractDetails(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	if details, ok := parsed["details"]; ok {
		return details
	}
	if errs, ok := parsed["errors"]; ok {
		return errs
	}
	return nil
}
