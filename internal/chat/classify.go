package chat

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/openai/openai-go/v3"
)

// failureKind classifies why a completion request failed. It is only used for logging because every failure ends
// in the same fallback reply.
type failureKind string

const (
	failureNotConfigured  failureKind = "not_configured"
	failureRateLimit      failureKind = "rate_limit"
	failureQuotaExceeded  failureKind = "quota_exceeded"
	failureAuthentication failureKind = "authentication"
	failurePermission     failureKind = "permission"
	failureInvalidRequest failureKind = "invalid_request"
	failureNotFound       failureKind = "not_found"
	failureServer         failureKind = "server_error"
	failureTimeout        failureKind = "timeout"
	failureCanceled       failureKind = "canceled"
	failureEmptyResponse  failureKind = "empty_response"
	failureMalformed      failureKind = "malformed_response"
	failureUnknown        failureKind = "unknown"
)

var (
	errNotConfigured = errors.NewSentinel("chat api key not configured")
	errEmptyResponse = errors.NewSentinel("empty completion")
	errMalformed     = errors.NewSentinel("malformed completion")
)

func classify(err error) failureKind {
	switch {
	case errors.Is(err, errNotConfigured):
		return failureNotConfigured
	case errors.Is(err, errEmptyResponse):
		return failureEmptyResponse
	case errors.Is(err, errMalformed):
		return failureMalformed
	case errors.Is(err, context.DeadlineExceeded):
		return failureTimeout
	case errors.Is(err, context.Canceled):
		return failureCanceled
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode, apiErr.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}
	return failureUnknown
}

func classifyStatus(status int, msg string) failureKind {
	switch {
	case status == http.StatusTooManyRequests:
		// Exhausted credit is reported as 429 too but waiting does not help.
		if strings.Contains(strings.ToLower(msg), "quota") {
			return failureQuotaExceeded
		}
		return failureRateLimit
	case status == http.StatusUnauthorized:
		return failureAuthentication
	case status == http.StatusForbidden:
		return failurePermission
	case status == http.StatusNotFound:
		return failureNotFound
	case status == http.StatusRequestTimeout:
		return failureTimeout
	case status >= http.StatusInternalServerError:
		return failureServer
	case status >= http.StatusBadRequest:
		return failureInvalidRequest
	default:
		return failureUnknown
	}
}
