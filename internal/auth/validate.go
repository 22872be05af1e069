package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Error is a classified Gemini API failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Kind categorizes API failures so callers can give actionable messages.
type Kind int

const (
	// KindNoKey indicates no API key was found.
	KindNoKey Kind = iota
	// KindInvalidKey indicates the API key is invalid or revoked.
	KindInvalidKey
	// KindNetwork indicates a connectivity problem or a server-side outage.
	KindNetwork
	// KindQuotaExceeded indicates the quota or rate limit was hit.
	KindQuotaExceeded
	// KindBadRequest indicates the request itself was rejected.
	KindBadRequest
	// KindUnknown is anything else.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNoKey:
		return "no_key"
	case KindInvalidKey:
		return "invalid_key"
	case KindNetwork:
		return "network_error"
	case KindQuotaExceeded:
		return "quota"
	case KindBadRequest:
		return "bad_request"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify wraps err in an *Error with the matching Kind. An error that is
// already classified is returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyAPIError(*apiErrPtr, err)
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return &Error{Kind: KindInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return &Error{Kind: KindQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "deadline exceeded") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &Error{Kind: KindNetwork, Message: "network error reaching Gemini", Err: err}

	default:
		return &Error{Kind: KindUnknown, Message: "Gemini request failed", Err: err}
	}
}

func classifyAPIError(apiErr genai.APIError, err error) *Error {
	log.Debug().Int("code", apiErr.Code).Str("status", apiErr.Status).Msg("Classifying Gemini API error")
	switch apiErr.Code {
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
			return &Error{Kind: KindInvalidKey, Message: "API key is malformed", Err: err}
		}
		return &Error{Kind: KindBadRequest, Message: "Gemini rejected the request", Err: err}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}
	case http.StatusTooManyRequests:
		return &Error{Kind: KindQuotaExceeded, Message: "API rate limit exceeded", Err: err}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &Error{Kind: KindNetwork, Message: "Gemini API server error", Err: err}
	default:
		return &Error{Kind: KindUnknown, Message: apiErr.Message, Err: err}
	}
}
