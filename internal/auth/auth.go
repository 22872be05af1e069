// Package auth resolves the Gemini API key and classifies Gemini API failures.
package auth

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

// ErrNoAPIKey is returned when no key is configured.
var ErrNoAPIKey = errors.New("API key not found. Set GEMINI_API_KEY (or SSM_API_KEY_PARAM when running on AWS)")

// GetAPIKey returns GEMINI_API_KEY. Local runs may provide it through a .env
// file; Lambdas copy it from SSM into the environment at cold start.
func GetAPIKey() (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}
	return "", &Error{Kind: KindNoKey, Message: "no API key configured", Err: ErrNoAPIKey}
}
