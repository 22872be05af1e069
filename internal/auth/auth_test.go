package auth

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv("GEMINI_API_KEY", testKey)

	key, err := GetAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := GetAPIKey()
	if err == nil {
		t.Fatal("expected error when no API key source available")
	}
	var authErr *Error
	if !errors.As(err, &authErr) || authErr.Kind != KindNoKey {
		t.Errorf("expected KindNoKey, got %v", err)
	}
	if !errors.Is(err, ErrNoAPIKey) {
		t.Error("expected error to wrap ErrNoAPIKey")
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		code int
		msg  string
		want Kind
	}{
		{400, "API key not valid. Please pass a valid API key.", KindInvalidKey},
		{400, "Invalid JSON payload", KindBadRequest},
		{401, "", KindInvalidKey},
		{403, "", KindInvalidKey},
		{429, "Resource has been exhausted", KindQuotaExceeded},
		{503, "", KindNetwork},
		{418, "teapot", KindUnknown},
	}
	for _, tc := range tests {
		err := fmt.Errorf("generate: %w", genai.APIError{Code: tc.code, Message: tc.msg})
		got := Classify(err)
		if got.Kind != tc.want {
			t.Errorf("code %d: Kind = %s, expected %s", tc.code, got.Kind, tc.want)
		}
		if !errors.Is(got, err) && got.Err != err {
			t.Errorf("code %d: classified error does not wrap the original", tc.code)
		}
	}
}

func TestClassifyByMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"rpc error: permission denied", KindInvalidKey},
		{"quota exceeded for project", KindQuotaExceeded},
		{"dial tcp: lookup generativelanguage.googleapis.com: no such host", KindNetwork},
		{"context deadline exceeded", KindNetwork},
		{"something odd", KindUnknown},
	}
	for _, tc := range tests {
		if got := Classify(errors.New(tc.msg)); got.Kind != tc.want {
			t.Errorf("Classify(%q).Kind = %s, expected %s", tc.msg, got.Kind, tc.want)
		}
	}
}

func TestClassifyKeepsClassifiedErrors(t *testing.T) {
	orig := &Error{Kind: KindQuotaExceeded, Message: "slow down"}
	if got := Classify(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("expected the existing classification to be returned")
	}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
