package service

import (
	"fmt"
	"net/url"

	"github.com/vadimbarashkov/shortlink/internal/shortcode"
)

// ValidationError reports malformed client input. Reason is safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateURL checks that rawURL is an absolute http or https URL with a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Reason: "URL is required and must be a string"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Reason: fmt.Sprintf("Invalid URL format: %v", err)}
	}

	switch {
	case u.Scheme == "":
		return &ValidationError{Field: "url", Reason: "URL must include protocol (http:// or https://)"}
	case u.Scheme != "http" && u.Scheme != "https":
		return &ValidationError{Field: "url", Reason: "Only http and https protocols are allowed"}
	case u.Host == "":
		return &ValidationError{Field: "url", Reason: "URL must include a valid domain"}
	}

	return nil
}

// ValidateShortCode checks the short code format without touching the store.
func ValidateShortCode(code string) error {
	if code == "" {
		return &ValidationError{Field: "short_code", Reason: "Short code is required"}
	}

	if !shortcode.IsValid(code) {
		return &ValidationError{Field: "short_code", Reason: "Invalid short code format"}
	}

	return nil
}
