package validation

import (
	"net"
	"net/url"
	"strings"

	apperrors "go-vision-capture/internal/errors"
)

// URLValidator handles endpoint URL validation
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	// loopback hosts may use plain http, for local emulators and tests
	allowLoopbackHTTP bool
}

// NewURLValidator creates a validator that accepts https endpoints on any host
// and plain http only on loopback addresses.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes:    []string{"https"},
		allowedHosts:      []string{},
		allowLoopbackHTTP: true,
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint checks that rawURL is an absolute endpoint the label
// client may POST to. Query strings are rejected: the API key is appended by
// the client, never configured inline.
func (v *URLValidator) ValidateEndpoint(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) &&
		!(v.allowLoopbackHTTP && parsedURL.Scheme == "http" && isLoopback(parsedURL.Hostname())) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	if parsedURL.RawQuery != "" {
		return apperrors.NewValidationError("URL must not carry a query string", nil)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
