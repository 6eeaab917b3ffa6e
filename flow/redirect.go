package flow

import (
	"net/url"
	"strings"

	"github.com/tokenforge/tokenforge/internal/errors"
)

// Callback captures the parameters extracted from a pasted redirect.
type Callback struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// Denied reports whether the provider returned an error parameter instead
// of a code (the user declined consent, or the request was rejected).
func (c *Callback) Denied() bool {
	return c.ErrorCode != ""
}

// ParseRedirectInput extracts the authorization code from whatever the user
// pasted into the wizard: the full redirect URL from the browser address
// bar, just its query string, or the bare code itself. Input that yields
// neither a code nor a provider error fails with ErrMalformedInput.
func ParseRedirectInput(input string) (*Callback, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "empty redirect input")
	}

	// A bare authorization code has no URL syntax at all. Google codes
	// look like "4/0AX..." so a slash alone does not make it a URL.
	if !strings.ContainsAny(trimmed, "?&=") && !strings.Contains(trimmed, "://") {
		return &Callback{Code: trimmed}, nil
	}

	candidate := trimmed
	switch {
	case strings.Contains(candidate, "://"):
		// Full URL, keep as is.
	case strings.HasPrefix(candidate, "?"):
		candidate = "http://localhost/" + candidate
	default:
		// Query string without the leading "?" ("code=...&scope=...").
		candidate = "http://localhost/?" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "cannot parse redirect URL %q", trimmed)
	}

	query := parsed.Query()
	cb := &Callback{
		Code:             strings.TrimSpace(query.Get("code")),
		State:            strings.TrimSpace(query.Get("state")),
		ErrorCode:        strings.TrimSpace(query.Get("error")),
		ErrorDescription: strings.TrimSpace(query.Get("error_description")),
	}

	if cb.Code == "" && cb.ErrorCode == "" {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "redirect URL has no code parameter")
	}
	return cb, nil
}
