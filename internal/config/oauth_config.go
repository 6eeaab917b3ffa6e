package config

import (
	"strings"
	"time"
)

const (
	scopesEnvVar            = "OAUTH_SCOPES"
	exchangeTimeoutEnvVar   = "EXCHANGE_TIMEOUT"
	manualRedirectEnvVar    = "MANUAL_REDIRECT_URI"
	identityIssuerEnvVar    = "IDENTITY_ISSUER"
	defaultManualRedirect   = "http://localhost:8080"
	defaultIdentityIssuer   = "https://accounts.google.com"
	defaultExchangeTimeout  = 15 * time.Second
	defaultAttemptLifetime  = 30 * time.Minute
	defaultStateLengthBytes = 32
)

// Default scope set mirrors what the token files are most commonly
// generated for: Gmail plus Calendar access.
var defaultScopes = []string{
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/calendar",
}

type OAuthConfig interface {
	GetScopes() []string
	GetExchangeTimeout() time.Duration
	GetAttemptLifetime() time.Duration
	GetStateLength() int
	GetManualRedirectURI() string
	GetIdentityIssuer() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetScopes returns the permission scopes requested during authorization.
// OAUTH_SCOPES overrides the default set (space separated).
func (OAuth) GetScopes() []string {
	if raw := GetEnv(scopesEnvVar, ""); raw != "" {
		return strings.Fields(raw)
	}
	return defaultScopes
}

// GetExchangeTimeout bounds the single token-endpoint call. EXCHANGE_TIMEOUT
// accepts a Go duration string (e.g. "30s").
func (OAuth) GetExchangeTimeout() time.Duration {
	if raw := GetEnv(exchangeTimeoutEnvVar, ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return defaultExchangeTimeout
}

func (OAuth) GetAttemptLifetime() time.Duration {
	return defaultAttemptLifetime
}

func (OAuth) GetStateLength() int {
	return defaultStateLengthBytes
}

// GetManualRedirectURI is the redirect used for the copy-the-URL flow:
// the provider sends the browser to a page that never loads and the user
// pastes the address bar contents back into the wizard.
func (OAuth) GetManualRedirectURI() string {
	return GetEnv(manualRedirectEnvVar, defaultManualRedirect)
}

// GetIdentityIssuer is the OIDC issuer used to look up the authenticated
// account after a successful exchange. Empty disables the lookup.
func (OAuth) GetIdentityIssuer() string {
	return GetEnv(identityIssuerEnvVar, defaultIdentityIssuer)
}
