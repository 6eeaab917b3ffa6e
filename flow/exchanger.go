package flow

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tokenforge/tokenforge/credentials"
	"github.com/tokenforge/tokenforge/internal/config"
	"github.com/tokenforge/tokenforge/internal/errors"
)

// Exchanger turns a client secret descriptor plus a user-obtained
// authorization code into a token descriptor. It holds no per-attempt
// state and is safe for concurrent use.
type Exchanger struct {
	timeout time.Duration
	issuer  string
	client  *http.Client
}

// Result bundles the exchange output. Identity is advisory and may be nil
// when the provider returned nothing to derive it from.
type Result struct {
	Token    *TokenDescriptor
	Identity *Identity
}

func NewExchanger(cfg config.OAuthConfig) *Exchanger {
	return &Exchanger{
		timeout: cfg.GetExchangeTimeout(),
		issuer:  cfg.GetIdentityIssuer(),
	}
}

// SetHTTPClient overrides the transport used for provider calls.
func (e *Exchanger) SetHTTPClient(client *http.Client) {
	e.client = client
}

// AuthorizationURL deterministically builds the provider authorization URL
// with offline access and incremental-consent parameters.
func (e *Exchanger) AuthorizationURL(d *credentials.ClientSecretDescriptor, scopes []string, redirectURI, state string) (string, error) {
	conf, err := oauthConfig(d, scopes, redirectURI)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// Exchange performs the single token-endpoint POST for an authorization
// code. The call is bounded by the configured timeout; there are no
// retries, because codes are single use and short lived - a failed
// exchange means the caller must start over with a fresh authorization URL.
func (e *Exchanger) Exchange(ctx context.Context, d *credentials.ClientSecretDescriptor, scopes []string, redirectURI, code string) (*Result, error) {
	conf, err := oauthConfig(d, scopes, redirectURI)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, errors.Wrapf(errors.ErrMalformedInput, "empty authorization code")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if e.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			reason := retrieveErr.ErrorCode
			if reason == "" {
				reason = strings.TrimSpace(string(retrieveErr.Body))
			}
			return nil, errors.Wrapf(errors.ErrAuthorizationDenied, "token endpoint rejected the code (%s)", reason)
		}
		return nil, errors.Wrapf(errors.ErrNetworkFailure, "token endpoint call failed (%v)", err)
	}

	return &Result{
		Token:    newTokenDescriptor(tok, d, scopes),
		Identity: e.identify(ctx, tok, scopes),
	}, nil
}

// identify derives the authenticated account. An ID token in the response
// is decoded locally; otherwise, when identity scopes were requested, the
// provider's userinfo endpoint is consulted. Failures are logged and
// swallowed - identity never fails an exchange.
func (e *Exchanger) identify(ctx context.Context, tok *oauth2.Token, scopes []string) *Identity {
	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		identity, err := IdentityFromIDToken(rawIDToken)
		if err == nil {
			return identity
		}
		log.Debug().Err(err).Msg("could not decode id_token claims")
	}

	if e.issuer == "" || !hasIdentityScope(scopes) {
		return nil
	}
	identity, err := FetchIdentity(ctx, e.issuer, tok)
	if err != nil {
		log.Debug().Err(err).Msg("userinfo lookup failed")
		return nil
	}
	return identity
}

func hasIdentityScope(scopes []string) bool {
	for _, scope := range scopes {
		if scope == "openid" || scope == "email" || strings.HasSuffix(scope, "/userinfo.email") {
			return true
		}
	}
	return false
}

// oauthConfig assembles the library configuration from the descriptor.
func oauthConfig(d *credentials.ClientSecretDescriptor, scopes []string, redirectURI string) (*oauth2.Config, error) {
	if d == nil {
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "no descriptor supplied")
	}
	if d.ClientID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "descriptor has no client_id")
	}
	if redirectURI == "" {
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "no redirect URI chosen")
	}

	return &oauth2.Config{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		Endpoint:     d.Endpoint(),
		RedirectURL:  redirectURI,
		Scopes:       scopes,
	}, nil
}
