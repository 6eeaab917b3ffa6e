package flow

import (
	"encoding/json"
	"strings"

	"golang.org/x/oauth2"

	"github.com/tokenforge/tokenforge/credentials"
)

// TokenFilename is the name the descriptor is downloaded under.
const TokenFilename = "token.json"

// TokenDescriptor is the output artifact of a successful exchange, shaped
// for direct consumption by Google API client libraries (the same keys an
// authorized-user file carries). It is handed to the caller once and not
// retained by the exchanger.
type TokenDescriptor struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
}

// newTokenDescriptor maps an oauth2 token response onto the output artifact.
// The provider may narrow the granted scopes; when it reports them in the
// response ("scope" field) those win over the requested set.
func newTokenDescriptor(tok *oauth2.Token, d *credentials.ClientSecretDescriptor, requestedScopes []string) *TokenDescriptor {
	scopes := requestedScopes
	if granted, ok := tok.Extra("scope").(string); ok {
		if fields := strings.Fields(granted); len(fields) > 0 {
			scopes = fields
		}
	}

	return &TokenDescriptor{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     d.Endpoint().TokenURL,
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		Scopes:       scopes,
	}
}

// JSON renders the descriptor as the downloadable token.json payload.
func (t *TokenDescriptor) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// HasRefreshToken reports whether the provider issued a refresh token.
// Google omits it when consent for this client/scope pair was already
// granted and never revoked.
func (t *TokenDescriptor) HasRefreshToken() bool {
	return t.RefreshToken != ""
}
