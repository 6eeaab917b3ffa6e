// Package credentials parses provider-issued OAuth client secret files,
// the JSON exports downloaded from Google Cloud Console when creating
// "Desktop app" or "Web application" OAuth 2.0 client IDs.
package credentials

import (
	"encoding/json"

	"github.com/tokenforge/tokenforge/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ApplicationType discriminates the two client secret layouts.
type ApplicationType string

const (
	// InstalledApplication is a native/desktop client ("installed" key).
	InstalledApplication ApplicationType = "installed"
	// WebApplication is a server-side web client ("web" key).
	WebApplication ApplicationType = "web"
)

// ClientSecretDescriptor is the immutable identity of the requesting
// application. It is loaded once from an uploaded JSON file and never
// modified afterwards.
type ClientSecretDescriptor struct {
	Type         ApplicationType
	ClientID     string
	ClientSecret string
	AuthURI      string
	TokenURI     string
	RedirectURIs []string
}

// clientSecretFile matches the on-disk layout. Exactly one of the two
// application-type keys must be present.
type clientSecretFile struct {
	Installed *clientSecretEntry `json:"installed"`
	Web       *clientSecretEntry `json:"web"`
}

type clientSecretEntry struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
	RedirectURI  string   `json:"redirect_uri"`
}

// Parse decodes and validates an uploaded client secret file.
// Ambiguous files (both "installed" and "web"), files with neither key,
// and files without a client_id are rejected with ErrInvalidDescriptor.
func Parse(data []byte) (*ClientSecretDescriptor, error) {
	var file clientSecretFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "not a JSON client secret file (%v)", err)
	}

	var entry *clientSecretEntry
	var appType ApplicationType
	switch {
	case file.Installed != nil && file.Web != nil:
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "ambiguous file: both %q and %q present", InstalledApplication, WebApplication)
	case file.Installed != nil:
		entry, appType = file.Installed, InstalledApplication
	case file.Web != nil:
		entry, appType = file.Web, WebApplication
	default:
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "missing %q or %q key", InstalledApplication, WebApplication)
	}

	if entry.ClientID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidDescriptor, "%s application has no client_id", appType)
	}

	redirectURIs := entry.RedirectURIs
	if len(redirectURIs) == 0 && entry.RedirectURI != "" {
		redirectURIs = []string{entry.RedirectURI}
	}

	return &ClientSecretDescriptor{
		Type:         appType,
		ClientID:     entry.ClientID,
		ClientSecret: entry.ClientSecret,
		AuthURI:      entry.AuthURI,
		TokenURI:     entry.TokenURI,
		RedirectURIs: redirectURIs,
	}, nil
}

// Endpoint returns the authorization and token endpoints from the file,
// falling back to Google's well-known endpoints when the export omits them.
func (d *ClientSecretDescriptor) Endpoint() oauth2.Endpoint {
	endpoint := google.Endpoint
	if d.AuthURI != "" {
		endpoint.AuthURL = d.AuthURI
	}
	if d.TokenURI != "" {
		endpoint.TokenURL = d.TokenURI
	}
	return endpoint
}

// RedirectURI picks the redirect for the authorization request: the first
// URI registered in the file, or the supplied fallback when none exist.
func (d *ClientSecretDescriptor) RedirectURI(fallback string) string {
	if len(d.RedirectURIs) > 0 {
		return d.RedirectURIs[0]
	}
	return fallback
}
